package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oasis/internal/gencache"
	"oasis/internal/pipeline"
)

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{badRequest("x"), http.StatusBadRequest},
		{pipeline.ErrEmptyTree, http.StatusBadRequest},
		{fmt.Errorf("get: %w", gencache.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: model down", pipeline.ErrGenerationFailed), http.StatusBadGateway},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{errors.New("disk full"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, statusFor(tc.err), tc.err.Error())
	}
}

func TestPreviewETag(t *testing.T) {
	a, err := previewETag("<section>a</section>")
	require.NoError(t, err)
	b, err := previewETag("<section>a</section>")
	require.NoError(t, err)
	c, err := previewETag("<section>b</section>")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 18)
}
