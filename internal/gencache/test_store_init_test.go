package gencache

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLStoreSchemaRetriesAfterFailure(t *testing.T) {
	db, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	store := NewSQLStore(db, DialectSQLite)

	canceled, cancel := context.WithCancel(context.Background())
	cancel()
	a := Artifact{ID: "a1", DNAHash: "h1", ComponentCode: "x", CreatedAt: time.Now()}
	require.Error(t, store.Append(canceled, a))

	ctx := context.Background()
	require.NoError(t, store.Append(ctx, a))
	got, ok, err := store.FirstByHash(ctx, "h1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "a1", got.ID)
}

func TestS3StoreBucketCheckRetriesAfterFailure(t *testing.T) {
	var heads atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead {
			w.WriteHeader(http.StatusNotImplemented)
			return
		}
		if heads.Add(1) == 1 {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	store, err := NewS3Store(S3Config{
		Endpoint:  strings.TrimPrefix(srv.URL, "http://"),
		Region:    "us-east-1",
		AccessKey: "k",
		SecretKey: "s",
		Bucket:    "oasis-test",
	})
	require.NoError(t, err)

	ctx := context.Background()
	assert.Error(t, store.ensureBucket(ctx))
	assert.NoError(t, store.ensureBucket(ctx))
	assert.NoError(t, store.ensureBucket(ctx))
	assert.Equal(t, int32(2), heads.Load())
}
