package scrape

import (
	"context"
	"strings"
	"testing"

	"oasis/internal/tester"
)

func TestScriptCarriesCaps(t *testing.T) {
	s := script()
	tester.True(t, strings.Contains(s, "MAX_DEPTH = 12, MAX_CHILDREN = 50"), "caps substituted")
	tester.False(t, strings.Contains(s, "%!"), "no formatting errors")
}

func TestDecodeElements(t *testing.T) {
	raw := `[{"tagName":"header","selector":"header#top","textContent":"Brand",
		"boundingBox":{"x":0,"y":0,"width":1440,"height":80},
		"styles":{"typography":{"color":"rgb(255, 255, 255)"},"layout":{"display":"flex"},"visual":{"backgroundColor":"rgb(10, 10, 10)","borderRadius":"0px"}},
		"children":[{"tagName":"nav","boundingBox":{"x":0,"y":0,"width":10,"height":10},"children":[]}]}]`
	els, err := decodeElements(raw)
	tester.NoErr(t, err)
	tester.Eq(t, len(els), 1)
	tester.Eq(t, els[0].Vis().BackgroundColor, "rgb(10, 10, 10)")
	tester.Eq(t, els[0].BoundingBox.Width, 1440.0)
	tester.Eq(t, els[0].Children[0].TagName, "nav")

	_, err = decodeElements("not json")
	tester.True(t, err != nil, "expected decode error")
}

func TestClosedSessionRejectsExtract(t *testing.T) {
	s := &Session{closed: true}
	s.cfg.defaults()
	_, err := s.Extract(context.Background(), "https://example.com")
	tester.True(t, err != nil, "closed session")
	_, err = s.Extract(context.Background(), " ")
	tester.True(t, err != nil, "empty url")
	tester.NoErr(t, s.Close())
}
