package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const probePayload = `<?xml version="1.0" encoding="utf-8"?>
<rss version="2.0">
  <channel>
    <title>IT之家</title>
    <item>
      <title>One</title>
      <link>https://www.ithome.com/0/800/001.htm</link>
      <guid>ithome-800001</guid>
    </item>
    <item>
      <title>Two</title>
      <link>https://www.ithome.com/0/800/002.htm</link>
    </item>
  </channel>
</rss>`

func TestProberRun(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(probePayload))
	}))
	defer server.Close()

	prober := NewProber(NewFetcher(server.Client(), "", time.Second))
	result := prober.Run(context.Background(), Source{Name: "ithome", URL: server.URL})

	require.NoError(t, result.Err)
	assert.Equal(t, "ithome", result.Name)
	assert.Equal(t, "rss", result.FeedType)
	assert.Equal(t, "IT之家", result.Title)
	assert.Equal(t, 2, result.Entries)
	assert.Equal(t, 2, result.Extracted)
	assert.Empty(t, result.Missing)
	assert.True(t, result.OK())
}

func TestProberReportsExtractFailure(t *testing.T) {
	prober := NewProber(NewFetcher(nil, "", time.Second))
	result := prober.compare(ProbeResult{Name: "atom"}, `<feed xmlns="http://www.w3.org/2005/Atom"><title>A</title><entry><id>1</id></entry></feed>`)

	assert.Equal(t, "atom", result.FeedType)
	assert.Error(t, result.Err)
	assert.False(t, result.OK())
}
