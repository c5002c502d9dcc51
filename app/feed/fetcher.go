package feed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"regexp"
	"strings"
	"time"

	"golang.org/x/text/encoding/htmlindex"

	"github.com/lysyi3m/rss-relay/app/errs"
)

const maxPayloadSize = 10 << 20

var xmlEncodingRe = regexp.MustCompile(`^\s*<\?xml[^>]*encoding\s*=\s*["']([A-Za-z0-9._-]+)["']`)

type Fetcher struct {
	httpClient *http.Client
	userAgent  string
	timeout    time.Duration
}

func NewFetcher(httpClient *http.Client, userAgent string, timeout time.Duration) *Fetcher {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Fetcher{
		httpClient: httpClient,
		userAgent:  userAgent,
		timeout:    timeout,
	}
}

// Fetch retrieves the feed at url and returns its body as UTF-8 text.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return "", fmt.Errorf("%w: failed to create request: %w", errs.ErrFetch, err)
	}

	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: failed to fetch feed: %w", errs.ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: HTTP error: %s", errs.ErrFetch, resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPayloadSize))
	if err != nil {
		return "", fmt.Errorf("%w: failed to read response body: %w", errs.ErrFetch, err)
	}

	return decodePayload(data, resp.Header.Get("Content-Type")), nil
}

// decodePayload converts data to UTF-8 using the charset announced by the
// Content-Type header or the XML declaration. Unknown charsets are passed
// through unchanged.
func decodePayload(data []byte, contentType string) string {
	charset := charsetFromContentType(contentType)
	if charset == "" {
		if m := xmlEncodingRe.FindSubmatch(data); m != nil {
			charset = string(m[1])
		}
	}

	charset = strings.ToLower(strings.TrimSpace(charset))
	if charset == "" || charset == "utf-8" || charset == "utf8" {
		return string(data)
	}

	enc, err := htmlindex.Get(charset)
	if err != nil {
		slog.Debug("Unknown feed charset, using payload as is", "charset", charset)
		return string(data)
	}

	decoded, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		slog.Debug("Failed to decode feed payload", "charset", charset, "error", err)
		return string(data)
	}

	return string(decoded)
}

func charsetFromContentType(contentType string) string {
	if contentType == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	return params["charset"]
}
