package feed

import (
	"cmp"
	"context"
	"fmt"
	"strings"

	"github.com/mmcdole/gofeed"
)

type ProbeResult struct {
	Name      string
	FeedType  string
	Title     string
	Entries   int // items seen by a full feed parser
	Extracted int // items seen by Extract
	Missing   []string
	Err       error
}

func (r ProbeResult) OK() bool {
	return r.Err == nil && r.Extracted > 0 && len(r.Missing) == 0
}

// Prober fetches a source and compares what the relay's extractor sees with
// a full feed parse, so an operator can spot markup the extractor misses.
type Prober struct {
	fetcher      *Fetcher
	gofeedParser *gofeed.Parser
}

func NewProber(fetcher *Fetcher) *Prober {
	return &Prober{
		fetcher:      fetcher,
		gofeedParser: gofeed.NewParser(),
	}
}

func (p *Prober) Run(ctx context.Context, src Source) ProbeResult {
	result := ProbeResult{Name: src.Name}

	payload, err := p.fetcher.Fetch(ctx, src.URL)
	if err != nil {
		result.Err = err
		return result
	}

	return p.compare(result, payload)
}

func (p *Prober) compare(result ProbeResult, payload string) ProbeResult {
	result.FeedType = feedTypeName(gofeed.DetectFeedType(strings.NewReader(payload)))

	entries, err := Extract(payload)
	if err != nil {
		result.Err = err
		return result
	}
	result.Extracted = len(entries)

	parsed, err := p.gofeedParser.ParseString(payload)
	if err != nil {
		result.Err = fmt.Errorf("failed to parse feed: %w", err)
		return result
	}

	result.Title = parsed.Title
	result.Entries = len(parsed.Items)

	extracted := make(map[string]bool, len(entries))
	for _, entry := range entries {
		extracted[entry.ID] = true
	}

	for _, item := range parsed.Items {
		id := cmp.Or(item.GUID, item.Link)
		if !extracted[id] {
			result.Missing = append(result.Missing, id)
		}
	}

	return result
}

func feedTypeName(t gofeed.FeedType) string {
	switch t {
	case gofeed.FeedTypeRSS:
		return "rss"
	case gofeed.FeedTypeAtom:
		return "atom"
	case gofeed.FeedTypeJSON:
		return "json"
	default:
		return "unknown"
	}
}
