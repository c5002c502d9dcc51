package pipeline

import (
	"time"

	"github.com/samber/lo"

	"github.com/lysyi3m/rss-relay/app/errs"
)

// FeedResult is the outcome of one feed within an update run.
type FeedResult struct {
	Name      string `json:"name"`
	Fetched   int    `json:"fetched"`
	New       int    `json:"new"`
	Delivered int    `json:"delivered"`
	Failed    int    `json:"failed"`
	Error     string `json:"error,omitempty"`
	Kind      string `json:"kind,omitempty"`

	err error
}

func (r *FeedResult) fail(err error) {
	r.err = err
	r.Error = err.Error()
	r.Kind = errs.KindOf(err)
}

func (r FeedResult) Err() error {
	return r.err
}

type RunReport struct {
	StartedAt time.Time    `json:"started_at"`
	Duration  string       `json:"duration"`
	Feeds     []FeedResult `json:"feeds"`
}

func (r *RunReport) Delivered() int {
	return lo.SumBy(r.Feeds, func(f FeedResult) int { return f.Delivered })
}

func (r *RunReport) FailedItems() int {
	return lo.SumBy(r.Feeds, func(f FeedResult) int { return f.Failed })
}

func (r *RunReport) FailedFeeds() []string {
	return lo.FilterMap(r.Feeds, func(f FeedResult, _ int) (string, bool) {
		return f.Name, f.Error != ""
	})
}

type SweepResult struct {
	Name    string `json:"name"`
	Deleted int64  `json:"deleted"`
	Error   string `json:"error,omitempty"`
}

type SweepReport struct {
	StartedAt time.Time     `json:"started_at"`
	Duration  string        `json:"duration"`
	Feeds     []SweepResult `json:"feeds"`
}

func (r *SweepReport) Deleted() int64 {
	return lo.SumBy(r.Feeds, func(f SweepResult) int64 { return f.Deleted })
}
