package api

import (
	"context"

	"github.com/lysyi3m/rss-relay/app/database"
	"github.com/lysyi3m/rss-relay/app/feed"
	"github.com/lysyi3m/rss-relay/app/pipeline"
)

type Runner interface {
	RunUpdate(ctx context.Context) (*pipeline.RunReport, error)
	RunCleanup(ctx context.Context) (*pipeline.SweepReport, error)
}

var _ Runner = (*pipeline.Runner)(nil)

type Handler struct {
	sources  []feed.Source
	runner   Runner
	itemRepo database.ItemRepository
}

type feedInfo struct {
	Name        string `json:"name"`
	URL         string `json:"url"`
	Transformer string `json:"transformer"`
	ChatID      string `json:"chat_id"`
	ParseMode   string `json:"parse_mode"`
	StoredItems int    `json:"stored_items"`
	LatestAt    string `json:"latest_at,omitempty"`
}
