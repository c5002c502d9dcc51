package database

import (
	"context"
)

type ItemRepository interface {
	GetLatest(ctx context.Context, source string) (*Record, error)
	GetFeedStats(ctx context.Context) ([]FeedStat, error)
	ListSources(ctx context.Context) ([]string, error)

	Upsert(ctx context.Context, record Record) error
	UpsertBatch(ctx context.Context, records []Record, batchSize int) error

	DeleteAllExceptLatest(ctx context.Context, source string) (int64, error)

	Ping(ctx context.Context) error
}
