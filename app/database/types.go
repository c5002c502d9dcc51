package database

import (
	"time"
)

// Record is one delivered item as kept in pushed_items.
type Record struct {
	ID          string
	Title       string
	Description string
	Link        string
	PublishedAt *time.Time
	Source      string
}

// FeedStat summarizes what is stored for one source.
type FeedStat struct {
	Source   string
	Items    int
	LatestAt *time.Time
}
