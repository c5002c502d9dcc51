package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/lysyi3m/rss-relay/app/database"
	"github.com/lysyi3m/rss-relay/app/feed"
	"github.com/lysyi3m/rss-relay/app/transform"
)

func day(d int) *time.Time {
	t := time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func item(id string, published *time.Time) transform.Item {
	return transform.Item{Entry: feed.Entry{ID: id, PublishedAt: published}}
}

func ids(items []transform.Item) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}

func TestSelectNew(t *testing.T) {
	tests := []struct {
		name   string
		items  []transform.Item
		latest *database.Record
		want   []string
	}{
		{
			name:   "only items strictly after latest, oldest first",
			items:  []transform.Item{item("jan3", day(3)), item("jan1", day(1)), item("jan2", day(2))},
			latest: &database.Record{ID: "jan1", PublishedAt: day(1)},
			want:   []string{"jan2", "jan3"},
		},
		{
			name:   "cold start delivers everything in order",
			items:  []transform.Item{item("b", day(2)), item("none", nil), item("a", day(1))},
			latest: nil,
			want:   []string{"none", "a", "b"},
		},
		{
			name:   "undated items are skipped once a record exists",
			items:  []transform.Item{item("none", nil), item("jan5", day(5))},
			latest: &database.Record{PublishedAt: day(1)},
			want:   []string{"jan5"},
		},
		{
			name:   "undated latest record is older than everything",
			items:  []transform.Item{item("jan2", day(2)), item("none", nil)},
			latest: &database.Record{},
			want:   []string{"jan2"},
		},
		{
			name:   "nothing new",
			items:  []transform.Item{item("jan1", day(1))},
			latest: &database.Record{PublishedAt: day(1)},
			want:   []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(SelectNew(tt.items, tt.latest)))
		})
	}
}

func TestSelectNewDoesNotReorderInput(t *testing.T) {
	items := []transform.Item{item("b", day(2)), item("a", day(1))}
	SelectNew(items, nil)
	assert.Equal(t, []string{"b", "a"}, ids(items))
}
