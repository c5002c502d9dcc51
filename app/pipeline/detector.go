package pipeline

import (
	"sort"

	"github.com/samber/lo"

	"github.com/lysyi3m/rss-relay/app/database"
	"github.com/lysyi3m/rss-relay/app/transform"
)

// SelectNew returns the items that are newer than latest, oldest first.
//
// Without a latest record every item is new. With one, an item is new only
// if its published time is strictly after the record's; items without a
// published time are never new then. A latest record without a published
// time counts as older than everything.
func SelectNew(items []transform.Item, latest *database.Record) []transform.Item {
	selected := items
	if latest != nil {
		selected = lo.Filter(items, func(item transform.Item, _ int) bool {
			if item.PublishedAt == nil {
				return false
			}
			return latest.PublishedAt == nil || item.PublishedAt.After(*latest.PublishedAt)
		})
	}

	selected = append([]transform.Item(nil), selected...)
	sort.SliceStable(selected, func(i, j int) bool {
		a, b := selected[i].PublishedAt, selected[j].PublishedAt
		switch {
		case a == nil:
			return b != nil
		case b == nil:
			return false
		default:
			return a.Before(*b)
		}
	})

	return selected
}
