package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/huandu/go-sqlbuilder"
	"github.com/samber/lo"

	"github.com/lysyi3m/rss-relay/app/errs"
)

const (
	itemsTable = "pushed_items"

	// Fixed width so that text order matches time order.
	pubDateLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

var (
	recordColumns = []string{"id", "title", "description", "link", "pub_date", "source"}

	upsertClause = "ON CONFLICT(id) DO UPDATE SET " +
		"title = excluded.title, " +
		"description = excluded.description, " +
		"link = excluded.link, " +
		"pub_date = excluded.pub_date, " +
		"source = excluded.source"
)

// itemRepository is the ItemRepository backed by the pushed_items table
type itemRepository struct {
	db *DB
}

func NewItemRepository(db *DB) ItemRepository {
	return &itemRepository{db: db}
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// GetLatest returns the newest record for source by published time, or nil
// when nothing was stored for it yet.
func (r *itemRepository) GetLatest(ctx context.Context, source string) (*Record, error) {
	record, err := r.getLatest(ctx, r.db, source)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get latest item for %s: %w", errs.ErrPersistence, source, err)
	}
	return record, nil
}

func (r *itemRepository) getLatest(ctx context.Context, q queryer, source string) (*Record, error) {
	sb := sqlbuilder.NewSelectBuilder()
	sb.Select(recordColumns...).
		From(itemsTable).
		Where(sb.Equal("source", source)).
		OrderBy("pub_date").Desc().
		Limit(1)
	query, args := sb.BuildWithFlavor(sqlbuilder.SQLite)

	var record Record
	var pubDate sql.NullString
	err := q.QueryRowContext(ctx, query, args...).Scan(
		&record.ID, &record.Title, &record.Description, &record.Link, &pubDate, &record.Source,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	record.PublishedAt, err = parsePubDate(pubDate)
	if err != nil {
		return nil, err
	}

	return &record, nil
}

func (r *itemRepository) GetFeedStats(ctx context.Context) ([]FeedStat, error) {
	sb := sqlbuilder.NewSelectBuilder()
	sb.Select("source", "COUNT(*)", "MAX(pub_date)").
		From(itemsTable).
		GroupBy("source").
		OrderBy("source")
	query, args := sb.BuildWithFlavor(sqlbuilder.SQLite)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query feed stats: %w", errs.ErrPersistence, err)
	}
	defer rows.Close()

	var stats []FeedStat
	for rows.Next() {
		var stat FeedStat
		var latest sql.NullString
		if err := rows.Scan(&stat.Source, &stat.Items, &latest); err != nil {
			return nil, fmt.Errorf("%w: failed to scan feed stats: %w", errs.ErrPersistence, err)
		}
		if stat.LatestAt, err = parsePubDate(latest); err != nil {
			return nil, fmt.Errorf("%w: %w", errs.ErrPersistence, err)
		}
		stats = append(stats, stat)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: failed to read feed stats: %w", errs.ErrPersistence, err)
	}

	return stats, nil
}

func (r *itemRepository) ListSources(ctx context.Context) ([]string, error) {
	sb := sqlbuilder.NewSelectBuilder()
	sb.Select("source").Distinct().From(itemsTable).OrderBy("source")
	query, args := sb.BuildWithFlavor(sqlbuilder.SQLite)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list sources: %w", errs.ErrPersistence, err)
	}
	defer rows.Close()

	var sources []string
	for rows.Next() {
		var source string
		if err := rows.Scan(&source); err != nil {
			return nil, fmt.Errorf("%w: failed to scan source: %w", errs.ErrPersistence, err)
		}
		sources = append(sources, source)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: failed to read sources: %w", errs.ErrPersistence, err)
	}

	return sources, nil
}

// Upsert inserts record or overwrites every field of the row with the same id.
func (r *itemRepository) Upsert(ctx context.Context, record Record) error {
	if record.ID == "" {
		slog.Warn("Storing item without identifier", "feed", record.Source, "link", record.Link)
	}

	query, args := buildUpsert([]Record{record})
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: failed to upsert item %s: %w", errs.ErrPersistence, record.ID, err)
	}

	return nil
}

// UpsertBatch writes records in chunks of batchSize inside one transaction.
// Within the batch the last record for an id wins.
func (r *itemRepository) UpsertBatch(ctx context.Context, records []Record, batchSize int) error {
	if len(records) == 0 {
		return nil
	}
	if batchSize <= 0 {
		batchSize = len(records)
	}

	records = lastByID(records)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to begin transaction: %w", errs.ErrPersistence, err)
	}
	defer tx.Rollback()

	for _, chunk := range lo.Chunk(records, batchSize) {
		query, args := buildUpsert(chunk)
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("%w: failed to upsert batch: %w", errs.ErrPersistence, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: failed to commit batch: %w", errs.ErrPersistence, err)
	}

	return nil
}

// DeleteAllExceptLatest removes every record of source except its latest one,
// and returns the number removed. Rows sharing the latest link are removed
// too, the latest id breaks the tie.
func (r *itemRepository) DeleteAllExceptLatest(ctx context.Context, source string) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to begin transaction: %w", errs.ErrPersistence, err)
	}
	defer tx.Rollback()

	latest, err := r.getLatest(ctx, tx, source)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to get latest item for %s: %w", errs.ErrPersistence, source, err)
	}
	if latest == nil {
		return 0, nil
	}

	deleteItems := sqlbuilder.NewDeleteBuilder()
	deleteItems.DeleteFrom(itemsTable).Where(
		deleteItems.Equal("source", source),
		deleteItems.Or(
			deleteItems.NotEqual("link", latest.Link),
			deleteItems.NotEqual("id", latest.ID),
		),
	)
	query, args := deleteItems.BuildWithFlavor(sqlbuilder.SQLite)

	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to delete items for %s: %w", errs.ErrPersistence, source, err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: failed to count deleted items: %w", errs.ErrPersistence, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("%w: failed to commit delete: %w", errs.ErrPersistence, err)
	}

	return deleted, nil
}

func (r *itemRepository) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: database unreachable: %w", errs.ErrPersistence, err)
	}
	return nil
}

func buildUpsert(records []Record) (string, []any) {
	ib := sqlbuilder.NewInsertBuilder()
	ib.InsertInto(itemsTable).Cols(recordColumns...)
	for _, record := range records {
		ib.Values(record.ID, record.Title, record.Description, record.Link, formatPubDate(record.PublishedAt), record.Source)
	}
	ib.SQL(upsertClause)

	return ib.BuildWithFlavor(sqlbuilder.SQLite)
}

// lastByID drops earlier duplicates, since one statement may not update
// the same row twice.
func lastByID(records []Record) []Record {
	last := make(map[string]int, len(records))
	for i, record := range records {
		last[record.ID] = i
	}
	return lo.Filter(records, func(record Record, i int) bool {
		return last[record.ID] == i
	})
}

func formatPubDate(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(pubDateLayout)
}

func parsePubDate(value sql.NullString) (*time.Time, error) {
	if !value.Valid || value.String == "" {
		return nil, nil
	}

	t, err := time.Parse(pubDateLayout, value.String)
	if err != nil {
		return nil, fmt.Errorf("invalid pub_date %q: %w", value.String, err)
	}

	t = t.UTC()
	return &t, nil
}
