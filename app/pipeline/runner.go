package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lysyi3m/rss-relay/app/database"
	"github.com/lysyi3m/rss-relay/app/errs"
	"github.com/lysyi3m/rss-relay/app/feed"
	"github.com/lysyi3m/rss-relay/app/telegram"
	"github.com/lysyi3m/rss-relay/app/transform"
)

type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

type TransformerProvider interface {
	Get(id string) (transform.Transformer, error)
}

type Deliverer interface {
	Deliver(ctx context.Context, chatID, parseMode string, msg telegram.Message) error
}

// Runner executes update runs and retention sweeps over the configured
// sources. It holds no state between runs besides what is in the store.
type Runner struct {
	sources      []feed.Source
	settings     feed.Settings
	fetcher      Fetcher
	transformers TransformerProvider
	deliverer    Deliverer
	itemRepo     database.ItemRepository
	filterer     *feed.Filterer

	// runs holds one token. Every run takes it, so no two runs overlap
	// whichever trigger started them.
	runs chan struct{}

	sleep func(ctx context.Context, d time.Duration) error
}

func NewRunner(config *feed.Config, fetcher Fetcher, transformers TransformerProvider, deliverer Deliverer, itemRepo database.ItemRepository) *Runner {
	return &Runner{
		sources:      config.Sources,
		settings:     config.Settings,
		fetcher:      fetcher,
		transformers: transformers,
		deliverer:    deliverer,
		itemRepo:     itemRepo,
		filterer:     feed.NewFilterer(),
		runs:         make(chan struct{}, 1),
		sleep:        sleepContext,
	}
}

func (r *Runner) Sources() []feed.Source {
	return r.sources
}

// RunUpdate processes every source concurrently. Feed and item failures are
// recorded in the report; an error is returned only when the run could not
// take place at all.
func (r *Runner) RunUpdate(ctx context.Context) (*RunReport, error) {
	release, err := r.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	if err := r.itemRepo.Ping(ctx); err != nil {
		return nil, err
	}

	report := &RunReport{
		StartedAt: time.Now().UTC(),
		Feeds:     make([]FeedResult, len(r.sources)),
	}

	var wg sync.WaitGroup
	for i, src := range r.sources {
		wg.Add(1)
		go func(i int, src feed.Source) {
			defer wg.Done()
			report.Feeds[i] = r.runFeed(ctx, src)
		}(i, src)
	}
	wg.Wait()

	report.Duration = time.Since(report.StartedAt).String()

	slog.Info("Update run completed",
		"feeds", len(report.Feeds),
		"failed_feeds", len(report.FailedFeeds()),
		"delivered", report.Delivered(),
		"failed_items", report.FailedItems(),
		"duration", report.Duration)

	if err := ctx.Err(); err != nil {
		return report, err
	}

	return report, nil
}

func (r *Runner) runFeed(ctx context.Context, src feed.Source) (result FeedResult) {
	result.Name = src.Name

	defer func() {
		if rec := recover(); rec != nil {
			result.fail(fmt.Errorf("feed %s panicked: %v", src.Name, rec))
		}

		outcome := "ok"
		switch {
		case result.err != nil:
			outcome = "error"
			slog.Error("Feed failed", "feed", src.Name, "kind", result.Kind, "error", result.err)
		case result.Failed > 0:
			outcome = "partial"
		}
		feedRunsTotal.WithLabelValues(src.Name, outcome).Inc()
	}()

	items, err := r.loadItems(ctx, src)
	if err != nil {
		result.fail(err)
		return result
	}
	result.Fetched = len(items)

	latest, err := r.itemRepo.GetLatest(ctx, src.Name)
	if err != nil {
		result.fail(err)
		return result
	}

	newItems := SelectNew(items, latest)
	result.New = len(newItems)

	for _, item := range newItems {
		if err := r.deliverItem(ctx, src, item); err != nil {
			result.Failed++
			itemFailuresTotal.WithLabelValues(src.Name, errs.KindOf(err)).Inc()
			slog.Error("Failed to deliver item", "feed", src.Name, "item_id", item.ID, "kind", errs.KindOf(err), "error", err)
			continue
		}
		result.Delivered++
		itemsDeliveredTotal.WithLabelValues(src.Name).Inc()
	}

	slog.Info("Feed processed",
		"feed", src.Name,
		"fetched", result.Fetched,
		"new", result.New,
		"delivered", result.Delivered,
		"failed", result.Failed)

	return result
}

// loadItems fetches, extracts and transforms the current batch of src.
func (r *Runner) loadItems(ctx context.Context, src feed.Source) ([]transform.Item, error) {
	transformer, err := r.transformers.Get(src.Transformer)
	if err != nil {
		return nil, err
	}

	payload, err := r.fetcher.Fetch(ctx, src.URL)
	if err != nil {
		return nil, err
	}

	entries, err := feed.Extract(payload)
	if err != nil {
		return nil, err
	}
	entries = r.filterer.Run(entries, src.Filters)

	return transformer.Transform(entries, transform.Options{
		ParseMode: src.ParseMode,
		LinkLabel: src.LinkLabel,
		MaxLength: r.settings.MaxLength,
	})
}

// deliverItem sends item, stores it, then waits the pacing delay. The delay
// applies whenever the message went out, even if storing it failed.
func (r *Runner) deliverItem(ctx context.Context, src feed.Source, item transform.Item) error {
	msg := telegram.Message{Text: item.Message, Image: item.Image}
	if err := r.deliverer.Deliver(ctx, src.ChatID, string(src.ParseMode), msg); err != nil {
		return err
	}

	persistErr := r.itemRepo.Upsert(ctx, toRecord(src.Name, item))

	// A cancelled pacing wait is reported by the run, not the item.
	_ = r.sleep(ctx, r.settings.Telegram.GetRateLimitDelay())

	return persistErr
}

// Seed stores the current batch of every source as already delivered
// without sending anything.
func (r *Runner) Seed(ctx context.Context) (*RunReport, error) {
	release, err := r.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	if err := r.itemRepo.Ping(ctx); err != nil {
		return nil, err
	}

	report := &RunReport{StartedAt: time.Now().UTC()}

	for _, src := range r.sources {
		result := FeedResult{Name: src.Name}

		items, err := r.loadItems(ctx, src)
		if err != nil {
			result.fail(err)
			slog.Error("Failed to seed feed", "feed", src.Name, "kind", result.Kind, "error", err)
			report.Feeds = append(report.Feeds, result)
			continue
		}
		result.Fetched = len(items)

		records := make([]database.Record, 0, len(items))
		for _, item := range items {
			records = append(records, toRecord(src.Name, item))
		}

		if err := r.itemRepo.UpsertBatch(ctx, records, r.settings.Database.BatchSize); err != nil {
			result.fail(err)
			slog.Error("Failed to seed feed", "feed", src.Name, "kind", result.Kind, "error", err)
		} else {
			slog.Info("Feed seeded", "feed", src.Name, "items", len(records))
		}

		report.Feeds = append(report.Feeds, result)
	}

	report.Duration = time.Since(report.StartedAt).String()

	return report, nil
}

// RunCleanup keeps only the latest record of every source known to the
// store. A failure on one source does not stop the others; all failures are
// joined into the returned error.
func (r *Runner) RunCleanup(ctx context.Context) (*SweepReport, error) {
	release, err := r.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	sources, err := r.itemRepo.ListSources(ctx)
	if err != nil {
		return nil, err
	}

	report := &SweepReport{StartedAt: time.Now().UTC()}

	var failures []error
	for _, source := range sources {
		result := SweepResult{Name: source}

		deleted, err := r.itemRepo.DeleteAllExceptLatest(ctx, source)
		if err != nil {
			result.Error = err.Error()
			failures = append(failures, fmt.Errorf("feed %s: %w", source, err))
			slog.Error("Failed to clean up feed", "feed", source, "error", err)
		} else {
			result.Deleted = deleted
			sweepDeletedTotal.WithLabelValues(source).Add(float64(deleted))
			slog.Debug("Feed cleaned up", "feed", source, "deleted", deleted)
		}

		report.Feeds = append(report.Feeds, result)
	}

	report.Duration = time.Since(report.StartedAt).String()

	slog.Info("Cleanup completed", "feeds", len(sources), "deleted", report.Deleted(), "duration", report.Duration)

	return report, errors.Join(failures...)
}

// acquire waits until no other run is in progress or ctx is done.
func (r *Runner) acquire(ctx context.Context) (func(), error) {
	select {
	case r.runs <- struct{}{}:
		return func() { <-r.runs }, nil
	default:
	}

	slog.Info("Waiting for the run in progress to finish")
	select {
	case r.runs <- struct{}{}:
		return func() { <-r.runs }, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("waiting for the run in progress: %w", ctx.Err())
	}
}

func toRecord(source string, item transform.Item) database.Record {
	return database.Record{
		ID:          item.ID,
		Title:       item.Title,
		Description: item.Description,
		Link:        item.Link,
		PublishedAt: item.PublishedAt,
		Source:      source,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
