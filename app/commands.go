package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/lysyi3m/rss-relay/app/feed"
	"github.com/lysyi3m/rss-relay/app/pipeline"
)

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runOnce(runner *pipeline.Runner, markSeen bool) error {
	ctx, stop := signalContext()
	defer stop()

	run := runner.RunUpdate
	if markSeen {
		run = runner.Seed
	}

	report, err := run(ctx)
	if err != nil {
		return fmt.Errorf("update run failed: %w", err)
	}

	for _, result := range report.Feeds {
		slog.Info("Feed result",
			"feed", result.Name,
			"fetched", result.Fetched,
			"new", result.New,
			"delivered", result.Delivered,
			"failed", result.Failed,
			"error", result.Error)
	}

	slog.Info("Update run completed",
		"mark_seen", markSeen,
		"delivered", report.Delivered(),
		"failed_items", report.FailedItems(),
		"failed_feeds", report.FailedFeeds(),
		"duration", report.Duration)

	if failed := report.FailedFeeds(); len(failed) > 0 {
		return fmt.Errorf("%d feed(s) failed: %s", len(failed), strings.Join(failed, ", "))
	}
	return nil
}

func runCleanup(runner *pipeline.Runner) error {
	ctx, stop := signalContext()
	defer stop()

	report, err := runner.RunCleanup(ctx)
	if report != nil {
		slog.Info("Retention sweep completed", "deleted", report.Deleted(), "duration", report.Duration)
	}
	return err
}

func runCheck(config *feed.Config, fetcher *feed.Fetcher) error {
	ctx, stop := signalContext()
	defer stop()

	prober := feed.NewProber(fetcher)

	var failures []error
	for _, src := range config.Sources {
		result := prober.Run(ctx, src)

		fmt.Printf("%-20s type=%-8s parsed=%-4d extracted=%-4d %s\n",
			result.Name, result.FeedType, result.Entries, result.Extracted, status(result))
		for _, id := range result.Missing {
			fmt.Printf("%-20s   missing: %s\n", "", id)
		}

		if !result.OK() {
			failures = append(failures, fmt.Errorf("source %s did not pass the check", src.Name))
		}
	}

	return errors.Join(failures...)
}

func status(result feed.ProbeResult) string {
	switch {
	case result.Err != nil:
		return "ERROR " + result.Err.Error()
	case result.OK():
		return "OK " + result.Title
	default:
		return "INCOMPLETE " + result.Title
	}
}
