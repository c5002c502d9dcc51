package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"github.com/lysyi3m/rss-relay/app/database"
	"github.com/lysyi3m/rss-relay/app/errs"
	"github.com/lysyi3m/rss-relay/app/feed"
)

const banner = "Telegram hub"

func NewHandler(sources []feed.Source, runner Runner, itemRepo database.ItemRepository) *Handler {
	return &Handler{
		sources:  sources,
		runner:   runner,
		itemRepo: itemRepo,
	}
}

func (h *Handler) GetBanner(c *gin.Context) {
	c.String(http.StatusOK, banner)
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := gin.H{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
		"sources":   len(h.sources),
		"database":  "ok",
	}

	status := http.StatusOK
	if err := h.itemRepo.Ping(c.Request.Context()); err != nil {
		slog.Error("Health check failed", "error", err)
		health["database"] = "unreachable"
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, health)
}

// RunUpdate runs the update pipeline synchronously and reports its outcome.
func (h *Handler) RunUpdate(c *gin.Context) {
	report, err := h.runner.RunUpdate(c.Request.Context())
	if err != nil {
		slog.Error("On-demand update failed", "kind", errs.KindOf(err), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"delivered":    report.Delivered(),
		"failed_items": report.FailedItems(),
		"failed_feeds": report.FailedFeeds(),
		"report":       report,
	})
}

func (h *Handler) APIListFeeds(c *gin.Context) {
	stats, err := h.itemRepo.GetFeedStats(c.Request.Context())
	if err != nil {
		slog.Error("Database error", "operation", "get_feed_stats", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	statsBySource := lo.KeyBy(stats, func(s database.FeedStat) string { return s.Source })

	feeds := make([]feedInfo, 0, len(h.sources))
	for _, src := range h.sources {
		info := feedInfo{
			Name:        src.Name,
			URL:         src.URL,
			Transformer: src.Transformer,
			ChatID:      src.ChatID,
			ParseMode:   string(src.ParseMode),
		}

		if stat, ok := statsBySource[src.Name]; ok {
			info.StoredItems = stat.Items
			if stat.LatestAt != nil {
				info.LatestAt = stat.LatestAt.Format(time.RFC3339)
			}
		}

		feeds = append(feeds, info)
	}

	c.JSON(http.StatusOK, gin.H{
		"feeds": feeds,
		"total": len(feeds),
	})
}

func (h *Handler) APIRunCleanup(c *gin.Context) {
	report, err := h.runner.RunCleanup(c.Request.Context())
	if report == nil {
		slog.Error("On-demand cleanup failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	response := gin.H{
		"success": err == nil,
		"deleted": report.Deleted(),
		"report":  report,
	}

	if err != nil {
		slog.Error("On-demand cleanup finished with errors", "error", err)
		response["error"] = err.Error()
		c.JSON(http.StatusInternalServerError, response)
		return
	}

	c.JSON(http.StatusOK, response)
}
