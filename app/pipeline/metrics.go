package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	feedRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_feed_runs_total",
		Help: "Feed runs by outcome",
	}, []string{"feed", "result"})

	itemsDeliveredTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_items_delivered_total",
		Help: "Items delivered to Telegram",
	}, []string{"feed"})

	itemFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_item_failures_total",
		Help: "Items that failed to deliver or persist, by error kind",
	}, []string{"feed", "kind"})

	sweepDeletedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_sweep_deleted_total",
		Help: "Records removed by the retention sweep",
	}, []string{"feed"})
)
