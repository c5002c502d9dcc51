package telegram

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_telegram_requests_total",
		Help: "Bot API requests by method and result",
	}, []string{"method", "result"})

	rateLimitedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_telegram_rate_limited_total",
		Help: "Bot API responses that asked the relay to slow down",
	}, []string{"method"})

	photoFallbacksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relay_telegram_photo_fallbacks_total",
		Help: "Photo sends that failed and were retried as text",
	})
)
