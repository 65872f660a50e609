// Package metrics exposes Prometheus instrumentation for the chat
// backend.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	MessagesSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chatx_messages_sent_total",
		Help: "Messages persisted through the composer.",
	})
	MessagesDeleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chatx_messages_deleted_total",
		Help: "Message deletions by scope.",
	}, []string{"scope"})
	OpenDirectories = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "chatx_open_directories",
		Help: "Live conversation-list subscriptions.",
	})
	OpenStreams = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "chatx_open_streams",
		Help: "Live message-stream subscriptions.",
	})
)

// Handler returns the scrape endpoint handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
