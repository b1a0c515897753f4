package http

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	syncedItems = promauto.NewCounter(prometheus.CounterOpts{
		Name: "packager_sync_items_inserted_total",
		Help: "Trip item rows inserted by inventory sync.",
	})

	requests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "packager_http_requests_total",
		Help: "Handled HTTP requests by method and status.",
	}, []string{"method", "status"})
)
