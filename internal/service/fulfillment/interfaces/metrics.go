// internal/service/fulfillment/interfaces/metrics.go
package interfaces

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	eventsConsumed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tradepost",
		Subsystem: "fulfillment",
		Name:      "events_consumed_total",
		Help:      "Fulfillment events consumed, by topic and disposition.",
	}, []string{"topic", "disposition"})

	eventsDiscarded = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tradepost",
		Subsystem: "fulfillment",
		Name:      "events_discarded_total",
		Help:      "Messages dropped before processing (unmarshalable payloads).",
	}, []string{"topic"})

	enqueueRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tradepost",
		Subsystem: "fulfillment",
		Name:      "enqueue_requests_total",
		Help:      "HTTP fulfillment enqueue requests, by result.",
	}, []string{"result"})
)
