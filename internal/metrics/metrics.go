package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WebhookRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "membership_webhook_requests_total",
		Help: "Payment webhook deliveries, labelled by HTTP result.",
	}, []string{"result"})

	Activations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "membership_activations_total",
		Help: "Verified payment events, labelled by activation outcome.",
	}, []string{"outcome"})

	WebhookDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "membership_webhook_duration_seconds",
		Help:    "Time spent handling a payment webhook delivery.",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	})
)
