package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "lldp_webhook"

const (
	OutcomeSent    = "sent"
	OutcomeFailed  = "failed"
	OutcomeIgnored = "ignored"
)

var (
	BuildInfo = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "build_info",
		Help:      "Build information of the running agent.",
	}, []string{"version"})

	Events = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_total",
		Help:      "Interface up events by final outcome.",
	}, []string{"outcome"})

	DeliveryDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "delivery_duration_seconds",
		Help:      "Time spent posting a webhook, retries included.",
		Buckets:   prometheus.DefBuckets,
	})

	LinkTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "link_transitions_total",
		Help:      "Link state transitions observed on the switch.",
	}, []string{"from", "to"})

	PollErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "poll_errors_total",
		Help:      "Failed link state polls.",
	})
)
