package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EventsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flowcrm_automation_events_total",
		Help: "Total number of event envelopes processed by the engine, labelled by trigger type.",
	}, []string{"trigger_type"})

	RulesEvaluated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "flowcrm_automation_rules_evaluated_total",
		Help: "Total number of rule condition evaluations.",
	})

	RulesMatched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "flowcrm_automation_rules_matched_total",
		Help: "Total number of rules whose conditions matched an event.",
	})

	ExecutionsCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flowcrm_automation_executions_total",
		Help: "Total number of rule executions, labelled by outcome.",
	}, []string{"status"})

	ActionFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flowcrm_automation_action_failures_total",
		Help: "Total number of failed actions, labelled by action kind.",
	}, []string{"kind"})

	ExecutionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "flowcrm_automation_execution_duration_ms",
		Help:    "Per-rule execution latency in milliseconds.",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	})

	WebhookDeliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flowcrm_webhook_deliveries_total",
		Help: "Total number of webhook delivery attempts, labelled by outcome.",
	}, []string{"status"})
)
