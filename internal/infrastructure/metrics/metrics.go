package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"counselhub/pkg/errors"
)

var (
	ModerationActions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "counselhub_moderation_actions_total",
			Help: "Review moderation and lead triage actions by outcome",
		},
		[]string{"action", "outcome"},
	)

	SubscriptionErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "counselhub_subscription_errors_total",
			Help: "Listener failures reported by the collection store",
		},
		[]string{"collection"},
	)

	SnapshotsApplied = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "counselhub_snapshots_applied_total",
			Help: "Snapshots folded into the in-memory views",
		},
		[]string{"collection"},
	)

	Reviews = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "counselhub_reviews",
			Help: "Reviews currently held, by status",
		},
		[]string{"status"},
	)

	Leads = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "counselhub_leads",
			Help: "Leads currently held, by origin and status",
		},
		[]string{"origin", "status"},
	)
)

// RecordAction counts one action, labelled "ok" or with the error code.
func RecordAction(action string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = errors.CodeOf(err)
	}
	ModerationActions.WithLabelValues(action, outcome).Inc()
}
