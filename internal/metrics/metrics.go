package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	OutboxEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "teamup_outbox_events_total",
			Help: "Outbox dispatch outcomes by result",
		},
		[]string{"result"}, // published|retry|terminal
	)

	RetentionDeletedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "teamup_retention_deleted_total",
			Help: "Rows removed by the retention job, by table",
		},
		[]string{"table"}, // outbox|invitations|users
	)

	NotificationsStoredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "teamup_notifications_stored_total",
			Help: "Notification events written to the reports store",
		},
	)
)

func MustRegister(r prometheus.Registerer) {
	r.MustRegister(
		OutboxEventsTotal,
		RetentionDeletedTotal,
		NotificationsStoredTotal,
	)
}
