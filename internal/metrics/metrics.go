package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EmailsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "outreach_emails_sent_total",
		Help: "Emails handed to the delivery provider, by result.",
	}, []string{"result"}) // sent, failed, dry_run

	WebhookEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "outreach_webhook_events_total",
		Help: "Provider webhook events received, by type and outcome.",
	}, []string{"event_type", "outcome"}) // applied, duplicate, unknown_message, ignored

	ResendsQueued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "outreach_resends_queued_total",
		Help: "Follow-up emails created by the auto-resend job.",
	})

	DispatchedEmails = promauto.NewCounter(prometheus.CounterOpts{
		Name: "outreach_dispatched_emails_total",
		Help: "Emails claimed by the dispatcher and published to the queue.",
	})

	SyncedRows = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "outreach_synced_rows_total",
		Help: "Rows upserted by the commerce sync jobs.",
	}, []string{"source", "kind"}) // kind: customer, order
)
