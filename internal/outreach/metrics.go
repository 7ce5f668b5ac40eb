package outreach

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the send pipeline's Prometheus collectors. A nil *Metrics
// records nothing.
type Metrics struct {
	deliveries   *prometheus.CounterVec
	fallbacks    prometheus.Counter
	sends        *prometheus.CounterVec
	sendDuration prometheus.Histogram
	completed    prometheus.Counter
}

// NewMetrics registers the collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		deliveries: f.NewCounterVec(prometheus.CounterOpts{
			Name: "outreach_deliveries_total",
			Help: "Messages attempted, partitioned by channel and result",
		}, []string{"channel", "result"}),
		fallbacks: f.NewCounter(prometheus.CounterOpts{
			Name: "outreach_mailbox_fallbacks_total",
			Help: "Mailbox deliveries that failed and were retried via the relay",
		}),
		sends: f.NewCounterVec(prometheus.CounterOpts{
			Name: "outreach_campaign_sends_total",
			Help: "Campaign send operations, partitioned by outcome kind",
		}, []string{"result"}),
		sendDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "outreach_campaign_send_duration_seconds",
			Help:    "Wall time of campaign sends that reached dispatch",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		}),
		completed: f.NewCounter(prometheus.CounterOpts{
			Name: "outreach_campaigns_completed_total",
			Help: "Campaigns moved to COMPLETED by the completion sweep",
		}),
	}
}

func (m *Metrics) delivery(o Outcome) {
	if m == nil {
		return
	}
	result := "sent"
	if !o.Success {
		result = "failed"
	}
	channel := o.Channel
	if channel == "" {
		channel = "none"
	}
	m.deliveries.WithLabelValues(channel, result).Inc()
}

func (m *Metrics) fallback() {
	if m == nil {
		return
	}
	m.fallbacks.Inc()
}

func (m *Metrics) send(result string, started time.Time, dispatched bool) {
	if m == nil {
		return
	}
	m.sends.WithLabelValues(result).Inc()
	if dispatched {
		m.sendDuration.Observe(time.Since(started).Seconds())
	}
}

func (m *Metrics) campaignsCompleted(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.completed.Add(float64(n))
}
