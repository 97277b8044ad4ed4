package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/the-lightning-land/connectivityd/connectivity"
)

const namespace = "connectivityd"

type Metrics struct {
	status                 prometheus.Gauge
	statusSinceTimeSeconds prometheus.Gauge
	statusChangesTotal     *prometheus.CounterVec
	now                    func() time.Time
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		status: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "network_status",
			Help:      "0=Disconnected; 1=Connected",
		}),
		statusSinceTimeSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "network_status_since_time_seconds",
			Help:      "Time of the last change to network_status",
		}),
		statusChangesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "network_status_changes_total",
			Help:      "Network status changes by new status",
		}, []string{"status"}),
		now: time.Now,
	}

	for _, c := range []prometheus.Collector{m.status, m.statusSinceTimeSeconds, m.statusChangesTotal} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

func statusValue(status connectivity.NetworkStatus) float64 {
	if status == connectivity.Connected {
		return 1
	}

	return 0
}

// SetStatus records a change to status.
func (m *Metrics) SetStatus(status connectivity.NetworkStatus) {
	m.status.Set(statusValue(status))
	m.statusSinceTimeSeconds.Set(float64(m.now().Unix()))
	m.statusChangesTotal.WithLabelValues(status.String()).Inc()
}

// Observe records updates until the channel is closed. The first update of a subscription is
// the status at subscribe time, so it only sets the status gauge.
func (m *Metrics) Observe(updates <-chan connectivity.NetworkStatus) {
	initial, ok := <-updates
	if !ok {
		return
	}

	m.status.Set(statusValue(initial))

	for status := range updates {
		m.SetStatus(status)
	}
}
