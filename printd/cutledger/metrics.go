package cutledger

import "github.com/prometheus/client_golang/prometheus"

// Metric label values for cut registration results.
const (
	resultSuccess        = "success"
	resultDeviceNotFound = "device_not_found"
	resultNoLatestState  = "no_latest_state"
	resultError          = "error"
)

// Metrics holds metrics related to cut registration.
type Metrics struct {
	cutsRegistered *prometheus.CounterVec
	cutPages       prometheus.Histogram
}

func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		cutsRegistered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "printwatch",
			Name:      "cuts_registered_total",
			Help:      "Total number of cut registration attempts by result.",
		}, []string{"result"}),
		cutPages: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "printwatch",
			Name:      "cut_pages",
			Help:      "Pages printed in each registered cut.",
			Buckets:   prometheus.ExponentialBuckets(10, 4, 8),
		}),
	}

	if reg != nil {
		for _, c := range []prometheus.Collector{m.cutsRegistered, m.cutPages} {
			if err := reg.Register(c); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

func (m *Metrics) record(result string, pages int64) {
	if m == nil {
		return
	}
	m.cutsRegistered.WithLabelValues(result).Inc()
	if result == resultSuccess {
		m.cutPages.Observe(float64(pages))
	}
}
