package ingest

import "github.com/prometheus/client_golang/prometheus"

const (
	resultSuccess = "success"
	resultInvalid = "invalid"
	resultError   = "error"
)

// Metrics holds metrics related to telemetry ingestion.
type Metrics struct {
	ingested       *prometheus.CounterVec
	devicesCreated prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		ingested: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "printwatch",
			Name:      "telemetry_ingested_total",
			Help:      "Total number of telemetry reports received by result.",
		}, []string{"result"}),
		devicesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "printwatch",
			Name:      "devices_created_total",
			Help:      "Total number of devices registered by their first report.",
		}),
	}

	if reg != nil {
		for _, c := range []prometheus.Collector{m.ingested, m.devicesCreated} {
			if err := reg.Register(c); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

func (m *Metrics) recordIngested(result string) {
	if m == nil {
		return
	}
	m.ingested.WithLabelValues(result).Inc()
}

func (m *Metrics) recordDeviceCreated() {
	if m == nil {
		return
	}
	m.devicesCreated.Inc()
}
