package testutil

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

// PromCounterValue gathers reg and returns the value of the counter name
// whose label values equal label, ordered by label name. It returns -1 when
// no such series exists.
func PromCounterValue(t testing.TB, reg prometheus.Gatherer, name string, label ...string) float64 {
	t.Helper()
	m := findMetric(t, reg, name, label...)
	if m == nil {
		return -1
	}
	return m.GetCounter().GetValue()
}

// PromHistogramCount returns the sample count of the histogram name, or -1
// when it has not been observed.
func PromHistogramCount(t testing.TB, reg prometheus.Gatherer, name string, label ...string) int64 {
	t.Helper()
	m := findMetric(t, reg, name, label...)
	if m == nil {
		return -1
	}
	return int64(m.GetHistogram().GetSampleCount())
}

func findMetric(t testing.TB, reg prometheus.Gatherer, name string, label ...string) *dto.Metric {
	t.Helper()
	metrics, err := reg.Gather()
	require.NoError(t, err)
	for _, family := range metrics {
		if family.GetName() != name {
			continue
		}
	metricsLoop:
		for _, m := range family.GetMetric() {
			require.Equal(t, len(label), len(m.GetLabel()))
			for i, lv := range label {
				if lv != m.GetLabel()[i].GetValue() {
					continue metricsLoop
				}
			}
			return m
		}
	}
	return nil
}
