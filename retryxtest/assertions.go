package retryxtest

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seb7887/retryx"
)

// AssertPending fails t unless fut has not settled yet.
func AssertPending[T any](t testing.TB, fut *retryx.Future[T]) {
	t.Helper()
	_, _, ok := fut.TryGet()
	assert.False(t, ok, "future should still be pending")
}

// AssertCompleted fails t unless fut settled successfully with want.
func AssertCompleted[T any](t testing.TB, fut *retryx.Future[T], want T) {
	t.Helper()
	v, err, ok := fut.TryGet()
	require.True(t, ok, "future should be settled")
	require.NoError(t, err)
	assert.Equal(t, want, v)
}

// AssertFailed fails t unless fut settled with an error, and returns that
// error for further inspection.
func AssertFailed[T any](t testing.TB, fut *retryx.Future[T]) error {
	t.Helper()
	_, err, ok := fut.TryGet()
	require.True(t, ok, "future should be settled")
	require.Error(t, err)
	return err
}

// AssertCanceled fails t unless fut settled by cancellation.
func AssertCanceled[T any](t testing.TB, fut *retryx.Future[T]) {
	t.Helper()
	_, _, ok := fut.TryGet()
	require.True(t, ok, "future should be settled")
	assert.True(t, fut.Canceled(), "future should be canceled")
}

// GatherValue returns the value of the counter or gauge with the given name
// and exact label set in g, failing t when no such metric exists.
func GatherValue(t testing.TB, g prometheus.Gatherer, name string, labels map[string]string) float64 {
	t.Helper()
	fams, err := g.Gather()
	require.NoError(t, err)
	for _, fam := range fams {
		if fam.GetName() != name {
			continue
		}
		for _, m := range fam.GetMetric() {
			if !labelsMatch(m.GetLabel(), labels) {
				continue
			}
			switch {
			case m.GetCounter() != nil:
				return m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				return m.GetGauge().GetValue()
			}
		}
	}
	t.Fatalf("metric %s%v not gathered", name, labels)
	return 0
}

// GatherHistogramCount returns the sample count of the histogram with the
// given name and exact label set in g, failing t when no such metric exists.
func GatherHistogramCount(t testing.TB, g prometheus.Gatherer, name string, labels map[string]string) uint64 {
	t.Helper()
	fams, err := g.Gather()
	require.NoError(t, err)
	for _, fam := range fams {
		if fam.GetName() != name {
			continue
		}
		for _, m := range fam.GetMetric() {
			if m.GetHistogram() != nil && labelsMatch(m.GetLabel(), labels) {
				return m.GetHistogram().GetSampleCount()
			}
		}
	}
	t.Fatalf("histogram %s%v not gathered", name, labels)
	return 0
}

func labelsMatch(pairs []*dto.LabelPair, want map[string]string) bool {
	if len(pairs) != len(want) {
		return false
	}
	for _, p := range pairs {
		if want[p.GetName()] != p.GetValue() {
			return false
		}
	}
	return true
}
