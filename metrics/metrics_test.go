package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"github.com/the-lightning-land/connectivityd/connectivity"
)

func TestObserve(t *testing.T) {
	reg := prometheus.NewRegistry()

	m, err := New(reg)
	require.NoError(t, err)

	m.now = func() time.Time {
		return time.Unix(1700000000, 0)
	}

	updates := make(chan connectivity.NetworkStatus, 3)
	updates <- connectivity.Disconnected
	updates <- connectivity.Connected
	updates <- connectivity.Disconnected
	close(updates)

	m.Observe(updates)

	require.Equal(t, float64(0), testutil.ToFloat64(m.status))
	require.Equal(t, float64(1700000000), testutil.ToFloat64(m.statusSinceTimeSeconds))
	require.Equal(t, float64(1), testutil.ToFloat64(m.statusChangesTotal.WithLabelValues("disconnected")))
	require.Equal(t, float64(1), testutil.ToFloat64(m.statusChangesTotal.WithLabelValues("connected")))

	m.SetStatus(connectivity.Connected)
	require.Equal(t, float64(1), testutil.ToFloat64(m.status))
}

func TestObserveDoesNotCountInitialStatus(t *testing.T) {
	reg := prometheus.NewRegistry()

	m, err := New(reg)
	require.NoError(t, err)

	updates := make(chan connectivity.NetworkStatus, 1)
	updates <- connectivity.Connected
	close(updates)

	m.Observe(updates)

	require.Equal(t, float64(1), testutil.ToFloat64(m.status))
	require.Equal(t, float64(0), testutil.ToFloat64(m.statusSinceTimeSeconds))
	require.Equal(t, 0, testutil.CollectAndCount(m.statusChangesTotal))
}

func TestNewRejectsDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()

	_, err := New(reg)
	require.NoError(t, err)

	_, err = New(reg)
	require.Error(t, err)
}
