package metrics_test

import (
	"testing"
	"time"

	"github.com/Builder-Lawyers/site-provisioner/internal/infra/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestObserveProvisionCountsByOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	m.ObserveProvision(metrics.OutcomeActive, 3*time.Second)
	m.ObserveProvision(metrics.OutcomeActive, time.Second)
	m.ObserveProvision(metrics.OutcomeConflict, 0)
	m.ObservePlatformRequest("deploy", 502)

	count, err := testutil.GatherAndCount(reg, "provisioner_provisions_total")
	require.NoError(t, err)
	require.Equal(t, 2, count, "one series per outcome")

	count, err = testutil.GatherAndCount(reg, "provisioner_provision_duration_seconds")
	require.NoError(t, err)
	require.Equal(t, 1, count)

	count, err = testutil.GatherAndCount(reg, "provisioner_platform_requests_total")
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *metrics.Metrics
	require.NotPanics(t, func() {
		m.ObserveProvision(metrics.OutcomeFailed, time.Second)
		m.ObservePlatformRequest("create-project", 0)
		m.ObserveCancellation("ok")
		m.ObserveReconciled("FAILED")
	})
}
