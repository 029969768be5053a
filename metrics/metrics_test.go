package metrics_test

import (
	"testing"

	"github.com/jrsteele09/go-auth-client/auth"
	"github.com/jrsteele09/go-auth-client/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestRecordOperation(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(metrics.WithRegisterer(reg))

	var recorder auth.Recorder = m
	recorder.RecordOperation("keycloak", auth.OpRefresh, auth.OutcomeSuccess)
	recorder.RecordOperation("keycloak", auth.OpRefresh, auth.OutcomeSuccess)
	recorder.RecordOperation("keycloak", auth.OpRefresh, auth.OutcomeError)

	require.Equal(t, 2.0, testutil.ToFloat64(m.Operations.WithLabelValues("keycloak", auth.OpRefresh, auth.OutcomeSuccess)))
	require.Equal(t, 1.0, testutil.ToFloat64(m.Operations.WithLabelValues("keycloak", auth.OpRefresh, auth.OutcomeError)))
	require.Equal(t, 2, testutil.CollectAndCount(m.Operations))

	families, err := reg.Gather()
	require.NoError(t, err)
	require.Len(t, families, 1)
	require.Equal(t, "authclient_flow_operations_total", families[0].GetName())
}

func TestNamespace(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(metrics.WithRegisterer(reg), metrics.WithNamespace("app"))
	m.RecordOperation("google", auth.OpLogin, auth.OutcomeCancelled)

	families, err := reg.Gather()
	require.NoError(t, err)
	require.Equal(t, "app_flow_operations_total", families[0].GetName())
}
