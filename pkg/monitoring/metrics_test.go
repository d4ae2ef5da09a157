package monitoring_test

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/mlopslite/mlopslite/pkg/monitoring"
)

func TestHandlerExposesRecordedMetrics(t *testing.T) {
	monitoring.RecordRegistration("dataset", monitoring.OutcomeCreated)
	monitoring.RecordPrediction(3, true)
	monitoring.RecordPrediction(1, false)
	monitoring.RecordExecutionLogFailure()
	monitoring.ObserveStoreOperation("insert_dataset", 5*time.Millisecond)
	monitoring.RecordCacheLookup(true)

	recorder := httptest.NewRecorder()
	monitoring.Handler().ServeHTTP(recorder, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(recorder.Body)
	require.NoError(t, err)

	for _, name := range []string{
		`mlopslite_registrations_total{artifact="dataset",outcome="created"}`,
		`mlopslite_predictions_total{status="success"}`,
		`mlopslite_predictions_total{status="error"}`,
		"mlopslite_prediction_rows_total",
		"mlopslite_execution_log_failures_total",
		`mlopslite_store_operation_duration_seconds_bucket{operation="insert_dataset"`,
		`mlopslite_deployable_cache_total{result="hit"}`,
	} {
		require.Contains(t, string(body), name)
	}
}

func TestRegistryGathersRowCounter(t *testing.T) {
	count, err := testutil.GatherAndCount(monitoring.Registry(), "mlopslite_prediction_rows_total")
	require.NoError(t, err)
	require.Equal(t, 1, count)
}
