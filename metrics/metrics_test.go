package metrics

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foomo/layoutinfer/collection"
	"github.com/foomo/layoutinfer/errors"
)

var (
	_ collection.Recorder = NoopRecorder{}
	_ collection.Recorder = (*PrometheusRecorder)(nil)
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.ObserveRound(20 * time.Millisecond)
	pr.ObserveRound(30 * time.Millisecond)
	pr.ObserveBuild(50*time.Millisecond, 3, nil)
	pr.ObserveBuild(time.Millisecond, 1, errors.InsufficientInput("one").Build())
	pr.ObserveVariables(7)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	byName := map[string]int{}
	for _, mf := range mfs {
		byName[mf.GetName()] = len(mf.GetMetric())
	}
	assert.Equal(t, 1, byName["layoutinfer_round_duration_seconds"])
	assert.Equal(t, 2, byName["layoutinfer_build_outcomes_total"])
	assert.Equal(t, 1, byName["layoutinfer_variables"])

	for _, mf := range mfs {
		switch mf.GetName() {
		case "layoutinfer_round_duration_seconds":
			assert.Equal(t, uint64(2), mf.GetMetric()[0].GetHistogram().GetSampleCount())
		case "layoutinfer_variables":
			assert.InDelta(t, 7, mf.GetMetric()[0].GetGauge().GetValue(), 0)
		}
	}
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, "success", Outcome(nil))
	assert.Equal(t, "structural_mismatch", Outcome(errors.StructuralMismatch("x").Build()))
	assert.Equal(t, "internal", Outcome(fmt.Errorf("plain")))
}

func TestHTTPHandler(t *testing.T) {
	reg := prom.NewRegistry()
	NewPrometheusRecorder(reg).ObserveVariables(3)

	rec := httptest.NewRecorder()
	HTTPHandler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "layoutinfer_variables 3")
}
