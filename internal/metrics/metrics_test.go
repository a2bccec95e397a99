package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/gait_stabilizer/internal/search"
	"github.com/relabs-tech/gait_stabilizer/internal/stability"
)

func scrape(t *testing.T, reg *prometheus.Registry) string {
	t.Helper()
	srv := httptest.NewServer(Handler(reg))
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func TestRecorderObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	r, err := NewRecorder(reg)
	require.NoError(t, err)

	r.Observe(search.Event{Kind: search.EventInitialized, Score: 10, BestScore: 10})
	r.Observe(search.Event{
		Kind:       search.EventAccepted,
		Score:      7.5,
		BestScore:  7.5,
		Correction: search.Correction{Pitch: -2, Roll: 1},
		Deviation:  stability.Deviation{Pitch: 5, Roll: 2.5, PitchSpread: 0.25},
	})
	r.Observe(search.Event{Kind: search.EventRejected, Score: 9, BestScore: 7.5})
	r.Observe(search.Event{Kind: search.EventFault})

	body := scrape(t, reg)
	assert.Contains(t, body, `gait_search_iterations_total{outcome="accepted"} 1`)
	assert.Contains(t, body, `gait_search_iterations_total{outcome="rejected"} 1`)
	assert.Contains(t, body, "gait_search_sensor_faults_total 1")
	assert.Contains(t, body, "gait_search_best_score_degrees 7.5")
	assert.Contains(t, body, "gait_search_last_score_degrees 9")
}

func TestRecorderDoubleRegister(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewRecorder(reg)
	require.NoError(t, err)
	_, err = NewRecorder(reg)
	assert.Error(t, err)
}
