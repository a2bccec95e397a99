// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package metrics exposes search progress as Prometheus metrics.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/relabs-tech/gait_stabilizer/internal/search"
)

var log = logrus.WithFields(logrus.Fields{"pkg": "metrics"})

const namespace = "gait"

// Recorder is a search.Observer that updates Prometheus collectors.
type Recorder struct {
	iterations *prometheus.CounterVec
	faults     prometheus.Counter
	bestScore  prometheus.Gauge
	lastScore  prometheus.Gauge
	tilt       *prometheus.GaugeVec
	spread     *prometheus.GaugeVec
	correction *prometheus.GaugeVec
}

// NewRecorder creates the collectors and registers them on reg.
func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		iterations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_iterations_total",
			Help:      "Completed search iterations by outcome.",
		}, []string{"outcome"}),
		faults: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_sensor_faults_total",
			Help:      "Iterations aborted by a sensor read error.",
		}),
		bestScore: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "search_best_score_degrees",
			Help:      "Best combined tilt score so far.",
		}),
		lastScore: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "search_last_score_degrees",
			Help:      "Score of the most recently measured pattern.",
		}),
		tilt: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "measured_tilt_degrees",
			Help:      "Mean absolute tilt of the last measurement.",
		}, []string{"axis"}),
		spread: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "measured_tilt_spread_degrees",
			Help:      "Standard deviation of tilt in the last measurement.",
		}, []string{"axis"}),
		correction: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "search_correction_degrees",
			Help:      "Last correction applied to the candidate.",
		}, []string{"axis"}),
	}

	for _, c := range []prometheus.Collector{r.iterations, r.faults, r.bestScore, r.lastScore, r.tilt, r.spread, r.correction} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Observe implements search.Observer.
func (r *Recorder) Observe(e search.Event) {
	switch e.Kind {
	case search.EventFault:
		r.faults.Inc()
		return
	case search.EventAccepted, search.EventRejected:
		r.iterations.WithLabelValues(string(e.Kind)).Inc()
		r.correction.WithLabelValues("pitch").Set(e.Correction.Pitch)
		r.correction.WithLabelValues("roll").Set(e.Correction.Roll)
	case search.EventFinished:
		r.bestScore.Set(e.BestScore)
		return
	}

	r.bestScore.Set(e.BestScore)
	r.lastScore.Set(e.Score)
	r.tilt.WithLabelValues("pitch").Set(e.Deviation.Pitch)
	r.tilt.WithLabelValues("roll").Set(e.Deviation.Roll)
	r.spread.WithLabelValues("pitch").Set(e.Deviation.PitchSpread)
	r.spread.WithLabelValues("roll").Set(e.Deviation.RollSpread)
}

// Handler serves g in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on port until ctx is done.
func Serve(ctx context.Context, port int, g prometheus.Gatherer) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(g))
	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.WithField("addr", srv.Addr).Info("serving metrics")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
