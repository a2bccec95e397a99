// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/relabs-tech/gait_stabilizer/internal/config"
	"github.com/relabs-tech/gait_stabilizer/internal/gait"
	"github.com/relabs-tech/gait_stabilizer/internal/metrics"
	"github.com/relabs-tech/gait_stabilizer/internal/rig"
	"github.com/relabs-tech/gait_stabilizer/internal/search"
	"github.com/relabs-tech/gait_stabilizer/internal/telemetry"
)

// RunTuner runs one hill-climbing search on the robot and optionally writes
// the best pattern to savePath. The rig is released on every exit path.
func RunTuner(ctx context.Context, savePath string) (err error) {
	cfg := config.Get()

	r, err := rig.Open(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := r.Close(); cerr != nil {
			err = errors.Join(err, cerr)
		}
	}()

	seed, err := rig.Seed(cfg)
	if err != nil {
		return fmt.Errorf("load seed: %w", err)
	}
	log.WithFields(logrus.Fields{"pattern": seed.Name, "phases": len(seed.Phases)}).Info("seed loaded")

	observers := search.Observers{}

	if cfg.MQTTBroker != "" {
		client, err := telemetry.Connect(cfg.MQTTBroker, cfg.MQTTClientIDTuner)
		if err != nil {
			log.WithError(err).Warn("telemetry disabled")
		} else {
			defer client.Disconnect(250)
			observers = append(observers, telemetry.NewPublisher(client, telemetry.Topics{
				Orientation: cfg.TopicOrientation,
				Search:      cfg.TopicSearch,
			}))
		}
	}

	if cfg.MetricsPort > 0 {
		reg := prometheus.NewRegistry()
		rec, err := metrics.NewRecorder(reg)
		if err != nil {
			return err
		}
		observers = append(observers, rec)
		go func() {
			if err := metrics.Serve(ctx, cfg.MetricsPort, reg); err != nil {
				log.WithError(err).Error("metrics server stopped")
			}
		}()
	}

	s, err := r.NewSearch(seed, search.WithObserver(observers))
	if err != nil {
		return err
	}

	res, runErr := s.Run(ctx)
	log.WithFields(logrus.Fields{
		"initial":    res.InitialScore,
		"best":       res.BestScore,
		"iterations": res.Iterations,
		"accepted":   res.Accepted,
		"faults":     res.Faults,
	}).Info("tuning done")
	fmt.Printf("best score %.2f (seed %.2f), %d/%d candidates accepted\n",
		res.BestScore, res.InitialScore, res.Accepted, res.Iterations)

	if savePath != "" && len(res.Best.Phases) > 0 {
		if err := gait.SavePattern(savePath, res.Best); err != nil {
			return errors.Join(runErr, fmt.Errorf("save pattern: %w", err))
		}
		log.WithField("path", savePath).Info("best pattern saved")
	}

	if errors.Is(runErr, context.Canceled) {
		log.Info("tuning interrupted")
		return nil
	}
	return runErr
}
