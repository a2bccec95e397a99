// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/relabs-tech/gait_stabilizer/internal/config"
	"github.com/relabs-tech/gait_stabilizer/internal/orientation"
	"github.com/relabs-tech/gait_stabilizer/internal/rig"
	"github.com/relabs-tech/gait_stabilizer/internal/sensors"
	"github.com/relabs-tech/gait_stabilizer/internal/telemetry"
)

// RunOrientation prints pitch and roll every interval and publishes them to
// MQTT when a broker is configured. Read errors are printed and skipped.
// With dumpRegisters set the sensor configuration registers are printed
// first.
func RunOrientation(ctx context.Context, interval time.Duration, dumpRegisters bool) (err error) {
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

	if dumpRegisters {
		values, err := r.Sensor.DumpRegisters()
		if err != nil {
			return err
		}
		fmt.Print(sensors.FormatRegisters(values))
	}

	var pub *telemetry.Publisher
	if cfg.MQTTBroker != "" {
		client, err := telemetry.Connect(cfg.MQTTBroker, cfg.MQTTClientIDTuner)
		if err != nil {
			log.WithError(err).Warn("publishing disabled")
		} else {
			defer client.Disconnect(250)
			pub = telemetry.NewPublisher(client, telemetry.Topics{Orientation: cfg.TopicOrientation})
		}
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s, err := r.Estimator.ReadOrientation()
			if err != nil {
				fmt.Printf("read error: %v\n", err)
				continue
			}
			fmt.Println(formatSample(s))
			if pub != nil {
				if err := pub.PublishOrientation(s); err != nil {
					log.WithError(err).Warn("publish orientation")
				}
			}
		}
	}
}

func formatSample(s orientation.Sample) string {
	return fmt.Sprintf("Pitch: %6.2f°, Roll: %6.2f°", s.Pitch, s.Roll)
}
