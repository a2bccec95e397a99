// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"io"
	"os"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/gait_stabilizer/internal/config"
	"github.com/relabs-tech/gait_stabilizer/internal/search"
	"github.com/relabs-tech/gait_stabilizer/internal/telemetry"
)

// RunMonitor prints tilt and search events from MQTT until ctx is done.
func RunMonitor(ctx context.Context) error {
	cfg := config.Get()

	client, err := telemetry.Connect(cfg.MQTTBroker, cfg.MQTTClientIDMonitor)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	return monitor(ctx, client, cfg, os.Stdout)
}

func monitor(ctx context.Context, client mqtt.Client, cfg *config.Config, out io.Writer) error {
	token := client.Subscribe(cfg.TopicOrientation, 0, func(_ mqtt.Client, msg mqtt.Message) {
		m, err := telemetry.DecodeOrientation(msg.Payload())
		if err != nil {
			log.WithError(err).Warn("monitor: bad orientation payload")
			return
		}
		fmt.Fprintln(out, formatOrientation(m))
	})
	if token.Wait() && token.Error() != nil {
		return token.Error()
	}

	token = client.Subscribe(cfg.TopicSearch, 0, func(_ mqtt.Client, msg mqtt.Message) {
		e, err := telemetry.DecodeEvent(msg.Payload())
		if err != nil {
			log.WithError(err).Warn("monitor: bad search payload")
			return
		}
		fmt.Fprintln(out, formatEvent(e))
	})
	if token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Info("monitor: subscribed, Ctrl+C to stop")

	<-ctx.Done()
	log.Info("monitor: shutting down")
	return nil
}

func formatOrientation(m telemetry.OrientationMessage) string {
	return fmt.Sprintf("[TILT]   PITCH=%6.2f  ROLL=%6.2f", m.Pitch, m.Roll)
}

func formatEvent(e search.Event) string {
	switch e.Kind {
	case search.EventInitialized:
		return fmt.Sprintf("[SEED]   score=%6.2f", e.Score)
	case search.EventAccepted, search.EventRejected:
		verdict := "reject"
		if e.Kind == search.EventAccepted {
			verdict = "ACCEPT"
		}
		return fmt.Sprintf("[ITER %2d] pitch=%6.2f roll=%6.2f corr=%+.0f/%+.0f score=%6.2f best=%6.2f %s",
			e.Iteration, e.Guidance.Pitch, e.Guidance.Roll, e.Correction.Pitch, e.Correction.Roll,
			e.Score, e.BestScore, verdict)
	case search.EventFault:
		return fmt.Sprintf("[ITER %2d] sensor fault: %s", e.Iteration, e.Err)
	case search.EventFinished:
		return fmt.Sprintf("[DONE]   best=%6.2f after %d iterations", e.BestScore, e.Iteration)
	}
	return fmt.Sprintf("[%s]", e.Kind)
}
