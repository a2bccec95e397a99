// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package telemetry publishes orientation samples and search events as JSON
// over MQTT, and decodes them on the subscriber side.
package telemetry

import (
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/sirupsen/logrus"

	"github.com/relabs-tech/gait_stabilizer/internal/orientation"
	"github.com/relabs-tech/gait_stabilizer/internal/search"
)

var log = logrus.WithFields(logrus.Fields{"pkg": "telemetry"})

const publishTimeout = 2 * time.Second

// Client is the subset of mqtt.Client used for publishing.
type Client interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// Topics names where each message kind goes.
type Topics struct {
	Orientation string
	Search      string
}

// OrientationMessage is the payload on the orientation topic.
type OrientationMessage struct {
	Pitch float64   `json:"pitch"`
	Roll  float64   `json:"roll"`
	Time  time.Time `json:"time"`
}

// Connect dials broker with the given client id.
func Connect(broker, clientID string) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect %s: %w", broker, token.Error())
	}
	log.WithFields(logrus.Fields{"broker": broker, "client_id": clientID}).Info("connected to MQTT")
	return client, nil
}

// Publisher sends telemetry. It implements search.Observer.
type Publisher struct {
	client Client
	topics Topics
	now    func() time.Time
}

// NewPublisher returns a publisher on client.
func NewPublisher(client Client, topics Topics) *Publisher {
	return &Publisher{client: client, topics: topics, now: time.Now}
}

// PublishOrientation sends one sample, retained so late subscribers see the
// latest tilt.
func (p *Publisher) PublishOrientation(s orientation.Sample) error {
	msg := OrientationMessage{Pitch: s.Pitch, Roll: s.Roll, Time: p.now()}
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("telemetry: marshal orientation: %w", err)
	}
	token := p.client.Publish(p.topics.Orientation, 0, true, payload)
	if token.WaitTimeout(publishTimeout) && token.Error() != nil {
		return fmt.Errorf("telemetry: publish %s: %w", p.topics.Orientation, token.Error())
	}
	return nil
}

// Observe implements search.Observer. Publish errors are logged, not
// returned, so a broker outage never stops the control loop.
func (p *Publisher) Observe(e search.Event) {
	payload, err := json.Marshal(e)
	if err != nil {
		log.WithError(err).Error("marshal search event")
		return
	}
	token := p.client.Publish(p.topics.Search, 0, true, payload)
	go func() {
		if token.WaitTimeout(publishTimeout) && token.Error() != nil {
			log.WithError(token.Error()).WithField("topic", p.topics.Search).Warn("publish failed")
		}
	}()
}

// DecodeOrientation parses an orientation payload.
func DecodeOrientation(payload []byte) (OrientationMessage, error) {
	var m OrientationMessage
	if err := json.Unmarshal(payload, &m); err != nil {
		return OrientationMessage{}, fmt.Errorf("telemetry: decode orientation: %w", err)
	}
	return m, nil
}

// DecodeEvent parses a search event payload.
func DecodeEvent(payload []byte) (search.Event, error) {
	var e search.Event
	if err := json.Unmarshal(payload, &e); err != nil {
		return search.Event{}, fmt.Errorf("telemetry: decode event: %w", err)
	}
	return e, nil
}
