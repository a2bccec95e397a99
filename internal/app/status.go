// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"fmt"
	"sync"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/gait_stabilizer/internal/config"
	"github.com/relabs-tech/gait_stabilizer/internal/search"
	"github.com/relabs-tech/gait_stabilizer/internal/telemetry"
)

const historyLimit = 200

// Snapshot is what the subscribers know about the robot.
type Snapshot struct {
	Orientation     telemetry.OrientationMessage `json:"orientation"`
	HaveOrientation bool                         `json:"have_orientation"`
	Last            search.Event                 `json:"last"`
	HaveSearch      bool                         `json:"have_search"`
	History         []search.Event               `json:"history,omitempty"`
}

// update is pushed to websocket clients.
type update struct {
	Type        string                        `json:"type"` // orientation, search
	Orientation *telemetry.OrientationMessage `json:"orientation,omitempty"`
	Event       *search.Event                 `json:"event,omitempty"`
}

// Status collects telemetry from MQTT for the web, display and monitor tools.
type Status struct {
	mu              sync.RWMutex
	orientation     telemetry.OrientationMessage
	haveOrientation bool
	history         []search.Event

	subMu  sync.Mutex
	nextID int
	subs   map[int]chan []byte
}

// NewStatus returns an empty status board.
func NewStatus() *Status {
	return &Status{subs: make(map[int]chan []byte)}
}

// SetOrientation stores the latest tilt.
func (s *Status) SetOrientation(m telemetry.OrientationMessage) {
	s.mu.Lock()
	s.orientation = m
	s.haveOrientation = true
	s.mu.Unlock()
	s.broadcast(update{Type: "orientation", Orientation: &m})
}

// AddEvent records a search event. A new run clears the history.
func (s *Status) AddEvent(e search.Event) {
	s.mu.Lock()
	if e.Kind == search.EventInitialized {
		s.history = s.history[:0]
	}
	s.history = append(s.history, e)
	if len(s.history) > historyLimit {
		s.history = s.history[len(s.history)-historyLimit:]
	}
	s.mu.Unlock()
	s.broadcast(update{Type: "search", Event: &e})
}

// Snapshot returns a copy of the current state.
func (s *Status) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Orientation:     s.orientation,
		HaveOrientation: s.haveOrientation,
		HaveSearch:      len(s.history) > 0,
		History:         append([]search.Event(nil), s.history...),
	}
	if snap.HaveSearch {
		snap.Last = s.history[len(s.history)-1]
	}
	return snap
}

// Subscribe returns a channel of JSON updates and a cancel func. Slow
// readers miss updates rather than block the MQTT callbacks.
func (s *Status) Subscribe() (<-chan []byte, func()) {
	ch := make(chan []byte, 16)
	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = ch
	s.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
			close(ch)
		})
	}
}

func (s *Status) broadcast(u update) {
	payload, err := json.Marshal(u)
	if err != nil {
		log.WithError(err).Error("marshal update")
		return
	}
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- payload:
		default:
		}
	}
}

// Feed subscribes s to the orientation and search topics.
func (s *Status) Feed(client mqtt.Client, cfg *config.Config) error {
	token := client.Subscribe(cfg.TopicOrientation, 0, func(_ mqtt.Client, msg mqtt.Message) {
		m, err := telemetry.DecodeOrientation(msg.Payload())
		if err != nil {
			log.WithError(err).Warn("bad orientation payload")
			return
		}
		s.SetOrientation(m)
	})
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("subscribe %s: %w", cfg.TopicOrientation, token.Error())
	}
	log.WithField("topic", cfg.TopicOrientation).Info("subscribed")

	token = client.Subscribe(cfg.TopicSearch, 0, func(_ mqtt.Client, msg mqtt.Message) {
		e, err := telemetry.DecodeEvent(msg.Payload())
		if err != nil {
			log.WithError(err).Warn("bad search payload")
			return
		}
		s.AddEvent(e)
	})
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("subscribe %s: %w", cfg.TopicSearch, token.Error())
	}
	log.WithField("topic", cfg.TopicSearch).Info("subscribed")
	return nil
}
