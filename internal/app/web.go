// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"github.com/relabs-tech/gait_stabilizer/internal/config"
	"github.com/relabs-tech/gait_stabilizer/internal/telemetry"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // local bench network only
	},
}

// RunWeb serves the latest telemetry from MQTT over HTTP and a websocket.
func RunWeb(ctx context.Context) error {
	cfg := config.Get()

	client, err := telemetry.Connect(cfg.MQTTBroker, cfg.MQTTClientIDWeb)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	status := NewStatus()
	if err := status.Feed(client, cfg); err != nil {
		return err
	}

	mux := newWebMux(status)
	// Static files from ./web as the root
	mux.Handle("/", http.FileServer(http.Dir("web")))

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.WebServerPort),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.WithField("addr", srv.Addr).Info("web server listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func newWebMux(status *Status) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/orientation", func(w http.ResponseWriter, r *http.Request) {
		snap := status.Snapshot()
		if !snap.HaveOrientation {
			http.Error(w, "no data yet", http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, snap.Orientation)
	})

	mux.HandleFunc("/api/search", func(w http.ResponseWriter, r *http.Request) {
		snap := status.Snapshot()
		if !snap.HaveSearch {
			http.Error(w, "no search yet", http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, struct {
			Last    any `json:"last"`
			History any `json:"history"`
		}{snap.Last, snap.History})
	})

	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		serveLiveFeed(status, w, r)
	})
	return mux
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Warn("json encode")
	}
}

// serveLiveFeed sends the current snapshot, then every update, until the
// client goes away.
func serveLiveFeed(status *Status, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Warn("websocket upgrade")
		return
	}
	defer conn.Close()

	updates, cancel := status.Subscribe()
	defer cancel()

	if err := conn.WriteJSON(struct {
		Type     string   `json:"type"`
		Snapshot Snapshot `json:"snapshot"`
	}{"snapshot", status.Snapshot()}); err != nil {
		return
	}

	// Reader goroutine only notices the close.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.WithError(err).Debug("websocket read")
				}
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case msg, ok := <-updates:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		}
	}
}
