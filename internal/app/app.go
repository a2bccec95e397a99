// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package app holds the entry points behind the cmd/ binaries.
package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/relabs-tech/gait_stabilizer/internal/config"
	"github.com/relabs-tech/gait_stabilizer/internal/logging"
)

var log = logrus.WithFields(logrus.Fields{"pkg": "app"})

// Start loads the config into the global slot, sets up logging, and returns
// a context cancelled on SIGINT or SIGTERM.
func Start(configPath string) (context.Context, context.CancelFunc, error) {
	if err := config.InitGlobal(configPath); err != nil {
		return nil, nil, err
	}
	cfg := config.Get()
	if err := logging.Setup(cfg.LogLevel, cfg.LogJSON); err != nil {
		return nil, nil, err
	}
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	return ctx, cancel, nil
}
