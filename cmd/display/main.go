// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"flag"

	"github.com/sirupsen/logrus"

	"github.com/relabs-tech/gait_stabilizer/internal/app"
)

func main() {
	configPath := flag.String("config", "stabilizer_config.txt", "path to the config file")
	flag.Parse()

	ctx, cancel, err := app.Start(*configPath)
	if err != nil {
		logrus.Fatalf("failed to load config: %v", err)
	}
	defer cancel()

	if err := app.RunDisplay(ctx); err != nil {
		logrus.Fatalf("fatal: %v", err)
	}
}
