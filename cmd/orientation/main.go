// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"flag"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/relabs-tech/gait_stabilizer/internal/app"
)

func main() {
	configPath := flag.String("config", "stabilizer_config.txt", "path to the config file")
	interval := flag.Duration("interval", 200*time.Millisecond, "time between readings")
	registers := flag.Bool("registers", false, "print the sensor configuration registers first")
	flag.Parse()

	if *interval <= 0 {
		logrus.Fatalf("interval must be positive, got %v", *interval)
	}

	ctx, cancel, err := app.Start(*configPath)
	if err != nil {
		logrus.Fatalf("failed to load config: %v", err)
	}
	defer cancel()

	if err := app.RunOrientation(ctx, *interval, *registers); err != nil {
		logrus.Fatalf("fatal: %v", err)
	}
}
