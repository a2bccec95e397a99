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
	savePath := flag.String("save", "", "write the best pattern to this YAML file")
	flag.Parse()

	ctx, cancel, err := app.Start(*configPath)
	if err != nil {
		logrus.Fatalf("failed to load config: %v", err)
	}
	defer cancel()

	logrus.Info("starting gait tuner")
	if err := app.RunTuner(ctx, *savePath); err != nil {
		logrus.Fatalf("fatal: %v", err)
	}
}
