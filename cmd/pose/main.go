// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/relabs-tech/gait_stabilizer/internal/app"
)

func main() {
	configPath := flag.String("config", "stabilizer_config.txt", "path to the config file")
	applyPath := flag.String("apply", "", "pose file to overlay on the baseline")
	savePath := flag.String("save", "", "write the resulting pose to this file")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] [joint=angle ...]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	ctx, cancel, err := app.Start(*configPath)
	if err != nil {
		logrus.Fatalf("failed to load config: %v", err)
	}
	defer cancel()

	if err := app.RunPose(ctx, *applyPath, *savePath, flag.Args()); err != nil {
		logrus.Fatalf("fatal: %v", err)
	}
}
