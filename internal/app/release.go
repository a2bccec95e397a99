// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"github.com/relabs-tech/gait_stabilizer/internal/config"
	"github.com/relabs-tech/gait_stabilizer/internal/rig"
)

// RunRelease turns every servo off and exits.
func RunRelease() error {
	r, err := rig.Open(config.Get())
	if err != nil {
		return err
	}
	if err := r.Close(); err != nil {
		return err
	}
	log.Info("all servos released")
	return nil
}
