// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/relabs-tech/gait_stabilizer/internal/config"
	"github.com/relabs-tech/gait_stabilizer/internal/gait"
	"github.com/relabs-tech/gait_stabilizer/internal/joint"
	"github.com/relabs-tech/gait_stabilizer/internal/rig"
)

// RunPose commands a pose and holds it until ctx is done, then releases the
// servos. The pose is the baseline, overlaid with applyPath if given, then
// with the joint=angle overrides. With savePath set the resulting pose is
// also written there.
func RunPose(ctx context.Context, applyPath, savePath string, overrides []string) (err error) {
	cfg := config.Get()

	pose, err := buildPose(cfg, applyPath, overrides)
	if err != nil {
		return err
	}

	r, err := rig.Open(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := r.Close(); cerr != nil {
			err = errors.Join(err, cerr)
		}
	}()

	if err := r.Driver.MoveAll(pose); err != nil {
		return fmt.Errorf("apply pose: %w", err)
	}
	fmt.Println(pose)

	if savePath != "" {
		if err := gait.SavePose(savePath, pose); err != nil {
			return err
		}
		log.WithField("path", savePath).Info("pose saved")
	}

	log.Info("holding pose, Ctrl+C to release")
	<-ctx.Done()
	return nil
}

func buildPose(cfg *config.Config, applyPath string, overrides []string) (gait.AngleMap, error) {
	pose, err := rig.Baseline(cfg)
	if err != nil {
		return nil, err
	}
	if applyPath != "" {
		file, err := gait.LoadPose(applyPath)
		if err != nil {
			return nil, err
		}
		pose = file.Merge(pose)
	}
	set, err := parseOverrides(overrides)
	if err != nil {
		return nil, err
	}
	return set.Merge(pose).Clamped(), nil
}

// parseOverrides reads "hip_left=85" style arguments.
func parseOverrides(args []string) (gait.AngleMap, error) {
	m := gait.AngleMap{}
	for _, arg := range args {
		name, value, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, fmt.Errorf("override %q: want joint=angle", arg)
		}
		j, err := joint.Parse(strings.TrimSpace(name))
		if err != nil {
			return nil, fmt.Errorf("override %q: %w", arg, err)
		}
		angle, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return nil, fmt.Errorf("override %q: %w", arg, err)
		}
		m[j] = angle
	}
	return m, nil
}
