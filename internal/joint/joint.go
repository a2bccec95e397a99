// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package joint defines the closed set of servo joints on the biped and the
// table binding each joint to a PWM channel.
package joint

import (
	"errors"
	"fmt"
	"strings"
)

// Joint identifies one servo. The zero value is not a joint.
type Joint int

const (
	HipLeft Joint = iota + 1
	KneeLeft
	HipRight
	KneeRight
	LeftToe
	RightToe
)

// ErrUnknownJoint is returned when a name does not match any joint.
var ErrUnknownJoint = errors.New("unknown joint")

// All lists every joint in canonical command order.
var All = []Joint{HipLeft, KneeLeft, HipRight, KneeRight, LeftToe, RightToe}

var names = map[Joint]string{
	HipLeft:   "Hip Left",
	KneeLeft:  "Knee Left",
	HipRight:  "Hip Right",
	KneeRight: "Knee Right",
	LeftToe:   "Left Toe",
	RightToe:  "Right Toe",
}

// String returns the human name used in pose files, e.g. "Hip Left".
func (j Joint) String() string {
	if n, ok := names[j]; ok {
		return n
	}
	return fmt.Sprintf("Joint(%d)", int(j))
}

// Valid reports whether j is one of the six joints.
func (j Joint) Valid() bool {
	_, ok := names[j]
	return ok
}

// MarshalText encodes the joint by name so maps keyed by Joint serialize
// with readable keys.
func (j Joint) MarshalText() ([]byte, error) {
	if !j.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownJoint, int(j))
	}
	return []byte(j.String()), nil
}

// UnmarshalText is the inverse of MarshalText and accepts anything Parse does.
func (j *Joint) UnmarshalText(text []byte) error {
	v, err := Parse(string(text))
	if err != nil {
		return err
	}
	*j = v
	return nil
}

// Parse resolves a joint name. Case, spaces, underscores and dashes are
// ignored, so "Hip Left", "hip_left", "HIP_LEFT" and "HipLeft" are equal.
func Parse(name string) (Joint, error) {
	key := normalize(name)
	for _, j := range All {
		if normalize(names[j]) == key {
			return j, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownJoint, name)
}

// ParseKey parses the upper snake case form used in config keys.
func ParseKey(key string) (Joint, error) {
	return Parse(key)
}

func normalize(s string) string {
	s = strings.ToLower(s)
	return strings.NewReplacer(" ", "", "_", "", "-", "").Replace(s)
}

