// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package pwm

import "sync"

// Command is one call seen by a Recorder. Micros is 0 for a release.
type Command struct {
	Channel int
	Micros  float64
	Release bool
}

// Recorder is an in-memory Backend. It backs the "sim" rig and tests.
type Recorder struct {
	mu       sync.Mutex
	commands []Command
	last     map[int]float64
	closed   bool

	// FailOn, when set, makes SetPulse on that channel return the error.
	FailOn map[int]error
}

// NewRecorder returns an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{last: make(map[int]float64)}
}

// SetPulse implements Backend.
func (r *Recorder) SetPulse(channel int, micros float64) error {
	if err := checkPulse(channel, micros); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.FailOn[channel]; err != nil {
		return err
	}
	r.commands = append(r.commands, Command{Channel: channel, Micros: micros})
	r.last[channel] = micros
	return nil
}

// Release implements Backend.
func (r *Recorder) Release(channel int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands = append(r.commands, Command{Channel: channel, Release: true})
	r.last[channel] = 0
	return nil
}

// Close implements Backend.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

// Commands returns a copy of everything recorded so far.
func (r *Recorder) Commands() []Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Command(nil), r.commands...)
}

// Last returns the most recent pulse on channel, 0 if released or never set.
func (r *Recorder) Last(channel int) float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last[channel]
}

// Releases counts release commands per channel.
func (r *Recorder) Releases() map[int]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[int]int)
	for _, c := range r.commands {
		if c.Release {
			out[c.Channel]++
		}
	}
	return out
}

// Closed reports whether Close was called.
func (r *Recorder) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

// Reset drops recorded commands but keeps Last values.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands = nil
}
