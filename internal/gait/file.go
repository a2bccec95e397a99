// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gait

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/relabs-tech/gait_stabilizer/internal/joint"
)

// On-disk shapes. Joints are keyed by their human name ("Hip Left") so the
// legacy servo_positions.json files load unchanged (JSON is valid YAML).
type poseDoc map[string]float64

type phaseDoc struct {
	Role   Role    `yaml:"role,omitempty"`
	Angles poseDoc `yaml:"angles"`
}

type patternDoc struct {
	Name     string     `yaml:"name"`
	Baseline poseDoc    `yaml:"baseline"`
	Phases   []phaseDoc `yaml:"phases"`
}

func (d poseDoc) angleMap() (AngleMap, error) {
	out := make(AngleMap, len(d))
	for name, a := range d {
		j, err := joint.Parse(name)
		if err != nil {
			return nil, err
		}
		out[j] = a
	}
	return out, nil
}

func toPoseDoc(m AngleMap) poseDoc {
	out := make(poseDoc, len(m))
	for j, a := range m {
		out[j.String()] = a
	}
	return out
}

// DecodePose parses a name→angle document.
func DecodePose(b []byte) (AngleMap, error) {
	var doc poseDoc
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("decode pose: %w", err)
	}
	m, err := doc.angleMap()
	if err != nil {
		return nil, fmt.Errorf("decode pose: %w", err)
	}
	if err := m.validate(); err != nil {
		return nil, fmt.Errorf("decode pose: %w", err)
	}
	return m, nil
}

// LoadPose reads a pose file.
func LoadPose(path string) (AngleMap, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pose file: %w", err)
	}
	return DecodePose(b)
}

// SavePose writes m to path as YAML.
func SavePose(path string, m AngleMap) error {
	b, err := yaml.Marshal(toPoseDoc(m))
	if err != nil {
		return fmt.Errorf("encode pose: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write pose file: %w", err)
	}
	return nil
}

// DecodePattern parses and validates a pattern document.
func DecodePattern(b []byte) (Pattern, error) {
	var doc patternDoc
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return Pattern{}, fmt.Errorf("decode pattern: %w", err)
	}

	base, err := doc.Baseline.angleMap()
	if err != nil {
		return Pattern{}, fmt.Errorf("decode pattern baseline: %w", err)
	}
	p := Pattern{Name: doc.Name, Baseline: base}
	for i, ph := range doc.Phases {
		angles, err := ph.Angles.angleMap()
		if err != nil {
			return Pattern{}, fmt.Errorf("decode pattern phase %d: %w", i, err)
		}
		p.Phases = append(p.Phases, Phase{Role: ph.Role, Angles: angles})
	}

	if err := p.Validate(); err != nil {
		return Pattern{}, err
	}
	return p, nil
}

// EncodePattern renders p as YAML.
func EncodePattern(p Pattern) ([]byte, error) {
	doc := patternDoc{Name: p.Name, Baseline: toPoseDoc(p.Baseline)}
	for _, ph := range p.Phases {
		doc.Phases = append(doc.Phases, phaseDoc{Role: ph.Role, Angles: toPoseDoc(ph.Angles)})
	}
	return yaml.Marshal(doc)
}

// LoadPattern reads a pattern file.
func LoadPattern(path string) (Pattern, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Pattern{}, fmt.Errorf("read pattern file: %w", err)
	}
	return DecodePattern(b)
}

// SavePattern writes p to path.
func SavePattern(path string, p Pattern) error {
	b, err := EncodePattern(p)
	if err != nil {
		return fmt.Errorf("encode pattern: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write pattern file: %w", err)
	}
	return nil
}
