// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package rig owns the hardware handles of one robot: the sensor bus, the
// PWM backend, and the components built on them. Nothing else opens or
// closes hardware.
package rig

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/gait_stabilizer/internal/actuator"
	"github.com/relabs-tech/gait_stabilizer/internal/config"
	"github.com/relabs-tech/gait_stabilizer/internal/executor"
	"github.com/relabs-tech/gait_stabilizer/internal/gait"
	"github.com/relabs-tech/gait_stabilizer/internal/imu"
	"github.com/relabs-tech/gait_stabilizer/internal/orientation"
	"github.com/relabs-tech/gait_stabilizer/internal/pwm"
	"github.com/relabs-tech/gait_stabilizer/internal/search"
	"github.com/relabs-tech/gait_stabilizer/internal/sensors"
	"github.com/relabs-tech/gait_stabilizer/internal/stability"
)

var log = logrus.WithFields(logrus.Fields{"pkg": "rig"})

// Backend names accepted in PWM_BACKEND.
const (
	BackendPCA9685 = "pca9685"
	BackendGPIO    = "gpio"
	BackendMaestro = "maestro"
	BackendSim     = "sim"
)

// Rig is the single owner of the robot's hardware.
type Rig struct {
	Driver    *actuator.Driver
	Sensor    *sensors.MPU6050
	Estimator *orientation.Estimator
	Executor  *executor.Executor
	Scorer    *stability.Scorer

	cfg     *config.Config
	backend pwm.Backend
	bus     i2c.BusCloser
	body    *SimBody

	closeOnce sync.Once
	closeErr  error
}

type options struct {
	sleep   func(time.Duration)
	backend pwm.Backend
	regBus  imu.RegisterBus
	seed    uint64
}

// Option adjusts Open.
type Option func(*options)

// WithSleep replaces time.Sleep in every component, for tests.
func WithSleep(sleep func(time.Duration)) Option {
	return func(o *options) { o.sleep = sleep }
}

// WithBackend uses b instead of the backend named in the config.
func WithBackend(b pwm.Backend) Option {
	return func(o *options) { o.backend = b }
}

// WithRegisterBus uses bus for the sensor instead of opening I2C.
func WithRegisterBus(bus imu.RegisterBus) Option {
	return func(o *options) { o.regBus = bus }
}

// WithSimSeed fixes the simulated sensor noise.
func WithSimSeed(seed uint64) Option {
	return func(o *options) { o.seed = seed }
}

// Open brings up the rig described by cfg. On error everything already
// opened is released and closed again.
func Open(cfg *config.Config, opts ...Option) (r *Rig, err error) {
	o := options{sleep: time.Sleep, seed: uint64(time.Now().UnixNano())}
	for _, fn := range opts {
		fn(&o)
	}

	r = &Rig{cfg: cfg}
	defer func() {
		if err != nil {
			if cerr := r.Close(); cerr != nil {
				log.WithError(cerr).Warn("cleanup after failed open")
			}
			r = nil
		}
	}()

	sim := cfg.PWMBackend == BackendSim
	needBus := (o.regBus == nil && !sim) || (o.backend == nil && cfg.PWMBackend == BackendPCA9685)
	if needBus {
		if _, err := host.Init(); err != nil {
			return r, fmt.Errorf("rig: periph host init: %w", err)
		}
		bus, err := i2creg.Open(cfg.I2CBus)
		if err != nil {
			return r, fmt.Errorf("rig: open i2c bus %q: %w", cfg.I2CBus, err)
		}
		r.bus = bus
		log.WithField("bus", bus.String()).Info("i2c bus opened")
	}

	r.backend = o.backend
	if r.backend == nil {
		if r.backend, err = r.openBackend(); err != nil {
			return r, err
		}
	}

	r.Driver, err = actuator.NewDriver(r.backend, cfg.Joints,
		actuator.WithSettle(cfg.SettleDuration()),
		actuator.WithSleep(o.sleep))
	if err != nil {
		return r, fmt.Errorf("rig: %w", err)
	}

	var act executor.Actuator = r.Driver
	regBus := o.regBus
	if regBus == nil {
		if sim {
			r.body = NewSimBody(r.Driver, cfg.SimPitchBias, cfg.SimRollBias)
			act = r.body
			regBus = sensors.NewSimBus(r.body.Tilt, cfg.SimNoise, o.seed)
		} else {
			regBus = sensors.NewI2CBus(r.bus, cfg.IMUI2CAddr)
		}
	}

	r.Sensor = sensors.NewMPU6050(regBus)
	if err := r.Sensor.Wake(); err != nil {
		return r, fmt.Errorf("rig: wake sensor: %w", err)
	}
	// Clones report other ids but share the accelerometer registers.
	if id, err := r.Sensor.WhoAmI(); err != nil || id != sensors.WhoAmIMPU6050 {
		log.WithFields(logrus.Fields{"who_am_i": fmt.Sprintf("0x%02X", id), "error": err}).Warn("unexpected sensor identity")
	}

	formula, err := orientation.ParseRollFormula(cfg.RollFormula)
	if err != nil {
		return r, fmt.Errorf("rig: %w", err)
	}
	r.Estimator = orientation.NewEstimator(r.Sensor, cfg.IMUAccelSensitivity, formula)
	r.Executor = executor.New(act,
		executor.WithDwell(cfg.DwellDuration()),
		executor.WithSubsteps(cfg.InterpolationSteps),
		executor.WithSleep(o.sleep))
	r.Scorer = stability.NewScorer(r.Estimator, o.sleep)

	log.WithFields(logrus.Fields{"backend": cfg.PWMBackend, "roll_formula": string(formula)}).Info("rig ready")
	return r, nil
}

func (r *Rig) openBackend() (pwm.Backend, error) {
	cfg := r.cfg
	channels := cfg.Joints.Channels()
	switch cfg.PWMBackend {
	case BackendPCA9685:
		if err := checkChannels(channels, 15); err != nil {
			return nil, err
		}
		p, err := pwm.NewPCA9685(r.bus, cfg.PCA9685I2CAddr, cfg.PWMFrequencyHz)
		if err != nil {
			return nil, fmt.Errorf("rig: %w", err)
		}
		return p, nil
	case BackendGPIO:
		if r.bus == nil {
			if _, err := host.Init(); err != nil {
				return nil, fmt.Errorf("rig: periph host init: %w", err)
			}
		}
		g, err := pwm.NewGPIO(channels, cfg.PWMFrequencyHz)
		if err != nil {
			return nil, fmt.Errorf("rig: %w", err)
		}
		return g, nil
	case BackendMaestro:
		if err := checkChannels(channels, 23); err != nil {
			return nil, err
		}
		m, err := pwm.OpenMaestro(cfg.MaestroSerialPort, cfg.MaestroBaudRate)
		if err != nil {
			return nil, fmt.Errorf("rig: %w", err)
		}
		return m, nil
	case BackendSim:
		return pwm.NewRecorder(), nil
	}
	return nil, fmt.Errorf("rig: unknown PWM backend %q", cfg.PWMBackend)
}

func checkChannels(channels []int, max int) error {
	for _, ch := range channels {
		if ch < 0 || ch > max {
			return fmt.Errorf("rig: channel %d out of range 0-%d for this backend", ch, max)
		}
	}
	return nil
}

// Close releases every joint, then closes the PWM backend and the bus. It
// runs once; later calls return the first result.
func (r *Rig) Close() error {
	r.closeOnce.Do(func() {
		var errs []error
		if r.Driver != nil {
			if err := r.Driver.ReleaseAll(); err != nil {
				errs = append(errs, fmt.Errorf("release: %w", err))
			}
		}
		if r.backend != nil {
			if err := r.backend.Close(); err != nil {
				errs = append(errs, fmt.Errorf("pwm close: %w", err))
			}
		}
		if r.bus != nil {
			if err := r.bus.Close(); err != nil {
				errs = append(errs, fmt.Errorf("i2c close: %w", err))
			}
		}
		r.closeErr = errors.Join(errs...)
		log.Info("rig closed")
	})
	return r.closeErr
}

// SearchParams maps the config onto search parameters.
func SearchParams(cfg *config.Config) search.Params {
	return search.Params{
		Iterations:           cfg.Iterations,
		CorrectionDivisor:    cfg.CorrectionDivisor,
		ImprovementThreshold: cfg.ImprovementThreshold,
		SampleCount:          cfg.SampleCount,
		SampleInterval:       cfg.SampleIntervalDuration(),
		CandidateTrials:      cfg.CandidateTrials,
		MaxConsecutiveFaults: cfg.MaxConsecutiveFaults,
	}
}

// NewSearch builds a search over this rig starting from seed.
func (r *Rig) NewSearch(seed gait.Pattern, opts ...search.Option) (*search.Search, error) {
	return search.New(r.Executor, r.Scorer, r.Estimator, seed, SearchParams(r.cfg), opts...)
}

// Baseline is the standing pose: POSE_FILE if set, the built-in pose
// otherwise.
func Baseline(cfg *config.Config) (gait.AngleMap, error) {
	if cfg.PoseFile == "" {
		return gait.StandingPose(), nil
	}
	pose, err := gait.LoadPose(cfg.PoseFile)
	if err != nil {
		return nil, err
	}
	return pose.Merge(gait.StandingPose()), nil
}

// Seed returns the starting pattern: PATTERN_FILE if set, else the
// weight-shift pattern around Baseline.
func Seed(cfg *config.Config) (gait.Pattern, error) {
	if cfg.PatternFile != "" {
		return gait.LoadPattern(cfg.PatternFile)
	}
	base, err := Baseline(cfg)
	if err != nil {
		return gait.Pattern{}, err
	}
	return gait.Builtin("weight-shift", base)
}
