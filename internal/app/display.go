// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"image"
	"time"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/gait_stabilizer/internal/config"
	"github.com/relabs-tech/gait_stabilizer/internal/search"
	"github.com/relabs-tech/gait_stabilizer/internal/telemetry"
)

const (
	displayWidth  = 128
	displayHeight = 64
	lineHeight    = 13
)

// RunDisplay shows tilt and search progress on an SSD1306 OLED.
func RunDisplay(ctx context.Context) error {
	cfg := config.Get()

	if _, err := host.Init(); err != nil {
		return fmt.Errorf("failed to initialize periph: %w", err)
	}
	bus, err := i2creg.Open(cfg.I2CBus)
	if err != nil {
		return fmt.Errorf("failed to open I2C bus: %w", err)
	}
	defer bus.Close()

	dev, err := ssd1306.NewI2C(&fixedAddrBus{Bus: bus, addr: cfg.DisplayI2CAddr}, &ssd1306.DefaultOpts)
	if err != nil {
		return fmt.Errorf("failed to initialize display: %w", err)
	}
	log.WithField("addr", fmt.Sprintf("0x%02X", cfg.DisplayI2CAddr)).Info("display initialized")
	defer dev.Halt()

	if err := dev.Draw(dev.Bounds(), renderLines([]string{"", " Gait tuner", " Waiting..."}), image.Point{}); err != nil {
		log.WithError(err).Warn("splash")
	}

	client, err := telemetry.Connect(cfg.MQTTBroker, cfg.MQTTClientIDDisplay)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	status := NewStatus()
	if err := status.Feed(client, cfg); err != nil {
		return err
	}

	ticker := time.NewTicker(time.Duration(cfg.DisplayUpdateInterval) * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			img := renderLines(statusLines(status.Snapshot()))
			if err := dev.Draw(dev.Bounds(), img, image.Point{}); err != nil {
				log.WithError(err).Warn("display update")
			}
		}
	}
}

// fixedAddrBus sends every transaction to addr. The ssd1306 driver always
// talks to 0x3C; boards strapped to 0x3D need the rewrite.
type fixedAddrBus struct {
	i2c.Bus
	addr uint16
}

func (b *fixedAddrBus) Tx(_ uint16, w, r []byte) error {
	return b.Bus.Tx(b.addr, w, r)
}

// statusLines formats a snapshot for the 128x64 screen, four lines of at
// most 18 characters.
func statusLines(snap Snapshot) []string {
	lines := make([]string, 0, 4)
	if snap.HaveOrientation {
		lines = append(lines,
			fmt.Sprintf("P:%6.1f R:%6.1f", snap.Orientation.Pitch, snap.Orientation.Roll))
	} else {
		lines = append(lines, "Tilt: waiting")
	}

	if !snap.HaveSearch {
		return append(lines, "Search: idle")
	}
	e := snap.Last
	lines = append(lines,
		fmt.Sprintf("It %d %s", e.Iteration, shortKind(e.Kind)),
		fmt.Sprintf("Best:%6.2f", e.BestScore))
	if e.Kind == search.EventAccepted || e.Kind == search.EventRejected {
		lines = append(lines, fmt.Sprintf("dP%+.0f dR%+.0f", e.Correction.Pitch, e.Correction.Roll))
	}
	return lines
}

func shortKind(k search.EventKind) string {
	switch k {
	case search.EventInitialized:
		return "seed"
	case search.EventAccepted:
		return "ACCEPT"
	case search.EventRejected:
		return "reject"
	case search.EventFault:
		return "FAULT"
	case search.EventFinished:
		return "done"
	}
	return string(k)
}

func renderLines(lines []string) *image1bit.VerticalLSB {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, displayWidth, displayHeight))
	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}
	for i, line := range lines {
		drawer.Dot = fixed.P(0, lineHeight*(i+1))
		drawer.DrawString(line)
	}
	return img
}
