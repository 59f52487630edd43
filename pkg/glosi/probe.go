// Zaparoo Overlay
// Copyright (c) 2026 The Zaparoo Project Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of Zaparoo Overlay.
//
// Zaparoo Overlay is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Zaparoo Overlay is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Zaparoo Overlay.  If not, see <http://www.gnu.org/licenses/>.

package glosi

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// Probe finds, waits for and closes the helper process regardless of who
// started it. All methods are safe for concurrent use.
type Probe struct {
	platform    Platform
	clock       clockwork.Clock
	version     *semver.Version
	processName string
	windowClass string
	windowTitle string
	processPoll time.Duration
	windowPoll  time.Duration
}

// ProbeOption configures a Probe.
type ProbeOption func(*Probe)

// WithClock sets the clock used for polling (for testing).
func WithClock(c clockwork.Clock) ProbeOption {
	return func(p *Probe) {
		p.clock = c
	}
}

// WithVersion sets the installed helper version.
func WithVersion(v *semver.Version) ProbeOption {
	return func(p *Probe) {
		p.version = v
	}
}

// WithProcessName overrides the helper process name.
func WithProcessName(name string) ProbeOption {
	return func(p *Probe) {
		if name != "" {
			p.processName = name
		}
	}
}

// WithWindow overrides the helper window class and title.
func WithWindow(class, title string) ProbeOption {
	return func(p *Probe) {
		if class != "" {
			p.windowClass = class
		}
		if title != "" {
			p.windowTitle = title
		}
	}
}

// WithPollIntervals overrides the process and window polling intervals.
func WithPollIntervals(process, window time.Duration) ProbeOption {
	return func(p *Probe) {
		if process > 0 {
			p.processPoll = process
		}
		if window > 0 {
			p.windowPoll = window
		}
	}
}

// NewProbe creates a Probe on top of platform.
func NewProbe(platform Platform, opts ...ProbeOption) *Probe {
	p := &Probe{
		platform:    platform,
		clock:       clockwork.NewRealClock(),
		processName: ProcessName,
		windowClass: WindowClass,
		windowTitle: WindowTitle,
		processPoll: ProcessPollInterval,
		windowPoll:  WindowPollInterval,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Version returns the helper version the probe was configured with, or nil.
func (p *Probe) Version() *semver.Version {
	return p.version
}

// ReplacesOldAutomatically reports whether launching a new helper instance
// terminates the running one without help.
func (p *Probe) ReplacesOldAutomatically() bool {
	return ReplacesOldAutomatically(p.version)
}

// FindRunning returns the running helper process, or nil when there is none.
// Extra instances are released and logged.
func (p *Probe) FindRunning() (*Process, error) {
	return p.findRunningExcept(0)
}

func (p *Probe) findRunningExcept(excludePID int) (*Process, error) {
	procs, err := p.platform.Processes(p.processName)
	if err != nil {
		return nil, err //nolint:wrapcheck // platform errors already wrap ErrPlatform
	}

	candidates := procs[:0]
	for _, proc := range procs {
		if excludePID != 0 && proc.PID() == excludePID {
			_ = proc.Release()
			continue
		}
		candidates = append(candidates, proc)
	}

	switch len(candidates) {
	case 0:
		return nil, nil //nolint:nilnil // no helper running
	case 1:
		return candidates[0], nil
	}

	pids := make([]int, 0, len(candidates))
	for _, proc := range candidates {
		pids = append(pids, proc.PID())
	}
	log.Warn().Ints("pids", pids).Msg("multiple helper processes running, using the first")
	if err := releaseAll(candidates[1:]); err != nil {
		log.Warn().Err(err).Msg("error releasing extra helper processes")
	}
	return candidates[0], nil
}

// WaitForProcessStart polls until a helper process other than excludePID is
// running. Pass 0 to accept any instance.
func (p *Probe) WaitForProcessStart(
	ctx context.Context,
	timeout time.Duration,
	excludePID int,
) (*Process, error) {
	deadline := p.clock.Now().Add(timeout)
	for {
		proc, err := p.findRunningExcept(excludePID)
		if err != nil {
			log.Debug().Err(err).Msg("error polling for helper process")
		} else if proc != nil {
			return proc, nil
		}

		if !p.clock.Now().Before(deadline) {
			return nil, fmt.Errorf("%w: process did not start within %s", ErrTimeout, timeout)
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("waiting for helper process: %w", ctx.Err())
		case <-p.clock.After(p.processPoll):
		}
	}
}

// WaitForWindowStart polls until the helper window exists. On platforms
// without native window lookup it returns immediately.
func (p *Probe) WaitForWindowStart(ctx context.Context, timeout time.Duration) error {
	deadline := p.clock.Now().Add(timeout)
	for {
		_, ok, err := p.platform.FindWindow(p.windowClass, p.windowTitle)
		if errors.Is(err, ErrUnsupported) {
			return nil
		} else if err != nil {
			log.Debug().Err(err).Msg("error polling for helper window")
		} else if ok {
			return nil
		}

		if !p.clock.Now().Before(deadline) {
			return fmt.Errorf("%w: window did not appear within %s", ErrTimeout, timeout)
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for helper window: %w", ctx.Err())
		case <-p.clock.After(p.windowPoll):
		}
	}
}

// Close asks the helper to close through its window. A missing window is
// logged and ignored; the caller decides whether to retry.
func (p *Probe) Close() error {
	w, ok, err := p.platform.FindWindow(p.windowClass, p.windowTitle)
	if errors.Is(err, ErrUnsupported) {
		return p.terminateRunning()
	} else if err != nil {
		return err //nolint:wrapcheck // platform errors already wrap ErrPlatform
	}
	if !ok {
		log.Info().Msg("helper window not found, nothing to close")
		return nil
	}

	log.Debug().Msg("requesting helper window close")
	return p.platform.CloseWindow(w) //nolint:wrapcheck // platform errors already wrap ErrPlatform
}

func (p *Probe) terminateRunning() error {
	proc, err := p.FindRunning()
	if err != nil {
		return err
	}
	if proc == nil {
		log.Info().Msg("helper process not found, nothing to close")
		return nil
	}
	defer func() { _ = proc.Release() }()

	log.Debug().Int("pid", proc.PID()).Msg("requesting helper process exit")
	return p.platform.Terminate(proc.PID()) //nolint:wrapcheck // platform errors already wrap ErrPlatform
}
