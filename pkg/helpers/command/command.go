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

// Package command spawns the short-lived shell processes the overlay
// service uses to hand steam:// URLs to the OS, and lets tests fake them.
package command

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// ErrExited is returned when a command fails within its exit grace period.
var ErrExited = errors.New("command exited with an error")

// Cmd describes a process to spawn.
type Cmd struct {
	Name string
	Args []string
	// ExitGrace is how long Start watches the process after spawning it. A
	// failing exit inside that window is reported as ErrExited. Zero returns
	// as soon as the process has started.
	ExitGrace time.Duration
	// HideWindow keeps a console window from flashing up. Windows only.
	HideWindow bool
}

func (c Cmd) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// Executor spawns commands.
type Executor interface {
	Start(ctx context.Context, c Cmd) error
}

// RealExecutor runs commands with os/exec.
type RealExecutor struct{}

var _ Executor = (*RealExecutor)(nil)

// Start spawns c and reaps it in the background. The process is not tied to
// ctx: shell launchers hand off to Steam and must survive a cancelled
// request. ctx only cuts the exit grace wait short.
func (*RealExecutor) Start(ctx context.Context, c Cmd) error {
	cmd := exec.Command(c.Name, c.Args...) //nolint:gosec,noctx // launch targets come from config
	applyOptions(cmd, c)

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", c.Name, err)
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	if c.ExitGrace <= 0 {
		return nil
	}

	timer := time.NewTimer(c.ExitGrace)
	defer timer.Stop()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrExited, c, err)
		}
		return nil
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return nil
	}
}
