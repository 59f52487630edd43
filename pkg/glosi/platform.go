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
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v4/process"
)

// Window is an opaque native window handle.
type Window uintptr

// Platform is the OS process and window layer the Probe is built on.
type Platform interface {
	// Processes returns an owned Process for every running process called name.
	Processes(name string) ([]*Process, error)
	// FindWindow looks up a top-level window by class and title.
	FindWindow(class, title string) (Window, bool, error)
	// CloseWindow politely asks a window to close.
	CloseWindow(w Window) error
	// FocusWindow brings a window to the foreground.
	FocusWindow(w Window) error
	// Terminate politely asks a process to exit. Used where there are no
	// native windows to close.
	Terminate(pid int) error
}

// NewPlatform returns the Platform of the running OS.
func NewPlatform() Platform {
	return &osPlatform{}
}

type osPlatform struct{}

func (*osPlatform) Processes(name string) ([]*Process, error) {
	procs, err := process.Processes()
	if err != nil {
		return nil, fmt.Errorf("%w: list processes: %w", ErrPlatform, err)
	}

	var found []*Process
	for _, p := range procs {
		pname, err := p.Name()
		if err != nil || !matchesProcessName(pname, name) {
			continue
		}
		pid := int(p.Pid)
		handle, err := openExitHandle(pid)
		if err != nil {
			log.Debug().Err(err).Int("pid", pid).Msg("skipping helper process")
			continue
		}
		found = append(found, NewProcess(pid, handle))
	}
	return found, nil
}

func (*osPlatform) FindWindow(class, title string) (Window, bool, error) {
	return findWindow(class, title)
}

func (*osPlatform) CloseWindow(w Window) error {
	return closeWindow(w)
}

func (*osPlatform) FocusWindow(w Window) error {
	return focusWindow(w)
}

func (*osPlatform) Terminate(pid int) error {
	p, err := process.NewProcess(int32(pid)) //nolint:gosec // PIDs fit in int32
	if err != nil {
		return fmt.Errorf("%w: find process %d: %w", ErrPlatform, pid, err)
	}
	if err := p.Terminate(); err != nil {
		return fmt.Errorf("%w: terminate process %d: %w", ErrPlatform, pid, err)
	}
	return nil
}

// matchesProcessName compares process names case-insensitively. Outside
// Windows the ".exe" suffix may be missing and Linux truncates comm to 15
// characters.
func matchesProcessName(actual, want string) bool {
	if actual == "" {
		return false
	}
	if strings.EqualFold(actual, want) {
		return true
	}
	bare := strings.TrimSuffix(strings.ToLower(want), ".exe")
	lower := strings.ToLower(actual)
	if lower == bare {
		return true
	}
	return len(lower) == 15 && strings.HasPrefix(strings.ToLower(want), lower)
}
