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

package helpers

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shirou/gopsutil/v4/process"
)

// PidFileName is the name of the service PID file in the temp dir.
const PidFileName = "overlay.pid"

// ErrAlreadyRunning is returned when another service instance holds the
// PID file.
var ErrAlreadyRunning = errors.New("service already running")

// PidFile guards against two service instances fighting over the helper.
type PidFile struct {
	path string
}

func NewPidFile(dir string) *PidFile {
	return &PidFile{path: filepath.Join(dir, PidFileName)}
}

func (p *PidFile) Path() string {
	return p.path
}

// Pid returns the PID recorded in the file, or 0 if there is none.
func (p *PidFile) Pid() (int, error) {
	//nolint:gosec // Safe: reads the service's own PID file
	data, err := os.ReadFile(p.path)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	} else if err != nil {
		return 0, fmt.Errorf("error reading pid file: %w", err)
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("error parsing pid: %w", err)
	}
	return pid, nil
}

// Running returns true if the recorded PID belongs to a live process other
// than this one.
func (p *PidFile) Running() bool {
	pid, err := p.Pid()
	if err != nil || pid == 0 || pid == os.Getpid() {
		return false
	}
	exists, err := process.PidExists(int32(pid)) //nolint:gosec // PIDs fit in int32
	return err == nil && exists
}

// Create writes the current PID, failing if another instance is running.
// A stale file is overwritten.
func (p *PidFile) Create() error {
	if p.Running() {
		return ErrAlreadyRunning
	}
	if err := os.MkdirAll(filepath.Dir(p.path), 0o750); err != nil {
		return fmt.Errorf("failed to create pid directory: %w", err)
	}
	err := os.WriteFile(p.path, []byte(strconv.Itoa(os.Getpid())), 0o600)
	if err != nil {
		return fmt.Errorf("failed to write PID file: %w", err)
	}
	return nil
}

func (p *PidFile) Remove() error {
	err := os.Remove(p.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove PID file: %w", err)
	}
	return nil
}
