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
	"sync"
)

// ExitCodeUnknown is reported when the OS cannot tell how a process exited,
// for example because it was not started by this process.
const ExitCodeUnknown = -1

// ErrReleased is returned by Wait on a released Process.
var ErrReleased = errors.New("process handle released")

// ExitHandle is the OS-level handle a Process owns.
type ExitHandle interface {
	// Wait blocks until the process exits and returns its exit code.
	Wait(ctx context.Context) (int, error)
	// Close releases the OS resources of the handle.
	Close() error
}

// Process is an owned reference to a running helper process. Whoever holds
// it must call Release on every path once it is no longer needed.
type Process struct {
	handle     ExitHandle
	releaseErr error
	pid        int
	once       sync.Once
	mu         sync.Mutex
	released   bool
}

// NewProcess wraps an exit handle for the process with the given PID.
func NewProcess(pid int, handle ExitHandle) *Process {
	return &Process{pid: pid, handle: handle}
}

// PID returns the process ID.
func (p *Process) PID() int {
	return p.pid
}

// Wait blocks until the process exits or ctx is done.
func (p *Process) Wait(ctx context.Context) (int, error) {
	p.mu.Lock()
	released := p.released
	p.mu.Unlock()
	if released {
		return ExitCodeUnknown, ErrReleased
	}

	code, err := p.handle.Wait(ctx)
	if err != nil {
		return code, fmt.Errorf("wait for pid %d: %w", p.pid, err)
	}
	return code, nil
}

// Release closes the underlying handle. It is safe to call more than once.
func (p *Process) Release() error {
	p.once.Do(func() {
		p.mu.Lock()
		p.released = true
		p.mu.Unlock()
		if err := p.handle.Close(); err != nil {
			p.releaseErr = fmt.Errorf("%w: release pid %d: %w", ErrPlatform, p.pid, err)
		}
	})
	return p.releaseErr
}

// releaseAll releases every process, keeping the first error.
func releaseAll(procs []*Process) error {
	var first error
	for _, p := range procs {
		if err := p.Release(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
