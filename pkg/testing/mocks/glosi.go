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

package mocks

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/ZaparooProject/zaparoo-overlay/pkg/glosi"
)

// ExitHandle is a controllable glosi.ExitHandle. Wait blocks until Exit is
// called or the context is done.
type ExitHandle struct {
	exited chan struct{}
	once   sync.Once
	code   atomic.Int64
	closes atomic.Int32
}

var _ glosi.ExitHandle = (*ExitHandle)(nil)

// NewExitHandle returns a handle for a process that has not exited yet.
func NewExitHandle() *ExitHandle {
	return &ExitHandle{exited: make(chan struct{})}
}

// Exit marks the process as exited with code. Later calls are ignored.
func (h *ExitHandle) Exit(code int) {
	h.once.Do(func() {
		h.code.Store(int64(code))
		close(h.exited)
	})
}

// Exited reports whether Exit was called.
func (h *ExitHandle) Exited() bool {
	select {
	case <-h.exited:
		return true
	default:
		return false
	}
}

// Wait implements glosi.ExitHandle.
func (h *ExitHandle) Wait(ctx context.Context) (int, error) {
	select {
	case <-h.exited:
		return int(h.code.Load()), nil
	case <-ctx.Done():
		return glosi.ExitCodeUnknown, ctx.Err() //nolint:wrapcheck // wrapped by glosi.Process
	}
}

// Close implements glosi.ExitHandle.
func (h *ExitHandle) Close() error {
	h.closes.Add(1)
	return nil
}

// Closes returns how many times Close was called.
func (h *ExitHandle) Closes() int {
	return int(h.closes.Load())
}

// FakeProcess is a helper process known to a FakePlatform.
type FakeProcess struct {
	Handle *ExitHandle
	PID    int
}

// FakePlatform is an in-memory glosi.Platform. Closing the window or
// terminating a process makes the matching fake process exit.
type FakePlatform struct {
	ProcessesErr   error
	FindWindowErr  error
	CloseWindowErr error
	procs          []*FakeProcess
	handed         []*glosi.Process
	mu             sync.Mutex
	windowVisible  bool
	closeCalls     int
	focusCalls     int
	terminateCalls int
	exitOnClose    bool
}

var _ glosi.Platform = (*FakePlatform)(nil)

// NewFakePlatform returns a platform with no running processes. When
// exitOnClose is set, CloseWindow makes every running process exit with 0.
func NewFakePlatform(exitOnClose bool) *FakePlatform {
	return &FakePlatform{exitOnClose: exitOnClose}
}

// Spawn adds a running helper process and shows its window.
func (f *FakePlatform) Spawn(pid int) *FakeProcess {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := &FakeProcess{PID: pid, Handle: NewExitHandle()}
	f.procs = append(f.procs, p)
	f.windowVisible = true
	return p
}

// SetWindowVisible controls whether FindWindow finds the helper window.
func (f *FakePlatform) SetWindowVisible(visible bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.windowVisible = visible
}

// Kill makes the process exit with code.
func (f *FakePlatform) Kill(pid, code int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.killLocked(pid, code)
}

// KillAll makes every running process exit with code.
func (f *FakePlatform) KillAll(code int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range append([]*FakeProcess(nil), f.procs...) {
		f.killLocked(p.PID, code)
	}
}

// Running returns the PIDs of the running processes.
func (f *FakePlatform) Running() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	pids := make([]int, 0, len(f.procs))
	for _, p := range f.procs {
		pids = append(pids, p.PID)
	}
	return pids
}

func (f *FakePlatform) killLocked(pid, code int) {
	kept := f.procs[:0]
	for _, p := range f.procs {
		if p.PID == pid {
			p.Handle.Exit(code)
			continue
		}
		kept = append(kept, p)
	}
	f.procs = kept
	if len(f.procs) == 0 {
		f.windowVisible = false
	}
}

// CloseCalls returns how many times CloseWindow was called.
func (f *FakePlatform) CloseCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closeCalls
}

// FocusCalls returns how many times FocusWindow was called.
func (f *FakePlatform) FocusCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.focusCalls
}

// TerminateCalls returns how many times Terminate was called.
func (f *FakePlatform) TerminateCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.terminateCalls
}

// Handed returns every Process handed out by Processes.
func (f *FakePlatform) Handed() []*glosi.Process {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*glosi.Process(nil), f.handed...)
}

// Processes implements glosi.Platform. Each call hands out fresh Process
// values sharing the fake's exit handles.
func (f *FakePlatform) Processes(string) ([]*glosi.Process, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ProcessesErr != nil {
		return nil, f.ProcessesErr
	}
	out := make([]*glosi.Process, 0, len(f.procs))
	for _, p := range f.procs {
		proc := glosi.NewProcess(p.PID, p.Handle)
		out = append(out, proc)
		f.handed = append(f.handed, proc)
	}
	return out, nil
}

// FindWindow implements glosi.Platform.
func (f *FakePlatform) FindWindow(string, string) (glosi.Window, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FindWindowErr != nil {
		return 0, false, f.FindWindowErr
	}
	return 1, f.windowVisible, nil
}

// CloseWindow implements glosi.Platform.
func (f *FakePlatform) CloseWindow(glosi.Window) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closeCalls++
	if f.CloseWindowErr != nil {
		return f.CloseWindowErr
	}
	if f.exitOnClose {
		for _, p := range append([]*FakeProcess(nil), f.procs...) {
			f.killLocked(p.PID, 0)
		}
	}
	return nil
}

// FocusWindow implements glosi.Platform.
func (f *FakePlatform) FocusWindow(glosi.Window) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.focusCalls++
	return nil
}

// Terminate implements glosi.Platform.
func (f *FakePlatform) Terminate(pid int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.terminateCalls++
	f.killLocked(pid, 0)
	return nil
}
