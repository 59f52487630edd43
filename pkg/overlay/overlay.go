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

// Package overlay coordinates the single Steam overlay helper process.
//
// An Overlay is a request to have the helper running with a specific
// shortcut. The Coordinator owns the one process slot: it serializes switch
// and close requests, adopts helper instances started by someone else, and
// calls each overlay's lifecycle hooks in order as the process starts and
// exits.
package overlay

import (
	"context"
	"errors"

	"github.com/ZaparooProject/zaparoo-overlay/pkg/glosi"
	"github.com/ZaparooProject/zaparoo-overlay/pkg/helpers/syncutil"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var (
	// ErrNotRunnable is returned when an overlay's helper configuration is
	// missing or its shortcut is not registered.
	ErrNotRunnable = errors.New("overlay is not runnable")
	// ErrUnknownKind is returned by the factory for unrecognised kinds.
	ErrUnknownKind = errors.New("unknown overlay kind")
)

// Kind names an overlay variant.
type Kind string

const (
	KindGame     Kind = "game"
	KindApp      Kind = "app"
	KindDefault  Kind = "default"
	KindExternal Kind = "external"
)

// LaunchPolicy describes what the helper should launch by itself while the
// overlay runs.
type LaunchPolicy struct {
	Path        string `json:"path,omitempty"`
	Args        string `json:"args,omitempty"`
	AutoLaunch  bool   `json:"autoLaunch"`
	CloseOnExit bool   `json:"closeOnExit"`
}

// Exit describes how an overlay's helper process ended.
type Exit struct {
	// Code is the process exit code, or glosi.ExitCodeUnknown.
	Code int `json:"code"`
	// ClosedByUs is true when the coordinator asked the process to close.
	ClosedByUs bool `json:"closedByUs"`
	// StartedByUs is false for adopted instances.
	StartedByUs bool `json:"startedByUs"`
	// Started is false when the start failed and the process never ran
	// under this overlay.
	Started bool `json:"started"`
}

// Hooks are the variant-specific reactions to lifecycle points. Recording
// the process, setting the closed-by-us flag and releasing the handle are
// done by Overlay before the hooks run.
type Hooks interface {
	// BeforeStart runs before the helper is launched. An error aborts the
	// start.
	BeforeStart(ctx context.Context, o *Overlay) error
	// Started runs once the process is known and its window confirmed or
	// waited for.
	Started(o *Overlay, proc *glosi.Process)
	// BeforeClose runs just before the coordinator asks the helper to close.
	BeforeClose(o *Overlay)
	// Closed runs exactly once after the process has exited.
	Closed(o *Overlay, exit Exit)
}

// State is the process ownership record of one overlay.
type State struct {
	Process     *glosi.Process
	StartedByUs bool
	ClosedByUs  bool
}

// Snapshot is a read-only view of an overlay.
type Snapshot struct {
	InstanceID  string       `json:"instanceId"`
	Name        string       `json:"name"`
	Kind        Kind         `json:"kind"`
	Phase       string       `json:"phase"`
	Policy      LaunchPolicy `json:"policy"`
	ID          uint64       `json:"id,string"`
	PID         int          `json:"pid,omitempty"`
	StartedByUs bool         `json:"startedByUs"`
	ClosedByUs  bool         `json:"closedByUs"`
}

// Overlay is one request to run the helper with a given shortcut. Its name
// and identity are fixed; its state is owned by the Coordinator once offered.
type Overlay struct {
	hooks      Hooks
	policy     LaunchPolicy
	name       string
	kind       Kind
	state      State
	id         uint64
	instanceID uuid.UUID
	phase      Phase
	mu         syncutil.Mutex
}

// New creates an overlay. Most callers use a Factory instead.
func New(kind Kind, name string, id uint64, hooks Hooks, policy LaunchPolicy) *Overlay {
	if hooks == nil {
		hooks = NopHooks{}
	}
	return &Overlay{
		hooks:      hooks,
		policy:     policy,
		name:       name,
		kind:       kind,
		id:         id,
		instanceID: uuid.New(),
	}
}

// Name returns the helper target name.
func (o *Overlay) Name() string {
	return o.name
}

// ID returns the shortcut identity. Overlays with equal IDs are the same
// shortcut.
func (o *Overlay) ID() uint64 {
	return o.id
}

// Kind returns the overlay variant.
func (o *Overlay) Kind() Kind {
	return o.kind
}

// InstanceID uniquely identifies this overlay value.
func (o *Overlay) InstanceID() uuid.UUID {
	return o.instanceID
}

// Policy returns the launch policy of the overlay.
func (o *Overlay) Policy() LaunchPolicy {
	return o.policy
}

// Phase returns the current lifecycle phase.
func (o *Overlay) Phase() Phase {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.phase
}

// State returns a copy of the ownership record.
func (o *Overlay) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Snapshot returns a read-only view of the overlay.
func (o *Overlay) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	s := Snapshot{
		InstanceID:  o.instanceID.String(),
		Name:        o.name,
		Kind:        o.kind,
		Phase:       o.phase.String(),
		Policy:      o.policy,
		ID:          o.id,
		StartedByUs: o.state.StartedByUs,
		ClosedByUs:  o.state.ClosedByUs,
	}
	if o.state.Process != nil {
		s.PID = o.state.Process.PID()
	}
	return s
}

func (o *Overlay) beforeStart(ctx context.Context) error {
	o.mu.Lock()
	o.setPhaseLocked(PhaseStarting)
	o.state.StartedByUs = true
	o.state.ClosedByUs = false
	o.mu.Unlock()

	return o.hooks.BeforeStart(ctx, o)
}

func (o *Overlay) started(proc *glosi.Process) {
	o.mu.Lock()
	o.state.Process = proc
	o.setPhaseLocked(PhaseRunning)
	o.mu.Unlock()

	o.hooks.Started(o, proc)
}

// adopt takes ownership of a process this service did not start. Only the
// Closed hook will run for it.
func (o *Overlay) adopt(proc *glosi.Process) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.state = State{Process: proc}
	o.setPhaseLocked(PhaseRunning)
}

func (o *Overlay) beforeClose() {
	o.mu.Lock()
	o.state.ClosedByUs = true
	o.setPhaseLocked(PhaseClosing)
	o.mu.Unlock()

	o.hooks.BeforeClose(o)
}

// closed releases the process handle and runs the Closed hook. Only the
// first call has any effect.
func (o *Overlay) closed(code int, started bool) (Exit, bool) {
	o.mu.Lock()
	if o.phase == PhaseClosed {
		o.mu.Unlock()
		return Exit{}, false
	}
	proc := o.state.Process
	exit := Exit{
		Code:        code,
		ClosedByUs:  o.state.ClosedByUs,
		StartedByUs: o.state.StartedByUs,
		Started:     started,
	}
	o.state.Process = nil
	o.setPhaseLocked(PhaseClosed)
	o.mu.Unlock()

	if proc != nil {
		if err := proc.Release(); err != nil {
			log.Warn().Err(err).Str("overlay", o.name).Msg("error releasing helper process")
		}
	}
	o.hooks.Closed(o, exit)
	return exit, true
}

// dropProcess forgets the process handle without releasing it. The exit
// watcher that shares the handle releases it.
func (o *Overlay) dropProcess() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.state.Process = nil
}

// transfer moves the process handle from src to dst in one critical
// section. src is left inert.
func transfer(dst, src *Overlay) {
	first, second := dst, src
	if second.instanceID.String() < first.instanceID.String() {
		first, second = second, first
	}
	first.mu.Lock()
	defer first.mu.Unlock()
	second.mu.Lock()
	defer second.mu.Unlock()

	dst.state = State{
		Process:     src.state.Process,
		StartedByUs: src.state.StartedByUs,
	}
	dst.setPhaseLocked(PhaseRunning)
	src.state = State{}
	src.setPhaseLocked(PhaseClosed)
}

// NopHooks implements Hooks with no reactions. Embed it to override only
// some of the hooks.
type NopHooks struct{}

func (NopHooks) BeforeStart(context.Context, *Overlay) error { return nil }
func (NopHooks) Started(*Overlay, *glosi.Process)            {}
func (NopHooks) BeforeClose(*Overlay)                        {}
func (NopHooks) Closed(*Overlay, Exit)                       {}
