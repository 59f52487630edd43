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

package overlay

import (
	"context"
	"fmt"

	"github.com/ZaparooProject/zaparoo-overlay/pkg/glosi"
	"github.com/rs/zerolog/log"
)

// TargetStore is the helper configuration the variants toggle.
type TargetStore interface {
	Exists(name string) bool
	SetAutoLaunch(name string, enabled bool) (bool, error)
}

// Focuser gives input focus back to whatever the user was looking at after
// the helper window appeared on top.
type Focuser interface {
	Focus() error
}

// FocuserFunc adapts a function to Focuser.
type FocuserFunc func() error

func (f FocuserFunc) Focus() error {
	return f()
}

// ExitFunc is called when an overlay's helper exits without the coordinator
// asking it to.
type ExitFunc func(o *Overlay, exit Exit)

func focus(f Focuser, o *Overlay) {
	if f == nil {
		return
	}
	if err := f.Focus(); err != nil {
		log.Warn().Err(err).Str("overlay", o.Name()).Msg("error restoring focus")
	}
}

// GameHooks run a helper alongside a game the front-end already launched.
// The helper must not launch anything itself.
type GameHooks struct {
	Targets TargetStore
	Focuser Focuser
	OnExit  ExitFunc
}

func (h *GameHooks) BeforeStart(_ context.Context, o *Overlay) error {
	if h.Targets == nil {
		return nil
	}
	if _, err := h.Targets.SetAutoLaunch(o.Name(), false); err != nil {
		return fmt.Errorf("disable auto-launch for %q: %w", o.Name(), err)
	}
	return nil
}

func (h *GameHooks) Started(o *Overlay, proc *glosi.Process) {
	log.Info().Str("overlay", o.Name()).Int("pid", proc.PID()).Msg("game overlay started")
	focus(h.Focuser, o)
}

func (*GameHooks) BeforeClose(o *Overlay) {
	log.Debug().Str("overlay", o.Name()).Msg("closing game overlay")
}

func (h *GameHooks) Closed(o *Overlay, exit Exit) {
	log.Info().
		Str("overlay", o.Name()).
		Int("code", exit.Code).
		Bool("closedByUs", exit.ClosedByUs).
		Msg("game overlay closed")
	if exit.Started && !exit.ClosedByUs && h.OnExit != nil {
		h.OnExit(o, exit)
	}
}

// AppHooks run the helper on top of an already running front-end app. The
// target normally launches the app itself, so auto-launch is switched off
// for the session and restored once the helper exits.
type AppHooks struct {
	Targets TargetStore
	OnExit  ExitFunc
	// Restore is the auto-launch value written back on exit.
	Restore bool
}

func (h *AppHooks) BeforeStart(_ context.Context, o *Overlay) error {
	if h.Targets == nil {
		return nil
	}
	if _, err := h.Targets.SetAutoLaunch(o.Name(), false); err != nil {
		return fmt.Errorf("disable auto-launch for %q: %w", o.Name(), err)
	}
	return nil
}

func (*AppHooks) Started(o *Overlay, proc *glosi.Process) {
	log.Info().Str("overlay", o.Name()).Int("pid", proc.PID()).Msg("app overlay started")
}

func (*AppHooks) BeforeClose(o *Overlay) {
	log.Debug().Str("overlay", o.Name()).Msg("closing app overlay")
}

func (h *AppHooks) Closed(o *Overlay, exit Exit) {
	if h.Targets != nil && exit.StartedByUs {
		if _, err := h.Targets.SetAutoLaunch(o.Name(), h.Restore); err != nil {
			log.Error().Err(err).Str("overlay", o.Name()).Msg("error restoring target auto-launch")
		}
	}
	log.Info().
		Str("overlay", o.Name()).
		Int("code", exit.Code).
		Bool("closedByUs", exit.ClosedByUs).
		Msg("app overlay closed")
	if exit.Started && !exit.ClosedByUs && h.OnExit != nil {
		h.OnExit(o, exit)
	}
}

// DefaultHooks run the fallback overlay shown when nothing specific is
// playing.
type DefaultHooks struct {
	NopHooks
	Focuser Focuser
}

func (h *DefaultHooks) Started(o *Overlay, _ *glosi.Process) {
	focus(h.Focuser, o)
}

func (*DefaultHooks) Closed(o *Overlay, exit Exit) {
	log.Debug().Str("overlay", o.Name()).Int("code", exit.Code).Msg("default overlay closed")
}

// ExternalHooks track a helper someone else started.
type ExternalHooks struct {
	NopHooks
}

func (ExternalHooks) Closed(o *Overlay, exit Exit) {
	log.Info().
		Str("overlay", o.Name()).
		Int("code", exit.Code).
		Bool("closedByUs", exit.ClosedByUs).
		Msg("external overlay closed")
}
