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
	"errors"
	"fmt"

	"github.com/ZaparooProject/zaparoo-overlay/pkg/glosi"
	"github.com/ZaparooProject/zaparoo-overlay/pkg/steam"
	"github.com/rs/zerolog/log"
)

// FactoryOptions configures a Factory.
type FactoryOptions struct {
	Targets     TargetStore
	Focuser     Focuser
	OnExit      ExitFunc
	Paths       glosi.Paths
	AppName     string
	AppPath     string
	DefaultName string
	// SteamDir enables the shortcut registration check when set.
	SteamDir string
}

// Factory creates overlays whose identities are computed from the
// configured helper executable, and decides whether they can run.
type Factory struct {
	opts FactoryOptions
	exe  string
}

// NewFactory creates a Factory.
func NewFactory(opts FactoryOptions) *Factory {
	return &Factory{opts: opts, exe: opts.Paths.TargetExe()}
}

// Identity returns the shortcut identity of a target name.
func (f *Factory) Identity(name string) uint64 {
	return steam.ShortcutID(name, f.exe)
}

// New creates an overlay of the given kind. An empty name selects the
// configured app or default target.
func (f *Factory) New(kind Kind, name string) (*Overlay, error) {
	switch kind {
	case KindGame:
		if name == "" {
			return nil, errors.New("game overlay needs a target name")
		}
		return f.Game(name), nil
	case KindApp:
		return f.App(name), nil
	case KindDefault:
		return f.Default(name), nil
	case KindExternal:
		return f.External(name), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

// Game creates an overlay for a game launched by the front-end.
func (f *Factory) Game(name string) *Overlay {
	hooks := &GameHooks{Targets: f.opts.Targets, Focuser: f.opts.Focuser, OnExit: f.opts.OnExit}
	return New(KindGame, name, f.Identity(name), hooks, LaunchPolicy{})
}

// App creates an overlay for the front-end app itself.
func (f *Factory) App(name string) *Overlay {
	if name == "" {
		name = f.opts.AppName
	}
	hooks := &AppHooks{Targets: f.opts.Targets, OnExit: f.opts.OnExit, Restore: true}
	policy := LaunchPolicy{Path: f.opts.AppPath, AutoLaunch: true, CloseOnExit: true}
	return New(KindApp, name, f.Identity(name), hooks, policy)
}

// Default creates the fallback overlay.
func (f *Factory) Default(name string) *Overlay {
	if name == "" {
		name = f.opts.DefaultName
	}
	hooks := &DefaultHooks{Focuser: f.opts.Focuser}
	return New(KindDefault, name, f.Identity(name), hooks, LaunchPolicy{})
}

// External creates an overlay standing for a helper instance someone else
// started with the named target.
func (f *Factory) External(name string) *Overlay {
	return New(KindExternal, name, f.Identity(name), ExternalHooks{}, LaunchPolicy{})
}

// Runnable checks that the helper has a configuration for the overlay and,
// when a Steam directory is configured, that its shortcut is registered.
func (f *Factory) Runnable(o *Overlay) error {
	if o.Name() == "" {
		return fmt.Errorf("%w: empty target name", ErrNotRunnable)
	}
	if f.opts.Targets != nil && !f.opts.Targets.Exists(o.Name()) {
		return fmt.Errorf("%w: no helper configuration for %q", ErrNotRunnable, o.Name())
	}
	if f.opts.SteamDir == "" {
		return nil
	}

	_, err := steam.FindShortcut(f.opts.SteamDir, steam.AppIDFromGameID(o.ID()))
	switch {
	case errors.Is(err, steam.ErrShortcutNotFound):
		return fmt.Errorf("%w: %q is not registered in Steam", ErrNotRunnable, o.Name())
	case err != nil:
		log.Warn().Err(err).Str("overlay", o.Name()).Msg("could not check Steam shortcuts")
	}
	return nil
}
