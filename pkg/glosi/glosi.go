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

// Package glosi integrates with GlosSI, the helper that wraps a session in a
// Steam shortcut so the Steam overlay and Steam Input work on top of it.
//
// It covers everything the overlay coordinator needs to know about the
// helper without owning its lifecycle: finding and closing the running
// GlosSITarget process, reading and toggling target configuration files,
// querying a running instance for its effective settings, and deciding
// whether the installed version replaces old instances on its own.
package glosi

import (
	"errors"
	"time"
)

const (
	// ProcessName is the executable name of the helper process.
	ProcessName = "GlosSITarget.exe"
	// TargetExeName is the helper executable shortcuts point at.
	TargetExeName = "GlosSITarget.exe"
	// WindowClass and WindowTitle identify the helper's overlay window.
	WindowClass = "SFML_Window"
	WindowTitle = "GlosSITarget"
	// DefaultLivePort is the port of the helper's local HTTP endpoint.
	DefaultLivePort = 8756
)

const (
	// ProcessPollInterval is the delay between process lookups.
	ProcessPollInterval = 300 * time.Millisecond
	// WindowPollInterval is the delay between window lookups.
	WindowPollInterval = 50 * time.Millisecond
)

var (
	// ErrTimeout is returned when a bounded wait for the helper elapses.
	ErrTimeout = errors.New("timed out waiting for helper")
	// ErrPlatform wraps failures of the OS process/window layer.
	ErrPlatform = errors.New("platform error")
	// ErrUnsupported is returned by platform operations that are not
	// available on the current OS.
	ErrUnsupported = errors.New("not supported on this platform")
	// ErrTargetNotFound is returned when a target configuration file is missing.
	ErrTargetNotFound = errors.New("target configuration not found")
)
