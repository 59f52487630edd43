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

package config

import (
	"time"

	"github.com/ZaparooProject/zaparoo-overlay/pkg/overlay"
)

type Overlay struct {
	ProcessStartTimeoutMs *int   `toml:"process_start_timeout_ms,omitempty"`
	WindowStartTimeoutMs  *int   `toml:"window_start_timeout_ms,omitempty"`
	CloseTimeoutMs        *int   `toml:"close_timeout_ms,omitempty"`
	DefaultName           string `toml:"default_name"`
	AppName               string `toml:"app_name"`
	AppPath               string `toml:"app_path,omitempty"`
	FocusWindowClass      string `toml:"focus_window_class,omitempty"`
	FocusWindowTitle      string `toml:"focus_window_title,omitempty"`
	CloseUnrelatedOnClose bool   `toml:"close_unrelated_on_close"`
}

func millis(v *int, def time.Duration) time.Duration {
	if v == nil || *v <= 0 {
		return def
	}
	return time.Duration(*v) * time.Millisecond
}

// CoordinatorOptions returns the coordinator timeouts and close policy.
func (c *Instance) CoordinatorOptions() overlay.Options {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return overlay.Options{
		ProcessStartTimeout:   millis(c.vals.Overlay.ProcessStartTimeoutMs, overlay.DefaultProcessStartTimeout),
		WindowStartTimeout:    millis(c.vals.Overlay.WindowStartTimeoutMs, overlay.DefaultWindowStartTimeout),
		CloseTimeout:          millis(c.vals.Overlay.CloseTimeoutMs, overlay.DefaultCloseTimeout),
		CloseUnrelatedOnClose: c.vals.Overlay.CloseUnrelatedOnClose,
	}
}

func (c *Instance) SetCloseUnrelatedOnClose(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Overlay.CloseUnrelatedOnClose = enabled
}

func (c *Instance) OverlayDefaultName() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Overlay.DefaultName
}

func (c *Instance) OverlayAppName() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Overlay.AppName
}

func (c *Instance) OverlayAppPath() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Overlay.AppPath
}

// OverlayFocusWindow returns the window focused after an overlay starts.
// ok is false when no window is configured.
func (c *Instance) OverlayFocusWindow() (class, title string, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	class, title = c.vals.Overlay.FocusWindowClass, c.vals.Overlay.FocusWindowTitle
	return class, title, class != "" || title != ""
}
