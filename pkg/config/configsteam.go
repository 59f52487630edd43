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

import "github.com/ZaparooProject/zaparoo-overlay/pkg/steam"

type Steam struct {
	InstallDir     string `toml:"install_dir,omitempty"`
	CheckShortcuts bool   `toml:"check_shortcuts"`
	UseSteamBinary bool   `toml:"use_steam_binary"`
}

// ShortcutCheckDir returns the Steam directory used to check that overlay
// shortcuts are registered, or "" when the check is off or Steam was not
// found.
func (c *Instance) ShortcutCheckDir() string {
	c.mu.RLock()
	check := c.vals.Steam.CheckShortcuts
	dir := c.vals.Steam.InstallDir
	c.mu.RUnlock()
	if !check {
		return ""
	}
	return steam.FindSteamDir(dir)
}

func (c *Instance) SetCheckShortcuts(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Steam.CheckShortcuts = enabled
}

// LauncherOptions returns how shortcuts are launched through the shell.
func (c *Instance) LauncherOptions() steam.Options {
	c.mu.RLock()
	defer c.mu.RUnlock()
	opts := steam.DefaultOptions()
	if c.vals.Steam.UseSteamBinary {
		opts.UseXdgOpen = false
	}
	return opts
}
