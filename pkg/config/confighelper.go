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
	"github.com/ZaparooProject/zaparoo-overlay/pkg/glosi"
)

type Helper struct {
	LivePort    *int   `toml:"live_port,omitempty"`
	InstallDir  string `toml:"install_dir,omitempty"`
	TargetsDir  string `toml:"targets_dir,omitempty"`
	Version     string `toml:"version,omitempty"`
	ProcessName string `toml:"process_name,omitempty"`
	WindowClass string `toml:"window_class,omitempty"`
	WindowTitle string `toml:"window_title,omitempty"`
}

// HelperPaths returns the helper install and targets directories, falling
// back to the platform defaults.
func (c *Instance) HelperPaths() glosi.Paths {
	c.mu.RLock()
	defer c.mu.RUnlock()
	paths := glosi.Paths{
		InstallDir: c.vals.Helper.InstallDir,
		TargetsDir: c.vals.Helper.TargetsDir,
	}
	if paths.InstallDir == "" {
		paths.InstallDir = glosi.DefaultInstallDir()
	}
	if paths.TargetsDir == "" {
		paths.TargetsDir = glosi.DefaultTargetsDir()
	}
	return paths
}

func (c *Instance) SetHelperInstallDir(dir string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Helper.InstallDir = dir
}

// HelperVersion returns the configured helper version override. Empty means
// detect it from the executable.
func (c *Instance) HelperVersion() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Helper.Version
}

func (c *Instance) HelperLivePort() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.Helper.LivePort == nil {
		return glosi.DefaultLivePort
	}
	return *c.vals.Helper.LivePort
}

// HelperProbeOptions returns the probe overrides set in the config.
func (c *Instance) HelperProbeOptions() []glosi.ProbeOption {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return []glosi.ProbeOption{
		glosi.WithProcessName(c.vals.Helper.ProcessName),
		glosi.WithWindow(c.vals.Helper.WindowClass, c.vals.Helper.WindowTitle),
	}
}
