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
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/ZaparooProject/zaparoo-overlay/pkg/config"
)

// UserDir is the name of the portable install directory next to the binary.
const UserDir = "user"

// AppEnv overrides the binary path used to look for a portable user dir.
const AppEnv = "ZAPAROO_OVERLAY_APP"

// Dirs are the directories the service reads and writes.
type Dirs struct {
	Config string
	Data   string
	Temp   string
}

var (
	userDirCache       string
	userDirCacheExists bool
	userDirOnce        sync.Once
)

// HasUserDir checks if a "user" directory exists next to the binary and
// returns its path. The result is cached after the first call.
func HasUserDir() (string, bool) {
	userDirOnce.Do(func() {
		exePath := os.Getenv(AppEnv)
		if exePath == "" {
			var err error
			exePath, err = os.Executable()
			if err != nil {
				return
			}
		}

		userDir := filepath.Join(filepath.Dir(exePath), UserDir)
		info, err := os.Stat(userDir)
		if err != nil || !info.IsDir() {
			return
		}

		userDirCache = userDir
		userDirCacheExists = true
	})

	return userDirCache, userDirCacheExists
}

// DefaultDirs returns the platform directories for the service. A portable
// user dir takes precedence for config and data.
func DefaultDirs() (Dirs, error) {
	temp := filepath.Join(os.TempDir(), config.AppName)
	if v, ok := HasUserDir(); ok {
		return Dirs{Config: v, Data: v, Temp: temp}, nil
	}

	base, err := os.UserConfigDir()
	if err != nil {
		return Dirs{}, fmt.Errorf("failed to get user config dir: %w", err)
	}
	dir := filepath.Join(base, config.AppName)
	return Dirs{Config: dir, Data: dir, Temp: temp}, nil
}

// EnsureDirectories creates every directory in d.
func EnsureDirectories(d Dirs) error {
	for _, dir := range []string{d.Config, d.Data, d.Temp} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// ConfigPath returns the config file path, honouring the config env var.
func (d Dirs) ConfigPath() string {
	if v := os.Getenv(config.CfgEnv); v != "" {
		return v
	}
	return filepath.Join(d.Config, config.CfgFile)
}
