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
	"os"
	"path/filepath"
	"strings"
)

// Paths locates an installed helper and its target configurations.
type Paths struct {
	// InstallDir contains GlosSITarget.exe.
	InstallDir string
	// TargetsDir contains one JSON file per target.
	TargetsDir string
}

// TargetExe returns the full path of the helper executable. Shortcut
// identities are computed from this exact string.
func (p Paths) TargetExe() string {
	return filepath.Join(p.InstallDir, TargetExeName)
}

// DefaultTargetsDir returns %APPDATA%/GlosSI/Targets (or the platform's
// user config directory equivalent).
func DefaultTargetsDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join("GlosSI", "Targets")
	}
	return filepath.Join(dir, "GlosSI", "Targets")
}

// DefaultInstallDir returns the helper's default installation directory.
func DefaultInstallDir() string {
	if pf := os.Getenv("ProgramFiles"); pf != "" {
		return filepath.Join(pf, "GlosSI")
	}
	return filepath.Join(string(filepath.Separator), "opt", "glosi")
}

var invalidFileChars = strings.NewReplacer(
	`\`, "", "/", "", ":", "", "*", "", "?", "", `"`, "", "<", "", ">", "", "|", "",
)

// TargetFileName returns the file name the helper uses for a target name.
func TargetFileName(name string) string {
	return invalidFileChars.Replace(name) + ".json"
}
