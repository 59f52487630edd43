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

package steam

import (
	"os"

	"github.com/rs/zerolog/log"
)

// FindSteamDir returns the Steam installation directory. A configured
// directory wins when it exists; otherwise platform detection is used.
// Returns an empty string when Steam cannot be found.
func FindSteamDir(configured string) string {
	if configured != "" {
		if _, err := os.Stat(configured); err == nil {
			return configured
		}
		log.Warn().Str("path", configured).Msg("configured Steam directory not found")
	}

	for _, path := range candidateSteamDirs() {
		if _, err := os.Stat(path); err == nil {
			log.Debug().Str("path", path).Msg("found Steam installation")
			return path
		}
	}
	return ""
}
