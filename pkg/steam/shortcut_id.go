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

// Package steam holds the parts of the Steam client the overlay service talks
// to: non-Steam shortcut identities, launching shortcuts through the shell,
// and reading the shortcut database.
package steam

import "strconv"

const (
	// shortcutIDLow is OR'd into the low word of every shortcut game ID.
	shortcutIDLow = 0x02000000
	// shortcutAppIDBit is always set on the 32-bit shortcut app ID.
	shortcutAppIDBit = 0x80000000
)

// ShortcutAppID returns the 32-bit app ID Steam stores in shortcuts.vdf for a
// non-Steam shortcut called name whose target is exePath.
func ShortcutAppID(name, exePath string) uint32 {
	input := []byte(`"` + exePath + `"` + name)
	return uint32(CRC32.Checksum(input)) | shortcutAppIDBit //nolint:gosec // CRC32 is 32 bits wide
}

// ShortcutID returns the 64-bit game ID used to launch a non-Steam shortcut
// ("Big Picture ID"). Two overlays refer to the same shortcut exactly when
// their IDs match.
func ShortcutID(name, exePath string) uint64 {
	return GameIDFromAppID(ShortcutAppID(name, exePath))
}

// GameIDFromAppID converts a shortcut app ID from shortcuts.vdf into the
// 64-bit launch ID.
func GameIDFromAppID(appID uint32) uint64 {
	return uint64(appID)<<32 | shortcutIDLow
}

// AppIDFromGameID is the inverse of GameIDFromAppID.
func AppIDFromGameID(id uint64) uint32 {
	return uint32(id >> 32) //nolint:gosec // high word only
}

// RunGameURL builds the shell URL that launches a game or shortcut.
func RunGameURL(id uint64) string {
	return "steam://rungameid/" + strconv.FormatUint(id, 10)
}
