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
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/ZaparooProject/zaparoo-overlay/internal/vdfbinary"
	"github.com/andygrunwald/vdf"
	"github.com/rs/zerolog/log"
)

// steamID64Base converts between 64-bit Steam IDs and the 32-bit account
// IDs used as userdata directory names.
const steamID64Base = 76561197960265728

// ErrShortcutNotFound is returned when no user has a shortcut with the
// requested app ID.
var ErrShortcutNotFound = errors.New("shortcut not registered in Steam")

// MostRecentUser returns the account ID of the user flagged MostRecent in
// config/loginusers.vdf.
func MostRecentUser(steamDir string) (uint32, bool) {
	path := filepath.Join(steamDir, "config", "loginusers.vdf")
	f, err := os.Open(path) //nolint:gosec // Steam config file
	if err != nil {
		log.Debug().Err(err).Msg("failed to open loginusers.vdf")
		return 0, false
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("error closing loginusers.vdf")
		}
	}()

	m, err := vdf.NewParser(f).Parse()
	if err != nil {
		log.Warn().Err(err).Msg("failed to parse loginusers.vdf")
		return 0, false
	}

	users, ok := normalizeVDFKeys(m)["users"].(map[string]any)
	if !ok {
		return 0, false
	}

	for steamID, v := range users {
		user, ok := v.(map[string]any)
		if !ok {
			continue
		}
		if recent, _ := user["mostrecent"].(string); recent != "1" {
			continue
		}
		id64, err := strconv.ParseUint(steamID, 10, 64)
		if err != nil || id64 < steamID64Base {
			continue
		}
		return uint32(id64 - steamID64Base), true //nolint:gosec // account IDs are 32-bit
	}
	return 0, false
}

// shortcutFiles lists every userdata/*/config/shortcuts.vdf, most recent
// user first.
func shortcutFiles(steamDir string) ([]string, error) {
	userdataDir := filepath.Join(steamDir, "userdata")
	entries, err := os.ReadDir(userdataDir)
	if err != nil {
		return nil, fmt.Errorf("read userdata directory: %w", err)
	}

	recent, hasRecent := MostRecentUser(steamDir)
	recentName := strconv.FormatUint(uint64(recent), 10)

	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		path := filepath.Join(userdataDir, e.Name(), "config", "shortcuts.vdf")
		if hasRecent && e.Name() == recentName {
			files = append([]string{path}, files...)
			continue
		}
		files = append(files, path)
	}
	return files, nil
}

// FindShortcut looks up a non-Steam shortcut by its 32-bit app ID across all
// users' shortcut databases.
func FindShortcut(steamDir string, appID uint32) (*vdfbinary.Shortcut, error) {
	files, err := shortcutFiles(steamDir)
	if err != nil {
		return nil, err
	}

	for _, path := range files {
		shortcuts, err := readShortcuts(path)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				log.Warn().Err(err).Str("path", path).Msg("error reading shortcuts.vdf")
			}
			continue
		}
		for i := range shortcuts {
			if shortcuts[i].AppID == appID {
				return &shortcuts[i], nil
			}
		}
	}

	return nil, fmt.Errorf("%w: app ID %d", ErrShortcutNotFound, appID)
}

func readShortcuts(path string) ([]vdfbinary.Shortcut, error) {
	f, err := os.Open(path) //nolint:gosec // Steam config file
	if err != nil {
		return nil, fmt.Errorf("open shortcuts: %w", err)
	}
	defer func() { _ = f.Close() }()

	shortcuts, err := vdfbinary.ParseShortcuts(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return shortcuts, nil
}
