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

package vdfbinary

import (
	"errors"
	"fmt"
	"io"
	"strconv"
)

// Shortcut is one non-Steam game entry of shortcuts.vdf.
type Shortcut struct {
	AppName       string
	Exe           string
	StartDir      string
	LaunchOptions string
	AppID         uint32
	IsHidden      bool
}

// ParseShortcuts parses Steam's shortcuts.vdf binary format. Only appid,
// AppName and Exe are required; tools that write the file directly often
// leave the rest out.
func ParseShortcuts(r io.Reader) ([]Shortcut, error) {
	root, err := Parse(r)
	if err != nil {
		return nil, err
	}

	shortcutsMap, ok := root.GetMap("shortcuts")
	if !ok {
		return nil, errors.New("could not find 'shortcuts' in parsed vdf")
	}

	shortcuts := make([]Shortcut, 0, len(shortcutsMap))

	for i := range len(shortcutsMap) {
		s, ok := shortcutsMap[strconv.Itoa(i)]
		if !ok {
			return nil, fmt.Errorf("shortcuts array is missing index %d", i)
		}

		appID, ok := s.GetUint("appid")
		if !ok {
			return nil, fmt.Errorf("shortcut %d: could not get key 'appid'", i)
		}

		appName, ok := s.GetString("AppName")
		if !ok {
			return nil, fmt.Errorf("shortcut %d: could not get key 'AppName'", i)
		}

		exe, ok := s.GetString("Exe")
		if !ok {
			return nil, fmt.Errorf("shortcut %d: could not get key 'Exe'", i)
		}

		startDir, _ := s.GetString("StartDir")
		launchOptions, _ := s.GetString("LaunchOptions")
		isHidden, _ := s.GetBool("IsHidden")

		shortcuts = append(shortcuts, Shortcut{
			AppID:         appID,
			AppName:       appName,
			Exe:           exe,
			StartDir:      startDir,
			LaunchOptions: launchOptions,
			IsHidden:      isHidden,
		})
	}

	return shortcuts, nil
}
