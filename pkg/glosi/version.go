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
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// autoReplaceSince is the first helper release that closes a previous
// instance by itself when a new one launches.
var autoReplaceSince = semver.MustParse("0.1.2")

// ParseVersion parses helper version strings, including four-part Windows
// file versions such as "0.1.2.0".
func ParseVersion(s string) (*semver.Version, error) {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "v"))
	if parts := strings.Split(s, "."); len(parts) > 3 {
		s = strings.Join(parts[:3], ".")
	}
	v, err := semver.NewVersion(s)
	if err != nil {
		return nil, fmt.Errorf("invalid helper version %q: %w", s, err)
	}
	return v, nil
}

// ReplacesOldAutomatically reports whether helper version v terminates an
// older running instance when launched. Unknown versions are treated as
// old, which makes the coordinator close the previous instance itself.
func ReplacesOldAutomatically(v *semver.Version) bool {
	return v != nil && !v.LessThan(autoReplaceSince)
}

// DetectVersion reads the version of the installed helper executable.
func DetectVersion(paths Paths) (*semver.Version, error) {
	raw, err := fileVersion(paths.TargetExe())
	if err != nil {
		return nil, err
	}
	return ParseVersion(raw)
}
