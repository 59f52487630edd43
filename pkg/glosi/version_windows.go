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

//go:build windows

package glosi

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

func fileVersion(path string) (string, error) {
	size, err := windows.GetFileVersionInfoSize(path, nil)
	if err != nil {
		return "", fmt.Errorf("%w: GetFileVersionInfoSize: %w", ErrPlatform, err)
	}

	buf := make([]byte, size)
	if err := windows.GetFileVersionInfo(path, 0, size, unsafe.Pointer(&buf[0])); err != nil {
		return "", fmt.Errorf("%w: GetFileVersionInfo: %w", ErrPlatform, err)
	}

	var fixed *windows.VS_FIXEDFILEINFO
	var fixedLen uint32
	err = windows.VerQueryValue(unsafe.Pointer(&buf[0]), `\`, unsafe.Pointer(&fixed), &fixedLen)
	if err != nil {
		return "", fmt.Errorf("%w: VerQueryValue: %w", ErrPlatform, err)
	}
	if fixed == nil || fixedLen == 0 {
		return "", fmt.Errorf("%w: no fixed file info in %s", ErrPlatform, path)
	}

	return fmt.Sprintf("%d.%d.%d.%d",
		fixed.FileVersionMS>>16, fixed.FileVersionMS&0xFFFF,
		fixed.FileVersionLS>>16, fixed.FileVersionLS&0xFFFF,
	), nil
}
