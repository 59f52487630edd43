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

const wmClose = 0x0010

var (
	user32            = windows.NewLazySystemDLL("user32.dll")
	procFindWindowW   = user32.NewProc("FindWindowW")
	procPostMessageW  = user32.NewProc("PostMessageW")
	procSetForeground = user32.NewProc("SetForegroundWindow")
)

func findWindow(class, title string) (Window, bool, error) {
	classPtr, err := optionalUTF16(class)
	if err != nil {
		return 0, false, fmt.Errorf("invalid window class: %w", err)
	}
	titlePtr, err := optionalUTF16(title)
	if err != nil {
		return 0, false, fmt.Errorf("invalid window title: %w", err)
	}

	hwnd, _, _ := procFindWindowW.Call(
		uintptr(unsafe.Pointer(classPtr)),
		uintptr(unsafe.Pointer(titlePtr)),
	)
	if hwnd == 0 {
		return 0, false, nil
	}
	return Window(hwnd), true, nil
}

// optionalUTF16 returns nil for an empty string so FindWindowW treats it as
// a wildcard.
func optionalUTF16(s string) (*uint16, error) {
	if s == "" {
		return nil, nil
	}
	return windows.UTF16PtrFromString(s) //nolint:wrapcheck // wrapped by caller
}

func closeWindow(w Window) error {
	ret, _, callErr := procPostMessageW.Call(uintptr(w), wmClose, 0, 0)
	if ret == 0 {
		return fmt.Errorf("%w: PostMessageW(WM_CLOSE): %w", ErrPlatform, callErr)
	}
	return nil
}

func focusWindow(w Window) error {
	ret, _, callErr := procSetForeground.Call(uintptr(w))
	if ret == 0 {
		return fmt.Errorf("%w: SetForegroundWindow: %w", ErrPlatform, callErr)
	}
	return nil
}
