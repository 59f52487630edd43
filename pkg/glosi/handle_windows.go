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
	"context"
	"fmt"

	"golang.org/x/sys/windows"
)

// waitSlice bounds each WaitForSingleObject call so ctx is checked regularly.
const waitSlice = 100 // milliseconds

type windowsHandle struct {
	h windows.Handle
}

func openExitHandle(pid int) (ExitHandle, error) {
	h, err := windows.OpenProcess(
		windows.SYNCHRONIZE|windows.PROCESS_QUERY_LIMITED_INFORMATION,
		false,
		uint32(pid), //nolint:gosec // PIDs fit in uint32
	)
	if err != nil {
		return nil, fmt.Errorf("%w: open process %d: %w", ErrPlatform, pid, err)
	}
	return &windowsHandle{h: h}, nil
}

func (w *windowsHandle) Wait(ctx context.Context) (int, error) {
	for {
		event, err := windows.WaitForSingleObject(w.h, waitSlice)
		if err != nil {
			return ExitCodeUnknown, fmt.Errorf("%w: WaitForSingleObject: %w", ErrPlatform, err)
		}
		if event == windows.WAIT_OBJECT_0 {
			var code uint32
			if err := windows.GetExitCodeProcess(w.h, &code); err != nil {
				return ExitCodeUnknown, fmt.Errorf("%w: GetExitCodeProcess: %w", ErrPlatform, err)
			}
			return int(code), nil
		}

		select {
		case <-ctx.Done():
			return ExitCodeUnknown, ctx.Err() //nolint:wrapcheck // wrapped by Process.Wait
		default:
		}
	}
}

func (w *windowsHandle) Close() error {
	return windows.CloseHandle(w.h) //nolint:wrapcheck // wrapped by Process.Release
}
