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

//go:build !windows && !linux

package glosi

import (
	"context"
	"fmt"
	"time"

	"github.com/shirou/gopsutil/v4/process"
)

const existsPollInterval = 500 * time.Millisecond

type pollHandle struct {
	pid int32
}

func openExitHandle(pid int) (ExitHandle, error) {
	h := &pollHandle{pid: int32(pid)} //nolint:gosec // PIDs fit in int32
	exists, err := process.PidExists(h.pid)
	if err != nil {
		return nil, fmt.Errorf("%w: check process %d: %w", ErrPlatform, pid, err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: process %d not found", ErrPlatform, pid)
	}
	return h, nil
}

func (h *pollHandle) Wait(ctx context.Context) (int, error) {
	ticker := time.NewTicker(existsPollInterval)
	defer ticker.Stop()
	for {
		exists, err := process.PidExistsWithContext(ctx, h.pid)
		if err == nil && !exists {
			return ExitCodeUnknown, nil
		}
		select {
		case <-ctx.Done():
			return ExitCodeUnknown, ctx.Err() //nolint:wrapcheck // wrapped by Process.Wait
		case <-ticker.C:
		}
	}
}

func (*pollHandle) Close() error {
	return nil
}
