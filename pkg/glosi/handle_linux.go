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

//go:build linux

package glosi

import (
	"context"
	"errors"
	"fmt"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sys/unix"
)

// killPollInterval is used when pidfd_open is unavailable (Linux < 5.3).
const killPollInterval = 500 * time.Millisecond

// linuxHandle waits on a pidfd, falling back to kill(pid, 0) polling.
// Exit codes are only available to the parent, which is never us.
type linuxHandle struct {
	pid   int
	pidfd int
}

func openExitHandle(pid int) (ExitHandle, error) {
	if err := syscall.Kill(pid, 0); err != nil && errors.Is(err, syscall.ESRCH) {
		return nil, fmt.Errorf("%w: process %d not found", ErrPlatform, pid)
	}

	fd, err := unix.PidfdOpen(pid, 0)
	if err != nil {
		if errors.Is(err, unix.ESRCH) {
			return nil, fmt.Errorf("%w: process %d not found", ErrPlatform, pid)
		}
		log.Debug().Err(err).Int("pid", pid).Msg("pidfd_open failed, using poll fallback")
		fd = -1
	}
	return &linuxHandle{pid: pid, pidfd: fd}, nil
}

func (h *linuxHandle) Wait(ctx context.Context) (int, error) {
	if h.pidfd >= 0 {
		return h.waitPidfd(ctx)
	}
	return h.waitPoll(ctx)
}

func (h *linuxHandle) waitPidfd(ctx context.Context) (int, error) {
	fds := []unix.PollFd{
		{Fd: int32(h.pidfd), Events: unix.POLLIN}, //nolint:gosec // pidfd is always small
	}
	for {
		select {
		case <-ctx.Done():
			return ExitCodeUnknown, ctx.Err() //nolint:wrapcheck // wrapped by Process.Wait
		default:
		}

		// 100ms slices so cancellation is noticed
		n, err := unix.Poll(fds, 100)
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			return ExitCodeUnknown, fmt.Errorf("%w: poll pidfd: %w", ErrPlatform, err)
		}
		if n > 0 && fds[0].Revents&unix.POLLIN != 0 {
			return ExitCodeUnknown, nil
		}
	}
}

func (h *linuxHandle) waitPoll(ctx context.Context) (int, error) {
	ticker := time.NewTicker(killPollInterval)
	defer ticker.Stop()
	for {
		if err := syscall.Kill(h.pid, 0); err != nil && errors.Is(err, syscall.ESRCH) {
			return ExitCodeUnknown, nil
		}
		select {
		case <-ctx.Done():
			return ExitCodeUnknown, ctx.Err() //nolint:wrapcheck // wrapped by Process.Wait
		case <-ticker.C:
		}
	}
}

func (h *linuxHandle) Close() error {
	if h.pidfd < 0 {
		return nil
	}
	return unix.Close(h.pidfd) //nolint:wrapcheck // wrapped by Process.Release
}
