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
	"context"
	"fmt"
	"time"

	"github.com/ZaparooProject/zaparoo-overlay/pkg/helpers/command"
	"github.com/rs/zerolog/log"
)

// launchExitGrace is how long a shell launcher is watched for an early
// failure, such as xdg-open having no steam:// handler.
const launchExitGrace = 1500 * time.Millisecond

// Options configures how Steam URLs are opened.
type Options struct {
	// UseXdgOpen opens URLs with xdg-open instead of the steam binary.
	// Only used on Linux.
	UseXdgOpen bool
}

// DefaultOptions returns the launch options for the current desktop.
func DefaultOptions() Options {
	return Options{UseXdgOpen: true}
}

// Launcher starts Steam games and shortcuts through the OS shell.
type Launcher struct {
	cmd  command.Executor
	opts Options
}

// NewLauncher creates a Launcher that runs real commands.
func NewLauncher(opts Options) *Launcher {
	return NewLauncherWithExecutor(opts, &command.RealExecutor{})
}

// NewLauncherWithExecutor creates a Launcher with a custom command executor.
func NewLauncherWithExecutor(opts Options, cmd command.Executor) *Launcher {
	return &Launcher{cmd: cmd, opts: opts}
}

// Launch asks Steam to run the game or shortcut with the given 64-bit ID.
// It returns once the shell has accepted the request; Steam starts the
// target asynchronously.
func (l *Launcher) Launch(ctx context.Context, id uint64) error {
	url := RunGameURL(id)
	log.Debug().Str("url", url).Msg("launching Steam shortcut")
	c := l.shellCommand(url)
	c.ExitGrace = launchExitGrace
	if err := l.cmd.Start(ctx, c); err != nil {
		return fmt.Errorf("failed to launch %s: %w", url, err)
	}
	return nil
}
