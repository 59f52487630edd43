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

package command

import (
	"context"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func shell(script string) Cmd {
	if runtime.GOOS == "windows" {
		return Cmd{Name: "cmd", Args: []string{"/c", script}, HideWindow: true}
	}
	return Cmd{Name: "sh", Args: []string{"-c", script}}
}

func TestRealExecutor_Start(t *testing.T) {
	t.Parallel()

	executor := &RealExecutor{}

	tests := []struct {
		name    string
		cmd     Cmd
		grace   time.Duration
		wantErr error
	}{
		{name: "success without grace", cmd: shell("exit 0")},
		{name: "failure without grace is not reported", cmd: shell("exit 3")},
		{name: "success with grace", cmd: shell("exit 0"), grace: 5 * time.Second},
		{name: "failure with grace", cmd: shell("exit 3"), grace: 5 * time.Second, wantErr: ErrExited},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := tt.cmd
			c.ExitGrace = tt.grace
			err := executor.Start(context.Background(), c)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Contains(t, err.Error(), c.Name)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestRealExecutor_StartLongRunning(t *testing.T) {
	t.Parallel()
	if runtime.GOOS == "windows" {
		t.Skip("no portable sleep in cmd")
	}

	start := time.Now()
	err := (&RealExecutor{}).Start(context.Background(), Cmd{
		Name:      "sleep",
		Args:      []string{"2"},
		ExitGrace: 100 * time.Millisecond,
	})

	require.NoError(t, err)
	assert.Less(t, time.Since(start), time.Second)
}

func TestRealExecutor_StartCancelledWait(t *testing.T) {
	t.Parallel()
	if runtime.GOOS == "windows" {
		t.Skip("no portable sleep in cmd")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := (&RealExecutor{}).Start(ctx, Cmd{Name: "sleep", Args: []string{"2"}, ExitGrace: time.Minute})
	require.NoError(t, err)
}

func TestRealExecutor_StartMissingBinary(t *testing.T) {
	t.Parallel()

	err := (&RealExecutor{}).Start(context.Background(), Cmd{Name: "nonexistent_command_that_should_not_exist_12345"})

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrExited)
}

func TestCmd_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "xdg-open steam://rungameid/1", Cmd{Name: "xdg-open", Args: []string{"steam://rungameid/1"}}.String())
	assert.Equal(t, "open", Cmd{Name: "open"}.String())
}
