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

package telemetry

import (
	"errors"
	"testing"
	"time"

	"github.com/ZaparooProject/zaparoo-overlay/pkg/overlay"

	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizePath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "empty string",
			input:    "",
			expected: "",
		},
		{
			name:     "no username in path",
			input:    "/usr/local/bin/overlayd",
			expected: "/usr/local/bin/overlayd",
		},
		{
			name:     "linux home path",
			input:    "/home/callan/dev/zaparoo-overlay/pkg/glosi/probe.go",
			expected: "/home/<user>/dev/zaparoo-overlay/pkg/glosi/probe.go",
		},
		{
			name:     "linux home path uppercase",
			input:    "/Home/Callan/dev/zaparoo-overlay/pkg/glosi/probe.go",
			expected: "/home/<user>/dev/zaparoo-overlay/pkg/glosi/probe.go",
		},
		{
			name:     "macos users path",
			input:    "/Users/callan/Documents/overlay/config.toml",
			expected: "/Users/<user>/Documents/overlay/config.toml",
		},
		{
			name:     "macos users path lowercase",
			input:    "/users/callan/Documents/overlay/config.toml",
			expected: "/Users/<user>/Documents/overlay/config.toml",
		},
		{
			name:     "windows path",
			input:    "C:\\Users\\callan\\AppData\\Local\\GlosSI\\config.toml",
			expected: "C:\\Users\\<user>\\AppData\\Local\\GlosSI\\config.toml",
		},
		{
			name:     "windows path lowercase drive",
			input:    "c:\\Users\\JohnDoe\\Documents\\zaparoo",
			expected: "C:\\Users\\<user>\\Documents\\zaparoo",
		},
		{
			name:     "windows path different drive",
			input:    "D:\\Users\\admin\\zaparoo\\logs",
			expected: "D:\\Users\\<user>\\zaparoo\\logs",
		},
		{
			name:     "error message with path",
			input:    "failed to open file: /home/user123/config.toml: no such file",
			expected: "failed to open file: /home/<user>/config.toml: no such file",
		},
		{
			name:     "multiple paths in message",
			input:    "copying /home/alice/src to /home/bob/dst",
			expected: "copying /home/<user>/src to /home/<user>/dst",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			result := sanitizePath(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestSanitizeEvent(t *testing.T) {
	t.Parallel()

	event := &sentry.Event{
		ServerName: "gaming-pc",
		Message:    `can't read C:\Users\alice\AppData\Roaming\GlosSI\Targets\Celeste.json`,
		Extra:      map[string]any{"path": "/home/alice/.steam/steam", "count": 3},
		Exception: []sentry.Exception{{
			Value: "open /Users/alice/glosi.toml: permission denied",
			Stacktrace: &sentry.Stacktrace{Frames: []sentry.Frame{{
				AbsPath:  "/home/alice/src/overlay/coordinator.go",
				Filename: "coordinator.go",
			}}},
		}},
	}

	got := sanitizeEvent(event)

	assert.Empty(t, got.ServerName)
	assert.Equal(t, `can't read C:\Users\<user>\AppData\Roaming\GlosSI\Targets\Celeste.json`, got.Message)
	assert.Equal(t, "/home/<user>/.steam/steam", got.Extra["path"])
	assert.Equal(t, 3, got.Extra["count"])
	assert.Equal(t, "open /Users/<user>/glosi.toml: permission denied", got.Exception[0].Value)
	assert.Equal(t, "/home/<user>/src/overlay/coordinator.go", got.Exception[0].Stacktrace.Frames[0].AbsPath)
	assert.Equal(t, "coordinator.go", got.Exception[0].Stacktrace.Frames[0].Filename)
}

func TestSanitizeEvent_Breadcrumbs(t *testing.T) {
	t.Parallel()

	event := &sentry.Event{
		User: sentry.User{Username: "alice"},
		Breadcrumbs: []*sentry.Breadcrumb{{
			Message: "overlay.switch_failed",
			Data:    map[string]any{"error": `open C:\Users\alice\x.json`, "exitCode": -1},
		}},
	}

	got := sanitizeEvent(event)

	assert.Empty(t, got.User.Username)
	assert.Equal(t, `open C:\Users\<user>\x.json`, got.Breadcrumbs[0].Data["error"])
	assert.Equal(t, -1, got.Breadcrumbs[0].Data["exitCode"])
}

func TestBreadcrumbFor(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("closed", func(t *testing.T) {
		t.Parallel()
		b := breadcrumbFor(overlay.Event{
			Time: now,
			Type: overlay.EventClosed,
			Overlay: overlay.Snapshot{
				Name:  "Celeste",
				Kind:  overlay.KindGame,
				Phase: "closed",
			},
			Exit: &overlay.Exit{Code: 0, ClosedByUs: true, StartedByUs: true},
		})
		assert.Equal(t, "overlay", b.Category)
		assert.Equal(t, string(overlay.EventClosed), b.Message)
		assert.Equal(t, sentry.LevelInfo, b.Level)
		assert.Equal(t, now, b.Timestamp)
		assert.Equal(t, "Celeste", b.Data["name"])
		assert.Equal(t, "game", b.Data["kind"])
		assert.Equal(t, 0, b.Data["exitCode"])
		assert.Equal(t, true, b.Data["closedByUs"])
	})

	t.Run("switch failed", func(t *testing.T) {
		t.Parallel()
		b := breadcrumbFor(overlay.Event{
			Time:    now,
			Type:    overlay.EventSwitchFailed,
			Overlay: overlay.Snapshot{Name: "Celeste", Kind: overlay.KindGame},
			Error:   errors.New("launch /home/bob/.steam/steam.sh: not found").Error(),
		})
		assert.Equal(t, sentry.LevelError, b.Level)
		assert.Equal(t, "launch /home/<user>/.steam/steam.sh: not found", b.Data["error"])
		assert.NotContains(t, b.Data, "exitCode")
	})
}

func TestRecordEventWhenDisabled(t *testing.T) {
	t.Parallel()

	RecordEvent(overlay.Event{Type: overlay.EventStarted})
}

func TestInitDisabled(t *testing.T) {
	t.Parallel()

	require.NoError(t, Init(Options{Enabled: false, DSN: "https://key@example.invalid/1"}))
	require.NoError(t, Init(Options{Enabled: true}))
	assert.False(t, Enabled())
}

func TestEnabled(t *testing.T) {
	t.Parallel()

	assert.False(t, Enabled(), "telemetry should be disabled by default")
}

func TestCloseWhenDisabled(t *testing.T) {
	t.Parallel()

	Close()
}

func TestFlushWhenDisabled(t *testing.T) {
	t.Parallel()

	Flush()
}
