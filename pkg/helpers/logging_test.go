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

package helpers

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/ZaparooProject/zaparoo-overlay/pkg/config"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureDirectories(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		setupDirs bool
	}{
		{name: "creates nested directories", setupDirs: false},
		{name: "works when directories already exist", setupDirs: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			root := t.TempDir()
			dirs := Dirs{
				Config: filepath.Join(root, "config", "nested"),
				Data:   filepath.Join(root, "data", "nested"),
				Temp:   filepath.Join(root, "temp", "nested"),
			}
			if tt.setupDirs {
				require.NoError(t, os.MkdirAll(dirs.Temp, 0o750))
			}

			require.NoError(t, EnsureDirectories(dirs))

			for _, dir := range []string{dirs.Config, dirs.Data, dirs.Temp} {
				info, err := os.Stat(dir)
				require.NoError(t, err)
				assert.True(t, info.IsDir())
				if runtime.GOOS != "windows" {
					assert.Equal(t, os.FileMode(0o750), info.Mode().Perm())
				}
			}
		})
	}
}

func TestEnsureDirectories_InvalidPath(t *testing.T) {
	t.Parallel()

	err := EnsureDirectories(Dirs{Temp: "/proc/invalid\x00path"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create directory")
}

func TestEnsureDirectories_SkipsEmpty(t *testing.T) {
	t.Parallel()

	require.NoError(t, EnsureDirectories(Dirs{}))
}

func TestDirs_ConfigPath(t *testing.T) {
	// Not parallel: modifies the environment.
	dirs := Dirs{Config: filepath.Join("base", "cfg")}

	t.Setenv(config.CfgEnv, "")
	assert.Equal(t, filepath.Join("base", "cfg", config.CfgFile), dirs.ConfigPath())

	t.Setenv(config.CfgEnv, "/elsewhere/custom.toml")
	assert.Equal(t, "/elsewhere/custom.toml", dirs.ConfigPath())
}

func TestInitLogging(t *testing.T) {
	// Not parallel: InitLogging modifies the global log.Logger.
	orig := log.Logger
	t.Cleanup(func() { log.Logger = orig })

	t.Run("creates the log directory", func(t *testing.T) {
		logDir := filepath.Join(t.TempDir(), "logs")

		require.NoError(t, InitLogging(logDir, nil))

		info, err := os.Stat(logDir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})

	t.Run("writes to the log file and extra writers", func(t *testing.T) {
		logDir := t.TempDir()
		var buf bytes.Buffer

		require.NoError(t, InitLogging(logDir, []io.Writer{&buf}))
		log.Info().Msg("hello overlay")

		assert.Contains(t, buf.String(), "hello overlay")
		assert.Contains(t, buf.String(), `"caller"`)

		//nolint:gosec // Safe: reads a test log file
		data, err := os.ReadFile(filepath.Join(logDir, config.LogFile))
		require.NoError(t, err)
		assert.Contains(t, string(data), "hello overlay")
	})

	t.Run("fails on an invalid directory", func(t *testing.T) {
		err := InitLogging("/proc/invalid\x00path", nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to create log directory")
	})
}
