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

package overlay

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ZaparooProject/zaparoo-overlay/pkg/glosi"
	"github.com/ZaparooProject/zaparoo-overlay/pkg/steam"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFactory(t *testing.T, steamDir string, names ...string) *Factory {
	t.Helper()
	fs := afero.NewMemMapFs()
	for _, name := range names {
		require.NoError(t, afero.WriteFile(fs, "/targets/"+glosi.TargetFileName(name),
			[]byte(`{"name": "`+name+`"}`), 0o600))
	}
	return NewFactory(FactoryOptions{
		Targets:     glosi.NewTargetsFs(fs, "/targets"),
		Paths:       testPaths,
		AppName:     "Playnite",
		DefaultName: "Desktop",
		SteamDir:    steamDir,
	})
}

func TestFactory_Identity(t *testing.T) {
	t.Parallel()

	f := newTestFactory(t, "")
	assert.Equal(t, steam.ShortcutID("Playnite", testPaths.TargetExe()), f.Identity("Playnite"))
	assert.Equal(t, f.Game("Celeste").ID(), f.External("Celeste").ID())
	assert.NotEqual(t, f.Game("Celeste").ID(), f.Game("Playnite").ID())
}

func TestFactory_New(t *testing.T) {
	t.Parallel()

	f := newTestFactory(t, "")

	tests := []struct {
		kind     Kind
		name     string
		wantName string
		wantErr  bool
	}{
		{kind: KindGame, name: "Celeste", wantName: "Celeste"},
		{kind: KindGame, name: "", wantErr: true},
		{kind: KindApp, name: "", wantName: "Playnite"},
		{kind: KindDefault, name: "", wantName: "Desktop"},
		{kind: KindExternal, name: "Other", wantName: "Other"},
		{kind: Kind("bogus"), name: "x", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind)+"/"+tt.name, func(t *testing.T) {
			t.Parallel()

			o, err := f.New(tt.kind, tt.name)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.kind, o.Kind())
			assert.Equal(t, tt.wantName, o.Name())
		})
	}

	_, err := f.New(Kind("bogus"), "x")
	require.ErrorIs(t, err, ErrUnknownKind)
}

func TestFactory_AppPolicy(t *testing.T) {
	t.Parallel()

	f := NewFactory(FactoryOptions{Paths: testPaths, AppName: "Playnite", AppPath: `C:\Playnite\Playnite.FullscreenApp.exe`})
	policy := f.App("").Policy()
	assert.True(t, policy.AutoLaunch)
	assert.True(t, policy.CloseOnExit)
	assert.Equal(t, `C:\Playnite\Playnite.FullscreenApp.exe`, policy.Path)
}

func TestFactory_Runnable(t *testing.T) {
	t.Parallel()

	f := newTestFactory(t, "", "Celeste")

	require.NoError(t, f.Runnable(f.Game("Celeste")))
	require.ErrorIs(t, f.Runnable(f.Game("Missing")), ErrNotRunnable)
	require.ErrorIs(t, f.Runnable(f.External("")), ErrNotRunnable)
}

func TestFactory_Runnable_ShortcutCheck(t *testing.T) {
	t.Parallel()

	steamDir := t.TempDir()
	f := newTestFactory(t, steamDir, "Celeste", "Hollow Knight")
	writeShortcuts(t, steamDir, f.Game("Celeste"))

	require.NoError(t, f.Runnable(f.Game("Celeste")))
	require.ErrorIs(t, f.Runnable(f.Game("Hollow Knight")), ErrNotRunnable)
}

func TestFactory_Runnable_UnreadableSteamDir(t *testing.T) {
	t.Parallel()

	f := newTestFactory(t, t.TempDir(), "Celeste")
	require.NoError(t, f.Runnable(f.Game("Celeste")))
}

// writeShortcuts writes a minimal binary shortcuts.vdf with one entry per
// overlay.
func writeShortcuts(t *testing.T, steamDir string, overlays ...*Overlay) {
	t.Helper()

	var buf []byte
	key := func(marker byte, k string) {
		buf = append(buf, marker)
		buf = append(buf, k...)
		buf = append(buf, 0x00)
	}
	key(0x00, "shortcuts")
	for i, o := range overlays {
		key(0x00, string(rune('0'+i)))
		key(0x02, "appid")
		appID := steam.AppIDFromGameID(o.ID())
		buf = append(buf, byte(appID), byte(appID>>8), byte(appID>>16), byte(appID>>24))
		key(0x01, "AppName")
		buf = append(buf, o.Name()...)
		buf = append(buf, 0x00)
		key(0x01, "Exe")
		buf = append(buf, `"`+testPaths.TargetExe()+`"`...)
		buf = append(buf, 0x00)
		buf = append(buf, 0x08)
	}
	buf = append(buf, 0x08, 0x08)

	dir := filepath.Join(steamDir, "userdata", "102", "config")
	require.NoError(t, os.MkdirAll(dir, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "shortcuts.vdf"), buf, 0o600))
}
