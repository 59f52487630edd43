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

package glosi

import (
	"encoding/json"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const playniteTarget = `{
    "name": "Playnite",
    "version": 1,
    "icon": "C:\\Playnite\\Playnite.FullscreenApp.exe",
    "launch": {
        "launch": true,
        "launchPath": "C:\\Playnite\\Playnite.FullscreenApp.exe",
        "launchAppArgs": "",
        "closeOnExit": true,
        "waitForChildProcs": true
    },
    "window": {
        "hideAltTab": true
    }
}`

func newTestTargets(t *testing.T, files map[string]string) *Targets {
	t.Helper()
	fs := afero.NewMemMapFs()
	for name, content := range files {
		require.NoError(t, afero.WriteFile(fs, "/targets/"+name, []byte(content), 0o600))
	}
	return NewTargetsFs(fs, "/targets")
}

func TestTargetFileName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Playnite.json", TargetFileName("Playnite"))
	assert.Equal(t, "Halo MCC.json", TargetFileName(`Halo: MCC?`))
	assert.Equal(t, "ab.json", TargetFileName(`a\/*"<>|b`))
}

func TestTargets_Read(t *testing.T) {
	t.Parallel()

	targets := newTestTargets(t, map[string]string{"Playnite.json": playniteTarget})

	assert.True(t, targets.Exists("Playnite"))
	assert.False(t, targets.Exists("Kodi"))

	target, err := targets.Read("Playnite")
	require.NoError(t, err)
	assert.Equal(t, "Playnite", target.Name)
	assert.True(t, target.Launch.Launch)
	assert.True(t, target.Launch.CloseOnExit)
}

func TestTargets_Read_NotFound(t *testing.T) {
	t.Parallel()

	_, err := newTestTargets(t, nil).Read("Missing")
	require.ErrorIs(t, err, ErrTargetNotFound)
}

func TestTargets_Read_Invalid(t *testing.T) {
	t.Parallel()

	targets := newTestTargets(t, map[string]string{
		"Broken.json":   `{"name": `,
		"Nameless.json": `{"launch": {"launch": true}}`,
	})

	_, err := targets.Read("Broken")
	require.Error(t, err)
	_, err = targets.Read("Nameless")
	require.Error(t, err)
}

func TestTargets_SetAutoLaunch(t *testing.T) {
	t.Parallel()

	targets := newTestTargets(t, map[string]string{"Playnite.json": playniteTarget})

	changed, err := targets.SetAutoLaunch("Playnite", false)
	require.NoError(t, err)
	assert.True(t, changed)

	target, err := targets.Read("Playnite")
	require.NoError(t, err)
	assert.False(t, target.Launch.Launch)
	assert.True(t, target.Launch.CloseOnExit)

	data, err := afero.ReadFile(targets.fs, targets.Path("Playnite"))
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, map[string]any{"hideAltTab": true}, doc["window"])
	assert.Contains(t, doc, "icon")

	ok, err := afero.Exists(targets.fs, targets.Path("Playnite")+".tmp")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTargets_SetAutoLaunch_Unchanged(t *testing.T) {
	t.Parallel()

	targets := newTestTargets(t, map[string]string{"Playnite.json": playniteTarget})

	changed, err := targets.SetAutoLaunch("Playnite", true)
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestTargets_SetAutoLaunch_MissingLaunchObject(t *testing.T) {
	t.Parallel()

	targets := newTestTargets(t, map[string]string{"Bare.json": `{"name": "Bare"}`})

	changed, err := targets.SetAutoLaunch("Bare", true)
	require.NoError(t, err)
	assert.True(t, changed)

	target, err := targets.Read("Bare")
	require.NoError(t, err)
	assert.True(t, target.Launch.Launch)
}

func TestTargets_SetAutoLaunch_InvalidFlagRewritten(t *testing.T) {
	t.Parallel()

	doc := `{"name": "Odd", "launch": {"launch": "yes", "closeOnExit": true}}`
	targets := newTestTargets(t, map[string]string{"Odd.json": doc})

	changed, err := targets.SetAutoLaunch("Odd", false)
	require.NoError(t, err)
	assert.True(t, changed)

	target, err := targets.Read("Odd")
	require.NoError(t, err)
	assert.False(t, target.Launch.Launch)
	assert.True(t, target.Launch.CloseOnExit)
}

func TestTargets_SetAutoLaunch_NotFound(t *testing.T) {
	t.Parallel()

	_, err := newTestTargets(t, nil).SetAutoLaunch("Missing", false)
	require.ErrorIs(t, err, ErrTargetNotFound)
}
