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

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/ZaparooProject/zaparoo-overlay/pkg/api/models"
	"github.com/ZaparooProject/zaparoo-overlay/pkg/config"
	"github.com/ZaparooProject/zaparoo-overlay/pkg/helpers"
	"github.com/ZaparooProject/zaparoo-overlay/pkg/overlay"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlags() *Flags {
	return SetupFlags(flag.NewFlagSet("overlayd", flag.ContinueOnError))
}

func newConfig(t *testing.T, srv *httptest.Server) *config.Instance {
	t.Helper()
	cfg, err := config.NewConfig(t.TempDir(), config.BaseDefaults)
	require.NoError(t, err)
	if srv != nil {
		u, err := url.Parse(srv.URL)
		require.NoError(t, err)
		port, err := strconv.Atoi(u.Port())
		require.NoError(t, err)
		cfg.SetAPIPort(port)
	}
	return cfg
}

func TestPre_Version(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	exit, err := newFlags().Pre([]string{"-version"}, &out)

	require.NoError(t, err)
	assert.True(t, exit)
	assert.Contains(t, out.String(), config.AppName+" v"+config.AppVersion)
}

func TestPre_NoFlags(t *testing.T) {
	t.Parallel()

	exit, err := newFlags().Pre(nil, &bytes.Buffer{})

	require.NoError(t, err)
	assert.False(t, exit)
}

func TestPre_UnknownFlag(t *testing.T) {
	t.Parallel()

	f := SetupFlags(flag.NewFlagSet("overlayd", flag.ContinueOnError))
	f.set.SetOutput(&bytes.Buffer{})
	exit, err := f.Pre([]string{"-nope"}, &bytes.Buffer{})

	require.Error(t, err)
	assert.True(t, exit)
}

func TestPre_ConfigPath(t *testing.T) {
	// Not parallel: sets the config env var.
	t.Setenv(config.CfgEnv, "")

	path := filepath.Join(t.TempDir(), "custom.toml")
	exit, err := newFlags().Pre([]string{"-config", path}, &bytes.Buffer{})

	require.NoError(t, err)
	assert.False(t, exit)
	assert.Equal(t, path, os.Getenv(config.CfgEnv))
}

func TestPost_NoCommand(t *testing.T) {
	t.Parallel()

	f := newFlags()
	_, err := f.Pre(nil, &bytes.Buffer{})
	require.NoError(t, err)

	exit, err := f.Post(context.Background(), newConfig(t, nil), &bytes.Buffer{})
	require.NoError(t, err)
	assert.False(t, exit)
}

func TestPost_Switch(t *testing.T) {
	t.Parallel()

	requests := make(chan models.SwitchRequest, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req models.SwitchRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		requests <- req
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(models.StatusResponse{
			Overlay: &overlay.Snapshot{Name: req.Name, Kind: req.Kind},
		})
	}))
	defer srv.Close()

	f := newFlags()
	_, err := f.Pre([]string{"-switch", "Celeste"}, &bytes.Buffer{})
	require.NoError(t, err)

	var out bytes.Buffer
	exit, err := f.Post(context.Background(), newConfig(t, srv), &out)
	require.NoError(t, err)
	assert.True(t, exit)

	assert.Equal(t, models.SwitchRequest{Kind: overlay.KindGame, Name: "Celeste"}, <-requests)
	var resp models.StatusResponse
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
	require.NotNil(t, resp.Overlay)
	assert.Equal(t, "Celeste", resp.Overlay.Name)
}

func TestPost_SwitchGameNeedsName(t *testing.T) {
	t.Parallel()

	f := newFlags()
	_, err := f.Pre([]string{"-switch", ""}, &bytes.Buffer{})
	require.NoError(t, err)

	exit, err := f.Post(context.Background(), newConfig(t, nil), &bytes.Buffer{})
	require.ErrorIs(t, err, ErrMissingValue)
	assert.True(t, exit)
}

func TestPost_CloseServiceDown(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	cfg := newConfig(t, srv)
	srv.Close()

	f := newFlags()
	_, err := f.Pre([]string{"-close"}, &bytes.Buffer{})
	require.NoError(t, err)

	exit, err := f.Post(context.Background(), cfg, &bytes.Buffer{})
	require.Error(t, err)
	assert.True(t, exit)
}

func TestSetup(t *testing.T) {
	// Not parallel: Setup replaces the global logger.
	orig := log.Logger
	t.Cleanup(func() { log.Logger = orig })
	t.Setenv(config.CfgEnv, "")

	root := t.TempDir()
	dirs := helpers.Dirs{
		Config: filepath.Join(root, "config"),
		Data:   filepath.Join(root, "data"),
		Temp:   filepath.Join(root, "tmp"),
	}

	cfg, err := Setup(dirs, config.BaseDefaults, nil)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dirs.Config, config.CfgFile), cfg.Path())
	assert.FileExists(t, cfg.Path())
	assert.Equal(t, "Desktop", cfg.OverlayDefaultName())
}
