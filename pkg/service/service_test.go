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

package service

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ZaparooProject/zaparoo-overlay/pkg/api/client"
	"github.com/ZaparooProject/zaparoo-overlay/pkg/config"
	"github.com/ZaparooProject/zaparoo-overlay/pkg/glosi"
	"github.com/ZaparooProject/zaparoo-overlay/pkg/overlay"
	"github.com/ZaparooProject/zaparoo-overlay/pkg/testing/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type spawningLauncher struct {
	platform *mocks.FakePlatform
	launches atomic.Int32
}

func (l *spawningLauncher) Launch(context.Context, uint64) error {
	n := l.launches.Add(1)
	l.platform.Spawn(4000 + int(n))
	return nil
}

type noLive struct{}

func (noLive) Settings(context.Context) (*glosi.Target, error) {
	return nil, glosi.ErrUnsupported
}

func freePort(t *testing.T) int {
	t.Helper()
	var lc net.ListenConfig
	ln, err := lc.Listen(context.Background(), "tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())
	return port
}

func newTestConfig(t *testing.T, port int) *config.Instance {
	t.Helper()
	dir := t.TempDir()
	targets := filepath.Join(dir, "targets")
	require.NoError(t, os.MkdirAll(targets, 0o750))
	for _, name := range []string{"Celeste", "Playnite"} {
		doc := fmt.Sprintf(`{"name": %q, "version": 1, "launch": {"launch": true}}`, name)
		require.NoError(t, os.WriteFile(filepath.Join(targets, glosi.TargetFileName(name)), []byte(doc), 0o600))
	}

	toml := fmt.Sprintf(`config_schema = 1

[helper]
install_dir = '%s'
targets_dir = '%s'
version = "0.1.2"

[overlay]
default_name = "Desktop"
app_name = "Playnite"
close_timeout_ms = 2000

[api]
port = %d
`, filepath.Join(dir, "GlosSI"), targets, port)
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.CfgFile), []byte(toml), 0o600))

	cfg, err := config.NewConfig(dir, config.BaseDefaults)
	require.NoError(t, err)
	return cfg
}

func TestService_SwitchAndShutdown(t *testing.T) {
	t.Parallel()

	port := freePort(t)
	cfg := newTestConfig(t, port)
	platform := mocks.NewFakePlatform(true)
	launcher := &spawningLauncher{platform: platform}

	svc := New(cfg, Options{
		Platform: platform,
		Launcher: launcher,
		Live:     noLive{},
		Probe:    []glosi.ProbeOption{glosi.WithPollIntervals(2*time.Millisecond, time.Millisecond)},
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()

	c := client.New(port)
	require.Eventually(t, func() bool {
		_, err := c.Status(ctx)
		return err == nil
	}, 5*time.Second, 20*time.Millisecond)

	resp, err := c.Switch(ctx, overlay.KindGame, "Celeste")
	require.NoError(t, err)
	require.NotNil(t, resp.Overlay)
	assert.Equal(t, "Celeste", resp.Overlay.Name)
	assert.Equal(t, "running", resp.Overlay.Phase)
	assert.Equal(t, int32(1), launcher.launches.Load())
	assert.Len(t, platform.Running(), 1)

	_, err = c.Switch(ctx, overlay.KindGame, "Not Configured")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not runnable")

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("service did not stop")
	}

	assert.Empty(t, platform.Running())
	assert.Nil(t, svc.Coordinator().Current())
}

func TestHelperVersion(t *testing.T) {
	t.Parallel()

	cfg := newTestConfig(t, freePort(t))
	v := helperVersion(cfg, cfg.HelperPaths())
	require.NotNil(t, v)
	assert.Equal(t, "0.1.2", v.String())
}
