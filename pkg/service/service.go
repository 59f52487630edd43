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

// Package service wires the overlay coordinator to the OS, the helper and
// the control API, and runs them until shutdown.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/ZaparooProject/zaparoo-overlay/internal/telemetry"
	"github.com/ZaparooProject/zaparoo-overlay/pkg/api"
	"github.com/ZaparooProject/zaparoo-overlay/pkg/config"
	"github.com/ZaparooProject/zaparoo-overlay/pkg/glosi"
	"github.com/ZaparooProject/zaparoo-overlay/pkg/overlay"
	"github.com/ZaparooProject/zaparoo-overlay/pkg/steam"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const (
	eventBuffer = 100
	exitTimeout = 30 * time.Second
)

// Options overrides the OS-facing parts of the service. Zero values use
// the real implementations.
type Options struct {
	Platform glosi.Platform
	Launcher overlay.Launcher
	Live     overlay.SettingsReader
	Probe    []glosi.ProbeOption
}

// Service is a wired overlay service.
type Service struct {
	cfg         *config.Instance
	coordinator *overlay.Coordinator
	server      *api.Server
	lifecycle   chan overlay.Event
	events      chan overlay.Event
}

// New builds the service from the config.
func New(cfg *config.Instance, opts Options) *Service {
	paths := cfg.HelperPaths()
	if opts.Platform == nil {
		opts.Platform = glosi.NewPlatform()
	}
	if opts.Launcher == nil {
		opts.Launcher = steam.NewLauncher(cfg.LauncherOptions())
	}
	if opts.Live == nil {
		opts.Live = glosi.NewLiveClient(cfg.HelperLivePort())
	}

	probeOpts := append(cfg.HelperProbeOptions(), glosi.WithVersion(helperVersion(cfg, paths)))
	probe := glosi.NewProbe(opts.Platform, append(probeOpts, opts.Probe...)...)
	log.Info().
		Str("exe", paths.TargetExe()).
		Bool("autoReplace", probe.ReplacesOldAutomatically()).
		Msg("helper configured")

	var focuser overlay.Focuser
	if class, title, ok := cfg.OverlayFocusWindow(); ok {
		focuser = glosi.NewWindowFocuser(opts.Platform, class, title)
	}

	factory := overlay.NewFactory(overlay.FactoryOptions{
		Targets:     glosi.NewTargets(paths.TargetsDir),
		Focuser:     focuser,
		OnExit:      logUserExit,
		Paths:       paths,
		AppName:     cfg.OverlayAppName(),
		AppPath:     cfg.OverlayAppPath(),
		DefaultName: cfg.OverlayDefaultName(),
		SteamDir:    cfg.ShortcutCheckDir(),
	})

	lifecycle := make(chan overlay.Event, eventBuffer)
	copts := cfg.CoordinatorOptions()
	copts.Events = lifecycle
	coord := overlay.NewCoordinator(probe, opts.Launcher, opts.Live, factory, copts)

	server := api.NewServer(coord, factory, api.Options{
		AllowedOrigins: cfg.AllowedOrigins(),
		RateLimit:      cfg.APIRateLimit(),
	})

	return &Service{
		cfg:         cfg,
		coordinator: coord,
		server:      server,
		lifecycle:   lifecycle,
		events:      make(chan overlay.Event, eventBuffer),
	}
}

// Coordinator returns the service's overlay coordinator.
func (s *Service) Coordinator() *overlay.Coordinator {
	return s.coordinator
}

// Run serves the control API and watches the config until ctx is done or
// a component fails, then closes any helper instance before returning.
func (s *Service) Run(ctx context.Context) error {
	log.Info().Msgf("version: %s", config.AppVersion)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return s.server.Serve(gctx, s.cfg.APIListen())
	})
	g.Go(func() error {
		s.forwardEvents(gctx)
		return nil
	})
	g.Go(func() error {
		s.server.Broadcast(gctx, s.events)
		return nil
	})
	g.Go(func() error {
		return config.Watch(gctx, s.cfg, func() {
			config.ApplyLogLevel(s.cfg.DebugLogging())
		})
	})

	<-gctx.Done()
	log.Info().Msg("service stopping, closing overlay")

	exitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), exitTimeout)
	defer cancel()
	exitErr := s.coordinator.Exit(exitCtx)
	if exitErr != nil {
		log.Error().Err(exitErr).Msg("error closing overlay on shutdown")
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	if exitErr != nil {
		return fmt.Errorf("shutdown: %w", exitErr)
	}
	log.Info().Msg("service stopped")
	return nil
}

// forwardEvents records each lifecycle event for error reports and passes it
// on to the API broadcast, dropping it when clients fall behind.
func (s *Service) forwardEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-s.lifecycle:
			telemetry.RecordEvent(ev)
			select {
			case s.events <- ev:
			default:
				log.Debug().Str("event", string(ev.Type)).Msg("broadcast queue full, dropping event")
			}
		}
	}
}

func helperVersion(cfg *config.Instance, paths glosi.Paths) *semver.Version {
	if raw := cfg.HelperVersion(); raw != "" {
		v, err := glosi.ParseVersion(raw)
		if err == nil {
			return v
		}
		log.Warn().Err(err).Msg("ignoring configured helper version")
	}
	v, err := glosi.DetectVersion(paths)
	if err != nil {
		log.Warn().Err(err).Msg("could not detect helper version, assuming an old release")
		return nil
	}
	log.Info().Str("version", v.String()).Msg("detected helper version")
	return v
}

func logUserExit(o *overlay.Overlay, exit overlay.Exit) {
	log.Info().
		Str("overlay", o.Name()).
		Int("code", exit.Code).
		Msg("helper closed outside the service")
}
