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

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/ZaparooProject/zaparoo-overlay/internal/telemetry"
	"github.com/ZaparooProject/zaparoo-overlay/pkg/cli"
	"github.com/ZaparooProject/zaparoo-overlay/pkg/config"
	"github.com/ZaparooProject/zaparoo-overlay/pkg/helpers"
	"github.com/ZaparooProject/zaparoo-overlay/pkg/service"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := run(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		telemetry.Flush()
		os.Exit(1)
	}
}

func run() (returnErr error) {
	flags := cli.SetupFlags(flag.CommandLine)
	exit, err := flags.Pre(os.Args[1:], os.Stdout)
	if exit || err != nil {
		return err
	}

	dirs, err := helpers.DefaultDirs()
	if err != nil {
		return err
	}

	var logWriters []io.Writer
	if *flags.Daemon {
		logWriters = []io.Writer{zerolog.ConsoleWriter{Out: os.Stderr}}
	}

	cfg, err := cli.Setup(dirs, config.BaseDefaults, logWriters)
	if err != nil {
		return err
	}
	defer telemetry.Close()

	defer func() {
		if r := recover(); r != nil {
			log.Error().Msgf("panic: %v", r)
			telemetry.Flush()
			returnErr = fmt.Errorf("panic: %v", r)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if exit, err := flags.Post(ctx, cfg, os.Stdout); exit {
		return err
	}

	pid := helpers.NewPidFile(dirs.Temp)
	if err := pid.Create(); err != nil {
		if errors.Is(err, helpers.ErrAlreadyRunning) {
			return fmt.Errorf("another %s instance is running", config.AppName)
		}
		return err
	}
	defer func() {
		if err := pid.Remove(); err != nil {
			log.Warn().Err(err).Msg("error removing pid file")
		}
	}()

	log.Info().Str("config", cfg.Path()).Msg("starting overlay service")
	return service.New(cfg, service.Options{}).Run(ctx)
}
