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

// Package cli holds the command line flags of the overlay service and the
// one-shot client commands that talk to a running instance.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/ZaparooProject/zaparoo-overlay/internal/telemetry"
	"github.com/ZaparooProject/zaparoo-overlay/pkg/api/client"
	"github.com/ZaparooProject/zaparoo-overlay/pkg/config"
	"github.com/ZaparooProject/zaparoo-overlay/pkg/helpers"
	"github.com/ZaparooProject/zaparoo-overlay/pkg/overlay"
	"github.com/rs/zerolog/log"
)

var ErrMissingValue = errors.New("flag requires a value")

type Flags struct {
	set     *flag.FlagSet
	Version *bool
	Config  *string
	Switch  *string
	Kind    *string
	Close   *bool
	Status  *bool
	Watch   *bool
	Daemon  *bool
}

// SetupFlags defines the service flags on fs.
func SetupFlags(fs *flag.FlagSet) *Flags {
	return &Flags{
		set: fs,
		Version: fs.Bool(
			"version",
			false,
			"print version and exit",
		),
		Config: fs.String(
			"config",
			"",
			"path to the config file",
		),
		Switch: fs.String(
			"switch",
			"",
			"ask the running service to switch to the named overlay",
		),
		Kind: fs.String(
			"kind",
			string(overlay.KindGame),
			"overlay kind used with -switch (game, app, default, external)",
		),
		Close: fs.Bool(
			"close",
			false,
			"ask the running service to close the current overlay",
		),
		Status: fs.Bool(
			"status",
			false,
			"print the current overlay of the running service",
		),
		Watch: fs.Bool(
			"watch",
			false,
			"print overlay events from the running service until interrupted",
		),
		Daemon: fs.Bool(
			"daemon",
			false,
			"log to stderr as well as the log file",
		),
	}
}

func (f *Flags) isPassed(name string) bool {
	found := false
	f.set.Visit(func(fl *flag.Flag) {
		if fl.Name == name {
			found = true
		}
	})
	return found
}

// Pre parses args and handles flags that need no environment. It returns
// true when the process should exit.
func (f *Flags) Pre(args []string, out io.Writer) (bool, error) {
	if err := f.set.Parse(args); err != nil {
		return true, fmt.Errorf("parse flags: %w", err)
	}

	if *f.Config != "" {
		if err := os.Setenv(config.CfgEnv, *f.Config); err != nil {
			return true, fmt.Errorf("set config path: %w", err)
		}
	}

	if *f.Version {
		_, _ = fmt.Fprintf(out, "%s v%s\n", config.AppName, config.AppVersion)
		return true, nil
	}
	return false, nil
}

// Post runs the client commands against the running service. It returns
// true when a command ran and the process should exit.
func (f *Flags) Post(ctx context.Context, cfg *config.Instance, out io.Writer) (bool, error) {
	c := client.New(cfg.APIPort())

	switch {
	case f.isPassed("switch"):
		if *f.Switch == "" && overlay.Kind(*f.Kind) == overlay.KindGame {
			return true, fmt.Errorf("switch: %w", ErrMissingValue)
		}
		resp, err := c.Switch(ctx, overlay.Kind(*f.Kind), *f.Switch)
		if err != nil {
			log.Error().Err(err).Msg("error switching overlay")
			return true, fmt.Errorf("switch overlay: %w", err)
		}
		return true, printJSON(out, resp)
	case *f.Close:
		resp, err := c.Close(ctx)
		if err != nil {
			log.Error().Err(err).Msg("error closing overlay")
			return true, fmt.Errorf("close overlay: %w", err)
		}
		return true, printJSON(out, resp)
	case *f.Status:
		resp, err := c.Status(ctx)
		if err != nil {
			return true, fmt.Errorf("get status: %w", err)
		}
		return true, printJSON(out, resp)
	case *f.Watch:
		ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		err := c.Events(ctx, func(ev overlay.Event) {
			if err := printJSON(out, ev); err != nil {
				log.Error().Err(err).Msg("error printing event")
			}
		})
		if err != nil {
			return true, fmt.Errorf("watch events: %w", err)
		}
		return true, nil
	}
	return false, nil
}

func printJSON(out io.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	_, err = fmt.Fprintln(out, string(data))
	if err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

// Setup creates the directories, starts logging and loads the config.
//
//nolint:gocritic // config struct copied for immutability
func Setup(dirs helpers.Dirs, defaults config.Values, writers []io.Writer) (*config.Instance, error) {
	if err := helpers.EnsureDirectories(dirs); err != nil {
		return nil, fmt.Errorf("error creating directories: %w", err)
	}

	if err := helpers.InitLogging(dirs.Data, writers); err != nil {
		return nil, fmt.Errorf("error initializing logging: %w", err)
	}

	if _, ok := helpers.HasUserDir(); ok {
		log.Info().Msg("using 'user' directory for storage")
	}

	cfg, err := config.NewConfig(dirs.Config, defaults)
	if err != nil {
		return nil, fmt.Errorf("error loading config: %w", err)
	}

	config.ApplyLogLevel(cfg.DebugLogging())

	if err := telemetry.Init(telemetry.Options{
		Enabled:       cfg.ErrorReporting(),
		DSN:           cfg.SentryDSN(),
		AppVersion:    config.AppVersion,
		HelperVersion: cfg.HelperVersion(),
	}); err != nil {
		log.Warn().Err(err).Msg("failed to initialize error reporting")
	}

	return cfg, nil
}
