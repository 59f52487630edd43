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

// Package telemetry reports service errors to Sentry when the user opts in.
// Events carry the recent overlay lifecycle as breadcrumbs, and user names
// are stripped from every path before an event leaves the machine.
package telemetry

import (
	"fmt"
	"regexp"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ZaparooProject/zaparoo-overlay/pkg/config"
	"github.com/ZaparooProject/zaparoo-overlay/pkg/helpers"
	"github.com/ZaparooProject/zaparoo-overlay/pkg/overlay"
	"github.com/getsentry/sentry-go"
	sentryzerolog "github.com/getsentry/sentry-go/zerolog"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	flushTimeout   = 2 * time.Second
	maxBreadcrumbs = 30
)

// Options configures error reporting.
type Options struct {
	DSN           string
	AppVersion    string
	HelperVersion string
	Enabled       bool
}

var (
	enabled      atomic.Bool
	sentryWriter *sentryzerolog.Writer
	closeOnce    sync.Once

	homePathRe    = regexp.MustCompile(`(?i)/home/[^/]+/`)
	usersPathRe   = regexp.MustCompile(`(?i)/Users/[^/]+/`)
	windowsUserRe = regexp.MustCompile(`(?i)([a-z]):\\Users\\[^\\]+\\`)
)

// Init starts Sentry and tees error-level logs into it. Reporting stays off
// unless it is enabled and a DSN is configured.
func Init(opts Options) error {
	if !opts.Enabled {
		log.Debug().Msg("error reporting disabled")
		return nil
	}
	if opts.DSN == "" {
		log.Warn().Msg("error reporting enabled but no sentry dsn set")
		return nil
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              opts.DSN,
		Release:          config.AppName + "@" + opts.AppVersion,
		Environment:      runtime.GOOS,
		AttachStacktrace: true,
		SendDefaultPII:   false,
		MaxBreadcrumbs:   maxBreadcrumbs,
		BeforeSend: func(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
			return sanitizeEvent(event)
		},
	})
	if err != nil {
		return fmt.Errorf("failed to initialize sentry: %w", err)
	}

	sentry.ConfigureScope(func(scope *sentry.Scope) {
		scope.SetTag("arch", runtime.GOARCH)
		if opts.HelperVersion != "" {
			scope.SetTag("helper_version", opts.HelperVersion)
		}
	})

	sentryWriter, err = sentryzerolog.NewWithHub(sentry.CurrentHub(), sentryzerolog.Options{
		Levels:       []zerolog.Level{zerolog.ErrorLevel, zerolog.FatalLevel, zerolog.PanicLevel},
		FlushTimeout: flushTimeout,
	})
	if err != nil {
		return fmt.Errorf("failed to create sentry zerolog writer: %w", err)
	}

	log.Logger = log.Output(zerolog.MultiLevelWriter(
		helpers.LogWriter(),
		sentryWriter,
	)).With().Timestamp().Caller().Logger()

	enabled.Store(true)
	log.Info().Msg("error reporting enabled")
	return nil
}

// RecordEvent adds an overlay lifecycle event to the breadcrumb trail sent
// with the next error report. Overlay names are kept; paths are not.
func RecordEvent(ev overlay.Event) {
	if !enabled.Load() {
		return
	}
	sentry.AddBreadcrumb(breadcrumbFor(ev))
}

func breadcrumbFor(ev overlay.Event) *sentry.Breadcrumb {
	level := sentry.LevelInfo
	data := map[string]any{
		"name":        ev.Overlay.Name,
		"kind":        string(ev.Overlay.Kind),
		"phase":       ev.Overlay.Phase,
		"startedByUs": ev.Overlay.StartedByUs,
	}
	if ev.Exit != nil {
		data["exitCode"] = ev.Exit.Code
		data["closedByUs"] = ev.Exit.ClosedByUs
	}
	if ev.Error != "" {
		level = sentry.LevelError
		data["error"] = sanitizePath(ev.Error)
	}
	return &sentry.Breadcrumb{
		Type:      "default",
		Category:  "overlay",
		Message:   string(ev.Type),
		Level:     level,
		Data:      data,
		Timestamp: ev.Time,
	}
}

// Close flushes pending events and shuts down Sentry. Safe to call more than
// once.
func Close() {
	if !enabled.Load() {
		return
	}
	closeOnce.Do(func() {
		_ = sentryWriter.Close()
		sentry.Flush(flushTimeout)
	})
}

// Flush sends pending events. Call it before os.Exit.
func Flush() {
	if !enabled.Load() {
		return
	}
	sentry.Flush(flushTimeout)
}

func Enabled() bool {
	return enabled.Load()
}

func sanitizeEvent(event *sentry.Event) *sentry.Event {
	event.ServerName = ""
	event.User = sentry.User{}

	for i := range event.Exception {
		if st := event.Exception[i].Stacktrace; st != nil {
			for j := range st.Frames {
				st.Frames[j].AbsPath = sanitizePath(st.Frames[j].AbsPath)
				st.Frames[j].Filename = sanitizePath(st.Frames[j].Filename)
			}
		}
		event.Exception[i].Value = sanitizePath(event.Exception[i].Value)
	}

	event.Message = sanitizePath(event.Message)

	for k, v := range event.Extra {
		if s, ok := v.(string); ok {
			event.Extra[k] = sanitizePath(s)
		}
	}

	for _, b := range event.Breadcrumbs {
		b.Message = sanitizePath(b.Message)
		for k, v := range b.Data {
			if s, ok := v.(string); ok {
				b.Data[k] = sanitizePath(s)
			}
		}
	}

	return event
}

// sanitizePath replaces the user name segment of home directory paths.
func sanitizePath(path string) string {
	if path == "" {
		return path
	}

	result := homePathRe.ReplaceAllString(path, "/home/<user>/")
	result = usersPathRe.ReplaceAllString(result, "/Users/<user>/")
	return windowsUserRe.ReplaceAllStringFunc(result, func(m string) string {
		return string(m[0]&^0x20) + `:\Users\<user>\`
	})
}
