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

// Package api is the local HTTP control surface of the overlay service. It
// lets the launcher integration switch and close overlays and streams
// lifecycle events over a websocket.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	apimiddleware "github.com/ZaparooProject/zaparoo-overlay/pkg/api/middleware"
	"github.com/ZaparooProject/zaparoo-overlay/pkg/api/models"
	"github.com/ZaparooProject/zaparoo-overlay/pkg/overlay"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/olahol/melody"
	"github.com/rs/zerolog/log"
)

const (
	// RequestTimeout bounds the wait for a turn at the coordinator. A
	// switch that has started is not cancelled by it.
	RequestTimeout  = 60 * time.Second
	shutdownTimeout = 5 * time.Second
)

// Controller is the part of the coordinator the API drives.
type Controller interface {
	Current() *overlay.Overlay
	SwitchTo(ctx context.Context, o *overlay.Overlay) error
	Close(ctx context.Context) error
	Busy() bool
	Pending() int
}

// Builder creates overlays for requests.
type Builder interface {
	New(kind overlay.Kind, name string) (*overlay.Overlay, error)
}

// Options configures a Server.
type Options struct {
	AllowedOrigins []string
	RateLimit      int
}

// Server serves the control API.
type Server struct {
	ctrl    Controller
	builder Builder
	router  chi.Router
	ws      *melody.Melody
	limiter *apimiddleware.IPRateLimiter
}

func NewServer(ctrl Controller, builder Builder, opts Options) *Server {
	s := &Server{
		ctrl:    ctrl,
		builder: builder,
		ws:      melody.New(),
		limiter: apimiddleware.NewIPRateLimiter(opts.RateLimit),
	}

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:*", "http://127.0.0.1:*"}
	}

	// Events are server to client only.
	s.ws.HandleConnect(func(session *melody.Session) {
		log.Debug().Str("remote", session.Request.RemoteAddr).Msg("event stream client connected")
	})
	s.ws.HandleDisconnect(func(session *melody.Session) {
		log.Debug().Str("remote", session.Request.RemoteAddr).Msg("event stream client disconnected")
	})

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.NoCache)
	r.Use(apimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Accept", "Content-Type", apimiddleware.RequestIDHeader},
		ExposedHeaders: []string{apimiddleware.RequestIDHeader},
	}))
	r.Use(apimiddleware.HTTPRateLimitMiddleware(s.limiter))

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(RequestTimeout))
		r.Get(models.PathOverlay, s.handleStatus)
		r.Post(models.PathSwitch, s.handleSwitch)
		r.Post(models.PathClose, s.handleClose)
	})

	r.Get(models.PathEvents, func(w http.ResponseWriter, r *http.Request) {
		if err := s.ws.HandleRequest(w, r); err != nil {
			log.Error().Err(err).Msg("handling event stream request")
		}
	})

	s.router = r
	return s
}

// Handler returns the HTTP handler of the API.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Broadcast forwards coordinator events to every event stream client until
// ctx is done or events is closed.
func (s *Server) Broadcast(ctx context.Context, events <-chan overlay.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				log.Error().Err(err).Msg("error marshalling overlay event")
				continue
			}
			if err := s.ws.Broadcast(data); err != nil {
				log.Debug().Err(err).Msg("error broadcasting overlay event")
			}
		}
	}
}

// Serve listens on addr until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, addr string) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.serve(ctx, ln)
}

func (s *Server) serve(ctx context.Context, ln net.Listener) error {
	s.limiter.StartCleanup(ctx)

	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		log.Info().Str("addr", ln.Addr().String()).Msg("control api listening")
		errs <- srv.Serve(ln)
	}()

	select {
	case err := <-errs:
		_ = s.ws.Close()
		return fmt.Errorf("control api stopped: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := s.ws.Close(); err != nil {
		log.Debug().Err(err).Msg("error closing event streams")
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down control api: %w", err)
	}
	if err := <-errs; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("control api stopped: %w", err)
	}
	return nil
}
