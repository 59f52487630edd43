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

package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	apimiddleware "github.com/ZaparooProject/zaparoo-overlay/pkg/api/middleware"
	"github.com/ZaparooProject/zaparoo-overlay/pkg/api/models"
	"github.com/ZaparooProject/zaparoo-overlay/pkg/glosi"
	"github.com/ZaparooProject/zaparoo-overlay/pkg/overlay"
	"github.com/rs/zerolog/log"
)

const maxBodySize = 64 << 10

func (s *Server) status() models.StatusResponse {
	resp := models.StatusResponse{
		Busy:    s.ctrl.Busy(),
		Pending: s.ctrl.Pending(),
	}
	if o := s.ctrl.Current(); o != nil {
		snap := o.Snapshot()
		resp.Overlay = &snap
	}
	return resp
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.status())
}

func (s *Server) handleSwitch(w http.ResponseWriter, r *http.Request) {
	var req models.SwitchRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}

	o, err := s.builder.New(req.Kind, req.Name)
	if err != nil {
		writeError(w, r, statusFor(err), err)
		return
	}

	log.Info().
		Str("kind", string(req.Kind)).
		Str("overlay", o.Name()).
		Str("request", apimiddleware.GetRequestID(r.Context()).String()).
		Msg("switch requested")

	if err := s.ctrl.SwitchTo(r.Context(), o); err != nil {
		// Leave nothing half-running behind a failed switch.
		if closeErr := s.ctrl.Close(context.WithoutCancel(r.Context())); closeErr != nil {
			log.Error().Err(closeErr).Msg("error closing overlay after failed switch")
		}
		writeError(w, r, statusFor(err), err)
		return
	}

	writeJSON(w, http.StatusOK, s.status())
}

func (s *Server) handleClose(w http.ResponseWriter, r *http.Request) {
	log.Info().
		Str("request", apimiddleware.GetRequestID(r.Context()).String()).
		Msg("close requested")

	if err := s.ctrl.Close(r.Context()); err != nil {
		writeError(w, r, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, s.status())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, overlay.ErrUnknownKind), errors.Is(err, models.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, overlay.ErrNotRunnable):
		return http.StatusUnprocessableEntity
	case errors.Is(err, glosi.ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, overlay.ErrExiting):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("error writing api response")
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	writeJSON(w, status, models.ErrorResponse{
		Error:     err.Error(),
		RequestID: apimiddleware.GetRequestID(r.Context()).String(),
	})
}
