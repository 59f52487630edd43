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

// Package models holds the request and response bodies of the control API.
package models

import (
	"errors"
	"fmt"

	"github.com/ZaparooProject/zaparoo-overlay/pkg/overlay"
	"github.com/go-playground/validator/v10"
)

const (
	PathOverlay = "/api/overlay"
	PathSwitch  = "/api/overlay/switch"
	PathClose   = "/api/overlay/close"
	PathEvents  = "/api/events"
)

var ErrInvalidRequest = errors.New("invalid request")

var validate = validator.New(validator.WithRequiredStructEnabled())

// SwitchRequest asks the service to switch to an overlay. Game overlays
// need a name; the other kinds fall back to configured defaults.
type SwitchRequest struct {
	Kind overlay.Kind `json:"kind" validate:"required,oneof=game app default external"`
	Name string       `json:"name" validate:"required_if=Kind game,max=255"`
}

// Validate checks the request fields.
func (r *SwitchRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	return nil
}

// StatusResponse describes the overlay slot.
type StatusResponse struct {
	Overlay *overlay.Snapshot `json:"overlay"`
	Busy    bool              `json:"busy"`
	Pending int               `json:"pending"`
}

// ErrorResponse is returned with every non-2xx status.
type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"requestId,omitempty"`
}
