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

package overlay

import "github.com/rs/zerolog/log"

// Phase is the lifecycle position of one Overlay instance.
type Phase int

const (
	PhaseCreated Phase = iota
	PhaseStarting
	PhaseRunning
	PhaseClosing
	PhaseClosed
)

func (p Phase) String() string {
	switch p {
	case PhaseCreated:
		return "created"
	case PhaseStarting:
		return "starting"
	case PhaseRunning:
		return "running"
	case PhaseClosing:
		return "closing"
	case PhaseClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Replaced and adopted overlays skip Starting, and a failed or externally
// ended start goes straight to Closed.
var transitions = map[Phase][]Phase{
	PhaseCreated:  {PhaseStarting, PhaseRunning, PhaseClosed},
	PhaseStarting: {PhaseRunning, PhaseClosed},
	PhaseRunning:  {PhaseClosing, PhaseClosed},
	PhaseClosing:  {PhaseClosed},
}

// CanTransition reports whether moving from one phase to another is valid.
func CanTransition(from, to Phase) bool {
	for _, p := range transitions[from] {
		if p == to {
			return true
		}
	}
	return false
}

// setPhaseLocked moves o to phase. Invalid transitions are logged and then
// applied anyway; the coordinator's view of the process wins over the
// bookkeeping. Must be called with o.mu held.
func (o *Overlay) setPhaseLocked(to Phase) {
	from := o.phase
	if from == to {
		return
	}
	if !CanTransition(from, to) {
		log.Error().
			Str("overlay", o.name).
			Stringer("from", from).
			Stringer("to", to).
			Msg("invalid overlay phase transition")
	}
	o.phase = to
}
