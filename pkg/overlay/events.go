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

import (
	"time"

	"github.com/rs/zerolog/log"
)

// EventType names a coordinator lifecycle event.
type EventType string

const (
	EventStarted      EventType = "overlay.started"
	EventClosed       EventType = "overlay.closed"
	EventReplaced     EventType = "overlay.replaced"
	EventAdopted      EventType = "overlay.adopted"
	EventSwitchFailed EventType = "overlay.switch_failed"
)

// Event is published by the Coordinator as overlays change.
type Event struct {
	Time    time.Time `json:"time"`
	Type    EventType `json:"type"`
	Error   string    `json:"error,omitempty"`
	Overlay Snapshot  `json:"overlay"`
	Exit    *Exit     `json:"exit,omitempty"`
}

func (c *Coordinator) publish(t EventType, o *Overlay, exit *Exit, err error) {
	if c.events == nil {
		return
	}
	ev := Event{
		Time:    time.Now(),
		Type:    t,
		Overlay: o.Snapshot(),
		Exit:    exit,
	}
	if err != nil {
		ev.Error = err.Error()
	}
	select {
	case c.events <- ev:
	default:
		log.Debug().Str("event", string(t)).Msg("event channel full, dropping event")
	}
}
