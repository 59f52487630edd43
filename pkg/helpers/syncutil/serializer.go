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

package syncutil

import (
	"context"
	"fmt"
)

// Serializer runs functions one at a time in the order they arrived.
//
// Callers queue behind the running function on an explicit FIFO of waiter
// channels. A function begins only after the previous one has fully
// returned, including when it panicked.
type Serializer struct {
	waiters []chan struct{}
	idle    []chan struct{}
	mu      Mutex
	running bool
}

// NewSerializer returns an idle Serializer.
func NewSerializer() *Serializer {
	return &Serializer{}
}

// Do waits for its turn and then runs fn. The context only bounds the wait
// for a turn; once fn starts it runs to completion and receives ctx as is.
func (s *Serializer) Do(ctx context.Context, fn func(context.Context) error) error {
	if err := s.acquire(ctx); err != nil {
		return err
	}
	defer s.release()
	return fn(ctx)
}

// Pending returns the number of callers waiting for a turn.
func (s *Serializer) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.waiters)
}

// Busy reports whether a function is currently running.
func (s *Serializer) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Wait blocks until no function is running and the queue is empty.
func (s *Serializer) Wait(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	ch := make(chan struct{})
	s.idle = append(s.idle, ch)
	s.mu.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for serializer to drain: %w", ctx.Err())
	}
}

func (s *Serializer) acquire(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.running = true
		s.mu.Unlock()
		return nil
	}
	turn := make(chan struct{})
	s.waiters = append(s.waiters, turn)
	s.mu.Unlock()

	select {
	case <-turn:
		return nil
	case <-ctx.Done():
	}

	s.mu.Lock()
	for i, w := range s.waiters {
		if w == turn {
			s.waiters = append(s.waiters[:i], s.waiters[i+1:]...)
			s.mu.Unlock()
			return fmt.Errorf("waiting for serializer turn: %w", ctx.Err())
		}
	}
	s.mu.Unlock()

	// the turn was handed over while the context was cancelled, pass it on
	<-turn
	s.release()
	return fmt.Errorf("waiting for serializer turn: %w", ctx.Err())
}

func (s *Serializer) release() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.waiters) > 0 {
		next := s.waiters[0]
		s.waiters = s.waiters[1:]
		close(next)
		return
	}

	s.running = false
	for _, ch := range s.idle {
		close(ch)
	}
	s.idle = nil
}
