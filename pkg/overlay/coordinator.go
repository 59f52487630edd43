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
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ZaparooProject/zaparoo-overlay/pkg/glosi"
	"github.com/ZaparooProject/zaparoo-overlay/pkg/helpers/syncutil"
	"github.com/rs/zerolog/log"
)

const (
	DefaultProcessStartTimeout = 15 * time.Second
	DefaultWindowStartTimeout  = 10 * time.Second
	DefaultCloseTimeout        = 10 * time.Second
)

// ErrExiting is returned for switch requests made after Exit was called.
var ErrExiting = errors.New("overlay coordinator is exiting")

// Probe finds, waits for and closes the helper process.
type Probe interface {
	FindRunning() (*glosi.Process, error)
	WaitForProcessStart(ctx context.Context, timeout time.Duration, excludePID int) (*glosi.Process, error)
	WaitForWindowStart(ctx context.Context, timeout time.Duration) error
	Close() error
	ReplacesOldAutomatically() bool
}

// Launcher starts a shortcut by identity.
type Launcher interface {
	Launch(ctx context.Context, id uint64) error
}

// SettingsReader reads the effective settings of the running helper.
type SettingsReader interface {
	Settings(ctx context.Context) (*glosi.Target, error)
}

// Resolver checks overlays before they are started and names helper
// instances found running.
type Resolver interface {
	Runnable(o *Overlay) error
	External(name string) *Overlay
}

// Options configures a Coordinator.
type Options struct {
	// Events receives lifecycle events. Sends never block.
	Events              chan<- Event
	ProcessStartTimeout time.Duration
	WindowStartTimeout  time.Duration
	CloseTimeout        time.Duration
	// CloseUnrelatedOnClose makes Close also close a helper instance this
	// service does not track. Exit always does.
	CloseUnrelatedOnClose bool
}

func (o *Options) setDefaults() {
	if o.ProcessStartTimeout <= 0 {
		o.ProcessStartTimeout = DefaultProcessStartTimeout
	}
	if o.WindowStartTimeout <= 0 {
		o.WindowStartTimeout = DefaultWindowStartTimeout
	}
	if o.CloseTimeout <= 0 {
		o.CloseTimeout = DefaultCloseTimeout
	}
}

// session is one tracked helper process. The owner changes on replace; the
// process and the watcher do not.
type session struct {
	proc  *glosi.Process
	owner *Overlay
	done  chan struct{}
}

// Coordinator owns the single helper process slot.
type Coordinator struct {
	probe    Probe
	launcher Launcher
	live     SettingsReader
	resolver Resolver
	serial   *syncutil.Serializer
	events   chan<- Event
	session  *session
	watchers sync.WaitGroup
	opts     Options
	mu       syncutil.Mutex
	exiting  bool
}

// NewCoordinator creates a Coordinator. live may be nil, in which case a
// running helper instance is never adopted, only closed.
func NewCoordinator(
	probe Probe,
	launcher Launcher,
	live SettingsReader,
	resolver Resolver,
	opts Options,
) *Coordinator {
	opts.setDefaults()
	return &Coordinator{
		probe:    probe,
		launcher: launcher,
		live:     live,
		resolver: resolver,
		serial:   syncutil.NewSerializer(),
		events:   opts.Events,
		opts:     opts,
	}
}

// Current returns the overlay that owns the helper process, or nil.
func (c *Coordinator) Current() *Overlay {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil
	}
	return c.session.owner
}

// IsCurrent reports whether o owns the helper process.
func (c *Coordinator) IsCurrent(o *Overlay) bool {
	return o != nil && c.Current() == o
}

// SwitchTo makes o the running overlay. An overlay with the same identity
// as the current one takes over its process without a restart. The context
// only bounds the wait for earlier requests; once started, a switch runs to
// completion.
func (c *Coordinator) SwitchTo(ctx context.Context, o *Overlay) error {
	if o == nil {
		return errors.New("switch to nil overlay")
	}
	if err := c.resolver.Runnable(o); err != nil {
		c.publish(EventSwitchFailed, o, nil, err)
		return err //nolint:wrapcheck // resolver errors wrap ErrNotRunnable
	}

	err := c.serial.Do(ctx, func(ctx context.Context) error {
		return c.switchTo(context.WithoutCancel(ctx), o)
	})
	if err != nil {
		log.Error().Err(err).Str("overlay", o.Name()).Msg("overlay switch failed")
		c.publish(EventSwitchFailed, o, nil, err)
		return fmt.Errorf("switch to %q: %w", o.Name(), err)
	}
	return nil
}

// Close closes the current overlay and waits for its process to exit.
func (c *Coordinator) Close(ctx context.Context) error {
	err := c.serial.Do(ctx, func(ctx context.Context) error {
		return c.closeCurrent(context.WithoutCancel(ctx), c.opts.CloseUnrelatedOnClose)
	})
	if err != nil {
		return fmt.Errorf("close overlay: %w", err)
	}
	return nil
}

// Exit closes any helper instance, tracked or not, then waits for queued
// requests and exit watchers to finish. It is meant for shutdown.
func (c *Coordinator) Exit(ctx context.Context) error {
	c.mu.Lock()
	c.exiting = true
	c.mu.Unlock()

	closeErr := c.serial.Do(ctx, func(ctx context.Context) error {
		return c.closeCurrent(context.WithoutCancel(ctx), true)
	})
	if closeErr != nil {
		log.Error().Err(closeErr).Msg("error closing overlay on exit")
	}

	if err := c.serial.Wait(ctx); err != nil {
		return fmt.Errorf("wait for overlay requests: %w", err)
	}

	done := make(chan struct{})
	go func() {
		c.watchers.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return fmt.Errorf("wait for overlay exit watchers: %w", ctx.Err())
	}

	if closeErr != nil {
		return fmt.Errorf("close overlay: %w", closeErr)
	}
	return nil
}

func (c *Coordinator) current() *session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

func (c *Coordinator) switchTo(ctx context.Context, o *Overlay) error {
	c.mu.Lock()
	exiting := c.exiting
	c.mu.Unlock()
	if exiting {
		return ErrExiting
	}

	s := c.current()
	if s != nil {
		c.mu.Lock()
		owner := s.owner
		c.mu.Unlock()

		if owner == o {
			log.Warn().Str("overlay", o.Name()).Msg("overlay is already current")
			return nil
		}
		if owner.ID() == o.ID() && c.replace(s, o) {
			return nil
		}
	} else if c.adopt(ctx, o) {
		return nil
	}

	return c.start(ctx, o, c.current())
}

// replace hands the running process to o. It fails when the process exited
// in the meantime.
func (c *Coordinator) replace(s *session, o *Overlay) bool {
	c.mu.Lock()
	if c.session != s {
		c.mu.Unlock()
		return false
	}
	prev := s.owner
	transfer(o, prev)
	s.owner = o
	c.mu.Unlock()

	log.Info().
		Str("overlay", o.Name()).
		Str("previous", prev.Name()).
		Uint64("id", o.ID()).
		Msg("replaced overlay without restart")
	c.publish(EventReplaced, o, nil, nil)
	return true
}

// adopt looks for a helper started by someone else. A matching instance is
// handed to o. Any other instance is tracked as an external overlay so the
// start path closes it like one of our own.
func (c *Coordinator) adopt(ctx context.Context, o *Overlay) bool {
	proc, err := c.probe.FindRunning()
	if err != nil {
		log.Warn().Err(err).Msg("error looking for running helper")
		return false
	}
	if proc == nil {
		return false
	}

	var name string
	if c.live != nil {
		settings, err := c.live.Settings(ctx)
		if err != nil {
			log.Warn().Err(err).Int("pid", proc.PID()).Msg("could not read running helper settings")
		} else {
			name = settings.Name
		}
	}
	ext := c.resolver.External(name)

	c.mu.Lock()
	if c.session != nil {
		c.mu.Unlock()
		log.Error().Int("pid", proc.PID()).Msg("overlay slot taken while probing for running helper")
		_ = proc.Release()
		return false
	}
	owner := ext
	if name != "" && ext.ID() == o.ID() {
		owner = o
	}
	owner.adopt(proc)
	s := &session{proc: proc, owner: owner, done: make(chan struct{})}
	c.session = s
	c.mu.Unlock()
	c.watch(s)

	if owner == o {
		log.Info().Str("overlay", o.Name()).Int("pid", proc.PID()).Msg("adopted running helper")
		c.publish(EventAdopted, o, nil, nil)
		return true
	}
	log.Info().
		Str("running", name).
		Str("overlay", o.Name()).
		Int("pid", proc.PID()).
		Msg("running helper belongs to another target, replacing it")
	return false
}

func (c *Coordinator) start(ctx context.Context, o *Overlay, prev *session) error {
	if err := o.beforeStart(ctx); err != nil {
		o.closed(glosi.ExitCodeUnknown, false)
		return fmt.Errorf("prepare overlay: %w", err)
	}

	autoReplace := c.probe.ReplacesOldAutomatically()
	var oldPID int
	if prev != nil {
		oldPID = prev.proc.PID()
		c.ownerOf(prev).beforeClose()
		if !autoReplace {
			if err := c.probe.Close(); err != nil {
				log.Warn().Err(err).Msg("error closing previous helper")
			}
			if !c.await(prev) {
				o.closed(glosi.ExitCodeUnknown, false)
				return fmt.Errorf("%w: previous helper did not exit within %s", glosi.ErrTimeout, c.opts.CloseTimeout)
			}
		}
	}

	log.Info().Str("overlay", o.Name()).Uint64("id", o.ID()).Msg("launching overlay")
	if err := c.launcher.Launch(ctx, o.ID()); err != nil {
		if prev != nil && autoReplace {
			if cerr := c.probe.Close(); cerr != nil {
				log.Warn().Err(cerr).Msg("error closing previous helper")
			}
			c.await(prev)
		}
		o.closed(glosi.ExitCodeUnknown, false)
		return fmt.Errorf("launch shortcut: %w", err)
	}

	proc, err := c.probe.WaitForProcessStart(ctx, c.opts.ProcessStartTimeout, oldPID)
	if err != nil {
		if prev != nil && autoReplace {
			// The new instance never showed up, so the only window left
			// is the previous one.
			if cerr := c.probe.Close(); cerr != nil {
				log.Warn().Err(cerr).Msg("error closing previous helper")
			}
			c.await(prev)
		}
		o.closed(glosi.ExitCodeUnknown, false)
		return fmt.Errorf("wait for helper process: %w", err)
	}

	if prev != nil && autoReplace && !c.await(prev) {
		c.abandon(prev)
	}

	if err := c.probe.WaitForWindowStart(ctx, c.opts.WindowStartTimeout); err != nil {
		log.Warn().Err(err).Str("overlay", o.Name()).Msg("helper window did not appear")
	}

	o.started(proc)

	s := &session{proc: proc, owner: o, done: make(chan struct{})}
	c.mu.Lock()
	if c.session != nil {
		log.Error().
			Str("stale", c.session.owner.Name()).
			Str("overlay", o.Name()).
			Msg("overlay slot not empty after start, replacing stale session")
	}
	c.session = s
	c.mu.Unlock()
	c.watch(s)

	log.Info().Str("overlay", o.Name()).Int("pid", proc.PID()).Msg("overlay started")
	c.publish(EventStarted, o, nil, nil)
	return nil
}

func (c *Coordinator) closeCurrent(ctx context.Context, unrelated bool) error {
	s := c.current()
	if s == nil {
		if !unrelated {
			return nil
		}
		return c.closeUnrelated(ctx)
	}

	owner := c.ownerOf(s)
	log.Info().Str("overlay", owner.Name()).Msg("closing overlay")
	owner.beforeClose()
	if err := c.probe.Close(); err != nil {
		log.Warn().Err(err).Str("overlay", owner.Name()).Msg("error closing helper")
	}
	if !c.await(s) {
		return fmt.Errorf("%w: helper did not exit within %s", glosi.ErrTimeout, c.opts.CloseTimeout)
	}
	return nil
}

// closeUnrelated closes a helper instance nobody here started.
func (c *Coordinator) closeUnrelated(ctx context.Context) error {
	proc, err := c.probe.FindRunning()
	if err != nil {
		log.Warn().Err(err).Msg("error looking for running helper")
		return nil
	}
	if proc == nil {
		return nil
	}
	defer func() { _ = proc.Release() }()

	log.Info().Int("pid", proc.PID()).Msg("closing untracked helper")
	if err := c.probe.Close(); err != nil {
		log.Warn().Err(err).Msg("error closing untracked helper")
		return nil
	}

	waitCtx, cancel := context.WithTimeout(ctx, c.opts.CloseTimeout)
	defer cancel()
	if _, err := proc.Wait(waitCtx); err != nil {
		return fmt.Errorf("%w: untracked helper did not exit: %w", glosi.ErrTimeout, err)
	}
	return nil
}

func (c *Coordinator) ownerOf(s *session) *Overlay {
	c.mu.Lock()
	defer c.mu.Unlock()
	return s.owner
}

// await waits for a session's exit watcher. A session that outlives the
// close timeout stays in the slot, so a later close or switch deals with it.
func (c *Coordinator) await(s *session) bool {
	timer := time.NewTimer(c.opts.CloseTimeout)
	defer timer.Stop()

	select {
	case <-s.done:
		return true
	case <-timer.C:
	}

	log.Error().
		Int("pid", s.proc.PID()).
		Dur("timeout", c.opts.CloseTimeout).
		Msg("helper did not exit in time")
	return false
}

// abandon gives up the slot of a session whose process outlived a
// successful auto-replace. Its owner drops the handle; the watcher keeps it
// and still reports the exit to that owner.
func (c *Coordinator) abandon(s *session) {
	c.mu.Lock()
	if c.session == s {
		c.session = nil
	}
	owner := s.owner
	c.mu.Unlock()
	owner.dropProcess()

	log.Warn().
		Int("pid", s.proc.PID()).
		Str("overlay", owner.Name()).
		Msg("previous helper still running after replace, no longer tracking it")
}

// watch starts the exit watcher of a session. It clears the slot when the
// process exits and runs the Closed hook of whoever owns the session then.
func (c *Coordinator) watch(s *session) {
	c.watchers.Add(1)
	go func() {
		defer c.watchers.Done()
		defer close(s.done)

		code := c.waitExit(s)

		c.mu.Lock()
		if c.session == s {
			c.session = nil
		}
		owner := s.owner
		c.mu.Unlock()

		exit, ok := c.runClosed(owner, code)
		if err := s.proc.Release(); err != nil {
			log.Warn().Err(err).Msg("error releasing helper process")
		}

		if ok {
			c.publish(EventClosed, owner, &exit, nil)
		} else {
			c.publish(EventClosed, owner, nil, nil)
		}
	}()
}

func (c *Coordinator) waitExit(s *session) (code int) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Int("pid", s.proc.PID()).Msg("panic waiting for helper exit")
			code = glosi.ExitCodeUnknown
		}
	}()

	code, err := s.proc.Wait(context.Background())
	if err != nil {
		log.Error().Err(err).Int("pid", s.proc.PID()).Msg("error waiting for helper exit")
		return glosi.ExitCodeUnknown
	}
	log.Debug().Int("pid", s.proc.PID()).Int("code", code).Msg("helper exited")
	return code
}

func (*Coordinator) runClosed(o *Overlay, code int) (exit Exit, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("overlay", o.Name()).Msg("panic in overlay closed hook")
			ok = false
		}
	}()
	return o.closed(code, true)
}

// Busy reports whether a switch or close request is in progress.
func (c *Coordinator) Busy() bool {
	return c.serial.Busy()
}

// Pending returns the number of requests waiting behind the current one.
func (c *Coordinator) Pending() int {
	return c.serial.Pending()
}
