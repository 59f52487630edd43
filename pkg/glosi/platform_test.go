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

package glosi

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchesProcessName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		actual string
		want   bool
	}{
		{actual: "GlosSITarget.exe", want: true},
		{actual: "glossitarget.EXE", want: true},
		{actual: "GlosSITarget", want: true},
		{actual: "GlosSITarget.ex", want: true},
		{actual: "GlosSIConfig.exe", want: false},
		{actual: "GlosSI", want: false},
		{actual: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.actual, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, matchesProcessName(tt.actual, ProcessName))
		})
	}
}

type stubHandle struct {
	closeErr error
	code     int
	closes   int
}

func (h *stubHandle) Wait(context.Context) (int, error) {
	return h.code, nil
}

func (h *stubHandle) Close() error {
	h.closes++
	return h.closeErr
}

func TestProcess_WaitAndRelease(t *testing.T) {
	t.Parallel()

	h := &stubHandle{code: 3}
	p := NewProcess(12, h)
	assert.Equal(t, 12, p.PID())

	code, err := p.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, code)

	require.NoError(t, p.Release())
	require.NoError(t, p.Release())
	assert.Equal(t, 1, h.closes)

	code, err = p.Wait(context.Background())
	require.ErrorIs(t, err, ErrReleased)
	assert.Equal(t, ExitCodeUnknown, code)
}

func TestProcess_ReleaseError(t *testing.T) {
	t.Parallel()

	p := NewProcess(12, &stubHandle{closeErr: errors.New("bad handle")})
	err := p.Release()
	require.ErrorIs(t, err, ErrPlatform)
	require.ErrorIs(t, p.Release(), ErrPlatform)
}

func TestReleaseAll(t *testing.T) {
	t.Parallel()

	a := &stubHandle{}
	b := &stubHandle{closeErr: errors.New("bad handle")}
	c := &stubHandle{}

	err := releaseAll([]*Process{NewProcess(1, a), NewProcess(2, b), NewProcess(3, c)})
	require.ErrorIs(t, err, ErrPlatform)
	assert.Equal(t, 1, a.closes)
	assert.Equal(t, 1, b.closes)
	assert.Equal(t, 1, c.closes)
}
