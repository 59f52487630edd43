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
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	apimiddleware "github.com/ZaparooProject/zaparoo-overlay/pkg/api/middleware"
	"github.com/ZaparooProject/zaparoo-overlay/pkg/api/models"
	"github.com/ZaparooProject/zaparoo-overlay/pkg/glosi"
	"github.com/ZaparooProject/zaparoo-overlay/pkg/overlay"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockController struct {
	mock.Mock
	current *overlay.Overlay
}

func (m *mockController) Current() *overlay.Overlay {
	return m.current
}

func (m *mockController) SwitchTo(ctx context.Context, o *overlay.Overlay) error {
	args := m.Called(ctx, o)
	if args.Error(0) == nil {
		m.current = o
	}
	return args.Error(0)
}

func (m *mockController) Close(ctx context.Context) error {
	args := m.Called(ctx)
	if args.Error(0) == nil {
		m.current = nil
	}
	return args.Error(0)
}

func (*mockController) Busy() bool { return false }
func (*mockController) Pending() int { return 0 }

func newTestServer(t *testing.T, opts Options) (*Server, *mockController) {
	t.Helper()
	ctrl := &mockController{}
	factory := overlay.NewFactory(overlay.FactoryOptions{
		Paths:       glosi.Paths{InstallDir: `C:\Program Files\GlosSI`},
		AppName:     "Playnite",
		DefaultName: "Desktop",
	})
	return NewServer(ctrl, factory, opts), ctrl
}

func doRequest(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.RemoteAddr = "127.0.0.1:50000"
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

func TestStatus_Idle(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t, Options{})

	w := doRequest(t, s, http.MethodGet, models.PathOverlay, "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(apimiddleware.RequestIDHeader))
	resp := decode[models.StatusResponse](t, w)
	assert.Nil(t, resp.Overlay)
	assert.False(t, resp.Busy)
}

func TestSwitch_Success(t *testing.T) {
	t.Parallel()
	s, ctrl := newTestServer(t, Options{})
	ctrl.On("SwitchTo", mock.Anything, mock.MatchedBy(func(o *overlay.Overlay) bool {
		return o.Name() == "Celeste" && o.Kind() == overlay.KindGame
	})).Return(nil)

	w := doRequest(t, s, http.MethodPost, models.PathSwitch, `{"kind":"game","name":"Celeste"}`)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[models.StatusResponse](t, w)
	require.NotNil(t, resp.Overlay)
	assert.Equal(t, "Celeste", resp.Overlay.Name)
	assert.Equal(t, overlay.KindGame, resp.Overlay.Kind)
	ctrl.AssertExpectations(t)
}

func TestSwitch_DefaultsAppName(t *testing.T) {
	t.Parallel()
	s, ctrl := newTestServer(t, Options{})
	ctrl.On("SwitchTo", mock.Anything, mock.MatchedBy(func(o *overlay.Overlay) bool {
		return o.Name() == "Playnite" && o.Kind() == overlay.KindApp
	})).Return(nil)

	w := doRequest(t, s, http.MethodPost, models.PathSwitch, `{"kind":"app"}`)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	ctrl.AssertExpectations(t)
}

func TestSwitch_InvalidRequests(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
	}{
		{name: "malformed json", body: `{"kind":`},
		{name: "missing kind", body: `{"name":"Celeste"}`},
		{name: "unknown kind", body: `{"kind":"menu","name":"Celeste"}`},
		{name: "game without name", body: `{"kind":"game"}`},
		{name: "unknown field", body: `{"kind":"game","name":"Celeste","force":true}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s, ctrl := newTestServer(t, Options{})

			w := doRequest(t, s, http.MethodPost, models.PathSwitch, tt.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			resp := decode[models.ErrorResponse](t, w)
			assert.NotEmpty(t, resp.Error)
			assert.Equal(t, w.Header().Get(apimiddleware.RequestIDHeader), resp.RequestID)
			ctrl.AssertNotCalled(t, "SwitchTo", mock.Anything, mock.Anything)
		})
	}
}

func TestSwitch_FailureFallsBackToClose(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err    error
		name   string
		status int
	}{
		{name: "not runnable", err: overlay.ErrNotRunnable, status: http.StatusUnprocessableEntity},
		{name: "timeout", err: glosi.ErrTimeout, status: http.StatusGatewayTimeout},
		{name: "other", err: errors.New("launch failed"), status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s, ctrl := newTestServer(t, Options{})
			ctrl.On("SwitchTo", mock.Anything, mock.Anything).Return(tt.err)
			ctrl.On("Close", mock.Anything).Return(nil)

			w := doRequest(t, s, http.MethodPost, models.PathSwitch, `{"kind":"game","name":"Celeste"}`)

			assert.Equal(t, tt.status, w.Code)
			resp := decode[models.ErrorResponse](t, w)
			assert.Contains(t, resp.Error, tt.err.Error())
			ctrl.AssertCalled(t, "Close", mock.Anything)
		})
	}
}

func TestSwitch_FallbackCloseOutlivesRequest(t *testing.T) {
	t.Parallel()

	s, ctrl := newTestServer(t, Options{})
	ctrl.On("SwitchTo", mock.Anything, mock.Anything).Return(glosi.ErrTimeout)
	ctrl.On("Close", mock.MatchedBy(func(ctx context.Context) bool {
		return ctx.Err() == nil
	})).Return(nil)

	// the client is gone by the time the switch fails
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodPost, models.PathSwitch, strings.NewReader(`{"kind":"game","name":"Celeste"}`)).
		WithContext(ctx)
	req.RemoteAddr = "127.0.0.1:50000"
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
	ctrl.AssertNumberOfCalls(t, "Close", 1)
}

func TestClose(t *testing.T) {
	t.Parallel()
	s, ctrl := newTestServer(t, Options{})
	ctrl.current = overlay.New(overlay.KindGame, "Celeste", 1, nil, overlay.LaunchPolicy{})
	ctrl.On("Close", mock.Anything).Return(nil)

	w := doRequest(t, s, http.MethodPost, models.PathClose, "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, decode[models.StatusResponse](t, w).Overlay)
	ctrl.AssertExpectations(t)
}

func TestClose_Timeout(t *testing.T) {
	t.Parallel()
	s, ctrl := newTestServer(t, Options{})
	ctrl.On("Close", mock.Anything).Return(glosi.ErrTimeout)

	w := doRequest(t, s, http.MethodPost, models.PathClose, "")

	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
}

func TestMethodNotAllowed(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t, Options{})

	w := doRequest(t, s, http.MethodGet, models.PathSwitch, "")

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestRateLimited(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t, Options{RateLimit: 1})

	codes := make([]int, 0, 16)
	var limited *httptest.ResponseRecorder
	for range 16 {
		w := doRequest(t, s, http.MethodGet, models.PathOverlay, "")
		codes = append(codes, w.Code)
		if w.Code == http.StatusTooManyRequests && limited == nil {
			limited = w
		}
	}

	assert.Equal(t, http.StatusOK, codes[0])
	require.NotNil(t, limited)
	assert.NotEmpty(t, limited.Header().Get("Retry-After"))
	assert.Contains(t, limited.Body.String(), "rate limit exceeded")
}

func TestCORS_AllowedOrigin(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t, Options{AllowedOrigins: []string{"http://playnite.local"}})

	req := httptest.NewRequest(http.MethodOptions, models.PathSwitch, http.NoBody)
	req.Header.Set("Origin", "http://playnite.local")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	assert.Equal(t, "http://playnite.local", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestEvents_Broadcast(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t, Options{})
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := make(chan overlay.Event, 1)
	go s.Broadcast(ctx, events)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + models.PathEvents
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	defer func() { _ = conn.Close() }()

	o := overlay.New(overlay.KindGame, "Celeste", 42, nil, overlay.LaunchPolicy{})
	// Broadcasts only reach sessions the hub has registered.
	require.Eventually(t, func() bool { return s.ws.Len() == 1 }, time.Second, 5*time.Millisecond)
	events <- overlay.Event{Type: overlay.EventStarted, Overlay: o.Snapshot(), Time: time.Now()}

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var ev overlay.Event
	require.NoError(t, json.Unmarshal(msg, &ev))
	assert.Equal(t, overlay.EventStarted, ev.Type)
	assert.Equal(t, "Celeste", ev.Overlay.Name)
	assert.Equal(t, uint64(42), ev.Overlay.ID)
}

func TestServe_Shutdown(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t, Options{})

	var lc net.ListenConfig
	ln, err := lc.Listen(context.Background(), "tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.serve(ctx, ln) }()

	url := "http://" + ln.Addr().String() + models.PathOverlay
	require.Eventually(t, func() bool {
		req, reqErr := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
		if reqErr != nil {
			return false
		}
		resp, doErr := http.DefaultClient.Do(req)
		if doErr != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
