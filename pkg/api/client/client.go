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

// Package client talks to a running overlay service's control API.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ZaparooProject/zaparoo-overlay/pkg/api/models"
	"github.com/ZaparooProject/zaparoo-overlay/pkg/overlay"
	"github.com/go-resty/resty/v2"
	"github.com/gorilla/websocket"
)

var ErrServiceUnavailable = errors.New("overlay service not reachable")

const defaultTimeout = 90 * time.Second

// Client is a control API client.
type Client struct {
	rest    *resty.Client
	baseURL string
}

// New creates a client for the service on 127.0.0.1:port.
func New(port int) *Client {
	return NewURL("http://127.0.0.1:" + strconv.Itoa(port))
}

// NewURL creates a client for the service at baseURL.
func NewURL(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		rest: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(defaultTimeout).
			SetHeader("Accept", "application/json"),
	}
}

// Status returns the current overlay slot.
func (c *Client) Status(ctx context.Context) (*models.StatusResponse, error) {
	return c.do(c.rest.R().SetContext(ctx), http.MethodGet, models.PathOverlay)
}

// Switch asks the service to switch to an overlay.
func (c *Client) Switch(ctx context.Context, kind overlay.Kind, name string) (*models.StatusResponse, error) {
	req := c.rest.R().
		SetContext(ctx).
		SetBody(models.SwitchRequest{Kind: kind, Name: name})
	return c.do(req, http.MethodPost, models.PathSwitch)
}

// Close asks the service to close the current overlay.
func (c *Client) Close(ctx context.Context) (*models.StatusResponse, error) {
	return c.do(c.rest.R().SetContext(ctx), http.MethodPost, models.PathClose)
}

func (c *Client) do(req *resty.Request, method, path string) (*models.StatusResponse, error) {
	var out models.StatusResponse
	var apiErr models.ErrorResponse
	resp, err := req.SetResult(&out).SetError(&apiErr).Execute(method, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrServiceUnavailable, err)
	}
	if resp.IsError() {
		if apiErr.Error != "" {
			return nil, fmt.Errorf("%s %s: %s (%d)", method, path, apiErr.Error, resp.StatusCode())
		}
		return nil, fmt.Errorf("%s %s: %s", method, path, resp.Status())
	}
	return &out, nil
}

// Events streams lifecycle events to fn until ctx is done or the service
// closes the stream.
func (c *Client) Events(ctx context.Context, fn func(overlay.Event)) error {
	u, err := url.Parse(c.baseURL + models.PathEvents)
	if err != nil {
		return fmt.Errorf("invalid service url: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrServiceUnavailable, err)
	}
	defer func() { _ = conn.Close() }()

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("event stream closed: %w", err)
		}
		var ev overlay.Event
		if err := json.Unmarshal(msg, &ev); err != nil {
			return fmt.Errorf("invalid event: %w", err)
		}
		fn(ev)
	}
}
