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
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	liveTimeout    = 2 * time.Second
	liveRetries    = 2
	liveRetryDelay = 250 * time.Millisecond
)

// LiveClient queries a running helper for the settings it is actually using.
// This is the only way to learn which target an instance started by someone
// else is running.
type LiveClient struct {
	client *resty.Client
}

// NewLiveClient creates a client for the helper listening on 127.0.0.1:port.
func NewLiveClient(port int) *LiveClient {
	return NewLiveClientURL("http://127.0.0.1:" + strconv.Itoa(port))
}

// NewLiveClientURL creates a client for a helper endpoint at baseURL.
func NewLiveClientURL(baseURL string) *LiveClient {
	return &LiveClient{
		client: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(liveTimeout).
			SetRetryCount(liveRetries).
			SetRetryWaitTime(liveRetryDelay),
	}
}

// Settings fetches the effective target configuration of the running helper.
func (c *LiveClient) Settings(ctx context.Context) (*Target, error) {
	resp, err := c.client.R().SetContext(ctx).Get("/settings")
	if err != nil {
		return nil, fmt.Errorf("failed to query helper settings: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("helper settings request failed: %s", resp.Status())
	}
	return ParseTarget(resp.Body())
}
