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

package middleware

import (
	"context"
	"encoding/json"
	"math"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/ZaparooProject/zaparoo-overlay/pkg/helpers/syncutil"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const (
	cleanupInterval = 5 * time.Minute
	maxIdle         = 10 * time.Minute
	// readFactor scales the budget of read-only requests. Status polling
	// and event subscriptions never touch the helper, so they get more room
	// than switch and close.
	readFactor = 4
)

// Route classes sharing a bucket per client.
const (
	ClassControl = "control"
	ClassRead    = "read"
)

// IPRateLimiter keeps one token bucket per client IP and route class.
type IPRateLimiter struct {
	clock    clockwork.Clock
	limiters map[string]*rateLimiterEntry
	limit    rate.Limit
	burst    int
	mu       syncutil.Mutex
}

type rateLimiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewIPRateLimiter allows perSecond control requests per second per IP,
// with bursts of twice that. Values below one are raised to one.
func NewIPRateLimiter(perSecond int) *IPRateLimiter {
	return newIPRateLimiter(perSecond, clockwork.NewRealClock())
}

func newIPRateLimiter(perSecond int, clock clockwork.Clock) *IPRateLimiter {
	if perSecond <= 0 {
		perSecond = 1
	}
	return &IPRateLimiter{
		clock:    clock,
		limiters: make(map[string]*rateLimiterEntry),
		limit:    rate.Limit(perSecond),
		burst:    perSecond * 2,
	}
}

// Burst returns the number of control requests allowed at once.
func (rl *IPRateLimiter) Burst() int {
	return rl.burst
}

// GetLimiter returns the bucket for ip and class, creating it on first use.
func (rl *IPRateLimiter) GetLimiter(ip, class string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	key := class + "|" + ip
	now := rl.clock.Now()
	entry, ok := rl.limiters[key]
	if !ok {
		limit, burst := rl.limit, rl.burst
		if class == ClassRead {
			limit *= readFactor
			burst *= readFactor
		}
		entry = &rateLimiterEntry{limiter: rate.NewLimiter(limit, burst)}
		rl.limiters[key] = entry
	}
	entry.lastSeen = now
	return entry.limiter
}

// Cleanup drops buckets idle for longer than maxIdle.
func (rl *IPRateLimiter) Cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.clock.Now()
	for key, entry := range rl.limiters {
		if now.Sub(entry.lastSeen) > maxIdle {
			delete(rl.limiters, key)
			log.Debug().Str("key", key).Msg("removed stale rate limiter")
		}
	}
}

// StartCleanup runs Cleanup every cleanupInterval until ctx is done.
func (rl *IPRateLimiter) StartCleanup(ctx context.Context) {
	go func() {
		ticker := rl.clock.NewTicker(cleanupInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.Chan():
				rl.Cleanup()
			case <-ctx.Done():
				return
			}
		}
	}()
}

// ParseRemoteIP extracts the IP address from a RemoteAddr string.
func ParseRemoteIP(remoteAddr string) net.IP {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}
	return net.ParseIP(host)
}

// RouteClass puts safe methods in the read class and everything else in
// the control class.
func RouteClass(r *http.Request) string {
	switch r.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return ClassRead
	default:
		return ClassControl
	}
}

type limitedResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"requestId,omitempty"`
}

// HTTPRateLimitMiddleware rejects requests over the client's budget with
// 429 and a Retry-After header.
func HTTPRateLimitMiddleware(limiter *IPRateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			host := ParseRemoteIP(r.RemoteAddr).String()
			class := RouteClass(r)

			now := limiter.clock.Now()
			res := limiter.GetLimiter(host, class).ReserveN(now, 1)
			delay := res.DelayFrom(now)
			if res.OK() && delay == 0 {
				next.ServeHTTP(w, r)
				return
			}
			res.CancelAt(now)

			log.Warn().
				Str("ip", host).
				Str("class", class).
				Str("path", r.URL.Path).
				Str("method", r.Method).
				Dur("retryAfter", delay).
				Msg("rate limit exceeded")

			w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(delay)))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(limitedResponse{
				Error:     "rate limit exceeded",
				RequestID: requestIDString(r),
			})
		})
	}
}

func requestIDString(r *http.Request) string {
	if id := GetRequestID(r.Context()); id != uuid.Nil {
		return id.String()
	}
	return ""
}

func retryAfterSeconds(d time.Duration) int {
	if d <= 0 || d == rate.InfDuration {
		return 1
	}
	return int(math.Ceil(d.Seconds()))
}
