// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"context"
	"fmt"
	"time"

	"github.com/tmtsoftware/csw-aas-go/pkg/identity"
	"github.com/tmtsoftware/csw-aas-go/pkg/telemetry"
)

// refreshDelay returns how long to wait before refreshing a token expiring at
// expiry, never less than floor.
func refreshDelay(expiry, now time.Time, margin, floor time.Duration) time.Duration {
	d := expiry.Sub(now) - margin
	if d < floor {
		d = floor
	}
	return d
}

// install makes h the current handle and schedules its refresh. Timers of the
// previous handle become stale.
func (s *Store) install(h identity.Handle) {
	s.cancelTimer()
	s.generation++
	s.handle = h
	s.scheduleRefresh()
}

// dropHandle forgets the current handle and cancels its refresh.
func (s *Store) dropHandle() {
	s.cancelTimer()
	s.generation++
	s.handle = nil
}

func (s *Store) cancelTimer() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Store) scheduleRefresh() {
	expiry := s.handle.Expiry()
	if expiry.IsZero() {
		return
	}
	delay := refreshDelay(expiry, s.now(), s.refreshMargin, s.minRefreshDelay)
	generation := s.generation
	s.timer = time.AfterFunc(delay, func() { s.enqueueRefresh(generation) })
	s.log.Debug("token refresh scheduled", "in", delay.String(), "generation", generation)
}

// enqueueRefresh queues a refresh behind any pending request.
func (s *Store) enqueueRefresh(generation uint64) {
	req := request{
		ctx:        s.ctx,
		op:         opRefresh,
		generation: generation,
		reply:      make(chan reply, 1),
	}
	select {
	case s.requests <- req:
	case <-s.stop:
	}
}

// refresh renews the token of the handle identified by generation. A refresh
// for a replaced or dropped handle is ignored. On failure the session is
// dropped and no further refresh is scheduled for it.
func (s *Store) refresh(ctx context.Context, generation uint64) *Snapshot {
	if s.handle == nil || generation != s.generation {
		s.log.Debug("ignoring stale token refresh", "generation", generation)
		return s.Session()
	}

	var err error
	ctx, done := telemetry.Start(ctx, s.tracer, "session.Refresh")
	defer func() { done(&err) }()

	endpoint := s.Session().Endpoint
	s.timer = nil

	if err = s.handle.Refresh(ctx); err == nil {
		var sess *Session
		if sess, err = newSession(s.handle, s.now); err == nil {
			if sess.IsAuthenticated() {
				s.metrics.refreshed(true)
				s.scheduleRefresh()
				return s.publish(Authenticated, sess, nil, endpoint)
			}
			err = identity.ErrNotAuthenticated
		}
	}

	s.metrics.refreshed(false)
	s.dropHandle()
	err = fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	s.log.Warn("token refresh failed, session dropped", "error", err)
	return s.publish(Unauthenticated, nil, err, endpoint)
}
