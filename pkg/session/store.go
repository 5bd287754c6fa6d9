// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"

	"github.com/tmtsoftware/csw-aas-go/pkg/config"
	"github.com/tmtsoftware/csw-aas-go/pkg/identity"
	"github.com/tmtsoftware/csw-aas-go/pkg/location"
	"github.com/tmtsoftware/csw-aas-go/pkg/logger"
	"github.com/tmtsoftware/csw-aas-go/pkg/telemetry"
)

const requestQueueSize = 16

type opKind int

const (
	opInitialize opKind = iota
	opLogin
	opLogout
	opRefresh
	opUserInfo
	opUserProfile
)

// request is one queued store operation. Requests are served strictly in
// arrival order by the store goroutine.
type request struct {
	ctx        context.Context
	op         opKind
	generation uint64
	reply      chan reply
}

type reply struct {
	snapshot *Snapshot
	info     *identity.UserInfo
	profile  *identity.UserProfile
	err      error
}

// Store owns the session state. A single goroutine performs every state
// transition; readers only ever see published snapshots.
type Store struct {
	idp             config.IdentityProviderConfig
	refreshMargin   time.Duration
	minRefreshDelay time.Duration
	adapter         identity.Adapter
	resolver        location.EndpointResolver
	metrics         *Metrics
	tracer          trace.Tracer
	log             *slog.Logger
	now             func() time.Time

	requests  chan request
	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
	ctx       context.Context
	cancel    context.CancelFunc

	current atomic.Pointer[Snapshot]

	subsMu  sync.Mutex
	subs    map[uint64]chan *Snapshot
	nextSub uint64
	closed  bool

	// Owned by the store goroutine.
	handle      identity.Handle
	generation  uint64
	timer       *time.Timer
	initialized bool
	version     uint64
}

// Option configures a Store.
type Option func(*Store)

// WithRegisterer registers the store metrics on reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(s *Store) {
		s.metrics = NewMetrics(reg)
	}
}

// WithTracerProvider sets the tracer provider for store spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Store) {
		s.tracer = telemetry.Tracer(tp)
	}
}

// WithClock replaces the clock used for expiry checks and refresh scheduling.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// New creates a store and starts its goroutine. cfg is used as given, so
// callers normally run cfg.EnsureDefaults first. Close releases the store.
func New(cfg *config.Config, adapter identity.Adapter, resolver location.EndpointResolver, opts ...Option) (*Store, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if adapter == nil {
		return nil, errors.New("identity adapter is required")
	}
	if resolver == nil {
		return nil, errors.New("endpoint resolver is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Store{
		idp:             cfg.IdentityProvider,
		refreshMargin:   max(time.Duration(cfg.Session.RefreshMargin), 0),
		minRefreshDelay: time.Second,
		adapter:         adapter,
		resolver:        resolver,
		tracer:          telemetry.Tracer(nil),
		log:             logger.For("session"),
		now:             time.Now,
		requests:        make(chan request, requestQueueSize),
		stop:            make(chan struct{}),
		done:            make(chan struct{}),
		ctx:             ctx,
		cancel:          cancel,
		subs:            make(map[uint64]chan *Snapshot),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = NewMetrics(nil)
	}

	s.current.Store(&Snapshot{State: Unresolved})
	go s.run()
	return s, nil
}

// Session returns the current snapshot. Between transitions it returns the
// same pointer.
func (s *Store) Session() *Snapshot {
	return s.current.Load()
}

// InitializeOnLoad performs the silent start-up check. Only the first call
// does any work; later calls return the current snapshot.
func (s *Store) InitializeOnLoad(ctx context.Context) *Snapshot {
	return s.submit(ctx, request{op: opInitialize}).snapshot
}

// Login resolves the auth service and runs an interactive login. While it is
// in flight the published snapshot is Resolving and still carries the previous
// session, if any.
func (s *Store) Login(ctx context.Context) *Snapshot {
	return s.submit(ctx, request{op: opLogin}).snapshot
}

// Logout ends the current session. Without a session it does nothing. The
// local session is cleared even when the provider does not confirm.
func (s *Store) Logout(ctx context.Context) *Snapshot {
	return s.submit(ctx, request{op: opLogout}).snapshot
}

// UserInfo loads the provider's userinfo for the current session.
func (s *Store) UserInfo(ctx context.Context) (*identity.UserInfo, error) {
	r := s.submit(ctx, request{op: opUserInfo})
	return r.info, r.err
}

// UserProfile loads the realm account profile for the current session.
func (s *Store) UserProfile(ctx context.Context) (*identity.UserProfile, error) {
	r := s.submit(ctx, request{op: opUserProfile})
	return r.profile, r.err
}

// Subscribe returns a channel that receives the current snapshot and then
// every later one. A slow reader only sees the latest value. The channel is
// closed by cancel or Close.
func (s *Store) Subscribe() (<-chan *Snapshot, func()) {
	ch := make(chan *Snapshot, 1)

	s.subsMu.Lock()
	defer s.subsMu.Unlock()

	ch <- s.current.Load()
	if s.closed {
		close(ch)
		return ch, func() {}
	}

	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subsMu.Lock()
			defer s.subsMu.Unlock()
			if c, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(c)
			}
		})
	}
}

// Close cancels any in-flight operation and the refresh timer, stops the
// store goroutine and closes all subscriptions. Later operations return the
// last snapshot.
func (s *Store) Close() {
	s.closeOnce.Do(func() {
		s.cancel()
		close(s.stop)
	})
	<-s.done
}

func (s *Store) submit(ctx context.Context, req request) reply {
	req.ctx = ctx
	req.reply = make(chan reply, 1)

	select {
	case s.requests <- req:
	case <-s.done:
		return reply{snapshot: s.Session(), err: ErrClosed}
	case <-ctx.Done():
		return reply{snapshot: s.Session(), err: ctx.Err()}
	}

	select {
	case r := <-req.reply:
		return r
	case <-s.done:
		return reply{snapshot: s.Session(), err: ErrClosed}
	case <-ctx.Done():
		return reply{snapshot: s.Session(), err: ctx.Err()}
	}
}

func (s *Store) run() {
	defer close(s.done)
	defer s.shutdown()

	for {
		select {
		case <-s.stop:
			return
		case req := <-s.requests:
			req.reply <- s.serve(req)
		}
	}
}

func (s *Store) serve(req request) reply {
	// The caller stopped waiting while the request was queued.
	if err := req.ctx.Err(); err != nil {
		s.log.Debug("skipping abandoned request", "op", int(req.op), "error", err)
		return reply{snapshot: s.Session(), err: err}
	}

	ctx, cancel := context.WithCancel(req.ctx)
	stopAfter := context.AfterFunc(s.ctx, cancel)
	defer func() {
		stopAfter()
		cancel()
	}()

	switch req.op {
	case opInitialize:
		return reply{snapshot: s.initializeOnLoad(ctx)}
	case opLogin:
		s.initialized = true
		return reply{snapshot: s.establish(ctx, identity.Interactive, "session.Login")}
	case opLogout:
		return reply{snapshot: s.logout(ctx)}
	case opRefresh:
		return reply{snapshot: s.refresh(ctx, req.generation)}
	case opUserInfo:
		if s.handle == nil {
			return reply{err: ErrNoSession}
		}
		info, err := s.handle.LoadUserInfo(ctx)
		return reply{info: info, err: err}
	case opUserProfile:
		if s.handle == nil {
			return reply{err: ErrNoSession}
		}
		profile, err := s.handle.LoadUserProfile(ctx)
		return reply{profile: profile, err: err}
	default:
		return reply{snapshot: s.Session(), err: fmt.Errorf("unknown operation %d", req.op)}
	}
}

func (s *Store) initializeOnLoad(ctx context.Context) *Snapshot {
	if s.initialized {
		return s.Session()
	}
	s.initialized = true
	return s.establish(ctx, identity.Silent, "session.InitializeOnLoad")
}

// establish resolves the endpoint and initializes the adapter in mode. The
// previous session stays published until the outcome is known.
func (s *Store) establish(ctx context.Context, mode identity.Mode, spanName string) *Snapshot {
	var err error
	ctx, done := telemetry.Start(ctx, s.tracer, spanName,
		telemetry.AttrMode.String(mode.String()),
		telemetry.AttrRealm.String(s.idp.Realm),
		telemetry.AttrClientID.String(s.idp.ClientID),
	)
	defer func() { done(&err) }()

	prev := s.Session()
	s.publish(Resolving, prev.Session, nil, prev.Endpoint)

	var endpoint string
	if endpoint, err = s.resolveEndpoint(ctx); err != nil {
		return s.fail(err, "")
	}

	payload, perr := config.BuildInitPayload(s.idp, endpoint)
	if perr != nil {
		err = fmt.Errorf("%w: %w", ErrInitializationFailed, perr)
		return s.fail(err, endpoint)
	}

	h, ierr := s.adapter.Initialize(ctx, payload, mode)
	if ierr != nil {
		err = fmt.Errorf("%w: %w", ErrInitializationFailed, ierr)
		return s.fail(err, endpoint)
	}

	sess, serr := newSession(h, s.now)
	if serr != nil {
		err = fmt.Errorf("%w: %w", ErrInitializationFailed, serr)
		return s.fail(err, endpoint)
	}

	if !sess.IsAuthenticated() {
		s.dropHandle()
		return s.publish(Unauthenticated, sess, nil, endpoint)
	}

	s.install(h)
	s.log.Info("session established", "subject", sess.Subject(), "mode", mode.String())
	return s.publish(Authenticated, sess, nil, endpoint)
}

func (s *Store) fail(err error, endpoint string) *Snapshot {
	s.log.Warn("session initialization failed", "error", err)
	s.dropHandle()
	return s.publish(Failed, nil, err, endpoint)
}

// resolveEndpoint asks the location service for the auth service and falls
// back to the static URL when it is unknown.
func (s *Store) resolveEndpoint(ctx context.Context) (string, error) {
	name := s.idp.DiscoveryServiceName
	if uri, ok := s.resolver.Resolve(ctx, name, time.Duration(s.idp.DiscoveryTimeout)); ok {
		return uri, nil
	}
	if s.idp.StaticFallbackURL == "" {
		return "", fmt.Errorf("%w: %s", ErrDiscoveryUnresolved, name)
	}
	s.log.Info("auth service not registered, using static URL", "service", name, "url", s.idp.StaticFallbackURL)
	return s.idp.StaticFallbackURL, nil
}

func (s *Store) logout(ctx context.Context) *Snapshot {
	if s.handle == nil {
		return s.Session()
	}

	var err error
	ctx, done := telemetry.Start(ctx, s.tracer, "session.Logout")
	defer func() { done(&err) }()

	h := s.handle
	s.dropHandle()
	if lerr := h.Logout(ctx); lerr != nil {
		err = fmt.Errorf("%w: %w", ErrLogoutFailed, lerr)
		s.log.Warn("provider did not confirm logout, local session cleared", "error", lerr)
	}
	return s.publish(Unauthenticated, nil, err, s.Session().Endpoint)
}

// publish stores and broadcasts a new snapshot.
func (s *Store) publish(state State, sess *Session, err error, endpoint string) *Snapshot {
	s.version++
	snap := &Snapshot{
		State:    state,
		Session:  sess,
		Err:      err,
		Endpoint: endpoint,
		Version:  s.version,
	}

	s.subsMu.Lock()
	s.current.Store(snap)
	for _, ch := range s.subs {
		select {
		case <-ch:
		default:
		}
		ch <- snap
	}
	s.subsMu.Unlock()

	s.metrics.transition(state)
	s.log.Debug("session state changed", "state", state.String(), "version", snap.Version,
		"authenticated", sess.IsAuthenticated())
	return snap
}

func (s *Store) shutdown() {
	s.cancelTimer()
	s.handle = nil

	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	s.closed = true
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
}
