// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/mock/gomock"

	"github.com/tmtsoftware/csw-aas-go/pkg/config"
	"github.com/tmtsoftware/csw-aas-go/pkg/identity"
	"github.com/tmtsoftware/csw-aas-go/pkg/identity/mocks"
	locationmocks "github.com/tmtsoftware/csw-aas-go/pkg/location/mocks"
)

const resolvedURL = "http://10.0.0.7:8081/auth"

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.IdentityProvider.Realm = "TMT"
	cfg.IdentityProvider.ClientID = "aas-ui"
	return cfg
}

// tokenState backs a mock handle whose token changes on refresh.
type tokenState struct {
	mu     sync.Mutex
	token  string
	expiry time.Time
}

func (s *tokenState) set(token string, expiry time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.expiry = expiry
}

func (s *tokenState) getToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

func (s *tokenState) getExpiry() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expiry
}

func authenticatedHandle(ctrl *gomock.Controller, state *tokenState) *mocks.MockHandle {
	h := mocks.NewMockHandle(ctrl)
	h.EXPECT().IsAuthenticated().Return(true).AnyTimes()
	h.EXPECT().ClientID().Return("aas-ui").AnyTimes()
	h.EXPECT().Token().DoAndReturn(state.getToken).AnyTimes()
	h.EXPECT().Expiry().DoAndReturn(state.getExpiry).AnyTimes()
	h.EXPECT().Subject().Return("user-1").AnyTimes()
	h.EXPECT().TokenClaims().Return(map[string]any{"sub": "user-1"}).AnyTimes()
	h.EXPECT().RealmRoles().Return([]string{"tmt-user"}).AnyTimes()
	h.EXPECT().ResourceRoles().Return(map[string][]string{"aas-ui": {"admin"}}).AnyTimes()
	return h
}

func unauthenticatedHandle(ctrl *gomock.Controller) *mocks.MockHandle {
	h := mocks.NewMockHandle(ctrl)
	h.EXPECT().IsAuthenticated().Return(false).AnyTimes()
	h.EXPECT().ClientID().Return("aas-ui").AnyTimes()
	return h
}

func withMinRefreshDelay(d time.Duration) Option {
	return func(s *Store) {
		s.minRefreshDelay = d
	}
}

// testClock is a settable clock shared with the store goroutine.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	ctrl     *gomock.Controller
	adapter  *mocks.MockAdapter
	resolver *locationmocks.MockEndpointResolver
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	return &fixture{
		ctrl:     ctrl,
		adapter:  mocks.NewMockAdapter(ctrl),
		resolver: locationmocks.NewMockEndpointResolver(ctrl),
	}
}

func (f *fixture) store(t *testing.T, cfg *config.Config, opts ...Option) *Store {
	t.Helper()
	s, err := New(cfg, f.adapter, f.resolver, opts...)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func (f *fixture) resolves(uri string, ok bool) {
	f.resolver.EXPECT().Resolve(gomock.Any(), "AAS-service-http", 5*time.Second).Return(uri, ok).AnyTimes()
}

func TestNew_RequiresCollaborators(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	_, err := New(nil, f.adapter, f.resolver)
	assert.Error(t, err)
	_, err = New(testConfig(), nil, f.resolver)
	assert.Error(t, err)
	_, err = New(testConfig(), f.adapter, nil)
	assert.Error(t, err)
}

func TestStore_InitialSnapshot(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	s := f.store(t, testConfig())

	snap := s.Session()
	assert.Equal(t, Unresolved, snap.State)
	assert.Nil(t, snap.Session)
	assert.False(t, snap.IsAuthenticated())
	assert.Same(t, snap, s.Session())
}

func TestStore_InitializeOnLoad(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		resolvedURI  string
		resolved     bool
		wantEndpoint string
	}{
		{"resolved endpoint", resolvedURL, true, resolvedURL},
		{"static fallback", "", false, "http://localhost:8081/auth"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t)
			f.resolves(tt.resolvedURI, tt.resolved)
			h := unauthenticatedHandle(f.ctrl)

			f.adapter.EXPECT().Initialize(gomock.Any(), gomock.Any(), identity.Silent).DoAndReturn(
				func(_ context.Context, p *config.InitPayload, _ identity.Mode) (identity.Handle, error) {
					assert.Equal(t, tt.wantEndpoint, p.URL)
					assert.Equal(t, "TMT", p.Realm)
					assert.Equal(t, "aas-ui", p.ClientID)
					assert.Equal(t, config.SSLRequiredExternal, p.SSLRequired)
					assert.True(t, p.VerifyTokenAudience)
					assert.True(t, p.UseResourceRoleMappings)
					assert.Equal(t, config.FlowHybrid, p.Flow)
					return h, nil
				}).Times(1)

			s := f.store(t, testConfig())
			snap := s.InitializeOnLoad(context.Background())

			assert.Equal(t, Unauthenticated, snap.State)
			require.NotNil(t, snap.Session)
			assert.False(t, snap.Session.IsAuthenticated())
			assert.Equal(t, tt.wantEndpoint, snap.Endpoint)
			assert.NoError(t, snap.Err)

			// Only the first call initializes.
			again := s.InitializeOnLoad(context.Background())
			assert.Same(t, snap, again)
			assert.Same(t, snap, s.Session())
		})
	}
}

func TestStore_DiscoveryUnresolvedWithoutFallback(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.resolves("", false)

	cfg := testConfig()
	cfg.IdentityProvider.StaticFallbackURL = ""
	s := f.store(t, cfg)

	snap := s.Login(context.Background())
	assert.Equal(t, Failed, snap.State)
	assert.Nil(t, snap.Session)
	assert.ErrorIs(t, snap.Err, ErrDiscoveryUnresolved)
}

func TestStore_Login(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.resolves(resolvedURL, true)
	h := authenticatedHandle(f.ctrl, &tokenState{token: "tok-1", expiry: time.Now().Add(5 * time.Minute)})
	f.adapter.EXPECT().Initialize(gomock.Any(), gomock.Any(), identity.Interactive).Return(h, nil)

	reg := prometheus.NewRegistry()
	s := f.store(t, testConfig(), WithRegisterer(reg))

	snap := s.Login(context.Background())
	assert.Equal(t, Authenticated, snap.State)
	assert.NoError(t, snap.Err)
	assert.True(t, snap.IsAuthenticated())
	assert.Equal(t, "tok-1", snap.Session.Token())
	assert.True(t, snap.Session.HasRealmRole("tmt-user"))
	assert.True(t, snap.Session.HasResourceRole("admin", ""))
	assert.Equal(t, uint64(2), snap.Version)

	first := s.Session()
	second := s.Session()
	assert.Same(t, first, second)
	assert.Same(t, snap, first)

	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.Transitions.WithLabelValues("resolving")))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.Transitions.WithLabelValues("authenticated")))
}

func TestStore_LoginFailureThenRetry(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.resolves(resolvedURL, true)
	h := authenticatedHandle(f.ctrl, &tokenState{token: "tok-1", expiry: time.Now().Add(5 * time.Minute)})
	gomock.InOrder(
		f.adapter.EXPECT().Initialize(gomock.Any(), gomock.Any(), identity.Interactive).Return(nil, identity.ErrLogin),
		f.adapter.EXPECT().Initialize(gomock.Any(), gomock.Any(), identity.Interactive).Return(h, nil),
	)
	s := f.store(t, testConfig())

	failed := s.Login(context.Background())
	assert.Equal(t, Failed, failed.State)
	assert.Nil(t, failed.Session)
	assert.False(t, failed.IsAuthenticated())
	assert.ErrorIs(t, failed.Err, ErrInitializationFailed)
	assert.ErrorIs(t, failed.Err, identity.ErrLogin)

	retried := s.Login(context.Background())
	assert.Equal(t, Authenticated, retried.State)
	assert.NoError(t, retried.Err)
}

func TestStore_LoginRejectsExpiredSession(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.resolves(resolvedURL, true)
	h := authenticatedHandle(f.ctrl, &tokenState{token: "tok-1", expiry: time.Now().Add(-time.Minute)})
	f.adapter.EXPECT().Initialize(gomock.Any(), gomock.Any(), identity.Interactive).Return(h, nil)
	s := f.store(t, testConfig())

	snap := s.Login(context.Background())
	assert.Equal(t, Failed, snap.State)
	assert.ErrorIs(t, snap.Err, ErrInvalidSession)
}

func TestStore_LoginWhileAuthenticated(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.resolves(resolvedURL, true)
	expiry := time.Now().Add(5 * time.Minute)
	h1 := authenticatedHandle(f.ctrl, &tokenState{token: "tok-1", expiry: expiry})
	h2 := authenticatedHandle(f.ctrl, &tokenState{token: "tok-2", expiry: expiry})

	var s *Store
	var first *Snapshot
	gomock.InOrder(
		f.adapter.EXPECT().Initialize(gomock.Any(), gomock.Any(), identity.Interactive).Return(h1, nil),
		f.adapter.EXPECT().Initialize(gomock.Any(), gomock.Any(), identity.Interactive).DoAndReturn(
			func(context.Context, *config.InitPayload, identity.Mode) (identity.Handle, error) {
				during := s.Session()
				assert.Equal(t, Resolving, during.State)
				assert.Same(t, first.Session, during.Session)
				assert.Equal(t, "tok-1", during.Session.Token())
				return h2, nil
			}),
	)
	s = f.store(t, testConfig())

	first = s.Login(context.Background())
	require.Equal(t, Authenticated, first.State)

	second := s.Login(context.Background())
	assert.Equal(t, Authenticated, second.State)
	assert.Equal(t, "tok-2", second.Session.Token())
}

func TestStore_PriorSessionExpiresDuringLogin(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.resolves(resolvedURL, true)

	clock := &testClock{now: time.Now()}
	h1 := authenticatedHandle(f.ctrl, &tokenState{token: "tok-1", expiry: clock.Now().Add(time.Minute)})
	h2 := authenticatedHandle(f.ctrl, &tokenState{token: "tok-2", expiry: clock.Now().Add(time.Hour)})

	var s *Store
	gomock.InOrder(
		f.adapter.EXPECT().Initialize(gomock.Any(), gomock.Any(), identity.Interactive).Return(h1, nil),
		f.adapter.EXPECT().Initialize(gomock.Any(), gomock.Any(), identity.Interactive).DoAndReturn(
			func(context.Context, *config.InitPayload, identity.Mode) (identity.Handle, error) {
				// The user takes longer to log in than the old token lives.
				clock.advance(2 * time.Minute)

				during := s.Session()
				assert.Equal(t, Resolving, during.State)
				assert.NotNil(t, during.Session)
				assert.False(t, during.IsAuthenticated())
				assert.False(t, during.Session.HasRealmRole("tmt-user"))
				return h2, nil
			}),
	)
	s = f.store(t, testConfig(), WithClock(clock.Now))

	require.True(t, s.Login(context.Background()).IsAuthenticated())

	second := s.Login(context.Background())
	assert.Equal(t, Authenticated, second.State)
	assert.True(t, second.IsAuthenticated())
	assert.Equal(t, "tok-2", second.Session.Token())
}

func TestStore_AbandonedRequestIsSkipped(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.resolves(resolvedURL, true)

	entered := make(chan struct{})
	release := make(chan struct{})
	h := authenticatedHandle(f.ctrl, &tokenState{token: "tok-1", expiry: time.Now().Add(5 * time.Minute)})
	h.EXPECT().LoadUserInfo(gomock.Any()).DoAndReturn(func(context.Context) (*identity.UserInfo, error) {
		close(entered)
		<-release
		return &identity.UserInfo{Subject: "user-1"}, nil
	})
	// A second Initialize call would fail the mock: the abandoned login must not run.
	f.adapter.EXPECT().Initialize(gomock.Any(), gomock.Any(), identity.Interactive).Return(h, nil).Times(1)
	s := f.store(t, testConfig())

	authenticated := s.Login(context.Background())
	require.True(t, authenticated.IsAuthenticated())

	infoDone := make(chan struct{})
	go func() {
		defer close(infoDone)
		_, _ = s.UserInfo(context.Background())
	}()
	<-entered

	ctx, cancel := context.WithCancel(context.Background())
	loginDone := make(chan *Snapshot, 1)
	go func() { loginDone <- s.Login(ctx) }()
	time.Sleep(50 * time.Millisecond)
	cancel()

	abandoned := <-loginDone
	assert.Same(t, authenticated, abandoned)

	close(release)
	<-infoDone

	// InitializeOnLoad is a no-op after Login and settles behind the abandoned request.
	after := s.InitializeOnLoad(context.Background())
	assert.Same(t, authenticated, after)
	assert.Equal(t, Authenticated, after.State)
	assert.True(t, after.IsAuthenticated())
	assert.NoError(t, after.Err)
}

func TestStore_LogoutWithoutSession(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.resolves(resolvedURL, true)
	f.adapter.EXPECT().Initialize(gomock.Any(), gomock.Any(), identity.Silent).Return(unauthenticatedHandle(f.ctrl), nil)
	s := f.store(t, testConfig())

	initial := s.Session()
	assert.Same(t, initial, s.Logout(context.Background()))

	loaded := s.InitializeOnLoad(context.Background())
	assert.Same(t, loaded, s.Logout(context.Background()))
	assert.Equal(t, Unauthenticated, s.Session().State)
}

func TestStore_Logout(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		logoutErr error
	}{
		{"confirmed", nil},
		{"not confirmed", identity.ErrLogout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t)
			f.resolves(resolvedURL, true)
			h := authenticatedHandle(f.ctrl, &tokenState{token: "tok-1", expiry: time.Now().Add(5 * time.Minute)})
			h.EXPECT().Logout(gomock.Any()).Return(tt.logoutErr).Times(1)
			f.adapter.EXPECT().Initialize(gomock.Any(), gomock.Any(), identity.Interactive).Return(h, nil)
			s := f.store(t, testConfig())

			require.True(t, s.Login(context.Background()).IsAuthenticated())

			snap := s.Logout(context.Background())
			assert.Equal(t, Unauthenticated, snap.State)
			assert.Nil(t, snap.Session)
			assert.False(t, snap.IsAuthenticated())
			assert.Equal(t, resolvedURL, snap.Endpoint)
			if tt.logoutErr != nil {
				assert.ErrorIs(t, snap.Err, ErrLogoutFailed)
			} else {
				assert.NoError(t, snap.Err)
			}

			// The session is gone, so a second logout is a no-op.
			assert.Same(t, snap, s.Logout(context.Background()))
		})
	}
}

func TestStore_RefreshSuccess(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.resolves(resolvedURL, true)

	cfg := testConfig()
	margin := time.Duration(cfg.Session.RefreshMargin)
	state := &tokenState{token: "tok-1", expiry: time.Now().Add(margin + 20*time.Millisecond)}
	h := authenticatedHandle(f.ctrl, state)
	h.EXPECT().Refresh(gomock.Any()).DoAndReturn(func(context.Context) error {
		state.set("tok-2", time.Now().Add(time.Hour))
		return nil
	}).Times(1)
	f.adapter.EXPECT().Initialize(gomock.Any(), gomock.Any(), identity.Interactive).Return(h, nil)

	reg := prometheus.NewRegistry()
	s := f.store(t, cfg, WithRegisterer(reg), withMinRefreshDelay(10*time.Millisecond))

	before := s.Login(context.Background())
	require.Equal(t, "tok-1", before.Session.Token())

	require.Eventually(t, func() bool {
		return s.Session().Session.Token() == "tok-2"
	}, 5*time.Second, 10*time.Millisecond)

	after := s.Session()
	assert.Equal(t, Authenticated, after.State)
	assert.True(t, after.IsAuthenticated())
	assert.Equal(t, before.Session.RealmRoles(), after.Session.RealmRoles())
	assert.Equal(t, before.Session.ResourceRoles(), after.Session.ResourceRoles())
	assert.Greater(t, after.Version, before.Version)
	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.Refreshes.WithLabelValues("success")))
}

func TestStore_RefreshFailure(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.resolves(resolvedURL, true)

	cfg := testConfig()
	cfg.Session.RefreshMargin = 0
	h := authenticatedHandle(f.ctrl, &tokenState{token: "tok-1", expiry: time.Now().Add(20 * time.Millisecond)})
	h.EXPECT().Refresh(gomock.Any()).Return(errors.New("invalid_grant")).Times(1)
	f.adapter.EXPECT().Initialize(gomock.Any(), gomock.Any(), identity.Interactive).Return(h, nil)

	s := f.store(t, cfg, withMinRefreshDelay(10*time.Millisecond))
	require.True(t, s.Login(context.Background()).IsAuthenticated())

	require.Eventually(t, func() bool {
		return s.Session().State == Unauthenticated
	}, 5*time.Second, 10*time.Millisecond)

	snap := s.Session()
	assert.Nil(t, snap.Session)
	assert.ErrorIs(t, snap.Err, ErrRefreshFailed)
	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.Refreshes.WithLabelValues("failure")))

	// No further refresh for the dropped session, and logout is now a no-op.
	time.Sleep(50 * time.Millisecond)
	assert.Same(t, snap, s.Logout(context.Background()))
}

func TestStore_RequestsAreQueued(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.resolves(resolvedURL, true)

	release := make(chan struct{})
	entered := make(chan struct{})
	h := authenticatedHandle(f.ctrl, &tokenState{token: "tok-1", expiry: time.Now().Add(5 * time.Minute)})
	h.EXPECT().Logout(gomock.Any()).Return(nil)
	f.adapter.EXPECT().Initialize(gomock.Any(), gomock.Any(), identity.Interactive).DoAndReturn(
		func(context.Context, *config.InitPayload, identity.Mode) (identity.Handle, error) {
			close(entered)
			<-release
			return h, nil
		})
	s := f.store(t, testConfig())

	loginDone := make(chan *Snapshot, 1)
	go func() { loginDone <- s.Login(context.Background()) }()
	<-entered

	logoutDone := make(chan *Snapshot, 1)
	go func() { logoutDone <- s.Logout(context.Background()) }()

	select {
	case <-logoutDone:
		t.Fatal("logout completed while login was pending")
	case <-time.After(50 * time.Millisecond):
	}
	assert.Equal(t, Resolving, s.Session().State)

	close(release)
	login := <-loginDone
	logout := <-logoutDone
	assert.Equal(t, Authenticated, login.State)
	assert.Equal(t, Unauthenticated, logout.State)
	assert.Greater(t, logout.Version, login.Version)
}

func TestStore_Subscribe(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.resolves(resolvedURL, true)
	h := authenticatedHandle(f.ctrl, &tokenState{token: "tok-1", expiry: time.Now().Add(5 * time.Minute)})
	f.adapter.EXPECT().Initialize(gomock.Any(), gomock.Any(), identity.Interactive).Return(h, nil)
	s := f.store(t, testConfig())

	updates, cancel := s.Subscribe()
	initial := <-updates
	assert.Equal(t, Unresolved, initial.State)

	// Resolving and Authenticated are both published; the reader only sees the latest.
	snap := s.Login(context.Background())
	latest := <-updates
	assert.Same(t, snap, latest)

	select {
	case extra := <-updates:
		t.Fatalf("unexpected extra snapshot %v", extra.State)
	default:
	}

	cancel()
	cancel()
	_, ok := <-updates
	assert.False(t, ok)
}

func TestStore_Close(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.resolves(resolvedURL, true)

	cfg := testConfig()
	cfg.Session.RefreshMargin = 0
	h := authenticatedHandle(f.ctrl, &tokenState{token: "tok-1", expiry: time.Now().Add(200 * time.Millisecond)})
	f.adapter.EXPECT().Initialize(gomock.Any(), gomock.Any(), identity.Interactive).Return(h, nil).Times(1)

	s, err := New(cfg, f.adapter, f.resolver, withMinRefreshDelay(10*time.Millisecond))
	require.NoError(t, err)

	updates, _ := s.Subscribe()
	last := s.Login(context.Background())
	require.True(t, last.IsAuthenticated())

	s.Close()
	s.Close()

	// The refresh timer was cancelled: Refresh has no expectation and would fail the test.
	time.Sleep(300 * time.Millisecond)

	assert.Same(t, last, s.Login(context.Background()))
	assert.Same(t, last, s.Logout(context.Background()))
	_, err = s.UserInfo(context.Background())
	assert.ErrorIs(t, err, ErrClosed)

	for range updates {
	}

	late, _ := s.Subscribe()
	assert.Same(t, last, <-late)
	_, ok := <-late
	assert.False(t, ok)
}

func TestStore_CloseCancelsPendingLogin(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.resolves(resolvedURL, true)

	entered := make(chan struct{})
	f.adapter.EXPECT().Initialize(gomock.Any(), gomock.Any(), identity.Interactive).DoAndReturn(
		func(ctx context.Context, _ *config.InitPayload, _ identity.Mode) (identity.Handle, error) {
			close(entered)
			<-ctx.Done()
			return nil, ctx.Err()
		})

	s, err := New(testConfig(), f.adapter, f.resolver)
	require.NoError(t, err)

	go s.Login(context.Background())
	<-entered

	closed := make(chan struct{})
	go func() {
		s.Close()
		close(closed)
	}()

	select {
	case <-closed:
	case <-time.After(5 * time.Second):
		t.Fatal("Close did not cancel the pending login")
	}
	assert.False(t, s.Session().IsAuthenticated())
}

func TestStore_UserInfo(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.resolves(resolvedURL, true)
	h := authenticatedHandle(f.ctrl, &tokenState{token: "tok-1", expiry: time.Now().Add(5 * time.Minute)})
	h.EXPECT().LoadUserInfo(gomock.Any()).Return(&identity.UserInfo{Subject: "user-1", Email: "user1@tmt.org"}, nil)
	h.EXPECT().LoadUserProfile(gomock.Any()).Return(&identity.UserProfile{ID: "user-1", Username: "user1"}, nil)
	f.adapter.EXPECT().Initialize(gomock.Any(), gomock.Any(), identity.Interactive).Return(h, nil)
	s := f.store(t, testConfig())

	_, err := s.UserInfo(context.Background())
	assert.ErrorIs(t, err, ErrNoSession)
	_, err = s.UserProfile(context.Background())
	assert.ErrorIs(t, err, ErrNoSession)

	require.True(t, s.Login(context.Background()).IsAuthenticated())

	info, err := s.UserInfo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "user1@tmt.org", info.Email)

	profile, err := s.UserProfile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "user1", profile.Username)
}

func TestStore_Spans(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.resolves(resolvedURL, true)
	f.adapter.EXPECT().Initialize(gomock.Any(), gomock.Any(), identity.Interactive).Return(nil, identity.ErrLogin)

	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	s := f.store(t, testConfig(), WithTracerProvider(tp))

	s.Login(context.Background())

	spans := rec.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "session.Login", spans[0].Name())
	assert.NotEmpty(t, spans[0].Events())
}
