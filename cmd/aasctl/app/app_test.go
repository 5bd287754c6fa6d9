// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/tmtsoftware/csw-aas-go/pkg/authz"
	"github.com/tmtsoftware/csw-aas-go/pkg/identity/mocks"
	"github.com/tmtsoftware/csw-aas-go/pkg/session"
)

func authenticatedSnapshot(t *testing.T) *session.Snapshot {
	t.Helper()
	ctrl := gomock.NewController(t)

	h := mocks.NewMockHandle(ctrl)
	h.EXPECT().IsAuthenticated().Return(true).AnyTimes()
	h.EXPECT().ClientID().Return("aas-ui").AnyTimes()
	h.EXPECT().Token().Return("secret-access-token").AnyTimes()
	h.EXPECT().Expiry().Return(time.Now().Add(time.Hour)).AnyTimes()
	h.EXPECT().Subject().Return("user-1").AnyTimes()
	h.EXPECT().TokenClaims().Return(map[string]any{"sub": "user-1"}).AnyTimes()
	h.EXPECT().RealmRoles().Return([]string{"tmt-user"}).AnyTimes()
	h.EXPECT().ResourceRoles().Return(map[string][]string{"aas-ui": {"admin"}}).AnyTimes()

	s, err := session.FromHandle(h)
	require.NoError(t, err)
	return &session.Snapshot{State: session.Authenticated, Session: s, Endpoint: "http://localhost:8081/auth", Version: 2}
}

type fakeStore struct {
	silent      *session.Snapshot
	interactive *session.Snapshot
	logins      int
}

func (f *fakeStore) InitializeOnLoad(context.Context) *session.Snapshot { return f.silent }

func (f *fakeStore) Login(context.Context) *session.Snapshot {
	f.logins++
	return f.interactive
}

func TestEstablishSession(t *testing.T) {
	t.Parallel()

	authenticated := authenticatedSnapshot(t)
	unauthenticated := &session.Snapshot{State: session.Unauthenticated, Version: 2}
	failed := &session.Snapshot{State: session.Failed, Err: session.ErrInitializationFailed, Version: 4}

	tests := []struct {
		name       string
		store      *fakeStore
		wantLogins int
		wantErr    error
	}{
		{"existing session", &fakeStore{silent: authenticated}, 0, nil},
		{"interactive login", &fakeStore{silent: unauthenticated, interactive: authenticated}, 1, nil},
		{"login failed", &fakeStore{silent: unauthenticated, interactive: failed}, 1, session.ErrInitializationFailed},
		{"login left unauthenticated", &fakeStore{silent: unauthenticated, interactive: unauthenticated}, 1, errNotAuthenticated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			snap, err := establishSession(context.Background(), tt.store)
			assert.Equal(t, tt.wantLogins, tt.store.logins)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.ErrorIs(t, err, errNotAuthenticated)
				return
			}
			require.NoError(t, err)
			assert.True(t, snap.IsAuthenticated())
		})
	}
}

func TestPrintSession(t *testing.T) {
	t.Parallel()

	snap := authenticatedSnapshot(t)

	var text bytes.Buffer
	require.NoError(t, printSession(&text, snap, false))
	assert.Contains(t, text.String(), "user-1")
	assert.Contains(t, text.String(), "tmt-user")
	assert.Contains(t, text.String(), "aas-ui: admin")
	assert.NotContains(t, text.String(), "secret-access-token")

	var out bytes.Buffer
	require.NoError(t, printSession(&out, snap, true))
	assert.NotContains(t, out.String(), "secret-access-token")

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	assert.Equal(t, "authenticated", decoded["state"])
	assert.Equal(t, "REDACTED", decoded["session"].(map[string]any)["token"])
}

func TestGateFromArgs(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "gate.yaml")
	require.NoError(t, os.WriteFile(path, []byte("type: realm_role\nrole: admin\n"), 0o600))

	req, err := gateFromArgs([]string{`{"type":"authenticated"}`}, "")
	require.NoError(t, err)
	assert.Equal(t, authz.KindAuthenticationOnly, req.Kind())

	req, err = gateFromArgs(nil, path)
	require.NoError(t, err)
	assert.Equal(t, authz.KindRealmRole, req.Kind())
	assert.Equal(t, "admin", req.Role())

	_, err = gateFromArgs([]string{`{"type":"authenticated"}`}, path)
	assert.Error(t, err)

	_, err = gateFromArgs(nil, "")
	assert.Error(t, err)

	_, err = gateFromArgs([]string{`{"type":"group"}`}, "")
	assert.ErrorIs(t, err, authz.ErrUnknownType)
}

func runRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestVersionCmd(t *testing.T) { //nolint:paralleltest // NewRootCmd binds global viper flags
	out, err := runRoot(t, "version", "--json")
	require.NoError(t, err)

	var info map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Contains(t, info["version"], "build-")
	assert.NotEmpty(t, info["go_version"])
}

func TestConfigValidateCmd(t *testing.T) { //nolint:paralleltest // NewRootCmd binds global viper flags
	dir := t.TempDir()

	valid := filepath.Join(dir, "valid.yaml")
	require.NoError(t, os.WriteFile(valid, []byte(`identityProvider:
  realm: TMT
  clientId: aas-ui
`), 0o600))

	out, err := runRoot(t, "--config", valid, "config", "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration is valid")
	assert.Contains(t, out, "Realm: TMT")

	invalid := filepath.Join(dir, "invalid.yaml")
	require.NoError(t, os.WriteFile(invalid, []byte(`identityProvider:
  realm: TMT
  bogus: true
`), 0o600))

	_, err = runRoot(t, "--config", invalid, "config", "validate")
	assert.Error(t, err)
}
