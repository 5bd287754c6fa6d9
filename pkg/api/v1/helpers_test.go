// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package v1

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	identitymocks "github.com/tmtsoftware/csw-aas-go/pkg/identity/mocks"
	"github.com/tmtsoftware/csw-aas-go/pkg/session"
)

var testExpiry = time.Date(2099, 1, 2, 3, 4, 5, 0, time.UTC)

func authenticatedSnapshot(t *testing.T) *session.Snapshot {
	t.Helper()
	ctrl := gomock.NewController(t)

	h := identitymocks.NewMockHandle(ctrl)
	h.EXPECT().IsAuthenticated().Return(true).AnyTimes()
	h.EXPECT().ClientID().Return("aas-ui").AnyTimes()
	h.EXPECT().Token().Return("access-token").AnyTimes()
	h.EXPECT().Expiry().Return(testExpiry).AnyTimes()
	h.EXPECT().Subject().Return("user-1").AnyTimes()
	h.EXPECT().TokenClaims().Return(map[string]any{"sub": "user-1"}).AnyTimes()
	h.EXPECT().RealmRoles().Return([]string{"tmt-user"}).AnyTimes()
	h.EXPECT().ResourceRoles().Return(map[string][]string{"aas-ui": {"admin"}}).AnyTimes()

	s, err := session.FromHandle(h)
	require.NoError(t, err)
	return &session.Snapshot{
		State:    session.Authenticated,
		Session:  s,
		Endpoint: "http://10.0.0.7:8081/auth",
		Version:  2,
	}
}
