// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package identity

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/tmtsoftware/csw-aas-go/pkg/config"
)

const (
	testRealm    = "tmt"
	testClientID = "aas-ui"
	testSubject  = "user-1"
	testKeyID    = "test-key"
)

type authRequest struct {
	nonce     string
	challenge string
}

// mockKeycloak is a single-realm Keycloak stand-in: discovery, JWKS, token,
// userinfo, account and logout endpoints.
type mockKeycloak struct {
	t      *testing.T
	server *httptest.Server
	key    *rsa.PrivateKey
	issuer string

	mu             sync.Mutex
	codes          map[string]authRequest
	refreshTokens  map[string]bool
	issued         int
	refreshGrants  int
	logouts        []url.Values
	lastAuthParams url.Values

	// knobs
	failRefresh    bool
	logoutStatus   int
	accessAudience string
	tokenNonce     string
	omitIDToken    bool
}

func newMockKeycloak(t *testing.T) *mockKeycloak {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	m := &mockKeycloak{
		t:             t,
		key:           key,
		codes:         map[string]authRequest{},
		refreshTokens: map[string]bool{},
		logoutStatus:  http.StatusNoContent,
	}

	mux := http.NewServeMux()
	prefix := "/realms/" + testRealm
	mux.HandleFunc(prefix+"/.well-known/openid-configuration", m.handleDiscovery)
	mux.HandleFunc(prefix+"/protocol/openid-connect/certs", m.handleJWKS)
	mux.HandleFunc(prefix+"/protocol/openid-connect/token", m.handleToken)
	mux.HandleFunc(prefix+"/protocol/openid-connect/userinfo", m.handleUserInfo)
	mux.HandleFunc(prefix+"/protocol/openid-connect/logout", m.handleLogout)
	mux.HandleFunc(prefix+"/account", m.handleAccount)

	m.server = httptest.NewServer(mux)
	t.Cleanup(m.server.Close)
	m.issuer = m.server.URL + prefix
	return m
}

func (m *mockKeycloak) payload() *config.InitPayload {
	return &config.InitPayload{
		URL:                     m.server.URL,
		Realm:                   testRealm,
		ClientID:                testClientID,
		SSLRequired:             config.SSLRequiredExternal,
		VerifyTokenAudience:     true,
		UseResourceRoleMappings: true,
		Flow:                    config.FlowHybrid,
	}
}

func (m *mockKeycloak) set(fn func(m *mockKeycloak)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn(m)
}

func (m *mockKeycloak) grants() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.refreshGrants
}

func (m *mockKeycloak) logoutForms() []url.Values {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]url.Values(nil), m.logouts...)
}

func (m *mockKeycloak) authParams() url.Values {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastAuthParams
}

func (m *mockKeycloak) handleDiscovery(w http.ResponseWriter, _ *http.Request) {
	endpoint := m.issuer + "/protocol/openid-connect"
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"issuer":                                m.issuer,
		"authorization_endpoint":                endpoint + "/auth",
		"token_endpoint":                        endpoint + "/token",
		"jwks_uri":                              endpoint + "/certs",
		"userinfo_endpoint":                     endpoint + "/userinfo",
		"end_session_endpoint":                  endpoint + "/logout",
		"id_token_signing_alg_values_supported": []string{"RS256"},
	})
}

func (m *mockKeycloak) handleJWKS(w http.ResponseWriter, _ *http.Request) {
	jwks := jose.JSONWebKeySet{Keys: []jose.JSONWebKey{{
		Key:       &m.key.PublicKey,
		KeyID:     testKeyID,
		Algorithm: "RS256",
		Use:       "sig",
	}}}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(jwks)
}

func (m *mockKeycloak) handleToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil || r.Form.Get("client_id") != testClientID {
		writeOAuthError(w, "invalid_client")
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var nonce string
	switch r.Form.Get("grant_type") {
	case "authorization_code":
		req, ok := m.codes[r.Form.Get("code")]
		delete(m.codes, r.Form.Get("code"))
		if !ok || pkceChallenge(r.Form.Get("code_verifier")) != req.challenge {
			writeOAuthError(w, "invalid_grant")
			return
		}
		nonce = req.nonce
	case "refresh_token":
		m.refreshGrants++
		rt := r.Form.Get("refresh_token")
		if m.failRefresh || !m.refreshTokens[rt] {
			writeOAuthError(w, "invalid_grant")
			return
		}
		delete(m.refreshTokens, rt)
	default:
		writeOAuthError(w, "unsupported_grant_type")
		return
	}
	if m.tokenNonce != "" {
		nonce = m.tokenNonce
	}

	m.issued++
	refreshToken := fmt.Sprintf("refresh-%d", m.issued)
	m.refreshTokens[refreshToken] = true

	resp := map[string]any{
		"access_token":  m.accessToken(m.issued),
		"token_type":    "Bearer",
		"expires_in":    300,
		"refresh_token": refreshToken,
	}
	if !m.omitIDToken {
		resp["id_token"] = m.idToken(nonce)
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (m *mockKeycloak) handleUserInfo(w http.ResponseWriter, r *http.Request) {
	if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"sub":                testSubject,
		"email":              "user1@tmt.org",
		"email_verified":     true,
		"preferred_username": "user1",
	})
}

func (m *mockKeycloak) handleAccount(w http.ResponseWriter, r *http.Request) {
	if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"id":            testSubject,
		"username":      "user1",
		"email":         "user1@tmt.org",
		"firstName":     "Test",
		"lastName":      "User",
		"emailVerified": true,
	})
}

func (m *mockKeycloak) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	_ = r.ParseForm()
	m.mu.Lock()
	m.logouts = append(m.logouts, r.PostForm)
	status := m.logoutStatus
	m.mu.Unlock()
	w.WriteHeader(status)
}

func (m *mockKeycloak) sign(claims jwt.MapClaims) string {
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = testKeyID
	signed, err := token.SignedString(m.key)
	require.NoError(m.t, err)
	return signed
}

func (m *mockKeycloak) idToken(nonce string) string {
	now := time.Now()
	claims := jwt.MapClaims{
		"iss": m.issuer,
		"sub": testSubject,
		"aud": testClientID,
		"azp": testClientID,
		"iat": now.Unix(),
		"exp": now.Add(5 * time.Minute).Unix(),
	}
	if nonce != "" {
		claims["nonce"] = nonce
	}
	return m.sign(claims)
}

func (m *mockKeycloak) accessToken(serial int) string {
	now := time.Now()
	azp := testClientID
	aud := any([]string{"account"})
	if m.accessAudience != "" {
		azp = m.accessAudience
		aud = m.accessAudience
	}
	return m.sign(jwt.MapClaims{
		"iss": m.issuer,
		"sub": testSubject,
		"azp": azp,
		"aud": aud,
		"jti": fmt.Sprintf("access-%d", serial),
		"iat": now.Unix(),
		"exp": now.Add(5 * time.Minute).Unix(),
		"realm_access": map[string]any{
			"roles": []string{"offline_access", "tmt-user"},
		},
		"resource_access": map[string]any{
			testClientID: map[string]any{"roles": []string{"admin"}},
			"account":    map[string]any{"roles": []string{"view-profile"}},
		},
	})
}

// authorize plays the user agent and the authorization endpoint: it issues a
// code for the request in authURL and delivers the response to the redirect
// URI the way the requested response mode does.
func (m *mockKeycloak) authorize(authURL string, tamper func(url.Values)) error {
	u, err := url.Parse(authURL)
	if err != nil {
		return err
	}
	params := u.Query()

	m.mu.Lock()
	m.lastAuthParams = params
	m.issued++
	code := fmt.Sprintf("code-%d", m.issued)
	m.codes[code] = authRequest{nonce: params.Get("nonce"), challenge: params.Get("code_challenge")}
	m.mu.Unlock()

	response := url.Values{
		"code":          {code},
		"state":         {params.Get("state")},
		"session_state": {"session-1"},
	}
	if strings.Contains(params.Get("response_type"), "id_token") {
		response.Set("id_token", m.idToken(params.Get("nonce")))
	}
	if tamper != nil {
		tamper(response)
	}

	redirect := params.Get("redirect_uri")
	var resp *http.Response
	if params.Get("response_mode") == "form_post" {
		resp, err = http.PostForm(redirect, response)
	} else {
		resp, err = http.Get(redirect + "?" + response.Encode())
	}
	if err != nil {
		return err
	}
	return resp.Body.Close()
}

// launcher returns a Launcher that completes the login in the background.
func (m *mockKeycloak) launcher(tamper func(url.Values)) Launcher {
	return func(authURL string) error {
		go func() { _ = m.authorize(authURL, tamper) }()
		return nil
	}
}

func (m *mockKeycloak) adapter(t *testing.T, opts ...Option) *Keycloak {
	t.Helper()
	base := []Option{
		WithHTTPClient(m.server.Client()),
		WithLauncher(m.launcher(nil)),
		WithDiscoveryTries(1),
		WithCallback(CallbackOptions{Address: "127.0.0.1:0", Path: "/callback", Timeout: 10 * time.Second}),
	}
	k, err := NewKeycloak(append(base, opts...)...)
	require.NoError(t, err)
	return k
}

func pkceChallenge(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

func writeOAuthError(w http.ResponseWriter, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": code})
}
