// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package identity

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"github.com/tmtsoftware/csw-aas-go/pkg/config"
	"github.com/tmtsoftware/csw-aas-go/pkg/networking"
)

// realm is one discovered realm/client pair. It is immutable once built.
type realm struct {
	issuer           string
	clientID         string
	flow             config.Flow
	verifyAudience   bool
	useResourceRoles bool

	provider           *oidc.Provider
	verifier           *oidc.IDTokenVerifier
	oauth2             oauth2.Config
	endSessionEndpoint string
	httpClient         *http.Client
}

type discoveryClaims struct {
	EndSessionEndpoint string `json:"end_session_endpoint"`
}

// issuerFor returns the realm issuer under the provider base URL.
func issuerFor(baseURL, realmName string) string {
	return strings.TrimRight(baseURL, "/") + "/realms/" + url.PathEscape(realmName)
}

func validatePayload(p *config.InitPayload) error {
	if p == nil {
		return fmt.Errorf("%w: payload is nil", ErrInvalidPayload)
	}
	var missing []string
	if p.URL == "" {
		missing = append(missing, config.KeyURL)
	}
	if p.Realm == "" {
		missing = append(missing, config.KeyRealm)
	}
	if p.ClientID == "" {
		missing = append(missing, config.KeyClientID)
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidPayload, strings.Join(missing, ", "))
	}
	if !networking.IsURL(p.URL) {
		return fmt.Errorf("%w: url %q is not an absolute http(s) URL", ErrInvalidPayload, p.URL)
	}
	return nil
}

// checkTransport enforces sslRequired on the provider URL.
func checkTransport(ssl config.SSLRequired, rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}
	secure := u.Scheme == networking.HTTPSScheme
	switch ssl {
	case config.SSLRequiredNone:
		return nil
	case config.SSLRequiredAll:
		if !secure {
			return fmt.Errorf("%w: all requests must use HTTPS (%s)", ErrInsecureTransport, u.Redacted())
		}
		return nil
	case config.SSLRequiredExternal, "":
		if !secure && !networking.IsPrivateHost(u.Host) {
			return fmt.Errorf("%w: external requests must use HTTPS (%s)", ErrInsecureTransport, u.Redacted())
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown sslRequired %q", ErrInvalidPayload, ssl)
	}
}

func scopesFor(extra []string) []string {
	scopes := []string{oidc.ScopeOpenID}
	for _, s := range extra {
		if s != "" && !slices.Contains(scopes, s) {
			scopes = append(scopes, s)
		}
	}
	return scopes
}

// newRealm builds the realm client from a discovered provider.
func newRealm(provider *oidc.Provider, issuer string, p *config.InitPayload, client *http.Client) (*realm, error) {
	var claims discoveryClaims
	if err := provider.Claims(&claims); err != nil {
		return nil, fmt.Errorf("failed to extract provider claims: %w", err)
	}

	endpoint := provider.Endpoint()
	r := &realm{
		issuer:             issuer,
		clientID:           p.ClientID,
		flow:               p.Flow,
		verifyAudience:     p.VerifyTokenAudience,
		useResourceRoles:   p.UseResourceRoleMappings,
		provider:           provider,
		endSessionEndpoint: claims.EndSessionEndpoint,
		httpClient:         client,
		oauth2: oauth2.Config{
			ClientID: p.ClientID,
			Scopes:   scopesFor(p.Scopes),
			Endpoint: oauth2.Endpoint{
				AuthURL:   endpoint.AuthURL,
				TokenURL:  endpoint.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
	}
	r.verifier = provider.Verifier(&oidc.Config{
		ClientID:          p.ClientID,
		SkipClientIDCheck: !p.VerifyTokenAudience,
	})
	if r.flow == "" {
		r.flow = config.FlowHybrid
	}
	return r, nil
}

// clientContext carries the realm's HTTP client to go-oidc and oauth2.
func (r *realm) clientContext(ctx context.Context) context.Context {
	return oidc.ClientContext(ctx, r.httpClient)
}

// verifyIDToken verifies signature, issuer, audience and expiry, and the
// nonce when one is expected.
func (r *realm) verifyIDToken(ctx context.Context, raw, nonce string) (*oidc.IDToken, error) {
	token, err := r.verifier.Verify(r.clientContext(ctx), raw)
	if err != nil {
		return nil, fmt.Errorf("failed to verify ID token: %w", err)
	}
	if nonce != "" {
		if token.Nonce == "" {
			return nil, ErrNonceMissing
		}
		if token.Nonce != nonce {
			return nil, ErrNonceMismatch
		}
	}
	return token, nil
}

// ssoKey identifies the in-process SSO session for this realm and client.
func (r *realm) ssoKey() string {
	return r.issuer + "\x00" + r.clientID
}
