// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package identity

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/google/uuid"
	"github.com/pkg/browser"
	"golang.org/x/oauth2"

	"github.com/tmtsoftware/csw-aas-go/pkg/config"
)

// Launcher opens the provider's authorization URL in a user agent.
type Launcher func(authURL string) error

// BrowserLauncher opens authURL in the system browser.
func BrowserLauncher(authURL string) error {
	return browser.OpenURL(authURL)
}

// CallbackOptions configure the loopback server that receives the
// authorization response.
type CallbackOptions struct {
	// Address is the loopback host:port to listen on. Port 0 picks a free port.
	Address string

	// Path is the redirect path.
	Path string

	// Timeout bounds the whole interactive login.
	Timeout time.Duration
}

// callbackResult is what the callback handler delivers to the waiting flow.
type callbackResult struct {
	token *oauth2.Token
	err   error
}

// loginFlow is one interactive authorization code login.
type loginFlow struct {
	realm    *realm
	launcher Launcher
	callback CallbackOptions
	log      *slog.Logger

	oauth2   oauth2.Config
	state    string
	nonce    string
	verifier string
}

func newLoginFlow(r *realm, launcher Launcher, callback CallbackOptions, log *slog.Logger) *loginFlow {
	return &loginFlow{
		realm:    r,
		launcher: launcher,
		callback: callback,
		log:      log,
		oauth2:   r.oauth2,
		state:    uuid.NewString(),
		nonce:    uuid.NewString(),
		verifier: oauth2.GenerateVerifier(),
	}
}

// run serves the callback, opens the user agent and waits for the token.
func (f *loginFlow) run(ctx context.Context) (*oauth2.Token, string, error) {
	if f.callback.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.callback.Timeout)
		defer cancel()
	}

	listener, err := (&net.ListenConfig{}).Listen(ctx, "tcp", f.callback.Address)
	if err != nil {
		return nil, "", fmt.Errorf("failed to start callback server: %w", err)
	}
	f.oauth2.RedirectURL = fmt.Sprintf("http://%s%s", listener.Addr().String(), f.callback.Path)

	results := make(chan callbackResult, 1)
	mux := http.NewServeMux()
	mux.HandleFunc(f.callback.Path, f.handleCallback(ctx, results))

	server := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			deliver(results, callbackResult{err: fmt.Errorf("callback server failed: %w", err)})
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			f.log.Warn("failed to shut down callback server", "error", err)
		}
	}()

	authURL := f.authCodeURL()
	f.log.Debug("opening authorization URL", "redirect_uri", f.oauth2.RedirectURL, "flow", f.realm.flow)
	if err := f.launcher(authURL); err != nil {
		f.log.Warn("failed to open browser", "error", err)
		f.log.Info("please open this URL in your browser", "url", authURL)
	}

	select {
	case res := <-results:
		return res.token, f.nonce, res.err
	case <-ctx.Done():
		return nil, "", fmt.Errorf("login cancelled: %w", ctx.Err())
	}
}

func (f *loginFlow) authCodeURL() string {
	opts := []oauth2.AuthCodeOption{
		oauth2.S256ChallengeOption(f.verifier),
		oidc.Nonce(f.nonce),
	}
	if f.realm.flow == config.FlowHybrid {
		opts = append(opts,
			oauth2.SetAuthURLParam("response_type", "code id_token"),
			oauth2.SetAuthURLParam("response_mode", "form_post"),
		)
	}
	return f.oauth2.AuthCodeURL(f.state, opts...)
}

func (f *loginFlow) handleCallback(ctx context.Context, results chan<- callbackResult) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if err := r.ParseForm(); err != nil {
			f.fail(w, results, fmt.Errorf("malformed callback: %w", err))
			return
		}

		if errParam := r.Form.Get("error"); errParam != "" {
			f.fail(w, results, fmt.Errorf("%w: %s - %s", ErrLogin, errParam, r.Form.Get("error_description")))
			return
		}
		if r.Form.Get("state") != f.state {
			f.fail(w, results, ErrStateMismatch)
			return
		}
		code := r.Form.Get("code")
		if code == "" {
			f.fail(w, results, errors.New("missing authorization code"))
			return
		}
		if f.realm.flow == config.FlowHybrid {
			rawID := r.Form.Get("id_token")
			if rawID == "" {
				f.fail(w, results, errors.New("missing ID token in hybrid response"))
				return
			}
			if _, err := f.realm.verifyIDToken(ctx, rawID, f.nonce); err != nil {
				f.fail(w, results, err)
				return
			}
		}

		token, err := f.oauth2.Exchange(f.realm.clientContext(ctx), code, oauth2.VerifierOption(f.verifier))
		if err != nil {
			f.fail(w, results, fmt.Errorf("failed to exchange code for token: %w", err))
			return
		}

		writeSuccessPage(w, f.log)
		deliver(results, callbackResult{token: token})
	}
}

func (f *loginFlow) fail(w http.ResponseWriter, results chan<- callbackResult, err error) {
	writeErrorPage(w, err, f.log)
	deliver(results, callbackResult{err: err})
}

// deliver keeps the first result; later callbacks are dropped.
func deliver(results chan<- callbackResult, res callbackResult) {
	select {
	case results <- res:
	default:
	}
}

func setSecurityHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("X-Frame-Options", "DENY")
	w.Header().Set("Referrer-Policy", "no-referrer")
	w.Header().Set("Content-Security-Policy", "default-src 'self'; style-src 'unsafe-inline'; script-src 'none'; object-src 'none';")
}

const pageTemplate = `<!DOCTYPE html>
<html>
<head>
    <title>%s</title>
    <meta charset="utf-8">
    <style>
        body { font-family: Arial, sans-serif; margin: 40px; text-align: center; }
        .message { max-width: 600px; margin: 20px auto; padding: 20px; border-radius: 5px; }
    </style>
</head>
<body>
    <h1>%s</h1>
    <div class="message"><p>%s</p></div>
</body>
</html>`

func writeSuccessPage(w http.ResponseWriter, log *slog.Logger) {
	setSecurityHeaders(w)
	page := fmt.Sprintf(pageTemplate, "Login Successful", "Login Successful",
		"You are signed in. You can close this window.")
	if _, err := w.Write([]byte(page)); err != nil {
		log.Warn("failed to write callback page", "error", err)
	}
}

func writeErrorPage(w http.ResponseWriter, err error, log *slog.Logger) {
	setSecurityHeaders(w)
	w.WriteHeader(http.StatusBadRequest)
	page := fmt.Sprintf(pageTemplate, "Login Failed", "Login Failed", html.EscapeString(err.Error()))
	if _, werr := w.Write([]byte(page)); werr != nil {
		log.Warn("failed to write callback page", "error", werr)
	}
}
