// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package networking provides the HTTP plumbing shared by the location
// resolver and the identity adapter: a hardened client builder, URL checks
// and a generic JSON fetch helper.
package networking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const (
	// DefaultMaxResponseSize caps how much of a response body is read (1MB).
	DefaultMaxResponseSize = 1024 * 1024

	// DefaultErrorPreviewSize caps the body preview kept on HTTPError.
	DefaultErrorPreviewSize = 1024

	// ContentTypeJSON is the JSON content type.
	ContentTypeJSON = "application/json"

	// ContentTypeFormURLEncoded is the form-urlencoded content type.
	ContentTypeFormURLEncoded = "application/x-www-form-urlencoded"

	// UserAgent is sent on every request issued through FetchJSON.
	UserAgent = "csw-aas-go/1.0"
)

// HTTPClient is the subset of *http.Client used by this package.
// Tests substitute their own implementation.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// FetchResult is a successfully decoded JSON response.
type FetchResult[T any] struct {
	// Data is the decoded body.
	Data T

	// StatusCode is the HTTP status code of the response.
	StatusCode int

	// Headers are the response headers.
	Headers http.Header
}

// HTTPError describes a response whose status was not 200.
type HTTPError struct {
	// StatusCode is the HTTP status code.
	StatusCode int

	// Body is a preview of the response body, at most DefaultErrorPreviewSize bytes.
	Body string

	// URL is the requested URL.
	URL string
}

// Error implements the error interface. The body preview is left out so
// provider error pages never end up in logs verbatim.
func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP request to %s failed with status %d", e.URL, e.StatusCode)
}

// IsHTTPError reports whether err is an HTTPError with the given status code.
// A statusCode of 0 matches any HTTPError.
func IsHTTPError(err error, statusCode int) bool {
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		return false
	}
	return statusCode == 0 || httpErr.StatusCode == statusCode
}

// FetchOption configures a single FetchJSON call.
type FetchOption func(*fetchOptions)

type fetchOptions struct {
	method                    string
	headers                   http.Header
	body                      io.Reader
	maxResponseSize           int64
	skipContentTypeValidation bool
}

func newFetchOptions() *fetchOptions {
	return &fetchOptions{
		method:          http.MethodGet,
		headers:         make(http.Header),
		maxResponseSize: DefaultMaxResponseSize,
	}
}

// WithMethod sets the HTTP method. GET is used by default.
func WithMethod(method string) FetchOption {
	return func(o *fetchOptions) {
		o.method = method
	}
}

// WithHeader sets a request header.
func WithHeader(key, value string) FetchOption {
	return func(o *fetchOptions) {
		o.headers.Set(key, value)
	}
}

// WithBearerToken sets the Authorization header to a bearer token.
func WithBearerToken(token string) FetchOption {
	return WithHeader("Authorization", "Bearer "+token)
}

// WithBody sets the request body.
func WithBody(body io.Reader) FetchOption {
	return func(o *fetchOptions) {
		o.body = body
	}
}

// WithMaxResponseSize overrides DefaultMaxResponseSize.
func WithMaxResponseSize(size int64) FetchOption {
	return func(o *fetchOptions) {
		o.maxResponseSize = size
	}
}

// WithoutContentTypeValidation accepts 200 responses whatever their Content-Type.
// The location service does not always label its JSON.
func WithoutContentTypeValidation() FetchOption {
	return func(o *fetchOptions) {
		o.skipContentTypeValidation = true
	}
}

// FetchJSON issues a request and decodes a 200 JSON response into T.
// Non-200 responses produce an *HTTPError.
func FetchJSON[T any](
	ctx context.Context,
	client HTTPClient,
	requestURL string,
	opts ...FetchOption,
) (*FetchResult[T], error) {
	options := newFetchOptions()
	for _, opt := range opts {
		opt(options)
	}
	if options.headers.Get("Accept") == "" {
		options.headers.Set("Accept", ContentTypeJSON)
	}
	if options.headers.Get("User-Agent") == "" {
		options.headers.Set("User-Agent", UserAgent)
	}

	req, err := http.NewRequestWithContext(ctx, options.method, requestURL, options.body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for key, values := range options.headers {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, options.maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		preview := string(body)
		if len(preview) > DefaultErrorPreviewSize {
			preview = preview[:DefaultErrorPreviewSize]
		}
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: preview, URL: requestURL}
	}

	if !options.skipContentTypeValidation {
		contentType := resp.Header.Get("Content-Type")
		if !strings.Contains(strings.ToLower(contentType), ContentTypeJSON) {
			return nil, fmt.Errorf("unexpected content type: %s", contentType)
		}
	}

	var data T
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("failed to parse JSON response: %w", err)
	}

	return &FetchResult[T]{
		Data:       data,
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
	}, nil
}

// PostForm sends a form-urlencoded POST and only checks the status code.
// Any 2xx status is success; the body is discarded.
func PostForm(ctx context.Context, client HTTPClient, requestURL string, form url.Values) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, requestURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", ContentTypeFormURLEncoded)
	req.Header.Set("User-Agent", UserAgent)

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, DefaultErrorPreviewSize))
		return &HTTPError{StatusCode: resp.StatusCode, Body: string(body), URL: requestURL}
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, DefaultMaxResponseSize))
	return nil
}
