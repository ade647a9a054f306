// Package jfrogapi provides a platform.Client implementation backed by the
// JFrog Platform REST APIs (AppTrust, Access and Artifactory).
package jfrogapi

import (
	"bookverse/pkg/serrors"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	defaultMaxRetries = 4
	// retryAfterCap bounds how long a single Retry-After hint is honored.
	retryAfterCap = 30 * time.Second
)

// Client talks to a JFrog Platform instance and fulfills the platform.Client
// interface. It is safe for concurrent use.
type Client struct {
	httpClient *http.Client // httpClient performs HTTP requests to the platform
	baseURL    string       // baseURL is the platform root, e.g. https://acme.jfrog.io
	token      string       // token is the access token sent as Bearer auth
	maxRetries uint64       // maxRetries bounds retries of transient failures
}

// New constructs a Client that uses the provided http.Client and access token
// to interact with the platform rooted at baseURL.
func New(httpClient *http.Client, baseURL, token string) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		maxRetries: defaultMaxRetries,
	}
}

// response captures the final outcome of a request after retries. Callers
// inspect Status themselves; transport failures and exhausted retries surface
// as errors from do instead.
type response struct {
	Status int
	Header http.Header
	Body   []byte
}

// ok reports whether the response carries a 2xx status.
func (r *response) ok() bool { return r.Status >= 200 && r.Status < 300 }

// errorf converts a non-2xx response into a semantic error, including the
// trimmed response body for context.
func (r *response) errorf(what string) error {
	k := serrors.FromHTTPStatus(r.Status)
	if k == nil {
		k = serrors.ErrInternal
	}

	return serrors.With(k, "%s: HTTP %d: %s", what, r.Status, strings.TrimSpace(string(r.Body)))
}

// decode unmarshals the response body into out.
func (r *response) decode(out any) error {
	if err := json.Unmarshal(r.Body, out); err != nil {
		return fmt.Errorf("could not decode response: %w", err)
	}

	return nil
}

// retryable reports whether a status is worth retrying: rate limits and
// transient upstream failures.
func retryable(status int) bool {
	switch status {
	case http.StatusTooManyRequests,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

// retryAfter extracts a Retry-After hint in seconds, capped to retryAfterCap.
// Zero means no usable hint.
func retryAfter(h http.Header) time.Duration {
	v := h.Get("Retry-After")
	if v == "" {
		return 0
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs <= 0 {
		return 0
	}
	d := time.Duration(secs) * time.Second
	if d > retryAfterCap {
		return retryAfterCap
	}

	return d
}

// do performs a single API call with bounded exponential backoff on transport
// errors and transient statuses. The body, when non-nil, is marshaled as JSON
// unless rawBody is used via doRaw. Non-transient statuses (including 4xx)
// are returned to the caller for inspection.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any) (*response, error) {
	var payload []byte
	contentType := ""
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("could not marshal request body: %w", err)
		}
		payload = b
		contentType = "application/json"
	}

	return c.doRaw(ctx, method, path, query, payload, contentType)
}

// doRaw is like do but sends the body bytes verbatim with the given content
// type (used for AQL queries which are text/plain).
func (c *Client) doRaw(ctx context.Context,
	method, path string,
	query url.Values,
	payload []byte,
	contentType string) (*response, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	op := func() (*response, error) {
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, target, reader)
		if err != nil {
			return nil, backoff.Permanent(fmt.Errorf("could not create request: %w", err))
		}
		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("Accept", "application/json")
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			// transport errors are retried
			return nil, fmt.Errorf("could not send request: %w", err)
		}
		defer func() {
			_ = resp.Body.Close()
		}()

		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("could not read response body: %w", err)
		}

		out := &response{Status: resp.StatusCode, Header: resp.Header, Body: b}
		if retryable(resp.StatusCode) {
			// honor an explicit Retry-After hint before the next attempt
			if wait := retryAfter(resp.Header); wait > 0 {
				timer := time.NewTimer(wait)
				select {
				case <-ctx.Done():
					timer.Stop()

					return nil, backoff.Permanent(ctx.Err())
				case <-timer.C:
				}
			}

			return nil, out.errorf(method + " " + path)
		}

		return out, nil
	}

	bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), c.maxRetries), ctx)
	resp, err := backoff.RetryWithData(op, bo)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	return resp, nil
}
