package ghapi_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"bookverse/pkg/github"
	"bookverse/pkg/github/ghapi"
	"bookverse/pkg/serrors"

	"github.com/stretchr/testify/require"
)

// rtFunc allows using a function as an http.RoundTripper.
type rtFunc func(*http.Request) (*http.Response, error)

func (f rtFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func newTestClient(fn rtFunc) *ghapi.Client {
	return ghapi.New(&http.Client{Transport: fn}, "test-token")
}

func TestClient_Dispatch_success(t *testing.T) {
	c := newTestClient(func(r *http.Request) (*http.Response, error) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "api.github.com", r.URL.Host)
		require.Equal(t, "/repos/acme/bookverse-helm/dispatches", r.URL.Path)
		require.Equal(t, "application/vnd.github+json", r.Header.Get("Accept"))
		require.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		b, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		var body struct {
			EventType     string         `json:"event_type"`
			ClientPayload map[string]any `json:"client_payload"`
		}
		require.NoError(t, json.Unmarshal(b, &body))
		require.Equal(t, "release_completed", body.EventType)
		require.Equal(t, "bookverse-web", body.ClientPayload["application_key"])

		return &http.Response{StatusCode: http.StatusNoContent, Body: io.NopCloser(strings.NewReader(""))}, nil
	})

	err := c.Dispatch(context.Background(), github.Dispatch{
		Owner:     "acme",
		Repo:      "bookverse-helm",
		EventType: "release_completed",
		ClientPayload: map[string]any{
			"application_key": "bookverse-web",
			"version":         "1.4.1",
		},
	})
	require.NoError(t, err)
}

func TestClient_Dispatch_dryRunMarker(t *testing.T) {
	c := newTestClient(func(r *http.Request) (*http.Response, error) {
		b, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		var body struct {
			ClientPayload map[string]any `json:"client_payload"`
		}
		require.NoError(t, json.Unmarshal(b, &body))
		require.Equal(t, true, body.ClientPayload["dry_run"])
		require.Equal(t, "bookverse-web", body.ClientPayload["application_key"])

		return &http.Response{StatusCode: http.StatusNoContent, Body: io.NopCloser(strings.NewReader(""))}, nil
	})

	err := c.Dispatch(context.Background(), github.Dispatch{
		Owner:         "acme",
		Repo:          "bookverse-helm",
		EventType:     "release_completed",
		ClientPayload: map[string]any{"application_key": "bookverse-web"},
		DryRun:        true,
	})
	require.NoError(t, err)
}

func TestClient_Dispatch_non204IsError(t *testing.T) {
	c := newTestClient(func(r *http.Request) (*http.Response, error) {
		return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(strings.NewReader(`{}`))}, nil
	})

	err := c.Dispatch(context.Background(), github.Dispatch{Owner: "acme", Repo: "r", EventType: "e"})
	require.Error(t, err)
}

func TestClient_Dispatch_unauthorized(t *testing.T) {
	c := newTestClient(func(r *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusUnauthorized,
			Body:       io.NopCloser(strings.NewReader(`{"message":"Bad credentials"}`)),
		}, nil
	})

	err := c.Dispatch(context.Background(), github.Dispatch{Owner: "acme", Repo: "r", EventType: "e"})
	require.Error(t, err)
	require.ErrorIs(t, err, serrors.ErrUnauthorized)
	require.Contains(t, err.Error(), "Bad credentials")
}

func TestClient_Dispatch_missingFields(t *testing.T) {
	c := newTestClient(func(r *http.Request) (*http.Response, error) {
		t.Fatal("no request expected")

		return nil, nil
	})

	err := c.Dispatch(context.Background(), github.Dispatch{Owner: "acme"})
	require.ErrorIs(t, err, serrors.ErrBadRequest)
}
