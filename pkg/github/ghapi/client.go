// Package ghapi provides a github.Dispatcher implementation backed by the
// GitHub REST API.
package ghapi

import (
	"bookverse/pkg/github"
	"bookverse/pkg/serrors"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const defaultBaseURL = "https://api.github.com"

// Client talks to the GitHub REST API and fulfills the github.Dispatcher
// interface. It is safe for concurrent use.
type Client struct {
	httpClient *http.Client // httpClient performs HTTP requests to GitHub
	baseURL    string       // baseURL allows pointing at GitHub Enterprise instances
	token      string       // token is the PAT or installation token used as Bearer auth
}

// New constructs a Client that uses the provided http.Client and token to
// interact with api.github.com.
func New(httpClient *http.Client, token string) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    defaultBaseURL,
		token:      token,
	}
}

// NewWithBaseURL is like New but targets a different API root, such as a
// GitHub Enterprise Server instance.
func NewWithBaseURL(httpClient *http.Client, baseURL, token string) *Client {
	c := New(httpClient, token)
	c.baseURL = strings.TrimRight(baseURL, "/")

	return c
}

// Dispatch delivers a repository_dispatch event. GitHub acknowledges a
// successful dispatch with 204 No Content; anything else is a failure.
func (c *Client) Dispatch(ctx context.Context, d github.Dispatch) error {
	// https://docs.github.com/en/rest/repos/repos#create-a-repository-dispatch-event
	if d.Owner == "" || d.Repo == "" || d.EventType == "" {
		return serrors.With(serrors.ErrBadRequest, "dispatch requires owner, repo and event type")
	}

	payload := d.ClientPayload
	if d.DryRun {
		payload = make(map[string]any, len(d.ClientPayload)+1)
		for k, v := range d.ClientPayload {
			payload[k] = v
		}
		payload["dry_run"] = true
	}

	type dispatchReq struct {
		EventType     string         `json:"event_type"`
		ClientPayload map[string]any `json:"client_payload,omitempty"`
	}
	bodyBytes, err := json.Marshal(dispatchReq{EventType: d.EventType, ClientPayload: payload})
	if err != nil {
		return fmt.Errorf("could not marshal request: %w", err)
	}

	target := c.baseURL + "/repos/" + url.PathEscape(d.Owner) + "/" + url.PathEscape(d.Repo) + "/dispatches"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, strings.NewReader(string(bodyBytes)))
	if err != nil {
		return fmt.Errorf("could not create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("could not send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("could not read response body: %w", err)
	}
	k := serrors.FromHTTPStatus(resp.StatusCode)
	if k == nil {
		// a 2xx other than 204 still means the dispatch was not registered
		k = serrors.ErrInternal
	}

	return serrors.With(k, "dispatch failed: HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
}

// Ensure Client conforms to the github.Dispatcher interface at compile time.
var _ github.Dispatcher = (*Client)(nil)
