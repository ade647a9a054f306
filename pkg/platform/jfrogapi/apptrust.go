package jfrogapi

import (
	"bookverse/pkg/platform"
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const apptrustBase = "/apptrust/api/v1"

// versionEntry is the tolerant decoding of one version list item. Different
// AppTrust builds have used either "version" or "name" for the identifier.
type versionEntry struct {
	Version       string `json:"version"`
	Name          string `json:"name"`
	Tag           string `json:"tag"`
	ReleaseStatus string `json:"release_status"`
	Created       string `json:"created"`
}

func (e versionEntry) toInfo() platform.VersionInfo {
	v := e.Version
	if v == "" {
		v = e.Name
	}
	var created time.Time
	if e.Created != "" {
		if t, err := time.Parse(time.RFC3339Nano, e.Created); err == nil {
			created = t
		}
	}

	return platform.VersionInfo{
		Version:       v,
		Tag:           e.Tag,
		ReleaseStatus: strings.ToUpper(e.ReleaseStatus),
		Created:       created,
	}
}

// versionList tolerates the array key variants the API has shipped under.
type versionList struct {
	Versions []versionEntry `json:"versions"`
	Results  []versionEntry `json:"results"`
	Items    []versionEntry `json:"items"`
	Data     []versionEntry `json:"data"`
}

func (l versionList) entries() []versionEntry {
	switch {
	case len(l.Versions) > 0:
		return l.Versions
	case len(l.Results) > 0:
		return l.Results
	case len(l.Items) > 0:
		return l.Items
	default:
		return l.Data
	}
}

// ListApplications returns the application keys registered under a project.
func (c *Client) ListApplications(ctx context.Context, projectKey string) ([]string, error) {
	q := url.Values{}
	q.Set("project", projectKey)
	resp, err := c.do(ctx, http.MethodGet, apptrustBase+"/applications", q, nil)
	if err != nil {
		return nil, err
	}
	if !resp.ok() {
		return nil, resp.errorf("list applications")
	}

	type appEntry struct {
		ApplicationKey string `json:"application_key"`
	}
	// the endpoint has returned both a bare list and a wrapper object
	var apps []appEntry
	if err := resp.decode(&apps); err != nil {
		var wrapped struct {
			Applications []appEntry `json:"applications"`
		}
		if err := resp.decode(&wrapped); err != nil {
			return nil, err
		}
		apps = wrapped.Applications
	}

	keys := make([]string, 0, len(apps))
	for _, a := range apps {
		if a.ApplicationKey != "" {
			keys = append(keys, a.ApplicationKey)
		}
	}

	return keys, nil
}

// ListVersions returns up to limit versions of an application ordered by
// creation time descending.
func (c *Client) ListVersions(ctx context.Context, appKey string, limit int) ([]platform.VersionInfo, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("order_by", "created")
	q.Set("order_asc", "false")

	path := apptrustBase + "/applications/" + url.PathEscape(appKey) + "/versions"
	resp, err := c.do(ctx, http.MethodGet, path, q, nil)
	if err != nil {
		return nil, err
	}
	if !resp.ok() {
		return nil, resp.errorf("list versions")
	}

	var list versionList
	if err := resp.decode(&list); err != nil {
		return nil, err
	}

	entries := list.entries()
	out := make([]platform.VersionInfo, 0, len(entries))
	for _, e := range entries {
		info := e.toInfo()
		if info.Version == "" {
			continue
		}
		out = append(out, info)
	}

	return out, nil
}

// GetVersion fetches the detail record of a single application version.
func (c *Client) GetVersion(ctx context.Context, appKey, version string) (*platform.VersionDetail, error) {
	path := apptrustBase + "/applications/" + url.PathEscape(appKey) + "/versions/" + url.PathEscape(version)
	resp, err := c.do(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}
	if !resp.ok() {
		return nil, resp.errorf("get version")
	}

	var detail struct {
		Version string `json:"version"`
		Tag     string `json:"tag"`
		Sources struct {
			Builds []platform.BuildSource `json:"builds"`
		} `json:"sources"`
	}
	if err := resp.decode(&detail); err != nil {
		return nil, err
	}

	return &platform.VersionDetail{
		Version: detail.Version,
		Tag:     detail.Tag,
		Builds:  detail.Sources.Builds,
	}, nil
}

// GetVersionContent fetches the content listing of a version, including
// releasables.
func (c *Client) GetVersionContent(ctx context.Context, appKey, version string) (*platform.VersionContent, error) {
	path := apptrustBase + "/applications/" + url.PathEscape(appKey) +
		"/versions/" + url.PathEscape(version) + "/content"
	q := url.Values{}
	q.Set("include", "releasables")

	resp, err := c.do(ctx, http.MethodGet, path, q, nil)
	if err != nil {
		return nil, err
	}
	if !resp.ok() {
		return nil, resp.errorf("get version content")
	}

	var content platform.VersionContent
	if err := resp.decode(&content); err != nil {
		return nil, err
	}

	return &content, nil
}

// GetVersionPromotions lists the stage promotions recorded for a version.
func (c *Client) GetVersionPromotions(ctx context.Context, appKey, version string) ([]platform.Promotion, error) {
	path := apptrustBase + "/applications/" + url.PathEscape(appKey) +
		"/versions/" + url.PathEscape(version) + "/promotions"

	resp, err := c.do(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}
	if !resp.ok() {
		return nil, resp.errorf("get version promotions")
	}

	var out struct {
		Promotions []platform.Promotion `json:"promotions"`
	}
	if err := resp.decode(&out); err != nil {
		return nil, err
	}

	return out.Promotions, nil
}

// PatchVersion applies a partial update to a version: tag replacement and/or
// property changes.
func (c *Client) PatchVersion(ctx context.Context, appKey, version string, patch platform.VersionPatch) error {
	body := map[string]any{}
	if patch.Tag != nil {
		body["tag"] = *patch.Tag
	}
	if patch.Properties != nil {
		body["properties"] = patch.Properties
	}
	if patch.DeleteProperties != nil {
		body["delete_properties"] = patch.DeleteProperties
	}

	path := apptrustBase + "/applications/" + url.PathEscape(appKey) + "/versions/" + url.PathEscape(version)
	resp, err := c.do(ctx, http.MethodPatch, path, nil, body)
	if err != nil {
		return err
	}
	if !resp.ok() {
		return resp.errorf("patch version")
	}

	return nil
}

// DeleteVersion removes an application version permanently.
func (c *Client) DeleteVersion(ctx context.Context, appKey, version string) error {
	path := apptrustBase + "/applications/" + url.PathEscape(appKey) + "/versions/" + url.PathEscape(version)
	resp, err := c.do(ctx, http.MethodDelete, path, nil, nil)
	if err != nil {
		return err
	}
	if !resp.ok() {
		return resp.errorf("delete version")
	}

	return nil
}

// Ensure Client conforms to the platform.Client interface at compile time.
var _ platform.Client = (*Client)(nil)
