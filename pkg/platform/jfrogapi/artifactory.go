package jfrogapi

import (
	"bookverse/pkg/platform"
	"context"
	"net/http"
	"net/url"
)

// ListDockerTags lists the tags of an image inside a docker repository. A
// missing image (404) yields an empty slice so callers can iterate candidate
// repositories without special-casing.
func (c *Client) ListDockerTags(ctx context.Context, repoKey, image string) ([]string, error) {
	path := "/artifactory/api/docker/" + url.PathEscape(repoKey) + "/v2/" + url.PathEscape(image) + "/tags/list"
	resp, err := c.do(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}
	if resp.Status == http.StatusNotFound {
		return nil, nil
	}
	if !resp.ok() {
		return nil, resp.errorf("list docker tags")
	}

	var out struct {
		Tags []string `json:"tags"`
	}
	if err := resp.decode(&out); err != nil {
		return nil, err
	}

	return out.Tags, nil
}

// DeleteDockerImage deletes a single image tag from a docker repository.
func (c *Client) DeleteDockerImage(ctx context.Context, repoKey, image, tag string) error {
	path := "/artifactory/" + url.PathEscape(repoKey) + "/" + url.PathEscape(image) + "/" + url.PathEscape(tag)
	resp, err := c.do(ctx, http.MethodDelete, path, nil, nil)
	if err != nil {
		return err
	}
	if !resp.ok() && resp.Status != http.StatusNoContent {
		return resp.errorf("delete docker image")
	}

	return nil
}

// SearchAQL runs an AQL items.find query. AQL requires the query verbatim as
// a text/plain body.
func (c *Client) SearchAQL(ctx context.Context, query string) ([]platform.AQLItem, error) {
	resp, err := c.doRaw(ctx, http.MethodPost, "/artifactory/api/search/aql", nil, []byte(query), "text/plain")
	if err != nil {
		return nil, err
	}
	if !resp.ok() {
		return nil, resp.errorf("aql search")
	}

	var out struct {
		Results []platform.AQLItem `json:"results"`
	}
	if err := resp.decode(&out); err != nil {
		return nil, err
	}

	return out.Results, nil
}
