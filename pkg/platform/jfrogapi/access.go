package jfrogapi

import (
	"bookverse/pkg/platform"
	"bookverse/pkg/serrors"
	"context"
	"net/http"
	"net/url"
)

const accessBase = "/access/api/v1"

// ListOIDCProviders returns all OIDC integrations configured on the platform.
func (c *Client) ListOIDCProviders(ctx context.Context) ([]platform.OIDCProvider, error) {
	resp, err := c.do(ctx, http.MethodGet, accessBase+"/oidc", nil, nil)
	if err != nil {
		return nil, err
	}
	if !resp.ok() {
		return nil, resp.errorf("list oidc providers")
	}

	var entries []map[string]any
	if err := resp.decode(&entries); err != nil {
		return nil, err
	}

	out := make([]platform.OIDCProvider, 0, len(entries))
	for _, e := range entries {
		name := firstString(e, "name", "provider_name")
		if name == "" {
			continue
		}
		out = append(out, platform.OIDCProvider{Name: name})
	}

	return out, nil
}

// firstString returns the first non-empty string value under the given keys.
func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok && s != "" {
			return s
		}
	}

	return ""
}

// identityMappingPaths returns the endpoint candidates for listing a
// provider's identity mappings. The first two are provider-scoped; the rest
// are global endpoints filtered by a provider query parameter. The Access API
// has shipped all four shapes, so each is probed until one answers.
func identityMappingPaths(provider string) []string {
	p := url.PathEscape(provider)

	return []string{
		accessBase + "/oidc/" + p + "/mappings",
		accessBase + "/oidc/" + p + "/identity-mappings",
		accessBase + "/identity-mappings",
		accessBase + "/identity_mappings",
	}
}

func decodeMappings(resp *response) ([]platform.IdentityMapping, bool) {
	var raw []map[string]any
	if err := resp.decode(&raw); err != nil {
		var wrapped struct {
			Mappings []map[string]any `json:"mappings"`
		}
		if err := resp.decode(&wrapped); err != nil {
			return nil, false
		}
		raw = wrapped.Mappings
	}

	out := make([]platform.IdentityMapping, 0, len(raw))
	for _, m := range raw {
		out = append(out, platform.IdentityMapping{
			ID:  firstString(m, "id", "_id", "name"),
			Raw: m,
		})
	}

	return out, true
}

// ListIdentityMappings returns the identity mappings of a provider, probing
// endpoint variants in order. When every candidate answers 404 the provider
// simply has no mappings endpoint and an empty slice is returned.
func (c *Client) ListIdentityMappings(ctx context.Context, provider string) ([]platform.IdentityMapping, error) {
	paths := identityMappingPaths(provider)

	for i, path := range paths {
		var q url.Values
		if i >= 2 {
			q = url.Values{}
			q.Set("provider", provider)
		}

		resp, err := c.do(ctx, http.MethodGet, path, q, nil)
		if err != nil {
			return nil, err
		}
		if resp.Status == http.StatusNotFound {
			continue
		}
		if !resp.ok() {
			return nil, resp.errorf("list identity mappings")
		}
		if mappings, ok := decodeMappings(resp); ok {
			return mappings, nil
		}
	}

	return nil, nil
}

// DeleteIdentityMapping deletes a mapping, trying the known endpoint variants
// in order and advancing past 404/405 answers.
func (c *Client) DeleteIdentityMapping(ctx context.Context, provider string, mapping platform.IdentityMapping) error {
	if mapping.ID == "" {
		return serrors.With(serrors.ErrBadRequest, "identity mapping has no id or name")
	}

	for _, base := range identityMappingPaths(provider) {
		path := base + "/" + url.PathEscape(mapping.ID)
		resp, err := c.do(ctx, http.MethodDelete, path, nil, nil)
		if err != nil {
			return err
		}
		if resp.ok() || resp.Status == http.StatusNoContent {
			return nil
		}
		if resp.Status == http.StatusNotFound || resp.Status == http.StatusMethodNotAllowed {
			continue
		}

		return resp.errorf("delete identity mapping")
	}

	return serrors.With(serrors.ErrNotFound, "no supported delete endpoint for mapping %q", mapping.ID)
}

// ListProjectRoles returns the roles of a project.
func (c *Client) ListProjectRoles(ctx context.Context, projectKey string) ([]platform.Role, error) {
	path := accessBase + "/projects/" + url.PathEscape(projectKey) + "/roles"
	resp, err := c.do(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}
	if !resp.ok() {
		return nil, resp.errorf("list project roles")
	}

	var roles []platform.Role
	if err := resp.decode(&roles); err != nil {
		return nil, err
	}

	return roles, nil
}

// DeleteProjectRole deletes a project-scoped role.
func (c *Client) DeleteProjectRole(ctx context.Context, projectKey, roleName string) error {
	path := accessBase + "/projects/" + url.PathEscape(projectKey) + "/roles/" + url.PathEscape(roleName)
	resp, err := c.do(ctx, http.MethodDelete, path, nil, nil)
	if err != nil {
		return err
	}
	if !resp.ok() && resp.Status != http.StatusNoContent {
		return resp.errorf("delete project role")
	}

	return nil
}

// GetProject returns nil when the project exists and ErrNotFound when it does
// not.
func (c *Client) GetProject(ctx context.Context, projectKey string) error {
	path := accessBase + "/projects/" + url.PathEscape(projectKey)
	resp, err := c.do(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return err
	}
	if resp.Status == http.StatusNotFound {
		return serrors.With(serrors.ErrNotFound, "project %q not found", projectKey)
	}
	if !resp.ok() {
		return resp.errorf("get project")
	}

	return nil
}

// DeleteProject deletes a project.
func (c *Client) DeleteProject(ctx context.Context, projectKey string) error {
	path := accessBase + "/projects/" + url.PathEscape(projectKey)
	resp, err := c.do(ctx, http.MethodDelete, path, nil, nil)
	if err != nil {
		return err
	}
	if !resp.ok() && resp.Status != http.StatusNoContent {
		return resp.errorf("delete project")
	}

	return nil
}
