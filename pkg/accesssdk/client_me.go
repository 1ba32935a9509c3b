package accesssdk

import (
	"context"
	"net/http"
)

func (c *Client) Me(ctx context.Context) (*MeResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/v1/me", nil, nil)
	if err != nil {
		return nil, err
	}

	var out MeResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// DashboardCategories lists the dashboard categories visible to the caller.
func (c *Client) DashboardCategories(ctx context.Context) ([]string, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/v1/dashboards/categories", nil, nil)
	if err != nil {
		return nil, err
	}

	var out CategoriesResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return out.Categories, nil
}

// Roles dumps the permission table. Requires manage_users.
func (c *Client) Roles(ctx context.Context) ([]RoleDefinition, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/v1/roles", nil, nil)
	if err != nil {
		return nil, err
	}

	var out RolesResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return out.Roles, nil
}
