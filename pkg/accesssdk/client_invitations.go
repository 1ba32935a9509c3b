package accesssdk

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// CreateInvitation mints an invitation. Requires invite_users and a role the
// caller may grant.
func (c *Client) CreateInvitation(ctx context.Context, req CreateInvitationRequest) (*CreateInvitationResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/v1/invitations", nil, req)
	if err != nil {
		return nil, err
	}

	var out CreateInvitationResponse
	if err := decodeJSON(resp, &out, http.StatusCreated); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListInvitations returns an organization's invitations, oldest first.
func (c *Client) ListInvitations(ctx context.Context, organizationID int64) ([]InvitationResponse, error) {
	path := "/v1/organizations/" + strconv.FormatInt(organizationID, 10) + "/invitations"
	resp, err := c.doRequest(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}

	var out InvitationListResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return out.Invitations, nil
}

func (c *Client) GetInvitation(ctx context.Context, id string) (*InvitationResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/v1/invitations/"+url.PathEscape(id), nil, nil)
	if err != nil {
		return nil, err
	}

	var out InvitationResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteInvitation(ctx context.Context, id string) error {
	resp, err := c.doRequest(ctx, http.MethodDelete, "/v1/invitations/"+url.PathEscape(id), nil, nil)
	if err != nil {
		return err
	}
	return checkStatusNoContent(resp)
}

// ExpireInvitation revokes a pending invitation by id.
func (c *Client) ExpireInvitation(ctx context.Context, id string) (*InvitationResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/v1/invitations/"+url.PathEscape(id)+"/expire", nil, nil)
	if err != nil {
		return nil, err
	}

	var out InvitationResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// LookupInvitation reports the invitation behind token. Consumed and expired
// invitations come back as an *APIError with status 410.
func (c *Client) LookupInvitation(ctx context.Context, token string) (*InvitationResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/v1/invitations/lookup", url.Values{"token": {token}}, nil)
	if err != nil {
		return nil, err
	}

	var out InvitationResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// AcceptInvitation accepts the invitation for the client's bearer identity.
func (c *Client) AcceptInvitation(ctx context.Context, token string) (*AcceptInvitationResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/v1/invitations/accept", url.Values{"token": {token}}, nil)
	if err != nil {
		return nil, err
	}

	var out AcceptInvitationResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeclineInvitation expires the invitation behind token. Declining twice is
// not an error.
func (c *Client) DeclineInvitation(ctx context.Context, token string) error {
	resp, err := c.doRequest(ctx, http.MethodPost, "/v1/invitations/decline", url.Values{"token": {token}}, nil)
	if err != nil {
		return err
	}
	return checkStatusNoContent(resp)
}
