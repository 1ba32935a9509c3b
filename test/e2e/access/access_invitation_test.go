package access_test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/catedeguzman-it/finmark-sub001/pkg/accesssdk"
)

// TestInvitationOnboarding walks an organization from its first admin to an
// analyst who joined by invitation.
func TestInvitationOnboarding(t *testing.T) {
	c := setupAccessContainer(t)
	ctx := t.Context()

	root := c.client(t, rootSubject, rootEmail)
	adminInvite, err := root.CreateInvitation(ctx, accesssdk.CreateInvitationRequest{
		Email:          "owner@acme.test",
		Role:           "admin",
		OrganizationID: 42,
	})
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(adminInvite.AcceptURL, "token="+adminInvite.Token))

	admin := c.client(t, "idp|owner", "owner@acme.test")
	joined, err := admin.AcceptInvitation(ctx, adminInvite.Token)
	require.NoError(t, err)
	require.Equal(t, "admin", joined.Member.Role)
	require.Equal(t, int64(42), joined.Member.OrganizationID)

	analystInvite, err := admin.CreateInvitation(ctx, accesssdk.CreateInvitationRequest{
		Email:    "analyst@acme.test",
		Role:     "analyst",
		Position: "Analyst",
	})
	require.NoError(t, err)
	require.Equal(t, int64(42), analystInvite.OrganizationID)

	preview, err := c.anonymous().LookupInvitation(ctx, analystInvite.Token)
	require.NoError(t, err)
	require.Equal(t, "analyst", preview.Role)

	analyst := c.client(t, "idp|analyst", "analyst@acme.test")
	_, err = analyst.AcceptInvitation(ctx, analystInvite.Token)
	require.NoError(t, err)

	me, err := analyst.Me(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"view_dashboards", "export_data"}, me.Permissions)

	// Single use.
	_, err = c.client(t, "idp|someone", "analyst@acme.test").AcceptInvitation(ctx, analystInvite.Token)
	assertAPIError(t, err, http.StatusGone, accesssdk.ErrorCodeInvitationAlreadyAccepted)

	list, err := admin.ListInvitations(ctx, 42)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, adminInvite.ID, list[0].ID)
}

// TestPrivilegeBoundaries checks role and organization isolation.
func TestPrivilegeBoundaries(t *testing.T) {
	c := setupAccessContainer(t)
	ctx := t.Context()

	c.addMember(t, "idp|manager", "manager@acme.test", "manager", 42)
	c.addMember(t, "idp|rival", "admin@globex.test", "admin", 77)

	manager := c.client(t, "idp|manager", "manager@acme.test")
	_, err := manager.CreateInvitation(ctx, accesssdk.CreateInvitationRequest{Email: "x@acme.test", Role: "admin"})
	assertAPIError(t, err, http.StatusForbidden, accesssdk.ErrorCodeAccessDenied)

	inv, err := manager.CreateInvitation(ctx, accesssdk.CreateInvitationRequest{Email: "x@acme.test", Role: "analyst"})
	require.NoError(t, err)

	rival := c.client(t, "idp|rival", "admin@globex.test")
	_, err = rival.ExpireInvitation(ctx, inv.ID)
	assertAPIError(t, err, http.StatusForbidden, accesssdk.ErrorCodeAccessDenied)

	_, err = rival.ListInvitations(ctx, 42)
	assertAPIError(t, err, http.StatusForbidden, accesssdk.ErrorCodeAccessDenied)

	_, err = c.client(t, "idp|nobody", "nobody@acme.test").Me(ctx)
	assertAPIError(t, err, http.StatusUnauthorized, accesssdk.ErrorCodeInvalidToken)
}

// TestCLIInvitation mints from the shell and accepts over HTTP.
func TestCLIInvitation(t *testing.T) {
	c := setupAccessContainer(t)
	ctx := t.Context()

	out := c.cli(t, "invitations", "create", "--org", "5", "--email", "cli@acme.test", "--role", "viewer")

	var token string
	for _, line := range strings.Split(out, "\n") {
		if rest, ok := strings.CutPrefix(strings.TrimSpace(line), "token:"); ok {
			token = strings.TrimSpace(rest)
		}
	}
	require.Len(t, token, 64, "cli output: %s", out)

	res, err := c.client(t, "idp|cli", "cli@acme.test").AcceptInvitation(ctx, token)
	require.NoError(t, err)
	require.Equal(t, int64(5), res.Member.OrganizationID)

	require.NoError(t, c.anonymous().DeclineInvitation(ctx, token), "declining a settled invitation is a no-op")
}
