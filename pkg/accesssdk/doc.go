/*
Package accesssdk is a Go client for the FinMark access service.

Callers authenticate with an access token from the identity provider; the
service resolves role and organization from its own membership records.

	client := accesssdk.NewClient("https://access.example.com").WithToken(idpToken)

	invite, err := client.CreateInvitation(ctx, accesssdk.CreateInvitationRequest{
		Email: "new.hire@example.com",
		Role:  "analyst",
	})

The invitee, signed in with their own token, accepts:

	member, err := accesssdk.NewClient(baseURL).WithToken(inviteeToken).
		AcceptInvitation(ctx, invite.Token)
	if accesssdk.IsCode(err, accesssdk.ErrorCodeInvitationExpired) {
		// ask for a new invitation
	}

Every non-2xx response is returned as an *APIError.
*/
package accesssdk
