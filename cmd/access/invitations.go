package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/catedeguzman-it/finmark-sub001/internal/access/rbac"
	"github.com/catedeguzman-it/finmark-sub001/internal/access/service"
	"github.com/catedeguzman-it/finmark-sub001/internal/access/store"
)

var invitationsCmd = &cobra.Command{
	Use:   "invitations",
	Short: "Manage invitations",
}

var invitationsCreateFlags struct {
	email    string
	role     string
	org      int64
	position string
}

var invitationsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Mint an invitation and print its token",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		f := invitationsCreateFlags
		return withServices(cmd.Context(), func(ctx context.Context, inv *service.InvitationService, _ *service.UserService, _ store.Store) error {
			created, err := inv.CreateInvitation(ctx, service.CreateInvitationInput{
				OrganizationID: f.org,
				Email:          f.email,
				Role:           rbac.Role(f.role),
				Position:       f.position,
			})
			if err != nil {
				return err
			}
			cmd.Printf("id:      %s\n", created.ID)
			cmd.Printf("token:   %s\n", created.Token)
			cmd.Printf("expires: %s\n", created.ExpiresAt.Format(time.RFC3339))
			return nil
		})
	},
}

var invitationsListOrg int64

var invitationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List an organization's invitations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServices(cmd.Context(), func(ctx context.Context, inv *service.InvitationService, _ *service.UserService, _ store.Store) error {
			invs, err := inv.GetInvitationsByOrganization(ctx, invitationsListOrg)
			if err != nil {
				return err
			}
			for _, i := range invs {
				cmd.Printf("%s  %-8s  %-10s  %s  expires %s\n",
					i.ID, i.Status, i.Role, i.Email, i.ExpiresAt.Format(time.RFC3339))
			}
			return nil
		})
	},
}

func init() {
	fl := invitationsCreateCmd.Flags()
	fl.StringVar(&invitationsCreateFlags.email, "email", "", "invitee email address")
	fl.StringVar(&invitationsCreateFlags.role, "role", string(rbac.RoleViewer), "role to grant")
	fl.Int64Var(&invitationsCreateFlags.org, "org", 0, "organization id")
	fl.StringVar(&invitationsCreateFlags.position, "position", "", "job title")
	_ = invitationsCreateCmd.MarkFlagRequired("email")
	_ = invitationsCreateCmd.MarkFlagRequired("org")

	invitationsListCmd.Flags().Int64Var(&invitationsListOrg, "org", 0, "organization id")
	_ = invitationsListCmd.MarkFlagRequired("org")

	invitationsCmd.AddCommand(invitationsCreateCmd, invitationsListCmd)
}
