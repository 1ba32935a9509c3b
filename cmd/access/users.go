package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/catedeguzman-it/finmark-sub001/internal/access/rbac"
	"github.com/catedeguzman-it/finmark-sub001/internal/access/service"
	"github.com/catedeguzman-it/finmark-sub001/internal/access/store"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage memberships",
}

var usersAddFlags struct {
	subject  string
	email    string
	role     string
	org      int64
	position string
}

var usersAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a membership directly, e.g. the first root_admin",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		f := usersAddFlags
		return withServices(cmd.Context(), func(ctx context.Context, _ *service.InvitationService, users *service.UserService, _ store.Store) error {
			u, err := users.CreateUser(ctx, service.CreateUserInput{
				Subject:        f.subject,
				Email:          f.email,
				Role:           rbac.Role(f.role),
				OrganizationID: f.org,
				Position:       f.position,
			})
			if err != nil {
				return err
			}
			cmd.Printf("created %s (%s) as %s in organization %d\n", u.ID, u.Email, u.Role, u.OrganizationID)
			return nil
		})
	},
}

func init() {
	fl := usersAddCmd.Flags()
	fl.StringVar(&usersAddFlags.subject, "subject", "", "identity provider subject (sub claim)")
	fl.StringVar(&usersAddFlags.email, "email", "", "email address")
	fl.StringVar(&usersAddFlags.role, "role", string(rbac.RoleRootAdmin), "role")
	fl.Int64Var(&usersAddFlags.org, "org", 0, "organization id")
	fl.StringVar(&usersAddFlags.position, "position", "", "job title")
	_ = usersAddCmd.MarkFlagRequired("subject")
	_ = usersAddCmd.MarkFlagRequired("email")
	_ = usersAddCmd.MarkFlagRequired("org")

	usersCmd.AddCommand(usersAddCmd)
}
