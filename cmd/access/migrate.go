package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/catedeguzman-it/finmark-sub001/internal/access/service"
	"github.com/catedeguzman-it/finmark-sub001/internal/access/store"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServices(cmd.Context(), func(ctx context.Context, _ *service.InvitationService, _ *service.UserService, st store.Store) error {
			// Opening the store already migrated it.
			cmd.Println("migrations applied")
			return st.Ping(ctx)
		})
	},
}

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Expire every overdue pending invitation once",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServices(cmd.Context(), func(ctx context.Context, inv *service.InvitationService, _ *service.UserService, _ store.Store) error {
			n, err := inv.ExpireOverdue(ctx)
			if err != nil {
				return err
			}
			cmd.Printf("expired %d invitation(s)\n", n)
			return nil
		})
	},
}
