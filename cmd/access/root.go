package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/catedeguzman-it/finmark-sub001/internal/access/app"
	"github.com/catedeguzman-it/finmark-sub001/internal/access/metrics"
	"github.com/catedeguzman-it/finmark-sub001/internal/access/service"
	"github.com/catedeguzman-it/finmark-sub001/internal/access/store"
	"github.com/catedeguzman-it/finmark-sub001/pkg/slogx"
)

var rootCmd = &cobra.Command{
	Use:   "access",
	Short: "FinMark access service",
	Long: `Invitations, roles and dashboard permissions for FinMark organizations.
Configuration is read from ACCESS_* environment variables and an optional .env file.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd, sweepCmd, usersCmd, invitationsCmd, devCmd, versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the build version",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Println(app.BuildVersion)
	},
}

// withServices opens the configured store, runs fn with the services bound
// to it, and closes the store.
func withServices(ctx context.Context, fn func(ctx context.Context, inv *service.InvitationService, users *service.UserService, st store.Store) error) error {
	cfg, err := app.LoadConfig()
	if err != nil {
		return err
	}
	logger := app.NewLogger(cfg)
	ctx = slogx.WithContext(ctx, logger)

	st, err := app.OpenStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	inv, users := app.NewServices(cfg, st, metrics.New(nil))
	return fn(ctx, inv, users, st)
}
