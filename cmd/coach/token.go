package main

import (
	"fmt"
	"time"

	"github.com/fitops/coachdesk/internal/auth"
	"github.com/fitops/coachdesk/internal/config"
	"github.com/spf13/cobra"
)

func newTokenCmd() *cobra.Command {
	var configPath, tenantID, userID, role string
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an API token",
		Long:  "Signs a JWT for the given user, tenant and role using the server's secret. Intended for development and support.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if tenantID == "" || userID == "" {
				return fmt.Errorf("--tenant and --user are required")
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			signed, err := auth.IssueToken(auth.Identity{
				UserID:   userID,
				TenantID: tenantID,
				Role:     auth.ParseRole(role),
			}, []byte(cfg.Server.JWTSecret), ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), signed)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "coachdesk.yaml", "path to CoachDesk config file")
	cmd.Flags().StringVarP(&tenantID, "tenant", "t", "", "tenant the token is scoped to")
	cmd.Flags().StringVarP(&userID, "user", "u", "", "user ID to embed")
	cmd.Flags().StringVarP(&role, "role", "r", "trainer", "role: admin, manager, trainer or support")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	return cmd
}
