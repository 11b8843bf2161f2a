package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/qrave1/anonspeak/internal/application/config"
	"github.com/qrave1/anonspeak/internal/infra/ports/http/middleware"
)

var adminTokenTTL time.Duration

var adminTokenCmd = &cobra.Command{
	Use:   "admin-token",
	Short: "Print a bearer token for the operator API signed with ADMIN_SECRET",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.New()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		if cfg.AdminSecret == "" {
			return errors.New("ADMIN_SECRET is not set, admin API is disabled")
		}

		token, err := middleware.GenerateAdminToken(cfg.AdminSecret, adminTokenTTL)
		if err != nil {
			return fmt.Errorf("sign token: %w", err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), token)

		return nil
	},
}

func init() {
	adminTokenCmd.Flags().DurationVar(&adminTokenTTL, "ttl", 24*time.Hour, "token lifetime")

	rootCmd.AddCommand(adminTokenCmd)
}
