package main

import (
	"encoding/json"
	"fmt"
	"time"

	"callaudio/internal/auth"
	"callaudio/internal/config"
	"callaudio/internal/rbac"

	"github.com/spf13/cobra"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an access and refresh token pair",
	Long: `Issue a token pair signed with JWT_SECRET for local testing.

Example:
  JWT_SECRET=dev audiod token --role hardware --user-id headset-daemon`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		role, err := cmd.Flags().GetString("role")
		if err != nil {
			return fmt.Errorf("failed to read 'role' flag: %w", err)
		}
		if !rbac.IsValid(role) {
			return fmt.Errorf("unknown role %q", role)
		}
		userID, _ := cmd.Flags().GetString("user-id")

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		m, err := auth.NewManager(cfg.Auth, rbac.Roles()...)
		if err != nil {
			return err
		}
		pair, err := m.IssuePair(time.Now(), userID, role)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]string{
			"access_token":  pair.AccessToken,
			"refresh_token": pair.RefreshToken,
			"expires_in":    m.AccessTTL().String(),
		})
	},
}

func init() {
	tokenCmd.Flags().String("role", rbac.RoleUser, "role claim: call_engine, hardware, user or admin")
	tokenCmd.Flags().String("user-id", "cli", "subject of the token")
}
