package main

import (
	"fmt"

	jwtinfra "github.com/go-verify-bot/internal/infrastructure/jwt"
	transporthttp "github.com/go-verify-bot/internal/transport/http"
	"github.com/spf13/cobra"
)

var (
	tokenSubject string
	tokenRole    string
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Admin API tokens",
}

var tokenIssueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Sign an admin API token with the configured private key",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := jwtinfra.NewProvider(cfg)
		if err != nil {
			return fmt.Errorf("load keys: %w", err)
		}
		tok, err := p.Sign(tokenSubject, tokenRole)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), tok)
		return nil
	},
}

func init() {
	tokenIssueCmd.Flags().StringVar(&tokenSubject, "subject", "", "token subject, usually the operator name")
	tokenIssueCmd.Flags().StringVar(&tokenRole, "role", transporthttp.RoleAdmin, "role claim")
	_ = tokenIssueCmd.MarkFlagRequired("subject")
	tokenCmd.AddCommand(tokenIssueCmd)
}
