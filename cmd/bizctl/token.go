package main

import (
	"fmt"
	"time"

	"bizdash/internal/cli"
	apphttp "bizdash/internal/http"

	"github.com/spf13/cobra"
)

var flagTTL time.Duration

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "API access tokens",
}

var tokenIssueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Sign a bearer token for --user with JWT_SECRET",
	RunE:  runTokenIssue,
}

func init() {
	tokenIssueCmd.Flags().DurationVar(&flagTTL, "ttl", 24*time.Hour, "Token lifetime")
	tokenCmd.AddCommand(tokenIssueCmd)
	rootCmd.AddCommand(tokenCmd)
}

// runTokenIssue only needs the signing secret, so it skips the backend.
func runTokenIssue(cmd *cobra.Command, _ []string) error {
	if err := requireUser(); err != nil {
		return err
	}
	if flagTTL <= 0 {
		return fmt.Errorf("--ttl must be positive")
	}
	cli.LoadEnvFile()
	cfg, err := cli.LoadConfig()
	if err != nil {
		return err
	}
	token, err := apphttp.NewAuthenticator(cfg.JWTSecret, cfg.JWTIssuer).Issue(flagUser, flagTTL)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
