// ABOUTME: Token command: mint a JWT for the dev answer server
// ABOUTME: Signs with auth.jwt_secret; can save the token to auth.token_file

package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/2389/bloop-answer/internal/auth"
)

func newTokenCmd(a *app) *cobra.Command {
	var subject string
	var ttl time.Duration
	var save bool

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Generate a bearer token signed with auth.jwt_secret",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.Auth.JWTSecret == "" {
				return errors.New("auth.jwt_secret is not configured")
			}
			verifier, err := auth.NewJWTVerifier([]byte(a.cfg.Auth.JWTSecret))
			if err != nil {
				return err
			}
			if subject == "" {
				subject = a.cfg.Server.UserID
			}

			token, err := verifier.Generate(subject, ttl)
			if err != nil {
				return err
			}

			if !save {
				fmt.Fprintln(cmd.OutOrStdout(), token)
				return nil
			}

			path := a.cfg.Auth.TokenFile
			if path == "" {
				return errors.New("auth.token_file is not configured")
			}
			if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
				return fmt.Errorf("creating token directory: %w", err)
			}
			if err := os.WriteFile(path, []byte(token+"\n"), 0600); err != nil {
				return fmt.Errorf("writing token file: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Token for %s written to %s\n", subject, path)
			return nil
		},
	}

	cmd.Flags().StringVar(&subject, "sub", "", "Token subject (default server.user_id)")
	cmd.Flags().DurationVar(&ttl, "ttl", 30*24*time.Hour, "Token lifetime")
	cmd.Flags().BoolVar(&save, "save", false, "Write the token to auth.token_file")
	return cmd
}
