package admincli

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/interviewkit/internal/common"
	"github.com/dmitrijs2005/interviewkit/internal/server/auth"
	"github.com/dmitrijs2005/interviewkit/internal/server/models"
	"github.com/spf13/cobra"
)

type runWithEnv func(run func(cmd *cobra.Command, args []string, env *Env) error) func(*cobra.Command, []string) error

func newCreateUserCmd(withEnv runWithEnv) *cobra.Command {
	var (
		uid           string
		role          string
		passwordStdin bool
	)

	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "Create a user, prompting for the password",
		Example: `  authctl create-user --uid admin --role ADMIN
  echo "s3cret" | authctl create-user --uid test --password-stdin`,
		Args: cobra.NoArgs,
		RunE: withEnv(func(cmd *cobra.Command, args []string, env *Env) error {
			if uid == "" {
				return errors.New("--uid is required")
			}
			r, err := models.ParseRole(role)
			if err != nil {
				return err
			}

			var password string
			if passwordStdin {
				password, err = readPasswordLine(cmd.InOrStdin())
			} else {
				password, err = promptNewPassword(cmd.ErrOrStderr())
			}
			if err != nil {
				return err
			}
			if password == "" {
				return errors.New("password is empty")
			}

			p, err := env.Sessions.Signup(cmd.Context(), uid, password, r.String())
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "created user %s (id %d, role %s)\n", p.UID, p.ID, p.Role)
			return nil
		}),
	}

	cmd.Flags().StringVar(&uid, "uid", "", "user id (at most 50 characters)")
	cmd.Flags().StringVar(&role, "role", models.RoleUser.String(), "USER or ADMIN")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "read the password from the first line of stdin")

	return cmd
}

func newInspectTokenCmd(withEnv runWithEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect-token <token>",
		Short: "Verify a token with the configured secret and print its claims",
		Args:  cobra.ExactArgs(1),
		RunE: withEnv(func(cmd *cobra.Command, args []string, env *Env) error {
			out := cmd.OutOrStdout()

			claims, err := env.Codec.Decode(args[0])
			if err != nil {
				fmt.Fprintln(out, "invalid token")
				return common.ErrInvalidToken
			}

			fmt.Fprintf(out, "subject:    %s\n", claims.Subject)
			fmt.Fprintf(out, "role:       %s\n", claims.Role)
			fmt.Fprintf(out, "type:       %s\n", claims.Type)
			fmt.Fprintf(out, "id:         %s\n", claims.ID)
			if claims.IssuedAt != nil {
				fmt.Fprintf(out, "issued at:  %s\n", claims.IssuedAt.UTC().Format(time.RFC3339))
			}
			fmt.Fprintf(out, "expires at: %s\n", claims.ExpiresAt.UTC().Format(time.RFC3339))

			if claims.Type != auth.TokenTypeRefresh {
				return nil
			}
			revoked, err := env.Revoked.IsRevoked(cmd.Context(), claims.ID)
			if err != nil {
				return fmt.Errorf("deny-list lookup: %w", err)
			}
			fmt.Fprintf(out, "revoked:    %t\n", revoked)
			return nil
		}),
	}
}

func newPurgeRevokedCmd(withEnv runWithEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "purge-revoked",
		Short: "Delete deny-list entries whose tokens have already expired",
		Args:  cobra.NoArgs,
		RunE: withEnv(func(cmd *cobra.Command, args []string, env *Env) error {
			n, err := env.Revoked.PurgeExpired(cmd.Context(), time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "purged %d expired entries\n", n)
			return nil
		}),
	}
}
