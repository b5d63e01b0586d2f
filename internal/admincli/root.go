// Package admincli implements authctl, the operator tool for the auth
// server: creating users, inspecting tokens and purging the refresh-token
// deny-list. It reads the same config file and environment as the server.
package admincli

import (
	"context"

	"github.com/dmitrijs2005/interviewkit/internal/server/config"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
	storage    string
	dsn        string
	boltPath   string
	secret     string
}

func (o *rootOptions) apply(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("storage") {
		cfg.StorageBackend = o.storage
	}
	if flags.Changed("dsn") {
		cfg.DatabaseDSN = o.dsn
	}
	if flags.Changed("bolt") {
		cfg.BoltPath = o.boltPath
	}
	if flags.Changed("secret") {
		cfg.SecretKey = o.secret
	}
}

// NewRootCmd builds the command tree. load opens the Env before any
// subcommand runs; the subcommand closes it when done.
func NewRootCmd(load EnvLoader) *cobra.Command {
	opts := &rootOptions{}
	var env *Env

	root := &cobra.Command{
		Use:           "authctl",
		Short:         "Administer the interviewkit auth server",
		Long:          `Operator commands for the auth server. Settings come from the config file, the environment and the flags below.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFile(opts.configPath)
			if err != nil {
				return err
			}
			opts.apply(cmd, cfg)

			env, err = load(cmd.Context(), cfg)
			return err
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&opts.configPath, "config", "c", "", "path to a JSON or YAML config file")
	pf.StringVar(&opts.storage, "storage", "", "storage backend: postgres, bolt or memory")
	pf.StringVar(&opts.dsn, "dsn", "", "PostgreSQL DSN")
	pf.StringVar(&opts.boltPath, "bolt", "", "bbolt database file")
	pf.StringVar(&opts.secret, "secret", "", "signing secret (literal, file:// or s3://)")

	withEnv := func(run func(cmd *cobra.Command, args []string, env *Env) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			if env.Close != nil {
				defer env.Close()
			}
			return run(cmd, args, env)
		}
	}

	root.AddCommand(
		newCreateUserCmd(withEnv),
		newInspectTokenCmd(withEnv),
		newPurgeRevokedCmd(withEnv),
	)

	return root
}

// Execute runs authctl against the real storage and returns the exit code.
func Execute(ctx context.Context) int {
	root := NewRootCmd(LoadEnv)
	if err := root.ExecuteContext(ctx); err != nil {
		root.PrintErrln("Error:", err)
		return 1
	}
	return 0
}
