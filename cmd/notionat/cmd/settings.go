package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"notionat/internal/cache"
	"notionat/internal/config"
	"notionat/internal/credentials"
	"notionat/internal/utils"
	"notionat/internal/workspace"
)

// newAuthCmd creates the 'auth' subcommand for token management
func newAuthCmd(stdout, stderr io.Writer, cfg *Config) *cobra.Command {
	authCmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the Notion integration token",
		Long:  "Store, inspect and remove the Notion integration token. Tokens are read from the system keyring, then NOTIONAT_NOTION_TOKEN, then the config file.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	handler := func() *credentials.CLIHandler {
		return credentials.NewCLIHandler(cfg.credentialManager(), cfg.stdin(), stdout, stderr)
	}

	authCmd.AddCommand(&cobra.Command{
		Use:   "set [token]",
		Short: "Store a token in the system keyring",
		Long:  "Store the integration token in the system keyring. Without an argument the token is read from the terminal without echo.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var token string
			if len(args) == 1 {
				token = args[0]
			}
			return handler().Set(cmd.Context(), credentials.DefaultBackend, token)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	})

	authCmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show where the token is read from",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := loadConfig(cmd, cfg)
			if err != nil {
				return err
			}
			return handler().Status(cmd.Context(), credentials.DefaultBackend, conf.Notion.Token, conf.OutputFormat == "json")
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	})

	deleteCmd := &cobra.Command{
		Use:   "delete",
		Short: "Remove the token from the system keyring",
		Long:  "Remove the token from the system keyring. Asks for confirmation unless --yes is given.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			yes, _ := cmd.Flags().GetBool("yes")
			if !yes && !utils.PromptYesNo("Delete token?", cfg.stdin(), stdout) {
				_, _ = fmt.Fprintln(stdout, "Cancelled")
				return nil
			}
			return handler().Delete(cmd.Context(), credentials.DefaultBackend)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	deleteCmd.Flags().BoolP("yes", "y", false, "Delete without asking")
	authCmd.AddCommand(deleteCmd)

	return authCmd
}

// newConfigCmd creates the 'config' subcommand
func newConfigCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	configCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the config file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("config")
			if path == "" {
				path = cfg.ConfigPath
			}
			if path == "" {
				path = config.GetConfigPath()
			}
			_, _ = fmt.Fprintln(stdout, path)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration with the token hidden",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := loadConfig(cmd, cfg)
			if err != nil {
				return err
			}
			return doConfigShow(conf, stdout)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	})

	return configCmd
}

func doConfigShow(conf *config.Config, stdout io.Writer) error {
	redacted := conf.Redacted()
	if conf.OutputFormat == "json" {
		return outputJSON(stdout, redacted)
	}
	out, err := redacted.YAML()
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(stdout, "# store: %s\n", conf.StorePath())
	_, _ = fmt.Fprint(stdout, out)
	return nil
}

// newCacheCmd creates the 'cache' subcommand for inspecting and dropping stored entries
func newCacheCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or drop locally cached data",
		Long:  "Inspect or drop locally cached data. Dropped entries are fetched again from Notion on the next read.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cacheCmd.AddCommand(&cobra.Command{
		Use:   "keys [prefix]",
		Short: "List cached keys",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCache(cmd, cfg, func(ctx context.Context, c *cache.Cache, jsonOutput bool) error {
				keys, err := c.Store().Keys(ctx, optionalArg(args))
				if err != nil {
					return err
				}
				if jsonOutput {
					return outputJSON(stdout, nonNil(keys))
				}
				if len(keys) == 0 {
					_, _ = fmt.Fprintln(stdout, "Cache is empty")
					return nil
				}
				for _, k := range keys {
					_, _ = fmt.Fprintln(stdout, k)
				}
				return nil
			})
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	})

	cacheCmd.AddCommand(&cobra.Command{
		Use:   "clear [prefix]",
		Short: "Remove cached entries, all of them or those whose key starts with prefix",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCache(cmd, cfg, func(ctx context.Context, c *cache.Cache, jsonOutput bool) error {
				n, err := c.Clear(ctx, optionalArg(args))
				if err != nil {
					return fmt.Errorf("clearing cache: %w", err)
				}
				if jsonOutput {
					return outputActionJSON(stdout, "clear", map[string]int{"removed": n})
				}
				_, _ = fmt.Fprintf(stdout, "Removed %d cached %s\n", n, plural(n, "entry", "entries"))
				return nil
			})
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	})

	cacheCmd.AddCommand(&cobra.Command{
		Use:   "invalidate <key>",
		Short: "Remove one cached entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCache(cmd, cfg, func(ctx context.Context, c *cache.Cache, jsonOutput bool) error {
				if err := c.Invalidate(ctx, args[0]); err != nil {
					return fmt.Errorf("invalidating %s: %w", args[0], err)
				}
				if jsonOutput {
					return outputActionJSON(stdout, "invalidate", map[string]string{"key": args[0]})
				}
				_, _ = fmt.Fprintf(stdout, "Invalidated %s\n", args[0])
				return nil
			})
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	})

	return cacheCmd
}

// withCache opens only the local store; cache maintenance never contacts Notion.
func withCache(cmd *cobra.Command, cfg *Config, fn func(ctx context.Context, c *cache.Cache, jsonOutput bool) error) error {
	conf, err := loadConfig(cmd, cfg)
	if err != nil {
		return err
	}
	s, err := workspace.OpenStore(conf.Store.Driver, conf.StorePath())
	if err != nil {
		return err
	}
	defer func() {
		if err := s.Close(); err != nil {
			utils.Debugf("closing store: %v", err)
		}
	}()
	return fn(cmd.Context(), cache.New(s, cache.WithClock(cfg.now)), conf.OutputFormat == "json")
}

func optionalArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
