package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"
	"notionat/backend"
	"notionat/backend/notion"
	"notionat/internal/cache"
	"notionat/internal/config"
	"notionat/internal/credentials"
	"notionat/internal/store"
	"notionat/internal/tui"
	"notionat/internal/utils"
	"notionat/internal/workspace"
)

// Version is set at build time
var Version = "dev"

// Result codes for JSON output
const (
	ResultActionCompleted = "ACTION_COMPLETED"
	ResultInfoOnly        = "INFO_ONLY"
	ResultError           = "ERROR"
)

// Config holds injectable dependencies. The zero value runs against the real
// environment: default config path, system keyring and the Notion API.
type Config struct {
	ConfigPath string              // Path to config file (for testing)
	Keyring    credentials.Keyring // Keyring override (for testing)
	Getenv     func(string) string // Environment lookup override (for testing)
	API        backend.ContentAPI  // Content API override (for testing)
	Stdin      io.Reader
	Now        func() time.Time
}

func (c *Config) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

func (c *Config) stdin() io.Reader {
	if c.Stdin != nil {
		return c.Stdin
	}
	return os.Stdin
}

func (c *Config) credentialManager() *credentials.Manager {
	var opts []credentials.ManagerOption
	if c.Keyring != nil {
		opts = append(opts, credentials.WithKeyring(c.Keyring))
	}
	if c.Getenv != nil {
		opts = append(opts, credentials.WithGetenv(c.Getenv))
	}
	return credentials.NewManager(opts...)
}

// Execute runs the CLI with the given arguments and IO writers
func Execute(args []string, stdout, stderr io.Writer, cfg *Config) int {
	rootCmd := NewNotionAt(stdout, stderr, cfg)

	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	if err := rootCmd.Execute(); err != nil {
		if containsJSONFlag(args) {
			outputErrorJSON(err, stdout)
		} else {
			_, _ = fmt.Fprintln(stderr, "Error:", err)
		}
		return 1
	}
	return 0
}

// containsJSONFlag checks if args contain --json flag
func containsJSONFlag(args []string) bool {
	for _, arg := range args {
		if arg == "--json" {
			return true
		}
	}
	return false
}

// NewNotionAt creates the root command with injectable IO
func NewNotionAt(stdout, stderr io.Writer, cfg *Config) *cobra.Command {
	if cfg == nil {
		cfg = &Config{}
	}

	cmd := &cobra.Command{
		Use:     "notionat",
		Short:   "Browse Notion from the terminal",
		Long:    "notionat searches, lists and edits Notion pages and databases, serving cached data instantly while refreshing in the background.",
		Version: Version,
		Args:    cobra.NoArgs,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			verbose, _ := cmd.Flags().GetBool("verbose")
			utils.SetVerboseMode(verbose)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if f, ok := stdout.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
				return runTUI(cmd, cfg)
			}
			return cmd.Help()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().Bool("json", false, "Output in JSON format")
	cmd.PersistentFlags().Bool("cached", false, "Use cached data only, without contacting Notion")
	cmd.PersistentFlags().BoolP("verbose", "V", false, "Enable verbose/debug output")
	cmd.PersistentFlags().String("config", "", "Path to config file")

	cmd.AddCommand(newSearchCmd(stdout, cfg))
	cmd.AddCommand(newRecentCmd(stdout, cfg))
	cmd.AddCommand(newUsersCmd(stdout, cfg))
	cmd.AddCommand(newDBCmd(stdout, cfg))
	cmd.AddCommand(newPageCmd(stdout, cfg))
	cmd.AddCommand(newReposCmd(stdout, stderr, cfg))
	cmd.AddCommand(newAuthCmd(stdout, stderr, cfg))
	cmd.AddCommand(newConfigCmd(stdout, cfg))
	cmd.AddCommand(newCacheCmd(stdout, cfg))
	cmd.AddCommand(newTUICmd(cfg))

	return cmd
}

// loadConfig reads the config file named by --config, falling back to cfg.ConfigPath
// and then the XDG default.
func loadConfig(cmd *cobra.Command, cfg *Config) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path = cfg.ConfigPath
	}
	conf, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	jsonOutput, _ := cmd.Flags().GetBool("json")
	conf.ApplyFlags(jsonOutput)
	return conf, nil
}

// app bundles what a command needs once config is loaded.
type app struct {
	conf    *config.Config
	ws      *workspace.Service
	store   store.Store
	closers []io.Closer
	json    bool
	now     time.Time
}

// openApp loads config, opens the store and connects to Notion. When requireAPI is
// false a missing token degrades to cached data instead of failing.
func openApp(cmd *cobra.Command, cfg *Config, requireAPI bool) (*app, error) {
	conf, err := loadConfig(cmd, cfg)
	if err != nil {
		return nil, err
	}

	a := &app{conf: conf, json: conf.OutputFormat == "json", now: cfg.now()}
	if conf.Logging.File != "" {
		f, err := utils.LogToFile(conf.Logging.File)
		if err != nil {
			utils.Warnf("logging to %s: %v", conf.Logging.File, err)
		} else {
			a.closers = append(a.closers, f)
		}
	}

	s, err := workspace.OpenStore(conf.Store.Driver, conf.StorePath())
	if err != nil {
		a.Close()
		return nil, err
	}
	a.store = s

	api, err := connect(cmd, cfg, conf, requireAPI)
	if err != nil {
		a.Close()
		return nil, err
	}
	if c, ok := api.(io.Closer); ok {
		a.closers = append(a.closers, c)
	}

	c := cache.New(s,
		cache.WithClock(cfg.now),
		cache.WithStaleFetchGuard(conf.Cache.GuardStaleFetches),
	)
	a.ws = workspace.New(api, c, workspace.WithRepoRoots(conf.Repos.Roots, conf.Repos.MaxDepth))
	return a, nil
}

// connect returns the content API, or nil to run from cache.
func connect(cmd *cobra.Command, cfg *Config, conf *config.Config, requireAPI bool) (backend.ContentAPI, error) {
	if cached, _ := cmd.Flags().GetBool("cached"); cached {
		utils.Debugf("--cached: not contacting Notion")
		return nil, nil
	}
	if cfg.API != nil {
		return cfg.API, nil
	}

	info, err := cfg.credentialManager().Get(cmd.Context(), credentials.DefaultBackend, conf.Notion.Token)
	if err != nil {
		return nil, err
	}
	if !info.Found {
		if requireAPI {
			return nil, utils.ErrTokenMissing()
		}
		utils.Debugf("no token configured, using cached data")
		return nil, nil
	}
	utils.Debugf("using token from %s", info.Source)

	return notion.New(notion.Config{
		Token:      info.Token,
		BaseURL:    conf.Notion.BaseURL,
		MaxRetries: conf.Notion.MaxRetries,
		RetryDelay: conf.NotionRetryDelay(),
		Timeout:    conf.NotionTimeout(),
	})
}

// Close releases the store and API connections.
func (a *app) Close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			utils.Debugf("closing store: %v", err)
		}
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i].Close()
	}
}

// withApp opens the app for the duration of fn.
func withApp(cmd *cobra.Command, cfg *Config, requireAPI bool, fn func(ctx context.Context, a *app) error) error {
	a, err := openApp(cmd, cfg, requireAPI)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(cmd.Context(), a)
}

func newTUICmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Start the interactive terminal UI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, cfg)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

func runTUI(cmd *cobra.Command, cfg *Config) error {
	return withApp(cmd, cfg, false, func(ctx context.Context, a *app) error {
		// The alt screen owns the terminal; keep log lines out of it.
		if a.conf.Logging.File == "" {
			utils.GetLogger().SetOutput(io.Discard)
		}
		return tui.Run(a.ws)
	})
}

type errorResponse struct {
	Error  string `json:"error"`
	Code   int    `json:"code"`
	Result string `json:"result"`
}

// outputErrorJSON outputs error in JSON format
func outputErrorJSON(err error, stdout io.Writer) {
	response := errorResponse{
		Error:  err.Error(),
		Code:   1,
		Result: ResultError,
	}

	jsonBytes, _ := json.Marshal(response)
	_, _ = fmt.Fprintln(stdout, string(jsonBytes))
}

// outputJSON writes v as a single JSON line.
func outputJSON(stdout io.Writer, v any) error {
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(stdout, string(jsonBytes))
	return nil
}

type actionResponse struct {
	Action string `json:"action"`
	Result string `json:"result"`
	Data   any    `json:"data,omitempty"`
}

// outputActionJSON reports a completed mutation.
func outputActionJSON(stdout io.Writer, action string, data any) error {
	return outputJSON(stdout, actionResponse{Action: action, Result: ResultActionCompleted, Data: data})
}
