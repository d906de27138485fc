package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"notionat/backend/git"
	"notionat/internal/shutdown"
	"notionat/internal/utils"
	"notionat/internal/watcher"
	"notionat/internal/workspace"
)

// shutdownTimeout bounds cleanup after an interrupt in watch mode.
const shutdownTimeout = 5 * time.Second

// newReposCmd creates the 'repos' command
func newReposCmd(stdout, stderr io.Writer, cfg *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repos [query]",
		Short: "List Git repositories under the configured roots",
		Long: `List Git repositories found under repos.roots, up to repos.max_depth levels
deep. The last scan is cached and shown immediately while a new scan runs.
With --watch, keep running and rescan whenever a directory is created or
removed under a root.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var query string
			if len(args) == 1 {
				query = args[0]
			}
			rescan, _ := cmd.Flags().GetBool("rescan")
			watch, _ := cmd.Flags().GetBool("watch")
			return withApp(cmd, cfg, false, func(ctx context.Context, a *app) error {
				if watch {
					return doReposWatch(a, stdout, stderr, query)
				}
				return doRepos(ctx, a, stdout, query, rescan)
			})
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.Flags().Bool("rescan", false, "Ignore the cached scan and walk the roots now")
	cmd.Flags().BoolP("watch", "w", false, "Keep running and rescan when repositories appear or disappear")

	cmd.AddCommand(newReposRemotesCmd(stdout, cfg))
	return cmd
}

func doRepos(ctx context.Context, a *app, stdout io.Writer, query string, rescan bool) error {
	var (
		repos []git.Repo
		err   error
	)
	if rescan {
		repos, err = a.ws.RescanRepos(ctx)
	} else {
		repos, err = workspace.Await(a.ws.Repos(ctx))
	}
	if err != nil {
		return err
	}
	return writeRepos(stdout, git.Filter(repos, query), a.json)
}

func writeRepos(stdout io.Writer, repos []git.Repo, jsonOutput bool) error {
	if jsonOutput {
		return outputJSON(stdout, nonNil(repos))
	}
	_, _ = fmt.Fprintln(stdout, git.SectionTitle(len(repos)))
	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	for _, r := range repos {
		_, _ = fmt.Fprintf(tw, "  %s\t%s\n", r.Name, git.Tildify(r.FullPath))
	}
	return tw.Flush()
}

// doReposWatch prints the repositories, then reprints them after every burst
// of directory changes until interrupted.
func doReposWatch(a *app, stdout, stderr io.Writer, query string) error {
	mgr := shutdown.NewManager()
	stop := mgr.NotifyOn(os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx := mgr.Context()

	if err := doRepos(ctx, a, stdout, query, false); err != nil {
		return err
	}

	roots := make([]string, 0, len(a.conf.Repos.Roots))
	for _, r := range a.conf.Repos.Roots {
		roots = append(roots, git.ExpandHome(r))
	}

	wcfg := watcher.DefaultConfig(roots, a.conf.Repos.MaxDepth, func() {
		repos, err := a.ws.RescanRepos(ctx)
		if err != nil {
			if ctx.Err() == nil {
				utils.Warnf("rescanning repositories: %v", err)
			}
			return
		}
		if err := writeRepos(stdout, git.Filter(repos, query), a.json); err != nil {
			utils.Warnf("printing repositories: %v", err)
		}
	})
	wcfg.DebounceDuration = a.conf.WatchDebounce()

	w, err := watcher.New(wcfg)
	if err != nil {
		return err
	}
	if err := w.Start(); err != nil {
		return err
	}
	mgr.RegisterCleanup("watcher", func(ctx context.Context) error {
		w.Stop()
		return nil
	})
	utils.Infof("watching %d directories", len(w.Watched()))
	if !a.json {
		_, _ = fmt.Fprintln(stderr, "Watching for new repositories, press Ctrl+C to stop")
	}

	<-mgr.Done()
	waitCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return mgr.Wait(waitCtx)
}

func newReposRemotesCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "remotes [path]",
		Short: "Show the web URLs of a repository's remotes",
		Long:  "Show the remotes of the repository containing path (default: the current directory) with their web URLs. Local remotes are skipped.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "."
			if len(args) == 1 {
				path = git.ExpandHome(args[0])
			}
			conf, err := loadConfig(cmd, cfg)
			if err != nil {
				return err
			}
			return doReposRemotes(stdout, path, conf.OutputFormat == "json")
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

func doReposRemotes(stdout io.Writer, path string, jsonOutput bool) error {
	root, err := git.Root(path)
	if err != nil {
		return err
	}
	if root == "" {
		return utils.WrapWithSuggestion(fmt.Errorf("not a git repository: %s", path), "Pass the path of a repository, or run 'notionat repos' to list them")
	}
	remotes, err := git.Remotes(root)
	if err != nil {
		return err
	}
	if jsonOutput {
		return outputJSON(stdout, nonNil(remotes))
	}
	if len(remotes) == 0 {
		_, _ = fmt.Fprintf(stdout, "No remotes with a web URL in %s\n", git.Tildify(root))
		return nil
	}
	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	for _, r := range remotes {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Name, r.Host, r.URL)
	}
	return tw.Flush()
}
