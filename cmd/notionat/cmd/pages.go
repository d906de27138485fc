package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"notionat/backend"
	"notionat/internal/cli/prompt"
	"notionat/internal/utils"
	"notionat/internal/views"
	"notionat/internal/workspace"
)

// newSearchCmd creates the 'search' command
func newSearchCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "search [query]",
		Short: "Search pages by title",
		Long:  "Search Notion pages by title. Results always come from Notion and are not cached.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			return withApp(cmd, cfg, true, func(ctx context.Context, a *app) error {
				return doSearch(ctx, a, stdout, query)
			})
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

func doSearch(ctx context.Context, a *app, stdout io.Writer, query string) error {
	pages, err := a.ws.Search(ctx, query)
	if err != nil {
		return err
	}
	if a.json {
		return outputJSON(stdout, nonNil(pages))
	}
	if len(pages) == 0 {
		_, _ = fmt.Fprintln(stdout, "No pages found")
		return nil
	}
	writePages(stdout, pages, a.now)
	return nil
}

// newRecentCmd creates the 'recent' command
func newRecentCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "recent [query]",
		Short: "List recently opened pages",
		Long:  "List pages opened with 'page show' or the TUI, most recent first, optionally filtered by title.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			return withApp(cmd, cfg, false, func(ctx context.Context, a *app) error {
				return doRecent(ctx, a, stdout, query)
			})
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

func doRecent(ctx context.Context, a *app, stdout io.Writer, query string) error {
	recent, err := a.ws.RecentlyOpened(ctx, query)
	if err != nil {
		return err
	}
	if a.json {
		return outputJSON(stdout, nonNil(recent))
	}
	if len(recent) == 0 {
		_, _ = fmt.Fprintln(stdout, "No recently opened pages")
		return nil
	}
	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	for _, r := range recent {
		_, _ = fmt.Fprintf(tw, "%s\t%s\topened %s\n", views.PageTitle(r.Page), r.Page.ID, views.RelativeTime(r.OpenedAt, a.now))
	}
	return tw.Flush()
}

// newUsersCmd creates the 'users' command
func newUsersCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "List workspace users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, cfg, false, func(ctx context.Context, a *app) error {
				users, err := workspace.Await(a.ws.Users(ctx))
				if err != nil {
					return err
				}
				if a.json {
					return outputJSON(stdout, nonNil(users))
				}
				tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
				for _, u := range users {
					name := u.Name
					if name == "" {
						name = backend.UntitledTitle
					}
					_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", name, u.Type, u.ID)
				}
				return tw.Flush()
			})
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

// newDBCmd creates the 'db' command group
func newDBCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	dbCmd := &cobra.Command{
		Use:   "db",
		Short: "Browse databases",
		Long:  "List databases, their pages and properties, and manage per-database views.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	dbCmd.AddCommand(newDBListCmd(stdout, cfg))
	dbCmd.AddCommand(newDBPagesCmd(stdout, cfg))
	dbCmd.AddCommand(newDBPropertiesCmd(stdout, cfg))
	dbCmd.AddCommand(newViewCmd(stdout, cfg))

	return dbCmd
}

func newDBListCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List databases shared with the integration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, cfg, false, func(ctx context.Context, a *app) error {
				dbs, err := workspace.Await(a.ws.Databases(ctx))
				if err != nil {
					return err
				}
				if a.json {
					return outputJSON(stdout, nonNil(dbs))
				}
				if len(dbs) == 0 {
					_, _ = fmt.Fprintln(stdout, "No databases found. Share a database with your integration in Notion.")
					return nil
				}
				writePages(stdout, dbs, a.now)
				return nil
			})
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

func newDBPagesCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pages <database>",
		Short: "List the pages of a database using its view",
		Long:  "List the pages of a database, grouped or laid out in kanban lanes according to the stored view. The database may be given by title or id.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, _ := cmd.Flags().GetString("filter")
			return withApp(cmd, cfg, false, func(ctx context.Context, a *app) error {
				return doDBPages(ctx, a, stdout, args[0], filter)
			})
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.Flags().StringP("filter", "f", "", "Only show pages whose title or visible properties match")
	return cmd
}

func doDBPages(ctx context.Context, a *app, stdout io.Writer, ref, filter string) error {
	db, err := a.ws.ResolveDatabase(ctx, ref)
	if err != nil {
		return err
	}
	pages, err := workspace.Await(a.ws.DatabasePages(ctx, db.ID))
	if err != nil {
		return err
	}
	view := a.ws.View(ctx, db.ID)
	if filter != "" {
		pages = views.FilterPages(pages, view, filter, a.now)
	}

	if a.json {
		return outputJSON(stdout, nonNil(pages))
	}
	if len(pages) == 0 {
		_, _ = fmt.Fprintf(stdout, "No pages in %s\n", db.DisplayTitle())
		return nil
	}
	return views.RenderPages(pages, view, stdout, a.now)
}

func newDBPropertiesCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "properties <database>",
		Short: "List the displayable properties of a database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, cfg, false, func(ctx context.Context, a *app) error {
				db, props, err := databaseProperties(ctx, a, args[0])
				if err != nil {
					return err
				}
				if a.json {
					return outputJSON(stdout, nonNil(props))
				}
				view := a.ws.View(ctx, db.ID)
				tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
				for i, p := range props {
					mark := " "
					if view.IsVisible(p.ID) {
						mark = "*"
					}
					_, _ = fmt.Fprintf(tw, "%d%s\t%s\t%s\n", i+1, mark, p.DisplayName(), p.Type)
				}
				return tw.Flush()
			})
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

func databaseProperties(ctx context.Context, a *app, ref string) (backend.Page, []backend.DatabaseProperty, error) {
	db, err := a.ws.ResolveDatabase(ctx, ref)
	if err != nil {
		return backend.Page{}, nil, err
	}
	props, err := workspace.Await(a.ws.DatabaseProperties(ctx, db.ID))
	if err != nil {
		return backend.Page{}, nil, err
	}
	return db, props, nil
}

// newPageCmd creates the 'page' command group
func newPageCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	pageCmd := &cobra.Command{
		Use:   "page",
		Short: "Show and edit pages",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pageCmd.AddCommand(&cobra.Command{
		Use:   "show [page-id]",
		Short: "Print a page as markdown",
		Long:  "Print a page as markdown and record it as recently opened. Without a page id, choose one of the recently opened pages.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, cfg, true, func(ctx context.Context, a *app) error {
				if len(args) == 1 {
					return doPageShow(ctx, a, stdout, args[0])
				}
				page, err := pickRecent(ctx, a, cfg.stdin(), stdout)
				if err != nil {
					return err
				}
				return doPageShow(ctx, a, stdout, page.ID)
			})
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	})

	pageCmd.AddCommand(&cobra.Command{
		Use:   "set <page-id> <property> <value> [<property> <value>...]",
		Short: "Set properties of a database page",
		Long: `Set one or more properties of a database page in a single update. The
page must have been listed with 'db pages' so its database is known. Values
follow the property type:
  checkbox      true/false, yes/no, or "" to toggle
  select        option name, or "none" to clear
  multi_select  comma-separated names; +x adds, -x removes, x toggles
  people        like multi_select, matched against user names or ids
  date          YYYY-MM-DD, today, +7d, or start..end; "" clears`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) < 3 || len(args)%2 == 0 {
				return fmt.Errorf("expected a page id followed by property/value pairs, got %d args", len(args))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			var edits []workspace.PropertyEdit
			for i := 1; i+1 < len(args); i += 2 {
				edits = append(edits, workspace.PropertyEdit{Property: args[i], Input: args[i+1]})
			}
			return withApp(cmd, cfg, true, func(ctx context.Context, a *app) error {
				return doPageSet(ctx, a, stdout, args[0], edits)
			})
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	})

	return pageCmd
}

func doPageShow(ctx context.Context, a *app, stdout io.Writer, id string) error {
	page, ok := a.ws.LookupPage(ctx, id)
	if !ok {
		page = backend.Page{ID: id, Object: backend.ObjectPage}
	}
	content, err := a.ws.OpenPage(ctx, page)
	if err != nil {
		return err
	}
	if a.json {
		return outputJSON(stdout, struct {
			Page     backend.Page `json:"page"`
			Markdown string       `json:"markdown"`
		}{page, content.Markdown})
	}
	if page.Title != "" {
		_, _ = fmt.Fprintf(stdout, "# %s\n\n", views.PageTitle(page))
	}
	_, _ = fmt.Fprintln(stdout, strings.TrimRight(content.Markdown, "\n"))
	return nil
}

func doPageSet(ctx context.Context, a *app, stdout io.Writer, id string, edits []workspace.PropertyEdit) error {
	page, ok := a.ws.LookupPage(ctx, id)
	if !ok {
		return utils.WrapWithSuggestion(utils.ErrPageNotFound(id), "List its database first with 'notionat db pages <database>'")
	}
	updated, err := a.ws.SetProperties(ctx, page, edits)
	if err != nil {
		return err
	}
	if a.json {
		return outputActionJSON(stdout, "set", updated)
	}
	_, _ = fmt.Fprintf(stdout, "Updated %s\n", views.PageTitle(*updated))
	return nil
}

// pickRecent asks which recently opened page to use.
func pickRecent(ctx context.Context, a *app, stdin io.Reader, stdout io.Writer) (*backend.Page, error) {
	recent, err := a.ws.RecentlyOpened(ctx, "")
	if err != nil {
		return nil, err
	}
	pages := make([]backend.Page, len(recent))
	for i, r := range recent {
		pages[i] = r.Page
	}
	selector := &prompt.PageSelector{
		Pages:  pages,
		Prompt: "Open a recent page:",
		Reader: stdin,
		Writer: stdout,
		Now:    a.now,
	}
	page, err := selector.Run()
	if errors.Is(err, prompt.ErrNoPages) {
		return nil, utils.WrapWithSuggestion(err, "Pass a page id, or find one with 'notionat search'")
	}
	return page, err
}

// writePages prints one page per line: title, id and last edit.
func writePages(w io.Writer, pages []backend.Page, now time.Time) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, p := range pages {
		_, _ = fmt.Fprintf(tw, "%s\t%s\tedited %s\n", views.PageTitle(p), p.ID, views.RelativeTime(p.LastEditedTime, now))
	}
	_ = tw.Flush()
}

// nonNil keeps empty results as [] rather than null in JSON output.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
