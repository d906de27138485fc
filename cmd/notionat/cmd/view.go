package cmd

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"notionat/backend"
	"notionat/internal/utils"
	"notionat/internal/views"
)

// newViewCmd creates the 'db view' command group
func newViewCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	viewCmd := &cobra.Command{
		Use:   "view",
		Short: "Show or change how a database is displayed",
		Long:  "Each database has one stored view: visible properties, grouping and an optional kanban layout.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	viewCmd.AddCommand(newViewShowCmd(stdout, cfg))
	viewCmd.AddCommand(newViewToggleCmd(stdout, cfg))
	viewCmd.AddCommand(newViewGroupByCmd(stdout, cfg))
	viewCmd.AddCommand(newViewKanbanCmd(stdout, cfg))
	viewCmd.AddCommand(newViewTypeCmd(stdout, cfg))
	viewCmd.AddCommand(newViewRenameCmd(stdout, cfg))

	return viewCmd
}

// viewContext is a resolved database with its schema and current view.
type viewContext struct {
	db    backend.Page
	props []backend.DatabaseProperty
	view  views.DatabaseView
}

func loadViewContext(ctx context.Context, a *app, ref string) (*viewContext, error) {
	db, props, err := databaseProperties(ctx, a, ref)
	if err != nil {
		return nil, err
	}
	return &viewContext{db: db, props: props, view: a.ws.View(ctx, db.ID)}, nil
}

// property resolves a property by id, name, or 1-based position in the schema.
func (vc *viewContext) property(ref string) (backend.DatabaseProperty, error) {
	if p := backend.FindProperty(vc.props, ref); p != nil {
		return *p, nil
	}
	if n, err := strconv.Atoi(ref); err == nil && n >= 1 && n <= len(vc.props) {
		return vc.props[n-1], nil
	}
	return backend.DatabaseProperty{}, utils.ErrPropertyNotFound(ref, vc.db.DisplayTitle())
}

func (vc *viewContext) propertyName(id string) string {
	if p := backend.FindProperty(vc.props, id); p != nil {
		return p.DisplayName()
	}
	return id
}

// mutate applies m, then prints the resulting view.
func mutate(ctx context.Context, a *app, stdout io.Writer, vc *viewContext, m views.Mutator) error {
	next, err := a.ws.MutateView(ctx, vc.db.ID, m)
	if err != nil {
		return err
	}
	vc.view = next
	if a.json {
		return outputActionJSON(stdout, "view", next)
	}
	writeView(stdout, vc)
	return nil
}

func writeView(w io.Writer, vc *viewContext) {
	name := vc.view.Name
	if name == "" {
		name = "(default)"
	}
	_, _ = fmt.Fprintf(w, "Database: %s\n", vc.db.DisplayTitle())
	_, _ = fmt.Fprintf(w, "View: %s\n", name)
	_, _ = fmt.Fprintf(w, "Type: %s\n", vc.view.EffectiveType())

	visible := make([]string, 0, len(vc.view.VisibleProperties))
	for _, id := range vc.view.VisibleProperties {
		visible = append(visible, vc.propertyName(id))
	}
	if len(visible) == 0 {
		visible = []string{"(none)"}
	}
	_, _ = fmt.Fprintf(w, "Properties: %s\n", strings.Join(visible, ", "))

	if vc.view.GroupBy != "" {
		_, _ = fmt.Fprintf(w, "Group by: %s\n", vc.propertyName(vc.view.GroupBy))
	}

	k := vc.view.Kanban
	if k == nil {
		return
	}
	_, _ = fmt.Fprintf(w, "Kanban: %s\n", vc.propertyName(k.StatusPropertyID))
	status := backend.FindProperty(vc.props, k.StatusPropertyID)
	for _, lane := range views.Lanes {
		names := make([]string, 0, len(k.Lanes[lane]))
		for _, id := range k.Lanes[lane] {
			names = append(names, optionName(status, id))
		}
		if len(names) == 0 {
			names = []string{"-"}
		}
		_, _ = fmt.Fprintf(w, "  %s: %s\n", lane.Title(), strings.Join(names, ", "))
	}
}

func optionName(prop *backend.DatabaseProperty, id string) string {
	if id == backend.NullOptionID {
		return backend.NullOption.Name
	}
	if prop != nil {
		for _, o := range prop.Options {
			if o.ID == id {
				return o.Name
			}
		}
	}
	return id
}

func newViewShowCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "show <database>",
		Short: "Show the stored view of a database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, cfg, false, func(ctx context.Context, a *app) error {
				vc, err := loadViewContext(ctx, a, args[0])
				if err != nil {
					return err
				}
				if a.json {
					return outputJSON(stdout, vc.view)
				}
				writeView(stdout, vc)
				return nil
			})
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

func newViewToggleCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle-property <database> <property>",
		Short: "Show a hidden property or hide a visible one",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, cfg, false, func(ctx context.Context, a *app) error {
				vc, err := loadViewContext(ctx, a, args[0])
				if err != nil {
					return err
				}
				prop, err := vc.property(args[1])
				if err != nil {
					return err
				}
				return mutate(ctx, a, stdout, vc, views.ToggleProperty(prop.ID))
			})
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

func newViewGroupByCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "group-by <database> <property|none>",
		Short: "Group pages by a property, or \"none\" to stop grouping",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, cfg, false, func(ctx context.Context, a *app) error {
				vc, err := loadViewContext(ctx, a, args[0])
				if err != nil {
					return err
				}
				if strings.EqualFold(args[1], "none") {
					if vc.view.GroupBy == "" {
						return mutate(ctx, a, stdout, vc, views.Chain())
					}
					return mutate(ctx, a, stdout, vc, views.ToggleGroupBy(vc.view.GroupBy))
				}

				prop, err := vc.property(args[1])
				if err != nil {
					return err
				}
				groupable := views.GroupableProperties(vc.props)
				if !slices.ContainsFunc(groupable, func(p backend.DatabaseProperty) bool { return p.ID == prop.ID }) {
					return utils.ErrUnsupportedProperty(prop.DisplayName(), string(prop.Type))
				}
				if vc.view.GroupBy == prop.ID {
					return mutate(ctx, a, stdout, vc, views.Chain())
				}
				return mutate(ctx, a, stdout, vc, views.ToggleGroupBy(prop.ID))
			})
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

func newViewKanbanCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "kanban <database> [status-property]",
		Short: "Lay out a database as a kanban board",
		Long: `Lay out a database as a kanban board with lanes Backlog, To Do,
In Progress, Completed and Canceled. Options of the status property are
assigned to lanes automatically; use --move "Option=lane" to reassign one.
Lanes: backlog, not_started, started, completed, canceled.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			off, _ := cmd.Flags().GetBool("off")
			moves, _ := cmd.Flags().GetStringArray("move")
			return withApp(cmd, cfg, false, func(ctx context.Context, a *app) error {
				vc, err := loadViewContext(ctx, a, args[0])
				if err != nil {
					return err
				}
				if off {
					return mutate(ctx, a, stdout, vc, views.SetKanban(nil))
				}
				var ref string
				if len(args) == 2 {
					ref = args[1]
				}
				kanban, err := kanbanConfig(vc, ref, moves)
				if err != nil {
					return err
				}
				return mutate(ctx, a, stdout, vc, views.SetKanban(kanban))
			})
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.Flags().Bool("off", false, "Remove the kanban layout")
	cmd.Flags().StringArray("move", nil, "Assign a status option to a lane (Option=lane), repeatable")
	return cmd
}

// kanbanConfig builds the board for the status property ref, defaulting to the
// current board's property or the first select property.
func kanbanConfig(vc *viewContext, ref string, moves []string) (*views.KanbanConfig, error) {
	var status backend.DatabaseProperty
	switch {
	case ref != "":
		p, err := vc.property(ref)
		if err != nil {
			return nil, err
		}
		status = p
	case vc.view.Kanban != nil:
		p := backend.FindProperty(vc.props, vc.view.Kanban.StatusPropertyID)
		if p == nil {
			return nil, utils.ErrPropertyNotFound(vc.view.Kanban.StatusPropertyID, vc.db.DisplayTitle())
		}
		status = *p
	default:
		selects := views.SelectProperties(vc.props)
		if len(selects) == 0 {
			return nil, utils.ErrKanbanRequiresSelect(vc.db.DisplayTitle())
		}
		status = selects[0]
	}
	if status.Type != backend.PropertySelect {
		return nil, utils.ErrKanbanRequiresSelect(status.DisplayName())
	}

	kanban := vc.view.Kanban
	if kanban == nil || kanban.StatusPropertyID != status.ID {
		kanban = views.DefaultKanbanConfig(status)
	}

	for _, move := range moves {
		name, laneName, ok := strings.Cut(move, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --move %q: expected Option=lane", move)
		}
		lane, ok := views.ParseLane(strings.TrimSpace(laneName))
		if !ok {
			valid := make([]string, len(views.Lanes))
			for i, l := range views.Lanes {
				valid[i] = string(l)
			}
			return nil, utils.ErrInvalidLane(laneName, valid)
		}
		optionID, err := statusOptionID(status, strings.TrimSpace(name))
		if err != nil {
			return nil, err
		}
		kanban = views.MoveOption(kanban, optionID, lane)
	}
	return kanban, nil
}

func statusOptionID(status backend.DatabaseProperty, name string) (string, error) {
	if strings.EqualFold(name, "none") || strings.EqualFold(name, backend.NullOption.Name) {
		return backend.NullOptionID, nil
	}
	names := make([]string, 0, len(status.Options))
	for _, o := range views.SelectableOptions(status) {
		if o.ID == name || strings.EqualFold(o.Name, name) {
			return o.ID, nil
		}
		names = append(names, o.Name)
	}
	return "", utils.ErrInvalidOption(name, names)
}

func newViewTypeCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "type <database> <list|kanban>",
		Short: "Switch between list and kanban layout",
		Long:  "Switch the layout, keeping any kanban lane assignment. Switching to kanban without a board configured builds one from the first select property.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			t := views.ViewType(strings.ToLower(args[1]))
			if t != views.TypeList && t != views.TypeKanban {
				return utils.ErrInvalidOption(args[1], []string{string(views.TypeList), string(views.TypeKanban)})
			}
			return withApp(cmd, cfg, false, func(ctx context.Context, a *app) error {
				vc, err := loadViewContext(ctx, a, args[0])
				if err != nil {
					return err
				}
				if t == views.TypeKanban && vc.view.Kanban == nil {
					kanban, err := kanbanConfig(vc, "", nil)
					if err != nil {
						return err
					}
					return mutate(ctx, a, stdout, vc, views.SetKanban(kanban))
				}
				return mutate(ctx, a, stdout, vc, views.SetType(t))
			})
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

func newViewRenameCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <database> <name>",
		Short: "Name the view of a database",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, cfg, false, func(ctx context.Context, a *app) error {
				vc, err := loadViewContext(ctx, a, args[0])
				if err != nil {
					return err
				}
				return mutate(ctx, a, stdout, vc, views.Rename(args[1]))
			})
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}
