// Package tui provides a terminal user interface for browsing Notion
// databases and recently opened pages.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"notionat/backend"
	"notionat/internal/cache"
	"notionat/internal/views"
)

// Workspace is the subset of workspace.Service the TUI uses.
type Workspace interface {
	Databases(ctx context.Context) (cache.Delivery[[]backend.Page], <-chan cache.Result[[]backend.Page])
	DatabasePages(ctx context.Context, databaseID string) (cache.Delivery[[]backend.Page], <-chan cache.Result[[]backend.Page])
	DatabaseProperties(ctx context.Context, databaseID string) (cache.Delivery[[]backend.DatabaseProperty], <-chan cache.Result[[]backend.DatabaseProperty])
	View(ctx context.Context, databaseID string) views.DatabaseView
	MutateView(ctx context.Context, databaseID string, mutator views.Mutator) (views.DatabaseView, error)
	RecentlyOpened(ctx context.Context, query string) ([]cache.RecentPage, error)
	Search(ctx context.Context, query string) ([]backend.Page, error)
	OpenPage(ctx context.Context, page backend.Page) (*backend.PageContent, error)
	SetProperty(ctx context.Context, page backend.Page, property, input string) (*backend.Page, error)
}

// Focus indicates which pane has focus
type Focus int

const (
	FocusSources Focus = iota
	FocusPages
)

// Mode indicates the current input mode
type Mode int

const (
	ModeNormal Mode = iota
	ModeFilter
	ModeEdit
	ModePreview
	ModeHelp
)

// SearchSection titles API search results shown under the recent pages.
const SearchSection = "Search"

// row is one line of the pages pane: a section header or a page.
type row struct {
	header string
	page   *backend.Page
}

// Model represents the TUI state
type Model struct {
	ws  Workspace
	ctx context.Context
	now func() time.Time

	// Data
	databases  []backend.Page
	pages      []backend.Page
	properties []backend.DatabaseProperty
	view       views.DatabaseView
	recent     []cache.RecentPage
	searchHits []backend.Page
	rows       []row
	pageRows   []int // indices into rows that hold pages

	// Selection
	sourceCursor int // 0 is Recent, i>0 is databases[i-1]
	pageCursor   int
	focus        Focus

	// Mode and input
	mode      Mode
	textInput textinput.Model
	filter    string
	preview   string
	status    string

	// UI dimensions
	width  int
	height int

	// Styles
	sourcePaneStyle lipgloss.Style
	pagePaneStyle   lipgloss.Style
	selectedStyle   lipgloss.Style
	headerStyle     lipgloss.Style
	accessoryStyle  lipgloss.Style
	helpStyle       lipgloss.Style
	dialogStyle     lipgloss.Style
	statusBarStyle  lipgloss.Style
}

// Message types. Reads arrive twice: the stored value first, then the
// refreshed one (fresh == true).
type databasesMsg struct {
	databases []backend.Page
	found     bool
	fresh     bool
	err       error
}

type pagesMsg struct {
	databaseID string
	pages      []backend.Page
	found      bool
	fresh      bool
	err        error
}

type propertiesMsg struct {
	databaseID string
	properties []backend.DatabaseProperty
	found      bool
	fresh      bool
	err        error
}

type recentMsg struct {
	recent []cache.RecentPage
}

type searchMsg struct {
	query string
	pages []backend.Page
	err   error
}

type contentMsg struct {
	title   string
	content *backend.PageContent
	err     error
}

type pageUpdatedMsg struct {
	page *backend.Page
}

type errMsg struct {
	err error
}

// Option configures a Model.
type Option func(*Model)

// WithClock sets the clock used for relative dates.
func WithClock(now func() time.Time) Option {
	return func(m *Model) {
		m.now = now
	}
}

// New creates a new TUI model
func New(ws Workspace, opts ...Option) *Model {
	ti := textinput.New()
	ti.Placeholder = "Enter text..."
	ti.CharLimit = 256

	m := &Model{
		ws:        ws,
		ctx:       context.Background(),
		now:       time.Now,
		textInput: ti,
		focus:     FocusSources,
		mode:      ModeNormal,
		sourcePaneStyle: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1),
		pagePaneStyle: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1),
		selectedStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212")),
		headerStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("245")),
		accessoryStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")),
		helpStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")),
		dialogStyle: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2),
		statusBarStyle: lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("252")).
			Padding(0, 1),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// deliver turns a cached read into two messages, stored value first.
func deliver[T any](d cache.Delivery[T], results <-chan cache.Result[T], wrap func(v T, found, fresh bool, err error) tea.Msg) tea.Cmd {
	return tea.Sequence(
		func() tea.Msg { return wrap(d.Value, d.Found, false, nil) },
		func() tea.Msg {
			r, ok := <-results
			if !ok {
				return nil
			}
			return wrap(r.Value, r.Err == nil, true, r.Err)
		},
	)
}

// Init initializes the TUI
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.loadDatabases(), m.loadRecent())
}

func (m *Model) loadDatabases() tea.Cmd {
	d, results := m.ws.Databases(m.ctx)
	return deliver(d, results, func(v []backend.Page, found, fresh bool, err error) tea.Msg {
		return databasesMsg{databases: v, found: found, fresh: fresh, err: err}
	})
}

func (m *Model) loadRecent() tea.Cmd {
	query := m.filter
	return func() tea.Msg {
		recent, err := m.ws.RecentlyOpened(m.ctx, query)
		if err != nil {
			return errMsg{err}
		}
		return recentMsg{recent}
	}
}

func (m *Model) search(query string) tea.Cmd {
	if query == "" {
		return nil
	}
	return func() tea.Msg {
		pages, err := m.ws.Search(m.ctx, query)
		return searchMsg{query: query, pages: pages, err: err}
	}
}

// currentDatabase returns the selected database, if a database is selected.
func (m *Model) currentDatabase() (backend.Page, bool) {
	if m.sourceCursor == 0 || m.sourceCursor > len(m.databases) {
		return backend.Page{}, false
	}
	return m.databases[m.sourceCursor-1], true
}

func (m *Model) loadSource() tea.Cmd {
	m.pages, m.properties, m.searchHits = nil, nil, nil
	m.pageCursor = 0
	db, ok := m.currentDatabase()
	if !ok {
		m.view = views.DatabaseView{}
		m.rebuildRows()
		return m.loadRecent()
	}

	m.view = m.ws.View(m.ctx, db.ID)
	m.rebuildRows()

	pd, pr := m.ws.DatabasePages(m.ctx, db.ID)
	qd, qr := m.ws.DatabaseProperties(m.ctx, db.ID)
	return tea.Batch(
		deliver(pd, pr, func(v []backend.Page, found, fresh bool, err error) tea.Msg {
			return pagesMsg{databaseID: db.ID, pages: v, found: found, fresh: fresh, err: err}
		}),
		deliver(qd, qr, func(v []backend.DatabaseProperty, found, fresh bool, err error) tea.Msg {
			return propertiesMsg{databaseID: db.ID, properties: v, found: found, fresh: fresh, err: err}
		}),
	)
}

func (m *Model) openPage(page backend.Page) tea.Cmd {
	return func() tea.Msg {
		content, err := m.ws.OpenPage(m.ctx, page)
		return contentMsg{title: views.PageTitle(page), content: content, err: err}
	}
}

func (m *Model) setProperty(page backend.Page, property, input string) tea.Cmd {
	return func() tea.Msg {
		updated, err := m.ws.SetProperty(m.ctx, page, property, input)
		if err != nil {
			return errMsg{err}
		}
		return pageUpdatedMsg{updated}
	}
}

func (m *Model) mutateView(mutator views.Mutator) {
	db, ok := m.currentDatabase()
	if !ok {
		return
	}
	next, err := m.ws.MutateView(m.ctx, db.ID, mutator)
	m.view = next
	if err != nil {
		m.status = "view not saved: " + err.Error()
	}
	m.rebuildRows()
}

// refreshError reports a failed refresh. Empty results and refreshes
// overtaken by a newer one keep the shown data and say nothing.
func (m *Model) refreshError(err error) {
	if err == nil || errors.Is(err, cache.ErrEmptyResult) || errors.Is(err, cache.ErrSuperseded) {
		return
	}
	m.status = err.Error()
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case databasesMsg:
		if msg.err != nil {
			m.refreshError(msg.err)
			return m, nil
		}
		if msg.found || msg.fresh {
			m.databases = msg.databases
		}
		if m.sourceCursor > len(m.databases) {
			m.sourceCursor = 0
		}
		return m, nil

	case pagesMsg:
		if db, ok := m.currentDatabase(); !ok || db.ID != msg.databaseID {
			return m, nil
		}
		if msg.err != nil {
			m.refreshError(msg.err)
			return m, nil
		}
		if msg.found || msg.fresh {
			m.pages = msg.pages
			m.rebuildRows()
		}
		return m, nil

	case propertiesMsg:
		if db, ok := m.currentDatabase(); !ok || db.ID != msg.databaseID {
			return m, nil
		}
		if msg.err != nil {
			m.refreshError(msg.err)
			return m, nil
		}
		if msg.found || msg.fresh {
			m.properties = msg.properties
		}
		return m, nil

	case recentMsg:
		m.recent = msg.recent
		m.rebuildRows()
		return m, nil

	case searchMsg:
		if msg.query != m.filter {
			return m, nil
		}
		if msg.err != nil {
			m.status = msg.err.Error()
			return m, nil
		}
		m.searchHits = msg.pages
		m.rebuildRows()
		return m, nil

	case contentMsg:
		if msg.err != nil {
			m.status = msg.err.Error()
			return m, m.loadRecent()
		}
		m.preview = msg.title + "\n\n" + msg.content.Markdown
		m.mode = ModePreview
		return m, m.loadRecent()

	case pageUpdatedMsg:
		for i, p := range m.pages {
			if p.ID == msg.page.ID {
				m.pages[i] = *msg.page
			}
		}
		m.status = "Updated " + views.PageTitle(*msg.page)
		m.rebuildRows()
		return m, nil

	case errMsg:
		m.status = msg.err.Error()
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case ModeFilter:
			return m.handleFilterMode(msg)
		case ModeEdit:
			return m.handleEditMode(msg)
		case ModePreview, ModeHelp:
			return m.handleOverlayMode(msg)
		}
		return m.handleNormalMode(msg)
	}

	if m.mode == ModeFilter || m.mode == ModeEdit {
		m.textInput, cmd = m.textInput.Update(msg)
	}
	return m, cmd
}

func (m *Model) handleNormalMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch key {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "tab":
		if m.focus == FocusSources {
			m.focus = FocusPages
		} else {
			m.focus = FocusSources
		}
		return m, nil

	case "up", "k":
		if m.focus == FocusSources {
			if m.sourceCursor > 0 {
				m.sourceCursor--
				m.filter = ""
				return m, m.loadSource()
			}
		} else if m.pageCursor > 0 {
			m.pageCursor--
		}
		return m, nil

	case "down", "j":
		if m.focus == FocusSources {
			if m.sourceCursor < len(m.databases) {
				m.sourceCursor++
				m.filter = ""
				return m, m.loadSource()
			}
		} else if m.pageCursor < len(m.pageRows)-1 {
			m.pageCursor++
		}
		return m, nil

	case "enter":
		if page, ok := m.selectedPage(); ok {
			return m, m.openPage(page)
		}
		if m.focus == FocusSources {
			m.focus = FocusPages
		}
		return m, nil

	case "r":
		if m.sourceCursor == 0 {
			return m, tea.Batch(m.loadDatabases(), m.loadRecent(), m.search(m.filter))
		}
		return m, m.loadSource()

	case "/":
		m.mode = ModeFilter
		m.textInput.Reset()
		m.textInput.SetValue(m.filter)
		m.textInput.Placeholder = "Search..."
		m.textInput.Focus()
		return m, textinput.Blink

	case "e":
		if _, ok := m.selectedPage(); ok && m.sourceCursor > 0 {
			m.mode = ModeEdit
			m.textInput.Reset()
			m.textInput.Placeholder = "Property=value"
			m.textInput.Focus()
			return m, textinput.Blink
		}
		return m, nil

	case "g":
		m.cycleGroupBy()
		return m, nil

	case "v":
		m.toggleKanban()
		return m, nil

	case "?":
		m.mode = ModeHelp
		return m, nil
	}

	// 1-9 toggle the visibility of the n-th property.
	if len(key) == 1 && key[0] >= '1' && key[0] <= '9' {
		i := int(key[0] - '1')
		if i < len(m.properties) {
			m.mutateView(views.ToggleProperty(m.properties[i].ID))
		}
	}
	return m, nil
}

func (m *Model) cycleGroupBy() {
	groupable := views.GroupableProperties(m.properties)
	if len(groupable) == 0 {
		return
	}
	next := groupable[0].ID
	for i, p := range groupable {
		if p.ID == m.view.GroupBy {
			next = ""
			if i+1 < len(groupable) {
				next = groupable[i+1].ID
			}
			break
		}
	}
	if next == "" {
		m.mutateView(views.ToggleGroupBy(m.view.GroupBy))
		return
	}
	m.mutateView(views.ToggleGroupBy(next))
}

func (m *Model) toggleKanban() {
	switch {
	case m.view.EffectiveType() == views.TypeKanban:
		m.mutateView(views.SetType(views.TypeList))
	case m.view.Kanban != nil:
		m.mutateView(views.SetType(views.TypeKanban))
	default:
		selects := views.SelectProperties(m.properties)
		if len(selects) == 0 {
			m.status = "kanban needs a select property"
			return
		}
		m.mutateView(views.SetKanban(views.DefaultKanbanConfig(selects[0])))
	}
}

func (m *Model) handleFilterMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg.Type {
	case tea.KeyEnter:
		m.filter = strings.TrimSpace(m.textInput.Value())
		m.mode = ModeNormal
		m.pageCursor = 0
		m.searchHits = nil
		m.rebuildRows()
		if m.sourceCursor == 0 {
			return m, tea.Batch(m.loadRecent(), m.search(m.filter))
		}
		return m, nil

	case tea.KeyEsc:
		m.filter = ""
		m.mode = ModeNormal
		m.searchHits = nil
		m.rebuildRows()
		if m.sourceCursor == 0 {
			return m, m.loadRecent()
		}
		return m, nil
	}

	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

func (m *Model) handleEditMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg.Type {
	case tea.KeyEnter:
		m.mode = ModeNormal
		property, value, _ := strings.Cut(m.textInput.Value(), "=")
		property = strings.TrimSpace(property)
		page, ok := m.selectedPage()
		if !ok || property == "" {
			return m, nil
		}
		return m, m.setProperty(page, property, value)

	case tea.KeyEsc:
		m.mode = ModeNormal
		return m, nil
	}

	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

func (m *Model) handleOverlayMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc", "enter", "q":
		m.mode = ModeNormal
		m.preview = ""
	}
	return m, nil
}

func (m *Model) selectedPage() (backend.Page, bool) {
	if m.focus != FocusPages || m.pageCursor >= len(m.pageRows) {
		return backend.Page{}, false
	}
	return *m.rows[m.pageRows[m.pageCursor]].page, true
}

// rebuildRows lays out the pages pane for the current source, view and filter.
func (m *Model) rebuildRows() {
	m.rows, m.pageRows = nil, nil
	now := m.now()

	add := func(header string, pages []backend.Page) {
		if len(pages) == 0 {
			return
		}
		m.rows = append(m.rows, row{header: fmt.Sprintf("%s (%d)", header, len(pages))})
		for i := range pages {
			m.pageRows = append(m.pageRows, len(m.rows))
			m.rows = append(m.rows, row{page: &pages[i]})
		}
	}

	if m.sourceCursor == 0 {
		recent := make([]backend.Page, 0, len(m.recent))
		for _, r := range m.recent {
			recent = append(recent, r.Page)
		}
		add(views.RecentSection, recent)
		add(SearchSection, m.searchHits)
	} else {
		pages := views.FilterPages(m.pages, m.view, m.filter, now)
		lanes, err := views.KanbanLanes(pages, m.view)
		if m.view.EffectiveType() == views.TypeKanban && err == nil {
			for _, lane := range lanes {
				add(lane.Lane.Title(), lane.Pages)
			}
		} else {
			for _, s := range views.GroupPages(pages, m.view, now) {
				add(s.Name, s.Pages)
			}
		}
	}

	if m.pageCursor >= len(m.pageRows) {
		m.pageCursor = 0
	}
}

// View renders the TUI
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		m.width = 100
		m.height = 24
	}

	switch m.mode {
	case ModeFilter:
		return m.renderInputDialog("Search", "Enter: search  Esc: clear")
	case ModeEdit:
		title := "Set property"
		if page, ok := m.selectedPage(); ok {
			title = "Set property of " + views.PageTitle(page)
		}
		return m.renderInputDialog(title, "e.g. Done=yes, Status=In progress, Due=+7d  Enter: apply  Esc: cancel")
	case ModePreview:
		return m.centerDialog(m.dialogStyle.Width(m.width - 8).Render(m.preview + "\n\n" + m.helpStyle.Render("Esc: close")))
	case ModeHelp:
		return m.centerDialog(m.dialogStyle.Render(helpText))
	}

	sourceWidth := m.width / 4
	pageWidth := m.width - sourceWidth - 4

	sourcePane := m.sourcePaneStyle.Width(sourceWidth).Height(m.height - 4).Render(m.renderSourcePane(sourceWidth - 4))
	pagePane := m.pagePaneStyle.Width(pageWidth).Height(m.height - 4).Render(m.renderPagePane(pageWidth - 4))

	var b strings.Builder
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, sourcePane, pagePane))
	b.WriteString("\n")
	b.WriteString(m.renderStatusBar())
	return b.String()
}

func (m *Model) renderSourcePane(width int) string {
	var b strings.Builder
	b.WriteString("Databases\n")
	b.WriteString(strings.Repeat("─", max(width, 1)))
	b.WriteString("\n")

	names := []string{views.RecentSection}
	for _, db := range m.databases {
		names = append(names, views.PageTitle(db))
	}
	for i, name := range names {
		cursor := " "
		if i == m.sourceCursor {
			cursor = ">"
			if m.focus == FocusSources {
				name = m.selectedStyle.Render(name)
			}
		}
		b.WriteString(cursor + " " + name + "\n")
	}
	return b.String()
}

func (m *Model) renderPagePane(width int) string {
	var b strings.Builder
	if len(m.rows) == 0 {
		b.WriteString("No pages\n")
		return b.String()
	}

	now := m.now()
	titleWidth := 0
	for _, r := range m.rows {
		if r.page != nil {
			titleWidth = max(titleWidth, lipgloss.Width(views.PageTitle(*r.page)))
		}
	}

	selectedRow := -1
	if m.focus == FocusPages && m.pageCursor < len(m.pageRows) {
		selectedRow = m.pageRows[m.pageCursor]
	}

	for i, r := range m.rows {
		if r.page == nil {
			b.WriteString(m.headerStyle.Render(r.header) + "\n")
			continue
		}
		cursor := " "
		title := views.PageTitle(*r.page)
		pad := strings.Repeat(" ", titleWidth-lipgloss.Width(title))
		if i == selectedRow {
			cursor = ">"
			title = m.selectedStyle.Render(title)
		}
		line := cursor + " " + title
		if acc := views.AccessoryText(*r.page, m.view, now); acc != "" {
			line += pad + "  " + m.accessoryStyle.Render(acc)
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

func (m *Model) renderStatusBar() string {
	left := m.status
	if left == "" {
		if db, ok := m.currentDatabase(); ok {
			left = views.PageTitle(db)
			var toggles []string
			for i, p := range m.properties {
				if i >= 9 {
					break
				}
				mark := ""
				if m.view.IsVisible(p.ID) {
					mark = "*"
				}
				toggles = append(toggles, fmt.Sprintf("%d:%s%s", i+1, p.DisplayName(), mark))
			}
			if len(toggles) > 0 {
				left += "  " + strings.Join(toggles, " ")
			}
		} else {
			left = views.RecentSection
		}
	}

	right := "q:quit  ?:help"
	if m.filter != "" {
		right = "Filter: " + m.filter + "  " + right
	}

	padding := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if padding < 1 {
		padding = 1
	}
	return m.statusBarStyle.Width(m.width).Render(left + strings.Repeat(" ", padding) + right)
}

func (m *Model) renderInputDialog(title, help string) string {
	dialog := m.dialogStyle.Render(
		title + "\n\n" +
			m.textInput.View() + "\n\n" +
			m.helpStyle.Render(help),
	)
	return m.centerDialog(dialog)
}

const helpText = `Help - Key Bindings

Navigation:
  j/↓    Move down
  k/↑    Move up
  Tab    Switch focus between databases/pages
  Enter  Open page preview

View:
  1-9    Toggle property visibility
  g      Cycle group by
  v      Toggle kanban layout
  /      Search (Recent) or filter (database)
  r      Refresh

Edit:
  e      Set a property of the selected page

General:
  ?      Show this help
  q      Quit

Press Esc to close`

func (m *Model) centerDialog(dialog string) string {
	lines := strings.Split(dialog, "\n")
	dialogHeight := len(lines)
	dialogWidth := 0
	for _, line := range lines {
		dialogWidth = max(dialogWidth, lipgloss.Width(line))
	}

	topPad := max((m.height-dialogHeight)/2, 0)
	leftPad := max((m.width-dialogWidth)/2, 0)

	var b strings.Builder
	for i := 0; i < topPad; i++ {
		b.WriteString("\n")
	}
	for _, line := range lines {
		b.WriteString(strings.Repeat(" ", leftPad))
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

// Run starts the TUI on the terminal and blocks until it exits.
func Run(ws Workspace, opts ...tea.ProgramOption) error {
	p := tea.NewProgram(New(ws), append([]tea.ProgramOption{tea.WithAltScreen()}, opts...)...)
	_, err := p.Run()
	return err
}
