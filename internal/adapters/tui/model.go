// Package tui renders the member roster in a terminal and turns keystrokes into roster intents.
// The roster engine owns every query decision; this package only arms timers, runs the
// requests the engine hands back, and draws its snapshot.
package tui

import (
	"context"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"gymroster/internal/application/roster"
)

type focusArea int

const (
	focusSearch focusArea = iota
	focusList
)

type mode int

const (
	modeBrowse mode = iota
	modeEdit
	modeConfirmDelete
)

// debounceMsg fires when a search-text ticket's delay has elapsed.
type debounceMsg struct{ tag uint64 }

// resultMsg carries a completed directory query.
type resultMsg struct{ resp roster.Response }

// mutationMsg carries the outcome of a delete or edit.
type mutationMsg struct {
	mutation roster.Mutation
	err      error
}

// summaryMsg carries the dashboard counts.
type summaryMsg struct {
	summary roster.Summary
	err     error
}

// Model is the bubbletea model hosting the roster engine.
type Model struct {
	engine *roster.Engine
	dir    roster.Directory
	ctx    context.Context
	cancel context.CancelFunc
	logger *slog.Logger

	keys   KeyMap
	styles Styles

	search    textinput.Model
	editName  textinput.Model
	editPhone textinput.Model
	editField int
	editID    string
	deleteID  string
	deleteFor string

	focus  focusArea
	mode   mode
	cursor int

	summary    roster.Summary
	hasSummary bool

	width  int
	height int
}

// Option customises a Model.
type Option func(*Model)

// WithLogger routes roster events to logger instead of discarding them.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Model) { m.logger = logger }
}

// WithKeyMap replaces the default key bindings.
func WithKeyMap(keys KeyMap) Option {
	return func(m *Model) { m.keys = keys }
}

// NewModel creates a roster browser querying dir, with search edits debounced by delay.
// PRE: dir is non-nil
// POST: Nothing is queried until Init runs
func NewModel(dir roster.Directory, delay time.Duration, opts ...Option) Model {
	ctx, cancel := context.WithCancel(context.Background())

	search := textinput.New()
	search.Placeholder = "Search name or phone"
	search.Prompt = "Search: "
	search.CharLimit = 100
	search.Focus()

	editName := textinput.New()
	editName.Prompt = "Name:  "
	editName.CharLimit = 100
	editPhone := textinput.New()
	editPhone.Prompt = "Phone: "
	editPhone.CharLimit = 15

	m := Model{
		engine:    roster.NewEngine(delay),
		dir:       dir,
		ctx:       ctx,
		cancel:    cancel,
		logger:    slog.New(slog.DiscardHandler),
		keys:      DefaultKeyMap,
		styles:    DefaultStyles,
		search:    search,
		editName:  editName,
		editPhone: editPhone,
		focus:     focusSearch,
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

// Init issues the initial load and the dashboard fetch.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink, m.fetchSummary()}
	if req, ok := m.engine.Start(); ok {
		cmds = append(cmds, m.runQuery(req))
	}
	return tea.Batch(cmds...)
}

// Update routes messages into the engine and returns the follow-up commands it asks for.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case debounceMsg:
		if req, ok := m.engine.DebounceExpired(msg.tag); ok {
			return m, m.runQuery(req)
		}
		return m, nil

	case resultMsg:
		outcome := m.engine.Resolve(msg.resp)
		m.logger.Debug("roster_query_resolved", "seq", msg.resp.Seq, "outcome", outcome.String())
		if outcome == roster.Failed {
			m.logger.Warn("roster_query_failed", "seq", msg.resp.Seq, "error", msg.resp.Err)
		}
		m.clampCursor()
		return m, nil

	case mutationMsg:
		if msg.err != nil {
			m.logger.Warn("roster_mutation_failed", "op", msg.mutation.Op.String(), "member_id", msg.mutation.ID, "error", msg.err)
		}
		req, ok := m.engine.MutationSettled(msg.mutation, msg.err)
		if !ok {
			return m, nil
		}
		return m, tea.Batch(m.runQuery(req), m.fetchSummary())

	case summaryMsg:
		if msg.err != nil {
			m.logger.Warn("roster_summary_failed", "error", msg.err)
			m.engine.SummaryFailed(msg.err)
			return m, nil
		}
		m.summary, m.hasSummary = msg.summary, true
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.ForceQuit) {
			return m.quit()
		}
		switch m.mode {
		case modeEdit:
			return m.updateEdit(msg)
		case modeConfirmDelete:
			return m.updateConfirmDelete(msg)
		}
		if m.focus == focusSearch {
			return m.updateSearch(msg)
		}
		return m.updateList(msg)
	}

	// Cursor blink and other component messages.
	var cmd tea.Cmd
	switch {
	case m.mode == modeEdit && m.editField == 0:
		m.editName, cmd = m.editName.Update(msg)
	case m.mode == modeEdit:
		m.editPhone, cmd = m.editPhone.Update(msg)
	case m.focus == focusSearch:
		m.search, cmd = m.search.Update(msg)
	}
	return m, cmd
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Letters are search text here, so only non-printing keys leave the box.
	if key.Matches(msg, m.keys.FocusToggle) || msg.Type == tea.KeyEnter || msg.Type == tea.KeyDown {
		m.focusList()
		return m, nil
	}

	before := m.search.Value()
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if m.search.Value() == before {
		return m, cmd
	}
	ticket, ok := m.engine.SetText(m.search.Value())
	if !ok {
		return m, cmd
	}
	m.cursor = 0
	return m, tea.Batch(cmd, debounceTick(ticket))
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit()
	case key.Matches(msg, m.keys.FocusToggle), key.Matches(msg, m.keys.FocusSearch):
		return m, m.focusSearch()
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.engine.Snapshot().Page.Results)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.PrevPage):
		return m.dispatch(m.engine.PrevPage())
	case key.Matches(msg, m.keys.NextPage):
		return m.dispatch(m.engine.NextPage())
	case key.Matches(msg, m.keys.StatusAll):
		return m.dispatch(m.engine.SetStatus(roster.StatusAll))
	case key.Matches(msg, m.keys.StatusActive):
		return m.dispatch(m.engine.SetStatus(roster.StatusActive))
	case key.Matches(msg, m.keys.StatusExpired):
		return m.dispatch(m.engine.SetStatus(roster.StatusExpired))
	case key.Matches(msg, m.keys.Refresh):
		req, ok := m.engine.Refresh()
		if !ok {
			return m, nil
		}
		return m, tea.Batch(m.runQuery(req), m.fetchSummary())
	case key.Matches(msg, m.keys.Edit):
		if sel, ok := m.selected(); ok {
			return m, m.openEdit(sel)
		}
	case key.Matches(msg, m.keys.Delete):
		if sel, ok := m.selected(); ok {
			m.mode = modeConfirmDelete
			m.deleteID, m.deleteFor = sel.ID, sel.Name
		}
	}
	return m, nil
}

func (m Model) updateEdit(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.closeEdit()
		return m, nil
	case key.Matches(msg, m.keys.FocusToggle):
		m.editField = 1 - m.editField
		if m.editField == 0 {
			m.editPhone.Blur()
			return m, m.editName.Focus()
		}
		m.editName.Blur()
		return m, m.editPhone.Focus()
	case key.Matches(msg, m.keys.Submit):
		mutation, err := m.engine.PrepareEdit(m.editID, roster.MemberEdit{
			Name:  m.editName.Value(),
			Phone: m.editPhone.Value(),
		})
		if err != nil {
			// The engine has raised the error line; keep the form open for correction.
			return m, nil
		}
		m.closeEdit()
		return m, m.runMutation(mutation)
	}

	var cmd tea.Cmd
	if m.editField == 0 {
		m.editName, cmd = m.editName.Update(msg)
	} else {
		m.editPhone, cmd = m.editPhone.Update(msg)
	}
	return m, cmd
}

func (m Model) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	id := m.deleteID
	m.mode = modeBrowse
	m.deleteID, m.deleteFor = "", ""
	if !key.Matches(msg, m.keys.Confirm) {
		return m, nil
	}
	return m, m.runMutation(m.engine.PrepareDelete(id))
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	m.engine.Close()
	m.cancel()
	return m, tea.Quit
}

func (m Model) dispatch(req roster.Request, ok bool) (tea.Model, tea.Cmd) {
	if !ok {
		return m, nil
	}
	m.cursor = 0
	return m, m.runQuery(req)
}

func (m *Model) focusList() {
	m.focus = focusList
	m.search.Blur()
}

func (m *Model) focusSearch() tea.Cmd {
	m.focus = focusSearch
	return m.search.Focus()
}

func (m *Model) openEdit(sel roster.Member) tea.Cmd {
	m.mode = modeEdit
	m.editID = sel.ID
	m.editField = 0
	m.editName.SetValue(sel.Name)
	m.editPhone.SetValue(sel.Phone)
	m.editPhone.Blur()
	return m.editName.Focus()
}

func (m *Model) closeEdit() {
	m.mode = modeBrowse
	m.editID = ""
	m.editName.Blur()
	m.editPhone.Blur()
}

func (m Model) selected() (roster.Member, bool) {
	results := m.engine.Snapshot().Page.Results
	if m.cursor < 0 || m.cursor >= len(results) {
		return roster.Member{}, false
	}
	return results[m.cursor], true
}

func (m *Model) clampCursor() {
	n := len(m.engine.Snapshot().Page.Results)
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// debounceTick arms the timer for ticket; the tag comes back as a debounceMsg.
func debounceTick(t roster.Ticket) tea.Cmd {
	tag := t.Tag
	return tea.Tick(t.Delay, func(time.Time) tea.Msg {
		return debounceMsg{tag: tag}
	})
}

func (m Model) runQuery(req roster.Request) tea.Cmd {
	ctx, dir := m.ctx, m.dir
	return func() tea.Msg {
		return resultMsg{resp: roster.Execute(ctx, dir, req)}
	}
}

func (m Model) runMutation(mut roster.Mutation) tea.Cmd {
	ctx, dir := m.ctx, m.dir
	return func() tea.Msg {
		var err error
		switch mut.Op {
		case roster.OpDelete:
			err = dir.DeleteMember(ctx, mut.ID)
		case roster.OpEdit:
			err = dir.UpdateMember(ctx, mut.ID, mut.Edit)
		}
		return mutationMsg{mutation: mut, err: err}
	}
}

func (m Model) fetchSummary() tea.Cmd {
	ctx, dir := m.ctx, m.dir
	return func() tea.Msg {
		sum, err := dir.FetchSummary(ctx)
		return summaryMsg{summary: sum, err: err}
	}
}
