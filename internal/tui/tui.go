// Package tui is the interactive dashboard: one tab per collection, a
// statistics header, and row actions bound by the mutation controller.
package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/idilsaglam/violet/internal/controller"
	"github.com/idilsaglam/violet/internal/gateway"
	"github.com/idilsaglam/violet/internal/model"
	"github.com/idilsaglam/violet/internal/store"
	"github.com/idilsaglam/violet/internal/ui"
	"github.com/idilsaglam/violet/internal/view"
)

// opDoneMsg reports the end of one controller operation.
type opDoneMsg struct {
	name string
	err  error
}

// Deps is what the dashboard drives. Build the controller with the bridge
// as its Confirmer and Notifier and Bridge.Edit as its editor.
type Deps struct {
	Controller *controller.Controller
	Store      *store.Store
	View       *view.Renderer
	Bridge     *Bridge
	Source     string
	Logger     *slog.Logger
}

type Model struct {
	ctx    context.Context
	deps   Deps
	logger *slog.Logger

	keys    KeyMap
	help    help.Model
	spinner spinner.Model

	tab    int
	cursor map[model.Kind]int
	busy   int

	notice  controller.Notice
	confirm *confirmRequest
	form    *form

	filtering bool
	filter    textinput.Model

	width, height int
}

func New(ctx context.Context, deps Deps) Model {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := spinner.New()
	s.Spinner = spinner.Dot

	f := textinput.New()
	f.Prompt = "/ "
	f.CharLimit = 80

	return Model{
		ctx:     ctx,
		deps:    deps,
		logger:  logger,
		keys:    DefaultKeyMap,
		help:    help.New(),
		spinner: s,
		cursor:  make(map[model.Kind]int, len(model.Kinds)),
		filter:  f,
		width:   80,
		height:  24,
	}
}

// Run starts the dashboard and blocks until the user quits.
func Run(ctx context.Context, deps Deps) error {
	p := tea.NewProgram(New(ctx, deps), tea.WithAltScreen(), tea.WithContext(ctx))
	defer deps.Bridge.Close()
	_, err := p.Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		listenForBridgeEvent(m.deps.Bridge.events),
		m.spinner.Tick,
		m.loadAll(),
	)
}

func (m Model) kind() model.Kind { return model.Kinds[m.tab] }

func (m Model) loadAll() tea.Cmd {
	ctrl := m.deps.Controller
	cmds := []tea.Cmd{
		op(m.ctx, "load agents", ctrl.LoadAgents),
		op(m.ctx, "load clients", ctrl.LoadClients),
		op(m.ctx, "load letters", ctrl.LoadLetters),
	}
	return tea.Batch(cmds...)
}

// op runs fn off the Update goroutine.
func op(ctx context.Context, name string, fn func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		return opDoneMsg{name: name, err: fn(ctx)}
	}
}

// start counts an operation in flight and returns its command.
func (m *Model) start(name string, fn func(context.Context) error) tea.Cmd {
	m.busy++
	return op(m.ctx, name, fn)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case bridgeMsg:
		m.handleBridge(msg.event)
		return m, listenForBridgeEvent(m.deps.Bridge.events)

	case opDoneMsg:
		if m.busy > 0 {
			m.busy--
		}
		if msg.err != nil {
			m.logger.Debug("operation failed", slog.String("op", msg.name), slog.Any("error", msg.err))
		}
		m.clampCursor()
		return m, nil

	case tea.KeyMsg:
		switch {
		case m.confirm != nil:
			return m.updateConfirm(msg)
		case m.form != nil:
			return m.updateForm(msg)
		case m.filtering:
			return m.updateFilter(msg)
		}
		return m.updateTable(msg)
	}
	return m, nil
}

func (m *Model) handleBridge(event any) {
	switch e := event.(type) {
	case noticeEvent:
		m.notice = e.notice
	case confirmRequest:
		if m.confirm != nil {
			// One prompt at a time; a second one is declined.
			e.reply <- false
			return
		}
		m.confirm = &e
	case editRequest:
		m.form = newForm(e.kind, e.id, m.deps.Store, m.deps.View.ClientOptions())
	}
}

func (m Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch strings.ToLower(msg.String()) {
	case "y", "enter":
		m.confirm.reply <- true
		m.confirm = nil
	case "n", "esc", "q":
		m.confirm.reply <- false
		m.confirm = nil
	}
	return m, nil
}

func (m Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	submit, cancel, cmd := m.form.Update(msg)
	switch {
	case cancel:
		m.form = nil
		return m, nil
	case submit:
		run, err := m.form.operation(m.deps.Controller)
		if err != nil {
			m.form.err = err.Error()
			return m, nil
		}
		name := strings.ToLower(m.form.title())
		m.form = nil
		return m, m.start(name, run)
	}
	return m, cmd
}

func (m Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.filtering = false
		m.filter.Blur()
		m.filter.SetValue("")
		return m, m.applyFilter("")
	case "enter":
		m.filtering = false
		m.filter.Blur()
		return m, m.applyFilter(strings.TrimSpace(m.filter.Value()))
	}
	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	return m, cmd
}

// applyFilter sets the server-side query for the current tab and reloads.
// Clients filter by name; letters by status or by "#<client id>".
func (m *Model) applyFilter(v string) tea.Cmd {
	st, ctrl := m.deps.Store, m.deps.Controller
	switch m.kind() {
	case model.KindClients:
		st.SetClientQuery(gateway.ClientQuery{Name: v})
		return m.start("filter clients", ctrl.LoadClients)
	case model.KindLetters:
		q := gateway.LetterQuery{}
		if id, err := strconv.ParseUint(strings.TrimPrefix(v, "#"), 10, 64); err == nil {
			q.ClientID = id
		} else if s, ok := model.ParseStatus(v); ok {
			q.Status = s
		} else if v != "" {
			m.notice = controller.Notice{Level: controller.LevelError, Text: "Filter letters by status or #client"}
			return nil
		}
		st.SetLetterQuery(q)
		return m.start("filter letters", ctrl.LoadLetters)
	}
	return nil
}

func (m Model) updateTable(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	kind := m.kind()
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.Up):
		m.cursor[kind]--
		m.clampCursor()
	case key.Matches(msg, m.keys.Down):
		m.cursor[kind]++
		m.clampCursor()
	case key.Matches(msg, m.keys.NextTab):
		m.tab = (m.tab + 1) % len(model.Kinds)
		m.clampCursor()
	case key.Matches(msg, m.keys.PrevTab):
		m.tab = (m.tab - 1 + len(model.Kinds)) % len(model.Kinds)
		m.clampCursor()
	case key.Matches(msg, m.keys.Reload):
		return m, m.start("reload "+string(kind), func(ctx context.Context) error {
			return m.deps.Controller.Load(ctx, kind)
		})
	case key.Matches(msg, m.keys.Add):
		m.form = newForm(kind, 0, m.deps.Store, m.deps.View.ClientOptions())
	case key.Matches(msg, m.keys.Filter):
		if kind == model.KindAgents {
			m.notice = controller.Notice{Level: controller.LevelInfo, Text: "Agents cannot be filtered"}
			return m, nil
		}
		m.filtering = true
		m.filter.SetValue("")
		cmd := m.filter.Focus()
		return m, cmd
	case key.Matches(msg, m.keys.Edit):
		if kind == model.KindLetters {
			m.notice = controller.Notice{Level: controller.LevelInfo, Text: "Letters are advanced, not edited"}
			return m, nil
		}
		return m, m.rowAction("edit")
	case key.Matches(msg, m.keys.Delete):
		return m, m.rowAction("delete")
	case key.Matches(msg, m.keys.Advance):
		if kind != model.KindLetters {
			return m, nil
		}
		return m, m.rowAction("advance")
	}
	return m, nil
}

// rowAction runs the selected row's bound action. Disabled actions still
// run; the server decides.
func (m *Model) rowAction(name string) tea.Cmd {
	row, ok := m.deps.View.Row(m.kind(), m.cursor[m.kind()])
	if !ok {
		return nil
	}
	a, ok := row.Action(name)
	if !ok || a.Run == nil {
		return nil
	}
	return m.start(fmt.Sprintf("%s %s #%d", name, m.kind().Singular(), row.ID), a.Run)
}

func (m *Model) clampCursor() {
	kind := m.kind()
	n := len(m.deps.View.Rows(kind))
	c := m.cursor[kind]
	if c >= n {
		c = n - 1
	}
	if c < 0 {
		c = 0
	}
	m.cursor[kind] = c
}

func (m Model) View() string {
	th := ui.Current()
	stats := m.deps.View.Stats()

	header := th.Title.Render("violet")
	if m.deps.Source != "" {
		header += "  " + th.Muted.Render(m.deps.Source)
	}
	header += fmt.Sprintf("   %s %d  %s %d  %s %d",
		th.Accent.Render("agents"), stats.Agents,
		th.Accent.Render("clients"), stats.Clients,
		th.Accent.Render("letters"), stats.Letters,
	)
	if m.busy > 0 {
		header += "  " + m.spinner.View()
	}

	tabs := make([]string, len(model.Kinds))
	for i, k := range model.Kinds {
		label := fmt.Sprintf("%s (%d)", capitalize(string(k)), stats.Count(k))
		if i == m.tab {
			tabs[i] = ui.ActiveTabStyle.Render(label)
		} else {
			tabs[i] = ui.TabStyle.Render(label)
		}
	}
	tabLine := lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
	if f := m.filterLabel(); f != "" {
		tabLine += "  " + th.Muted.Render("filter: "+f)
	}

	kind := m.kind()
	body := m.deps.View.Table(kind, m.cursor[kind], m.width-4)
	if len(m.deps.View.Rows(kind)) == 0 {
		body += "\n" + th.Muted.Render("  nothing here yet, press a to add")
	}

	parts := []string{header, tabLine, body}
	switch {
	case m.confirm != nil:
		parts = append(parts, ui.PanelString(th.Error.Render(m.confirm.prompt)+"  [y/N]"))
	case m.form != nil:
		parts = append(parts, m.form.View())
	case m.filtering:
		parts = append(parts, m.filter.View())
	}
	if m.notice.Text != "" {
		parts = append(parts, noticeStyle(m.notice.Level).Render(m.notice.Text))
	}
	parts = append(parts, m.help.View(m.keys))

	return ui.PanelString(strings.Join(parts, "\n"))
}

func (m Model) filterLabel() string {
	switch m.kind() {
	case model.KindClients:
		return m.deps.Store.ClientQuery().Name
	case model.KindLetters:
		q := m.deps.Store.LetterQuery()
		switch {
		case q.ClientID != 0:
			return fmt.Sprintf("#%d", q.ClientID)
		case q.Status != "":
			return q.Status.Label()
		}
	}
	return ""
}

func noticeStyle(l controller.Level) lipgloss.Style {
	th := ui.Current()
	switch l {
	case controller.LevelSuccess:
		return th.Success
	case controller.LevelError:
		return th.Error
	}
	return th.Muted
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
