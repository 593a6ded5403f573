// Package tui is the interactive list. Every key that changes data becomes a
// command against the synchronizer; the view is redrawn from the snapshot the
// command brings back.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/Makepad-fr/tada/internal/api"
	"github.com/Makepad-fr/tada/internal/listsync"
	"github.com/Makepad-fr/tada/internal/model"
)

const noticeTTL = 4 * time.Second

// listItem adapts model.Item to bubbles/list.Item
type listItem struct {
	item model.Item
}

func (i listItem) TitleText() string {
	box := boxUnchecked
	if i.item.IsCompleted {
		box = boxChecked
	}
	return fmt.Sprintf("%s %s", box, i.item.Description)
}

// Implement list.Item interface
func (i listItem) Title() string       { return i.TitleText() }
func (i listItem) Description() string { return "" }
func (i listItem) FilterValue() string { return i.item.Description }

// Custom delegate to control how items render (single line)
type itemDelegate struct{}

func (d itemDelegate) Height() int                               { return 1 }
func (d itemDelegate) Spacing() int                              { return 0 }
func (d itemDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }
func (d itemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, _ := item.(listItem)

	box := mutedStyle.Render(boxUnchecked)
	text := it.item.Description
	if it.item.IsCompleted {
		box = successStyle.Render(boxChecked)
		text = doneStyle.Render(text)
	}
	line := fmt.Sprintf("%s %s", box, text)
	if it.item.Starred {
		line += " " + starStyle.Render("★")
	}
	if it.item.DueDate != nil {
		line += " " + mutedStyle.Render("due "+it.item.DueDate.String())
	}

	prefix := "  "
	if index == m.Index() {
		prefix = selectedStyle.Render("> ")
	}
	fmt.Fprintln(w, prefix+line)
}

// filters cycled by the f key
var filters = []struct {
	name string
	f    model.ListFilter
}{
	{"all", model.ListFilter{}},
	{"pending", model.ListFilter{Complete: model.Bool(false)}},
	{"done", model.ListFilter{Complete: model.Bool(true)}},
	{"due", model.ListFilter{Due: model.Bool(true)}},
}

// syncedMsg carries the synchronizer state after an operation.
type syncedMsg struct {
	op      string
	state   listsync.State
	err     error
	deleted *model.Item // set by a delete
}

type noticeExpiredMsg struct{ seq int }

// Model is the Bubble Tea model bound to a Synchronizer.
type Model struct {
	ctx    context.Context
	sync   *listsync.Synchronizer
	logger *log.Logger

	list   list.Model
	width  int
	height int

	// Inline add, bound to the synchronizer's pending input
	adding bool
	ti     textinput.Model
	addErr string

	filter int
	busy   int

	notice    string
	noticeErr bool
	noticeSeq int

	// Undo support (single-level): re-creates the last successfully deleted item.
	lastDeleted *model.Item
}

// New builds the model; the first snapshot is fetched by Init.
func New(ctx context.Context, s *listsync.Synchronizer, logger *log.Logger) Model {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	l := list.New(nil, itemDelegate{}, 80, 20)
	l.SetShowHelp(true)
	l.SetShowPagination(true)
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = titleStyle
	l.Styles.HelpStyle = helpStyle
	l.Styles.PaginationStyle = helpStyle
	l.FilterInput.Prompt = "/ "
	l.SetStatusBarItemName("item", "items")

	// Extend help with our bindings
	binds := []key.Binding{
		key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "toggle")),
		key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
		key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "undo")),
		key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "filter")),
	}
	l.AdditionalShortHelpKeys = func() []key.Binding { return binds }
	l.AdditionalFullHelpKeys = func() []key.Binding { return binds }

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "What needs to be done?"
	ti.CharLimit = 200

	m := Model{
		ctx:    ctx,
		sync:   s,
		logger: logger,
		list:   l,
		ti:     ti,
		width:  80,
		height: 24,
	}
	m.setItems(s.State())
	return m
}

// Run starts the full-screen program and blocks until the user quits.
func Run(ctx context.Context, s *listsync.Synchronizer, logger *log.Logger) error {
	p := tea.NewProgram(New(ctx, s, logger), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// Init implements tea.Model; it loads the first snapshot.
func (m Model) Init() tea.Cmd {
	return m.run("reload", m.sync.Reload)
}

// run wraps a synchronizer operation as a command.
func (m Model) run(op string, fn func(context.Context) error) tea.Cmd {
	ctx, s := m.ctx, m.sync
	return func() tea.Msg {
		err := fn(ctx)
		return syncedMsg{op: op, state: s.State(), err: err}
	}
}

func (m *Model) setItems(st listsync.State) tea.Cmd {
	li := make([]list.Item, 0, len(st.Items))
	for _, it := range st.Items {
		li = append(li, listItem{item: it})
	}
	cmd := m.list.SetItems(li)

	dn, pn := st.Stats()
	m.list.Title = fmt.Sprintf("%s   %s %d  %s %d  %s %d  %s",
		titleStyle.Render("Todos"),
		successStyle.Render("✔"), dn,
		pendingStyle.Render("•"), pn,
		accentStyle.Render("Total"), len(st.Items),
		mutedStyle.Render("["+filters[m.filter].name+"]"),
	)
	return cmd
}

func (m *Model) setNotice(text string, isErr bool) tea.Cmd {
	m.notice, m.noticeErr = text, isErr
	m.noticeSeq++
	seq := m.noticeSeq
	return tea.Tick(noticeTTL, func(time.Time) tea.Msg { return noticeExpiredMsg{seq: seq} })
}

func (m Model) selected() (model.Item, bool) {
	it, ok := m.list.SelectedItem().(listItem)
	return it.item, ok
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch x := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = x.Width, x.Height
		return m, nil

	case syncedMsg:
		if m.busy > 0 {
			m.busy--
		}
		refilter := m.setItems(x.state)
		if x.deleted != nil {
			m.lastDeleted = nil
			// a failed delete leaves the item in place, so there is nothing to undo
			if x.err == nil {
				m.lastDeleted = x.deleted
			}
		}
		if x.err != nil {
			m.logger.Warn("operation failed", "op", x.op, "err", x.err)
			return m, tea.Batch(refilter, m.setNotice(x.op+" failed: "+describe(x.err), true))
		}
		if x.op == "reload" {
			return m, refilter
		}
		return m, tea.Batch(refilter, m.setNotice(x.op+" ok", false))

	case noticeExpiredMsg:
		if x.seq == m.noticeSeq {
			m.notice = ""
		}
		return m, nil
	}

	if m.adding {
		return m.updateAdding(msg)
	}

	// let the list own the keyboard while its filter prompt is open
	if m.list.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}

	if k, ok := msg.(tea.KeyMsg); ok {
		switch k.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case " ":
			if it, ok := m.selected(); ok {
				m.busy++
				return m, m.run("toggle", func(ctx context.Context) error {
					return m.sync.ToggleComplete(ctx, it)
				})
			}
			return m, nil
		case "d":
			if it, ok := m.selected(); ok {
				m.busy++
				ctx, s := m.ctx, m.sync
				return m, func() tea.Msg {
					err := s.Delete(ctx, it)
					return syncedMsg{op: "delete", state: s.State(), err: err, deleted: &it}
				}
			}
			return m, nil
		case "u":
			if m.lastDeleted != nil {
				it := *m.lastDeleted
				m.lastDeleted = nil
				m.busy++
				return m, m.run("undo", func(ctx context.Context) error {
					return m.sync.Restore(ctx, it)
				})
			}
			return m, nil
		case "a":
			m.adding = true
			m.addErr = ""
			m.ti.SetValue(m.sync.PendingInput())
			m.ti.CursorEnd()
			return m, m.ti.Focus()
		case "r":
			m.busy++
			return m, m.run("reload", m.sync.Reload)
		case "f":
			m.filter = (m.filter + 1) % len(filters)
			m.sync.SetFilter(filters[m.filter].f)
			m.busy++
			return m, m.run("reload", m.sync.Reload)
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) updateAdding(msg tea.Msg) (tea.Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok {
		switch k.String() {
		case "enter":
			if strings.TrimSpace(m.ti.Value()) == "" {
				m.addErr = "Description cannot be empty"
				return m, nil
			}
			m.adding = false
			m.ti.Blur()
			m.ti.SetValue("")
			m.busy++
			return m, m.run("add", m.sync.Submit)
		case "esc":
			m.adding = false
			m.ti.Blur()
			m.ti.SetValue("")
			m.sync.SetPendingInput("")
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.ti, cmd = m.ti.Update(msg)
	m.sync.SetPendingInput(m.ti.Value())
	return m, cmd
}

// View implements tea.Model.
func (m Model) View() string {
	listHeight := m.height - 4
	if m.adding {
		listHeight -= 4
	}
	if m.notice != "" || m.busy > 0 {
		listHeight--
	}
	if listHeight < 3 {
		listHeight = 3
	}
	m.list.SetSize(m.width-4, listHeight)

	content := m.list.View()
	if m.adding {
		title := "Add new item"
		if m.addErr != "" {
			title += " · " + errorStyle.Render(m.addErr)
		}
		content += "\n" + frameStyle.Render(title+"\n"+m.ti.View())
	}
	switch {
	case m.notice != "" && m.noticeErr:
		content += "\n" + errorStyle.Render("✖ "+m.notice)
	case m.notice != "":
		content += "\n" + successStyle.Render("✔ "+m.notice)
	case m.busy > 0:
		content += "\n" + mutedStyle.Render("syncing…")
	}
	return frameStyle.Render(content)
}

func describe(err error) string {
	var (
		ne *api.NetworkError
		se *api.ServerError
	)
	switch {
	case errors.As(err, &ne):
		return "server unreachable"
	case errors.As(err, &se):
		return fmt.Sprintf("server answered %d", se.Status)
	default:
		return err.Error()
	}
}
