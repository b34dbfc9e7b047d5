package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/yildizm/prhistory/internal/emoji"
	"github.com/yildizm/prhistory/internal/history"
	"github.com/yildizm/prhistory/internal/ui/components"
)

// HistoryOptions configures the viewer
type HistoryOptions struct {
	// Source is shown in the title bar, e.g. the URL or file name
	Source string

	// Changes, when set, triggers a refresh for every value received
	Changes <-chan struct{}

	Theme Theme
	Color bool
}

// HistoryModel is the interactive request-history viewer
type HistoryModel struct {
	ctx       context.Context
	paginator *history.Paginator
	opts      HistoryOptions
	styles    *Styles

	width    int
	height   int
	quitting bool
	status   string
	spinner  *components.Spinner
	position *components.PositionBar
}

// NewHistoryModel creates a viewer over p. Fetches are bound to ctx.
func NewHistoryModel(ctx context.Context, p *history.Paginator, opts HistoryOptions) *HistoryModel {
	spinner := components.NewSpinner()
	spinner.Label = "Loading history..."

	return &HistoryModel{
		ctx:       ctx,
		paginator: p,
		opts:      opts,
		styles:    NewStyles(&opts.Theme, opts.Color),
		spinner:   spinner,
		position:  components.NewPositionBar(20),
	}
}

// Init starts the initial fetch
func (m *HistoryModel) Init() tea.Cmd {
	return tea.Batch(
		m.await("initial load", m.paginator.Initialize(m.ctx)),
		m.watchChanges(),
		tick(),
	)
}

// Update handles messages and navigation
func (m *HistoryModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case historyLoadedMsg:
		m.status = describeResult(msg)
		return m, nil

	case fileChangedMsg:
		return m, tea.Batch(
			m.await("file changed, reload", m.paginator.Refresh(m.ctx)),
			m.watchChanges(),
		)

	case tickMsg:
		if m.paginator.Snapshot().Loading > 0 {
			m.spinner.Tick()
		}
		return m, tick()
	}

	return m, nil
}

func (m *HistoryModel) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		m.quitting = true
		return m, tea.Quit

	case "left", "h", "p":
		m.paginator.Previous()

	case "right", "l", "n":
		m.paginator.Next()

	case "m":
		// the affordance is only offered at the tail of the loaded list
		if m.paginator.Snapshot().LoadMoreVisible {
			return m, m.await("load more", m.paginator.LoadMore(m.ctx))
		}

	case "r":
		return m, m.await("reload", m.paginator.Refresh(m.ctx))
	}

	return m, nil
}

// await turns a pending fetch into a command delivering historyLoadedMsg
func (m *HistoryModel) await(op string, pending *history.Pending) tea.Cmd {
	return func() tea.Msg {
		return historyLoadedMsg{op: op, err: pending.Wait(m.ctx)}
	}
}

func (m *HistoryModel) watchChanges() tea.Cmd {
	if m.opts.Changes == nil {
		return nil
	}
	changes := m.opts.Changes
	ctx := m.ctx
	return func() tea.Msg {
		select {
		case <-changes:
			return fileChangedMsg{}
		case <-ctx.Done():
			return nil
		}
	}
}

func describeResult(msg historyLoadedMsg) string {
	switch {
	case msg.err == nil:
		return fmt.Sprintf("%s %s: done", emoji.GetEmoji("success"), msg.op)
	case errors.Is(msg.err, history.ErrStale):
		return fmt.Sprintf("%s %s: superseded by a newer page", emoji.GetEmoji("info"), msg.op)
	default:
		return fmt.Sprintf("%s %s failed", emoji.GetEmoji("error"), msg.op)
	}
}

// View renders the viewer
func (m *HistoryModel) View() string {
	if m.quitting {
		return ""
	}

	snap := m.paginator.Snapshot()

	var sections []string
	sections = append(sections, m.renderTitle(&snap))
	sections = append(sections, m.renderTable(&snap))
	sections = append(sections, m.renderFooter(&snap))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *HistoryModel) renderTitle(snap *history.Snapshot) string {
	icon := emoji.GetEmoji("remote")
	if strings.HasSuffix(m.opts.Source, ".json") || strings.HasSuffix(m.opts.Source, ".yaml") || strings.HasSuffix(m.opts.Source, ".yml") {
		icon = emoji.GetEmoji("file")
	}
	title := fmt.Sprintf("%s Request History", emoji.GetEmoji("history"))
	source := m.styles.Muted.Render(fmt.Sprintf("%s %s  page %d", icon, m.opts.Source, snap.ReloadIndex+1))
	return m.styles.Title.Render(title) + " " + source
}

func (m *HistoryModel) renderTable(snap *history.Snapshot) string {
	var rows []string

	switch {
	case len(snap.Rows) == 0 && snap.Loading > 0:
		rows = append(rows, m.spinner.Render())
	case len(snap.Rows) == 0:
		rows = append(rows, m.styles.Muted.Render("No history events."))
	default:
		width := m.rowWidth()
		for i, row := range snap.Rows {
			style := m.styles.Row
			if i%2 == 1 {
				style = m.styles.RowAlt
			}
			line := fmt.Sprintf("%3d  %s", snap.DisplayIndex+i+1, row)
			if width > 0 {
				style = style.Width(width)
			}
			rows = append(rows, style.Render(line))
		}
	}

	return m.styles.Box.Render(strings.Join(rows, "\n"))
}

func (m *HistoryModel) rowWidth() int {
	if m.width <= 6 {
		return 0
	}
	return m.width - 6
}

func (m *HistoryModel) renderFooter(snap *history.Snapshot) string {
	var lines []string

	m.position.SetWindow(snap.DisplayIndex, len(snap.Rows), snap.Total)
	nav := fmt.Sprintf("%s prev  %s next", emoji.GetEmoji("previous"), emoji.GetEmoji("next"))
	lines = append(lines, m.position.Render()+"  "+m.styles.Muted.Render(nav))

	if snap.LoadMoreVisible {
		lines = append(lines, m.styles.LoadMore.Render(emoji.GetEmoji("load_more")+" Load more history (m)"))
	}
	if snap.Loading > 0 && len(snap.Rows) > 0 {
		lines = append(lines, m.spinner.Render())
	}
	if snap.LastError != nil {
		lines = append(lines, m.styles.Error.Render("Failed to load history: "+snap.LastError.Error()))
	} else if m.status != "" {
		lines = append(lines, m.styles.Muted.Render(m.status))
	}

	help := "←/h prev • →/l next • m load more • r reload • q quit"
	lines = append(lines, m.styles.Muted.Render(help))

	return strings.Join(lines, "\n")
}

// RunHistory runs the viewer until the user quits
func RunHistory(ctx context.Context, p *history.Paginator, opts HistoryOptions) error {
	model := NewHistoryModel(ctx, p, opts)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := program.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func tick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
