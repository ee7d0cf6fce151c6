package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mkowalski/monopack/internal/adapters/tuisvc"
	"github.com/mkowalski/monopack/internal/config"
	"github.com/mkowalski/monopack/internal/pipeline"
	"github.com/mkowalski/monopack/internal/ports"
)

// View represents the current view state
type View int

const (
	ArchivesView   View = iota
	DiffSelectView      // Selecting two archives to compare
	DiffResultView      // Showing the member-set comparison
)

// ArchiveItem represents a produced archive in the list
type ArchiveItem struct {
	Version   string
	File      string
	Size      int64
	Members   int
	CreatedAt time.Time
}

// Model is the main TUI model
type Model struct {
	svc      ports.TUIService
	config   *config.Config
	view     View
	width    int
	height   int
	quitting bool

	archives []ArchiveItem
	cursor   int

	// Diff view
	diffSelections []int // Indices of selected archives for diff
	diffResult     *ports.TUIDiffInfo
	diffCursor     int

	// Status message
	statusMsg string
	statusErr bool
	verifying bool
}

// Key bindings
type keyMap struct {
	Up     key.Binding
	Down   key.Binding
	Back   key.Binding
	Verify key.Binding
	Diff   key.Binding
	Select key.Binding
	Reload key.Binding
	Quit   key.Binding
}

var keys = keyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
	Back: key.NewBinding(
		key.WithKeys("esc", "backspace"),
		key.WithHelp("esc", "back"),
	),
	Verify: key.NewBinding(
		key.WithKeys("v"),
		key.WithHelp("v", "verify"),
	),
	Diff: key.NewBinding(
		key.WithKeys("d"),
		key.WithHelp("d", "diff"),
	),
	Select: key.NewBinding(
		key.WithKeys(" ", "tab"),
		key.WithHelp("space", "select"),
	),
	Reload: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "reload"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// statusMsg carries the outcome of an async operation back to Update.
type statusMsg struct {
	msg string
	err bool
}

// diffMsg carries a completed comparison back to Update.
type diffMsg struct {
	result *ports.TUIDiffInfo
	err    error
}

// NewModel creates a new TUI model with the real service.
func NewModel() (*Model, error) {
	return NewModelWithService(tuisvc.New())
}

// NewModelWithService creates a TUI model with an injected service.
func NewModelWithService(svc ports.TUIService) (*Model, error) {
	cfg, err := svc.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	m := NewModelWithConfig(cfg, svc)
	if err := m.loadArchives(); err != nil {
		return nil, err
	}
	return m, nil
}

// NewModelWithConfig creates a TUI model without loading any data.
func NewModelWithConfig(cfg *config.Config, svc ports.TUIService) *Model {
	return &Model{
		svc:    svc,
		config: cfg,
		view:   ArchivesView,
	}
}

// loadArchives refreshes the archive list from the manifest.
func (m *Model) loadArchives() error {
	infos, err := m.svc.ListArchives(m.config)
	if err != nil {
		return err
	}

	m.archives = nil
	for _, info := range infos {
		m.archives = append(m.archives, ArchiveItem{
			Version:   info.Version,
			File:      info.File,
			Size:      info.Size,
			Members:   info.Members,
			CreatedAt: info.CreatedAt,
		})
	}

	if m.cursor >= len(m.archives) {
		m.cursor = len(m.archives) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	return nil
}

// Init initializes the model
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case statusMsg:
		m.statusMsg = msg.msg
		m.statusErr = msg.err
		m.verifying = false
		_ = m.loadArchives()
		return m, nil

	case diffMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Diff failed: %v", msg.err)
			m.statusErr = true
			m.view = ArchivesView
			m.diffSelections = nil
		} else {
			m.diffResult = msg.result
			m.diffCursor = 0
			m.view = DiffResultView
			m.statusMsg = ""
		}
		return m, nil

	case tea.KeyMsg:
		// Clear status on any key
		m.statusMsg = ""
		m.statusErr = false

		switch {
		case key.Matches(msg, keys.Quit):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, keys.Up):
			m.moveCursor(-1)

		case key.Matches(msg, keys.Down):
			m.moveCursor(1)

		case key.Matches(msg, keys.Back):
			switch m.view {
			case DiffSelectView:
				m.view = ArchivesView
				m.diffSelections = nil
			case DiffResultView:
				m.view = ArchivesView
				m.diffResult = nil
				m.diffCursor = 0
				m.diffSelections = nil
			}

		case key.Matches(msg, keys.Verify):
			if m.view == ArchivesView && len(m.archives) > 0 && !m.verifying {
				m.verifying = true
				return m, m.runVerify(m.archives[m.cursor].Version)
			}

		case key.Matches(msg, keys.Diff):
			if m.view == ArchivesView && len(m.archives) >= 2 {
				m.view = DiffSelectView
				m.diffSelections = nil
				m.statusMsg = "Select 2 archives to compare (space to select)"
			}

		case key.Matches(msg, keys.Select):
			if m.view == DiffSelectView {
				return m, m.toggleDiffSelection()
			}

		case key.Matches(msg, keys.Reload):
			if m.view == ArchivesView {
				if err := m.loadArchives(); err != nil {
					m.statusMsg = fmt.Sprintf("Error: %v", err)
					m.statusErr = true
				}
			}
		}
	}

	return m, nil
}

func (m *Model) moveCursor(delta int) {
	switch m.view {
	case ArchivesView, DiffSelectView:
		m.cursor += delta
		if m.cursor < 0 {
			m.cursor = 0
		}
		if m.cursor >= len(m.archives) {
			m.cursor = len(m.archives) - 1
		}
	case DiffResultView:
		if m.diffResult != nil {
			m.diffCursor += delta
			if m.diffCursor < 0 {
				m.diffCursor = 0
			}
			if m.diffCursor >= len(m.diffResult.Changes) {
				m.diffCursor = len(m.diffResult.Changes) - 1
			}
		}
	}
}

// toggleDiffSelection marks or unmarks the archive under the cursor; the
// second selection triggers the comparison.
func (m *Model) toggleDiffSelection() tea.Cmd {
	for i, sel := range m.diffSelections {
		if sel == m.cursor {
			m.diffSelections = append(m.diffSelections[:i], m.diffSelections[i+1:]...)
			return nil
		}
	}

	m.diffSelections = append(m.diffSelections, m.cursor)
	if len(m.diffSelections) < 2 {
		return nil
	}

	v1 := m.archives[m.diffSelections[0]].Version
	v2 := m.archives[m.diffSelections[1]].Version
	return func() tea.Msg {
		result, err := m.svc.DiffArchives(m.config, v1, v2)
		return diffMsg{result: result, err: err}
	}
}

func (m *Model) runVerify(version string) tea.Cmd {
	return func() tea.Msg {
		if err := m.svc.VerifyArchive(m.config, version); err != nil {
			return statusMsg{err: true, msg: fmt.Sprintf("Verify failed: %v", err)}
		}
		return statusMsg{msg: fmt.Sprintf("✓ Verified %s", version)}
	}
}

// View renders the model
func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render(" monopack "))
	b.WriteString("\n\n")

	switch m.view {
	case ArchivesView, DiffSelectView:
		m.renderArchives(&b)
	case DiffResultView:
		m.renderDiffResult(&b)
	}

	// Status
	b.WriteString("\n")
	if m.verifying {
		b.WriteString(dimStyle.Render("Verifying..."))
	} else if m.statusMsg != "" {
		if m.statusErr {
			b.WriteString(errorBadge.Render(m.statusMsg))
		} else {
			b.WriteString(successBadge.Render(m.statusMsg))
		}
	}
	b.WriteString("\n")

	// Help
	var help string
	switch m.view {
	case DiffSelectView:
		help = "[↑/↓] move  [space] select  [esc] back  [q] quit"
	case DiffResultView:
		help = "[↑/↓] move  [esc] back  [q] quit"
	default:
		help = "[↑/↓] move  [v] verify  [d] diff  [r] reload  [q] quit"
	}
	b.WriteString(helpStyle.Render(help))

	return appStyle.Render(b.String())
}

func (m *Model) renderArchives(b *strings.Builder) {
	if len(m.archives) == 0 {
		b.WriteString(dimStyle.Render("  No archives recorded. Run 'monopack fetch <version>' first."))
		b.WriteString("\n")
		return
	}

	header := fmt.Sprintf("  %-16s %-20s %10s %8s %s", "VERSION", "FILE", "SIZE", "MEMBERS", "CREATED")
	if m.view == DiffSelectView {
		header = "  " + header
	}
	b.WriteString(dimStyle.Render(header))
	b.WriteString("\n")

	for i, a := range m.archives {
		cursor := "  "
		if i == m.cursor {
			cursor = "> "
		}

		line := fmt.Sprintf("%-16s %-20s %10s %8d %s",
			truncate(a.Version, 16),
			truncate(a.File, 20),
			pipeline.FormatSize(a.Size),
			a.Members,
			relativeTime(a.CreatedAt))

		if m.view == DiffSelectView {
			checkbox := "[ ] "
			for _, sel := range m.diffSelections {
				if sel == i {
					checkbox = "[x] "
					break
				}
			}
			line = checkbox + line
		}

		if i == m.cursor {
			b.WriteString(selectedStyle.Render(cursor + line))
		} else {
			b.WriteString(normalStyle.Render(cursor + line))
		}
		b.WriteString("\n")
	}
}

func (m *Model) renderDiffResult(b *strings.Builder) {
	r := m.diffResult
	if r == nil {
		return
	}

	summary := fmt.Sprintf("  %s -> %s: %d added, %d modified, %d deleted",
		r.Version1, r.Version2, r.Added, r.Modified, r.Deleted)
	b.WriteString(normalStyle.Render(summary))
	b.WriteString("\n\n")

	if len(r.Changes) == 0 {
		b.WriteString(dimStyle.Render("  No differences"))
		b.WriteString("\n")
		return
	}

	for i, change := range r.Changes {
		cursor := "  "
		if i == m.diffCursor {
			cursor = "> "
		}

		var line string
		switch change.Status {
		case 'A':
			line = addedStyle.Render(fmt.Sprintf("A %s (%s)", change.Name, pipeline.FormatSize(change.Size2)))
		case 'D':
			line = deletedStyle.Render(fmt.Sprintf("D %s (%s)", change.Name, pipeline.FormatSize(change.Size1)))
		case 'M':
			line = fmt.Sprintf("M %s (%s -> %s)", change.Name,
				pipeline.FormatSize(change.Size1), pipeline.FormatSize(change.Size2))
		}

		if i == m.diffCursor {
			b.WriteString(selectedStyle.Render(cursor) + line)
		} else {
			b.WriteString(cursor + line)
		}
		b.WriteString("\n")
	}
}

// Run starts the TUI
func Run() error {
	m, err := NewModel()
	if err != nil {
		return err
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err = p.Run()
	return err
}

// Helper functions
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-1] + "…"
}

func relativeTime(t time.Time) string {
	diff := time.Since(t)
	switch {
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	default:
		return t.Format("Jan 2")
	}
}
