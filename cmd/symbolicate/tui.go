package main

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/zboralski/symbolicate/internal/symtab"
)

var tuiDocStyle = lipgloss.NewStyle().Margin(1, 2)

// symbolItem adapts one compact-symbol-table entry to bubbles/list's
// DefaultItem interface.
type symbolItem struct {
	name   string
	offset uint32
}

func (s symbolItem) Title() string       { return s.name }
func (s symbolItem) Description() string { return fmt.Sprintf("0x%x", s.offset) }
func (s symbolItem) FilterValue() string { return s.name }

type tuiModel struct {
	list list.Model
}

func newTUIModel(title string, table *symtab.Table) tuiModel {
	items := make([]list.Item, 0, len(table.Addr))
	for _, addr := range table.Addr {
		name, _, err := table.Lookup(addr)
		if err != nil {
			continue
		}
		items = append(items, symbolItem{name: name, offset: addr})
	}

	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = title

	return tuiModel{list: l}
}

func (m tuiModel) Init() tea.Cmd { return nil }

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		h, v := tuiDocStyle.GetFrameSize()
		m.list.SetSize(msg.Width-h, msg.Height-v)
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m tuiModel) View() string {
	return tuiDocStyle.Render(m.list.View())
}

// runSymbolTableTUI starts an interactive browser over table's
// entries, blocking until the user quits.
func runSymbolTableTUI(title string, table *symtab.Table) error {
	_, err := tea.NewProgram(newTUIModel(title, table), tea.WithAltScreen()).Run()
	return err
}
