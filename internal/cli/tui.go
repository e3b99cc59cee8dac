package cli

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/swarmreplay/pkg/pipeline"
	"github.com/matzehuels/swarmreplay/pkg/trajectory"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// IterationListModel - Interactive iteration browser
// =============================================================================

// IterationListModel is the bubbletea model behind "inspect --interactive".
// It pages through the best agent of every iteration.
type IterationListModel struct {
	Summary *pipeline.Summary
	Cursor  int
	Height  int
	Offset  int
}

// NewIterationListModel creates a browser over s.
func NewIterationListModel(s *pipeline.Summary) IterationListModel {
	return IterationListModel{Summary: s, Height: 15}
}

func (m IterationListModel) Init() tea.Cmd {
	return nil
}

func (m IterationListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	n := len(m.Summary.Bests)
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
			}
		case "down", "j":
			if m.Cursor < n-1 {
				m.Cursor++
			}
		case "home", "g":
			m.Cursor = 0
		case "end", "G":
			if n > 0 {
				m.Cursor = n - 1
			}
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-9, 5)
	}
	m.scroll()
	return m, nil
}

// scroll keeps the cursor inside the visible window.
func (m *IterationListModel) scroll() {
	if m.Cursor < m.Offset {
		m.Offset = m.Cursor
	}
	if m.Cursor >= m.Offset+m.Height {
		m.Offset = m.Cursor - m.Height + 1
	}
}

func (m IterationListModel) View() string {
	var b strings.Builder
	bests := m.Summary.Bests

	b.WriteString(StyleTitle.Render("Iterations of " + m.Summary.Input))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  g/G first/last  q quit"))
	b.WriteString("\n\n")

	if len(bests) == 0 {
		b.WriteString(listDimStyle.Render("  no iterations"))
		return b.String()
	}

	end := min(m.Offset+m.Height, len(bests))
	overall := bestOverall(bests)

	rows := make([][]string, 0, end-m.Offset)
	for i := m.Offset; i < end; i++ {
		r := bests[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		mark := ""
		if i == overall {
			mark = "★"
		}
		rows = append(rows, []string{
			cursor,
			strconv.Itoa(r.Iteration),
			strconv.FormatFloat(r.X, 'g', 6, 64),
			strconv.FormatFloat(r.Y, 'g', 6, 64),
			strconv.FormatFloat(r.Fitness, 'g', 6, 64),
			mark,
		})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Iteration", "Best X", "Best Y", "Fitness", "").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == headerRow {
				return headerStyle
			}
			idx := m.Offset + row
			switch {
			case idx == m.Cursor:
				return listSelectedStyle
			case col == 4:
				return lipgloss.NewStyle().Foreground(colorGray)
			default:
				return lipgloss.NewStyle()
			}
		})

	b.WriteString(t.Render())
	b.WriteString("\n")
	b.WriteString(m.detail())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(bests))))
	return b.String()
}

// detail describes the selected iteration relative to its predecessor.
func (m IterationListModel) detail() string {
	bests := m.Summary.Bests
	cur := bests[m.Cursor]
	line := fmt.Sprintf("  row %d of %s", cur.Row, m.Summary.Input)
	if m.Cursor > 0 {
		delta := cur.Fitness - bests[m.Cursor-1].Fitness
		if !math.IsNaN(delta) && !math.IsInf(delta, 0) {
			line += fmt.Sprintf(" · Δ fitness %+g", delta)
		}
	}
	return listDimStyle.Render(line)
}

// bestOverall returns the index of the lowest fitness, first one on ties.
func bestOverall(bests []trajectory.Record) int {
	idx := 0
	for i := 1; i < len(bests); i++ {
		if bests[i].Fitness < bests[idx].Fitness {
			idx = i
		}
	}
	return idx
}
