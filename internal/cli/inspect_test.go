package cli

import (
	"math"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/swarmreplay/pkg/pipeline"
	"github.com/matzehuels/swarmreplay/pkg/trajectory"
)

func testSummary(n int) *pipeline.Summary {
	s := &pipeline.Summary{Input: "output.csv"}
	for i := 1; i <= n; i++ {
		s.Iterations = append(s.Iterations, i)
		s.Bests = append(s.Bests, trajectory.Record{
			Iteration: i,
			X:         float64(i),
			Y:         -float64(i),
			Fitness:   100 / float64(i),
			Row:       i,
		})
		s.Records += 3
	}
	return s
}

func TestBestTable(t *testing.T) {
	s := testSummary(5)

	all := bestTable(s, 0)
	for _, want := range []string{"Iteration", "Fitness", "33.3333", "-5"} {
		if !strings.Contains(all, want) {
			t.Errorf("bestTable() missing %q:\n%s", want, all)
		}
	}

	limited := bestTable(s, 2)
	if strings.Contains(limited, "33.3333") {
		t.Errorf("bestTable(limit 2) shows iteration 3:\n%s", limited)
	}
	if !strings.Contains(limited, "50") {
		t.Errorf("bestTable(limit 2) missing iteration 2:\n%s", limited)
	}
}

func TestConvergenceChart(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		empty  bool
	}{
		{"no values", nil, true},
		{"single value", []float64{1}, true},
		{"only one finite", []float64{math.Inf(1), 2}, true},
		{"series", []float64{5, 3, 2, 1.5, 1}, false},
		{"skips infinities", []float64{math.Inf(1), 4, 2, math.Inf(-1), 1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := convergenceChart(tt.values, chartWidth, chartHeight)
			if (got == "") != tt.empty {
				t.Errorf("convergenceChart(%v) = %q, want empty=%v", tt.values, got, tt.empty)
			}
			if !tt.empty && !strings.Contains(got, "best fitness") {
				t.Errorf("convergenceChart() missing caption:\n%s", got)
			}
		})
	}
}

func TestBestOverall(t *testing.T) {
	recs := []trajectory.Record{{Fitness: 3}, {Fitness: 1}, {Fitness: 1}, {Fitness: 2}}
	if got := bestOverall(recs); got != 1 {
		t.Errorf("bestOverall() = %d, want 1 (first of tied minimum)", got)
	}
}

func key(s string) tea.KeyMsg {
	switch s {
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestIterationListNavigation(t *testing.T) {
	var m tea.Model = NewIterationListModel(testSummary(10))
	m, _ = m.Update(tea.WindowSizeMsg{Width: 80, Height: 12})

	lm := m.(IterationListModel)
	if lm.Height != 5 {
		t.Fatalf("Height = %d, want 5", lm.Height)
	}

	for range 7 {
		m, _ = m.Update(key("j"))
	}
	lm = m.(IterationListModel)
	if lm.Cursor != 7 || lm.Offset != 3 {
		t.Errorf("after 7 downs: cursor %d offset %d, want 7 and 3", lm.Cursor, lm.Offset)
	}

	m, _ = m.Update(key("G"))
	if lm = m.(IterationListModel); lm.Cursor != 9 {
		t.Errorf("G: cursor = %d, want 9", lm.Cursor)
	}
	m, _ = m.Update(key("down"))
	if lm = m.(IterationListModel); lm.Cursor != 9 {
		t.Errorf("down at end: cursor = %d, want 9", lm.Cursor)
	}

	m, _ = m.Update(key("g"))
	lm = m.(IterationListModel)
	if lm.Cursor != 0 || lm.Offset != 0 {
		t.Errorf("g: cursor %d offset %d, want 0 and 0", lm.Cursor, lm.Offset)
	}
	m, _ = m.Update(key("up"))
	if lm = m.(IterationListModel); lm.Cursor != 0 {
		t.Errorf("up at start: cursor = %d, want 0", lm.Cursor)
	}

	if _, cmd := m.Update(key("q")); cmd == nil {
		t.Error("q should return a quit command")
	}
}

func TestIterationListView(t *testing.T) {
	m := NewIterationListModel(testSummary(3))
	m.Cursor = 1

	view := m.View()
	for _, want := range []string{"Iterations of output.csv", "▸", "★", "[2/3]", "row 2", "Δ fitness -50"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q:\n%s", want, view)
		}
	}

	empty := NewIterationListModel(&pipeline.Summary{Input: "none.csv"})
	if !strings.Contains(empty.View(), "no iterations") {
		t.Errorf("empty View() = %q", empty.View())
	}
}
