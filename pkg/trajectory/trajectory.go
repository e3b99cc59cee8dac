package trajectory

import (
	"fmt"
	"sort"
)

// Record is one agent observation at one iteration.
type Record struct {
	Iteration int     `json:"iteration"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Fitness   float64 `json:"fitness"`
	Row       int     `json:"row"` // 1-based data row in the input log
}

// String returns a compact description for logs and diagnostics.
func (r Record) String() string {
	return fmt.Sprintf("(%g, %g) fitness=%g", r.X, r.Y, r.Fitness)
}

// Group holds every record of a single iteration in input order.
type Group struct {
	Iteration int
	Records   []Record
}

// Len returns the number of agents recorded for the iteration.
func (g Group) Len() int {
	return len(g.Records)
}

// Best returns the record with the lowest fitness.
// Ties are resolved in favour of the earliest record, so the result is
// stable for a given input. Best panics on an empty group; groups produced
// by Load are never empty.
func (g Group) Best() Record {
	best := g.Records[0]
	for _, r := range g.Records[1:] {
		if r.Fitness < best.Fitness {
			best = r
		}
	}
	return best
}

// Trajectory is a parsed log: records grouped by iteration, with the
// distinct iterations in ascending order.
type Trajectory struct {
	groups     map[int][]Record
	iterations []int
	count      int
}

// New builds a Trajectory from records. Records keep their relative order
// within each iteration.
func New(records []Record) *Trajectory {
	t := &Trajectory{groups: make(map[int][]Record)}
	for _, r := range records {
		t.add(r)
	}
	t.seal()
	return t
}

func (t *Trajectory) add(r Record) {
	if _, ok := t.groups[r.Iteration]; !ok {
		t.iterations = append(t.iterations, r.Iteration)
	}
	t.groups[r.Iteration] = append(t.groups[r.Iteration], r)
	t.count++
}

func (t *Trajectory) seal() {
	sort.Ints(t.iterations)
}

// Len returns the total number of records.
func (t *Trajectory) Len() int {
	return t.count
}

// Iterations returns the distinct iteration values in ascending order.
func (t *Trajectory) Iterations() []int {
	out := make([]int, len(t.iterations))
	copy(out, t.iterations)
	return out
}

// Group returns the records of one iteration.
// The second result is false if the iteration was never recorded.
func (t *Trajectory) Group(iteration int) (Group, bool) {
	recs, ok := t.groups[iteration]
	if !ok {
		return Group{}, false
	}
	return Group{Iteration: iteration, Records: recs}, true
}

// Groups returns all groups in ascending iteration order.
func (t *Trajectory) Groups() []Group {
	out := make([]Group, 0, len(t.iterations))
	for _, it := range t.iterations {
		out = append(out, Group{Iteration: it, Records: t.groups[it]})
	}
	return out
}

// Records returns every record, ordered by iteration and then input order.
func (t *Trajectory) Records() []Record {
	out := make([]Record, 0, t.count)
	for _, it := range t.iterations {
		out = append(out, t.groups[it]...)
	}
	return out
}

// Bests returns the best record of every iteration in ascending order.
func (t *Trajectory) Bests() []Record {
	out := make([]Record, 0, len(t.iterations))
	for _, g := range t.Groups() {
		out = append(out, g.Best())
	}
	return out
}
