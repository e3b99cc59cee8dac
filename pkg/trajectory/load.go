package trajectory

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	errs "github.com/matzehuels/swarmreplay/pkg/errors"
)

// Column names of the trajectory log.
const (
	ColumnPosition  = "Position"
	ColumnIteration = "Iteration"
	ColumnFitness   = "Fitness"
)

// PositionSeparator joins the two coordinates of a position token.
const PositionSeparator = "_"

// LoadFile reads a trajectory log from disk.
func LoadFile(path string) (*Trajectory, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeIO, err, "open %s", path)
	}
	defer f.Close()
	return Load(f)
}

// Load parses a trajectory log. Every failure is fatal: a schema problem,
// a malformed position token or a bad field aborts the whole load.
func Load(r io.Reader) (*Trajectory, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errs.New(errs.ErrCodeEmptyTrajectory, "trajectory log is empty")
	}
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeIO, err, "read header")
	}

	cols, err := locateColumns(header)
	if err != nil {
		return nil, err
	}

	t := &Trajectory{groups: make(map[int][]Record)}
	for row := 1; ; row++ {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, errs.Wrap(errs.ErrCodeIO, err, "read row %d", row)
		}
		rec, err := cols.parse(fields, row)
		if err != nil {
			return nil, err
		}
		t.add(rec)
	}

	if t.count == 0 {
		return nil, errs.New(errs.ErrCodeEmptyTrajectory, "trajectory log has no data rows")
	}
	t.seal()
	return t, nil
}

// ParsePosition splits a position token into its two coordinates.
func ParsePosition(token string) (x, y float64, err error) {
	parts := strings.Split(strings.TrimSpace(token), PositionSeparator)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("position %q has %d parts, want 2", token, len(parts))
	}
	if x, err = parseCoordinate(parts[0]); err != nil {
		return 0, 0, fmt.Errorf("position %q: %w", token, err)
	}
	if y, err = parseCoordinate(parts[1]); err != nil {
		return 0, 0, fmt.Errorf("position %q: %w", token, err)
	}
	return x, y, nil
}

func parseCoordinate(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("coordinate %q is not a number", s)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("coordinate %q is not finite", s)
	}
	return v, nil
}

// columns holds the header index of each required field.
type columns struct {
	position, iteration, fitness int
}

func locateColumns(header []string) (columns, error) {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if _, dup := idx[name]; !dup {
			idx[name] = i
		}
	}

	var missing []string
	lookup := func(name string) int {
		i, ok := idx[name]
		if !ok {
			missing = append(missing, name)
		}
		return i
	}
	c := columns{
		position:  lookup(ColumnPosition),
		iteration: lookup(ColumnIteration),
		fitness:   lookup(ColumnFitness),
	}
	if len(missing) > 0 {
		return columns{}, errs.New(errs.ErrCodeSchema, "missing required column(s): %s", strings.Join(missing, ", "))
	}
	return c, nil
}

func (c columns) parse(fields []string, row int) (Record, error) {
	get := func(i int) (string, bool) {
		if i >= len(fields) {
			return "", false
		}
		return strings.TrimSpace(fields[i]), true
	}

	posTok, ok := get(c.position)
	if !ok {
		return Record{}, errs.AtRow(errs.ErrCodeSchema, row, "missing %s field", ColumnPosition)
	}
	itTok, ok := get(c.iteration)
	if !ok {
		return Record{}, errs.AtRow(errs.ErrCodeSchema, row, "missing %s field", ColumnIteration)
	}
	fitTok, ok := get(c.fitness)
	if !ok {
		return Record{}, errs.AtRow(errs.ErrCodeSchema, row, "missing %s field", ColumnFitness)
	}

	x, y, err := ParsePosition(posTok)
	if err != nil {
		return Record{}, errs.AtRow(errs.ErrCodeMalformedPosition, row, "%v", err)
	}

	it, err := strconv.Atoi(itTok)
	if err != nil || it < 0 {
		return Record{}, errs.AtRow(errs.ErrCodeInvalidRecord, row, "%s %q is not a non-negative integer", ColumnIteration, itTok)
	}

	fit, err := strconv.ParseFloat(fitTok, 64)
	if err != nil || math.IsNaN(fit) {
		return Record{}, errs.AtRow(errs.ErrCodeInvalidRecord, row, "%s %q is not a number", ColumnFitness, fitTok)
	}

	return Record{Iteration: it, X: x, Y: y, Fitness: fit, Row: row}, nil
}
