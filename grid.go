package gridtick

import "sort"

// Grid is the sparse source of truth for all cell data. Absence of a
// coordinate means "empty cell", which formulas observe as integer zero.
//
// Grid is not safe for concurrent use; the evaluation engine and the view
// layer are expected to share one control-loop goroutine.
type Grid struct {
	cells    map[Coord]*Cell
	selected map[Coord]struct{}
}

// NewGrid creates an empty grid.
func NewGrid() *Grid {
	return &Grid{
		cells:    make(map[Coord]*Cell),
		selected: make(map[Coord]struct{}),
	}
}

// Cell returns the cell at c, or (nil, false) if the coordinate was never
// written. The returned cell is live; callers must not mutate it directly.
func (g *Grid) Cell(c Coord) (*Cell, bool) {
	cell, ok := g.cells[c]
	return cell, ok
}

// CellOrCreate returns the cell at c, creating an empty one on first access.
func (g *Grid) CellOrCreate(c Coord) *Cell {
	if cell, ok := g.cells[c]; ok {
		return cell
	}
	cell := NewCell("")
	g.cells[c] = cell
	return cell
}

// SetRaw edits a cell's source text, creating the cell if needed. The
// formula flag is rederived and the error flag cleared; the value is left
// untouched until the next evaluation tick.
func (g *Grid) SetRaw(c Coord, raw string) {
	g.CellOrCreate(c).SetRaw(raw)
}

// Len returns the number of cells that have ever been written.
func (g *Grid) Len() int {
	return len(g.cells)
}

// Coords returns every written coordinate, sorted row-major for
// deterministic iteration. Evaluation order does not affect results (each
// tick works from a snapshot), but display and tests want stable output.
func (g *Grid) Coords() []Coord {
	coords := make([]Coord, 0, len(g.cells))
	for c := range g.cells {
		coords = append(coords, c)
	}
	sort.Slice(coords, func(i, j int) bool {
		if coords[i].Row != coords[j].Row {
			return coords[i].Row < coords[j].Row
		}
		return coords[i].Col < coords[j].Col
	})
	return coords
}

// Each calls fn for every written cell, in unspecified order.
func (g *Grid) Each(fn func(Coord, *Cell)) {
	for c, cell := range g.cells {
		fn(c, cell)
	}
}

// Select marks a coordinate as selected. Selection is a view-layer
// annotation; it plays no part in evaluation.
func (g *Grid) Select(c Coord) {
	g.selected[c] = struct{}{}
}

// Deselect removes a coordinate from the selection.
func (g *Grid) Deselect(c Coord) {
	delete(g.selected, c)
}

// ClearSelection empties the selection set.
func (g *Grid) ClearSelection() {
	clear(g.selected)
}

// IsSelected reports whether a coordinate is currently selected.
func (g *Grid) IsSelected(c Coord) bool {
	_, ok := g.selected[c]
	return ok
}
