package gridtick

// Per-cell state flags packed for the display layer. The packed form is a
// stable wire format; renderers decode it bit-by-bit, so values must not
// be reordered.
const (
	FlagSelected uint32 = 1 << 0
	FlagFormula  uint32 = 1 << 1
	FlagError    uint32 = 1 << 2
)

// PackFlags packs one cell's display state. A nil cell packs selection
// only, which is how empty-but-selected coordinates are represented.
func PackFlags(cell *Cell, selected bool) uint32 {
	var flags uint32
	if selected {
		flags |= FlagSelected
	}
	if cell == nil {
		return flags
	}
	if cell.IsFormula {
		flags |= FlagFormula
	}
	if cell.Error {
		flags |= FlagError
	}
	return flags
}

// PackRegion packs display flags for every coordinate in the inclusive
// rectangle [min, max], row-major. Coordinates outside the written grid
// pack as empty cells.
func (g *Grid) PackRegion(min, max Coord) []uint32 {
	if max.Col < min.Col || max.Row < min.Row {
		return nil
	}
	cols := max.Col - min.Col + 1
	rows := max.Row - min.Row + 1

	packed := make([]uint32, 0, cols*rows)
	for row := min.Row; row <= max.Row; row++ {
		for col := min.Col; col <= max.Col; col++ {
			c := Coord{Col: col, Row: row}
			cell, _ := g.Cell(c)
			packed = append(packed, PackFlags(cell, g.IsSelected(c)))
		}
	}
	return packed
}
