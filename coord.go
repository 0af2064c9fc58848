package gridtick

import (
	"fmt"
	"strconv"
)

// Coord addresses a single grid cell. Columns and rows are unbounded and may
// be negative; only non-negative coordinates have spreadsheet-style names.
type Coord struct {
	Col int
	Row int
}

func (c Coord) String() string {
	if c.Col >= 0 && c.Row >= 0 {
		return CoordToName(c.Col, c.Row)
	}
	return fmt.Sprintf("(%d,%d)", c.Col, c.Row)
}

// CoordToName converts a (column, row) pair to its spreadsheet-style name:
// column 0 is A, 25 is Z, 26 is AA, and the row number is appended in decimal
// with no separator, so (0, 15) is "A15" and (26, 10) is "AA10".
// The column numbering is bijective base-26, not positional.
func CoordToName(col, row int) string {
	// worst case for int64-range columns is 14 letters
	var letters [16]byte
	n := 0

	c := col
	for {
		letters[n] = byte('A' + c%26)
		n++
		c /= 26
		if c == 0 {
			break
		}
		c-- // bijective adjustment: AA follows Z, not BA
	}

	buf := make([]byte, 0, n+8)
	for i := n - 1; i >= 0; i-- {
		buf = append(buf, letters[i])
	}
	return string(strconv.AppendInt(buf, int64(row), 10))
}

// NameToCoord parses a spreadsheet-style cell name back into a (column, row)
// pair. It is the inverse of CoordToName for non-negative coordinates.
// Lowercase letters are accepted.
func NameToCoord(name string) (col, row int, err error) {
	split := 0
	for split < len(name) && isLetter(name[split]) {
		split++
	}
	if split == 0 || split == len(name) {
		return 0, 0, fmt.Errorf("invalid cell name %q", name)
	}

	col = 0
	for i := 0; i < split; i++ {
		ch := name[i]
		if ch >= 'a' && ch <= 'z' {
			ch -= 'a' - 'A'
		}
		col = col*26 + int(ch-'A') + 1
	}
	col--

	rowVal, err := strconv.Atoi(name[split:])
	if err != nil || rowVal < 0 {
		return 0, 0, fmt.Errorf("invalid row in cell name %q", name)
	}
	return col, rowVal, nil
}

// IsCellName reports whether s has the shape of a cell name: one or more
// letters followed by one or more digits.
func IsCellName(s string) bool {
	split := 0
	for split < len(s) && isLetter(s[split]) {
		split++
	}
	if split == 0 || split == len(s) {
		return false
	}
	for i := split; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func isLetter(ch byte) bool {
	return (ch >= 'A' && ch <= 'Z') || (ch >= 'a' && ch <= 'z')
}
