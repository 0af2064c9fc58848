package gridtick

import "testing"

func TestPackFlags(t *testing.T) {
	tests := []struct {
		name     string
		cell     *Cell
		selected bool
		want     uint32
	}{
		{"nil unselected", nil, false, 0},
		{"nil selected", nil, true, FlagSelected},
		{"plain", NewCell("5"), false, 0},
		{"formula", NewCell("=A0"), false, FlagFormula},
		{"formula selected", NewCell("=A0"), true, FlagSelected | FlagFormula},
		{"error", &Cell{Raw: "=1/0", IsFormula: true, Error: true}, false, FlagFormula | FlagError},
		{"everything", &Cell{Raw: "=1/0", IsFormula: true, Error: true}, true, FlagSelected | FlagFormula | FlagError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PackFlags(tt.cell, tt.selected); got != tt.want {
				t.Errorf("PackFlags = %#x, want %#x", got, tt.want)
			}
		})
	}
}

func TestPackRegion(t *testing.T) {
	g := NewGrid()
	g.SetRaw(Coord{Col: 0, Row: 0}, "=A0")
	g.Select(Coord{Col: 1, Row: 1}) // empty but selected

	packed := g.PackRegion(Coord{Col: 0, Row: 0}, Coord{Col: 1, Row: 1})
	if len(packed) != 4 {
		t.Fatalf("len = %d, want 4", len(packed))
	}

	// row-major: (0,0) (1,0) (0,1) (1,1)
	want := []uint32{FlagFormula, 0, 0, FlagSelected}
	for i := range want {
		if packed[i] != want[i] {
			t.Errorf("packed[%d] = %#x, want %#x", i, packed[i], want[i])
		}
	}
}

func TestPackRegionEmpty(t *testing.T) {
	g := NewGrid()
	if got := g.PackRegion(Coord{Col: 1, Row: 1}, Coord{Col: 0, Row: 0}); got != nil {
		t.Errorf("inverted region = %v, want nil", got)
	}
}
