package gridtick

import (
	"strings"
	"testing"
)

func TestParseMarkupElements(t *testing.T) {
	markup := `<rect x="0" y="0" width="80" height="30" fill="#FFFFFF"/>` +
		`<circle cx="40" cy="15" r="10" fill="red"/>` +
		`<text x="40" y="19" font-size="12" text-anchor="middle" fill="#000000">hi</text>`

	elems, err := ParseMarkup(markup)
	if err != nil {
		t.Fatalf("ParseMarkup: %v", err)
	}
	if len(elems) != 3 {
		t.Fatalf("got %d elements, want 3", len(elems))
	}

	rect, ok := elems[0].(RectElement)
	if !ok {
		t.Fatalf("elems[0] is %T, want RectElement", elems[0])
	}
	if rect.Width != 80 || rect.Height != 30 || rect.Fill != "#FFFFFF" {
		t.Errorf("rect = %+v", rect)
	}

	circle, ok := elems[1].(CircleElement)
	if !ok {
		t.Fatalf("elems[1] is %T, want CircleElement", elems[1])
	}
	if circle.CX != 40 || circle.R != 10 || circle.Fill != "red" {
		t.Errorf("circle = %+v", circle)
	}

	text, ok := elems[2].(TextElement)
	if !ok {
		t.Fatalf("elems[2] is %T, want TextElement", elems[2])
	}
	if text.Content != "hi" || text.Anchor != "middle" || text.FontSize != 12 {
		t.Errorf("text = %+v", text)
	}
}

func TestParseMarkupSVGWrapper(t *testing.T) {
	elems, err := ParseMarkup(`<svg><rect width="10" height="10" fill="blue"/></svg>`)
	if err != nil {
		t.Fatalf("ParseMarkup: %v", err)
	}
	if len(elems) != 1 {
		t.Fatalf("got %d elements, want 1", len(elems))
	}
}

func TestParseMarkupDefaults(t *testing.T) {
	elems, err := ParseMarkup(`<text>plain</text>`)
	if err != nil {
		t.Fatalf("ParseMarkup: %v", err)
	}
	text := elems[0].(TextElement)
	if text.FontSize != 12 || text.Anchor != "start" || text.Fill != "black" {
		t.Errorf("defaults = %+v", text)
	}
}

func TestParseMarkupEntities(t *testing.T) {
	elems, err := ParseMarkup(`<text>a &lt; b &amp; c</text>`)
	if err != nil {
		t.Fatalf("ParseMarkup: %v", err)
	}
	text := elems[0].(TextElement)
	if text.Content != "a < b & c" {
		t.Errorf("content = %q", text.Content)
	}
}

func TestParseMarkupInvalid(t *testing.T) {
	tests := []struct {
		name   string
		markup string
	}{
		{"unknown element", `<ellipse cx="1" cy="1"/>`},
		{"bad attribute", `<rect width="abc" height="10"/>`},
		{"negative size", `<rect width="-5" height="10"/>`},
		{"bad anchor", `<text text-anchor="sideways">x</text>`},
		{"unterminated", `<rect width="10"`},
		{"nested in text", `<text>a<rect/></text>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseMarkup(tt.markup); err == nil {
				t.Errorf("ParseMarkup(%q) expected error", tt.markup)
			}
		})
	}
}

func TestContentHashDeterministic(t *testing.T) {
	a := ContentHash("abc")
	b := ContentHash("abc")
	c := ContentHash("abd")

	if a != b {
		t.Error("identical markup must hash identically")
	}
	if a == c {
		t.Error("different markup should hash differently")
	}
	if ContentHash("") == 0 {
		// FNV offset basis, not zero; zero is reserved for "no content"
		t.Error("empty markup must not hash to zero")
	}
}

func TestCellMarkupStates(t *testing.T) {
	c := Coord{Col: 0, Row: 0}

	plain := NewCell("5")
	plain.Value = int64(5)
	m := CellMarkup(plain, c, DefaultLens)
	if !strings.Contains(m, `fill="#FFFFFF"`) {
		t.Errorf("plain cell background: %s", m)
	}
	if !strings.Contains(m, ">5</text>") {
		t.Errorf("plain cell value: %s", m)
	}

	formula := NewCell("=A0+1")
	formula.Value = int64(6)
	m = CellMarkup(formula, c, DefaultLens)
	if !strings.Contains(m, `fill="#EEF4FF"`) {
		t.Errorf("formula cell background: %s", m)
	}

	errored := NewCell("=1/0")
	errored.Error = true
	m = CellMarkup(errored, c, DefaultLens)
	if !strings.Contains(m, `fill="#FFCCCC"`) || !strings.Contains(m, "#ERR") {
		t.Errorf("error cell markup: %s", m)
	}
}

func TestCellMarkupLens(t *testing.T) {
	c := Coord{Col: 1, Row: 2}
	cell := NewCell("=A0+1")
	cell.Value = int64(6)

	m := CellMarkup(cell, c, LensOptions{ShowValue: true, ShowCoord: true})
	if !strings.Contains(m, ">B2</text>") {
		t.Errorf("coord label missing: %s", m)
	}

	m = CellMarkup(cell, c, LensOptions{ShowFormula: true})
	if !strings.Contains(m, "=A0+1") {
		t.Errorf("formula text missing: %s", m)
	}

	m = CellMarkup(cell, c, LensOptions{})
	if strings.Contains(m, "<text") {
		t.Errorf("lens with nothing enabled should draw no text: %s", m)
	}
}

func TestCellMarkupEscapes(t *testing.T) {
	cell := NewCell(`a<b`)
	cell.Value = "a<b"

	m := CellMarkup(cell, Coord{}, DefaultLens)
	if strings.Contains(m, ">a<b<") {
		t.Errorf("unescaped markup: %s", m)
	}
	if _, err := ParseMarkup(m); err != nil {
		t.Errorf("generated markup must parse: %v", err)
	}
}

func TestCellContentHashStability(t *testing.T) {
	c := Coord{Col: 0, Row: 0}
	cell := NewCell("5")
	cell.Value = int64(5)

	_, h1 := CellContent(cell, c, DefaultLens)
	_, h2 := CellContent(cell, c, DefaultLens)
	if h1 != h2 {
		t.Error("unchanged cell must produce a stable content hash")
	}

	cell.Value = int64(6)
	_, h3 := CellContent(cell, c, DefaultLens)
	if h3 == h1 {
		t.Error("changed value must change the content hash")
	}
}
