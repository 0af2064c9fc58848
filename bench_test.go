package gridtick

import (
	"fmt"
	"testing"
)

func BenchmarkEvaluateTickLiterals(b *testing.B) {
	g := NewGrid()
	e := NewEngine()
	for i := 0; i < 1000; i++ {
		g.SetRaw(Coord{Col: i % 26, Row: i / 26}, fmt.Sprintf("%d", i))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		e.EvaluateTick(g)
	}
}

func BenchmarkEvaluateTickFormulas(b *testing.B) {
	g := NewGrid()
	e := NewEngine()
	g.SetRaw(Coord{Col: 0, Row: 0}, "1")
	for row := 1; row < 500; row++ {
		g.SetRaw(Coord{Col: 0, Row: row}, fmt.Sprintf("=A%d+1", row-1))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		e.EvaluateTick(g)
	}
}

func BenchmarkParseFormula(b *testing.B) {
	src := "=SUM(A0:A9) + (B0 * 2) % 7 - MIN(C0, C1)"
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := ParseFormula(src); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkFormulaCacheHit(b *testing.B) {
	fc := NewFormulaCache()
	src := "=SUM(A0:A9)+B0"
	if _, err := fc.Get(src); err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := fc.Get(src); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkContentHash(b *testing.B) {
	cell := NewCell("= A0 + 1")
	cell.Value = int64(42)
	markup := CellMarkup(cell, Coord{Col: 0, Row: 0}, DefaultLens)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ContentHash(markup)
	}
}
