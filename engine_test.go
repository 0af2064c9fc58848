package gridtick

import (
	"testing"
	"time"
)

func tick(e *Engine, g *Grid) {
	e.RequestTick()
	e.Advance(g, 0)
}

func cellValue(t *testing.T, g *Grid, name string) Value {
	t.Helper()
	col, row, err := NameToCoord(name)
	if err != nil {
		t.Fatalf("bad cell name %q: %v", name, err)
	}
	cell, ok := g.Cell(Coord{Col: col, Row: row})
	if !ok {
		t.Fatalf("cell %s not present", name)
	}
	return cell.Value
}

func TestLiteralEvaluation(t *testing.T) {
	g := NewGrid()
	e := NewEngine()

	g.SetRaw(Coord{Col: 0, Row: 0}, "42")
	g.SetRaw(Coord{Col: 0, Row: 1}, "3.14")
	g.SetRaw(Coord{Col: 0, Row: 2}, "abc")
	g.SetRaw(Coord{Col: 0, Row: 3}, "")
	g.SetRaw(Coord{Col: 0, Row: 4}, "  7  ") // whitespace trims for parsing

	tick(e, g)

	if v := cellValue(t, g, "A0"); v != int64(42) {
		t.Errorf("A0 = %v (%T), want int64 42", v, v)
	}
	if v := cellValue(t, g, "A1"); v != 3.14 {
		t.Errorf("A1 = %v, want 3.14", v)
	}
	if v := cellValue(t, g, "A2"); v != "abc" {
		t.Errorf("A2 = %v, want abc", v)
	}
	if v := cellValue(t, g, "A3"); v != "" {
		t.Errorf("A3 = %v, want empty string", v)
	}
	if v := cellValue(t, g, "A4"); v != int64(7) {
		t.Errorf("A4 = %v (%T), want int64 7", v, v)
	}
}

func TestSnapshotSemantics(t *testing.T) {
	g := NewGrid()
	e := NewEngine()

	a0 := Coord{Col: 0, Row: 0}
	b0 := Coord{Col: 1, Row: 0}
	g.SetRaw(a0, "5")
	g.SetRaw(b0, "=A0+1")

	tick(e, g)
	if v := cellValue(t, g, "B0"); v != int64(6) {
		t.Fatalf("B0 = %v, want 6", v)
	}

	// editing A0 into a formula mid-flight: B0 still reads A0's previous
	// value (5) during the next tick, because the snapshot is taken before
	// any evaluation
	g.SetRaw(a0, "=A0+10")
	tick(e, g)
	if v := cellValue(t, g, "A0"); v != int64(15) {
		t.Errorf("A0 = %v, want 15", v)
	}
	if v := cellValue(t, g, "B0"); v != int64(6) {
		t.Errorf("B0 = %v, want 6 (snapshot of pre-tick A0)", v)
	}

	tick(e, g)
	if v := cellValue(t, g, "B0"); v != int64(16) {
		t.Errorf("B0 after second tick = %v, want 16", v)
	}
}

func TestChainPropagatesOneStepPerTick(t *testing.T) {
	g := NewGrid()
	e := NewEngine()

	g.SetRaw(Coord{Col: 0, Row: 0}, "1")
	g.SetRaw(Coord{Col: 1, Row: 0}, "=A0")
	g.SetRaw(Coord{Col: 2, Row: 0}, "=B0")

	tick(e, g)
	if v := cellValue(t, g, "B0"); v != int64(1) {
		t.Errorf("B0 = %v, want 1", v)
	}
	// C0 read B0's pre-tick value, which was never evaluated: zero
	if v := cellValue(t, g, "C0"); v != int64(0) {
		t.Errorf("C0 = %v, want 0 after first tick", v)
	}

	tick(e, g)
	if v := cellValue(t, g, "C0"); v != int64(1) {
		t.Errorf("C0 = %v, want 1 after second tick", v)
	}
}

func TestSelfReferenceCounter(t *testing.T) {
	g := NewGrid()
	e := NewEngine()
	g.SetRaw(Coord{Col: 0, Row: 0}, "= A0 + 1")

	for i := 1; i <= 5; i++ {
		tick(e, g)
		if v := cellValue(t, g, "A0"); v != int64(i) {
			t.Fatalf("tick %d: A0 = %v, want %d", i, v, i)
		}
	}
}

func TestErrorIsolation(t *testing.T) {
	g := NewGrid()
	e := NewEngine()

	g.SetRaw(Coord{Col: 0, Row: 0}, "=1/0")
	g.SetRaw(Coord{Col: 1, Row: 0}, "=2+2")

	tick(e, g)

	a0, _ := g.Cell(Coord{Col: 0, Row: 0})
	if !a0.Error {
		t.Error("A0 should be flagged as error")
	}
	if a0.Value != int64(0) {
		t.Errorf("A0 value = %v, want 0 on error", a0.Value)
	}

	b0, _ := g.Cell(Coord{Col: 1, Row: 0})
	if b0.Error {
		t.Error("B0 should not be flagged as error")
	}
	if b0.Value != int64(4) {
		t.Errorf("B0 = %v, want 4", b0.Value)
	}
}

func TestErrorClearsWhenFixed(t *testing.T) {
	g := NewGrid()
	e := NewEngine()
	c := Coord{Col: 0, Row: 0}

	g.SetRaw(c, "=1/0")
	tick(e, g)
	cell, _ := g.Cell(c)
	if !cell.Error {
		t.Fatal("expected error flag")
	}

	g.SetRaw(c, "=1/1")
	tick(e, g)
	if cell.Error {
		t.Error("error flag should clear after fix")
	}
	if cell.Value != int64(1) {
		t.Errorf("value = %v, want 1", cell.Value)
	}
}

func TestErroredCellReadsAsZero(t *testing.T) {
	g := NewGrid()
	e := NewEngine()

	g.SetRaw(Coord{Col: 0, Row: 0}, "=1/0")
	g.SetRaw(Coord{Col: 1, Row: 0}, "=A0+1")

	tick(e, g)
	tick(e, g)

	// A0 failed, so its snapshot value is the error placeholder zero
	if v := cellValue(t, g, "B0"); v != int64(1) {
		t.Errorf("B0 = %v, want 1", v)
	}
}

func TestManualTickCoalesces(t *testing.T) {
	g := NewGrid()
	e := NewEngine()
	g.SetRaw(Coord{Col: 0, Row: 0}, "= A0 + 1")

	e.RequestTick()
	e.RequestTick()
	e.RequestTick()

	if !e.Advance(g, 0) {
		t.Fatal("Advance should run the requested tick")
	}
	if e.Advance(g, 0) {
		t.Fatal("repeated requests should coalesce into one tick")
	}
	if v := cellValue(t, g, "A0"); v != int64(1) {
		t.Errorf("A0 = %v, want 1", v)
	}
}

func TestAutoTickDefaultOff(t *testing.T) {
	g := NewGrid()
	e := NewEngine()
	g.SetRaw(Coord{Col: 0, Row: 0}, "= A0 + 1")

	if e.AutoTick() {
		t.Fatal("auto-tick must start disabled")
	}
	if e.Advance(g, time.Second) {
		t.Fatal("a fresh engine must not tick from elapsed time alone")
	}
	if e.TickCount() != 0 {
		t.Errorf("TickCount = %d, want 0", e.TickCount())
	}
}

func TestAutoTickTiming(t *testing.T) {
	g := NewGrid()
	e := NewEngine(WithTickInterval(100 * time.Millisecond))
	e.SetAutoTick(true)
	g.SetRaw(Coord{Col: 0, Row: 0}, "= A0 + 1")

	if e.Advance(g, 50*time.Millisecond) {
		t.Fatal("no tick before a full interval elapsed")
	}
	if !e.Advance(g, 50*time.Millisecond) {
		t.Fatal("tick after a full interval")
	}
	// a long stall still yields only one pass per Advance
	if !e.Advance(g, time.Second) {
		t.Fatal("tick after stall")
	}
	if v := cellValue(t, g, "A0"); v != int64(2) {
		t.Errorf("A0 = %v, want 2", v)
	}

	e.SetAutoTick(false)
	if e.Advance(g, time.Second) {
		t.Fatal("no ticks while auto-tick is disabled")
	}
}

func TestDemoGridEvolution(t *testing.T) {
	g := NewGrid()
	e := NewEngine()
	SetupDemoGrid(g)

	tick(e, g)
	if v := cellValue(t, g, "A0"); v != int64(1) {
		t.Errorf("counter after 1 tick = %v, want 1", v)
	}
	if v := cellValue(t, g, "C2"); v != int64(30) {
		t.Errorf("accumulator = %v, want 30", v)
	}

	tick(e, g)
	tick(e, g)
	// counter at 3; blinker B0 follows A0's previous parity
	if v := cellValue(t, g, "A0"); v != int64(3) {
		t.Errorf("counter after 3 ticks = %v, want 3", v)
	}
	if v := cellValue(t, g, "B0"); v != int64(0) {
		t.Errorf("B0 = %v, want 0 (parity of previous A0=2)", v)
	}
	if v := cellValue(t, g, "B1"); v != int64(1) {
		t.Errorf("B1 = %v, want 1", v)
	}

	// fibonacci chain: after enough ticks the column stabilizes to the
	// sequence 1 1 2 3 5
	for i := 0; i < 5; i++ {
		tick(e, g)
	}
	want := []int64{1, 1, 2, 3, 5}
	for row, w := range want {
		if v := cellValue(t, g, CoordToName(3, row)); v != w {
			t.Errorf("D%d = %v, want %d", row, v, w)
		}
	}
}

func TestFormulaCacheSharing(t *testing.T) {
	g := NewGrid()
	e := NewEngine()

	// many cells, one distinct formula
	for row := 0; row < 20; row++ {
		g.SetRaw(Coord{Col: 1, Row: row}, "=A0+1")
	}
	tick(e, g)
	tick(e, g)

	if n := e.formulas.Len(); n != 1 {
		t.Errorf("formula cache has %d entries, want 1", n)
	}
}

func TestTickCount(t *testing.T) {
	g := NewGrid()
	e := NewEngine()

	tick(e, g)
	tick(e, g)
	if e.TickCount() != 2 {
		t.Errorf("TickCount = %d, want 2", e.TickCount())
	}
}
