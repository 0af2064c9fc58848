package gridtick

import "strconv"

// SetupDemoGrid seeds a grid with the standard demo patterns: a counter
// that increments itself every tick, a two-cell blinker driven by the
// counter's parity, a static accumulator sum, a Fibonacci column that
// advances one step per tick, and a block of digit literals.
func SetupDemoGrid(g *Grid) {
	// counter: self-reference reads last tick's value
	g.SetRaw(Coord{Col: 0, Row: 0}, "= A0 + 1")

	// blinker: the two cells alternate each tick
	g.SetRaw(Coord{Col: 1, Row: 0}, "= A0 % 2")
	g.SetRaw(Coord{Col: 1, Row: 1}, "= (A0 + 1) % 2")

	// accumulator: literals plus their sum
	g.SetRaw(Coord{Col: 2, Row: 0}, "10")
	g.SetRaw(Coord{Col: 2, Row: 1}, "20")
	g.SetRaw(Coord{Col: 2, Row: 2}, "= C0 + C1")

	// fibonacci: each tick shifts the sequence one step down the chain
	g.SetRaw(Coord{Col: 3, Row: 0}, "1")
	g.SetRaw(Coord{Col: 3, Row: 1}, "1")
	g.SetRaw(Coord{Col: 3, Row: 2}, "= D0 + D1")
	g.SetRaw(Coord{Col: 3, Row: 3}, "= D1 + D2")
	g.SetRaw(Coord{Col: 3, Row: 4}, "= D2 + D3")

	// digits: a 5x2 block of literals
	for i := 0; i < 10; i++ {
		g.SetRaw(Coord{Col: i % 5, Row: 5 + i/5}, strconv.Itoa(i))
	}
}
