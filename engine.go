package gridtick

import (
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// DefaultTickInterval is how often the engine fires when auto-tick is on.
const DefaultTickInterval = 100 * time.Millisecond

// EvalContext is the immutable snapshot a single tick evaluates against.
// It is built from the grid before any cell is written, so every formula in
// the tick observes the same pre-tick world regardless of evaluation order.
type EvalContext struct {
	vars  map[Coord]Value
	funcs *Builtins
}

// NewEvalContext creates a context over an explicit variable set. The
// engine builds these per tick; tests build them directly.
func NewEvalContext(vars map[Coord]Value, funcs *Builtins) *EvalContext {
	if vars == nil {
		vars = make(map[Coord]Value)
	}
	return &EvalContext{vars: vars, funcs: funcs}
}

// Lookup returns the snapshot value at c. Coordinates that were never
// written, or whose cells had no value yet, read as integer zero.
func (ctx *EvalContext) Lookup(c Coord) Value {
	if v, ok := ctx.vars[c]; ok && v != nil {
		return v
	}
	return int64(0)
}

// LookupPresent returns the snapshot value at c and whether the cell was
// present with a value. Range evaluation uses this to skip absent cells
// instead of reading them as zero.
func (ctx *EvalContext) LookupPresent(c Coord) (Value, bool) {
	v, ok := ctx.vars[c]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// Engine drives grid recomputation. Ticks fire either manually via
// RequestTick or on a repeating timer controlled by SetAutoTick; Advance
// folds both sources into at most one evaluation pass per call.
//
// Engine is not safe for concurrent use; like Grid it belongs to the
// control-loop goroutine.
type Engine struct {
	funcs    *Builtins
	formulas *FormulaCache

	interval  time.Duration
	autoTick  bool
	manual    bool
	elapsed   time.Duration
	tickCount uint64
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithTickInterval sets the auto-tick period. Non-positive values keep
// the default.
func WithTickInterval(d time.Duration) EngineOption {
	return func(e *Engine) {
		if d > 0 {
			e.interval = d
		}
	}
}

// WithBuiltins substitutes the builtin function library, letting callers
// inject deterministic clocks and random sources.
func WithBuiltins(b *Builtins) EngineOption {
	return func(e *Engine) {
		if b != nil {
			e.funcs = b
		}
	}
}

// NewEngine creates an engine. Auto-tick starts disabled; until
// SetAutoTick(true), only RequestTick causes evaluation.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		funcs:    NewBuiltins(),
		formulas: NewFormulaCache(),
		interval: DefaultTickInterval,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RequestTick schedules exactly one evaluation pass for the next Advance,
// regardless of the auto-tick setting. Repeated requests before that
// Advance coalesce into one pass.
func (e *Engine) RequestTick() {
	e.manual = true
}

// SetAutoTick enables or disables the repeating timer. Disabling resets
// the accumulated interval so re-enabling starts a fresh period.
func (e *Engine) SetAutoTick(enabled bool) {
	e.autoTick = enabled
	if !enabled {
		e.elapsed = 0
	}
}

// AutoTick reports whether the repeating timer is enabled.
func (e *Engine) AutoTick() bool {
	return e.autoTick
}

// TickCount returns the number of evaluation passes run so far.
func (e *Engine) TickCount() uint64 {
	return e.tickCount
}

// Advance moves engine time forward by dt and runs at most one evaluation
// pass on the grid. A pending manual request fires first; otherwise the
// auto timer fires when a full interval has accumulated. Returns whether
// a pass ran.
func (e *Engine) Advance(g *Grid, dt time.Duration) bool {
	if e.manual {
		e.manual = false
		e.EvaluateTick(g)
		return true
	}

	if !e.autoTick {
		return false
	}

	e.elapsed += dt
	if e.elapsed < e.interval {
		return false
	}
	// one pass per call even if several intervals elapsed; a stalled
	// caller should not trigger a burst of catch-up ticks
	e.elapsed %= e.interval
	e.EvaluateTick(g)
	return true
}

// EvaluateTick runs one full recomputation pass over the grid using
// simultaneous-update semantics: a snapshot of every cell's current value
// is taken first, then every formula is evaluated against that snapshot,
// then results are written back. A cell reading another formula cell sees
// its value from the previous tick, so chains propagate one step per tick
// and self-references are well-defined.
func (e *Engine) EvaluateTick(g *Grid) {
	ctx := e.buildContext(g)

	type result struct {
		value Value
		err   *CellError
	}
	results := make(map[Coord]result, g.Len())

	g.Each(func(c Coord, cell *Cell) {
		if !cell.IsFormula {
			results[c] = result{value: literalValue(cell.Raw)}
			return
		}
		v, err := e.evalFormula(cell.Raw, ctx)
		if err != nil {
			cellErr, ok := err.(*CellError)
			if !ok {
				cellErr = NewCellError(ErrorCodeValue, err.Error())
			}
			Logger().Debug("formula evaluation failed",
				slog.String("cell", c.String()),
				slog.String("error", cellErr.Error()))
			results[c] = result{err: cellErr}
			return
		}
		results[c] = result{value: v}
	})

	// write-back phase: no formula ran after this point, so ordering is
	// irrelevant
	g.Each(func(c Coord, cell *Cell) {
		r := results[c]
		if r.err != nil {
			cell.Error = true
			cell.Value = int64(0)
			return
		}
		cell.Error = false
		cell.Value = r.value
	})

	e.tickCount++
}

// buildContext snapshots every cell's current value. Literal cells
// contribute their parsed literal (so a freshly edited literal is visible
// to formulas in the same tick it first evaluates); formula cells
// contribute their previous tick's value.
func (e *Engine) buildContext(g *Grid) *EvalContext {
	vars := make(map[Coord]Value, g.Len())
	g.Each(func(c Coord, cell *Cell) {
		if cell.IsFormula {
			if cell.Value != nil {
				vars[c] = cell.Value
			}
			return
		}
		vars[c] = literalValue(cell.Raw)
	})
	return NewEvalContext(vars, e.funcs)
}

// evalFormula parses (through the cache) and evaluates one formula source.
func (e *Engine) evalFormula(raw string, ctx *EvalContext) (Value, error) {
	node, err := e.formulas.Get(strings.TrimSpace(raw))
	if err != nil {
		return nil, err
	}
	return node.Eval(ctx)
}

// literalValue interprets non-formula source text: integer if it parses as
// one, else float, else the raw text unchanged. Empty text is the empty
// string.
func literalValue(raw string) Value {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	if i, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return f
	}
	return raw
}
