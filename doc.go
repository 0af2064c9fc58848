// Package gridtick implements an interactive cell grid with tick-driven
// formula recomputation and an asynchronous, content-addressed render cache.
//
// Cells hold raw source text. Text beginning with '=' is a formula over other
// cells, addressed by spreadsheet-style names (A0, B7, AA12). Evaluation is
// simultaneous-update: each tick takes a snapshot of every cell's current
// value, then recomputes every cell against that snapshot. Formula chains
// therefore propagate one step per tick, which is what makes self-referencing
// formulas like "= A0 + 1" behave as counters.
//
// Rich cell content is described as a small SVG subset and rasterized off the
// caller's goroutine by a RenderService, which deduplicates in-flight work per
// coordinate and caches finished pixel buffers by content hash.
package gridtick
