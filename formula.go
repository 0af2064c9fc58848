package gridtick

// FormulaCache interns parsed formula ASTs keyed by trimmed source text.
// Cells that share a formula string share one AST, and unchanged formulas
// are never re-parsed across ticks. Parse failures are cached too, so a
// broken formula costs one parse, not one per tick.
type FormulaCache struct {
	entries map[string]formulaEntry
}

type formulaEntry struct {
	node ASTNode
	err  error
}

// NewFormulaCache creates an empty formula cache.
func NewFormulaCache() *FormulaCache {
	return &FormulaCache{entries: make(map[string]formulaEntry)}
}

// Get returns the AST for a formula source string (including the '='
// prefix), parsing and caching on first sight.
func (fc *FormulaCache) Get(src string) (ASTNode, error) {
	if entry, ok := fc.entries[src]; ok {
		return entry.node, entry.err
	}
	node, err := ParseFormula(src)
	fc.entries[src] = formulaEntry{node: node, err: err}
	return node, err
}

// Len returns the number of distinct cached formula sources.
func (fc *FormulaCache) Len() int {
	return len(fc.entries)
}

// Clear drops all cached ASTs.
func (fc *FormulaCache) Clear() {
	clear(fc.entries)
}
