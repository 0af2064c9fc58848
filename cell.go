package gridtick

import (
	"fmt"
	"strconv"
	"strings"
)

// Value represents a computed cell value.
// types:
//   - int64: integer values
//   - float64: floating-point values
//   - string: text values
//   - bool: boolean values (TRUE/FALSE)
//   - nil: empty/never-evaluated cells
type Value any

// ValueKind identifies the dynamic type of a Value for exhaustive matching
// at display and packing sites.
type ValueKind uint8

const (
	KindEmpty ValueKind = iota
	KindInt
	KindFloat
	KindString
	KindBool
)

// KindOf returns the ValueKind of v.
func KindOf(v Value) ValueKind {
	switch v.(type) {
	case int64:
		return KindInt
	case float64:
		return KindFloat
	case string:
		return KindString
	case bool:
		return KindBool
	default:
		return KindEmpty
	}
}

// FormatValue renders a value the way the grid displays it: integers plain,
// floats with two decimals, booleans as true/false, empty as "".
func FormatValue(v Value) string {
	switch val := v.(type) {
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return fmt.Sprintf("%.2f", val)
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// ErrorCode represents evaluation error codes following Excel conventions
type ErrorCode uint8

const (
	ErrorCodeDiv0  ErrorCode = 1 // #DIV/0! - division or modulo by zero
	ErrorCodeValue ErrorCode = 2 // #VALUE! - wrong type of argument or operand
	ErrorCodeRef   ErrorCode = 3 // #REF! - invalid cell reference
	ErrorCodeName  ErrorCode = 4 // #NAME? - unrecognized function or identifier
	ErrorCodeNum   ErrorCode = 5 // #NUM! - number out of range
	ErrorCodeNA    ErrorCode = 6 // #N/A - not enough arguments for function
	ErrorCodeParse ErrorCode = 7 // #ERROR! - formula does not parse
)

// ErrorMapper maps error codes to their display representations
var ErrorMapper = map[ErrorCode]string{
	ErrorCodeDiv0:  "#DIV/0!",
	ErrorCodeValue: "#VALUE!",
	ErrorCodeRef:   "#REF!",
	ErrorCodeName:  "#NAME?",
	ErrorCodeNum:   "#NUM!",
	ErrorCodeNA:    "#N/A",
	ErrorCodeParse: "#ERROR!",
}

// CellError is an evaluation failure local to one cell. It preserves the
// error code for display; it never aborts a tick.
type CellError struct {
	Code    ErrorCode
	Message string
}

func (e *CellError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return ErrorMapper[e.Code]
}

func NewCellError(code ErrorCode, message string) *CellError {
	if message == "" {
		message = ErrorMapper[code]
	}
	return &CellError{
		Code:    code,
		Message: message,
	}
}

// Cell is a single grid entry: raw source text plus the state derived from it.
type Cell struct {
	// Raw is the source text: "= A0 + B0" or "100". Mutate only via SetRaw.
	Raw string
	// Value is the result of the most recent evaluation tick.
	Value Value
	// IsFormula is true iff Raw, after trimming leading whitespace, starts
	// with '='. Always derived from Raw, never set independently.
	IsFormula bool
	// Error is true iff the most recent evaluation of this cell failed.
	Error bool
	// ContentHash identifies the cell's current rich-content payload for the
	// render cache. Zero means no rich content.
	ContentHash uint64
}

// NewCell creates a cell from raw source text.
func NewCell(raw string) *Cell {
	return &Cell{
		Raw:       raw,
		IsFormula: isFormulaText(raw),
	}
}

// SetRaw replaces the cell's source text, rederives the formula flag, and
// clears any previous error.
func (c *Cell) SetRaw(raw string) {
	c.Raw = raw
	c.IsFormula = isFormulaText(raw)
	c.Error = false
}

func isFormulaText(raw string) bool {
	return strings.HasPrefix(strings.TrimLeft(raw, " \t\n\r"), "=")
}
