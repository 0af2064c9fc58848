package gridtick

import "strings"

// RangeValue is the result of evaluating a range reference like A0:B4. It
// holds the values of the cells that were actually present in the tick
// snapshot, in row-major order; absent cells contribute nothing. A RangeValue
// is only meaningful as a function argument — using one as an operand of an
// arithmetic or comparison operator is a #VALUE! error.
type RangeValue struct {
	values []Value
}

// NewRangeValue builds a range over the given values. Used by tests and
// by functions that synthesize ranges.
func NewRangeValue(values []Value) *RangeValue {
	return &RangeValue{values: values}
}

// Values returns the collected cell values in row-major order.
func (r *RangeValue) Values() []Value {
	return r.values
}

// Len returns the number of present cells in the range.
func (r *RangeValue) Len() int {
	return len(r.values)
}

// Numbers returns the numeric values in the range, skipping strings and
// booleans the way aggregate functions do.
func (r *RangeValue) Numbers() []float64 {
	nums := make([]float64, 0, len(r.values))
	for _, v := range r.values {
		switch n := v.(type) {
		case int64:
			nums = append(nums, float64(n))
		case float64:
			nums = append(nums, n)
		}
	}
	return nums
}

func (r *RangeValue) String() string {
	parts := make([]string, len(r.values))
	for i, v := range r.values {
		parts[i] = FormatValue(v)
	}
	return "[" + strings.Join(parts, ",") + "]"
}
