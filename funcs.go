package gridtick

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"
)

// incomparable is the compareValues result for operands with no defined
// ordering (mismatched types). Equality tests treat it as "not equal";
// ordering operators treat it as a #VALUE! error.
const incomparable = math.MinInt

// toNumber coerces a value to float64. Booleans coerce (TRUE=1, FALSE=0),
// strings and ranges do not.
func toNumber(v Value) (float64, bool) {
	switch val := v.(type) {
	case int64:
		return float64(val), true
	case float64:
		return val, true
	case bool:
		if val {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

// toString renders a value for concatenation. Unlike FormatValue this keeps
// floats at full precision.
func toString(v Value) string {
	switch val := v.(type) {
	case int64, float64:
		return FormatNumber(val)
	case string:
		return val
	case bool:
		if val {
			return "TRUE"
		}
		return "FALSE"
	case nil:
		return ""
	default:
		return fmt.Sprint(val)
	}
}

// isTruthy implements the boolean coercion used by IF, AND, OR and NOT:
// booleans as themselves, numbers nonzero, strings nonempty.
func isTruthy(v Value) bool {
	switch val := v.(type) {
	case bool:
		return val
	case int64:
		return val != 0
	case float64:
		return val != 0
	case string:
		return val != ""
	default:
		return false
	}
}

// compareValues returns a negative, zero, or positive ordering for two
// values, or incomparable when no ordering exists. Numbers compare
// numerically regardless of int/float representation; strings compare
// lexically; booleans order FALSE < TRUE.
func compareValues(a, b Value) int {
	an, aNum := toPureNumber(a)
	bn, bNum := toPureNumber(b)
	if aNum && bNum {
		switch {
		case an < bn:
			return -1
		case an > bn:
			return 1
		default:
			return 0
		}
	}

	if as, ok := a.(string); ok {
		if bs, ok := b.(string); ok {
			return strings.Compare(as, bs)
		}
	}

	if ab, ok := a.(bool); ok {
		if bb, ok := b.(bool); ok {
			switch {
			case ab == bb:
				return 0
			case bb:
				return -1
			default:
				return 1
			}
		}
	}

	return incomparable
}

// toPureNumber is toNumber without the boolean coercion, so that
// TRUE = 1 does not hold in comparisons.
func toPureNumber(v Value) (float64, bool) {
	switch val := v.(type) {
	case int64:
		return float64(val), true
	case float64:
		return val, true
	default:
		return 0, false
	}
}

// Clock abstracts time for NOW so tests can control it
type Clock interface {
	Now() time.Time
}

// WallClock uses the real system time
type WallClock struct{}

func (WallClock) Now() time.Time {
	return time.Now()
}

// FixedClock always returns the same instant. Used in tests.
type FixedClock struct {
	Time time.Time
}

func (c FixedClock) Now() time.Time {
	return c.Time
}

// RandomGenerator abstracts randomness for RAND so tests can control it
type RandomGenerator interface {
	Float64() float64
}

// DefaultRandomGenerator uses math/rand
type DefaultRandomGenerator struct{}

func (DefaultRandomGenerator) Float64() float64 {
	return rand.Float64()
}

// Builtins dispatches formula function calls by upper-cased name. The zero
// value is not usable; construct with NewBuiltins.
type Builtins struct {
	clock  Clock
	random RandomGenerator
}

// NewBuiltins creates the builtin function library with a wall clock and
// the default random source.
func NewBuiltins() *Builtins {
	return &Builtins{
		clock:  WallClock{},
		random: DefaultRandomGenerator{},
	}
}

// SetClock overrides the time source used by NOW.
func (b *Builtins) SetClock(c Clock) {
	b.clock = c
}

// SetRandomGenerator overrides the random source used by RAND.
func (b *Builtins) SetRandomGenerator(r RandomGenerator) {
	b.random = r
}

// Call invokes the named function. Unknown names are a #NAME? error; wrong
// argument counts or types map to #N/A and #VALUE! respectively.
func (b *Builtins) Call(name string, args ...any) (Value, error) {
	switch strings.ToUpper(name) {
	case "SUM":
		return b.sum(args)
	case "AVERAGE":
		return b.average(args)
	case "COUNT":
		return b.count(args)
	case "MIN":
		return b.minOf(args)
	case "MAX":
		return b.maxOf(args)
	case "IF":
		return b.ifFunc(args)
	case "AND":
		return b.and(args)
	case "OR":
		return b.or(args)
	case "NOT":
		return b.not(args)
	case "ABS":
		return b.numeric1(args, "ABS", func(x float64) float64 { return math.Abs(x) })
	case "ROUND":
		return b.round(args)
	case "FLOOR":
		return b.numeric1(args, "FLOOR", math.Floor)
	case "CEILING":
		return b.numeric1(args, "CEILING", math.Ceil)
	case "SQRT":
		return b.sqrt(args)
	case "MOD":
		return b.mod(args)
	case "POWER":
		return b.power(args)
	case "CONCATENATE":
		return b.concatenate(args)
	case "LEN":
		return b.lenFunc(args)
	case "UPPER":
		return b.text1(args, "UPPER", strings.ToUpper)
	case "LOWER":
		return b.text1(args, "LOWER", strings.ToLower)
	case "TRIM":
		return b.text1(args, "TRIM", strings.TrimSpace)
	case "PI":
		if len(args) != 0 {
			return nil, NewCellError(ErrorCodeNA, "PI takes no arguments")
		}
		return math.Pi, nil
	case "NOW":
		if len(args) != 0 {
			return nil, NewCellError(ErrorCodeNA, "NOW takes no arguments")
		}
		return float64(b.clock.Now().UnixMilli()) / 1000.0, nil
	case "RAND":
		if len(args) != 0 {
			return nil, NewCellError(ErrorCodeNA, "RAND takes no arguments")
		}
		return b.random.Float64(), nil
	default:
		return nil, NewCellError(ErrorCodeName, fmt.Sprintf("unknown function: %s", name))
	}
}

// flattenNumbers collects the numeric values across scalar and range
// arguments. Scalar non-numbers are a #VALUE! error; inside ranges they
// are silently skipped, matching aggregate semantics.
func flattenNumbers(args []any) ([]float64, error) {
	var nums []float64
	for _, arg := range args {
		if rv, ok := arg.(*RangeValue); ok {
			nums = append(nums, rv.Numbers()...)
			continue
		}
		n, ok := toNumber(arg)
		if !ok {
			return nil, NewCellError(ErrorCodeValue, "expected a numeric argument")
		}
		nums = append(nums, n)
	}
	return nums, nil
}

// intsPreserved reports whether every scalar argument and every range
// element is an int64, so integer aggregates can stay integer.
func intsPreserved(args []any) bool {
	for _, arg := range args {
		if rv, ok := arg.(*RangeValue); ok {
			for _, v := range rv.Values() {
				switch v.(type) {
				case int64:
				case float64:
					return false
				}
			}
			continue
		}
		if _, ok := arg.(int64); !ok {
			return false
		}
	}
	return true
}

func (b *Builtins) sum(args []any) (Value, error) {
	nums, err := flattenNumbers(args)
	if err != nil {
		return nil, err
	}
	total := 0.0
	for _, n := range nums {
		total += n
	}
	if intsPreserved(args) {
		return int64(total), nil
	}
	return total, nil
}

func (b *Builtins) average(args []any) (Value, error) {
	nums, err := flattenNumbers(args)
	if err != nil {
		return nil, err
	}
	if len(nums) == 0 {
		return nil, NewCellError(ErrorCodeDiv0, "AVERAGE of no values")
	}
	total := 0.0
	for _, n := range nums {
		total += n
	}
	return total / float64(len(nums)), nil
}

// count tallies numeric values, ignoring strings and booleans in ranges
func (b *Builtins) count(args []any) (Value, error) {
	count := int64(0)
	for _, arg := range args {
		if rv, ok := arg.(*RangeValue); ok {
			count += int64(len(rv.Numbers()))
			continue
		}
		if _, ok := toPureNumber(arg); ok {
			count++
		}
	}
	return count, nil
}

func (b *Builtins) minOf(args []any) (Value, error) {
	nums, err := flattenNumbers(args)
	if err != nil {
		return nil, err
	}
	if len(nums) == 0 {
		return nil, NewCellError(ErrorCodeNA, "MIN of no values")
	}
	best := nums[0]
	for _, n := range nums[1:] {
		best = math.Min(best, n)
	}
	if intsPreserved(args) {
		return int64(best), nil
	}
	return best, nil
}

func (b *Builtins) maxOf(args []any) (Value, error) {
	nums, err := flattenNumbers(args)
	if err != nil {
		return nil, err
	}
	if len(nums) == 0 {
		return nil, NewCellError(ErrorCodeNA, "MAX of no values")
	}
	best := nums[0]
	for _, n := range nums[1:] {
		best = math.Max(best, n)
	}
	if intsPreserved(args) {
		return int64(best), nil
	}
	return best, nil
}

func (b *Builtins) ifFunc(args []any) (Value, error) {
	if len(args) < 2 || len(args) > 3 {
		return nil, NewCellError(ErrorCodeNA, "IF requires 2 or 3 arguments")
	}
	if isTruthy(args[0]) {
		return args[1], nil
	}
	if len(args) == 3 {
		return args[2], nil
	}
	return false, nil
}

func (b *Builtins) and(args []any) (Value, error) {
	if len(args) == 0 {
		return nil, NewCellError(ErrorCodeNA, "AND requires at least 1 argument")
	}
	for _, arg := range args {
		if !isTruthy(arg) {
			return false, nil
		}
	}
	return true, nil
}

func (b *Builtins) or(args []any) (Value, error) {
	if len(args) == 0 {
		return nil, NewCellError(ErrorCodeNA, "OR requires at least 1 argument")
	}
	for _, arg := range args {
		if isTruthy(arg) {
			return true, nil
		}
	}
	return false, nil
}

func (b *Builtins) not(args []any) (Value, error) {
	if len(args) != 1 {
		return nil, NewCellError(ErrorCodeNA, "NOT requires exactly 1 argument")
	}
	return !isTruthy(args[0]), nil
}

// numeric1 wraps single-argument float functions, keeping int64 inputs
// integer when the result is integral (ABS, FLOOR, CEILING of an int are
// the int itself).
func (b *Builtins) numeric1(args []any, name string, fn func(float64) float64) (Value, error) {
	if len(args) != 1 {
		return nil, NewCellError(ErrorCodeNA, name+" requires exactly 1 argument")
	}
	if i, ok := args[0].(int64); ok {
		result := fn(float64(i))
		return int64(result), nil
	}
	n, ok := toNumber(args[0])
	if !ok {
		return nil, NewCellError(ErrorCodeValue, name+" requires a numeric argument")
	}
	return fn(n), nil
}

func (b *Builtins) round(args []any) (Value, error) {
	if len(args) < 1 || len(args) > 2 {
		return nil, NewCellError(ErrorCodeNA, "ROUND requires 1 or 2 arguments")
	}
	n, ok := toNumber(args[0])
	if !ok {
		return nil, NewCellError(ErrorCodeValue, "ROUND requires a numeric argument")
	}
	digits := 0.0
	if len(args) == 2 {
		d, ok := toNumber(args[1])
		if !ok {
			return nil, NewCellError(ErrorCodeValue, "ROUND digits must be numeric")
		}
		digits = d
	}
	scale := math.Pow(10, math.Trunc(digits))
	result := math.Round(n*scale) / scale
	if digits <= 0 {
		return int64(result), nil
	}
	return result, nil
}

func (b *Builtins) sqrt(args []any) (Value, error) {
	if len(args) != 1 {
		return nil, NewCellError(ErrorCodeNA, "SQRT requires exactly 1 argument")
	}
	n, ok := toNumber(args[0])
	if !ok {
		return nil, NewCellError(ErrorCodeValue, "SQRT requires a numeric argument")
	}
	if n < 0 {
		return nil, NewCellError(ErrorCodeNum, "SQRT of a negative number")
	}
	return math.Sqrt(n), nil
}

func (b *Builtins) mod(args []any) (Value, error) {
	if len(args) != 2 {
		return nil, NewCellError(ErrorCodeNA, "MOD requires exactly 2 arguments")
	}
	return evalArith(args[0], args[1], BinOpModulo)
}

func (b *Builtins) power(args []any) (Value, error) {
	if len(args) != 2 {
		return nil, NewCellError(ErrorCodeNA, "POWER requires exactly 2 arguments")
	}
	base, ok := toNumber(args[0])
	if !ok {
		return nil, NewCellError(ErrorCodeValue, "POWER requires numeric arguments")
	}
	exp, ok := toNumber(args[1])
	if !ok {
		return nil, NewCellError(ErrorCodeValue, "POWER requires numeric arguments")
	}
	return math.Pow(base, exp), nil
}

func (b *Builtins) concatenate(args []any) (Value, error) {
	var sb strings.Builder
	for _, arg := range args {
		if rv, ok := arg.(*RangeValue); ok {
			for _, v := range rv.Values() {
				sb.WriteString(toString(v))
			}
			continue
		}
		sb.WriteString(toString(arg))
	}
	return sb.String(), nil
}

func (b *Builtins) lenFunc(args []any) (Value, error) {
	if len(args) != 1 {
		return nil, NewCellError(ErrorCodeNA, "LEN requires exactly 1 argument")
	}
	return int64(len(toString(args[0]))), nil
}

func (b *Builtins) text1(args []any, name string, fn func(string) string) (Value, error) {
	if len(args) != 1 {
		return nil, NewCellError(ErrorCodeNA, name+" requires exactly 1 argument")
	}
	return fn(toString(args[0])), nil
}
