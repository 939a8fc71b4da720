package cycles

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// DefaultFrequencyHz is the NIC timestamp counter clock (250 MHz).
const DefaultFrequencyHz = 250e6

// ConversionError reports a cycle value that is not an integer.
type ConversionError struct {
	Value interface{}
	Err   error
}

func (e *ConversionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid literal for cycle count %q: %v", fmt.Sprint(e.Value), e.Err)
	}
	return fmt.Sprintf("invalid literal for cycle count %q", fmt.Sprint(e.Value))
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}

// Converter turns counter values into microseconds at a fixed clock.
type Converter struct {
	FrequencyHz float64
}

func NewConverter(frequencyHz float64) (Converter, error) {
	if frequencyHz <= 0 || math.IsNaN(frequencyHz) || math.IsInf(frequencyHz, 0) {
		return Converter{}, fmt.Errorf("clock frequency must be a positive finite number, got %v", frequencyHz)
	}
	return Converter{FrequencyHz: frequencyHz}, nil
}

// Micros converts a cycle count or a cycle difference. Negative inputs give
// negative outputs.
func (c Converter) Micros(cycles int64) float64 {
	return 1e6 / c.FrequencyHz * float64(cycles)
}

// Delta converts end-start into microseconds.
func (c Converter) Delta(start, end int64) float64 {
	return c.Micros(end - start)
}

// Convert accepts any integer type, an integral float64, or the decimal
// string form of an integer.
func (c Converter) Convert(v interface{}) (float64, error) {
	n, err := ToCount(v)
	if err != nil {
		return 0, err
	}
	return c.Micros(n), nil
}

// ToCount normalises a raw cell value to a cycle count.
func ToCount(v interface{}) (int64, error) {
	switch x := v.(type) {
	case int:
		return int64(x), nil
	case int8:
		return int64(x), nil
	case int16:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case int64:
		return x, nil
	case uint:
		return uintToCount(uint64(x), v)
	case uint8:
		return int64(x), nil
	case uint16:
		return int64(x), nil
	case uint32:
		return int64(x), nil
	case uint64:
		return uintToCount(x, v)
	case float64:
		if x != math.Trunc(x) || math.IsInf(x, 0) || math.IsNaN(x) || math.Abs(x) > math.MaxInt64 {
			return 0, &ConversionError{Value: v, Err: fmt.Errorf("not an integral value")}
		}
		return int64(x), nil
	case string:
		return ParseCount(x)
	default:
		return 0, &ConversionError{Value: v, Err: fmt.Errorf("unsupported type %T", v)}
	}
}

func uintToCount(x uint64, raw interface{}) (int64, error) {
	if x > math.MaxInt64 {
		return 0, &ConversionError{Value: raw, Err: strconv.ErrRange}
	}
	return int64(x), nil
}

// ParseCount parses a base-10 integer cycle count.
func ParseCount(s string) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, &ConversionError{Value: s, Err: err}
	}
	return n, nil
}
