// Package frame provides a small column-oriented table used to shape API
// rows before persistence, plus epoch-timestamp normalization into a
// fixed-offset timezone.
package frame

import (
	"fmt"
	"math"
	"time"
)

// Unit is the unit of an epoch-tick column.
type Unit string

const (
	Seconds      Unit = "s"
	Milliseconds Unit = "ms"
	Nanoseconds  Unit = "ns"
)

// UTC8 is the fixed-offset zone normalized timestamps are expressed in:
// a constant +8 hours from UTC with no daylight saving.
var UTC8 = time.FixedZone("UTC+8", 8*60*60)

// Frame is an ordered collection of named columns of equal length.
type Frame struct {
	cols []string
	data map[string][]any
}

// New creates an empty Frame with the given column order.
func New(columns ...string) *Frame {
	data := make(map[string][]any, len(columns))
	for _, c := range columns {
		data[c] = nil
	}
	return &Frame{
		cols: append([]string(nil), columns...),
		data: data,
	}
}

// Columns returns the column names in order.
func (f *Frame) Columns() []string {
	return append([]string(nil), f.cols...)
}

// Len returns the number of rows.
func (f *Frame) Len() int {
	if len(f.cols) == 0 {
		return 0
	}
	return len(f.data[f.cols[0]])
}

// AppendRow appends one row. The value count must match the column count.
func (f *Frame) AppendRow(values ...any) error {
	if len(values) != len(f.cols) {
		return fmt.Errorf("row has %d values, frame has %d columns", len(values), len(f.cols))
	}
	for i, c := range f.cols {
		f.data[c] = append(f.data[c], values[i])
	}
	return nil
}

// Column returns a copy of the named column's values, or false if the
// column does not exist.
func (f *Frame) Column(name string) ([]any, bool) {
	vals, ok := f.data[name]
	if !ok {
		return nil, false
	}
	return append([]any(nil), vals...), true
}

// WithColumn returns a new Frame identical to f except that the named
// column holds values. The column must exist and values must match the
// row count; everything else, including row order, is untouched.
func (f *Frame) WithColumn(name string, values []any) (*Frame, error) {
	if _, ok := f.data[name]; !ok {
		return nil, fmt.Errorf("frame has no column %q", name)
	}
	if len(values) != f.Len() {
		return nil, fmt.Errorf("column %q has %d values, frame has %d rows", name, len(values), f.Len())
	}

	data := make(map[string][]any, len(f.cols))
	for _, c := range f.cols {
		if c == name {
			data[c] = append([]any(nil), values...)
		} else {
			data[c] = append([]any(nil), f.data[c]...)
		}
	}
	return &Frame{cols: append([]string(nil), f.cols...), data: data}, nil
}

// NormalizeTimestamps rewrites an epoch-tick column into timezone-aware
// time.Time values in the fixed UTC+8 zone. A missing column is not an
// error: the input frame comes back unchanged. A value that cannot be
// read as an integer tick is.
func NormalizeTimestamps(f *Frame, column string, unit Unit) (*Frame, error) {
	vals, ok := f.Column(column)
	if !ok {
		return f, nil
	}

	out := make([]any, len(vals))
	for i, v := range vals {
		tick, err := epochTick(v)
		if err != nil {
			return nil, fmt.Errorf("column %q row %d: %w", column, i, err)
		}
		t, err := tickTime(tick, unit)
		if err != nil {
			return nil, err
		}
		out[i] = t.In(UTC8)
	}
	return f.WithColumn(column, out)
}

// epochTick reads v as an integer epoch tick. JSON decoding hands over
// float64, so integral floats are accepted.
func epochTick(v any) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case uint:
		return int64(n), nil
	case uint32:
		return int64(n), nil
	case uint64:
		return int64(n), nil
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("value %v is not an integer epoch tick", n)
		}
		return int64(n), nil
	default:
		return 0, fmt.Errorf("value %v (%T) is not an integer epoch tick", v, v)
	}
}

func tickTime(tick int64, unit Unit) (time.Time, error) {
	switch unit {
	case Seconds:
		return time.Unix(tick, 0), nil
	case Milliseconds:
		return time.UnixMilli(tick), nil
	case Nanoseconds:
		return time.Unix(0, tick), nil
	default:
		return time.Time{}, fmt.Errorf("unsupported epoch unit %q", unit)
	}
}
