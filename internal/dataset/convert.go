package dataset

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Column value types inferred by InferColumnType.
const (
	TypeNumeric = "numeric"
	TypeDate    = "date"
	TypeText    = "text"
)

// IsNull reports whether a cell value is the null marker.
func IsNull(v any) bool {
	return v == nil
}

// ToFloat64 coerces a cell value to float64.
// Strings are trimmed and parsed; nulls and unparsable values return false.
func ToFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case int16:
		return float64(n), true
	case int8:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint8:
		return float64(n), true
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// ToString coerces a cell value to its string form.
// Returns false only for nulls.
func ToString(v any) (string, bool) {
	if v == nil {
		return "", false
	}
	if s, ok := v.(string); ok {
		return s, true
	}
	return fmt.Sprintf("%v", v), true
}

// RowSignature builds a comparable encoding of a full row for duplicate
// detection. Nulls stay distinct from empty strings.
func RowSignature(row []any) string {
	var b strings.Builder
	for i, v := range row {
		if i > 0 {
			b.WriteByte(0x1f)
		}
		if IsNull(v) {
			b.WriteByte(0x00)
			continue
		}
		s, _ := ToString(v)
		b.WriteString(s)
	}
	return b.String()
}

// Percentage returns part of total as a percentage rounded to two decimals.
// A zero total yields 0.
func Percentage(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(part)/float64(total)*100*100) / 100
}

// InferColumnType classifies a column's values as numeric, date, or text.
// A column is numeric when every non-null value coerces to a number, date
// when every non-null value parses as a date, otherwise text. Columns with
// no non-null values are text.
func InferColumnType(values []any) string {
	nonNull := 0
	numeric := true
	date := true

	for _, v := range values {
		if IsNull(v) {
			continue
		}
		nonNull++
		if _, ok := ToFloat64(v); !ok {
			numeric = false
		}
		s, _ := ToString(v)
		if _, ok := ParseDate(s); !ok {
			date = false
		}
		if !numeric && !date {
			return TypeText
		}
	}

	switch {
	case nonNull == 0:
		return TypeText
	case numeric:
		return TypeNumeric
	case date:
		return TypeDate
	default:
		return TypeText
	}
}
