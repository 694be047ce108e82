package tables

import (
	"strconv"
	"strings"
	"time"
)

// Null is the canonical null cell value.
const Null = ""

// nullMarkers are the explicit null spellings editors and exporters produce.
// Matching is exact after whitespace trimming; lowercase "na" stays a value.
var nullMarkers = map[string]struct{}{
	"NA":   {},
	"N/A":  {},
	"NaN":  {},
	"nan":  {},
	"null": {},
	"NULL": {},
}

// Normalize trims surrounding whitespace and maps explicit null markers to
// the canonical null. All value comparisons in grouping and reconciliation
// run on normalized values.
func Normalize(v string) string {
	v = strings.TrimSpace(v)
	if _, ok := nullMarkers[v]; ok {
		return Null
	}
	return v
}

// IsNull reports whether the value normalizes to null.
func IsNull(v string) bool {
	return Normalize(v) == Null
}

// EqualValues reports whether two cell values are equal after normalization.
// Two nulls are equal regardless of spelling.
func EqualValues(a, b string) bool {
	return Normalize(a) == Normalize(b)
}

// Kind is the apparent scalar kind of a cell value or column.
type Kind int

// Value kinds, from most to least specific.
const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindTime
	KindString
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindTime:
		return "time"
	case KindString:
		return "string"
	default:
		return "unknown"
	}
}

// timeLayouts are the timestamp shapes the store emits.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// KindOf infers the apparent kind of a single value.
func KindOf(v string) Kind {
	v = Normalize(v)
	if v == Null {
		return KindNull
	}
	switch strings.ToLower(v) {
	case "true", "false":
		return KindBool
	}
	if _, err := strconv.ParseInt(v, 10, 64); err == nil {
		return KindInt
	}
	if _, err := strconv.ParseFloat(v, 64); err == nil {
		return KindFloat
	}
	for _, layout := range timeLayouts {
		if _, err := time.Parse(layout, v); err == nil {
			return KindTime
		}
	}
	return KindString
}

// ColumnKind infers the dominant kind of a column from its non-null cells.
// A pure int/float mix reads as float; any other mix reads as string; a
// column with no non-null cells reads as null.
func (t *Table) ColumnKind(column string) Kind {
	if !t.HasColumn(column) {
		return KindNull
	}
	kind := KindNull
	for _, row := range t.rows {
		k := KindOf(row[column])
		if k == KindNull {
			continue
		}
		switch {
		case kind == KindNull:
			kind = k
		case kind == k:
		case numeric(kind) && numeric(k):
			kind = KindFloat
		default:
			return KindString
		}
	}
	return kind
}

// Compatible reports whether a value of the given kind can live in a column
// of the given kind without a type coercion. Null values and string columns
// accept anything; the numeric kinds accept each other.
func Compatible(column, value Kind) bool {
	switch {
	case value == KindNull:
		return true
	case column == KindNull || column == KindString:
		return true
	case column == value:
		return true
	case numeric(column) && numeric(value):
		return true
	}
	return false
}

func numeric(k Kind) bool {
	return k == KindInt || k == KindFloat
}
