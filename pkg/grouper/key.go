package grouper

import (
	"strconv"
	"strings"

	"github.com/redlinedata/redline/pkg/constants"
	"github.com/redlinedata/redline/pkg/errors"
	"github.com/redlinedata/redline/pkg/tables"
)

// Key returns the membership key of a record over the grouping columns:
// each value normalized, quoted, and joined in column order. Quoting keeps
// the key injective for values containing the join character; nulls
// normalize to the empty string, so missing values form one equality class
// per column.
func Key(rec tables.Record, columns []string) string {
	parts := make([]string, len(columns))
	for i, c := range columns {
		parts[i] = strconv.Quote(tables.Normalize(rec[c]))
	}
	return strings.Join(parts, ",")
}

// Membership returns the indices of rows in t whose grouping-column values
// match the representative record. Membership is derived from values on
// every call; row positions are never cached across loads.
func Membership(t *tables.Table, rep tables.Record, columns []string) []int {
	want := Key(rep, columns)
	var members []int
	for i := 0; i < t.Len(); i++ {
		if Key(t.Row(i), columns) == want {
			members = append(members, i)
		}
	}
	return members
}

// JoinColumns serializes grouping column names into the groups cell value.
func JoinColumns(columns []string) string {
	return strings.Join(columns, ", ")
}

// ParseGroups splits a groups cell back into the grouping column names.
func ParseGroups(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// GroupID parses the group id cell of a grouped record.
func GroupID(rec tables.Record) (int, error) {
	raw := strings.TrimSpace(rec[constants.GroupIDColumn])
	id, err := strconv.Atoi(raw)
	if err != nil || id < 0 {
		return 0, errors.NewValidationError(constants.GroupIDColumn, raw, "not a non-negative integer")
	}
	return id, nil
}
