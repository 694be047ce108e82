package query

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/redlinedata/redline/internal/store"
	"github.com/redlinedata/redline/pkg/constants"
	"github.com/redlinedata/redline/pkg/tables"
)

// baseColumns is the fixed leading column order of a query table. Extra
// columns discovered in file metadata follow, sorted by name.
var baseColumns = []string{
	"project.id", "project.label",
	"subject.id", "subject.label", "subject.sex",
	"session.id", "session.label",
	"acquisition.id", "acquisition.label",
	"filename", "type", "modality",
}

// flatten turns one acquisition into records, one per file. An acquisition
// without files yields a single record with null file columns.
func flatten(p *store.Project, s *store.Subject, ses *store.Session, a *store.Acquisition) []tables.Record {
	base := tables.Record{
		"project.id":        p.ID,
		"project.label":     p.Label,
		"subject.id":        s.ID,
		"subject.label":     s.Label,
		"subject.sex":       s.Sex,
		"session.id":        ses.ID,
		"session.label":     ses.Label,
		"acquisition.id":    a.ID,
		"acquisition.label": a.Label,
	}
	if s.Species != "" {
		base["subject.species"] = s.Species
	}
	if ses.Age != nil {
		base["session.age"] = scalar(*ses.Age)
	}
	if ses.Weight != nil {
		base["session.weight"] = scalar(*ses.Weight)
	}
	if ses.Timestamp != nil {
		base["session.timestamp"] = ses.Timestamp.Format(constants.TimeFormatISO8601)
	}
	if a.Timestamp != nil {
		base["acquisition.timestamp"] = a.Timestamp.Format(constants.TimeFormatISO8601)
	}

	if len(a.Files) == 0 {
		return []tables.Record{base}
	}

	records := make([]tables.Record, 0, len(a.Files))
	for i := range a.Files {
		f := &a.Files[i]
		rec := base.Clone()
		rec["filename"] = f.Name
		rec["type"] = f.Type
		rec["modality"] = f.Modality
		if f.Size > 0 {
			rec["size"] = strconv.FormatInt(f.Size, 10)
		}
		for axis, values := range f.Classification {
			rec["classification_"+axis] = JoinList(values)
		}
		flattenInfo("info", f.Info, rec)
		records = append(records, rec)
	}
	return records
}

// flattenInfo walks a nested metadata map, joining key paths with
// underscores. Lists are joined comma-space so they survive the CSV round
// trip in the form the upload layer re-splits.
func flattenInfo(prefix string, m map[string]any, rec tables.Record) {
	for key, value := range m {
		name := prefix + "_" + key
		switch v := value.(type) {
		case map[string]any:
			flattenInfo(name, v, rec)
		case []any:
			parts := make([]string, len(v))
			for i, item := range v {
				parts[i] = scalar(item)
			}
			rec[name] = JoinList(parts)
		default:
			rec[name] = scalar(v)
		}
	}
}

// columnsFor computes the column set of a query table: the base columns,
// then every other key seen across the records in sorted order.
func columnsFor(records []tables.Record) []string {
	known := make(map[string]bool, len(baseColumns))
	for _, col := range baseColumns {
		known[col] = true
	}

	extraSet := map[string]bool{}
	for _, rec := range records {
		for key := range rec {
			if !known[key] {
				extraSet[key] = true
			}
		}
	}
	extras := make([]string, 0, len(extraSet))
	for key := range extraSet {
		extras = append(extras, key)
	}
	sort.Strings(extras)

	return append(append([]string{}, baseColumns...), extras...)
}

// JoinList serializes a multi-valued cell, comma-space separated.
func JoinList(values []string) string {
	return strings.Join(values, ", ")
}

// SplitList parses a multi-valued cell back into its items.
func SplitList(s string) []string {
	if tables.IsNull(s) {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// scalar formats a metadata value as CSV text. Floats that carry no
// fraction print as integers, matching how the store reports sizes and ages.
func scalar(v any) string {
	switch t := v.(type) {
	case nil:
		return tables.Null
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'g', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case time.Time:
		return t.Format(constants.TimeFormatISO8601)
	default:
		return fmt.Sprintf("%v", t)
	}
}
