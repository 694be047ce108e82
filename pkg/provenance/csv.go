package provenance

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/redlinedata/redline/pkg/constants"
	"github.com/redlinedata/redline/pkg/errors"
	"github.com/redlinedata/redline/pkg/tables"
)

// NullToken is how null values are spelled in the provenance CSV. In-memory
// nulls are empty strings; the file form uses an explicit token so a null
// original or modified value survives spreadsheet round trips.
const NullToken = "NA"

// header is the fixed provenance CSV column order.
var header = []string{"original", "modified", "row", "column"}

// Filename returns the canonical file name for the log, derived from its
// creation time: provenance_<YYYY-MM-DD_hh-mm-ss>.csv.
func (l *Log) Filename() string {
	return "provenance_" + l.CreatedAt.Format(constants.TimeFormatProvenance) + ".csv"
}

// Write serializes the log as CSV. The header row is always written, so an
// empty log still produces a parseable file.
func (l *Log) Write(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return errors.WrapIO("write", "provenance", err)
	}
	for _, e := range l.entries {
		record := []string{
			encodeValue(e.Original),
			encodeValue(e.Modified),
			strconv.Itoa(e.Row),
			e.Column,
		}
		if err := cw.Write(record); err != nil {
			return errors.WrapIO("write", "provenance", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return errors.WrapIO("flush", "provenance", err)
	}
	return nil
}

// WriteFile writes the log to dir under its canonical filename and returns
// the full path. The file is synced to stable storage before the method
// returns, so a reported path is a durable one.
func (l *Log) WriteFile(dir string) (string, error) {
	if dir == "" {
		dir = constants.DefaultProvenanceDir
	}
	path := filepath.Join(dir, l.Filename())
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, constants.FilePermissions)
	if err != nil {
		return "", errors.WrapIO("create", path, err)
	}
	if err := l.Write(f); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return "", errors.WrapIO("sync", path, err)
	}
	if err := f.Close(); err != nil {
		return "", errors.WrapIO("close", path, err)
	}
	return path, nil
}

// Read parses a provenance CSV. Loaded entries carry no group attribution;
// their GroupID is -1.
func Read(r io.Reader) (*Log, error) {
	cr := csv.NewReader(r)
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, errors.WrapParse("csv", "provenance", err)
	}
	if len(rows) == 0 {
		return nil, errors.NewParseError("csv", "provenance", "missing header row", nil)
	}
	if err := checkHeader(rows[0]); err != nil {
		return nil, err
	}

	log := &Log{}
	for i, row := range rows[1:] {
		rowIdx, err := strconv.Atoi(row[2])
		if err != nil || rowIdx < 0 {
			return nil, errors.NewParseError("csv", "provenance",
				"line "+strconv.Itoa(i+2)+": row must be a non-negative integer, got "+strconv.Quote(row[2]), nil)
		}
		log.Append(Entry{
			GroupID:  -1,
			Row:      rowIdx,
			Column:   row[3],
			Original: decodeValue(row[0]),
			Modified: decodeValue(row[1]),
		})
	}
	return log, nil
}

// ReadFile parses the provenance CSV at path.
func ReadFile(path string) (*Log, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WrapIO("open", path, err)
	}
	defer f.Close()

	log, err := Read(f)
	if err != nil {
		var perr *errors.ParseError
		if errors.As(err, &perr) {
			perr.File = path
		}
		return nil, err
	}
	return log, nil
}

func checkHeader(got []string) error {
	if len(got) != len(header) {
		return errors.NewParseError("csv", "provenance",
			"expected 4 header columns, got "+strconv.Itoa(len(got)), nil)
	}
	for i, name := range header {
		if got[i] != name {
			return errors.NewParseError("csv", "provenance",
				"header column "+strconv.Itoa(i)+" is "+strconv.Quote(got[i])+", want "+strconv.Quote(name), nil)
		}
	}
	return nil
}

func encodeValue(v string) string {
	if tables.IsNull(v) {
		return NullToken
	}
	return v
}

func decodeValue(v string) string {
	if v == NullToken {
		return tables.Null
	}
	return v
}
