package tables

import (
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/redlinedata/redline/pkg/constants"
	"github.com/redlinedata/redline/pkg/errors"
)

// Read parses a CSV stream into a table. The first row is the header and
// fixes the schema; every data row must have the same field count. Empty
// cells read as null. A UTF-8 byte order mark on the header is tolerated.
func Read(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)

	header, err := cr.Read()
	if err == io.EOF {
		return nil, errors.NewParseError("csv", "", "empty input", err)
	}
	if err != nil {
		return nil, wrapCSVError("", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\uFEFF")
	}

	t, err := New(header...)
	if err != nil {
		return nil, err
	}

	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, wrapCSVError("", err)
		}
		if err := t.AppendValues(record...); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// ReadFile reads a CSV file into a table.
func ReadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewIOError("open", path, err)
	}
	defer func() { _ = f.Close() }()

	t, err := Read(f)
	if err != nil {
		var perr *errors.ParseError
		if errors.As(err, &perr) && perr.File == "" {
			perr.File = path
		}
		return nil, err
	}
	return t, nil
}

// Write serializes the table as CSV: header row, then one row per record in
// column order, nulls as empty cells.
func (t *Table) Write(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.cols); err != nil {
		return errors.WrapIO("write", "csv header", err)
	}
	for i := range t.rows {
		if err := cw.Write(t.Values(i)); err != nil {
			return errors.WrapIO("write", "csv row", err)
		}
	}
	cw.Flush()
	return errors.WrapIO("flush", "csv", cw.Error())
}

// WriteFile writes the table to a CSV file, creating or truncating it.
func (t *Table) WriteFile(path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, constants.FilePermissions)
	if err != nil {
		return errors.NewIOError("create", path, err)
	}
	if err := t.Write(f); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return errors.NewIOError("close", path, err)
	}
	return nil
}

// wrapCSVError converts encoding/csv errors into parse errors carrying
// position information when available.
func wrapCSVError(path string, err error) error {
	var perr *csv.ParseError
	if errors.As(err, &perr) {
		return &errors.ParseError{
			Format:  "csv",
			File:    path,
			Line:    perr.Line,
			Column:  perr.Column,
			Message: perr.Err.Error(),
			Err:     err,
		}
	}
	return errors.WrapParse("csv", path, err)
}
