// Package validate checks proposed metadata values against the remote
// store's schema rules before upload. The reconciler records every change it
// propagates without judging it; this package is where a change can still be
// rejected, so a flagged or malformed value never reaches the store.
package validate

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/redlinedata/redline/pkg/errors"
	"github.com/redlinedata/redline/pkg/provenance"
	"github.com/redlinedata/redline/pkg/tables"
)

// Violation reports one value a rule rejected.
type Violation struct {
	// Row is the table or provenance row the value sits in, -1 when the
	// value was checked on its own.
	Row int

	// Column is the column whose rule rejected the value.
	Column string

	// Value is the offending value.
	Value string

	// Message says why the value was rejected.
	Message string
}

// String returns a human-readable description of the violation.
func (v Violation) String() string {
	if v.Row >= 0 {
		return fmt.Sprintf("row %d, column %s: %q %s", v.Row, v.Column, v.Value, v.Message)
	}
	return fmt.Sprintf("column %s: %q %s", v.Column, v.Value, v.Message)
}

// Checker validates values against a rule set.
type Checker interface {
	// Check validates a single value. A nil error means the value is
	// acceptable for the column.
	Check(column, value string) error

	// CheckLog validates the modified value of every provenance entry.
	CheckLog(log *provenance.Log) []Violation

	// CheckTable validates every cell of a table.
	CheckTable(t *tables.Table) []Violation
}

// checker is the default implementation of Checker.
type checker struct {
	rules     *Rules
	booleans  map[string]bool
	enums     map[string][]string
	freeText  map[string]bool
	patterns  map[string][]*regexp.Regexp
	protected map[string]bool
}

// Option configures a Checker.
type Option func(*checker) error

// New creates a Checker. Without options it enforces the default rules.
func New(opts ...Option) (Checker, error) {
	c := &checker{rules: Default()}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	if err := c.compile(); err != nil {
		return nil, err
	}
	return c, nil
}

// WithRules replaces the default rule set.
func WithRules(rules *Rules) Option {
	return func(c *checker) error {
		if rules == nil {
			return errors.NewValidationError("rules", nil, "rules cannot be nil")
		}
		c.rules = rules
		return nil
	}
}

// WithRulesFile loads the rule set from a YAML file.
func WithRulesFile(path string) Option {
	return func(c *checker) error {
		rules, err := LoadFile(path)
		if err != nil {
			return err
		}
		c.rules = rules
		return nil
	}
}

// compile builds the lookup structures for the configured rules. Rule
// columns are lowered once here so Check can match case-insensitively.
func (c *checker) compile() error {
	c.booleans = make(map[string]bool, len(c.rules.Booleans))
	for _, col := range c.rules.Booleans {
		c.booleans[strings.ToLower(col)] = true
	}

	c.enums = make(map[string][]string, len(c.rules.Enums))
	for col, options := range c.rules.Enums {
		lowered := make([]string, len(options))
		for i, opt := range options {
			lowered[i] = strings.ToLower(opt)
		}
		c.enums[strings.ToLower(col)] = lowered
	}

	c.freeText = make(map[string]bool, len(c.rules.Strings))
	for _, col := range c.rules.Strings {
		c.freeText[strings.ToLower(col)] = true
	}

	c.patterns = make(map[string][]*regexp.Regexp, len(c.rules.Patterns))
	for col, exprs := range c.rules.Patterns {
		compiled := make([]*regexp.Regexp, 0, len(exprs))
		for _, expr := range exprs {
			re, err := regexp.Compile(expr)
			if err != nil {
				return errors.NewConfigError("validate", "compiling pattern for column "+col, err)
			}
			compiled = append(compiled, re)
		}
		c.patterns[strings.ToLower(col)] = compiled
	}

	c.protected = make(map[string]bool, len(c.rules.Protected))
	for _, col := range c.rules.Protected {
		c.protected[col] = true
	}
	return nil
}

// Check validates a single value against the column's rule. Flattened
// metadata columns fall back to their last underscore segment, so a rule
// written for valid also covers info_BIDS_valid.
func (c *checker) Check(column, value string) error {
	// Protected columns match exactly; an edit is rejected whatever the value.
	if c.protected[column] {
		return errors.NewValidationError(column, value, "this column cannot be edited")
	}

	v := tables.Normalize(value)
	for _, key := range ruleKeys(column) {
		if covered, err := c.apply(key, column, v, value); covered {
			return err
		}
	}

	if c.rules.RejectUnknown {
		return errors.NewValidationError(column, value, "no rule covers this column")
	}
	return nil
}

// ruleKeys returns the lookup keys for a column: the full lowered name
// first, then the last underscore segment for flattened metadata columns.
func ruleKeys(column string) []string {
	key := strings.ToLower(column)
	if i := strings.LastIndex(key, "_"); i >= 0 && i+1 < len(key) {
		return []string{key, key[i+1:]}
	}
	return []string{key}
}

// apply runs the rule registered under key, if any. The first return is
// false when no rule covers the key.
func (c *checker) apply(key, column, v, value string) (bool, error) {
	if c.booleans[key] {
		if lowered := strings.ToLower(v); lowered == "true" || lowered == "false" {
			return true, nil
		}
		return true, errors.NewValidationError(column, value, "accepts only true or false")
	}

	if options, ok := c.enums[key]; ok {
		lowered := strings.ToLower(v)
		for _, opt := range options {
			if lowered == opt {
				return true, nil
			}
		}
		return true, errors.NewValidationError(column, value, "must be one of: "+strings.Join(options, ", "))
	}

	if c.freeText[key] {
		return true, nil
	}

	if patterns, ok := c.patterns[key]; ok {
		for _, re := range patterns {
			if re.MatchString(v) {
				return true, nil
			}
		}
		return true, errors.NewValidationError(column, value, "does not match any allowed pattern for "+column)
	}

	return false, nil
}

// CheckLog validates the modified value of every provenance entry, returning
// one violation per rejected entry. Entries the reconciler flagged for type
// coercion are reported even when no rule covers their column.
func (c *checker) CheckLog(log *provenance.Log) []Violation {
	var violations []Violation
	for _, e := range log.Entries() {
		if err := c.Check(e.Column, e.Modified); err != nil {
			violations = append(violations, violation(e.Row, e.Column, e.Modified, err))
			continue
		}
		if e.Flagged {
			violations = append(violations, Violation{
				Row:     e.Row,
				Column:  e.Column,
				Value:   e.Modified,
				Message: "does not match the column's apparent type",
			})
		}
	}
	return violations
}

// CheckTable validates every cell of a table. Protected columns are skipped;
// a value merely present in a protected column is not an edit.
func (c *checker) CheckTable(t *tables.Table) []Violation {
	var violations []Violation
	for i := 0; i < t.Len(); i++ {
		for _, col := range t.Columns() {
			if c.protected[col] {
				continue
			}
			v, _ := t.Cell(i, col)
			if err := c.Check(col, v); err != nil {
				violations = append(violations, violation(i, col, v, err))
			}
		}
	}
	return violations
}

func violation(row int, column, value string, err error) Violation {
	message := err.Error()
	var verr *errors.ValidationError
	if errors.As(err, &verr) {
		message = verr.Message
	}
	return Violation{Row: row, Column: column, Value: value, Message: message}
}
