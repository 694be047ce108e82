package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/redlinedata/redline/internal/cmd/globals"
	"github.com/redlinedata/redline/internal/cmd/table"
	"github.com/redlinedata/redline/internal/upload"
	"github.com/redlinedata/redline/pkg/provenance"
	"github.com/redlinedata/redline/pkg/tables"
	"github.com/redlinedata/redline/pkg/validate"
)

var validateFlags *globals.PipelineFlags

// validateCmd checks proposed values against the store's schema rules.
var validateCmd = &cobra.Command{
	Use:   "validate <original.csv> <reconciled.csv> | validate <provenance.csv>",
	Short: "Check edited values against the store's schema rules",
	Long: `Validate checks every changed value against the store's schema rules
before anything is uploaded: boolean dropdown columns, enumerated columns
such as modality, free-text columns, and filename patterns. Identity columns
are never editable.

With two arguments the original and reconciled tables are re-diffed and
every changed cell is checked. With one argument the modified values of a
provenance log are checked instead. The exit status is non-zero when any
value breaks a rule.`,
	Example: `  redline validate records.csv reconciled.csv
  redline validate provenance_2026-08-29_10-00-00.csv --rules rules.yaml`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(_ *cobra.Command, args []string) error {
		var checkerOpts []validate.Option
		if validateFlags.Rules != "" {
			checkerOpts = append(checkerOpts, validate.WithRulesFile(validateFlags.Rules))
		}
		checker, err := validate.New(checkerOpts...)
		if err != nil {
			return err
		}

		violations, err := collectViolations(checker, args)
		if err != nil {
			return err
		}

		if len(violations) == 0 {
			if !globalFlags.Quiet {
				fmt.Fprintln(os.Stderr, "All values pass validation.")
			}
			return nil
		}

		if err := render(table.ViolationsToTableData(violations)); err != nil {
			return err
		}
		return fmt.Errorf("%d values failed validation", len(violations))
	},
}

// collectViolations checks either a table pair or a provenance log.
func collectViolations(checker validate.Checker, args []string) ([]validate.Violation, error) {
	if len(args) == 1 {
		log, err := provenance.ReadFile(args[0])
		if err != nil {
			return nil, err
		}
		return checker.CheckLog(log), nil
	}

	original, err := tables.ReadFile(args[0])
	if err != nil {
		return nil, err
	}
	reconciled, err := tables.ReadFile(args[1])
	if err != nil {
		return nil, err
	}

	changes, _, err := upload.Plan(original, reconciled)
	if err != nil {
		return nil, err
	}

	var violations []validate.Violation
	for _, change := range changes {
		if err := checker.Check(change.Column, change.Modified); err != nil {
			violations = append(violations, validate.Violation{
				Row:     change.Row,
				Column:  change.Column,
				Value:   change.Modified,
				Message: err.Error(),
			})
		}
	}
	return violations, nil
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateFlags = globals.AddPipelineFlags(validateCmd)
}
