package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/redlinedata/redline"
	"github.com/redlinedata/redline/internal/cmd/globals"
	"github.com/redlinedata/redline/internal/cmd/progress"
	"github.com/redlinedata/redline/internal/cmd/table"
	"github.com/redlinedata/redline/pkg/errors"
	"github.com/redlinedata/redline/pkg/tables"
)

var (
	uploadFlags  *globals.PipelineFlags
	uploadDryRun bool
)

// uploadCmd commits reconciled edits to the remote store.
var uploadCmd = &cobra.Command{
	Use:   "upload <records.csv> <reconciled.csv>",
	Short: "Commit reconciled edits to the remote store",
	Long: `Upload re-diffs the original record table against the reconciled one and
pushes every changed cell to the store: info_* columns update nested file
metadata, classification_* columns update classification axes, and bare
file attributes update the file record itself. Every change is validated
first; a single rule violation blocks the whole upload.

Requires REDLINE_API_KEY (and optionally REDLINE_API_URL) or the matching
config file entries. Use --dry-run to see the planned updates without
touching the store.`,
	Example: `  redline upload records.csv reconciled.csv --dry-run
  redline upload records.csv reconciled.csv`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		original, err := tables.ReadFile(args[0])
		if err != nil {
			return err
		}
		reconciled, err := tables.ReadFile(args[1])
		if err != nil {
			return err
		}

		reporter := progress.New(globalFlags.Quiet)
		defer reporter.Wait()

		rl, err := newRedline(uploadFlags,
			redline.WithDryRun(uploadDryRun),
			redline.WithProgress(reporter.Bar("Uploading")))
		if err != nil {
			return err
		}

		result, err := rl.Upload(cmd.Context(), original, reconciled)
		if err != nil {
			return err
		}
		reporter.Wait()

		if !globalFlags.Quiet {
			fmt.Fprintln(os.Stderr, result.Summary())
			for _, warning := range result.Warnings {
				fmt.Fprintln(os.Stderr, "Warning:", warning)
			}
		}

		if result.HasViolations() {
			if err := render(table.ViolationsToTableData(result.Violations)); err != nil {
				return err
			}
			return fmt.Errorf("upload blocked: %d values failed validation", len(result.Violations))
		}
		if uploadDryRun && result.HasChanges() {
			if err := render(table.ChangesToTableData(result.Changes)); err != nil {
				return err
			}
		}

		if !result.IsSuccess() {
			return errors.Join(result.Errors...)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(uploadCmd)
	uploadFlags = globals.AddPipelineFlags(uploadCmd)
	uploadCmd.Flags().BoolVar(&uploadDryRun, "dry-run", false,
		"Plan and validate without calling the store")
}
