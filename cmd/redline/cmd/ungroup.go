package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/redlinedata/redline"
	"github.com/redlinedata/redline/internal/cmd/globals"
	"github.com/redlinedata/redline/internal/cmd/progress"
	"github.com/redlinedata/redline/pkg/errors"
	"github.com/redlinedata/redline/pkg/tables"
)

var (
	ungroupFlags  *globals.PipelineFlags
	provenanceDir string
)

// ungroupCmd reconciles an edited group table back onto the original rows.
var ungroupCmd = &cobra.Command{
	Use:   "ungroup <records.csv> <grouped.csv> <edited.csv>",
	Short: "Expand group table edits back onto every original row",
	Long: `Ungroup diffs the edited group table against the original one, joined on
group_id, and propagates every accepted cell edit to all rows of the record
table that belong to the same group. Membership is re-derived from the
grouping column values, so the record table may have been reloaded in a
different row order since it was grouped.

Edits to identity columns are dropped with a warning. Every applied change
is written to a timestamped provenance log before the command returns; the
reconciled table goes to --file or stdout. The exit status is non-zero when
any group could not be reconciled, even though the remaining groups were.`,
	Example: `  redline ungroup records.csv grouped.csv edited.csv -f reconciled.csv
  redline ungroup records.csv grouped.csv edited.csv --provenance-dir ./audit`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		original, err := tables.ReadFile(args[0])
		if err != nil {
			return err
		}
		grouped, err := tables.ReadFile(args[1])
		if err != nil {
			return err
		}
		edited, err := tables.ReadFile(args[2])
		if err != nil {
			return err
		}

		reporter := progress.New(globalFlags.Quiet)
		defer reporter.Wait()

		rl, err := newRedline(ungroupFlags,
			redline.WithProvenanceDir(provenanceDir),
			redline.WithProgress(reporter.Bar("Propagating")))
		if err != nil {
			return err
		}

		result, err := rl.Ungroup(cmd.Context(), original, grouped, edited)
		if err != nil {
			return err
		}
		reporter.Wait()

		if err := writeTable(result.Table, ungroupFlags.File); err != nil {
			return err
		}

		if !globalFlags.Quiet {
			fmt.Fprintln(os.Stderr, result.Summary())
			if result.LogPath != "" {
				fmt.Fprintln(os.Stderr, "Provenance log:", result.LogPath)
			}
			for _, warning := range result.Warnings {
				fmt.Fprintln(os.Stderr, "Warning:", warning)
			}
		}

		if !result.IsSuccess() {
			return errors.Join(result.Errors...)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(ungroupCmd)
	ungroupFlags = globals.AddPipelineFlags(ungroupCmd)
	ungroupCmd.Flags().StringVar(&provenanceDir, "provenance-dir", ".",
		"Directory the provenance log is written to")
}
