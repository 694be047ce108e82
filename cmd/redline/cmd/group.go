package cmd

import (
	"github.com/spf13/cobra"

	"github.com/redlinedata/redline"
	"github.com/redlinedata/redline/internal/cmd/globals"
	"github.com/redlinedata/redline/internal/cmd/progress"
	"github.com/redlinedata/redline/pkg/tables"
)

var groupFlags *globals.PipelineFlags

// groupCmd collapses duplicate-valued rows into a group table.
var groupCmd = &cobra.Command{
	Use:   "group <records.csv>",
	Short: "Collapse duplicate-valued rows for mass editing",
	Long: `Group collapses rows that share identical values across the --by columns
into a single representative row each, so one spreadsheet edit can later be
propagated to every member row. The output carries two extra columns:
group_id, assigned in first-appearance order, and groups, the grouping
column list. Both must be preserved verbatim while editing.`,
	Example: `  redline group records.csv --by acquisition.label,type -f grouped.csv
  redline group records.csv --by type`,
	Args: cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		t, err := tables.ReadFile(args[0])
		if err != nil {
			return err
		}

		reporter := progress.New(globalFlags.Quiet)
		defer reporter.Wait()

		rl, err := newRedline(groupFlags, redline.WithProgress(reporter.Bar("Grouping")))
		if err != nil {
			return err
		}

		grouped, err := rl.Group(t, groupFlags.By...)
		if err != nil {
			return err
		}
		reporter.Wait()

		return writeTable(grouped, groupFlags.File)
	},
}

func init() {
	rootCmd.AddCommand(groupCmd)
	groupFlags = globals.AddPipelineFlags(groupCmd)
	groupFlags.AddGroupingFlags(groupCmd)
}
