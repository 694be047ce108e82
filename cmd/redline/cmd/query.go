package cmd

import (
	"github.com/spf13/cobra"

	"github.com/redlinedata/redline"
	"github.com/redlinedata/redline/internal/cmd/globals"
	"github.com/redlinedata/redline/internal/cmd/progress"
	"github.com/redlinedata/redline/pkg/tables"
)

var (
	queryFlags *globals.PipelineFlags
	queryScope *globals.ScopeFlags
)

// queryCmd flattens one project's hierarchy into a record table.
var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Flatten a project's metadata into a record table",
	Long: `Query walks one project's hierarchy in the remote store, project through
subject, session, and acquisition, and flattens the metadata of every
acquisition file into one CSV row. Hierarchy fields become dotted columns
(project.label, acquisition.id) and nested file metadata becomes
underscore-joined columns (classification_Measurement, info_EchoTime).

Requires REDLINE_API_KEY (and optionally REDLINE_API_URL) or the matching
config file entries.`,
	Example: `  redline query --project reward-study -f records.csv
  redline query --project reward-study --subject sub-01 -o table`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		reporter := progress.New(globalFlags.Quiet)
		defer reporter.Wait()

		rl, err := newRedline(queryFlags, redline.WithProgress(reporter.Bar("Scanning")))
		if err != nil {
			return err
		}

		t, err := rl.Query(cmd.Context(), queryScope.Project)
		if err != nil {
			return err
		}
		reporter.Wait()

		t, err = restrictScope(t, queryScope)
		if err != nil {
			return err
		}
		return writeTable(t, queryFlags.File)
	},
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryFlags = globals.AddPipelineFlags(queryCmd)
	queryScope = globals.AddScopeFlags(queryCmd)
}

// restrictScope drops rows outside the requested subject or session. The
// store is always walked per project; narrowing happens on the flattened
// table where label columns are already in place.
func restrictScope(t *tables.Table, scope *globals.ScopeFlags) (*tables.Table, error) {
	if scope.Subject == "" && scope.Session == "" {
		return t, nil
	}

	out, err := tables.New(t.Columns()...)
	if err != nil {
		return nil, err
	}
	for i := 0; i < t.Len(); i++ {
		rec := t.Row(i)
		if scope.Subject != "" && rec["subject.label"] != scope.Subject {
			continue
		}
		if scope.Session != "" && rec["session.label"] != scope.Session {
			continue
		}
		if err := out.Append(rec.Clone()); err != nil {
			return nil, err
		}
	}
	return out, nil
}
