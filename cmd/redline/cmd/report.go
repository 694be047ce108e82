package cmd

import (
	"fmt"
	"io"
	"os"
	"strconv"

	md "github.com/nao1215/markdown"
	"github.com/spf13/cobra"

	"github.com/redlinedata/redline/internal/cmd/globals"
	"github.com/redlinedata/redline/pkg/constants"
	"github.com/redlinedata/redline/pkg/provenance"
	"github.com/redlinedata/redline/pkg/tables"
)

var reportFlags *globals.PipelineFlags

// reportCmd renders a provenance log as a markdown change report.
var reportCmd = &cobra.Command{
	Use:   "report <provenance.csv>",
	Short: "Render a provenance log as a markdown change report",
	Long: `Report turns the provenance log a reconciliation run wrote into a
markdown document: one table row per applied cell change, plus the flagged
changes the validator should look at. Pass the reconciled table with
--against to also verify each logged change is still present in it.`,
	Example: `  redline report provenance_2026-08-29_10-00-00.csv -f report.md
  redline report provenance_2026-08-29_10-00-00.csv --against reconciled.csv`,
	Args: cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		log, err := provenance.ReadFile(args[0])
		if err != nil {
			return err
		}

		var diverged []provenance.Entry
		if reportAgainst != "" {
			t, err := tables.ReadFile(reportAgainst)
			if err != nil {
				return err
			}
			diverged = log.Verify(t)
		}

		out := io.Writer(os.Stdout)
		if reportFlags.File != "" {
			f, err := os.OpenFile(reportFlags.File, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, constants.FilePermissions)
			if err != nil {
				return err
			}
			defer f.Close()
			out = f
		}
		return writeReport(out, args[0], log, diverged, reportAgainst)
	},
}

var reportAgainst string

// writeReport emits the markdown document for one provenance log.
func writeReport(w io.Writer, source string, log *provenance.Log, diverged []provenance.Entry, against string) error {
	doc := md.NewMarkdown(w).
		H1("Change Report").
		PlainTextf("Source: `%s`", source).LF().
		PlainTextf("Applied changes: %d", log.Len()).LF()

	if log.IsEmpty() {
		doc.PlainText("The reconciliation run found no edits.").LF()
		return doc.Build()
	}

	doc.H2("Applied Changes").LF().
		Table(md.TableSet{
			Header: []string{"Row", "Column", "Original", "Modified"},
			Rows:   entryRows(log.Entries()),
		}).LF()

	if flagged := log.Flagged(); len(flagged) > 0 {
		doc.H2("Flagged Changes").LF().
			PlainText("These values look incompatible with their column's type and need validator attention.").LF().
			Table(md.TableSet{
				Header: []string{"Row", "Column", "Original", "Modified"},
				Rows:   entryRows(flagged),
			}).LF()
	}

	if against != "" {
		doc.H2("Verification").LF()
		if len(diverged) == 0 {
			doc.PlainTextf("Every logged change is present in `%s`.", against).LF()
		} else {
			doc.PlainTextf("%d logged changes are no longer present in `%s`:", len(diverged), against).LF().
				Table(md.TableSet{
					Header: []string{"Row", "Column", "Original", "Modified"},
					Rows:   entryRows(diverged),
				}).LF()
		}
	}

	return doc.Build()
}

// entryRows converts provenance entries to markdown table rows.
func entryRows(entries []provenance.Entry) [][]string {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			strconv.Itoa(e.Row),
			e.Column,
			reportValue(e.Original),
			reportValue(e.Modified),
		})
	}
	return rows
}

// reportValue renders a cell value for markdown, spelling out nulls.
func reportValue(v string) string {
	if v == "" {
		return "_null_"
	}
	return fmt.Sprintf("`%s`", v)
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportFlags = globals.AddPipelineFlags(reportCmd)
	reportCmd.Flags().StringVar(&reportAgainst, "against", "",
		"Reconciled table to verify the log against")
}
