package globals

import "github.com/spf13/cobra"

// PipelineFlags holds flags shared by the commands that read and write the
// round-trip CSV files.
type PipelineFlags struct {
	File     string
	By       []string
	Identity []string
	Rules    string
}

// AddPipelineFlags adds the shared pipeline flags to a command.
func AddPipelineFlags(cmd *cobra.Command) *PipelineFlags {
	flags := &PipelineFlags{}

	cmd.Flags().StringVarP(&flags.File, "file", "f", "",
		"Write the result to this file instead of stdout")
	cmd.Flags().StringSliceVar(&flags.Identity, "identity", nil,
		"Identity columns protected from edit propagation")
	cmd.Flags().StringVar(&flags.Rules, "rules", "",
		"Validation rules YAML file (defaults to the built-in rules)")

	return flags
}

// AddGroupingFlags adds the grouping column selection flag to a command.
func (f *PipelineFlags) AddGroupingFlags(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&f.By, "by", nil,
		"Grouping columns, in order (e.g. 'acquisition.label,type')")
	_ = cmd.MarkFlagRequired("by")
}

// ScopeFlags holds flags selecting how far into the store hierarchy a query
// descends.
type ScopeFlags struct {
	Project string
	Subject string
	Session string
}

// AddScopeFlags adds hierarchy scope flags to a command.
func AddScopeFlags(cmd *cobra.Command) *ScopeFlags {
	flags := &ScopeFlags{}

	cmd.Flags().StringVarP(&flags.Project, "project", "p", "",
		"Project label to query")
	cmd.Flags().StringVar(&flags.Subject, "subject", "",
		"Restrict to one subject label")
	cmd.Flags().StringVar(&flags.Session, "session", "",
		"Restrict to one session label")
	_ = cmd.MarkFlagRequired("project")

	return flags
}
