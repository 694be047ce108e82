package cmd

import (
	"os"

	"github.com/spf13/viper"

	"github.com/redlinedata/redline"
	"github.com/redlinedata/redline/internal/cmd/globals"
	"github.com/redlinedata/redline/internal/cmd/output"
	"github.com/redlinedata/redline/pkg/tables"
)

// newRedline builds the workflow facade from the resolved configuration.
// The store credentials come from flags, config file, or REDLINE_* env vars;
// commands that never touch the store work without them.
func newRedline(flags *globals.PipelineFlags, extra ...redline.Option) (redline.Redline, error) {
	var opts []redline.Option

	if key := viper.GetString("api_key"); key != "" {
		opts = append(opts, redline.WithAPIKey(key))
	}
	if url := viper.GetString("api_url"); url != "" {
		opts = append(opts, redline.WithStoreURL(url))
	}
	if flags != nil {
		if len(flags.Identity) > 0 {
			opts = append(opts, redline.WithIdentityColumns(flags.Identity...))
		}
		if flags.Rules != "" {
			opts = append(opts, redline.WithRulesFile(flags.Rules))
		}
	}
	opts = append(opts, extra...)

	return redline.New(opts...)
}

// writeTable writes a record table to the --file destination, or renders it
// to stdout in the global output format when no file was given.
func writeTable(t *tables.Table, file string) error {
	if file != "" {
		return t.WriteFile(file)
	}
	formatter := output.NewFormatter(output.Format(globalFlags.Output))
	return formatter.Format(os.Stdout, t)
}

// render formats arbitrary command output to stdout in the global format.
func render(data any) error {
	formatter := output.NewFormatter(output.Format(globalFlags.Output))
	return formatter.Format(os.Stdout, data)
}
