// Package main provides the entry point for the redline CLI tool.
package main

import "github.com/redlinedata/redline/cmd/redline/cmd"

// Version information populated by goreleaser.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
	builtBy = "unknown"
)

func main() {
	cmd.Execute(version, commit, date, builtBy)
}
