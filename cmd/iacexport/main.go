package main

import (
	"os"

	"github.com/iacexport/iacexport/cmd"
	"github.com/iacexport/iacexport/cmd/export"
	"github.com/iacexport/iacexport/cmd/report"
)

func main() {
	rootCmd := cmd.NewRootCommand()

	exportCmd := export.NewExportCommand()
	rootCmd.AddCommand(exportCmd)

	reportCmd := report.NewReportCommand()
	rootCmd.AddCommand(reportCmd)

	versionCmd := cmd.NewVersionCommand()
	rootCmd.AddCommand(versionCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
