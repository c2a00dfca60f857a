// Package report contains the command that prints recorded export runs.
package report

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/iacexport/iacexport/cmd/util"
	"github.com/iacexport/iacexport/internal/config"
	"github.com/iacexport/iacexport/internal/errors"
	"github.com/iacexport/iacexport/pkg/manifest"
	"github.com/iacexport/iacexport/pkg/pipeline"
)

const (
	widthFlag = "width"
	listFlag  = "list"
)

func NewReportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report [run-id]",
		Short: "Print a recorded export run",
		Long: `Print a recorded export run from the run manifest.

Without a run id the most recent run is printed. With --list, the most recent
runs are listed instead.`,
		RunE: runReport,
		Args: cobra.MaximumNArgs(1),
	}

	defaultConfig := config.DefaultConfig()
	flags := cmd.Flags()

	flags.String("manifest-uri", defaultConfig.Manifest.URI, "the SQLite URI of the run manifest")
	flags.Int(widthFlag, 100, "the column reasons are wrapped at")
	flags.Uint64(listFlag, 0, "list the given number of most recent runs instead of printing one")

	cmd.PreRun = bindReportFlagsFunc(flags)

	return cmd
}

func bindReportFlagsFunc(flags *pflag.FlagSet) func(*cobra.Command, []string) {
	return func(_ *cobra.Command, _ []string) {
		util.MustBindPFlag("manifest.uri", flags.Lookup("manifest-uri"))
		util.MustBindEnv("manifest.uri", "IACEXPORT_MANIFEST_URI")
	}
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg, err := util.ReadConfig()
	if err != nil {
		return err
	}
	if cfg.Manifest.URI == "" {
		return errors.Configurationf("pass --manifest-uri", "config 'manifest.uri' must be set")
	}

	ctx := cmd.Context()
	store, err := manifest.Open(ctx, cfg.Manifest.URI)
	if err != nil {
		return err
	}
	defer store.Close()

	flags := cmd.Flags()
	if n, _ := flags.GetUint64(listFlag); n > 0 {
		runs, err := store.Runs(ctx, n)
		if err != nil {
			return err
		}
		return PrintRuns(cmd.OutOrStdout(), runs)
	}

	var r *pipeline.Report
	if len(args) == 1 {
		r, err = store.Load(ctx, args[0])
	} else {
		r, err = store.Latest(ctx)
	}
	if err != nil {
		return err
	}

	width, _ := flags.GetInt(widthFlag)
	return PrintReport(cmd.OutOrStdout(), r, width)
}
