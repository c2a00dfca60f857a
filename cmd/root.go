// Package cmd contains all the commands included in the binary file.
package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// NewRootCommand enables all children commands to read flags from CLI flags, environment variables prefixed with IACEXPORT, or config.yaml (in that order).
func NewRootCommand() *cobra.Command {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetEnvPrefix("IACEXPORT")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	configPaths := []string{"/etc/iacexport", "$HOME/.iacexport", "."}
	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	return &cobra.Command{
		Use:   "iacexport",
		Short: "Export platform objects as infrastructure-as-code",
		Long: `Export platform objects as infrastructure-as-code.

iacexport lists the objects of each configured resource type, turns annotated
fields into expressions and blocks, extracts resource-scoped and shared
variables, and writes one configuration file per object.`,
		SilenceUsage: true,
	}
}
