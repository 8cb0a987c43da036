package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/oakwood-commons/stixoutline/pkg/settings"
)

func versionString() string {
	v := settings.VersionInformation
	return fmt.Sprintf("%s %s (commit %s, built %s, %s)",
		settings.CliBinaryName, v.BuildVersion, v.Commit, v.BuildTime, runtime.Version())
}

func newVersionCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the stixoutline version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if output == "" {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), versionString())
				return err
			}
			return writeValue(cmd.OutOrStdout(), settings.VersionInformation, output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output format: yaml|json (default plain text)")
	return cmd
}
