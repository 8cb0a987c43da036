package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/oakwood-commons/stixoutline/internal/config"
	"github.com/oakwood-commons/stixoutline/pkg/settings"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect stixoutline configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	var output string
	get := &cobra.Command{
		Use:   "get",
		Short: "Print the merged configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return writeValue(cmd.OutOrStdout(), a.cfg, output)
		},
	}
	get.Flags().StringVarP(&output, "output", "o", "yaml", "output format: yaml|json")

	defaults := &cobra.Command{
		Use:   "default",
		Short: "Print the built-in defaults, a starting point for a config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := cmd.OutOrStdout().Write(config.DefaultConfigYAML())
			return err
		},
	}

	path := &cobra.Command{
		Use:   "path",
		Short: "Print the config file in use, if any",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p := config.ResolvePath(a.run.ConfigFile, settings.CliBinaryName)
			if p == "" {
				p = "(built-in defaults)"
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), p)
			return err
		},
	}

	cmd.AddCommand(get, defaults, path)
	return cmd
}

func writeValue(w io.Writer, v any, format string) error {
	switch format {
	case "yaml", "":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	return fmt.Errorf("unknown output format %q (expected yaml or json)", format)
}
