package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/oakwood-commons/stixoutline/internal/mcpserver"
	"github.com/oakwood-commons/stixoutline/internal/server"
	"github.com/oakwood-commons/stixoutline/pkg/settings"
)

func newServeCmd(a *app) *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the outline to an editor over JSON-RPC",
		Long: `Serve the outline protocol to an editor host.

Without --listen the connection is stdin/stdout with LSP-style framing. With
--listen every websocket connection to the address gets its own workspace.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("listen") {
				listen = a.cfg.Server.Listen
			}
			srv := server.New(a.cfg,
				server.WithLogger(a.log.WithName("server")),
				server.WithIcons(a.icons),
				server.WithVersion(settings.VersionInformation.BuildVersion),
			)
			if listen == "" {
				a.run.Transport = "stdio"
				a.log.V(1).Info("serving on stdio")
				return srv.ServeStdio(cmd.Context(), os.Stdin, os.Stdout)
			}
			a.run.Transport = listen
			a.log.Info("serving websocket", "addr", listen)
			return srv.ListenAndServe(cmd.Context(), listen)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "websocket listen address, e.g. 127.0.0.1:7007 (default stdio)")
	return cmd
}

func newMCPCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve outline tools over the Model Context Protocol on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a.run.Transport = "mcp"
			srv, err := mcpserver.New(cmd.Context(), a.cfg,
				mcpserver.WithLogger(a.log.WithName("mcp")),
				mcpserver.WithIcons(a.icons),
			)
			if err != nil {
				return err
			}
			return srv.RunStdio(cmd.Context(), settings.CliBinaryName, settings.VersionInformation.BuildVersion)
		},
	}
}
