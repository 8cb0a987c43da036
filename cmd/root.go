// Package cmd is the stixoutline command line.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/oakwood-commons/stixoutline/internal/config"
	"github.com/oakwood-commons/stixoutline/internal/host"
	"github.com/oakwood-commons/stixoutline/internal/icons"
	"github.com/oakwood-commons/stixoutline/internal/outline"
	"github.com/oakwood-commons/stixoutline/internal/render"
	"github.com/oakwood-commons/stixoutline/internal/tui"
	"github.com/oakwood-commons/stixoutline/pkg/logger"
	"github.com/oakwood-commons/stixoutline/pkg/settings"
)

// errNoOutline is returned when the file's language has no outline.
var errNoOutline = errors.New("no outline for this document")

// app carries the flags and the state PersistentPreRunE builds from them.
type app struct {
	run *settings.Run

	debug     bool
	envFile   []string
	width     int
	height    int
	printOpts printFlags

	cfg   config.Config
	icons *icons.Resolver
	log   logr.Logger
}

type printFlags struct {
	interactive bool
	find        string
	depth       int
	icons       bool
	expandAll   bool
}

// Execute runs the command line until it finishes or the process is
// interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return newRootCmd().ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	a := &app{run: settings.NewCliParams(), log: logr.Discard()}
	root := &cobra.Command{
		Use:   settings.CliBinaryName + " [file]",
		Short: "Live outline of JSON and STIX documents",
		Long: `Print, browse or serve the outline of a JSON document.

Objects carrying a STIX "type" property are labelled with their type; "id"
and "type" keys are highlighted. The outline follows edits: an editor host
connected through "serve" or "mcp" sees only the changed subtree refreshed.`,
		Example: "  stixoutline bundle.json\n" +
			"  stixoutline bundle.json --find '_.type == \"indicator\"'\n" +
			"  stixoutline bundle.json -i\n" +
			"  stixoutline serve --listen 127.0.0.1:7007",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			if a.printOpts.interactive {
				return a.interactive(cmd.Context(), args[0])
			}
			return a.print(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), args[0])
		},
	}
	root.Version = versionString()
	root.SetVersionTemplate("{{.Version}}\n")

	pf := root.PersistentFlags()
	pf.StringVar(&a.run.ConfigFile, "config-file", "", "path to a YAML config file (default $XDG_CONFIG_HOME/stixoutline/config.yaml)")
	pf.StringArrayVar(&a.envFile, "env-file", []string{".env"}, "dotenv files read before applying STIXOUTLINE_* overrides")
	pf.BoolVar(&a.debug, "debug", false, "log debug events to stderr")
	pf.BoolVar(&a.run.NoColor, "no-color", false, "disable color output")

	f := root.Flags()
	f.BoolVarP(&a.printOpts.interactive, "interactive", "i", false, "browse the outline in a terminal UI")
	f.StringVar(&a.printOpts.find, "find", "", `print objects matching a CEL predicate over "_", e.g. '_.type == "indicator"'`)
	f.IntVar(&a.printOpts.depth, "depth", -1, "limit tree depth (0 = unlimited, default from config)")
	f.BoolVar(&a.printOpts.icons, "icons", false, "prefix items with their icon name")
	f.BoolVar(&a.printOpts.expandAll, "expand-all", false, "print collapsed items too")
	f.IntVar(&a.width, "width", 0, "output width in columns (default: terminal width)")
	f.IntVar(&a.height, "height", 0, "terminal UI height in rows (default: terminal height)")

	root.AddCommand(newServeCmd(a), newMCPCmd(a), newConfigCmd(a), newVersionCmd())
	return root
}

// setup builds the logger, configuration and icon resolver every command
// shares.
func (a *app) setup(cmd *cobra.Command) error {
	if a.debug {
		a.run.MinLogLevel = -1
	}
	if os.Getenv("NO_COLOR") != "" {
		a.run.NoColor = true
	}
	a.run.EnvFiles = a.envFile
	a.log = logger.Get(a.run.MinLogLevel).WithValues("command", cmd.Name())
	ctx := logger.WithLogger(cmd.Context(), &a.log)
	cmd.SetContext(settings.IntoContext(ctx, a.run))

	cfg, err := loadConfig(a.run)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.icons, err = newIconResolver(cfg)
	if err != nil {
		return fmt.Errorf("icons: %w", err)
	}
	a.log.V(1).Info("configuration loaded", "configFile", a.run.ConfigFile, "autorefresh", cfg.Outline.AutoRefresh)
	cmd.Flags().Visit(func(f *pflag.Flag) {
		a.log.V(1).Info("flag set", "name", f.Name, "value", f.Value.String())
	})
	return nil
}

func (a *app) print(ctx context.Context, out, errOut io.Writer, path string) error {
	ws := host.NewWorkspace()
	if _, err := host.OpenFile(ws, path); err != nil {
		return err
	}
	proj, err := outline.New(ws,
		outline.WithConfig(a.cfg),
		outline.WithLogger(a.log.WithName("outline")),
		outline.WithContextSetter(ws),
		outline.WithIcons(a.icons),
	)
	if err != nil {
		return err
	}
	unbind := outline.Bind(ctx, proj, ws, nil)
	defer unbind()
	if !proj.Enabled() {
		return fmt.Errorf("%s: %w (language %s)", path, errNoOutline, host.LanguageForPath(path))
	}
	for _, pe := range proj.Tracker().ParseErrors() {
		fmt.Fprintf(errOut, "%s: %v\n", path, pe)
	}

	opts := a.renderOptions()
	if a.printOpts.find != "" {
		ids, err := proj.Find(a.printOpts.find)
		if err != nil {
			return err
		}
		_, err = fmt.Fprint(out, render.Matches(proj, a.printOpts.find, ids, opts))
		return err
	}
	_, err = fmt.Fprint(out, render.Outline(proj, opts))
	return err
}

func (a *app) renderOptions() render.Options {
	opts := render.Options{
		MaxDepth:  a.cfg.Render.Depth,
		Icons:     a.cfg.Render.Icons || a.printOpts.icons,
		ExpandAll: a.printOpts.expandAll,
	}
	if a.printOpts.depth >= 0 {
		opts.MaxDepth = a.printOpts.depth
	}
	width := a.width
	if width <= 0 {
		width, _ = detectTerminalSize()
	}
	if width > 0 {
		opts.MaxLabelLen = width / 2
	}
	return opts
}

func (a *app) interactive(ctx context.Context, path string) error {
	if !stdoutIsTerminal() && (a.width <= 0 || a.height <= 0) {
		return errors.New("interactive mode needs a terminal; set --width and --height to force it")
	}
	return tui.Run(ctx, tui.Options{
		Path:    path,
		Config:  a.cfg,
		Icons:   a.icons,
		Logger:  a.log.WithName("tui"),
		NoColor: a.run.NoColor,
		Width:   a.width,
		Height:  a.height,
	})
}
