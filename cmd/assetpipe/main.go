package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/amonks/assetpipe/config"
	"github.com/amonks/assetpipe/livereload"
	"github.com/amonks/assetpipe/pipeline"
	"github.com/amonks/assetpipe/printer"
	"github.com/amonks/assetpipe/runner"
	"github.com/amonks/assetpipe/session"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()

	switch {
	case err == nil:
		os.Exit(0)
	case errors.Is(err, context.Canceled):
		fmt.Println("Canceled")
		os.Exit(0)
	case len(runner.Failures(err)) > 0:
		// The @pipeline stream has already listed every failure.
		os.Exit(1)
	default:
		fmt.Printf("Error: %s\n", err)
		os.Exit(1)
	}
}

type flags struct {
	dir    string
	config string
	color  string

	profile termenv.Profile
}

func newRootCmd() *cobra.Command {
	f := &flags{}
	root := &cobra.Command{
		Use:   "assetpipe",
		Short: "Build the static assets of a front-end project.",
		Long: "assetpipe compiles stylesheets, bundles scripts, converts images and fonts,\n" +
			"and serves the result with live reload while you work. A project is\n" +
			"described by an optional assets.toml in its root.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			profile, err := colorProfile(f.color, os.Stdout)
			if err != nil {
				return err
			}
			f.profile = profile
			lipgloss.SetColorProfile(profile)
			return nil
		},
	}
	root.PersistentFlags().StringVar(&f.dir, "dir", ".", "Project directory.")
	root.PersistentFlags().StringVar(&f.config, "config", "", "Project file, relative to the project directory. Defaults to "+config.DefaultFile+" if it exists.")
	root.PersistentFlags().StringVar(&f.color, "color", "auto", "Colorize output: auto, always or never.")

	root.AddCommand(
		&cobra.Command{
			Use:   "build",
			Short: "Clean, convert every source, and collect the outputs into the distribution directory.",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				p, pr, err := f.load(nil)
				if err != nil {
					return err
				}
				return runner.New(pr).Execute(cmd.Context(), p.Build())
			},
		},
		&cobra.Command{
			Use:   "dev",
			Short: "Convert every source, then serve the base directory and rebuild on change.",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return f.dev(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "task <id>...",
			Short: "Run the given tasks one after another.",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				p, pr, err := f.load(nil)
				if err != nil {
					return err
				}
				n, err := p.Tasks(args...)
				if err != nil {
					return err
				}
				return runner.New(pr).Execute(cmd.Context(), n)
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "Describe the project's tasks, graphs and watches.",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				p, _, err := f.load(nil)
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), listText(p))
				return nil
			},
		},
	)
	return root
}

// load reads the project and builds its pipeline, with a printer wide
// enough for every task ID and internal stream.
func (f *flags) load(n livereload.Notifier) (*pipeline.Pipeline, *printer.Printer, error) {
	cfg, err := config.Load(f.dir, f.config)
	if err != nil {
		return nil, nil, err
	}
	p := pipeline.New(cfg, n)
	width := p.Library().LongestID(runner.InternalTaskPipeline, session.InternalTaskWatch, session.InternalTaskServer)
	return p, printer.New(width, os.Stdout, f.profile), nil
}

func (f *flags) dev(ctx context.Context) error {
	// The printer is sized from a pipeline with no notifier, since the hub
	// it publishes to logs through the printer.
	sizing, pr, err := f.load(nil)
	if err != nil {
		return err
	}

	var (
		cfg    = sizing.Config()
		log    = pr.Writer(session.InternalTaskServer)
		hub    = livereload.NewHub(log)
		p      = pipeline.New(cfg, hub)
		server = livereload.NewServer(cfg.Server.Addr, cfg.Path(cfg.Base), hub, log)
	)
	return session.New(session.Options{
		Dir:      cfg.Dir,
		Output:   pr,
		Server:   server,
		Notifier: hub,
		Initial:  p.Dev(),
		Bindings: p.Bindings(),
	}).Run(ctx)
}
