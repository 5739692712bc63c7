// Command witcherkg builds the Witcher knowledge graph from the wiki dump,
// the ontology, the map layers and the in-game map pins.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"witcherkg/pkg/config"
	"witcherkg/pkg/logging"
	"witcherkg/pkg/ontology"
	"witcherkg/pkg/pipeline"
	"witcherkg/pkg/probe"
	"witcherkg/pkg/rdf"
	"witcherkg/pkg/version"
)

// exitFatal is the exit code of a build that wrote its graph but recorded
// fatal errors.
const exitFatal = 2

func main() {
	// A missing .env is fine; the config file and defaults still apply.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd(os.Stdout).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if errors.Is(err, pipeline.ErrFatal) {
			os.Exit(exitFatal)
		}
		os.Exit(1)
	}
}

func rootCmd(out io.Writer) *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           "witcherkg",
		Short:         "Build the Witcher knowledge graph",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetOut(out)
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "Config file path (YAML)")

	cmd.AddCommand(buildCmd(&configPath), initConfigCmd(&configPath), classesCmd(&configPath))
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "witcherkg %s\n", version.Version)
		},
	})
	return cmd
}

func buildCmd(configPath *string) *cobra.Command {
	var logLevel string
	var skipProbes bool

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Run the full pipeline and write the graph",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if logLevel != "" {
				cfg.Log.Level = logLevel
			}
			return runBuild(cmd.Context(), cfg, cmd.OutOrStdout(), !skipProbes)
		},
	}
	cmd.Flags().StringVar(&logLevel, "log-level", "", "Log level override (debug, info, warn, error)")
	cmd.Flags().BoolVar(&skipProbes, "skip-probes", false, "Do not run the startup input checks")
	return cmd
}

func runBuild(ctx context.Context, cfg *config.Config, console io.Writer, probes bool) error {
	cleanup, err := logging.InitWriter(&cfg.Log, console)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer cleanup()

	logger := slog.Default()
	logger.Info("witcherkg started", "version", version.Version, "output", cfg.Output.Path)

	if probes {
		if err := probe.AnalyzeResults(logger, probe.Run(ctx, probe.ForConfig(cfg))); err != nil {
			return fmt.Errorf("startup checks failed: %w", err)
		}
	}

	report, err := pipeline.New(cfg, logger).Run(ctx)
	if report != nil {
		printReport(console, report)
	}
	return err
}

func printReport(w io.Writer, r *pipeline.Report) {
	fmt.Fprintf(w, "run %s: %d triples, %d pages, %d warnings, %d errors in %s\n",
		r.RunID, r.Triples, r.Pages, len(r.Warnings), len(r.Errors), r.Duration.Round(time.Millisecond))
	if r.Output != "" {
		fmt.Fprintf(w, "graph written to %s\n", r.Output)
	}
	for _, e := range r.Errors {
		fmt.Fprintf(w, "  error: %v\n", e)
	}
}

func initConfigCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "init-config",
		Short: "Write the default config file and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.GenerateDefault(*configPath); err != nil {
				return fmt.Errorf("failed to generate config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Config file generated: %s\n", *configPath)
			return nil
		},
	}
}

func classesCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "classes",
		Short: "List the ontology classes pages can be typed with",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			ns := rdf.Namespaces{
				Ontology: rdf.Namespace(cfg.Namespaces.Ontology),
				Resource: rdf.Namespace(cfg.Namespaces.Resource),
			}
			classes, err := ontology.Load(cmd.Context(), cfg.Input.Classes, rdf.NewGraph(nil), ns, nil)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, c := range classes.Classes() {
				fmt.Fprintln(out, c.LocalName())
			}
			return nil
		},
	}
}
