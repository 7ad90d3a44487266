package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"AlertTrack/internal/app"
	"AlertTrack/internal/config"
	"AlertTrack/internal/domain"
	"AlertTrack/internal/infrastructure/csvstore"
	"AlertTrack/internal/logging"
	"AlertTrack/internal/render"
	"AlertTrack/internal/usecase"
)

type rootOptions struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "alerttrack",
		Short: "Scrape and enrich drug safety alerts",
		Long: `alerttrack reads the Drug Safety Update listing, enriches every alert with
its detail page and linked PDF, and writes the result as a CSV dataset.`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to config file (default $ALERTTRACK_CONFIG or "+config.DefaultPath()+")")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override logging.level (debug, info, warn, error)")

	cmd.AddCommand(
		newScanCmd(opts),
		newWatchCmd(opts),
		newListCmd(opts),
		newRunsCmd(opts),
		newSummarizeCmd(opts),
		newStrategiesCmd(opts),
		newVersionCmd(),
	)
	return cmd
}

func (o *rootOptions) load() (config.Config, *slog.Logger, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return config.Config{}, nil, err
	}
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}
	return cfg, logging.New(cfg.Logging.Level), nil
}

// withApp builds the application, runs fn and always closes it.
func (o *rootOptions) withApp(ctx context.Context, tweak func(*config.Config) error, fn func(*app.Application, config.Config) error) error {
	cfg, logger, err := o.load()
	if err != nil {
		return err
	}
	if tweak != nil {
		if err := tweak(&cfg); err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := application.Close(context.WithoutCancel(ctx)); cerr != nil {
			logger.Warn("shutdown incomplete", "error", cerr)
		}
	}()

	return fn(application, cfg)
}

func newScanCmd(opts *rootOptions) *cobra.Command {
	var (
		strategyName string
		output       string
		schema       string
		documents    bool
	)
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Run the pipeline once and write the dataset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tweak := func(cfg *config.Config) error {
				if output != "" {
					cfg.Output.Path = output
				}
				if schema != "" {
					cfg.Output.Schema = schema
				}
				if strategyName != "" {
					cfg.Extraction.Strategy = strategyName
				}
				if cmd.Flags().Changed("documents") {
					cfg.Extraction.ExtractDocumentText = documents
				}
				return nil
			}
			return opts.withApp(cmd.Context(), tweak, func(a *app.Application, cfg config.Config) error {
				result, err := a.Scan(cmd.Context(), cfg.Extraction.Strategy)
				if stage, ok := domain.FailedStage(err); ok && stage != domain.StageListing && stage != domain.StageEnrich {
					// enrichment finished; report what was collected before failing
					printScanSummary(cmd, result, cfg.Output.Path, stage != domain.StageWrite)
					return err
				}
				if err != nil {
					return err
				}
				printScanSummary(cmd, result, cfg.Output.Path, true)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&strategyName, "strategy", "s", "", "extraction strategy (markdown, document, html)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "override output.path")
	cmd.Flags().StringVar(&schema, "schema", "", "override output.schema (auto, minimal, extended)")
	cmd.Flags().BoolVar(&documents, "documents", false, "download linked PDFs and store their text")
	return cmd
}

func printScanSummary(cmd *cobra.Command, result usecase.Result, path string, written bool) {
	out := cmd.OutOrStdout()
	if written {
		fmt.Fprintf(out, "wrote %d alerts to %s", result.Run.Records, path)
	} else {
		fmt.Fprintf(out, "collected %d alerts, %s was not written", result.Run.Records, path)
	}
	if result.Run.Failures > 0 {
		fmt.Fprintf(out, " (%d with errors)", result.Run.Failures)
	}
	fmt.Fprintf(out, "\nrun %s\n", result.Run.ID)
}

func newWatchCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Rescan on the configured interval until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withApp(cmd.Context(), nil, func(a *app.Application, _ config.Config) error {
				return a.Watch(cmd.Context())
			})
		},
	}
}

func newListCmd(opts *rootOptions) *cobra.Command {
	var (
		file   string
		width  int
		runID  string
		fromDB bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print a dataset as a table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if fromDB || runID != "" {
				return opts.withApp(cmd.Context(), nil, func(a *app.Application, _ config.Config) error {
					_, dataset, err := a.LoadRun(cmd.Context(), runID)
					if err != nil {
						return err
					}
					return render.Alerts(cmd.OutOrStdout(), dataset, width)
				})
			}

			if file == "" {
				cfg, _, err := opts.load()
				if err != nil {
					return err
				}
				file = cfg.Output.Path
			}
			dataset, _, err := csvstore.Read(file)
			if err != nil {
				return err
			}
			return render.Alerts(cmd.OutOrStdout(), dataset, width)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "CSV dataset to read (default output.path)")
	cmd.Flags().IntVar(&width, "width", render.DefaultTitleWidth, "maximum title column width")
	cmd.Flags().BoolVar(&fromDB, "latest", false, "read the latest stored run instead of the CSV")
	cmd.Flags().StringVar(&runID, "run", "", "read a stored run by id")
	return cmd
}

func newRunsCmd(opts *rootOptions) *cobra.Command {
	var limit uint64
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List stored run snapshots, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withApp(cmd.Context(), nil, func(a *app.Application, _ config.Config) error {
				runs, err := a.Runs(cmd.Context(), limit)
				if errors.Is(err, app.ErrStorageDisabled) {
					return fmt.Errorf("%w: set storage.driver and storage.dsn", err)
				}
				if err != nil {
					return err
				}
				return render.Runs(cmd.OutOrStdout(), runs)
			})
		},
	}
	cmd.Flags().Uint64VarP(&limit, "limit", "n", 20, "number of runs to show")
	return cmd
}

func newSummarizeCmd(opts *rootOptions) *cobra.Command {
	var (
		file  string
		index int
	)
	cmd := &cobra.Command{
		Use:   "summarize",
		Short: "Summarize alerts from a dataset with ChatGPT",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withApp(cmd.Context(), nil, func(a *app.Application, cfg config.Config) error {
				if file == "" {
					file = cfg.Output.Path
				}
				dataset, _, err := csvstore.Read(file)
				if err != nil {
					return err
				}
				selected, err := selectAlerts(dataset, index)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				for i, alert := range selected {
					if i > 0 {
						fmt.Fprintln(out)
					}
					fmt.Fprintf(out, "%s\n%s\n", alert.Title, usecase.Summarize(cmd.Context(), a.Summarizer(), alert))
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "CSV dataset to read (default output.path)")
	cmd.Flags().IntVarP(&index, "index", "i", 0, "1-based row to summarize; 0 summarizes every row")
	return cmd
}

func selectAlerts(dataset domain.EnrichedDataset, index int) (domain.EnrichedDataset, error) {
	switch {
	case index == 0:
		return dataset, nil
	case index < 0 || index > len(dataset):
		return nil, fmt.Errorf("index %d out of range 1..%d", index, len(dataset))
	default:
		return dataset[index-1 : index], nil
	}
}

func newStrategiesCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "strategies",
		Short: "List available extraction strategies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withApp(cmd.Context(), nil, func(a *app.Application, cfg config.Config) error {
				for _, name := range a.Strategies() {
					marker := " "
					if name == cfg.Extraction.Strategy {
						marker = "*"
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", marker, name)
				}
				return nil
			})
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "alerttrack %s (commit: %s)\n", version, commit)
		},
	}
}
