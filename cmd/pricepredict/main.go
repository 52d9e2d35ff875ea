// Command pricepredict trains a house-price model on a CSV table and writes
// predictions for a second table.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/mahajialirezaei/MachineLearning-PricePrediction/pkg/config"
	"github.com/mahajialirezaei/MachineLearning-PricePrediction/pkg/pipeline"
)

const (
	exitFailure      = 1
	exitInputMissing = 2
)

type runFunc func(context.Context, pipeline.Options) (*pipeline.Result, error)

// app holds the flag values shared by every subcommand.
type app struct {
	configPath string
	train      string
	test       string
	output     string
	plotDir    string
	noPlots    bool
	logLevel   string

	out    io.Writer
	errOut io.Writer
	logger hclog.Logger
}

func newRootCmd(out, errOut io.Writer) (*cobra.Command, *app) {
	a := &app{out: out, errOut: errOut}
	root := &cobra.Command{
		Use:           "pricepredict",
		Short:         "Predict house sale prices from tabular features",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.SetErr(errOut)

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "YAML configuration file")
	pf.StringVar(&a.train, "train", "", "training CSV (overrides config)")
	pf.StringVar(&a.test, "test", "", "test CSV (overrides config)")
	pf.StringVar(&a.output, "output", "", "predictions CSV (overrides config)")
	pf.StringVar(&a.plotDir, "plot-dir", "", "directory for PNG charts (overrides config)")
	pf.BoolVar(&a.noPlots, "no-plots", false, "skip saving charts")
	pf.StringVar(&a.logLevel, "log-level", "", "trace, debug, info, warn or error (overrides config)")

	root.AddCommand(
		a.pipelineCmd("forest", "Correlation-selected features, standardized, grid-searched random forest on log prices",
			func(c *config.Config) *config.Inputs { return &c.Forest.Inputs }, pipeline.RunForest),
		a.pipelineCmd("linear", "Dummy-encoded features fitted with ordinary least squares",
			func(c *config.Config) *config.Inputs { return &c.Linear.Inputs }, pipeline.RunLinear),
	)
	return root, a
}

func (a *app) pipelineCmd(name, short string, inputs func(*config.Config) *config.Inputs, run runFunc) *cobra.Command {
	return &cobra.Command{
		Use:   name,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(cmd, inputs)
			if err != nil {
				return err
			}
			a.logger = hclog.New(&hclog.LoggerOptions{
				Name:   "pricepredict",
				Level:  hclog.LevelFromString(cfg.LogLevel),
				Output: a.errOut,
			})
			res, err := run(cmd.Context(), pipeline.Options{Config: cfg, Logger: a.logger, Out: a.out})
			if err != nil {
				return err
			}
			a.logger.Info("run finished", "pipeline", name, "predictions", len(res.Predictions), "output", res.OutputPath)
			return nil
		},
	}
}

// loadConfig reads the config file and applies explicitly set flags.
func (a *app) loadConfig(cmd *cobra.Command, inputs func(*config.Config) *config.Inputs) (config.Config, error) {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return cfg, err
	}
	flags := cmd.Flags()
	in := inputs(&cfg)
	if flags.Changed("train") {
		in.Train = a.train
	}
	if flags.Changed("test") {
		in.Test = a.test
	}
	if flags.Changed("output") {
		cfg.OutputPath = a.output
	}
	if flags.Changed("plot-dir") {
		cfg.Plots.Dir = a.plotDir
	}
	if a.noPlots {
		cfg.Plots.Enabled = false
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = a.logLevel
	}
	return cfg, cfg.Validate()
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, pipeline.ErrInputMissing):
		return exitInputMissing
	default:
		return exitFailure
	}
}

func execute(ctx context.Context, args []string, out, errOut io.Writer) int {
	root, a := newRootCmd(out, errOut)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if err != nil {
		if a.logger != nil {
			a.logger.Error("run failed", "error", err)
		} else {
			fmt.Fprintln(errOut, "Error:", err)
		}
	}
	return exitCode(err)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
