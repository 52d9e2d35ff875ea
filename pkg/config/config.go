// Package config holds the named settings of both pipelines.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/hashicorp/go-hclog"
	"gopkg.in/yaml.v3"

	"github.com/mahajialirezaei/MachineLearning-PricePrediction/pkg/dataprep"
	"github.com/mahajialirezaei/MachineLearning-PricePrediction/pkg/model"
)

// Inputs names the files a pipeline reads.
type Inputs struct {
	Train string `yaml:"train"`
	Test  string `yaml:"test"`
}

// ForestConfig tunes the correlation/random-forest pipeline.
type ForestConfig struct {
	Inputs               Inputs          `yaml:"inputs"`
	CorrelationThreshold float64         `yaml:"correlation_threshold"`
	Grid                 model.ParamGrid `yaml:"grid"`
	CVFolds              int             `yaml:"cv_folds"`
	RandomState          int64           `yaml:"random_state"`
	NJobs                int             `yaml:"n_jobs"`
	MaxFeatures          int             `yaml:"max_features"` // 0 => all
	Bootstrap            bool            `yaml:"bootstrap"`
}

// LinearConfig tunes the dummy-encoding/linear pipeline.
type LinearConfig struct {
	Inputs    Inputs `yaml:"inputs"`
	DropFirst bool   `yaml:"drop_first"`
}

// PlotConfig controls the saved charts.
type PlotConfig struct {
	Enabled bool    `yaml:"enabled"`
	Dir     string  `yaml:"dir"`
	Width   float64 `yaml:"width"`  // inches
	Height  float64 `yaml:"height"` // inches
}

type Config struct {
	Target       string       `yaml:"target"`
	IDColumn     string       `yaml:"id_column"`
	Impute       string       `yaml:"impute"`
	OutputPath   string       `yaml:"output_path"`
	OutputHeader string       `yaml:"output_header"`
	PreviewRows  int          `yaml:"preview_rows"`
	LogLevel     string       `yaml:"log_level"`
	Forest       ForestConfig `yaml:"forest"`
	Linear       LinearConfig `yaml:"linear"`
	Plots        PlotConfig   `yaml:"plots"`
}

// Default returns the settings both pipelines run with out of the box.
func Default() Config {
	return Config{
		Target:       "SalePrice",
		IDColumn:     "Id",
		Impute:       "mean",
		OutputPath:   "result.csv",
		OutputHeader: "Predicted Sale Price",
		PreviewRows:  5,
		LogLevel:     "info",
		Forest: ForestConfig{
			Inputs:               Inputs{Train: "train.csv", Test: "test.csv"},
			CorrelationThreshold: 0.3,
			Grid: model.ParamGrid{
				NEstimators:     []int{100, 200, 300},
				MaxDepth:        []int{0, 10, 20, 30},
				MinSamplesSplit: []int{2, 5, 10},
			},
			CVFolds:     3,
			RandomState: 42,
			Bootstrap:   true,
		},
		Linear: LinearConfig{
			Inputs:    Inputs{Train: "train.csv", Test: "train.csv"},
			DropFirst: true,
		},
		Plots: PlotConfig{Enabled: true, Dir: ".", Width: 10, Height: 6},
	}
}

// Load reads a YAML file over the defaults. An empty path yields Default().
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := decode(bytes.NewReader(raw), &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

func decode(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	switch {
	case c.Target == "":
		return errors.New("config: target must be set")
	case c.OutputPath == "":
		return errors.New("config: output_path must be set")
	case c.OutputHeader == "":
		return errors.New("config: output_header must be set")
	case c.PreviewRows < 0:
		return fmt.Errorf("config: preview_rows must be >= 0, got %d", c.PreviewRows)
	case c.Forest.CorrelationThreshold < 0 || c.Forest.CorrelationThreshold > 1:
		return fmt.Errorf("config: correlation_threshold must be in [0,1], got %v", c.Forest.CorrelationThreshold)
	case c.Forest.CVFolds < 2:
		return fmt.Errorf("config: cv_folds must be >= 2, got %d", c.Forest.CVFolds)
	case c.Forest.NJobs < 0:
		return fmt.Errorf("config: n_jobs must be >= 0, got %d", c.Forest.NJobs)
	case c.Forest.MaxFeatures < 0:
		return fmt.Errorf("config: max_features must be >= 0, got %d", c.Forest.MaxFeatures)
	case c.Plots.Enabled && (c.Plots.Width <= 0 || c.Plots.Height <= 0):
		return errors.New("config: plot width and height must be positive")
	}
	for name, in := range map[string]Inputs{"forest": c.Forest.Inputs, "linear": c.Linear.Inputs} {
		if in.Train == "" || in.Test == "" {
			return fmt.Errorf("config: %s inputs need both train and test paths", name)
		}
	}
	if _, err := dataprep.ParseStrategy(c.Impute); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if hclog.LevelFromString(c.LogLevel) == hclog.NoLevel {
		return fmt.Errorf("config: unknown log_level %q", c.LogLevel)
	}
	if err := c.Forest.Grid.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}
