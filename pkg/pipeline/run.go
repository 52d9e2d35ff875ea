package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-hclog"

	"github.com/mahajialirezaei/MachineLearning-PricePrediction/pkg/config"
	"github.com/mahajialirezaei/MachineLearning-PricePrediction/pkg/data"
	"github.com/mahajialirezaei/MachineLearning-PricePrediction/pkg/dataprep"
	"github.com/mahajialirezaei/MachineLearning-PricePrediction/pkg/model"
	"github.com/mahajialirezaei/MachineLearning-PricePrediction/pkg/report"
	"github.com/mahajialirezaei/MachineLearning-PricePrediction/pkg/stats"
)

const (
	ImportancePlot = "feature_importance.png"
	PredictionPlot = "predicted_prices.png"
)

// Options carries the configuration and sinks of a run.
type Options struct {
	Config config.Config
	Logger hclog.Logger // defaults to a null logger
	Out    io.Writer    // console report, discarded when nil
}

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = hclog.NewNullLogger()
	}
	if o.Out == nil {
		o.Out = io.Discard
	}
	return o
}

// Result is what a run produced.
type Result struct {
	Schema      Schema
	Predictions []float64
	TrainMSE    float64
	TrainMAE    float64
	TrainR2     float64
	OutputPath  string
	Plots       []string

	// forest only
	BestParams  model.Params
	BestScore   float64
	CVResults   []model.CVResult
	Importances []report.Importance
}

func loadTables(in config.Inputs, logger hclog.Logger) (*data.Frame, *data.Frame, error) {
	read := func(path string) (*data.Frame, error) {
		f, err := data.ReadCSV(path)
		if data.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %w", ErrInputMissing, err)
		}
		if err != nil {
			return nil, stageErr(StageLoad, err)
		}
		return f, nil
	}
	train, err := read(in.Train)
	if err != nil {
		return nil, nil, err
	}
	test, err := read(in.Test)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("datasets loaded", "train", in.Train, "train_rows", train.Rows(), "test", in.Test, "test_rows", test.Rows())
	return train, test, nil
}

// clean drops the id column and fills numeric gaps of each table from its
// own statistics, then returns the training target.
func clean(cfg config.Config, train, test *data.Frame, logger hclog.Logger) ([]float64, error) {
	strategy, err := dataprep.ParseStrategy(cfg.Impute)
	if err != nil {
		return nil, stageErr(StageClean, err)
	}
	for name, f := range map[string]*data.Frame{"train": train, "test": test} {
		r := dataprep.Clean(f, cfg.IDColumn, strategy)
		logger.Debug("table cleaned", "table", name, "dropped_id", r.DroppedID, "filled", len(r.Filled))
		for col, n := range r.Remaining {
			logger.Warn("column has no observed values", "table", name, "column", col, "missing", n)
		}
	}
	y, err := train.Floats(cfg.Target)
	if err != nil {
		return nil, stageErr(StageClean, fmt.Errorf("target: %w", err))
	}
	return append([]float64(nil), y...), nil
}

func printOverview(w io.Writer, cfg config.Config, train *data.Frame) error {
	cs, err := dataprep.Correlations(train, cfg.Target)
	if err != nil {
		return err
	}
	if err := report.Correlations(w, cfg.Target, cs); err != nil {
		return err
	}
	cols := train.NumericColumns()
	names := make([]string, len(cols))
	vals := make([][]float64, len(cols))
	for i, c := range cols {
		names[i], vals[i] = c.Name, c.Num
	}
	return report.Covariance(w, names, stats.CovarianceMatrix(vals))
}

func writePredictions(cfg config.Config, preds []float64, logger hclog.Logger) error {
	if err := data.WritePredictions(cfg.OutputPath, cfg.OutputHeader, preds); err != nil {
		return stageErr(StageWrite, err)
	}
	logger.Info("predictions saved", "path", cfg.OutputPath, "rows", len(preds))
	return nil
}

// savePlots renders the enabled charts; an empty series skips its chart.
func savePlots(cfg config.Config, imps []report.Importance, preds []float64, logger hclog.Logger) ([]string, error) {
	if !cfg.Plots.Enabled {
		return nil, nil
	}
	if err := os.MkdirAll(cfg.Plots.Dir, 0o755); err != nil {
		return nil, stageErr(StagePlot, err)
	}
	size := report.ChartSize{Width: cfg.Plots.Width, Height: cfg.Plots.Height}
	var saved []string
	render := func(name string, draw func(string) error) error {
		path := filepath.Join(cfg.Plots.Dir, name)
		err := draw(path)
		if report.IsNoData(err) {
			logger.Debug("chart skipped", "chart", name)
			return nil
		}
		if err != nil {
			return stageErr(StagePlot, err)
		}
		saved = append(saved, path)
		logger.Debug("chart saved", "path", path)
		return nil
	}
	if imps != nil {
		if err := render(ImportancePlot, func(p string) error { return report.ImportanceChart(p, imps, size) }); err != nil {
			return saved, err
		}
	}
	if err := render(PredictionPlot, func(p string) error { return report.PredictionChart(p, preds, size) }); err != nil {
		return saved, err
	}
	return saved, nil
}

// RunForest selects features by correlation with the target, standardizes
// them, grid-searches a random forest on the log target and writes the
// back-transformed test predictions.
func RunForest(ctx context.Context, opts Options) (*Result, error) {
	opts = opts.withDefaults()
	cfg, logger, w := opts.Config, opts.Logger.Named("forest"), opts.Out

	train, test, err := loadTables(cfg.Forest.Inputs, logger)
	if err != nil {
		return nil, err
	}
	if err := report.Preview(w, "Train head:", train, cfg.PreviewRows); err != nil {
		return nil, stageErr(StageLoad, err)
	}

	y, err := clean(cfg, train, test, logger)
	if err != nil {
		return nil, err
	}

	if err := printOverview(w, cfg, train); err != nil {
		return nil, stageErr(StageFeatures, err)
	}
	selector := &CorrelationSelector{Target: cfg.Target, Threshold: cfg.Forest.CorrelationThreshold}
	prep := NewPipeline(selector, &Standardizer{})
	trainX, err := prep.FitTransform(train)
	if err != nil {
		return nil, stageErr(StageFeatures, err)
	}
	testX, err := prep.Transform(test)
	if err != nil {
		return nil, stageErr(StageFeatures, err)
	}
	schema := Schema{Target: cfg.Target, FeatureNames: selector.Selected}
	logger.Info("features selected", "count", len(schema.FeatureNames), "threshold", cfg.Forest.CorrelationThreshold)
	logger.Debug("selected features", "names", schema.FeatureNames)

	Xtr, err := trainX.Matrix(schema.FeatureNames...)
	if err != nil {
		return nil, stageErr(StageFeatures, err)
	}
	Xte, err := testX.Matrix(schema.FeatureNames...)
	if err != nil {
		return nil, stageErr(StageFeatures, err)
	}

	gs := model.NewGridSearchCV(cfg.Forest.Grid, cfg.Forest.RandomState)
	gs.Folds = cfg.Forest.CVFolds
	gs.NJobs = cfg.Forest.NJobs
	gs.MaxFeatures = cfg.Forest.MaxFeatures
	gs.Bootstrap = cfg.Forest.Bootstrap
	logger.Info("grid search started", "candidates", len(cfg.Forest.Grid.Candidates()), "folds", gs.Folds)
	if err := gs.Fit(ctx, Xtr, dataprep.Log1p(y)); err != nil {
		return nil, stageErr(StageFit, err)
	}
	logger.Info("model trained", "best", gs.BestParams.String(), "score", gs.BestScore)
	report.BestParams(w, gs.BestParams, gs.BestScore)

	fitted, err := gs.BestEstimator.Predict(Xtr)
	if err != nil {
		return nil, stageErr(StageEvaluate, err)
	}
	fitted = dataprep.Expm1(fitted)
	res := &Result{
		Schema:     schema,
		TrainMSE:   model.MSE(y, fitted),
		TrainMAE:   model.MAE(y, fitted),
		TrainR2:    model.R2(y, fitted),
		OutputPath: cfg.OutputPath,
		BestParams: gs.BestParams,
		BestScore:  gs.BestScore,
		CVResults:  gs.Results,
	}
	report.Metrics(w, res.TrainMSE, res.TrainMAE, res.TrainR2)
	if fi, ok := gs.BestEstimator.(model.FeatureImporter); ok {
		res.Importances = report.RankImportances(schema.FeatureNames, fi.FeatureImportances())
		if err := report.Importances(w, res.Importances); err != nil {
			return nil, stageErr(StageEvaluate, err)
		}
	}

	preds, err := gs.BestEstimator.Predict(Xte)
	if err != nil {
		return nil, stageErr(StagePredict, err)
	}
	res.Predictions = dataprep.Expm1(preds)

	if err := writePredictions(cfg, res.Predictions, logger); err != nil {
		return nil, err
	}
	imps := res.Importances
	if imps == nil {
		imps = []report.Importance{}
	}
	res.Plots, err = savePlots(cfg, imps, res.Predictions, logger)
	if err != nil {
		return res, err
	}
	return res, nil
}

// RunLinear dummy-encodes both tables onto the training columns, fits
// ordinary least squares and writes the test predictions.
func RunLinear(ctx context.Context, opts Options) (*Result, error) {
	opts = opts.withDefaults()
	cfg, logger, w := opts.Config, opts.Logger.Named("linear"), opts.Out

	train, test, err := loadTables(cfg.Linear.Inputs, logger)
	if err != nil {
		return nil, err
	}
	if err := report.Preview(w, "Train head:", train, cfg.PreviewRows); err != nil {
		return nil, stageErr(StageLoad, err)
	}
	if err := report.Preview(w, "Test head:", test, cfg.PreviewRows); err != nil {
		return nil, stageErr(StageLoad, err)
	}

	y, err := clean(cfg, train, test, logger)
	if err != nil {
		return nil, err
	}

	enc := &DummyEncoder{Target: cfg.Target, DropFirst: cfg.Linear.DropFirst}
	prep := NewPipeline(enc)
	trainX, err := prep.FitTransform(train)
	if err != nil {
		return nil, stageErr(StageFeatures, err)
	}
	testX, err := prep.Transform(test)
	if err != nil {
		return nil, stageErr(StageFeatures, err)
	}
	schema := Schema{Target: cfg.Target, FeatureNames: enc.Columns}
	logger.Info("features encoded", "count", len(schema.FeatureNames))

	Xtr, err := trainX.Matrix(schema.FeatureNames...)
	if err != nil {
		return nil, stageErr(StageFeatures, err)
	}
	Xte, err := testX.Matrix(schema.FeatureNames...)
	if err != nil {
		return nil, stageErr(StageFeatures, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, stageErr(StageFit, err)
	}

	lr := model.NewLinearRegression()
	if err := lr.Fit(Xtr, y); err != nil {
		return nil, stageErr(StageFit, err)
	}
	logger.Info("model trained", "features", len(lr.W), "rank", lr.Rank)

	fitted, err := lr.Predict(Xtr)
	if err != nil {
		return nil, stageErr(StageEvaluate, err)
	}
	res := &Result{
		Schema:     schema,
		TrainMSE:   model.MSE(y, fitted),
		TrainMAE:   model.MAE(y, fitted),
		TrainR2:    model.R2(y, fitted),
		OutputPath: cfg.OutputPath,
	}
	report.Metrics(w, res.TrainMSE, res.TrainMAE, res.TrainR2)

	res.Predictions, err = lr.Predict(Xte)
	if err != nil {
		return nil, stageErr(StagePredict, err)
	}
	report.Predictions(w, res.Predictions)

	if err := writePredictions(cfg, res.Predictions, logger); err != nil {
		return nil, err
	}
	res.Plots, err = savePlots(cfg, nil, res.Predictions, logger)
	if err != nil {
		return res, err
	}
	return res, nil
}
