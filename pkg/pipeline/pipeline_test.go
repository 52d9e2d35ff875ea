package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mahajialirezaei/MachineLearning-PricePrediction/pkg/config"
	"github.com/mahajialirezaei/MachineLearning-PricePrediction/pkg/data"
	"github.com/mahajialirezaei/MachineLearning-PricePrediction/pkg/model"
)

func writeCSV(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(strings.TrimRight(string(raw), "\n"), "\n")
}

func testConfig(dir string) config.Config {
	cfg := config.Default()
	cfg.OutputPath = filepath.Join(dir, "result.csv")
	cfg.Plots.Dir = filepath.Join(dir, "plots")
	return cfg
}

func TestRunLinearTwoRowEndToEnd(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)
	cfg.Linear.Inputs = config.Inputs{
		Train: writeCSV(t, dir, "train.csv", "Id,SalePrice,LotArea\n1,200000,8000\n2,250000,9600\n"),
		Test:  writeCSV(t, dir, "test.csv", "Id,LotArea\n3,9000\n"),
	}

	var out bytes.Buffer
	res, err := RunLinear(context.Background(), Options{Config: cfg, Out: &out})
	require.NoError(t, err)

	assert.Equal(t, []string{"LotArea"}, res.Schema.FeatureNames)
	require.Len(t, res.Predictions, 1)
	assert.InDelta(t, 231250.0, res.Predictions[0], 1e-6)
	assert.InDelta(t, 1.0, res.TrainR2, 1e-9)

	lines := readLines(t, cfg.OutputPath)
	require.Len(t, lines, 2)
	assert.Equal(t, "Predicted Sale Price", lines[0])
	got, err := strconv.ParseFloat(lines[1], 64)
	require.NoError(t, err)
	assert.InDelta(t, 231250.0, got, 1e-6)

	assert.Equal(t, []string{filepath.Join(cfg.Plots.Dir, PredictionPlot)}, res.Plots)
	assert.FileExists(t, res.Plots[0])
	assert.Contains(t, out.String(), "Predicted Prices on Test Data")
}

func TestRunLinearAlignsDummyColumns(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)
	cfg.Plots.Enabled = false
	cfg.Linear.Inputs = config.Inputs{
		Train: writeCSV(t, dir, "train.csv", strings.Join([]string{
			"Id,SalePrice,LotArea,Street",
			"1,100,10,Grvl",
			"2,220,20,Pave",
			"3,300,30,Grvl",
			"4,,40,Pave",
			"5,520,50,Pave",
		}, "\n")),
		Test: writeCSV(t, dir, "test.csv", strings.Join([]string{
			"Id,LotArea,Street,Extra",
			"6,15,Dirt,1",
			"7,,Pave,2",
			"8,35,,3",
		}, "\n")),
	}

	res, err := RunLinear(context.Background(), Options{Config: cfg})
	require.NoError(t, err)
	assert.Equal(t, []string{"LotArea", "Street_Pave"}, res.Schema.FeatureNames)
	assert.Len(t, res.Predictions, 3)
	assert.Empty(t, res.Plots)
	assert.Len(t, readLines(t, cfg.OutputPath), 4)
}

func TestRunLinearDefaultsToTrainAsTest(t *testing.T) {
	cfg := config.Default()
	assert.Equal(t, cfg.Linear.Inputs.Train, cfg.Linear.Inputs.Test)
}

func forestTables(t *testing.T, dir string) config.Inputs {
	t.Helper()
	var train strings.Builder
	train.WriteString("Id,SalePrice,Good,Noise,Street\n")
	for i := 0; i < 30; i++ {
		good := strconv.Itoa(1000 + 50*i)
		if i == 3 {
			good = "NA"
		}
		street := "Pave"
		if i%3 == 0 {
			street = "Grvl"
		}
		fmt.Fprintf(&train, "%d,%d,%s,%d,%s\n", i+1, 100000+5000*i, good, i%2, street)
	}
	test := "Id,Good,Noise,Street\n31,1010,0,Pave\n32,1500,1,Grvl\n33,,0,Pave\n34,2400,1,Pave\n35,1800,0,\n"
	return config.Inputs{
		Train: writeCSV(t, dir, "train.csv", train.String()),
		Test:  writeCSV(t, dir, "test.csv", test),
	}
}

func TestRunForestEndToEnd(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)
	cfg.Forest.Inputs = forestTables(t, dir)
	cfg.Forest.Grid = model.ParamGrid{NEstimators: []int{3}, MaxDepth: []int{0, 2}, MinSamplesSplit: []int{2}}
	cfg.Forest.NJobs = 2

	var out bytes.Buffer
	res, err := RunForest(context.Background(), Options{Config: cfg, Out: &out})
	require.NoError(t, err)

	assert.Equal(t, []string{"Good"}, res.Schema.FeatureNames)
	require.Len(t, res.Predictions, 5)
	for _, p := range res.Predictions {
		assert.GreaterOrEqual(t, p, 100000.0-1e-6)
		assert.LessOrEqual(t, p, 245000.0+1e-6)
	}
	assert.Greater(t, res.TrainR2, 0.8)
	assert.Len(t, res.CVResults, 2)
	assert.Contains(t, []int{0, 2}, res.BestParams.MaxDepth)
	require.Len(t, res.Importances, 1)
	assert.Equal(t, "Good", res.Importances[0].Feature)

	assert.Len(t, readLines(t, cfg.OutputPath), 6)
	require.Len(t, res.Plots, 2)
	for _, p := range res.Plots {
		assert.FileExists(t, p)
	}
	assert.Contains(t, out.String(), "Best Model Found")
	assert.Contains(t, out.String(), "Feature Importance")
}

func TestRunForestIsDeterministic(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)
	cfg.Plots.Enabled = false
	cfg.Forest.Inputs = forestTables(t, dir)
	cfg.Forest.Grid = model.ParamGrid{NEstimators: []int{4}, MaxDepth: []int{3}, MinSamplesSplit: []int{2, 5}}

	a, err := RunForest(context.Background(), Options{Config: cfg})
	require.NoError(t, err)
	b, err := RunForest(context.Background(), Options{Config: cfg})
	require.NoError(t, err)
	assert.Equal(t, a.Predictions, b.Predictions)
	assert.Equal(t, a.BestParams, b.BestParams)
}

func TestRunForestWithoutSelectedFeatures(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)
	cfg.Forest.Grid = model.ParamGrid{NEstimators: []int{2}, MaxDepth: []int{0}, MinSamplesSplit: []int{2}}
	cfg.Forest.Inputs = config.Inputs{
		Train: writeCSV(t, dir, "train.csv", strings.Join([]string{
			"Id,SalePrice,Flat,Street",
			"1,200,5,Pave",
			"2,300,5,Grvl",
			"3,250,5,Pave",
			"4,400,5,Grvl",
			"5,350,5,Pave",
			"6,280,5,Pave",
		}, "\n")),
		Test: writeCSV(t, dir, "test.csv", "Id,Flat,Street\n7,5,Pave\n8,5,Grvl\n9,5,\n"),
	}

	res, err := RunForest(context.Background(), Options{Config: cfg})
	require.NoError(t, err)
	assert.Empty(t, res.Schema.FeatureNames)
	assert.Empty(t, res.Importances)
	require.Len(t, res.Predictions, 3)
	assert.Equal(t, res.Predictions[0], res.Predictions[1])
	assert.Equal(t, res.Predictions[0], res.Predictions[2])
	assert.Greater(t, res.Predictions[0], 200.0)
	assert.Less(t, res.Predictions[0], 400.0)

	assert.Len(t, readLines(t, cfg.OutputPath), 4)
	assert.Equal(t, []string{filepath.Join(cfg.Plots.Dir, PredictionPlot)}, res.Plots)
	assert.NoFileExists(t, filepath.Join(cfg.Plots.Dir, ImportancePlot))
}

func TestRunLinearHeaderOnlyTest(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)
	cfg.Linear.Inputs = config.Inputs{
		Train: writeCSV(t, dir, "train.csv", "Id,SalePrice,LotArea\n1,200000,8000\n2,250000,9600\n"),
		Test:  writeCSV(t, dir, "test.csv", "Id,LotArea\n"),
	}

	res, err := RunLinear(context.Background(), Options{Config: cfg})
	require.NoError(t, err)
	assert.Empty(t, res.Predictions)
	assert.Equal(t, []string{"Predicted Sale Price"}, readLines(t, cfg.OutputPath))
	assert.Empty(t, res.Plots)
}

func TestRunForestPassesForestSettings(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)
	cfg.Plots.Enabled = false
	cfg.Forest.Inputs = forestTables(t, dir)
	cfg.Forest.Grid = model.ParamGrid{NEstimators: []int{1, 3}, MaxDepth: []int{2}, MinSamplesSplit: []int{2}}
	cfg.Forest.Bootstrap = false

	// Without bootstrap every tree sees the same rows, so forest size
	// cannot change the cross-validated score.
	res, err := RunForest(context.Background(), Options{Config: cfg})
	require.NoError(t, err)
	require.Len(t, res.CVResults, 2)
	assert.InDelta(t, res.CVResults[0].MeanScore, res.CVResults[1].MeanScore, 1e-12)
}

func TestRunMissingInput(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)
	cfg.Linear.Inputs = config.Inputs{Train: filepath.Join(dir, "nope.csv"), Test: filepath.Join(dir, "nope.csv")}
	cfg.Forest.Inputs = cfg.Linear.Inputs

	for name, run := range map[string]func(context.Context, Options) (*Result, error){
		"linear": RunLinear,
		"forest": RunForest,
	} {
		t.Run(name, func(t *testing.T) {
			res, err := run(context.Background(), Options{Config: cfg})
			require.Error(t, err)
			assert.Nil(t, res)
			assert.ErrorIs(t, err, ErrInputMissing)
			assert.ErrorIs(t, err, fs.ErrNotExist)
			var se *StageError
			assert.False(t, errors.As(err, &se))
			assert.NoFileExists(t, cfg.OutputPath)
		})
	}
}

func TestRunStageErrors(t *testing.T) {
	dir := t.TempDir()

	t.Run("no target", func(t *testing.T) {
		cfg := testConfig(dir)
		cfg.Linear.Inputs = config.Inputs{
			Train: writeCSV(t, dir, "notarget.csv", "Id,LotArea\n1,2\n2,3\n"),
			Test:  writeCSV(t, dir, "t1.csv", "Id,LotArea\n3,4\n"),
		}
		_, err := RunLinear(context.Background(), Options{Config: cfg})
		var se *StageError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, StageClean, se.Stage)
		assert.ErrorIs(t, err, data.ErrNoColumn)
	})

	t.Run("selected feature absent from test", func(t *testing.T) {
		cfg := testConfig(dir)
		cfg.Forest.Inputs = forestTables(t, dir)
		cfg.Forest.Inputs.Test = writeCSV(t, dir, "t2.csv", "Id,Noise\n1,0\n")
		_, err := RunForest(context.Background(), Options{Config: cfg})
		var se *StageError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, StageFeatures, se.Stage)
		assert.Contains(t, err.Error(), "pipeline: features:")
	})

	t.Run("cancelled", func(t *testing.T) {
		cfg := testConfig(dir)
		cfg.Forest.Inputs = forestTables(t, dir)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := RunForest(ctx, Options{Config: cfg})
		var se *StageError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, StageFit, se.Stage)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestStandardizerDoesNotRefit(t *testing.T) {
	train, err := data.Parse(strings.NewReader("a,b\n1,10\n2,20\n3,30\n"))
	require.NoError(t, err)
	test, err := data.Parse(strings.NewReader("a,b\n2,20\n100,1000\n"))
	require.NoError(t, err)

	s := &Standardizer{}
	_, err = s.Transform(test)
	require.Error(t, err)

	p := NewPipeline(s)
	_, err = p.FitTransform(train)
	require.NoError(t, err)
	mean := append([]float64(nil), s.Scaler.Mean...)

	out, err := p.Transform(test)
	require.NoError(t, err)
	assert.Equal(t, mean, s.Scaler.Mean)
	a, _ := out.Floats("a")
	assert.InDelta(t, 0.0, a[0], 1e-12)
	assert.Greater(t, a[1], 10.0)
}

func TestDummyEncoderRequiresFit(t *testing.T) {
	f, err := data.Parse(strings.NewReader("a,b\n1,x\n"))
	require.NoError(t, err)
	_, err = (&DummyEncoder{}).Transform(f)
	require.Error(t, err)
	_, err = (&CorrelationSelector{}).Transform(f)
	require.Error(t, err)
}
