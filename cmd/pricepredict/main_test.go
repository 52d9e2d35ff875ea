package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mahajialirezaei/MachineLearning-PricePrediction/pkg/pipeline"
)

func write(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, exitCode(nil))
	assert.Equal(t, exitInputMissing, exitCode(fmt.Errorf("%w: %w", pipeline.ErrInputMissing, os.ErrNotExist)))
	assert.Equal(t, exitFailure, exitCode(&pipeline.StageError{Stage: pipeline.StageFit, Err: os.ErrInvalid}))
}

func TestLinearCommand(t *testing.T) {
	dir := t.TempDir()
	train := write(t, dir, "train.csv", "Id,SalePrice,LotArea\n1,200000,8000\n2,250000,9600\n")
	test := write(t, dir, "test.csv", "Id,LotArea\n3,9000\n")
	output := filepath.Join(dir, "result.csv")

	var out, errOut bytes.Buffer
	code := execute(context.Background(), []string{
		"linear", "--train", train, "--test", test, "--output", output, "--no-plots", "--log-level", "debug",
	}, &out, &errOut)
	require.Equal(t, 0, code, errOut.String())

	raw, err := os.ReadFile(output)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Predicted Sale Price", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "231"), lines[1])
	assert.Contains(t, errOut.String(), "predictions saved")
}

func TestMissingInputExitsTwo(t *testing.T) {
	dir := t.TempDir()
	var out, errOut bytes.Buffer
	code := execute(context.Background(), []string{
		"forest", "--train", filepath.Join(dir, "missing.csv"), "--output", filepath.Join(dir, "r.csv"),
	}, &out, &errOut)
	assert.Equal(t, exitInputMissing, code)
	assert.Contains(t, errOut.String(), "run failed")
}

func TestConfigFileAndFlags(t *testing.T) {
	dir := t.TempDir()
	cfgPath := write(t, dir, "config.yaml", "output_header: Price\nplots:\n  enabled: false\n")
	train := write(t, dir, "train.csv", "SalePrice,LotArea\n1,1\n2,2\n3,3\n")
	output := filepath.Join(dir, "out.csv")

	var out, errOut bytes.Buffer
	code := execute(context.Background(), []string{
		"linear", "--config", cfgPath, "--train", train, "--test", train, "--output", output,
	}, &out, &errOut)
	require.Equal(t, 0, code, errOut.String())

	raw, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(raw), "Price\n"))
	assert.NoFileExists(t, filepath.Join(dir, pipeline.PredictionPlot))
}

func TestBadConfigExitsOne(t *testing.T) {
	dir := t.TempDir()
	cfgPath := write(t, dir, "config.yaml", "unknown_key: 1\n")
	var out, errOut bytes.Buffer
	code := execute(context.Background(), []string{"linear", "--config", cfgPath}, &out, &errOut)
	assert.Equal(t, exitFailure, code)
	assert.Contains(t, errOut.String(), "Error:")
}
