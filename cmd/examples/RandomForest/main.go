package main

import (
	"fmt"
	"math/rand"

	"github.com/mahajialirezaei/MachineLearning-PricePrediction/pkg/model"
)

// generateRegressionData creates a noisy two-feature dataset.
// Rule: y = 3*x1 - 2*x2 + noise, with a jump of 5 when x1 > 0.
func generateRegressionData(rnd *rand.Rand, n int) (X [][]float64, y []float64) {
	X = make([][]float64, n)
	y = make([]float64, n)
	for i := 0; i < n; i++ {
		x1 := rnd.Float64()*2 - 1 // [-1,1]
		x2 := rnd.Float64()*2 - 1
		X[i] = []float64{x1, x2}
		y[i] = 3*x1 - 2*x2 + rnd.NormFloat64()*0.1
		if x1 > 0 {
			y[i] += 5
		}
	}
	return
}

// trainTestSplit splits dataset into train/test sets with given ratio.
func trainTestSplit(rnd *rand.Rand, X [][]float64, y []float64, testRatio float64) (XTrain [][]float64, yTrain []float64, XTest [][]float64, yTest []float64) {
	n := len(X)
	indices := rnd.Perm(n)
	testSize := int(float64(n) * testRatio)

	for _, i := range indices[testSize:] {
		XTrain = append(XTrain, X[i])
		yTrain = append(yTrain, y[i])
	}
	for _, i := range indices[:testSize] {
		XTest = append(XTest, X[i])
		yTest = append(yTest, y[i])
	}
	return
}

func main() {
	rnd := rand.New(rand.NewSource(42))

	fmt.Println("=== Random Forest Regression Demo with Train/Test Split ===")

	X, y := generateRegressionData(rnd, 1000)
	fmt.Printf("Generated %d samples with 2 features each.\n", len(X))

	XTrain, yTrain, XTest, yTest := trainTestSplit(rnd, X, y, 0.3)
	fmt.Printf("Train size: %d, Test size: %d\n", len(XTrain), len(XTest))

	rf := model.NewRandomForestRegressor(
		model.WithNEstimators(50),
		model.WithSeed(42),
		model.WithTree(model.WithMaxDepth(10)),
	)
	if err := rf.Fit(XTrain, yTrain); err != nil {
		panic(fmt.Sprintf("training failed: %v", err))
	}
	forestPreds, err := rf.Predict(XTest)
	if err != nil {
		panic(err)
	}

	lr := model.NewLinearRegression()
	if err := lr.Fit(XTrain, yTrain); err != nil {
		panic(fmt.Sprintf("training failed: %v", err))
	}
	linearPreds, err := lr.Predict(XTest)
	if err != nil {
		panic(err)
	}

	fmt.Println("First 5 test predictions (forest / linear vs true):")
	for i := 0; i < 5 && i < len(XTest); i++ {
		fmt.Printf("  X=%.3f -> %.3f / %.3f, true=%.3f\n", XTest[i], forestPreds[i], linearPreds[i], yTest[i])
	}
	fmt.Printf("\nForest: RMSE=%.4f R2=%.4f\n", model.RMSE(yTest, forestPreds), model.R2(yTest, forestPreds))
	fmt.Printf("Linear: RMSE=%.4f R2=%.4f\n", model.RMSE(yTest, linearPreds), model.R2(yTest, linearPreds))
	fmt.Printf("Forest feature importances: %.3f\n", rf.FeatureImportances())
}
