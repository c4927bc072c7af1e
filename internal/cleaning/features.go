package cleaning

import (
	"context"
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/KaramelBytes/salesprep-cli/internal/dataset"
	"github.com/KaramelBytes/salesprep-cli/internal/ml"
)

// ModelOptions configures the regressors trained by the correction stages.
type ModelOptions struct {
	TestFraction float64 `mapstructure:"test_fraction" yaml:"test_fraction" json:"test_fraction" validate:"gt=0,lt=1"`
	Seed         int64   `mapstructure:"seed" yaml:"seed" json:"seed"`
	KNNNeighbors int     `mapstructure:"knn_neighbors" yaml:"knn_neighbors" json:"knn_neighbors" validate:"gte=1"`
	ForestTrees  int     `mapstructure:"forest_trees" yaml:"forest_trees" json:"forest_trees" validate:"gte=1"`
	// ForestMaxDepth of 0 grows trees until leaves are pure.
	ForestMaxDepth int `mapstructure:"forest_max_depth" yaml:"forest_max_depth" json:"forest_max_depth" validate:"gte=0"`
	// Workers bounds concurrent tree fitting; 0 uses GOMAXPROCS.
	Workers int `mapstructure:"workers" yaml:"workers" json:"workers" validate:"gte=0"`
}

// DefaultModelOptions returns an 80/20 split, seed 42, k=5 and 100 trees.
func DefaultModelOptions() ModelOptions {
	return ModelOptions{TestFraction: 0.2, Seed: 42, KNNNeighbors: 5, ForestTrees: 100}
}

func (o ModelOptions) forest() *ml.RandomForestRegressor {
	return ml.NewRandomForestRegressor(
		ml.WithNEstimators(o.ForestTrees),
		ml.WithForestMaxDepth(o.ForestMaxDepth),
		ml.WithSeed(o.Seed),
		ml.WithWorkers(o.Workers),
	)
}

func (o ModelOptions) knn() *ml.KNNRegressor { return ml.NewKNNRegressor(o.KNNNeighbors) }

// encodedColumn reads a column as numbers; text columns whose cells are not
// all numeric are label-encoded by sorted distinct value.
func encodedColumn(col *dataset.Column) []float64 {
	if col.Type.IsNumeric() {
		return col.Floats()
	}
	xs := col.Floats()
	numeric := true
	for i, v := range col.Values {
		if !v.IsMissing() && math.IsNaN(xs[i]) {
			numeric = false
			break
		}
	}
	if numeric {
		return xs
	}
	var labels []string
	seen := map[string]bool{}
	for _, v := range col.Values {
		if v.IsMissing() {
			continue
		}
		s := v.String()
		if !seen[s] {
			seen[s] = true
			labels = append(labels, s)
		}
	}
	sort.Strings(labels)
	code := make(map[string]float64, len(labels))
	for i, l := range labels {
		code[l] = float64(i)
	}
	for i, v := range col.Values {
		if v.IsMissing() {
			xs[i] = math.NaN()
			continue
		}
		xs[i] = code[v.String()]
	}
	return xs
}

// featureRows zips feature columns into rows; complete[i] is false when any
// feature of row i is NaN.
func featureRows(cols ...[]float64) (X [][]float64, complete []bool) {
	if len(cols) == 0 {
		return nil, nil
	}
	n := len(cols[0])
	X = make([][]float64, n)
	complete = make([]bool, n)
	for i := 0; i < n; i++ {
		row := make([]float64, len(cols))
		ok := true
		for j, c := range cols {
			row[j] = c[i]
			if math.IsNaN(c[i]) {
				ok = false
			}
		}
		X[i] = row
		complete[i] = ok
	}
	return X, complete
}

// fitCompare trains a forest and a KNN model on the given rows and scores
// both on a seeded held-out split.
func fitCompare(ctx context.Context, X [][]float64, y []float64, opt ModelOptions) (*ml.RandomForestRegressor, *ml.KNNRegressor, ModelScores, error) {
	trainIdx, testIdx := ml.TrainTestSplit(len(X), opt.TestFraction, opt.Seed)
	xTrain, yTrain := ml.Rows(X, y, trainIdx)
	xTest, yTest := ml.Rows(X, y, testIdx)

	rf, knn := opt.forest(), opt.knn()
	if err := rf.Fit(ctx, xTrain, yTrain); err != nil {
		return nil, nil, ModelScores{}, err
	}
	if err := knn.Fit(ctx, xTrain, yTrain); err != nil {
		return nil, nil, ModelScores{}, err
	}
	scores := ModelScores{TrainRows: len(trainIdx), TestRows: len(testIdx)}
	rfMSE, knnMSE := math.NaN(), math.NaN()
	if len(testIdx) > 0 {
		rfMSE = ml.MSE(yTest, rf.Predict(xTest))
		knnMSE = ml.MSE(yTest, knn.Predict(xTest))
	}
	scores.ForestMSE = scoreOf(rfMSE)
	scores.KNNMSE = scoreOf(knnMSE)
	scores.Chosen = ModelForest
	if knnMSE < rfMSE {
		scores.Chosen = ModelKNN
	}
	return rf, knn, scores, nil
}

const maxPlaces = 10

// decimalPlaces is the largest number of decimals among the column's
// values; int columns have none.
func decimalPlaces(col *dataset.Column) int32 {
	if col == nil || col.Type == dataset.TypeInt {
		return 0
	}
	var places int32
	for _, v := range col.Values {
		f, ok := v.Coerce()
		if !ok || math.IsInf(f, 0) {
			continue
		}
		if e := decimal.NewFromFloat(f).Exponent(); -e > places {
			places = -e
		}
	}
	if places > maxPlaces {
		places = maxPlaces
	}
	return places
}

// roundTo rounds half to even at the given number of decimals.
func roundTo(x float64, places int32) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	f, _ := decimal.NewFromFloat(x).RoundBank(places).Float64()
	return f
}

// numericCopy returns a clone of col stored as numbers, keeping int
// columns int when keepInt is set.
func numericCopy(col *dataset.Column, keepInt bool) *dataset.Column {
	out := dataset.NewFloatColumn(col.Name, col.Floats())
	if keepInt && col.Type == dataset.TypeInt {
		out.Type = dataset.TypeInt
	}
	return out
}
