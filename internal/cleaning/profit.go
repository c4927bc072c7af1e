package cleaning

import (
	"context"
	"fmt"

	"github.com/KaramelBytes/salesprep-cli/internal/dataset"
	"github.com/KaramelBytes/salesprep-cli/internal/ml"
)

// CorrectProfit replaces recorded profits that disagree with
// (sale price - cost) * quantity. Rows where the two agree exactly train a
// random forest and a KNN model on {sale price, cost, quantity}; the model
// with the lower held-out MSE (the forest on ties) predicts the profit of
// every disagreeing row, rounded to the profit column's precision.
//
// Rows with a missing sale price, cost or quantity are left untouched.
// The returned error is non-nil only when model fitting is cancelled.
func CorrectProfit(ctx context.Context, ds *dataset.Dataset, roles Roles, opt ModelOptions) (*dataset.Dataset, StageResult, error) {
	if missing := ds.Absent(roles.SalePrice, roles.Cost, roles.Quantity, roles.Profit); len(missing) > 0 {
		return ds, skippedMissing(StageCorrectProfit, missing), nil
	}
	sale, _ := ds.Column(roles.SalePrice)
	cost, _ := ds.Column(roles.Cost)
	qty, _ := ds.Column(roles.Quantity)
	profit, _ := ds.Column(roles.Profit)

	X, complete := featureRows(sale.Floats(), cost.Floats(), qty.Floats())
	recorded := profit.Floats()

	var trusted, suspect []int
	incomplete := 0
	for i, row := range X {
		if !complete[i] {
			incomplete++
			continue
		}
		theoretical := (row[0] - row[1]) * row[2]
		if recorded[i] == theoretical {
			trusted = append(trusted, i)
		} else {
			suspect = append(suspect, i)
		}
	}

	if len(trusted) == 0 {
		return ds, skipped(StageCorrectProfit, ReasonUntrainable,
			"%s skipped: no row has a profit consistent with price, cost and quantity, nothing to train on", StageCorrectProfit), nil
	}
	if len(suspect) == 0 {
		return ds, applied(StageCorrectProfit, 0, "all %d checked rows have consistent profit; no correction needed", len(trusted)), nil
	}

	xTrust, yTrust := ml.Rows(X, recorded, trusted)
	rf, knn, scores, err := fitCompare(ctx, xTrust, yTrust, opt)
	if err != nil {
		return ds, StageResult{}, fmt.Errorf("correct profit: %w", err)
	}
	var model ml.Regressor = rf
	if scores.Chosen == ModelKNN {
		model = knn
	}

	xSuspect, _ := ml.Rows(X, recorded, suspect)
	preds := model.Predict(xSuspect)
	places := decimalPlaces(profit)

	out := ds.Clone()
	col := numericCopy(profit, places == 0)
	for k, i := range suspect {
		col.Values[i] = dataset.Number(roundTo(preds[k], places))
	}
	_ = out.Set(col)

	res := applied(StageCorrectProfit, len(suspect),
		"corrected %d of %d profit values with %s (%d rows trusted, %d rows lacked inputs)",
		len(suspect), len(trusted)+len(suspect), scores.Chosen, len(trusted), incomplete)
	res.Columns = []string{roles.Profit}
	res.Models = &scores
	return out, res, nil
}
