package cleaning

import (
	"context"
	"fmt"
	"math"

	"github.com/KaramelBytes/salesprep-cli/internal/dataset"
	"github.com/KaramelBytes/salesprep-cli/internal/ml"
)

// CorrectPriceAnomalies repairs rows whose sale price is below cost.
// Normal rows train a random forest and a KNN model on {cost, quantity,
// customer age} to predict the sale price; each anomalous row receives the
// mean of both predictions rounded to the sale price precision. Any row
// still below cost is clamped to cost, and profit is then recomputed for
// every row as (sale price - cost) * quantity, creating the profit column
// when absent.
//
// The returned error is non-nil only when model fitting is cancelled.
func CorrectPriceAnomalies(ctx context.Context, ds *dataset.Dataset, roles Roles, opt ModelOptions) (*dataset.Dataset, StageResult, error) {
	if missing := ds.Absent(roles.SalePrice, roles.Cost, roles.Quantity, roles.CustomerAge); len(missing) > 0 {
		return ds, skippedMissing(StageCorrectAnomalies, missing), nil
	}
	saleCol, _ := ds.Column(roles.SalePrice)
	costCol, _ := ds.Column(roles.Cost)
	qtyCol, _ := ds.Column(roles.Quantity)
	ageCol, _ := ds.Column(roles.CustomerAge)

	sale := saleCol.Floats()
	cost := costCol.Floats()
	X, complete := featureRows(cost, qtyCol.Floats(), encodedColumn(ageCol))

	var normal, anomalous []int
	for i := range sale {
		if math.IsNaN(sale[i]) || math.IsNaN(cost[i]) {
			continue
		}
		if sale[i] < cost[i] {
			anomalous = append(anomalous, i)
		} else if complete[i] {
			normal = append(normal, i)
		}
	}
	if len(normal) == 0 {
		return ds, skipped(StageCorrectAnomalies, ReasonUntrainable,
			"%s skipped: no row has sale price >= cost, nothing to train on", StageCorrectAnomalies), nil
	}

	var scores *ModelScores
	predicted := 0
	places := decimalPlaces(saleCol)
	if len(anomalous) > 0 {
		xNorm, yNorm := ml.Rows(X, sale, normal)
		rf, knn, sc, err := fitCompare(ctx, xNorm, yNorm, opt)
		if err != nil {
			return ds, StageResult{}, fmt.Errorf("correct price anomalies: %w", err)
		}
		sc.Chosen = ModelBlend
		scores = &sc

		var rows []int
		for _, i := range anomalous {
			if complete[i] {
				rows = append(rows, i)
			}
		}
		xAnom, _ := ml.Rows(X, sale, rows)
		rfPred, knnPred := rf.Predict(xAnom), knn.Predict(xAnom)
		for k, i := range rows {
			sale[i] = roundTo((rfPred[k]+knnPred[k])/2, places)
			predicted++
		}
	}

	clamped := 0
	for i := range sale {
		if !math.IsNaN(sale[i]) && !math.IsNaN(cost[i]) && sale[i] < cost[i] {
			sale[i] = cost[i]
			clamped++
		}
	}

	out := ds.Clone()
	newSale := dataset.NewFloatColumn(roles.SalePrice, sale)
	if saleCol.Type == dataset.TypeInt && places == 0 && costCol.Type == dataset.TypeInt {
		newSale.Type = dataset.TypeInt
	}
	_ = out.Set(newSale)
	_ = out.Set(recomputeProfit(roles.Profit, newSale, costCol, qtyCol))

	var res StageResult
	if len(anomalous) == 0 {
		res = applied(StageCorrectAnomalies, 0, "no sale price below cost; recomputed %s for all rows", roles.Profit)
	} else {
		res = applied(StageCorrectAnomalies, len(anomalous),
			"corrected %d rows with sale price below cost (%d predicted by blended models, %d clamped to cost); recomputed %s",
			len(anomalous), predicted, clamped, roles.Profit)
	}
	res.Columns = []string{roles.SalePrice, roles.Profit}
	res.Models = scores
	return out, res, nil
}

// recomputeProfit derives (sale - cost) * quantity per row; rows missing any
// input get a missing profit.
func recomputeProfit(name string, sale, cost, qty *dataset.Column) *dataset.Column {
	s, c, q := sale.Floats(), cost.Floats(), qty.Floats()
	out := make([]float64, len(s))
	for i := range s {
		out[i] = (s[i] - c[i]) * q[i]
	}
	col := dataset.NewFloatColumn(name, out)
	if sale.Type == dataset.TypeInt && cost.Type == dataset.TypeInt && qty.Type == dataset.TypeInt {
		col.Type = dataset.TypeInt
	}
	return col
}
