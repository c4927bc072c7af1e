package cleaning

import (
	"math"

	"github.com/KaramelBytes/salesprep-cli/internal/dataset"
	"github.com/KaramelBytes/salesprep-cli/internal/stats"
)

// DefaultPlaceholder fills missing text cells.
const DefaultPlaceholder = "未知"

// FillRemaining fills whatever is still missing: numeric columns with their
// median (rounded half to even for int columns), text columns with the
// placeholder. Columns with no values at all are left missing.
func FillRemaining(ds *dataset.Dataset, placeholder string) (*dataset.Dataset, int) {
	if placeholder == "" {
		placeholder = DefaultPlaceholder
	}
	out := ds.Clone()
	filled := 0
	for _, col := range out.Columns() {
		if col.MissingCount() == 0 {
			continue
		}
		if col.Type.IsNumeric() {
			med := stats.Median(col.Floats())
			if math.IsNaN(med) {
				continue
			}
			if col.Type == dataset.TypeInt {
				med = math.RoundToEven(med)
			}
			for i, v := range col.Values {
				if v.IsMissing() {
					col.Values[i] = dataset.Number(med)
					filled++
				}
			}
			continue
		}
		for i, v := range col.Values {
			if v.IsMissing() {
				col.Values[i] = dataset.Text(placeholder)
				filled++
			}
		}
	}
	return out, filled
}
