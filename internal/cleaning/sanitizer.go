package cleaning

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/KaramelBytes/salesprep-cli/internal/dataset"
)

var nonNumericChars = regexp.MustCompile(`[^0-9.]`)

// parseStripped drops every character except digits and '.', then parses.
// Empty or malformed leftovers report false.
func parseStripped(s string) (float64, bool) {
	cleaned := nonNumericChars.ReplaceAllString(s, "")
	if cleaned == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

func parsePercent(s string) (float64, bool) {
	cleaned := strings.TrimSpace(strings.ReplaceAll(s, "%", ""))
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(f) {
		return 0, false
	}
	return f / 100, true
}

// Sanitize converts price-like and percentage-like text columns to float
// columns. Price-like cells keep only digits and '.'; percentage-like cells
// lose their '%' and are divided by 100. Cells that do not parse become
// missing. Columns already stored as numbers are left alone, and the price
// pass runs first, so a column matching both vocabularies is converted once.
func Sanitize(ds *dataset.Dataset, kw Keywords) (*dataset.Dataset, StageResult) {
	out := ds.Clone()
	var converted []string
	unparsable := 0

	convert := func(match []string, parse func(string) (float64, bool)) {
		for _, col := range out.Columns() {
			if col.Type != dataset.TypeText || !matchesAny(col.Name, match) {
				continue
			}
			vals := make([]dataset.Value, col.Len())
			for i, v := range col.Values {
				s, ok := v.Str()
				if !ok {
					continue
				}
				f, ok := parse(s)
				if !ok {
					unparsable++
					continue
				}
				vals[i] = dataset.Number(f)
			}
			_ = out.Set(dataset.NewColumn(col.Name, dataset.TypeFloat, vals))
			converted = append(converted, col.Name)
		}
	}
	convert(kw.Price, parseStripped)
	convert(kw.Percent, parsePercent)

	res := applied(StageSanitize, unparsable, "sanitized %d text columns; %d cells could not be parsed and are now missing", len(converted), unparsable)
	res.Columns = converted
	return out, res
}
