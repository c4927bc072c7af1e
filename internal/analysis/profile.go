package analysis

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/KaramelBytes/salesprep-cli/internal/cleaning"
	"github.com/KaramelBytes/salesprep-cli/internal/dataset"
	"github.com/KaramelBytes/salesprep-cli/internal/stats"
)

// Options controls profiling of a dataset.
type Options struct {
	// SampleRows determines how many example rows to include in the report.
	SampleRows int
	// GroupBy computes per-group summaries for the given column names.
	GroupBy []string
	// Correlations computes Pearson correlations among numeric columns.
	Correlations bool
	// Outlier detection via robust Z-score (MAD). If Outliers is true, counts |z|>threshold.
	Outliers         bool
	OutlierThreshold float64
	// TopValues caps the categorical value list per column.
	TopValues int
}

// DefaultOptions returns reasonable defaults for dataset profiling.
func DefaultOptions() Options {
	return Options{
		SampleRows:       5,
		Correlations:     true,
		Outliers:         true,
		OutlierThreshold: 3.5,
		TopValues:        8,
	}
}

// Report is a markdown-friendly profile of a dataset.
type Report struct {
	Name     string
	Rows     int
	Cols     []ColumnSummary
	Roles    *cleaning.ColumnTypes
	Missing  MissingReport
	Samples  [][]string
	Warnings []string
	Groups   []GroupResult
	Corr     *CorrMatrix
}

// ColumnSummary captures the stored type and statistics per column.
type ColumnSummary struct {
	Name    string
	Kind    string // numeric|datetime|categorical|text|empty
	NonNull int
	Missing int
	Unique  int
	// Numeric stats
	Min  float64
	Max  float64
	Mean float64
	Std  float64
	// Outliers (robust Z via MAD)
	OutliersCount    int
	OutliersMaxAbsZ  float64
	OutlierThreshold float64
	// Categorical top values
	TopValues    []CategoryCount
	ExampleTexts []string
}

type CategoryCount struct {
	Value string
	Count int
}

// GroupResult captures aggregated metrics per group key.
type GroupResult struct {
	Key     string
	Size    int
	Metrics map[string]NumSummary // by column name
}

type NumSummary struct {
	Count          int
	Min, Max, Mean float64
}

// CorrMatrix holds a symmetric Pearson correlation matrix across numeric columns.
type CorrMatrix struct {
	Columns []string
	Values  [][]float64 // row-major, Values[i][j]
}

const (
	maxGroups       = 20
	maxCategoryLen  = 64
	minOutlierCount = 8
)

// Profile summarises ds. types may be nil when no role assignment is
// available.
func Profile(name string, ds *dataset.Dataset, types *cleaning.ColumnTypes, opt Options) *Report {
	rep := &Report{Name: name, Rows: ds.Rows(), Roles: types, Missing: Missing(ds)}
	// SampleRows of 0 disables the sample table.
	for i := 0; i < ds.Rows() && i < opt.SampleRows; i++ {
		rep.Samples = append(rep.Samples, ds.Record(i))
	}

	var numeric []*dataset.Column
	for _, col := range ds.Columns() {
		s := summarize(col, opt)
		if s.Kind == "numeric" {
			numeric = append(numeric, col)
		}
		rep.Cols = append(rep.Cols, s)
	}

	if len(opt.GroupBy) > 0 {
		var keys []*dataset.Column
		for _, g := range opt.GroupBy {
			if col, ok := ds.Column(strings.TrimSpace(g)); ok {
				keys = append(keys, col)
			} else {
				rep.Warnings = append(rep.Warnings, fmt.Sprintf("group-by column %q not found", g))
			}
		}
		if len(keys) > 0 {
			rep.Groups = groupBy(ds.Rows(), keys, numeric)
		}
	}
	if opt.Correlations && len(numeric) >= 2 {
		rep.Corr = correlations(numeric)
	}
	if total := rep.Missing.TotalMissing(); total > 0 {
		rep.Warnings = append(rep.Warnings, fmt.Sprintf("%d missing cells across %d columns", total, countMissingColumns(rep.Missing)))
	}
	return rep
}

func countMissingColumns(r MissingReport) int {
	n := 0
	for _, e := range r {
		if e.Null > 0 {
			n++
		}
	}
	return n
}

func summarize(col *dataset.Column, opt Options) ColumnSummary {
	s := ColumnSummary{Name: col.Name, Missing: col.MissingCount()}
	s.NonNull = col.Len() - s.Missing
	s.Unique = col.Distinct()
	if s.NonNull == 0 {
		s.Kind = "empty"
		return s
	}

	if col.Type.IsNumeric() {
		s.Kind = "numeric"
		vals := stats.Present(col.Floats())
		s.Min, s.Max = vals[0], vals[0]
		for _, v := range vals {
			s.Min = math.Min(s.Min, v)
			s.Max = math.Max(s.Max, v)
		}
		if len(vals) > 1 {
			s.Mean, s.Std = stat.MeanStdDev(vals, nil)
		} else {
			s.Mean = vals[0]
		}
		if opt.Outliers && len(vals) >= minOutlierCount {
			s.OutlierThreshold = opt.OutlierThreshold
			if s.OutlierThreshold <= 0 {
				s.OutlierThreshold = 3.5
			}
			s.OutliersCount, s.OutliersMaxAbsZ = robustOutliers(vals, s.OutlierThreshold)
		}
		return s
	}

	cats := map[string]int{}
	dates, long := 0, 0
	for _, v := range col.Values {
		if v.IsMissing() {
			continue
		}
		txt := v.String()
		if _, ok := parseTimeMaybe(txt); ok {
			dates++
		}
		if len(txt) > maxCategoryLen {
			long++
			if len(s.ExampleTexts) < 3 {
				s.ExampleTexts = append(s.ExampleTexts, txt)
			}
			continue
		}
		cats[txt]++
	}
	switch {
	case dates*2 > s.NonNull:
		s.Kind = "datetime"
	case long*2 > s.NonNull:
		s.Kind = "text"
	default:
		s.Kind = "categorical"
		s.TopValues = topValues(cats, opt.TopValues)
	}
	return s
}

// robustOutliers counts values with a modified z-score above thr.
func robustOutliers(vals []float64, thr float64) (count int, maxAbsZ float64) {
	median, mad := stats.MedianMAD(vals)
	if mad == 0 {
		return 0, 0
	}
	for _, v := range vals {
		az := math.Abs(0.6745 * (v - median) / mad)
		if az > thr {
			count++
		}
		if az > maxAbsZ {
			maxAbsZ = az
		}
	}
	return count, maxAbsZ
}

func topValues(cats map[string]int, limit int) []CategoryCount {
	if limit <= 0 {
		limit = 8
	}
	tops := make([]CategoryCount, 0, len(cats))
	for k, v := range cats {
		tops = append(tops, CategoryCount{Value: k, Count: v})
	}
	sort.Slice(tops, func(i, j int) bool {
		if tops[i].Count == tops[j].Count {
			return tops[i].Value < tops[j].Value
		}
		return tops[i].Count > tops[j].Count
	})
	if len(tops) > limit {
		tops = tops[:limit]
	}
	return tops
}

func groupBy(rows int, keys, numeric []*dataset.Column) []GroupResult {
	type acc struct {
		size int
		vals map[string][]float64
	}
	groups := map[string]*acc{}
	for i := 0; i < rows; i++ {
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s=%s", k.Name, safeVal(k.Format(i))))
		}
		key := strings.Join(parts, " | ")
		g := groups[key]
		if g == nil {
			g = &acc{vals: map[string][]float64{}}
			groups[key] = g
		}
		g.size++
		for _, c := range numeric {
			if x, ok := c.Float(i); ok {
				g.vals[c.Name] = append(g.vals[c.Name], x)
			}
		}
	}

	out := make([]GroupResult, 0, len(groups))
	for k, g := range groups {
		gr := GroupResult{Key: k, Size: g.size, Metrics: map[string]NumSummary{}}
		for name, xs := range g.vals {
			ns := NumSummary{Count: len(xs), Min: xs[0], Max: xs[0], Mean: stat.Mean(xs, nil)}
			for _, x := range xs {
				ns.Min = math.Min(ns.Min, x)
				ns.Max = math.Max(ns.Max, x)
			}
			gr.Metrics[name] = ns
		}
		out = append(out, gr)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Size == out[j].Size {
			return out[i].Key < out[j].Key
		}
		return out[i].Size > out[j].Size
	})
	if len(out) > maxGroups {
		out = out[:maxGroups]
	}
	return out
}

// correlations computes Pearson r over rows where both columns are present.
func correlations(cols []*dataset.Column) *CorrMatrix {
	n := len(cols)
	names := make([]string, n)
	data := make([][]float64, n)
	for i, c := range cols {
		names[i] = c.Name
		data[i] = c.Floats()
	}
	mat := make([][]float64, n)
	for i := range mat {
		mat[i] = make([]float64, n)
		mat[i][i] = 1
	}
	for a := 0; a < n; a++ {
		for b := a + 1; b < n; b++ {
			var xs, ys []float64
			for i := range data[a] {
				if math.IsNaN(data[a][i]) || math.IsNaN(data[b][i]) {
					continue
				}
				xs = append(xs, data[a][i])
				ys = append(ys, data[b][i])
			}
			r := 0.0
			if len(xs) >= 2 {
				r = stat.Correlation(xs, ys, nil)
				if math.IsNaN(r) || math.IsInf(r, 0) {
					r = 0
				}
			}
			mat[a][b], mat[b][a] = r, r
		}
	}
	return &CorrMatrix{Columns: names, Values: mat}
}

func parseTimeMaybe(s string) (time.Time, bool) {
	layouts := []string{
		time.RFC3339, "2006-01-02", "2006/01/02", "02/01/2006", "01/02/2006",
		"2006-01-02 15:04", "2006-01-02 15:04:05", "2006/1/2", "2006年1月2日",
	}
	for _, l := range layouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Markdown renders a compact report suitable for terminals or standalone docs.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if r.Name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", r.Name))
	}
	b.WriteString(fmt.Sprintf("Rows: %d\n", r.Rows))
	b.WriteString(fmt.Sprintf("Columns: %d\n\n", len(r.Cols)))

	b.WriteString("[SCHEMA]\n")
	for _, c := range r.Cols {
		total := c.NonNull + c.Missing
		missPct := 0.0
		if total > 0 {
			missPct = float64(c.Missing) * 100.0 / float64(total)
		}
		b.WriteString(fmt.Sprintf("- %s: %s (non-null %d, missing %.1f%%)", safeName(c.Name), c.Kind, c.NonNull, missPct))
		switch c.Kind {
		case "numeric":
			b.WriteString(fmt.Sprintf(": min %.4g, max %.4g, mean %.4g, std %.4g", c.Min, c.Max, c.Mean, c.Std))
			if c.OutlierThreshold > 0 {
				b.WriteString(fmt.Sprintf("; outliers: %d above |z|>%.1f", c.OutliersCount, c.OutlierThreshold))
				if c.OutliersMaxAbsZ > 0 {
					b.WriteString(fmt.Sprintf(" (max |z|≈%.2f)", c.OutliersMaxAbsZ))
				}
			}
		case "categorical":
			if len(c.TopValues) > 0 {
				b.WriteString(": top ")
				for i, kv := range c.TopValues {
					if i > 0 {
						b.WriteString(", ")
					}
					b.WriteString(fmt.Sprintf("%s(%d)", safeVal(kv.Value), kv.Count))
				}
				if c.Unique > len(c.TopValues) {
					b.WriteString(fmt.Sprintf("; unique=%d", c.Unique))
				}
			}
		case "text":
			if len(c.ExampleTexts) > 0 {
				b.WriteString(": e.g. ")
				for i, ex := range c.ExampleTexts {
					if i > 0 {
						b.WriteString(" | ")
					}
					b.WriteString(safeVal(ex))
				}
			}
		}
		b.WriteString("\n")
	}

	if r.Roles != nil {
		b.WriteString("\n[COLUMN ROLES]\n")
		for _, role := range cleaning.AllRoles {
			names := r.Roles.Names(role)
			if len(names) == 0 {
				continue
			}
			b.WriteString(fmt.Sprintf("- %s: %s\n", role, strings.Join(names, ", ")))
		}
	}

	if len(r.Groups) > 0 {
		b.WriteString("\n[GROUP-BY SUMMARY]\n")
		for _, g := range r.Groups {
			b.WriteString(fmt.Sprintf("- %s (n=%d)\n", g.Key, g.Size))
			keys := make([]string, 0, len(g.Metrics))
			for k := range g.Metrics {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			if len(keys) > 6 {
				keys = keys[:6]
			}
			for _, k := range keys {
				m := g.Metrics[k]
				b.WriteString(fmt.Sprintf("  • %s: mean %.4g (min %.4g, max %.4g)\n", k, m.Mean, m.Min, m.Max))
			}
		}
	}

	if r.Corr != nil && len(r.Corr.Columns) >= 2 {
		b.WriteString("\n[CORRELATIONS]\n")
		type pr struct {
			A, B string
			R    float64
		}
		var pairs []pr
		n := len(r.Corr.Columns)
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				pairs = append(pairs, pr{A: r.Corr.Columns[i], B: r.Corr.Columns[j], R: r.Corr.Values[i][j]})
			}
		}
		sort.Slice(pairs, func(i, j int) bool {
			ai, aj := math.Abs(pairs[i].R), math.Abs(pairs[j].R)
			if ai == aj {
				return pairs[i].A+pairs[i].B < pairs[j].A+pairs[j].B
			}
			return ai > aj
		})
		if len(pairs) > 10 {
			pairs = pairs[:10]
		}
		for _, p := range pairs {
			b.WriteString(fmt.Sprintf("- %s ~ %s: r=%.3f\n", p.A, p.B, p.R))
		}
	}

	if len(r.Samples) > 0 {
		b.WriteString("\n[HEAD AND SAMPLE ROWS]\n")
		b.WriteString("| ")
		for i, c := range r.Cols {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString(safeName(c.Name))
		}
		b.WriteString(" |\n| ")
		for i := range r.Cols {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString("---")
		}
		b.WriteString(" |\n")
		for _, row := range r.Samples {
			b.WriteString("| ")
			for i := range r.Cols {
				if i > 0 {
					b.WriteString(" | ")
				}
				val := ""
				if i < len(row) {
					val = row[i]
				}
				if len(val) > 80 {
					val = val[:77] + "..."
				}
				b.WriteString(safeVal(val))
			}
			b.WriteString(" |\n")
		}
	}
	if len(r.Warnings) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, w := range r.Warnings {
			b.WriteString("- ")
			b.WriteString(w)
			b.WriteString("\n")
		}
	}
	return b.String()
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
