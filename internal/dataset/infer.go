package dataset

import (
	"fmt"
	"strconv"
	"strings"
)

// FromRecords builds a dataset from a header and string rows, inferring a
// storage type per column. Short rows are padded with missing cells, extra
// fields are ignored. Blank header cells become "Unnamed: <i>" and repeated
// names get ".1", ".2" suffixes.
func FromRecords(header []string, records [][]string) (*Dataset, error) {
	names := uniqueNames(header)
	cols := make([]*Column, len(names))
	raw := make([]string, len(records))
	for j, name := range names {
		for i, rec := range records {
			if j < len(rec) {
				raw[i] = rec[j]
			} else {
				raw[i] = ""
			}
		}
		cols[j] = InferColumn(name, raw)
	}
	return New(cols...)
}

// InferColumn types a column of raw fields. Fields that all parse as
// integers give an int column, unless some are missing, in which case the
// column is float; fields that all parse as numbers give a float column;
// anything else is text.
func InferColumn(name string, raw []string) *Column {
	vals := make([]Value, len(raw))
	allInt, allNum := true, true
	missing, present := 0, 0
	for i, s := range raw {
		t := strings.TrimSpace(s)
		if IsMissingToken(t) {
			missing++
			continue
		}
		present++
		if !allNum {
			continue
		}
		if _, err := strconv.ParseInt(t, 10, 64); err != nil {
			allInt = false
		}
		f, err := strconv.ParseFloat(t, 64)
		if err != nil {
			allNum = false
			continue
		}
		vals[i] = Number(f)
	}
	if present == 0 {
		return NewColumn(name, TypeFloat, vals)
	}
	if allNum {
		t := TypeFloat
		if allInt && missing == 0 {
			t = TypeInt
		}
		return NewColumn(name, t, vals)
	}
	for i, s := range raw {
		if IsMissingToken(s) {
			vals[i] = Missing()
			continue
		}
		vals[i] = Text(s)
	}
	return NewColumn(name, TypeText, vals)
}

func uniqueNames(header []string) []string {
	out := make([]string, len(header))
	used := make(map[string]bool, len(header))
	next := make(map[string]int, len(header))
	for i, h := range header {
		base := strings.TrimSpace(h)
		if base == "" {
			base = fmt.Sprintf("Unnamed: %d", i)
		}
		name := base
		for used[name] {
			next[base]++
			name = fmt.Sprintf("%s.%d", base, next[base])
		}
		used[name] = true
		out[i] = name
	}
	return out
}
