package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Entry is one printable configuration key.
type Entry struct {
	Key   string
	Value string
}

// Entries lists the effective values in a stable order.
func (c *Global) Entries() []Entry {
	list := func(xs []string) string { return strings.Join(xs, ",") }
	return []Entry{
		{"workspaces_dir", c.WorkspacesDir},
		{"pipeline.test_fraction", strconv.FormatFloat(c.Pipeline.TestFraction, 'f', -1, 64)},
		{"pipeline.seed", strconv.FormatInt(c.Pipeline.Seed, 10)},
		{"pipeline.knn_neighbors", strconv.Itoa(c.Pipeline.KNNNeighbors)},
		{"pipeline.forest_trees", strconv.Itoa(c.Pipeline.ForestTrees)},
		{"pipeline.forest_max_depth", strconv.Itoa(c.Pipeline.ForestMaxDepth)},
		{"pipeline.workers", strconv.Itoa(c.Pipeline.Workers)},
		{"columns.cost", c.Columns.Cost},
		{"columns.sale_price", c.Columns.SalePrice},
		{"columns.quantity", c.Columns.Quantity},
		{"columns.profit", c.Columns.Profit},
		{"columns.category", c.Columns.Category},
		{"columns.sales_amount", c.Columns.SalesAmount},
		{"columns.customer_age", c.Columns.CustomerAge},
		{"keywords.identifier", list(c.Keywords.Identifier)},
		{"keywords.ordinal", list(c.Keywords.Ordinal)},
		{"keywords.price", list(c.Keywords.Price)},
		{"keywords.percent", list(c.Keywords.Percent)},
		{"logging.level", c.Logging.Level},
		{"logging.format", c.Logging.Format},
		{"logging.output", c.Logging.Output},
		{"logging.file_path", c.Logging.FilePath},
		{"server.addr", c.Server.Addr},
		{"server.max_upload_mb", strconv.Itoa(c.Server.MaxUploadMB)},
	}
}

// Set assigns one key from its string form and validates the result. On
// error c is left unchanged.
func (c *Global) Set(key, val string) error {
	next := *c
	next.Keywords.Identifier = append([]string(nil), c.Keywords.Identifier...)
	next.Keywords.Ordinal = append([]string(nil), c.Keywords.Ordinal...)
	next.Keywords.Price = append([]string(nil), c.Keywords.Price...)
	next.Keywords.Percent = append([]string(nil), c.Keywords.Percent...)

	atoi := func() (int, error) {
		i, err := strconv.Atoi(val)
		if err != nil {
			return 0, fmt.Errorf("invalid int for %s: %v", key, val)
		}
		return i, nil
	}
	splitList := func() []string {
		var out []string
		for _, p := range strings.Split(val, ",") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}

	var err error
	switch key {
	case "workspaces_dir":
		next.WorkspacesDir = val
	case "pipeline.test_fraction":
		f, perr := strconv.ParseFloat(val, 64)
		if perr != nil {
			return fmt.Errorf("invalid float for %s: %v", key, val)
		}
		next.Pipeline.TestFraction = f
	case "pipeline.seed":
		i, perr := strconv.ParseInt(val, 10, 64)
		if perr != nil {
			return fmt.Errorf("invalid int for %s: %v", key, val)
		}
		next.Pipeline.Seed = i
	case "pipeline.knn_neighbors":
		next.Pipeline.KNNNeighbors, err = atoi()
	case "pipeline.forest_trees":
		next.Pipeline.ForestTrees, err = atoi()
	case "pipeline.forest_max_depth":
		next.Pipeline.ForestMaxDepth, err = atoi()
	case "pipeline.workers":
		next.Pipeline.Workers, err = atoi()
	case "columns.cost":
		next.Columns.Cost = val
	case "columns.sale_price":
		next.Columns.SalePrice = val
	case "columns.quantity":
		next.Columns.Quantity = val
	case "columns.profit":
		next.Columns.Profit = val
	case "columns.category":
		next.Columns.Category = val
	case "columns.sales_amount":
		next.Columns.SalesAmount = val
	case "columns.customer_age":
		next.Columns.CustomerAge = val
	case "keywords.identifier":
		next.Keywords.Identifier = splitList()
	case "keywords.ordinal":
		next.Keywords.Ordinal = splitList()
	case "keywords.price":
		next.Keywords.Price = splitList()
	case "keywords.percent":
		next.Keywords.Percent = splitList()
	case "logging.level":
		next.Logging.Level = strings.ToLower(val)
	case "logging.format":
		next.Logging.Format = strings.ToLower(val)
	case "logging.output":
		next.Logging.Output = strings.ToLower(val)
	case "logging.file_path":
		next.Logging.FilePath = val
	case "server.addr":
		next.Server.Addr = val
	case "server.max_upload_mb":
		next.Server.MaxUploadMB, err = atoi()
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	if err != nil {
		return err
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*c = next
	return nil
}
