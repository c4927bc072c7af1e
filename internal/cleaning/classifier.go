package cleaning

import (
	"encoding/json"

	"github.com/KaramelBytes/salesprep-cli/internal/dataset"
)

// ColumnRole is the semantic category assigned to a column.
type ColumnRole string

const (
	RoleIdentifier ColumnRole = "identifier"
	RoleNumeric    ColumnRole = "numeric"
	RoleOrdinal    ColumnRole = "ordinal"
	RoleNominal    ColumnRole = "nominal"
)

// AllRoles lists the categories in report order.
var AllRoles = []ColumnRole{RoleNumeric, RoleOrdinal, RoleNominal, RoleIdentifier}

// IdentifierUniqueness is the distinct/rows ratio above which a column is
// treated as a record key.
const IdentifierUniqueness = 0.8

// ColumnTypes maps every column of a dataset to exactly one role.
type ColumnTypes struct {
	order []string
	roles map[string]ColumnRole
}

// Role returns the role of a column.
func (ct ColumnTypes) Role(name string) (ColumnRole, bool) {
	r, ok := ct.roles[name]
	return r, ok
}

// Names lists the columns with the given role in dataset order.
func (ct ColumnTypes) Names(role ColumnRole) []string {
	var out []string
	for _, n := range ct.order {
		if ct.roles[n] == role {
			out = append(out, n)
		}
	}
	return out
}

// Columns lists every classified column in dataset order.
func (ct ColumnTypes) Columns() []string {
	out := make([]string, len(ct.order))
	copy(out, ct.order)
	return out
}

// MarshalJSON renders the assignment grouped by role.
func (ct ColumnTypes) MarshalJSON() ([]byte, error) {
	m := make(map[ColumnRole][]string, len(AllRoles))
	for _, r := range AllRoles {
		names := ct.Names(r)
		if names == nil {
			names = []string{}
		}
		m[r] = names
	}
	return json.Marshal(m)
}

// Classify assigns a role to each column. Identifier rules are checked
// first and win outright; numeric storage comes next; remaining text
// columns are ordinal when their name carries an ordinal keyword and
// nominal otherwise.
func Classify(ds *dataset.Dataset, kw Keywords) ColumnTypes {
	ct := ColumnTypes{order: ds.Names(), roles: make(map[string]ColumnRole, ds.Width())}
	rows := ds.Rows()
	for _, col := range ds.Columns() {
		ratio := 0.0
		if rows > 0 {
			ratio = float64(col.Distinct()) / float64(rows)
		}
		switch {
		case matchesAny(col.Name, kw.Identifier) || ratio > IdentifierUniqueness:
			ct.roles[col.Name] = RoleIdentifier
		case col.Type.IsNumeric():
			ct.roles[col.Name] = RoleNumeric
		case matchesAny(col.Name, kw.Ordinal):
			ct.roles[col.Name] = RoleOrdinal
		default:
			ct.roles[col.Name] = RoleNominal
		}
	}
	return ct
}
