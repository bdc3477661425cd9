package model

// Record is one row of the tabular export: an ordered set of columns plus a
// column→value map. Empty string, missing key and NA/NULL cells are all
// represented as the empty value. The "ID" column is the identity key.
type Record struct {
	Columns []string          `json:"columns"`
	Values  map[string]string `json:"values"`
}

// IDColumn is the identity column of every tabular export.
const IDColumn = "ID"

func (r Record) ID() string {
	return r.Values[IDColumn]
}

// Get returns the value for a column, empty when absent.
func (r Record) Get(col string) string {
	return r.Values[col]
}

// Empty reports whether a column is blank, missing or NA.
func (r Record) Empty(col string) bool {
	return r.Values[col] == ""
}

// HasColumn reports whether the table carried the column at all.
func (r Record) HasColumn(col string) bool {
	for _, c := range r.Columns {
		if c == col {
			return true
		}
	}
	return false
}

// Snapshot copies the value map for use as a change before/after image.
func (r Record) Snapshot() map[string]string {
	out := make(map[string]string, len(r.Values))
	for k, v := range r.Values {
		out[k] = v
	}
	return out
}
