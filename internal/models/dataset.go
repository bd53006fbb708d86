package models

// Record is one row of an uploaded dataset, keyed by lower-cased column name.
type Record map[string]string

// Dataset is an uploaded table. Columns keeps the header order of the source file.
type Dataset struct {
	Columns []string `json:"columns"`
	Rows    []Record `json:"rows"`
}

// Len returns the number of rows.
func (d Dataset) Len() int {
	return len(d.Rows)
}
