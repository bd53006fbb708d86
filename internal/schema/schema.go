// Package schema detects which dataset columns carry cash, income, expense and
// date values, and parses financial magnitudes out of raw cells.
package schema

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Dan9191/cashflow-service/internal/models"
)

// Field is a logical column the engines know how to read.
type Field string

const (
	FieldCash    Field = "cash"
	FieldIncome  Field = "income"
	FieldExpense Field = "expense"
	FieldDate    Field = "date"
)

// Header name variants per field, matched case-insensitively.
var (
	CashPatterns    = []string{"cash", "balance", "closing", "efectivo", "saldo"}
	IncomePatterns  = []string{"income", "revenue", "ingreso", "venta", "facturación"}
	ExpensePatterns = []string{"expense", "cost", "gasto", "costo", "egresos"}
	DatePatterns    = []string{"date", "fecha", "period", "periodo"}
)

var fieldPatterns = []struct {
	field    Field
	patterns []string
}{
	{FieldCash, CashPatterns},
	{FieldIncome, IncomePatterns},
	{FieldExpense, ExpensePatterns},
	{FieldDate, DatePatterns},
}

// FieldMapping binds a logical field to the matched column, empty when none matched.
type FieldMapping struct {
	Field  Field  `json:"field"`
	Column string `json:"column,omitempty"`
}

// Mapping is the ordered result of column detection over a dataset.
type Mapping []FieldMapping

// Column returns the column detected for f.
func (m Mapping) Column(f Field) (string, bool) {
	for _, fm := range m {
		if fm.Field == f {
			return fm.Column, fm.Column != ""
		}
	}
	return "", false
}

// Detected converts the mapping to the traceability form stored with results.
func (m Mapping) Detected() models.DetectedColumns {
	cash, _ := m.Column(FieldCash)
	income, _ := m.Column(FieldIncome)
	expense, _ := m.Column(FieldExpense)
	date, _ := m.Column(FieldDate)
	return models.DetectedColumns{Cash: cash, Income: income, Expense: expense, Date: date}
}

// Detect maps every known field to the first matching column of ds.
func Detect(ds models.Dataset) Mapping {
	m := make(Mapping, 0, len(fieldPatterns))
	for _, fp := range fieldPatterns {
		col, _ := DetectColumn(ds, fp.patterns)
		m = append(m, FieldMapping{Field: fp.field, Column: col})
	}
	return m
}

// DetectColumn returns the first column of the first record whose name matches
// any of patterns, ignoring case.
func DetectColumn(ds models.Dataset, patterns []string) (string, bool) {
	if len(ds.Rows) == 0 {
		return "", false
	}
	res := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			continue
		}
		res = append(res, re)
	}
	for _, col := range columnOrder(ds) {
		if _, ok := ds.Rows[0][col]; !ok {
			continue
		}
		for _, re := range res {
			if re.MatchString(col) {
				return col, true
			}
		}
	}
	return "", false
}

// columnOrder is the header order, or the first row's keys sorted when no header is known.
func columnOrder(ds models.Dataset) []string {
	if len(ds.Columns) > 0 {
		return ds.Columns
	}
	keys := make([]string, 0, len(ds.Rows[0]))
	for k := range ds.Rows[0] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ParseFinancialNumber strips everything but digits, '.' and '-' from s and parses the rest.
func ParseFinancialNumber(s string) (float64, error) {
	cleaned := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			return r
		}
		return -1
	}, s)
	if cleaned == "" {
		return 0, fmt.Errorf("%w: no numeric content in %q", models.ErrParseFailure, s)
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", models.ErrParseFailure, s, err)
	}
	f, _ := d.Float64()
	if math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %q overflows float64", models.ErrParseFailure, s)
	}
	return f, nil
}

// Series parses column across all rows, dropping cells that fail to parse.
func Series(ds models.Dataset, column string) []float64 {
	if column == "" {
		return nil
	}
	out := make([]float64, 0, len(ds.Rows))
	for _, r := range ds.Rows {
		v, ok := r[column]
		if !ok {
			continue
		}
		f, err := ParseFinancialNumber(v)
		if err != nil {
			continue
		}
		out = append(out, f)
	}
	return out
}

// FieldSeries parses the column mapped to f, or returns nil when f was not detected.
func (m Mapping) FieldSeries(ds models.Dataset, f Field) []float64 {
	col, ok := m.Column(f)
	if !ok {
		return nil
	}
	return Series(ds, col)
}
