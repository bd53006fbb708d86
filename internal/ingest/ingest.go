// Package ingest turns uploaded CSV and XLSX files into datasets.
package ingest

import (
	"bytes"
	"encoding/csv"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/crypto/blake2b"

	"github.com/Dan9191/cashflow-service/internal/models"
)

// Supported upload formats
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

const utf8BOM = "\ufeff"

// FormatOf returns the upload format implied by the filename extension.
func FormatOf(filename string) (string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv", ".txt":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("unsupported file type %q: %w", filepath.Ext(filename), models.ErrInvalidInput)
}

// Parse decodes the file content according to its filename extension.
func Parse(filename string, data []byte) (models.Dataset, error) {
	format, err := FormatOf(filename)
	if err != nil {
		return models.Dataset{}, err
	}
	if format == FormatXLSX {
		return ParseXLSX(bytes.NewReader(data))
	}
	return ParseCSV(bytes.NewReader(data))
}

// ParseCSV reads a comma separated file whose first line is the header.
func ParseCSV(r io.Reader) (models.Dataset, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var table [][]string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return models.Dataset{}, fmt.Errorf("failed to read csv: %v: %w", err, models.ErrInvalidInput)
		}
		table = append(table, record)
	}
	return fromTable(table)
}

// ParseXLSX reads the first sheet of a workbook whose first row is the header.
func ParseXLSX(r io.Reader) (models.Dataset, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return models.Dataset{}, fmt.Errorf("failed to open workbook: %v: %w", err, models.ErrInvalidInput)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return models.Dataset{}, fmt.Errorf("workbook has no sheets: %w", models.ErrInvalidInput)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return models.Dataset{}, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}
	return fromTable(rows)
}

// fromTable maps a header row plus data rows to a dataset. Header names are
// trimmed and lower-cased; blank rows are skipped and short rows padded with "".
func fromTable(table [][]string) (models.Dataset, error) {
	if len(table) == 0 {
		return models.Dataset{}, fmt.Errorf("file has no header row: %w", models.ErrInvalidInput)
	}

	header := make([]string, len(table[0]))
	var columns []string
	seen := make(map[string]bool)
	for i, h := range table[0] {
		if i == 0 {
			h = strings.TrimPrefix(h, utf8BOM)
		}
		name := strings.ToLower(strings.TrimSpace(h))
		header[i] = name
		if name != "" && !seen[name] {
			seen[name] = true
			columns = append(columns, name)
		}
	}
	if len(columns) == 0 {
		return models.Dataset{}, fmt.Errorf("file has an empty header row: %w", models.ErrInvalidInput)
	}

	ds := models.Dataset{Columns: columns, Rows: []models.Record{}}
	for _, cells := range table[1:] {
		if blank(cells) {
			continue
		}
		rec := make(models.Record, len(columns))
		for i, name := range header {
			if name == "" {
				continue
			}
			value := ""
			if i < len(cells) {
				value = strings.TrimSpace(cells[i])
			}
			rec[name] = value
		}
		ds.Rows = append(ds.Rows, rec)
	}
	return ds, nil
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// Checksum returns the hex encoded BLAKE2b-256 digest of data.
func Checksum(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}
