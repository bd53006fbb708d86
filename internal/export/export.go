// Package export renders a job's analysis as a downloadable report.
package export

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/beevik/etree"
	"github.com/xuri/excelize/v2"

	"github.com/Dan9191/cashflow-service/internal/models"
)

// Report formats
const (
	FormatXLSX = "xlsx"
	FormatXML  = "xml"
)

// ContentType returns the MIME type of a report format
func ContentType(format string) string {
	if format == FormatXML {
		return "application/xml"
	}
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// Render writes the job report in the given format
func Render(job *models.Job, format string) ([]byte, error) {
	switch format {
	case FormatXLSX, "":
		return XLSX(job)
	case FormatXML:
		return XML(job)
	}
	return nil, fmt.Errorf("unsupported report format %q: %w", format, models.ErrInvalidInput)
}

// XLSX builds a workbook with one sheet per analysis stage present on the job
func XLSX(job *models.Job) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const summary = "Summary"
	if err := f.SetSheetName(f.GetSheetName(0), summary); err != nil {
		return nil, fmt.Errorf("failed to name summary sheet: %w", err)
	}
	rows := [][]any{
		{"Job", job.ID},
		{"File", job.Filename},
		{"Checksum", job.Checksum},
		{"Status", job.Status},
		{"Rows", job.Data.Len()},
	}
	if d := job.Diagnosis; d != nil {
		m := d.Metrics
		rows = append(rows,
			[]any{"Cash balance", m.CashBalance},
			[]any{"Monthly revenue", m.MonthlyRevenue},
			[]any{"Monthly expenses", m.MonthlyExpenses},
			[]any{"Monthly burn", m.MonthlyBurn},
			[]any{"Runway (months)", m.Runway},
			[]any{"Cash trend (%)", m.CashTrend},
			[]any{"Gross margin (%)", m.GrossMargin},
		)
	}
	if err := writeRows(f, summary, rows); err != nil {
		return nil, err
	}
	_ = f.SetColWidth(summary, "A", "A", 20)
	_ = f.SetColWidth(summary, "B", "B", 40)

	if d := job.Diagnosis; d != nil {
		rows := [][]any{{"ID", "Severity", "Title", "Description", "Impact", "Recommendation"}}
		for _, a := range d.Alerts {
			rows = append(rows, []any{a.ID, a.Severity, a.Title, a.Description, a.Impact, a.Recommendation})
		}
		if err := addSheet(f, "Alerts", rows); err != nil {
			return nil, err
		}
	}

	if fc := job.Forecast; fc != nil {
		rows := [][]any{{"Day", "Date", "Base", "Optimistic", "Pessimistic"}}
		for i, p := range fc.Forecasts.Base {
			row := []any{p.Day, p.Date, p.Value, nil, nil}
			if i < len(fc.Forecasts.Optimistic) {
				row[3] = fc.Forecasts.Optimistic[i].Value
			}
			if i < len(fc.Forecasts.Pessimistic) {
				row[4] = fc.Forecasts.Pessimistic[i].Value
			}
			rows = append(rows, row)
		}
		if err := addSheet(f, "Forecast", rows); err != nil {
			return nil, err
		}
	}

	if r := job.Recommendations; r != nil {
		rows := [][]any{{"ID", "Title", "Category", "Priority score", "Effort", "Timeframe", "Cash increase (%)"}}
		for _, p := range r.Plans {
			rows = append(rows, []any{p.ID, p.Title, p.Category, p.PriorityScore, p.Effort, p.Timeframe, p.ImpactEstimate.CashIncreasePct * 100})
		}
		if err := addSheet(f, "Plans", rows); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func addSheet(f *excelize.File, name string, rows [][]any) error {
	if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", name, err)
	}
	return writeRows(f, name, rows)
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &rows[i]); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

// XML builds an XML document of the job analysis
func XML(job *models.Job) ([]byte, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	report := doc.CreateElement("report")
	report.CreateAttr("job_id", job.ID)
	report.CreateAttr("filename", job.Filename)
	report.CreateAttr("status", job.Status)
	report.CreateAttr("rows", strconv.Itoa(job.Data.Len()))

	if d := job.Diagnosis; d != nil {
		m := d.Metrics
		metrics := report.CreateElement("metrics")
		for _, kv := range []struct {
			name  string
			value float64
		}{
			{"cashBalance", m.CashBalance},
			{"monthlyRevenue", m.MonthlyRevenue},
			{"monthlyExpenses", m.MonthlyExpenses},
			{"monthlyBurn", m.MonthlyBurn},
			{"runway", m.Runway},
			{"cashTrend", m.CashTrend},
			{"grossMargin", m.GrossMargin},
		} {
			metrics.CreateElement(kv.name).SetText(formatFloat(kv.value))
		}

		alerts := report.CreateElement("alerts")
		for _, a := range d.Alerts {
			el := alerts.CreateElement("alert")
			el.CreateAttr("id", a.ID)
			el.CreateAttr("severity", a.Severity)
			el.CreateElement("title").SetText(a.Title)
			el.CreateElement("description").SetText(a.Description)
			el.CreateElement("recommendation").SetText(a.Recommendation)
		}
	}

	if fc := job.Forecast; fc != nil {
		forecast := report.CreateElement("forecast")
		forecast.CreateAttr("horizon", strconv.Itoa(fc.Horizon))
		forecast.CreateAttr("break_probability", formatFloat(fc.BreakRisk.Probability))
		for _, sc := range []struct {
			name   string
			points []models.ForecastPoint
		}{
			{"base", fc.Forecasts.Base},
			{"optimistic", fc.Forecasts.Optimistic},
			{"pessimistic", fc.Forecasts.Pessimistic},
		} {
			scenario := forecast.CreateElement("scenario")
			scenario.CreateAttr("name", sc.name)
			for _, p := range sc.points {
				pt := scenario.CreateElement("point")
				pt.CreateAttr("day", strconv.Itoa(p.Day))
				pt.CreateAttr("date", p.Date)
				pt.SetText(formatFloat(p.Value))
			}
		}
	}

	if r := job.Recommendations; r != nil {
		recs := report.CreateElement("recommendations")
		recs.CreateAttr("urgency", r.Urgency)
		for _, p := range r.Plans {
			plan := recs.CreateElement("plan")
			plan.CreateAttr("id", p.ID)
			plan.CreateAttr("priority_score", formatFloat(p.PriorityScore))
			plan.SetText(p.Title)
		}
	}

	doc.Indent(2)
	out, err := doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("failed to write XML report: %w", err)
	}
	return out, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
