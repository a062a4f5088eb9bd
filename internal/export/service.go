package export

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"github.com/xuri/excelize/v2"

	"github.com/gemtrack/bid-tracker/constants"
	"github.com/gemtrack/bid-tracker/internal/repository"
)

// Service is a tiny façade over the document repository that produces
// XLSX workbooks and JSON dumps for exports.
type Service struct {
	docs   repository.BidDocumentRepository
	logger *slog.Logger
}

func NewService(docs repository.BidDocumentRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{docs: docs, logger: logger}
}

// ExportBidsXLSX returns an XLSX workbook (as bytes) with one "Bids" sheet
// holding every stored document, one row per document, and a "Summary"
// sheet with fill counts per field.
func (s *Service) ExportBidsXLSX(ctx context.Context) ([]byte, error) {
	start := time.Now()

	docs, err := s.docs.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}

	f := excelize.NewFile()
	const sheet = "Bids"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	if index, _ := f.GetSheetIndex("Sheet1"); index != -1 {
		_ = f.DeleteSheet("Sheet1")
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	headers := append([]string{"source_file"}, constants.FieldNames...)
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	// non-empty cell counts per field, for the Summary sheet
	filled := make(map[string]int, len(constants.FieldNames))

	row := 2
	for _, d := range docs {
		fields := decodeFields(d.Fields)

		write := func(col int, v string) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, sanitizeCell(v))
		}

		write(1, d.SourceFile)
		for i, name := range constants.FieldNames {
			v := fields[name]
			if v != "" {
				filled[name]++
			}
			write(i+2, v)
		}
		row++
	}

	// Widen the columns people actually read
	_ = f.SetColWidth(sheet, "A", "A", 48) // source file
	_ = f.SetColWidth(sheet, "B", "C", 16) // dated, bid number
	_ = f.SetColWidth(sheet, "D", "H", 28) // org hierarchy
	_ = f.SetColWidth(sheet, "I", "J", 36) // period, category

	if err := writeSummarySheet(f, len(docs), filled); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(docs),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func writeSummarySheet(f *excelize.File, total int, filled map[string]int) error {
	const sheet = "Summary"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	_ = f.SetCellValue(sheet, "A1", "Total Documents")
	_ = f.SetCellValue(sheet, "B1", total)
	_ = f.SetCellValue(sheet, "A2", "Exported At")
	_ = f.SetCellValue(sheet, "B2", time.Now().UTC().Format(time.RFC3339))

	_ = f.SetCellValue(sheet, "A4", "Field")
	_ = f.SetCellValue(sheet, "B4", "Filled")
	_ = f.SetCellValue(sheet, "C4", "Fill Rate")
	row := 5
	for _, name := range constants.FieldNames {
		n := filled[name]
		rate := ""
		if total > 0 {
			rate = fmt.Sprintf("%.0f%%", float64(n)/float64(total)*100)
		}
		cellA, _ := excelize.CoordinatesToCellName(1, row)
		cellB, _ := excelize.CoordinatesToCellName(2, row)
		cellC, _ := excelize.CoordinatesToCellName(3, row)
		_ = f.SetCellValue(sheet, cellA, name)
		_ = f.SetCellValue(sheet, cellB, n)
		_ = f.SetCellValue(sheet, cellC, rate)
		row++
	}
	_ = f.SetColWidth(sheet, "A", "A", 28)
	return nil
}

// bidRow is the JSON export shape for one stored document.
type bidRow struct {
	SourceFile string            `json:"source_file"`
	BidNumber  string            `json:"bid_number,omitempty"`
	Dated      string            `json:"dated,omitempty"`
	Fields     map[string]string `json:"fields"`
	CreatedAt  time.Time         `json:"created_at"`
}

// ExportBidsJSON returns all stored documents as a JSON array.
func (s *Service) ExportBidsJSON(ctx context.Context) ([]byte, error) {
	docs, err := s.docs.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}

	rows := make([]bidRow, 0, len(docs))
	for _, d := range docs {
		r := bidRow{
			SourceFile: d.SourceFile,
			BidNumber:  d.BidNumber,
			Fields:     decodeFields(d.Fields),
			CreatedAt:  d.CreatedAt,
		}
		if d.Dated != nil {
			r.Dated = d.Dated.Format("2006-01-02")
		}
		rows = append(rows, r)
	}

	out, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("json marshal: %w", err)
	}
	s.logger.Info("export.json.ok", "rows", len(rows))
	return out, nil
}

// decodeFields flattens the stored field document into display strings.
// Numbers are re-rendered without a trailing ".0"; nulls become empty strings.
func decodeFields(raw json.RawMessage) map[string]string {
	out := make(map[string]string, len(constants.FieldNames))
	if len(raw) == 0 {
		return out
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return out
	}
	for k, v := range m {
		switch t := v.(type) {
		case nil:
			out[k] = ""
		case string:
			out[k] = t
		case float64:
			if t == float64(int64(t)) {
				out[k] = fmt.Sprintf("%d", int64(t))
			} else {
				out[k] = fmt.Sprintf("%g", t)
			}
		default:
			out[k] = fmt.Sprintf("%v", t)
		}
	}
	return out
}

// sanitizeCell strips control characters Excel refuses to store and caps
// the cell at the XLSX limit.
func sanitizeCell(s string) string {
	const maxCell = 32767
	s = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
	if len(s) > maxCell {
		s = s[:maxCell]
	}
	return s
}
