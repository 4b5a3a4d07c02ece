// Package export renders budget snapshots as xlsx workbooks.
package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"dario.cat/mergo"
	"github.com/xuri/excelize/v2"

	"budgie/internal/services"
	"budgie/internal/sheets"
)

const moneyFormat = "#,##0.00;[Red]-#,##0.00"

// Workbook lays out one sheet per snapshot table.
func Workbook(snap *services.Snapshot) ([]byte, error) {
	xlsx := excelize.NewFile()
	defer xlsx.Close()

	_ = xlsx.SetAppProps(&excelize.AppProperties{
		Application: "budgie",
		DocSecurity: 2,
	})

	first := xlsx.GetSheetName(xlsx.GetActiveSheetIndex())
	for i, table := range sheets.Tables(snap) {
		name := table.Name
		if i == 0 {
			if err := xlsx.SetSheetName(first, name); err != nil {
				return nil, fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := xlsx.NewSheet(name); err != nil {
			return nil, fmt.Errorf("add sheet %s: %w", name, err)
		}
		if err := writeTable(xlsx, table); err != nil {
			return nil, fmt.Errorf("sheet %s: %w", name, err)
		}
	}

	buf, err := xlsx.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeTable(xlsx *excelize.File, table sheets.Table) error {
	sheet := table.Name
	for row, values := range table.Values() {
		ref, err := excelize.CoordinatesToCellName(1, row+1)
		if err != nil {
			return err
		}
		if err := xlsx.SetSheetRow(sheet, ref, &values); err != nil {
			return err
		}
	}

	cols := len(table.Header)
	if cols == 0 {
		return nil
	}
	lastCol, _ := excelize.ColumnNumberToName(cols)
	_ = xlsx.SetColWidth(sheet, "A", lastCol, 18)

	headerStyle, err := xlsx.NewStyle(mergeStyles(fontBold(), thinBorder("bottom")))
	if err != nil {
		return err
	}
	_ = xlsx.SetCellStyle(sheet, "A1", lastCol+"1", headerStyle)

	if len(table.Rows) == 0 {
		return nil
	}
	numberStyle, err := xlsx.NewStyle(mergeStyles(customNumberFormat(), textAlignment("right")))
	if err != nil {
		return err
	}
	for c := 0; c < cols; c++ {
		if !numericColumn(table.Rows, c) {
			continue
		}
		col, _ := excelize.ColumnNumberToName(c + 1)
		_ = xlsx.SetCellStyle(sheet, col+"2", fmt.Sprintf("%s%d", col, len(table.Rows)+1), numberStyle)
	}
	return xlsx.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

// numericColumn reports whether every non-empty cell of column c is money.
func numericColumn(rows [][]any, c int) bool {
	seen := false
	for _, row := range rows {
		if c >= len(row) {
			continue
		}
		switch row[c].(type) {
		case float64:
			seen = true
		case string:
			if row[c] != "" {
				return false
			}
		default:
			return false
		}
	}
	return seen
}

func customNumberFormat() *excelize.Style {
	f := moneyFormat
	return &excelize.Style{CustomNumFmt: &f}
}

func fontBold() *excelize.Style {
	return &excelize.Style{Font: &excelize.Font{Bold: true}}
}

func textAlignment(a string) *excelize.Style {
	return &excelize.Style{Alignment: &excelize.Alignment{Horizontal: a}}
}

func thinBorder(where ...string) *excelize.Style {
	s := &excelize.Style{}
	for _, w := range where {
		s.Border = append(s.Border, excelize.Border{Type: w, Color: "#000000", Style: 1})
	}
	return s
}

func mergeStyles(ext ...*excelize.Style) *excelize.Style {
	if len(ext) == 0 {
		return nil
	}
	for _, e := range ext[1:] {
		_ = mergo.Merge(ext[0], e, mergo.WithOverride)
	}
	return ext[0]
}

// FileWriter writes every snapshot over one xlsx file.
type FileWriter struct {
	Path string
}

var _ sheets.SnapshotWriter = FileWriter{}

// WriteSnapshot renders snap and replaces the file atomically.
func (f FileWriter) WriteSnapshot(ctx context.Context, snap *services.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := Workbook(snap)
	if err != nil {
		return fmt.Errorf("render workbook: %w", err)
	}
	if dir := filepath.Dir(f.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create export directory: %w", err)
		}
	}
	tmp := f.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	if err := os.Rename(tmp, f.Path); err != nil {
		return fmt.Errorf("replace workbook: %w", err)
	}
	return nil
}
