package exports

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/angelmondragon/gatepass-backend/internal/gatepasses"
	"github.com/angelmondragon/gatepass-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/gatepass-backend/pkg/errors"
)

const (
	SheetName   = "Gate Passes"
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	timeLayout  = "2006-01-02 15:04:05"
)

// Header is the fixed column order of the export.
var Header = []string{
	"Number",
	"Person",
	"Description",
	"Status",
	"Returnable",
	"Created By",
	"Created At",
	"Approved At",
	"Rejected At",
	"Exit Time",
	"Return Time",
}

var columnWidths = []float64{16, 28, 40, 16, 12, 18, 20, 20, 20, 20, 20}

// WriteGatePasses renders passes as a single-sheet workbook. Timestamps are
// shown in loc; a nil loc means UTC.
func WriteGatePasses(w io.Writer, passes []models.GatePass, loc *time.Location) error {
	if loc == nil {
		loc = time.UTC
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(SheetName)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("drop default sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	if err := writeRow(f, 1, toCells(Header)); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(Header), 1)
	if err != nil {
		return fmt.Errorf("header range: %w", err)
	}
	if err := f.SetCellStyle(SheetName, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("set header style: %w", err)
	}

	for i, width := range columnWidths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return fmt.Errorf("column name: %w", err)
		}
		if err := f.SetColWidth(SheetName, col, col, width); err != nil {
			return fmt.Errorf("set column width: %w", err)
		}
	}

	for i := range passes {
		if err := writeRow(f, i+2, passRow(&passes[i], loc)); err != nil {
			return err
		}
	}

	if err := f.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeRow(f *excelize.File, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("row %d: %w", row, err)
	}
	if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
		return fmt.Errorf("write row %d: %w", row, err)
	}
	return nil
}

func toCells(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

func passRow(p *models.GatePass, loc *time.Location) []any {
	returnable := "no"
	if p.IsReturnable {
		returnable = "yes"
	}
	return []any{
		p.Number,
		p.PersonName,
		p.Description,
		string(p.Status),
		returnable,
		p.CreatedBy,
		p.CreatedAt.In(loc).Format(timeLayout),
		formatOptional(p.ApprovedAt, loc),
		formatOptional(p.RejectedAt, loc),
		formatOptional(p.ExitTime, loc),
		formatOptional(p.ReturnTime, loc),
	}
}

func formatOptional(t *time.Time, loc *time.Location) string {
	if t == nil {
		return ""
	}
	return t.In(loc).Format(timeLayout)
}

// Lister is the read side of the gate pass engine the exporter depends on.
type Lister interface {
	List(ctx context.Context, filter gatepasses.ListFilter) ([]models.GatePass, error)
}

// Exporter streams filtered pass listings as XLSX.
type Exporter struct {
	passes Lister
	loc    *time.Location
}

func NewExporter(passes Lister, loc *time.Location) (*Exporter, error) {
	if passes == nil {
		return nil, fmt.Errorf("gate pass lister required")
	}
	return &Exporter{passes: passes, loc: loc}, nil
}

// Export writes every pass matching filter, newest first.
func (e *Exporter) Export(ctx context.Context, w io.Writer, filter gatepasses.ListFilter) error {
	passes, err := e.passes.List(ctx, filter)
	if err != nil {
		return err
	}
	if err := WriteGatePasses(w, passes, e.loc); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render export")
	}
	return nil
}
