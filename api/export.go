/*
export.go - xlsx rendering of recommendations and balances

PURPOSE:
  Renders the recommendation engine's output and the actor's ledger rows as
  Excel workbooks so they can be shared outside the API. One sheet per
  export, built in memory and streamed to the response.
*/
package api

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/meridian/leave-engine/leave"
	"github.com/meridian/leave-engine/recommend"
)

// ExportRecommendation streams the actor's recommended leave days for a
// year as an .xlsx attachment.
// GET /api/recommends/leave-plan/export?year=2026
func (h *Handler) ExportRecommendation(w http.ResponseWriter, r *http.Request) {
	days, ok := h.recommendDays(w, r)
	if !ok {
		return
	}
	year := time.Now().Year()
	if len(days) > 0 {
		year = days[0].Date.Year()
	}

	buf, err := renderRecommendationSheet(year, days)
	if err != nil {
		h.internalError(w, "export recommendation", err)
		return
	}

	filename := fmt.Sprintf("leave-plan-%d.xlsx", year)
	w.Header().Set("Content-Type",
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Write(buf.Bytes())
}

// ExportBalances streams the actor's ledger rows for a year as an .xlsx
// attachment, one row per leave type.
// GET /api/leave-balances/export?year=2026
func (h *Handler) ExportBalances(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	year, ok := yearParam(w, r, time.Now().Year())
	if !ok {
		return
	}
	rows, err := h.Store.BalancesByOwner(r.Context(), actor.ID, year)
	if err != nil {
		h.internalError(w, "export balances", err)
		return
	}
	types, err := h.Store.LeaveTypes(r.Context())
	if err != nil {
		h.internalError(w, "export balances", err)
		return
	}
	names := make(map[string]string, len(types))
	for _, lt := range types {
		names[lt.ID.String()] = lt.Name
	}

	buf, err := renderBalanceSheet(year, rows, names)
	if err != nil {
		h.internalError(w, "export balances", err)
		return
	}

	filename := fmt.Sprintf("leave-balances-%d.xlsx", year)
	w.Header().Set("Content-Type",
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Write(buf.Bytes())
}

var weekdayNames = [7]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

func renderRecommendationSheet(year int, days []recommend.Day) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Leave Plan"
	idx, err := f.NewSheet(sheet)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	f.SetColWidth(sheet, "A", "A", 14)
	f.SetColWidth(sheet, "B", "B", 10)
	f.SetColWidth(sheet, "C", "E", 16)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, err
	}

	f.SetCellValue(sheet, "A1", fmt.Sprintf("Recommended leave days %d", year))
	f.MergeCell(sheet, "A1", "E1")
	f.SetCellStyle(sheet, "A1", "A1", headerStyle)

	headers := []string{"Date", "Weekday", "Bridge day", "Team workload", "Score"}
	for i, head := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		f.SetCellValue(sheet, cell, head)
		f.SetCellStyle(sheet, cell, cell, headerStyle)
	}

	for i, d := range days {
		row := i + 3
		set := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			f.SetCellValue(sheet, cell, v)
		}
		set(1, d.Date.Format("2006-01-02"))
		set(2, weekdayNames[d.Weekday])
		set(3, d.IsBridge)
		set(4, d.TeamWorkload)
		set(5, d.PredictedScore)
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func renderBalanceSheet(year int, rows []leave.Balance, typeNames map[string]string) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Balances"
	idx, err := f.NewSheet(sheet)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	f.SetColWidth(sheet, "A", "A", 24)
	f.SetColWidth(sheet, "B", "D", 12)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, err
	}

	f.SetCellValue(sheet, "A1", fmt.Sprintf("Leave balances %d", year))
	f.MergeCell(sheet, "A1", "D1")
	f.SetCellStyle(sheet, "A1", "A1", headerStyle)

	headers := []string{"Leave type", "Granted", "Taken", "Available"}
	for i, head := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		f.SetCellValue(sheet, cell, head)
		f.SetCellStyle(sheet, cell, cell, headerStyle)
	}

	for i, b := range rows {
		row := i + 3
		set := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			f.SetCellValue(sheet, cell, v)
		}
		name := typeNames[b.LeaveTypeID.String()]
		if name == "" {
			name = b.LeaveTypeID.String()
		}
		set(1, name)
		set(2, b.Granted.String())
		set(3, b.Taken.String())
		set(4, b.Available().String())
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, err
	}
	return buf, nil
}
