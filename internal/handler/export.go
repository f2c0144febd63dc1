package handler

import (
	"bytes"
	"encoding/csv"
	"strconv"

	"github.com/xuri/excelize/v2"

	"hrdesk-backend/internal/domain"
	"hrdesk-backend/internal/service"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// sheetColumn is one exported column; Width is in excel character units.
type sheetColumn struct {
	Title string
	Width float64
}

func writeSheet(sheet string, columns []sheetColumn, rows [][]any) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, err
	}
	_ = f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	for c, col := range columns {
		cell, _ := excelize.CoordinatesToCellName(c+1, 1)
		_ = f.SetCellValue(sheet, cell, col.Title)
		name, _ := excelize.ColumnNumberToName(c + 1)
		_ = f.SetColWidth(sheet, name, name, col.Width)
	}
	for r, values := range rows {
		for c, v := range values {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}

	style, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#1F2937"}, Pattern: 1},
	})
	last, _ := excelize.CoordinatesToCellName(len(columns), 1)
	_ = f.SetCellStyle(sheet, "A1", last, style)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func exportPayrollXLSX(month string, rows []service.PayrollPreviewRow) ([]byte, error) {
	columns := []sheetColumn{
		{"Staff ID", 12}, {"Name", 26}, {"Department", 18}, {"Salary", 14},
		{"Working Days", 14}, {"Absent Days", 12}, {"Absence Deduction", 18},
		{"Overtime Minutes", 16}, {"Overtime Pay", 14}, {"Bonus", 12},
		{"Deduction", 12}, {"Due", 14}, {"Paid", 8},
	}
	values := make([][]any, 0, len(rows))
	for _, row := range rows {
		paid := "no"
		if row.Paid {
			paid = "yes"
		}
		values = append(values, []any{
			row.StaffCode,
			row.Name,
			row.Department,
			row.Salary.InexactFloat64(),
			row.WorkingDays,
			row.AbsentDays,
			row.AbsenceDeduction.InexactFloat64(),
			row.OvertimeMinutes,
			row.OvertimePay.InexactFloat64(),
			row.Bonus.InexactFloat64(),
			row.Deduction.InexactFloat64(),
			row.Due.InexactFloat64(),
			paid,
		})
	}
	return writeSheet("Payroll "+month, columns, values)
}

var expenseHeader = []string{"id", "title", "category", "branch_id", "amount", "paid_amount", "date", "status", "note"}

func exportExpensesCSV(items []domain.Expense) ([]byte, error) {
	buf := new(bytes.Buffer)
	w := csv.NewWriter(buf)
	_ = w.Write(expenseHeader)
	for _, e := range items {
		branch := ""
		if e.BranchID != nil {
			branch = strconv.FormatInt(*e.BranchID, 10)
		}
		_ = w.Write([]string{
			strconv.FormatInt(e.ID, 10),
			e.Title,
			e.Category,
			branch,
			e.Amount.StringFixed(2),
			e.PaidAmount.StringFixed(2),
			formatDate(e.Date),
			string(e.Status),
			e.Note,
		})
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func exportExpensesXLSX(items []domain.Expense) ([]byte, error) {
	columns := []sheetColumn{
		{"ID", 10}, {"Title", 28}, {"Category", 18}, {"Branch", 10},
		{"Amount", 14}, {"Paid", 14}, {"Date", 12}, {"Status", 14}, {"Note", 28},
	}
	rows := make([][]any, 0, len(items))
	for _, e := range items {
		var branch any
		if e.BranchID != nil {
			branch = *e.BranchID
		}
		rows = append(rows, []any{
			e.ID,
			e.Title,
			e.Category,
			branch,
			e.Amount.InexactFloat64(),
			e.PaidAmount.InexactFloat64(),
			formatDate(e.Date),
			string(e.Status),
			e.Note,
		})
	}
	return writeSheet("Expenses", columns, rows)
}
