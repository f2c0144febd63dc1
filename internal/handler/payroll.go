package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"hrdesk-backend/internal/domain"
	"hrdesk-backend/internal/service"
)

type PayrollHandler struct {
	Service *service.PayrollService
}

func (h PayrollHandler) RegisterRoutes(r chi.Router) {
	r.Get("/payroll/preview", h.preview)
	r.Get("/payroll/export", h.export)
	r.Post("/payroll/process", h.process)
	r.Post("/payroll/bulk-process", h.bulkProcess)
	r.Post("/payroll/undo", h.undo)
	r.Post("/payroll/grace-attendance", h.grace)
	r.Get("/payroll/absent-dates", h.absentDates)
	r.Put("/payroll/adjustments", h.adjust)
	r.Get("/payroll/payments", h.payments)
}

func previewRowView(row service.PayrollPreviewRow) map[string]any {
	absent := make([]string, 0, len(row.AbsentDates))
	for _, d := range row.AbsentDates {
		absent = append(absent, formatDate(d))
	}
	out := map[string]any{
		"staffId":          row.StaffID,
		"staffCode":        row.StaffCode,
		"name":             row.Name,
		"department":       row.Department,
		"designation":      row.Designation,
		"branchId":         row.BranchID,
		"salary":           money(row.Salary),
		"workingDays":      row.WorkingDays,
		"dailyRate":        money(row.DailyRate),
		"absentDays":       row.AbsentDays,
		"absentDates":      absent,
		"absenceDeduction": money(row.AbsenceDeduction),
		"graceDays":        row.GraceDays,
		"overtimeMinutes":  row.OvertimeMinutes,
		"overtimePay":      money(row.OvertimePay),
		"bonus":            money(row.Bonus),
		"deduction":        money(row.Deduction),
		"due":              money(row.Due),
		"paid":             row.Paid,
		"adjustmentNote":   row.AdjustmentNote,
		"payment":          nil,
	}
	if row.Payment != nil {
		out["payment"] = paymentView(*row.Payment)
	}
	return out
}

func (h PayrollHandler) preview(w http.ResponseWriter, r *http.Request) {
	branchID, ok := queryID(w, r, "branchId")
	if !ok {
		return
	}
	rows, err := h.Service.Preview(r.Context(), r.URL.Query().Get("month"), branchID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listView(rows, previewRowView))
}

func (h PayrollHandler) export(w http.ResponseWriter, r *http.Request) {
	branchID, ok := queryID(w, r, "branchId")
	if !ok {
		return
	}
	month := r.URL.Query().Get("month")
	rows, err := h.Service.Preview(r.Context(), month, branchID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	data, err := exportPayrollXLSX(month, rows)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"payroll_%s.xlsx\"", month))
	_, _ = w.Write(data)
}

type paymentRequest struct {
	StaffID       int64            `json:"staffId" validate:"required,gt=0"`
	Month         string           `json:"month" validate:"required"`
	Amount        decimal.Decimal  `json:"amount"`
	PaymentMethod string           `json:"paymentMethod"`
	Bonus         *decimal.Decimal `json:"bonus"`
	Deduction     *decimal.Decimal `json:"deduction"`
	Note          string           `json:"note"`
	PaymentType   string           `json:"paymentType" validate:"omitempty,oneof=salary bonus advance"`
}

func (h PayrollHandler) process(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	var req paymentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := h.Service.ProcessPayment(r.Context(), actor, service.ProcessPaymentInput{
		StaffID:       req.StaffID,
		Month:         req.Month,
		Amount:        req.Amount,
		PaymentMethod: req.PaymentMethod,
		Bonus:         req.Bonus,
		Deduction:     req.Deduction,
		Note:          req.Note,
		PaymentType:   domain.PaymentType(req.PaymentType),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeMessage(w, http.StatusCreated, "payment processed", paymentView(*p))
}

func (h PayrollHandler) bulkProcess(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	// items are checked one by one by the service so a bad entry lands in failed[]
	var req struct {
		Month         string `json:"month" validate:"required"`
		PaymentMethod string `json:"paymentMethod"`
		Payments      []struct {
			StaffID     int64            `json:"staffId"`
			Amount      decimal.Decimal  `json:"amount"`
			Bonus       *decimal.Decimal `json:"bonus"`
			Deduction   *decimal.Decimal `json:"deduction"`
			Note        string           `json:"note"`
			PaymentType string           `json:"paymentType"`
		} `json:"payments" validate:"required,min=1"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	items := make([]service.BulkPaymentItem, 0, len(req.Payments))
	for _, it := range req.Payments {
		items = append(items, service.BulkPaymentItem{
			StaffID:     it.StaffID,
			Amount:      it.Amount,
			Bonus:       it.Bonus,
			Deduction:   it.Deduction,
			Note:        it.Note,
			PaymentType: domain.PaymentType(it.PaymentType),
		})
	}
	res, err := h.Service.BulkProcessPayment(r.Context(), actor, req.Month, items, req.PaymentMethod)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bulkView(res, paymentView))
}

func bulkView[T any](res service.BulkResult[T], view func(T) map[string]any) map[string]any {
	failed := make([]map[string]any, 0, len(res.Failed))
	for _, f := range res.Failed {
		failed = append(failed, map[string]any{"key": f.Key, "error": f.Error})
	}
	return map[string]any{
		"succeeded": listView(res.Succeeded, view),
		"failed":    failed,
	}
}

func (h PayrollHandler) undo(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	var req struct {
		StaffID     int64  `json:"staffId" validate:"required,gt=0"`
		Month       string `json:"month" validate:"required"`
		PaymentType string `json:"paymentType" validate:"omitempty,oneof=salary bonus advance"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := h.Service.UndoPayroll(r.Context(), actor, req.StaffID, req.Month, domain.PaymentType(req.PaymentType))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "payment reversed", paymentView(*p))
}

func (h PayrollHandler) grace(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	var req struct {
		StaffID int64  `json:"staffId" validate:"required,gt=0"`
		Date    string `json:"date" validate:"required"`
		Note    string `json:"note"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	day, err := h.Service.GraceAttendance(r.Context(), actor, req.StaffID, req.Date, req.Note)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, attendanceView(*day))
}

func (h PayrollHandler) absentDates(w http.ResponseWriter, r *http.Request) {
	staffID, err := strconv.ParseInt(r.URL.Query().Get("staffId"), 10, 64)
	if err != nil || staffID <= 0 {
		writeError(w, http.StatusBadRequest, "invalid staffId")
		return
	}
	dates, err := h.Service.AbsentDates(r.Context(), staffID, r.URL.Query().Get("month"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	out := make([]string, 0, len(dates))
	for _, d := range dates {
		out = append(out, formatDate(d))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h PayrollHandler) adjust(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	var req struct {
		StaffID   int64           `json:"staffId" validate:"required,gt=0"`
		Month     string          `json:"month" validate:"required"`
		Bonus     decimal.Decimal `json:"bonus"`
		Deduction decimal.Decimal `json:"deduction"`
		Note      string          `json:"note"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	adj, err := h.Service.SetAdjustment(r.Context(), actor, req.StaffID, req.Month, req.Bonus, req.Deduction, req.Note)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"staffId":   adj.StaffID,
		"month":     adj.Month.String(),
		"bonus":     money(adj.Bonus),
		"deduction": money(adj.Deduction),
		"note":      adj.Note,
	})
}

func (h PayrollHandler) payments(w http.ResponseWriter, r *http.Request) {
	includeReversed, _ := strconv.ParseBool(r.URL.Query().Get("includeReversed"))
	items, err := h.Service.ListPayments(r.Context(), r.URL.Query().Get("month"), includeReversed)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listView(items, paymentView))
}
