package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"hrdesk-backend/internal/apperr"
	"hrdesk-backend/internal/config"
	"hrdesk-backend/internal/domain"
	"hrdesk-backend/internal/metrics"
	"hrdesk-backend/internal/ports"
)

// defaultOffDay applies to staff without an assigned shift.
const defaultOffDay = time.Friday

var sixty = decimal.NewFromInt(60)

type PayrollService struct {
	Staff      ports.StaffStore
	Shifts     ports.ShiftStore
	Attendance ports.AttendanceStore
	Overtime   ports.OvertimeStore
	Payroll    ports.PayrollStore
	Audit      Auditor
	Logger     *slog.Logger
	Policy     config.PayrollPolicy
	Now        func() time.Time
}

// PayrollPreviewRow is the computed, unpersisted salary due of one staff member.
type PayrollPreviewRow struct {
	StaffID          int64
	StaffCode        string
	Name             string
	Department       string
	Designation      string
	BranchID         *int64
	Salary           decimal.Decimal
	WorkingDays      int
	DailyRate        decimal.Decimal
	AbsentDays       int
	AbsentDates      []time.Time
	AbsenceDeduction decimal.Decimal
	GraceDays        int
	OvertimeMinutes  int
	OvertimePay      decimal.Decimal
	Bonus            decimal.Decimal
	Deduction        decimal.Decimal
	Due              decimal.Decimal
	Paid             bool
	Payment          *domain.PayrollPayment
	AdjustmentNote   string
}

type previewInput struct {
	staff      domain.Staff
	month      domain.Month
	offDays    []time.Weekday
	holidays   map[string]bool
	attendance []domain.AttendanceDay
	overtime   []domain.Overtime
	payment    *domain.PayrollPayment
	adjustment *domain.PayrollAdjustment
	policy     config.PayrollPolicy
}

// workingDates lists the month's dates that are neither a weekly off day nor a shift holiday.
func workingDates(month domain.Month, offDays []time.Weekday, holidays map[string]bool) map[string]bool {
	off := make(map[time.Weekday]bool, len(offDays))
	for _, d := range offDays {
		off[d] = true
	}
	out := make(map[string]bool, month.DaysIn())
	for _, d := range month.Dates() {
		key := d.Format(domain.DateLayout)
		if off[d.Weekday()] || holidays[key] {
			continue
		}
		out[key] = true
	}
	return out
}

func buildPreviewRow(in previewInput) PayrollPreviewRow {
	st := in.staff
	row := PayrollPreviewRow{
		StaffID:     st.ID,
		StaffCode:   st.StaffCode,
		Name:        st.Name,
		Department:  st.Department,
		Designation: st.Designation,
		BranchID:    st.BranchID,
		Salary:      domain.Round2(st.Salary),
	}

	working := workingDates(in.month, in.offDays, in.holidays)
	row.WorkingDays = len(working)
	daily := decimal.Zero
	if row.WorkingDays > 0 {
		daily = st.Salary.Div(decimal.NewFromInt(int64(row.WorkingDays)))
	}
	row.DailyRate = domain.Round2(daily)

	for _, a := range in.attendance {
		if !in.month.Contains(a.Date) {
			continue
		}
		switch a.Status {
		case domain.AttendanceGrace:
			row.GraceDays++
		case domain.AttendanceAbsent:
			if working[a.Date.Format(domain.DateLayout)] {
				row.AbsentDays++
				row.AbsentDates = append(row.AbsentDates, a.Date)
			}
		}
	}
	sort.Slice(row.AbsentDates, func(i, j int) bool { return row.AbsentDates[i].Before(row.AbsentDates[j]) })
	row.AbsenceDeduction = domain.Round2(daily.Mul(decimal.NewFromInt(int64(row.AbsentDays))))

	for _, o := range in.overtime {
		if o.Status != domain.OvertimeApproved || o.State() != domain.OvertimeCompleted || !in.month.Contains(o.Date) {
			continue
		}
		row.OvertimeMinutes += o.DurationMinutes
	}
	if row.OvertimeMinutes > 0 && in.policy.StandardHours.IsPositive() {
		hourly := daily.Div(in.policy.StandardHours).Mul(in.policy.OvertimeMultiplier)
		row.OvertimePay = domain.Round2(decimal.NewFromInt(int64(row.OvertimeMinutes)).Div(sixty).Mul(hourly))
	}

	switch {
	case in.payment != nil:
		row.Paid = true
		row.Payment = in.payment
		row.Bonus = in.payment.Bonus
		row.Deduction = in.payment.Deduction
	case in.adjustment != nil:
		row.Bonus = in.adjustment.Bonus
		row.Deduction = in.adjustment.Deduction
		row.AdjustmentNote = in.adjustment.Note
	}
	row.Bonus = domain.Round2(row.Bonus)
	row.Deduction = domain.Round2(row.Deduction)

	due := row.Salary.Sub(row.AbsenceDeduction).Add(row.OvertimePay).Add(row.Bonus).Sub(row.Deduction)
	if due.IsNegative() {
		due = decimal.Zero
	}
	row.Due = domain.Round2(due)
	return row
}

// Preview computes the salary due of every active staff member for the month.
func (s PayrollService) Preview(ctx context.Context, month string, branchID *int64) ([]PayrollPreviewRow, error) {
	m, err := parseMonth(month)
	if err != nil {
		return nil, err
	}
	staff, _, err := s.Staff.ListStaff(ctx, ports.StaffFilter{BranchID: branchID, Status: domain.StaffActive})
	if err != nil {
		return nil, storeErr(err, "staff")
	}
	if len(staff) == 0 {
		return []PayrollPreviewRow{}, nil
	}

	from, to := m.FirstDay(), m.NextFirstDay()
	staffIDs := make([]int64, 0, len(staff))
	shiftIDs := make([]int64, 0)
	seenShift := map[int64]bool{}
	for _, st := range staff {
		staffIDs = append(staffIDs, st.ID)
		if st.ShiftID != nil && !seenShift[*st.ShiftID] {
			seenShift[*st.ShiftID] = true
			shiftIDs = append(shiftIDs, *st.ShiftID)
		}
	}

	shifts := map[int64]domain.Shift{}
	if len(shiftIDs) > 0 {
		all, err := s.Shifts.ListShifts(ctx)
		if err != nil {
			return nil, storeErr(err, "shift")
		}
		for _, sh := range all {
			shifts[sh.ID] = sh
		}
	}
	holidays := map[int64]map[string]bool{}
	if len(shiftIDs) > 0 {
		offDates, err := s.Shifts.ListShiftOffDates(ctx, shiftIDs, from, to)
		if err != nil {
			return nil, storeErr(err, "shift off date")
		}
		for _, od := range offDates {
			if holidays[od.ShiftID] == nil {
				holidays[od.ShiftID] = map[string]bool{}
			}
			holidays[od.ShiftID][od.Date.Format(domain.DateLayout)] = true
		}
	}

	attendance, err := s.Attendance.ListAttendance(ctx, staffIDs, from, to)
	if err != nil {
		return nil, storeErr(err, "attendance")
	}
	byStaffAttendance := map[int64][]domain.AttendanceDay{}
	for _, a := range attendance {
		byStaffAttendance[a.StaffID] = append(byStaffAttendance[a.StaffID], a)
	}

	overtime, err := s.Overtime.ListOvertime(ctx, ports.OvertimeFilter{Status: domain.OvertimeApproved, From: &from, To: &to})
	if err != nil {
		return nil, storeErr(err, "overtime")
	}
	byStaffOvertime := map[int64][]domain.Overtime{}
	for _, o := range overtime {
		byStaffOvertime[o.StaffID] = append(byStaffOvertime[o.StaffID], o)
	}

	payments, err := s.Payroll.ListPayments(ctx, m, false)
	if err != nil {
		return nil, storeErr(err, "payment")
	}
	paid := map[int64]*domain.PayrollPayment{}
	for i := range payments {
		if payments[i].PaymentType == domain.PaymentSalary {
			paid[payments[i].StaffID] = &payments[i]
		}
	}

	adjustments, err := s.Payroll.ListAdjustments(ctx, m)
	if err != nil {
		return nil, storeErr(err, "adjustment")
	}
	adjusted := map[int64]*domain.PayrollAdjustment{}
	for i := range adjustments {
		adjusted[adjustments[i].StaffID] = &adjustments[i]
	}

	rows := make([]PayrollPreviewRow, 0, len(staff))
	for _, st := range staff {
		in := previewInput{
			staff:      st,
			month:      m,
			offDays:    []time.Weekday{defaultOffDay},
			attendance: byStaffAttendance[st.ID],
			overtime:   byStaffOvertime[st.ID],
			payment:    paid[st.ID],
			adjustment: adjusted[st.ID],
			policy:     s.Policy,
		}
		if st.ShiftID != nil {
			if sh, ok := shifts[*st.ShiftID]; ok {
				in.offDays = sh.WeeklyOffDays
				in.holidays = holidays[sh.ID]
			}
		}
		rows = append(rows, buildPreviewRow(in))
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].StaffCode < rows[j].StaffCode })
	return rows, nil
}

type ProcessPaymentInput struct {
	StaffID       int64
	Month         string
	Amount        decimal.Decimal
	PaymentMethod string
	Bonus         *decimal.Decimal
	Deduction     *decimal.Decimal
	Note          string
	PaymentType   domain.PaymentType
}

// ProcessPayment records a payment. A second active payment of the same staff,
// month and type is rejected until the first one is undone.
func (s PayrollService) ProcessPayment(ctx context.Context, actor Actor, in ProcessPaymentInput) (*domain.PayrollPayment, error) {
	if in.StaffID <= 0 {
		return nil, apperr.Field("staffId", "is required")
	}
	m, err := parseMonth(in.Month)
	if err != nil {
		return nil, err
	}
	if err := requirePositive("amount", in.Amount); err != nil {
		return nil, err
	}
	if in.PaymentMethod == "" {
		return nil, apperr.Field("paymentMethod", "is required")
	}
	if in.PaymentType == "" {
		in.PaymentType = domain.PaymentSalary
	}
	if !in.PaymentType.Valid() {
		return nil, apperr.Field("paymentType", "must be one of salary, bonus, advance")
	}

	st, err := s.Staff.GetStaff(ctx, in.StaffID)
	if err != nil {
		return nil, storeErr(err, "staff")
	}

	bonus, deduction, err := s.resolveAdjustment(ctx, st.ID, m, in.Bonus, in.Deduction)
	if err != nil {
		return nil, err
	}

	payment, err := s.Payroll.CreatePayment(ctx, domain.PayrollPayment{
		StaffID:       st.ID,
		Month:         m,
		PaymentType:   in.PaymentType,
		Amount:        domain.Round2(in.Amount),
		Bonus:         bonus,
		Deduction:     deduction,
		PaymentMethod: in.PaymentMethod,
		Note:          in.Note,
		PaidAt:        nowFrom(s.Now),
		PaidBy:        actor.ref(),
	})
	if errors.Is(err, ports.ErrDuplicate) {
		metrics.PayrollPayments.WithLabelValues("duplicate").Inc()
		return nil, apperr.Conflict("%s payment for %s in %s already processed; undo it first", in.PaymentType, st.StaffCode, m)
	}
	if err != nil {
		metrics.PayrollPayments.WithLabelValues("error").Inc()
		return nil, storeErr(err, "payment")
	}

	metrics.PayrollPayments.WithLabelValues("processed").Inc()
	loggerOrDefault(s.Logger).InfoContext(ctx, "payroll payment processed",
		"staff", st.StaffCode, "month", m.String(), "type", string(in.PaymentType), "amount", payment.Amount.StringFixed(2))
	s.Audit.Record(ctx, actor, "payroll.process", "staff", st.ID, "%s payment of %s for %s", in.PaymentType, payment.Amount.StringFixed(2), m)
	return payment, nil
}

// resolveAdjustment falls back to the month's adjustment for omitted amounts.
func (s PayrollService) resolveAdjustment(ctx context.Context, staffID int64, m domain.Month, bonus, deduction *decimal.Decimal) (decimal.Decimal, decimal.Decimal, error) {
	b, d := decimal.Zero, decimal.Zero
	if bonus == nil || deduction == nil {
		adjustments, err := s.Payroll.ListAdjustments(ctx, m)
		if err != nil {
			return b, d, storeErr(err, "adjustment")
		}
		for _, a := range adjustments {
			if a.StaffID == staffID {
				b, d = a.Bonus, a.Deduction
				break
			}
		}
	}
	if bonus != nil {
		b = *bonus
	}
	if deduction != nil {
		d = *deduction
	}
	if err := requireNonNegative("bonus", b); err != nil {
		return b, d, err
	}
	if err := requireNonNegative("deduction", d); err != nil {
		return b, d, err
	}
	return domain.Round2(b), domain.Round2(d), nil
}

type BulkPaymentItem struct {
	StaffID     int64
	Amount      decimal.Decimal
	Bonus       *decimal.Decimal
	Deduction   *decimal.Decimal
	Note        string
	PaymentType domain.PaymentType
}

// BulkProcessPayment processes every item in order; one failure never undoes the others.
func (s PayrollService) BulkProcessPayment(ctx context.Context, actor Actor, month string, items []BulkPaymentItem, paymentMethod string) (BulkResult[domain.PayrollPayment], error) {
	var res BulkResult[domain.PayrollPayment]
	if _, err := parseMonth(month); err != nil {
		return res, err
	}
	if len(items) == 0 {
		return res, apperr.Field("payments", "must not be empty")
	}
	res.Succeeded = []domain.PayrollPayment{}
	res.Failed = []BulkFailure{}
	for _, item := range items {
		p, err := s.ProcessPayment(ctx, actor, ProcessPaymentInput{
			StaffID:       item.StaffID,
			Month:         month,
			Amount:        item.Amount,
			PaymentMethod: paymentMethod,
			Bonus:         item.Bonus,
			Deduction:     item.Deduction,
			Note:          item.Note,
			PaymentType:   item.PaymentType,
		})
		if err != nil {
			res.fail(strconv.FormatInt(item.StaffID, 10), err)
			continue
		}
		res.Succeeded = append(res.Succeeded, *p)
	}
	loggerOrDefault(s.Logger).InfoContext(ctx, "bulk payroll processed",
		"month", month, "succeeded", len(res.Succeeded), "failed", len(res.Failed))
	return res, nil
}

// UndoPayroll reverses the active payment so the preview returns to its unpaid state.
func (s PayrollService) UndoPayroll(ctx context.Context, actor Actor, staffID int64, month string, paymentType domain.PaymentType) (*domain.PayrollPayment, error) {
	if staffID <= 0 {
		return nil, apperr.Field("staffId", "is required")
	}
	m, err := parseMonth(month)
	if err != nil {
		return nil, err
	}
	if paymentType == "" {
		paymentType = domain.PaymentSalary
	}
	if !paymentType.Valid() {
		return nil, apperr.Field("paymentType", "must be one of salary, bonus, advance")
	}
	st, err := s.Staff.GetStaff(ctx, staffID)
	if err != nil {
		return nil, storeErr(err, "staff")
	}
	payment, err := s.Payroll.GetActivePayment(ctx, staffID, m, paymentType)
	if errors.Is(err, ports.ErrNotFound) {
		return nil, apperr.NotFound(fmt.Sprintf("%s payment for %s in %s", paymentType, st.StaffCode, m))
	}
	if err != nil {
		return nil, storeErr(err, "payment")
	}
	at := nowFrom(s.Now)
	if err := s.Payroll.ReversePayment(ctx, payment.ID, actor.ref(), at); err != nil {
		return nil, storeErr(err, "payment")
	}
	payment.ReversedAt = &at
	payment.ReversedBy = actor.ref()

	metrics.PayrollUndos.Inc()
	loggerOrDefault(s.Logger).InfoContext(ctx, "payroll payment undone", "staff", st.StaffCode, "month", m.String(), "type", string(paymentType))
	s.Audit.Record(ctx, actor, "payroll.undo", "staff", st.ID, "reversed %s payment %d for %s", paymentType, payment.ID, m)
	return payment, nil
}

// GraceAttendance marks one day as excused so it no longer counts as an absence.
func (s PayrollService) GraceAttendance(ctx context.Context, actor Actor, staffID int64, date, note string) (*domain.AttendanceDay, error) {
	if staffID <= 0 {
		return nil, apperr.Field("staffId", "is required")
	}
	d, err := parseDate("date", date)
	if err != nil {
		return nil, err
	}
	if _, err := s.Staff.GetStaff(ctx, staffID); err != nil {
		return nil, storeErr(err, "staff")
	}
	day := domain.AttendanceDay{StaffID: staffID, Date: d}
	existing, err := s.Attendance.GetAttendanceDay(ctx, staffID, d)
	switch {
	case err == nil:
		day = *existing
	case !errors.Is(err, ports.ErrNotFound):
		return nil, storeErr(err, "attendance")
	}
	day.Status = domain.AttendanceGrace
	day.Note = note
	day.Source = "grace"

	saved, err := s.Attendance.UpsertAttendanceDay(ctx, day)
	if err != nil {
		return nil, storeErr(err, "attendance")
	}
	s.Audit.Record(ctx, actor, "attendance.grace", "staff", staffID, "grace granted for %s", date)
	return saved, nil
}

// AbsentDates lists the absences the preview deducts: absent rows on the staff member's working dates.
func (s PayrollService) AbsentDates(ctx context.Context, staffID int64, month string) ([]time.Time, error) {
	if staffID <= 0 {
		return nil, apperr.Field("staffId", "is required")
	}
	m, err := parseMonth(month)
	if err != nil {
		return nil, err
	}
	st, err := s.Staff.GetStaff(ctx, staffID)
	if err != nil {
		return nil, storeErr(err, "staff")
	}
	working, err := s.staffWorkingDates(ctx, *st, m)
	if err != nil {
		return nil, err
	}
	rows, err := s.Attendance.ListAttendance(ctx, []int64{staffID}, m.FirstDay(), m.NextFirstDay())
	if err != nil {
		return nil, storeErr(err, "attendance")
	}
	dates := []time.Time{}
	for _, a := range rows {
		if a.Status == domain.AttendanceAbsent && working[a.Date.Format(domain.DateLayout)] {
			dates = append(dates, a.Date)
		}
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates, nil
}

// staffWorkingDates resolves one staff member's calendar the way Preview does.
func (s PayrollService) staffWorkingDates(ctx context.Context, st domain.Staff, m domain.Month) (map[string]bool, error) {
	offDays := []time.Weekday{defaultOffDay}
	holidays := map[string]bool{}
	if st.ShiftID != nil {
		sh, err := s.Shifts.GetShift(ctx, *st.ShiftID)
		if err != nil && !errors.Is(err, ports.ErrNotFound) {
			return nil, storeErr(err, "shift")
		}
		if sh != nil {
			offDays = sh.WeeklyOffDays
			offDates, err := s.Shifts.ListShiftOffDates(ctx, []int64{sh.ID}, m.FirstDay(), m.NextFirstDay())
			if err != nil {
				return nil, storeErr(err, "shift off date")
			}
			for _, od := range offDates {
				holidays[od.Date.Format(domain.DateLayout)] = true
			}
		}
	}
	return workingDates(m, offDays, holidays), nil
}

// SetAdjustment stores the manual bonus and deduction carried into the preview.
func (s PayrollService) SetAdjustment(ctx context.Context, actor Actor, staffID int64, month string, bonus, deduction decimal.Decimal, note string) (*domain.PayrollAdjustment, error) {
	if staffID <= 0 {
		return nil, apperr.Field("staffId", "is required")
	}
	m, err := parseMonth(month)
	if err != nil {
		return nil, err
	}
	if err := requireNonNegative("bonus", bonus); err != nil {
		return nil, err
	}
	if err := requireNonNegative("deduction", deduction); err != nil {
		return nil, err
	}
	if _, err := s.Staff.GetStaff(ctx, staffID); err != nil {
		return nil, storeErr(err, "staff")
	}
	adj, err := s.Payroll.UpsertAdjustment(ctx, domain.PayrollAdjustment{
		StaffID:   staffID,
		Month:     m,
		Bonus:     domain.Round2(bonus),
		Deduction: domain.Round2(deduction),
		Note:      note,
		UpdatedBy: actor.ref(),
		UpdatedAt: nowFrom(s.Now),
	})
	if err != nil {
		return nil, storeErr(err, "adjustment")
	}
	s.Audit.Record(ctx, actor, "payroll.adjust", "staff", staffID, "bonus %s deduction %s for %s", adj.Bonus.StringFixed(2), adj.Deduction.StringFixed(2), m)
	return adj, nil
}

func (s PayrollService) ListPayments(ctx context.Context, month string, includeReversed bool) ([]domain.PayrollPayment, error) {
	m, err := parseMonth(month)
	if err != nil {
		return nil, err
	}
	payments, err := s.Payroll.ListPayments(ctx, m, includeReversed)
	if err != nil {
		return nil, storeErr(err, "payment")
	}
	return payments, nil
}
