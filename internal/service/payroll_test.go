package service

import (
	"context"
	"testing"
	"time"

	"hrdesk-backend/internal/apperr"
	"hrdesk-backend/internal/config"
	"hrdesk-backend/internal/domain"
	"hrdesk-backend/internal/ports"
	"hrdesk-backend/internal/repository/memstore"
)

func newPayrollService(store *memstore.Store) PayrollService {
	return PayrollService{
		Staff:      store,
		Shifts:     store,
		Attendance: store,
		Overtime:   store,
		Payroll:    store,
		Audit:      Auditor{Store: store, Logger: discardLogger()},
		Logger:     discardLogger(),
		Policy:     config.DefaultPayrollPolicy(),
		Now:        fixedClock(testNow),
	}
}

func TestWorkingDates(t *testing.T) {
	march, _ := domain.ParseMonth("2025-03")
	if got := len(workingDates(march, []time.Weekday{time.Friday}, nil)); got != 27 {
		t.Fatalf("expected 27 working days with fridays off, got %d", got)
	}
	weekend := []time.Weekday{time.Friday, time.Saturday}
	if got := len(workingDates(march, weekend, nil)); got != 22 {
		t.Fatalf("expected 22 working days with fri+sat off, got %d", got)
	}
	holidays := map[string]bool{"2025-03-26": true, "2025-03-28": true}
	// the 28th is a friday and already off
	if got := len(workingDates(march, weekend, holidays)); got != 21 {
		t.Fatalf("expected 21 working days with one extra holiday, got %d", got)
	}
}

func TestBuildPreviewRow(t *testing.T) {
	march, _ := domain.ParseMonth("2025-03")
	start := time.Date(2025, time.March, 10, 18, 0, 0, 0, time.UTC)
	end := start.Add(90 * time.Minute)
	in := previewInput{
		staff:   domain.Staff{ID: 7, StaffCode: "STF-0007", Salary: dec(t, "27000")},
		month:   march,
		offDays: []time.Weekday{time.Friday},
		attendance: []domain.AttendanceDay{
			{Date: date(t, "2025-03-03"), Status: domain.AttendanceAbsent},
			{Date: date(t, "2025-03-07"), Status: domain.AttendanceAbsent}, // friday
			{Date: date(t, "2025-03-04"), Status: domain.AttendanceGrace},
			{Date: date(t, "2025-03-05"), Status: domain.AttendancePresent},
		},
		overtime: []domain.Overtime{
			{Date: date(t, "2025-03-10"), Status: domain.OvertimeApproved, ActualStartTime: &start, EndTime: &end, DurationMinutes: 90},
			{Date: date(t, "2025-03-11"), Status: domain.OvertimeApproved, ScheduledMinutes: 120},
		},
		adjustment: &domain.PayrollAdjustment{Bonus: dec(t, "500"), Deduction: dec(t, "200")},
		policy:     config.DefaultPayrollPolicy(),
	}

	row := buildPreviewRow(in)
	if row.WorkingDays != 27 || !row.DailyRate.Equal(dec(t, "1000")) {
		t.Fatalf("unexpected working days %d / daily rate %s", row.WorkingDays, row.DailyRate)
	}
	if row.AbsentDays != 1 || row.GraceDays != 1 {
		t.Fatalf("expected 1 absent and 1 grace day, got %d/%d", row.AbsentDays, row.GraceDays)
	}
	if !row.AbsenceDeduction.Equal(dec(t, "1000")) {
		t.Fatalf("unexpected absence deduction %s", row.AbsenceDeduction)
	}
	if row.OvertimeMinutes != 90 || !row.OvertimePay.Equal(dec(t, "187.5")) {
		t.Fatalf("unexpected overtime %d min / %s", row.OvertimeMinutes, row.OvertimePay)
	}
	if !row.Due.Equal(dec(t, "26487.5")) {
		t.Fatalf("expected due 26487.50, got %s", row.Due)
	}
	if row.Paid {
		t.Fatalf("row must be unpaid without a payment")
	}
}

func TestBuildPreviewRowRoundsAndFloors(t *testing.T) {
	march, _ := domain.ParseMonth("2025-03")
	row := buildPreviewRow(previewInput{
		staff:   domain.Staff{Salary: dec(t, "10000")},
		month:   march,
		offDays: []time.Weekday{time.Friday},
		attendance: []domain.AttendanceDay{
			{Date: date(t, "2025-03-03"), Status: domain.AttendanceAbsent},
		},
		adjustment: &domain.PayrollAdjustment{Deduction: dec(t, "20000")},
		policy:     config.DefaultPayrollPolicy(),
	})
	// 10000 / 27 = 370.370...
	if !row.AbsenceDeduction.Equal(dec(t, "370.37")) {
		t.Fatalf("expected 2dp deduction, got %s", row.AbsenceDeduction)
	}
	if !row.Due.IsZero() {
		t.Fatalf("due must never go negative, got %s", row.Due)
	}
}

func TestPreviewIsDeterministic(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	svc := newPayrollService(store)
	a := seedStaff(t, store, "alice", "30000")
	seedStaff(t, store, "bob", "25000")
	if _, err := store.UpsertAttendanceDay(ctx, domain.AttendanceDay{StaffID: a.ID, Date: date(t, "2025-03-03"), Status: domain.AttendanceAbsent}); err != nil {
		t.Fatalf("seed attendance: %v", err)
	}

	first, err := svc.Preview(ctx, "2025-03", nil)
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	second, err := svc.Preview(ctx, "2025-03", nil)
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if len(first) != 2 || first[0].StaffCode > first[1].StaffCode {
		t.Fatalf("expected 2 rows sorted by staff code, got %+v", first)
	}
	sum := func(rows []PayrollPreviewRow) string {
		total := rows[0].Due
		for _, r := range rows[1:] {
			total = total.Add(r.Due)
		}
		return total.StringFixed(2)
	}
	if sum(first) != sum(second) {
		t.Fatalf("preview totals differ: %s vs %s", sum(first), sum(second))
	}
}

func TestPreviewUsesShiftCalendar(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	svc := newPayrollService(store)
	shift, err := store.CreateShift(ctx, domain.Shift{Name: "day", StartTime: "09:00", EndTime: "17:00", WeeklyOffDays: []time.Weekday{time.Friday, time.Saturday}})
	if err != nil {
		t.Fatalf("shift: %v", err)
	}
	if _, err := store.AddShiftOffDate(ctx, domain.ShiftOffDate{ShiftID: shift.ID, Date: date(t, "2025-03-26"), Reason: "holiday"}); err != nil {
		t.Fatalf("off date: %v", err)
	}
	st := seedStaff(t, store, "carol", "21000")
	st.ShiftID = &shift.ID
	if _, err := store.UpdateStaff(ctx, st); err != nil {
		t.Fatalf("assign shift: %v", err)
	}

	rows, err := svc.Preview(ctx, "2025-03", nil)
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if rows[0].WorkingDays != 21 || !rows[0].DailyRate.Equal(dec(t, "1000")) {
		t.Fatalf("expected 21 working days at 1000/day, got %d at %s", rows[0].WorkingDays, rows[0].DailyRate)
	}
}

func TestPreviewRejectsBadMonth(t *testing.T) {
	svc := newPayrollService(memstore.New())
	for _, month := range []string{"", "2025-13", "March"} {
		if _, err := svc.Preview(context.Background(), month, nil); !apperr.Is(err, apperr.KindValidation) {
			t.Fatalf("month %q: expected validation error, got %v", month, err)
		}
	}
}

func TestProcessPaymentRejectsDoublePayment(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	svc := newPayrollService(store)
	st := seedStaff(t, store, "dave", "20000")

	in := ProcessPaymentInput{StaffID: st.ID, Month: "2025-03", Amount: dec(t, "20000"), PaymentMethod: "bank"}
	if _, err := svc.ProcessPayment(ctx, admin, in); err != nil {
		t.Fatalf("first payment: %v", err)
	}
	_, err := svc.ProcessPayment(ctx, admin, in)
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict on second payment, got %v", err)
	}

	in.PaymentType = domain.PaymentBonus
	if _, err := svc.ProcessPayment(ctx, admin, in); err != nil {
		t.Fatalf("a bonus payment is independent of the salary payment: %v", err)
	}
}

func TestProcessPaymentValidation(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	svc := newPayrollService(store)
	st := seedStaff(t, store, "erin", "20000")

	cases := map[string]ProcessPaymentInput{
		"missing staff":  {Month: "2025-03", Amount: dec(t, "1"), PaymentMethod: "cash"},
		"missing month":  {StaffID: st.ID, Amount: dec(t, "1"), PaymentMethod: "cash"},
		"zero amount":    {StaffID: st.ID, Month: "2025-03", PaymentMethod: "cash"},
		"missing method": {StaffID: st.ID, Month: "2025-03", Amount: dec(t, "1")},
		"bad type":       {StaffID: st.ID, Month: "2025-03", Amount: dec(t, "1"), PaymentMethod: "cash", PaymentType: "gift"},
	}
	for name, in := range cases {
		if _, err := svc.ProcessPayment(ctx, admin, in); !apperr.Is(err, apperr.KindValidation) {
			t.Fatalf("%s: expected validation error, got %v", name, err)
		}
	}
	_, err := svc.ProcessPayment(ctx, admin, ProcessPaymentInput{StaffID: 999, Month: "2025-03", Amount: dec(t, "1"), PaymentMethod: "cash"})
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found for unknown staff, got %v", err)
	}
}

func TestUndoRestoresPreview(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	svc := newPayrollService(store)
	st := seedStaff(t, store, "frank", "27000")
	if _, err := svc.SetAdjustment(ctx, admin, st.ID, "2025-03", dec(t, "300"), dec(t, "100"), "festival"); err != nil {
		t.Fatalf("adjust: %v", err)
	}

	before, err := svc.Preview(ctx, "2025-03", nil)
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	bonus, deduction := dec(t, "1000"), dec(t, "0")
	if _, err := svc.ProcessPayment(ctx, admin, ProcessPaymentInput{
		StaffID: st.ID, Month: "2025-03", Amount: dec(t, "28000"), PaymentMethod: "bank", Bonus: &bonus, Deduction: &deduction,
	}); err != nil {
		t.Fatalf("process: %v", err)
	}
	paid, _ := svc.Preview(ctx, "2025-03", nil)
	if !paid[0].Paid || paid[0].Due.Equal(before[0].Due) {
		t.Fatalf("expected paid row with the payment's bonus, got %+v", paid[0])
	}

	if _, err := svc.UndoPayroll(ctx, admin, st.ID, "2025-03", ""); err != nil {
		t.Fatalf("undo: %v", err)
	}
	after, _ := svc.Preview(ctx, "2025-03", nil)
	if after[0].Paid || !after[0].Due.Equal(before[0].Due) {
		t.Fatalf("expected due %s after undo, got %s (paid=%v)", before[0].Due, after[0].Due, after[0].Paid)
	}

	if _, err := svc.UndoPayroll(ctx, admin, st.ID, "2025-03", ""); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("second undo must report no active payment, got %v", err)
	}
	if _, err := svc.ProcessPayment(ctx, admin, ProcessPaymentInput{StaffID: st.ID, Month: "2025-03", Amount: dec(t, "27200"), PaymentMethod: "bank"}); err != nil {
		t.Fatalf("payment after undo: %v", err)
	}
	all, _ := store.ListPayments(ctx, mustMonth(t, "2025-03"), true)
	if len(all) != 2 {
		t.Fatalf("expected the reversed payment to be kept, got %d rows", len(all))
	}
}

func TestBulkProcessKeepsSuccesses(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	svc := newPayrollService(store)
	var items []BulkPaymentItem
	for _, name := range []string{"gina", "hank", "ivy"} {
		st := seedStaff(t, store, name, "15000")
		items = append(items, BulkPaymentItem{StaffID: st.ID, Amount: dec(t, "15000")})
	}
	items = append(items, BulkPaymentItem{StaffID: 4242, Amount: dec(t, "15000")})

	res, err := svc.BulkProcessPayment(ctx, admin, "2025-03", items, "bank")
	if err != nil {
		t.Fatalf("bulk: %v", err)
	}
	if len(res.Succeeded) != 3 || len(res.Failed) != 1 {
		t.Fatalf("expected 3 successes and 1 failure, got %d/%d", len(res.Succeeded), len(res.Failed))
	}
	if res.Failed[0].Key != "4242" || res.Failed[0].Error != "staff not found" {
		t.Fatalf("failure must identify the staff member, got %+v", res.Failed[0])
	}
	active, _ := store.ListPayments(ctx, mustMonth(t, "2025-03"), false)
	if len(active) != 3 {
		t.Fatalf("successes must stay recorded, got %d payments", len(active))
	}
}

func TestGraceAttendanceRemovesDeduction(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	svc := newPayrollService(store)
	st := seedStaff(t, store, "jane", "27000")
	if _, err := store.UpsertAttendanceDay(ctx, domain.AttendanceDay{StaffID: st.ID, Date: date(t, "2025-03-03"), Status: domain.AttendanceAbsent}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	dates, err := svc.AbsentDates(ctx, st.ID, "2025-03")
	if err != nil || len(dates) != 1 {
		t.Fatalf("expected one absent date, got %v (%v)", dates, err)
	}
	rows, _ := svc.Preview(ctx, "2025-03", nil)
	if !rows[0].Due.Equal(dec(t, "26000")) {
		t.Fatalf("expected one day deducted, got %s", rows[0].Due)
	}

	day, err := svc.GraceAttendance(ctx, admin, st.ID, "2025-03-03", "medical")
	if err != nil {
		t.Fatalf("grace: %v", err)
	}
	if day.Status != domain.AttendanceGrace || day.Note != "medical" {
		t.Fatalf("unexpected attendance row %+v", day)
	}
	rows, _ = svc.Preview(ctx, "2025-03", nil)
	if !rows[0].Due.Equal(dec(t, "27000")) || rows[0].GraceDays != 1 {
		t.Fatalf("grace day must not be deducted, got %s", rows[0].Due)
	}
	dates, _ = svc.AbsentDates(ctx, st.ID, "2025-03")
	if len(dates) != 0 {
		t.Fatalf("expected no absent dates after grace, got %v", dates)
	}
	logs, _, _ := store.ListAuditLogs(ctx, ports.AuditFilter{Entity: "staff"})
	if len(logs) == 0 {
		t.Fatalf("expected grace to be audited")
	}
}

func mustMonth(t *testing.T, s string) domain.Month {
	t.Helper()
	m, err := domain.ParseMonth(s)
	if err != nil {
		t.Fatalf("month %q: %v", s, err)
	}
	return m
}

func TestAbsentDatesMatchDeductedDays(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	svc := newPayrollService(store)
	shift, err := store.CreateShift(ctx, domain.Shift{Name: "day", StartTime: "09:00", EndTime: "17:00", WeeklyOffDays: []time.Weekday{time.Friday, time.Saturday}})
	if err != nil {
		t.Fatalf("shift: %v", err)
	}
	if _, err := store.AddShiftOffDate(ctx, domain.ShiftOffDate{ShiftID: shift.ID, Date: date(t, "2025-03-26"), Reason: "holiday"}); err != nil {
		t.Fatalf("off date: %v", err)
	}
	st, err := store.CreateStaff(ctx, domain.Staff{Name: "omar", Salary: dec(t, "22000"), JoinDate: date(t, "2024-01-01"), ShiftID: &shift.ID})
	if err != nil {
		t.Fatalf("staff: %v", err)
	}
	// monday, friday (weekly off), holiday
	for _, d := range []string{"2025-03-03", "2025-03-07", "2025-03-26"} {
		if _, err := store.UpsertAttendanceDay(ctx, domain.AttendanceDay{StaffID: st.ID, Date: date(t, d), Status: domain.AttendanceAbsent}); err != nil {
			t.Fatalf("seed %s: %v", d, err)
		}
	}

	dates, err := svc.AbsentDates(ctx, st.ID, "2025-03")
	if err != nil {
		t.Fatalf("absent dates: %v", err)
	}
	if len(dates) != 1 || dates[0].Format(domain.DateLayout) != "2025-03-03" {
		t.Fatalf("only the working-day absence counts, got %v", dates)
	}
	rows, err := svc.Preview(ctx, "2025-03", nil)
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if rows[0].AbsentDays != len(dates) {
		t.Fatalf("preview deducted %d days but listed %d", rows[0].AbsentDays, len(dates))
	}
}
