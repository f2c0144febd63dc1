package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestParseMonth(t *testing.T) {
	m, err := ParseMonth("2024-02")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if m.String() != "2024-02" {
		t.Fatalf("unexpected string %q", m)
	}
	if m.DaysIn() != 29 {
		t.Fatalf("expected leap february to have 29 days, got %d", m.DaysIn())
	}
	if len(m.Dates()) != 29 {
		t.Fatalf("expected 29 dates")
	}
	if _, err := ParseMonth("2024-13"); err == nil {
		t.Fatalf("expected error for month 13")
	}
	if _, err := ParseMonth("Feb 2024"); err == nil {
		t.Fatalf("expected error for free text")
	}
}

func TestParsePeriod(t *testing.T) {
	cases := []struct {
		typ     PeriodType
		value   string
		want    string
		wantErr bool
	}{
		{PeriodMonth, "2025-03", "2025-03", false},
		{PeriodYear, "2025", "2025", false},
		{PeriodYear, "25", "", true},
		{PeriodMonth, "2025", "", true},
		{"week", "2025-03", "", true},
	}
	for _, tc := range cases {
		p, err := ParsePeriod(tc.typ, tc.value)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("%s %s: expected error", tc.typ, tc.value)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%s %s: %v", tc.typ, tc.value, err)
		}
		if p.String() != tc.want {
			t.Fatalf("expected %s, got %s", tc.want, p)
		}
	}
}

func TestPeriodRanges(t *testing.T) {
	p, _ := ParsePeriod(PeriodYear, "2025")
	from, to := p.DateRange()
	if !from.Equal(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)) || !to.Equal(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected year range %s - %s", from, to)
	}
	if !p.ContainsDate(time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected last day of year to be contained")
	}

	loc, _ := time.LoadLocation("Asia/Dhaka")
	m, _ := ParsePeriod(PeriodMonth, "2025-03")
	start, end := m.Bounds(loc)
	if start.Location() != loc || start.Day() != 1 || end.Month() != time.April {
		t.Fatalf("unexpected bounds %s - %s", start, end)
	}
}

func TestDateOfUsesLocation(t *testing.T) {
	loc, _ := time.LoadLocation("Asia/Dhaka")
	instant := time.Date(2025, 3, 31, 20, 0, 0, 0, time.UTC) // 02:00 on Apr 1 in Dhaka
	d := DateOf(instant, loc)
	if d.Month() != time.April || d.Day() != 1 {
		t.Fatalf("expected 2025-04-01, got %s", d.Format(DateLayout))
	}
}

func TestInvitationStatusAt(t *testing.T) {
	now := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
	inv := Invitation{ExpiresAt: now.Add(time.Hour)}
	if inv.StatusAt(now) != InvitationPending {
		t.Fatalf("expected pending")
	}
	if inv.StatusAt(now.Add(time.Hour)) != InvitationExpired {
		t.Fatalf("expected expired at the expiry instant")
	}
	inv.IsUsed = true
	if inv.StatusAt(now) != InvitationAccepted {
		t.Fatalf("expected accepted")
	}
}

func TestOvertimeState(t *testing.T) {
	now := time.Now()
	o := Overtime{}
	if o.State() != OvertimeScheduled {
		t.Fatalf("expected scheduled")
	}
	o.ActualStartTime = &now
	if o.State() != OvertimeActive {
		t.Fatalf("expected active")
	}
	o.EndTime = &now
	if o.State() != OvertimeCompleted {
		t.Fatalf("expected completed")
	}
}

func TestPercentOf(t *testing.T) {
	got := PercentOf(decimal.NewFromInt(1000), decimal.RequireFromString("33.333"))
	if !got.Equal(decimal.RequireFromString("333.33")) {
		t.Fatalf("expected 333.33, got %s", got)
	}
}
