package handler

import (
	"time"

	"hrdesk-backend/internal/domain"
)

func formatDate(t time.Time) string {
	return t.Format(domain.DateLayout)
}

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}

func listView[T any](items []T, view func(T) map[string]any) []map[string]any {
	out := make([]map[string]any, 0, len(items))
	for _, it := range items {
		out = append(out, view(it))
	}
	return out
}

func staffView(s domain.Staff) map[string]any {
	return map[string]any{
		"id":            s.ID,
		"staffId":       s.StaffCode,
		"userId":        s.UserID,
		"name":          s.Name,
		"email":         s.Email,
		"phone":         s.Phone,
		"department":    s.Department,
		"designation":   s.Designation,
		"salary":        money(s.Salary),
		"salaryVisible": s.SalaryVisible,
		"status":        string(s.Status),
		"joinDate":      formatDate(s.JoinDate),
		"branchId":      s.BranchID,
		"shiftId":       s.ShiftID,
		"hasSalaryPin":  s.SalaryPinHash != nil,
	}
}

func salaryHistoryView(h domain.SalaryHistory) map[string]any {
	return map[string]any{
		"id":             h.ID,
		"staffId":        h.StaffID,
		"previousSalary": money(h.PreviousSalary),
		"newSalary":      money(h.NewSalary),
		"reason":         h.Reason,
		"changedBy":      h.ChangedBy,
		"changedAt":      h.ChangedAt.UTC().Format(time.RFC3339),
	}
}

func attendanceView(a domain.AttendanceDay) map[string]any {
	return map[string]any{
		"id":           a.ID,
		"staffId":      a.StaffID,
		"date":         formatDate(a.Date),
		"status":       string(a.Status),
		"checkIn":      formatTime(a.CheckIn),
		"checkOut":     formatTime(a.CheckOut),
		"totalMinutes": a.TotalMinutes,
		"note":         a.Note,
		"source":       a.Source,
	}
}

func shiftView(s domain.Shift) map[string]any {
	offDays := make([]int, 0, len(s.WeeklyOffDays))
	for _, d := range s.WeeklyOffDays {
		offDays = append(offDays, int(d))
	}
	return map[string]any{
		"id":            s.ID,
		"name":          s.Name,
		"startTime":     s.StartTime,
		"endTime":       s.EndTime,
		"weeklyOffDays": offDays,
	}
}

func overtimeView(o domain.Overtime) map[string]any {
	start := o.StartTime
	return map[string]any{
		"id":               o.ID,
		"staffId":          o.StaffID,
		"date":             formatDate(o.Date),
		"startTime":        formatTime(&start),
		"durationMinutes":  o.ScheduledMinutes,
		"actualStartTime":  formatTime(o.ActualStartTime),
		"endTime":          formatTime(o.EndTime),
		"workedMinutes":    o.DurationMinutes,
		"earlyStopMinutes": o.EarlyStopMinutes,
		"status":           string(o.Status),
		"state":            string(o.State()),
		"reason":           o.Reason,
	}
}

func paymentView(p domain.PayrollPayment) map[string]any {
	return map[string]any{
		"id":            p.ID,
		"staffId":       p.StaffID,
		"month":         p.Month.String(),
		"paymentType":   string(p.PaymentType),
		"amount":        money(p.Amount),
		"bonus":         money(p.Bonus),
		"deduction":     money(p.Deduction),
		"paymentMethod": p.PaymentMethod,
		"note":          p.Note,
		"paidAt":        p.PaidAt.UTC().Format(time.RFC3339),
		"paidBy":        p.PaidBy,
		"reversedAt":    formatTime(p.ReversedAt),
	}
}

func clientView(c domain.Client) map[string]any {
	return map[string]any{
		"id":       c.ID,
		"clientId": c.ClientCode,
		"name":     c.Name,
		"email":    c.Email,
		"country":  c.Country,
		"currency": c.Currency,
	}
}

func orderView(o domain.Order) map[string]any {
	return map[string]any{
		"id":         o.ID,
		"clientId":   o.ClientID,
		"title":      o.Title,
		"totalPrice": money(o.TotalPrice),
		"orderDate":  formatDate(o.OrderDate),
		"status":     string(o.Status),
	}
}

func earningView(e domain.Earning) map[string]any {
	return map[string]any{
		"id":             e.ID,
		"orderId":        e.OrderID,
		"clientId":       e.ClientID,
		"clientName":     e.ClientName,
		"month":          e.Month,
		"grossAmount":    money(e.GrossAmount),
		"fees":           money(e.Fees),
		"tax":            money(e.Tax),
		"conversionRate": e.ConversionRate.String(),
		"netAmount":      money(e.NetAmount),
		"amountInBDT":    money(e.AmountInBDT),
		"status":         string(e.Status),
		"paidAt":         formatTime(e.PaidAt),
		"notes":          e.Notes,
		"isLegacy":       e.IsLegacy,
	}
}

func expenseView(e domain.Expense) map[string]any {
	return map[string]any{
		"id":         e.ID,
		"title":      e.Title,
		"category":   e.Category,
		"branchId":   e.BranchID,
		"amount":     money(e.Amount),
		"paidAmount": money(e.PaidAmount),
		"date":       formatDate(e.Date),
		"status":     string(e.Status),
		"note":       e.Note,
	}
}

func personBalanceView(b domain.PersonBalance) map[string]any {
	return map[string]any{
		"id":          b.Person.ID,
		"name":        b.Person.Name,
		"phone":       b.Person.Phone,
		"note":        b.Person.Note,
		"totalBorrow": money(b.TotalBorrow),
		"totalReturn": money(b.TotalReturn),
		"balance":     money(b.Balance()),
	}
}

func debitView(d domain.Debit) map[string]any {
	return map[string]any{
		"id":       d.ID,
		"personId": d.PersonID,
		"type":     string(d.Type),
		"amount":   money(d.Amount),
		"date":     formatDate(d.Date),
		"note":     d.Note,
	}
}

func shareholderView(s domain.Shareholder) map[string]any {
	return map[string]any{
		"id":         s.ID,
		"name":       s.Name,
		"email":      s.Email,
		"percentage": s.Percentage.String(),
		"active":     s.Active,
	}
}

func distributionView(d domain.ProfitDistribution) map[string]any {
	return map[string]any{
		"id":            d.ID,
		"shareholderId": d.ShareholderID,
		"shareholder":   d.Shareholder,
		"periodType":    string(d.Period.Type),
		"period":        d.Period.String(),
		"netProfit":     money(d.NetProfit),
		"percentage":    d.Percentage.String(),
		"shareAmount":   money(d.ShareAmount),
		"distributedAt": d.DistributedAt.UTC().Format(time.RFC3339),
	}
}

func businessView(b domain.ExternalBusiness) map[string]any {
	return map[string]any{
		"id":      b.ID,
		"name":    b.Name,
		"contact": b.Contact,
		"note":    b.Note,
	}
}

func transferView(t domain.ProfitTransfer) map[string]any {
	return map[string]any{
		"id":           t.ID,
		"businessId":   t.BusinessID,
		"businessName": t.BusinessName,
		"periodType":   string(t.Period.Type),
		"period":       t.Period.String(),
		"amount":       money(t.Amount),
		"transferDate": formatDate(t.TransferDate),
		"note":         t.Note,
	}
}

func noticeView(n domain.Notice) map[string]any {
	return map[string]any{
		"id":            n.ID,
		"title":         n.Title,
		"body":          n.Body,
		"priority":      n.Priority,
		"status":        string(n.Status),
		"publishedAt":   formatTime(n.PublishedAt),
		"unpublishedAt": formatTime(n.UnpublishedAt),
		"createdAt":     n.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func notificationView(n domain.Notification) map[string]any {
	return map[string]any{
		"id":        n.ID,
		"noticeId":  n.NoticeID,
		"title":     n.Title,
		"message":   n.Message,
		"type":      string(n.Type),
		"read":      n.ReadAt != nil,
		"createdAt": n.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func auditLogView(l domain.AuditLog) map[string]any {
	return map[string]any{
		"id":        l.ID,
		"actorId":   l.ActorID,
		"actor":     l.Actor,
		"action":    l.Action,
		"entity":    l.Entity,
		"entityId":  l.EntityID,
		"message":   l.Message,
		"createdAt": l.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func positionView(p domain.JobPosition) map[string]any {
	return map[string]any{
		"id":          p.ID,
		"title":       p.Title,
		"department":  p.Department,
		"description": p.Description,
		"open":        p.Open,
	}
}

func applicationView(a domain.JobApplication) map[string]any {
	return map[string]any{
		"id":         a.ID,
		"positionId": a.PositionID,
		"name":       a.Name,
		"email":      a.Email,
		"phone":      a.Phone,
		"resumeUrl":  a.ResumeURL,
		"coverNote":  a.CoverNote,
		"status":     string(a.Status),
		"createdAt":  a.CreatedAt.UTC().Format(time.RFC3339),
	}
}
