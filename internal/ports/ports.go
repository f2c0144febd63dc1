package ports

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"hrdesk-backend/internal/domain"
)

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a unique constraint rejects a write.
	ErrDuplicate = errors.New("duplicate")
	// ErrStateChanged is returned when a conditional update matched no row.
	ErrStateChanged = errors.New("state changed")
)

// HealthChecker is used to check dependencies.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Page limits a list query. Limit <= 0 means no limit.
type Page struct {
	Limit  int
	Offset int
}

type UserStore interface {
	CreateUser(ctx context.Context, u domain.User) (*domain.User, error)
	GetUserByID(ctx context.Context, id int64) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	GetUserByFirebaseUID(ctx context.Context, uid string) (*domain.User, error)
	LinkFirebaseUID(ctx context.Context, userID int64, uid string) error
}

type BranchStore interface {
	CreateBranch(ctx context.Context, b domain.Branch) (*domain.Branch, error)
	ListBranches(ctx context.Context) ([]domain.Branch, error)
}

type StaffFilter struct {
	BranchID   *int64
	Status     domain.StaffStatus
	Department string
	Search     string
	Page
}

type StaffStore interface {
	ListStaff(ctx context.Context, f StaffFilter) ([]domain.Staff, int, error)
	GetStaff(ctx context.Context, id int64) (*domain.Staff, error)
	GetStaffByUserID(ctx context.Context, userID int64) (*domain.Staff, error)
	UpdateStaff(ctx context.Context, s domain.Staff) (*domain.Staff, error)
	// ChangeSalary sets the salary to h.NewSalary and appends h to the history.
	ChangeSalary(ctx context.Context, h domain.SalaryHistory) (*domain.Staff, error)
	SetStaffStatus(ctx context.Context, id int64, status domain.StaffStatus) error
	SetSalaryPin(ctx context.Context, id int64, hash string) error
	ListSalaryHistory(ctx context.Context, staffID int64) ([]domain.SalaryHistory, error)
	CountStaffByStatus(ctx context.Context) (map[domain.StaffStatus]int, error)
}

type ShiftStore interface {
	ListShifts(ctx context.Context) ([]domain.Shift, error)
	GetShift(ctx context.Context, id int64) (*domain.Shift, error)
	CreateShift(ctx context.Context, s domain.Shift) (*domain.Shift, error)
	AddShiftOffDate(ctx context.Context, d domain.ShiftOffDate) (*domain.ShiftOffDate, error)
	// ListShiftOffDates returns off dates of the given shifts in [from, to).
	ListShiftOffDates(ctx context.Context, shiftIDs []int64, from, to time.Time) ([]domain.ShiftOffDate, error)
}

type AttendanceStore interface {
	GetAttendanceDay(ctx context.Context, staffID int64, date time.Time) (*domain.AttendanceDay, error)
	// UpsertAttendanceDay writes the row keyed by (staff, date).
	UpsertAttendanceDay(ctx context.Context, a domain.AttendanceDay) (*domain.AttendanceDay, error)
	// ListAttendance returns rows in [from, to); nil staffIDs means every staff member.
	ListAttendance(ctx context.Context, staffIDs []int64, from, to time.Time) ([]domain.AttendanceDay, error)
}

type OvertimeFilter struct {
	StaffID *int64
	Status  domain.OvertimeStatus
	From    *time.Time
	To      *time.Time
}

type OvertimeStore interface {
	CreateOvertime(ctx context.Context, o domain.Overtime) (*domain.Overtime, error)
	GetOvertime(ctx context.Context, id int64) (*domain.Overtime, error)
	// FindScheduledOvertime returns the earliest approved, not yet started record on date.
	FindScheduledOvertime(ctx context.Context, staffID int64, date time.Time) (*domain.Overtime, error)
	// FindActiveOvertime returns the started, not yet ended record of the staff member.
	FindActiveOvertime(ctx context.Context, staffID int64) (*domain.Overtime, error)
	// MarkOvertimeStarted fails with ErrStateChanged when the record was started meanwhile
	// and ErrDuplicate when another record of the staff member is active.
	MarkOvertimeStarted(ctx context.Context, id int64, at time.Time) (*domain.Overtime, error)
	MarkOvertimeStopped(ctx context.Context, id int64, end time.Time, durationMinutes, earlyStopMinutes int) (*domain.Overtime, error)
	SetOvertimeStatus(ctx context.Context, id int64, status domain.OvertimeStatus, approver *int64) (*domain.Overtime, error)
	ListOvertime(ctx context.Context, f OvertimeFilter) ([]domain.Overtime, error)
}

type PayrollStore interface {
	// CreatePayment fails with ErrDuplicate while an unreversed payment of the same
	// staff, month and payment type exists.
	CreatePayment(ctx context.Context, p domain.PayrollPayment) (*domain.PayrollPayment, error)
	GetActivePayment(ctx context.Context, staffID int64, month domain.Month, paymentType domain.PaymentType) (*domain.PayrollPayment, error)
	ReversePayment(ctx context.Context, id int64, by *int64, at time.Time) error
	ListPayments(ctx context.Context, month domain.Month, includeReversed bool) ([]domain.PayrollPayment, error)
	UpsertAdjustment(ctx context.Context, a domain.PayrollAdjustment) (*domain.PayrollAdjustment, error)
	ListAdjustments(ctx context.Context, month domain.Month) ([]domain.PayrollAdjustment, error)
}

type ClientStore interface {
	CreateClient(ctx context.Context, c domain.Client) (*domain.Client, error)
	GetClient(ctx context.Context, id int64) (*domain.Client, error)
	ListClients(ctx context.Context) ([]domain.Client, error)
	// ClientCodesWithPrefix lists existing codes starting with prefix (case-insensitive).
	ClientCodesWithPrefix(ctx context.Context, prefix string) ([]string, error)
}

type OrderFilter struct {
	ClientID *int64
	Status   domain.OrderStatus
	Month    *domain.Month
}

type OrderStore interface {
	CreateOrder(ctx context.Context, o domain.Order) (*domain.Order, error)
	GetOrder(ctx context.Context, id int64) (*domain.Order, error)
	ListOrders(ctx context.Context, f OrderFilter) ([]domain.Order, error)
	SetOrderStatus(ctx context.Context, id int64, status domain.OrderStatus) (*domain.Order, error)
}

type EarningFilter struct {
	Status   domain.EarningStatus
	ClientID *int64
	Month    string
	// PaidFrom/PaidTo bound paid_at when set.
	PaidFrom *time.Time
	PaidTo   *time.Time
	Page
}

type EarningStore interface {
	// CreateEarning fails with ErrDuplicate when the order already has an earning.
	CreateEarning(ctx context.Context, e domain.Earning) (*domain.Earning, error)
	GetEarning(ctx context.Context, id int64) (*domain.Earning, error)
	GetEarningByOrder(ctx context.Context, orderID int64) (*domain.Earning, error)
	ListEarnings(ctx context.Context, f EarningFilter) ([]domain.Earning, int, error)
	// MarkEarningPaid applies the payment fields of e when the earning is unpaid.
	MarkEarningPaid(ctx context.Context, e domain.Earning) (*domain.Earning, error)
	MarkEarningUnpaid(ctx context.Context, id int64) (*domain.Earning, error)
	UpdateEarningGross(ctx context.Context, id int64, gross decimal.Decimal) error
	SetEarningLegacy(ctx context.Context, id int64, legacy bool) error
	DeleteEarning(ctx context.Context, id int64) error
}

type ExpenseFilter struct {
	From     *time.Time
	To       *time.Time
	BranchID *int64
	Category string
	Status   domain.ExpenseStatus
	Page
}

type ExpenseStore interface {
	CreateExpense(ctx context.Context, e domain.Expense) (*domain.Expense, error)
	GetExpense(ctx context.Context, id int64) (*domain.Expense, error)
	ListExpenses(ctx context.Context, f ExpenseFilter) ([]domain.Expense, int, error)
	UpdateExpensePayment(ctx context.Context, id int64, status domain.ExpenseStatus, paid decimal.Decimal) (*domain.Expense, error)
	DeleteExpense(ctx context.Context, id int64) error
}

type DebitStore interface {
	CreatePerson(ctx context.Context, p domain.Person) (*domain.Person, error)
	GetPerson(ctx context.Context, id int64) (*domain.Person, error)
	ListPersons(ctx context.Context) ([]domain.Person, error)
	CreateDebit(ctx context.Context, d domain.Debit) (*domain.Debit, error)
	// ListDebits returns debits of one person, or every debit when personID is nil.
	ListDebits(ctx context.Context, personID *int64) ([]domain.Debit, error)
	DeleteDebit(ctx context.Context, id int64) error
}

type ShareholderStore interface {
	CreateShareholder(ctx context.Context, s domain.Shareholder) (*domain.Shareholder, error)
	UpdateShareholder(ctx context.Context, s domain.Shareholder) (*domain.Shareholder, error)
	GetShareholder(ctx context.Context, id int64) (*domain.Shareholder, error)
	ListShareholders(ctx context.Context, activeOnly bool) ([]domain.Shareholder, error)
	// CreateDistributions stores all rows or none; ErrDuplicate when the period was distributed.
	CreateDistributions(ctx context.Context, rows []domain.ProfitDistribution) ([]domain.ProfitDistribution, error)
	ListDistributions(ctx context.Context, period *domain.Period) ([]domain.ProfitDistribution, error)
}

type TransferStore interface {
	CreateBusiness(ctx context.Context, b domain.ExternalBusiness) (*domain.ExternalBusiness, error)
	GetBusiness(ctx context.Context, id int64) (*domain.ExternalBusiness, error)
	ListBusinesses(ctx context.Context) ([]domain.ExternalBusiness, error)
	CreateTransfer(ctx context.Context, t domain.ProfitTransfer) (*domain.ProfitTransfer, error)
	ListTransfers(ctx context.Context, businessID *int64, period *domain.Period) ([]domain.ProfitTransfer, error)
}

// LedgerRange bounds the ledger totals: dates for date columns, instants for timestamps.
type LedgerRange struct {
	DateFrom time.Time
	DateTo   time.Time
	From     time.Time
	To       time.Time
}

type LedgerStore interface {
	// LedgerTotals reads all ledger sums from a single snapshot.
	LedgerTotals(ctx context.Context, r LedgerRange) (domain.LedgerTotals, error)
}

type NoticeStore interface {
	CreateNotice(ctx context.Context, n domain.Notice) (*domain.Notice, error)
	UpdateNotice(ctx context.Context, n domain.Notice) (*domain.Notice, error)
	GetNotice(ctx context.Context, id int64) (*domain.Notice, error)
	ListNotices(ctx context.Context, status domain.NoticeStatus) ([]domain.Notice, error)
	SetNoticeStatus(ctx context.Context, id int64, status domain.NoticeStatus, at time.Time) (*domain.Notice, error)
	DeleteNotice(ctx context.Context, id int64) error
}

type NotificationStore interface {
	CreateNotification(ctx context.Context, n domain.Notification) (*domain.Notification, error)
	// FanOutNotification stores one copy of n per user and returns the number of rows.
	FanOutNotification(ctx context.Context, n domain.Notification) (int, error)
	ListNotifications(ctx context.Context, userID int64, limit int) ([]domain.Notification, error)
	CountUnread(ctx context.Context, userID int64) (int, error)
	MarkRead(ctx context.Context, userID, id int64, at time.Time) error
	MarkAllRead(ctx context.Context, userID int64, at time.Time) (int, error)
}

type AcceptInvitationParams struct {
	Token string
	Now   time.Time
	User  domain.User
	Staff domain.Staff
}

type InvitationStore interface {
	CreateInvitation(ctx context.Context, inv domain.Invitation) (*domain.Invitation, error)
	GetInvitation(ctx context.Context, id int64) (*domain.Invitation, error)
	GetInvitationByToken(ctx context.Context, token string) (*domain.Invitation, error)
	// FindActiveInvitationByEmail returns an unused, uncancelled, unexpired invitation.
	FindActiveInvitationByEmail(ctx context.Context, email string, now time.Time) (*domain.Invitation, error)
	ListInvitations(ctx context.Context) ([]domain.Invitation, error)
	CancelInvitation(ctx context.Context, id int64, at time.Time) (*domain.Invitation, error)
	RenewInvitation(ctx context.Context, id int64, token string, expiresAt time.Time) (*domain.Invitation, error)
	// AcceptInvitation claims the token and creates the user and staff rows atomically.
	// The claim fails with ErrStateChanged when the invitation is no longer usable.
	AcceptInvitation(ctx context.Context, p AcceptInvitationParams) (*domain.User, *domain.Staff, error)
}

type AuditFilter struct {
	Entity   string
	EntityID string
	ActorID  *int64
	Page
}

type AuditStore interface {
	CreateAuditLog(ctx context.Context, l domain.AuditLog) error
	ListAuditLogs(ctx context.Context, f AuditFilter) ([]domain.AuditLog, int, error)
}

type CareerStore interface {
	CreatePosition(ctx context.Context, p domain.JobPosition) (*domain.JobPosition, error)
	GetPosition(ctx context.Context, id int64) (*domain.JobPosition, error)
	ListPositions(ctx context.Context, openOnly bool) ([]domain.JobPosition, error)
	SetPositionOpen(ctx context.Context, id int64, open bool) (*domain.JobPosition, error)
	CreateApplication(ctx context.Context, a domain.JobApplication) (*domain.JobApplication, error)
	ListApplications(ctx context.Context, positionID *int64) ([]domain.JobApplication, error)
	SetApplicationStatus(ctx context.Context, id int64, status domain.ApplicationStatus) (*domain.JobApplication, error)
}
