package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Enumerations
const (
	RoleAdmin   UserRole = "admin"
	RoleManager UserRole = "manager"
	RoleStaff   UserRole = "staff"

	StaffActive   StaffStatus = "active"
	StaffInactive StaffStatus = "inactive"

	AttendancePresent AttendanceStatus = "present"
	AttendanceAbsent  AttendanceStatus = "absent"
	AttendanceLate    AttendanceStatus = "late"
	AttendanceLeave   AttendanceStatus = "leave"
	AttendanceGrace   AttendanceStatus = "grace"

	OvertimePending  OvertimeStatus = "pending"
	OvertimeApproved OvertimeStatus = "approved"
	OvertimeRejected OvertimeStatus = "rejected"

	OvertimeScheduled OvertimeState = "scheduled"
	OvertimeActive    OvertimeState = "active"
	OvertimeCompleted OvertimeState = "completed"

	OrderPending    OrderStatus = "pending"
	OrderInProgress OrderStatus = "in_progress"
	OrderCompleted  OrderStatus = "completed"
	OrderCancelled  OrderStatus = "cancelled"

	EarningUnpaid EarningStatus = "unpaid"
	EarningPaid   EarningStatus = "paid"

	ExpensePending     ExpenseStatus = "pending"
	ExpensePaid        ExpenseStatus = "paid"
	ExpensePartialPaid ExpenseStatus = "partial_paid"

	DebitBorrow DebitType = "Borrow"
	DebitReturn DebitType = "Return"

	NoticeDraft       NoticeStatus = "draft"
	NoticePublished   NoticeStatus = "published"
	NoticeUnpublished NoticeStatus = "unpublished"

	NotificationInfo    NotificationType = "info"
	NotificationWarning NotificationType = "warning"
	NotificationNotice  NotificationType = "notice"

	InvitationPending   InvitationStatus = "pending"
	InvitationAccepted  InvitationStatus = "accepted"
	InvitationExpired   InvitationStatus = "expired"
	InvitationCancelled InvitationStatus = "cancelled"

	PaymentSalary  PaymentType = "salary"
	PaymentBonus   PaymentType = "bonus"
	PaymentAdvance PaymentType = "advance"

	ApplicationNew         ApplicationStatus = "new"
	ApplicationShortlisted ApplicationStatus = "shortlisted"
	ApplicationRejected    ApplicationStatus = "rejected"
	ApplicationHired       ApplicationStatus = "hired"
)

type UserRole string
type StaffStatus string
type AttendanceStatus string
type OvertimeStatus string
type OvertimeState string
type OrderStatus string
type EarningStatus string
type ExpenseStatus string
type DebitType string
type NoticeStatus string
type NotificationType string
type InvitationStatus string
type PaymentType string
type ApplicationStatus string

// Privileged reports whether the role may run HR and finance operations.
func (r UserRole) Privileged() bool {
	return r == RoleAdmin || r == RoleManager
}

func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleStaff:
		return true
	}
	return false
}

func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendancePresent, AttendanceAbsent, AttendanceLate, AttendanceLeave, AttendanceGrace:
		return true
	}
	return false
}

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderInProgress, OrderCompleted, OrderCancelled:
		return true
	}
	return false
}

func (s ExpenseStatus) Valid() bool {
	switch s {
	case ExpensePending, ExpensePaid, ExpensePartialPaid:
		return true
	}
	return false
}

func (t DebitType) Valid() bool {
	return t == DebitBorrow || t == DebitReturn
}

func (t PaymentType) Valid() bool {
	switch t {
	case PaymentSalary, PaymentBonus, PaymentAdvance:
		return true
	}
	return false
}

func (s ApplicationStatus) Valid() bool {
	switch s {
	case ApplicationNew, ApplicationShortlisted, ApplicationRejected, ApplicationHired:
		return true
	}
	return false
}

type User struct {
	ID           int64
	Name         string
	Email        string
	Role         UserRole
	PasswordHash *string
	FirebaseUID  *string
	StaffID      *int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Branch struct {
	ID        int64
	Name      string
	Address   string
	CreatedAt time.Time
}

type Shift struct {
	ID            int64
	Name          string
	StartTime     string // HH:MM in the business location
	EndTime       string
	WeeklyOffDays []time.Weekday
	CreatedAt     time.Time
}

type ShiftOffDate struct {
	ID      int64
	ShiftID int64
	Date    time.Time
	Reason  string
}

type Staff struct {
	ID            int64
	StaffCode     string
	UserID        *int64
	Name          string
	Email         string
	Phone         string
	Department    string
	Designation   string
	Salary        decimal.Decimal
	SalaryVisible bool
	Status        StaffStatus
	JoinDate      time.Time
	BranchID      *int64
	ShiftID       *int64
	SalaryPinHash *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type SalaryHistory struct {
	ID             int64
	StaffID        int64
	PreviousSalary decimal.Decimal
	NewSalary      decimal.Decimal
	Reason         string
	ChangedBy      *int64
	ChangedAt      time.Time
}

type AttendanceDay struct {
	ID           int64
	StaffID      int64
	Date         time.Time
	Status       AttendanceStatus
	CheckIn      *time.Time
	CheckOut     *time.Time
	TotalMinutes int
	Note         string
	Source       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Overtime struct {
	ID               int64
	StaffID          int64
	Date             time.Time
	StartTime        time.Time
	ScheduledMinutes int
	ActualStartTime  *time.Time
	EndTime          *time.Time
	DurationMinutes  int
	EarlyStopMinutes int
	Status           OvertimeStatus
	Reason           string
	CreatedBy        *int64
	ApprovedBy       *int64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// State derives the check-in/check-out state from the timestamps.
func (o Overtime) State() OvertimeState {
	switch {
	case o.ActualStartTime == nil:
		return OvertimeScheduled
	case o.EndTime == nil:
		return OvertimeActive
	default:
		return OvertimeCompleted
	}
}

type Client struct {
	ID         int64
	ClientCode string
	Name       string
	Email      string
	Country    string
	Currency   string
	CreatedAt  time.Time
}

type Order struct {
	ID         int64
	ClientID   int64
	Title      string
	TotalPrice decimal.Decimal
	OrderDate  time.Time
	Status     OrderStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type Earning struct {
	ID             int64
	OrderID        *int64
	ClientID       int64
	ClientName     string
	Month          string
	GrossAmount    decimal.Decimal
	Fees           decimal.Decimal
	Tax            decimal.Decimal
	ConversionRate decimal.Decimal
	NetAmount      decimal.Decimal
	AmountInBDT    decimal.Decimal
	Status         EarningStatus
	PaidAt         *time.Time
	PaidBy         *int64
	Notes          string
	IsLegacy       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type Expense struct {
	ID         int64
	Title      string
	Category   string
	BranchID   *int64
	Amount     decimal.Decimal
	PaidAmount decimal.Decimal
	Date       time.Time
	Status     ExpenseStatus
	Note       string
	CreatedBy  *int64
	CreatedAt  time.Time
}

type Person struct {
	ID        int64
	Name      string
	Phone     string
	Note      string
	CreatedAt time.Time
}

type Debit struct {
	ID        int64
	PersonID  int64
	Type      DebitType
	Amount    decimal.Decimal
	Date      time.Time
	Note      string
	CreatedBy *int64
	CreatedAt time.Time
}

type PersonBalance struct {
	Person      Person
	TotalBorrow decimal.Decimal
	TotalReturn decimal.Decimal
}

// Balance is the amount still owed back to the business.
func (b PersonBalance) Balance() decimal.Decimal {
	return b.TotalBorrow.Sub(b.TotalReturn)
}

type Shareholder struct {
	ID         int64
	Name       string
	Email      string
	Percentage decimal.Decimal
	Active     bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type ProfitDistribution struct {
	ID            int64
	ShareholderID int64
	Shareholder   string
	Period        Period
	NetProfit     decimal.Decimal
	Percentage    decimal.Decimal
	ShareAmount   decimal.Decimal
	DistributedAt time.Time
	DistributedBy *int64
}

type ExternalBusiness struct {
	ID        int64
	Name      string
	Contact   string
	Note      string
	CreatedAt time.Time
}

type ProfitTransfer struct {
	ID           int64
	BusinessID   int64
	BusinessName string
	Period       Period
	Amount       decimal.Decimal
	TransferDate time.Time
	Note         string
	CreatedBy    *int64
	CreatedAt    time.Time
}

type Notice struct {
	ID            int64
	Title         string
	Body          string
	Priority      string
	Status        NoticeStatus
	PublishedAt   *time.Time
	UnpublishedAt *time.Time
	CreatedBy     *int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type Notification struct {
	ID        int64
	UserID    int64
	NoticeID  *int64
	Title     string
	Message   string
	Type      NotificationType
	CreatedAt time.Time
	ReadAt    *time.Time
}

type Invitation struct {
	ID          int64
	Email       string
	Name        string
	Role        UserRole
	Department  string
	Designation string
	Salary      decimal.Decimal
	BranchID    *int64
	Token       string
	ExpiresAt   time.Time
	IsUsed      bool
	UsedAt      *time.Time
	CancelledAt *time.Time
	InvitedBy   *int64
	CreatedAt   time.Time
}

// StatusAt reports the lifecycle state of the invitation at the given instant.
func (i Invitation) StatusAt(now time.Time) InvitationStatus {
	switch {
	case i.IsUsed:
		return InvitationAccepted
	case i.CancelledAt != nil:
		return InvitationCancelled
	case !now.Before(i.ExpiresAt):
		return InvitationExpired
	default:
		return InvitationPending
	}
}

type PayrollPayment struct {
	ID            int64
	StaffID       int64
	Month         Month
	PaymentType   PaymentType
	Amount        decimal.Decimal
	Bonus         decimal.Decimal
	Deduction     decimal.Decimal
	PaymentMethod string
	Note          string
	PaidAt        time.Time
	PaidBy        *int64
	ReversedAt    *time.Time
	ReversedBy    *int64
}

type PayrollAdjustment struct {
	StaffID   int64
	Month     Month
	Bonus     decimal.Decimal
	Deduction decimal.Decimal
	Note      string
	UpdatedBy *int64
	UpdatedAt time.Time
}

type AuditLog struct {
	ID        int64
	ActorID   *int64
	Actor     string
	Action    string
	Entity    string
	EntityID  string
	Message   string
	CreatedAt time.Time
}

type JobPosition struct {
	ID          int64
	Title       string
	Department  string
	Description string
	Open        bool
	CreatedAt   time.Time
}

type JobApplication struct {
	ID         int64
	PositionID int64
	Name       string
	Email      string
	Phone      string
	ResumeURL  string
	CoverNote  string
	Status     ApplicationStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
