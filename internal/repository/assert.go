package repository

import "hrdesk-backend/internal/ports"

var (
	_ ports.UserStore         = UserRepository{}
	_ ports.BranchStore       = UserRepository{}
	_ ports.StaffStore        = StaffRepository{}
	_ ports.ShiftStore        = StaffRepository{}
	_ ports.AttendanceStore   = AttendanceRepository{}
	_ ports.OvertimeStore     = OvertimeRepository{}
	_ ports.PayrollStore      = PayrollRepository{}
	_ ports.ClientStore       = ClientRepository{}
	_ ports.OrderStore        = OrderRepository{}
	_ ports.EarningStore      = EarningRepository{}
	_ ports.ExpenseStore      = ExpenseRepository{}
	_ ports.DebitStore        = DebitRepository{}
	_ ports.ShareholderStore  = ShareholderRepository{}
	_ ports.TransferStore     = TransferRepository{}
	_ ports.LedgerStore       = LedgerRepository{}
	_ ports.NoticeStore       = NoticeRepository{}
	_ ports.NotificationStore = NotificationRepository{}
	_ ports.InvitationStore   = InvitationRepository{}
	_ ports.AuditStore        = AuditRepository{}
	_ ports.CareerStore       = CareerRepository{}
)
