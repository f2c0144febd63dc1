package main

import (
	"context"
	"encoding/base64"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	firebase "firebase.google.com/go/v4"
	"github.com/shopspring/decimal"
	"google.golang.org/api/option"

	"hrdesk-backend/internal/cache"
	"hrdesk-backend/internal/config"
	"hrdesk-backend/internal/db"
	"hrdesk-backend/internal/handler"
	"hrdesk-backend/internal/ports"
	"hrdesk-backend/internal/reconcile"
	"hrdesk-backend/internal/repository"
	"hrdesk-backend/internal/server"
	"hrdesk-backend/internal/service"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)
	decimal.MarshalJSONWithoutQuotes = true

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pg, err := db.New(ctx, cfg)
	if err != nil {
		logger.Error("failed to connect database", "err", err)
		os.Exit(1)
	}
	defer pg.Close()

	if cfg.AutoMigrate {
		if err := pg.Migrate(ctx); err != nil {
			logger.Error("failed to apply schema", "err", err)
			os.Exit(1)
		}
	}

	// Dashboard cache (optional)
	var dashboardCache cache.Cache = cache.Noop{}
	var cacheHealth ports.HealthChecker
	if cfg.RedisAddr != "" {
		rc := cache.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := rc.Ping(ctx); err != nil {
			logger.Warn("redis unavailable, dashboard cache disabled", "err", err)
			_ = rc.Close()
		} else {
			defer rc.Close()
			dashboardCache = rc
			cacheHealth = rc
		}
	}

	// Firebase Auth (optional)
	var identity service.IdentityProvider
	if cfg.FirebaseProjectID != "" {
		app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.FirebaseProjectID}, firebaseOptions(cfg)...)
		if err != nil {
			logger.Error("failed to init firebase app", "err", err)
			os.Exit(1)
		}
		client, err := app.Auth(ctx)
		if err != nil {
			logger.Error("failed to init firebase auth", "err", err)
			os.Exit(1)
		}
		identity = client
	}

	// repositories
	userRepo := repository.UserRepository{DB: pg}
	staffRepo := repository.StaffRepository{DB: pg}
	attendanceRepo := repository.AttendanceRepository{DB: pg}
	overtimeRepo := repository.OvertimeRepository{DB: pg}
	payrollRepo := repository.PayrollRepository{DB: pg}
	clientRepo := repository.ClientRepository{DB: pg}
	orderRepo := repository.OrderRepository{DB: pg}
	earningRepo := repository.EarningRepository{DB: pg}
	expenseRepo := repository.ExpenseRepository{DB: pg}
	debitRepo := repository.DebitRepository{DB: pg}
	shareholderRepo := repository.ShareholderRepository{DB: pg}
	transferRepo := repository.TransferRepository{DB: pg}
	ledgerRepo := repository.LedgerRepository{DB: pg}
	noticeRepo := repository.NoticeRepository{DB: pg}
	notificationRepo := repository.NotificationRepository{DB: pg}
	invitationRepo := repository.InvitationRepository{DB: pg}
	auditRepo := repository.AuditRepository{DB: pg}
	careerRepo := repository.CareerRepository{DB: pg}

	// services
	audit := service.Auditor{Store: auditRepo, Logger: logger}
	authSvc := service.AuthService{Config: cfg, Users: userRepo, Logger: logger, Identity: identity}
	if created, err := authSvc.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		logger.Error("failed to bootstrap admin", "err", err)
		os.Exit(1)
	} else if created {
		logger.Info("bootstrap admin ready", "email", cfg.AdminEmail)
	}
	payrollSvc := service.PayrollService{
		Staff: staffRepo, Shifts: staffRepo, Attendance: attendanceRepo, Overtime: overtimeRepo,
		Payroll: payrollRepo, Audit: audit, Logger: logger, Policy: cfg.Payroll,
	}
	analyticsSvc := service.AnalyticsService{
		Ledger: ledgerRepo, Staff: staffRepo, Overtime: overtimeRepo, Earnings: earningRepo,
		AuditLog: auditRepo, Cache: dashboardCache, CacheTTL: cfg.DashboardCacheTTL,
		Logger: logger, Location: cfg.Location,
	}
	overtimeSvc := service.OvertimeService{Staff: staffRepo, Overtime: overtimeRepo, Audit: audit, Logger: logger, Location: cfg.Location}
	attendanceSvc := service.AttendanceService{
		Staff: staffRepo, Shifts: staffRepo, Attendance: attendanceRepo, Audit: audit,
		Logger: logger, Location: cfg.Location, LateAfter: cfg.LateAfter,
	}
	staffSvc := service.StaffService{Staff: staffRepo, Audit: audit, Logger: logger}
	branchSvc := service.BranchService{Branches: userRepo, Audit: audit}
	clientSvc := service.ClientService{Clients: clientRepo, Orders: orderRepo, Earnings: earningRepo, Audit: audit, Logger: logger, Location: cfg.Location}
	earningSvc := service.EarningService{Earnings: earningRepo, Audit: audit, Logger: logger}
	expenseSvc := service.ExpenseService{Expenses: expenseRepo, Audit: audit, Logger: logger, Location: cfg.Location}
	debitSvc := service.DebitService{Debits: debitRepo, Audit: audit, Logger: logger, Location: cfg.Location}
	shareholderSvc := service.ShareholderService{Shareholders: shareholderRepo, Ledger: ledgerRepo, Audit: audit, Logger: logger, Location: cfg.Location}
	transferSvc := service.TransferService{Transfers: transferRepo, Audit: audit, Logger: logger, Location: cfg.Location}
	noticeSvc := service.NoticeService{Notices: noticeRepo, Notifications: notificationRepo, Audit: audit, Logger: logger}
	notificationSvc := service.NotificationService{Notifications: notificationRepo}
	invitationSvc := service.InvitationService{
		Invitations: invitationRepo, Users: userRepo, Audit: audit, Logger: logger,
		Location: cfg.Location, TTL: cfg.InvitationTTL, BaseURL: cfg.InviteBaseURL,
	}
	careerSvc := service.CareerService{Careers: careerRepo, Audit: audit, Logger: logger}
	reconciler := reconcile.Reconciler{Orders: orderRepo, Earnings: earningRepo, Audit: auditRepo, Logger: logger}

	// handlers
	handlers := server.Handlers{
		Health:       handler.HealthHandler{DB: pg, Cache: cacheHealth},
		Home:         handler.HomeHandler{AppName: "hrdesk", Env: cfg.Env},
		Auth:         handler.AuthHandler{Service: &authSvc, CookieName: cfg.SessionCookieName, SecureCookie: cfg.Env == "production"},
		Payroll:      handler.PayrollHandler{Service: &payrollSvc},
		Analytics:    handler.AnalyticsHandler{Service: &analyticsSvc},
		Overtime:     handler.OvertimeHandler{Service: &overtimeSvc},
		Attendance:   handler.AttendanceHandler{Service: &attendanceSvc},
		Staff:        handler.StaffHandler{Service: &staffSvc, Branches: &branchSvc},
		Clients:      handler.ClientHandler{Service: &clientSvc},
		Earnings:     handler.EarningHandler{Service: &earningSvc, Reconciler: reconciler},
		Expenses:     handler.ExpenseHandler{Service: &expenseSvc},
		Debits:       handler.DebitHandler{Service: &debitSvc},
		Shareholders: handler.ShareholderHandler{Service: &shareholderSvc},
		Transfers:    handler.TransferHandler{Service: &transferSvc},
		Notices:      handler.NoticeHandler{Notices: &noticeSvc, Notifications: &notificationSvc},
		Invitations:  handler.InvitationHandler{Service: &invitationSvc},
		Careers:      handler.CareerHandler{Service: &careerSvc},
	}

	router := server.NewRouter(cfg, logger, authSvc, handlers)

	if err := server.Start(ctx, cfg, router, logger); err != nil {
		logger.Error("server error", "err", err)
		os.Exit(1)
	}
}

func firebaseOptions(cfg config.Config) []option.ClientOption {
	if cfg.FirebaseCredFile == "" {
		return nil
	}

	cred := cfg.FirebaseCredFile
	// Allow inline JSON or base64-encoded JSON in env to avoid writing a file.
	if strings.HasPrefix(strings.TrimSpace(cred), "{") {
		return []option.ClientOption{option.WithCredentialsJSON([]byte(cred))}
	}
	if decoded, err := base64.StdEncoding.DecodeString(cred); err == nil && strings.HasPrefix(strings.TrimSpace(string(decoded)), "{") {
		return []option.ClientOption{option.WithCredentialsJSON(decoded)}
	}

	return []option.ClientOption{option.WithCredentialsFile(cred)}
}
