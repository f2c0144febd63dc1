package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"hrdesk-backend/internal/config"
	"hrdesk-backend/internal/domain"
	"hrdesk-backend/internal/handler"
)

// Handlers groups every HTTP handler the router mounts.
type Handlers struct {
	Health       handler.HealthHandler
	Home         handler.HomeHandler
	Auth         handler.AuthHandler
	Payroll      handler.PayrollHandler
	Analytics    handler.AnalyticsHandler
	Overtime     handler.OvertimeHandler
	Attendance   handler.AttendanceHandler
	Staff        handler.StaffHandler
	Clients      handler.ClientHandler
	Earnings     handler.EarningHandler
	Expenses     handler.ExpenseHandler
	Debits       handler.DebitHandler
	Shareholders handler.ShareholderHandler
	Transfers    handler.TransferHandler
	Notices      handler.NoticeHandler
	Invitations  handler.InvitationHandler
	Careers      handler.CareerHandler
}

// NewRouter wires HTTP routes and middleware.
func NewRouter(cfg config.Config, logger *slog.Logger, auth Authenticator, h Handlers) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(NewLoggerMiddleware(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(httprate.LimitByIP(200, 1*time.Minute))

	h.Health.RegisterRoutes(r)
	h.Home.RegisterRoutes(r)
	r.Method("GET", "/metrics", promhttp.Handler())

	r.Route("/api", func(api chi.Router) {
		h.Auth.RegisterRoutes(api)

		// unauthenticated endpoints reachable from invitation links and the careers page
		api.Group(func(pub chi.Router) {
			pub.Use(httprate.LimitByIP(20, 1*time.Minute))
			h.Invitations.RegisterPublicRoutes(pub)
			h.Careers.RegisterPublicRoutes(pub)
		})

		api.Group(func(pr chi.Router) {
			pr.Use(AuthMiddleware(auth, cfg.SessionCookieName))
			// staff-level (staff/manager/admin)
			pr.Group(func(sr chi.Router) {
				sr.Use(RequireRole(domain.RoleAdmin, domain.RoleManager, domain.RoleStaff))
				h.Auth.RegisterProtectedRoutes(sr)
				h.Overtime.RegisterRoutes(sr)
				h.Attendance.RegisterRoutes(sr)
				h.Staff.RegisterRoutes(sr)
				h.Notices.RegisterRoutes(sr)
			})
			// manager-level (manager/admin)
			pr.Group(func(mr chi.Router) {
				mr.Use(RequireRole(domain.RoleAdmin, domain.RoleManager))
				h.Payroll.RegisterRoutes(mr)
				h.Analytics.RegisterRoutes(mr)
				h.Overtime.RegisterManagerRoutes(mr)
				h.Attendance.RegisterManagerRoutes(mr)
				h.Staff.RegisterManagerRoutes(mr)
				h.Clients.RegisterRoutes(mr)
				h.Earnings.RegisterRoutes(mr)
				h.Expenses.RegisterRoutes(mr)
				h.Debits.RegisterRoutes(mr)
				h.Notices.RegisterManagerRoutes(mr)
				h.Invitations.RegisterRoutes(mr)
				h.Careers.RegisterManagerRoutes(mr)
			})
			// admin-only: ownership and profit movements
			pr.Group(func(ar chi.Router) {
				ar.Use(RequireRole(domain.RoleAdmin))
				h.Shareholders.RegisterRoutes(ar)
				h.Transfers.RegisterRoutes(ar)
			})
		})
	})

	return r
}
