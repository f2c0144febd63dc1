package server

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"hrdesk-backend/internal/config"
	"hrdesk-backend/internal/domain"
	"hrdesk-backend/internal/handler"
	"hrdesk-backend/internal/repository/memstore"
	"hrdesk-backend/internal/service"
)

type testEnv struct {
	router http.Handler
	store  *memstore.Store
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	store := memstore.New()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := config.Config{
		Env:               "test",
		JWTSecret:         "router-secret",
		AccessTokenTTL:    time.Hour,
		RefreshTokenTTL:   24 * time.Hour,
		SessionCookieName: "hrdesk_session",
		Location:          time.UTC,
	}

	audit := service.Auditor{Store: store, Logger: logger}
	authSvc := service.AuthService{Config: cfg, Users: store, Logger: logger}
	if _, err := authSvc.EnsureAdmin(context.Background(), "admin@example.com", "admin-pass-1"); err != nil {
		t.Fatalf("bootstrap admin: %v", err)
	}
	staffSvc := service.StaffService{Staff: store, Audit: audit, Logger: logger}
	branchSvc := service.BranchService{Branches: store, Audit: audit}
	expenseSvc := service.ExpenseService{Expenses: store, Audit: audit, Logger: logger, Location: time.UTC}
	payrollSvc := service.PayrollService{
		Staff: store, Shifts: store, Attendance: store, Overtime: store,
		Payroll: store, Audit: audit, Logger: logger, Policy: config.DefaultPayrollPolicy(),
	}
	invitationSvc := service.InvitationService{
		Invitations: store, Users: store, Audit: audit, Logger: logger,
		Location: time.UTC, TTL: 24 * time.Hour, BaseURL: "https://hr.example.com/invite",
	}
	shareholderSvc := service.ShareholderService{Shareholders: store, Ledger: store, Audit: audit, Logger: logger, Location: time.UTC}

	h := Handlers{
		Health:       handler.HealthHandler{DB: store},
		Home:         handler.HomeHandler{AppName: "hrdesk", Env: cfg.Env},
		Auth:         handler.AuthHandler{Service: &authSvc, CookieName: cfg.SessionCookieName},
		Payroll:      handler.PayrollHandler{Service: &payrollSvc},
		Staff:        handler.StaffHandler{Service: &staffSvc, Branches: &branchSvc},
		Expenses:     handler.ExpenseHandler{Service: &expenseSvc},
		Invitations:  handler.InvitationHandler{Service: &invitationSvc},
		Shareholders: handler.ShareholderHandler{Service: &shareholderSvc},
	}
	return testEnv{router: NewRouter(cfg, logger, authSvc, h), store: store}
}

type envelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Errors  map[string]string `json:"errors"`
}

func (e testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return env
}

func (e testEnv) login(t *testing.T, email, password string) string {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": email, "password": password})
	if rec.Code != http.StatusOK {
		t.Fatalf("login %s: %d %s", email, rec.Code, rec.Body.String())
	}
	var data struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(decodeEnvelope(t, rec).Data, &data); err != nil || data.Token == "" {
		t.Fatalf("no token in %s", rec.Body.String())
	}
	return data.Token
}

func TestHealthAndHome(t *testing.T) {
	env := newTestEnv(t)
	if rec := env.do(t, http.MethodGet, "/health", "", nil); rec.Code != http.StatusOK {
		t.Fatalf("health: %d %s", rec.Code, rec.Body.String())
	}
	if rec := env.do(t, http.MethodGet, "/", "", nil); rec.Code != http.StatusOK {
		t.Fatalf("home: %d", rec.Code)
	}
}

func TestProtectedRoutesNeedCredentials(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/auth/me", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without credentials, got %d", rec.Code)
	}
	if env := decodeEnvelope(t, rec); env.Success {
		t.Fatalf("failure must not report success: %+v", env)
	}

	if rec := env.do(t, http.MethodGet, "/api/auth/me", "not-a-jwt", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for a forged token, got %d", rec.Code)
	}

	token := env.login(t, "admin@example.com", "admin-pass-1")
	rec = env.do(t, http.MethodGet, "/api/auth/me", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("me: %d %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "admin@example.com") {
		t.Fatalf("me must describe the caller: %s", rec.Body.String())
	}
}

func TestSessionCookieAuthenticates(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "admin@example.com", "password": "admin-pass-1"})
	var session *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == "hrdesk_session" {
			session = c
		}
	}
	if session == nil || session.Value == "" {
		t.Fatalf("login must set the session cookie, got %v", rec.Result().Cookies())
	}

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: session.Name, Value: session.Value})
	out := httptest.NewRecorder()
	env.router.ServeHTTP(out, req)
	if out.Code != http.StatusOK {
		t.Fatalf("cookie auth: %d %s", out.Code, out.Body.String())
	}
}

func TestValidationErrorsListFields(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, "admin@example.com", "admin-pass-1")

	rec := env.do(t, http.MethodPost, "/api/invitations", token, map[string]any{"email": "not-an-email", "role": "owner"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d %s", rec.Code, rec.Body.String())
	}
	out := decodeEnvelope(t, rec)
	if out.Errors["email"] == "" || out.Errors["role"] == "" {
		t.Fatalf("expected field errors for email and role, got %+v", out.Errors)
	}

	rec = env.do(t, http.MethodPost, "/api/expenses", token, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("empty body must be rejected, got %d", rec.Code)
	}
}

func TestInvitationFlowAndRoleGates(t *testing.T) {
	env := newTestEnv(t)
	admin := env.login(t, "admin@example.com", "admin-pass-1")

	rec := env.do(t, http.MethodPost, "/api/invitations", admin, map[string]any{
		"email": "Rina@Example.com", "name": "Rina", "department": "Finance", "salary": "42000",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create invitation: %d %s", rec.Code, rec.Body.String())
	}
	var inv struct {
		Email  string `json:"email"`
		Status string `json:"status"`
		Link   string `json:"link"`
	}
	if err := json.Unmarshal(decodeEnvelope(t, rec).Data, &inv); err != nil {
		t.Fatalf("decode invitation: %v", err)
	}
	if inv.Email != "rina@example.com" || inv.Status != "pending" {
		t.Fatalf("unexpected invitation %+v", inv)
	}
	token := inv.Link[strings.LastIndex(inv.Link, "/")+1:]

	if rec := env.do(t, http.MethodGet, "/api/invitations/validate/"+token, "", nil); rec.Code != http.StatusOK {
		t.Fatalf("validate: %d %s", rec.Code, rec.Body.String())
	}
	if rec := env.do(t, http.MethodGet, "/api/invitations/validate/unknown", "", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown token must be 404, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodPost, "/api/invitations/accept/"+token, "", map[string]string{"password": "rina-pass-1"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("accept: %d %s", rec.Code, rec.Body.String())
	}
	rec = env.do(t, http.MethodPost, "/api/invitations/accept/"+token, "", map[string]string{"password": "rina-pass-1"})
	if rec.Code < 400 {
		t.Fatalf("a used invitation must not be accepted twice, got %d", rec.Code)
	}

	staff := env.login(t, "rina@example.com", "rina-pass-1")
	if rec := env.do(t, http.MethodGet, "/api/staff/me", staff, nil); rec.Code != http.StatusOK {
		t.Fatalf("staff me: %d %s", rec.Code, rec.Body.String())
	}
	for _, path := range []string{"/api/payroll/preview?month=2025-03", "/api/staff", "/api/expenses"} {
		if rec := env.do(t, http.MethodGet, path, staff, nil); rec.Code != http.StatusForbidden {
			t.Fatalf("staff on %s: expected 403, got %d", path, rec.Code)
		}
	}
	if rec := env.do(t, http.MethodGet, "/api/shareholders", staff, nil); rec.Code != http.StatusForbidden {
		t.Fatalf("staff on shareholders: expected 403, got %d", rec.Code)
	}
	if rec := env.do(t, http.MethodGet, "/api/shareholders", admin, nil); rec.Code != http.StatusOK {
		t.Fatalf("admin on shareholders: %d %s", rec.Code, rec.Body.String())
	}
}

func TestExpenseExportCSV(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, "admin@example.com", "admin-pass-1")

	for _, body := range []map[string]any{
		{"title": "Office rent", "category": "rent", "amount": "1500", "date": "2025-03-01"},
		{"title": "Printer ink", "amount": "80.5", "paidAmount": "80.5", "date": "2025-03-10"},
		{"title": "Old invoice", "amount": "10", "date": "2025-02-27"},
	} {
		if rec := env.do(t, http.MethodPost, "/api/expenses", token, body); rec.Code != http.StatusCreated {
			t.Fatalf("create expense: %d %s", rec.Code, rec.Body.String())
		}
	}

	rec := env.do(t, http.MethodGet, "/api/expenses/export?format=csv&month=2025-03", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("export: %d %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Content-Disposition"); !strings.Contains(got, "expenses_2025-03.csv") {
		t.Fatalf("unexpected disposition %q", got)
	}
	rows, err := csv.NewReader(rec.Body).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header and two March rows, got %v", rows)
	}
	if rows[0][1] != "title" {
		t.Fatalf("unexpected header %v", rows[0])
	}

	if rec := env.do(t, http.MethodGet, "/api/expenses/export?format=pdf", token, nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown format must be 400, got %d", rec.Code)
	}
}

func TestBulkPayrollReportsEachPayment(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, "admin@example.com", "admin-pass-1")

	payments := []map[string]any{}
	for _, name := range []string{"amir", "bela", "chen"} {
		st, err := env.store.CreateStaff(context.Background(), domain.Staff{Name: name, Email: name + "@example.com", Salary: decimal.NewFromInt(30000)})
		if err != nil {
			t.Fatalf("seed staff: %v", err)
		}
		payments = append(payments, map[string]any{"staffId": st.ID, "amount": "30000"})
	}
	payments = append(payments, map[string]any{"staffId": 9999, "amount": "1000"})

	rec := env.do(t, http.MethodPost, "/api/payroll/bulk-process", token, map[string]any{
		"month": "2025-03", "paymentMethod": "bank", "payments": payments,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("bulk: %d %s", rec.Code, rec.Body.String())
	}
	var res struct {
		Succeeded []json.RawMessage `json:"succeeded"`
		Failed    []struct {
			Key   string `json:"key"`
			Error string `json:"error"`
		} `json:"failed"`
	}
	if err := json.Unmarshal(decodeEnvelope(t, rec).Data, &res); err != nil {
		t.Fatalf("decode bulk: %v", err)
	}
	if len(res.Succeeded) != 3 || len(res.Failed) != 1 || res.Failed[0].Key != "9999" {
		t.Fatalf("expected 3 succeeded and 1 failed for 9999, got %s", rec.Body.String())
	}

	rec = env.do(t, http.MethodPost, "/api/payroll/bulk-process", token, map[string]any{"month": "2025-03", "paymentMethod": "bank"})
	if rec.Code != http.StatusBadRequest || decodeEnvelope(t, rec).Errors["payments"] == "" {
		t.Fatalf("missing payments must be a field error, got %d %s", rec.Code, rec.Body.String())
	}
}
