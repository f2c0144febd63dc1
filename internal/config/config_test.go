package config

import (
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost/hrdesk")
	t.Setenv("JWT_SECRET", "test-secret")
}

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "x")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error when DATABASE_URL is empty")
	}
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/hrdesk")
	t.Setenv("JWT_SECRET", "")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error when JWT_SECRET is empty")
	}
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)
	t.Setenv("HTTP_PORT", "")
	t.Setenv("TIMEZONE", "")
	t.Setenv("PAYROLL_STANDARD_HOURS", "")
	t.Setenv("INVITATION_TTL", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPPort != "8080" {
		t.Fatalf("expected default port 8080, got %q", cfg.HTTPPort)
	}
	if cfg.Location.String() != "Asia/Dhaka" {
		t.Fatalf("expected Asia/Dhaka, got %s", cfg.Location)
	}
	if !cfg.Payroll.StandardHours.Equal(DefaultPayrollPolicy().StandardHours) {
		t.Fatalf("unexpected standard hours %s", cfg.Payroll.StandardHours)
	}
	if cfg.InvitationTTL != 7*24*time.Hour {
		t.Fatalf("unexpected invitation ttl %s", cfg.InvitationTTL)
	}
}

func TestLoadDurationAcceptsSeconds(t *testing.T) {
	setRequired(t)
	t.Setenv("DASHBOARD_CACHE_TTL", "90")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DashboardCacheTTL != 90*time.Second {
		t.Fatalf("expected 90s, got %s", cfg.DashboardCacheTTL)
	}
}

func TestLoadRejectsNonPositiveStandardHours(t *testing.T) {
	setRequired(t)
	t.Setenv("PAYROLL_STANDARD_HOURS", "0")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for zero standard hours")
	}
}

func TestLoadRejectsUnknownTimezone(t *testing.T) {
	setRequired(t)
	t.Setenv("TIMEZONE", "Mars/Olympus")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for unknown timezone")
	}
}

func TestSplitList(t *testing.T) {
	got := splitList(" a ,b,, c ")
	if len(got) != 3 || got[0] != "a" || got[2] != "c" {
		t.Fatalf("unexpected split %v", got)
	}
}
