package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config holds application runtime configuration.
type Config struct {
	Env               string
	HTTPPort          string
	DatabaseURL       string
	AutoMigrate       bool
	JWTSecret         string
	AccessTokenTTL    time.Duration
	RefreshTokenTTL   time.Duration
	SessionCookieName string
	SessionTTL        time.Duration
	AllowedOrigins    []string
	FirebaseProjectID string
	FirebaseCredFile  string
	RedisAddr         string
	RedisPassword     string
	RedisDB           int
	DashboardCacheTTL time.Duration
	Location          *time.Location
	Payroll           PayrollPolicy
	LateAfter         time.Duration
	InvitationTTL     time.Duration
	InviteBaseURL     string
	AdminEmail        string
	AdminPassword     string
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
}

// PayrollPolicy holds the knobs of the payroll preview calculation.
type PayrollPolicy struct {
	StandardHours      decimal.Decimal
	OvertimeMultiplier decimal.Decimal
}

// DefaultPayrollPolicy is used when no overrides are configured.
func DefaultPayrollPolicy() PayrollPolicy {
	return PayrollPolicy{
		StandardHours:      decimal.NewFromInt(8),
		OvertimeMultiplier: decimal.NewFromInt(1),
	}
}

// Load reads environment variables and .env (if present).
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Env:               getEnv("APP_ENV", "development"),
		HTTPPort:          getEnv("HTTP_PORT", "8080"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		AutoMigrate:       getBool("AUTO_MIGRATE", true),
		JWTSecret:         os.Getenv("JWT_SECRET"),
		AccessTokenTTL:    getDuration("ACCESS_TOKEN_TTL", 24*time.Hour),
		RefreshTokenTTL:   getDuration("REFRESH_TOKEN_TTL", 30*24*time.Hour),
		SessionCookieName: getEnv("SESSION_COOKIE_NAME", "session"),
		SessionTTL:        getDuration("SESSION_TTL", 5*24*time.Hour),
		AllowedOrigins:    splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		FirebaseProjectID: os.Getenv("FIREBASE_PROJECT_ID"),
		FirebaseCredFile:  os.Getenv("FIREBASE_CREDENTIALS"),
		RedisAddr:         os.Getenv("REDIS_ADDR"),
		RedisPassword:     os.Getenv("REDIS_PASSWORD"),
		RedisDB:           getInt("REDIS_DB", 0),
		DashboardCacheTTL: getDuration("DASHBOARD_CACHE_TTL", time.Minute),
		Payroll:           DefaultPayrollPolicy(),
		LateAfter:         getDuration("ATTENDANCE_LATE_AFTER", 15*time.Minute),
		InvitationTTL:     getDuration("INVITATION_TTL", 7*24*time.Hour),
		InviteBaseURL:     getEnv("INVITE_BASE_URL", "http://localhost:3000/invite"),
		AdminEmail:        strings.ToLower(strings.TrimSpace(os.Getenv("BOOTSTRAP_ADMIN_EMAIL"))),
		AdminPassword:     os.Getenv("BOOTSTRAP_ADMIN_PASSWORD"),
		ReadTimeout:       getDuration("HTTP_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:      getDuration("HTTP_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:       getDuration("HTTP_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout:   getDuration("HTTP_SHUTDOWN_TIMEOUT", 10*time.Second),
	}

	loc, err := time.LoadLocation(getEnv("TIMEZONE", "Asia/Dhaka"))
	if err != nil {
		return cfg, fmt.Errorf("invalid TIMEZONE: %w", err)
	}
	cfg.Location = loc

	if v, ok := getDecimal("PAYROLL_STANDARD_HOURS"); ok {
		if !v.IsPositive() {
			return cfg, errors.New("PAYROLL_STANDARD_HOURS must be positive")
		}
		cfg.Payroll.StandardHours = v
	}
	if v, ok := getDecimal("PAYROLL_OVERTIME_MULTIPLIER"); ok {
		if v.IsNegative() {
			return cfg, errors.New("PAYROLL_OVERTIME_MULTIPLIER must not be negative")
		}
		cfg.Payroll.OvertimeMultiplier = v
	}

	if cfg.DatabaseURL == "" {
		return cfg, errors.New("DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		return cfg, errors.New("JWT_SECRET is required")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}

func getInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return n
}

func getBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return b
}

func getDecimal(key string) (decimal.Decimal, bool) {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(val)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

func getDuration(key string, fallback time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		// Support seconds as integer without suffix.
		if secs, convErr := strconv.Atoi(val); convErr == nil {
			return time.Duration(secs) * time.Second
		}
		return fallback
	}
	return d
}

func splitList(val string) []string {
	var out []string
	for _, part := range strings.Split(val, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
