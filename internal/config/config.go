package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	Database     DatabaseConfig
	JWT          JWTConfig
	App          AppConfig
	OAuth2Google OAuth2GoogleConfig
	SMTP         SMTPConfig
	Storage      StorageConfig
	Attendance   AttendanceConfig
	Payroll      PayrollConfig
	Security     SecurityConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret            string
	RefreshExpiration string
	AccessExpiration  string
}

// AppConfig holds application configuration
type AppConfig struct {
	Port           int
	Env            string
	LogLevel       string
	FrontendURL    string
	AllowedOrigins []string

	// TrustProxyHeaders takes the client address from X-Forwarded-For or
	// X-Real-IP. Enable only behind a proxy that overwrites those headers.
	TrustProxyHeaders bool
}

// OAuth2GoogleConfig is optional. Google sign-in is disabled when ClientID is empty.
type OAuth2GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string
}

// Enabled reports whether Google sign-in is configured.
func (c OAuth2GoogleConfig) Enabled() bool {
	return c.ClientID != ""
}

// SMTPConfig holds outbound mail settings. Mail is skipped when Host is empty.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
}

type StorageConfig struct {
	Type     string // "local"
	BasePath string
	BaseURL  string
}

// AttendanceConfig describes the standard shift used for lateness and overtime.
type AttendanceConfig struct {
	ShiftStart   string // HH:MM
	ShiftLength  time.Duration
	Timezone     string
	AutoLockDay  int // day of month on which the previous month is locked, 0 disables
	LockInterval time.Duration

	Location *time.Location
}

type PayrollConfig struct {
	RejectNegativeInput    bool
	DefaultOvertimeRate    decimal.Decimal
	DefaultLatePenaltyRate decimal.Decimal
	ExcludeWeekdays        []time.Weekday
}

type SecurityConfig struct {
	ImpossibleTravelSpeedKmh float64
	LoginRatePerMinute       int
	LoginBurst               int
	AlertWorkerCount         int
	AlertQueueSize           int
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Warn("No .env file loaded, using process environment", "error", err)
	}

	config := &Config{}

	// Database configuration
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	config.Database = DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     dbPort,
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "cafe"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
	}

	// Application configuration
	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}
	trustProxy, err := strconv.ParseBool(getEnv("APP_TRUST_PROXY_HEADERS", "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_TRUST_PROXY_HEADERS: %w", err)
	}

	config.App = AppConfig{
		Port:           appPort,
		Env:            getEnv("APP_ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		FrontendURL:    getEnv("FRONTEND_URL", "http://localhost:3000"),
		AllowedOrigins: getEnvSlice("CORS_ALLOWED_ORIGINS"),

		TrustProxyHeaders: trustProxy,
	}
	if len(config.App.AllowedOrigins) == 0 {
		config.App.AllowedOrigins = []string{config.App.FrontendURL}
	}

	// JWT configuration
	config.JWT = JWTConfig{
		Secret:            getEnv("JWT_SECRET_KEY", ""),
		RefreshExpiration: getEnv("JWT_REFRESH_EXPIRATION_TIME", "168h"),
		AccessExpiration:  getEnv("JWT_ACCESS_EXPIRATION_TIME", "1h"),
	}

	// OAuth2 Google Configuration
	config.OAuth2Google = OAuth2GoogleConfig{
		ClientID:     getEnv("CLIENT_ID", ""),
		ClientSecret: getEnv("CLIENT_SECRET", ""),
		RedirectURL:  getEnv("REDIRECT_URL", ""),
		Scopes:       getEnvSlice("SCOPES"),
	}

	// SMTP configuration
	smtpPort, err := strconv.Atoi(getEnv("SMTP_PORT", "587"))
	if err != nil {
		return nil, fmt.Errorf("invalid SMTP_PORT: %w", err)
	}
	config.SMTP = SMTPConfig{
		Host:     getEnv("SMTP_HOST", ""),
		Port:     smtpPort,
		Username: getEnv("SMTP_USERNAME", ""),
		Password: getEnv("SMTP_PASSWORD", ""),
		From:     getEnv("SMTP_FROM", "no-reply@cafe.local"),
		FromName: getEnv("SMTP_FROM_NAME", "Cafe Back Office"),
	}

	// Storage configuration
	config.Storage = StorageConfig{
		Type:     getEnv("STORAGE_TYPE", "local"),
		BasePath: getEnv("STORAGE_BASE_PATH", "./uploads"),
		BaseURL:  getEnv("STORAGE_BASE_URL", fmt.Sprintf("http://localhost:%d/files", appPort)),
	}

	// Attendance configuration
	shiftLength, err := time.ParseDuration(getEnv("ATTENDANCE_SHIFT_LENGTH", "8h"))
	if err != nil {
		return nil, fmt.Errorf("invalid ATTENDANCE_SHIFT_LENGTH: %w", err)
	}
	autoLockDay, err := strconv.Atoi(getEnv("ATTENDANCE_AUTO_LOCK_DAY", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid ATTENDANCE_AUTO_LOCK_DAY: %w", err)
	}
	lockInterval, err := time.ParseDuration(getEnv("ATTENDANCE_LOCK_CHECK_INTERVAL", "1h"))
	if err != nil {
		return nil, fmt.Errorf("invalid ATTENDANCE_LOCK_CHECK_INTERVAL: %w", err)
	}
	config.Attendance = AttendanceConfig{
		ShiftStart:   getEnv("ATTENDANCE_SHIFT_START", "09:00"),
		ShiftLength:  shiftLength,
		Timezone:     getEnv("ATTENDANCE_TIMEZONE", "Asia/Jakarta"),
		AutoLockDay:  autoLockDay,
		LockInterval: lockInterval,
	}
	config.Attendance.Location, err = time.LoadLocation(config.Attendance.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid ATTENDANCE_TIMEZONE: %w", err)
	}

	// Payroll configuration
	rejectNegative, err := strconv.ParseBool(getEnv("PAYROLL_REJECT_NEGATIVE_INPUT", "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid PAYROLL_REJECT_NEGATIVE_INPUT: %w", err)
	}
	overtimeRate, err := decimal.NewFromString(getEnv("PAYROLL_DEFAULT_OVERTIME_RATE", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid PAYROLL_DEFAULT_OVERTIME_RATE: %w", err)
	}
	latePenaltyRate, err := decimal.NewFromString(getEnv("PAYROLL_DEFAULT_LATE_PENALTY_RATE", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid PAYROLL_DEFAULT_LATE_PENALTY_RATE: %w", err)
	}
	excludeWeekdays, err := parseWeekdays(getEnv("PAYROLL_EXCLUDE_WEEKDAYS", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid PAYROLL_EXCLUDE_WEEKDAYS: %w", err)
	}
	config.Payroll = PayrollConfig{
		RejectNegativeInput:    rejectNegative,
		DefaultOvertimeRate:    overtimeRate,
		DefaultLatePenaltyRate: latePenaltyRate,
		ExcludeWeekdays:        excludeWeekdays,
	}

	// Security configuration
	maxSpeed, err := strconv.ParseFloat(getEnv("SECURITY_IMPOSSIBLE_TRAVEL_KMH", "900"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid SECURITY_IMPOSSIBLE_TRAVEL_KMH: %w", err)
	}
	loginRate, err := strconv.Atoi(getEnv("SECURITY_LOGIN_RATE_PER_MINUTE", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid SECURITY_LOGIN_RATE_PER_MINUTE: %w", err)
	}
	loginBurst, err := strconv.Atoi(getEnv("SECURITY_LOGIN_BURST", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid SECURITY_LOGIN_BURST: %w", err)
	}
	config.Security = SecurityConfig{
		ImpossibleTravelSpeedKmh: maxSpeed,
		LoginRatePerMinute:       loginRate,
		LoginBurst:               loginBurst,
		AlertWorkerCount:         2,
		AlertQueueSize:           256,
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	var errs []error

	if c.Database.Password == "" {
		errs = append(errs, errors.New("DB_PASSWORD is required"))
	}
	if c.JWT.Secret == "" {
		errs = append(errs, errors.New("JWT_SECRET_KEY is required"))
	}
	if c.OAuth2Google.Enabled() {
		if c.OAuth2Google.ClientSecret == "" {
			errs = append(errs, errors.New("CLIENT_SECRET is required when CLIENT_ID is set"))
		}
		if c.OAuth2Google.RedirectURL == "" {
			errs = append(errs, errors.New("REDIRECT_URL is required when CLIENT_ID is set"))
		}
	}
	if _, _, ok := parseClock(c.Attendance.ShiftStart); !ok {
		errs = append(errs, fmt.Errorf("ATTENDANCE_SHIFT_START must be HH:MM, got %q", c.Attendance.ShiftStart))
	}
	if c.Attendance.ShiftLength <= 0 {
		errs = append(errs, errors.New("ATTENDANCE_SHIFT_LENGTH must be positive"))
	}
	if c.Attendance.AutoLockDay < 0 || c.Attendance.AutoLockDay > 28 {
		errs = append(errs, errors.New("ATTENDANCE_AUTO_LOCK_DAY must be between 0 and 28"))
	}
	if c.Security.ImpossibleTravelSpeedKmh <= 0 {
		errs = append(errs, errors.New("SECURITY_IMPOSSIBLE_TRAVEL_KMH must be positive"))
	}
	if c.Security.LoginRatePerMinute <= 0 || c.Security.LoginBurst <= 0 {
		errs = append(errs, errors.New("SECURITY_LOGIN_RATE_PER_MINUTE and SECURITY_LOGIN_BURST must be positive"))
	}

	return errors.Join(errs...)
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// ShiftStartClock returns the configured shift start as hour and minute.
func (c AttendanceConfig) ShiftStartClock() (hour, minute int) {
	hour, minute, _ = parseClock(c.ShiftStart)
	return hour, minute
}

// SlogLevel maps LOG_LEVEL onto a slog level, defaulting to info.
func (c AppConfig) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvSlice(env string) []string {
	return splitList(getEnv(env, ""))
}

func parseClock(s string) (hour, minute int, ok bool) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, 0, false
	}
	return t.Hour(), t.Minute(), true
}

func parseWeekdays(s string) ([]time.Weekday, error) {
	var days []time.Weekday
	for _, part := range splitList(s) {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 || n > 6 {
			return nil, fmt.Errorf("weekday %q must be 0-6", part)
		}
		days = append(days, time.Weekday(n))
	}
	return days, nil
}

func splitList(value string) []string {
	result := []string{}
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}
