package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"booking-service/internal/schedule"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env  string
	Port int

	Log      LogConfig
	Owner    OwnerConfig
	Google   GoogleConfig
	Policy   schedule.Policy
	Hours    schedule.WorkingHours
	Verify   VerifyConfig
	Redis    RedisConfig
	Ledger   LedgerConfig
	Auth     AuthConfig
	Frontend FrontendConfig
	Email    EmailPolicyConfig
}

type LogConfig struct {
	Level  string
	Format string
}

type OwnerConfig struct {
	Name  string
	Email string
}

type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	TokenFile    string
	TokensJSON   string // pre-issued token blob for read-only deployments
}

type VerifyConfig struct {
	Backend string // "memory" or "redis"
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type LedgerConfig struct {
	Backend     string // "memory" or "postgres"
	DatabaseURL string
}

type AuthConfig struct {
	StaticTokens []string
	JWTSecret    string
}

type FrontendConfig struct {
	URL            string
	AllowedOrigins []string
}

// EmailPolicyConfig holds the domain denylists applied before sending a
// verification code.
type EmailPolicyConfig struct {
	DisposableDomains []string
	PersonalDomains   []string
}

var weekdayKeys = map[time.Weekday]string{
	time.Sunday:    "WORKING_HOURS_SUN",
	time.Monday:    "WORKING_HOURS_MON",
	time.Tuesday:   "WORKING_HOURS_TUE",
	time.Wednesday: "WORKING_HOURS_WED",
	time.Thursday:  "WORKING_HOURS_THU",
	time.Friday:    "WORKING_HOURS_FRI",
	time.Saturday:  "WORKING_HOURS_SAT",
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.AllowEmptyEnv(true) // an empty WORKING_HOURS_* means closed, not default

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// A missing .env is fine; the environment and defaults cover it.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{
		Env:  v.GetString("ENV"),
		Port: v.GetInt("PORT"),
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
		Owner: OwnerConfig{
			Name:  v.GetString("OWNER_NAME"),
			Email: v.GetString("OWNER_EMAIL"),
		},
		Google: GoogleConfig{
			ClientID:     v.GetString("GOOGLE_CLIENT_ID"),
			ClientSecret: v.GetString("GOOGLE_CLIENT_SECRET"),
			RedirectURL:  v.GetString("REDIRECT_URI"),
			TokenFile:    v.GetString("TOKEN_FILE"),
			TokensJSON:   v.GetString("GOOGLE_TOKENS"),
		},
		Policy: schedule.Policy{
			MaxDaysInAdvance: v.GetInt("MAX_DAYS_IN_ADVANCE"),
			MinHoursNotice:   v.GetInt("MIN_HOURS_NOTICE"),
			MeetingDuration:  v.GetInt("MEETING_DURATION_MINUTES"),
			SlotInterval:     v.GetInt("SLOT_INTERVAL_MINUTES"),
			Timezone:         v.GetString("TIMEZONE"),
		},
		Verify: VerifyConfig{Backend: v.GetString("VERIFY_BACKEND")},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Ledger: LedgerConfig{
			Backend:     v.GetString("LEDGER_BACKEND"),
			DatabaseURL: v.GetString("DATABASE_URL"),
		},
		Auth: AuthConfig{
			StaticTokens: splitAndTrim(v.GetString("STATIC_TOKENS")),
			JWTSecret:    v.GetString("JWT_HMAC_SECRET"),
		},
		Frontend: FrontendConfig{
			URL:            v.GetString("FRONTEND_URL"),
			AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS")),
		},
		Email: EmailPolicyConfig{
			DisposableDomains: splitAndTrim(v.GetString("BLOCKED_DISPOSABLE_DOMAINS")),
			PersonalDomains:   splitAndTrim(v.GetString("BLOCKED_PERSONAL_DOMAINS")),
		},
	}

	if cfg.Google.RedirectURL == "" {
		cfg.Google.RedirectURL = fmt.Sprintf("http://localhost:%d/auth/callback", cfg.Port)
	}

	hours, err := parseWorkingHours(v)
	if err != nil {
		return nil, err
	}
	cfg.Hours = hours

	if err := validatePolicy(cfg.Policy); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parseWorkingHours(v *viper.Viper) (schedule.WorkingHours, error) {
	hours := make(schedule.WorkingHours)
	for weekday, key := range weekdayKeys {
		raw := strings.TrimSpace(v.GetString(key))
		if raw == "" {
			continue // closed
		}
		window, err := parseWindow(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		hours[weekday] = window
	}
	return hours, nil
}

// parseWindow accepts "HH:MM-HH:MM".
func parseWindow(raw string) (schedule.DayHours, error) {
	parts := strings.SplitN(raw, "-", 2)
	if len(parts) != 2 {
		return schedule.DayHours{}, fmt.Errorf("invalid working hours %q, want HH:MM-HH:MM", raw)
	}
	start := strings.TrimSpace(parts[0])
	end := strings.TrimSpace(parts[1])
	for _, s := range []string{start, end} {
		if _, err := time.Parse("15:04", s); err != nil {
			return schedule.DayHours{}, fmt.Errorf("invalid time %q in working hours", s)
		}
	}
	if end <= start {
		return schedule.DayHours{}, fmt.Errorf("working hours %q: end must be after start", raw)
	}
	return schedule.DayHours{Start: start, End: end}, nil
}

func validatePolicy(p schedule.Policy) error {
	if p.MaxDaysInAdvance <= 0 {
		return errors.New("MAX_DAYS_IN_ADVANCE must be positive")
	}
	if p.MinHoursNotice < 0 {
		return errors.New("MIN_HOURS_NOTICE must not be negative")
	}
	if p.MeetingDuration <= 0 {
		return errors.New("MEETING_DURATION_MINUTES must be positive")
	}
	if p.SlotInterval <= 0 {
		return errors.New("SLOT_INTERVAL_MINUTES must be positive")
	}
	if _, err := time.LoadLocation(p.Timezone); err != nil {
		return fmt.Errorf("TIMEZONE: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 3000)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("OWNER_NAME", "Your Name")
	v.SetDefault("OWNER_EMAIL", "your@email.com")
	v.SetDefault("FRONTEND_URL", "http://localhost:5500")
	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("TOKEN_FILE", "tokens.json")

	v.SetDefault("MAX_DAYS_IN_ADVANCE", 15)
	v.SetDefault("MIN_HOURS_NOTICE", 4)
	v.SetDefault("MEETING_DURATION_MINUTES", 45)
	v.SetDefault("SLOT_INTERVAL_MINUTES", 45)
	v.SetDefault("TIMEZONE", "Asia/Kolkata")

	v.SetDefault("WORKING_HOURS_SUN", "14:00-20:00")
	v.SetDefault("WORKING_HOURS_MON", "09:00-17:00")
	v.SetDefault("WORKING_HOURS_TUE", "09:00-17:00")
	v.SetDefault("WORKING_HOURS_WED", "09:00-17:00")
	v.SetDefault("WORKING_HOURS_THU", "09:00-17:00")
	v.SetDefault("WORKING_HOURS_FRI", "09:00-17:00")
	v.SetDefault("WORKING_HOURS_SAT", "")

	v.SetDefault("VERIFY_BACKEND", "memory")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("LEDGER_BACKEND", "memory")
	v.SetDefault("DATABASE_URL", "")

	v.SetDefault("STATIC_TOKENS", "")
	v.SetDefault("JWT_HMAC_SECRET", "")

	v.SetDefault("BLOCKED_DISPOSABLE_DOMAINS", strings.Join([]string{
		"tempmail.com", "throwaway.email", "guerrillamail.com", "mailinator.com",
		"10minutemail.com", "yopmail.com", "fakeinbox.com", "trashmail.com",
	}, ","))
	v.SetDefault("BLOCKED_PERSONAL_DOMAINS", strings.Join([]string{
		"gmail.com", "yahoo.com", "outlook.com", "hotmail.com", "live.com",
		"aol.com", "icloud.com", "protonmail.com", "zoho.com", "mail.com",
	}, ","))
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
