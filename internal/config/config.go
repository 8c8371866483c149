package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the process configuration, loaded from the environment.
type Config struct {
	DataFile  string
	BotUserID string

	ScoreReward    int
	ScoreLimit     int
	ScoreThreshold int
	ScoreDailyDec  int
	DecayInterval  time.Duration

	ActiveRoleID     string
	PassiveRoleID    string
	VerifiedRoleID   string
	UnverifiedRoleID string
	JoinlogChannelID string

	AllowedEmailDomains []string
	SMTPHost            string
	SMTPPort            string
	SMTPUsername        string
	SMTPPassword        string
	SMTPSenderName      string
	SMTPSenderAddress   string

	MetricsAddr string
	LogLevel    string
	LogFormat   string
}

// Load reads the configuration from the environment and validates it.
func Load() (*Config, error) {
	cfg := &Config{
		DataFile:          getEnv("DATA_FILE", "data.json"),
		BotUserID:         getEnv("BOT_USER_ID", ""),
		ActiveRoleID:      getEnv("ACTIVE_ROLE_ID", ""),
		PassiveRoleID:     getEnv("PASSIVE_ROLE_ID", ""),
		VerifiedRoleID:    getEnv("VERIFIED_ROLE_ID", ""),
		UnverifiedRoleID:  getEnv("UNVERIFIED_ROLE_ID", ""),
		JoinlogChannelID:  getEnv("JOINLOG_CHANNEL_ID", ""),
		SMTPHost:          getEnv("SMTP_HOST", ""),
		SMTPPort:          getEnv("SMTP_PORT", "587"),
		SMTPUsername:      getEnv("SMTP_USERNAME", ""),
		SMTPPassword:      getEnv("SMTP_PASSWORD", ""),
		SMTPSenderName:    getEnv("SMTP_SENDER_NAME", ""),
		SMTPSenderAddress: getEnv("SMTP_SENDER_ADDRESS", ""),
		MetricsAddr:       getEnv("METRICS_ADDR", ":9090"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogFormat:         getEnv("LOG_FORMAT", "text"),
	}

	var err error
	if cfg.ScoreReward, err = getEnvInt("SCORE_REWARD", 10); err != nil {
		return nil, err
	}
	if cfg.ScoreLimit, err = getEnvInt("SCORE_LIMIT", 100); err != nil {
		return nil, err
	}
	if cfg.ScoreThreshold, err = getEnvInt("SCORE_THRESHOLD", 50); err != nil {
		return nil, err
	}
	if cfg.ScoreDailyDec, err = getEnvInt("SCORE_DAILY_DECAY", 5); err != nil {
		return nil, err
	}
	if cfg.DecayInterval, err = getEnvDuration("DECAY_INTERVAL", 6*time.Hour); err != nil {
		return nil, err
	}

	if domains := getEnv("ALLOWED_EMAIL_DOMAINS", ""); domains != "" {
		for _, d := range strings.Split(domains, ",") {
			if d = strings.TrimSpace(d); d != "" {
				cfg.AllowedEmailDomains = append(cfg.AllowedEmailDomains, strings.ToLower(d))
			}
		}
	}

	if cfg.BotUserID == "" {
		return nil, fmt.Errorf("BOT_USER_ID is required")
	}
	if cfg.ActiveRoleID == "" {
		return nil, fmt.Errorf("ACTIVE_ROLE_ID is required")
	}
	if cfg.PassiveRoleID == "" {
		return nil, fmt.Errorf("PASSIVE_ROLE_ID is required")
	}
	if cfg.ScoreLimit <= 0 {
		return nil, fmt.Errorf("SCORE_LIMIT must be positive")
	}
	if cfg.ScoreThreshold < 0 || cfg.ScoreThreshold > cfg.ScoreLimit {
		return nil, fmt.Errorf("SCORE_THRESHOLD must be within [0, SCORE_LIMIT]")
	}
	if cfg.ScoreReward <= 0 {
		return nil, fmt.Errorf("SCORE_REWARD must be positive")
	}
	if cfg.ScoreDailyDec < 0 {
		return nil, fmt.Errorf("SCORE_DAILY_DECAY must not be negative")
	}
	if cfg.DecayInterval <= 0 {
		return nil, fmt.Errorf("DECAY_INTERVAL must be positive")
	}

	// SMTP settings: either fully present or fully absent.
	if cfg.SMTPHost != "" || cfg.SMTPUsername != "" || cfg.SMTPSenderAddress != "" {
		if cfg.SMTPHost == "" {
			return nil, fmt.Errorf("SMTP_HOST is required when SMTP is configured")
		}
		if cfg.SMTPSenderAddress == "" {
			return nil, fmt.Errorf("SMTP_SENDER_ADDRESS is required when SMTP is configured")
		}
		if len(cfg.AllowedEmailDomains) == 0 {
			return nil, fmt.Errorf("ALLOWED_EMAIL_DOMAINS is required when SMTP is configured")
		}
		if cfg.VerifiedRoleID == "" || cfg.UnverifiedRoleID == "" {
			return nil, fmt.Errorf("VERIFIED_ROLE_ID and UNVERIFIED_ROLE_ID are required when SMTP is configured")
		}
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration: %w", key, err)
	}
	return d, nil
}
