package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config is built once in main and handed to every constructor. Nothing
// else reads the environment after startup.
type Config struct {
	Port           string
	DatabaseURL    string
	AllowedOrigins string
	ServiceToken   string

	// Reward amounts, in MSZ. All must be positive.
	BaseRewardMSZ     int64
	ExtendedRewardMSZ int64
	FullRewardMSZ     int64
	QualityBonusMSZ   int64
	ReferralL1MSZ     int64
	ReferralL2MSZ     int64
	ReferralL3MSZ     int64

	MaxReferralsPerUser int

	// Size chart object in R2. Empty bucket means "use built-in charts".
	ChartBucket    string
	ChartObjectKey string

	// Notification sink (fire-and-forget). Empty URL disables delivery.
	NotifyServiceURL string

	ReferralSweepInterval time.Duration
}

// Load reads .env (if present) plus the environment and validates the
// reward amounts. Reward defaults mirror the production values.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	cfg := &Config{
		Port:             getEnv("PORT", "5300"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		AllowedOrigins:   getEnv("ALLOWED_ORIGINS", "http://localhost:3000"),
		ServiceToken:     os.Getenv("SIZE_SERVICE_TOKEN"),
		ChartBucket:      os.Getenv("CHART_BUCKET_NAME"),
		ChartObjectKey:   getEnv("CHART_OBJECT_KEY", "charts/size_charts.json"),
		NotifyServiceURL: os.Getenv("NOTIFY_SERVICE_URL"),
	}

	var err error
	if cfg.BaseRewardMSZ, err = getEnvInt64("BASE_REWARD_MSZ", 300); err != nil {
		return nil, err
	}
	if cfg.ExtendedRewardMSZ, err = getEnvInt64("EXTENDED_REWARD_MSZ", 200); err != nil {
		return nil, err
	}
	if cfg.FullRewardMSZ, err = getEnvInt64("FULL_REWARD_MSZ", 800); err != nil {
		return nil, err
	}
	if cfg.QualityBonusMSZ, err = getEnvInt64("QUALITY_BONUS_MSZ", 200); err != nil {
		return nil, err
	}
	if cfg.ReferralL1MSZ, err = getEnvInt64("REFERRAL_L1_MSZ", 250); err != nil {
		return nil, err
	}
	if cfg.ReferralL2MSZ, err = getEnvInt64("REFERRAL_L2_MSZ", 100); err != nil {
		return nil, err
	}
	if cfg.ReferralL3MSZ, err = getEnvInt64("REFERRAL_L3_MSZ", 50); err != nil {
		return nil, err
	}

	maxRef, err := getEnvInt64("MAX_REFERRALS_PER_USER", 50)
	if err != nil {
		return nil, err
	}
	cfg.MaxReferralsPerUser = int(maxRef)

	sweepSec, err := getEnvInt64("REFERRAL_SWEEP_SECONDS", 300)
	if err != nil {
		return nil, err
	}
	cfg.ReferralSweepInterval = time.Duration(sweepSec) * time.Second

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getEnvInt64 parses a positive integer from the environment.
func getEnvInt64(key string, fallback int64) (int64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if v <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %d", key, v)
	}
	return v, nil
}
