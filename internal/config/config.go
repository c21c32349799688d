package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string

	// Redis（フォロー関係スナップショットのキャッシュ。未設定なら無効）
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Kafka（アクティビティイベントの発行。未設定なら無効）
	KafkaBrokers []string
	KafkaTopic   string

	// Feed
	FeedTierTimeout   time.Duration
	FeedMaxCandidates int

	// Follow cache
	FollowCacheTTL time.Duration

	// Rate Limit
	RateLimitGeneral int
	RateLimitPost    int

	// Seed
	SeedUsers    int
	SeedCourts   int
	SeedStatuses int

	// Server
	ServerPort string

	// CORS
	CORSAllowedOrigin string
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.RedisAddr = getEnvString("REDIS_ADDR", "")
	cfg.RedisPassword = getEnvString("REDIS_PASSWORD", "")
	cfg.RedisDB = getEnvInt("REDIS_DB", 0)
	cfg.KafkaBrokers = getEnvStringSlice("KAFKA_BROKERS")
	cfg.KafkaTopic = getEnvString("KAFKA_TOPIC", "hoopfeed.activity")
	cfg.FeedTierTimeout = getEnvDuration("FEED_TIER_TIMEOUT", 2*time.Second)
	cfg.FeedMaxCandidates = getEnvInt("FEED_MAX_CANDIDATES", 150)
	cfg.FollowCacheTTL = getEnvDuration("FOLLOW_CACHE_TTL", 5*time.Minute)
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitPost = getEnvInt("RATE_LIMIT_POST", 10)
	cfg.SeedUsers = getEnvInt("SEED_USERS", 50)
	cfg.SeedCourts = getEnvInt("SEED_COURTS", 20)
	cfg.SeedStatuses = getEnvInt("SEED_STATUSES", 200)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

// getEnvStringSlice はカンマ区切りの環境変数をスライスへ分解する。
func getEnvStringSlice(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
