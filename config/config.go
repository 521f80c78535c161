package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Supabase  SupabaseConfig
	Service   ServiceAccountConfig
	Redis     RedisConfig
	S3        S3Config
	Scheduler SchedulerConfig
	DBPath    string // local sqlite for audit log and message queue
	SeedDir   string
	LogLevel  string
}

type ServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type SupabaseConfig struct {
	URL       string
	AnonKey   string
	DBURL     string
	JWTSecret string
}

// ServiceAccountConfig holds the daemon's own credentials, used by background
// workers for privileged mutations.
type ServiceAccountConfig struct {
	Email    string
	Password string
}

type RedisConfig struct {
	Addr     string
	Password string
	CacheTTL time.Duration
}

type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string // optional, for DO Spaces / R2
	AccessKeyID     string
	SecretAccessKey string
}

type SchedulerConfig struct {
	InviteSweepCron  string
	StatsRefreshCron string
	Interval         time.Duration // fallback when no cron specs are set
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Addr:         getEnv("HTTP_ADDR", ":8080"),
			ReadTimeout:  getEnvDuration("HTTP_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: getEnvDuration("HTTP_WRITE_TIMEOUT", 30*time.Second),
		},
		Supabase: SupabaseConfig{
			URL:       os.Getenv("SUPABASE_URL"),
			AnonKey:   os.Getenv("SUPABASE_ANON_KEY"),
			DBURL:     os.Getenv("SUPABASE_DB_URL"),
			JWTSecret: os.Getenv("SUPABASE_JWT_SECRET"),
		},
		Service: ServiceAccountConfig{
			Email:    os.Getenv("SERVICE_EMAIL"),
			Password: os.Getenv("SERVICE_PASSWORD"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			CacheTTL: getEnvDuration("CACHE_TTL", time.Minute),
		},
		S3: S3Config{
			Bucket:          os.Getenv("S3_BUCKET"),
			Region:          getEnv("S3_REGION", "us-east-1"),
			Endpoint:        os.Getenv("S3_ENDPOINT"),
			AccessKeyID:     os.Getenv("S3_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("S3_SECRET_ACCESS_KEY"),
		},
		Scheduler: SchedulerConfig{
			InviteSweepCron:  getEnv("INVITE_SWEEP_CRON", "0 * * * *"),
			StatsRefreshCron: getEnv("STATS_REFRESH_CRON", "*/30 * * * *"),
		},
		DBPath:   getEnv("DB_PATH", "estatenexus.db"),
		SeedDir:  getEnv("SEED_DIR", "config/seed"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	if interval := os.Getenv("SCHEDULER_INTERVAL"); interval != "" {
		d, err := time.ParseDuration(interval)
		if err == nil {
			cfg.Scheduler.Interval = d
		}
	}

	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
