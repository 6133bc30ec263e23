package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adhocore/gronx"
	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"
)

// Attachment storage modes
const (
	AttachmentModeFile   = "file"
	AttachmentModeInline = "inline"
)

// Config holds all environment configuration values for the application.
// These values are loaded from a .env file at startup.
type Config struct {
	// ServerPort is the port the HTTP server listens on
	ServerPort string

	// DataDir is the storage root holding shards, side tables and pic/
	DataDir string

	// CorsOrigins are the allowed browser origins
	CorsOrigins []string

	// Retention is the age after which stored files are swept
	Retention time.Duration

	// SweepInterval is how often the cleanup worker runs; zero disables the ticker
	SweepInterval time.Duration

	// SweepCron, when set, schedules the cleanup worker instead of SweepInterval
	SweepCron string

	// AttachmentMode is "file" (saved under pic/) or "inline" (data URLs in the shard)
	AttachmentMode string

	// MaxAttachmentSize is the per-image upload limit in bytes
	MaxAttachmentSize int64

	// RateLimitRPS and RateLimitBurst bound writes per client
	RateLimitRPS   float64
	RateLimitBurst int
}

// Load reads environment variables and returns a populated Config struct.
// It will load from a .env file if present, then read from environment variables.
// Falls back to sensible defaults if values are not set.
func Load() *Config {
	// Attempt to load .env file - not an error if it doesn't exist
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}
	return FromEnv()
}

// FromEnv builds a Config from the current environment without touching .env.
func FromEnv() *Config {
	config := &Config{
		ServerPort:        getEnv("PORT", "8080"),
		DataDir:           getEnv("CHAT_DATA_DIR", defaultDataDir()),
		CorsOrigins:       splitList(getEnv("CORS_ORIGINS", "http://localhost:5173,http://localhost:3000")),
		Retention:         getDuration("RETENTION", 48*time.Hour),
		SweepInterval:     getDuration("SWEEP_INTERVAL", 10*time.Minute),
		SweepCron:         strings.TrimSpace(getEnv("SWEEP_CRON", "")),
		AttachmentMode:    strings.ToLower(getEnv("ATTACHMENT_MODE", AttachmentModeFile)),
		MaxAttachmentSize: getBytes("MAX_ATTACHMENT_SIZE", 3*1024*1024),
		RateLimitRPS:      getFloat("RATE_LIMIT_RPS", 5),
		RateLimitBurst:    getInt("RATE_LIMIT_BURST", 10),
	}

	if config.AttachmentMode != AttachmentModeFile && config.AttachmentMode != AttachmentModeInline {
		log.Printf("WARNING: unknown ATTACHMENT_MODE %q, using %q", config.AttachmentMode, AttachmentModeFile)
		config.AttachmentMode = AttachmentModeFile
	}
	if config.SweepCron != "" && !gronx.IsValid(config.SweepCron) {
		log.Printf("WARNING: invalid SWEEP_CRON %q, falling back to SWEEP_INTERVAL", config.SweepCron)
		config.SweepCron = ""
	}

	return config
}

// defaultDataDir mirrors the hosting convention: serverless platforms only
// allow writes under /tmp.
func defaultDataDir() string {
	if os.Getenv("VERCEL") != "" || os.Getenv("NOW_REGION") != "" {
		return "/tmp/chat"
	}
	return filepath.Join(".", "chat")
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		log.Printf("WARNING: invalid %s %q, using %v", key, raw, defaultValue)
		return defaultValue
	}
	return d
}

// getBytes accepts sizes like "3MiB", "500KB" or a plain byte count.
func getBytes(key string, defaultValue int64) int64 {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	n, err := humanize.ParseBytes(raw)
	if err != nil || n == 0 {
		log.Printf("WARNING: invalid %s %q, using %s", key, raw, humanize.IBytes(uint64(defaultValue)))
		return defaultValue
	}
	return int64(n)
}

func getFloat(key string, defaultValue float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f <= 0 {
		log.Printf("WARNING: invalid %s %q, using %v", key, raw, defaultValue)
		return defaultValue
	}
	return f
}

func getInt(key string, defaultValue int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(raw)
	if err != nil || i <= 0 {
		log.Printf("WARNING: invalid %s %q, using %v", key, raw, defaultValue)
		return defaultValue
	}
	return i
}

// splitList splits a comma-separated list and trims whitespace
func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
