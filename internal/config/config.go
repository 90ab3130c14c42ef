package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

type Config struct {
	Addr        string
	TokenSecret string
	AccessTTL   time.Duration
	RememberTTL time.Duration
	CORSOrigin  string

	// Shared password gate. Bcrypt hash; empty disables login entirely.
	PasswordHash string

	// Sheet backend: "csv" or "postgres".
	SheetBackend  string
	SheetDir      string
	GitMirror     bool
	DatabaseURL   string
	MigrationsDir string

	// Attachment backend: "dir" or "minio".
	AttachBackend  string
	AttachDir      string
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool

	// Optional collaborators. Empty URL disables the integration.
	RedisURL       string
	MeiliURL       string
	MeiliMasterKey string

	// Shift-date rules: the working date rolls over at CutoffHour in TimeZone.
	TimeZone   string
	CutoffHour int

	Locations []string
}

func Load() Config {
	_ = godotenv.Load()

	return Config{
		Addr:        getenv("API_ADDR", ":8790"),
		TokenSecret: getenv("TURNOVER_TOKEN_SECRET", "turnover-dev-secret"),
		AccessTTL:   time.Duration(getenvInt("TURNOVER_ACCESS_TTL_SECONDS", 43200)) * time.Second,
		RememberTTL: time.Duration(getenvInt("TURNOVER_REMEMBER_TTL_SECONDS", 2592000)) * time.Second,
		CORSOrigin:  getenv("TURNOVER_CORS_ORIGIN", "*"),

		PasswordHash: getenv("TURNOVER_PASSWORD_HASH", ""),

		SheetBackend:  getenv("TURNOVER_SHEET_BACKEND", "csv"),
		SheetDir:      getenv("TURNOVER_SHEET_DIR", "./data/sheets"),
		GitMirror:     getenvBool("TURNOVER_GIT_MIRROR", true),
		DatabaseURL:   getenv("DATABASE_URL", ""),
		MigrationsDir: getenv("TURNOVER_MIGRATIONS_DIR", "./db/migrations"),

		AttachBackend:  getenv("TURNOVER_ATTACH_BACKEND", "dir"),
		AttachDir:      getenv("TURNOVER_ATTACH_DIR", "./data/uploads"),
		MinioEndpoint:  getenv("MINIO_ENDPOINT", ""),
		MinioAccessKey: getenv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: getenv("MINIO_SECRET_KEY", ""),
		MinioBucket:    getenv("MINIO_BUCKET", "turnover-uploads"),
		MinioUseSSL:    getenvBool("MINIO_USE_SSL", false),

		RedisURL:       getenv("REDIS_URL", ""),
		MeiliURL:       getenv("MEILI_URL", ""),
		MeiliMasterKey: getenv("MEILI_MASTER_KEY", ""),

		TimeZone:   getenv("TURNOVER_TIMEZONE", "America/New_York"),
		CutoffHour: getenvInt("TURNOVER_CUTOFF_HOUR", 6),

		Locations: getenvList("TURNOVER_LOCATIONS", []string{"WCG", "PDS", "Rain Curtain", "Shop"}),
	}
}

// Check validates the configuration and returns every problem found, so a
// misconfigured deployment surfaces one actionable message instead of a
// different failure on each request.
func (c Config) Check() []string {
	var problems []string

	switch c.SheetBackend {
	case "csv":
		if strings.TrimSpace(c.SheetDir) == "" {
			problems = append(problems, "TURNOVER_SHEET_DIR is empty")
		}
	case "postgres":
		if strings.TrimSpace(c.DatabaseURL) == "" {
			problems = append(problems, "DATABASE_URL is required for the postgres sheet backend")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown sheet backend %q (want csv or postgres)", c.SheetBackend))
	}

	switch c.AttachBackend {
	case "dir":
		if strings.TrimSpace(c.AttachDir) == "" {
			problems = append(problems, "TURNOVER_ATTACH_DIR is empty")
		}
	case "minio":
		if strings.TrimSpace(c.MinioEndpoint) == "" {
			problems = append(problems, "MINIO_ENDPOINT is required for the minio attachment backend")
		}
		if c.MinioAccessKey == "" || c.MinioSecretKey == "" {
			problems = append(problems, "MINIO_ACCESS_KEY / MINIO_SECRET_KEY are required for the minio attachment backend")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown attachment backend %q (want dir or minio)", c.AttachBackend))
	}

	if c.PasswordHash == "" {
		problems = append(problems, "TURNOVER_PASSWORD_HASH is not set; login is disabled")
	} else if _, err := bcrypt.Cost([]byte(c.PasswordHash)); err != nil {
		problems = append(problems, "TURNOVER_PASSWORD_HASH is not a valid bcrypt hash")
	}

	if _, err := time.LoadLocation(c.TimeZone); err != nil {
		problems = append(problems, fmt.Sprintf("unknown time zone %q", c.TimeZone))
	}
	if c.CutoffHour < 0 || c.CutoffHour > 23 {
		problems = append(problems, fmt.Sprintf("cutoff hour %d out of range 0-23", c.CutoffHour))
	}
	if len(c.Locations) == 0 {
		problems = append(problems, "TURNOVER_LOCATIONS is empty")
	}

	return problems
}

// Location resolves the configured time zone, falling back to UTC when the
// zone database lookup fails. Check reports the bad name separately.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getenv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
