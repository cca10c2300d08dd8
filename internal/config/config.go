package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"facility-intake-backend/internal/backend"
	"facility-intake-backend/internal/intake"
)

type Config struct {
	Port           string
	AllowedOrigins []string
	// Upstream script endpoint
	UpstreamURL         string
	UpstreamBearerToken string
	UpstreamTimeout     time.Duration
	FallbackDelay       time.Duration
	// Demo mode enables canned data for the reserved access code
	DemoMode       bool
	DemoAccessCode string
	FixturesFile   string
	// Branding
	CompanyName   string
	AssistantName string
	// Generation service
	LLMProvider     string
	OpenAIAPIKey    string
	OpenAIBaseURL   string
	OpenAIModel     string
	GeminiAPIKey    string
	GeminiBaseURL   string
	GeminiModel     string
	DraftPromptFile string
	ChatSessionTTL  time.Duration
	// Recovery store
	RecoveryStore string
	RecoveryFile  string
	DatabaseURL   string
	SQLitePath    string

	MaxAttachmentBytes int64
	LogLevel           string
}

func Load() Config {
	_ = godotenv.Load()
	return Config{
		Port:                getEnvDefault("PORT", "8080"),
		AllowedOrigins:      getEnvListDefault("ALLOWED_ORIGIN", []string{"*"}),
		UpstreamURL:         os.Getenv("UPSTREAM_URL"),
		UpstreamBearerToken: os.Getenv("UPSTREAM_BEARER_TOKEN"),
		UpstreamTimeout:     getEnvDurationDefault("UPSTREAM_TIMEOUT", 0),
		FallbackDelay:       getEnvDurationDefault("FALLBACK_DELAY", backend.DefaultFallbackDelay),
		DemoMode:            getEnvBoolDefault("DEMO_MODE", false),
		DemoAccessCode:      os.Getenv("DEMO_ACCESS_CODE"),
		FixturesFile:        os.Getenv("FIXTURES_FILE"),
		CompanyName:         getEnvDefault("COMPANY_NAME", "Facility Services"),
		AssistantName:       getEnvDefault("ASSISTANT_NAME", "the intake assistant"),
		LLMProvider:         getEnvDefault("LLM_PROVIDER", "openai"),
		OpenAIAPIKey:        os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:       os.Getenv("OPENAI_BASE_URL"),
		OpenAIModel:         getEnvDefault("OPENAI_MODEL", "gpt-4o-mini"),
		GeminiAPIKey:        os.Getenv("GEMINI_API_KEY"),
		GeminiBaseURL:       os.Getenv("GEMINI_BASE_URL"),
		GeminiModel:         getEnvDefault("GEMINI_MODEL", "gemini-2.5-flash"),
		DraftPromptFile:     os.Getenv("DRAFT_PROMPT_FILE"),
		ChatSessionTTL:      getEnvDurationDefault("CHAT_SESSION_TTL", 30*time.Minute),
		RecoveryStore:       getEnvDefault("RECOVERY_STORE", "file"),
		RecoveryFile:        getEnvDefault("RECOVERY_FILE", "data/recovery.json"),
		DatabaseURL:         os.Getenv("DB_URL"),
		SQLitePath:          getEnvDefault("SQLITE_PATH", "data/intake.db"),
		MaxAttachmentBytes:  getEnvInt64Default("MAX_ATTACHMENT_BYTES", intake.DefaultMaxAttachmentBytes),
		LogLevel:            getEnvDefault("LOG_LEVEL", "info"),
	}
}

// Warnings lists settings that will make some operations fail or degrade.
func (c Config) Warnings() []string {
	var w []string
	if c.UpstreamURL == "" {
		w = append(w, "UPSTREAM_URL is not set; every upstream call will fail and fall back where possible")
	}
	switch strings.ToLower(c.LLMProvider) {
	case "gemini":
		if c.GeminiAPIKey == "" {
			w = append(w, "GEMINI_API_KEY is not set; chat and drafts are disabled")
		}
	default:
		if c.OpenAIAPIKey == "" {
			w = append(w, "OPENAI_API_KEY is not set; chat and draft calls will fail until provided")
		}
	}
	if c.DemoMode && c.DemoAccessCode == "" {
		w = append(w, "DEMO_MODE is on but DEMO_ACCESS_CODE is empty; no code unlocks the demo session")
	}
	if c.RecoveryStore == "postgres" && c.DatabaseURL == "" {
		w = append(w, "RECOVERY_STORE=postgres requires DB_URL")
	}
	return w
}

func getEnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvListDefault(key string, def []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			s := strings.TrimSpace(p)
			if s != "" {
				out = append(out, s)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return def
}

func getEnvBoolDefault(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

// getEnvDurationDefault accepts Go durations ("2s") or bare milliseconds ("600").
func getEnvDurationDefault(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil && d >= 0 {
		return d
	}
	if ms, err := strconv.ParseInt(v, 10, 64); err == nil && ms >= 0 {
		return time.Duration(ms) * time.Millisecond
	}
	return def
}

func getEnvInt64Default(key string, def int64) int64 {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			return n
		}
	}
	return def
}
