package config

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
)

type Config struct {
	// Secrets are resolved outside the env tags so alias names and
	// value cleaning apply (see New).
	BotToken   string
	GroqAPIKey string

	// LLM settings
	GroqBaseURL     string        `env:"GROQ_BASE_URL" envDefault:"https://api.groq.com/openai/v1"`
	GroqModel       string        `env:"GROQ_MODEL" envDefault:"llama-3.1-8b-instant"`
	GroqTemperature float32       `env:"GROQ_TEMPERATURE" envDefault:"0.4"`
	LLMTimeout      time.Duration `env:"LLM_TIMEOUT" envDefault:"30s"`
	LLMMaxRPS       float64       `env:"LLM_MAX_RPS" envDefault:"1"`

	// Admin allow-list
	AdminUsers []int64 `env:"ADMIN_USERS" envSeparator:":"`

	// Single-instance lock
	SingletonPort int `env:"SINGLETON_PORT" envDefault:"8765"`

	// Rate limiting
	RateLimitMax    int           `env:"RATE_LIMIT_MAX" envDefault:"5"`
	RateLimitWindow time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"60s"`

	// Storage
	StorePath string `env:"STORE_PATH" envDefault:"data/requests.csv"`
	BackupDir string `env:"BACKUP_DIR" envDefault:"data/backups"`
}

func New() *Config {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	cfg.BotToken = firstEnv("BOT_TOKEN", "BOT")
	cfg.GroqAPIKey = firstEnv("GROQ_API_KEY", "GROQ")
	log.Printf("Boot env -> BOT=%s, GROQ=%s", mask(cfg.BotToken), mask(cfg.GroqAPIKey))
	if cfg.BotToken == "" || cfg.GroqAPIKey == "" {
		log.Fatalf("❌ Missing env: BOT_TOKEN/BOT and GROQ_API_KEY/GROQ must be set.")
	}
	return cfg
}

// cleanEnv reads an environment variable and normalises common mistakes
// in its value: surrounding whitespace and quotes, and accidental
// "NAME=value" or "=value" forms.
func cleanEnv(name string) string {
	v := strings.TrimSpace(os.Getenv(name))
	v = strings.Trim(v, `"'`)
	if rest, ok := strings.CutPrefix(v, name+"="); ok {
		v = strings.TrimSpace(rest)
	}
	if rest, ok := strings.CutPrefix(v, "="); ok {
		v = strings.TrimSpace(rest)
	}
	return v
}

func firstEnv(names ...string) string {
	for _, n := range names {
		if v := cleanEnv(n); v != "" {
			return v
		}
	}
	return ""
}

// mask keeps only the head and tail of a secret for boot logging.
func mask(v string) string {
	const head, tail = 6, 4
	if v == "" {
		return "None"
	}
	if len(v) <= head+tail {
		return v
	}
	return v[:head] + "…" + v[len(v)-tail:]
}
