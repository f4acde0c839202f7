package config

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Default values used when neither flags, environment nor saved settings
// provide one.
const (
	DefaultBackendURL   = "http://localhost:5000"
	DefaultErrorTimeout = 5 * time.Second
)

// DefaultModels lists the model identifiers the embedding service accepts
var DefaultModels = []string{"openai", "gemini", "cloudflare"}

// Config holds the application configuration
type Config struct {
	Port    int
	DataDir string
	Version string

	// BackendURL is the base URL of the embedding service exposing /get_embedding
	BackendURL string
	// Models are offered in the model selector, DefaultModel is preselected
	Models       []string
	DefaultModel string

	// RequestTimeout bounds a single /get_embedding call; zero means no timeout
	RequestTimeout time.Duration
	// ErrorTimeout is how long the error banner stays visible
	ErrorTimeout time.Duration

	// CancelSuperseded aborts an in-flight request when a new one is started
	CancelSuperseded bool
	// HistoryEnabled records successful generations in DataDir/history.db
	HistoryEnabled bool
}

// Env holds the values read from the environment (and an optional .env file)
type Env struct {
	BackendURL     string
	Models         []string
	DefaultModel   string
	RequestTimeout time.Duration
	ErrorTimeout   time.Duration
}

// LoadEnv reads configuration from the environment. Files listed in
// envFiles are loaded first with godotenv; missing files are ignored and
// variables already set in the process environment take priority.
func LoadEnv(envFiles ...string) Env {
	for _, file := range envFiles {
		if _, err := os.Stat(file); err != nil {
			continue
		}
		if err := godotenv.Load(file); err != nil {
			log.Printf("Warning: could not load %s: %v", file, err)
		}
	}

	models := splitList(os.Getenv("EMBEDDING_MODELS"))
	if len(models) == 0 {
		models = append([]string(nil), DefaultModels...)
	}

	return Env{
		BackendURL:     os.Getenv("EMBEDDING_BACKEND_URL"),
		Models:         models,
		DefaultModel:   os.Getenv("EMBEDDING_DEFAULT_MODEL"),
		RequestTimeout: getDuration("EMBEDDING_REQUEST_TIMEOUT", 0),
		ErrorTimeout:   getDuration("ERROR_BANNER_TIMEOUT", DefaultErrorTimeout),
	}
}

// ResolveBackendURL picks the backend URL by precedence:
// explicit flag, environment, saved settings, built-in default.
func ResolveBackendURL(flagValue string, env Env, settings *Settings) string {
	candidates := []string{flagValue, env.BackendURL}
	if settings != nil {
		candidates = append(candidates, settings.BackendURL)
	}
	for _, candidate := range candidates {
		if trimmed := strings.TrimSpace(candidate); trimmed != "" {
			return strings.TrimRight(trimmed, "/")
		}
	}
	return DefaultBackendURL
}

// ResolveDefaultModel returns the preselected model. The candidate must be
// one of models; otherwise the first model wins.
func ResolveDefaultModel(models []string, candidates ...string) string {
	for _, candidate := range candidates {
		for _, model := range models {
			if candidate != "" && candidate == model {
				return model
			}
		}
	}
	if len(models) > 0 {
		return models[0]
	}
	return ""
}

func splitList(value string) []string {
	var items []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}

func getDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil || d < 0 {
		log.Printf("Warning: invalid %s=%q, using %s", key, value, fallback)
		return fallback
	}
	return d
}
