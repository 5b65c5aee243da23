package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// ErrMissingCredentials is returned by Validate when a required secret is unset.
var ErrMissingCredentials = errors.New("missing required credentials")

// Storage drivers.
const (
	DriverPostgres = "postgres"
	DriverSupabase = "supabase"
)

// LLM providers.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Browser engines.
const (
	EngineChromedp = "chromedp"
	EngineRod      = "rod"
)

// UserAgent is the fixed browser signature sent with every page request.
const UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Config holds all application configuration.
type Config struct {
	// Storage
	StorageDriver  string        `koanf:"storage_driver"`
	DatabaseURL    string        `koanf:"database_url"`
	SupabaseURL    string        `koanf:"supabase_url"`
	SupabaseKey    string        `koanf:"supabase_service_role_key"`
	Table          string        `koanf:"db_table"`
	AutoMigrate    bool          `koanf:"db_auto_migrate"`
	StorageTimeout time.Duration `koanf:"storage_timeout"`

	// Language model
	LLMProvider   string        `koanf:"llm_provider"`
	OpenAIKey     string        `koanf:"openai_api_key"`
	OpenAIModel   string        `koanf:"openai_model"`
	OpenAIBaseURL string        `koanf:"openai_base_url"`
	GeminiKey     string        `koanf:"gemini_api_key"`
	GeminiModel   string        `koanf:"gemini_model"`
	LLMTimeout    time.Duration `koanf:"llm_timeout"`

	// Crawl
	ConcurrentRequests  int           `koanf:"concurrent_requests"`
	DownloadDelay       float64       `koanf:"download_delay"`
	SimilarityThreshold float64       `koanf:"similarity_threshold"`
	RobotsObey          bool          `koanf:"robotstxt_obey"`
	BrowserEngine       string        `koanf:"browser_engine"`
	ChromeBin           string        `koanf:"chrome_bin"`
	PageTimeout         time.Duration `koanf:"page_timeout"`
	WaitTimeout         time.Duration `koanf:"wait_timeout"`

	LogLevel       string `koanf:"log_level"`
	ScrapyLogLevel string `koanf:"scrapy_log_level"`
	MetricsAddr    string `koanf:"metrics_addr"`
}

// Defaults returns a Config populated with default values only.
func Defaults() *Config {
	return &Config{
		StorageDriver:  DriverPostgres,
		Table:          "clothing_comps",
		StorageTimeout: 15 * time.Second,

		LLMProvider:   ProviderOpenAI,
		OpenAIModel:   "gpt-4o-mini",
		OpenAIBaseURL: "https://api.openai.com",
		GeminiModel:   "gemini-1.5-flash",
		LLMTimeout:    30 * time.Second,

		ConcurrentRequests:  8,
		DownloadDelay:       1,
		SimilarityThreshold: 0.5,
		RobotsObey:          true,
		BrowserEngine:       EngineChromedp,
		PageTimeout:         60 * time.Second,
		WaitTimeout:         5 * time.Second,
	}
}

// Load layers defaults, an optional YAML file named by COMPS_CONFIG, a .env
// file and the process environment, in that order of precedence (low to high).
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	k := koanf.New(".")

	if path := os.Getenv("COMPS_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("config: load %s: %w", path, err)
		}
	}

	known := knownKeys()
	envProvider := env.ProviderWithValue("", ".", func(key, value string) (string, interface{}) {
		key = strings.ToLower(key)
		if _, ok := known[key]; !ok || value == "" {
			return "", nil
		}
		return key, value
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("config: load env: %w", err)
	}

	cfg := *Defaults()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = cfg.ScrapyLogLevel
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	cfg.StorageDriver = strings.ToLower(cfg.StorageDriver)
	cfg.LLMProvider = strings.ToLower(cfg.LLMProvider)
	cfg.BrowserEngine = strings.ToLower(cfg.BrowserEngine)

	return &cfg, nil
}

// Validate checks that the credentials required by the selected storage
// driver and model provider are present.
func (c *Config) Validate() error {
	var missing []string

	switch c.StorageDriver {
	case DriverPostgres:
		if c.DatabaseURL == "" {
			missing = append(missing, "DATABASE_URL")
		}
	case DriverSupabase:
		if c.SupabaseURL == "" {
			missing = append(missing, "SUPABASE_URL")
		}
		if c.SupabaseKey == "" {
			missing = append(missing, "SUPABASE_SERVICE_ROLE_KEY")
		}
	default:
		return fmt.Errorf("config: unknown storage driver %q", c.StorageDriver)
	}

	switch c.LLMProvider {
	case ProviderOpenAI:
		if c.OpenAIKey == "" {
			missing = append(missing, "OPENAI_API_KEY")
		}
	case ProviderGemini:
		if c.GeminiKey == "" {
			missing = append(missing, "GEMINI_API_KEY")
		}
	default:
		return fmt.Errorf("config: unknown llm provider %q", c.LLMProvider)
	}

	switch c.BrowserEngine {
	case EngineChromedp, EngineRod:
	default:
		return fmt.Errorf("config: unknown browser engine %q", c.BrowserEngine)
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingCredentials, strings.Join(missing, ", "))
	}
	return nil
}

// ValidateStorage checks only the storage credentials, for commands that
// never call the language model.
func (c *Config) ValidateStorage() error {
	probe := *c
	probe.LLMProvider = ProviderOpenAI
	probe.OpenAIKey = "unused"
	probe.BrowserEngine = EngineChromedp
	return probe.Validate()
}

// Model returns the model name for the selected provider.
func (c *Config) Model() string {
	if c.LLMProvider == ProviderGemini {
		return c.GeminiModel
	}
	return c.OpenAIModel
}

// DownloadDelayDuration converts the politeness delay in seconds to a Duration.
func (c *Config) DownloadDelayDuration() time.Duration {
	return time.Duration(c.DownloadDelay * float64(time.Second))
}

func knownKeys() map[string]struct{} {
	keys := map[string]struct{}{}
	for _, k := range []string{
		"storage_driver", "database_url", "supabase_url", "supabase_service_role_key",
		"db_table", "db_auto_migrate", "storage_timeout",
		"llm_provider", "openai_api_key", "openai_model", "openai_base_url",
		"gemini_api_key", "gemini_model", "llm_timeout",
		"concurrent_requests", "download_delay", "similarity_threshold", "robotstxt_obey",
		"browser_engine", "chrome_bin", "page_timeout", "wait_timeout",
		"log_level", "scrapy_log_level", "metrics_addr",
	} {
		keys[k] = struct{}{}
	}
	return keys
}
