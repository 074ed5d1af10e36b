package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"oasis/internal/dna"
	"oasis/internal/gencache"
)

const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendS3       = "s3"
	BackendFile     = "file"

	ProviderFake   = "fake"
	ProviderGemini = "gemini"
	ProviderGroq   = "groq"
)

type Config struct {
	Port   string               `yaml:"port"`
	Env    string               `yaml:"env"`
	Store  StoreConfig          `yaml:"store"`
	Cache  gencache.CacheConfig `yaml:"cache"`
	LLM    LLMConfig            `yaml:"llm"`
	Limits dna.Limits           `yaml:"limits"`
}

type StoreConfig struct {
	Backend    string            `yaml:"backend"`
	DSN        string            `yaml:"dsn"`
	SQLitePath string            `yaml:"sqlite_path"`
	FileURL    string            `yaml:"file_url"`
	S3         gencache.S3Config `yaml:"s3"`
}

type LLMConfig struct {
	Provider     string  `yaml:"provider"`
	Model        string  `yaml:"model"`
	GeminiAPIKey string  `yaml:"gemini_api_key"`
	GroqAPIKey   string  `yaml:"groq_api_key"`
	Retry        int     `yaml:"retry"`
	RPS          float64 `yaml:"rps"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	port := flag.String("port", ":8081", "server port")
	flag.Parse()

	cfg := FromEnv(*port)
	if path := strings.TrimSpace(os.Getenv("OASIS_CONFIG")); path != "" {
		if err := cfg.OverlayFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromEnv builds a Config from environment variables. defaultPort is used
// when PORT is unset.
func FromEnv(defaultPort string) *Config {
	port := defaultPort
	if envPort := os.Getenv("PORT"); envPort != "" {
		if strings.HasPrefix(envPort, ":") {
			port = envPort
		} else {
			port = ":" + envPort
		}
	}

	env := strings.TrimSpace(os.Getenv("APP_ENV"))
	if env == "" {
		env = "local"
	}

	cache := gencache.DefaultCacheConfig()
	if v := envDuration("OASIS_CACHE_TTL"); v > 0 {
		cache.TTL = v
	}
	if v := envInt("OASIS_CACHE_MAX_ENTRIES"); v > 0 {
		cache.MaxEntries = v
	}

	cfg := &Config{
		Port:   port,
		Env:    env,
		Store:  loadStoreConfig(),
		Cache:  cache,
		LLM:    loadLLMConfig(),
		Limits: dna.DefaultLimits(),
	}
	if cfg.IsLocal() {
		applyLocalDefaults(cfg)
	}
	return cfg
}

func loadStoreConfig() StoreConfig {
	return StoreConfig{
		Backend:    strings.ToLower(firstNonEmpty(strings.TrimSpace(os.Getenv("OASIS_STORE")), BackendMemory)),
		DSN:        strings.TrimSpace(os.Getenv("DATABASE_URL")),
		SQLitePath: firstNonEmpty(strings.TrimSpace(os.Getenv("OASIS_SQLITE_PATH")), "tmp/oasis.db"),
		FileURL:    firstNonEmpty(strings.TrimSpace(os.Getenv("OASIS_STORE_URL")), "file://./tmp/generated_components.json"),
		S3: gencache.S3Config{
			Endpoint:  strings.TrimSpace(os.Getenv("ARTIFACT_S3_ENDPOINT")),
			Region:    firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_S3_REGION")), "us-east-1"),
			AccessKey: firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_S3_ACCESS_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_USER"))),
			SecretKey: firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_S3_SECRET_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_PASSWORD"))),
			Bucket:    firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_S3_BUCKET")), "oasis-artifacts"),
			UseSSL:    envBool("ARTIFACT_S3_USE_SSL", true),
		},
	}
}

func loadLLMConfig() LLMConfig {
	retry := 3
	if v, ok := envIntSet("LLM_RETRY"); ok {
		retry = v
	}
	rps, _ := strconv.ParseFloat(strings.TrimSpace(os.Getenv("LLM_RPS")), 64)
	return LLMConfig{
		Provider:     strings.ToLower(firstNonEmpty(strings.TrimSpace(os.Getenv("LLM_PROVIDER")), ProviderFake)),
		Model:        strings.TrimSpace(os.Getenv("LLM_MODEL")),
		GeminiAPIKey: strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		GroqAPIKey:   strings.TrimSpace(os.Getenv("GROQ_API_KEY")),
		Retry:        retry,
		RPS:          rps,
	}
}

// OverlayFile decodes the YAML file at path over c. Keys absent from the
// file keep their current values.
func (c *Config) OverlayFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	c.Store.Backend = strings.ToLower(strings.TrimSpace(c.Store.Backend))
	c.LLM.Provider = strings.ToLower(strings.TrimSpace(c.LLM.Provider))
	return nil
}

func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendMemory, BackendFile:
	case BackendSQLite:
		if strings.TrimSpace(c.Store.SQLitePath) == "" {
			return fmt.Errorf("store: sqlite path is required")
		}
	case BackendPostgres:
		if strings.TrimSpace(c.Store.DSN) == "" {
			return fmt.Errorf("store: DATABASE_URL is required for postgres")
		}
	case BackendS3:
		if !CanUseS3(c.Store.S3) {
			return fmt.Errorf("store: s3 endpoint, bucket and credentials are required")
		}
	default:
		return fmt.Errorf("store: unknown backend %q", c.Store.Backend)
	}

	switch c.LLM.Provider {
	case ProviderFake:
	case ProviderGemini:
		if c.LLM.GeminiAPIKey == "" {
			return fmt.Errorf("llm: GEMINI_API_KEY is required for gemini")
		}
	case ProviderGroq:
		if c.LLM.GroqAPIKey == "" {
			return fmt.Errorf("llm: GROQ_API_KEY is required for groq")
		}
	default:
		return fmt.Errorf("llm: unknown provider %q", c.LLM.Provider)
	}
	if c.LLM.Retry < 0 {
		return fmt.Errorf("llm: retry must be >= 0")
	}
	return nil
}

func (c *Config) IsLocal() bool {
	return strings.EqualFold(strings.TrimSpace(c.Env), "local")
}

func CanUseS3(s gencache.S3Config) bool {
	return s.Endpoint != "" && s.Bucket != "" && s.AccessKey != "" && s.SecretKey != ""
}

func envBool(key string, def bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return v
}

func envInt(key string) int {
	v, _ := envIntSet(key)
	return v
}

func envIntSet(key string) (int, bool) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

func envDuration(key string) time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return 0
	}
	return d
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
