// Package config loads service settings from an optional YAML file and the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment key, e.g. GROWDOCTOR_CACHE_BACKEND
const EnvPrefix = "GROWDOCTOR"

// Cache backends
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
	CacheMongo  = "mongo"
)

type ServerConfig struct {
	Port               string        `mapstructure:"port"`
	ReadTimeout        time.Duration `mapstructure:"read_timeout"`
	WriteTimeout       time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout    time.Duration `mapstructure:"shutdown_timeout"`
	CORSAllowedOrigins []string      `mapstructure:"cors_allowed_origins"`
}

type CacheConfig struct {
	Backend       string        `mapstructure:"backend"`
	TTL           time.Duration `mapstructure:"ttl"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
	RedisURI      string        `mapstructure:"redis_uri"`
	MongoURI      string        `mapstructure:"mongo_uri"`
	MongoDatabase string        `mapstructure:"mongo_database"`
}

type UploadConfig struct {
	MaxBytes     int64    `mapstructure:"max_bytes"`
	AllowedTypes []string `mapstructure:"allowed_types"`
}

type RulesConfig struct {
	DefaultConfidence         int      `mapstructure:"default_confidence"`
	DefaultImageQuality       int      `mapstructure:"default_image_quality"`
	AlternativeMinConfidence  int      `mapstructure:"alternative_min_confidence"`
	LowImageQuality           int      `mapstructure:"low_image_quality"`
	FertilizerMinImageQuality int      `mapstructure:"fertilizer_min_image_quality"`
	FertilizerMinConfidence   int      `mapstructure:"fertilizer_min_confidence"`
	KeywordsFile              string   `mapstructure:"keywords_file"`
	UselessValues             []string `mapstructure:"useless_values"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Config is the full service configuration
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	AI      AIConfig      `mapstructure:"ai"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Upload  UploadConfig  `mapstructure:"upload"`
	Rules   RulesConfig   `mapstructure:"rules"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// SetDefaults registers every default on v
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8000")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 120*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)
	v.SetDefault("server.cors_allowed_origins", []string{"*"})

	v.SetDefault("ai.provider", ProviderOpenAI)
	v.SetDefault("ai.openai_base_url", "https://api.openai.com/v1")
	v.SetDefault("ai.gemini_base_url", "https://generativelanguage.googleapis.com/v1beta/models")
	// empty picks DefaultModel(ai.provider)
	v.SetDefault("ai.model", "")
	v.SetDefault("ai.temperature", 0.2)
	v.SetDefault("ai.max_tokens", 1500)
	v.SetDefault("ai.timeout", 90*time.Second)
	v.SetDefault("ai.rate_per_second", 2.0)
	v.SetDefault("ai.burst", 4)

	v.SetDefault("cache.backend", CacheMemory)
	v.SetDefault("cache.ttl", 7*24*time.Hour)
	v.SetDefault("cache.sweep_interval", 10*time.Minute)
	v.SetDefault("cache.redis_uri", "redis://localhost:6379/0")
	v.SetDefault("cache.mongo_uri", "mongodb://localhost:27017")
	v.SetDefault("cache.mongo_database", "growdoctor")

	v.SetDefault("upload.max_bytes", int64(10<<20))
	v.SetDefault("upload.allowed_types", []string{"image/jpeg", "image/png", "image/webp", "image/heic"})

	v.SetDefault("rules.default_confidence", 50)
	v.SetDefault("rules.default_image_quality", 50)
	v.SetDefault("rules.alternative_min_confidence", 45)
	v.SetDefault("rules.low_image_quality", 60)
	v.SetDefault("rules.fertilizer_min_image_quality", 70)
	v.SetDefault("rules.fertilizer_min_confidence", 80)
	v.SetDefault("rules.keywords_file", "")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// bare environment names the service has always honoured
var legacyEnv = map[string]string{
	"ai.openai_api_key":           "OPENAI_API_KEY",
	"ai.gemini_api_key":           "GEMINI_API_KEY",
	"ai.model":                    "MODEL_NAME",
	"server.port":                 "PORT",
	"server.cors_allowed_origins": "CORS_ALLOWED_ORIGINS",
	"cache.redis_uri":             "REDIS_URI",
	"cache.mongo_uri":             "MONGO_URI",
}

// New returns a viper instance with defaults and environment bindings but no file
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range legacyEnv {
		prefixed := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		_ = v.BindEnv(key, prefixed, env)
	}
	return v
}

// ReadFile reads path into v. An empty path searches ./config.yaml and
// /etc/growdoctor/config.yaml; not finding one there is fine.
func ReadFile(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/growdoctor")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

// Decode unmarshals and validates the settings held by v
func Decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Load is New + ReadFile + Decode
func Load(path string) (*Config, error) {
	v := New()
	if err := ReadFile(v, path); err != nil {
		return nil, err
	}
	return Decode(v)
}

func (c *Config) normalize() {
	c.AI.Provider = strings.ToLower(strings.TrimSpace(c.AI.Provider))
	c.AI.Model = strings.TrimSpace(c.AI.Model)
	if c.AI.Model == "" {
		c.AI.Model = DefaultModel(c.AI.Provider)
	}
	c.Cache.Backend = strings.ToLower(strings.TrimSpace(c.Cache.Backend))
	c.Server.Port = strings.TrimPrefix(strings.TrimSpace(c.Server.Port), ":")
	c.Server.CORSAllowedOrigins = splitList(c.Server.CORSAllowedOrigins)
	c.Upload.AllowedTypes = splitList(c.Upload.AllowedTypes)
}

// splitList flattens comma-separated entries, which is how lists arrive from the environment
func splitList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

// Validate rejects settings the service cannot start with
func (c *Config) Validate() error {
	var errs []error

	switch c.AI.Provider {
	case ProviderOpenAI, ProviderGemini:
		if c.AI.APIKey() == "" {
			errs = append(errs, fmt.Errorf("ai.provider %q needs an API key", c.AI.Provider))
		}
		if c.AI.Model == "" {
			errs = append(errs, errors.New("ai.model is empty"))
		} else if c.AI.modelMismatch() {
			errs = append(errs, fmt.Errorf("ai.model %q does not belong to provider %q", c.AI.Model, c.AI.Provider))
		}
	case ProviderStub:
	default:
		errs = append(errs, fmt.Errorf("unknown ai.provider %q", c.AI.Provider))
	}
	if c.AI.Timeout <= 0 {
		errs = append(errs, errors.New("ai.timeout must be positive"))
	}
	if c.AI.RatePerSecond < 0 {
		errs = append(errs, errors.New("ai.rate_per_second must not be negative"))
	}

	switch c.Cache.Backend {
	case CacheMemory:
	case CacheRedis:
		if c.Cache.RedisURI == "" {
			errs = append(errs, errors.New("cache.redis_uri is empty"))
		}
	case CacheMongo:
		if c.Cache.MongoURI == "" || c.Cache.MongoDatabase == "" {
			errs = append(errs, errors.New("cache.mongo_uri and cache.mongo_database are required"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown cache.backend %q", c.Cache.Backend))
	}
	if c.Cache.TTL < 0 {
		errs = append(errs, errors.New("cache.ttl must not be negative"))
	}

	if c.Server.Port == "" {
		errs = append(errs, errors.New("server.port is empty"))
	}
	if c.Upload.MaxBytes <= 0 {
		errs = append(errs, errors.New("upload.max_bytes must be positive"))
	}

	for name, v := range map[string]int{
		"rules.default_confidence":           c.Rules.DefaultConfidence,
		"rules.default_image_quality":        c.Rules.DefaultImageQuality,
		"rules.alternative_min_confidence":   c.Rules.AlternativeMinConfidence,
		"rules.low_image_quality":            c.Rules.LowImageQuality,
		"rules.fertilizer_min_image_quality": c.Rules.FertilizerMinImageQuality,
		"rules.fertilizer_min_confidence":    c.Rules.FertilizerMinConfidence,
	} {
		if v < 0 || v > 100 {
			errs = append(errs, fmt.Errorf("%s must be within 0..100, got %d", name, v))
		}
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("invalid logging.level %q", c.Logging.Level))
	}
	switch c.Logging.Format {
	case "text", "console", "json":
	default:
		errs = append(errs, fmt.Errorf("invalid logging.format %q", c.Logging.Format))
	}

	return errors.Join(errs...)
}
