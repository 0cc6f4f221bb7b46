package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Server      ServerConfig
	Model       ModelConfig
	OpenAI      OpenAIConfig
	RedisConfig RedisConfig
	Upload      UploadConfig
	CacheEnable bool `env:"CACHE_ENABLE"`
}

type RedisConfig struct {
	Addr     string        `env:"REDIS_ADDR" envDefault:"redis:6379"`
	Password string        `env:"REDIS_PASSWORD"`
	DB       int           `env:"REDIS_DB" envDefault:"0"`
	TTL      time.Duration `env:"REDIS_TTL" envDefault:"10m"`
}

type ServerConfig struct {
	Port            string        `env:"PORT" envDefault:"8080"`
	Timeout         time.Duration `env:"SERVER_TIMEOUT" envDefault:"2m"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	ThrottleLimit   int           `env:"SERVER_THROTTLE_LIMIT" envDefault:"50"`
}

// ModelConfig selects the classifier backend. Backend is "onnx" or "openai".
type ModelConfig struct {
	Backend      string `env:"MODEL_BACKEND" envDefault:"onnx"`
	Path         string `env:"MODEL_PATH" envDefault:"models/best_model.onnx"`
	MetadataPath string `env:"MODEL_METADATA_PATH" envDefault:"models/metadata.yaml"`
	LibraryPath  string `env:"ONNXRUNTIME_LIB"`
}

type OpenAIConfig struct {
	APIKey  string `env:"OPENAI_API_KEY"`
	BaseURL string `env:"OPENAI_BASE_URL" envDefault:"http://localhost:8000/v1"`
	Model   string `env:"OPENAI_MODEL" envDefault:"default"`
}

type UploadConfig struct {
	MaxBytes int64 `env:"UPLOAD_MAX_BYTES" envDefault:"16777216"`
}

// ClientConfig configures the predict CLI. It is parsed separately because the
// CLI never needs the server settings.
type ClientConfig struct {
	Endpoint       string        `env:"PREDICT_ENDPOINT" envDefault:"http://localhost:8080"`
	RequestTimeout time.Duration `env:"PREDICT_TIMEOUT" envDefault:"2m"`
	ErrorDismiss   time.Duration `env:"PREDICT_ERROR_DISMISS" envDefault:"5s"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func LoadClient() (*ClientConfig, error) {
	cfg := &ClientConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
