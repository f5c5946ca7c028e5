package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	// logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"console"`

	// relay
	RelayAddr      string        `env:"RELAY_ADDR" envDefault:":3000"`
	RelayStubDelay time.Duration `env:"RELAY_STUB_DELAY" envDefault:"1s"`

	// AI provider (used by the relay, and by the client in direct mode)
	AIProvider        string        `env:"AI_PROVIDER" envDefault:"openai"`
	OpenAIBaseURL     string        `env:"OPENAI_BASE_URL" envDefault:"https://api.openai.com/v1"`
	OpenAIModel       string        `env:"OPENAI_MODEL" envDefault:"gpt-3.5-turbo"`
	OpenRouterBaseURL string        `env:"OPENROUTER_BASE_URL" envDefault:"https://openrouter.ai/api/v1"`
	OpenRouterModel   string        `env:"OPENROUTER_MODEL" envDefault:"openrouter/auto"`
	OpenRouterSiteURL string        `env:"OPENROUTER_SITE_URL"`
	OpenRouterAppName string        `env:"OPENROUTER_APP_NAME"`
	OllamaBaseURL     string        `env:"OLLAMA_BASE_URL" envDefault:"http://localhost:11434"`
	OllamaModel       string        `env:"OLLAMA_MODEL" envDefault:"llama3:latest"`
	ProviderTimeout   time.Duration `env:"AI_PROVIDER_TIMEOUT" envDefault:"30s"`

	// chat client
	ChatStore          string        `env:"CHAT_STORE" envDefault:"local"` // local | redis
	DBDSN              string        `env:"DB_DSN" envDefault:"file:pocket-chat.db"`
	RedisAddr          string        `env:"REDIS_ADDR" envDefault:"127.0.0.1:6379"`
	RedisPassword      string        `env:"REDIS_PASSWORD"`
	RedisDB            int           `env:"REDIS_DB" envDefault:"0"`
	RedisKeyPrefix     string        `env:"REDIS_KEY_PREFIX" envDefault:"pocketchat:"`
	ChatCompletionMode string        `env:"CHAT_COMPLETION_MODE" envDefault:"relay"` // relay | direct
	ChatRelayURL       string        `env:"CHAT_RELAY_URL" envDefault:"http://localhost:3000"`
	ChatReplyDelayMin  time.Duration `env:"CHAT_REPLY_DELAY_MIN" envDefault:"1s"`
	ChatReplyDelayMax  time.Duration `env:"CHAT_REPLY_DELAY_MAX" envDefault:"3s"`

	// rabbitMQ (relay usage events); empty URL disables publishing
	RabbitURL         string        `env:"RABBIT_URL"`
	RabbitQueue       string        `env:"RABBIT_QUEUE" envDefault:"relay_events"`
	WorkerConcurrency int           `env:"WORKER_CONCURRENCY" envDefault:"2"`
	WorkerMaxAttempts int           `env:"WORKER_MAX_ATTEMPTS" envDefault:"3"`
	WorkerRetryDelay  time.Duration `env:"WORKER_RETRY_DELAY" envDefault:"5s"`
}

// Load reads an optional .env file and then the process environment.
func Load() (Config, error) {
	if path := os.Getenv("ENV_FILE"); path != "" {
		if err := godotenv.Load(path); err != nil {
			return Config{}, fmt.Errorf("load env file %s: %w", path, err)
		}
	} else {
		_ = godotenv.Load() // .env is optional
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.normalize()
	return cfg, nil
}

func (c *Config) normalize() {
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	c.LogFormat = strings.ToLower(strings.TrimSpace(c.LogFormat))
	c.AIProvider = strings.ToLower(strings.TrimSpace(c.AIProvider))
	c.ChatStore = strings.ToLower(strings.TrimSpace(c.ChatStore))
	c.ChatCompletionMode = strings.ToLower(strings.TrimSpace(c.ChatCompletionMode))

	if c.ChatReplyDelayMin < 0 {
		c.ChatReplyDelayMin = 0
	}
	if c.ChatReplyDelayMax < c.ChatReplyDelayMin {
		c.ChatReplyDelayMax = c.ChatReplyDelayMin
	}

	// same bounds the worker always had
	if c.WorkerConcurrency <= 0 {
		c.WorkerConcurrency = 2
	}
	if c.WorkerConcurrency > 50 {
		c.WorkerConcurrency = 50
	}
	if c.WorkerMaxAttempts <= 0 {
		c.WorkerMaxAttempts = 1
	}
}
