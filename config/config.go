package config

import (
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Server struct {
	GatewayAddr string `yaml:"gateway_addr" env:"GATEWAY_ADDR" env-default:":3000"`
	BackendAddr string `yaml:"backend_addr" env:"BACKEND_ADDR" env-default:":8000"`
}

type Backend struct {
	URL               string `yaml:"url" env:"BACKEND_URL"`
	Restricted        bool   `yaml:"restricted" env:"RESTRICTED_DEPLOYMENT" env-default:"false"`
	PrimaryLocalURL   string `yaml:"primary_local_url" env:"BACKEND_PRIMARY_LOCAL_URL" env-default:"http://127.0.0.1:8000"`
	SecondaryLocalURL string `yaml:"secondary_local_url" env:"BACKEND_SECONDARY_LOCAL_URL" env-default:"http://localhost:8000"`
}

type OpenRouter struct {
	APIKey    string `env:"OPENROUTER_API_KEY"`
	ChatURL   string `yaml:"chat_url" env:"OPENROUTER_URL" env-default:"https://openrouter.ai/api/v1/chat/completions"`
	BaseURL   string `yaml:"base_url" env:"OPENROUTER_BASE_URL" env-default:"https://openrouter.ai/api/v1"`
	Referer   string `yaml:"referer" env:"OPENROUTER_REFERER" env-default:"https://universal-ai-ide.local"`
	Title     string `yaml:"title" env:"OPENROUTER_APP_TITLE" env-default:"Universal AI IDE"`
	AliasFile string `yaml:"alias_file" env:"MODEL_ALIAS_FILE"`
}

type Codex struct {
	Binary          string        `yaml:"binary" env:"CODEX_BIN" env-default:"codex"`
	VerificationURL string        `yaml:"verification_url" env-default:"https://auth.openai.com/codex/device"`
	CodeTTL         time.Duration `yaml:"code_ttl" env:"CODEX_CODE_TTL" env-default:"10m"`
	MinRetry        time.Duration `yaml:"min_retry" env:"CODEX_MIN_RETRY" env-default:"5s"`
	LoginTimeout    time.Duration `yaml:"login_timeout" env-default:"20s"`
	ExecTimeout     time.Duration `yaml:"exec_timeout" env-default:"3m"`
	DefaultModel    string        `yaml:"default_model" env:"CODEX_DEFAULT_MODEL" env-default:"gpt-5.2-codex"`
	Models          []string      `yaml:"models" env:"CODEX_MODELS" env-separator:"," env-default:"gpt-5.2-codex,gpt-5.3-codex,gpt-5-codex"`
}

type Prompt struct {
	TokenBudget int    `yaml:"token_budget" env:"PROMPT_TOKEN_BUDGET" env-default:"60000"`
	Encoding    string `yaml:"encoding" env-default:"cl100k_base"`
}

type Redis struct {
	Endpoint  string `yaml:"endpoint" env:"REDIS_ENDPOINT"`
	KeyPrefix string `yaml:"key_prefix" env:"REDIS_KEY_PREFIX" env-default:"ai-ide:"`
}

type Log struct {
	Level  string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	Pretty bool   `yaml:"pretty" env:"LOG_PRETTY" env-default:"false"`
}

type Client struct {
	GatewayURL   string        `yaml:"gateway_url" env:"GATEWAY_URL" env-default:"http://127.0.0.1:3000"`
	TypingDelay  time.Duration `yaml:"typing_delay" env:"TYPING_DELAY" env-default:"4ms"`
	PollInterval time.Duration `yaml:"poll_interval" env-default:"3s"`
	PollTimeout  time.Duration `yaml:"poll_timeout" env-default:"10m"`
}

type Config struct {
	Server     Server     `yaml:"server"`
	Backend    Backend    `yaml:"backend"`
	OpenRouter OpenRouter `yaml:"openrouter"`
	Codex      Codex      `yaml:"codex"`
	Prompt     Prompt     `yaml:"prompt"`
	Redis      Redis      `yaml:"redis"`
	Log        Log        `yaml:"log"`
	Client     Client     `yaml:"client"`
}

// LoadConfig reads the optional YAML file at cfgPath and applies environment
// overrides on top of it. An empty path reads the environment only.
func LoadConfig(cfgPath string) (*Config, error) {
	var cfg Config
	if cfgPath != "" {
		if err := cleanenv.ReadConfig(cfgPath, &cfg); err != nil {
			return nil, err
		}
		return &cfg, nil
	}
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
