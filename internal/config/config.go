package config

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	LogLevel          string `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	HTTPPort          string `yaml:"http-port" env:"HTTP_PORT" env-default:"9090"`
	SocketPort        string `yaml:"socket-port" env:"SOCKET_PORT" env-default:"9091"`
	Redis             Redis  `yaml:"redis"`
	SQLiteStoragePath string `yaml:"sqlite-storage-path" env:"SQLITE_STORAGE_PATH" env-default:"games.db"`
	JWTSecretKey      string `yaml:"jwt-secret-key" env:"JWT_SECRET_KEY"`
	Agent             Agent  `yaml:"agent"`
}

type Redis struct {
	Host string `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port string `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
}

// Agent configures the decision source used for automated participants.
// Provider "bot" picks random legal moves; "openai" and "anthropic" call
// the corresponding chat-completion API.
type Agent struct {
	Provider  string `yaml:"provider" env:"AGENT_PROVIDER" env-default:"bot"`
	BaseURL   string `yaml:"base-url" env:"AGENT_BASE_URL"`
	APIKey    string `yaml:"api-key" env:"AGENT_API_KEY"`
	Model     string `yaml:"model" env:"AGENT_MODEL"`
	MaxTokens int    `yaml:"max-tokens" env:"AGENT_MAX_TOKENS" env-default:"16"`
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config := &Config{}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		panic(fmt.Errorf("unable to load config file: %w", err))
	}

	return config
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}
