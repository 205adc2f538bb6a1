package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	ModeServer  = "server"
	ModeConsole = "console"
)

type Config struct {
	LogLevel string `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	Mode     string `yaml:"mode" env:"APP_MODE" env-default:"server"`
	HTTPPort string `yaml:"http-port" env:"HTTP_PORT" env-default:"9090"`
	Redis    Redis  `yaml:"redis"`
	Round    Round  `yaml:"round"`
}

type Redis struct {
	Host string `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port string `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
}

type Round struct {
	// AIDelay paces AI turns in the websocket and console front ends.
	AIDelay time.Duration `yaml:"ai-delay" env:"ROUND_AI_DELAY" env-default:"1s"`
	// StartMark is "random", "X" or "O".
	StartMark string        `yaml:"start-mark" env:"ROUND_START_MARK" env-default:"random"`
	MaxRounds int           `yaml:"max-rounds" env:"ROUND_MAX_ROUNDS" env-default:"10"`
	TTL       time.Duration `yaml:"ttl" env:"ROUND_TTL" env-default:"24h"`
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
