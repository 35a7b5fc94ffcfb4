package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/rocketscienceinc/megattt-backend/internal/apperror"
	"github.com/rocketscienceinc/megattt-backend/internal/entity"
)

const (
	ScoreStorageFile  = "file"
	ScoreStorageRedis = "redis"
)

var ErrBadConfig = errors.New("invalid configuration")

type Config struct {
	LogLevel          string        `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	Players           int           `yaml:"players" env:"PLAYERS" env-default:"3"`
	Listen            Listen        `yaml:"listen"`
	HTTPPort          string        `yaml:"http-port" env:"HTTP_PORT" env-default:""`
	Score             Score         `yaml:"score"`
	EventLog          string        `yaml:"event-log" env:"EVENT_LOG" env-default:"game_log.txt"`
	PollInterval      time.Duration `yaml:"poll-interval" env:"POLL_INTERVAL" env-default:"200ms"`
	ResetPollInterval time.Duration `yaml:"reset-poll-interval" env:"RESET_POLL_INTERVAL" env-default:"100ms"`
	MonitorInterval   time.Duration `yaml:"monitor-interval" env:"MONITOR_INTERVAL" env-default:"1s"`
	ResetDelay        time.Duration `yaml:"reset-delay" env:"RESET_DELAY" env-default:"5s"`
	WriteTimeout      time.Duration `yaml:"write-timeout" env:"WRITE_TIMEOUT" env-default:"5s"`
	Redis             Redis         `yaml:"redis"`
}

type Listen struct {
	Network string `yaml:"network" env:"LISTEN_NETWORK" env-default:"unix"`
	Address string `yaml:"address" env:"LISTEN_ADDRESS" env-default:"/tmp/mega_ttt.sock"`
}

type Score struct {
	Storage string `yaml:"storage" env:"SCORE_STORAGE" env-default:"file"`
	File    string `yaml:"file" env:"SCORE_FILE" env-default:"score.txt"`
}

type Redis struct {
	Host string `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port string `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
}

// Load - reads the config file and applies env overrides. Without the file
// only the environment and defaults are used.
func Load(path string) (*Config, error) {
	config := &Config{}

	_, err := os.Stat(path)
	switch {
	case err == nil:
		err = cleanenv.ReadConfig(path, config)
	case errors.Is(err, fs.ErrNotExist):
		err = cleanenv.ReadEnv(config)
	}
	if err != nil {
		return nil, fmt.Errorf("unable to load config: %w", err)
	}

	if err = config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config, err := Load(path)
	if err != nil {
		panic(err)
	}

	return config
}

func (that *Config) Validate() error {
	if that.Players < entity.MinPlayers || that.Players > entity.MaxPlayers {
		return fmt.Errorf("%w: got %d", apperror.ErrInvalidPlayerCount, that.Players)
	}

	switch that.Listen.Network {
	case "unix", "tcp":
	default:
		return fmt.Errorf("%w: listen network %q", ErrBadConfig, that.Listen.Network)
	}

	if that.Listen.Address == "" {
		return fmt.Errorf("%w: empty listen address", ErrBadConfig)
	}

	switch that.Score.Storage {
	case ScoreStorageFile, ScoreStorageRedis:
	default:
		return fmt.Errorf("%w: score storage %q", ErrBadConfig, that.Score.Storage)
	}

	if that.PollInterval <= 0 || that.ResetPollInterval <= 0 || that.MonitorInterval <= 0 {
		return fmt.Errorf("%w: intervals must be positive", ErrBadConfig)
	}

	return nil
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}
