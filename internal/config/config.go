package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/rocketscienceinc/blinktactoe-backend/internal/entity"
)

type Config struct {
	LogLevel   string        `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	HTTPPort   string        `yaml:"http-port" env:"HTTP_PORT" env-default:"9090"`
	SocketPort string        `yaml:"socket-port" env:"SOCKET_PORT" env-default:"9091"`
	SessionTTL time.Duration `yaml:"session-ttl" env:"SESSION_TTL" env-default:"24h"`
	Redis      Redis         `yaml:"redis"`
	Game       Game          `yaml:"game"`
}

type Redis struct {
	Host string `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port string `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
}

// Game holds the settings every new session starts with.
// Switches have no env-default: cleanenv would override an explicit false from the file.
type Game struct {
	BotEnabled      bool          `yaml:"bot-enabled" env:"GAME_BOT_ENABLED"`
	BotPlaysFirst   bool          `yaml:"bot-plays-first" env:"GAME_BOT_PLAYS_FIRST"`
	Difficulty      int           `yaml:"difficulty" env:"GAME_DIFFICULTY" env-default:"2"`
	TimerEnabled    bool          `yaml:"timer-enabled" env:"GAME_TIMER_ENABLED"`
	MinTurnDuration time.Duration `yaml:"min-turn-duration" env:"GAME_MIN_TURN_DURATION" env-default:"1s"`
	MaxTurnDuration time.Duration `yaml:"max-turn-duration" env:"GAME_MAX_TURN_DURATION" env-default:"3s"`
	BotDelay        time.Duration `yaml:"bot-delay" env:"GAME_BOT_DELAY" env-default:"500ms"`
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config := &Config{}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		panic(fmt.Errorf("unable to load config file: %w", err))
	}

	if err := config.Game.Settings().Validate(); err != nil {
		panic(fmt.Errorf("invalid game section: %w", err))
	}

	return config
}

// MustLoadEnv - load configuration from the environment only, for binaries shipped without a config file.
func MustLoadEnv() *Config {
	config := &Config{}

	if err := cleanenv.ReadEnv(config); err != nil {
		panic(fmt.Errorf("unable to load config from env: %w", err))
	}

	return config
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}

func (that *Game) Settings() entity.Settings {
	return entity.Settings{
		BotEnabled:    that.BotEnabled,
		BotPlaysFirst: that.BotPlaysFirst,
		Difficulty:    that.Difficulty,
		TimerEnabled:  that.TimerEnabled,
		MinTurnMs:     that.MinTurnDuration.Milliseconds(),
		MaxTurnMs:     that.MaxTurnDuration.Milliseconds(),
	}
}
