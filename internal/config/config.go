package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

const DEFAULT_DATA_FILE = "custom_ctfs.json"

type Config struct {
	DiscordToken string `env:"DISCORD_BOT_TOKEN,required,notEmpty"`
	Prefix       string `env:"COMMAND_PREFIX" envDefault:"!"`

	// File holding the custom CTFs. DEFAULT_DATA_FILE when unset,
	// set but empty keeps them in memory only
	DataFile string `env:"CUSTOM_CTFS_FILE"`

	DirectoryUrl       string        `env:"CTFTIME_API_URL" envDefault:"https://ctftime.org/api/v1"`
	DirectoryUserAgent string        `env:"CTFTIME_USER_AGENT"`
	DirectoryTimeout   time.Duration `env:"CTFTIME_TIMEOUT" envDefault:"10s"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	PageSize int    `env:"PAGE_SIZE" envDefault:"25"`
}

// Load the variables of an env file into the environment, without
// overriding the ones already set. A missing file is not an error
func LoadEnvFile(filename string) error {
	if filename == "" {
		return nil
	}
	if err := godotenv.Load(filename); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", filename, err)
	}
	return nil
}

func FromEnv() (Config, error) {

	var c Config
	if err := env.Parse(&c); err != nil {
		return c, fmt.Errorf("parse env: %w", err)
	}

	// envDefault would also replace an empty value
	if _, set := os.LookupEnv("CUSTOM_CTFS_FILE"); !set {
		c.DataFile = DEFAULT_DATA_FILE
	}

	c.Prefix = strings.TrimSpace(c.Prefix)
	if c.Prefix == "" {
		return c, fmt.Errorf("COMMAND_PREFIX is empty")
	}
	if c.DirectoryTimeout <= 0 {
		return c, fmt.Errorf("CTFTIME_TIMEOUT must be positive, got %s", c.DirectoryTimeout)
	}
	// Discord does not allow more than 25 fields in an embed
	if c.PageSize <= 0 || c.PageSize > 25 {
		return c, fmt.Errorf("PAGE_SIZE must be between 1 and 25, got %d", c.PageSize)
	}
	if _, err := c.Level(); err != nil {
		return c, err
	}

	return c, nil
}

func (c Config) Level() (zerolog.Level, error) {
	level, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return level, nil
}
