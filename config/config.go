// Package config loads bark settings from defaults, an optional YAML file
// and BARK_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/kylerbrown/bark/iir"
	"github.com/kylerbrown/bark/log"
)

// EnvPrefix is the prefix of environment variables.
const EnvPrefix = "BARK"

// ErrInvalid is returned when loaded values don't pass validation.
var ErrInvalid = errors.New("invalid configuration")

// Config holds settings shared by bark commands.
type Config struct {
	ChunkSize   int    `mapstructure:"chunk_size" validate:"gt=0"`
	Filter      string `mapstructure:"filter" validate:"oneof=butter bessel"`
	FilterOrder int    `mapstructure:"filter_order" validate:"gte=1"`
	Debug       bool   `mapstructure:"debug"`
}

// Prototype returns analog prototype of configured filter.
func (c Config) Prototype() (iir.Prototype, error) {
	return iir.ParsePrototype(c.Filter)
}

type loader struct {
	file string
}

// Option configures Load.
type Option func(*loader)

// WithConfigFile sets path to YAML config file.
func WithConfigFile(path string) Option {
	return func(l *loader) {
		l.file = path
	}
}

var validate = validator.New()

// Load reads the configuration. Values from environment override file
// values, file values override defaults. Debug logging is switched on when
// Debug is set.
func Load(options ...Option) (Config, error) {
	var l loader
	for _, option := range options {
		option(&l)
	}

	v := viper.New()
	v.SetDefault("chunk_size", 1000000)
	v.SetDefault("filter", "bessel")
	v.SetDefault("filter_order", 3)
	v.SetDefault("debug", false)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if l.file != "" {
		v.SetConfigFile(l.file)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", l.file, err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := validate.Struct(c); err != nil {
		var fieldErrors validator.ValidationErrors
		if errors.As(err, &fieldErrors) {
			messages := make([]string, 0, len(fieldErrors))
			for _, e := range fieldErrors {
				messages = append(messages, fmt.Sprintf("%s failed on %s", e.Field(), e.Tag()))
			}
			return Config{}, fmt.Errorf("%w: %s", ErrInvalid, strings.Join(messages, "; "))
		}
		return Config{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if c.Debug {
		log.SetDebug(true)
	}
	return c, nil
}
