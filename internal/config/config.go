// Package config loads the run configuration of the baton command, layering
// defaults, an optional TOML file, then BATON_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joeycumines/go-baton/internal/logging"
	"github.com/joeycumines/go-baton/ring"
)

// Environment variables, which take precedence over the config file.
const (
	EnvLogLevel     = `BATON_LOG_LEVEL`
	EnvWaitTimeout  = `BATON_WAIT_TIMEOUT`
	EnvBuffer       = `BATON_BUFFER`
	EnvDrainMaxSize = `BATON_DRAIN_MAX_SIZE`
	EnvDrainPartial = `BATON_DRAIN_PARTIAL_TIMEOUT`
	EnvNamePrefix   = `BATON_NAME_PREFIX`
)

const (
	defaultBuffer     = 64
	defaultLogLevel   = `warning`
	defaultNamePrefix = `p`
)

type (
	// Config holds everything that may be tuned about a run, besides the
	// participant count and range, which are always arguments.
	Config struct {
		LogLevel string `toml:"log_level"`

		// Buffer is the capacity of the channel between the participants
		// and the output writer.
		Buffer int `toml:"buffer"`

		Ring  RingConfig  `toml:"ring"`
		Alt   AltConfig   `toml:"alternator"`
		Drain DrainConfig `toml:"drain"`
	}

	RingConfig struct {
		// WaitTimeout is passed to ring.WithWaitTimeout, negative disables.
		WaitTimeout time.Duration `toml:"wait_timeout"`
		NamePrefix  string        `toml:"name_prefix"`
	}

	AltConfig struct {
		EvenName string `toml:"even_name"`
		OddName  string `toml:"odd_name"`
	}

	// DrainConfig mirrors emission.DrainConfig. A negative max_size disables
	// the batch size limit, a negative partial_timeout passes along whatever
	// is immediately available, and zero uses the default for either.
	DrainConfig struct {
		MaxSize        int           `toml:"max_size"`
		PartialTimeout time.Duration `toml:"partial_timeout"`
	}
)

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		LogLevel: defaultLogLevel,
		Buffer:   defaultBuffer,
		Ring: RingConfig{
			WaitTimeout: ring.DefaultWaitTimeout,
			NamePrefix:  defaultNamePrefix,
		},
		Alt: AltConfig{
			EvenName: `even`,
			OddName:  `odd`,
		},
		Drain: DrainConfig{
			MaxSize:        16,
			PartialTimeout: time.Millisecond * 50,
		},
	}
}

// Load builds a Config from the defaults, the TOML file at path (skipped if
// path is empty, or the file does not exist), and the environment, as
// provided by getenv (defaults to os.Getenv). The result is validated.
func Load(path string, getenv func(string) string) (*Config, error) {
	if getenv == nil {
		getenv = os.Getenv
	}

	cfg := Default()

	if path != `` {
		if _, err := toml.DecodeFile(path, cfg); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf(`config: %s: %w`, path, err)
		}
	}

	if err := cfg.applyEnv(getenv); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (x *Config) applyEnv(getenv func(string) string) error {
	if v := getenv(EnvLogLevel); v != `` {
		x.LogLevel = v
	}
	if v := getenv(EnvNamePrefix); v != `` {
		x.Ring.NamePrefix = v
	}
	for _, d := range [...]struct {
		key string
		val *time.Duration
	}{
		{EnvWaitTimeout, &x.Ring.WaitTimeout},
		{EnvDrainPartial, &x.Drain.PartialTimeout},
	} {
		if v := getenv(d.key); v != `` {
			parsed, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf(`config: %s: %w`, d.key, err)
			}
			*d.val = parsed
		}
	}
	for _, i := range [...]struct {
		key string
		val *int
	}{
		{EnvBuffer, &x.Buffer},
		{EnvDrainMaxSize, &x.Drain.MaxSize},
	} {
		if v := getenv(i.key); v != `` {
			parsed, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf(`config: %s: %w`, i.key, err)
			}
			*i.val = parsed
		}
	}
	return nil
}

// Validate checks the configuration is usable.
func (x *Config) Validate() error {
	if _, err := logging.ParseLevel(x.LogLevel); err != nil {
		return fmt.Errorf(`config: log_level: %w`, err)
	}
	if x.Buffer < 0 {
		return fmt.Errorf(`config: buffer: must not be negative: %d`, x.Buffer)
	}
	if x.Ring.NamePrefix == `` {
		return errors.New(`config: ring.name_prefix: must not be empty`)
	}
	if x.Alt.EvenName == `` || x.Alt.OddName == `` {
		return errors.New(`config: alternator: names must not be empty`)
	}
	return nil
}
