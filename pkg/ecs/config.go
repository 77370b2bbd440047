package ecs

import (
	"github.com/caarlos0/env/v11"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

// Config is the coordinator configuration read from the environment.
type Config struct {
	// MaxEntities is the number of entities that can be alive at once.
	MaxEntities int `env:"NEXUS_MAX_ENTITIES" envDefault:"5000"`

	// MaxComponents caps the number of component kinds. Can't exceed SignatureWidth.
	MaxComponents int `env:"NEXUS_MAX_COMPONENTS" envDefault:"32"`
}

// LoadConfig loads the configuration from environment variables.
func LoadConfig() (Config, error) {
	cfg := Config{}

	if err := env.Parse(&cfg); err != nil {
		return cfg, eris.Wrap(err, "failed to parse config")
	}

	if err := cfg.validate(); err != nil {
		return cfg, eris.Wrap(err, "failed to validate config")
	}

	return cfg, nil
}

func (cfg *Config) validate() error {
	if cfg.MaxEntities < 1 {
		return eris.Errorf("max entities must be at least 1, got %d", cfg.MaxEntities)
	}
	if cfg.MaxComponents < 1 || cfg.MaxComponents > SignatureWidth {
		return eris.Errorf("max components must be between 1 and %d, got %d", SignatureWidth, cfg.MaxComponents)
	}
	return nil
}

func (cfg *Config) applyToOptions(opt *Options) {
	opt.MaxEntities = cfg.MaxEntities
	opt.MaxComponents = cfg.MaxComponents
}

// Options configures a Coordinator. Zero fields fall back to the environment config.
type Options struct {
	MaxEntities   int
	MaxComponents int
	Logger        *zerolog.Logger
}

func newDefaultOptions() Options {
	logger := zerolog.Nop()
	return Options{Logger: &logger}
}

// apply merges the given options into the current options, overriding non-zero values.
func (opt *Options) apply(newOpt Options) {
	if newOpt.MaxEntities != 0 {
		opt.MaxEntities = newOpt.MaxEntities
	}
	if newOpt.MaxComponents != 0 {
		opt.MaxComponents = newOpt.MaxComponents
	}
	if newOpt.Logger != nil {
		opt.Logger = newOpt.Logger
	}
}

// validate checks that all required options are set and valid.
func (opt *Options) validate() error {
	if opt.MaxEntities < 1 {
		return eris.Errorf("max entities must be at least 1, got %d", opt.MaxEntities)
	}
	if opt.MaxEntities > maxEntityCapacity {
		return eris.Errorf("max entities must be at most %d, got %d", maxEntityCapacity, opt.MaxEntities)
	}
	if opt.MaxComponents < 1 {
		return eris.Errorf("max components must be at least 1, got %d", opt.MaxComponents)
	}
	if opt.MaxComponents > SignatureWidth {
		return eris.Wrapf(ErrTooManyComponents,
			"max components %d exceeds signature width %d", opt.MaxComponents, SignatureWidth)
	}
	if opt.Logger == nil {
		return eris.New("logger cannot be nil")
	}
	return nil
}
