// Package telemetry builds the logger and metrics client of a nexus process from the environment.
package telemetry

import (
	"github.com/google/uuid"
	"github.com/nexus-engine/nexus/pkg/statsd"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Telemetry struct {
	Logger      zerolog.Logger
	RunID       string // Unique per process, attached to every log line and metric
	serviceName string
}

// New loads telemetry config from the environment, merges opts over it and sets up logging and,
// when an address is configured, statsd.
func New(opts Options) (Telemetry, error) {
	config, err := loadConfig()
	if err != nil {
		return Telemetry{}, eris.Wrap(err, "failed to load telemetry config")
	}

	options := newDefaultOptions()
	config.applyToOptions(&options)
	options.apply(opts)
	if err := options.validate(); err != nil {
		return Telemetry{}, eris.Wrap(err, "invalid telemetry options")
	}

	runID := uuid.New().String()
	logger := newLogger(options).With().
		Str("service", options.ServiceName).
		Str("run_id", runID).
		Logger()

	if options.StatsdAddress != "" {
		tags := append([]string{"service:" + options.ServiceName, "run_id:" + runID}, options.StatsdTags...)
		if err := statsd.Init(options.StatsdAddress, tags); err != nil {
			return Telemetry{}, eris.Wrap(err, "failed to setup statsd")
		}
		logger.Info().Str("address", options.StatsdAddress).Msg("statsd enabled")
	}

	// Package-level helpers such as statsd log through the global logger.
	log.Logger = logger

	return Telemetry{
		Logger:      logger,
		RunID:       runID,
		serviceName: options.ServiceName,
	}, nil
}

// GetLogger returns a component-specific logger.
func (t *Telemetry) GetLogger(component string) zerolog.Logger {
	return t.Logger.With().Str("component", t.serviceName+"."+component).Logger()
}
