// Command nexus runs the demo physics simulation on the ecs runtime.
//
// Configuration comes from the environment:
//
//	NEXUS_MAX_ENTITIES, NEXUS_MAX_COMPONENTS     coordinator limits
//	NEXUS_LOG_LEVEL, NEXUS_LOG_FORMAT            logging
//	NEXUS_STATSD_ADDRESS                         statsd agent, metrics are dropped when unset
//	NEXUS_DEMO_ENTITIES, NEXUS_DEMO_FRAMES,
//	NEXUS_DEMO_FRAME_INTERVAL,
//	NEXUS_DEMO_THRUST_EVERY                      simulation
//	NEXUS_DEMO_PROFILE, NEXUS_DEMO_PROFILE_PATH  profiling
package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/nexus-engine/nexus/internal/demo"
	"github.com/nexus-engine/nexus/pkg/ecs"
	"github.com/nexus-engine/nexus/pkg/telemetry"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	tel, err := telemetry.New(telemetry.Options{ServiceName: "nexus"})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to setup telemetry")
	}

	logger := tel.GetLogger("demo")
	if err := run(&tel, &logger); err != nil {
		logger.Fatal().Err(err).Msg("simulation failed")
	}
}

func run(tel *telemetry.Telemetry, logger *zerolog.Logger) error {
	cfg, err := demo.LoadConfig()
	if err != nil {
		return err
	}

	stopProfile, err := demo.StartProfile(cfg)
	if err != nil {
		return err
	}
	defer stopProfile()

	ecsLogger := tel.GetLogger("ecs")
	world, err := demo.NewWorld(ecs.Options{Logger: &ecsLogger})
	if err != nil {
		return err
	}

	ids, err := demo.Spawn(world, cfg.Entities, cfg.ThrustEvery)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if _, err := demo.Run(ctx, world, cfg, logger); err != nil {
		return err
	}

	// Final state of the first body, for a quick sanity check of the integration.
	if len(ids) == 0 {
		return nil
	}
	if err := world.LogEntity(ids[0], zerolog.InfoLevel); err != nil {
		return eris.Wrap(err, "failed to log entity")
	}
	state, err := world.DumpEntity(ids[0])
	if err != nil {
		return eris.Wrap(err, "failed to dump entity")
	}
	logger.Info().Interface("entity", state).Msg("final state")
	return nil
}
