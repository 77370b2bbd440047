package demo

import (
	"context"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/nexus-engine/nexus/pkg/ecs"
	"github.com/nexus-engine/nexus/pkg/log"
	"github.com/nexus-engine/nexus/pkg/statsd"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

// StandardGravity is the downward acceleration applied to every spawned body.
const StandardGravity = -9.8

type Config struct {
	// Entities is the number of bodies spawned at startup.
	Entities int `env:"NEXUS_DEMO_ENTITIES" envDefault:"20"`

	// Frames is the number of frames simulated before exiting.
	Frames int `env:"NEXUS_DEMO_FRAMES" envDefault:"100"`

	// FrameInterval is the wall time between frames.
	FrameInterval time.Duration `env:"NEXUS_DEMO_FRAME_INTERVAL" envDefault:"100ms"`

	// ThrustEvery gives every n-th body an engine. Zero disables engines.
	ThrustEvery int `env:"NEXUS_DEMO_THRUST_EVERY" envDefault:"4"`

	// Profile enables profiling of the run ("cpu", "mem", "allocs", "trace"). Empty disables it.
	Profile string `env:"NEXUS_DEMO_PROFILE"`

	// ProfilePath is the directory profiles are written to.
	ProfilePath string `env:"NEXUS_DEMO_PROFILE_PATH" envDefault:"."`
}

// LoadConfig loads the demo configuration from environment variables.
func LoadConfig() (Config, error) {
	cfg := Config{}

	if err := env.Parse(&cfg); err != nil {
		return cfg, eris.Wrap(err, "failed to parse demo config")
	}

	if err := cfg.validate(); err != nil {
		return cfg, eris.Wrap(err, "failed to validate demo config")
	}

	return cfg, nil
}

func (cfg *Config) validate() error {
	if cfg.Entities < 0 {
		return eris.Errorf("entities must not be negative, got %d", cfg.Entities)
	}
	if cfg.Frames < 0 {
		return eris.Errorf("frames must not be negative, got %d", cfg.Frames)
	}
	if cfg.FrameInterval <= 0 {
		return eris.Errorf("frame interval must be positive, got %s", cfg.FrameInterval)
	}
	if cfg.ThrustEvery < 0 {
		return eris.Errorf("thrust every must not be negative, got %d", cfg.ThrustEvery)
	}
	if _, err := profileMode(cfg.Profile); err != nil {
		return err
	}
	return nil
}

// Kinds returns the component kinds of the simulation, in signature bit order.
func Kinds() []ecs.ComponentKind {
	return []ecs.ComponentKind{
		ecs.Kind[Gravity](),
		ecs.Kind[RigidBody](),
		ecs.Kind[Transform](),
		ecs.Kind[Thrust](),
	}
}

// NewWorld creates a coordinator with the simulation's kinds and systems. Thrust runs after
// physics, so a body whose engine matches gravity stays put.
func NewWorld(opts ecs.Options) (*ecs.Coordinator, error) {
	c, err := ecs.NewCoordinator(opts, Kinds()...)
	if err != nil {
		return nil, eris.Wrap(err, "failed to create coordinator")
	}

	for _, sys := range []ecs.System{PhysicsSystem{}, ThrustSystem{}} {
		if err := c.RegisterSystem(sys); err != nil {
			return nil, eris.Wrapf(err, "failed to register system %s", sys.Name())
		}
	}
	return c, nil
}

// Spawn creates n bodies. Body i starts with velocity i on every axis and, when thrustEvery is
// positive, every thrustEvery-th body also gets an engine.
func Spawn(c *ecs.Coordinator, n, thrustEvery int) ([]ecs.EntityID, error) {
	ids := make([]ecs.EntityID, 0, n)
	for i := range n {
		components := []ecs.Component{
			Gravity{Force: Vec3{Y: StandardGravity}},
			RigidBody{
				Velocity:     Splat(float64(i)),
				Acceleration: Splat(float64(42 - i)),
			},
			Transform{Scale: Vec3{X: 1, Y: 2, Z: 3}},
		}
		if thrustEvery > 0 && i%thrustEvery == 0 {
			components = append(components, Thrust{Force: Vec3{Y: -StandardGravity}})
		}

		eid, err := ecs.Create(c, components...)
		if err != nil {
			return ids, eris.Wrapf(err, "failed to spawn body %d", i)
		}
		ids = append(ids, eid)
	}
	return ids, nil
}

// Run steps the simulation once per frame interval until cfg.Frames frames ran or ctx is done.
// It returns the number of frames simulated.
func Run(ctx context.Context, c *ecs.Coordinator, cfg Config, logger *zerolog.Logger) (int, error) {
	log.World(logger, c, zerolog.InfoLevel)

	ticker := time.NewTicker(cfg.FrameInterval)
	defer ticker.Stop()

	timer := ecs.NewTimer()
	for frame := range cfg.Frames {
		select {
		case <-ctx.Done():
			logger.Info().Int("frames", frame).Msg("simulation interrupted")
			return frame, nil
		case <-ticker.C:
		}

		dt := timer.Elapsed()
		if err := c.Update(dt); err != nil {
			return frame, eris.Wrapf(err, "frame %d failed", frame)
		}
		statsd.EmitEntityCount(c.EntityCount())

		logger.Debug().Int("frame", frame).Dur("dt", dt).Msg("frame done")
	}

	logger.Info().Int("frames", cfg.Frames).Int("entities", c.EntityCount()).Msg("simulation finished")
	return cfg.Frames, nil
}
