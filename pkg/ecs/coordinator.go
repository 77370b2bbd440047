package ecs

import (
	"time"

	"github.com/goccy/go-json"
	"github.com/nexus-engine/nexus/pkg/log"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

// Coordinator is the single entry point to the runtime. It owns the entity, component and system
// registries and keeps them consistent: every operation validates its preconditions first and
// returns an error without changing anything when they fail.
//
// A Coordinator is not safe for concurrent use.
type Coordinator struct {
	entities   entityManager
	components componentManager
	systems    systemManager
	mapper     SignatureMapper
	logger     *zerolog.Logger
	current    *systemEntry // System currently running, nil outside Update
	updating   bool
}

var _ log.Loggable = &Coordinator{}

// NewCoordinator creates a coordinator for a closed list of component kinds. The position of a kind
// in the list is its signature bit. Options override the environment config field by field.
func NewCoordinator(opts Options, kinds ...ComponentKind) (*Coordinator, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, eris.Wrap(err, "failed to load config")
	}

	options := newDefaultOptions()
	cfg.applyToOptions(&options)
	options.apply(opts)
	if err := options.validate(); err != nil {
		return nil, eris.Wrap(err, "invalid coordinator options")
	}

	names := make([]string, len(kinds))
	for i, kind := range kinds {
		names[i] = kind.Name()
	}
	mapper, err := NewSignatureMapper(options.MaxComponents, names...)
	if err != nil {
		return nil, err
	}

	c := &Coordinator{
		entities:   newEntityManager(options.MaxEntities),
		components: newComponentManager(options.MaxEntities, kinds),
		systems:    newSystemManager(options.MaxEntities),
		mapper:     mapper,
		logger:     options.Logger,
	}
	log.Components(c.logger, c, zerolog.DebugLevel)
	return c, nil
}

// CreateEntity returns a new entity with no components.
func (c *Coordinator) CreateEntity() (EntityID, error) {
	eid, err := c.entities.create()
	if err != nil {
		return 0, err
	}
	c.signatureChanged(eid, 0)
	c.logger.Debug().Uint32("entity_id", uint32(eid)).Msg("entity created")
	return eid, nil
}

// DestroyEntity removes the entity, its components and its system memberships. The ID becomes
// available for reuse after every ID freed before it.
func (c *Coordinator) DestroyEntity(eid EntityID) error {
	if err := c.entities.destroy(eid); err != nil {
		return err
	}
	c.components.entityDestroyed(eid)
	c.systems.entityDestroyed(eid)

	c.logger.Debug().Uint32("entity_id", uint32(eid)).Msg("entity destroyed")
	return nil
}

// RegisterSystem adds a system to the end of the run order. Entities that already match it are
// added to its matched set right away.
func (c *Coordinator) RegisterSystem(sys System) error {
	required, err := c.mapper.MapMultiple(sys.Requires()...)
	if err != nil {
		return eris.Wrapf(err, "system %s requires an unknown component", sys.Name())
	}

	matching := func(fn func(EntityID)) {
		c.entities.each(func(eid EntityID) {
			if c.entities.signature(eid).Test(required) {
				fn(eid)
			}
		})
	}
	if err := c.systems.register(sys, required, c.logger, matching); err != nil {
		return err
	}

	c.logger.Debug().Str("system", sys.Name()).Str("signature", required.String()).Msg("system registered")
	return nil
}

// Update runs every registered system once, in registration order.
func (c *Coordinator) Update(dt time.Duration) error {
	if c.updating {
		return eris.New("update called from within a system")
	}
	c.updating = true
	defer func() { c.updating = false }()

	return c.systems.update(c, dt)
}

// Signature returns the entity's current signature.
func (c *Coordinator) Signature(eid EntityID) (Signature, error) {
	if !c.entities.isAlive(eid) {
		return 0, eris.Wrapf(ErrEntityNotFound, "entity %d", eid)
	}
	return c.entities.signature(eid), nil
}

// Alive reports whether the entity currently exists.
func (c *Coordinator) Alive(eid EntityID) bool {
	return c.entities.isAlive(eid)
}

// EntityCount returns the number of live entities.
func (c *Coordinator) EntityCount() int {
	return c.entities.count()
}

// MaxEntities returns the number of entities that can be alive at once.
func (c *Coordinator) MaxEntities() int {
	return c.entities.capacity()
}

// Mapper returns the signature mapper built from the configured kinds.
func (c *Coordinator) Mapper() SignatureMapper {
	return c.mapper
}

// Logger returns the running system's logger during Update and the coordinator's logger otherwise.
func (c *Coordinator) Logger() *zerolog.Logger {
	if c.current != nil {
		return c.current.logger
	}
	return c.logger
}

// CurrentSystem returns the name of the running system, or "no_system" outside Update.
func (c *Coordinator) CurrentSystem() string {
	if c.current == nil {
		return "no_system"
	}
	return c.current.name
}

// SystemEntities returns the entities currently matched by the named system.
func (c *Coordinator) SystemEntities(name string) (EntitySet, bool) {
	return c.systems.matchedSet(name)
}

// RegisteredComponents returns the configured component kinds in bit order.
func (c *Coordinator) RegisteredComponents() []log.ComponentMetadata {
	metadata := c.components.metadata()
	out := make([]log.ComponentMetadata, len(metadata))
	for i, m := range metadata {
		out[i] = m
	}
	return out
}

// RegisteredSystems returns the system names in run order.
func (c *Coordinator) RegisteredSystems() []string {
	return c.systems.names()
}

// EntityState is a JSON friendly snapshot of an entity.
type EntityState struct {
	ID         EntityID                   `json:"id"`
	Signature  string                     `json:"signature"`
	Components map[string]json.RawMessage `json:"components"` // Component name -> JSON value
}

// DumpEntity returns a snapshot of the entity with every component encoded as JSON.
func (c *Coordinator) DumpEntity(eid EntityID) (EntityState, error) {
	if !c.entities.isAlive(eid) {
		return EntityState{}, eris.Wrapf(ErrEntityNotFound, "entity %d", eid)
	}

	held := c.components.components(eid)
	state := EntityState{
		ID:         eid,
		Signature:  c.entities.signature(eid).String(),
		Components: make(map[string]json.RawMessage, len(held)),
	}
	for _, m := range held {
		data, err := c.components.stores[m.id].encode(eid)
		if err != nil {
			return EntityState{}, eris.Wrapf(err, "failed to dump entity %d", eid)
		}
		state.Components[m.name] = data
	}
	return state, nil
}

// LogEntity logs the entity's ID, signature and component kinds at the given level.
func (c *Coordinator) LogEntity(eid EntityID, level zerolog.Level) error {
	if !c.entities.isAlive(eid) {
		return eris.Wrapf(ErrEntityNotFound, "entity %d", eid)
	}

	held := c.components.components(eid)
	metadata := make([]log.ComponentMetadata, len(held))
	for i, m := range held {
		metadata[i] = m
	}
	log.Entity(c.Logger(), level, uint32(eid), c.entities.signature(eid).String(), metadata)
	return nil
}
