package ecs

import (
	"bytes"
	"testing"
	"time"

	"github.com/goccy/go-json"
	. "github.com/nexus-engine/nexus/pkg/ecs/internal/testutils"
	"github.com/nexus-engine/nexus/pkg/testutils"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestCoordinator builds a coordinator over Position, Velocity and Health with small limits.
func newTestCoordinator(t *testing.T, opts Options) *Coordinator {
	t.Helper()
	if opts.MaxEntities == 0 {
		opts.MaxEntities = 64
	}
	c, err := NewCoordinator(opts, Kind[Position](), Kind[Velocity](), Kind[Health]())
	require.NoError(t, err)
	return c
}

func matched(t *testing.T, c *Coordinator, system string) []EntityID {
	t.Helper()
	set, ok := c.SystemEntities(system)
	require.True(t, ok, "system %s is not registered", system)
	return set.Slice()
}

func TestNewCoordinator_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		opts    Options
		kinds   []ComponentKind
		wantErr error
	}{
		{name: "no kinds", wantErr: ErrNoComponentKinds},
		{
			name:    "duplicate kinds",
			kinds:   []ComponentKind{Kind[Health](), Kind[Position](), Kind[Health]()},
			wantErr: ErrDuplicateComponentKind,
		},
		{
			name:    "name clash between types",
			kinds:   []ComponentKind{Kind[Health](), Kind[Impostor]()},
			wantErr: ErrDuplicateComponentKind,
		},
		{
			name:    "more kinds than max components",
			opts:    Options{MaxComponents: 2},
			kinds:   []ComponentKind{Kind[Health](), Kind[Position](), Kind[Velocity]()},
			wantErr: ErrTooManyComponents,
		},
		{
			name:    "max components over signature width",
			opts:    Options{MaxComponents: SignatureWidth + 1},
			kinds:   []ComponentKind{Kind[Health]()},
			wantErr: ErrTooManyComponents,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := NewCoordinator(tt.opts, tt.kinds...)
			require.Error(t, err)
			assert.True(t, eris.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

// Position+Velocity system tracking A and B through adds, removes and a destroy.
func TestCoordinator_MembershipScenario(t *testing.T) {
	t.Parallel()

	c := newTestCoordinator(t, Options{})
	require.NoError(t, c.RegisterSystem(&testSystem{name: "move", requires: []Component{Position{}, Velocity{}}}))

	a, err := c.CreateEntity()
	require.NoError(t, err)
	require.NoError(t, AddComponent(c, a, Position{}))
	assert.Empty(t, matched(t, c, "move"))

	require.NoError(t, AddComponent(c, a, Velocity{X: 1}))
	assert.Equal(t, []EntityID{a}, matched(t, c, "move"))

	b, err := Create(c, Position{X: 5}, Velocity{Y: 2})
	require.NoError(t, err)
	assert.ElementsMatch(t, []EntityID{a, b}, matched(t, c, "move"))

	require.NoError(t, RemoveComponent[Velocity](c, a))
	assert.Equal(t, []EntityID{b}, matched(t, c, "move"))

	require.NoError(t, c.DestroyEntity(b))
	assert.Empty(t, matched(t, c, "move"))
}

func TestCoordinator_EmptyRequirementMatchesEveryEntity(t *testing.T) {
	t.Parallel()

	c := newTestCoordinator(t, Options{})
	pre, err := c.CreateEntity()
	require.NoError(t, err)
	require.NoError(t, c.RegisterSystem(&testSystem{name: "any"}))

	post, err := c.CreateEntity()
	require.NoError(t, err)
	other, err := c.CreateEntity()
	require.NoError(t, err)
	require.NoError(t, AddComponent(c, other, Position{}))
	require.NoError(t, RemoveComponent[Position](c, other))

	assert.Equal(t, []EntityID{pre, post, other}, matched(t, c, "any"))

	require.NoError(t, c.DestroyEntity(post))
	assert.Equal(t, []EntityID{pre, other}, matched(t, c, "any"))
}

func TestCoordinator_CapacityScenario(t *testing.T) {
	t.Parallel()

	c := newTestCoordinator(t, Options{MaxEntities: 3})
	for range 3 {
		_, err := c.CreateEntity()
		require.NoError(t, err)
	}

	_, err := c.CreateEntity()
	assert.True(t, eris.Is(err, ErrCapacityExceeded))
	_, err = Create(c, Health{})
	assert.True(t, eris.Is(err, ErrCapacityExceeded))
	assert.Equal(t, 3, c.EntityCount())
	assert.Equal(t, 3, c.MaxEntities())

	require.NoError(t, c.DestroyEntity(1))
	eid, err := c.CreateEntity()
	require.NoError(t, err)
	assert.Equal(t, EntityID(1), eid)
}

func TestCoordinator_DestroyClearsEverything(t *testing.T) {
	t.Parallel()

	c := newTestCoordinator(t, Options{})
	require.NoError(t, c.RegisterSystem(&testSystem{name: "health", requires: []Component{Health{}}}))

	eid, err := Create(c, Health{Value: 3}, Position{})
	require.NoError(t, err)
	other, err := Create(c, Health{Value: 9})
	require.NoError(t, err)

	require.NoError(t, c.DestroyEntity(eid))
	assert.False(t, c.Alive(eid))
	assert.False(t, HasComponent[Health](c, eid))
	assert.Equal(t, []EntityID{other}, matched(t, c, "health"))

	_, err = c.Signature(eid)
	assert.True(t, eris.Is(err, ErrEntityNotFound))
	assert.True(t, c.entities.signature(eid).IsEmpty())

	err = c.DestroyEntity(eid)
	assert.True(t, eris.Is(err, ErrEntityNotFound))

	// The surviving entity's value was moved by swap-removal but is still reachable.
	h, err := GetComponent[Health](c, other)
	require.NoError(t, err)
	assert.Equal(t, 9, h.Value)
}

func TestCoordinator_PreconditionsLeaveStateUntouched(t *testing.T) {
	t.Parallel()

	c := newTestCoordinator(t, Options{})
	require.NoError(t, c.RegisterSystem(&testSystem{name: "move", requires: []Component{Position{}, Velocity{}}}))
	eid, err := Create(c, Position{X: 1}, Velocity{X: 2})
	require.NoError(t, err)
	sig, err := c.Signature(eid)
	require.NoError(t, err)

	tests := []struct {
		name    string
		op      func() error
		wantErr error
	}{
		{
			name:    "add duplicate",
			op:      func() error { return AddComponent(c, eid, Position{X: 99}) },
			wantErr: ErrDuplicateComponent,
		},
		{
			name:    "add unregistered",
			op:      func() error { return AddComponent(c, eid, Level{Value: 1}) },
			wantErr: ErrComponentNotRegistered,
		},
		{
			name:    "add impostor",
			op:      func() error { return AddComponent(c, eid, Impostor{}) },
			wantErr: ErrComponentNotRegistered,
		},
		{
			name:    "add to dead entity",
			op:      func() error { return AddComponent(c, 40, Health{}) },
			wantErr: ErrEntityNotFound,
		},
		{
			name:    "add to out of range entity",
			op:      func() error { return AddComponent(c, 1_000, Health{}) },
			wantErr: ErrEntityNotFound,
		},
		{
			name:    "remove missing",
			op:      func() error { return RemoveComponent[Health](c, eid) },
			wantErr: ErrComponentNotFound,
		},
		{
			name:    "remove unregistered",
			op:      func() error { return RemoveComponent[Level](c, eid) },
			wantErr: ErrComponentNotRegistered,
		},
		{
			name:    "remove from dead entity",
			op:      func() error { return RemoveComponent[Position](c, 40) },
			wantErr: ErrEntityNotFound,
		},
		{
			name: "create with duplicate kinds",
			op: func() error {
				_, err := Create(c, Health{}, Health{})
				return err
			},
			wantErr: ErrDuplicateComponent,
		},
		{
			name: "create with unregistered kind",
			op: func() error {
				_, err := Create(c, Health{}, Level{})
				return err
			},
			wantErr: ErrComponentNotRegistered,
		},
		{
			name: "create with impostor",
			op: func() error {
				_, err := Create(c, Position{}, Impostor{})
				return err
			},
			wantErr: ErrComponentNotRegistered,
		},
	}
	for _, tt := range tests {
		err := tt.op()
		require.Error(t, err, tt.name)
		assert.True(t, eris.Is(err, tt.wantErr), "%s: got %v", tt.name, err)

		assert.Equal(t, 1, c.EntityCount(), tt.name)
		got, err := c.Signature(eid)
		require.NoError(t, err)
		assert.Equal(t, sig, got, tt.name)
		assert.Equal(t, []EntityID{eid}, matched(t, c, "move"), tt.name)

		p, err := GetComponent[Position](c, eid)
		require.NoError(t, err)
		assert.Equal(t, 1, p.X, tt.name)
	}
}

func TestCoordinator_GetComponents(t *testing.T) {
	t.Parallel()

	c := newTestCoordinator(t, Options{})
	eid, err := Create(c, Position{X: 1}, Velocity{X: 2}, Health{Value: 3})
	require.NoError(t, err)

	p, v, err := GetComponents2[Position, Velocity](c, eid)
	require.NoError(t, err)
	assert.Equal(t, 1, p.X)
	assert.Equal(t, 2, v.X)

	p, v, h, err := GetComponents3[Position, Velocity, Health](c, eid)
	require.NoError(t, err)
	assert.Equal(t, 3, h.Value)

	// Mutations through the returned pointers are visible to later reads.
	p.X, v.X, h.Value = 10, 20, 30
	got, err := GetComponent[Health](c, eid)
	require.NoError(t, err)
	assert.Equal(t, 30, got.Value)

	require.NoError(t, RemoveComponent[Velocity](c, eid))
	_, _, err = GetComponents2[Position, Velocity](c, eid)
	assert.True(t, eris.Is(err, ErrComponentNotFound))
	_, _, _, err = GetComponents3[Position, Health, Velocity](c, eid)
	assert.True(t, eris.Is(err, ErrComponentNotFound))

	_, err = GetComponent[Health](c, 50)
	assert.True(t, eris.Is(err, ErrEntityNotFound))
	assert.False(t, HasComponent[Health](c, 50))
}

func TestCoordinator_RegisterSystem(t *testing.T) {
	t.Parallel()

	c := newTestCoordinator(t, Options{})

	// Entities that exist before the system are picked up at registration.
	early, err := Create(c, Position{}, Health{})
	require.NoError(t, err)
	_, err = Create(c, Position{})
	require.NoError(t, err)

	require.NoError(t, c.RegisterSystem(&testSystem{name: "heal", requires: []Component{Position{}, Health{}}}))
	assert.Equal(t, []EntityID{early}, matched(t, c, "heal"))

	err = c.RegisterSystem(&testSystem{name: "heal"})
	require.Error(t, err)

	err = c.RegisterSystem(&testSystem{name: "level", requires: []Component{Level{}}})
	assert.True(t, eris.Is(err, ErrComponentNotRegistered))

	assert.Equal(t, []string{"heal"}, c.RegisteredSystems())
	_, ok := c.SystemEntities("level")
	assert.False(t, ok, "a rejected system must not be registered")
}

// A system that mutates membership of other systems during Update sees consistent state next frame.
func TestCoordinator_SystemMutatesWorld(t *testing.T) {
	t.Parallel()

	c := newTestCoordinator(t, Options{})

	// Kills every entity whose health dropped to zero.
	reaper := &testSystem{
		name:     "reaper",
		requires: []Component{Health{}},
		fn: func(c *Coordinator, entities EntitySet, _ time.Duration) error {
			for _, eid := range entities.Slice() {
				h, err := GetComponent[Health](c, eid)
				if err != nil {
					return err
				}
				if h.Value <= 0 {
					if err := c.DestroyEntity(eid); err != nil {
						return err
					}
				}
			}
			return nil
		},
	}
	require.NoError(t, c.RegisterSystem(reaper))

	alive, err := Create(c, Health{Value: 1})
	require.NoError(t, err)
	_, err = Create(c, Health{Value: 0})
	require.NoError(t, err)
	_, err = Create(c, Health{Value: -3})
	require.NoError(t, err)

	require.NoError(t, c.Update(time.Millisecond))
	assert.Equal(t, 1, c.EntityCount())
	assert.Equal(t, []EntityID{alive}, matched(t, c, "reaper"))
	assert.Equal(t, []EntityID{0, 1, 2}, reaper.runs[0])
}

func TestCoordinator_DumpEntity(t *testing.T) {
	t.Parallel()

	c := newTestCoordinator(t, Options{})
	eid, err := Create(c, Position{X: 1, Y: 2}, Health{Value: 50})
	require.NoError(t, err)

	state, err := c.DumpEntity(eid)
	require.NoError(t, err)
	assert.Equal(t, eid, state.ID)
	assert.Equal(t, "101", state.Signature)
	require.Len(t, state.Components, 2)
	assert.JSONEq(t, `{"x":1,"y":2}`, string(state.Components["Position"]))
	assert.JSONEq(t, `{"value":50}`, string(state.Components["Health"]))

	data, err := json.Marshal(state)
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"id":0,"signature":"101","components":{"Position":{"x":1,"y":2},"Health":{"value":50}}}`,
		string(data))

	_, err = c.DumpEntity(33)
	assert.True(t, eris.Is(err, ErrEntityNotFound))
}

func TestCoordinator_Logging(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)
	c := newTestCoordinator(t, Options{Logger: &logger})
	assert.Contains(t, buf.String(), `"total_components":3`)

	buf.Reset()
	eid, err := Create(c, Velocity{}, Health{})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "entity created")

	buf.Reset()
	require.NoError(t, c.LogEntity(eid, zerolog.InfoLevel))
	require.JSONEq(t, `{
		"level":"info",
		"components":[
			{"component_id":1,"component_name":"Velocity"},
			{"component_id":2,"component_name":"Health"}
		],
		"entity_id":0,
		"signature":"110"
	}`, buf.String())

	assert.True(t, eris.Is(c.LogEntity(9, zerolog.InfoLevel), ErrEntityNotFound))
}

func TestCoordinator_Introspection(t *testing.T) {
	t.Parallel()

	c := newTestCoordinator(t, Options{})
	assert.Equal(t, []string{"Position", "Velocity", "Health"}, c.Mapper().Kinds())

	components := c.RegisteredComponents()
	require.Len(t, components, 3)
	assert.Equal(t, "Velocity", components[1].Name())
	assert.Equal(t, uint32(1), components[1].ID())

	eid, err := c.CreateEntity()
	require.NoError(t, err)
	sig, err := c.Signature(eid)
	require.NoError(t, err)
	assert.True(t, sig.IsEmpty())
	assert.True(t, c.Alive(eid))
	assert.False(t, c.Alive(eid+1))
}

// -------------------------------------------------------------------------------------------------
// Model-Based Fuzzing
//
// Random create/destroy/add/remove sequences against several systems. After every step each
// system's matched set equals the set of live entities whose signature is a superset of the
// system's requirement, and every signature equals the kinds the entity holds.
// -------------------------------------------------------------------------------------------------

func TestCoordinator_MembershipModelBasedFuzz(t *testing.T) {
	t.Parallel()
	prng := testutils.NewRand(t)

	const (
		opsMax      = 1 << 12
		maxEntities = 48
	)

	c := newTestCoordinator(t, Options{MaxEntities: maxEntities})
	requirements := map[string][]Component{
		"pos":     {Position{}},
		"pos_vel": {Position{}, Velocity{}},
		"all":     {Position{}, Velocity{}, Health{}},
		"health":  {Health{}},
		"any":     nil,
	}
	for name, req := range requirements {
		require.NoError(t, c.RegisterSystem(&testSystem{name: name, requires: req}))
	}

	model := make(map[EntityID]map[string]struct{}) // Live entity -> held kind names

	for range opsMax {
		switch testutils.RandWeightedOp(prng, coordinatorOps) {
		case coordinatorOpCreate:
			eid, err := c.CreateEntity()
			if len(model) == maxEntities {
				assert.True(t, eris.Is(err, ErrCapacityExceeded))
				break
			}
			require.NoError(t, err)
			_, dup := model[eid]
			require.False(t, dup, "entity %d handed out while alive", eid)
			model[eid] = make(map[string]struct{})

		case coordinatorOpDestroy:
			if len(model) == 0 {
				break
			}
			eid := testutils.RandMapKey(prng, model)
			require.NoError(t, c.DestroyEntity(eid))
			delete(model, eid)

		case coordinatorOpAdd:
			if len(model) == 0 {
				break
			}
			eid := testutils.RandMapKey(prng, model)
			kind := fuzzAdd(t, c, eid, prng.IntN(3))
			if _, held := model[eid][kind]; held {
				break
			}
			model[eid][kind] = struct{}{}

		case coordinatorOpRemove:
			if len(model) == 0 {
				break
			}
			eid := testutils.RandMapKey(prng, model)
			kind := fuzzRemove(t, c, eid, prng.IntN(3))
			delete(model[eid], kind)

		default:
			panic("unreachable")
		}

		assertMembership(t, c, model, requirements)
	}
}

type coordinatorOp uint8

const (
	coordinatorOpCreate  coordinatorOp = 25
	coordinatorOpDestroy coordinatorOp = 15
	coordinatorOpAdd     coordinatorOp = 35
	coordinatorOpRemove  coordinatorOp = 24
)

var coordinatorOps = []coordinatorOp{coordinatorOpCreate, coordinatorOpDestroy, coordinatorOpAdd, coordinatorOpRemove}

var fuzzKinds = []string{"Position", "Velocity", "Health"}

// fuzzAdd adds the kind at index i, checking the result against whether it was already held.
func fuzzAdd(t *testing.T, c *Coordinator, eid EntityID, i int) string {
	t.Helper()

	had := HasComponent[Position](c, eid)
	var err error
	switch i {
	case 0:
		err = AddComponent(c, eid, Position{X: int(eid)})
	case 1:
		had = HasComponent[Velocity](c, eid)
		err = AddComponent(c, eid, Velocity{X: int(eid)})
	case 2:
		had = HasComponent[Health](c, eid)
		err = AddComponent(c, eid, Health{Value: int(eid)})
	}
	if had {
		assert.True(t, eris.Is(err, ErrDuplicateComponent))
	} else {
		require.NoError(t, err)
	}
	return fuzzKinds[i]
}

// fuzzRemove removes the kind at index i, checking the result against whether it was held.
func fuzzRemove(t *testing.T, c *Coordinator, eid EntityID, i int) string {
	t.Helper()

	var had bool
	var err error
	switch i {
	case 0:
		had = HasComponent[Position](c, eid)
		err = RemoveComponent[Position](c, eid)
	case 1:
		had = HasComponent[Velocity](c, eid)
		err = RemoveComponent[Velocity](c, eid)
	case 2:
		had = HasComponent[Health](c, eid)
		err = RemoveComponent[Health](c, eid)
	}
	if had {
		require.NoError(t, err)
	} else {
		assert.True(t, eris.Is(err, ErrComponentNotFound))
	}
	return fuzzKinds[i]
}

func assertMembership(
	t *testing.T, c *Coordinator, model map[EntityID]map[string]struct{}, requirements map[string][]Component,
) {
	t.Helper()

	require.Equal(t, len(model), c.EntityCount())
	for eid, held := range model {
		names := make([]string, 0, len(held))
		for name := range held {
			names = append(names, name)
		}
		want, err := c.Mapper().MapNames(names...)
		require.NoError(t, err)
		got, err := c.Signature(eid)
		require.NoError(t, err)
		require.Equal(t, want, got, "entity %d signature", eid)
	}

	for name, req := range requirements {
		required, err := c.Mapper().MapMultiple(req...)
		require.NoError(t, err)

		var want []EntityID
		for eid := range model {
			sig, _ := c.Signature(eid)
			if sig.Test(required) {
				want = append(want, eid)
			}
		}
		require.ElementsMatch(t, want, matched(t, c, name), "system %s", name)
	}
}
