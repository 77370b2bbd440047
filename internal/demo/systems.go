package demo

import (
	"time"

	"github.com/nexus-engine/nexus/pkg/ecs"
	"github.com/rotisserie/eris"
)

// PhysicsSystem integrates position, velocity and rotation of every body under gravity.
type PhysicsSystem struct{}

func (PhysicsSystem) Name() string { return "physics" }

func (PhysicsSystem) Requires() []ecs.Component {
	return []ecs.Component{Gravity{}, RigidBody{}, Transform{}}
}

func (PhysicsSystem) Update(c *ecs.Coordinator, entities ecs.EntitySet, dt time.Duration) error {
	seconds := dt.Seconds()
	for eid := range entities.All() {
		gravity, body, transform, err := ecs.GetComponents3[Gravity, RigidBody, Transform](c, eid)
		if err != nil {
			return eris.Wrapf(err, "entity %d", eid)
		}

		transform.Position = transform.Position.Add(body.Velocity.Scale(seconds))
		transform.Rotation = transform.Rotation.Add(body.AngularVelocity.Scale(seconds))
		body.Velocity = body.Velocity.Add(gravity.Force.Scale(seconds))
	}
	return nil
}

// ThrustSystem accelerates every body that has an engine.
type ThrustSystem struct{}

func (ThrustSystem) Name() string { return "thrust" }

func (ThrustSystem) Requires() []ecs.Component {
	return []ecs.Component{Thrust{}, RigidBody{}}
}

func (ThrustSystem) Update(c *ecs.Coordinator, entities ecs.EntitySet, dt time.Duration) error {
	seconds := dt.Seconds()
	for eid := range entities.All() {
		thrust, body, err := ecs.GetComponents2[Thrust, RigidBody](c, eid)
		if err != nil {
			return eris.Wrapf(err, "entity %d", eid)
		}
		body.Velocity = body.Velocity.Add(thrust.Force.Scale(seconds))
	}
	return nil
}
