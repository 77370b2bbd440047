// Package demo is a small physics simulation built on the ecs runtime. It backs the nexus binary.
package demo

// Vec3 is a 3D vector.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Splat returns a vector with every coordinate set to v.
func Splat(v float64) Vec3 {
	return Vec3{X: v, Y: v, Z: v}
}

func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z}
}

func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{X: v.X * s, Y: v.Y * s, Z: v.Z * s}
}

// Gravity is a constant force applied to a rigid body.
type Gravity struct {
	Force Vec3 `json:"force"`
}

func (Gravity) Name() string { return "Gravity" }

type RigidBody struct {
	Velocity        Vec3 `json:"velocity"`
	Acceleration    Vec3 `json:"acceleration"`
	AngularVelocity Vec3 `json:"angular_velocity"` // degrees per second
}

func (RigidBody) Name() string { return "RigidBody" }

type Transform struct {
	Position Vec3 `json:"position"`
	Rotation Vec3 `json:"rotation"` // degrees
	Scale    Vec3 `json:"scale"`
}

func (Transform) Name() string { return "Transform" }

// Thrust is an engine force accelerating a rigid body.
type Thrust struct {
	Force Vec3 `json:"force"`
}

func (Thrust) Name() string { return "Thrust" }
