// Package testutils holds the component kinds the ecs tests are built around.
package testutils

type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (Position) Name() string { return "Position" }

type Velocity struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (Velocity) Name() string { return "Velocity" }

type Health struct {
	Value int `json:"value"`
}

func (Health) Name() string { return "Health" }

type Level struct{ Value int }

func (Level) Name() string { return "Level" }

type PlayerTag struct{ Tag string }

func (PlayerTag) Name() string { return "PlayerTag" }

// Impostor shares Health's name with a different Go type.
type Impostor struct{ Value string }

func (Impostor) Name() string { return "Health" }

// Unregistered is never part of a test coordinator's kind list.
type Unregistered struct{}

func (Unregistered) Name() string { return "Unregistered" }
