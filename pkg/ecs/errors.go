package ecs

import "github.com/rotisserie/eris"

// Precondition failures. Every operation checks its preconditions before mutating anything, so an
// operation that returns one of these errors leaves the coordinator untouched.
var (
	// ErrEntityNotFound is returned when an entity ID is out of range or not currently alive.
	ErrEntityNotFound = eris.New("entity does not exist")

	// ErrCapacityExceeded is returned when creating an entity while MaxEntities are alive.
	ErrCapacityExceeded = eris.New("max number of entities exceeded")

	// ErrComponentNotFound is returned when removing or getting a component the entity doesn't have.
	ErrComponentNotFound = eris.New("entity does not have component")

	// ErrDuplicateComponent is returned when adding a component kind the entity already has.
	ErrDuplicateComponent = eris.New("entity already has component")

	// ErrComponentNotRegistered is returned for component kinds outside the configured list.
	ErrComponentNotRegistered = eris.New("component not registered")

	// ErrDuplicateComponentKind is returned when the configured kind list names a kind twice.
	ErrDuplicateComponentKind = eris.New("component kind configured more than once")

	// ErrTooManyComponents is returned when more kinds are configured than the signature can hold.
	ErrTooManyComponents = eris.New("too many component kinds")

	// ErrNoComponentKinds is returned when a coordinator is built without any component kind.
	ErrNoComponentKinds = eris.New("at least one component kind is required")
)
