// Package components defines ECS components for the tank simulation.
package components

// Position is an agent's world position.
type Position struct {
	X, Y float64
}

// Velocity is an agent's velocity in world units per tick.
type Velocity struct {
	X, Y float64
}
