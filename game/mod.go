package game

import "golang.org/x/exp/rand"

type StateHash uint64

// State is a point in a decision problem searched by UCT.
//
// A State must be immutable: Next always returns a new value. Two states
// reached by the same sequence of transitions must have the same Hash, and
// states with the same Hash are treated as equal.
//
// The successor support of Next must be finite and hold at most MaxMove
// distinct states. Expansion resamples Next until it finds an unseen
// successor and rollouts call Next until Terminal, so a state space that
// violates this may never terminate.
type State interface {
	Terminal() bool
	// Next samples a successor. It may be stochastic.
	Next(rng *rand.Rand) State
	// Reward scores the state. Only meaningful when Terminal is true.
	Reward() float64
	// MaxMove is the number of distinct successors a state can have.
	MaxMove() int
	Hash() StateHash
}

// Equal reports whether two states are the same point of the state space.
func Equal(a, b State) bool {
	return a.Hash() == b.Hash()
}
