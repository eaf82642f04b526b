package searcher

import "github.com/pkg/errors"

// NodeID addresses a node in a Tree's arena. IDs stay valid until the tree
// compacts, which only happens while advancing the root.
type NodeID int32

const nilNode NodeID = -1

var (
	// ErrNoChildren is returned when a best child is requested from a node
	// that has not been expanded, e.g. a zero budget search on a fresh root.
	ErrNoChildren = errors.New("node has no children")
	// ErrNoScore is returned when no child has a comparable score, which
	// happens when the state space hands out NaN rewards.
	ErrNoScore = errors.New("no child has a comparable score")
)
