package searcher

import (
	"fmt"
	"time"
	"uct/game"

	"github.com/pkg/errors"
	"golang.org/x/exp/rand"
)

type node struct {
	state    game.State
	parent   NodeID   // non-owning, nilNode for the root
	children []NodeID // owned, in expansion order
	visits   int      // starts at 1 so scores never divide by zero
	reward   float64
}

// Tree is an arena of nodes owned by a single searcher. Nodes refer to each
// other by index: children own their subtrees, parents are plain back
// references used when backing up rewards.
//
// A Tree is not safe for concurrent use.
type Tree struct {
	nodes     []node
	root      NodeID
	rng       *rand.Rand
	threshold int // minimum arena length before compacting
	compactAt int
	ties      []NodeID // scratch buffer for BestChild
}

// NewTree wraps state in a root node. A nil rng is replaced by one seeded
// from the clock.
func NewTree(state game.State, rng *rand.Rand) *Tree {
	if rng == nil {
		rng = rand.New(rand.NewSource(uint64(time.Now().UnixNano())))
	}
	t := &Tree{
		nodes:     make([]node, 0, 64),
		rng:       rng,
		threshold: DefaultCompactThreshold,
		compactAt: DefaultCompactThreshold,
	}
	t.root = t.alloc(state, nilNode)
	return t
}

func (t *Tree) alloc(state game.State, parent NodeID) NodeID {
	t.nodes = append(t.nodes, node{
		state:  state,
		parent: parent,
		visits: 1,
		reward: 0,
	})
	return NodeID(len(t.nodes) - 1)
}

func (t *Tree) Root() NodeID { return t.root }

func (t *Tree) State(id NodeID) game.State { return t.nodes[id].state }

func (t *Tree) Parent(id NodeID) NodeID { return t.nodes[id].parent }

// Children returns the children of id in expansion order. The slice must not be modified.
func (t *Tree) Children(id NodeID) []NodeID { return t.nodes[id].children }

func (t *Tree) Visits(id NodeID) int { return t.nodes[id].visits }

func (t *Tree) Reward(id NodeID) float64 { return t.nodes[id].reward }

// Len returns the arena length, including nodes dropped by root advances
// that have not been compacted yet.
func (t *Tree) Len() int { return len(t.nodes) }

// Size returns the number of nodes reachable from the root.
func (t *Tree) Size() int {
	size := 0
	t.walk(func(NodeID, int) { size++ })
	return size
}

// Depth returns the depth of the deepest node below the root.
func (t *Tree) Depth() int {
	deepest := 0
	t.walk(func(_ NodeID, depth int) { deepest = max(deepest, depth) })
	return deepest
}

// walk visits the nodes reachable from the root breadth first.
func (t *Tree) walk(visit func(id NodeID, depth int)) {
	queue := []NodeID{t.root}
	depths := []int{0}
	for head := 0; head < len(queue); head++ {
		id, depth := queue[head], depths[head]
		visit(id, depth)
		for _, kid := range t.nodes[id].children {
			queue = append(queue, kid)
			depths = append(depths, depth+1)
		}
	}
}

// AddChild appends a node wrapping state to the children of id.
func (t *Tree) AddChild(id NodeID, state game.State) NodeID {
	child := t.alloc(state, id)
	t.nodes[id].children = append(t.nodes[id].children, child)
	return child
}

// Expand samples successors of id until one differs from every existing
// child, then adds it. Expanding a fully expanded node never terminates, so
// it panics instead.
func (t *Tree) Expand(id NodeID) NodeID {
	if t.FullyExpanded(id) {
		panic(fmt.Sprintf("cannot expand node %d: all %d children exist", id, len(t.nodes[id].children)))
	}

	parent := t.nodes[id].state
	state := parent.Next(t.rng)
	for t.findChild(id, state.Hash()) != nilNode {
		state = parent.Next(t.rng)
	}
	return t.AddChild(id, state)
}

// findChild finds the child of id whose state has the given hash
func (t *Tree) findChild(id NodeID, hash game.StateHash) NodeID {
	for _, kid := range t.nodes[id].children {
		if t.nodes[kid].state.Hash() == hash {
			return kid
		}
	}
	return nilNode
}

func (t *Tree) FullyExpanded(id NodeID) bool {
	n := &t.nodes[id]
	return len(n.children) == n.state.MaxMove()
}

// Simulate plays random transitions from the state of id until a terminal
// state and returns its reward. The tree is left untouched.
func (t *Tree) Simulate(id NodeID) float64 {
	state := t.nodes[id].state
	for !state.Terminal() {
		state = state.Next(t.rng)
	}
	return state.Reward()
}

// Backup records reward on id and every ancestor up to the root.
func (t *Tree) Backup(id NodeID, reward float64) {
	for id != nilNode {
		n := &t.nodes[id]
		n.visits++
		n.reward += reward
		id = n.parent
	}
}

// Advance makes a child of the root the new root. The rest of the old tree
// becomes unreachable and is reclaimed by the next compaction, which also
// renumbers the surviving nodes.
func (t *Tree) Advance(id NodeID) error {
	if int(id) < 0 || int(id) >= len(t.nodes) || t.nodes[id].parent != t.root {
		return errors.Errorf("node %d is not a child of root %d", id, t.root)
	}

	t.nodes[id].parent = nilNode
	t.root = id

	if len(t.nodes) >= t.compactAt {
		t.compact()
		t.compactAt = max(t.threshold, 2*len(t.nodes))
	}
	return nil
}

// SetCompactThreshold sets the arena length at which advancing the root
// compacts away unreachable nodes.
func (t *Tree) SetCompactThreshold(threshold int) {
	if threshold <= 0 {
		panic("compact threshold must be positive")
	}
	t.threshold = threshold
	t.compactAt = max(threshold, len(t.nodes))
}

// compact copies the nodes reachable from the root into a fresh arena in
// breadth first order. The root becomes node 0.
func (t *Tree) compact() {
	nodes := make([]node, 0, t.Size())
	old := []NodeID{t.root}

	root := t.nodes[t.root]
	root.parent = nilNode
	nodes = append(nodes, root)

	for head := 0; head < len(nodes); head++ {
		kids := t.nodes[old[head]].children
		renamed := make([]NodeID, len(kids))
		for i, kid := range kids {
			child := t.nodes[kid]
			child.parent = NodeID(head)
			renamed[i] = NodeID(len(nodes))
			nodes = append(nodes, child)
			old = append(old, kid)
		}
		nodes[head].children = renamed
	}

	t.nodes = nodes
	t.root = 0
}
