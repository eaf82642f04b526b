package searcher

import (
	"math"

	"github.com/pkg/errors"
)

func uct(reward float64, visits int, parentVisits int, scalar float64) float64 {
	// UCT = reward/visits + scalar*sqrt(2*ln(N)/visits)
	exploit := reward / float64(visits)
	explore := math.Sqrt(2 * math.Log(float64(parentVisits)) / float64(visits))
	return exploit + scalar*explore
}

// Score returns the UCT score of id as a child of a node visited parentVisits times.
func (t *Tree) Score(id NodeID, parentVisits int, scalar float64) float64 {
	n := &t.nodes[id]
	return uct(n.reward, n.visits, parentVisits, scalar)
}

// BestChild returns the child of id with the highest UCT score, drawing
// uniformly among children with exactly equal scores. A scalar of 0 ranks
// children by average reward only.
func (t *Tree) BestChild(id NodeID, scalar float64) (NodeID, error) {
	children := t.nodes[id].children
	if len(children) == 0 {
		return nilNode, errors.Wrapf(ErrNoChildren, "node %d", id)
	}

	parentVisits := t.nodes[id].visits
	best := math.Inf(-1)
	ties := t.ties[:0]
	for _, kid := range children {
		score := t.Score(kid, parentVisits, scalar)
		switch {
		case score > best:
			best = score
			ties = append(ties[:0], kid)
		case score == best:
			ties = append(ties, kid)
		}
	}
	t.ties = ties

	if len(ties) == 0 {
		return nilNode, errors.Wrapf(ErrNoScore, "node %d", id)
	}
	if len(ties) == 1 {
		return ties[0], nil
	}
	return ties[t.rng.Intn(len(ties))], nil
}
