package searcher

import (
	"fmt"
	"strconv"

	"github.com/awalterschulze/gographviz"
	"github.com/pkg/errors"
)

// Dot renders the nodes reachable from the root as a Graphviz digraph. Each
// node is labelled with its state, visits and average reward.
func (t *Tree) Dot() (string, error) {
	g := gographviz.NewGraph()
	if err := g.SetName("G"); err != nil {
		return "", errors.Wrap(err, "name graph")
	}
	if err := g.SetDir(true); err != nil {
		return "", errors.Wrap(err, "direct graph")
	}

	var err error
	t.walk(func(id NodeID, _ int) {
		if err != nil {
			return
		}
		n := &t.nodes[id]
		label := fmt.Sprintf("%v\nvisits=%d avg=%.3f", n.state, n.visits, n.reward/float64(n.visits))
		attrs := map[string]string{
			"shape": "box",
			"label": strconv.Quote(label),
		}
		if id == t.root {
			attrs["style"] = "bold"
		}
		if err = g.AddNode("G", nodeName(id), attrs); err != nil {
			err = errors.Wrapf(err, "add node %d", id)
			return
		}
		if n.parent != nilNode && id != t.root {
			if err = g.AddEdge(nodeName(n.parent), nodeName(id), true, nil); err != nil {
				err = errors.Wrapf(err, "add edge %d -> %d", n.parent, id)
			}
		}
	})
	if err != nil {
		return "", err
	}
	return g.String(), nil
}

func nodeName(id NodeID) string {
	return "n" + strconv.Itoa(int(id))
}
