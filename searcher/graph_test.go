package searcher

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTreeDot(t *testing.T) {
	t.Run("single root", func(t *testing.T) {
		tree := NewTree(forkState(), newRand(1))

		dot, err := tree.Dot()

		require.NoError(t, err)
		require.True(t, strings.HasPrefix(strings.TrimSpace(dot), "digraph G"), "Should render a digraph")
		require.Contains(t, dot, "n0")
		require.Contains(t, dot, "visits=1")
	})

	t.Run("only renders the reachable tree", func(t *testing.T) {
		s := newSearcher(bitState{limit: 3}, 2)
		_, _, err := s.Search(context.Background(), 20)
		require.NoError(t, err)

		dot, err := s.tree.Dot()

		require.NoError(t, err)
		require.Contains(t, dot, nodeName(s.tree.Root()))
		require.Equal(t, s.tree.Size()-1, strings.Count(dot, "->"), "Should draw one edge per non-root node")
		require.NotContains(t, dot, nodeName(0)+"->", "Old root should be dropped")
	})
}
