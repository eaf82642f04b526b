package searcher

import "math"

// Hyperparameters for UCT

const DefaultScalar = 1 / math.Sqrt2 // Exploration scalar with the classic regret bound for rewards in [0, 1]

// Chance of descending into the best child of a node that could still be expanded
const DefaultDescendProbability = 0.5

// Arena length that triggers a compaction of branches dropped by root advances
const DefaultCompactThreshold = 1 << 16
