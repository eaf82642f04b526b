// meta/meta.go
package meta

import "uct/game"

// WORKERS defines the number of concurrent search workers.
const WORKERS = 5

// INITIAL_BUDGET defines the iterations of the first search; later steps get INITIAL_BUDGET/(step+1).
const INITIAL_BUDGET = 10

// STEPS defines the number of searches per episode, enough to finish the running-sum problem.
const STEPS = game.NumTurns

// SEED defines the base seed; worker i uses SEED+i.
const SEED = 1

// OUT_DIR defines where experiment records are stored.
const OUT_DIR = "experiments"
