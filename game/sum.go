package game

import (
	"encoding/binary"
	"fmt"
	"math"
	"slices"

	"github.com/zeebo/xxh3"
	"golang.org/x/exp/rand"
)

// Rules of the running-sum problem: over NumTurns turns a move from Moves,
// scaled by the number of turns left, is added to the value. The closer the
// final value lands to Goal, the higher the reward.
const (
	NumTurns = 10
	Goal     = 0
	MaxValue = 5.0 * (NumTurns - 1) * NumTurns / 2
)

var Moves = []int{2, -2, 3, -3}

// SumState is one position of the running-sum problem.
type SumState struct {
	value   int
	turn    int
	moves   []int
	encoded []byte // varint move history, the input of hash
	hash    StateHash
}

// NewSumState returns the starting position: value 0 with NumTurns turns left.
func NewSumState() *SumState {
	return &SumState{
		turn: NumTurns,
		hash: StateHash(xxh3.Hash(nil)),
	}
}

func (s *SumState) Next(rng *rand.Rand) State {
	move := Moves[rng.Intn(len(Moves))] * s.turn
	encoded := binary.AppendVarint(slices.Clip(s.encoded), int64(move))
	return &SumState{
		value:   s.value + move,
		turn:    s.turn - 1,
		moves:   append(slices.Clip(s.moves), move),
		encoded: encoded,
		hash:    StateHash(xxh3.Hash(encoded)),
	}
}

func (s *SumState) Terminal() bool {
	return s.turn == 0
}

func (s *SumState) Reward() float64 {
	return 1.0 - math.Abs(float64(s.value-Goal))/MaxValue
}

func (s *SumState) MaxMove() int {
	return len(Moves)
}

func (s *SumState) Hash() StateHash {
	return s.hash
}

func (s *SumState) Value() int {
	return s.value
}

// Turn returns the number of turns left.
func (s *SumState) Turn() int {
	return s.turn
}

func (s *SumState) Moves() []int {
	return slices.Clone(s.moves)
}

func (s *SumState) String() string {
	return fmt.Sprintf("Value: %d; Moves: %v", s.value, s.moves)
}
