package engine

import (
	"testing"

	"github.com/hailam/chessplay/internal/board"
)

// TestQuiescenceCaptureChainBound exercises quiescence (via Search at
// depth 0, which negamax routes straight into it) on a position with a
// pending queen capture on f7, and checks the returned score stays close
// to the standing-pat evaluation rather than running away on an unbounded
// capture chain.
func TestQuiescenceCaptureChainBound(t *testing.T) {
	pos, err := board.ParseFEN("r1bqkbnr/pppp1ppp/2n5/4p3/2B1P3/5Q2/PPPP1PPP/RNB1K1NR w - - 0 1")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}

	standPat := EvaluateWithPawnTable(pos, nil)

	tt := NewTranspositionTable(1)
	s := NewSearcher(tt)
	_, score := s.Search(pos, 0)

	if score < standPat {
		t.Errorf("quiescence score %d fell below the standing-pat evaluation %d", score, standPat)
	}
	if score > standPat+2*QueenValue {
		t.Errorf("quiescence score %d ran implausibly far past standing pat %d (infinite capture chain?)", score, standPat)
	}
}
