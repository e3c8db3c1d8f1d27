package engine

import (
	"github.com/hailam/chessplay/internal/board"
)

// Move ordering scores, highest first.
const (
	TTMoveScore    = 10_000_000
	CaptureBase    = 1_000_000
	PromotionScore = CaptureBase - 1_000
	KillerScore1   = 900_000
	KillerScore2   = 800_000
)

// pieceValue indexes by board.PieceType for MVV-LVA scoring.
var pieceValue = board.PieceValue

// MoveOrderer holds the per-search killer and history tables used to score
// and sort candidate moves before the main negamax loop visits them.
type MoveOrderer struct {
	killers [MaxPly][2]board.Move
	history [2][64][64]int // [color][from][to]
}

// NewMoveOrderer creates an empty orderer.
func NewMoveOrderer() *MoveOrderer {
	return &MoveOrderer{}
}

// Clear resets killers and history for a new game.
func (mo *MoveOrderer) Clear() {
	for i := range mo.killers {
		mo.killers[i][0], mo.killers[i][1] = board.NoMove, board.NoMove
	}
	for c := 0; c < 2; c++ {
		for f := 0; f < 64; f++ {
			for t := 0; t < 64; t++ {
				mo.history[c][f][t] = 0
			}
		}
	}
}

// scoreMove assigns an ordering score to m. ttMove is boosted to the front;
// captures are ranked by victim*10-attacker (MVV-LVA); promotions next;
// quiet killers and history moves fill the remainder.
func (mo *MoveOrderer) scoreMove(m board.Move, ttMove board.Move, ply int, stm board.Color, pos *board.Position) int {
	if m == ttMove {
		return TTMoveScore
	}

	if m.IsCapture() {
		victim := pos.PieceAt(m.To())
		attacker := pos.PieceAt(m.From())
		victimVal := pieceValue[board.Pawn]
		if victim != board.NoPiece {
			victimVal = pieceValue[victim.Type()]
		}
		attackerVal := 0
		if attacker != board.NoPiece {
			attackerVal = pieceValue[attacker.Type()]
		}
		if m.IsEnPassant() {
			victimVal = pieceValue[board.Pawn]
		}
		return CaptureBase + victimVal*10 - attackerVal
	}

	if m.IsPromotion() {
		return PromotionScore + pieceValue[m.Promotion()]
	}

	if ply < MaxPly {
		if m == mo.killers[ply][0] {
			return KillerScore1
		}
		if m == mo.killers[ply][1] {
			return KillerScore2
		}
	}

	return mo.history[stm][m.From()][m.To()]
}

// ScoreMoves fills scores[i] with the ordering score of moves.Get(i).
func (mo *MoveOrderer) ScoreMoves(moves *board.MoveList, scores []int, ttMove board.Move, ply int, stm board.Color, pos *board.Position) {
	for i := 0; i < moves.Len(); i++ {
		scores[i] = mo.scoreMove(moves.Get(i), ttMove, ply, stm, pos)
	}
}

// PickMove performs one step of a partial selection sort: it finds the
// highest-scoring move among indices [from, moves.Len()), swaps it into
// position from, and returns it. Called once per move per node instead of
// sorting the whole list up front, so the tail is never touched when a beta
// cutoff ends the loop early.
func PickMove(moves *board.MoveList, scores []int, from int) board.Move {
	best := from
	for i := from + 1; i < moves.Len(); i++ {
		if scores[i] > scores[best] {
			best = i
		}
	}
	if best != from {
		moves.Swap(from, best)
		scores[from], scores[best] = scores[best], scores[from]
	}
	return moves.Get(from)
}

// UpdateKillers records m as a killer move at ply, the quiet move that
// caused a beta cutoff, bumping the previous first killer to second.
func (mo *MoveOrderer) UpdateKillers(m board.Move, ply int) {
	if ply >= MaxPly || m.IsCapture() {
		return
	}
	if m == mo.killers[ply][0] {
		return
	}
	mo.killers[ply][1] = mo.killers[ply][0]
	mo.killers[ply][0] = m
}

// UpdateHistory rewards a quiet move that caused a cutoff, scaled by depth
// squared, and ages the table to keep scores bounded.
func (mo *MoveOrderer) UpdateHistory(m board.Move, stm board.Color, depth int) {
	if m.IsCapture() {
		return
	}
	bonus := depth * depth
	h := &mo.history[stm][m.From()][m.To()]
	*h += bonus
	if *h > 1_000_000 {
		for c := 0; c < 2; c++ {
			for f := 0; f < 64; f++ {
				for t := 0; t < 64; t++ {
					mo.history[c][f][t] /= 2
				}
			}
		}
	}
}
