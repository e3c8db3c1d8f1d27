// Package engine implements the chess AI search engine.
package engine

import (
	"github.com/hailam/chessplay/internal/board"
)

// Material values in centipawns, indexed by board.PieceType. Shared with
// move ordering via board.PieceValue.
const (
	PawnValue   = 100
	KnightValue = 300
	BishopValue = 300
	RookValue   = 500
	QueenValue  = 900
	KingValue   = 20000
)

var pieceValues = board.PieceValue

// Game-phase weight per piece, totalling 24 at the starting position
// (4 knights + 4 bishops + 4 rooks*2 + 2 queens*4), used to taper between
// middlegame and endgame scores.
var phaseWeight = [6]int{0, 1, 1, 2, 4, 0}

const maxPhase = 24

// Tempo bonus rewards whoever is actually to move, tapered like every other
// term. It is added to the side-to-move's score before the mg/eg blend and
// before the final white/black perspective flip, so the side on move always
// gets it rather than White unconditionally getting it.
const (
	mgTempo = 10
	egTempo = 5
)

// Piece-square tables, White's perspective with A1 at index 0. A black
// piece's table value is read via sq.Mirror().
var pawnPST_mg = [64]int{
	0, 0, 0, 0, 0, 0, 0, 0,
	-35, -1, -20, -23, -15, 24, 38, -22,
	-26, -4, -4, -10, 3, 3, 33, -12,
	-27, -2, -5, 12, 17, 6, 10, -25,
	-14, 13, 6, 21, 23, 12, 17, -23,
	-6, 7, 26, 31, 65, 56, 25, -20,
	98, 134, 61, 95, 68, 126, 34, -11,
	0, 0, 0, 0, 0, 0, 0, 0,
}

var pawnPST_eg = [64]int{
	0, 0, 0, 0, 0, 0, 0, 0,
	13, 8, 8, 10, 13, 0, 2, -7,
	4, 7, -6, 1, 0, -5, -1, -8,
	13, 9, -3, -7, -7, -8, 3, -1,
	32, 24, 13, 5, -2, 4, 17, 17,
	94, 100, 85, 67, 56, 53, 82, 84,
	178, 173, 158, 134, 147, 132, 165, 187,
	0, 0, 0, 0, 0, 0, 0, 0,
}

var knightPST_mg = [64]int{
	-105, -21, -58, -33, -17, -28, -19, -23,
	-29, -53, -12, -3, -1, 18, -14, -19,
	-23, -9, 12, 10, 19, 17, 25, -16,
	-13, 4, 16, 13, 28, 19, 21, -8,
	-9, 17, 19, 53, 37, 69, 18, 22,
	-47, 60, 37, 65, 84, 129, 73, 44,
	-73, -41, 72, 36, 23, 62, 7, -17,
	-167, -89, -34, -49, 61, -97, -15, -107,
}

var knightPST_eg = [64]int{
	-29, -51, -23, -15, -22, -18, -50, -64,
	-42, -20, -10, -5, -2, -20, -23, -44,
	-23, -3, -1, 15, 10, -3, -20, -22,
	-18, -6, 16, 25, 16, 17, 4, -18,
	-17, 3, 22, 22, 22, 11, 8, -18,
	-24, -20, 10, 9, -1, -9, -19, -41,
	-25, -8, -25, -2, -9, -25, -24, -52,
	-58, -38, -13, -28, -31, -27, -63, -99,
}

var bishopPST_mg = [64]int{
	-33, -3, -14, -21, -13, -12, -39, -21,
	4, 15, 16, 0, 7, 21, 33, 1,
	0, 15, 15, 15, 14, 27, 18, 10,
	-6, 13, 13, 26, 34, 12, 10, 4,
	-4, 5, 19, 50, 37, 37, 7, -2,
	-16, 37, 43, 40, 35, 50, 37, -2,
	-26, 16, -18, -13, 30, 59, 18, -47,
	-29, 4, -82, -37, -25, -42, 7, -8,
}

var bishopPST_eg = [64]int{
	-23, -9, -23, -5, -9, -16, -5, -17,
	-14, -18, -7, -1, 4, -9, -15, -27,
	-12, -3, 8, 10, 13, 3, -7, -15,
	-6, 3, 13, 19, 7, 10, -3, -9,
	-3, 9, 12, 9, 14, 10, 3, 2,
	2, -8, 0, -1, -2, 6, 0, 4,
	-8, -4, 7, -12, -3, -13, -4, -14,
	-14, -21, -11, -8, -7, -9, -17, -24,
}

var rookPST_mg = [64]int{
	-19, -13, 1, 17, 16, 7, -37, -26,
	-44, -16, -20, -9, -1, 11, -6, -71,
	-45, -25, -16, -17, 3, 0, -5, -33,
	-36, -26, -12, -1, 9, -7, 6, -23,
	-24, -11, 7, 26, 24, 35, -8, -20,
	-5, 19, 26, 36, 17, 45, 61, 16,
	27, 32, 58, 62, 80, 67, 26, 44,
	32, 42, 32, 51, 63, 9, 31, 43,
}

var rookPST_eg = [64]int{
	-9, 2, 3, -1, -5, -13, 4, -20,
	-6, -6, 0, 2, -9, -9, -11, -3,
	-4, 0, -5, -1, -7, -12, -8, -16,
	3, 5, 8, 4, -5, -6, -8, -11,
	4, 3, 13, 1, 2, 1, -1, 2,
	7, 7, 7, 5, 4, -3, -5, -3,
	11, 13, 13, 11, -3, 3, 8, 3,
	13, 10, 18, 15, 12, 12, 8, 5,
}

var queenPST_mg = [64]int{
	-1, -18, -9, 10, -15, -25, -31, -50,
	-35, -8, 11, 2, 8, 15, -3, 1,
	-14, 2, -11, -2, -5, 2, 14, 5,
	-9, -26, -9, -10, -2, -4, 3, -3,
	-27, -27, -16, -16, -1, 17, -2, 1,
	-13, -17, 7, 8, 29, 56, 47, 57,
	-24, -39, -5, 1, -16, 57, 28, 54,
	-28, 0, 29, 12, 59, 44, 43, 45,
}

var queenPST_eg = [64]int{
	-33, -28, -22, -43, -5, -32, -20, -41,
	-22, -23, -30, -16, -16, -23, -36, -32,
	-16, -27, 15, 6, 9, 17, 10, 5,
	-18, 28, 19, 47, 31, 34, 39, 23,
	3, 22, 24, 45, 57, 40, 57, 36,
	-20, 6, 9, 49, 47, 35, 19, 9,
	-17, 20, 32, 41, 58, 25, 30, 0,
	-9, 22, 22, 27, 27, 19, 10, 20,
}

var kingPST_mg = [64]int{
	-15, 36, 12, -54, 8, -28, 24, 14,
	1, 7, -8, -64, -43, -16, 9, 8,
	-14, -14, -22, -46, -44, -30, -15, -27,
	-49, -1, -27, -39, -46, -44, -33, -51,
	-17, -20, -12, -27, -30, -25, -14, -36,
	-9, 24, 2, -16, -20, 6, 22, -22,
	29, -1, -20, -7, -8, -4, -38, -29,
	-65, 23, 16, -15, -56, -34, 2, 13,
}

var kingPST_eg = [64]int{
	-53, -34, -21, -11, -28, -14, -24, -43,
	-27, -11, 4, 13, 14, 4, -5, -17,
	-19, -3, 11, 21, 23, 16, 7, -9,
	-18, -4, 21, 24, 27, 23, 9, -11,
	-8, 22, 24, 27, 26, 33, 26, 3,
	10, 17, 23, 15, 20, 45, 44, 13,
	-12, 17, 14, 17, 17, 38, 23, 11,
	-74, -35, -18, -18, -11, 15, 4, -17,
}

var pstMG = [6]*[64]int{&pawnPST_mg, &knightPST_mg, &bishopPST_mg, &rookPST_mg, &queenPST_mg, &kingPST_mg}
var pstEG = [6]*[64]int{&pawnPST_eg, &knightPST_eg, &bishopPST_eg, &rookPST_eg, &queenPST_eg, &kingPST_eg}

func pstSquare(sq board.Square, c board.Color) board.Square {
	if c == board.White {
		return sq
	}
	return sq.Mirror()
}

// Evaluate returns the static evaluation of pos in centipawns from the
// perspective of the side to move, without a pawn-structure cache.
func Evaluate(pos *board.Position) int {
	return evaluate(pos, nil)
}

// EvaluateWithPawnTable is Evaluate but probes/fills pt for the
// pawn-structure term, since pawn structure changes on only a fraction of
// moves in a typical search tree and is wasteful to recompute every node.
func EvaluateWithPawnTable(pos *board.Position, pt *PawnTable) int {
	return evaluate(pos, pt)
}

func evaluate(pos *board.Position, pt *PawnTable) int {
	mg, eg, phase := 0, 0, 0

	for c := board.White; c <= board.Black; c++ {
		sign := 1
		if c == board.Black {
			sign = -1
		}
		for ptype := board.Pawn; ptype <= board.King; ptype++ {
			bb := pos.Pieces[c][ptype]
			value := pieceValues[ptype]
			for bb != 0 {
				sq := bb.PopLSB()
				psq := pstSquare(sq, c)
				mg += sign * (value + pstMG[ptype][psq])
				eg += sign * (value + pstEG[ptype][psq])
				phase += phaseWeight[ptype]
			}
		}
	}
	if phase > maxPhase {
		phase = maxPhase
	}

	pieceMg, pieceEg := evaluatePieces(pos)
	mg += pieceMg
	eg += pieceEg

	kmg, keg := evaluateKingSafety(pos)
	mg += kmg
	eg += keg

	var pmg, peg int
	if pt != nil {
		if cachedMg, cachedEg, ok := pt.Probe(pos.PawnKey); ok {
			pmg, peg = cachedMg, cachedEg
		} else {
			pmg, peg = evaluatePawnStructure(pos)
			pt.Store(pos.PawnKey, pmg, peg)
		}
	} else {
		pmg, peg = evaluatePawnStructure(pos)
	}
	mg += pmg
	eg += peg

	tempoSign := 1
	if pos.SideToMove == board.Black {
		tempoSign = -1
	}
	mg += tempoSign * mgTempo
	eg += tempoSign * egTempo

	score := (mg*phase + eg*(maxPhase-phase)) / maxPhase

	if isEndgame(pos) {
		score += evaluateEndgame(pos)
	}

	if pos.SideToMove == board.Black {
		score = -score
	}
	return score
}

// EvaluateMaterial returns just the material balance, from the side to
// move's perspective, for callers that only need a cheap sanity check
// rather than the full positional evaluation.
func EvaluateMaterial(pos *board.Position) int {
	score := 0
	for pt := board.Pawn; pt < board.King; pt++ {
		score += pos.Pieces[board.White][pt].PopCount() * pieceValues[pt]
		score -= pos.Pieces[board.Black][pt].PopCount() * pieceValues[pt]
	}
	if pos.SideToMove == board.Black {
		return -score
	}
	return score
}

// kingRingAttackWeight is the per-attack weight for the king-ring-attack
// bonus below, distinct from kingAttackWeight's per-attacker threat score
// used by evaluateKingSafety.
var kingRingAttackWeight = [6]int{0, 2, 2, 3, 4, 0}

// evaluatePieces adds mobility, minor/major piece-pair, king-ring-attack,
// and early queen-development terms, each using the piece's own formula
// rather than a single shared mobility weight.
func evaluatePieces(pos *board.Position) (mg, eg int) {
	for c := board.White; c <= board.Black; c++ {
		sign := 1
		if c == board.Black {
			sign = -1
		}
		occupied := pos.AllOccupied
		own := pos.Occupied[c]
		enemyRing := board.KingAttacks(pos.KingSquare[c.Other()])

		knights := pos.Pieces[c][board.Knight]
		if knights.PopCount() >= 2 {
			mg += sign * -10
			eg += sign * -10
		}
		for bb := knights; bb != 0; {
			sq := bb.PopLSB()
			attacks := board.KnightAttacks(sq)
			m := (attacks &^ own).PopCount()
			mg += sign * 4 * (m - 4)
			eg += sign * 6 * (m - 4)
			bonus := kingRingAttackWeight[board.Knight] * (attacks & enemyRing).PopCount()
			mg += sign * bonus
			eg += sign * bonus
		}

		bishops := pos.Pieces[c][board.Bishop]
		if bishops.PopCount() >= 2 {
			mg += sign * 30
			eg += sign * 30
		}
		for bb := bishops; bb != 0; {
			sq := bb.PopLSB()
			attacks := board.BishopAttacks(sq, occupied)
			m := (attacks &^ own).PopCount()
			mg += sign * 3 * (m - 7)
			eg += sign * 3 * (m - 7)
			bonus := kingRingAttackWeight[board.Bishop] * (attacks & enemyRing).PopCount()
			mg += sign * bonus
			eg += sign * bonus
		}

		rooks := pos.Pieces[c][board.Rook]
		if rooks.PopCount() >= 2 {
			mg += sign * -20
			eg += sign * -20
		}
		for bb := rooks; bb != 0; {
			sq := bb.PopLSB()
			attacks := board.RookAttacks(sq, occupied)
			m := (attacks &^ own).PopCount()
			mg += sign * 2 * (m - 7)
			eg += sign * 4 * (m - 7)
			bonus := kingRingAttackWeight[board.Rook] * (attacks & enemyRing).PopCount()
			mg += sign * bonus
			eg += sign * bonus
		}

		queens := pos.Pieces[c][board.Queen]
		for bb := queens; bb != 0; {
			sq := bb.PopLSB()
			attacks := board.QueenAttacks(sq, occupied)
			m := (attacks &^ own).PopCount()
			mg += sign * 1 * (m - 14)
			eg += sign * 2 * (m - 14)
			bonus := kingRingAttackWeight[board.Queen] * (attacks & enemyRing).PopCount()
			mg += sign * bonus
			eg += sign * bonus
		}

		mg += sign * evaluateEarlyQueenDevelopment(pos, c)
	}
	return mg, eg
}

// earlyQueenPenalty is applied once per undeveloped minor piece, and only
// when the queen has also left its own back rank: a minor sitting at home
// with the queen still at home is not penalized, nor is a wandering queen
// once every minor has come out.
const earlyQueenPenalty = -15

func evaluateEarlyQueenDevelopment(pos *board.Position, c board.Color) int {
	var homeRank board.Bitboard
	var knightHomes, bishopHomes board.Bitboard
	if c == board.White {
		homeRank = board.Rank1
		knightHomes = board.SquareBB(board.B1) | board.SquareBB(board.G1)
		bishopHomes = board.SquareBB(board.C1) | board.SquareBB(board.F1)
	} else {
		homeRank = board.Rank8
		knightHomes = board.SquareBB(board.B8) | board.SquareBB(board.G8)
		bishopHomes = board.SquareBB(board.C8) | board.SquareBB(board.F8)
	}

	queen := pos.Pieces[c][board.Queen]
	if queen == 0 || queen&homeRank != 0 {
		return 0
	}

	undeveloped := (pos.Pieces[c][board.Knight] & knightHomes) | (pos.Pieces[c][board.Bishop] & bishopHomes)
	return undeveloped.PopCount() * earlyQueenPenalty
}

// kingAttackWeight is the per-piece-type contribution to a king's danger
// score when that piece type attacks the king's zone: N/B weigh equally,
// rooks double that, queens double the rook weight again.
var kingAttackWeight = [6]int{0, 20, 20, 40, 80, 0}

// evaluateKingSafety scores both kings' exposure to enemy pieces attacking
// their immediate zone, with a quadratic middlegame penalty in the combined
// threat weight, plus a pawn-shield bonus. Not tapered into the endgame
// score: king safety in the mating-attack sense stops mattering once material
// has thinned out, which is instead handled by evaluateEndgame.
func evaluateKingSafety(pos *board.Position) (mg, eg int) {
	for c := board.White; c <= board.Black; c++ {
		sign := 1
		if c == board.Black {
			sign = -1
		}
		enemy := c.Other()
		ksq := pos.KingSquare[c]
		zone := board.KingAttacks(ksq) | board.SquareBB(ksq)

		threat := 0
		for ptype := board.Knight; ptype <= board.Queen; ptype++ {
			bb := pos.Pieces[enemy][ptype]
			for bb != 0 {
				sq := bb.PopLSB()
				var attacks board.Bitboard
				switch ptype {
				case board.Knight:
					attacks = board.KnightAttacks(sq)
				case board.Bishop:
					attacks = board.BishopAttacks(sq, pos.AllOccupied)
				case board.Rook:
					attacks = board.RookAttacks(sq, pos.AllOccupied)
				case board.Queen:
					attacks = board.QueenAttacks(sq, pos.AllOccupied)
				}
				if attacks&zone != 0 {
					threat += kingAttackWeight[ptype]
				}
			}
		}

		shield := (board.PawnAttacks(ksq, c) | zone) & pos.Pieces[c][board.Pawn]
		mg += sign * shield.PopCount() * 10
		mg -= sign * (threat * threat) / 50
	}
	return mg, eg
}

// evaluatePawnStructure scores doubled pawns (worse in the endgame),
// isolated pawns (worse in the middlegame) and passed pawns (which grow
// quadratically with how far advanced they are, and matter more in the
// endgame than the middlegame).
func evaluatePawnStructure(pos *board.Position) (mg, eg int) {
	for c := board.White; c <= board.Black; c++ {
		sign := 1
		if c == board.Black {
			sign = -1
		}
		enemy := c.Other()
		pawns := pos.Pieces[c][board.Pawn]
		enemyPawns := pos.Pieces[enemy][board.Pawn]

		for file := 0; file < 8; file++ {
			onFile := pawns & board.FileMask[file]
			count := onFile.PopCount()
			if count == 0 {
				continue
			}
			if count > 1 {
				mg += sign * -10 * (count - 1)
				eg += sign * -20 * (count - 1)
			}

			var adjacent board.Bitboard
			if file > 0 {
				adjacent |= board.FileMask[file-1]
			}
			if file < 7 {
				adjacent |= board.FileMask[file+1]
			}
			if pawns&adjacent == 0 {
				mg += sign * -20 * count
				eg += sign * -10 * count
			}
		}

		for bb := pawns; bb != 0; {
			sq := bb.PopLSB()
			if isPassedPawn(sq, c, enemyPawns) {
				r := sq.RelativeRank(c) - 1
				mg += sign * 10 * (r + 1) * (r + 1)
				eg += sign * 20 * (r + 1) * (r + 1)
			}
		}
	}
	return mg, eg
}

// evaluatePawnStructureWithCache is kept for callers that already hold a
// *PawnTable reference directly rather than going through evaluate's
// internal probe/store; it is equivalent to the pt != nil branch of
// evaluate.
func evaluatePawnStructureWithCache(pos *board.Position, pt *PawnTable) (mg, eg int) {
	if pt == nil {
		return evaluatePawnStructure(pos)
	}
	if mg, eg, ok := pt.Probe(pos.PawnKey); ok {
		return mg, eg
	}
	mg, eg = evaluatePawnStructure(pos)
	pt.Store(pos.PawnKey, mg, eg)
	return mg, eg
}

// isPassedPawn reports whether sq has no enemy pawn on its own file or
// either adjacent file anywhere ahead of it.
func isPassedPawn(sq board.Square, c board.Color, enemyPawns board.Bitboard) bool {
	file := sq.File()
	var front board.Bitboard
	if c == board.White {
		front = board.SquareBB(sq).NorthFill() &^ board.SquareBB(sq)
	} else {
		front = board.SquareBB(sq).SouthFill() &^ board.SquareBB(sq)
	}

	files := board.FileMask[file]
	if file > 0 {
		files |= board.FileMask[file-1]
	}
	if file < 7 {
		files |= board.FileMask[file+1]
	}

	return enemyPawns&front&files == 0
}

// isEndgame reports whether the endgame-specialized term (king
// centralization, pawnless zugzwang) applies: no queens remain on the
// board, or total non-king material has dropped below 1500cp.
func isEndgame(pos *board.Position) bool {
	if pos.Pieces[board.White][board.Queen] == 0 && pos.Pieces[board.Black][board.Queen] == 0 {
		return true
	}
	nonKing := 0
	for c := board.White; c <= board.Black; c++ {
		for pt := board.Pawn; pt < board.King; pt++ {
			nonKing += pos.Pieces[c][pt].PopCount() * pieceValues[pt]
		}
	}
	return nonKing < 1500
}

// evaluateEndgame scores king centralization and, with no pawns left on
// the board, a small zugzwang bonus for White when Black is to move and
// the kings stand an even number of files apart: both matter in king-and-minor-piece endings in a way they do not earlier in
// the game, where the tapered mg/eg blend already favors piece activity.
func evaluateEndgame(pos *board.Position) int {
	score := 0
	for c := board.White; c <= board.Black; c++ {
		sign := 1
		if c == board.Black {
			sign = -1
		}
		ourDist := centerDistance(pos.KingSquare[c])
		oppDist := centerDistance(pos.KingSquare[c.Other()])
		score += sign * (oppDist - ourDist) * 10
	}

	if pos.Pieces[board.White][board.Pawn] == 0 && pos.Pieces[board.Black][board.Pawn] == 0 {
		fileDist := pos.KingSquare[board.White].File() - pos.KingSquare[board.Black].File()
		if fileDist < 0 {
			fileDist = -fileDist
		}
		if fileDist%2 == 0 && pos.SideToMove == board.Black {
			score += 15
		}
	}
	return score
}

func centerDistance(sq board.Square) int {
	f, r := sq.File(), sq.Rank()
	df := f - 3
	if f >= 4 {
		df = f - 4
	}
	if df < 0 {
		df = -df
	}
	dr := r - 3
	if r >= 4 {
		dr = r - 4
	}
	if dr < 0 {
		dr = -dr
	}
	return df + dr
}
