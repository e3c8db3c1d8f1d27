package engine

import (
	"sync/atomic"
	"time"

	"github.com/hailam/chessplay/internal/board"
)

// Search bounds and mate-score conventions.
const (
	Infinity  = 30000
	MateScore = 29000
	MaxPly    = 128
)

// Null-move pruning parameters.
const (
	nullMoveMinDepth  = 3
	nullMoveReduction = 2
)

// Quiescence search parameters.
const (
	maxQDepth   = 8
	deltaMargin = 300
)

// PVTable records the principal variation discovered at each ply, filled in
// from the bottom of the search tree upward as each node copies its best
// child's line in front of its own move.
type PVTable struct {
	length [MaxPly]int
	moves  [MaxPly][MaxPly]board.Move
}

func (pv *PVTable) update(ply int, m board.Move) {
	pv.moves[ply][0] = m
	for i := 0; i < pv.length[ply+1]; i++ {
		pv.moves[ply][i+1] = pv.moves[ply+1][i]
	}
	pv.length[ply] = pv.length[ply+1] + 1
}

// Searcher runs a single-threaded iterative negamax search with alpha-beta
// pruning, a transposition table, null-move pruning, and quiescence search
// at the leaves. The engine core is single-threaded by design: the caller
// must not invoke Search concurrently against the same Searcher or the
// Position it walks.
type Searcher struct {
	pos       *board.Position
	orderer   *MoveOrderer
	tt        *TranspositionTable
	pawnTable *PawnTable

	nodes uint64
	pv    PVTable

	posHistory  []uint64
	rootHistory []uint64

	deadline time.Time
	stopFlag atomic.Bool
}

// NewSearcher creates a searcher bound to tt.
func NewSearcher(tt *TranspositionTable) *Searcher {
	return &Searcher{
		orderer:   NewMoveOrderer(),
		tt:        tt,
		pawnTable: NewPawnTable(1),
	}
}

// Stop requests that the in-progress search return as soon as possible.
func (s *Searcher) Stop() {
	s.stopFlag.Store(true)
}

// IsStopped reports whether a stop has been requested.
func (s *Searcher) IsStopped() bool {
	return s.stopFlag.Load()
}

// Reset clears per-search state (node count, stop flag, move ordering
// tables) ahead of a fresh call to Search.
func (s *Searcher) Reset() {
	s.nodes = 0
	s.stopFlag.Store(false)
	s.deadline = time.Time{}
	s.orderer.Clear()
}

// checkTime polls the wall-clock deadline, if one is armed, and latches
// stopFlag once it has elapsed.
func (s *Searcher) checkTime() {
	if !s.deadline.IsZero() && !time.Now().Before(s.deadline) {
		s.stopFlag.Store(true)
	}
}

// ClearOrderer clears killer and history tables without resetting node
// counts or the stop flag.
func (s *Searcher) ClearOrderer() {
	s.orderer.Clear()
}

// Nodes returns the number of nodes visited by the most recent search.
func (s *Searcher) Nodes() uint64 {
	return s.nodes
}

// SetRootHistory supplies the game's Zobrist-hash history up to the root,
// used for threefold-repetition detection during the search.
func (s *Searcher) SetRootHistory(hashes []uint64) {
	s.rootHistory = hashes
}

// SetDeadline arms a wall-clock deadline the search polls periodically,
// stopping mid-recursion once it elapses rather than only between
// iterative-deepening depths. A zero Time clears the deadline.
func (s *Searcher) SetDeadline(t time.Time) {
	s.deadline = t
}

// GetPV returns the principal variation from the most recent search.
func (s *Searcher) GetPV() []board.Move {
	n := s.pv.length[0]
	out := make([]board.Move, n)
	copy(out, s.pv.moves[0][:n])
	return out
}

// Search finds the best move at depth with a full alpha-beta window.
func (s *Searcher) Search(pos *board.Position, depth int) (board.Move, int) {
	return s.SearchWithBounds(pos, depth, -Infinity, Infinity)
}

// SearchWithBounds finds the best move at depth within [alpha, beta],
// supporting aspiration-window callers.
func (s *Searcher) SearchWithBounds(pos *board.Position, depth int, alpha, beta int) (board.Move, int) {
	s.pos = pos
	s.posHistory = append([]uint64{}, s.rootHistory...)

	score := s.negamax(depth, 0, alpha, beta, true)

	if s.pv.length[0] == 0 {
		return board.NoMove, score
	}
	return s.pv.moves[0][0], score
}

func (s *Searcher) isDraw(pos *board.Position) bool {
	if pos.HalfMoveClock >= 100 {
		return true
	}
	if pos.IsInsufficientMaterial() {
		return true
	}
	reps := 0
	for _, h := range s.posHistory {
		if h == pos.Hash {
			reps++
			if reps >= 2 {
				return true
			}
		}
	}
	return false
}

// negamax is the main search routine: fail-hard alpha-beta negamax over the
// legal move tree, with a transposition table, null-move pruning, and a
// quiescence search at the horizon. allowNull forbids a null move from
// being tried immediately after another null move in the same line.
func (s *Searcher) negamax(depth, ply int, alpha, beta int, allowNull bool) int {
	s.pv.length[ply] = ply
	s.nodes++

	if s.nodes&4095 == 0 {
		s.checkTime()
	}
	if s.stopFlag.Load() {
		return 0
	}
	if ply >= MaxPly-1 {
		return EvaluateWithPawnTable(s.pos, s.pawnTable)
	}

	pos := s.pos

	if ply > 0 && s.isDraw(pos) {
		return 0
	}

	ttMove := board.NoMove
	if entry, ok := s.tt.Probe(pos.Hash); ok {
		ttMove = entry.BestMove
		if int(entry.Depth) >= depth {
			score := AdjustScoreFromTT(int(entry.Score), ply)
			switch entry.Flag {
			case TTExact:
				return score
			case TTLowerBound:
				if score >= beta {
					return score
				}
			case TTUpperBound:
				if score <= alpha {
					return score
				}
			}
		}
	}

	if depth <= 0 {
		return s.quiescence(ply, 0, alpha, beta)
	}

	inCheck := pos.InCheck()

	if allowNull && !inCheck && ply > 0 && depth >= nullMoveMinDepth &&
		beta < Infinity-MaxPly && pos.HasNonPawnMaterial() {
		nullUndo := pos.MakeNullMove()
		s.posHistory = append(s.posHistory, pos.Hash)
		score := -s.negamax(depth-1-nullMoveReduction, ply+1, -beta, -beta+1, false)
		s.posHistory = s.posHistory[:len(s.posHistory)-1]
		pos.UnmakeNullMove(nullUndo)

		if s.stopFlag.Load() {
			return 0
		}
		if score >= beta {
			return beta
		}
	}

	moves := pos.GenerateLegalMoves()
	if moves.Len() == 0 {
		if inCheck {
			return -MateScore + ply
		}
		return 0
	}

	scores := make([]int, moves.Len())
	s.orderer.ScoreMoves(moves, scores, ttMove, ply, pos.SideToMove, pos)

	best := -Infinity
	bestMove := board.NoMove
	flag := TTUpperBound

	for i := 0; i < moves.Len(); i++ {
		m := PickMove(moves, scores, i)

		undo := pos.MakeMove(m)
		if !undo.Valid {
			pos.UnmakeMove(m, undo)
			continue
		}
		s.posHistory = append(s.posHistory, pos.Hash)

		score := -s.negamax(depth-1, ply+1, -beta, -alpha, true)

		s.posHistory = s.posHistory[:len(s.posHistory)-1]
		pos.UnmakeMove(m, undo)

		if s.stopFlag.Load() {
			return 0
		}

		if score > best {
			best = score
			bestMove = m
			if score > alpha {
				alpha = score
				s.pv.update(ply, m)
				flag = TTExact
			}
		}

		if alpha >= beta {
			s.orderer.UpdateKillers(m, ply)
			s.orderer.UpdateHistory(m, pos.SideToMove, depth)
			s.tt.Store(pos.Hash, bestMove, AdjustScoreToTT(beta, ply), depth, TTLowerBound)
			return beta
		}
	}

	s.tt.Store(pos.Hash, bestMove, AdjustScoreToTT(alpha, ply), depth, flag)
	return alpha
}

// quiescence searches captures (and promotions) only, beyond the main
// search's horizon, to avoid the horizon effect on tactical exchanges.
// qdepth is bounded by maxQDepth; a position whose standing pat is more
// than the fixed deltaMargin below alpha is pruned.
func (s *Searcher) quiescence(ply, qdepth int, alpha, beta int) int {
	s.nodes++

	if s.nodes&4095 == 0 {
		s.checkTime()
	}
	if s.stopFlag.Load() {
		return 0
	}

	pos := s.pos

	standPat := EvaluateWithPawnTable(pos, s.pawnTable)

	if standPat >= beta {
		return beta
	}
	if qdepth >= maxQDepth {
		return standPat
	}
	if standPat+deltaMargin < alpha {
		return alpha
	}
	if standPat > alpha {
		alpha = standPat
	}

	moves := pos.GenerateCaptures()
	scores := make([]int, moves.Len())
	s.orderer.ScoreMoves(moves, scores, board.NoMove, ply, pos.SideToMove, pos)

	for i := 0; i < moves.Len(); i++ {
		m := PickMove(moves, scores, i)

		undo := pos.MakeMove(m)
		if !undo.Valid {
			pos.UnmakeMove(m, undo)
			continue
		}

		score := -s.quiescence(ply+1, qdepth+1, -beta, -alpha)

		pos.UnmakeMove(m, undo)

		if s.stopFlag.Load() {
			return 0
		}

		if score >= beta {
			return beta
		}
		if score > alpha {
			alpha = score
		}
	}

	return alpha
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
