package engine

import (
	"time"

	"github.com/hailam/chessplay/internal/board"
)

// SearchInfo contains information about the current search.
type SearchInfo struct {
	Depth    int
	Score    int
	Nodes    uint64
	Time     time.Duration
	PV       []board.Move
	HashFull int // Permille of hash table used
}

// SearchLimits specifies constraints on the search. WTime/BTime/WInc/BInc/
// MovesToGo mirror the UCI "go" command's clock parameters and feed a
// TimeManager; MoveTime, when set, bypasses clock-based time management
// entirely with a fixed budget.
type SearchLimits struct {
	Depth     int           // Maximum depth (0 = no limit)
	Nodes     uint64        // Maximum nodes (0 = no limit)
	MoveTime  time.Duration // Time for this move (0 = no limit)
	Infinite  bool          // Search until stopped
	WTime     time.Duration
	BTime     time.Duration
	WInc      time.Duration
	BInc      time.Duration
	MovesToGo int
}

// Difficulty represents the AI difficulty level.
type Difficulty int

const (
	Easy   Difficulty = iota // ~2-3 ply, 500ms
	Medium                   // ~4-5 ply, 2s
	Hard                     // ~6+ ply, 5s
)

// DifficultySettings maps difficulty to search limits.
var DifficultySettings = map[Difficulty]SearchLimits{
	Easy:   {Depth: 3, MoveTime: 500 * time.Millisecond},
	Medium: {Depth: 5, MoveTime: 2 * time.Second},
	Hard:   {Depth: 7, MoveTime: 5 * time.Second},
}

// Engine is the chess AI engine.
type Engine struct {
	searcher   *Searcher
	tt         *TranspositionTable
	difficulty Difficulty

	// Callbacks
	OnInfo func(SearchInfo)
}

// NewEngine creates a new chess engine with the given transposition table size in MB.
func NewEngine(ttSizeMB int) *Engine {
	tt := NewTranspositionTable(ttSizeMB)
	return &Engine{
		searcher:   NewSearcher(tt),
		tt:         tt,
		difficulty: Medium,
	}
}

// SetDifficulty sets the engine difficulty.
func (e *Engine) SetDifficulty(d Difficulty) {
	e.difficulty = d
}

// Search finds the best move for the given position.
func (e *Engine) Search(pos *board.Position) board.Move {
	limits := DifficultySettings[e.difficulty]
	return e.SearchWithLimits(pos, limits)
}

// SearchWithLimits finds the best move with specific search limits, using a
// TimeManager to convert clock-based limits into a per-move time budget and
// to shrink or stretch that budget as the best move stabilizes or flips
// between iterations.
func (e *Engine) SearchWithLimits(pos *board.Position, limits SearchLimits) board.Move {
	e.searcher.Reset()
	e.tt.NewSearch()

	startTime := time.Now()
	var bestMove board.Move
	var bestScore int

	maxDepth := MaxPly
	if limits.Depth > 0 {
		maxDepth = limits.Depth
	}

	tm := NewTimeManager()
	uciLimits := UCILimits{
		MoveTime:  limits.MoveTime,
		Depth:     limits.Depth,
		Nodes:     limits.Nodes,
		Infinite:  limits.Infinite,
		MovesToGo: limits.MovesToGo,
	}
	uciLimits.Time[board.White] = limits.WTime
	uciLimits.Time[board.Black] = limits.BTime
	uciLimits.Inc[board.White] = limits.WInc
	uciLimits.Inc[board.Black] = limits.BInc
	usingClock := limits.MoveTime > 0 || limits.WTime > 0 || limits.BTime > 0
	tm.Init(uciLimits, pos.SideToMove, pos.FullMoveNumber*2)

	if usingClock {
		e.searcher.SetDeadline(startTime.Add(tm.MaximumTime()))
	}

	// Aspiration window parameters
	const initialWindow = 50

	stableDepths := 0
	changedDepths := 0
	prevMove := board.NoMove

	for depth := 1; depth <= maxDepth; depth++ {
		if usingClock && tm.ShouldStop() {
			break
		}

		var move board.Move
		var score int

		if depth >= 5 && bestMove != board.NoMove {
			alpha := bestScore - initialWindow
			beta := bestScore + initialWindow

			for {
				move, score = e.searcher.SearchWithBounds(pos, depth, alpha, beta)

				if e.searcher.stopFlag.Load() {
					break
				}
				if score <= alpha {
					alpha = -Infinity
				} else if score >= beta {
					beta = Infinity
				} else {
					break
				}
				if alpha == -Infinity && beta == Infinity {
					break
				}
			}
		} else {
			move, score = e.searcher.Search(pos, depth)
		}

		if e.searcher.stopFlag.Load() {
			break
		}

		if move != board.NoMove {
			if move == prevMove {
				stableDepths++
				changedDepths = 0
			} else {
				changedDepths++
				stableDepths = 0
			}
			prevMove = move
			bestMove = move
			bestScore = score
		}

		if usingClock {
			if stableDepths > 0 {
				tm.AdjustForStability(stableDepths)
			} else if changedDepths > 0 {
				tm.AdjustForInstability(changedDepths)
			}
		}

		if e.OnInfo != nil {
			elapsed := time.Since(startTime)
			e.OnInfo(SearchInfo{
				Depth:    depth,
				Score:    bestScore,
				Nodes:    e.searcher.Nodes(),
				Time:     elapsed,
				PV:       e.searcher.GetPV(),
				HashFull: e.tt.HashFull(),
			})
		}

		if score > MateScore-100 || score < -MateScore+100 {
			break
		}

		if usingClock && tm.PastOptimum() {
			break
		}
	}

	return bestMove
}

// SetPositionHistory supplies the game's Zobrist-hash history up to the
// current position, used by the search for threefold-repetition detection.
func (e *Engine) SetPositionHistory(hashes []uint64) {
	e.searcher.SetRootHistory(hashes)
}

// Stop stops the current search.
func (e *Engine) Stop() {
	e.searcher.Stop()
}

// Clear clears the transposition table and other caches.
func (e *Engine) Clear() {
	e.tt.Clear()
	e.searcher.orderer.Clear()
}

// Perft performs a perft test (for debugging move generation).
func (e *Engine) Perft(pos *board.Position, depth int) uint64 {
	if depth == 0 {
		return 1
	}

	moves := pos.GenerateLegalMoves()
	if depth == 1 {
		return uint64(moves.Len())
	}

	var nodes uint64
	for i := 0; i < moves.Len(); i++ {
		move := moves.Get(i)
		undo := pos.MakeMove(move)
		nodes += e.Perft(pos, depth-1)
		pos.UnmakeMove(move, undo)
	}

	return nodes
}

// Evaluate returns the static evaluation of a position.
func (e *Engine) Evaluate(pos *board.Position) int {
	return Evaluate(pos)
}

// ScoreToString converts a score to a human-readable string.
func ScoreToString(score int) string {
	if score > MateScore-100 {
		mateIn := (MateScore - score + 1) / 2
		return "Mate in " + itoa(mateIn)
	}
	if score < -MateScore+100 {
		mateIn := (MateScore + score + 1) / 2
		return "Mated in " + itoa(mateIn)
	}

	// Convert centipawns to pawns
	sign := ""
	if score < 0 {
		sign = "-"
		score = -score
	}
	pawns := score / 100
	centipawns := score % 100

	return sign + itoa(pawns) + "." + itoa(centipawns)
}

// Simple integer to string (avoid fmt import)
func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	if n < 0 {
		return "-" + itoa(-n)
	}
	s := ""
	for n > 0 {
		s = string('0'+byte(n%10)) + s
		n /= 10
	}
	return s
}
