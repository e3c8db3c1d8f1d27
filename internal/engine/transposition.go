package engine

import (
	"github.com/hailam/chessplay/internal/board"
)

// TTFlag indicates the type of bound stored in the transposition table.
type TTFlag uint8

const (
	TTExact      TTFlag = iota // Exact score
	TTLowerBound               // Failed high (beta cutoff)
	TTUpperBound               // Failed low
)

// TTEntry represents an entry in the transposition table.
type TTEntry struct {
	Key      uint64     // Full 64-bit Zobrist hash for verification (eliminates collisions)
	BestMove board.Move // Best move found
	Score    int16      // Score (bounded by flag)
	Depth    int8       // Search depth
	Flag     TTFlag     // Type of bound
	Age      uint8      // Generation for replacement
}

// TranspositionTable caches search results keyed by board.Position.Hash.
// The engine is single-threaded (see search.go), so unlike the sharded,
// atomics-guarded table this is descended from, a plain slice with no
// locking is correct: MakeMove/UnmakeMove/Search are never called
// concurrently against the same Engine.
type TranspositionTable struct {
	entries []TTEntry
	size    uint64
	mask    uint64
	age     uint8
	hits    uint64
	probes  uint64
}

func roundDownToPowerOf2(n uint64) uint64 {
	if n == 0 {
		return 1
	}
	p := uint64(1)
	for p*2 <= n {
		p *= 2
	}
	return p
}

// NewTranspositionTable creates a table sized to approximately sizeMB
// megabytes, rounded down to a power of two slots for fast masking.
func NewTranspositionTable(sizeMB int) *TranspositionTable {
	if sizeMB < 1 {
		sizeMB = 1
	}
	bytesTotal := uint64(sizeMB) * 1024 * 1024
	entrySize := uint64(24)
	slots := roundDownToPowerOf2(bytesTotal / entrySize)
	if slots < 1024 {
		slots = 1024
	}
	return &TranspositionTable{
		entries: make([]TTEntry, slots),
		size:    slots,
		mask:    slots - 1,
	}
}

func (tt *TranspositionTable) index(key uint64) uint64 {
	return key & tt.mask
}

// Probe looks up key and reports whether a usable entry was found.
func (tt *TranspositionTable) Probe(key uint64) (TTEntry, bool) {
	tt.probes++
	e := tt.entries[tt.index(key)]
	if e.Key == key {
		tt.hits++
		return e, true
	}
	return TTEntry{}, false
}

// Store writes an entry, replacing the incumbent slot occupant when it holds
// a different position, is from an older search generation, is no deeper
// than the new entry, or when the new entry is exact.
func (tt *TranspositionTable) Store(key uint64, move board.Move, score int, depth int, flag TTFlag) {
	idx := tt.index(key)
	existing := &tt.entries[idx]

	if existing.Key != key || existing.Age != tt.age || int(existing.Depth) <= depth || flag == TTExact {
		*existing = TTEntry{
			Key:      key,
			BestMove: move,
			Score:    int16(score),
			Depth:    int8(depth),
			Flag:     flag,
			Age:      tt.age,
		}
	}
}

// NewSearch advances the replacement-age generation for a fresh search.
func (tt *TranspositionTable) NewSearch() {
	tt.age++
}

// Clear empties the table and resets statistics.
func (tt *TranspositionTable) Clear() {
	for i := range tt.entries {
		tt.entries[i] = TTEntry{}
	}
	tt.age = 0
	tt.hits = 0
	tt.probes = 0
}

// HashFull reports table occupancy in permille (parts per thousand).
func (tt *TranspositionTable) HashFull() int {
	sampleSize := 1000
	if uint64(sampleSize) > tt.size {
		sampleSize = int(tt.size)
	}
	used := 0
	for i := 0; i < sampleSize; i++ {
		if tt.entries[i].Key != 0 {
			used++
		}
	}
	return used * 1000 / sampleSize
}

// HitRate returns the fraction of probes that found a usable entry.
func (tt *TranspositionTable) HitRate() float64 {
	if tt.probes == 0 {
		return 0
	}
	return float64(tt.hits) / float64(tt.probes)
}

// Size returns the number of slots in the table.
func (tt *TranspositionTable) Size() uint64 {
	return tt.size
}

// AdjustScoreFromTT converts a mate score stored relative to the TT node
// back into one relative to the current search ply.
func AdjustScoreFromTT(score, ply int) int {
	if score > MateScore-MaxPly {
		return score - ply
	}
	if score < -MateScore+MaxPly {
		return score + ply
	}
	return score
}

// AdjustScoreToTT converts a ply-relative mate score into the
// ply-independent form stored in the transposition table.
func AdjustScoreToTT(score, ply int) int {
	if score > MateScore-MaxPly {
		return score + ply
	}
	if score < -MateScore+MaxPly {
		return score - ply
	}
	return score
}
