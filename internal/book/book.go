package book

import (
	"encoding/binary"
	"fmt"
	"io"
	"math/rand"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/hailam/chessplay/internal/board"
)

// BookEntry represents a single book entry.
type BookEntry struct {
	Move   board.Move
	Weight uint16
}

// Book represents an opening book.
type Book struct {
	entries map[uint64][]BookEntry
}

// New creates an empty book.
func New() *Book {
	return &Book{
		entries: make(map[uint64][]BookEntry),
	}
}

// LoadPolyglot loads a Polyglot format opening book from a file.
func LoadPolyglot(filename string) (*Book, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return LoadPolyglotReader(file)
}

// LoadPolyglotReader loads a Polyglot format book from a reader.
func LoadPolyglotReader(r io.Reader) (*Book, error) {
	book := New()

	// Polyglot entry format:
	// 8 bytes: position key (big-endian)
	// 2 bytes: move (big-endian)
	// 2 bytes: weight (big-endian)
	// 4 bytes: learn data (ignored)
	var entry [16]byte

	for {
		_, err := io.ReadFull(r, entry[:])
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		key := binary.BigEndian.Uint64(entry[0:8])
		moveData := binary.BigEndian.Uint16(entry[8:10])
		weight := binary.BigEndian.Uint16(entry[10:12])

		move := decodePolyglotMove(moveData)
		if move != board.NoMove {
			book.entries[key] = append(book.entries[key], BookEntry{
				Move:   move,
				Weight: weight,
			})
		}
	}

	return book, nil
}

// decodePolyglotMove converts a Polyglot move encoding to our Move type.
// Polyglot move format (bits):
// 0-5: to square
// 6-11: from square
// 12-14: promotion piece (0=none, 1=knight, 2=bishop, 3=rook, 4=queen)
func decodePolyglotMove(data uint16) board.Move {
	toFile := data & 7
	toRank := (data >> 3) & 7
	fromFile := (data >> 6) & 7
	fromRank := (data >> 9) & 7
	promo := (data >> 12) & 7

	from := board.NewSquare(int(fromFile), int(fromRank))
	to := board.NewSquare(int(toFile), int(toRank))

	// Handle castling: Polyglot uses king-captures-rook encoding
	// We need to convert to our e1-g1/e1-c1 encoding
	if from == board.E1 && to == board.H1 {
		to = board.G1 // White kingside
	} else if from == board.E1 && to == board.A1 {
		to = board.C1 // White queenside
	} else if from == board.E8 && to == board.H8 {
		to = board.G8 // Black kingside
	} else if from == board.E8 && to == board.A8 {
		to = board.C8 // Black queenside
	}

	if promo > 0 {
		// Promotion pieces: 1=knight, 2=bishop, 3=rook, 4=queen
		promoTypes := []board.PieceType{0, board.Knight, board.Bishop, board.Rook, board.Queen}
		return board.NewPromotion(from, to, promoTypes[promo])
	}

	return board.NewMove(from, to)
}

// Probe looks up a position in the book and returns a move using weighted random selection.
func (b *Book) Probe(pos *board.Position) (board.Move, bool) {
	if b == nil {
		return board.NoMove, false
	}

	key := pos.PolyglotHash()
	entries, ok := b.entries[key]
	if !ok || len(entries) == 0 {
		return board.NoMove, false
	}

	// Sort by weight (highest first) for deterministic ordering
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Weight > entries[j].Weight
	})

	// Weighted random selection
	totalWeight := uint32(0)
	for _, e := range entries {
		totalWeight += uint32(e.Weight)
	}

	if totalWeight == 0 {
		// All weights are 0, just pick the first
		return verifyAndConvert(pos, entries[0].Move), true
	}

	r := rand.Uint32() % totalWeight
	cumulative := uint32(0)
	for _, e := range entries {
		cumulative += uint32(e.Weight)
		if r < cumulative {
			return verifyAndConvert(pos, e.Move), true
		}
	}

	// Fallback to first entry
	return verifyAndConvert(pos, entries[0].Move), true
}

// ProbeAll returns all book moves for the position, sorted by weight.
func (b *Book) ProbeAll(pos *board.Position) []BookEntry {
	if b == nil {
		return nil
	}

	key := pos.PolyglotHash()
	entries, ok := b.entries[key]
	if !ok {
		return nil
	}

	// Sort by weight (highest first)
	result := make([]BookEntry, len(entries))
	copy(result, entries)
	sort.Slice(result, func(i, j int) bool {
		return result[i].Weight > result[j].Weight
	})

	return result
}

// verifyAndConvert ensures the move is legal and adjusts flags if needed.
func verifyAndConvert(pos *board.Position, move board.Move) board.Move {
	// Find the matching legal move to get correct flags (castling, en passant, etc.)
	legalMoves := pos.GenerateLegalMoves()
	from := move.From()
	to := move.To()

	for i := 0; i < legalMoves.Len(); i++ {
		lm := legalMoves.Get(i)
		if lm.From() == from && lm.To() == to {
			// For promotions, match the promotion piece
			if move.IsPromotion() && lm.IsPromotion() {
				if move.Promotion() == lm.Promotion() {
					return lm
				}
			} else if !move.IsPromotion() && !lm.IsPromotion() {
				return lm
			}
		}
	}

	return board.NoMove
}

// Size returns the number of unique positions in the book.
func (b *Book) Size() int {
	if b == nil {
		return 0
	}
	return len(b.entries)
}

// TextEntry is one line of a text-format opening book: a Polyglot
// position key, a move in long algebraic notation, and a weight.
type TextEntry struct {
	Key    uint64
	Move   board.Move
	Weight uint16
}

// encodePolyglotMove is the inverse of decodePolyglotMove: it packs a
// move's from/to/promotion into Polyglot's 16-bit move encoding,
// translating our king-moves-to-destination castling representation
// back into Polyglot's king-captures-rook encoding.
func encodePolyglotMove(m board.Move) uint16 {
	from := m.From()
	to := m.To()

	if from == board.E1 && to == board.G1 {
		to = board.H1
	} else if from == board.E1 && to == board.C1 {
		to = board.A1
	} else if from == board.E8 && to == board.G8 {
		to = board.H8
	} else if from == board.E8 && to == board.C8 {
		to = board.A8
	}

	var promo uint16
	if m.IsPromotion() {
		switch m.Promotion() {
		case board.Knight:
			promo = 1
		case board.Bishop:
			promo = 2
		case board.Rook:
			promo = 3
		case board.Queen:
			promo = 4
		}
	}

	toFile := uint16(to.File())
	toRank := uint16(to.Rank())
	fromFile := uint16(from.File())
	fromRank := uint16(from.Rank())

	return toFile | (toRank << 3) | (fromFile << 6) | (fromRank << 9) | (promo << 12)
}

// ParseTextEntry parses one line of a text-format book source:
// "<16-hex-digit key> <long-algebraic move> <weight>", e.g.
// "463b96181691fc9c e2e4 100". Promotion moves append a piece letter
// (q/r/b/n) to the move field as in UCI notation.
func ParseTextEntry(line string) (TextEntry, error) {
	fields := strings.Fields(line)
	if len(fields) != 3 {
		return TextEntry{}, fmt.Errorf("expected 3 fields, got %d: %q", len(fields), line)
	}

	key, err := strconv.ParseUint(fields[0], 16, 64)
	if err != nil {
		return TextEntry{}, fmt.Errorf("invalid key %q: %w", fields[0], err)
	}

	move, err := parseLongAlgebraic(fields[1])
	if err != nil {
		return TextEntry{}, fmt.Errorf("invalid move %q: %w", fields[1], err)
	}

	weight, err := strconv.ParseUint(fields[2], 10, 16)
	if err != nil {
		return TextEntry{}, fmt.Errorf("invalid weight %q: %w", fields[2], err)
	}

	return TextEntry{Key: key, Move: move, Weight: uint16(weight)}, nil
}

func parseLongAlgebraic(s string) (board.Move, error) {
	if len(s) < 4 {
		return board.NoMove, fmt.Errorf("too short")
	}

	fromFile := int(s[0] - 'a')
	fromRank := int(s[1] - '1')
	toFile := int(s[2] - 'a')
	toRank := int(s[3] - '1')
	if fromFile < 0 || fromFile > 7 || fromRank < 0 || fromRank > 7 ||
		toFile < 0 || toFile > 7 || toRank < 0 || toRank > 7 {
		return board.NoMove, fmt.Errorf("square out of range")
	}

	from := board.NewSquare(fromFile, fromRank)
	to := board.NewSquare(toFile, toRank)

	if len(s) == 5 {
		switch s[4] {
		case 'q':
			return board.NewPromotion(from, to, board.Queen), nil
		case 'r':
			return board.NewPromotion(from, to, board.Rook), nil
		case 'b':
			return board.NewPromotion(from, to, board.Bishop), nil
		case 'n':
			return board.NewPromotion(from, to, board.Knight), nil
		}
	}

	return board.NewMove(from, to), nil
}

// WritePolyglot writes entries in Polyglot binary book format, sorted by
// key as binary-search readers require. This package's own
// LoadPolyglotReader does not depend on the order.
func WritePolyglot(w io.Writer, entries []TextEntry) error {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Key < entries[j].Key
	})

	var buf [16]byte
	for _, e := range entries {
		binary.BigEndian.PutUint64(buf[0:8], e.Key)
		binary.BigEndian.PutUint16(buf[8:10], encodePolyglotMove(e.Move))
		binary.BigEndian.PutUint16(buf[10:12], e.Weight)
		binary.BigEndian.PutUint32(buf[12:16], 0) // learn data, unused
		if _, err := w.Write(buf[:]); err != nil {
			return err
		}
	}
	return nil
}
