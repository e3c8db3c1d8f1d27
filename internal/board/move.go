package board

import "fmt"

// Move encodes a chess move in 16 bits:
//
//	bits 0-5:   to square   (0-63)
//	bits 6-11:  from square (0-63)
//	bits 12-15: flags
//
// Flag values are fixed so capture/promotion can be read straight off the
// bit pattern without consulting the board:
//
//	0000 Quiet       0001 DoublePush   0010 OO          0011 OOO
//	0100 PR_N        0101 PR_B         0110 PR_R        0111 PR_Q
//	1000 Capture     1001 (unused)     1010 EnPassant   1011 (unused)
//	1100 PC_N        1101 PC_B         1110 PC_R        1111 PC_Q
//
// A move is a capture iff flags&0b1000 != 0; a promotion iff flags&0b0100 != 0.
type Move uint16

// Move flags.
const (
	FlagQuiet      uint16 = 0x0
	FlagDoublePush uint16 = 0x1
	FlagOO         uint16 = 0x2
	FlagOOO        uint16 = 0x3
	FlagPRKnight   uint16 = 0x4
	FlagPRBishop   uint16 = 0x5
	FlagPRRook     uint16 = 0x6
	FlagPRQueen    uint16 = 0x7
	FlagCapture    uint16 = 0x8
	FlagEnPassant  uint16 = 0xA
	FlagPCKnight   uint16 = 0xC
	FlagPCBishop   uint16 = 0xD
	FlagPCRook     uint16 = 0xE
	FlagPCQueen    uint16 = 0xF
)

// promoQuietFlag and promoCaptureFlag map a promotion PieceType (offset so
// Knight is index 1) to its quiet and capture flag.
var promoQuietFlag = [5]uint16{0, FlagPRKnight, FlagPRBishop, FlagPRRook, FlagPRQueen}
var promoCaptureFlag = [5]uint16{0, FlagPCKnight, FlagPCBishop, FlagPCRook, FlagPCQueen}

// NoMove represents an invalid or null move.
const NoMove Move = 0

func encode(from, to Square, flag uint16) Move {
	return Move(to) | Move(from)<<6 | Move(flag)<<12
}

// NewMove creates a quiet, non-special move.
func NewMove(from, to Square) Move {
	return encode(from, to, FlagQuiet)
}

// NewCapture creates an ordinary capture move.
func NewCapture(from, to Square) Move {
	return encode(from, to, FlagCapture)
}

// NewDoublePush creates a pawn two-square advance.
func NewDoublePush(from, to Square) Move {
	return encode(from, to, FlagDoublePush)
}

// NewCastlingOO creates a kingside castle.
func NewCastlingOO(from, to Square) Move {
	return encode(from, to, FlagOO)
}

// NewCastlingOOO creates a queenside castle.
func NewCastlingOOO(from, to Square) Move {
	return encode(from, to, FlagOOO)
}

// NewEnPassant creates an en-passant capture.
func NewEnPassant(from, to Square) Move {
	return encode(from, to, FlagEnPassant)
}

// NewPromotion creates a promotion without capture.
func NewPromotion(from, to Square, promo PieceType) Move {
	return encode(from, to, promoQuietFlag[promo-Knight+1])
}

// NewPromotionCapture creates a promotion that also captures.
func NewPromotionCapture(from, to Square, promo PieceType) Move {
	return encode(from, to, promoCaptureFlag[promo-Knight+1])
}

// To returns the destination square.
func (m Move) To() Square {
	return Square(m & 0x3F)
}

// From returns the origin square.
func (m Move) From() Square {
	return Square((m >> 6) & 0x3F)
}

// Flag returns the 4-bit move flag.
func (m Move) Flag() uint16 {
	return uint16(m>>12) & 0xF
}

// IsCapture reports whether the move's flag encodes a capture (flags & 1000).
func (m Move) IsCapture() bool {
	return m.Flag()&0x8 != 0
}

// IsPromotion reports whether the move's flag encodes a promotion.
func (m Move) IsPromotion() bool {
	return m.Flag()&0x4 != 0 && m.Flag() != FlagEnPassant
}

// IsEnPassant reports whether the move is an en-passant capture.
func (m Move) IsEnPassant() bool {
	return m.Flag() == FlagEnPassant
}

// IsDoublePush reports whether the move is a pawn two-square advance.
func (m Move) IsDoublePush() bool {
	return m.Flag() == FlagDoublePush
}

// IsCastling reports whether the move is a kingside or queenside castle.
func (m Move) IsCastling() bool {
	return m.Flag() == FlagOO || m.Flag() == FlagOOO
}

// IsCastlingOO reports whether the move is specifically a kingside castle.
func (m Move) IsCastlingOO() bool {
	return m.Flag() == FlagOO
}

// IsQuiet reports whether the move is neither a capture nor a promotion.
func (m Move) IsQuiet() bool {
	return !m.IsCapture() && !m.IsPromotion()
}

// Promotion returns the promotion piece type; only meaningful if IsPromotion().
func (m Move) Promotion() PieceType {
	switch m.Flag() &^ 0x8 {
	case FlagPRKnight:
		return Knight
	case FlagPRBishop:
		return Bishop
	case FlagPRRook:
		return Rook
	case FlagPRQueen:
		return Queen
	}
	return NoPieceType
}

// String returns the long-algebraic (UCI) form of the move, e.g. "e2e4", "e7e8q".
func (m Move) String() string {
	if m == NoMove {
		return "0000"
	}

	s := m.From().String() + m.To().String()

	if m.IsPromotion() {
		promoChars := map[PieceType]byte{Knight: 'n', Bishop: 'b', Rook: 'r', Queen: 'q'}
		s += string(promoChars[m.Promotion()])
	}

	return s
}

// ParseMove parses a long-algebraic move string against pos, inferring the
// special flags (double push, castle, en-passant, capture) from the board.
func ParseMove(s string, pos *Position) (Move, error) {
	if len(s) < 4 {
		return NoMove, fmt.Errorf("invalid move string: %s", s)
	}

	from, err := ParseSquare(s[0:2])
	if err != nil {
		return NoMove, err
	}
	to, err := ParseSquare(s[2:4])
	if err != nil {
		return NoMove, err
	}

	piece := pos.PieceAt(from)
	if piece == NoPiece {
		return NoMove, fmt.Errorf("no piece at %s", from)
	}
	pt := piece.Type()
	captures := !pos.IsEmpty(to)

	if len(s) == 5 {
		var promo PieceType
		switch s[4] {
		case 'n':
			promo = Knight
		case 'b':
			promo = Bishop
		case 'r':
			promo = Rook
		case 'q':
			promo = Queen
		default:
			return NoMove, fmt.Errorf("invalid promotion piece: %c", s[4])
		}
		if captures {
			return NewPromotionCapture(from, to, promo), nil
		}
		return NewPromotion(from, to, promo), nil
	}

	if pt == King && abs(int(to)-int(from)) == 2 {
		if to > from {
			return NewCastlingOO(from, to), nil
		}
		return NewCastlingOOO(from, to), nil
	}

	if pt == Pawn && to == pos.EnPassant && pos.EnPassant != NoSquare {
		return NewEnPassant(from, to), nil
	}

	if pt == Pawn && abs(int(to)-int(from)) == 16 {
		return NewDoublePush(from, to), nil
	}

	if captures {
		return NewCapture(from, to), nil
	}
	return NewMove(from, to), nil
}

// MoveList is a fixed-capacity list of 256 moves, above the 218-move upper
// bound on any legal position, avoiding per-node heap allocation.
type MoveList struct {
	moves [256]Move
	count int
}

// NewMoveList creates an empty move list.
func NewMoveList() *MoveList {
	return &MoveList{}
}

// Add appends a move to the list.
func (ml *MoveList) Add(m Move) {
	ml.moves[ml.count] = m
	ml.count++
}

// Len returns the number of moves in the list.
func (ml *MoveList) Len() int {
	return ml.count
}

// Get returns the move at index i.
func (ml *MoveList) Get(i int) Move {
	return ml.moves[i]
}

// Set overwrites the move at index i.
func (ml *MoveList) Set(i int, m Move) {
	ml.moves[i] = m
}

// Swap exchanges the moves at indices i and j.
func (ml *MoveList) Swap(i, j int) {
	ml.moves[i], ml.moves[j] = ml.moves[j], ml.moves[i]
}

// Clear empties the list without reallocating.
func (ml *MoveList) Clear() {
	ml.count = 0
}

// Contains reports whether m is present in the list.
func (ml *MoveList) Contains(m Move) bool {
	for i := 0; i < ml.count; i++ {
		if ml.moves[i] == m {
			return true
		}
	}
	return false
}

// Slice returns the live portion of the list as a slice.
func (ml *MoveList) Slice() []Move {
	return ml.moves[:ml.count]
}

// UndoInfo carries what MakeMove needs to reverse itself. CastlingRights
// holds a full snapshot of the pre-move rights rather than a diff: rights
// are monotonically lost and never regained, so restoring the parent ply's
// snapshot on unmake is equivalent to, and simpler than, replaying a
// bitmask of which rights were cleared this move.
type UndoInfo struct {
	CapturedPiece  Piece
	CastlingRights CastlingRights
	EnPassant      Square
	HalfMoveClock  int
	Hash           uint64
	PawnKey        uint64
	Checkers       Bitboard
	KingSquare     [2]Square
	Pieces         [2][6]Bitboard
	Occupied       [2]Bitboard
	AllOccupied    Bitboard
	Valid          bool // false if there was no piece of the mover on the from-square (position untouched), or the move left the mover in check (move already applied; UnmakeMove reverts it)
}
