package board

import (
	"strings"
)

// SAN converts a move to Standard Algebraic Notation, including
// disambiguation and a trailing check/checkmate marker.
func (m Move) SAN(pos *Position) string {
	if m == NoMove {
		return "-"
	}

	from := m.From()
	to := m.To()
	piece := pos.PieceAt(from)

	if piece == NoPiece {
		return m.String()
	}

	var sb strings.Builder

	if m.IsCastling() {
		if to > from {
			return "O-O"
		}
		return "O-O-O"
	}

	pt := piece.Type()

	if pt != Pawn {
		sb.WriteByte("PNBRQK"[pt])
		sb.WriteString(sanDisambiguation(pos, m, pt))
	}

	if m.IsCapture() {
		if pt == Pawn {
			sb.WriteByte('a' + byte(from.File()))
		}
		sb.WriteByte('x')
	}

	sb.WriteString(to.String())

	if m.IsPromotion() {
		sb.WriteByte('=')
		sb.WriteByte("PNBRQK"[m.Promotion()])
	}

	newPos := pos.Copy()
	newPos.MakeMove(m)
	newPos.UpdateCheckers()
	if newPos.IsCheckmate() {
		sb.WriteByte('#')
	} else if newPos.InCheck() {
		sb.WriteByte('+')
	}

	return sb.String()
}

// sanDisambiguation returns the file, rank, or full-square qualifier
// needed to uniquely identify which piece of type pt is moving, per
// standard SAN disambiguation rules.
func sanDisambiguation(pos *Position, m Move, pt PieceType) string {
	from := m.From()
	to := m.To()
	us := pos.SideToMove

	pieces := pos.Pieces[us][pt]

	var candidates []Square
	allMoves := pos.GenerateLegalMoves()
	for i := 0; i < allMoves.Len(); i++ {
		move := allMoves.Get(i)
		if move.To() != to || move.From() == from {
			continue
		}
		if pieces.IsSet(move.From()) {
			candidates = append(candidates, move.From())
		}
	}

	if len(candidates) == 0 {
		return ""
	}

	sameFile, sameRank := false, false
	for _, sq := range candidates {
		if sq.File() == from.File() {
			sameFile = true
		}
		if sq.Rank() == from.Rank() {
			sameRank = true
		}
	}

	if !sameFile {
		return string(rune('a' + from.File()))
	}
	if !sameRank {
		return string(rune('1' + from.Rank()))
	}
	return from.String()
}

// ParseSAN parses a SAN move string against pos and returns the
// matching legal move.
func ParseSAN(s string, pos *Position) (Move, error) {
	s = strings.TrimSpace(s)

	if s == "O-O" || s == "0-0" {
		if pos.SideToMove == White {
			return NewCastlingOO(E1, G1), nil
		}
		return NewCastlingOO(E8, G8), nil
	}
	if s == "O-O-O" || s == "0-0-0" {
		if pos.SideToMove == White {
			return NewCastlingOOO(E1, C1), nil
		}
		return NewCastlingOOO(E8, C8), nil
	}

	s = strings.TrimSuffix(s, "+")
	s = strings.TrimSuffix(s, "#")

	promoPiece := NoPieceType
	if idx := strings.Index(s, "="); idx >= 0 {
		switch s[idx+1] {
		case 'N':
			promoPiece = Knight
		case 'B':
			promoPiece = Bishop
		case 'R':
			promoPiece = Rook
		case 'Q':
			promoPiece = Queen
		}
		s = s[:idx]
	}

	isCapture := strings.Contains(s, "x")
	s = strings.ReplaceAll(s, "x", "")

	pt := Pawn
	if len(s) > 0 && s[0] >= 'A' && s[0] <= 'Z' {
		switch s[0] {
		case 'N':
			pt = Knight
		case 'B':
			pt = Bishop
		case 'R':
			pt = Rook
		case 'Q':
			pt = Queen
		case 'K':
			pt = King
		}
		s = s[1:]
	}

	if len(s) < 2 {
		return NoMove, errInvalidSAN(s)
	}
	dest, err := ParseSquare(s[len(s)-2:])
	if err != nil {
		return NoMove, err
	}
	s = s[:len(s)-2]

	disambigFile, disambigRank := -1, -1
	for _, c := range s {
		switch {
		case c >= 'a' && c <= 'h':
			disambigFile = int(c - 'a')
		case c >= '1' && c <= '8':
			disambigRank = int(c - '1')
		}
	}

	moves := pos.GenerateLegalMoves()
	for i := 0; i < moves.Len(); i++ {
		m := moves.Get(i)
		if m.To() != dest {
			continue
		}
		from := m.From()
		if pos.PieceAt(from).Type() != pt {
			continue
		}
		if disambigFile >= 0 && from.File() != disambigFile {
			continue
		}
		if disambigRank >= 0 && from.Rank() != disambigRank {
			continue
		}
		if isCapture && !m.IsCapture() {
			continue
		}
		if promoPiece != NoPieceType && (!m.IsPromotion() || m.Promotion() != promoPiece) {
			continue
		}
		return m, nil
	}

	return NoMove, errInvalidSAN(s)
}

type sanError string

func (e sanError) Error() string { return "invalid SAN: " + string(e) }

func errInvalidSAN(s string) error { return sanError(s) }

// MovesToSAN converts a sequence of moves, applied in order starting
// from pos, into their SAN strings.
func MovesToSAN(pos *Position, moves []Move) []string {
	result := make([]string, len(moves))
	p := pos.Copy()

	for i, m := range moves {
		result[i] = m.SAN(p)
		p.MakeMove(m)
		p.UpdateCheckers()
	}

	return result
}
