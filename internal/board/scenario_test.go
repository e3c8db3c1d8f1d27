package board

import "testing"

// TestFoolsMate plays the shortest forced checkmate and checks the
// resulting position reports checkmate with no legal replies.
func TestFoolsMate(t *testing.T) {
	pos := NewPosition()

	moves := []string{"f2f3", "e7e5", "g2g4", "d8h4"}
	for _, s := range moves {
		m, err := ParseMove(s, pos)
		if err != nil {
			t.Fatalf("ParseMove(%q): %v", s, err)
		}
		undo := pos.MakeMove(m)
		if !undo.Valid {
			t.Fatalf("move %q rejected as illegal", s)
		}
	}

	if !pos.IsCheckmate() {
		t.Error("expected checkmate after Fool's mate sequence")
	}
	if pos.SideToMove != White {
		t.Errorf("expected White to move, got %s", pos.SideToMove)
	}
	if n := pos.GenerateLegalMoves().Len(); n != 0 {
		t.Errorf("expected 0 legal moves, got %d", n)
	}
}

// TestCastlingUnmakeRestoresRights checks that castling updates king/rook
// placement correctly and that unmaking it restores the exact pre-move
// position, including castling rights.
func TestCastlingUnmakeRestoresRights(t *testing.T) {
	fen := "r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1"
	pos, err := ParseFEN(fen)
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}
	before := pos.Copy()

	m, err := ParseMove("e1g1", pos)
	if err != nil {
		t.Fatalf("ParseMove: %v", err)
	}
	undo := pos.MakeMove(m)
	if !undo.Valid {
		t.Fatal("castling move rejected as illegal")
	}

	if pos.PieceAt(G1).Type() != King {
		t.Error("expected king on g1 after O-O")
	}
	if pos.PieceAt(F1).Type() != Rook {
		t.Error("expected rook on f1 after O-O")
	}

	pos.UnmakeMove(m, undo)

	if pos.ToFEN() != before.ToFEN() {
		t.Errorf("unmake did not restore position: got %q, want %q", pos.ToFEN(), before.ToFEN())
	}
	if pos.CastlingRights != before.CastlingRights {
		t.Errorf("unmake did not restore castling rights: got %v, want %v", pos.CastlingRights, before.CastlingRights)
	}
}
