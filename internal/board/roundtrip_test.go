package board

import "testing"

// TestFENRoundTrip checks that FEN -> Position -> FEN reproduces the
// original FEN, modulo en-passant square normalization (ep is only
// emitted if a capturing enemy pawn actually exists).
func TestFENRoundTrip(t *testing.T) {
	fens := []string{
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1",
		"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
		"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1",
		"rnbq1k1r/pp1Pbppp/2p5/8/2B5/8/PPP1NnPP/RNBQK2R w KQ - 0 1",
	}

	for _, fen := range fens {
		t.Run("", func(t *testing.T) {
			pos, err := ParseFEN(fen)
			if err != nil {
				t.Fatalf("ParseFEN(%q): %v", fen, err)
			}
			got := pos.ToFEN()
			if got != fen {
				t.Errorf("round trip: got %q, want %q", got, fen)
			}
		})
	}
}

// TestFENRoundTripEnPassantNormalization checks that an ep square is only
// re-emitted when a capturing enemy pawn is actually present; otherwise it
// is dropped even though the FEN that was parsed carried one.
func TestFENRoundTripEnPassantNormalization(t *testing.T) {
	// After 1.e4, the e3 ep square has no adjacent black pawn to use it.
	pos, err := ParseFEN("rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}
	if got := pos.ToFEN(); got != "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq - 0 1" {
		t.Errorf("expected ep square to be dropped, got %q", got)
	}
}

// TestMoveStringRoundTrip checks that Move -> algebraic string -> ParseMove
// against the same position yields the original Move.
func TestMoveStringRoundTrip(t *testing.T) {
	pos := NewPosition()
	moves := pos.GenerateLegalMoves()

	for i := 0; i < moves.Len(); i++ {
		m := moves.Get(i)
		s := m.String()
		got, err := ParseMove(s, pos)
		if err != nil {
			t.Fatalf("ParseMove(%q): %v", s, err)
		}
		if got != m {
			t.Errorf("round trip %q: got %v, want %v", s, got, m)
		}
	}
}

// TestMoveStringRoundTripPromotion exercises the promotion-suffix branch of
// the round trip on a position with a pawn one step from promoting.
func TestMoveStringRoundTripPromotion(t *testing.T) {
	pos, err := ParseFEN("4k3/P7/8/8/8/8/8/4K3 w - - 0 1")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}

	moves := pos.GenerateLegalMoves()
	found := false
	for i := 0; i < moves.Len(); i++ {
		m := moves.Get(i)
		if !m.IsPromotion() {
			continue
		}
		found = true
		s := m.String()
		got, err := ParseMove(s, pos)
		if err != nil {
			t.Fatalf("ParseMove(%q): %v", s, err)
		}
		if got != m {
			t.Errorf("round trip %q: got %v, want %v", s, got, m)
		}
	}
	if !found {
		t.Fatal("expected at least one promotion move from a7")
	}
}
