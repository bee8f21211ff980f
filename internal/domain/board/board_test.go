package board

import (
	"errors"
	"testing"

	ownErrors "goreview/internal/errors"
)

func mustMove(t *testing.T, b *Board, c Color, x, y int) *StoneMove {
	t.Helper()
	m, err := b.NewMove(c, Point{X: x, Y: y})
	if err != nil {
		t.Fatalf("NewMove(%v, %d, %d): %v", c, x, y, err)
	}
	m.Apply()
	return m
}

func TestNewBoardSize(t *testing.T) {
	if _, err := New(1); !errors.Is(err, ownErrors.ErrIllegalMove) {
		t.Errorf("New(1) = %v, want ErrIllegalMove", err)
	}
	b, err := New(9)
	if err != nil {
		t.Fatalf("New(9): %v", err)
	}
	if b.Size() != 9 {
		t.Errorf("Size() = %d, want 9", b.Size())
	}
}

func TestPlacementRejections(t *testing.T) {
	b, _ := New(9)
	mustMove(t, b, Black, 4, 4)

	tests := []struct {
		name string
		p    Point
	}{
		{"occupied", Point{4, 4}},
		{"off the board", Point{9, 0}},
		{"negative", Point{-1, 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := b.NewMove(White, tt.p); !errors.Is(err, ownErrors.ErrIllegalMove) {
				t.Errorf("NewMove(%v) = %v, want ErrIllegalMove", tt.p, err)
			}
		})
	}
}

func TestSingleStoneCapture(t *testing.T) {
	b, _ := New(9)
	// White stone at (4,4) surrounded on three sides, then black
	// plays the last liberty.
	mustMove(t, b, White, 4, 4)
	mustMove(t, b, Black, 3, 4)
	mustMove(t, b, Black, 5, 4)
	mustMove(t, b, Black, 4, 3)

	capture := mustMove(t, b, Black, 4, 5)

	if b.At(Point{4, 4}) != Empty {
		t.Error("captured stone still on the board")
	}
	if capture.CapturedCount() != 1 {
		t.Errorf("CapturedCount() = %d, want 1", capture.CapturedCount())
	}

	capture.Revert()
	if b.At(Point{4, 4}) != White {
		t.Error("revert did not restore the captured stone")
	}
	if b.At(Point{4, 5}) != Empty {
		t.Error("revert did not lift the capturing stone")
	}
}

func TestGroupCapture(t *testing.T) {
	b, _ := New(5)
	// Two-stone white chain on the edge.
	mustMove(t, b, White, 0, 0)
	mustMove(t, b, White, 1, 0)
	mustMove(t, b, Black, 0, 1)
	mustMove(t, b, Black, 1, 1)

	capture := mustMove(t, b, Black, 2, 0)

	if b.At(Point{0, 0}) != Empty || b.At(Point{1, 0}) != Empty {
		t.Error("chain not fully captured")
	}
	if capture.CapturedCount() != 2 {
		t.Errorf("CapturedCount() = %d, want 2", capture.CapturedCount())
	}
}

func TestSuicideRejected(t *testing.T) {
	b, _ := New(5)
	mustMove(t, b, Black, 1, 0)
	mustMove(t, b, Black, 0, 1)

	if _, err := b.NewMove(White, Point{0, 0}); !errors.Is(err, ownErrors.ErrIllegalMove) {
		t.Errorf("suicide NewMove = %v, want ErrIllegalMove", err)
	}
	if b.At(Point{0, 0}) != Empty {
		t.Error("rejected move left a stone behind")
	}
}

func TestCaptureIsNotSuicide(t *testing.T) {
	b, _ := New(5)
	// White at (0,0) with a single liberty at (1,0); black fills it.
	// Black's stone has no liberty until the capture frees (0,0).
	mustMove(t, b, White, 0, 0)
	mustMove(t, b, Black, 0, 1)
	mustMove(t, b, Black, 1, 1)
	mustMove(t, b, White, 2, 0)

	m, err := b.NewMove(Black, Point{1, 0})
	if err != nil {
		t.Fatalf("capturing move rejected as suicide: %v", err)
	}
	m.Apply()
	if b.At(Point{0, 0}) != Empty {
		t.Error("capture not performed")
	}
}

func TestApplyRevertRoundTrip(t *testing.T) {
	b, _ := New(9)
	start := b.Hash()

	moves := []*StoneMove{
		mustMove(t, b, Black, 2, 2),
		mustMove(t, b, White, 6, 6),
		mustMove(t, b, Black, 6, 5),
		mustMove(t, b, White, 3, 3),
	}

	for i := len(moves) - 1; i >= 0; i-- {
		moves[i].Revert()
	}
	if b.Hash() != start {
		t.Error("reverting every move did not restore the empty board")
	}
}

func TestPassLeavesBoardUntouched(t *testing.T) {
	b, _ := New(9)
	mustMove(t, b, Black, 4, 4)
	before := b.Hash()

	pass := b.NewPass(White)
	pass.Apply()
	if b.Hash() != before {
		t.Error("pass mutated the board")
	}
	pass.Revert()
	if b.Hash() != before {
		t.Error("pass revert mutated the board")
	}
	if !pass.IsPass() {
		t.Error("IsPass() = false for a pass")
	}
	if pass.SGFCoordinates() != "" {
		t.Errorf("SGFCoordinates() = %q for a pass, want empty", pass.SGFCoordinates())
	}
}

func TestSGFCoordinates(t *testing.T) {
	b, _ := New(19)
	m := mustMove(t, b, Black, 3, 16)
	if got := m.SGFCoordinates(); got != "dq" {
		t.Errorf("SGFCoordinates() = %q, want dq", got)
	}
}
