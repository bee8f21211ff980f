package history

import (
	"errors"
	"reflect"
	"testing"

	"go.uber.org/zap"

	ownErrors "goreview/internal/errors"
)

func testLogger() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

// stackMove mutates a shared stack so board materialization can be
// compared against the replay invariant.
type stackMove struct {
	stack *[]int
	value int
}

func (m *stackMove) Apply()  { *m.stack = append(*m.stack, m.value) }
func (m *stackMove) Revert() { *m.stack = (*m.stack)[:len(*m.stack)-1] }

func newStack(t *testing.T, h *MoveHistory, n int) *[]int {
	t.Helper()
	stack := &[]int{}
	for i := 0; i < n; i++ {
		m := &stackMove{stack: stack, value: i}
		m.Apply()
		if err := h.Append(m); err != nil {
			t.Fatalf("Append(%d): %v", i, err)
		}
	}
	return stack
}

func TestNewPositionInvariants(t *testing.T) {
	h := New()
	p := NewBoardPosition(h, testLogger())

	if p.CurrentIndex() != 0 {
		t.Errorf("CurrentIndex() = %d, want 0", p.CurrentIndex())
	}
	if p.NumberOfPositions() != 1 {
		t.Errorf("NumberOfPositions() = %d, want 1", p.NumberOfPositions())
	}
	if !p.IsAtStart() || !p.IsAtEnd() {
		t.Error("empty history cursor should be at start and at end")
	}
}

func TestNavigationRoundTrip(t *testing.T) {
	h := New()
	p := NewBoardPosition(h, testLogger())
	stack := newStack(t, h, 5)

	// The appends above left the cursor following at the end.
	if p.CurrentIndex() != 5 {
		t.Fatalf("CurrentIndex() = %d after appends, want 5", p.CurrentIndex())
	}
	if !reflect.DeepEqual(*stack, []int{0, 1, 2, 3, 4}) {
		t.Fatalf("stack = %v, want all moves applied", *stack)
	}

	if err := p.SetCurrentIndex(0); err != nil {
		t.Fatalf("SetCurrentIndex(0): %v", err)
	}
	if len(*stack) != 0 {
		t.Errorf("stack = %v after navigating to 0, want empty", *stack)
	}
	if !p.IsAtStart() {
		t.Error("IsAtStart() = false at index 0")
	}

	if err := p.SetCurrentIndex(5); err != nil {
		t.Fatalf("SetCurrentIndex(5): %v", err)
	}
	if !reflect.DeepEqual(*stack, []int{0, 1, 2, 3, 4}) {
		t.Errorf("stack = %v after navigating back to 5", *stack)
	}
	if !p.IsAtEnd() {
		t.Error("IsAtEnd() = false at the last position")
	}
}

func TestNoOpNavigation(t *testing.T) {
	h := New()
	p := NewBoardPosition(h, testLogger())
	moves := fill(t, h, 3)
	notified := false
	p.OnCurrentPositionChanged(func(int) { notified = true })

	if err := p.SetCurrentIndex(p.CurrentIndex()); err != nil {
		t.Fatalf("SetCurrentIndex(current): %v", err)
	}
	if notified {
		t.Error("no-op navigation raised a position change")
	}
	for i, m := range moves {
		if m.applies != 0 || m.reverts != 0 {
			t.Errorf("move %d touched by no-op navigation: applies=%d reverts=%d", i, m.applies, m.reverts)
		}
	}
}

func TestMinimalCostNavigation(t *testing.T) {
	h := New()
	p := NewBoardPosition(h, testLogger())
	moves := fill(t, h, 6)
	// Follow left the cursor at 6; appends do not touch the moves.

	if err := p.SetCurrentIndex(2); err != nil {
		t.Fatalf("SetCurrentIndex(2): %v", err)
	}
	if err := p.SetCurrentIndex(5); err != nil {
		t.Fatalf("SetCurrentIndex(5): %v", err)
	}

	wantApplies := []int{0, 0, 1, 1, 1, 0}
	wantReverts := []int{0, 0, 1, 1, 1, 1}
	for i, m := range moves {
		if m.applies != wantApplies[i] {
			t.Errorf("move %d applies = %d, want %d", i, m.applies, wantApplies[i])
		}
		if m.reverts != wantReverts[i] {
			t.Errorf("move %d reverts = %d, want %d", i, m.reverts, wantReverts[i])
		}
	}
}

func TestReconcileFollow(t *testing.T) {
	h := New()
	p := NewBoardPosition(h, testLogger())
	fill(t, h, 5)
	if p.CurrentIndex() != 5 {
		t.Fatalf("CurrentIndex() = %d, want 5", p.CurrentIndex())
	}

	var positions []int
	p.OnCurrentPositionChanged(func(n int) { positions = append(positions, n) })

	extra := &fakeMove{}
	if err := h.Append(extra); err != nil {
		t.Fatalf("Append: %v", err)
	}

	if p.CurrentIndex() != 6 {
		t.Errorf("CurrentIndex() = %d after follow, want 6", p.CurrentIndex())
	}
	if !reflect.DeepEqual(positions, []int{6}) {
		t.Errorf("position notifications = %v, want [6]", positions)
	}
	if extra.applies != 0 || extra.reverts != 0 {
		t.Error("follow branch must not apply or revert the appended move")
	}
}

func TestReconcileIgnore(t *testing.T) {
	h := New()
	p := NewBoardPosition(h, testLogger())
	fill(t, h, 5)
	if err := p.SetCurrentIndex(2); err != nil {
		t.Fatalf("SetCurrentIndex(2): %v", err)
	}

	var counts, positions []int
	p.OnNumberOfPositionsChanged(func(n int) { counts = append(counts, n) })
	p.OnCurrentPositionChanged(func(n int) { positions = append(positions, n) })

	if err := h.Append(&fakeMove{}); err != nil {
		t.Fatalf("Append: %v", err)
	}

	if p.CurrentIndex() != 2 {
		t.Errorf("CurrentIndex() = %d, want 2 (review position untouched)", p.CurrentIndex())
	}
	if !reflect.DeepEqual(counts, []int{7}) {
		t.Errorf("count notifications = %v, want [7]", counts)
	}
	if len(positions) != 0 {
		t.Errorf("position notifications = %v, want none", positions)
	}
}

func TestReconcileFollowOnDiscard(t *testing.T) {
	h := New()
	p := NewBoardPosition(h, testLogger())
	moves := fill(t, h, 5)
	if err := p.SetCurrentIndex(2); err != nil {
		t.Fatalf("SetCurrentIndex(2): %v", err)
	}

	applies := make([]int, len(moves))
	reverts := make([]int, len(moves))
	for i, m := range moves {
		applies[i], reverts[i] = m.applies, m.reverts
	}

	var counts, positions []int
	p.OnNumberOfPositionsChanged(func(n int) { counts = append(counts, n) })
	p.OnCurrentPositionChanged(func(n int) { positions = append(positions, n) })

	// The cursor sits exactly one short of the truncated length, so
	// the discard itself classifies as Follow.
	if err := h.DiscardMovesAfter(2); err != nil {
		t.Fatalf("DiscardMovesAfter(2): %v", err)
	}

	if p.CurrentIndex() != 3 {
		t.Errorf("CurrentIndex() = %d after discard, want 3 (follow)", p.CurrentIndex())
	}
	if !reflect.DeepEqual(counts, []int{4}) {
		t.Errorf("count notifications = %v, want [4]", counts)
	}
	if !reflect.DeepEqual(positions, []int{3}) {
		t.Errorf("position notifications = %v, want [3]", positions)
	}
	for i, m := range moves {
		if m.applies != applies[i] || m.reverts != reverts[i] {
			t.Errorf("move %d touched by discard follow: applies=%d reverts=%d", i, m.applies, m.reverts)
		}
	}
}

func TestReconcileStaleClamps(t *testing.T) {
	h := New()
	p := NewBoardPosition(h, testLogger())
	moves := fill(t, h, 5)
	if p.CurrentIndex() != 5 {
		t.Fatalf("CurrentIndex() = %d, want 5", p.CurrentIndex())
	}

	// Discarding below the cursor violates the usage contract; the
	// cursor clamps defensively without touching any move.
	if err := h.DiscardMovesAfter(2); err != nil {
		t.Fatalf("DiscardMovesAfter(2): %v", err)
	}

	if p.CurrentIndex() != 3 {
		t.Errorf("CurrentIndex() = %d after clamp, want 3", p.CurrentIndex())
	}
	for i, m := range moves {
		if m.applies != 0 || m.reverts != 0 {
			t.Errorf("move %d touched by stale clamp: applies=%d reverts=%d", i, m.applies, m.reverts)
		}
	}
}

func TestDiscardThenAppendFollowsToNewHead(t *testing.T) {
	h := New()
	p := NewBoardPosition(h, testLogger())
	stack := newStack(t, h, 5)

	// Review from position 2.
	if err := p.SetCurrentIndex(2); err != nil {
		t.Fatalf("SetCurrentIndex(2): %v", err)
	}

	// The owning actor replaces the future: keep moves 0..1, then
	// play a new move from the displayed position.
	if err := h.DiscardMovesAfter(1); err != nil {
		t.Fatalf("DiscardMovesAfter(1): %v", err)
	}
	if p.CurrentIndex() != 2 {
		t.Fatalf("CurrentIndex() = %d after discard, want 2 (ignore)", p.CurrentIndex())
	}

	m := &stackMove{stack: stack, value: 99}
	m.Apply()
	if err := h.Append(m); err != nil {
		t.Fatalf("Append: %v", err)
	}

	if p.CurrentIndex() != 3 {
		t.Errorf("CurrentIndex() = %d, want 3 (follow to the new head)", p.CurrentIndex())
	}
	if !reflect.DeepEqual(*stack, []int{0, 1, 99}) {
		t.Errorf("stack = %v, want [0 1 99]", *stack)
	}
}

func TestNotificationOrdering(t *testing.T) {
	h := New()
	p := NewBoardPosition(h, testLogger())

	var order []string
	p.OnNumberOfPositionsChanged(func(int) { order = append(order, "count") })
	p.OnCurrentPositionChanged(func(int) { order = append(order, "position") })

	if err := h.Append(&fakeMove{}); err != nil {
		t.Fatalf("Append: %v", err)
	}

	if !reflect.DeepEqual(order, []string{"count", "position"}) {
		t.Errorf("notification order = %v, want count before position", order)
	}
}

func TestRangeRejection(t *testing.T) {
	h := New()
	p := NewBoardPosition(h, testLogger())
	stack := newStack(t, h, 3)
	before := append([]int(nil), *stack...)

	for _, index := range []int{-1, 4} {
		if err := p.SetCurrentIndex(index); !errors.Is(err, ownErrors.ErrIndexOutOfRange) {
			t.Errorf("SetCurrentIndex(%d) = %v, want ErrIndexOutOfRange", index, err)
		}
	}

	if p.CurrentIndex() != 3 {
		t.Errorf("CurrentIndex() = %d after rejected calls, want 3", p.CurrentIndex())
	}
	if !reflect.DeepEqual(*stack, before) {
		t.Errorf("board state changed by rejected navigation: %v != %v", *stack, before)
	}
}
