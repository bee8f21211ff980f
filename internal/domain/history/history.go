// Package history holds the move log of a single game and the board
// position cursor that navigates over it. The package performs no
// locking: the owning session must serialize every mutation (append,
// discard, navigation) through one goroutine. Notification callbacks
// run synchronously inside the triggering call and must not re-enter
// the history or the cursor.
package history

import (
	"fmt"

	"goreview/internal/errors"
)

// Move is one ply as seen by the log and the cursor. Apply mutates the
// shared board forward by exactly one ply, Revert exactly undoes the
// most recent Apply. Both are deterministic given the board state and
// must not raise any notifications themselves.
type Move interface {
	Apply()
	Revert()
}

// MoveHistory is the append-only, dense move log. Indices run
// 0..Length()-1 with no gaps; the only mutations are Append and
// DiscardMovesAfter. A length-change callback is the sole externally
// observable mutation signal.
type MoveHistory struct {
	moves    []Move
	onLength []func(newLength int)
}

func New() *MoveHistory {
	return &MoveHistory{}
}

// OnLengthChanged registers fn to be called synchronously, in
// registration order, after every mutation that changed the length.
func (h *MoveHistory) OnLengthChanged(fn func(newLength int)) {
	h.onLength = append(h.onLength, fn)
}

// Append adds move at index Length(). The caller is expected to have
// already applied the move's board effect; the cursor's Follow branch
// relies on that (see BoardPosition).
func (h *MoveHistory) Append(move Move) error {
	if move == nil {
		return errors.ErrNilMove
	}
	for _, m := range h.moves {
		if m == move {
			return errors.ErrMoveOwned
		}
	}
	h.moves = append(h.moves, move)
	h.notifyLength()
	return nil
}

// DiscardMovesAfter removes every move whose index is greater than
// index. index == Length()-1 (or Length()) removes nothing; index == -1
// empties the history. Nothing is notified when no move was removed.
func (h *MoveHistory) DiscardMovesAfter(index int) error {
	if index < -1 || index > len(h.moves) {
		return fmt.Errorf("%w: discard after %d with length %d", errors.ErrIndexOutOfRange, index, len(h.moves))
	}
	if index >= len(h.moves)-1 {
		return nil
	}
	h.moves = h.moves[:index+1]
	h.notifyLength()
	return nil
}

// MoveAt returns the move at index, which must be in [0, Length()-1].
func (h *MoveHistory) MoveAt(index int) (Move, error) {
	if index < 0 || index >= len(h.moves) {
		return nil, fmt.Errorf("%w: move at %d with length %d", errors.ErrIndexOutOfRange, index, len(h.moves))
	}
	return h.moves[index], nil
}

func (h *MoveHistory) Length() int {
	return len(h.moves)
}

func (h *MoveHistory) notifyLength() {
	for _, fn := range h.onLength {
		fn(len(h.moves))
	}
}
