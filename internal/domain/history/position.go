package history

import (
	"fmt"

	"go.uber.org/zap"

	"goreview/internal/errors"
)

// BoardPosition is the navigation cursor over one MoveHistory. Index 0
// is the empty board, index Length() is the board with every move
// applied; the materialized board always equals the result of applying
// moves 0..CurrentIndex()-1 in order from the empty board.
//
// The cursor is bound to its history at construction and never
// rebinds. It subscribes to the history's length changes and
// reconciles its index against the new length (see reconcile).
type BoardPosition struct {
	history *MoveHistory
	current int
	log     *zap.SugaredLogger

	onCount    []func(newCount int)
	onPosition []func(newIndex int)
}

func NewBoardPosition(h *MoveHistory, log *zap.SugaredLogger) *BoardPosition {
	p := &BoardPosition{
		history: h,
		log:     log,
	}
	h.OnLengthChanged(p.reconcile)
	return p
}

// OnNumberOfPositionsChanged registers fn to be called whenever the
// history's length changes. When a position-change fires from the same
// triggering event, the count callbacks always run first.
func (p *BoardPosition) OnNumberOfPositionsChanged(fn func(newCount int)) {
	p.onCount = append(p.onCount, fn)
}

// OnCurrentPositionChanged registers fn to be called whenever the
// cursor's index actually changes value, via SetCurrentIndex or via
// reconciliation.
func (p *BoardPosition) OnCurrentPositionChanged(fn func(newIndex int)) {
	p.onPosition = append(p.onPosition, fn)
}

// SetCurrentIndex moves the cursor to newIndex, applying or reverting
// exactly |newIndex - CurrentIndex()| moves. The call is all-or-nothing:
// an out-of-range index is rejected before any board mutation. Setting
// the current index again is a no-op and raises nothing; otherwise a
// single position-change fires after all apply/revert calls complete.
func (p *BoardPosition) SetCurrentIndex(newIndex int) error {
	if newIndex < 0 || newIndex > p.history.Length() {
		return fmt.Errorf("%w: position %d with %d positions", errors.ErrIndexOutOfRange, newIndex, p.NumberOfPositions())
	}
	if newIndex == p.current {
		return nil
	}
	if newIndex > p.current {
		for i := p.current; i < newIndex; i++ {
			m, err := p.history.MoveAt(i)
			if err != nil {
				return err
			}
			m.Apply()
		}
	} else {
		for i := p.current - 1; i >= newIndex; i-- {
			m, err := p.history.MoveAt(i)
			if err != nil {
				return err
			}
			m.Revert()
		}
	}
	p.current = newIndex
	p.notifyPosition()
	return nil
}

func (p *BoardPosition) CurrentIndex() int {
	return p.current
}

func (p *BoardPosition) NumberOfPositions() int {
	return p.history.Length() + 1
}

func (p *BoardPosition) IsAtStart() bool {
	return p.current == 0
}

func (p *BoardPosition) IsAtEnd() bool {
	return p.current == p.history.Length()
}

// reconcile runs on every history length change. The new position
// count is always published first; then exactly one of three branches
// runs:
//
//   - Stale: the cursor points past the new length. Moves were
//     discarded out from under the cursor, which correct callers never
//     do. The index is clamped without touching the board (discard is
//     only issued by the actor that keeps the board consistent) and a
//     warning is logged.
//   - Follow: the cursor sat exactly at the last position before the
//     change. Whoever appended has already applied the new move's
//     board effect, so the cursor advances without apply/revert.
//   - Ignore: the cursor is reviewing an earlier position; a change to
//     moves ahead of it does not alter what is materialized.
func (p *BoardPosition) reconcile(newLength int) {
	p.notifyCount(newLength + 1)

	switch {
	case p.current > newLength:
		p.log.Warnw("board position cursor points past the truncated history, clamping",
			"currentIndex", p.current,
			"newLength", newLength,
		)
		p.current = newLength
		p.notifyPosition()
	case p.current+1 == newLength:
		p.current = newLength
		p.notifyPosition()
	}
}

func (p *BoardPosition) notifyCount(newCount int) {
	for _, fn := range p.onCount {
		fn(newCount)
	}
}

func (p *BoardPosition) notifyPosition() {
	for _, fn := range p.onPosition {
		fn(p.current)
	}
}
