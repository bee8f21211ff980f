// Package board implements the Go board the move log is replayed
// against: stone placement, group capture, suicide detection and
// position hashing. Scoring and territory are out of scope.
package board

import (
	"fmt"
	"hash/fnv"

	"goreview/internal/errors"
)

type Color int8

const (
	Empty Color = iota
	Black
	White
)

func (c Color) Opponent() Color {
	switch c {
	case Black:
		return White
	case White:
		return Black
	}
	return Empty
}

func (c Color) String() string {
	switch c {
	case Black:
		return "black"
	case White:
		return "white"
	}
	return "empty"
}

type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Board is the shared mutable position. It is only ever mutated
// through StoneMove.Apply and StoneMove.Revert, driven by a single
// owner; the single-writer discipline is the caller's.
type Board struct {
	size int
	grid []Color
}

func New(size int) (*Board, error) {
	if size < 2 || size > 25 {
		return nil, fmt.Errorf("%w: board size %d", errors.ErrIllegalMove, size)
	}
	return &Board{
		size: size,
		grid: make([]Color, size*size),
	}, nil
}

func (b *Board) Size() int {
	return b.size
}

func (b *Board) At(p Point) Color {
	return b.grid[p.Y*b.size+p.X]
}

func (b *Board) set(p Point, c Color) {
	b.grid[p.Y*b.size+p.X] = c
}

func (b *Board) onBoard(p Point) bool {
	return p.X >= 0 && p.Y >= 0 && p.X < b.size && p.Y < b.size
}

func (b *Board) neighbors(p Point) []Point {
	candidates := [4]Point{
		{p.X - 1, p.Y},
		{p.X + 1, p.Y},
		{p.X, p.Y - 1},
		{p.X, p.Y + 1},
	}
	out := make([]Point, 0, 4)
	for _, n := range candidates {
		if b.onBoard(n) {
			out = append(out, n)
		}
	}
	return out
}

// group flood-fills the chain containing p and reports whether it has
// at least one liberty. p must hold a stone.
func (b *Board) group(p Point) (stones []Point, hasLiberty bool) {
	color := b.At(p)
	seen := make(map[Point]bool)
	stack := []Point{p}
	seen[p] = true
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		stones = append(stones, cur)
		for _, n := range b.neighbors(cur) {
			switch b.At(n) {
			case Empty:
				hasLiberty = true
			case color:
				if !seen[n] {
					seen[n] = true
					stack = append(stack, n)
				}
			}
		}
	}
	return stones, hasLiberty
}

// Hash returns an FNV-1a digest of the stone layout. Two boards with
// the same stones hash equal regardless of how the position was
// reached, which is what positional-superko comparison needs.
func (b *Board) Hash() uint64 {
	h := fnv.New64a()
	buf := make([]byte, len(b.grid))
	for i, c := range b.grid {
		buf[i] = byte(c)
	}
	h.Write(buf)
	return h.Sum64()
}

// Grid returns the position as rows of colors, for rendering and
// transfer. The returned slices are copies.
func (b *Board) Grid() [][]Color {
	rows := make([][]Color, b.size)
	for y := 0; y < b.size; y++ {
		rows[y] = make([]Color, b.size)
		copy(rows[y], b.grid[y*b.size:(y+1)*b.size])
	}
	return rows
}

// StoneMove is one ply bound to the board it was created on. Captures
// are computed at creation time, against the exact position the move
// will always be applied to (the replay invariant guarantees the board
// is back in that position whenever Apply is called again), so Apply
// and Revert are exact inverses.
type StoneMove struct {
	board    *Board
	color    Color
	point    Point
	pass     bool
	captured []Point
}

// NewMove validates and creates a stone placement for the current
// position: the point must be empty and on the board, and the stone
// must not be a suicide. Ko enforcement is the session's concern (it
// owns the position-hash history).
func (b *Board) NewMove(c Color, p Point) (*StoneMove, error) {
	if c != Black && c != White {
		return nil, fmt.Errorf("%w: color %v cannot place a stone", errors.ErrIllegalMove, c)
	}
	if !b.onBoard(p) {
		return nil, fmt.Errorf("%w: point (%d,%d) is off the board", errors.ErrIllegalMove, p.X, p.Y)
	}
	if b.At(p) != Empty {
		return nil, fmt.Errorf("%w: point (%d,%d) is occupied", errors.ErrIllegalMove, p.X, p.Y)
	}

	m := &StoneMove{board: b, color: c, point: p}

	// Trial placement to find captures and detect suicide.
	b.set(p, c)
	captured := make(map[Point]bool)
	for _, n := range b.neighbors(p) {
		if b.At(n) != c.Opponent() {
			continue
		}
		stones, hasLiberty := b.group(n)
		if hasLiberty {
			continue
		}
		for _, s := range stones {
			if !captured[s] {
				captured[s] = true
				m.captured = append(m.captured, s)
			}
		}
	}
	for _, s := range m.captured {
		b.set(s, Empty)
	}
	_, hasLiberty := b.group(p)

	// Roll the trial back; Apply performs the real mutation.
	for _, s := range m.captured {
		b.set(s, c.Opponent())
	}
	b.set(p, Empty)

	if !hasLiberty {
		return nil, fmt.Errorf("%w: placing at (%d,%d) is suicide", errors.ErrIllegalMove, p.X, p.Y)
	}
	return m, nil
}

// NewPass creates a pass ply. It leaves the board untouched on Apply
// and Revert but still occupies one history index.
func (b *Board) NewPass(c Color) *StoneMove {
	return &StoneMove{board: b, color: c, pass: true}
}

func (m *StoneMove) Apply() {
	if m.pass {
		return
	}
	m.board.set(m.point, m.color)
	for _, s := range m.captured {
		m.board.set(s, Empty)
	}
}

func (m *StoneMove) Revert() {
	if m.pass {
		return
	}
	m.board.set(m.point, Empty)
	for _, s := range m.captured {
		m.board.set(s, m.color.Opponent())
	}
}

func (m *StoneMove) Color() Color {
	return m.color
}

func (m *StoneMove) Point() Point {
	return m.point
}

func (m *StoneMove) IsPass() bool {
	return m.pass
}

func (m *StoneMove) CapturedCount() int {
	return len(m.captured)
}

// SGFCoordinates renders the point in SGF notation ("" for a pass).
func (m *StoneMove) SGFCoordinates() string {
	if m.pass {
		return ""
	}
	return string(rune('a'+m.point.X)) + string(rune('a'+m.point.Y))
}
