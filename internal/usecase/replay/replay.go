package replay

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"goreview/internal/domain/board"
	"goreview/internal/domain/game"
	"goreview/internal/domain/history"
	"goreview/internal/errors"
)

// ReplayStore persists game records and their SGF snapshots.
type ReplayStore interface {
	GenerateGameKeys(ctx context.Context) (gameKeySecret string, gameKeyPublic string)
	PutGame(ctx context.Context, gameData game.Game) error
	UpdateGame(ctx context.Context, gameData game.Game) error
	GetGameByPublicKey(ctx context.Context, gameKeyPublic string) (game.Game, error)
	SaveSGF(ctx context.Context, gameKeySecret string, sgfText string) error
	LoadSGF(ctx context.Context, gameKeySecret string) (string, error)
}

type ReplayUseCase struct {
	store ReplayStore
	log   *zap.SugaredLogger
}

func NewReplayUseCase(store ReplayStore, log *zap.SugaredLogger) *ReplayUseCase {
	return &ReplayUseCase{store: store, log: log}
}

// Session binds one game record to its live board, move log and
// cursor. All mutations and reads go through mu: the log and cursor
// themselves are lock-free single-writer structures, and the session
// is the single writer.
type Session struct {
	mu       sync.Mutex
	game     game.Game
	board    *board.Board
	history  *history.MoveHistory
	position *history.BoardPosition

	// hashes[i] is the board hash at position i, kept in lockstep with
	// the history for positional-superko checks.
	hashes []uint64

	store ReplayStore
	log   *zap.SugaredLogger
}

// State is a snapshot of everything a client needs to render the
// session: the materialized board, the cursor and whose turn it is.
type State struct {
	GameKeyPublic     string          `json:"game_key_public"`
	Status            string          `json:"status"`
	Board             [][]board.Color `json:"board"`
	CurrentIndex      int             `json:"current_index"`
	NumberOfPositions int             `json:"number_of_positions"`
	IsAtStart         bool            `json:"is_at_start"`
	IsAtEnd           bool            `json:"is_at_end"`
	CurrentPlayer     string          `json:"current_player"`
	IsComputerTurn    bool            `json:"is_computer_turn"`
	Winner            string          `json:"winner,omitempty"`
}

// NewSession creates a fresh game, persists its record and the
// initial SGF snapshot, and returns the live session.
func (u *ReplayUseCase) NewSession(ctx context.Context, req game.CreateGameRequest) (*Session, error) {
	b, err := board.New(req.BoardSize)
	if err != nil {
		return nil, err
	}

	gameKeySecret, gameKeyPublic := u.store.GenerateGameKeys(ctx)

	blackKind, whiteKind := req.BlackKind, req.WhiteKind
	if blackKind == "" {
		blackKind = game.KindHuman
	}
	if whiteKind == "" {
		whiteKind = game.KindHuman
	}

	newGame := game.Game{
		GameKeySecret: gameKeySecret,
		GameKeyPublic: gameKeyPublic,
		Status:        game.StatusActive,
		BoardSize:     req.BoardSize,
		Komi:          req.Komi,
		PlayerBlack:   game.Player{Kind: blackKind},
		PlayerWhite:   game.Player{Kind: whiteKind},
		CreatedAt:     time.Now(),
	}

	if err = u.store.PutGame(ctx, newGame); err != nil {
		return nil, errors.ErrCreateGameFailed
	}

	if err = u.store.SaveSGF(ctx, gameKeySecret, SerializeSGF(PrepareSGF(newGame))); err != nil {
		return nil, err
	}

	return u.newLiveSession(newGame, b), nil
}

// ResumeSession rebuilds a live session from a persisted record by
// replaying its move log from the empty board.
func (u *ReplayUseCase) ResumeSession(ctx context.Context, gameKeyPublic string) (*Session, error) {
	stored, err := u.store.GetGameByPublicKey(ctx, gameKeyPublic)
	if err != nil {
		return nil, err
	}
	if stored.GameKeySecret == "" {
		return nil, errors.ErrGameNotFound
	}

	b, err := board.New(stored.BoardSize)
	if err != nil {
		return nil, err
	}
	s := u.newLiveSession(stored, b)

	for _, rec := range stored.Moves {
		color, err := parseColorLetter(rec.Color)
		if err != nil {
			return nil, err
		}
		var mv *board.StoneMove
		if rec.Coordinates == "" {
			mv = b.NewPass(color)
		} else {
			p, err := parseSGFCoordinates(rec.Coordinates, stored.BoardSize)
			if err != nil {
				return nil, err
			}
			mv, err = b.NewMove(color, p)
			if err != nil {
				return nil, err
			}
		}
		mv.Apply()
		if err := s.history.Append(mv); err != nil {
			return nil, err
		}
		s.hashes = append(s.hashes, b.Hash())
	}

	return s, nil
}

func (u *ReplayUseCase) newLiveSession(g game.Game, b *board.Board) *Session {
	s := &Session{
		game:    g,
		board:   b,
		history: history.New(),
		store:   u.store,
		log:     u.log,
	}
	s.position = history.NewBoardPosition(s.history, u.log)
	s.hashes = []uint64{b.Hash()}
	return s
}

// OnNumberOfPositionsChanged registers an observer for history length
// changes. Callbacks run synchronously inside the mutating call and
// must not call back into the session.
func (s *Session) OnNumberOfPositionsChanged(fn func(newCount int)) {
	s.position.OnNumberOfPositionsChanged(fn)
}

// OnCurrentPositionChanged registers an observer for cursor moves,
// with the same reentrancy restriction. When both notifications fire
// from one event the count observers always run first.
func (s *Session) OnCurrentPositionChanged(fn func(newIndex int)) {
	s.position.OnCurrentPositionChanged(fn)
}

// Play places a stone for color at p. When the cursor is reviewing an
// earlier position the moves beyond it are discarded first, so the new
// move continues the game from the displayed board; the cursor then
// follows the append to the new last position.
func (s *Session) Play(ctx context.Context, color board.Color, p board.Point) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkTurn(color); err != nil {
		return State{}, err
	}
	if err := s.rewriteFuture(); err != nil {
		return State{}, err
	}

	mv, err := s.board.NewMove(color, p)
	if err != nil {
		return State{}, err
	}

	mv.Apply()
	hash := s.board.Hash()
	for _, h := range s.hashes {
		if h == hash {
			mv.Revert()
			return State{}, fmt.Errorf("%w: move at (%d,%d) repeats an earlier position", errors.ErrIllegalMove, p.X, p.Y)
		}
	}

	if err := s.history.Append(mv); err != nil {
		mv.Revert()
		return State{}, err
	}
	s.hashes = append(s.hashes, hash)
	s.game.Moves = append(s.game.Moves, game.MoveRecord{
		Color:       colorLetter(color),
		Coordinates: mv.SGFCoordinates(),
	})

	s.persist(ctx)
	return s.stateLocked(), nil
}

// Pass records a pass ply for color. Two consecutive passes finish
// the game; scoring is out of scope, so no winner is decided.
func (s *Session) Pass(ctx context.Context, color board.Color) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkTurn(color); err != nil {
		return State{}, err
	}
	if err := s.rewriteFuture(); err != nil {
		return State{}, err
	}

	mv := s.board.NewPass(color)
	if err := s.history.Append(mv); err != nil {
		return State{}, err
	}
	s.hashes = append(s.hashes, s.board.Hash())
	s.game.Moves = append(s.game.Moves, game.MoveRecord{Color: colorLetter(color)})

	if s.trailingPasses() >= 2 {
		now := time.Now()
		s.game.Status = game.StatusFinished
		s.game.FinishedAt = &now
	}

	s.persist(ctx)
	return s.stateLocked(), nil
}

// Resign finishes the game in favor of color's opponent.
func (s *Session) Resign(ctx context.Context, color board.Color) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.game.Status == game.StatusFinished {
		return State{}, errors.ErrGameFinished
	}

	now := time.Now()
	s.game.Status = game.StatusFinished
	s.game.Winner = color.Opponent().String()
	s.game.FinishedAt = &now

	if err := s.store.UpdateGame(ctx, s.game); err != nil {
		return State{}, err
	}
	return s.stateLocked(), nil
}

// Navigate moves the cursor to index. Navigation never mutates the
// history; out-of-range indices are rejected with the cursor and the
// board untouched.
func (s *Session) Navigate(index int) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.position.SetCurrentIndex(index); err != nil {
		return State{}, err
	}
	return s.stateLocked(), nil
}

func (s *Session) Forward() (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.position.SetCurrentIndex(s.position.CurrentIndex() + 1); err != nil {
		return State{}, err
	}
	return s.stateLocked(), nil
}

func (s *Session) Backward() (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.position.SetCurrentIndex(s.position.CurrentIndex() - 1); err != nil {
		return State{}, err
	}
	return s.stateLocked(), nil
}

func (s *Session) ToStart() (State, error) {
	return s.Navigate(0)
}

func (s *Session) ToEnd() (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.position.SetCurrentIndex(s.history.Length()); err != nil {
		return State{}, err
	}
	return s.stateLocked(), nil
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

func (s *Session) GameKeyPublic() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.game.GameKeyPublic
}

// SGF returns the persisted SGF snapshot of the full move log.
func (s *Session) SGF(ctx context.Context) (string, error) {
	s.mu.Lock()
	key := s.game.GameKeySecret
	s.mu.Unlock()
	return s.store.LoadSGF(ctx, key)
}

// CurrentPlayer is the color to move at the cursor: the opponent of
// the move at CurrentIndex-1, or Black at the empty board.
func (s *Session) CurrentPlayer() board.Color {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentPlayerLocked()
}

// IsComputerTurn reports whether the player to move at the cursor is
// computer-controlled.
func (s *Session) IsComputerTurn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playerFor(s.currentPlayerLocked()).Kind == game.KindComputer
}

func (s *Session) checkTurn(color board.Color) error {
	if s.game.Status == game.StatusFinished {
		return errors.ErrGameFinished
	}
	if color != s.currentPlayerLocked() {
		return errors.ErrWrongTurn
	}
	return nil
}

// rewriteFuture discards the moves beyond the cursor when the session
// is in review mode. The cursor's materialization invariant means the
// board already matches the truncated log, so the discard classifies
// as Ignore and the board needs no replay.
func (s *Session) rewriteFuture() error {
	cur := s.position.CurrentIndex()
	if cur == s.history.Length() {
		return nil
	}
	if err := s.history.DiscardMovesAfter(cur - 1); err != nil {
		return err
	}
	s.hashes = s.hashes[:cur+1]
	s.game.Moves = s.game.Moves[:cur]
	return nil
}

// trailingPasses counts the consecutive passes at the end of the move
// log. Deriving the count from the log keeps it correct across
// review-mode rewrites and resumed sessions.
func (s *Session) trailingPasses() int {
	n := 0
	for i := len(s.game.Moves) - 1; i >= 0; i-- {
		if s.game.Moves[i].Coordinates != "" {
			break
		}
		n++
	}
	return n
}

func (s *Session) currentPlayerLocked() board.Color {
	cur := s.position.CurrentIndex()
	if cur == 0 {
		return board.Black
	}
	mv, err := s.history.MoveAt(cur - 1)
	if err != nil {
		return board.Black
	}
	colored, ok := mv.(interface{ Color() board.Color })
	if !ok {
		return board.Black
	}
	return colored.Color().Opponent()
}

func (s *Session) playerFor(color board.Color) game.Player {
	if color == board.White {
		return s.game.PlayerWhite
	}
	return s.game.PlayerBlack
}

func (s *Session) stateLocked() State {
	current := s.currentPlayerLocked()
	return State{
		GameKeyPublic:     s.game.GameKeyPublic,
		Status:            s.game.Status,
		Board:             s.board.Grid(),
		CurrentIndex:      s.position.CurrentIndex(),
		NumberOfPositions: s.position.NumberOfPositions(),
		IsAtStart:         s.position.IsAtStart(),
		IsAtEnd:           s.position.IsAtEnd(),
		CurrentPlayer:     current.String(),
		IsComputerTurn:    s.playerFor(current).Kind == game.KindComputer,
		Winner:            s.game.Winner,
	}
}

// persist writes the updated record and SGF snapshot. Persistence
// failures do not roll back the in-memory game; they are logged and
// the snapshot is rewritten on the next mutation.
func (s *Session) persist(ctx context.Context) {
	if err := s.store.UpdateGame(ctx, s.game); err != nil {
		s.log.Errorw("failed to update game record", "gameKeyPublic", s.game.GameKeyPublic, zap.Error(err))
	}
	if err := s.store.SaveSGF(ctx, s.game.GameKeySecret, SerializeSGF(PrepareSGF(s.game))); err != nil {
		s.log.Errorw("failed to save sgf snapshot", "gameKeyPublic", s.game.GameKeyPublic, zap.Error(err))
	}
}

func colorLetter(c board.Color) string {
	if c == board.White {
		return "W"
	}
	return "B"
}

func parseColorLetter(letter string) (board.Color, error) {
	switch letter {
	case "B":
		return board.Black, nil
	case "W":
		return board.White, nil
	}
	return board.Empty, fmt.Errorf("%w: unknown color %q", errors.ErrIllegalMove, letter)
}

func parseSGFCoordinates(coords string, size int) (board.Point, error) {
	if len(coords) != 2 {
		return board.Point{}, fmt.Errorf("%w: bad coordinates %q", errors.ErrIllegalMove, coords)
	}
	p := board.Point{X: int(coords[0] - 'a'), Y: int(coords[1] - 'a')}
	if p.X < 0 || p.Y < 0 || p.X >= size || p.Y >= size {
		return board.Point{}, fmt.Errorf("%w: coordinates %q outside board of size %d", errors.ErrIllegalMove, coords, size)
	}
	return p, nil
}
