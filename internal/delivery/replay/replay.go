package replay

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"goreview/internal/adapters"
	"goreview/internal/bootstrap"
	"goreview/internal/domain/board"
	"goreview/internal/domain/game"
	ownErrors "goreview/internal/errors"
	"goreview/internal/httpresponse"
	repo "goreview/internal/repository"
	replayuc "goreview/internal/usecase/replay"
	"goreview/internal/utils"
)

type ReplayHandler struct {
	cfg bootstrap.Config
	log *zap.SugaredLogger
	uc  *replayuc.ReplayUseCase

	mu        sync.RWMutex
	liveGames map[string]*liveGame
}

// liveGame is one in-memory session plus the websocket observers
// attached to it.
type liveGame struct {
	session *replayuc.Session
	hub     *observerHub
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func NewReplayHandler(cfg bootstrap.Config, log *zap.SugaredLogger, mongoAdapter *adapters.AdapterMongo, redisAdapter *adapters.AdapterRedis) *ReplayHandler {
	store := repo.NewReplayRepository(cfg, log, redisAdapter.GetClient(), mongoAdapter.Database)
	return &ReplayHandler{
		cfg:       cfg,
		log:       log,
		uc:        replayuc.NewReplayUseCase(store, log),
		liveGames: make(map[string]*liveGame),
	}
}

type playRequest struct {
	GameKey string `json:"game_key"`
	Color   string `json:"color"`
	X       int    `json:"x"`
	Y       int    `json:"y"`
}

type colorRequest struct {
	GameKey string `json:"game_key"`
	Color   string `json:"color"`
}

type navigateRequest struct {
	GameKey string `json:"game_key"`
	Index   int    `json:"index"`
}

func (h *ReplayHandler) HandleNewGame(w http.ResponseWriter, r *http.Request) {
	var req game.CreateGameRequest
	if err := utils.DecodeJSONRequest(r, &req); err != nil {
		h.log.Error("JSON decode error:", err)
		httpresponse.WriteResponseWithStatus(w, http.StatusBadRequest, err.Error())
		return
	}

	session, err := h.uc.NewSession(r.Context(), req)
	if err != nil {
		h.log.Error(err)
		httpresponse.WriteResponseWithStatus(w, http.StatusBadRequest, err.Error())
		return
	}

	h.track(session)

	state := session.State()
	h.log.Infof("new game created with public key %s", state.GameKeyPublic)
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, state)
}

func (h *ReplayHandler) HandlePlay(w http.ResponseWriter, r *http.Request) {
	var req playRequest
	if err := utils.DecodeJSONRequest(r, &req); err != nil {
		h.log.Error("JSON decode error:", err)
		httpresponse.WriteResponseWithStatus(w, http.StatusBadRequest, err.Error())
		return
	}

	live, err := h.getLiveGame(r.Context(), req.GameKey)
	if err != nil {
		h.writeError(w, err)
		return
	}
	color, err := parseColor(req.Color)
	if err != nil {
		h.writeError(w, err)
		return
	}

	state, err := live.session.Play(r.Context(), color, board.Point{X: req.X, Y: req.Y})
	if err != nil {
		h.writeError(w, err)
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, state)
}

func (h *ReplayHandler) HandlePass(w http.ResponseWriter, r *http.Request) {
	var req colorRequest
	if err := utils.DecodeJSONRequest(r, &req); err != nil {
		httpresponse.WriteResponseWithStatus(w, http.StatusBadRequest, err.Error())
		return
	}

	live, err := h.getLiveGame(r.Context(), req.GameKey)
	if err != nil {
		h.writeError(w, err)
		return
	}
	color, err := parseColor(req.Color)
	if err != nil {
		h.writeError(w, err)
		return
	}

	state, err := live.session.Pass(r.Context(), color)
	if err != nil {
		h.writeError(w, err)
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, state)
}

func (h *ReplayHandler) HandleResign(w http.ResponseWriter, r *http.Request) {
	var req colorRequest
	if err := utils.DecodeJSONRequest(r, &req); err != nil {
		httpresponse.WriteResponseWithStatus(w, http.StatusBadRequest, err.Error())
		return
	}

	live, err := h.getLiveGame(r.Context(), req.GameKey)
	if err != nil {
		h.writeError(w, err)
		return
	}
	color, err := parseColor(req.Color)
	if err != nil {
		h.writeError(w, err)
		return
	}

	state, err := live.session.Resign(r.Context(), color)
	if err != nil {
		h.writeError(w, err)
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, state)
}

func (h *ReplayHandler) HandleNavigate(w http.ResponseWriter, r *http.Request) {
	var req navigateRequest
	if err := utils.DecodeJSONRequest(r, &req); err != nil {
		httpresponse.WriteResponseWithStatus(w, http.StatusBadRequest, err.Error())
		return
	}

	live, err := h.getLiveGame(r.Context(), req.GameKey)
	if err != nil {
		h.writeError(w, err)
		return
	}

	state, err := live.session.Navigate(req.Index)
	if err != nil {
		h.writeError(w, err)
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, state)
}

func (h *ReplayHandler) HandleState(w http.ResponseWriter, r *http.Request) {
	live, err := h.getLiveGame(r.Context(), r.URL.Query().Get("game_key"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, live.session.State())
}

func (h *ReplayHandler) HandleSGF(w http.ResponseWriter, r *http.Request) {
	live, err := h.getLiveGame(r.Context(), r.URL.Query().Get("game_key"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	sgfText, err := live.session.SGF(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, sgfText)
}

// HandleObserve upgrades the connection and attaches it as a position
// observer: every history length change and cursor move of the game is
// pushed to the socket in contract order.
func (h *ReplayHandler) HandleObserve(w http.ResponseWriter, r *http.Request) {
	live, err := h.getLiveGame(r.Context(), r.URL.Query().Get("game_key"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error("websocket upgrade failed:", err)
		return
	}

	live.hub.add(conn)
	h.log.Infof("observer attached to game %s", live.session.GameKeyPublic())

	// Reads are only used to detect the close.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				live.hub.remove(conn)
				return
			}
		}
	}()
}

// track registers the session in the live map and wires its
// notification channels into a broadcast hub.
func (h *ReplayHandler) track(session *replayuc.Session) *liveGame {
	live := &liveGame{
		session: session,
		hub:     newObserverHub(h.log),
	}
	session.OnNumberOfPositionsChanged(func(newCount int) {
		live.hub.broadcast(positionEvent{Event: eventNumberOfPositionsChanged, Value: newCount})
	})
	session.OnCurrentPositionChanged(func(newIndex int) {
		live.hub.broadcast(positionEvent{Event: eventCurrentPositionChanged, Value: newIndex})
	})

	h.mu.Lock()
	defer h.mu.Unlock()
	if existing, ok := h.liveGames[session.GameKeyPublic()]; ok {
		return existing
	}
	h.liveGames[session.GameKeyPublic()] = live
	return live
}

// getLiveGame returns the in-memory session for the key, resuming it
// from storage when the process does not hold it yet.
func (h *ReplayHandler) getLiveGame(ctx context.Context, gameKeyPublic string) (*liveGame, error) {
	if gameKeyPublic == "" {
		return nil, ownErrors.ErrGameNotFound
	}

	h.mu.RLock()
	live, ok := h.liveGames[gameKeyPublic]
	h.mu.RUnlock()
	if ok {
		return live, nil
	}

	session, err := h.uc.ResumeSession(ctx, gameKeyPublic)
	if err != nil {
		return nil, err
	}
	return h.track(session), nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ownErrors.ErrGameNotFound):
		return http.StatusNotFound
	case errors.Is(err, ownErrors.ErrIndexOutOfRange),
		errors.Is(err, ownErrors.ErrIllegalMove),
		errors.Is(err, ownErrors.ErrWrongTurn),
		errors.Is(err, ownErrors.ErrGameFinished):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (h *ReplayHandler) writeError(w http.ResponseWriter, err error) {
	h.log.Error(err)
	httpresponse.WriteResponseWithStatus(w, statusFor(err), err.Error())
}

func parseColor(s string) (board.Color, error) {
	switch s {
	case "black":
		return board.Black, nil
	case "white":
		return board.White, nil
	}
	return board.Empty, ownErrors.ErrIllegalMove
}
