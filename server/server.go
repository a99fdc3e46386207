package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wfunc/survivalserver/apperr"
	"github.com/wfunc/survivalserver/logger"
	"github.com/wfunc/survivalserver/models"
	"github.com/wfunc/survivalserver/services"
)

const (
	heartbeatInterval = 30 * time.Second
	maxBodyBytes      = 1 << 16
)

// Game is the session API every transport serves.
type Game interface {
	NewSession(ctx context.Context, userID int64, name string) (*services.Response, error)
	View(ctx context.Context, sessionID string) (*services.Response, error)
	Act(ctx context.Context, sessionID, token string) (*services.Response, error)
	Stats(ctx context.Context, sessionID string) (*models.SessionStats, error)
}

type GameServer struct {
	addr         string
	game         Game
	upgrader     websocket.Upgrader
	httpServer   *http.Server
	shutdownChan chan struct{}
}

// NewGameServer builds the HTTP and WebSocket front end. metrics, when
// non-nil, is mounted at /metrics.
func NewGameServer(addr string, game Game, metrics http.Handler) *GameServer {
	s := &GameServer{
		addr:         addr,
		game:         game,
		shutdownChan: make(chan struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // 允许所有跨域请求
			},
		},
	}
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.routes(metrics),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *GameServer) routes(metrics http.Handler) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("POST /sessions", s.handleNewSession)
	mux.HandleFunc("GET /sessions/{id}", s.handleView)
	mux.HandleFunc("POST /sessions/{id}/actions", s.handleAct)
	mux.HandleFunc("GET /sessions/{id}/stats", s.handleStats)
	mux.HandleFunc("/ws", s.handleWebSocket)
	if metrics != nil {
		mux.Handle("GET /metrics", metrics)
	}
	return mux
}

// Handler exposes the routes, mainly for tests.
func (s *GameServer) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *GameServer) Start() error {
	logger.Log.Infof("Game server listening on %s", s.addr)
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *GameServer) Shutdown(ctx context.Context) error {
	close(s.shutdownChan)
	return s.httpServer.Shutdown(ctx)
}

type newSessionRequest struct {
	UserID int64  `json:"user_id"`
	Name   string `json:"name"`
}

type actionRequest struct {
	Token string `json:"token"`
}

type errorResponse struct {
	Code     apperr.Code       `json:"code"`
	Message  string            `json:"message"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

func (s *GameServer) handleNewSession(w http.ResponseWriter, r *http.Request) {
	var req newSessionRequest
	if !readJSON(w, r, &req) {
		return
	}
	resp, err := s.game.NewSession(r.Context(), req.UserID, req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *GameServer) handleView(w http.ResponseWriter, r *http.Request) {
	resp, err := s.game.View(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *GameServer) handleAct(w http.ResponseWriter, r *http.Request) {
	var req actionRequest
	if !readJSON(w, r, &req) {
		return
	}
	resp, err := s.game.Act(r.Context(), r.PathValue("id"), req.Token)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *GameServer) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.game.Stats(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func readJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Code: apperr.CodeUnresolvableChoice, Message: "malformed request body"})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Log.Warnw("write response failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	body := errorResponse{Code: apperr.GetCode(err), Message: apperr.Message(err)}
	var e *apperr.Error
	if errors.As(err, &e) {
		body.Metadata = e.Metadata
	}
	status := body.Code.HTTPStatus()
	if status >= http.StatusInternalServerError {
		logger.Log.Errorw("request failed", "error", err)
	}
	writeJSON(w, status, body)
}
