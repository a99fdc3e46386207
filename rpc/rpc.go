package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/rpc"
	"strings"
	"time"

	"google.golang.org/grpc/status"

	"github.com/wfunc/survivalserver/apperr"
	"github.com/wfunc/survivalserver/logger"
	"github.com/wfunc/survivalserver/services"
)

const callTimeout = 10 * time.Second

// Server manages the RPC listener.
type Server struct {
	listener net.Listener
	address  string
	rpc      *rpc.Server
}

// NewServer listens on addr and registers game under the name GameService.
func NewServer(addr string, game Game) (*Server, error) {
	srv := rpc.NewServer()
	if err := srv.RegisterName("GameService", NewGameService(game)); err != nil {
		return nil, err
	}
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Server{
		listener: listener,
		address:  addr,
		rpc:      srv,
	}, nil
}

// Addr is the bound listener address.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Start begins listening for RPC requests.
func (s *Server) Start() {
	logger.Log.Infof("RPC server listening on %s", s.address)
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				logger.Log.Info("RPC server listener closed.")
				return
			}
			logger.Log.Errorf("RPC server accept error: %v", err)
			continue
		}
		go s.rpc.ServeConn(conn)
	}
}

// Stop closes the RPC listener.
func (s *Server) Stop() {
	if s.listener != nil {
		logger.Log.Info("Stopping RPC server.")
		s.listener.Close()
	}
}

// Game is the part of services.GameService exposed over RPC.
type Game interface {
	NewSession(ctx context.Context, userID int64, name string) (*services.Response, error)
	View(ctx context.Context, sessionID string) (*services.Response, error)
	Act(ctx context.Context, sessionID, token string) (*services.Response, error)
}

// GameService exposes session methods over net/rpc. Replies carry the
// same JSON document the HTTP transport returns.
type GameService struct {
	game Game
}

func NewGameService(game Game) *GameService {
	return &GameService{game: game}
}

type NewSessionArgs struct {
	UserID int64
	Name   string
}

type ActArgs struct {
	SessionID string
	Token     string
}

type ViewArgs struct {
	SessionID string
}

type Reply struct {
	SessionID string
	Phase     string
	JSON      []byte
}

func (gs *GameService) NewSession(args *NewSessionArgs, reply *Reply) error {
	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()
	return fill(reply)(gs.game.NewSession(ctx, args.UserID, args.Name))
}

func (gs *GameService) Act(args *ActArgs, reply *Reply) error {
	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()
	return fill(reply)(gs.game.Act(ctx, args.SessionID, args.Token))
}

func (gs *GameService) View(args *ViewArgs, reply *Reply) error {
	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()
	return fill(reply)(gs.game.View(ctx, args.SessionID))
}

func fill(reply *Reply) func(*services.Response, error) error {
	return func(resp *services.Response, err error) error {
		if err != nil {
			st := status.Convert(err)
			logger.Log.Debugw("rpc call failed", "grpc_code", st.Code().String(), "error", err)
			// net/rpc only carries strings
			return errors.New(string(apperr.GetCode(err)) + ": " + apperr.Message(err))
		}
		data, err := json.Marshal(resp)
		if err != nil {
			return err
		}
		reply.SessionID = resp.SessionID
		reply.Phase = resp.Phase.String()
		reply.JSON = data
		return nil
	}
}

// ErrorCode recovers the domain code from an error returned by a call.
func ErrorCode(err error) apperr.Code {
	if err == nil {
		return ""
	}
	var se rpc.ServerError
	if !errors.As(err, &se) {
		return apperr.CodeUnknown
	}
	code, _, ok := strings.Cut(string(se), ": ")
	if !ok {
		return apperr.CodeUnknown
	}
	return apperr.Code(code)
}
