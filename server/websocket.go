package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/wfunc/survivalserver/apperr"
	"github.com/wfunc/survivalserver/logger"
	"github.com/wfunc/survivalserver/network"
	"github.com/wfunc/survivalserver/services"
)

// wsClient is one socket bound to at most one session.
type wsClient struct {
	conn      network.Connection
	sessionID string
}

func (s *GameServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Infof("Failed to upgrade connection: %v", err)
		return
	}
	s.handleConnection(conn)
}

func (s *GameServer) handleConnection(conn *websocket.Conn) {
	wsConn := network.NewWSConnection(conn)
	wsConn.SetHeartbeat(heartbeatInterval)
	client := &wsClient{conn: wsConn}

	logger.Log.Infof("New connection from %s", wsConn.RemoteAddr())

	defer func() {
		logger.Log.Infof("Connection closed from %s, session ID: %s", wsConn.RemoteAddr(), client.sessionID)
		wsConn.Close()
	}()

	for {
		select {
		case <-s.shutdownChan:
			return
		default:
			packet, err := wsConn.ReadPacket()
			if err != nil {
				return
			}
			s.handlePacket(context.Background(), client, packet)
		}
	}
}

func (s *GameServer) handlePacket(ctx context.Context, client *wsClient, packet *network.Packet) {
	switch packet.MsgID {
	case network.MsgTypeHeartbeat:
		client.conn.Send(network.MsgTypeHeartbeat, nil)
	case network.MsgTypeNewSession:
		var req network.NewSessionRequest
		if !decodePacket(client, packet, &req) {
			return
		}
		s.reply(client, func() (*services.Response, error) {
			return s.game.NewSession(ctx, req.UserID, req.Name)
		})
	case network.MsgTypeResumeSession:
		var req network.ResumeSessionRequest
		if !decodePacket(client, packet, &req) {
			return
		}
		s.reply(client, func() (*services.Response, error) {
			return s.game.View(ctx, req.SessionID)
		})
	case network.MsgTypeAction:
		var req network.ActionRequest
		if !decodePacket(client, packet, &req) || !bound(client) {
			return
		}
		s.reply(client, func() (*services.Response, error) {
			return s.game.Act(ctx, client.sessionID, req.Token)
		})
	case network.MsgTypeView:
		if !bound(client) {
			return
		}
		s.reply(client, func() (*services.Response, error) {
			return s.game.View(ctx, client.sessionID)
		})
	default:
		logger.Log.Infof("Unknown message type: %d", packet.MsgID)
		sendError(client, apperr.New(apperr.CodeUnknownActionCategory, "Unknown message type %d.", packet.MsgID))
	}
}

// reply runs call and sends its state, binding the connection to the
// returned session.
func (s *GameServer) reply(client *wsClient, call func() (*services.Response, error)) {
	resp, err := call()
	if err != nil {
		sendError(client, err)
		return
	}
	client.sessionID = resp.SessionID
	if err := client.conn.SendJSON(network.MsgTypeState, resp); err != nil {
		logger.Log.Warnw("send state failed", "session", client.sessionID, "error", err)
	}
}

func decodePacket(client *wsClient, packet *network.Packet, v interface{}) bool {
	if err := json.Unmarshal(packet.Data, v); err != nil {
		sendError(client, apperr.New(apperr.CodeUnresolvableChoice, "Malformed message."))
		return false
	}
	return true
}

func bound(client *wsClient) bool {
	if client.sessionID == "" {
		sendError(client, apperr.New(apperr.CodeSessionNotFound, "Start or resume a session first."))
		return false
	}
	return true
}

func sendError(client *wsClient, err error) {
	msg := network.ErrorMessage{Code: string(apperr.GetCode(err)), Message: apperr.Message(err)}
	if serr := client.conn.SendJSON(network.MsgTypeError, msg); serr != nil {
		logger.Log.Warnw("send error failed", "error", serr)
	}
}
