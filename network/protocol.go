package network

import (
	"encoding/binary"
	"errors"
	"io"
)

// Client to server.
const (
	MsgTypeHeartbeat     = 1
	MsgTypeNewSession    = 101
	MsgTypeResumeSession = 102
	MsgTypeAction        = 201
	MsgTypeView          = 202
)

// Server to client.
const (
	MsgTypeState = 301
	MsgTypeError = 302
)

const headerSize = 4

var ErrPayloadTooLarge = errors.New("network: payload exceeds 65535 bytes")

// NewSessionRequest starts a survivor for the connection.
type NewSessionRequest struct {
	UserID int64  `json:"user_id"`
	Name   string `json:"name"`
}

// ResumeSessionRequest binds the connection to an existing session.
type ResumeSessionRequest struct {
	SessionID string `json:"session_id"`
}

// ActionRequest carries one action token for the bound session.
type ActionRequest struct {
	Token string `json:"token"`
}

// ErrorMessage is sent for any rejected request. The session is unchanged.
type ErrorMessage struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// EncodePacket frames data as 2-byte message id, 2-byte length, payload.
func EncodePacket(msgID uint16, data []byte) ([]byte, error) {
	if len(data) > 0xFFFF {
		return nil, ErrPayloadTooLarge
	}
	// 封包: 2字节消息ID + 2字节数据长度 + 数据
	packet := make([]byte, headerSize+len(data))
	binary.BigEndian.PutUint16(packet[0:2], msgID)
	binary.BigEndian.PutUint16(packet[2:4], uint16(len(data)))
	copy(packet[headerSize:], data)
	return packet, nil
}

// DecodePacket parses one frame. Trailing bytes past the declared length
// are ignored.
func DecodePacket(data []byte) (*Packet, error) {
	if len(data) < headerSize {
		return nil, io.ErrShortBuffer
	}
	msgID := binary.BigEndian.Uint16(data[0:2])
	length := binary.BigEndian.Uint16(data[2:4])
	if len(data) < headerSize+int(length) {
		return nil, io.ErrShortBuffer
	}
	return &Packet{
		MsgID:  msgID,
		Length: length,
		Data:   data[headerSize : headerSize+int(length)],
	}, nil
}
