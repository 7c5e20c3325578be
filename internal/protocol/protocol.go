// Package protocol defines the JSON envelope exchanged with players over the
// websocket and the payloads carried inside it.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Message types. init_game and move travel in both directions, game_over is
// only ever sent by the server.
const (
	TypeInitGame = "init_game"
	TypeMove     = "move"
	TypeGameOver = "game_over"
)

var (
	ErrMalformed      = errors.New("malformed message")
	ErrUnknownType    = errors.New("unknown message type")
	ErrInvalidPayload = errors.New("invalid payload")
)

// Message is the envelope for every frame: a type used for routing and a raw
// payload decoded once the type is known.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Inbound is a decoded client frame. Move is set only for TypeMove.
type Inbound struct {
	Type string
	Move MoveRequest
}

// Decode parses and validates a raw client frame.
func Decode(raw []byte) (Inbound, error) {
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		return Inbound{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if msg.Type == "" {
		return Inbound{}, fmt.Errorf("%w: missing type", ErrMalformed)
	}

	switch msg.Type {
	case TypeInitGame:
		return Inbound{Type: TypeInitGame}, nil
	case TypeMove:
		req, err := decodeMove(msg.Payload)
		if err != nil {
			return Inbound{}, err
		}
		return Inbound{Type: TypeMove, Move: req}, nil
	default:
		return Inbound{}, fmt.Errorf("%w: %q", ErrUnknownType, msg.Type)
	}
}

func decodeMove(payload json.RawMessage) (MoveRequest, error) {
	if len(payload) == 0 || string(payload) == "null" {
		return MoveRequest{}, fmt.Errorf("%w: move without payload", ErrInvalidPayload)
	}

	var req MoveRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return MoveRequest{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	req.From = strings.ToLower(strings.TrimSpace(req.From))
	req.To = strings.ToLower(strings.TrimSpace(req.To))
	req.Promotion = strings.ToLower(strings.TrimSpace(req.Promotion))

	if err := req.Validate(); err != nil {
		return MoveRequest{}, err
	}
	return req, nil
}

func newMessage(typ string, payload any) Message {
	// every payload type below is made of strings only
	raw, _ := json.Marshal(payload)
	return Message{Type: typ, Payload: raw}
}
