package session

import (
	"encoding/json"
	"fmt"
)

// Inbound frames form a closed set: every payload is decoded once into one
// of the types below and dispatched exhaustively. Anything else is a decode
// error, which the session logs and ignores.

type Frame interface{ frame() }

type MessageFrame struct {
	Content     string
	ReplyToID   string
	MessageType string
}

type TypingFrame struct{}

type StopTypingFrame struct{}

type ReadFrame struct {
	MessageID string
}

type PingFrame struct{}

func (MessageFrame) frame()    {}
func (TypingFrame) frame()     {}
func (StopTypingFrame) frame() {}
func (ReadFrame) frame()       {}
func (PingFrame) frame()       {}

// envelope matches both wire shapes clients send: fields at the top level
// or nested under "data".
type envelope struct {
	Type        string `json:"type"`
	Content     string `json:"content"`
	ReplyToID   string `json:"reply_to_id"`
	MessageType string `json:"message_type"`
	MessageID   string `json:"message_id"`
	Data        *struct {
		Content     string `json:"content"`
		ReplyToID   string `json:"reply_to_id"`
		MessageType string `json:"message_type"`
		MessageID   string `json:"message_id"`
	} `json:"data"`
}

func DecodeFrame(data []byte) (Frame, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, err
	}
	if env.Data != nil {
		if env.Data.Content != "" {
			env.Content = env.Data.Content
		}
		if env.Data.ReplyToID != "" {
			env.ReplyToID = env.Data.ReplyToID
		}
		if env.Data.MessageType != "" {
			env.MessageType = env.Data.MessageType
		}
		if env.Data.MessageID != "" {
			env.MessageID = env.Data.MessageID
		}
	}

	switch env.Type {
	case "message":
		return MessageFrame{
			Content:     env.Content,
			ReplyToID:   env.ReplyToID,
			MessageType: env.MessageType,
		}, nil
	case "typing":
		return TypingFrame{}, nil
	case "stop_typing":
		return StopTypingFrame{}, nil
	case "read":
		return ReadFrame{MessageID: env.MessageID}, nil
	case "ping":
		return PingFrame{}, nil
	default:
		return nil, fmt.Errorf("unknown frame type %q", env.Type)
	}
}
