// Package protocol defines the wire vocabulary of the room relay: typed
// JSON text frames selected by a "type" field. Decoding validates that
// required fields are present and fails closed; the session drops any
// frame the codec rejects.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dkeye/cowatch/internal/core"
)

// Wire values of the "type" field.
const (
	TypeJoin            = "join"
	TypeChatMessage     = "chat_message"
	TypeVideoAction     = "video_action"
	TypeSeek            = "seek"
	TypeVideoURLChanged = "video_url_changed"
	TypeUserJoined      = "user_joined"
	TypeUserLeft        = "user_left"
)

var (
	ErrUnknownType  = errors.New("unknown event type")
	ErrMissingField = errors.New("missing required field")
)

// Inbound is the client -> server event union.
type Inbound interface{ inboundEvent() }

// Outbound is the server -> client event union.
type Outbound interface{ outboundEvent() }

// Join announces the session's username and starts its presence.
type Join struct {
	Username string `json:"username"`
}

// ChatMessage, VideoAction, Seek and VideoURLChanged are relayed
// verbatim: the same shape goes in and out.
type ChatMessage struct {
	Message  string `json:"message"`
	Username string `json:"username"`
}

type VideoAction struct {
	Action   string `json:"action"`
	Username string `json:"username"`
}

type Seek struct {
	Timestamp float64 `json:"timestamp"`
	Username  string  `json:"username"`
}

type VideoURLChanged struct {
	URL      string `json:"url"`
	Username string `json:"username"`
}

// UserJoined and UserLeft are presence events emitted by the server only.
type UserJoined struct {
	Username    string `json:"username"`
	OnlineCount int    `json:"online_count"`
}

type UserLeft struct {
	Username    string `json:"username"`
	OnlineCount int    `json:"online_count"`
}

func (Join) inboundEvent()            {}
func (ChatMessage) inboundEvent()     {}
func (VideoAction) inboundEvent()     {}
func (Seek) inboundEvent()            {}
func (VideoURLChanged) inboundEvent() {}

func (ChatMessage) outboundEvent()     {}
func (VideoAction) outboundEvent()     {}
func (Seek) outboundEvent()            {}
func (VideoURLChanged) outboundEvent() {}
func (UserJoined) outboundEvent()      {}
func (UserLeft) outboundEvent()        {}

// DecodeInbound parses one text frame into its typed event. Absent or
// empty string fields and absent timestamps are decode failures, never
// zero values propagated downstream.
func DecodeInbound(data []byte) (Inbound, error) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("malformed frame: %w", err)
	}

	switch env.Type {
	case TypeJoin:
		var p struct {
			Username *string `json:"username"`
		}
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("malformed %s payload: %w", env.Type, err)
		}
		if p.Username == nil || *p.Username == "" {
			return nil, fmt.Errorf("%w: %s.username", ErrMissingField, env.Type)
		}
		return Join{Username: *p.Username}, nil

	case TypeChatMessage:
		var p struct {
			Message  *string `json:"message"`
			Username *string `json:"username"`
		}
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("malformed %s payload: %w", env.Type, err)
		}
		if p.Message == nil || *p.Message == "" {
			return nil, fmt.Errorf("%w: %s.message", ErrMissingField, env.Type)
		}
		if p.Username == nil || *p.Username == "" {
			return nil, fmt.Errorf("%w: %s.username", ErrMissingField, env.Type)
		}
		return ChatMessage{Message: *p.Message, Username: *p.Username}, nil

	case TypeVideoAction:
		var p struct {
			Action   *string `json:"action"`
			Username *string `json:"username"`
		}
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("malformed %s payload: %w", env.Type, err)
		}
		if p.Action == nil || *p.Action == "" {
			return nil, fmt.Errorf("%w: %s.action", ErrMissingField, env.Type)
		}
		if p.Username == nil || *p.Username == "" {
			return nil, fmt.Errorf("%w: %s.username", ErrMissingField, env.Type)
		}
		return VideoAction{Action: *p.Action, Username: *p.Username}, nil

	case TypeSeek:
		var p struct {
			Timestamp *float64 `json:"timestamp"`
			Username  *string  `json:"username"`
		}
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("malformed %s payload: %w", env.Type, err)
		}
		if p.Timestamp == nil {
			return nil, fmt.Errorf("%w: %s.timestamp", ErrMissingField, env.Type)
		}
		if p.Username == nil || *p.Username == "" {
			return nil, fmt.Errorf("%w: %s.username", ErrMissingField, env.Type)
		}
		return Seek{Timestamp: *p.Timestamp, Username: *p.Username}, nil

	case TypeVideoURLChanged:
		var p struct {
			URL      *string `json:"url"`
			Username *string `json:"username"`
		}
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("malformed %s payload: %w", env.Type, err)
		}
		if p.URL == nil || *p.URL == "" {
			return nil, fmt.Errorf("%w: %s.url", ErrMissingField, env.Type)
		}
		if p.Username == nil || *p.Username == "" {
			return nil, fmt.Errorf("%w: %s.username", ErrMissingField, env.Type)
		}
		return VideoURLChanged{URL: *p.URL, Username: *p.Username}, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, env.Type)
	}
}

// Encode renders an outbound event as one wire frame. The switch is the
// single exhaustive dispatch point: a variant this function does not
// know is an error, never a silently wrong frame.
func Encode(ev Outbound) (core.Frame, error) {
	type (
		chatFrame struct {
			Type string `json:"type"`
			ChatMessage
		}
		videoActionFrame struct {
			Type string `json:"type"`
			VideoAction
		}
		seekFrame struct {
			Type string `json:"type"`
			Seek
		}
		videoURLFrame struct {
			Type string `json:"type"`
			VideoURLChanged
		}
		userJoinedFrame struct {
			Type string `json:"type"`
			UserJoined
		}
		userLeftFrame struct {
			Type string `json:"type"`
			UserLeft
		}
	)

	switch v := ev.(type) {
	case ChatMessage:
		return marshalFrame(chatFrame{TypeChatMessage, v})
	case VideoAction:
		return marshalFrame(videoActionFrame{TypeVideoAction, v})
	case Seek:
		return marshalFrame(seekFrame{TypeSeek, v})
	case VideoURLChanged:
		return marshalFrame(videoURLFrame{TypeVideoURLChanged, v})
	case UserJoined:
		return marshalFrame(userJoinedFrame{TypeUserJoined, v})
	case UserLeft:
		return marshalFrame(userLeftFrame{TypeUserLeft, v})
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownType, ev)
	}
}

func marshalFrame(v any) (core.Frame, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return core.Frame(b), nil
}
