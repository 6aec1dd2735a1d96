package domain

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"
)

const (
	MaxRoomNameLen = 100
	RoomCodeLen    = 6
)

var (
	ErrRoomNameTooLong = errors.New("room name too long")
	ErrRoomNameEmpty   = errors.New("room name empty")
)

// RoomCode is the short opaque token that scopes a relay group.
// The relay treats it verbatim; only the room store interprets it.
type RoomCode string

// RoomMeta is the persisted room record. The relay core never reads it;
// it belongs to the room CRUD surface.
type RoomMeta struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Code       RoomCode  `json:"code"`
	YoutubeURL string    `json:"youtube_url,omitempty"`
	OwnerToken string    `json:"-"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewRoomCode returns a 6-char lowercase hex code (3 random bytes).
func NewRoomCode() RoomCode {
	b := make([]byte, RoomCodeLen/2)
	_, _ = rand.Read(b)
	return RoomCode(hex.EncodeToString(b))
}

func ValidateRoomName(name string) error {
	if len(name) == 0 {
		return ErrRoomNameEmpty
	}
	if len(name) > MaxRoomNameLen {
		return ErrRoomNameTooLong
	}
	return nil
}
