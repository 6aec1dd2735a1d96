package core

import (
	"context"

	"github.com/dkeye/cowatch/internal/domain"
)

// Frame is an encoded wire payload (one JSON text frame).
type Frame []byte

// SessionID is unique per live connection and is the dedup key for
// group membership.
type SessionID string

// RelayConnection abstracts the transport endpoint of one session.
// Owned by the adapter; the adapter must Close() it.
type RelayConnection interface {
	// TrySend queues a frame without blocking. A full buffer or a closed
	// connection returns an error; broadcast treats both as a skip.
	TrySend(Frame) error
	Close()
}

// PublishResult reports best-effort delivery stats for one broadcast.
type PublishResult struct {
	SentTo  int
	Dropped int
}

// PresenceStore tracks the set of joined usernames per room code.
// Set semantics: adding a present name or removing an absent one is a
// no-op that returns the current count. All methods are safe for
// concurrent use by sessions of the same room.
type PresenceStore interface {
	AddMember(ctx context.Context, code domain.RoomCode, username string) (int, error)
	RemoveMember(ctx context.Context, code domain.RoomCode, username string) (int, error)
	Count(ctx context.Context, code domain.RoomCode) (int, error)
}

// RoomStore persists room metadata for the CRUD surface.
// GetByCode returns (nil, nil) when the code is unknown.
type RoomStore interface {
	Create(ctx context.Context, meta *domain.RoomMeta) error
	GetByCode(ctx context.Context, code domain.RoomCode) (*domain.RoomMeta, error)
	ListByOwner(ctx context.Context, ownerToken string) ([]domain.RoomMeta, error)
	Delete(ctx context.Context, code domain.RoomCode) error
}
