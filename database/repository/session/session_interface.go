package sessionRepo

import (
	"context"

	"bookline/models"
)

// SessionRepository defines methods for conversation history access.
type SessionRepository interface {
	// GetOrCreate returns the session for (instance, session id), or an empty
	// session when none exists yet. The record is materialized on first Append.
	GetOrCreate(ctx context.Context, instanceID, sessionID string) (*models.Session, error)
	// Append persists one or more turns. Each call writes through so a crash
	// mid-conversation loses at most the in-flight turn.
	Append(ctx context.Context, instanceID, sessionID string, msgs ...models.ChatMessage) error
	// History returns the newest maxTurns turns in chronological order.
	History(ctx context.Context, instanceID, sessionID string, maxTurns int) ([]models.ChatMessage, error)
	// ListByInstance returns all sessions of an instance, newest first.
	ListByInstance(ctx context.Context, instanceID string) ([]models.Session, error)
	// Clear removes a session's history (operator action).
	Clear(ctx context.Context, instanceID, sessionID string) error
}
