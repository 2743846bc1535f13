package agent

import (
	"context"

	"bookline/models"
)

// AgentService turns one chat turn into calendar operations and a reply.
type AgentService interface {
	// HandleMessage runs the bounded tool-calling loop for one user message
	// and returns the reply to hand back to the chat surface. The returned
	// text is always user-safe; internal failures are logged, not surfaced.
	// A *ConcurrencyError is returned when the session is already busy.
	HandleMessage(ctx context.Context, inst *models.Instance, sessionID, message string) (string, error)
}
