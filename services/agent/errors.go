package agent

import "fmt"

// ConcurrencyError reports that another request for the same session is
// still in flight. Turns within one conversation are strictly serialized.
type ConcurrencyError struct {
	SessionID string
}

func (e *ConcurrencyError) Error() string {
	return fmt.Sprintf("concurrencyError: session %s is already processing a request", e.SessionID)
}
