package harvest

import (
	"github.com/google/uuid"

	"bookharvest/pkg/models"
)

// Session is the ephemeral state of one harvesting run. It is never
// persisted and runs are not resumable: a session exists only between Run
// being called and its records being handed to the merger.
type Session struct {
	ID     string // Correlates log lines across sources of one run
	Target int

	// Records accumulates valid, normalized records in arrival order,
	// source-tagged via BookRecord.Source.
	Records []models.BookRecord

	// PagesVisited counts listing pages fetched per source key.
	PagesVisited map[string]int

	// SourceErrors holds the abort error per source key for sources that
	// failed mid-harvest. A failing source never blocks the others.
	SourceErrors map[string]error
}

func newSession(target int) *Session {
	return &Session{
		ID:           uuid.NewString(),
		Target:       target,
		PagesVisited: make(map[string]int),
		SourceErrors: make(map[string]error),
	}
}
