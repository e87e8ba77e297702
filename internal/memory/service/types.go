package service

import (
	"time"

	"memoria/internal/memory"
	"memoria/internal/memory/research"
)

// MemorizeRequest carries one turn through to durable storage.
type MemorizeRequest struct {
	Turn memory.ConversationTurn
}

// ResearchRequest carries a recall query through to the research agent.
type ResearchRequest struct {
	Owner   string
	Text    string
	Options research.Options
}

// ForgetRequest selects what to remove. Exactly one of the three selectors
// should be set; All takes precedence, then PageIDs, then Before.
type ForgetRequest struct {
	Owner   string
	All     bool
	PageIDs []string
	Before  time.Time
}
