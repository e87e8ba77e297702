package ingest

import (
	"fmt"
	"strings"

	"memoria/internal/memory"
)

// formatTurn renders a conversation turn as the fixed, human-readable page
// content the store persists. Formatting is deterministic and idempotent:
// the same turn always yields byte-identical content, which lets the
// research loop treat page content as a stable retrieval unit.
func formatTurn(turn memory.ConversationTurn) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Turn %d — %s\n", turn.TurnNumber, turn.Timestamp.UTC().Format("2006-01-02T15:04:05Z"))
	if turn.ConversationID != "" {
		fmt.Fprintf(&b, "conversation: %s\n", turn.ConversationID)
	}
	b.WriteString("\n")

	b.WriteString("USER:\n")
	b.WriteString(strings.TrimSpace(turn.UserUtterance))
	b.WriteString("\n\n")

	b.WriteString("ASSISTANT:\n")
	b.WriteString(strings.TrimSpace(turn.AssistantUtterance))
	b.WriteString("\n")

	if len(turn.ToolCalls) > 0 {
		b.WriteString("\nTOOL CALLS:\n")
		for _, tc := range turn.ToolCalls {
			fmt.Fprintf(&b, "- %s(%s) -> %s\n", tc.Tool, tc.Arguments, tc.Result)
		}
	}

	return b.String()
}

// estimateTokens approximates token count as content length divided by 4,
// the nominal English-text ratio. Implementations may substitute a more
// accurate estimator without changing the contract.
func estimateTokens(content string) int {
	n := len(content) / 4
	if n == 0 && content != "" {
		n = 1
	}
	return n
}
