package research

import (
	"fmt"
	"strings"
)

// planUserPrompt renders the running query and the pages gathered so far
// as the Plan phase's prompt input.
func planUserPrompt(rc *researchContext) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Query: %s\n", rc.query.Text)
	fmt.Fprintf(&b, "Pages gathered so far: %d (total tokens: %d)\n", len(rc.pages), rc.totalTokens)
	for i, pg := range rc.pages {
		fmt.Fprintf(&b, "%d. [%s score=%.3f] %s\n", i+1, pg.RetrieverName, pg.Score, truncate(pg.Content, 160))
	}
	return b.String()
}

// reflectUserPrompt renders the same running state for the Reflect phase.
func reflectUserPrompt(q Query, rc *researchContext) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Query: %s\n", q.Text)
	fmt.Fprintf(&b, "Pages gathered: %d, total tokens: %d of %d budget\n", len(rc.pages), rc.totalTokens, *rc.options.MaxContextTokens)
	return b.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
