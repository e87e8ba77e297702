package ingest

import "strings"

// parsedAbstract is the result of parsing the LLM's abstract response
// against the grammar in SPEC_FULL.md §6. A response that violates the
// grammar yields a zero-value parsedAbstract rather than an error — the
// abstract is still written with an empty summary and headers list.
type parsedAbstract struct {
	Summary string
	Headers []string
}

// parseAbstractResponse parses:
//
//	SUMMARY: <one line of text>
//	HEADERS:
//	- <header 1>
//	- <header 2>
//
// Lines are trimmed; header bullets require a leading "-". Unknown lines
// are ignored.
func parseAbstractResponse(raw string) parsedAbstract {
	var out parsedAbstract
	inHeaders := false

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		switch {
		case strings.HasPrefix(strings.ToUpper(line), "SUMMARY:"):
			out.Summary = strings.TrimSpace(line[len("SUMMARY:"):])
			inHeaders = false
		case strings.EqualFold(line, "HEADERS:"):
			inHeaders = true
		case inHeaders && strings.HasPrefix(line, "-"):
			h := strings.TrimSpace(strings.TrimPrefix(line, "-"))
			if h != "" {
				out.Headers = append(out.Headers, h)
			}
		}
	}

	return out
}

func abstractSystemPrompt() string {
	return `You summarize a single conversation turn for long-term memory retrieval.
Respond with exactly this format:

SUMMARY: <one line capturing what this turn was about>
HEADERS:
- <short topic header>
- <short topic header>

List 1 to 5 headers, each a few words, suitable for later substring lookup.`
}
