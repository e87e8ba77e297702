package research

import (
	"context"
	"strings"

	"memoria/internal/llm"
)

// plan is the parsed directive the Plan phase produces each iteration.
type plan struct {
	Strategy      string
	SearchQuery   string
	UseKeyword    bool
	UseVector     bool
	UseIndex      bool
	TargetHeaders []string
	Complete      bool
}

const defaultSearchQuery = "general search"

func planSystemPrompt() string {
	return `You plan one iteration of a memory search. Given the running query and the
pages gathered so far, respond with exactly this format:

STRATEGY: <free text>
SEARCH_QUERY: <free text>
USE_KEYWORD: true|false
USE_VECTOR: true|false
USE_INDEX: true|false
TARGET_HEADERS: <comma-separated list, or "none">
COMPLETE: true|false

Set COMPLETE: true only when the gathered pages already answer the query.`
}

// requestPlan issues the Plan phase's LLM call and parses the response.
func requestPlan(ctx context.Context, llmProvider llm.Provider, userPrompt string) (plan, error) {
	result, err := llmProvider.Complete(ctx, []llm.Message{
		{Role: llm.System, Content: planSystemPrompt()},
		{Role: llm.User, Content: userPrompt},
	}, llm.CompletionOptions{Temperature: 0.2, MaxOutputTokens: 300})
	if err != nil {
		return plan{}, err
	}
	return parsePlanResponse(result.Content), nil
}

// parsePlanResponse implements the grammar in SPEC_FULL.md §6. Missing
// fields take their zero value; search_query defaults to a sentinel so the
// Search phase never issues an empty embedding request.
func parsePlanResponse(raw string) plan {
	p := plan{SearchQuery: defaultSearchQuery}

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		key, value, ok := splitField(line)
		if !ok {
			continue
		}

		switch strings.ToUpper(key) {
		case "STRATEGY":
			p.Strategy = value
		case "SEARCH_QUERY":
			if value != "" {
				p.SearchQuery = value
			}
		case "USE_KEYWORD":
			p.UseKeyword = parseBool(value)
		case "USE_VECTOR":
			p.UseVector = parseBool(value)
		case "USE_INDEX":
			p.UseIndex = parseBool(value)
		case "TARGET_HEADERS":
			p.TargetHeaders = parseHeaderList(value)
		case "COMPLETE":
			p.Complete = parseBool(value)
		}
	}

	return p
}

func splitField(line string) (key, value string, ok bool) {
	idx := strings.Index(line, ":")
	if idx < 0 {
		return "", "", false
	}
	return strings.TrimSpace(line[:idx]), strings.TrimSpace(line[idx+1:]), true
}

func parseBool(v string) bool {
	return strings.EqualFold(strings.TrimSpace(v), "true")
}

func parseHeaderList(v string) []string {
	v = strings.TrimSpace(v)
	if v == "" || strings.EqualFold(v, "none") {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
