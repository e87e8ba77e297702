package research

import (
	"context"
	"strings"

	"memoria/internal/llm"
)

func reflectSystemPrompt() string {
	return `Given the query and the pages gathered so far, decide whether another search
iteration would help. Respond with the single word CONTINUE if it would,
or STOP otherwise.`
}

// reflect decides whether another iteration should run. The hard token
// gate and the empty-retrieved-set force-continue are evaluated by the
// caller before this is reached; reflect only covers the LLM-driven case.
func reflect(ctx context.Context, llmProvider llm.Provider, userPrompt string) (bool, error) {
	result, err := llmProvider.Complete(ctx, []llm.Message{
		{Role: llm.System, Content: reflectSystemPrompt()},
		{Role: llm.User, Content: userPrompt},
	}, llm.CompletionOptions{Temperature: 0.0, MaxOutputTokens: 50})
	if err != nil {
		return false, err
	}
	return strings.Contains(strings.ToUpper(result.Content), "CONTINUE"), nil
}
