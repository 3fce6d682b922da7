package llm

import "strings"

// DefaultPromptTemplate is used by prompt-based providers when the config
// carries no template of its own.
const DefaultPromptTemplate = `You are completing a reply the user is typing to an email.

Original message from {{from}} (subject: {{subject}}):
{{body}}

Thread summary, if any: {{summary}}

The reply so far:
{{text}}

Continue the reply with a short phrase, at most one sentence. Return only the continuation, without quotes and without any preamble.`

// BuildPrompt renders a completion request into a prompt. Placeholders are
// {{text}}, {{subject}}, {{from}}, {{body}} and {{summary}}; unknown text
// is left untouched.
func BuildPrompt(template string, req Request) string {
	if strings.TrimSpace(template) == "" {
		template = DefaultPromptTemplate
	}
	prompt := strings.ReplaceAll(template, "{{text}}", req.CurrentText)
	prompt = strings.ReplaceAll(prompt, "{{subject}}", req.Context.Subject)
	prompt = strings.ReplaceAll(prompt, "{{from}}", req.Context.From)
	prompt = strings.ReplaceAll(prompt, "{{body}}", req.Context.Body)
	prompt = strings.ReplaceAll(prompt, "{{summary}}", req.Context.PriorSummary)
	return prompt
}
