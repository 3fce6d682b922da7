// Package llm implements the completion providers behind inline reply
// suggestions: the hosted completion endpoint, a local Ollama instance, and
// Amazon Bedrock. All providers take the same request and return a short
// continuation of the text being typed.
package llm

import "context"

// Request carries the completion inputs. The JSON field names are the wire
// format of the hosted completion endpoint; prompt-based providers render
// the same fields into a prompt template instead.
type Request struct {
	CurrentText string         `json:"current_text"`
	Context     RequestContext `json:"context"`
}

// RequestContext is the source-message metadata a completion is grounded
// on.
type RequestContext struct {
	Subject      string `json:"subject,omitempty"`
	From         string `json:"from,omitempty"`
	Body         string `json:"body,omitempty"`
	PriorSummary string `json:"prior_summary,omitempty"`
}

// Response is the completion endpoint's reply.
type Response struct {
	Suggestion string `json:"suggestion"`
}

// Provider defines a generic completion backend.
type Provider interface {
	Name() string
	Complete(ctx context.Context, req Request) (string, error)
}
