package llm

import (
	"fmt"
	"strings"
	"time"
)

// Options carries the provider selection and its connection settings.
type Options struct {
	Provider       string
	Endpoint       string
	Model          string
	Region         string
	APIKey         string
	PromptTemplate string
	Timeout        time.Duration
}

// NewProvider creates a Provider from config fields
func NewProvider(opts Options) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Provider)) {
	case "ollama", "":
		c := NewOllamaClient(opts.Endpoint, opts.Model, opts.Timeout)
		c.PromptTemplate = opts.PromptTemplate
		return c, nil
	case "bedrock":
		b, err := NewBedrock(opts.Region, opts.Model, opts.Timeout)
		if err != nil {
			return nil, err
		}
		b.PromptTemplate = opts.PromptTemplate
		return b, nil
	case "remote":
		if strings.TrimSpace(opts.Endpoint) == "" {
			return nil, fmt.Errorf("remote provider requires an endpoint")
		}
		return NewRemoteClient(opts.Endpoint, opts.APIKey, opts.Timeout), nil
	default:
		return nil, fmt.Errorf("unknown completion provider %q", opts.Provider)
	}
}
