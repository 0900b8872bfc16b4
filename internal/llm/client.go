// Package llm provides a provider-agnostic interface for schema-constrained
// completions: a system instruction, a user instruction and a closed JSON
// schema go in, a document conforming to that schema comes out. Both
// Anthropic (Claude) and OpenAI implement the interface, allowing the
// service to fall back from one to the other.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// CompletionRequest describes one schema-constrained completion call.
type CompletionRequest struct {
	System string // system instruction
	User   string // user instruction
	Schema Schema // output contract the provider must honor

	// WebSearch requests augmented mode: the provider may search the web
	// before answering. Providers that cannot honor it fail with a
	// CapabilityError so the caller can retry without it.
	WebSearch bool
}

// Client is the interface for schema-constrained completion providers.
type Client interface {
	// Complete returns a JSON document conforming to req.Schema. Callers
	// should still validate the document before trusting it.
	Complete(ctx context.Context, req CompletionRequest) (json.RawMessage, error)
	ProviderName() string
	ModelName() string
}

// CapabilityError reports that a provider refused an optional capability
// (e.g. web search) for the current call. It is the stable discriminant the
// retry logic branches on; transport error text never leaves the provider
// that produced it.
type CapabilityError struct {
	Capability string
	Err        error
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("capability %q not supported: %v", e.Capability, e.Err)
}

func (e *CapabilityError) Unwrap() error { return e.Err }

// IsCapabilityUnsupported reports whether err (or anything it wraps) is a
// CapabilityError.
func IsCapabilityUnsupported(err error) bool {
	var ce *CapabilityError
	return errors.As(err, &ce)
}
