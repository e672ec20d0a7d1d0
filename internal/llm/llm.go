// Package llm defines the model-invocation boundary: a synchronous call
// that takes a prompt plus sampling parameters and returns raw model text.
package llm

import (
	"context"
	"fmt"
)

// Invoker sends a prompt to a generative model and returns the raw text
// response. Calls block until the provider answers or fails; no retry
// policy exists at this layer.
type Invoker interface {
	Invoke(ctx context.Context, prompt string, cfg SamplingConfig) (string, error)
}

// SamplingConfig carries optional sampling parameters. Nil fields defer to
// the provider's defaults; set fields are passed through independently.
type SamplingConfig struct {
	Temperature *float32
	TopK        *int32
	TopP        *float32
}

// Validate checks each set field against its allowed range.
func (c SamplingConfig) Validate() error {
	if c.Temperature != nil && (*c.Temperature < 0 || *c.Temperature > 2) {
		return fmt.Errorf("temperature %v out of range [0, 2]", *c.Temperature)
	}
	if c.TopK != nil && *c.TopK <= 0 {
		return fmt.Errorf("top-k %d must be a positive integer", *c.TopK)
	}
	if c.TopP != nil && (*c.TopP <= 0 || *c.TopP > 1) {
		return fmt.Errorf("top-p %v out of range (0, 1]", *c.TopP)
	}
	return nil
}

// TransportError reports a network or auth failure reaching the provider.
type TransportError struct {
	Provider string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s transport error: %v", e.Provider, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// QuotaError reports a rate-limit or quota rejection from the provider.
type QuotaError struct {
	Provider string
	Err      error
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("%s quota exhausted: %v", e.Provider, e.Err)
}

func (e *QuotaError) Unwrap() error { return e.Err }

// Float32Ptr returns a pointer to v.
func Float32Ptr(v float32) *float32 { return &v }

// Int32Ptr returns a pointer to v.
func Int32Ptr(v int32) *int32 { return &v }
