// Package llm is the generation collaborator: it turns a prompt plus a JSON
// input payload into the model's JSON reply. Providers are plain LLMClient
// implementations; cross-cutting behaviour is layered with Middleware.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

type LLMClient interface {
	Name() string
	GenerateJSON(ctx context.Context, prompt string, input any) (json.RawMessage, error)
	Close() error
}

var ErrInvalidJSON = errors.New("llm: invalid JSON from model")

// PermanentError marks a failure that retrying cannot fix (bad credentials,
// rejected request).
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return fmt.Sprintf("llm: permanent: %v", e.Err) }
func (e *PermanentError) Unwrap() error { return e.Err }

// Permanent wraps err so Retry gives up immediately.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

type phaseKey struct{}

// WithPhase tags ctx with the pipeline stage issuing the request. It only
// shows up in logs.
func WithPhase(ctx context.Context, phase string) context.Context {
	return context.WithValue(ctx, phaseKey{}, phase)
}

func PhaseFrom(ctx context.Context) string {
	if v, ok := ctx.Value(phaseKey{}).(string); ok && v != "" {
		return v
	}
	return "default"
}

// fullPrompt is the single text sent to providers that take one message.
func fullPrompt(prompt string, input any) string {
	in, _ := json.MarshalIndent(input, "", "  ")
	return prompt + "\n\n[INPUT JSON]\n" + string(in)
}
