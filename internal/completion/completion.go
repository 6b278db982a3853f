// Package completion wraps the external text-completion service used by bot personas.
package completion

import (
	"context"
	"errors"
)

// ErrEmptyReply is returned when the service answers without any text.
var ErrEmptyReply = errors.New("completion returned no text")

// Completer turns a single prompt into a reply. Calls are stateless.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Func adapts a function to Completer.
type Func func(ctx context.Context, prompt string) (string, error)

// Complete calls f.
func (f Func) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}
