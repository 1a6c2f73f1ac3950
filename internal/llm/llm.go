// Package llm is the model-invoker boundary: it turns a resolved message
// payload into generated text via the local Ollama runtime, through
// langchaingo's model abstraction.
package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/promptflow/internal/prompt"
)

// ErrModelUnavailable is wrapped into every failure of the external model
// call, whether connection refused, timeout, or a runtime-side error.
var ErrModelUnavailable = errors.New("llm: model unavailable")

// Usage holds token counts reported by the runtime. Known is false when the
// runtime did not report them; counts are never guessed.
type Usage struct {
	Input  int  `json:"input_tokens"`
	Output int  `json:"output_tokens"`
	Known  bool `json:"known"`
}

// Total returns input+output, valid only when Known.
func (u Usage) Total() int { return u.Input + u.Output }

// Response is the payload returned from a single model call.
type Response struct {
	Text  string `json:"text"`
	Usage Usage  `json:"usage"`
}

// Invoker is the single blocking external call of a pipeline step.
// Implementations must be safe for concurrent use; the production client is
// built once and shared process-wide as immutable configuration.
type Invoker interface {
	Generate(ctx context.Context, messages []prompt.Message) (*Response, error)
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %v", ErrModelUnavailable, err)
}
