// Package workflow runs a two-node stateful flow over customer messages:
// classify the message, then respond with the prompt matched to its
// category. Every node's outcome is recorded against a workflow ID so a run
// can be audited after the fact.
package workflow

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/promptflow/internal/llm"
	"github.com/promptflow/internal/pipeline"
	"github.com/promptflow/internal/prompt"
)

// Step is one recorded node outcome.
type Step struct {
	WorkflowID string                 `json:"workflow_id"`
	Name       string                 `json:"name"`
	Data       map[string]interface{} `json:"data"`
}

// StepRecorder persists node outcomes.
type StepRecorder interface {
	Record(ctx context.Context, step Step) error
	Steps(ctx context.Context, workflowID string) ([]Step, error)
}

// MemoryRecorder keeps steps in process memory. Safe for concurrent use.
type MemoryRecorder struct {
	mu    sync.RWMutex
	steps map[string][]Step
}

// NewMemoryRecorder returns an empty recorder.
func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{steps: make(map[string][]Step)}
}

func (r *MemoryRecorder) Record(ctx context.Context, step Step) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.steps[step.WorkflowID] = append(r.steps[step.WorkflowID], step)
	return nil
}

func (r *MemoryRecorder) Steps(ctx context.Context, workflowID string) ([]Step, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	stored := r.steps[workflowID]
	out := make([]Step, len(stored))
	copy(out, stored)
	return out, nil
}

const classifyPattern = `Classify this customer message into one category: 'support', 'sales', or 'general'.
Return only the category word.

Message: {text}`

var responsePatterns = map[string]string{
	"support": "You are a support agent. Address this concern helpfully: {text}",
	"sales":   "You are a sales rep. Respond to this inquiry: {text}",
	"general": "You are a helpful assistant. Respond to: {text}",
}

// Result is a completed workflow run.
type Result struct {
	WorkflowID string    `json:"workflow_id"`
	Category   string    `json:"category"`
	Response   string    `json:"response"`
	Usage      llm.Usage `json:"usage"`
}

// Workflow is the classify-then-respond flow.
type Workflow struct {
	classifier *pipeline.Pipeline
	responders map[string]*pipeline.Pipeline
	recorder   StepRecorder
}

// New builds the flow over an invoker and a recorder.
func New(invoker llm.Invoker, recorder StepRecorder) *Workflow {
	responders := make(map[string]*pipeline.Pipeline, len(responsePatterns))
	for category, pattern := range responsePatterns {
		responders[category] = pipeline.New(prompt.NewText(pattern), invoker, pipeline.WithName("respond-"+category))
	}
	return &Workflow{
		classifier: pipeline.New(prompt.NewText(classifyPattern), invoker, pipeline.WithName("classify")),
		responders: responders,
		recorder:   recorder,
	}
}

// Run processes one message through both nodes. An unrecognized category
// falls back to the general responder.
func (w *Workflow) Run(ctx context.Context, text string) (*Result, error) {
	workflowID := uuid.NewString()[:8]

	classified, err := w.classifier.Run(ctx, map[string]string{"text": text})
	if err != nil {
		return nil, err
	}
	category := strings.ToLower(strings.TrimSpace(classified.Text))

	if err := w.recorder.Record(ctx, Step{
		WorkflowID: workflowID,
		Name:       "classify",
		Data:       map[string]interface{}{"input": text, "output": category},
	}); err != nil {
		return nil, err
	}

	responder, ok := w.responders[category]
	if !ok {
		log.Debug().Str("workflow_id", workflowID).Str("category", category).Msg("unrecognized category, using general responder")
		responder = w.responders["general"]
	}

	responded, err := responder.Run(ctx, map[string]string{"text": text})
	if err != nil {
		return nil, err
	}

	if err := w.recorder.Record(ctx, Step{
		WorkflowID: workflowID,
		Name:       "respond",
		Data:       map[string]interface{}{"classification": category, "response": responded.Text},
	}); err != nil {
		return nil, err
	}

	usage := classified.Usage
	usage.Input += responded.Usage.Input
	usage.Output += responded.Usage.Output
	usage.Known = usage.Known && responded.Usage.Known

	log.Info().Str("workflow_id", workflowID).Str("category", category).Msg("workflow completed")
	return &Result{WorkflowID: workflowID, Category: category, Response: responded.Text, Usage: usage}, nil
}
