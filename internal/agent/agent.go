// Package agent runs a bounded decide->act->observe loop: each round the
// model emits a structured decision that either dispatches a registry tool
// or produces the final answer.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/promptflow/internal/llm"
	"github.com/promptflow/internal/prompt"
	"github.com/promptflow/internal/schema"
	"github.com/promptflow/internal/schema/jsonfix"
	"github.com/promptflow/internal/tools"
)

// ErrStepLimit is returned when the loop exhausts its step budget without
// reaching a final answer.
var ErrStepLimit = errors.New("agent: step limit reached without final answer")

const defaultMaxSteps = 5

// Decision actions the model may choose.
const (
	ActionUseTool     = "use_tool"
	ActionFinalAnswer = "final_answer"
)

// Decision is one structured reasoning round from the model.
type Decision struct {
	Thought     string                 `json:"thought"`
	Action      string                 `json:"action"`
	ToolName    string                 `json:"tool_name,omitempty"`
	ToolInput   map[string]interface{} `json:"tool_input,omitempty"`
	FinalAnswer string                 `json:"final_answer,omitempty"`
}

// Step records one completed round for the caller's inspection.
type Step struct {
	Decision    Decision    `json:"decision"`
	Observation interface{} `json:"observation,omitempty"`
}

// RunResult is the loop outcome.
type RunResult struct {
	Answer string `json:"answer"`
	Steps  []Step `json:"steps"`
}

var decisionTemplate = prompt.NewChat(
	prompt.RolePattern{
		Role: prompt.RoleSystem,
		Pattern: `You are a helpful assistant with access to tools.

Available tools:
{tools}
Think step by step. If you need a tool, pick one. If you can answer, give final_answer.

Respond with a JSON object and nothing else:
{{"thought": "<your reasoning>", "action": "use_tool" or "final_answer", "tool_name": "<tool to use, if any>", "tool_input": {{<named arguments>}}, "final_answer": "<answer, if any>"}}`,
	},
	prompt.RolePattern{Role: prompt.RoleHuman, Pattern: "Question: {question}\n{scratchpad}"},
)

// Agent drives the loop. Construct once and reuse; it holds no per-run state.
type Agent struct {
	invoker  llm.Invoker
	registry *tools.Registry
	maxSteps int
}

// Option configures an Agent.
type Option func(*Agent)

// WithMaxSteps overrides the default step budget of 5.
func WithMaxSteps(n int) Option {
	return func(a *Agent) { a.maxSteps = n }
}

// New builds an agent over an invoker and a tool registry.
func New(invoker llm.Invoker, registry *tools.Registry, opts ...Option) *Agent {
	a := &Agent{invoker: invoker, registry: registry, maxSteps: defaultMaxSteps}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run answers the question, dispatching tools as the model requests, until a
// final answer or the step budget. Tool observations are appended to a
// scratchpad fed into the next round.
func (a *Agent) Run(ctx context.Context, question string) (*RunResult, error) {
	result := &RunResult{}
	var scratchpad strings.Builder

	for step := 0; step < a.maxSteps; step++ {
		messages, err := decisionTemplate.Resolve(map[string]string{
			"tools":      a.registry.Describe(),
			"question":   question,
			"scratchpad": scratchpad.String(),
		})
		if err != nil {
			return nil, err
		}

		resp, err := a.invoker.Generate(ctx, messages)
		if err != nil {
			return nil, err
		}

		decision, err := ParseDecision(resp.Text)
		if err != nil {
			return nil, err
		}

		log.Debug().
			Int("step", step+1).
			Str("action", decision.Action).
			Str("tool", decision.ToolName).
			Msg("agent decision")

		if decision.Action == ActionFinalAnswer {
			result.Steps = append(result.Steps, Step{Decision: *decision})
			result.Answer = decision.FinalAnswer
			return result, nil
		}

		observation, err := a.registry.Invoke(decision.ToolName, decision.ToolInput)
		if err != nil {
			return nil, err
		}
		result.Steps = append(result.Steps, Step{Decision: *decision, Observation: observation})

		fmt.Fprintf(&scratchpad, "\nTool %s returned: %s\nContinue. Answer with final_answer if you now know the answer.",
			decision.ToolName, renderObservation(observation))
	}

	return result, ErrStepLimit
}

// ParseDecision extracts and validates a Decision from raw model text.
func ParseDecision(text string) (*Decision, error) {
	payload := schema.ExtractJSON(text)
	if payload == "" {
		return nil, &schema.ParseError{Raw: text, Reason: "no JSON object found in decision"}
	}
	repaired, _, err := jsonfix.Repair(payload)
	if err != nil {
		return nil, &schema.ParseError{Raw: text, Reason: fmt.Sprintf("malformed decision JSON: %v", err)}
	}

	var d Decision
	if err := json.Unmarshal([]byte(repaired), &d); err != nil {
		return nil, &schema.ParseError{Raw: text, Reason: fmt.Sprintf("decision does not match schema: %v", err)}
	}

	switch d.Action {
	case ActionUseTool:
		if d.ToolName == "" {
			return nil, &schema.ParseError{Raw: text, Reason: "use_tool decision missing tool_name"}
		}
	case ActionFinalAnswer:
	default:
		return nil, &schema.ParseError{Raw: text, Reason: fmt.Sprintf("unknown action %q", d.Action)}
	}
	return &d, nil
}

func renderObservation(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(b)
	}
}
