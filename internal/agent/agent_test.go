package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptflow/internal/llm/llmtest"
	"github.com/promptflow/internal/schema"
	"github.com/promptflow/internal/tools"
)

func TestRun_DirectFinalAnswer(t *testing.T) {
	invoker := llmtest.Respond(`{"thought": "I know this", "action": "final_answer", "final_answer": "42"}`)
	a := New(invoker, tools.Builtins())

	result, err := a.Run(context.Background(), "What is the answer to everything?")
	require.NoError(t, err)

	assert.Equal(t, "42", result.Answer)
	assert.Len(t, result.Steps, 1)
	assert.Nil(t, result.Steps[0].Observation)
	assert.Equal(t, 1, invoker.Calls())
}

func TestRun_ToolThenAnswer(t *testing.T) {
	invoker := llmtest.Respond(
		`{"thought": "need math", "action": "use_tool", "tool_name": "calculator", "tool_input": {"expression": "25 * 17"}}`,
		`{"thought": "done", "action": "final_answer", "final_answer": "425"}`,
	)
	a := New(invoker, tools.Builtins())

	result, err := a.Run(context.Background(), "What is 25 * 17?")
	require.NoError(t, err)

	assert.Equal(t, "425", result.Answer)
	require.Len(t, result.Steps, 2)
	assert.Equal(t, "calculator", result.Steps[0].Decision.ToolName)
	assert.InDelta(t, 425.0, result.Steps[0].Observation.(float64), 1e-9)

	// The second round must see the tool observation in its prompt.
	assert.Contains(t, invoker.LastPrompt(), "calculator")
	assert.Contains(t, invoker.LastPrompt(), "425")
}

func TestRun_StepLimit(t *testing.T) {
	invoker := llmtest.Respond(`{"action": "use_tool", "tool_name": "clock", "tool_input": {}}`)
	a := New(invoker, tools.Builtins(), WithMaxSteps(3))

	result, err := a.Run(context.Background(), "What time will it ever be?")
	require.ErrorIs(t, err, ErrStepLimit)
	assert.Len(t, result.Steps, 3)
	assert.Equal(t, 3, invoker.Calls())
}

func TestRun_UnknownToolSurfaces(t *testing.T) {
	invoker := llmtest.Respond(`{"action": "use_tool", "tool_name": "time_machine", "tool_input": {}}`)
	a := New(invoker, tools.Builtins())

	_, err := a.Run(context.Background(), "Go back to 1985")
	require.Error(t, err)

	var unknown *tools.UnknownToolError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "time_machine", unknown.Name)
	assert.Equal(t, 1, invoker.Calls())
}

func TestRun_MalformedDecision(t *testing.T) {
	invoker := llmtest.Respond("I would rather chat than emit JSON.")
	a := New(invoker, tools.Builtins())

	_, err := a.Run(context.Background(), "hello")
	require.Error(t, err)

	var parseErr *schema.ParseError
	assert.True(t, errors.As(err, &parseErr))
}

func TestParseDecision(t *testing.T) {
	d, err := ParseDecision("Sure! ```json\n{\"action\": \"final_answer\", \"final_answer\": \"ok\"}\n```")
	require.NoError(t, err)
	assert.Equal(t, ActionFinalAnswer, d.Action)
	assert.Equal(t, "ok", d.FinalAnswer)

	_, err = ParseDecision(`{"action": "use_tool"}`)
	assert.Error(t, err, "use_tool without tool_name")

	_, err = ParseDecision(`{"action": "daydream"}`)
	assert.Error(t, err, "unknown action")
}

func TestRun_ModelErrorPropagates(t *testing.T) {
	boom := errors.New("runtime down")
	a := New(llmtest.Fail(boom), tools.Builtins())

	_, err := a.Run(context.Background(), "anything")
	require.ErrorIs(t, err, boom)
}
