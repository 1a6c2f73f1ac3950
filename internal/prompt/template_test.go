package prompt

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextTemplate_Resolve(t *testing.T) {
	tmpl := NewText("Tell me a {adjective} story about {topic}.")

	msgs, err := tmpl.Resolve(map[string]string{
		"adjective": "short",
		"topic":     "dragons",
	})
	require.NoError(t, err)
	require.Len(t, msgs, 1)

	assert.Equal(t, RoleHuman, msgs[0].Role)
	assert.Equal(t, "Tell me a short story about dragons.", msgs[0].Content)
	assert.NotContains(t, msgs[0].Content, "{")
}

func TestTextTemplate_MissingVariable(t *testing.T) {
	tmpl := NewText("Summarize {document} in {style} style.")

	_, err := tmpl.Resolve(map[string]string{"style": "formal"})
	require.Error(t, err)

	var missing *MissingVariableError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "document", missing.Name)
}

func TestTextTemplate_EscapedBraces(t *testing.T) {
	tmpl := NewText(`Return JSON like {{"name": "{name}"}}`)

	s, err := tmpl.Render(map[string]string{"name": "Acme"})
	require.NoError(t, err)
	assert.Equal(t, `Return JSON like {"name": "Acme"}`, s)
}

func TestTextTemplate_BraceWrappedPlaceholder(t *testing.T) {
	tmpl := NewText(`Wrap the value in braces: {{{name}}}`)

	assert.Equal(t, []string{"name"}, tmpl.InputVariables())

	s, err := tmpl.Render(map[string]string{"name": "Acme"})
	require.NoError(t, err)
	assert.Equal(t, `Wrap the value in braces: {Acme}`, s)

	// The placeholder is still mandatory inside escaped braces.
	_, err = tmpl.Render(map[string]string{})
	var missing *MissingVariableError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "name", missing.Name)
}

func TestTextTemplate_Partial(t *testing.T) {
	base := NewText("You are a {role}. Answer: {question}")
	bound := base.Partial("role", "historian")

	assert.Equal(t, []string{"question"}, bound.InputVariables())

	s, err := bound.Render(map[string]string{"question": "Who built the pyramids?"})
	require.NoError(t, err)
	assert.Contains(t, s, "You are a historian.")

	// The original stays unbound.
	assert.Equal(t, []string{"role", "question"}, base.InputVariables())
}

func TestChatTemplate_OrderAndRoles(t *testing.T) {
	tmpl := NewChat(
		RolePattern{Role: RoleSystem, Pattern: "You are a {role} with expertise in {domain}."},
		RolePattern{Role: RoleHuman, Pattern: "Context: {context}"},
		RolePattern{Role: RoleHuman, Pattern: "Question: {question}"},
	)

	msgs, err := tmpl.Resolve(map[string]string{
		"role":     "financial advisor",
		"domain":   "retirement planning",
		"context":  "Client is 35 years old.",
		"question": "What should they prioritize?",
	})
	require.NoError(t, err)

	want := []Message{
		{Role: RoleSystem, Content: "You are a financial advisor with expertise in retirement planning."},
		{Role: RoleHuman, Content: "Context: Client is 35 years old."},
		{Role: RoleHuman, Content: "Question: What should they prioritize?"},
	}
	if diff := cmp.Diff(want, msgs); diff != "" {
		t.Errorf("resolved messages mismatch (-want +got):\n%s", diff)
	}
}

func TestChatTemplate_MissingVariableNamesFirst(t *testing.T) {
	tmpl := NewChat(
		RolePattern{Role: RoleSystem, Pattern: "You are {persona}."},
		RolePattern{Role: RoleHuman, Pattern: "{question}"},
	)

	_, err := tmpl.Resolve(map[string]string{"question": "hi"})
	var missing *MissingVariableError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "persona", missing.Name)
}

func TestFewShotTemplate_Resolve(t *testing.T) {
	tmpl := &FewShotTemplate{
		Prefix:         "Classify the sentiment as Positive, Negative, or Neutral.\n\nExamples:",
		ExamplePattern: "Input: {input}\nSentiment: {output}",
		Examples: []Example{
			{"input": "The weather is beautiful today.", "output": "Positive"},
			{"input": "Everything is going wrong.", "output": "Negative"},
		},
		Suffix: "\nInput: {input}\nSentiment:",
	}

	msgs, err := tmpl.Resolve(map[string]string{"input": "The service was slow."})
	require.NoError(t, err)
	require.Len(t, msgs, 1)

	content := msgs[0].Content
	assert.Contains(t, content, "Classify the sentiment")
	assert.Contains(t, content, "Input: The weather is beautiful today.")
	assert.Contains(t, content, "Sentiment: Positive")
	assert.Contains(t, content, "Input: The service was slow.")

	// Examples come before the query.
	assert.Less(t,
		strings.Index(content, "beautiful today"),
		strings.Index(content, "service was slow"))

	assert.Equal(t, []string{"input"}, tmpl.InputVariables())
}

func TestVariables(t *testing.T) {
	vars := Variables("{a} and {b} and {a} but not {{c}}")
	assert.Equal(t, []string{"a", "b"}, vars)
}
