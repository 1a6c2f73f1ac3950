package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptflow/internal/llm/llmtest"
	"github.com/promptflow/internal/prompt"
	"github.com/promptflow/internal/retry"
	"github.com/promptflow/internal/schema"
)

func TestPipeline_RawText(t *testing.T) {
	fake := llmtest.Respond("Why don't cats play poker? Too many cheetahs!")
	p := New(prompt.NewText("Tell a very short joke about {topic}"), fake)

	text, err := p.RunText(context.Background(), map[string]string{"topic": "cats"})
	require.NoError(t, err)
	assert.Contains(t, text, "cheetahs")
	assert.Contains(t, fake.LastPrompt(), "joke about cats")
}

func TestPipeline_MissingVariableBeforeInvoke(t *testing.T) {
	fake := llmtest.Respond("never reached")
	p := New(prompt.NewText("Summarize {document}"), fake)

	_, err := p.Run(context.Background(), map[string]string{})
	var missing *prompt.MissingVariableError
	require.True(t, errors.As(err, &missing))
	assert.Zero(t, fake.Calls(), "invoker must not be called when resolution fails")
}

func TestPipeline_SchemaParse(t *testing.T) {
	fake := llmtest.Respond(`{"language": "Go", "year": 2009}`)
	s := schema.New("Language",
		schema.Field{Name: "language", Type: schema.TypeString, Required: true},
		schema.Field{Name: "year", Type: schema.TypeInt, Required: true},
	)
	p := New(prompt.NewText("Describe {name}.\n{format_instructions}"), fake,
		WithSchema(schema.NewParser(s)))

	result, err := p.Run(context.Background(), map[string]string{"name": "Go"})
	require.NoError(t, err)

	parsed := result.Schema()
	require.NotNil(t, parsed)
	assert.Equal(t, "Go", parsed["language"])
	assert.Equal(t, 2009, parsed["year"])

	// Format instructions were injected for the declared placeholder.
	assert.Contains(t, fake.LastPrompt(), "JSON")
}

func TestPipeline_ListParse(t *testing.T) {
	fake := llmtest.Respond("Python, JavaScript, Go")
	p := New(prompt.NewText("List 3 {category}.\n{format_instructions}"), fake, WithList())

	result, err := p.Run(context.Background(), map[string]string{"category": "languages"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Python", "JavaScript", "Go"}, result.List())
	assert.Contains(t, fake.LastPrompt(), "comma-separated")
}

func TestPipeline_ParseFailureSurfaces(t *testing.T) {
	fake := llmtest.Respond("no json here")
	s := schema.New("S", schema.Field{Name: "x", Type: schema.TypeString, Required: true})
	p := New(prompt.NewText("{q}"), fake, WithSchema(schema.NewParser(s)))

	_, err := p.Run(context.Background(), map[string]string{"q": "hi"})
	var perr *schema.ParseError
	assert.True(t, errors.As(err, &perr))
}

func TestPipeline_RetryOnTransient(t *testing.T) {
	calls := 0
	fake := llmtest.Func(func([]prompt.Message) (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("connection refused")
		}
		return "ok", nil
	})
	p := New(prompt.NewText("{q}"), fake, WithRetry(retry.Config{
		MaxRetries: 3,
		BaseDelay:  1,
		MaxDelay:   1,
		Multiplier: 1,
	}))

	text, err := p.RunText(context.Background(), map[string]string{"q": "hi"})
	require.NoError(t, err)
	assert.Equal(t, "ok", text)
	assert.Equal(t, 3, calls)
}

func TestChain_Sequential(t *testing.T) {
	outline := New(prompt.NewText("Write an outline about {topic}"),
		llmtest.Respond("1. History 2. Present"), WithName("outline"))

	var secondSaw string
	article := New(prompt.NewText("Expand this outline: {outline}"),
		llmtest.Func(func(msgs []prompt.Message) (string, error) {
			secondSaw = msgs[0].Content
			return "Long article text", nil
		}), WithName("article"))

	result, err := First(outline).Then("outline", article).
		Run(context.Background(), map[string]string{"topic": "Go"})
	require.NoError(t, err)

	assert.Equal(t, "Long article text", result.Text)
	assert.Contains(t, secondSaw, "1. History 2. Present")
}

func TestChain_FirstFailureStops(t *testing.T) {
	boom := errors.New("boom")
	first := New(prompt.NewText("{q}"), llmtest.Fail(boom))
	second := New(prompt.NewText("{x}"), llmtest.Respond("never"))

	_, err := First(first).Then("x", second).Run(context.Background(), map[string]string{"q": "hi"})
	assert.ErrorIs(t, err, boom)
}
