package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptflow/internal/llm/llmtest"
	"github.com/promptflow/internal/prompt"
)

func TestInMemoryStore_AppendAndHistory(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	require.NoError(t, store.Append(ctx, "conv-1", prompt.Human("What is Go?")))
	require.NoError(t, store.Append(ctx, "conv-1", prompt.AI("A programming language.")))
	require.NoError(t, store.Append(ctx, "conv-2", prompt.Human("unrelated")))

	history, err := store.History(ctx, "conv-1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, prompt.RoleHuman, history[0].Role)
	assert.Equal(t, "A programming language.", history[1].Content)

	other, err := store.History(ctx, "conv-2")
	require.NoError(t, err)
	assert.Len(t, other, 1)
}

func TestInMemoryStore_HistoryIsCopy(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	require.NoError(t, store.Append(ctx, "c", prompt.Human("hi")))

	history, _ := store.History(ctx, "c")
	history[0].Content = "mutated"

	again, _ := store.History(ctx, "c")
	assert.Equal(t, "hi", again[0].Content)
}

func TestFormatHistory(t *testing.T) {
	history := []prompt.Message{
		prompt.Human("What is Go?"),
		prompt.AI("A programming language."),
	}

	out := FormatHistory(history, 0)
	assert.Equal(t, "Human: What is Go?\nAssistant: A programming language.", out)
}

func TestFormatHistory_Window(t *testing.T) {
	history := []prompt.Message{
		prompt.Human("one"),
		prompt.AI("two"),
		prompt.Human("three"),
		prompt.AI("four"),
	}

	out := FormatHistory(history, 2)
	assert.Equal(t, "Human: three\nAssistant: four", out)
	assert.NotContains(t, out, "one")
}

func TestConversation_Ask(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	require.NoError(t, store.Append(ctx, "c", prompt.Human("What is Go?")))
	require.NoError(t, store.Append(ctx, "c", prompt.AI("Go is a language made at Google.")))

	invoker := llmtest.Respond("You could write a CLI, for example.")
	conv := NewConversation(store, invoker, 0)

	answer, err := conv.Ask(ctx, "c", "Give me an example use.")
	require.NoError(t, err)
	assert.Equal(t, "You could write a CLI, for example.", answer)

	// Prior history reached the model.
	assert.Contains(t, invoker.LastPrompt(), "Go is a language made at Google.")

	// Both turns were recorded.
	history, err := store.History(ctx, "c")
	require.NoError(t, err)
	require.Len(t, history, 4)
	assert.Equal(t, "Give me an example use.", history[2].Content)
	assert.Equal(t, prompt.RoleAI, history[3].Role)
}
