package memory

import (
	"context"

	"github.com/promptflow/internal/llm"
	"github.com/promptflow/internal/pipeline"
	"github.com/promptflow/internal/prompt"
)

const continuePattern = `Previous conversation:
{history}

Based on the conversation above, answer:
Human: {question}
Assistant:`

// Conversation answers questions with the stored history as context and
// records each exchange back into the store.
type Conversation struct {
	store  Store
	chat   *pipeline.Pipeline
	window int
}

// NewConversation wires a store to an invoker. window bounds how many past
// messages are included per prompt; zero means all.
func NewConversation(store Store, invoker llm.Invoker, window int) *Conversation {
	return &Conversation{
		store:  store,
		chat:   pipeline.New(prompt.NewText(continuePattern), invoker, pipeline.WithName("conversation")),
		window: window,
	}
}

// Ask generates a reply informed by the conversation so far, then appends
// both the question and the reply to the store.
func (c *Conversation) Ask(ctx context.Context, conversationID, question string) (string, error) {
	history, err := c.store.History(ctx, conversationID)
	if err != nil {
		return "", err
	}

	result, err := c.chat.Run(ctx, map[string]string{
		"history":  FormatHistory(history, c.window),
		"question": question,
	})
	if err != nil {
		return "", err
	}

	if err := c.store.Append(ctx, conversationID, prompt.Human(question)); err != nil {
		return "", err
	}
	if err := c.store.Append(ctx, conversationID, prompt.AI(result.Text)); err != nil {
		return "", err
	}
	return result.Text, nil
}
