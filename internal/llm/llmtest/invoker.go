// Package llmtest provides a scripted Invoker for tests that must not touch
// a real runtime.
package llmtest

import (
	"context"
	"sync"

	"github.com/promptflow/internal/llm"
	"github.com/promptflow/internal/prompt"
)

// Invoker replays scripted responses and records every request it receives.
// Safe for concurrent use.
type Invoker struct {
	mu        sync.Mutex
	responses []string
	next      int
	err       error
	fn        func(messages []prompt.Message) (string, error)

	Requests [][]prompt.Message
}

// Respond returns an invoker that cycles through the given texts. At least
// one text is required.
func Respond(texts ...string) *Invoker {
	if len(texts) == 0 {
		panic("llmtest: Respond requires at least one text")
	}
	return &Invoker{responses: texts}
}

// Fail returns an invoker whose every call fails with err.
func Fail(err error) *Invoker {
	return &Invoker{err: err}
}

// Func returns an invoker driven by fn.
func Func(fn func(messages []prompt.Message) (string, error)) *Invoker {
	return &Invoker{fn: fn}
}

func (f *Invoker) Generate(ctx context.Context, messages []prompt.Message) (*llm.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.Requests = append(f.Requests, messages)

	if f.err != nil {
		return nil, f.err
	}
	if f.fn != nil {
		text, err := f.fn(messages)
		if err != nil {
			return nil, err
		}
		return &llm.Response{Text: text}, nil
	}

	text := f.responses[f.next%len(f.responses)]
	f.next++
	return &llm.Response{Text: text, Usage: llm.Usage{Input: 10, Output: 20, Known: true}}, nil
}

// Calls reports how many requests were made.
func (f *Invoker) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Requests)
}

// LastPrompt returns the concatenated content of the most recent request.
func (f *Invoker) LastPrompt() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.Requests) == 0 {
		return ""
	}
	var out string
	for _, m := range f.Requests[len(f.Requests)-1] {
		out += m.Content + "\n"
	}
	return out
}
