package llm

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"golang.org/x/time/rate"

	"github.com/promptflow/internal/prompt"
)

// Options configures the Ollama-backed client. Zero values fall back to the
// defaults below.
type Options struct {
	Model       string        `json:"model"`
	Endpoint    string        `json:"endpoint"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Timeout     time.Duration `json:"timeout,omitempty"`
	// RequestsPerSecond caps outgoing calls; 0 means unlimited.
	RequestsPerSecond float64 `json:"requests_per_second,omitempty"`
}

const (
	defaultModel    = "llama3.2"
	defaultEndpoint = "http://localhost:11434"
	defaultTimeout  = 2 * time.Minute
)

// Client invokes a local Ollama runtime. Construct once with New and share;
// all fields are read-only after construction.
type Client struct {
	model   llms.Model
	opts    Options
	limiter *rate.Limiter
}

// New builds the client. It does not contact the runtime; the first Generate
// call does.
func New(opts Options) (*Client, error) {
	if opts.Temperature < 0 || opts.Temperature > 1 {
		return nil, fmt.Errorf("llm: temperature %g out of range [0, 1]", opts.Temperature)
	}
	if opts.Model == "" {
		opts.Model = defaultModel
	}
	if opts.Endpoint == "" {
		opts.Endpoint = defaultEndpoint
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}

	httpClient := &http.Client{
		Timeout: opts.Timeout,
		Transport: &http.Transport{
			ResponseHeaderTimeout: opts.Timeout,
			TLSHandshakeTimeout:   10 * time.Second,
		},
	}

	model, err := ollama.New(
		ollama.WithServerURL(opts.Endpoint),
		ollama.WithModel(opts.Model),
		ollama.WithHTTPClient(httpClient),
	)
	if err != nil {
		return nil, unavailable(err)
	}

	var limiter *rate.Limiter
	if opts.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}

	log.Debug().
		Str("model", opts.Model).
		Str("endpoint", opts.Endpoint).
		Float64("temperature", opts.Temperature).
		Int("max_tokens", opts.MaxTokens).
		Dur("timeout", opts.Timeout).
		Msg("LLM client created")

	return &Client{model: model, opts: opts, limiter: limiter}, nil
}

// Options returns a copy of the client configuration.
func (c *Client) Options() Options { return c.opts }

// Generate performs one blocking call against the runtime. The configured
// per-call timeout is applied on top of whatever deadline ctx carries.
func (c *Client) Generate(ctx context.Context, messages []prompt.Message) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, unavailable(err)
		}
	}

	content := make([]llms.MessageContent, 0, len(messages))
	for _, m := range messages {
		content = append(content, llms.TextParts(chatMessageType(m.Role), m.Content))
	}

	callOpts := []llms.CallOption{
		llms.WithTemperature(c.opts.Temperature),
	}
	if c.opts.MaxTokens > 0 {
		callOpts = append(callOpts, llms.WithMaxTokens(c.opts.MaxTokens))
	}

	start := time.Now()
	resp, err := c.model.GenerateContent(ctx, content, callOpts...)
	if err != nil {
		log.Error().Err(err).
			Str("model", c.opts.Model).
			Dur("elapsed", time.Since(start)).
			Msg("LLM call failed")
		return nil, unavailable(err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: runtime returned no choices", ErrModelUnavailable)
	}

	choice := resp.Choices[0]
	usage := extractUsage(choice.GenerationInfo)

	log.Debug().
		Str("model", c.opts.Model).
		Dur("elapsed", time.Since(start)).
		Int("input_tokens", usage.Input).
		Int("output_tokens", usage.Output).
		Bool("usage_known", usage.Known).
		Msg("LLM call completed")

	return &Response{Text: choice.Content, Usage: usage}, nil
}

func chatMessageType(r prompt.Role) llms.ChatMessageType {
	switch r {
	case prompt.RoleSystem:
		return llms.ChatMessageTypeSystem
	case prompt.RoleAI:
		return llms.ChatMessageTypeAI
	default:
		return llms.ChatMessageTypeHuman
	}
}

// extractUsage pulls token counts out of langchaingo's generation info. Keys
// vary by backend; ollama reports PromptTokens/CompletionTokens.
func extractUsage(info map[string]any) Usage {
	in, okIn := intFromInfo(info, "PromptTokens", "prompt_tokens", "input_tokens")
	out, okOut := intFromInfo(info, "CompletionTokens", "completion_tokens", "output_tokens")
	if !okIn || !okOut {
		return Usage{}
	}
	return Usage{Input: in, Output: out, Known: true}
}

func intFromInfo(info map[string]any, keys ...string) (int, bool) {
	for _, key := range keys {
		switch v := info[key].(type) {
		case int:
			return v, true
		case int64:
			return int(v), true
		case float64:
			return int(v), true
		}
	}
	return 0, false
}
