// Package pipeline composes Template -> Invoker -> Parser into a single
// callable, with sequential chaining and parallel fan-out on top.
package pipeline

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/promptflow/internal/llm"
	"github.com/promptflow/internal/prompt"
	"github.com/promptflow/internal/retry"
	"github.com/promptflow/internal/schema"
)

// formatInstructionsVar is auto-filled from the attached parser when the
// template declares it and the caller did not supply a value.
const formatInstructionsVar = "format_instructions"

// OutputParser turns raw model text into a structured value.
type OutputParser interface {
	Parse(text string) (interface{}, error)
	FormatInstructions() string
}

// schemaOutput adapts schema.Parser to OutputParser.
type schemaOutput struct{ p *schema.Parser }

func (s schemaOutput) Parse(text string) (interface{}, error) { return s.p.Parse(text) }
func (s schemaOutput) FormatInstructions() string             { return s.p.FormatInstructions() }

// listOutput adapts schema.ListParser to OutputParser.
type listOutput struct{ p schema.ListParser }

func (l listOutput) Parse(text string) (interface{}, error) { return l.p.Parse(text) }
func (l listOutput) FormatInstructions() string             { return l.p.FormatInstructions() }

// Result is the outcome of one pipeline run. Value is nil when no parser is
// attached; Text always carries the raw model output.
type Result struct {
	Text  string      `json:"text"`
	Value interface{} `json:"value,omitempty"`
	Usage llm.Usage   `json:"usage"`
}

// Schema returns the parsed value as a schema result, or nil.
func (r *Result) Schema() schema.Result {
	if v, ok := r.Value.(schema.Result); ok {
		return v
	}
	return nil
}

// List returns the parsed value as a string list, or nil.
func (r *Result) List() []string {
	if v, ok := r.Value.([]string); ok {
		return v
	}
	return nil
}

// Pipeline wraps an immutable (template, invoker, parser-or-none) triple.
// Safe for concurrent use.
type Pipeline struct {
	name     string
	tmpl     prompt.Template
	invoker  llm.Invoker
	parser   OutputParser
	retryCfg *retry.Config
}

// Option configures a Pipeline at construction.
type Option func(*Pipeline)

// WithSchema attaches a schema parser to the pipeline output.
func WithSchema(p *schema.Parser) Option {
	return func(pl *Pipeline) { pl.parser = schemaOutput{p: p} }
}

// WithList attaches the comma-separated list parser.
func WithList() Option {
	return func(pl *Pipeline) { pl.parser = listOutput{} }
}

// WithParser attaches an arbitrary output parser.
func WithParser(p OutputParser) Option {
	return func(pl *Pipeline) { pl.parser = p }
}

// WithRetry retries transient invoker failures with the given backoff.
func WithRetry(cfg retry.Config) Option {
	return func(pl *Pipeline) { pl.retryCfg = &cfg }
}

// WithName labels the pipeline in logs and branch errors.
func WithName(name string) Option {
	return func(pl *Pipeline) { pl.name = name }
}

// New builds a pipeline around a template and an invoker.
func New(tmpl prompt.Template, invoker llm.Invoker, opts ...Option) *Pipeline {
	p := &Pipeline{name: "pipeline", tmpl: tmpl, invoker: invoker}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run resolves the template, invokes the model once, and parses the response
// when a parser is attached. Steps execute strictly in that order.
func (p *Pipeline) Run(ctx context.Context, vars map[string]string) (*Result, error) {
	vars = p.injectFormatInstructions(vars)

	messages, err := p.tmpl.Resolve(vars)
	if err != nil {
		return nil, err
	}

	resp, err := p.generate(ctx, messages)
	if err != nil {
		return nil, err
	}

	result := &Result{Text: resp.Text, Usage: resp.Usage}
	if p.parser != nil {
		value, err := p.parser.Parse(resp.Text)
		if err != nil {
			log.Debug().Err(err).Str("pipeline", p.name).Msg("output parse failed")
			return nil, err
		}
		result.Value = value
	}

	log.Debug().
		Str("pipeline", p.name).
		Int("messages", len(messages)).
		Bool("parsed", p.parser != nil).
		Msg("pipeline run completed")
	return result, nil
}

// RunText is Run for parserless callers; it returns the raw model text.
func (p *Pipeline) RunText(ctx context.Context, vars map[string]string) (string, error) {
	res, err := p.Run(ctx, vars)
	if err != nil {
		return "", err
	}
	return res.Text, nil
}

func (p *Pipeline) generate(ctx context.Context, messages []prompt.Message) (*llm.Response, error) {
	if p.retryCfg == nil {
		return p.invoker.Generate(ctx, messages)
	}

	var resp *llm.Response
	result := retry.Do(ctx, *p.retryCfg, func() error {
		var err error
		resp, err = p.invoker.Generate(ctx, messages)
		return err
	})
	if !result.Success {
		return nil, result.LastError
	}
	return resp, nil
}

func (p *Pipeline) injectFormatInstructions(vars map[string]string) map[string]string {
	if p.parser == nil {
		return vars
	}
	if _, supplied := vars[formatInstructionsVar]; supplied {
		return vars
	}
	declared := false
	for _, v := range p.tmpl.InputVariables() {
		if v == formatInstructionsVar {
			declared = true
			break
		}
	}
	if !declared {
		return vars
	}

	merged := make(map[string]string, len(vars)+1)
	for k, v := range vars {
		merged[k] = v
	}
	merged[formatInstructionsVar] = p.parser.FormatInstructions()
	return merged
}

// Chain runs pipelines sequentially, wiring each stage's raw text output
// into a named variable of the next stage's input.
type Chain struct {
	first  *Pipeline
	stages []chainStage
}

type chainStage struct {
	inputVar string
	pipeline *Pipeline
}

// First starts a chain.
func First(p *Pipeline) *Chain {
	return &Chain{first: p}
}

// Then appends a stage whose inputVar receives the previous stage's text.
func (c *Chain) Then(inputVar string, p *Pipeline) *Chain {
	c.stages = append(c.stages, chainStage{inputVar: inputVar, pipeline: p})
	return c
}

// Run executes the chain; the final stage's result is returned.
func (c *Chain) Run(ctx context.Context, vars map[string]string) (*Result, error) {
	result, err := c.first.Run(ctx, vars)
	if err != nil {
		return nil, err
	}
	for _, stage := range c.stages {
		result, err = stage.pipeline.Run(ctx, map[string]string{stage.inputVar: result.Text})
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}
