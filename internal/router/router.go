// Package router classifies a question and dispatches it to the pipeline
// registered for that category, falling back to a default when the
// classification does not match any route.
package router

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/promptflow/internal/llm"
	"github.com/promptflow/internal/pipeline"
	"github.com/promptflow/internal/prompt"
	"github.com/promptflow/internal/schema"
)

// Classification is the classifier verdict for a question.
type Classification struct {
	Category   string `json:"category"`
	Confidence string `json:"confidence"`
}

// Result carries the routed answer plus the classification that selected it.
type Result struct {
	Classification Classification `json:"classification"`
	Route          string         `json:"route"`
	Answer         string         `json:"answer"`
	Usage          llm.Usage      `json:"usage"`
}

func classificationSchema() *schema.Schema {
	return schema.New("route_classification",
		schema.Field{Name: "category", Type: schema.TypeString, Description: "'technical', 'creative', or 'factual'", Required: true},
		schema.Field{Name: "confidence", Type: schema.TypeString, Description: "'high', 'medium', or 'low'", Required: true},
	)
}

const classifyPattern = `Classify this question into one category:
- technical: Programming, software, computers
- creative: Writing, art, storytelling
- factual: History, geography, general knowledge

{format_instructions}

Question: {question}`

// Router holds a classifier and the category routes.
type Router struct {
	classifier *pipeline.Pipeline
	routes     map[string]*pipeline.Pipeline
	fallback   string
}

// New builds a router over the given routes. fallback names the route used
// when the classifier picks a category with no registered pipeline; it must
// itself be a key of routes.
func New(invoker llm.Invoker, routes map[string]*pipeline.Pipeline, fallback string) (*Router, error) {
	if _, ok := routes[fallback]; !ok {
		return nil, fmt.Errorf("router: fallback route %q not registered", fallback)
	}
	classifier := pipeline.New(
		prompt.NewText(classifyPattern),
		invoker,
		pipeline.WithName("classifier"),
		pipeline.WithSchema(schema.NewParser(classificationSchema())),
	)
	return &Router{classifier: classifier, routes: routes, fallback: fallback}, nil
}

// Defaults builds the stock three-way router (technical, creative, factual)
// with factual as the fallback.
func Defaults(invoker llm.Invoker) *Router {
	routes := map[string]*pipeline.Pipeline{
		"technical": pipeline.New(
			prompt.NewText("You are a technical expert. Provide a clear answer with examples:\n\n{question}"),
			invoker, pipeline.WithName("technical")),
		"creative": pipeline.New(
			prompt.NewText("You are a creative writer. Be imaginative:\n\n{question}"),
			invoker, pipeline.WithName("creative")),
		"factual": pipeline.New(
			prompt.NewText("You are knowledgeable. Provide accurate information:\n\n{question}"),
			invoker, pipeline.WithName("factual")),
	}
	r, err := New(invoker, routes, "factual")
	if err != nil {
		// The fallback is registered just above; failing here means the
		// route table construction itself is broken.
		panic(err)
	}
	return r
}

// Route classifies the question and runs the matching pipeline.
func (r *Router) Route(ctx context.Context, question string) (*Result, error) {
	vars := map[string]string{"question": question}

	classified, err := r.classifier.Run(ctx, vars)
	if err != nil {
		return nil, fmt.Errorf("router: classify: %w", err)
	}
	verdict := classified.Schema()

	classification := Classification{
		Category:   stringField(verdict, "category"),
		Confidence: stringField(verdict, "confidence"),
	}

	route := classification.Category
	target, ok := r.routes[route]
	if !ok {
		log.Warn().
			Str("category", route).
			Str("fallback", r.fallback).
			Msg("no route for category, using fallback")
		route = r.fallback
		target = r.routes[route]
	}

	answer, err := target.Run(ctx, vars)
	if err != nil {
		return nil, fmt.Errorf("router: route %s: %w", route, err)
	}

	usage := classified.Usage
	usage.Input += answer.Usage.Input
	usage.Output += answer.Usage.Output
	usage.Known = usage.Known && answer.Usage.Known

	return &Result{
		Classification: classification,
		Route:          route,
		Answer:         answer.Text,
		Usage:          usage,
	}, nil
}

func stringField(values map[string]interface{}, name string) string {
	if s, ok := values[name].(string); ok {
		return s
	}
	return ""
}
