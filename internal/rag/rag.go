// Package rag retrieves documents relevant to a query and feeds them as
// context into an answer pipeline. The bundled retriever scores by keyword
// overlap; swap in a vector-backed Retriever for semantic search.
package rag

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/promptflow/internal/llm"
	"github.com/promptflow/internal/pipeline"
	"github.com/promptflow/internal/prompt"
)

// Document is one retrievable text chunk.
type Document struct {
	ID      string `json:"id"`
	Content string `json:"content"`
	Source  string `json:"source"`
}

// Scored pairs a document with its relevance score for a query.
type Scored struct {
	Document
	Score float64 `json:"score"`
}

// Retriever finds the documents most relevant to a query.
type Retriever interface {
	Search(query string, topK int) []Scored
}

// KeywordRetriever scores documents by how many query words appear in them.
type KeywordRetriever struct {
	docs []Document
}

// NewKeywordRetriever builds a retriever over a fixed document set.
func NewKeywordRetriever(docs ...Document) *KeywordRetriever {
	return &KeywordRetriever{docs: docs}
}

// Search returns up to topK documents with at least one query word match,
// best score first.
func (r *KeywordRetriever) Search(query string, topK int) []Scored {
	words := strings.Fields(strings.ToLower(query))

	var scored []Scored
	for _, doc := range r.docs {
		content := strings.ToLower(doc.Content)
		score := 0.0
		for _, w := range words {
			if strings.Contains(content, w) {
				score++
			}
		}
		if score > 0 {
			scored = append(scored, Scored{Document: doc, Score: score})
		}
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })

	if len(scored) > topK {
		scored = scored[:topK]
	}
	return scored
}

const answerPattern = `Use the following context to answer the question.

Context:
{context}

Question: {question}

Answer:`

// Answer is a grounded response plus the documents it was grounded on.
type Answer struct {
	Text      string    `json:"text"`
	Documents []Scored  `json:"documents"`
	Usage     llm.Usage `json:"usage"`
}

// Engine wires a retriever to an answer pipeline.
type Engine struct {
	retriever Retriever
	answerer  *pipeline.Pipeline
	topK      int
}

// New builds an engine. topK bounds how many documents are stuffed into the
// prompt; values below 1 default to 2.
func New(invoker llm.Invoker, retriever Retriever, topK int) *Engine {
	if topK < 1 {
		topK = 2
	}
	return &Engine{
		retriever: retriever,
		answerer:  pipeline.New(prompt.NewText(answerPattern), invoker, pipeline.WithName("rag")),
		topK:      topK,
	}
}

// Ask retrieves context for the query and generates a grounded answer. A
// query that matches no documents fails rather than inviting a hallucinated
// answer.
func (e *Engine) Ask(ctx context.Context, query string) (*Answer, error) {
	docs := e.retriever.Search(query, e.topK)
	if len(docs) == 0 {
		return nil, fmt.Errorf("rag: no documents matched query %q", query)
	}

	log.Debug().Str("query", query).Int("documents", len(docs)).Msg("retrieved context")

	var b strings.Builder
	for i, doc := range docs {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "[%s]: %s", doc.Source, doc.Content)
	}

	result, err := e.answerer.Run(ctx, map[string]string{
		"context":  b.String(),
		"question": query,
	})
	if err != nil {
		return nil, err
	}
	return &Answer{Text: result.Text, Documents: docs, Usage: result.Usage}, nil
}

// SampleDocuments is a small corpus for demos and tests.
func SampleDocuments() []Document {
	return []Document{
		{ID: "doc1", Content: "Go is a statically typed programming language designed at Google in 2009.", Source: "programming_guide.txt"},
		{ID: "doc2", Content: "Echo is a high performance web framework for building APIs in Go.", Source: "web_frameworks.txt"},
		{ID: "doc3", Content: "Vector databases store data as high-dimensional vectors for semantic search.", Source: "databases.txt"},
	}
}
