package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/promptflow/internal/agent"
	"github.com/promptflow/internal/llm"
	"github.com/promptflow/internal/pipeline"
	"github.com/promptflow/internal/prompt"
)

type completeRequest struct {
	Template  string            `json:"template"`
	Variables map[string]string `json:"variables"`
	Parser    string            `json:"parser"` // "", "text", or "list"
}

type completeResponse struct {
	Text  string    `json:"text"`
	Items []string  `json:"items,omitempty"`
	Usage llm.Usage `json:"usage"`
}

func (s *Server) complete(c echo.Context) error {
	var req completeRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.Template == "" {
		return badRequest(c, "template is required")
	}

	var opts []pipeline.Option
	switch req.Parser {
	case "", "text":
	case "list":
		opts = append(opts, pipeline.WithList())
	default:
		return badRequest(c, "parser must be \"text\" or \"list\"")
	}

	p := pipeline.New(prompt.NewText(req.Template), s.deps.Invoker, opts...)
	result, err := p.Run(c.Request().Context(), req.Variables)
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(http.StatusOK, completeResponse{
		Text:  result.Text,
		Items: result.List(),
		Usage: result.Usage,
	})
}

type parallelRequest struct {
	Branches  map[string]string `json:"branches"` // name -> template
	Variables map[string]string `json:"variables"`
}

func (s *Server) parallel(c echo.Context) error {
	var req parallelRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if len(req.Branches) == 0 {
		return badRequest(c, "at least one branch is required")
	}

	branches := make(map[string]*pipeline.Pipeline, len(req.Branches))
	for name, tmpl := range req.Branches {
		branches[name] = pipeline.New(prompt.NewText(tmpl), s.deps.Invoker, pipeline.WithName(name))
	}

	results, err := pipeline.RunParallel(c.Request().Context(), branches, req.Variables)
	if err != nil {
		return fail(c, err)
	}

	out := make(map[string]string, len(results))
	for name, result := range results {
		out[name] = result.Text
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"results": out})
}

type agentRequest struct {
	Question string `json:"question"`
	MaxSteps int    `json:"max_steps"`
}

func (s *Server) runAgent(c echo.Context) error {
	var req agentRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.Question == "" {
		return badRequest(c, "question is required")
	}

	a := s.agent
	if req.MaxSteps > 0 {
		a = agent.New(s.deps.Invoker, s.deps.Registry, agent.WithMaxSteps(req.MaxSteps))
	}

	result, err := a.Run(c.Request().Context(), req.Question)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

type questionRequest struct {
	Question string `json:"question"`
}

func (s *Server) route(c echo.Context) error {
	var req questionRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.Question == "" {
		return badRequest(c, "question is required")
	}

	result, err := s.router.Route(c.Request().Context(), req.Question)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

func (s *Server) askRAG(c echo.Context) error {
	var req questionRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.Question == "" {
		return badRequest(c, "question is required")
	}

	answer, err := s.rag.Ask(c.Request().Context(), req.Question)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, answer)
}

type workflowRequest struct {
	Message string `json:"message"`
}

func (s *Server) runWorkflow(c echo.Context) error {
	var req workflowRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.Message == "" {
		return badRequest(c, "message is required")
	}

	result, err := s.workflow.Run(c.Request().Context(), req.Message)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

func (s *Server) getMessages(c echo.Context) error {
	conversationID := c.QueryParam("conversation_id")
	if conversationID == "" {
		return badRequest(c, "conversation_id is required")
	}

	history, err := s.deps.Store.History(c.Request().Context(), conversationID)
	if err != nil {
		return fail(c, err)
	}

	messages := make([]map[string]string, 0, len(history))
	for _, msg := range history {
		messages = append(messages, map[string]string{
			"role":    string(msg.Role),
			"content": msg.Content,
		})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"conversation_id": conversationID,
		"messages":        messages,
	})
}

type continueRequest struct {
	ConversationID string `json:"conversation_id"`
	Question       string `json:"question"`
}

func (s *Server) continueConversation(c echo.Context) error {
	var req continueRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.ConversationID == "" || req.Question == "" {
		return badRequest(c, "conversation_id and question are required")
	}

	answer, err := s.conv.Ask(c.Request().Context(), req.ConversationID, req.Question)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{
		"conversation_id": req.ConversationID,
		"answer":          answer,
	})
}
