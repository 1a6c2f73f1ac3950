package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/promptflow/internal/agent"
	"github.com/promptflow/internal/llm"
	"github.com/promptflow/internal/pipeline"
	"github.com/promptflow/internal/prompt"
	"github.com/promptflow/internal/schema"
	"github.com/promptflow/internal/tools"
)

// fail maps domain errors onto HTTP statuses: unavailable runtime is 503,
// bad caller input is 400, unparseable model output is 422, everything else
// is 500. Parallel branch failures are classified by their cause.
func fail(c echo.Context, err error) error {
	status := http.StatusInternalServerError

	var branchErr *pipeline.BranchError
	if errors.As(err, &branchErr) {
		err = branchErr.Err
	}

	var (
		missingVar *prompt.MissingVariableError
		parseErr   *schema.ParseError
		unknown    *tools.UnknownToolError
	)
	switch {
	case errors.Is(err, llm.ErrModelUnavailable):
		status = http.StatusServiceUnavailable
	case errors.As(err, &missingVar), errors.As(err, &unknown):
		status = http.StatusBadRequest
	case errors.As(err, &parseErr), errors.Is(err, agent.ErrStepLimit):
		status = http.StatusUnprocessableEntity
	}

	resp := map[string]interface{}{"error": err.Error()}
	if branchErr != nil {
		resp["branch"] = branchErr.Branch
	}
	return c.JSON(status, resp)
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, map[string]interface{}{"error": msg})
}
