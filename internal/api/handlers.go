package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/buildreview/internal/agents"
	"github.com/buildreview/internal/invoker"
	"github.com/buildreview/internal/llm"
	"github.com/buildreview/internal/prompts"
	"github.com/buildreview/internal/review"
)

// httpError maps the engine's error taxonomy onto HTTP status codes.
func httpError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, agents.ErrAgentNotFound),
		errors.Is(err, prompts.ErrNotFound),
		errors.Is(err, prompts.ErrNoActiveVersion),
		errors.Is(err, invoker.ErrNoPromptForAgent),
		errors.Is(err, review.ErrNoAnalysis):
		return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, agents.ErrDuplicateAgent):
		return c.JSON(http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, llm.ErrExternalCall):
		return c.JSON(http.StatusBadGateway, map[string]string{"error": err.Error()})
	default:
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}

func (s *Server) registerAgent(c echo.Context) error {
	var d agents.Descriptor
	if err := c.Bind(&d); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid agent descriptor"})
	}
	if err := s.invoker.RegisterAgent(&d); err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusCreated, d)
}

func (s *Server) listAgents(c echo.Context) error {
	return c.JSON(http.StatusOK, s.registry.GetAllAgents())
}

func (s *Server) getAgent(c echo.Context) error {
	d, err := s.invoker.GetAgent(c.Param("id"))
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, d)
}

func (s *Server) selectAgents(c echo.Context) error {
	projectType := agents.ProjectType(c.QueryParam("project_type"))
	if projectType == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "project_type is required"})
	}
	return c.JSON(http.StatusOK, s.selector.GetRequiredAgents(projectType))
}

func (s *Server) invokeAgent(c echo.Context) error {
	var inv invoker.Invocation
	if err := c.Bind(&inv); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid invocation"})
	}
	inv.AgentID = c.Param("id")
	resp, err := s.invoker.InvokeAgent(c.Request().Context(), inv)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) createPrompt(c echo.Context) error {
	var draft prompts.Draft
	if err := c.Bind(&draft); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid prompt draft"})
	}
	created, err := s.manager.CreatePrompt(c.Request().Context(), draft)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusCreated, created)
}

func (s *Server) listPrompts(c echo.Context) error {
	all, err := s.manager.ListPrompts(c.Request().Context())
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, all)
}

func (s *Server) searchPrompts(c echo.Context) error {
	found, err := s.manager.SearchPrompts(c.Request().Context(), c.QueryParam("q"))
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, found)
}

func (s *Server) getPrompt(c echo.Context) error {
	t, err := s.manager.GetPrompt(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, t)
}

type updatePromptRequest struct {
	prompts.Update
	Changelog string `json:"changelog"`
	Author    string `json:"author"`
}

func (s *Server) updatePrompt(c echo.Context) error {
	var req updatePromptRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid prompt update"})
	}
	updated, err := s.manager.UpdatePrompt(c.Request().Context(), c.Param("id"), req.Update, req.Changelog, req.Author)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, updated)
}

func (s *Server) deletePrompt(c echo.Context) error {
	if err := s.manager.DeletePrompt(c.Request().Context(), c.Param("id")); err != nil {
		return httpError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) getPromptVersions(c echo.Context) error {
	versions, err := s.manager.GetPromptVersions(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, versions)
}

func (s *Server) activatePromptVersion(c echo.Context) error {
	version, err := strconv.Atoi(c.Param("version"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid version number"})
	}
	if err := s.manager.ActivatePromptVersion(c.Request().Context(), c.Param("id"), version); err != nil {
		return httpError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) getPromptMetrics(c echo.Context) error {
	version, err := strconv.Atoi(c.Param("version"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid version number"})
	}
	m, err := s.manager.GetPromptMetrics(c.Request().Context(), c.Param("id"), version)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, m)
}

func (s *Server) recordPromptMetrics(c echo.Context) error {
	version, err := strconv.Atoi(c.Param("version"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid version number"})
	}
	var partial prompts.MetricsUpdate
	if err := c.Bind(&partial); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid metrics payload"})
	}
	m, err := s.manager.RecordPromptMetrics(c.Request().Context(), c.Param("id"), version, partial)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, m)
}

type runPromptTestsRequest struct {
	Cases []prompts.TestCase `json:"cases"`
}

func (s *Server) runPromptTests(c echo.Context) error {
	version, err := strconv.Atoi(c.Param("version"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid version number"})
	}
	var req runPromptTestsRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid test cases"})
	}
	run, err := s.manager.RunPromptTests(c.Request().Context(), c.Param("id"), version, req.Cases)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, run)
}

type reviewSoWRequest struct {
	Document    review.SoWDocument      `json:"document"`
	ProjectType agents.ProjectType      `json:"project_type"`
	Property    invoker.PropertyDetails `json:"property"`
}

func (s *Server) reviewSoW(c echo.Context) error {
	var req reviewSoWRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid review request"})
	}
	analysis, err := s.engine.ReviewSoW(c.Request().Context(), c.Param("id"), req.Document, req.ProjectType, req.Property)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, analysis)
}

func (s *Server) getReviewResults(c echo.Context) error {
	analysis, err := s.engine.GetReviewResults(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, analysis)
}

type applyRecommendationsRequest struct {
	Document    review.SoWDocument `json:"document"`
	SelectedIDs []string           `json:"selected_ids"`
}

func (s *Server) applyRecommendations(c echo.Context) error {
	var req applyRecommendationsRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid apply request"})
	}
	improved, err := s.engine.ApplyRecommendations(c.Request().Context(), c.Param("id"), req.Document, req.SelectedIDs)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, improved)
}

func (s *Server) validateForBuilderInvitation(c echo.Context) error {
	return c.JSON(http.StatusOK, s.engine.ValidateSoWForBuilderInvitation(c.Request().Context(), c.Param("id")))
}
