package review

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/buildreview/internal/agents"
	"github.com/buildreview/internal/invoker"
	"github.com/buildreview/internal/prompts"
)

// sowVersionStep is the fixed version increment applied when recommendations
// are folded into a document.
const sowVersionStep = 0.1

// Engine runs second-pass quality reviews over scope-of-work documents and
// gates whether a project may proceed to builder invitation.
type Engine struct {
	invoker  *invoker.Invoker
	registry *agents.Registry
	manager  *prompts.Manager
	store    AnalysisStore
}

// NewEngine wires the review engine to the invoker machinery, the agent
// catalogue, the prompt manager, and the analysis store.
func NewEngine(inv *invoker.Invoker, registry *agents.Registry, manager *prompts.Manager, store AnalysisStore) *Engine {
	return &Engine{invoker: inv, registry: registry, manager: manager, store: store}
}

// ReviewSoW selects the reviewer for the project type, invokes it with the
// document and property details as context, parses the structured response,
// scores it, and persists the analysis keyed by project id, overwriting any
// prior review.
func (e *Engine) ReviewSoW(ctx context.Context, projectID string, document SoWDocument, projectType agents.ProjectType, property invoker.PropertyDetails) (*Analysis, error) {
	spec := reviewerSpecializationFor(projectType)
	reviewer, err := e.findAgent(spec)
	if err != nil {
		return nil, fmt.Errorf("failed to review SoW: %w", err)
	}

	docJSON, err := json.Marshal(document)
	if err != nil {
		return nil, fmt.Errorf("failed to review SoW: %w", err)
	}

	resp, err := e.invoker.InvokeAgent(ctx, invoker.Invocation{
		AgentID:     reviewer.ID,
		RequestType: invoker.RequestReviewSoW,
		Parameters: map[string]string{
			"sow_document": string(docJSON),
			"focus_areas":  strings.Join(focusChecklist(projectType), ", "),
		},
		Context: invoker.Context{
			ProjectType: string(projectType),
			ProjectID:   projectID,
			Property:    property,
		},
	})
	if err != nil {
		e.recordPromptOutcome(ctx, spec, false)
		return nil, fmt.Errorf("failed to review SoW: %w", err)
	}

	issues, recs, missing, regulatory, err := parseReviewResponse(resp.Response)
	if err != nil {
		e.recordPromptOutcome(ctx, spec, false)
		return nil, fmt.Errorf("failed to review SoW: %w", err)
	}

	score := ComputeQualityScore(issues)
	analysis := &Analysis{
		ProjectID:        projectID,
		OverallScore:     score,
		Issues:           issues,
		Recommendations:  recs,
		MissingElements:  missing,
		RegulatoryIssues: regulatory,
		QualityIndicator: ClassifyQuality(score),
		ReviewAgentType:  spec,
		ReviewedAt:       time.Now().UTC(),
	}

	if err := e.store.Put(ctx, analysis); err != nil {
		return nil, fmt.Errorf("failed to review SoW: %w", err)
	}

	e.recordPromptOutcome(ctx, spec, true)
	observeReview(analysis.QualityIndicator)

	log.Info().
		Str("project_id", projectID).
		Str("reviewer", spec).
		Int("score", score).
		Int("issues", len(issues)).
		Msg("SoW review complete")
	return cloneAnalysis(analysis), nil
}

// GetReviewResults returns the latest stored analysis for the project, or
// ErrNoAnalysis.
func (e *Engine) GetReviewResults(ctx context.Context, projectID string) (*Analysis, error) {
	return e.store.Get(ctx, projectID)
}

// ApplyRecommendations folds the selected stored recommendations into the
// document via the improvement agent: returned fields merge over the
// original, the version steps by 0.1, and the application is stamped for
// audit. The review state is not advanced; callers re-review the improved
// document themselves.
func (e *Engine) ApplyRecommendations(ctx context.Context, projectID string, document SoWDocument, selectedIDs []string) (SoWDocument, error) {
	analysis, err := e.store.Get(ctx, projectID)
	if err != nil {
		if errors.Is(err, ErrNoAnalysis) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to apply recommendations: %w", err)
	}

	selected := make(map[string]bool, len(selectedIDs))
	for _, id := range selectedIDs {
		selected[id] = true
	}
	chosen := make([]Recommendation, 0, len(selectedIDs))
	for _, rec := range analysis.Recommendations {
		if selected[rec.ID] {
			chosen = append(chosen, rec)
		}
	}

	improver, err := e.findAgent(specImprovement)
	if err != nil {
		return nil, fmt.Errorf("failed to apply recommendations: %w", err)
	}

	docJSON, err := json.Marshal(document)
	if err != nil {
		return nil, fmt.Errorf("failed to apply recommendations: %w", err)
	}
	recsJSON, err := json.Marshal(chosen)
	if err != nil {
		return nil, fmt.Errorf("failed to apply recommendations: %w", err)
	}
	analysisJSON, err := json.Marshal(analysis)
	if err != nil {
		return nil, fmt.Errorf("failed to apply recommendations: %w", err)
	}

	resp, err := e.invoker.InvokeAgent(ctx, invoker.Invocation{
		AgentID:     improver.ID,
		RequestType: invoker.RequestImproveSoW,
		Parameters: map[string]string{
			"sow_document":    string(docJSON),
			"recommendations": string(recsJSON),
			"review_analysis": string(analysisJSON),
		},
		Context: invoker.Context{ProjectID: projectID},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to regenerate SoW: %w", err)
	}

	var improvedFields map[string]interface{}
	if err := json.Unmarshal([]byte(resp.Response), &improvedFields); err != nil {
		// The response may still be wrapped; fall back to the parsed data.
		if len(resp.Data) > 0 {
			improvedFields = resp.Data
		} else {
			return nil, fmt.Errorf("failed to apply recommendations: %w", err)
		}
	}

	improved := make(SoWDocument, len(document)+len(improvedFields)+3)
	for k, v := range document {
		improved[k] = v
	}
	for k, v := range improvedFields {
		improved[k] = v
	}

	version := 1.0
	if v, ok := document["version"].(float64); ok {
		version = v
	}
	improved["version"] = version + sowVersionStep
	improved["reviewApplied"] = true
	improved["appliedRecommendations"] = selectedIDs

	log.Info().
		Str("project_id", projectID).
		Int("recommendations", len(chosen)).
		Msg("Applied recommendations to SoW")
	return improved, nil
}

// ValidateSoWForBuilderInvitation is the gate predicate. Builders may be
// invited only when a review exists and contains zero critical issues. Every
// internal failure converts to a closed gate: failing open is the one
// unacceptable outcome here.
func (e *Engine) ValidateSoWForBuilderInvitation(ctx context.Context, projectID string) GateResult {
	analysis, err := e.store.Get(ctx, projectID)
	if err != nil {
		result := GateResult{
			CanInviteBuilders: false,
			QualityScore:      0,
			CriticalIssues:    []string{"SoW has not been reviewed; run a quality review before inviting builders"},
			Reason:            "no review on record",
		}
		if !errors.Is(err, ErrNoAnalysis) {
			result.CriticalIssues = []string{"review results are unavailable; try again before inviting builders"}
			result.Reason = "review store unavailable"
			log.Error().Err(err).Str("project_id", projectID).Msg("Gate check failed to load analysis; gate closed")
		}
		observeGate(false)
		return result
	}

	if n, titles := countCritical(analysis.Issues); n > 0 {
		observeGate(false)
		return GateResult{
			CanInviteBuilders: false,
			QualityScore:      analysis.OverallScore,
			CriticalIssues:    titles,
			Reason:            fmt.Sprintf("%d critical issue(s) outstanding", n),
		}
	}

	observeGate(true)
	return GateResult{
		CanInviteBuilders: true,
		QualityScore:      analysis.OverallScore,
		CriticalIssues:    []string{},
	}
}

// findAgent returns the first agent registered for the specialization,
// falling back to the generalist.
func (e *Engine) findAgent(spec string) (*agents.Descriptor, error) {
	candidates := e.registry.GetAgentsBySpecialization(spec)
	if len(candidates) == 0 && spec != specGeneral {
		candidates = e.registry.GetAgentsBySpecialization(specGeneral)
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: no agent for specialization %s", agents.ErrAgentNotFound, spec)
	}
	return candidates[0], nil
}

// recordPromptOutcome folds one review outcome into the reviewer prompt's
// metrics, keeping SuccessRate a running average over all recorded usages.
// Best-effort: metric failures are logged, never surfaced.
func (e *Engine) recordPromptOutcome(ctx context.Context, spec string, success bool) {
	all, err := e.manager.ListPrompts(ctx)
	if err != nil {
		log.Debug().Err(err).Msg("Skipping prompt metrics recording")
		return
	}
	for _, t := range all {
		if t.Category != spec {
			continue
		}
		outcome := 0.0
		if success {
			outcome = 1.0
		}
		rate := outcome
		if m, err := e.manager.GetPromptMetrics(ctx, t.ID, t.ActiveVersion); err == nil && m.UsageCount > 0 {
			rate = (m.SuccessRate*float64(m.UsageCount) + outcome) / float64(m.UsageCount+1)
		}
		if _, err := e.manager.RecordPromptMetrics(ctx, t.ID, t.ActiveVersion, prompts.MetricsUpdate{SuccessRate: &rate}); err != nil {
			log.Debug().Err(err).Str("prompt_id", t.ID).Msg("Failed to record prompt metrics")
		}
		return
	}
}
