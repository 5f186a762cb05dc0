package prompts

import "time"

// Core model types for the prompt versioning engine.

// Template is the parent record for a versioned instruction template. The
// template text here mirrors whatever version is currently active;
// ActiveVersion is the current-version pointer and is updated atomically with
// the version rows.
type Template struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Category      string    `json:"category"`
	Template      string    `json:"template"`
	Variables     []string  `json:"variables"`
	Version       int       `json:"version"`
	ActiveVersion int       `json:"active_version"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Version is an immutable snapshot of a template's text. Activation is
// mutually exclusive across all versions sharing a PromptID.
type Version struct {
	ID        string    `json:"id"`
	PromptID  string    `json:"prompt_id"`
	Version   int       `json:"version"`
	Template  string    `json:"template"`
	Changelog string    `json:"changelog"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	CreatedBy string    `json:"created_by"`
}

// Metrics aggregates observed performance for one (prompt, version) pair.
// Records are upserted: UsageCount increments on every recording call.
type Metrics struct {
	PromptID              string    `json:"prompt_id"`
	Version               int       `json:"version"`
	AverageResponseTime   float64   `json:"average_response_time"`
	SuccessRate           float64   `json:"success_rate"`
	UserSatisfactionScore float64   `json:"user_satisfaction_score"`
	UsageCount            int       `json:"usage_count"`
	ErrorRate             float64   `json:"error_rate"`
	LastEvaluated         time.Time `json:"last_evaluated"`
}

// MetricsUpdate carries the fields of a single metrics recording. Nil fields
// leave the stored value untouched.
type MetricsUpdate struct {
	AverageResponseTime   *float64 `json:"average_response_time,omitempty"`
	SuccessRate           *float64 `json:"success_rate,omitempty"`
	UserSatisfactionScore *float64 `json:"user_satisfaction_score,omitempty"`
	ErrorRate             *float64 `json:"error_rate,omitempty"`
}

// TestCase is one regression case for a prompt version: input variables plus
// an expectation the evaluator checks against the generated output.
type TestCase struct {
	Name      string            `json:"name"`
	Variables map[string]string `json:"variables"`
	Expected  string            `json:"expected"`
}

// TestCaseResult records the outcome of a single case.
type TestCaseResult struct {
	Name     string `json:"name"`
	Passed   bool   `json:"passed"`
	Output   string `json:"output"`
	Expected string `json:"expected"`
	Error    string `json:"error,omitempty"`
}

// TestRun is the persisted snapshot of one regression run against a prompt
// version. OverallScore is passed/total in [0,1].
type TestRun struct {
	ID           string           `json:"id"`
	PromptID     string           `json:"prompt_id"`
	Version      int              `json:"version"`
	Results      []TestCaseResult `json:"results"`
	OverallScore float64          `json:"overall_score"`
	RanAt        time.Time        `json:"ran_at"`
}

// Draft carries the caller-supplied fields for a new template.
type Draft struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Template    string   `json:"template"`
	Variables   []string `json:"variables"`
	CreatedBy   string   `json:"created_by"`
}

// Update carries the mutable fields of UpdatePrompt. Nil fields are left
// unchanged.
type Update struct {
	Name        *string  `json:"name,omitempty"`
	Description *string  `json:"description,omitempty"`
	Category    *string  `json:"category,omitempty"`
	Template    *string  `json:"template,omitempty"`
	Variables   []string `json:"variables,omitempty"`
}

func cloneTemplate(t *Template) *Template {
	if t == nil {
		return nil
	}
	cp := *t
	if t.Variables != nil {
		cp.Variables = append([]string(nil), t.Variables...)
	}
	return &cp
}

func cloneVersion(v *Version) *Version {
	if v == nil {
		return nil
	}
	cp := *v
	return &cp
}
