package invoker

// RequestType selects the instruction suffix appended to a compiled prompt.
// The suffix is the contract the downstream parser relies on.
type RequestType string

const (
	RequestGenerateQuestions RequestType = "generate_questions"
	RequestGenerateSoW       RequestType = "generate_sow"
	RequestReviewSoW         RequestType = "review_sow"
	RequestImproveSoW        RequestType = "improve_sow"
	RequestGeneral           RequestType = "general"
)

// PropertyDetails carries the address fields available to template
// compilation.
type PropertyDetails struct {
	Address      string `json:"address"`
	City         string `json:"city"`
	Postcode     string `json:"postcode"`
	PropertyType string `json:"property_type"`
	YearBuilt    string `json:"year_built"`
}

// Context is the task context an invocation compiles its template against.
// Partial data is expected; unresolved placeholders are left in place.
type Context struct {
	ProjectType   string            `json:"project_type"`
	ProjectID     string            `json:"project_id"`
	Property      PropertyDetails   `json:"property"`
	UserResponses map[string]string `json:"user_responses,omitempty"`
}

// Invocation is one request to run an agent. PromptVersion pins a specific
// historical version; zero means the agent's currently active version.
type Invocation struct {
	AgentID       string            `json:"agent_id"`
	RequestType   RequestType       `json:"request_type"`
	PromptVersion int               `json:"prompt_version,omitempty"`
	Parameters    map[string]string `json:"parameters,omitempty"`
	Context       Context           `json:"context"`
}

// Response is the normalized result of an agent invocation.
type Response struct {
	AgentID         string                 `json:"agent_id"`
	Response        string                 `json:"response"`
	Confidence      float64                `json:"confidence"`
	Recommendations []string               `json:"recommendations"`
	NextQuestions   []string               `json:"next_questions"`
	Data            map[string]interface{} `json:"data"`
}

// defaultConfidence is applied when the capability supplies none.
const defaultConfidence = 0.8
