package prompts

import (
	"context"
	"errors"
)

var (
	ErrNotFound        = errors.New("prompt not found")
	ErrNoActiveVersion = errors.New("no active prompt version")
)

// Store provides persistence for the logical record groups of the versioning
// engine: templates, versions, metrics, and test runs. Version rows are
// queryable by prompt id ordered by version descending, and by active flag.
type Store interface {
	CreateTemplate(ctx context.Context, t *Template) error
	GetTemplate(ctx context.Context, id string) (*Template, error)
	UpdateTemplate(ctx context.Context, t *Template) error
	DeleteTemplate(ctx context.Context, id string) error
	ListTemplates(ctx context.Context) ([]*Template, error)

	CreateVersion(ctx context.Context, v *Version) error
	GetVersions(ctx context.Context, promptID string) ([]*Version, error)
	GetVersion(ctx context.Context, promptID string, version int) (*Version, error)
	GetActiveVersion(ctx context.Context, promptID string) (*Version, error)
	// ActivateVersion deactivates every version of promptID, activates the
	// requested one, and moves the template's ActiveVersion pointer, all in a
	// single atomic step.
	ActivateVersion(ctx context.Context, promptID string, version int) error
	DeleteVersionsFor(ctx context.Context, promptID string) error

	GetMetrics(ctx context.Context, promptID string, version int) (*Metrics, error)
	PutMetrics(ctx context.Context, m *Metrics) error

	SaveTestRun(ctx context.Context, run *TestRun) error
	GetTestRuns(ctx context.Context, promptID string) ([]*TestRun, error)
}
