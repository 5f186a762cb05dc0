package prompts

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// InMemoryStore is a threadsafe in-memory store. It is the default wiring for
// single-process deployments and the substrate for tests.
type InMemoryStore struct {
	mu        sync.RWMutex
	templates map[string]*Template
	versions  map[string][]*Version // keyed by prompt id, append order
	metrics   map[string]*Metrics   // keyed by promptID:version
	testRuns  map[string][]*TestRun // keyed by prompt id
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		templates: make(map[string]*Template),
		versions:  make(map[string][]*Version),
		metrics:   make(map[string]*Metrics),
		testRuns:  make(map[string][]*TestRun),
	}
}

func metricsKey(promptID string, version int) string {
	return fmt.Sprintf("%s:%d", promptID, version)
}

func (s *InMemoryStore) CreateTemplate(ctx context.Context, t *Template) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.templates[t.ID] = cloneTemplate(t)
	return nil
}

func (s *InMemoryStore) GetTemplate(ctx context.Context, id string) (*Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.templates[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneTemplate(t), nil
}

func (s *InMemoryStore) UpdateTemplate(ctx context.Context, t *Template) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.templates[t.ID]; !ok {
		return ErrNotFound
	}
	s.templates[t.ID] = cloneTemplate(t)
	return nil
}

func (s *InMemoryStore) DeleteTemplate(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.templates[id]; !ok {
		return ErrNotFound
	}
	delete(s.templates, id)
	return nil
}

func (s *InMemoryStore) ListTemplates(ctx context.Context) ([]*Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Template, 0, len(s.templates))
	for _, t := range s.templates {
		out = append(out, cloneTemplate(t))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemoryStore) CreateVersion(ctx context.Context, v *Version) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.versions[v.PromptID] = append(s.versions[v.PromptID], cloneVersion(v))
	return nil
}

// GetVersions returns all versions for promptID, most-recent-first.
func (s *InMemoryStore) GetVersions(ctx context.Context, promptID string) ([]*Version, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := s.versions[promptID]
	out := make([]*Version, 0, len(rows))
	for _, v := range rows {
		out = append(out, cloneVersion(v))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version > out[j].Version })
	return out, nil
}

func (s *InMemoryStore) GetVersion(ctx context.Context, promptID string, version int) (*Version, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, v := range s.versions[promptID] {
		if v.Version == version {
			return cloneVersion(v), nil
		}
	}
	return nil, ErrNotFound
}

func (s *InMemoryStore) GetActiveVersion(ctx context.Context, promptID string) (*Version, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, v := range s.versions[promptID] {
		if v.IsActive {
			return cloneVersion(v), nil
		}
	}
	return nil, ErrNoActiveVersion
}

func (s *InMemoryStore) ActivateVersion(ctx context.Context, promptID string, version int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.templates[promptID]
	if !ok {
		return ErrNotFound
	}
	var target *Version
	for _, v := range s.versions[promptID] {
		if v.Version == version {
			target = v
			break
		}
	}
	if target == nil {
		return ErrNotFound
	}

	for _, v := range s.versions[promptID] {
		v.IsActive = false
	}
	target.IsActive = true
	t.ActiveVersion = version
	t.Template = target.Template
	return nil
}

func (s *InMemoryStore) DeleteVersionsFor(ctx context.Context, promptID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.versions, promptID)
	return nil
}

func (s *InMemoryStore) GetMetrics(ctx context.Context, promptID string, version int) (*Metrics, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.metrics[metricsKey(promptID, version)]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (s *InMemoryStore) PutMetrics(ctx context.Context, m *Metrics) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *m
	s.metrics[metricsKey(m.PromptID, m.Version)] = &cp
	return nil
}

func (s *InMemoryStore) SaveTestRun(ctx context.Context, run *TestRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *run
	cp.Results = append([]TestCaseResult(nil), run.Results...)
	s.testRuns[run.PromptID] = append(s.testRuns[run.PromptID], &cp)
	return nil
}

func (s *InMemoryStore) GetTestRuns(ctx context.Context, promptID string) ([]*TestRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := s.testRuns[promptID]
	out := make([]*TestRun, 0, len(rows))
	for _, r := range rows {
		cp := *r
		cp.Results = append([]TestCaseResult(nil), r.Results...)
		out = append(out, &cp)
	}
	return out, nil
}
