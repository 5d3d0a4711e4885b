package registry

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/caselane/docforge/internal/models"
)

// MemoryRegistry is the default single-process backend: a mutex-guarded
// map. Get and List return clones so callers never observe a record
// mid-update.
type MemoryRegistry struct {
	mu   sync.RWMutex
	jobs map[string]*models.Job
}

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{jobs: make(map[string]*models.Job)}
}

func (r *MemoryRegistry) Create(ctx context.Context, job *models.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.jobs[job.ID]; exists {
		return errors.New("job id already registered: " + job.ID)
	}
	r.jobs[job.ID] = job.Clone()
	return nil
}

func (r *MemoryRegistry) Get(ctx context.Context, id string) (*models.Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, exists := r.jobs[id]
	if !exists {
		return nil, ErrNotFound
	}
	return job.Clone(), nil
}

func (r *MemoryRegistry) List(ctx context.Context) ([]*models.Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	jobs := make([]*models.Job, 0, len(r.jobs))
	for _, job := range r.jobs {
		jobs = append(jobs, job.Clone())
	}
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].CreatedAt > jobs[j].CreatedAt })
	return jobs, nil
}

// Update applies fn to the stored record under the write lock. If fn
// returns an error the record is left untouched.
func (r *MemoryRegistry) Update(ctx context.Context, id string, fn func(*models.Job) error) (*models.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, exists := r.jobs[id]
	if !exists {
		return nil, ErrNotFound
	}
	next := job.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	r.jobs[id] = next
	return next.Clone(), nil
}
