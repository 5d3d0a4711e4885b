package registry

import (
	"context"
	"errors"

	"github.com/caselane/docforge/internal/models"
)

var ErrNotFound = errors.New("job not found")

// Registry stores job records keyed by job ID. It is the only shared
// mutable state between the HTTP handlers and the orchestration workers:
// every mutation goes through Update, an atomic read-modify-write on one
// job, so progress writes and status reads never race.
type Registry interface {
	Create(ctx context.Context, job *models.Job) error
	Get(ctx context.Context, id string) (*models.Job, error)
	List(ctx context.Context) ([]*models.Job, error)
	Update(ctx context.Context, id string, fn func(*models.Job) error) (*models.Job, error)
}
