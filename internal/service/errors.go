package service

import (
	"errors"
	"fmt"

	"github.com/caselane/docforge/internal/models"
)

// ErrConflict is returned when a retry is requested for a job that is
// not in the failed state.
var ErrConflict = errors.New("job is not in a retryable state")

// NotReadyError is returned by Download while the job has no servable
// artifact. It carries the current status and progress so the caller can
// keep polling instead of guessing.
type NotReadyError struct {
	Status   models.JobStatus
	Progress int
	Reason   string
}

func (e *NotReadyError) Error() string {
	return fmt.Sprintf("artifact not ready: %s (status %s, progress %d%%)", e.Reason, e.Status, e.Progress)
}
