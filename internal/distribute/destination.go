package distribute

import (
	"context"

	"github.com/caselane/docforge/internal/models"
)

// Destination is a secondary store an artifact is uploaded to after the
// local staging copy exists. Destinations whose ContinueOnFailure policy
// is true are best-effort: their failure is recorded as a warning and
// the job still completes.
type Destination interface {
	Name() string
	ContinueOnFailure() bool
	Upload(ctx context.Context, objectName string, data []byte, contentType string) (*models.DestinationRecord, error)
}
