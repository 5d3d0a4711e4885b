package registry

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/caselane/docforge/internal/models"
)

// FirestoreRegistry keeps job records in a Firestore collection so the
// registry survives restarts and can be shared by scaled-out instances.
// It implements the same Registry contract as MemoryRegistry; Update
// runs inside a Firestore transaction to keep the read-modify-write
// atomic.
type FirestoreRegistry struct {
	client     *firestore.Client
	collection string
}

func NewFirestoreRegistry(ctx context.Context, projectID, collection string) (*FirestoreRegistry, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID must be provided to create a firestore registry")
	}
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %w", err)
	}
	return &FirestoreRegistry{client: client, collection: collection}, nil
}

func (r *FirestoreRegistry) Create(ctx context.Context, job *models.Job) error {
	_, err := r.client.Collection(r.collection).Doc(job.ID).Create(ctx, job)
	if err != nil {
		return fmt.Errorf("create job %s: %w", job.ID, err)
	}
	return nil
}

func (r *FirestoreRegistry) Get(ctx context.Context, id string) (*models.Job, error) {
	snap, err := r.client.Collection(r.collection).Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job %s: %w", id, err)
	}
	var job models.Job
	if err := snap.DataTo(&job); err != nil {
		return nil, fmt.Errorf("decode job %s: %w", id, err)
	}
	return &job, nil
}

func (r *FirestoreRegistry) List(ctx context.Context) ([]*models.Job, error) {
	snaps, err := r.client.Collection(r.collection).
		OrderBy("createdAt", firestore.Desc).
		Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	jobs := make([]*models.Job, 0, len(snaps))
	for _, snap := range snaps {
		var job models.Job
		if err := snap.DataTo(&job); err != nil {
			continue
		}
		jobs = append(jobs, &job)
	}
	return jobs, nil
}

func (r *FirestoreRegistry) Update(ctx context.Context, id string, fn func(*models.Job) error) (*models.Job, error) {
	ref := r.client.Collection(r.collection).Doc(id)
	var updated models.Job
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if status.Code(err) == codes.NotFound {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		var job models.Job
		if err := snap.DataTo(&job); err != nil {
			return err
		}
		if err := fn(&job); err != nil {
			return err
		}
		updated = job
		return tx.Set(ref, &job)
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (r *FirestoreRegistry) Close() error {
	return r.client.Close()
}
