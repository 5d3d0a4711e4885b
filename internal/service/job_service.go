package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/caselane/docforge/internal/models"
	"github.com/caselane/docforge/internal/registry"
	"github.com/caselane/docforge/internal/transform"
	"github.com/caselane/docforge/internal/worker"
)

// Renderer invokes the external render engine. The call may run for
// minutes and must only happen on a worker goroutine.
type Renderer interface {
	Render(ctx context.Context, doc *models.StructuredDocument, docType string) ([]byte, string, error)
}

// ArtifactDistributor stages rendered bytes locally and uploads them to
// the configured secondary destinations.
type ArtifactDistributor interface {
	Distribute(ctx context.Context, jobID string, doc *models.StructuredDocument, data []byte, contentType string) (*models.Artifact, error)
	Destinations() int
}

// JobService owns the document-generation pipeline: it validates and
// transforms submissions synchronously, then drives render and
// distribution on the worker pool, reporting progress through the
// registry's atomic update.
type JobService struct {
	reg         registry.Registry
	renderer    Renderer
	distributor ArtifactDistributor
	pool        *worker.Pool

	// Structured documents are retained per job so a retry re-renders
	// and re-distributes without re-transforming.
	mu     sync.Mutex
	inputs map[string]*models.StructuredDocument
}

func NewJobService(reg registry.Registry, renderer Renderer, distributor ArtifactDistributor, pool *worker.Pool) *JobService {
	return &JobService{
		reg:         reg,
		renderer:    renderer,
		distributor: distributor,
		pool:        pool,
		inputs:      make(map[string]*models.StructuredDocument),
	}
}

// Submit validates and transforms the submission, registers the job and
// hands orchestration to the worker pool. It returns as soon as the job
// record exists; transform failures surface synchronously and create no
// job.
func (s *JobService) Submit(ctx context.Context, raw models.RawSubmission, docType string) (*models.Job, error) {
	doc, err := transform.Transform(raw, docType)
	if err != nil {
		return nil, err
	}

	job := &models.Job{
		ID:           uuid.NewString(),
		Status:       models.StatusProcessing,
		Progress:     0,
		Phase:        "queued",
		Message:      "job accepted",
		DocumentType: doc.DocumentType,
		CreatedAt:    now(),
	}

	// The registry write happens before dispatch so a status poll that
	// races the worker always finds the record.
	if err := s.reg.Create(ctx, job); err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.inputs[job.ID] = doc
	s.mu.Unlock()

	s.pool.Submit(func() { s.run(job.ID) })

	log.Printf("job %s accepted (type %s, %d parties)", job.ID, doc.DocumentType, len(doc.Parties))
	return job, nil
}

func (s *JobService) Get(ctx context.Context, id string) (*models.Job, error) {
	return s.reg.Get(ctx, id)
}

func (s *JobService) List(ctx context.Context) ([]*models.Job, error) {
	return s.reg.List(ctx)
}

// Download returns the artifact bytes and metadata for a completed job.
// Anything short of a servable artifact yields a NotReadyError carrying
// the current status and progress.
func (s *JobService) Download(ctx context.Context, id string) ([]byte, *models.Artifact, error) {
	job, err := s.reg.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if job.Status != models.StatusCompleted || job.Artifact == nil {
		return nil, nil, &NotReadyError{Status: job.Status, Progress: job.Progress, Reason: "rendering not completed"}
	}
	data, err := os.ReadFile(job.Artifact.LocalPath)
	if err != nil {
		return nil, nil, &NotReadyError{Status: job.Status, Progress: job.Progress, Reason: "artifact file no longer present"}
	}
	return data, job.Artifact, nil
}

// Retry re-enters the pipeline for a failed job. Jobs in any other state
// are rejected with ErrConflict.
func (s *JobService) Retry(ctx context.Context, id string) (*models.Job, error) {
	job, err := s.reg.Update(ctx, id, func(j *models.Job) error {
		if j.Status != models.StatusFailed {
			return ErrConflict
		}
		j.Status = models.StatusProcessing
		j.Progress = 0
		j.Phase = "queued"
		j.Message = fmt.Sprintf("retry %d accepted", j.RetryCount+1)
		j.Error = ""
		j.FailedAt = ""
		j.RetryCount++
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.pool.Submit(func() { s.run(id) })

	log.Printf("job %s retry %d accepted", id, job.RetryCount)
	return job, nil
}

// run is one orchestration attempt. It owns all mutations for the job
// while it executes, so progress updates and the terminal transition are
// totally ordered.
func (s *JobService) run(id string) {
	ctx := context.Background()

	s.mu.Lock()
	doc := s.inputs[id]
	s.mu.Unlock()
	if doc == nil {
		s.fail(ctx, id, errors.New("submission payload no longer available"))
		return
	}

	s.report(ctx, id, "render", 20, "rendering document")
	data, contentType, err := s.renderer.Render(ctx, doc, doc.DocumentType)
	if err != nil {
		s.fail(ctx, id, err)
		return
	}
	s.report(ctx, id, "render", 55, fmt.Sprintf("render complete (%d bytes)", len(data)))

	s.report(ctx, id, "distribute", 65, fmt.Sprintf("distributing to %d destination(s)", s.distributor.Destinations()))
	artifact, err := s.distributor.Distribute(ctx, id, doc, data, contentType)
	if err != nil {
		s.fail(ctx, id, err)
		return
	}

	_, err = s.reg.Update(ctx, id, func(j *models.Job) error {
		j.Status = models.StatusCompleted
		j.Progress = 100
		j.Phase = "done"
		j.Message = "document ready"
		j.Artifact = artifact
		j.Error = ""
		j.CompletedAt = now()
		return nil
	})
	if err != nil {
		log.Printf("Warning: job %s completion write failed: %v", id, err)
		return
	}
	log.Printf("job %s completed: %s (%d destination(s), %d warning(s))",
		id, artifact.FileName, len(artifact.Destinations), len(artifact.Warnings))
}

// report overwrites phase/progress/message in one atomic update.
// Progress never regresses within an attempt.
func (s *JobService) report(ctx context.Context, id, phase string, progress int, message string) {
	_, err := s.reg.Update(ctx, id, func(j *models.Job) error {
		if progress > j.Progress {
			j.Progress = progress
		}
		j.Phase = phase
		j.Message = message
		return nil
	})
	if err != nil {
		log.Printf("Warning: job %s progress update failed: %v", id, err)
	}
}

func (s *JobService) fail(ctx context.Context, id string, cause error) {
	_, err := s.reg.Update(ctx, id, func(j *models.Job) error {
		j.Status = models.StatusFailed
		j.Phase = "failed"
		j.Message = "job failed"
		j.Error = cause.Error()
		j.Artifact = nil
		j.FailedAt = now()
		return nil
	})
	if err != nil {
		log.Printf("Warning: job %s failure write failed: %v", id, err)
	}
	log.Printf("job %s failed: %v", id, cause)
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}
