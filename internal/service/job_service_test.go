package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/caselane/docforge/internal/models"
	"github.com/caselane/docforge/internal/registry"
	"github.com/caselane/docforge/internal/render"
	"github.com/caselane/docforge/internal/transform"
	"github.com/caselane/docforge/internal/worker"
)

type fakeRenderer struct {
	mu    sync.Mutex
	fail  error
	block chan struct{}
	calls int
}

func (r *fakeRenderer) Render(ctx context.Context, doc *models.StructuredDocument, docType string) ([]byte, string, error) {
	r.mu.Lock()
	r.calls++
	fail, block := r.fail, r.block
	r.mu.Unlock()
	if block != nil {
		<-block
	}
	if fail != nil {
		return nil, "", fail
	}
	return []byte("rendered:" + doc.Matter.Title), "text/plain", nil
}

func (r *fakeRenderer) setFail(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fail = err
}

type fakeDistributor struct {
	mu         sync.Mutex
	fail       error
	stagingDir string
	calls      int
}

func (d *fakeDistributor) Distribute(ctx context.Context, jobID string, doc *models.StructuredDocument, data []byte, contentType string) (*models.Artifact, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	if d.fail != nil {
		return nil, d.fail
	}
	path := filepath.Join(d.stagingDir, jobID+".txt")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, err
	}
	return &models.Artifact{
		FileName:    jobID + ".txt",
		LocalPath:   path,
		ContentType: contentType,
		Size:        int64(len(data)),
		Destinations: []models.DestinationRecord{
			{Name: "fileshare", RemotePath: "/share/" + jobID + ".txt"},
		},
	}, nil
}

func (d *fakeDistributor) Destinations() int { return 1 }

func (d *fakeDistributor) setFail(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fail = err
}

func newTestService(t *testing.T) (*JobService, *fakeRenderer, *fakeDistributor) {
	t.Helper()
	renderer := &fakeRenderer{}
	distributor := &fakeDistributor{stagingDir: t.TempDir()}
	pool := worker.NewPool(2)
	pool.Start()
	t.Cleanup(pool.Shutdown)
	svc := NewJobService(registry.NewMemoryRegistry(), renderer, distributor, pool)
	return svc, renderer, distributor
}

func validSubmission() models.RawSubmission {
	return models.RawSubmission{
		"matter-title":       "Estate of Harwood",
		"party-1-first-name": "Alice",
		"party-1-last-name":  "Harwood",
	}
}

func awaitTerminal(t *testing.T, svc *JobService, id string) *models.Job {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		job, err := svc.Get(context.Background(), id)
		if err != nil {
			t.Fatalf("get %s: %v", id, err)
		}
		if job.Terminal() {
			return job
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("job %s never reached a terminal state", id)
	return nil
}

func TestSubmit_ReturnsProcessingImmediately(t *testing.T) {
	svc, _, _ := newTestService(t)

	job, err := svc.Submit(context.Background(), validSubmission(), "engagement-letter")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if job.Status != models.StatusProcessing {
		t.Fatalf("submit must return processing, got %s", job.Status)
	}
	if job.ID == "" {
		t.Fatal("submit must return a job id")
	}

	final := awaitTerminal(t, svc, job.ID)
	if final.Status != models.StatusCompleted {
		t.Fatalf("expected completed, got %s (%s)", final.Status, final.Error)
	}
	if final.Progress != 100 {
		t.Fatalf("completed job must report progress 100, got %d", final.Progress)
	}
	if final.Artifact == nil || final.Error != "" {
		t.Fatalf("terminal exclusivity violated: artifact=%v error=%q", final.Artifact, final.Error)
	}
}

func TestSubmit_ValidationErrorCreatesNoJob(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Submit(context.Background(), models.RawSubmission{"matter-title": "No parties"}, "engagement-letter")
	var ve *transform.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}

	jobs, _ := svc.List(context.Background())
	if len(jobs) != 0 {
		t.Fatalf("validation failure must not create a job, found %d", len(jobs))
	}
}

func TestRenderFailure_JobFails(t *testing.T) {
	svc, renderer, _ := newTestService(t)
	renderer.setFail(&render.RenderError{Reason: "engine timed out after 3m0s"})

	job, err := svc.Submit(context.Background(), validSubmission(), "engagement-letter")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	final := awaitTerminal(t, svc, job.ID)
	if final.Status != models.StatusFailed {
		t.Fatalf("expected failed, got %s", final.Status)
	}
	if !strings.Contains(final.Error, "engine timed out") {
		t.Fatalf("render message must be preserved verbatim, got %q", final.Error)
	}
	if final.Artifact != nil {
		t.Fatal("failed job must not carry an artifact")
	}
	if final.FailedAt == "" {
		t.Fatal("failed job must be stamped with failedAt")
	}
}

func TestDistributionFailure_JobFails(t *testing.T) {
	svc, _, distributor := newTestService(t)
	distributor.setFail(errors.New("distribution to gcs:bucket failed: access denied"))

	job, _ := svc.Submit(context.Background(), validSubmission(), "engagement-letter")
	final := awaitTerminal(t, svc, job.ID)
	if final.Status != models.StatusFailed {
		t.Fatalf("expected failed, got %s", final.Status)
	}
}

func TestRetry_GatedOnFailedState(t *testing.T) {
	svc, renderer, _ := newTestService(t)
	renderer.setFail(&render.RenderError{Reason: "engine unreachable"})

	job, _ := svc.Submit(context.Background(), validSubmission(), "engagement-letter")
	final := awaitTerminal(t, svc, job.ID)
	if final.Status != models.StatusFailed {
		t.Fatalf("expected failed, got %s", final.Status)
	}

	// Renderer recovers; retry must be accepted exactly from failed.
	renderer.setFail(nil)
	retried, err := svc.Retry(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("retry from failed: %v", err)
	}
	if retried.Status != models.StatusProcessing || retried.RetryCount != 1 {
		t.Fatalf("unexpected retry projection: %+v", retried)
	}

	final = awaitTerminal(t, svc, job.ID)
	if final.Status != models.StatusCompleted {
		t.Fatalf("retried job should complete, got %s (%s)", final.Status, final.Error)
	}
	if final.RetryCount != 1 {
		t.Fatalf("expected retryCount 1, got %d", final.RetryCount)
	}
	if final.Error != "" || final.Artifact == nil {
		t.Fatalf("completed retry must clear the error and attach the artifact: %+v", final)
	}

	// Completed jobs cannot be retried.
	if _, err := svc.Retry(context.Background(), job.ID); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict on completed job, got %v", err)
	}
}

func TestRetry_ConflictWhileProcessing(t *testing.T) {
	svc, renderer, _ := newTestService(t)
	renderer.block = make(chan struct{})

	job, err := svc.Submit(context.Background(), validSubmission(), "engagement-letter")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	// The render call is parked, so the job is observably processing.
	if _, err := svc.Retry(context.Background(), job.ID); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict while processing, got %v", err)
	}

	close(renderer.block)
	awaitTerminal(t, svc, job.ID)
}

func TestRetry_UnknownJob(t *testing.T) {
	svc, _, _ := newTestService(t)
	if _, err := svc.Retry(context.Background(), "missing"); !errors.Is(err, registry.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRetry_ReusesStructuredDocument(t *testing.T) {
	svc, renderer, _ := newTestService(t)
	renderer.setFail(&render.RenderError{Reason: "flaky"})

	job, _ := svc.Submit(context.Background(), validSubmission(), "engagement-letter")
	awaitTerminal(t, svc, job.ID)

	renderer.setFail(nil)
	if _, err := svc.Retry(context.Background(), job.ID); err != nil {
		t.Fatalf("retry: %v", err)
	}
	final := awaitTerminal(t, svc, job.ID)
	if final.Status != models.StatusCompleted {
		t.Fatalf("expected completed, got %s", final.Status)
	}

	renderer.mu.Lock()
	calls := renderer.calls
	renderer.mu.Unlock()
	if calls != 2 {
		t.Fatalf("expected a re-render per attempt, got %d render calls", calls)
	}
}

func TestDownload_GatedUntilCompleted(t *testing.T) {
	svc, renderer, _ := newTestService(t)
	renderer.setFail(&render.RenderError{Reason: "down"})

	job, _ := svc.Submit(context.Background(), validSubmission(), "engagement-letter")
	final := awaitTerminal(t, svc, job.ID)

	_, _, err := svc.Download(context.Background(), job.ID)
	var nr *NotReadyError
	if !errors.As(err, &nr) {
		t.Fatalf("expected NotReadyError, got %v", err)
	}
	if nr.Status != final.Status {
		t.Fatalf("not-ready must carry current status, got %s", nr.Status)
	}
}

func TestDownload_ServesCompletedArtifact(t *testing.T) {
	svc, _, _ := newTestService(t)

	job, _ := svc.Submit(context.Background(), validSubmission(), "engagement-letter")
	awaitTerminal(t, svc, job.ID)

	data, artifact, err := svc.Download(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	if string(data) != "rendered:Estate of Harwood" {
		t.Fatalf("unexpected artifact bytes %q", data)
	}
	if artifact.FileName == "" || artifact.Size != int64(len(data)) {
		t.Fatalf("unexpected artifact metadata: %+v", artifact)
	}
}

func TestDownload_MissingFileReportsNotReady(t *testing.T) {
	svc, _, _ := newTestService(t)

	job, _ := svc.Submit(context.Background(), validSubmission(), "engagement-letter")
	final := awaitTerminal(t, svc, job.ID)

	if err := os.Remove(final.Artifact.LocalPath); err != nil {
		t.Fatalf("remove artifact: %v", err)
	}
	_, _, err := svc.Download(context.Background(), job.ID)
	var nr *NotReadyError
	if !errors.As(err, &nr) {
		t.Fatalf("expected NotReadyError for missing file, got %v", err)
	}
	if !strings.Contains(nr.Reason, "no longer present") {
		t.Fatalf("unexpected reason %q", nr.Reason)
	}
}

func TestProgress_NeverRegresses(t *testing.T) {
	svc, _, _ := newTestService(t)

	job, _ := svc.Submit(context.Background(), validSubmission(), "engagement-letter")

	last := -1
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		current, err := svc.Get(context.Background(), job.ID)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if current.Progress < last {
			t.Fatalf("progress regressed from %d to %d", last, current.Progress)
		}
		last = current.Progress
		if current.Terminal() {
			return
		}
	}
	t.Fatal("job never finished")
}
