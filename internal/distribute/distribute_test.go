package distribute

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/caselane/docforge/internal/models"
)

type fakeDestination struct {
	name      string
	skippable bool
	fail      error
	uploads   int
}

func (d *fakeDestination) Name() string            { return d.name }
func (d *fakeDestination) ContinueOnFailure() bool { return d.skippable }

func (d *fakeDestination) Upload(ctx context.Context, objectName string, data []byte, contentType string) (*models.DestinationRecord, error) {
	d.uploads++
	if d.fail != nil {
		return nil, d.fail
	}
	return &models.DestinationRecord{
		Name:       d.name,
		RemotePath: "/" + d.name + "/" + objectName,
		UploadedAt: time.Now().UTC().Format(time.RFC3339),
	}, nil
}

func testDoc() *models.StructuredDocument {
	return &models.StructuredDocument{
		DocumentType: "engagement-letter",
		Matter:       models.Matter{Title: "Estate of Harwood"},
		Parties:      []models.Party{{FirstName: "Alice", LastName: "Harwood"}},
	}
}

func TestDistribute_LocalOnly(t *testing.T) {
	d, err := NewDistributor(t.TempDir())
	if err != nil {
		t.Fatalf("new distributor: %v", err)
	}

	artifact, err := d.Distribute(context.Background(), "job-1", testDoc(), []byte("doc bytes"), "text/plain")
	if err != nil {
		t.Fatalf("distribute: %v", err)
	}
	if artifact.Size != int64(len("doc bytes")) {
		t.Fatalf("unexpected size %d", artifact.Size)
	}
	data, err := os.ReadFile(artifact.LocalPath)
	if err != nil {
		t.Fatalf("staged file missing: %v", err)
	}
	if string(data) != "doc bytes" {
		t.Fatalf("staged bytes mangled: %q", data)
	}
	if len(artifact.Destinations) != 0 {
		t.Fatalf("expected no destination records, got %v", artifact.Destinations)
	}
}

func TestDistribute_FileNameDerivedFromJob(t *testing.T) {
	dir := t.TempDir()
	d, _ := NewDistributor(dir)

	a1, err := d.Distribute(context.Background(), "job-a", testDoc(), []byte("one"), "text/plain")
	if err != nil {
		t.Fatalf("distribute a: %v", err)
	}
	a2, err := d.Distribute(context.Background(), "job-b", testDoc(), []byte("two"), "text/plain")
	if err != nil {
		t.Fatalf("distribute b: %v", err)
	}

	if a1.FileName == a2.FileName {
		t.Fatalf("concurrent jobs must not collide on staging names: %q", a1.FileName)
	}
	if !strings.HasPrefix(a1.FileName, "job-a_") || !strings.Contains(a1.FileName, "estate-of-harwood") {
		t.Fatalf("unexpected staging name %q", a1.FileName)
	}
	if filepath.Dir(a1.LocalPath) != dir {
		t.Fatalf("artifact staged outside staging dir: %s", a1.LocalPath)
	}
}

func TestDistribute_AllDestinationsSucceed(t *testing.T) {
	gcs := &fakeDestination{name: "gcs:bucket"}
	share := &fakeDestination{name: "fileshare", skippable: true}
	d, _ := NewDistributor(t.TempDir(), gcs, share)

	artifact, err := d.Distribute(context.Background(), "job-1", testDoc(), []byte("x"), "text/plain")
	if err != nil {
		t.Fatalf("distribute: %v", err)
	}
	if len(artifact.Destinations) != 2 {
		t.Fatalf("expected 2 destination records, got %d", len(artifact.Destinations))
	}
	if gcs.uploads != 1 || share.uploads != 1 {
		t.Fatalf("expected one upload per destination, got %d/%d", gcs.uploads, share.uploads)
	}
}

func TestDistribute_SkippableFailureTolerated(t *testing.T) {
	gcs := &fakeDestination{name: "gcs:bucket", skippable: true, fail: errors.New("bucket offline")}
	share := &fakeDestination{name: "fileshare", skippable: true}
	d, _ := NewDistributor(t.TempDir(), gcs, share)

	artifact, err := d.Distribute(context.Background(), "job-1", testDoc(), []byte("x"), "text/plain")
	if err != nil {
		t.Fatalf("skippable failure must not fail distribution: %v", err)
	}
	if len(artifact.Destinations) != 1 || artifact.Destinations[0].Name != "fileshare" {
		t.Fatalf("expected only the fileshare record, got %v", artifact.Destinations)
	}
	if len(artifact.Warnings) != 1 || !strings.Contains(artifact.Warnings[0], "bucket offline") {
		t.Fatalf("skippable failure must be recorded as a warning, got %v", artifact.Warnings)
	}
}

func TestDistribute_MandatoryFailurePropagates(t *testing.T) {
	gcs := &fakeDestination{name: "gcs:bucket", fail: errors.New("access denied")}
	share := &fakeDestination{name: "fileshare", skippable: true}
	d, _ := NewDistributor(t.TempDir(), gcs, share)

	_, err := d.Distribute(context.Background(), "job-1", testDoc(), []byte("x"), "text/plain")
	var de *DistributionError
	if !errors.As(err, &de) {
		t.Fatalf("expected DistributionError, got %v", err)
	}
	if de.Destination != "gcs:bucket" {
		t.Fatalf("unexpected failing destination %q", de.Destination)
	}
}

func TestDistribute_LocalWriteFailureIsFatal(t *testing.T) {
	dir := t.TempDir()
	d, _ := NewDistributor(dir)
	// A staging dir that vanished mid-flight makes the local write fail.
	if err := os.RemoveAll(dir); err != nil {
		t.Fatalf("remove staging dir: %v", err)
	}

	_, err := d.Distribute(context.Background(), "job-1", testDoc(), []byte("x"), "text/plain")
	var de *DistributionError
	if !errors.As(err, &de) {
		t.Fatalf("expected DistributionError for local write, got %v", err)
	}
	if de.Destination != "local-staging" {
		t.Fatalf("unexpected destination %q", de.Destination)
	}
}
