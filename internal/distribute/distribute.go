package distribute

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"golang.org/x/sync/errgroup"

	"github.com/caselane/docforge/internal/models"
)

// DistributionError marks a failed upload to a destination whose policy
// does not tolerate failure; it is terminal for the job.
type DistributionError struct {
	Destination string
	Cause       error
}

func (e *DistributionError) Error() string {
	return fmt.Sprintf("distribution to %s failed: %v", e.Destination, e.Cause)
}

func (e *DistributionError) Unwrap() error { return e.Cause }

// Distributor writes rendered bytes to local staging, then fans the
// artifact out to the configured secondary destinations.
type Distributor struct {
	stagingDir   string
	destinations []Destination
}

func NewDistributor(stagingDir string, destinations ...Destination) (*Distributor, error) {
	if err := os.MkdirAll(stagingDir, 0o755); err != nil {
		return nil, fmt.Errorf("create staging dir %s: %w", stagingDir, err)
	}
	return &Distributor{stagingDir: stagingDir, destinations: destinations}, nil
}

// Distribute stages the artifact locally and uploads it to every
// configured destination. The local write is fatal on failure: there is
// no artifact without a local copy. Destination uploads run
// concurrently and independently; a best-effort destination that fails
// is dropped from the artifact's destination list and noted as a
// warning, while a mandatory destination failure fails the whole
// distribution.
func (d *Distributor) Distribute(ctx context.Context, jobID string, doc *models.StructuredDocument, data []byte, contentType string) (*models.Artifact, error) {
	fileName := artifactFileName(jobID, doc, contentType)
	localPath := filepath.Join(d.stagingDir, fileName)

	if err := os.WriteFile(localPath, data, 0o644); err != nil {
		return nil, &DistributionError{Destination: "local-staging", Cause: err}
	}
	log.Printf("distribute: job %s staged %d bytes at %s", jobID, len(data), localPath)

	artifact := &models.Artifact{
		FileName:    fileName,
		LocalPath:   localPath,
		ContentType: contentType,
		Size:        int64(len(data)),
	}
	if contentType == "application/pdf" {
		if pages, err := api.PageCountFile(localPath); err == nil {
			artifact.Pages = pages
		} else {
			log.Printf("Warning: distribute: job %s page count failed: %v", jobID, err)
		}
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for _, dest := range d.destinations {
		g.Go(func() error {
			record, err := dest.Upload(gctx, fileName, data, contentType)
			if err != nil {
				if dest.ContinueOnFailure() {
					log.Printf("Warning: distribute: job %s skippable destination %s failed: %v", jobID, dest.Name(), err)
					mu.Lock()
					artifact.Warnings = append(artifact.Warnings, fmt.Sprintf("%s: %v", dest.Name(), err))
					mu.Unlock()
					return nil
				}
				return &DistributionError{Destination: dest.Name(), Cause: err}
			}
			mu.Lock()
			artifact.Destinations = append(artifact.Destinations, *record)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return artifact, nil
}

// Destinations returns how many secondary destinations are configured,
// for progress reporting.
func (d *Distributor) Destinations() int {
	return len(d.destinations)
}

// artifactFileName derives a collision-free staging name from the job ID
// and the matter title, so concurrent jobs never clobber each other.
func artifactFileName(jobID string, doc *models.StructuredDocument, contentType string) string {
	slug := slugify(doc.Matter.Title)
	if slug == "" {
		slug = doc.DocumentType
	}
	ext := ".pdf"
	if contentType == "application/msword" {
		ext = ".doc"
	} else if strings.Contains(contentType, "wordprocessingml") {
		ext = ".docx"
	}
	return fmt.Sprintf("%s_%s%s", jobID, slug, ext)
}

func slugify(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '-', r == '_':
			b.WriteRune('-')
		}
	}
	return strings.Trim(b.String(), "-")
}
