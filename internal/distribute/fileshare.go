package distribute

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/caselane/docforge/internal/models"
)

// FileshareDestination uploads artifacts to a third-party file-sharing
// service over its HTTP upload API and records the shareable link it
// returns.
type FileshareDestination struct {
	httpClient        *http.Client
	baseURL           string
	token             string
	basePath          string
	continueOnFailure bool
}

func NewFileshareDestination(baseURL, token, basePath string, continueOnFailure bool) *FileshareDestination {
	return &FileshareDestination{
		httpClient:        &http.Client{Timeout: 60 * time.Second},
		baseURL:           strings.TrimRight(baseURL, "/"),
		token:             token,
		basePath:          basePath,
		continueOnFailure: continueOnFailure,
	}
}

func (d *FileshareDestination) Name() string { return "fileshare" }

func (d *FileshareDestination) ContinueOnFailure() bool { return d.continueOnFailure }

type fileshareResponse struct {
	Path string `json:"path"`
	Link string `json:"link"`
}

func (d *FileshareDestination) Upload(ctx context.Context, objectName string, data []byte, contentType string) (*models.DestinationRecord, error) {
	remotePath := path.Join(d.basePath, objectName)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+"/upload", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+d.token)
	req.Header.Set("X-Target-Path", remotePath)

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fileshare unreachable: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode/100 != 2 {
		snippet := strings.TrimSpace(string(body))
		if len(snippet) > 200 {
			snippet = snippet[:200]
		}
		return nil, fmt.Errorf("fileshare returned %d: %s", resp.StatusCode, snippet)
	}

	var fr fileshareResponse
	if err := json.Unmarshal(body, &fr); err != nil {
		// Some deployments return an empty body on success; keep the
		// path we asked for.
		fr.Path = remotePath
	}
	if fr.Path == "" {
		fr.Path = remotePath
	}

	return &models.DestinationRecord{
		Name:       d.Name(),
		RemotePath: fr.Path,
		Link:       fr.Link,
		UploadedAt: time.Now().UTC().Format(time.RFC3339),
	}, nil
}
