package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/caselane/docforge/internal/models"
	"github.com/caselane/docforge/internal/registry"
	"github.com/caselane/docforge/internal/service"
	"github.com/caselane/docforge/internal/transform"
)

type JobHandler struct {
	jobs   *service.JobService
	intake *service.IntakeService
}

func NewJobHandler(jobs *service.JobService, intake *service.IntakeService) *JobHandler {
	return &JobHandler{jobs: jobs, intake: intake}
}

type submitRequest struct {
	Payload      models.RawSubmission `json:"payload"`
	PayloadRef   string               `json:"payloadRef"`
	DocumentType string               `json:"documentType"`
}

// Submit accepts an inline payload or a payloadRef from the intake
// store. The job identifier comes back immediately; rendering and
// distribution continue on the worker pool.
func (h *JobHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	raw := req.Payload
	if raw == nil && req.PayloadRef != "" {
		stored, err := h.intake.Get(req.PayloadRef)
		if err != nil {
			writeError(w, http.StatusBadRequest, "unknown payloadRef: "+req.PayloadRef)
			return
		}
		raw = stored.Payload
	}
	if raw == nil {
		writeError(w, http.StatusBadRequest, "either payload or payloadRef is required")
		return
	}

	job, err := h.jobs.Submit(r.Context(), raw, req.DocumentType)
	if err != nil {
		var ve *transform.ValidationError
		if errors.As(err, &ve) {
			writeError(w, http.StatusBadRequest, ve.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"jobId":  job.ID,
		"status": job.Status,
	})
}

func (h *JobHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "jobId")
	job, err := h.jobs.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			writeError(w, http.StatusNotFound, "job not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, statusProjection(job))
}

func (h *JobHandler) List(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.jobs.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	out := make([]map[string]any, 0, len(jobs))
	for _, job := range jobs {
		out = append(out, statusProjection(job))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"jobs":  out,
		"total": len(out),
	})
}

func (h *JobHandler) Download(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "jobId")
	data, artifact, err := h.jobs.Download(r.Context(), id)
	if err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			writeError(w, http.StatusNotFound, "job not found")
			return
		}
		var nr *service.NotReadyError
		if errors.As(err, &nr) {
			writeJSON(w, http.StatusNotFound, map[string]any{
				"error":    nr.Reason,
				"status":   nr.Status,
				"progress": nr.Progress,
			})
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", artifact.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, artifact.FileName))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Write(data)
}

func (h *JobHandler) Retry(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "jobId")
	job, err := h.jobs.Retry(r.Context(), id)
	if err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			writeError(w, http.StatusNotFound, "job not found")
			return
		}
		if errors.Is(err, service.ErrConflict) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{
		"jobId":      job.ID,
		"status":     job.Status,
		"retryCount": job.RetryCount,
	})
}

func statusProjection(job *models.Job) map[string]any {
	m := map[string]any{
		"jobId":      job.ID,
		"status":     job.Status,
		"progress":   job.Progress,
		"phase":      job.Phase,
		"message":    job.Message,
		"retryCount": job.RetryCount,
		"createdAt":  job.CreatedAt,
	}
	if job.DocumentType != "" {
		m["documentType"] = job.DocumentType
	}
	if job.Artifact != nil {
		m["artifactMeta"] = job.Artifact.Meta()
	}
	if job.Error != "" {
		m["error"] = job.Error
	}
	if job.CompletedAt != "" {
		m["completedAt"] = job.CompletedAt
	}
	if job.FailedAt != "" {
		m["failedAt"] = job.FailedAt
	}
	return m
}
