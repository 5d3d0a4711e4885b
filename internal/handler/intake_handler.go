package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/caselane/docforge/internal/models"
	"github.com/caselane/docforge/internal/service"
	"github.com/caselane/docforge/internal/transform"
)

type IntakeHandler struct {
	intake *service.IntakeService
}

func NewIntakeHandler(intake *service.IntakeService) *IntakeHandler {
	return &IntakeHandler{intake: intake}
}

// Store parks a raw submission and returns the payloadRef to submit a
// job against later. The payload's shape is checked here so a bad form
// is caught at intake time, not at job submission.
func (h *IntakeHandler) Store(w http.ResponseWriter, r *http.Request) {
	var raw models.RawSubmission
	if err := readJSON(r, &raw); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := transform.ValidatePayload(raw); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	stored := h.intake.Store(raw)
	writeJSON(w, http.StatusCreated, map[string]string{
		"payloadRef": stored.Ref,
		"createdAt":  stored.CreatedAt,
	})
}

func (h *IntakeHandler) Get(w http.ResponseWriter, r *http.Request) {
	ref := chi.URLParam(r, "payloadRef")
	stored, err := h.intake.Get(ref)
	if err != nil {
		if errors.Is(err, service.ErrPayloadNotFound) {
			writeError(w, http.StatusNotFound, "stored payload not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, stored)
}
