package service

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/caselane/docforge/internal/models"
)

var ErrPayloadNotFound = errors.New("stored payload not found")

// StoredPayload is a raw intake submission parked for later job
// submission via payloadRef.
type StoredPayload struct {
	Ref       string               `json:"payloadRef"`
	Payload   models.RawSubmission `json:"payload"`
	CreatedAt string               `json:"createdAt"`
}

// IntakeService holds raw submissions so the form layer can hand off a
// payload once and submit jobs against it by reference.
type IntakeService struct {
	mu       sync.RWMutex
	payloads map[string]*StoredPayload
}

func NewIntakeService() *IntakeService {
	return &IntakeService{payloads: make(map[string]*StoredPayload)}
}

func (s *IntakeService) Store(raw models.RawSubmission) *StoredPayload {
	stored := &StoredPayload{
		Ref:       uuid.NewString(),
		Payload:   raw,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	s.mu.Lock()
	s.payloads[stored.Ref] = stored
	s.mu.Unlock()
	return stored
}

func (s *IntakeService) Get(ref string) (*StoredPayload, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored, ok := s.payloads[ref]
	if !ok {
		return nil, ErrPayloadNotFound
	}
	return stored, nil
}
