package service

import (
	"errors"
	"testing"

	"github.com/caselane/docforge/internal/models"
)

func TestIntakeService_StoreAndGet(t *testing.T) {
	svc := NewIntakeService()

	stored := svc.Store(models.RawSubmission{"matter-title": "Stored"})
	if stored.Ref == "" {
		t.Fatal("store must assign a payloadRef")
	}

	got, err := svc.Get(stored.Ref)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Payload["matter-title"] != "Stored" {
		t.Fatalf("unexpected payload: %v", got.Payload)
	}
}

func TestIntakeService_UnknownRef(t *testing.T) {
	svc := NewIntakeService()
	if _, err := svc.Get("missing"); !errors.Is(err, ErrPayloadNotFound) {
		t.Fatalf("expected ErrPayloadNotFound, got %v", err)
	}
}

func TestIntakeService_RefsAreUnique(t *testing.T) {
	svc := NewIntakeService()
	a := svc.Store(models.RawSubmission{"matter-title": "A"})
	b := svc.Store(models.RawSubmission{"matter-title": "B"})
	if a.Ref == b.Ref {
		t.Fatalf("payload refs must be unique, both %q", a.Ref)
	}
}
