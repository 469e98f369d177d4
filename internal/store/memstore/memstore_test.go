package memstore

import (
	"context"
	"testing"
	"time"

	"github.com/rankstack/rankstack-sync/internal/model"
	"github.com/rankstack/rankstack-sync/internal/store"
	"github.com/rankstack/rankstack-sync/internal/store/storetest"
)

func TestMemstore_Compliance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store { return New() })
}

func TestMemstore_ReturnsClones(t *testing.T) {
	ctx := context.Background()
	s := New()

	now := time.Now().UTC()
	c := &model.Collection{ID: "col-1", Name: "Groceries", CreatedAt: now, UpdatedAt: now}
	if _, err := s.Collections().Save(ctx, c); err != nil {
		t.Fatalf("save: %v", err)
	}

	// Mutating the caller's struct must not leak into the store.
	c.Name = "mutated"
	got, err := s.Collections().Get(ctx, c.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name == "mutated" {
		t.Fatalf("store shares memory with caller")
	}

	// Mutating a returned struct must not leak either.
	got.Name = "mutated-again"
	again, err := s.Collections().Get(ctx, c.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if again.Name == "mutated-again" {
		t.Fatalf("store shares memory with reader")
	}
}
