package storage

import (
	"context"
	"errors"
	"testing"
)

// runEngineContract exercises the behavior every KVEngine must share.
func runEngineContract(t *testing.T, engine KVEngine) {
	t.Helper()
	ctx := context.Background()

	t.Run("Get non-existent key", func(t *testing.T) {
		_, err := engine.Get(ctx, []byte("non-existent"))
		if !errors.Is(err, ErrKeyNotFound) {
			t.Errorf("expected ErrKeyNotFound, got %v", err)
		}
	})

	t.Run("Apply sets every key", func(t *testing.T) {
		b := NewBatch().
			Set([]byte("slot:a"), []byte("alpha")).
			Set([]byte("slot:b"), []byte("beta"))
		if err := engine.Apply(ctx, b); err != nil {
			t.Fatal(err)
		}

		values, err := engine.GetMany(ctx, []byte("slot:a"), []byte("slot:b"), []byte("slot:c"))
		if err != nil {
			t.Fatal(err)
		}
		if len(values) != 3 {
			t.Fatalf("expected 3 values, got %d", len(values))
		}
		if string(values[0]) != "alpha" || string(values[1]) != "beta" {
			t.Errorf("unexpected values %q %q", values[0], values[1])
		}
		if values[2] != nil {
			t.Errorf("missing key should yield nil, got %q", values[2])
		}
	})

	t.Run("Apply overwrites and deletes", func(t *testing.T) {
		b := NewBatch().
			Set([]byte("slot:a"), []byte("alpha-2")).
			Delete([]byte("slot:b")).
			Delete([]byte("never-written"))
		if err := engine.Apply(ctx, b); err != nil {
			t.Fatal(err)
		}

		got, err := engine.Get(ctx, []byte("slot:a"))
		if err != nil {
			t.Fatal(err)
		}
		if string(got) != "alpha-2" {
			t.Errorf("expected alpha-2, got %s", got)
		}
		if _, err := engine.Get(ctx, []byte("slot:b")); !errors.Is(err, ErrKeyNotFound) {
			t.Errorf("expected ErrKeyNotFound after delete, got %v", err)
		}
	})

	t.Run("Empty batch", func(t *testing.T) {
		if err := engine.Apply(ctx, NewBatch()); err != nil {
			t.Errorf("empty batch should succeed, got %v", err)
		}
	})
}
