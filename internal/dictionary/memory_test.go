package dictionary

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()

	t.Run("AddAndList", func(t *testing.T) {
		store := NewMemoryStore(zap.NewNop())

		first, err := store.Add(ctx, "ООО Ромашка", "Компания 1", "company")
		if err != nil {
			t.Fatalf("Add failed: %v", err)
		}
		if first.ID == "" {
			t.Error("Expected generated id")
		}

		second, err := store.Add(ctx, "ivan@example.com", "Email", "email")
		if err != nil {
			t.Fatalf("Add failed: %v", err)
		}

		entities, err := store.List(ctx)
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(entities) != 2 {
			t.Fatalf("Expected 2 entities, got %d", len(entities))
		}
		if entities[0].ID != first.ID || entities[1].ID != second.ID {
			t.Error("List should be ordered by creation time")
		}
	})

	t.Run("DuplicateName", func(t *testing.T) {
		store := NewMemoryStore(zap.NewNop())
		if _, err := store.Add(ctx, "Иван Петров", "ПерсонаX", "person"); err != nil {
			t.Fatalf("Add failed: %v", err)
		}

		_, err := store.Add(ctx, "Иван Петров", "Другая", "person")
		var dup *DuplicateNameError
		if !errors.As(err, &dup) {
			t.Fatalf("Expected DuplicateNameError, got %v", err)
		}
		if dup.Name != "Иван Петров" {
			t.Errorf("Unexpected name in error: %q", dup.Name)
		}

		// Exact matching: different case or whitespace is a different name.
		if _, err := store.Add(ctx, "иван петров", "ПерсонаY", "person"); err != nil {
			t.Errorf("Case-different name should be accepted: %v", err)
		}
	})

	t.Run("RejectsInvalidFields", func(t *testing.T) {
		store := NewMemoryStore(zap.NewNop())
		if _, err := store.Add(ctx, "  ", "Label", ""); err == nil {
			t.Error("Empty name should be rejected")
		}
		if _, err := store.Add(ctx, "Name", "bad{label}", ""); err == nil {
			t.Error("Placeholder with grammar characters should be rejected")
		}
	})

	t.Run("Update", func(t *testing.T) {
		store := NewMemoryStore(zap.NewNop())
		e, _ := store.Add(ctx, "Продукт Альфа", "Продукт А", "product")

		newLabel := "Продукт Б"
		updated, err := store.Update(ctx, e.ID, Update{Placeholder: &newLabel})
		if err != nil {
			t.Fatalf("Update failed: %v", err)
		}
		if updated.Placeholder != newLabel {
			t.Errorf("Expected placeholder %q, got %q", newLabel, updated.Placeholder)
		}
		if updated.Name != e.Name {
			t.Error("Untouched fields must survive a partial update")
		}

		var nf *NotFoundError
		if _, err := store.Update(ctx, "missing", Update{Placeholder: &newLabel}); !errors.As(err, &nf) {
			t.Errorf("Expected NotFoundError, got %v", err)
		}
	})

	t.Run("DeleteIsNotIdempotent", func(t *testing.T) {
		store := NewMemoryStore(zap.NewNop())
		e, _ := store.Add(ctx, "Иван Петров", "ПерсонаX", "person")

		if err := store.Delete(ctx, e.ID); err != nil {
			t.Fatalf("First delete failed: %v", err)
		}

		err := store.Delete(ctx, e.ID)
		var nf *NotFoundError
		if !errors.As(err, &nf) {
			t.Fatalf("Second delete must surface NotFoundError, got %v", err)
		}
	})

	t.Run("SnapshotInvalidatedByMutation", func(t *testing.T) {
		store := NewMemoryStore(zap.NewNop())
		e, _ := store.Add(ctx, "Иван Петров", "ПерсонаX", "person")

		idx, err := store.Snapshot(ctx)
		if err != nil {
			t.Fatalf("Snapshot failed: %v", err)
		}
		if _, ok := idx.Lookup("Иван Петров"); !ok {
			t.Fatal("Snapshot should contain the entity")
		}

		newLabel := "Персона1"
		if _, err := store.Update(ctx, e.ID, Update{Placeholder: &newLabel}); err != nil {
			t.Fatalf("Update failed: %v", err)
		}

		idx2, _ := store.Snapshot(ctx)
		got, ok := idx2.Lookup("Иван Петров")
		if !ok || got.Placeholder != newLabel {
			t.Errorf("Snapshot after mutation must see the update, got %+v", got)
		}

		if err := store.Delete(ctx, e.ID); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		idx3, _ := store.Snapshot(ctx)
		if _, ok := idx3.Lookup("Иван Петров"); ok {
			t.Error("Snapshot after delete must not see the entity")
		}
	})

	t.Run("SnapshotIsStableReadView", func(t *testing.T) {
		store := NewMemoryStore(zap.NewNop())
		store.Add(ctx, "Иван Петров", "ПерсонаX", "person")

		idx, _ := store.Snapshot(ctx)
		store.Add(ctx, "ООО Ромашка", "Компания 1", "company")

		if idx.Len() != 1 {
			t.Error("A taken snapshot must not observe later mutations")
		}
	})
}
