package store

import (
	"context"
	"testing"
	"time"

	"github.com/uvlkit/uvlkit/pkg/errors"
)

func TestMemoryStoreCRUD(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if _, err := s.Get(ctx, "missing"); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("Get(missing) error = %v, want NOT_FOUND", err)
	}

	m := Model{ID: "m1", Name: "sandwich", Text: "features\n\tSandwich\n", CreatedAt: time.Now()}
	if err := s.Put(ctx, m); err != nil {
		t.Fatal(err)
	}

	got, err := s.Get(ctx, "m1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Text != m.Text {
		t.Errorf("Get = %+v, want %+v", got, m)
	}

	if err := s.Delete(ctx, "m1"); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(ctx, "m1"); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("Delete(absent) error = %v, want NOT_FOUND", err)
	}
}

func TestMemoryStoreListOrder(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	for _, m := range []Model{
		{ID: "b", CreatedAt: base.Add(time.Hour)},
		{ID: "c", CreatedAt: base},
		{ID: "a", CreatedAt: base},
	} {
		if err := s.Put(ctx, m); err != nil {
			t.Fatal(err)
		}
	}

	list, err := s.List(ctx)
	if err != nil {
		t.Fatal(err)
	}

	var ids []string
	for _, m := range list {
		ids = append(ids, m.ID)
	}
	want := []string{"a", "c", "b"}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("List order = %v, want %v", ids, want)
		}
	}
}
