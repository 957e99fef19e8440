package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"bankdash/internal/core"
	"bankdash/internal/session"
)

func newTestRepo(t *testing.T) *SessionRepository {
	t.Helper()
	repo, err := NewSessionRepository(filepath.Join(t.TempDir(), "bankdash.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	if _, ok, err := repo.Load(ctx); err != nil || ok {
		t.Fatalf("empty repo: ok=%v err=%v", ok, err)
	}

	snap := session.Snapshot{
		User: &core.User{
			ID:        "1",
			Email:     "ivanov@example.com",
			FirstName: "Евгений",
			CreatedAt: time.Date(2023, time.January, 15, 0, 0, 0, 0, time.UTC),
		},
		Token:           "tok-1",
		IsAuthenticated: true,
	}
	if err := repo.Save(ctx, snap); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, ok, err := repo.Load(ctx)
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if got.Token != "tok-1" || !got.IsAuthenticated || got.User == nil || got.User.Email != "ivanov@example.com" {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestSaveOverwrites(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	if err := repo.Save(ctx, session.Snapshot{Token: "old"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := repo.Save(ctx, session.Snapshot{Token: "new", IsAuthenticated: true}); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, ok, err := repo.Load(ctx)
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if got.Token != "new" {
		t.Fatalf("expected latest snapshot, got %+v", got)
	}
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	if err := repo.Save(ctx, session.Snapshot{Token: "tok"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := repo.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, ok, _ := repo.Load(ctx); ok {
		t.Fatalf("snapshot must be gone after clear")
	}
	// Clearing twice is fine.
	if err := repo.Clear(ctx); err != nil {
		t.Fatalf("second clear: %v", err)
	}
}
