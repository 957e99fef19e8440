package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"bankdash/internal/core"
)

type stubAuth struct {
	user  core.User
	token string
	err   error
	calls int
}

func (a *stubAuth) Authenticate(_ context.Context, email, _ string) (core.User, string, error) {
	a.calls++
	if a.err != nil {
		return core.User{}, "", a.err
	}
	u := a.user
	u.Email = email
	return u, a.token, nil
}

func testUser() core.User {
	return core.User{
		ID:          "1",
		FirstName:   "Евгений",
		LastName:    "Иванов",
		PhoneNumber: "+79991234567",
		IsVerified:  true,
		CreatedAt:   time.Date(2023, time.January, 15, 0, 0, 0, 0, time.UTC),
	}
}

func TestLoginSuccess(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	store := New(ctx, &stubAuth{user: testUser(), token: "tok-1"}, repo, nil)

	if err := store.Login(ctx, "ivanov@example.com", "secret"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	st := store.Current()
	if !st.IsAuthenticated || st.User == nil || st.Token != "tok-1" || st.IsLoading {
		t.Fatalf("bad state after login: %+v", st)
	}
	if st.User.Email != "ivanov@example.com" {
		t.Fatalf("user email %q", st.User.Email)
	}

	snap, ok, _ := repo.Load(ctx)
	if !ok || snap.Token != "tok-1" || !snap.IsAuthenticated || snap.User == nil {
		t.Fatalf("session not persisted: %+v ok=%v", snap, ok)
	}
}

func TestLoginFailureRevertsToAnonymous(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	// Persist a prior session, then fail a login attempt.
	prior := New(ctx, &stubAuth{user: testUser(), token: "tok-old"}, repo, nil)
	if err := prior.Login(ctx, "ivanov@example.com", "secret"); err != nil {
		t.Fatalf("seed login: %v", err)
	}

	store := New(ctx, &stubAuth{err: errors.New("bad credentials")}, repo, nil)
	err := store.Login(ctx, "ivanov@example.com", "wrong")
	if !errors.Is(err, ErrAuthenticationFailed) {
		t.Fatalf("expected ErrAuthenticationFailed, got %v", err)
	}

	st := store.Current()
	if st.IsAuthenticated || st.User != nil || st.Token != "" || st.IsLoading {
		t.Fatalf("store must revert to anonymous: %+v", st)
	}

	// The failed attempt must not disturb the previously persisted session.
	snap, ok, _ := repo.Load(ctx)
	if !ok || snap.Token != "tok-old" {
		t.Fatalf("prior persisted session lost: %+v", snap)
	}
}

func TestLogoutIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	store := New(ctx, &stubAuth{user: testUser(), token: "tok-1"}, repo, nil)
	if err := store.Login(ctx, "ivanov@example.com", "secret"); err != nil {
		t.Fatalf("login: %v", err)
	}

	store.Logout(ctx)
	first := store.Current()
	store.Logout(ctx)
	second := store.Current()

	if first.IsAuthenticated || first.User != nil || first.Token != "" {
		t.Fatalf("not anonymous after logout: %+v", first)
	}
	if first != second {
		t.Fatalf("logout must be idempotent: %+v vs %+v", first, second)
	}
	if _, ok, _ := repo.Load(ctx); ok {
		t.Fatalf("persisted session must be cleared")
	}
}

func TestRehydrate(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	first := New(ctx, &stubAuth{user: testUser(), token: "tok-1"}, repo, nil)
	if err := first.Login(ctx, "ivanov@example.com", "secret"); err != nil {
		t.Fatalf("login: %v", err)
	}

	// A fresh store picks up the persisted session with no authenticator
	// round-trip.
	auth := &stubAuth{user: testUser(), token: "tok-2"}
	second := New(ctx, auth, repo, nil)
	st := second.Current()
	if !st.IsAuthenticated || st.Token != "tok-1" || st.User == nil {
		t.Fatalf("rehydration failed: %+v", st)
	}
	if st.IsLoading {
		t.Fatalf("loading flag must never be persisted")
	}
	if auth.calls != 0 {
		t.Fatalf("rehydration must not re-validate the token")
	}
}

func TestSetUserRequiresToken(t *testing.T) {
	ctx := context.Background()
	store := New(ctx, &stubAuth{user: testUser(), token: "tok-1"}, NewMemoryRepository(), nil)

	u := testUser()
	if err := store.SetUser(ctx, u); !errors.Is(err, ErrNoToken) {
		t.Fatalf("expected ErrNoToken, got %v", err)
	}

	if err := store.Login(ctx, "ivanov@example.com", "secret"); err != nil {
		t.Fatalf("login: %v", err)
	}
	u.FirstName = "Пётр"
	if err := store.SetUser(ctx, u); err != nil {
		t.Fatalf("SetUser: %v", err)
	}
	if got := store.Current().User.FirstName; got != "Пётр" {
		t.Fatalf("user not replaced: %q", got)
	}
}

func TestSubscribersSeeTransitions(t *testing.T) {
	ctx := context.Background()
	store := New(ctx, &stubAuth{user: testUser(), token: "tok-1"}, nil, nil)

	var states []State
	store.Subscribe(func(st State) { states = append(states, st) })

	if err := store.Login(ctx, "ivanov@example.com", "secret"); err != nil {
		t.Fatalf("login: %v", err)
	}

	if len(states) != 2 {
		t.Fatalf("expected loading + authenticated transitions, got %d", len(states))
	}
	if !states[0].IsLoading || states[0].IsAuthenticated {
		t.Fatalf("first transition should be authenticating: %+v", states[0])
	}
	if states[1].IsLoading || !states[1].IsAuthenticated {
		t.Fatalf("second transition should be authenticated: %+v", states[1])
	}
}
