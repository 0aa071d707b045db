package users

import (
	"context"
	"testing"
	"time"

	"github.com/openboard/openboard/internal/apperr"
	"github.com/openboard/openboard/internal/app/storage/memory"
	"github.com/openboard/openboard/internal/auth"
)

func newService(t *testing.T) *Service {
	t.Helper()
	return New(memory.New(), auth.NewTokenIssuer("test-secret", time.Minute), nil)
}

func TestRegisterAndAuthenticate(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	created, err := svc.Register(ctx, "alice@example.com", "password1", "alice", "")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if created.ID == 0 {
		t.Fatal("expected an assigned id")
	}
	if created.Password == "password1" {
		t.Fatal("stored password must be hashed")
	}

	token, u, err := svc.Authenticate(ctx, "alice@example.com", "password1")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if token == "" {
		t.Fatal("expected a token")
	}
	if u.ID != created.ID {
		t.Fatalf("expected user %d, got %d", created.ID, u.ID)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	cases := []struct {
		name     string
		email    string
		password string
		nickname string
	}{
		{"missing email", "", "password1", "alice"},
		{"malformed email", "not-an-email", "password1", "alice"},
		{"short password", "alice@example.com", "short", "alice"},
		{"missing nickname", "alice@example.com", "password1", "  "},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Register(ctx, tc.email, tc.password, tc.nickname, ""); !apperr.IsKind(err, apperr.KindBadRequest) {
				t.Fatalf("expected bad request, got %v", err)
			}
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "alice@example.com", "password1", "alice", ""); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := svc.Register(ctx, "alice@example.com", "password2", "alice2", ""); !apperr.IsKind(err, apperr.KindConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestAuthenticateRejectsBadCredentials(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "alice@example.com", "password1", "alice", ""); err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, _, err := svc.Authenticate(ctx, "alice@example.com", "wrong-pass"); !apperr.IsKind(err, apperr.KindUnauthorized) {
		t.Fatalf("expected unauthorized for wrong password, got %v", err)
	}
	if _, _, err := svc.Authenticate(ctx, "nobody@example.com", "password1"); !apperr.IsKind(err, apperr.KindUnauthorized) {
		t.Fatalf("expected unauthorized for unknown email, got %v", err)
	}
}

func TestUpdateProfile(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	created, err := svc.Register(ctx, "alice@example.com", "password1", "alice", "")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	nickname := "wonderland"
	if _, err := svc.UpdateProfile(ctx, created.ID, created.ID+1, &nickname, nil); !apperr.IsKind(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden for another actor, got %v", err)
	}

	updated, err := svc.UpdateProfile(ctx, created.ID, created.ID, &nickname, nil)
	if err != nil {
		t.Fatalf("update profile: %v", err)
	}
	if updated.Nickname != "wonderland" {
		t.Fatalf("unexpected nickname %q", updated.Nickname)
	}
	if updated.Email != created.Email {
		t.Fatalf("email must be unchanged, got %q", updated.Email)
	}
}

func TestChangePassword(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	created, err := svc.Register(ctx, "alice@example.com", "password1", "alice", "")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if err := svc.ChangePassword(ctx, created.ID, created.ID, "wrong", "password2"); !apperr.IsKind(err, apperr.KindUnauthorized) {
		t.Fatalf("expected unauthorized for wrong current password, got %v", err)
	}
	if err := svc.ChangePassword(ctx, created.ID, created.ID, "password1", "password1"); !apperr.IsKind(err, apperr.KindBadRequest) {
		t.Fatalf("expected bad request for unchanged password, got %v", err)
	}
	if err := svc.ChangePassword(ctx, created.ID, created.ID, "password1", "tiny"); !apperr.IsKind(err, apperr.KindBadRequest) {
		t.Fatalf("expected bad request for short password, got %v", err)
	}

	if err := svc.ChangePassword(ctx, created.ID, created.ID, "password1", "password2"); err != nil {
		t.Fatalf("change password: %v", err)
	}
	if _, _, err := svc.Authenticate(ctx, "alice@example.com", "password2"); err != nil {
		t.Fatalf("authenticate with new password: %v", err)
	}
	if _, _, err := svc.Authenticate(ctx, "alice@example.com", "password1"); !apperr.IsKind(err, apperr.KindUnauthorized) {
		t.Fatalf("old password must stop working, got %v", err)
	}
}

func TestDeactivate(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	created, err := svc.Register(ctx, "alice@example.com", "password1", "alice", "")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if err := svc.Deactivate(ctx, created.ID, created.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if _, err := svc.Get(ctx, created.ID); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Fatalf("expected not found after deactivation, got %v", err)
	}
	if _, _, err := svc.Authenticate(ctx, "alice@example.com", "password1"); !apperr.IsKind(err, apperr.KindUnauthorized) {
		t.Fatalf("deactivated account must not authenticate, got %v", err)
	}

	// The address frees up for a fresh registration.
	if _, err := svc.Register(ctx, "alice@example.com", "password9", "alice-two", ""); err != nil {
		t.Fatalf("re-register after deactivation: %v", err)
	}
}
