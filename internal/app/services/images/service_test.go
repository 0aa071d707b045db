package images

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"strings"
	"testing"

	"github.com/openboard/openboard/internal/apperr"
	"github.com/openboard/openboard/internal/app/domain/image"
	"github.com/openboard/openboard/internal/app/domain/post"
	"github.com/openboard/openboard/internal/app/domain/user"
	"github.com/openboard/openboard/internal/app/storage/memory"
)

func newService(t *testing.T) (*Service, *memory.Store, string) {
	t.Helper()
	store := memory.New()
	dir := t.TempDir()
	return New(store, store, store, store, dir, "/uploads", nil), store, dir
}

func createUser(t *testing.T, store *memory.Store, email string) int64 {
	t.Helper()
	u, err := store.CreateUser(context.Background(), user.User{
		Email:    email,
		Password: "hash",
		Nickname: "someone",
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u.ID
}

func upload(t *testing.T, svc *Service, uploaderID int64) image.Image {
	t.Helper()
	img, err := svc.Upload(context.Background(), uploaderID, "photo.png", "image/png",
		4, strings.NewReader("data"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	return img
}

func TestUpload(t *testing.T) {
	svc, store, dir := newService(t)
	uploaderID := createUser(t, store, "alice@example.com")

	img := upload(t, svc, uploaderID)
	if img.EntityType != image.TypeTemp {
		t.Fatalf("expected temp entity type, got %q", img.EntityType)
	}
	if img.FileName != "photo.png" {
		t.Fatalf("unexpected original name %q", img.FileName)
	}
	if !strings.HasPrefix(img.URL, "/uploads/") || !strings.HasSuffix(img.URL, ".png") {
		t.Fatalf("unexpected url %q", img.URL)
	}
	if img.FileSize != 4 {
		t.Fatalf("unexpected size %d", img.FileSize)
	}

	data, err := os.ReadFile(filepath.Join(dir, path.Base(img.URL)))
	if err != nil {
		t.Fatalf("read stored file: %v", err)
	}
	if string(data) != "data" {
		t.Fatalf("unexpected file contents %q", data)
	}
}

func TestUploadRejectsNonImage(t *testing.T) {
	svc, store, _ := newService(t)
	uploaderID := createUser(t, store, "alice@example.com")

	_, err := svc.Upload(context.Background(), uploaderID, "notes.txt", "text/plain",
		4, strings.NewReader("text"))
	if !apperr.IsKind(err, apperr.KindBadRequest) {
		t.Fatalf("expected bad request for non-image, got %v", err)
	}
}

func TestUploadRejectsOversize(t *testing.T) {
	svc, store, _ := newService(t)
	uploaderID := createUser(t, store, "alice@example.com")

	_, err := svc.Upload(context.Background(), uploaderID, "big.png", "image/png",
		MaxFileSize+1, strings.NewReader(""))
	if !apperr.IsKind(err, apperr.KindBadRequest) {
		t.Fatalf("expected bad request for oversize upload, got %v", err)
	}
}

func TestAttachToPost(t *testing.T) {
	svc, store, _ := newService(t)
	ctx := context.Background()
	uploaderID := createUser(t, store, "alice@example.com")

	p, err := store.CreatePost(ctx, post.Post{AuthorID: uploaderID, Title: "t", Content: "c"})
	if err != nil {
		t.Fatalf("create post: %v", err)
	}

	img := upload(t, svc, uploaderID)
	attached, err := svc.Attach(ctx, img.ID, uploaderID, image.TypePost, p.ID, 0)
	if err != nil {
		t.Fatalf("attach: %v", err)
	}
	if attached.EntityType != image.TypePost || attached.EntityID != p.ID {
		t.Fatalf("unexpected attachment %q/%d", attached.EntityType, attached.EntityID)
	}

	listed, err := svc.ListByEntity(ctx, image.TypePost, p.ID)
	if err != nil {
		t.Fatalf("list by entity: %v", err)
	}
	if len(listed) != 1 || listed[0].ID != img.ID {
		t.Fatalf("expected the attached image to be listed, got %v", listed)
	}
}

func TestAttachRules(t *testing.T) {
	svc, store, _ := newService(t)
	ctx := context.Background()
	uploaderID := createUser(t, store, "alice@example.com")
	otherID := createUser(t, store, "bob@example.com")

	img := upload(t, svc, uploaderID)

	if _, err := svc.Attach(ctx, img.ID, uploaderID, image.TypeTemp, 1, 0); !apperr.IsKind(err, apperr.KindBadRequest) {
		t.Fatalf("expected bad request for temp target, got %v", err)
	}
	if _, err := svc.Attach(ctx, img.ID, otherID, image.TypeUser, otherID, 0); !apperr.IsKind(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden for non-uploader, got %v", err)
	}
	if _, err := svc.Attach(ctx, img.ID, uploaderID, image.TypePost, 999, 0); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Fatalf("expected not found for missing post, got %v", err)
	}
	if _, err := svc.Attach(ctx, img.ID, uploaderID, image.TypeUser, otherID, 0); !apperr.IsKind(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden attaching to another profile, got %v", err)
	}
}

func TestProfileAttachReplacesPrevious(t *testing.T) {
	svc, store, dir := newService(t)
	ctx := context.Background()
	uploaderID := createUser(t, store, "alice@example.com")

	first := upload(t, svc, uploaderID)
	if _, err := svc.Attach(ctx, first.ID, uploaderID, image.TypeUser, uploaderID, 0); err != nil {
		t.Fatalf("attach first: %v", err)
	}

	second := upload(t, svc, uploaderID)
	if _, err := svc.Attach(ctx, second.ID, uploaderID, image.TypeUser, uploaderID, 0); err != nil {
		t.Fatalf("attach second: %v", err)
	}

	if _, err := svc.Get(ctx, first.ID); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Fatalf("expected the replaced image to be gone, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, path.Base(first.URL))); !os.IsNotExist(err) {
		t.Fatalf("expected the replaced file to be removed, got %v", err)
	}

	u, err := store.GetUser(ctx, uploaderID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if u.ImageURL != second.URL {
		t.Fatalf("profile url %q does not match latest image %q", u.ImageURL, second.URL)
	}

	listed, err := svc.ListByEntity(ctx, image.TypeUser, uploaderID)
	if err != nil {
		t.Fatalf("list profile images: %v", err)
	}
	if len(listed) != 1 || listed[0].ID != second.ID {
		t.Fatalf("expected only the latest profile image, got %v", listed)
	}
}

func TestDelete(t *testing.T) {
	svc, store, dir := newService(t)
	ctx := context.Background()
	uploaderID := createUser(t, store, "alice@example.com")
	otherID := createUser(t, store, "bob@example.com")

	img := upload(t, svc, uploaderID)

	if err := svc.Delete(ctx, img.ID, otherID); !apperr.IsKind(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden for non-uploader, got %v", err)
	}
	if err := svc.Delete(ctx, img.ID, uploaderID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Get(ctx, img.ID); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, path.Base(img.URL))); !os.IsNotExist(err) {
		t.Fatalf("expected the file to be removed, got %v", err)
	}
}
