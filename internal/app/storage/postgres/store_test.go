package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	_ "github.com/lib/pq"

	"github.com/openboard/openboard/internal/app/domain/comment"
	"github.com/openboard/openboard/internal/app/domain/image"
	"github.com/openboard/openboard/internal/app/domain/post"
	"github.com/openboard/openboard/internal/app/domain/user"
	"github.com/openboard/openboard/internal/app/storage"
	"github.com/openboard/openboard/internal/platform/migrations"
)

func TestStoreIntegration(t *testing.T) {
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set; skipping postgres integration test")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	if err := migrations.Apply(ctx, db); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}

	store := New(db)
	email := fmt.Sprintf("it-%d@example.com", time.Now().UnixNano())

	u, err := store.CreateUser(ctx, user.User{Email: email, Password: "hash", Nickname: "it"})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if _, err := store.CreateUser(ctx, user.User{Email: email, Password: "hash", Nickname: "dup"}); !errors.Is(err, storage.ErrDuplicate) {
		t.Fatalf("expected duplicate email, got %v", err)
	}

	p, err := store.CreatePost(ctx, post.Post{AuthorID: u.ID, Title: "t", Content: "c"})
	if err != nil {
		t.Fatalf("create post: %v", err)
	}

	c, err := store.CreateComment(ctx, comment.Comment{PostID: p.ID, AuthorID: u.ID, Content: "hello"})
	if err != nil {
		t.Fatalf("create comment: %v", err)
	}
	n, err := store.CountCommentsByPost(ctx, p.ID)
	if err != nil {
		t.Fatalf("count comments: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 comment, got %d", n)
	}

	if _, err := store.AddLike(ctx, p.ID, u.ID); err != nil {
		t.Fatalf("add like: %v", err)
	}
	if _, err := store.AddLike(ctx, p.ID, u.ID); !errors.Is(err, storage.ErrDuplicate) {
		t.Fatalf("expected duplicate like, got %v", err)
	}
	if err := store.RemoveLike(ctx, p.ID, u.ID); err != nil {
		t.Fatalf("remove like: %v", err)
	}
	if err := store.RemoveLike(ctx, p.ID, u.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected missing like, got %v", err)
	}

	if _, err := store.AddView(ctx, p.ID, u.ID); err != nil {
		t.Fatalf("add view: %v", err)
	}
	views, err := store.CountViewsByPost(ctx, p.ID)
	if err != nil {
		t.Fatalf("count views: %v", err)
	}
	if views != 1 {
		t.Fatalf("expected 1 view, got %d", views)
	}

	img, err := store.CreateImage(ctx, image.Image{
		URL:        "/uploads/it.png",
		FileName:   "it.png",
		FileSize:   4,
		MIMEType:   "image/png",
		EntityType: image.TypeTemp,
		UploadedBy: u.ID,
	})
	if err != nil {
		t.Fatalf("create image: %v", err)
	}
	img.Attach(image.TypePost, p.ID, 0)
	if _, err := store.UpdateImage(ctx, img); err != nil {
		t.Fatalf("attach image: %v", err)
	}

	c.Delete()
	if _, err := store.UpdateComment(ctx, c); err != nil {
		t.Fatalf("soft delete comment: %v", err)
	}
	if _, err := store.GetComment(ctx, c.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected deleted comment to be hidden, got %v", err)
	}

	p.Delete()
	if _, err := store.UpdatePost(ctx, p); err != nil {
		t.Fatalf("soft delete post: %v", err)
	}
	u.Delete()
	if _, err := store.UpdateUser(ctx, u); err != nil {
		t.Fatalf("soft delete user: %v", err)
	}
	if _, err := store.GetUserByEmail(ctx, email); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected deleted user to be hidden, got %v", err)
	}
}
