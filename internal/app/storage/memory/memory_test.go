package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/openboard/openboard/internal/app/domain/comment"
	"github.com/openboard/openboard/internal/app/domain/image"
	"github.com/openboard/openboard/internal/app/domain/post"
	"github.com/openboard/openboard/internal/app/domain/user"
	"github.com/openboard/openboard/internal/app/storage"
)

func TestUserLifecycle(t *testing.T) {
	store := New()
	ctx := context.Background()

	created, err := store.CreateUser(ctx, user.User{Email: "alice@example.com", Password: "hash", Nickname: "alice"})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if created.ID != 1 {
		t.Fatalf("expected first id 1, got %d", created.ID)
	}

	if _, err := store.CreateUser(ctx, user.User{Email: "ALICE@example.com", Password: "hash", Nickname: "dup"}); !errors.Is(err, storage.ErrDuplicate) {
		t.Fatalf("expected duplicate for case-insensitive email, got %v", err)
	}

	byEmail, err := store.GetUserByEmail(ctx, "Alice@Example.com")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if byEmail.ID != created.ID {
		t.Fatalf("expected user %d, got %d", created.ID, byEmail.ID)
	}

	created.Delete()
	if _, err := store.UpdateUser(ctx, created); err != nil {
		t.Fatalf("soft delete: %v", err)
	}
	if _, err := store.GetUser(ctx, created.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected not found for deleted user, got %v", err)
	}
	taken, err := store.EmailTaken(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("email taken: %v", err)
	}
	if taken {
		t.Fatal("deleted user's email must be free again")
	}
}

func TestPostCursorPaging(t *testing.T) {
	store := New()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := store.CreatePost(ctx, post.Post{AuthorID: 1, Title: "t", Content: "c"}); err != nil {
			t.Fatalf("create post %d: %v", i, err)
		}
	}

	page, err := store.ListPosts(ctx, 0, 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page) != 2 || page[0].ID != 5 || page[1].ID != 4 {
		t.Fatalf("expected ids [5 4], got %v", page)
	}

	page, err = store.ListPosts(ctx, 4, 2)
	if err != nil {
		t.Fatalf("list after cursor: %v", err)
	}
	if len(page) != 2 || page[0].ID != 3 || page[1].ID != 2 {
		t.Fatalf("expected ids [3 2], got %v", page)
	}

	all, err := store.ListPosts(ctx, 0, 0)
	if err != nil {
		t.Fatalf("list unlimited: %v", err)
	}
	if len(all) != 5 {
		t.Fatalf("expected all 5 posts for non-positive limit, got %d", len(all))
	}
}

func TestDeletedPostHidden(t *testing.T) {
	store := New()
	ctx := context.Background()

	p, err := store.CreatePost(ctx, post.Post{AuthorID: 1, Title: "t", Content: "c"})
	if err != nil {
		t.Fatalf("create post: %v", err)
	}

	p.Delete()
	if _, err := store.UpdatePost(ctx, p); err != nil {
		t.Fatalf("soft delete: %v", err)
	}

	if _, err := store.GetPost(ctx, p.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	listed, err := store.ListPosts(ctx, 0, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listed) != 0 {
		t.Fatalf("deleted post must not be listed, got %d", len(listed))
	}
}

func TestCommentScoping(t *testing.T) {
	store := New()
	ctx := context.Background()

	for postID := int64(1); postID <= 2; postID++ {
		for i := 0; i < 2; i++ {
			if _, err := store.CreateComment(ctx, comment.Comment{PostID: postID, AuthorID: 1, Content: "c"}); err != nil {
				t.Fatalf("create comment: %v", err)
			}
		}
	}

	listed, err := store.ListCommentsByPost(ctx, 1, 0, 0)
	if err != nil {
		t.Fatalf("list comments: %v", err)
	}
	if len(listed) != 2 {
		t.Fatalf("expected 2 comments for post 1, got %d", len(listed))
	}
	for _, c := range listed {
		if c.PostID != 1 {
			t.Fatalf("comment %d belongs to post %d", c.ID, c.PostID)
		}
	}

	n, err := store.CountCommentsByPost(ctx, 2)
	if err != nil {
		t.Fatalf("count comments: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected count 2, got %d", n)
	}
}

func TestLikeMarks(t *testing.T) {
	store := New()
	ctx := context.Background()

	if _, err := store.AddLike(ctx, 1, 7); err != nil {
		t.Fatalf("add like: %v", err)
	}
	if _, err := store.AddLike(ctx, 1, 7); !errors.Is(err, storage.ErrDuplicate) {
		t.Fatalf("expected duplicate, got %v", err)
	}

	liked, err := store.HasLiked(ctx, 1, 7)
	if err != nil {
		t.Fatalf("has liked: %v", err)
	}
	if !liked {
		t.Fatal("expected like to exist")
	}

	n, err := store.CountLikesByPost(ctx, 1)
	if err != nil {
		t.Fatalf("count likes: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 like, got %d", n)
	}

	if err := store.RemoveLike(ctx, 1, 7); err != nil {
		t.Fatalf("remove like: %v", err)
	}
	if err := store.RemoveLike(ctx, 1, 7); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestViewMarks(t *testing.T) {
	store := New()
	ctx := context.Background()

	if _, err := store.AddView(ctx, 1, 7); err != nil {
		t.Fatalf("add view: %v", err)
	}
	if _, err := store.AddView(ctx, 1, 7); !errors.Is(err, storage.ErrDuplicate) {
		t.Fatalf("expected duplicate, got %v", err)
	}
	if _, err := store.AddView(ctx, 1, 8); err != nil {
		t.Fatalf("add second view: %v", err)
	}

	n, err := store.CountViewsByPost(ctx, 1)
	if err != nil {
		t.Fatalf("count views: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 views, got %d", n)
	}
}

func TestImageOrdering(t *testing.T) {
	store := New()
	ctx := context.Background()

	for i, order := range []int{2, 0, 1} {
		img, err := store.CreateImage(ctx, image.Image{URL: "/uploads/x", UploadedBy: 1})
		if err != nil {
			t.Fatalf("create image %d: %v", i, err)
		}
		img.Attach(image.TypePost, 1, order)
		if _, err := store.UpdateImage(ctx, img); err != nil {
			t.Fatalf("attach image %d: %v", i, err)
		}
	}

	listed, err := store.ListImagesByEntity(ctx, image.TypePost, 1)
	if err != nil {
		t.Fatalf("list images: %v", err)
	}
	if len(listed) != 3 {
		t.Fatalf("expected 3 images, got %d", len(listed))
	}
	for i, img := range listed {
		if img.Order != i {
			t.Fatalf("expected order %d at index %d, got %d", i, i, img.Order)
		}
	}
}
