package storage

import (
	"context"
	"errors"

	"github.com/openboard/openboard/internal/app/domain/comment"
	"github.com/openboard/openboard/internal/app/domain/image"
	"github.com/openboard/openboard/internal/app/domain/post"
	"github.com/openboard/openboard/internal/app/domain/user"
)

// Sentinel errors shared by every backend so services see the same
// failure modes regardless of which store is wired in.
var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("already exists")
)

// UserStore persists user records. Get and lookup methods resolve active
// users only; soft-deleted rows are invisible to them.
type UserStore interface {
	CreateUser(ctx context.Context, u user.User) (user.User, error)
	UpdateUser(ctx context.Context, u user.User) (user.User, error)
	GetUser(ctx context.Context, id int64) (user.User, error)
	GetUserByEmail(ctx context.Context, email string) (user.User, error)
	EmailTaken(ctx context.Context, email string) (bool, error)
}

// PostStore persists post records. ListPosts pages active posts in
// descending id order: cursor 0 starts at the newest, otherwise only rows
// with id < cursor are returned. A non-positive limit means no limit.
type PostStore interface {
	CreatePost(ctx context.Context, p post.Post) (post.Post, error)
	UpdatePost(ctx context.Context, p post.Post) (post.Post, error)
	GetPost(ctx context.Context, id int64) (post.Post, error)
	ListPosts(ctx context.Context, cursor int64, limit int) ([]post.Post, error)
}

// CommentStore persists comment records. Listing pages active comments of
// one post with the same cursor semantics as PostStore.
type CommentStore interface {
	CreateComment(ctx context.Context, c comment.Comment) (comment.Comment, error)
	UpdateComment(ctx context.Context, c comment.Comment) (comment.Comment, error)
	GetComment(ctx context.Context, id int64) (comment.Comment, error)
	ListCommentsByPost(ctx context.Context, postID, cursor int64, limit int) ([]comment.Comment, error)
	CountCommentsByPost(ctx context.Context, postID int64) (int64, error)
}

// LikeStore persists like marks. AddLike returns ErrDuplicate when the
// user already liked the post; RemoveLike returns ErrNotFound when there
// is nothing to remove.
type LikeStore interface {
	AddLike(ctx context.Context, postID, userID int64) (post.Like, error)
	RemoveLike(ctx context.Context, postID, userID int64) error
	HasLiked(ctx context.Context, postID, userID int64) (bool, error)
	CountLikesByPost(ctx context.Context, postID int64) (int64, error)
}

// ViewStore persists view marks. AddView returns ErrDuplicate when the
// user has already viewed the post.
type ViewStore interface {
	AddView(ctx context.Context, postID, userID int64) (post.View, error)
	CountViewsByPost(ctx context.Context, postID int64) (int64, error)
}

// ImageStore persists image metadata.
type ImageStore interface {
	CreateImage(ctx context.Context, img image.Image) (image.Image, error)
	UpdateImage(ctx context.Context, img image.Image) (image.Image, error)
	GetImage(ctx context.Context, id int64) (image.Image, error)
	ListImagesByEntity(ctx context.Context, entityType image.Type, entityID int64) ([]image.Image, error)
}
