// Package posts implements the post aggregate: posts plus the comments,
// likes, and views reached through them.
package posts

import (
	"context"
	"errors"
	"strings"

	"github.com/openboard/openboard/internal/apperr"
	"github.com/openboard/openboard/internal/app/domain/comment"
	"github.com/openboard/openboard/internal/app/domain/post"
	"github.com/openboard/openboard/internal/app/storage"
	"github.com/openboard/openboard/pkg/logger"
)

// Listing limits. Requests outside the range are clamped.
const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// Aggregate is a post together with its derived counters and active
// comments. Counts come from the mark and comment stores on every read,
// so both storage backends report the same numbers.
type Aggregate struct {
	Post     post.Post
	Stats    post.Stats
	Comments []comment.Comment
}

// Page is one cursor page of posts. NextCursor is 0 once exhausted.
type Page struct {
	Posts      []Aggregate
	NextCursor int64
}

// CommentPage is one cursor page of a post's comments.
type CommentPage struct {
	Comments   []comment.Comment
	NextCursor int64
}

// Service orchestrates the post aggregate across its stores.
type Service struct {
	users    storage.UserStore
	store    storage.PostStore
	comments storage.CommentStore
	likes    storage.LikeStore
	views    storage.ViewStore
	log      *logger.Logger
}

// New constructs a post service.
func New(users storage.UserStore, store storage.PostStore, comments storage.CommentStore,
	likes storage.LikeStore, views storage.ViewStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("posts")
	}
	return &Service{users: users, store: store, comments: comments, likes: likes, views: views, log: log}
}

// ClampLimit normalizes a requested page size.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// Create stores a new post for the author.
func (s *Service) Create(ctx context.Context, authorID int64, title, content, imageURL string) (Aggregate, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return Aggregate{}, apperr.BadRequest(apperr.CodeInvalidRequest, "title is required")
	}
	if strings.TrimSpace(content) == "" {
		return Aggregate{}, apperr.BadRequest(apperr.CodeInvalidRequest, "content is required")
	}

	if _, err := s.users.GetUser(ctx, authorID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return Aggregate{}, apperr.NotFound(apperr.CodeUserNotFound, "author not found")
		}
		return Aggregate{}, err
	}

	created, err := s.store.CreatePost(ctx, post.Post{
		AuthorID: authorID,
		Title:    title,
		Content:  content,
		ImageURL: imageURL,
	})
	if err != nil {
		return Aggregate{}, err
	}

	s.log.WithField("post_id", created.ID).
		WithField("author_id", authorID).
		Info("post created")
	return s.aggregate(ctx, created)
}

// Get returns a post aggregate. When viewerID is non-zero a view mark is
// recorded; repeated views by the same user are ignored.
func (s *Service) Get(ctx context.Context, id, viewerID int64) (Aggregate, error) {
	p, err := s.getPost(ctx, id)
	if err != nil {
		return Aggregate{}, err
	}

	if viewerID > 0 {
		if _, err := s.views.AddView(ctx, id, viewerID); err != nil && !errors.Is(err, storage.ErrDuplicate) {
			return Aggregate{}, err
		}
	}

	return s.aggregate(ctx, p)
}

// List returns one cursor page of posts, newest first.
func (s *Service) List(ctx context.Context, cursor int64, limit int) (Page, error) {
	limit = ClampLimit(limit)

	items, err := s.store.ListPosts(ctx, cursor, limit)
	if err != nil {
		return Page{}, err
	}

	page := Page{Posts: make([]Aggregate, 0, len(items))}
	for _, p := range items {
		agg, err := s.aggregate(ctx, p)
		if err != nil {
			return Page{}, err
		}
		page.Posts = append(page.Posts, agg)
	}
	if len(items) == limit {
		page.NextCursor = items[len(items)-1].ID
	}
	return page, nil
}

// Update applies the non-nil fields. Author only.
func (s *Service) Update(ctx context.Context, id, actorID int64, title, content, imageURL *string) (Aggregate, error) {
	p, err := s.getPost(ctx, id)
	if err != nil {
		return Aggregate{}, err
	}
	if p.AuthorID != actorID {
		return Aggregate{}, apperr.Forbidden(apperr.CodePostForbidden, "cannot modify another user's post")
	}

	p.Change(title, content, imageURL)
	updated, err := s.store.UpdatePost(ctx, p)
	if err != nil {
		return Aggregate{}, err
	}

	s.log.WithField("post_id", id).Info("post updated")
	return s.aggregate(ctx, updated)
}

// Delete soft-deletes the post. Author only.
func (s *Service) Delete(ctx context.Context, id, actorID int64) error {
	p, err := s.getPost(ctx, id)
	if err != nil {
		return err
	}
	if p.AuthorID != actorID {
		return apperr.Forbidden(apperr.CodePostForbidden, "cannot delete another user's post")
	}

	p.Delete()
	if _, err := s.store.UpdatePost(ctx, p); err != nil {
		return err
	}

	s.log.WithField("post_id", id).Info("post deleted")
	return nil
}

// Like records a like. Liking a post twice is a conflict.
func (s *Service) Like(ctx context.Context, postID, userID int64) (Aggregate, error) {
	p, err := s.getPost(ctx, postID)
	if err != nil {
		return Aggregate{}, err
	}

	if _, err := s.likes.AddLike(ctx, postID, userID); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return Aggregate{}, apperr.Conflict(apperr.CodeLikeDuplicate, "post is already liked")
		}
		return Aggregate{}, err
	}

	s.log.WithField("post_id", postID).
		WithField("user_id", userID).
		Info("post liked")
	return s.aggregate(ctx, p)
}

// Unlike removes the user's like.
func (s *Service) Unlike(ctx context.Context, postID, userID int64) error {
	if _, err := s.getPost(ctx, postID); err != nil {
		return err
	}

	if err := s.likes.RemoveLike(ctx, postID, userID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return apperr.NotFound(apperr.CodeLikeNotFound, "post is not liked")
		}
		return err
	}

	s.log.WithField("post_id", postID).
		WithField("user_id", userID).
		Info("post unliked")
	return nil
}

// AddComment creates a comment on the post.
func (s *Service) AddComment(ctx context.Context, postID, authorID int64, content, imageURL string) (Aggregate, error) {
	if strings.TrimSpace(content) == "" {
		return Aggregate{}, apperr.BadRequest(apperr.CodeInvalidRequest, "content is required")
	}

	p, err := s.getPost(ctx, postID)
	if err != nil {
		return Aggregate{}, err
	}

	created, err := s.comments.CreateComment(ctx, comment.Comment{
		PostID:   postID,
		AuthorID: authorID,
		Content:  content,
		ImageURL: imageURL,
	})
	if err != nil {
		return Aggregate{}, err
	}

	s.log.WithField("post_id", postID).
		WithField("comment_id", created.ID).
		Info("comment added")
	return s.aggregate(ctx, p)
}

// UpdateComment replaces a comment's content. Comment author only; the
// comment must belong to the given post.
func (s *Service) UpdateComment(ctx context.Context, postID, commentID, actorID int64, content string) (Aggregate, error) {
	if strings.TrimSpace(content) == "" {
		return Aggregate{}, apperr.BadRequest(apperr.CodeInvalidRequest, "content is required")
	}

	p, err := s.getPost(ctx, postID)
	if err != nil {
		return Aggregate{}, err
	}

	c, err := s.getComment(ctx, postID, commentID)
	if err != nil {
		return Aggregate{}, err
	}
	if c.AuthorID != actorID {
		return Aggregate{}, apperr.Forbidden(apperr.CodeCommentForbidden, "cannot modify another user's comment")
	}

	c.ChangeContent(content)
	if _, err := s.comments.UpdateComment(ctx, c); err != nil {
		return Aggregate{}, err
	}

	s.log.WithField("comment_id", commentID).Info("comment updated")
	return s.aggregate(ctx, p)
}

// RemoveComment soft-deletes a comment. Comment author only.
func (s *Service) RemoveComment(ctx context.Context, postID, commentID, actorID int64) error {
	if _, err := s.getPost(ctx, postID); err != nil {
		return err
	}

	c, err := s.getComment(ctx, postID, commentID)
	if err != nil {
		return err
	}
	if c.AuthorID != actorID {
		return apperr.Forbidden(apperr.CodeCommentForbidden, "cannot delete another user's comment")
	}

	c.Delete()
	if _, err := s.comments.UpdateComment(ctx, c); err != nil {
		return err
	}

	s.log.WithField("comment_id", commentID).Info("comment removed")
	return nil
}

// ListComments returns one cursor page of a post's comments.
func (s *Service) ListComments(ctx context.Context, postID, cursor int64, limit int) (CommentPage, error) {
	if _, err := s.getPost(ctx, postID); err != nil {
		return CommentPage{}, err
	}

	limit = ClampLimit(limit)
	items, err := s.comments.ListCommentsByPost(ctx, postID, cursor, limit)
	if err != nil {
		return CommentPage{}, err
	}

	page := CommentPage{Comments: items}
	if len(items) == limit {
		page.NextCursor = items[len(items)-1].ID
	}
	return page, nil
}

func (s *Service) getPost(ctx context.Context, id int64) (post.Post, error) {
	p, err := s.store.GetPost(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return post.Post{}, apperr.NotFound(apperr.CodePostNotFound, "post not found")
	}
	return p, err
}

func (s *Service) getComment(ctx context.Context, postID, commentID int64) (comment.Comment, error) {
	c, err := s.comments.GetComment(ctx, commentID)
	if errors.Is(err, storage.ErrNotFound) {
		return comment.Comment{}, apperr.NotFound(apperr.CodeCommentNotFound, "comment not found")
	}
	if err != nil {
		return comment.Comment{}, err
	}
	if c.PostID != postID {
		return comment.Comment{}, apperr.NotFound(apperr.CodeCommentMismatch, "comment does not belong to this post")
	}
	return c, nil
}

func (s *Service) aggregate(ctx context.Context, p post.Post) (Aggregate, error) {
	views, err := s.views.CountViewsByPost(ctx, p.ID)
	if err != nil {
		return Aggregate{}, err
	}
	likes, err := s.likes.CountLikesByPost(ctx, p.ID)
	if err != nil {
		return Aggregate{}, err
	}
	count, err := s.comments.CountCommentsByPost(ctx, p.ID)
	if err != nil {
		return Aggregate{}, err
	}
	items, err := s.comments.ListCommentsByPost(ctx, p.ID, 0, 0)
	if err != nil {
		return Aggregate{}, err
	}

	return Aggregate{
		Post: p,
		Stats: post.Stats{
			ViewCount:    views,
			LikeCount:    likes,
			CommentCount: count,
		},
		Comments: items,
	}, nil
}
