// Package memory implements the storage interfaces with in-process maps.
// It is safe for concurrent use and is primarily intended for tests and
// local development.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/openboard/openboard/internal/app/domain/comment"
	"github.com/openboard/openboard/internal/app/domain/image"
	"github.com/openboard/openboard/internal/app/domain/post"
	"github.com/openboard/openboard/internal/app/domain/user"
	"github.com/openboard/openboard/internal/app/storage"
)

type markKey struct {
	postID int64
	userID int64
}

// Store is the in-memory implementation of every storage interface.
type Store struct {
	mu sync.RWMutex

	nextUserID    int64
	nextPostID    int64
	nextCommentID int64
	nextImageID   int64

	users    map[int64]user.User
	posts    map[int64]post.Post
	comments map[int64]comment.Comment
	likes    map[markKey]post.Like
	views    map[markKey]post.View
	images   map[int64]image.Image
}

var _ storage.UserStore = (*Store)(nil)
var _ storage.PostStore = (*Store)(nil)
var _ storage.CommentStore = (*Store)(nil)
var _ storage.LikeStore = (*Store)(nil)
var _ storage.ViewStore = (*Store)(nil)
var _ storage.ImageStore = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		nextUserID:    1,
		nextPostID:    1,
		nextCommentID: 1,
		nextImageID:   1,
		users:         make(map[int64]user.User),
		posts:         make(map[int64]post.Post),
		comments:      make(map[int64]comment.Comment),
		likes:         make(map[markKey]post.Like),
		views:         make(map[markKey]post.View),
		images:        make(map[int64]image.Image),
	}
}

// UserStore implementation ----------------------------------------------------

func (s *Store) CreateUser(_ context.Context, u user.User) (user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if !existing.Deleted && strings.EqualFold(existing.Email, u.Email) {
			return user.User{}, storage.ErrDuplicate
		}
	}

	u.ID = s.nextUserID
	s.nextUserID++

	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	s.users[u.ID] = u
	return u, nil
}

func (s *Store) UpdateUser(_ context.Context, u user.User) (user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.users[u.ID]
	if !ok {
		return user.User{}, storage.ErrNotFound
	}

	u.CreatedAt = original.CreatedAt
	s.users[u.ID] = u
	return u, nil
}

func (s *Store) GetUser(_ context.Context, id int64) (user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok || u.Deleted {
		return user.User{}, storage.ErrNotFound
	}
	return u, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if !u.Deleted && strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return user.User{}, storage.ErrNotFound
}

func (s *Store) EmailTaken(ctx context.Context, email string) (bool, error) {
	_, err := s.GetUserByEmail(ctx, email)
	if err == storage.ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// PostStore implementation ----------------------------------------------------

func (s *Store) CreatePost(_ context.Context, p post.Post) (post.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p.ID = s.nextPostID
	s.nextPostID++

	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	s.posts[p.ID] = p
	return p, nil
}

func (s *Store) UpdatePost(_ context.Context, p post.Post) (post.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.posts[p.ID]
	if !ok {
		return post.Post{}, storage.ErrNotFound
	}

	p.CreatedAt = original.CreatedAt
	s.posts[p.ID] = p
	return p, nil
}

func (s *Store) GetPost(_ context.Context, id int64) (post.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.posts[id]
	if !ok || p.Deleted {
		return post.Post{}, storage.ErrNotFound
	}
	return p, nil
}

func (s *Store) ListPosts(_ context.Context, cursor int64, limit int) ([]post.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]post.Post, 0, limit)
	for _, p := range s.posts {
		if p.Deleted {
			continue
		}
		if cursor > 0 && p.ID >= cursor {
			continue
		}
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID > result[j].ID })
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// CommentStore implementation -------------------------------------------------

func (s *Store) CreateComment(_ context.Context, c comment.Comment) (comment.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c.ID = s.nextCommentID
	s.nextCommentID++

	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now

	s.comments[c.ID] = c
	return c, nil
}

func (s *Store) UpdateComment(_ context.Context, c comment.Comment) (comment.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.comments[c.ID]
	if !ok {
		return comment.Comment{}, storage.ErrNotFound
	}

	c.CreatedAt = original.CreatedAt
	s.comments[c.ID] = c
	return c, nil
}

func (s *Store) GetComment(_ context.Context, id int64) (comment.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.comments[id]
	if !ok || c.Deleted {
		return comment.Comment{}, storage.ErrNotFound
	}
	return c, nil
}

func (s *Store) ListCommentsByPost(_ context.Context, postID, cursor int64, limit int) ([]comment.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]comment.Comment, 0, limit)
	for _, c := range s.comments {
		if c.Deleted || c.PostID != postID {
			continue
		}
		if cursor > 0 && c.ID >= cursor {
			continue
		}
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID > result[j].ID })
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *Store) CountCommentsByPost(_ context.Context, postID int64) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, c := range s.comments {
		if !c.Deleted && c.PostID == postID {
			n++
		}
	}
	return n, nil
}

// LikeStore implementation ----------------------------------------------------

func (s *Store) AddLike(_ context.Context, postID, userID int64) (post.Like, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := markKey{postID: postID, userID: userID}
	if _, exists := s.likes[key]; exists {
		return post.Like{}, storage.ErrDuplicate
	}

	like := post.Like{PostID: postID, UserID: userID, CreatedAt: time.Now().UTC()}
	s.likes[key] = like
	return like, nil
}

func (s *Store) RemoveLike(_ context.Context, postID, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := markKey{postID: postID, userID: userID}
	if _, exists := s.likes[key]; !exists {
		return storage.ErrNotFound
	}
	delete(s.likes, key)
	return nil
}

func (s *Store) HasLiked(_ context.Context, postID, userID int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, exists := s.likes[markKey{postID: postID, userID: userID}]
	return exists, nil
}

func (s *Store) CountLikesByPost(_ context.Context, postID int64) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for key := range s.likes {
		if key.postID == postID {
			n++
		}
	}
	return n, nil
}

// ViewStore implementation ----------------------------------------------------

func (s *Store) AddView(_ context.Context, postID, userID int64) (post.View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := markKey{postID: postID, userID: userID}
	if _, exists := s.views[key]; exists {
		return post.View{}, storage.ErrDuplicate
	}

	view := post.View{PostID: postID, UserID: userID, CreatedAt: time.Now().UTC()}
	s.views[key] = view
	return view, nil
}

func (s *Store) CountViewsByPost(_ context.Context, postID int64) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for key := range s.views {
		if key.postID == postID {
			n++
		}
	}
	return n, nil
}

// ImageStore implementation ---------------------------------------------------

func (s *Store) CreateImage(_ context.Context, img image.Image) (image.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	img.ID = s.nextImageID
	s.nextImageID++

	now := time.Now().UTC()
	img.CreatedAt = now
	img.UpdatedAt = now

	s.images[img.ID] = img
	return img, nil
}

func (s *Store) UpdateImage(_ context.Context, img image.Image) (image.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.images[img.ID]
	if !ok {
		return image.Image{}, storage.ErrNotFound
	}

	img.CreatedAt = original.CreatedAt
	s.images[img.ID] = img
	return img, nil
}

func (s *Store) GetImage(_ context.Context, id int64) (image.Image, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	img, ok := s.images[id]
	if !ok || img.Deleted {
		return image.Image{}, storage.ErrNotFound
	}
	return img, nil
}

func (s *Store) ListImagesByEntity(_ context.Context, entityType image.Type, entityID int64) ([]image.Image, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []image.Image
	for _, img := range s.images {
		if !img.Deleted && img.EntityType == entityType && img.EntityID == entityID {
			result = append(result, img)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Order != result[j].Order {
			return result[i].Order < result[j].Order
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}
