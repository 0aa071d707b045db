// Package postgres implements the storage interfaces backed by PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"github.com/openboard/openboard/internal/app/domain/comment"
	"github.com/openboard/openboard/internal/app/domain/image"
	"github.com/openboard/openboard/internal/app/domain/post"
	"github.com/openboard/openboard/internal/app/domain/user"
	"github.com/openboard/openboard/internal/app/storage"
)

// Store implements the storage interfaces against a database handle.
type Store struct {
	db *sql.DB
}

var _ storage.UserStore = (*Store)(nil)
var _ storage.PostStore = (*Store)(nil)
var _ storage.CommentStore = (*Store)(nil)
var _ storage.LikeStore = (*Store)(nil)
var _ storage.ViewStore = (*Store)(nil)
var _ storage.ImageStore = (*Store)(nil)

// New creates a Store using the provided database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// del_yn is the storage encoding of the soft-delete flag.
func delFlag(deleted bool) string {
	if deleted {
		return "Y"
	}
	return "N"
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// --- UserStore --------------------------------------------------------------

func (s *Store) CreateUser(ctx context.Context, u user.User) (user.User, error) {
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO tb_user (email, password, nick_name, image_url, del_yn, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, u.Email, u.Password, u.Nickname, u.ImageURL, delFlag(u.Deleted), u.CreatedAt, u.UpdatedAt).Scan(&u.ID)
	if isUniqueViolation(err) {
		return user.User{}, storage.ErrDuplicate
	}
	if err != nil {
		return user.User{}, err
	}
	return u, nil
}

func (s *Store) UpdateUser(ctx context.Context, u user.User) (user.User, error) {
	u.UpdatedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx, `
		UPDATE tb_user
		SET nick_name = $2, image_url = $3, password = $4, del_yn = $5, updated_at = $6
		WHERE id = $1
	`, u.ID, u.Nickname, u.ImageURL, u.Password, delFlag(u.Deleted), u.UpdatedAt)
	if err != nil {
		return user.User{}, err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return user.User{}, storage.ErrNotFound
	}
	return u, nil
}

const userColumns = `id, email, password, nick_name, image_url, del_yn, created_at, updated_at`

func scanUser(row interface{ Scan(...interface{}) error }) (user.User, error) {
	var (
		u     user.User
		delYN string
	)
	if err := row.Scan(&u.ID, &u.Email, &u.Password, &u.Nickname, &u.ImageURL, &delYN, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return user.User{}, storage.ErrNotFound
		}
		return user.User{}, err
	}
	u.Deleted = delYN == "Y"
	return u, nil
}

func (s *Store) GetUser(ctx context.Context, id int64) (user.User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+userColumns+`
		FROM tb_user
		WHERE id = $1 AND del_yn = 'N'
	`, id)
	return scanUser(row)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+userColumns+`
		FROM tb_user
		WHERE lower(email) = lower($1) AND del_yn = 'N'
	`, email)
	return scanUser(row)
}

func (s *Store) EmailTaken(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM tb_user WHERE lower(email) = lower($1) AND del_yn = 'N'
		)
	`, email).Scan(&exists)
	return exists, err
}

// --- PostStore --------------------------------------------------------------

func (s *Store) CreatePost(ctx context.Context, p post.Post) (post.Post, error) {
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO tb_post (author_id, title, content, img_url, del_yn, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, p.AuthorID, p.Title, p.Content, p.ImageURL, delFlag(p.Deleted), p.CreatedAt, p.UpdatedAt).Scan(&p.ID)
	if err != nil {
		return post.Post{}, err
	}
	return p, nil
}

func (s *Store) UpdatePost(ctx context.Context, p post.Post) (post.Post, error) {
	p.UpdatedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx, `
		UPDATE tb_post
		SET title = $2, content = $3, img_url = $4, del_yn = $5, updated_at = $6
		WHERE id = $1
	`, p.ID, p.Title, p.Content, p.ImageURL, delFlag(p.Deleted), p.UpdatedAt)
	if err != nil {
		return post.Post{}, err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return post.Post{}, storage.ErrNotFound
	}
	return p, nil
}

const postColumns = `id, author_id, title, content, img_url, del_yn, created_at, updated_at`

func scanPost(row interface{ Scan(...interface{}) error }) (post.Post, error) {
	var (
		p     post.Post
		delYN string
	)
	if err := row.Scan(&p.ID, &p.AuthorID, &p.Title, &p.Content, &p.ImageURL, &delYN, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return post.Post{}, storage.ErrNotFound
		}
		return post.Post{}, err
	}
	p.Deleted = delYN == "Y"
	return p, nil
}

func (s *Store) GetPost(ctx context.Context, id int64) (post.Post, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+postColumns+`
		FROM tb_post
		WHERE id = $1 AND del_yn = 'N'
	`, id)
	return scanPost(row)
}

func (s *Store) ListPosts(ctx context.Context, cursor int64, limit int) ([]post.Post, error) {
	// cursor 0 means "from the newest"; the sentinel keeps the query shape
	// identical for both cases.
	if cursor <= 0 {
		cursor = int64(^uint64(0) >> 1)
	}
	if limit <= 0 {
		limit = 1<<31 - 1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+postColumns+`
		FROM tb_post
		WHERE del_yn = 'N' AND id < $1
		ORDER BY id DESC
		LIMIT $2
	`, cursor, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []post.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

// --- CommentStore -----------------------------------------------------------

func (s *Store) CreateComment(ctx context.Context, c comment.Comment) (comment.Comment, error) {
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO tb_comment (post_id, author_id, content, img_url, del_yn, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, c.PostID, c.AuthorID, c.Content, c.ImageURL, delFlag(c.Deleted), c.CreatedAt, c.UpdatedAt).Scan(&c.ID)
	if err != nil {
		return comment.Comment{}, err
	}
	return c, nil
}

func (s *Store) UpdateComment(ctx context.Context, c comment.Comment) (comment.Comment, error) {
	c.UpdatedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx, `
		UPDATE tb_comment
		SET content = $2, img_url = $3, del_yn = $4, updated_at = $5
		WHERE id = $1
	`, c.ID, c.Content, c.ImageURL, delFlag(c.Deleted), c.UpdatedAt)
	if err != nil {
		return comment.Comment{}, err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return comment.Comment{}, storage.ErrNotFound
	}
	return c, nil
}

const commentColumns = `id, post_id, author_id, content, img_url, del_yn, created_at, updated_at`

func scanComment(row interface{ Scan(...interface{}) error }) (comment.Comment, error) {
	var (
		c     comment.Comment
		delYN string
	)
	if err := row.Scan(&c.ID, &c.PostID, &c.AuthorID, &c.Content, &c.ImageURL, &delYN, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return comment.Comment{}, storage.ErrNotFound
		}
		return comment.Comment{}, err
	}
	c.Deleted = delYN == "Y"
	return c, nil
}

func (s *Store) GetComment(ctx context.Context, id int64) (comment.Comment, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+commentColumns+`
		FROM tb_comment
		WHERE id = $1 AND del_yn = 'N'
	`, id)
	return scanComment(row)
}

func (s *Store) ListCommentsByPost(ctx context.Context, postID, cursor int64, limit int) ([]comment.Comment, error) {
	if cursor <= 0 {
		cursor = int64(^uint64(0) >> 1)
	}
	if limit <= 0 {
		limit = 1<<31 - 1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+commentColumns+`
		FROM tb_comment
		WHERE post_id = $1 AND del_yn = 'N' AND id < $2
		ORDER BY id DESC
		LIMIT $3
	`, postID, cursor, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []comment.Comment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

func (s *Store) CountCommentsByPost(ctx context.Context, postID int64) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `
		SELECT count(*) FROM tb_comment WHERE post_id = $1 AND del_yn = 'N'
	`, postID).Scan(&n)
	return n, err
}

// --- LikeStore --------------------------------------------------------------

func (s *Store) AddLike(ctx context.Context, postID, userID int64) (post.Like, error) {
	like := post.Like{PostID: postID, UserID: userID, CreatedAt: time.Now().UTC()}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tb_like (post_id, user_id, created_at)
		VALUES ($1, $2, $3)
	`, like.PostID, like.UserID, like.CreatedAt)
	if isUniqueViolation(err) {
		return post.Like{}, storage.ErrDuplicate
	}
	if err != nil {
		return post.Like{}, err
	}
	return like, nil
}

func (s *Store) RemoveLike(ctx context.Context, postID, userID int64) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM tb_like WHERE post_id = $1 AND user_id = $2
	`, postID, userID)
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) HasLiked(ctx context.Context, postID, userID int64) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM tb_like WHERE post_id = $1 AND user_id = $2
		)
	`, postID, userID).Scan(&exists)
	return exists, err
}

func (s *Store) CountLikesByPost(ctx context.Context, postID int64) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `
		SELECT count(*) FROM tb_like WHERE post_id = $1
	`, postID).Scan(&n)
	return n, err
}

// --- ViewStore --------------------------------------------------------------

func (s *Store) AddView(ctx context.Context, postID, userID int64) (post.View, error) {
	view := post.View{PostID: postID, UserID: userID, CreatedAt: time.Now().UTC()}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tb_view (post_id, user_id, created_at)
		VALUES ($1, $2, $3)
	`, view.PostID, view.UserID, view.CreatedAt)
	if isUniqueViolation(err) {
		return post.View{}, storage.ErrDuplicate
	}
	if err != nil {
		return post.View{}, err
	}
	return view, nil
}

func (s *Store) CountViewsByPost(ctx context.Context, postID int64) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `
		SELECT count(*) FROM tb_view WHERE post_id = $1
	`, postID).Scan(&n)
	return n, err
}

// --- ImageStore -------------------------------------------------------------

func (s *Store) CreateImage(ctx context.Context, img image.Image) (image.Image, error) {
	now := time.Now().UTC()
	img.CreatedAt = now
	img.UpdatedAt = now

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO tb_image (url, file_name, file_size, mime_type, entity_type, entity_id, ord, uploaded_by, del_yn, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`, img.URL, img.FileName, img.FileSize, img.MIMEType, string(img.EntityType), img.EntityID,
		img.Order, img.UploadedBy, delFlag(img.Deleted), img.CreatedAt, img.UpdatedAt).Scan(&img.ID)
	if err != nil {
		return image.Image{}, err
	}
	return img, nil
}

func (s *Store) UpdateImage(ctx context.Context, img image.Image) (image.Image, error) {
	img.UpdatedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx, `
		UPDATE tb_image
		SET entity_type = $2, entity_id = $3, ord = $4, del_yn = $5, updated_at = $6
		WHERE id = $1
	`, img.ID, string(img.EntityType), img.EntityID, img.Order, delFlag(img.Deleted), img.UpdatedAt)
	if err != nil {
		return image.Image{}, err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return image.Image{}, storage.ErrNotFound
	}
	return img, nil
}

const imageColumns = `id, url, file_name, file_size, mime_type, entity_type, entity_id, ord, uploaded_by, del_yn, created_at, updated_at`

func scanImage(row interface{ Scan(...interface{}) error }) (image.Image, error) {
	var (
		img        image.Image
		entityType string
		delYN      string
	)
	if err := row.Scan(&img.ID, &img.URL, &img.FileName, &img.FileSize, &img.MIMEType, &entityType,
		&img.EntityID, &img.Order, &img.UploadedBy, &delYN, &img.CreatedAt, &img.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return image.Image{}, storage.ErrNotFound
		}
		return image.Image{}, err
	}
	img.EntityType = image.Type(entityType)
	img.Deleted = delYN == "Y"
	return img, nil
}

func (s *Store) GetImage(ctx context.Context, id int64) (image.Image, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+imageColumns+`
		FROM tb_image
		WHERE id = $1 AND del_yn = 'N'
	`, id)
	return scanImage(row)
}

func (s *Store) ListImagesByEntity(ctx context.Context, entityType image.Type, entityID int64) ([]image.Image, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+imageColumns+`
		FROM tb_image
		WHERE entity_type = $1 AND entity_id = $2 AND del_yn = 'N'
		ORDER BY ord, id
	`, string(entityType), entityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []image.Image
	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, img)
	}
	return result, rows.Err()
}
