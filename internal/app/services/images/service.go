// Package images implements image upload, attachment, and removal. Files
// land on local disk; their metadata lives in the image store.
package images

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/openboard/openboard/internal/apperr"
	"github.com/openboard/openboard/internal/app/domain/image"
	"github.com/openboard/openboard/internal/app/storage"
	"github.com/openboard/openboard/pkg/logger"
)

// MaxFileSize caps a single upload at 10 MiB.
const MaxFileSize = 10 << 20

// Service manages uploaded images and their entity attachments.
type Service struct {
	store    storage.ImageStore
	users    storage.UserStore
	posts    storage.PostStore
	comments storage.CommentStore
	dir      string
	baseURL  string
	log      *logger.Logger
}

// New constructs an image service. Files are written under dir and served
// from baseURL (for example "/uploads").
func New(store storage.ImageStore, users storage.UserStore, posts storage.PostStore,
	comments storage.CommentStore, dir, baseURL string, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("images")
	}
	if baseURL == "" {
		baseURL = "/uploads"
	}
	return &Service{
		store:    store,
		users:    users,
		posts:    posts,
		comments: comments,
		dir:      dir,
		baseURL:  strings.TrimRight(baseURL, "/"),
		log:      log,
	}
}

// Upload stores the file on disk under a random name and records it as a
// temporary image pending attachment. Only image/* content is accepted.
func (s *Service) Upload(ctx context.Context, uploaderID int64, fileName, mimeType string, size int64, r io.Reader) (image.Image, error) {
	if !strings.HasPrefix(mimeType, "image/") {
		return image.Image{}, apperr.BadRequest(apperr.CodeInvalidRequest, "only image files are accepted")
	}
	if size <= 0 {
		return image.Image{}, apperr.BadRequest(apperr.CodeInvalidRequest, "file is empty")
	}
	if size > MaxFileSize {
		return image.Image{}, apperr.BadRequest(apperr.CodeInvalidRequest, "file exceeds the 10 MiB limit")
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return image.Image{}, fmt.Errorf("create uploads dir: %w", err)
	}

	stored := uuid.NewString() + strings.ToLower(filepath.Ext(fileName))
	dst, err := os.Create(filepath.Join(s.dir, stored))
	if err != nil {
		return image.Image{}, fmt.Errorf("create upload file: %w", err)
	}

	written, err := io.Copy(dst, io.LimitReader(r, MaxFileSize+1))
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err == nil && written > MaxFileSize {
		err = apperr.BadRequest(apperr.CodeInvalidRequest, "file exceeds the 10 MiB limit")
	}
	if err != nil {
		os.Remove(filepath.Join(s.dir, stored))
		return image.Image{}, err
	}

	created, err := s.store.CreateImage(ctx, image.Image{
		URL:        s.baseURL + "/" + stored,
		FileName:   fileName,
		FileSize:   written,
		MIMEType:   mimeType,
		EntityType: image.TypeTemp,
		UploadedBy: uploaderID,
	})
	if err != nil {
		os.Remove(filepath.Join(s.dir, stored))
		return image.Image{}, err
	}

	s.log.WithField("image_id", created.ID).
		WithField("uploader_id", uploaderID).
		WithField("size", written).
		Info("image uploaded")
	return created, nil
}

// Attach binds a temporary image to a post, comment, or user profile.
// Only the uploader may attach, and the target entity must exist. A
// profile attachment replaces any previous profile image and updates the
// user's image URL.
func (s *Service) Attach(ctx context.Context, id, actorID int64, entityType image.Type, entityID int64, order int) (image.Image, error) {
	if !entityType.Valid() {
		return image.Image{}, apperr.BadRequest(apperr.CodeInvalidRequest, "entity_type must be user, post, or comment")
	}

	img, err := s.get(ctx, id)
	if err != nil {
		return image.Image{}, err
	}
	if img.UploadedBy != actorID {
		return image.Image{}, apperr.Forbidden(apperr.CodeImageForbidden, "cannot attach another user's image")
	}

	if err := s.checkEntity(ctx, entityType, entityID); err != nil {
		return image.Image{}, err
	}

	if entityType == image.TypeUser {
		if entityID != actorID {
			return image.Image{}, apperr.Forbidden(apperr.CodeImageForbidden, "cannot set another user's profile image")
		}
		if err := s.replaceProfileImage(ctx, actorID, img.URL); err != nil {
			return image.Image{}, err
		}
	}

	img.Attach(entityType, entityID, order)
	updated, err := s.store.UpdateImage(ctx, img)
	if err != nil {
		return image.Image{}, err
	}

	s.log.WithField("image_id", id).
		WithField("entity_type", string(entityType)).
		WithField("entity_id", entityID).
		Info("image attached")
	return updated, nil
}

// Get resolves an active image record.
func (s *Service) Get(ctx context.Context, id int64) (image.Image, error) {
	return s.get(ctx, id)
}

// ListByEntity returns the active images attached to an entity.
func (s *Service) ListByEntity(ctx context.Context, entityType image.Type, entityID int64) ([]image.Image, error) {
	return s.store.ListImagesByEntity(ctx, entityType, entityID)
}

// Delete soft-deletes the record and removes the file from disk. Uploader
// only. File removal is best effort; a missing file is not an error.
func (s *Service) Delete(ctx context.Context, id, actorID int64) error {
	img, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if img.UploadedBy != actorID {
		return apperr.Forbidden(apperr.CodeImageForbidden, "cannot delete another user's image")
	}

	img.Delete()
	if _, err := s.store.UpdateImage(ctx, img); err != nil {
		return err
	}
	s.removeFile(img.URL)

	s.log.WithField("image_id", id).Info("image deleted")
	return nil
}

func (s *Service) get(ctx context.Context, id int64) (image.Image, error) {
	img, err := s.store.GetImage(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return image.Image{}, apperr.NotFound(apperr.CodeImageNotFound, "image not found")
	}
	return img, err
}

func (s *Service) checkEntity(ctx context.Context, entityType image.Type, entityID int64) error {
	var err error
	switch entityType {
	case image.TypeUser:
		_, err = s.users.GetUser(ctx, entityID)
		if errors.Is(err, storage.ErrNotFound) {
			return apperr.NotFound(apperr.CodeUserNotFound, "user not found")
		}
	case image.TypePost:
		_, err = s.posts.GetPost(ctx, entityID)
		if errors.Is(err, storage.ErrNotFound) {
			return apperr.NotFound(apperr.CodePostNotFound, "post not found")
		}
	case image.TypeComment:
		_, err = s.comments.GetComment(ctx, entityID)
		if errors.Is(err, storage.ErrNotFound) {
			return apperr.NotFound(apperr.CodeCommentNotFound, "comment not found")
		}
	}
	return err
}

// replaceProfileImage soft-deletes any image currently attached to the
// user's profile and points the profile at the new URL.
func (s *Service) replaceProfileImage(ctx context.Context, userID int64, url string) error {
	existing, err := s.store.ListImagesByEntity(ctx, image.TypeUser, userID)
	if err != nil {
		return err
	}
	for _, old := range existing {
		old.Delete()
		if _, err := s.store.UpdateImage(ctx, old); err != nil {
			return err
		}
		s.removeFile(old.URL)
	}

	u, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	u.ChangeProfile(nil, &url)
	_, err = s.users.UpdateUser(ctx, u)
	return err
}

func (s *Service) removeFile(url string) {
	name := path.Base(url)
	if name == "." || name == "/" {
		return
	}
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !os.IsNotExist(err) {
		s.log.WithError(err).WithField("file", name).Warn("failed to remove upload")
	}
}
