// Package app wires the domain services to their stores.
package app

import (
	"time"

	imagesvc "github.com/openboard/openboard/internal/app/services/images"
	postsvc "github.com/openboard/openboard/internal/app/services/posts"
	usersvc "github.com/openboard/openboard/internal/app/services/users"
	"github.com/openboard/openboard/internal/app/storage"
	"github.com/openboard/openboard/internal/app/storage/memory"
	"github.com/openboard/openboard/internal/auth"
	"github.com/openboard/openboard/pkg/logger"
)

// Stores encapsulates persistence dependencies. Nil stores default to the
// in-memory implementation.
type Stores struct {
	Users    storage.UserStore
	Posts    storage.PostStore
	Comments storage.CommentStore
	Likes    storage.LikeStore
	Views    storage.ViewStore
	Images   storage.ImageStore
}

// Options carries the application-level settings the services need.
type Options struct {
	JWTSecret      string
	TokenTTL       time.Duration
	UploadsDir     string
	UploadsBaseURL string
}

// Application ties the domain services together.
type Application struct {
	log *logger.Logger

	Issuer *auth.TokenIssuer
	Users  *usersvc.Service
	Posts  *postsvc.Service
	Images *imagesvc.Service
}

// New builds a fully initialised application with the provided stores.
func New(stores Stores, opts Options, log *logger.Logger) *Application {
	if log == nil {
		log = logger.NewDefault("app")
	}

	mem := memory.New()
	if stores.Users == nil {
		stores.Users = mem
	}
	if stores.Posts == nil {
		stores.Posts = mem
	}
	if stores.Comments == nil {
		stores.Comments = mem
	}
	if stores.Likes == nil {
		stores.Likes = mem
	}
	if stores.Views == nil {
		stores.Views = mem
	}
	if stores.Images == nil {
		stores.Images = mem
	}

	issuer := auth.NewTokenIssuer(opts.JWTSecret, opts.TokenTTL)

	if opts.UploadsDir == "" {
		opts.UploadsDir = "uploads"
	}

	return &Application{
		log:    log,
		Issuer: issuer,
		Users:  usersvc.New(stores.Users, issuer, log),
		Posts:  postsvc.New(stores.Users, stores.Posts, stores.Comments, stores.Likes, stores.Views, log),
		Images: imagesvc.New(stores.Images, stores.Users, stores.Posts, stores.Comments, opts.UploadsDir, opts.UploadsBaseURL, log),
	}
}
