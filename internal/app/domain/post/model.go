// Package post holds the post aggregate: the post entity itself plus the
// like and view marks whose counts hang off it.
package post

import "time"

// Post is a board entry authored by a user.
type Post struct {
	ID        int64
	AuthorID  int64
	Title     string
	Content   string
	ImageURL  string
	Deleted   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Stats carries the derived counters for a post. They are computed from
// the mark and comment stores, not cached on the post row.
type Stats struct {
	ViewCount    int64
	LikeCount    int64
	CommentCount int64
}

// Like marks that a user liked a post. Unique per (PostID, UserID).
type Like struct {
	PostID    int64
	UserID    int64
	CreatedAt time.Time
}

// View marks that a user has seen a post. Unique per (PostID, UserID), so
// the view count is the number of distinct viewers.
type View struct {
	PostID    int64
	UserID    int64
	CreatedAt time.Time
}

// Change applies the non-nil fields.
func (p *Post) Change(title, content, imageURL *string) {
	if title != nil {
		p.Title = *title
	}
	if content != nil {
		p.Content = *content
	}
	if imageURL != nil {
		p.ImageURL = *imageURL
	}
	p.UpdatedAt = time.Now().UTC()
}

// Delete marks the post inactive.
func (p *Post) Delete() {
	p.Deleted = true
	p.UpdatedAt = time.Now().UTC()
}
