package comment

import "time"

// Comment belongs to exactly one post.
type Comment struct {
	ID        int64
	PostID    int64
	AuthorID  int64
	Content   string
	ImageURL  string
	Deleted   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ChangeContent replaces the comment body.
func (c *Comment) ChangeContent(content string) {
	c.Content = content
	c.UpdatedAt = time.Now().UTC()
}

// Delete marks the comment inactive.
func (c *Comment) Delete() {
	c.Deleted = true
	c.UpdatedAt = time.Now().UTC()
}
