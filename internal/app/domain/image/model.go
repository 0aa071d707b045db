package image

import "time"

// Type names the kind of entity an image is attached to.
type Type string

const (
	TypeUser    Type = "user"
	TypePost    Type = "post"
	TypeComment Type = "comment"
	// TypeTemp is assigned at upload time, before the image is attached to
	// an entity.
	TypeTemp Type = "temp"
)

// Valid reports whether t names an attachable entity type.
func (t Type) Valid() bool {
	switch t {
	case TypeUser, TypePost, TypeComment:
		return true
	}
	return false
}

// Image is an uploaded file's metadata. The file itself lives on disk
// under the uploads directory; URL is how clients reach it.
type Image struct {
	ID         int64
	URL        string
	FileName   string
	FileSize   int64
	MIMEType   string
	EntityType Type
	EntityID   int64
	Order      int
	UploadedBy int64
	Deleted    bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Attach binds the image to an entity.
func (i *Image) Attach(entityType Type, entityID int64, order int) {
	i.EntityType = entityType
	i.EntityID = entityID
	i.Order = order
	i.UpdatedAt = time.Now().UTC()
}

// Delete marks the image inactive.
func (i *Image) Delete() {
	i.Deleted = true
	i.UpdatedAt = time.Now().UTC()
}
