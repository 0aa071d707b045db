package user

import "time"

// User represents a registered account. Password holds the bcrypt hash,
// never the plain text.
type User struct {
	ID        int64
	Email     string
	Password  string
	Nickname  string
	ImageURL  string
	Deleted   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ChangeProfile applies the non-nil profile fields.
func (u *User) ChangeProfile(nickname, imageURL *string) {
	if nickname != nil {
		u.Nickname = *nickname
	}
	if imageURL != nil {
		u.ImageURL = *imageURL
	}
	u.UpdatedAt = time.Now().UTC()
}

// ChangePassword replaces the stored hash.
func (u *User) ChangePassword(hash string) {
	u.Password = hash
	u.UpdatedAt = time.Now().UTC()
}

// Delete marks the user inactive. The row is kept so historical references
// stay resolvable.
func (u *User) Delete() {
	u.Deleted = true
	u.UpdatedAt = time.Now().UTC()
}
