package httpapi

import (
	"time"

	"github.com/openboard/openboard/internal/app/domain/comment"
	"github.com/openboard/openboard/internal/app/domain/image"
	"github.com/openboard/openboard/internal/app/domain/user"
	"github.com/openboard/openboard/internal/app/services/posts"
)

// Response payloads. Domain structs carry no JSON tags, so the wire shape
// is pinned down here.

type userResponse struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Nickname  string    `json:"nickname"`
	ImageURL  string    `json:"image_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type loginResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	User        userResponse `json:"user"`
}

type postResponse struct {
	ID           int64             `json:"id"`
	AuthorID     int64             `json:"author_id"`
	Title        string            `json:"title"`
	Content      string            `json:"content"`
	ImageURL     string            `json:"image_url,omitempty"`
	ViewCount    int64             `json:"view_count"`
	LikeCount    int64             `json:"like_count"`
	CommentCount int64             `json:"comment_count"`
	Comments     []commentResponse `json:"comments"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

type postPageResponse struct {
	Posts      []postResponse `json:"posts"`
	NextCursor int64          `json:"next_cursor"`
}

type commentResponse struct {
	ID        int64     `json:"id"`
	PostID    int64     `json:"post_id"`
	AuthorID  int64     `json:"author_id"`
	Content   string    `json:"content"`
	ImageURL  string    `json:"image_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type commentPageResponse struct {
	Comments   []commentResponse `json:"comments"`
	NextCursor int64             `json:"next_cursor"`
}

type imageResponse struct {
	ID         int64     `json:"id"`
	URL        string    `json:"url"`
	FileName   string    `json:"file_name"`
	FileSize   int64     `json:"file_size"`
	MIMEType   string    `json:"mime_type"`
	EntityType string    `json:"entity_type"`
	EntityID   int64     `json:"entity_id,omitempty"`
	Order      int       `json:"order"`
	UploadedBy int64     `json:"uploaded_by"`
	CreatedAt  time.Time `json:"created_at"`
}

func toUserResponse(u user.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Email:     u.Email,
		Nickname:  u.Nickname,
		ImageURL:  u.ImageURL,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func toPostResponse(agg posts.Aggregate) postResponse {
	comments := make([]commentResponse, 0, len(agg.Comments))
	for _, c := range agg.Comments {
		comments = append(comments, toCommentResponse(c))
	}
	return postResponse{
		ID:           agg.Post.ID,
		AuthorID:     agg.Post.AuthorID,
		Title:        agg.Post.Title,
		Content:      agg.Post.Content,
		ImageURL:     agg.Post.ImageURL,
		ViewCount:    agg.Stats.ViewCount,
		LikeCount:    agg.Stats.LikeCount,
		CommentCount: agg.Stats.CommentCount,
		Comments:     comments,
		CreatedAt:    agg.Post.CreatedAt,
		UpdatedAt:    agg.Post.UpdatedAt,
	}
}

func toCommentResponse(c comment.Comment) commentResponse {
	return commentResponse{
		ID:        c.ID,
		PostID:    c.PostID,
		AuthorID:  c.AuthorID,
		Content:   c.Content,
		ImageURL:  c.ImageURL,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func toImageResponse(img image.Image) imageResponse {
	return imageResponse{
		ID:         img.ID,
		URL:        img.URL,
		FileName:   img.FileName,
		FileSize:   img.FileSize,
		MIMEType:   img.MIMEType,
		EntityType: string(img.EntityType),
		EntityID:   img.EntityID,
		Order:      img.Order,
		UploadedBy: img.UploadedBy,
		CreatedAt:  img.CreatedAt,
	}
}
