package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/isdelr/mamakara/internal/database"
	"github.com/isdelr/mamakara/internal/models"
)

// PostServiceProvider defines the interface for post services.
type PostServiceProvider interface {
	CreatePost(ctx context.Context, userID int64, content string) (models.Post, error)
	ListPostsWithAuthors(ctx context.Context) ([]models.PostWithAuthor, error)
}

// PostService provides business logic for posts.
type PostService struct {
	db *database.DB
}

// NewPostService creates a new PostService.
func NewPostService(db *database.DB) *PostService {
	return &PostService{db: db}
}

// CreatePost stores a post owned by userID. The timestamp is assigned by
// the store.
func (s *PostService) CreatePost(ctx context.Context, userID int64, content string) (models.Post, error) {
	if strings.TrimSpace(content) == "" {
		return models.Post{}, ErrContentRequired
	}

	var id int64
	row := s.db.QueryRowContext(ctx,
		s.db.Rebind(`INSERT INTO post (user_id, content) VALUES (?, ?) RETURNING id`),
		userID, content)
	if err := row.Scan(&id); err != nil {
		return models.Post{}, fmt.Errorf("insert post for user %d: %w", userID, err)
	}

	return s.GetPostByID(ctx, id)
}

// GetPostByID retrieves a single post.
func (s *PostService) GetPostByID(ctx context.Context, id int64) (models.Post, error) {
	var post models.Post
	row := s.db.QueryRowContext(ctx, s.db.Rebind(`SELECT id, user_id, content, "timestamp" FROM post WHERE id = ?`), id)
	if err := row.Scan(&post.ID, &post.UserID, &post.Content, &post.Timestamp); err != nil {
		return models.Post{}, fmt.Errorf("get post %d: %w", id, err)
	}
	return post, nil
}

// ListPostsWithAuthors returns every post with its author's username,
// newest first. Posts sharing a timestamp are ordered by id, newest first.
func (s *PostService) ListPostsWithAuthors(ctx context.Context) ([]models.PostWithAuthor, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.id, p.user_id, p.content, p."timestamp", u.username
		FROM post p
		JOIN "user" u ON u.id = p.user_id
		ORDER BY p."timestamp" DESC, p.id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	posts := []models.PostWithAuthor{}
	for rows.Next() {
		var p models.PostWithAuthor
		if err := rows.Scan(&p.ID, &p.UserID, &p.Content, &p.Timestamp, &p.Username); err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}
