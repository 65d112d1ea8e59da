package models

import "time"

// Post is a short text entry owned by exactly one user.
type Post struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// PostWithAuthor is a post joined with its author's username.
type PostWithAuthor struct {
	Post
	Username string `json:"username"`
}
