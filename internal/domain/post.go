package domain

import "time"

type Author struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

type Post struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	AuthorID  string    `json:"authorId,omitempty"`
	Author    Author    `json:"author"`
}
