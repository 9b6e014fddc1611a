package repos

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"rbacblog/internal/domain"
)

type PostRepo struct{ db *sqlx.DB }

func NewPostRepo(db *sqlx.DB) *PostRepo { return &PostRepo{db: db} }

type postRow struct {
	ID         string `db:"id"`
	Title      string `db:"title"`
	Content    string `db:"content"`
	AuthorID   string `db:"author_id"`
	AuthorName string `db:"author_name"`
	CreatedAt  int64  `db:"created_at"`
}

func (r postRow) post() domain.Post {
	return domain.Post{
		ID:        r.ID,
		Title:     r.Title,
		Content:   r.Content,
		CreatedAt: time.Unix(0, r.CreatedAt).UTC(),
		AuthorID:  r.AuthorID,
		Author:    domain.Author{Name: r.AuthorName},
	}
}

const postSelect = `
	SELECT p.id, p.title, p.content, p.author_id, u.name AS author_name, p.created_at
	FROM posts p
	JOIN users u ON u.id = p.author_id`

// List returns every post with its author's name, newest first.
func (r *PostRepo) List(ctx context.Context) ([]domain.Post, error) {
	var rows []postRow
	if err := r.db.SelectContext(ctx, &rows, postSelect+` ORDER BY p.created_at DESC, p.id`); err != nil {
		return nil, err
	}
	out := make([]domain.Post, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.post())
	}
	return out, nil
}

func (r *PostRepo) Get(ctx context.Context, id string) (domain.Post, error) {
	var row postRow
	if err := r.db.GetContext(ctx, &row, postSelect+` WHERE p.id = ?`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Post{}, ErrNotFound
		}
		return domain.Post{}, err
	}
	return row.post(), nil
}

func (r *PostRepo) Create(ctx context.Context, p domain.Post) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO posts(id, title, content, author_id, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		p.ID, p.Title, p.Content, p.AuthorID, p.CreatedAt.UnixNano())
	return err
}

func (r *PostRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
