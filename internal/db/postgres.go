package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/BorisDmv/blog-api/internal/models"
)

var postgresSchema = []string{`
CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    email TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    display_name TEXT NOT NULL,
    role TEXT NOT NULL DEFAULT 'user' CHECK (role IN ('admin', 'user')),
    current_token TEXT,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    CONSTRAINT users_email_unique UNIQUE (email),
    CONSTRAINT users_display_name_unique UNIQUE (display_name)
);`, `
CREATE TABLE IF NOT EXISTS posts (
    seq BIGINT GENERATED ALWAYS AS IDENTITY,
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    author TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL,
    category TEXT NOT NULL,
    body TEXT NOT NULL,
    main_image TEXT NOT NULL DEFAULT '',
    thumbnail TEXT NOT NULL DEFAULT '',
    comments JSONB NOT NULL DEFAULT '[]'::jsonb
);`,
}

const (
	userColumns = `id, email, password_hash, display_name, role, COALESCE(current_token, '')`
	postColumns = `id, title, author, created_at, category, body, main_image, thumbnail, comments`
)

// PostgresStore keeps users and posts in two tables. Comments live in a
// JSONB array on the post row.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// Pool returns the underlying pgxpool.Pool
func (s *PostgresStore) Pool() *pgxpool.Pool {
	return s.pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	for _, stmt := range postgresSchema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			pool.Close()
			return nil, fmt.Errorf("create schema: %w", err)
		}
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close(context.Context) error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

func (s *PostgresStore) CreateUser(ctx context.Context, u *models.User) error {
	id := models.NewID()
	const query = `
		INSERT INTO users (id, email, password_hash, display_name, role)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.pool.Exec(ctx, query, id, u.Email, u.PasswordHash, u.DisplayName, string(u.Role))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			switch pgErr.ConstraintName {
			case "users_email_unique":
				return &DuplicateError{Field: "email", Value: u.Email}
			case "users_display_name_unique":
				return &DuplicateError{Field: "displayName", Value: u.DisplayName}
			}
		}
		return fmt.Errorf("create user: %w", err)
	}
	u.ID = id
	return nil
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	user, err := scanUser(s.pool.QueryRow(ctx, query, email))
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return user, nil
}

func (s *PostgresStore) GetUserByToken(ctx context.Context, id, token string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 AND current_token = $2`
	user, err := scanUser(s.pool.QueryRow(ctx, query, id, token))
	if err != nil {
		return nil, fmt.Errorf("get user by token: %w", err)
	}
	return user, nil
}

func (s *PostgresStore) SetUserToken(ctx context.Context, id, token string) error {
	tag, err := s.pool.Exec(ctx, `UPDATE users SET current_token = $2 WHERE id = $1`, id, token)
	if err != nil {
		return fmt.Errorf("set user token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("set user token: %w", ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) ClearUserToken(ctx context.Context, id, token string) error {
	const query = `UPDATE users SET current_token = NULL WHERE id = $1 AND current_token = $2`
	if _, err := s.pool.Exec(ctx, query, id, token); err != nil {
		return fmt.Errorf("clear user token: %w", err)
	}
	return nil
}

func (s *PostgresStore) HasUserWithRole(ctx context.Context, role models.Role) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE role = $1)`, string(role)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("count users by role: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) ListPosts(ctx context.Context) ([]models.Post, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+postColumns+` FROM posts ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	posts := make([]models.Post, 0)
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, *post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return posts, nil
}

func (s *PostgresStore) CreatePost(ctx context.Context, p *models.Post) error {
	id := models.NewID()
	const query = `
		INSERT INTO posts (id, title, author, created_at, category, body, main_image, thumbnail)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.pool.Exec(ctx, query, id, p.Title, p.Author, p.CreatedAt, p.Category, p.Body, p.MainImage, p.Thumbnail)
	if err != nil {
		return fmt.Errorf("create post: %w", err)
	}
	p.ID = id
	p.Comments = []models.Comment{}
	return nil
}

func (s *PostgresStore) UpdatePost(ctx context.Context, id string, patch models.PostPatch) (*models.Post, error) {
	query := `
		UPDATE posts SET
			title = COALESCE($2, title),
			category = COALESCE($3, category),
			body = COALESCE($4, body),
			main_image = COALESCE($5, main_image),
			thumbnail = COALESCE($6, thumbnail)
		WHERE id = $1
		RETURNING ` + postColumns
	post, err := scanPost(s.pool.QueryRow(ctx, query, id, patch.Title, patch.Category, patch.Body, patch.MainImage, patch.Thumbnail))
	if err != nil {
		return nil, fmt.Errorf("update post: %w", err)
	}
	return post, nil
}

func (s *PostgresStore) DeletePost(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete post: %w", ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) AppendComment(ctx context.Context, id string, c models.Comment) error {
	raw, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode comment: %w", err)
	}
	const query = `UPDATE posts SET comments = comments || jsonb_build_array($2::jsonb) WHERE id = $1`
	tag, err := s.pool.Exec(ctx, query, id, raw)
	if err != nil {
		return fmt.Errorf("append comment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("append comment: %w", ErrNotFound)
	}
	return nil
}

func scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	var role string
	err := row.Scan(&user.ID, &user.Email, &user.PasswordHash, &user.DisplayName, &role, &user.CurrentToken)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	user.Role = models.Role(role)
	return &user, nil
}

func scanPost(row pgx.Row) (*models.Post, error) {
	var post models.Post
	var comments []byte
	err := row.Scan(
		&post.ID,
		&post.Title,
		&post.Author,
		&post.CreatedAt,
		&post.Category,
		&post.Body,
		&post.MainImage,
		&post.Thumbnail,
		&comments,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	post.Comments = []models.Comment{}
	if len(comments) > 0 {
		if err := json.Unmarshal(comments, &post.Comments); err != nil {
			return nil, fmt.Errorf("decode comments: %w", err)
		}
	}
	return &post, nil
}
