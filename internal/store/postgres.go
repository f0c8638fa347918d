package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ayush/notes-api/internal/models"
)

const (
	pgUniqueViolation  = "23505"
	pgInvalidTextValue = "22P02"
)

// PostgresStore keeps one row per user with the posts embedded as JSONB.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Migrate creates the users table if it doesn't exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id       UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			name     TEXT         NOT NULL,
			email    VARCHAR(255) UNIQUE NOT NULL,
			password VARCHAR(255) NOT NULL,
			posts    JSONB        NOT NULL DEFAULT '[]'::jsonb
		)
	`)
	if err != nil {
		return fmt.Errorf("postgres migrate: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreateUser(ctx context.Context, name, email, hashedPassword string) (*models.User, error) {
	u := models.User{Name: name, Email: email, Password: hashedPassword, Posts: []models.Post{}}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO users (name, email, password)
		 VALUES ($1, $2, $3)
		 RETURNING id::text`,
		name, email, hashedPassword,
	).Scan(&u.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, fmt.Errorf("create user: %w", models.ErrDuplicateEmail)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &u, nil
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.queryUser(ctx,
		`SELECT id::text, name, email, password, posts FROM users WHERE email = $1`, email)
}

func (s *PostgresStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return s.queryUser(ctx,
		`SELECT id::text, name, email, password, posts FROM users WHERE id = $1::uuid`, id)
}

// SaveUser rewrites the row in a single statement.
func (s *PostgresStore) SaveUser(ctx context.Context, u *models.User) error {
	posts, err := json.Marshal(models.ClonePosts(u.Posts))
	if err != nil {
		return fmt.Errorf("encode posts: %w", err)
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE users SET name = $2, email = $3, password = $4, posts = $5::jsonb WHERE id = $1::uuid`,
		u.ID, u.Name, u.Email, u.Password, string(posts),
	)
	if err != nil {
		if isInvalidText(err) {
			return models.ErrUserNotFound
		}
		return fmt.Errorf("save user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrUserNotFound
	}
	return nil
}

func (s *PostgresStore) queryUser(ctx context.Context, query string, arg string) (*models.User, error) {
	var (
		u     models.User
		posts []byte
	)
	err := s.pool.QueryRow(ctx, query, arg).Scan(&u.ID, &u.Name, &u.Email, &u.Password, &posts)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidText(err) {
			return nil, models.ErrUserNotFound
		}
		return nil, fmt.Errorf("query user: %w", err)
	}
	if err := json.Unmarshal(posts, &u.Posts); err != nil {
		return nil, fmt.Errorf("decode posts: %w", err)
	}
	u.Posts = models.ClonePosts(u.Posts)
	return &u, nil
}

// isInvalidText reports a malformed uuid literal, which means no such user.
func isInvalidText(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgInvalidTextValue
}
