package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/asanalab/flowbuilder/internal/models"
)

// PostgresStore handles relational CRUD against PostgreSQL: users,
// instructor profiles, schedule events, and the pose library.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Migrate creates the schema if it doesn't exist. Cascading foreign keys
// carry the delete semantics: removing a pose removes its variations,
// removing a user removes profile and schedule.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id         UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			username   VARCHAR(50)  UNIQUE NOT NULL,
			email      VARCHAR(255) UNIQUE NOT NULL,
			password   VARCHAR(255) NOT NULL,
			is_admin   BOOLEAN      NOT NULL DEFAULT FALSE,
			is_banned  BOOLEAN      NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ  DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS profiles (
			id           UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			user_id      UUID UNIQUE NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			display_name VARCHAR(100) NOT NULL DEFAULT '',
			bio          TEXT         NOT NULL DEFAULT '',
			payment_link VARCHAR(500) NOT NULL DEFAULT '',
			playlist_url VARCHAR(500) NOT NULL DEFAULT '',
			photo_key    VARCHAR(255) NOT NULL DEFAULT '',
			share_slug   VARCHAR(100) UNIQUE NOT NULL,
			created_at   TIMESTAMPTZ DEFAULT NOW(),
			updated_at   TIMESTAMPTZ DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS schedule_events (
			id         UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			profile_id UUID NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
			title      VARCHAR(200) NOT NULL,
			location   VARCHAR(200) NOT NULL DEFAULT '',
			starts_at  TIMESTAMPTZ NOT NULL,
			ends_at    TIMESTAMPTZ NOT NULL
		);

		CREATE TABLE IF NOT EXISTS poses (
			id         UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			name       VARCHAR(100) UNIQUE NOT NULL,
			created_at TIMESTAMPTZ DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS pose_variations (
			id         UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			pose_id    UUID NOT NULL REFERENCES poses(id) ON DELETE CASCADE,
			name       VARCHAR(100) NOT NULL,
			cue        TEXT         NOT NULL DEFAULT '',
			image_key  VARCHAR(255) NOT NULL DEFAULT '',
			is_default BOOLEAN      NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ DEFAULT NOW(),
			UNIQUE (pose_id, name)
		);

		CREATE INDEX IF NOT EXISTS idx_schedule_profile ON schedule_events(profile_id, starts_at);
		CREATE INDEX IF NOT EXISTS idx_variations_pose ON pose_variations(pose_id)
	`)
	return err
}

func (s *PostgresStore) CreateUser(ctx context.Context, username, email, hashedPassword, shareSlug string) (*models.User, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	defer tx.Rollback(ctx)

	var u models.User
	err = tx.QueryRow(ctx,
		`INSERT INTO users (username, email, password)
		 VALUES ($1, $2, $3)
		 RETURNING id, username, email, is_admin, is_banned, created_at`,
		username, email, hashedPassword,
	).Scan(&u.ID, &u.Username, &u.Email, &u.IsAdmin, &u.IsBanned, &u.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	// Every user gets an empty profile; the share slug is reserved up front.
	_, err = tx.Exec(ctx,
		`INSERT INTO profiles (user_id, display_name, share_slug) VALUES ($1, $2, $3)`,
		u.ID, username, shareSlug,
	)
	if err != nil {
		return nil, fmt.Errorf("create profile: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &u, nil
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := s.pool.QueryRow(ctx,
		`SELECT id, username, email, password, is_admin, is_banned, created_at
		 FROM users WHERE email = $1`, email,
	).Scan(&u.ID, &u.Username, &u.Email, &u.Password, &u.IsAdmin, &u.IsBanned, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *PostgresStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	err := s.pool.QueryRow(ctx,
		`SELECT id, username, email, is_admin, is_banned, created_at
		 FROM users WHERE id = $1`, id,
	).Scan(&u.ID, &u.Username, &u.Email, &u.IsAdmin, &u.IsBanned, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *PostgresStore) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, username, email, is_admin, is_banned, created_at
		 FROM users ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.IsAdmin, &u.IsBanned, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// SetBanned flips the ban flag and returns the affected user's profile
// slug so callers can invalidate the public page cache.
func (s *PostgresStore) SetBanned(ctx context.Context, userID string, banned bool) (string, error) {
	var slug string
	err := s.pool.QueryRow(ctx,
		`UPDATE users SET is_banned = $2 WHERE id = $1
		 RETURNING (SELECT share_slug FROM profiles WHERE user_id = $1)`,
		userID, banned,
	).Scan(&slug)
	if err != nil {
		return "", fmt.Errorf("set banned: %w", err)
	}
	return slug, nil
}
