package store

import (
	"context"
	"fmt"

	"github.com/asanalab/flowbuilder/internal/models"
)

func (s *PostgresStore) scanProfile(row interface{ Scan(...any) error }) (*models.Profile, error) {
	var p models.Profile
	err := row.Scan(&p.ID, &p.UserID, &p.DisplayName, &p.Bio, &p.PaymentLink,
		&p.PlaylistURL, &p.PhotoKey, &p.ShareSlug, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

const profileColumns = `id, user_id, display_name, bio, payment_link, playlist_url,
	photo_key, share_slug, created_at, updated_at`

func (s *PostgresStore) GetProfileByUserID(ctx context.Context, userID string) (*models.Profile, error) {
	return s.scanProfile(s.pool.QueryRow(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE user_id = $1`, userID))
}

// GetProfileBySlug resolves a public share slug. Profiles of banned
// users are not visible here.
func (s *PostgresStore) GetProfileBySlug(ctx context.Context, slug string) (*models.Profile, error) {
	return s.scanProfile(s.pool.QueryRow(ctx,
		`SELECT p.id, p.user_id, p.display_name, p.bio, p.payment_link, p.playlist_url,
		        p.photo_key, p.share_slug, p.created_at, p.updated_at
		 FROM profiles p JOIN users u ON u.id = p.user_id
		 WHERE p.share_slug = $1 AND NOT u.is_banned`, slug))
}

func (s *PostgresStore) UpdateProfile(ctx context.Context, userID string, req models.ProfileRequest) (*models.Profile, error) {
	p, err := s.scanProfile(s.pool.QueryRow(ctx,
		`UPDATE profiles
		 SET display_name = $2, bio = $3, payment_link = $4, playlist_url = $5, updated_at = NOW()
		 WHERE user_id = $1
		 RETURNING `+profileColumns,
		userID, req.DisplayName, req.Bio, req.PaymentLink, req.PlaylistURL))
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) SetProfilePhoto(ctx context.Context, userID, photoKey string) (string, error) {
	var old string
	err := s.pool.QueryRow(ctx,
		`UPDATE profiles SET photo_key = $2, updated_at = NOW()
		 WHERE user_id = $1
		 RETURNING (SELECT photo_key FROM profiles WHERE user_id = $1)`,
		userID, photoKey,
	).Scan(&old)
	if err != nil {
		return "", fmt.Errorf("set photo: %w", err)
	}
	return old, nil
}

func (s *PostgresStore) ListScheduleEvents(ctx context.Context, profileID string) ([]models.ScheduleEvent, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, profile_id, title, location, starts_at, ends_at
		 FROM schedule_events WHERE profile_id = $1 ORDER BY starts_at`, profileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []models.ScheduleEvent
	for rows.Next() {
		var e models.ScheduleEvent
		if err := rows.Scan(&e.ID, &e.ProfileID, &e.Title, &e.Location, &e.StartsAt, &e.EndsAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (s *PostgresStore) CreateScheduleEvent(ctx context.Context, profileID string, req models.ScheduleEventRequest) (*models.ScheduleEvent, error) {
	var e models.ScheduleEvent
	err := s.pool.QueryRow(ctx,
		`INSERT INTO schedule_events (profile_id, title, location, starts_at, ends_at)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, profile_id, title, location, starts_at, ends_at`,
		profileID, req.Title, req.Location, req.StartsAt, req.EndsAt,
	).Scan(&e.ID, &e.ProfileID, &e.Title, &e.Location, &e.StartsAt, &e.EndsAt)
	if err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	return &e, nil
}

func (s *PostgresStore) UpdateScheduleEvent(ctx context.Context, profileID, eventID string, req models.ScheduleEventRequest) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE schedule_events SET title = $3, location = $4, starts_at = $5, ends_at = $6
		 WHERE id = $2 AND profile_id = $1`,
		profileID, eventID, req.Title, req.Location, req.StartsAt, req.EndsAt)
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) DeleteScheduleEvent(ctx context.Context, profileID, eventID string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM schedule_events WHERE id = $2 AND profile_id = $1`, profileID, eventID)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListProfiles returns every profile with its owner's ban state, for export.
func (s *PostgresStore) ListProfiles(ctx context.Context) ([]models.Profile, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+profileColumns+` FROM profiles ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []models.Profile
	for rows.Next() {
		p, err := s.scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, *p)
	}
	return profiles, rows.Err()
}
