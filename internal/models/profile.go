package models

import "time"

// Profile is an instructor's public-facing page, one row per user.
type Profile struct {
	ID          string          `json:"id"`
	UserID      string          `json:"user_id"`
	DisplayName string          `json:"display_name"`
	Bio         string          `json:"bio"`
	PaymentLink string          `json:"payment_link"`
	PlaylistURL string          `json:"playlist_url"`
	PhotoKey    string          `json:"photo_key,omitempty"`
	ShareSlug   string          `json:"share_slug"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	Schedule    []ScheduleEvent `json:"schedule,omitempty"`
}

// ScheduleEvent is one class on an instructor's schedule.
type ScheduleEvent struct {
	ID        string    `json:"id"`
	ProfileID string    `json:"profile_id"`
	Title     string    `json:"title"`
	Location  string    `json:"location"`
	StartsAt  time.Time `json:"starts_at"`
	EndsAt    time.Time `json:"ends_at"`
}

// ProfileRequest is the JSON body for PUT /api/profile.
type ProfileRequest struct {
	DisplayName string `json:"display_name"`
	Bio         string `json:"bio"`
	PaymentLink string `json:"payment_link"`
	PlaylistURL string `json:"playlist_url"`
}

// ScheduleEventRequest is the JSON body for schedule event create/update.
type ScheduleEventRequest struct {
	Title    string    `json:"title"`
	Location string    `json:"location"`
	StartsAt time.Time `json:"starts_at"`
	EndsAt   time.Time `json:"ends_at"`
}
