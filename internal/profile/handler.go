package profile

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/asanalab/flowbuilder/internal/middleware"
	"github.com/asanalab/flowbuilder/internal/models"
)

const maxPhotoBytes = 8 << 20

var allowedPhotoTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// ProfileStore defines the interface for profile and user persistence.
type ProfileStore interface {
	GetProfileByUserID(ctx context.Context, userID string) (*models.Profile, error)
	GetProfileBySlug(ctx context.Context, slug string) (*models.Profile, error)
	UpdateProfile(ctx context.Context, userID string, req models.ProfileRequest) (*models.Profile, error)
	SetProfilePhoto(ctx context.Context, userID, photoKey string) (string, error)
	ListScheduleEvents(ctx context.Context, profileID string) ([]models.ScheduleEvent, error)
	CreateScheduleEvent(ctx context.Context, profileID string, req models.ScheduleEventRequest) (*models.ScheduleEvent, error)
	UpdateScheduleEvent(ctx context.Context, profileID, eventID string, req models.ScheduleEventRequest) error
	DeleteScheduleEvent(ctx context.Context, profileID, eventID string) error
	ListUsers(ctx context.Context) ([]models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	SetBanned(ctx context.Context, userID string, banned bool) (string, error)
}

// FileStore defines the interface for photo storage.
type FileStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	Download(ctx context.Context, key string) ([]byte, string, error)
	Remove(ctx context.Context, key string) error
}

// PageCache caches rendered public share pages by slug.
type PageCache interface {
	Get(ctx context.Context, slug string) ([]byte, error)
	Set(ctx context.Context, slug string, page []byte) error
	Invalidate(ctx context.Context, slug string) error
}

// SessionRevoker drops every live session of a user (used on ban).
type SessionRevoker interface {
	Revoke(ctx context.Context, userID string) error
}

// Mailer sends moderation emails; implementations must not block.
type Mailer interface {
	SendBanNotice(email, username string)
}

// Handler holds profile, share page, and admin HTTP handlers.
type Handler struct {
	store    ProfileStore
	photos   FileStore
	cache    PageCache
	sessions SessionRevoker
	mailer   Mailer
}

func NewHandler(store ProfileStore, photos FileStore, cache PageCache, sessions SessionRevoker, mailer Mailer) *Handler {
	return &Handler{store: store, photos: photos, cache: cache, sessions: sessions, mailer: mailer}
}

// Me returns the current user's profile with its schedule.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	p, err := h.store.GetProfileByUserID(r.Context(), middleware.UserID(r))
	if err != nil {
		middleware.ErrorResponse(w, http.StatusNotFound, "profile not found")
		return
	}
	p.Schedule, err = h.store.ListScheduleEvents(r.Context(), p.ID)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusInternalServerError, "database error")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, p)
}

// Update edits the current user's profile fields.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req models.ProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}
	p, err := h.store.UpdateProfile(r.Context(), middleware.UserID(r), req)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusInternalServerError, "update failed")
		return
	}
	h.cache.Invalidate(r.Context(), p.ShareSlug)
	middleware.WriteJSON(w, http.StatusOK, p)
}

// UploadPhoto accepts a multipart profile photo, replacing any previous one.
func (h *Handler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r)

	if err := r.ParseMultipartForm(maxPhotoBytes); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, header, err := r.FormFile("photo")
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "photo file is required")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !allowedPhotoTypes[contentType] {
		middleware.ErrorResponse(w, http.StatusUnsupportedMediaType, "only jpeg, png, and webp images are accepted")
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, maxPhotoBytes+1))
	if err != nil {
		middleware.ErrorResponse(w, http.StatusInternalServerError, "read failed")
		return
	}
	if len(data) > maxPhotoBytes {
		middleware.ErrorResponse(w, http.StatusRequestEntityTooLarge, "photo too large")
		return
	}

	key := fmt.Sprintf("profiles/%s", uuid.New().String())
	if err := h.photos.Upload(r.Context(), key, data, contentType); err != nil {
		log.Printf("photo upload error: %v", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "upload failed")
		return
	}
	oldKey, err := h.store.SetProfilePhoto(r.Context(), userID, key)
	if err != nil {
		h.photos.Remove(r.Context(), key)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "database error")
		return
	}
	if oldKey != "" {
		if err := h.photos.Remove(r.Context(), oldKey); err != nil {
			log.Printf("photo cleanup error for %s: %v", oldKey, err)
		}
	}

	if p, err := h.store.GetProfileByUserID(r.Context(), userID); err == nil {
		h.cache.Invalidate(r.Context(), p.ShareSlug)
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"photo_key": key})
}

func (h *Handler) ownProfile(r *http.Request) (*models.Profile, error) {
	return h.store.GetProfileByUserID(r.Context(), middleware.UserID(r))
}

// ListSchedule returns the current user's schedule events.
func (h *Handler) ListSchedule(w http.ResponseWriter, r *http.Request) {
	p, err := h.ownProfile(r)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusNotFound, "profile not found")
		return
	}
	events, err := h.store.ListScheduleEvents(r.Context(), p.ID)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusInternalServerError, "database error")
		return
	}
	if events == nil {
		events = []models.ScheduleEvent{}
	}
	middleware.WriteJSON(w, http.StatusOK, events)
}

// CreateScheduleEvent adds one class to the schedule.
func (h *Handler) CreateScheduleEvent(w http.ResponseWriter, r *http.Request) {
	p, err := h.ownProfile(r)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusNotFound, "profile not found")
		return
	}

	var req models.ScheduleEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Title == "" || req.StartsAt.IsZero() || req.EndsAt.IsZero() || !req.EndsAt.After(req.StartsAt) {
		middleware.ErrorResponse(w, http.StatusBadRequest, "title and a valid time range are required")
		return
	}

	e, err := h.store.CreateScheduleEvent(r.Context(), p.ID, req)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusInternalServerError, "database error")
		return
	}
	h.cache.Invalidate(r.Context(), p.ShareSlug)
	middleware.WriteJSON(w, http.StatusCreated, e)
}

// UpdateScheduleEvent edits one schedule event.
func (h *Handler) UpdateScheduleEvent(w http.ResponseWriter, r *http.Request) {
	p, err := h.ownProfile(r)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusNotFound, "profile not found")
		return
	}

	var req models.ScheduleEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Title == "" || !req.EndsAt.After(req.StartsAt) {
		middleware.ErrorResponse(w, http.StatusBadRequest, "title and a valid time range are required")
		return
	}

	if err := h.store.UpdateScheduleEvent(r.Context(), p.ID, chi.URLParam(r, "eventID"), req); err != nil {
		middleware.ErrorResponse(w, http.StatusNotFound, "not found")
		return
	}
	h.cache.Invalidate(r.Context(), p.ShareSlug)
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"message": "updated"})
}

// DeleteScheduleEvent removes one schedule event.
func (h *Handler) DeleteScheduleEvent(w http.ResponseWriter, r *http.Request) {
	p, err := h.ownProfile(r)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusNotFound, "profile not found")
		return
	}
	if err := h.store.DeleteScheduleEvent(r.Context(), p.ID, chi.URLParam(r, "eventID")); err != nil {
		middleware.ErrorResponse(w, http.StatusNotFound, "not found")
		return
	}
	h.cache.Invalidate(r.Context(), p.ShareSlug)
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"message": "deleted"})
}

// sharePage is what the public sees: profile plus upcoming classes.
type sharePage struct {
	Profile  *models.Profile        `json:"profile"`
	Upcoming []models.ScheduleEvent `json:"upcoming"`
}

// Share serves the public profile page for a slug, from cache when
// fresh. Banned instructors' pages read as not-found.
func (h *Handler) Share(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	if page, err := h.cache.Get(r.Context(), slug); err == nil && page != nil {
		w.Header().Set("Content-Type", "application/json")
		w.Write(page)
		return
	}

	p, err := h.store.GetProfileBySlug(r.Context(), slug)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusNotFound, "not found")
		return
	}

	events, err := h.store.ListScheduleEvents(r.Context(), p.ID)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusInternalServerError, "database error")
		return
	}
	now := time.Now()
	upcoming := []models.ScheduleEvent{}
	for _, e := range events {
		if e.EndsAt.After(now) {
			upcoming = append(upcoming, e)
		}
	}

	page, err := json.Marshal(sharePage{Profile: p, Upcoming: upcoming})
	if err != nil {
		middleware.ErrorResponse(w, http.StatusInternalServerError, "internal error")
		return
	}
	if err := h.cache.Set(r.Context(), slug, page); err != nil {
		log.Printf("share cache set error: %v", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(page)
}

// SharePhoto streams the profile photo for a public slug.
func (h *Handler) SharePhoto(w http.ResponseWriter, r *http.Request) {
	p, err := h.store.GetProfileBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil || p.PhotoKey == "" {
		middleware.ErrorResponse(w, http.StatusNotFound, "photo not available")
		return
	}
	data, ct, err := h.photos.Download(r.Context(), p.PhotoKey)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusInternalServerError, "download failed")
		return
	}
	w.Header().Set("Content-Type", ct)
	w.Write(data)
}

// ListUsers returns every account, for the admin screen.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.ListUsers(r.Context())
	if err != nil {
		middleware.ErrorResponse(w, http.StatusInternalServerError, "database error")
		return
	}
	if users == nil {
		users = []models.User{}
	}
	middleware.WriteJSON(w, http.StatusOK, users)
}

// Ban disables an account: flag set, sessions revoked, share page
// dropped from cache, ban notice emailed.
func (h *Handler) Ban(w http.ResponseWriter, r *http.Request) {
	h.setBanned(w, r, true)
}

// Unban re-enables an account.
func (h *Handler) Unban(w http.ResponseWriter, r *http.Request) {
	h.setBanned(w, r, false)
}

func (h *Handler) setBanned(w http.ResponseWriter, r *http.Request, banned bool) {
	userID := chi.URLParam(r, "id")
	user, err := h.store.GetUserByID(r.Context(), userID)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusNotFound, "user not found")
		return
	}

	slug, err := h.store.SetBanned(r.Context(), userID, banned)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusInternalServerError, "database error")
		return
	}
	h.cache.Invalidate(r.Context(), slug)

	if banned {
		if err := h.sessions.Revoke(r.Context(), userID); err != nil {
			log.Printf("session revoke error for %s: %v", userID, err)
		}
		if h.mailer != nil {
			h.mailer.SendBanNotice(user.Email, user.Username)
		}
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]bool{"is_banned": banned})
}
