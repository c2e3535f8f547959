package pose

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/asanalab/flowbuilder/internal/middleware"
	"github.com/asanalab/flowbuilder/internal/models"
)

// Images larger than this are refused outright.
const maxImageBytes = 8 << 20

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// LibraryStore defines the interface for pose library persistence.
type LibraryStore interface {
	CreatePose(ctx context.Context, name string) (*models.Pose, error)
	GetPose(ctx context.Context, id string) (*models.Pose, error)
	ListPoses(ctx context.Context) ([]models.Pose, error)
	RenamePose(ctx context.Context, id, name string) error
	DeletePose(ctx context.Context, id string) ([]string, error)
	CreateVariation(ctx context.Context, poseID, name, cue string) (*models.PoseVariation, error)
	GetVariation(ctx context.Context, id string) (*models.PoseVariation, error)
	UpdateVariation(ctx context.Context, id, name, cue string) error
	SetDefaultVariation(ctx context.Context, poseID, variationID string) error
	SetVariationImage(ctx context.Context, id, imageKey string) error
	DeleteVariation(ctx context.Context, id string) (string, error)
}

// FileStore defines the interface for image storage.
type FileStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	Download(ctx context.Context, key string) ([]byte, string, error)
	Remove(ctx context.Context, key string) error
	RemoveAll(ctx context.Context, keys []string) error
}

// Handler holds pose library HTTP handlers.
type Handler struct {
	store  LibraryStore
	images FileStore
}

func NewHandler(store LibraryStore, images FileStore) *Handler {
	return &Handler{store: store, images: images}
}

// Create adds a pose to the library.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreatePoseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "name is required")
		return
	}

	p, err := h.store.CreatePose(r.Context(), req.Name)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusConflict, "pose already exists or database error")
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, p)
}

// List returns the whole pose library without variations.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	poses, err := h.store.ListPoses(r.Context())
	if err != nil {
		middleware.ErrorResponse(w, http.StatusInternalServerError, "database error")
		return
	}
	if poses == nil {
		poses = []models.Pose{}
	}
	middleware.WriteJSON(w, http.StatusOK, poses)
}

// Get returns one pose with its variations.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.store.GetPose(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		middleware.ErrorResponse(w, http.StatusNotFound, "not found")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, p)
}

// Rename updates a pose's name.
func (h *Handler) Rename(w http.ResponseWriter, r *http.Request) {
	var req models.CreatePoseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "name is required")
		return
	}
	if err := h.store.RenamePose(r.Context(), chi.URLParam(r, "id"), req.Name); err != nil {
		middleware.ErrorResponse(w, http.StatusNotFound, "not found")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"message": "renamed"})
}

// Delete removes a pose, its variations, and their images.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	imageKeys, err := h.store.DeletePose(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		middleware.ErrorResponse(w, http.StatusNotFound, "not found")
		return
	}
	if err := h.images.RemoveAll(r.Context(), imageKeys); err != nil {
		log.Printf("image cleanup error: %v", err)
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"message": "deleted"})
}

// CreateVariation adds a variation under a pose.
func (h *Handler) CreateVariation(w http.ResponseWriter, r *http.Request) {
	var req models.VariationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "name is required")
		return
	}

	poseID := chi.URLParam(r, "id")
	v, err := h.store.CreateVariation(r.Context(), poseID, req.Name, req.Cue)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusConflict, "variation already exists or database error")
		return
	}
	if req.IsDefault {
		if err := h.store.SetDefaultVariation(r.Context(), poseID, v.ID); err == nil {
			v.IsDefault = true
		}
	}
	middleware.WriteJSON(w, http.StatusCreated, v)
}

// UpdateVariation updates a variation's name and cue, and optionally
// promotes it to its pose's default.
func (h *Handler) UpdateVariation(w http.ResponseWriter, r *http.Request) {
	var req models.VariationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "name is required")
		return
	}

	id := chi.URLParam(r, "id")
	v, err := h.store.GetVariation(r.Context(), id)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusNotFound, "not found")
		return
	}
	if err := h.store.UpdateVariation(r.Context(), id, req.Name, req.Cue); err != nil {
		middleware.ErrorResponse(w, http.StatusInternalServerError, "database error")
		return
	}
	if req.IsDefault && !v.IsDefault {
		if err := h.store.SetDefaultVariation(r.Context(), v.PoseID, id); err != nil {
			middleware.ErrorResponse(w, http.StatusInternalServerError, "database error")
			return
		}
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"message": "updated"})
}

// DeleteVariation removes a variation and its image.
func (h *Handler) DeleteVariation(w http.ResponseWriter, r *http.Request) {
	imageKey, err := h.store.DeleteVariation(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		middleware.ErrorResponse(w, http.StatusNotFound, "not found")
		return
	}
	if imageKey != "" {
		if err := h.images.Remove(r.Context(), imageKey); err != nil {
			log.Printf("image cleanup error for %s: %v", imageKey, err)
		}
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"message": "deleted"})
}

// UploadImage accepts a multipart image for a variation, replacing any
// previous one.
func (h *Handler) UploadImage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	v, err := h.store.GetVariation(r.Context(), id)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusNotFound, "not found")
		return
	}

	if err := r.ParseMultipartForm(maxImageBytes); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "image file is required")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !allowedImageTypes[contentType] {
		middleware.ErrorResponse(w, http.StatusUnsupportedMediaType, "only jpeg, png, and webp images are accepted")
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, maxImageBytes+1))
	if err != nil {
		middleware.ErrorResponse(w, http.StatusInternalServerError, "read failed")
		return
	}
	if len(data) > maxImageBytes {
		middleware.ErrorResponse(w, http.StatusRequestEntityTooLarge, "image too large")
		return
	}

	key := fmt.Sprintf("variations/%s", uuid.New().String())
	if err := h.images.Upload(r.Context(), key, data, contentType); err != nil {
		log.Printf("image upload error: %v", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "upload failed")
		return
	}
	if err := h.store.SetVariationImage(r.Context(), id, key); err != nil {
		h.images.Remove(r.Context(), key)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "database error")
		return
	}
	if v.ImageKey != "" {
		if err := h.images.Remove(r.Context(), v.ImageKey); err != nil {
			log.Printf("image cleanup error for %s: %v", v.ImageKey, err)
		}
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]string{"image_key": key})
}

// GetImage streams a variation's image.
func (h *Handler) GetImage(w http.ResponseWriter, r *http.Request) {
	v, err := h.store.GetVariation(r.Context(), chi.URLParam(r, "id"))
	if err != nil || v.ImageKey == "" {
		middleware.ErrorResponse(w, http.StatusNotFound, "image not available")
		return
	}

	data, ct, err := h.images.Download(r.Context(), v.ImageKey)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusInternalServerError, "download failed")
		return
	}
	w.Header().Set("Content-Type", ct)
	w.Write(data)
}
