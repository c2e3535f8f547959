package sequence

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/asanalab/flowbuilder/internal/middleware"
	"github.com/asanalab/flowbuilder/internal/models"
	"github.com/asanalab/flowbuilder/internal/playback"
)

// SequenceStore defines the interface for sequence persistence.
type SequenceStore interface {
	Insert(ctx context.Context, seq *models.Sequence) (string, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Sequence, error)
	GetByID(ctx context.Context, id string) (*models.Sequence, error)
	Update(ctx context.Context, id string, req models.SequenceRequest) error
	Delete(ctx context.Context, id string) error
}

// Handler holds sequence HTTP handlers.
type Handler struct {
	store SequenceStore
}

func NewHandler(store SequenceStore) *Handler {
	return &Handler{store: store}
}

// validate rejects malformed section structures before they reach the
// database: unknown entry kinds, groups without rounds, substitutions
// pointing outside their group.
func validate(req *models.SequenceRequest) error {
	if req.Name == "" {
		return fmt.Errorf("name is required")
	}
	for si, sec := range req.Sections {
		for ei, e := range sec.Entries {
			switch e.Kind {
			case models.EntryPose:
				if e.Pose == nil {
					return fmt.Errorf("section %d entry %d: pose entry without a pose", si, ei)
				}
			case models.EntryGroup:
				g := e.Group
				if g == nil {
					return fmt.Errorf("section %d entry %d: group entry without a group", si, ei)
				}
				if g.Rounds < 1 {
					return fmt.Errorf("section %d entry %d: group needs at least one round", si, ei)
				}
				for _, sub := range g.Substitutions {
					if sub.Round < 1 || sub.Round > g.Rounds {
						return fmt.Errorf("section %d entry %d: substitution round %d out of range", si, ei, sub.Round)
					}
					if sub.Entry < 0 || sub.Entry >= len(g.Entries) {
						return fmt.Errorf("section %d entry %d: substitution entry %d out of range", si, ei, sub.Entry)
					}
				}
			default:
				return fmt.Errorf("section %d entry %d: unknown kind %q", si, ei, e.Kind)
			}
		}
	}
	return nil
}

// owned fetches a sequence and checks ownership. Someone else's
// sequence reads as not-found.
func (h *Handler) owned(r *http.Request) (*models.Sequence, error) {
	seq, err := h.store.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		return nil, err
	}
	if seq.OwnerID != middleware.UserID(r) {
		return nil, fmt.Errorf("not owner")
	}
	return seq, nil
}

// Create stores a new sequence for the current user.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.SequenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate(&req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	seq := &models.Sequence{
		OwnerID:     middleware.UserID(r),
		Name:        req.Name,
		Description: req.Description,
		Sections:    req.Sections,
	}
	id, err := h.store.Insert(r.Context(), seq)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusInternalServerError, "failed to save sequence")
		return
	}

	saved, err := h.store.GetByID(r.Context(), id)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusInternalServerError, "failed to save sequence")
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, saved)
}

// List returns all sequences of the current user.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	seqs, err := h.store.ListByOwner(r.Context(), middleware.UserID(r))
	if err != nil {
		middleware.ErrorResponse(w, http.StatusInternalServerError, "database error")
		return
	}
	if seqs == nil {
		seqs = []models.Sequence{}
	}
	middleware.WriteJSON(w, http.StatusOK, seqs)
}

// Get returns a single sequence.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	seq, err := h.owned(r)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusNotFound, "not found")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, seq)
}

// Update replaces a sequence's name, description, and sections.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	if _, err := h.owned(r); err != nil {
		middleware.ErrorResponse(w, http.StatusNotFound, "not found")
		return
	}

	var req models.SequenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate(&req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.store.Update(r.Context(), chi.URLParam(r, "id"), req); err != nil {
		middleware.ErrorResponse(w, http.StatusInternalServerError, "update failed")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"message": "updated"})
}

// Delete removes a sequence.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if _, err := h.owned(r); err != nil {
		middleware.ErrorResponse(w, http.StatusNotFound, "not found")
		return
	}
	if err := h.store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		middleware.ErrorResponse(w, http.StatusInternalServerError, "delete failed")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"message": "deleted"})
}

// Duplicate copies a sequence under a "(copy)" name.
func (h *Handler) Duplicate(w http.ResponseWriter, r *http.Request) {
	seq, err := h.owned(r)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusNotFound, "not found")
		return
	}

	copySeq := &models.Sequence{
		OwnerID:     seq.OwnerID,
		Name:        seq.Name + " (copy)",
		Description: seq.Description,
		Sections:    seq.Sections,
	}
	id, err := h.store.Insert(r.Context(), copySeq)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusInternalServerError, "failed to save copy")
		return
	}
	saved, err := h.store.GetByID(r.Context(), id)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusInternalServerError, "failed to save copy")
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, saved)
}

// Timeline returns the flattened playback timeline for a sequence.
func (h *Handler) Timeline(w http.ResponseWriter, r *http.Request) {
	seq, err := h.owned(r)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusNotFound, "not found")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, playback.Flatten(seq))
}
