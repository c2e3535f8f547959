package models

import "time"

// Pose is a named posture in the shared library.
type Pose struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	CreatedAt  time.Time       `json:"created_at"`
	Variations []PoseVariation `json:"variations,omitempty"`
}

// PoseVariation is a named sub-form of a pose. ImageKey and Cue may be
// empty; at most one variation per pose carries the default flag.
type PoseVariation struct {
	ID        string    `json:"id"`
	PoseID    string    `json:"pose_id"`
	Name      string    `json:"name"`
	Cue       string    `json:"cue"`
	ImageKey  string    `json:"image_key,omitempty"`
	IsDefault bool      `json:"is_default"`
	CreatedAt time.Time `json:"created_at"`
}

// CreatePoseRequest is the JSON body for POST /api/poses.
type CreatePoseRequest struct {
	Name string `json:"name"`
}

// VariationRequest is the JSON body for creating or updating a variation.
type VariationRequest struct {
	Name      string `json:"name"`
	Cue       string `json:"cue"`
	IsDefault bool   `json:"is_default"`
}
