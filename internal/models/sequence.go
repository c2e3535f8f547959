package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Entry kinds inside a section.
const (
	EntryPose  = "pose"
	EntryGroup = "group"
)

// PoseInstance is one timed occurrence of a pose inside a sequence.
// Label is denormalized from the pose/variation name so playback does
// not need a library lookup.
type PoseInstance struct {
	PoseID      string `json:"pose_id"       bson:"pose_id"`
	VariationID string `json:"variation_id"  bson:"variation_id,omitempty"`
	Label       string `json:"label"         bson:"label"`
	Cue         string `json:"cue"           bson:"cue,omitempty"`
	DurationSec int    `json:"duration_sec"  bson:"duration_sec"`
	Side        string `json:"side"          bson:"side,omitempty"` // "", "left", "right"
}

// Substitution replaces the pose at Entry (index into Group.Entries)
// with Replace, but only on the given 1-based round.
type Substitution struct {
	Round   int          `json:"round"   bson:"round"`
	Entry   int          `json:"entry"   bson:"entry"`
	Replace PoseInstance `json:"replace" bson:"replace"`
}

// Group is a repeatable block of pose instances.
type Group struct {
	Name          string         `json:"name"          bson:"name,omitempty"`
	Rounds        int            `json:"rounds"        bson:"rounds"`
	Entries       []PoseInstance `json:"entries"       bson:"entries"`
	Substitutions []Substitution `json:"substitutions" bson:"substitutions,omitempty"`
}

// Entry is one slot in a section: either a single pose instance or a
// repeatable group, discriminated by Kind.
type Entry struct {
	Kind  string        `json:"kind"            bson:"kind"`
	Pose  *PoseInstance `json:"pose,omitempty"  bson:"pose,omitempty"`
	Group *Group        `json:"group,omitempty" bson:"group,omitempty"`
}

// Section is a named, ordered run of entries.
type Section struct {
	Name    string  `json:"name"    bson:"name"`
	Entries []Entry `json:"entries" bson:"entries"`
}

// Sequence is a full practice stored in MongoDB.
type Sequence struct {
	ID          primitive.ObjectID `json:"id"          bson:"_id,omitempty"`
	OwnerID     string             `json:"owner_id"    bson:"owner_id"`
	Name        string             `json:"name"        bson:"name"`
	Description string             `json:"description" bson:"description,omitempty"`
	Sections    []Section          `json:"sections"    bson:"sections"`
	CreatedAt   time.Time          `json:"created_at"  bson:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"  bson:"updated_at"`
}

// SequenceRequest is the JSON body for creating or updating a sequence.
type SequenceRequest struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Sections    []Section `json:"sections"`
}
