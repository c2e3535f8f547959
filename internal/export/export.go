// Package export writes pose library, profile, and sequence data to
// files for offline analysis, as JSON or CSV.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/asanalab/flowbuilder/internal/models"
)

// Formats accepted by the export tool.
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
)

// ValidFormat reports whether f names a supported output format.
func ValidFormat(f string) bool {
	return f == FormatJSON || f == FormatCSV
}

// WriteJSON writes any payload indented.
func WriteJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WritePosesCSV writes one row per variation, with pose fields repeated.
// Poses without variations still get a row.
func WritePosesCSV(w io.Writer, poses []models.Pose) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{
		"pose_id", "pose_name", "variation_id", "variation_name", "cue", "image_key", "is_default",
	}); err != nil {
		return err
	}
	for _, p := range poses {
		if len(p.Variations) == 0 {
			if err := cw.Write([]string{p.ID, p.Name, "", "", "", "", ""}); err != nil {
				return err
			}
			continue
		}
		for _, v := range p.Variations {
			err := cw.Write([]string{
				p.ID, p.Name, v.ID, v.Name, v.Cue, v.ImageKey, strconv.FormatBool(v.IsDefault),
			})
			if err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteProfilesCSV writes one row per profile.
func WriteProfilesCSV(w io.Writer, profiles []models.Profile) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{
		"id", "user_id", "display_name", "share_slug", "payment_link", "playlist_url", "created_at",
	}); err != nil {
		return err
	}
	for _, p := range profiles {
		err := cw.Write([]string{
			p.ID, p.UserID, p.DisplayName, p.ShareSlug, p.PaymentLink, p.PlaylistURL,
			p.CreatedAt.Format(time.RFC3339),
		})
		if err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteSequences writes sequences as JSON regardless of format: the
// nested section structure does not flatten into rows.
func WriteSequences(w io.Writer, seqs []models.Sequence) error {
	if seqs == nil {
		seqs = []models.Sequence{}
	}
	if err := WriteJSON(w, seqs); err != nil {
		return fmt.Errorf("write sequences: %w", err)
	}
	return nil
}
