package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asanalab/flowbuilder/internal/models"
)

func TestValidFormat(t *testing.T) {
	assert.True(t, ValidFormat(FormatJSON))
	assert.True(t, ValidFormat(FormatCSV))
	assert.False(t, ValidFormat("yaml"))
	assert.False(t, ValidFormat(""))
}

func TestWritePosesCSV(t *testing.T) {
	poses := []models.Pose{
		{
			ID: "p1", Name: "Triangle",
			Variations: []models.PoseVariation{
				{ID: "v1", Name: "Classic", Cue: "Ground the back heel, reach long", IsDefault: true},
				{ID: "v2", Name: "Revolved", ImageKey: "variations/abc"},
			},
		},
		{ID: "p2", Name: "Mountain"}, // no variations
	}

	var buf bytes.Buffer
	require.NoError(t, WritePosesCSV(&buf, poses))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4) // header + 2 variations + 1 bare pose

	assert.Equal(t, "pose_id", records[0][0])
	assert.Equal(t, []string{"p1", "Triangle", "v1", "Classic", "Ground the back heel, reach long", "", "true"}, records[1])
	assert.Equal(t, "variations/abc", records[2][5])
	assert.Equal(t, []string{"p2", "Mountain", "", "", "", "", ""}, records[3])
}

func TestWriteProfilesCSV(t *testing.T) {
	created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	profiles := []models.Profile{
		{ID: "pr1", UserID: "u1", DisplayName: "Maya", ShareSlug: "maya-yoga", CreatedAt: created},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteProfilesCSV(&buf, profiles))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "maya-yoga", records[1][3])
	assert.Equal(t, "2025-03-01T12:00:00Z", records[1][6])
}

func TestWriteSequencesAlwaysJSON(t *testing.T) {
	seqs := []models.Sequence{{
		OwnerID: "u1", Name: "Morning Flow",
		Sections: []models.Section{{
			Name: "Warmup",
			Entries: []models.Entry{{
				Kind: models.EntryPose,
				Pose: &models.PoseInstance{Label: "Child's Pose", DurationSec: 60},
			}},
		}},
	}}

	var buf bytes.Buffer
	require.NoError(t, WriteSequences(&buf, seqs))

	var decoded []models.Sequence
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, "Morning Flow", decoded[0].Name)
	assert.True(t, strings.Contains(buf.String(), "\n  "), "output should be indented")
}

func TestWriteSequencesNil(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSequences(&buf, nil))
	assert.Equal(t, "[]\n", buf.String())
}
