package store

import (
	"context"
	"fmt"

	"github.com/asanalab/flowbuilder/internal/models"
)

func (s *PostgresStore) CreatePose(ctx context.Context, name string) (*models.Pose, error) {
	var p models.Pose
	err := s.pool.QueryRow(ctx,
		`INSERT INTO poses (name) VALUES ($1) RETURNING id, name, created_at`, name,
	).Scan(&p.ID, &p.Name, &p.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create pose: %w", err)
	}
	return &p, nil
}

func (s *PostgresStore) GetPose(ctx context.Context, id string) (*models.Pose, error) {
	var p models.Pose
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, created_at FROM poses WHERE id = $1`, id,
	).Scan(&p.ID, &p.Name, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	variations, err := s.ListVariations(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Variations = variations
	return &p, nil
}

func (s *PostgresStore) ListPoses(ctx context.Context) ([]models.Pose, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name, created_at FROM poses ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var poses []models.Pose
	for rows.Next() {
		var p models.Pose
		if err := rows.Scan(&p.ID, &p.Name, &p.CreatedAt); err != nil {
			return nil, err
		}
		poses = append(poses, p)
	}
	return poses, rows.Err()
}

func (s *PostgresStore) RenamePose(ctx context.Context, id, name string) error {
	tag, err := s.pool.Exec(ctx, `UPDATE poses SET name = $2 WHERE id = $1`, id, name)
	if err != nil {
		return fmt.Errorf("rename pose: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeletePose removes the pose row; variations go with it via cascade.
// Returns the image keys of the deleted variations so the caller can
// clean up object storage.
func (s *PostgresStore) DeletePose(ctx context.Context, id string) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT image_key FROM pose_variations WHERE pose_id = $1 AND image_key <> ''`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	tag, err := s.pool.Exec(ctx, `DELETE FROM poses WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("delete pose: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	return keys, nil
}

func (s *PostgresStore) CreateVariation(ctx context.Context, poseID, name, cue string) (*models.PoseVariation, error) {
	var v models.PoseVariation
	err := s.pool.QueryRow(ctx,
		`INSERT INTO pose_variations (pose_id, name, cue)
		 VALUES ($1, $2, $3)
		 RETURNING id, pose_id, name, cue, image_key, is_default, created_at`,
		poseID, name, cue,
	).Scan(&v.ID, &v.PoseID, &v.Name, &v.Cue, &v.ImageKey, &v.IsDefault, &v.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create variation: %w", err)
	}
	return &v, nil
}

func (s *PostgresStore) GetVariation(ctx context.Context, id string) (*models.PoseVariation, error) {
	var v models.PoseVariation
	err := s.pool.QueryRow(ctx,
		`SELECT id, pose_id, name, cue, image_key, is_default, created_at
		 FROM pose_variations WHERE id = $1`, id,
	).Scan(&v.ID, &v.PoseID, &v.Name, &v.Cue, &v.ImageKey, &v.IsDefault, &v.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (s *PostgresStore) ListVariations(ctx context.Context, poseID string) ([]models.PoseVariation, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, pose_id, name, cue, image_key, is_default, created_at
		 FROM pose_variations WHERE pose_id = $1 ORDER BY created_at`, poseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var variations []models.PoseVariation
	for rows.Next() {
		var v models.PoseVariation
		if err := rows.Scan(&v.ID, &v.PoseID, &v.Name, &v.Cue, &v.ImageKey, &v.IsDefault, &v.CreatedAt); err != nil {
			return nil, err
		}
		variations = append(variations, v)
	}
	return variations, rows.Err()
}

func (s *PostgresStore) UpdateVariation(ctx context.Context, id, name, cue string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE pose_variations SET name = $2, cue = $3 WHERE id = $1`, id, name, cue)
	if err != nil {
		return fmt.Errorf("update variation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetDefaultVariation marks one variation as its pose's default and
// clears the flag on siblings, in one transaction.
func (s *PostgresStore) SetDefaultVariation(ctx context.Context, poseID, variationID string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("set default: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`UPDATE pose_variations SET is_default = FALSE WHERE pose_id = $1`, poseID); err != nil {
		return fmt.Errorf("set default: %w", err)
	}
	tag, err := tx.Exec(ctx,
		`UPDATE pose_variations SET is_default = TRUE WHERE id = $1 AND pose_id = $2`,
		variationID, poseID)
	if err != nil {
		return fmt.Errorf("set default: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return tx.Commit(ctx)
}

func (s *PostgresStore) SetVariationImage(ctx context.Context, id, imageKey string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE pose_variations SET image_key = $2 WHERE id = $1`, id, imageKey)
	if err != nil {
		return fmt.Errorf("set image: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) DeleteVariation(ctx context.Context, id string) (string, error) {
	var imageKey string
	err := s.pool.QueryRow(ctx,
		`DELETE FROM pose_variations WHERE id = $1 RETURNING image_key`, id,
	).Scan(&imageKey)
	if err != nil {
		return "", err
	}
	return imageKey, nil
}

// ListVariationsMissingCue returns variations with empty cue text,
// joined with their pose name, for the bulk cue generator.
func (s *PostgresStore) ListVariationsMissingCue(ctx context.Context, limit int) ([]models.PoseVariation, map[string]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT v.id, v.pose_id, v.name, v.cue, v.image_key, v.is_default, v.created_at, p.name
		 FROM pose_variations v JOIN poses p ON p.id = v.pose_id
		 WHERE v.cue = '' ORDER BY p.name, v.name LIMIT $1`, limit)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var variations []models.PoseVariation
	poseNames := make(map[string]string)
	for rows.Next() {
		var v models.PoseVariation
		var poseName string
		if err := rows.Scan(&v.ID, &v.PoseID, &v.Name, &v.Cue, &v.ImageKey, &v.IsDefault, &v.CreatedAt, &poseName); err != nil {
			return nil, nil, err
		}
		variations = append(variations, v)
		poseNames[v.PoseID] = poseName
	}
	return variations, poseNames, rows.Err()
}

func (s *PostgresStore) SetVariationCue(ctx context.Context, id, cue string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE pose_variations SET cue = $2 WHERE id = $1`, id, cue)
	return err
}
