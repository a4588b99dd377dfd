package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/smarvasti/haftify/internal/domain"
)

// ProgressStore persists per-question progress and catalog rollups. Saves
// upsert on (user_id, catalog_id, question_id), matching the overwrite
// semantics of the progress document store.
type ProgressStore struct {
	pool *pgxpool.Pool
}

func NewProgressStore(pool *pgxpool.Pool) *ProgressStore {
	return &ProgressStore{pool: pool}
}

func (s *ProgressStore) LoadCatalogProgress(ctx context.Context, userID, catalogID string) (domain.ProgressSet, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT question_id, is_correct, selected_answers, attempted_at
		   FROM progress
		  WHERE user_id=$1 AND catalog_id=$2`, userID, catalogID)
	if err != nil {
		return nil, fmt.Errorf("load progress: %w", err)
	}
	defer rows.Close()

	progress := make(domain.ProgressSet)
	for rows.Next() {
		var p domain.Progress
		var selected []byte
		if err := rows.Scan(&p.QuestionID, &p.IsCorrect, &selected, &p.AttemptedAt); err != nil {
			return nil, fmt.Errorf("scan progress: %w", err)
		}
		if err := json.Unmarshal(selected, &p.SelectedAnswers); err != nil {
			return nil, fmt.Errorf("unmarshal selected answers: %w", err)
		}
		progress[p.QuestionID] = p
	}
	return progress, rows.Err()
}

func (s *ProgressStore) SaveProgress(ctx context.Context, userID, catalogID string, p domain.Progress) error {
	selected, err := json.Marshal(p.SelectedAnswers)
	if err != nil {
		return fmt.Errorf("marshal selected answers: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO progress (user_id, catalog_id, question_id, is_correct, selected_answers, attempted_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (user_id, catalog_id, question_id)
		 DO UPDATE SET is_correct=EXCLUDED.is_correct,
		               selected_answers=EXCLUDED.selected_answers,
		               attempted_at=EXCLUDED.attempted_at`,
		userID, catalogID, p.QuestionID, p.IsCorrect, selected, p.AttemptedAt)
	if err != nil {
		return fmt.Errorf("save progress: %w", err)
	}
	return nil
}

func (s *ProgressStore) ResetProgress(ctx context.Context, userID, catalogID string) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM progress WHERE user_id=$1 AND catalog_id=$2`, userID, catalogID)
	if err != nil {
		return fmt.Errorf("reset progress: %w", err)
	}
	return nil
}

func (s *ProgressStore) UpdateCatalogRollup(ctx context.Context, userID, catalogID string, r domain.Rollup) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO catalog_stats (user_id, catalog_id, earned_points, total_points, correct_answers, total_questions, last_attempted_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (user_id, catalog_id)
		 DO UPDATE SET earned_points=EXCLUDED.earned_points,
		               total_points=EXCLUDED.total_points,
		               correct_answers=EXCLUDED.correct_answers,
		               total_questions=EXCLUDED.total_questions,
		               last_attempted_at=EXCLUDED.last_attempted_at`,
		userID, catalogID, r.EarnedPoints, r.TotalPoints, r.Correct, r.Attempted, r.LastAttemptedAt)
	if err != nil {
		return fmt.Errorf("update rollup: %w", err)
	}
	return nil
}
