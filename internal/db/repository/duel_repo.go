package repository

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/gokatarajesh/starknow-arena/internal/db/queries"
)

type duelStore interface {
	InsertDuelRecord(ctx context.Context, arg queries.InsertDuelRecordParams) (queries.DuelRecord, error)
	ListDuelRecordsBySubject(ctx context.Context, arg queries.ListDuelRecordsBySubjectParams) ([]queries.DuelRecord, error)
	GetDuelSummary(ctx context.Context, subjectPhone string) (queries.GetDuelSummaryRow, error)
}

// DuelRepository stores one row per duel direction.
type DuelRepository struct {
	store duelStore
	now   func() time.Time
}

// NewDuelRepository constructs a duel history repository.
func NewDuelRepository(store duelStore) *DuelRepository {
	return &DuelRepository{store: store, now: time.Now}
}

// RecordDuelResult appends the subject's view of a finished duel.
func (r *DuelRepository) RecordDuelResult(ctx context.Context, subject, opponent string, subjectScore, opponentScore int) error {
	_, err := r.store.InsertDuelRecord(ctx, queries.InsertDuelRecordParams{
		SubjectPhone:  subject,
		OpponentPhone: opponent,
		SubjectScore:  toInt32(subjectScore),
		OpponentScore: toInt32(opponentScore),
		RecordedAt:    pgtype.Timestamptz{Time: r.now().UTC(), Valid: true},
	})
	if err != nil {
		return fmt.Errorf("insert duel record: %w", err)
	}
	return nil
}

// ListForSubject returns the most recent duels from the subject's perspective.
func (r *DuelRepository) ListForSubject(ctx context.Context, phone string, limit int) ([]queries.DuelRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	return r.store.ListDuelRecordsBySubject(ctx, queries.ListDuelRecordsBySubjectParams{
		SubjectPhone: phone,
		Limit:        toInt32(limit),
	})
}

// Summary counts the subject's duels by score comparison.
func (r *DuelRepository) Summary(ctx context.Context, phone string) (queries.GetDuelSummaryRow, error) {
	return r.store.GetDuelSummary(ctx, phone)
}

func toInt32(v int) int32 {
	switch {
	case v > math.MaxInt32:
		return math.MaxInt32
	case v < 0:
		return 0
	default:
		return int32(v)
	}
}
