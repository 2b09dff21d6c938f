package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/Trinity/internal/domain"
)

// LayoutRepo — репозиторий сводок раскладки (process_layouts).
// Записи пишет indexer после публикации версии.
type LayoutRepo struct {
	pool *pgxpool.Pool
}

// NewLayoutRepo создаёт новый LayoutRepo.
func NewLayoutRepo(pool *pgxpool.Pool) *LayoutRepo {
	return &LayoutRepo{pool: pool}
}

// Save сохраняет сводку. Повторный расчёт той же версии перезаписывает запись.
func (r *LayoutRepo) Save(ctx context.Context, l *domain.ProcessLayout) error {
	unresolved := l.Unresolved
	if unresolved == nil {
		unresolved = []string{}
	}

	query := `
		INSERT INTO process_layouts (
			process_id, version, step_count, level_count, max_parallel,
			parse_error, unresolved, computed_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		ON CONFLICT (process_id, version) DO UPDATE SET
			step_count   = EXCLUDED.step_count,
			level_count  = EXCLUDED.level_count,
			max_parallel = EXCLUDED.max_parallel,
			parse_error  = EXCLUDED.parse_error,
			unresolved   = EXCLUDED.unresolved,
			computed_at  = EXCLUDED.computed_at
		RETURNING computed_at
	`
	err := r.pool.QueryRow(ctx, query,
		l.ProcessID,
		l.Version,
		l.StepCount,
		l.LevelCount,
		l.MaxParallel,
		l.ParseError,
		unresolved,
	).Scan(&l.ComputedAt)
	if err != nil {
		return fmt.Errorf("save process layout: %w", err)
	}
	return nil
}

// Get возвращает сводку для версии процесса.
func (r *LayoutRepo) Get(ctx context.Context, processID uuid.UUID, version int) (*domain.ProcessLayout, error) {
	query := `
		SELECT process_id, version, step_count, level_count, max_parallel,
		       parse_error, unresolved, computed_at
		FROM process_layouts
		WHERE process_id = $1 AND version = $2
	`
	var l domain.ProcessLayout
	err := r.pool.QueryRow(ctx, query, processID, version).Scan(
		&l.ProcessID,
		&l.Version,
		&l.StepCount,
		&l.LevelCount,
		&l.MaxParallel,
		&l.ParseError,
		&l.Unresolved,
		&l.ComputedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get process layout: %w", err)
	}
	return &l, nil
}
