package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/Trinity/internal/domain"
)

// uniqueViolation — SQLSTATE нарушения уникальности.
const uniqueViolation = "23505"

// ProcessRepo — репозиторий для работы с processes и process_versions.
type ProcessRepo struct {
	pool *pgxpool.Pool
}

// NewProcessRepo создаёт новый ProcessRepo.
func NewProcessRepo(pool *pgxpool.Pool) *ProcessRepo {
	return &ProcessRepo{pool: pool}
}

// --- Process CRUD ---

// Create создаёт новый процесс.
func (r *ProcessRepo) Create(ctx context.Context, p *domain.Process) error {
	query := `
		INSERT INTO processes (id, name, is_active, created_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING created_at
	`
	err := r.pool.QueryRow(ctx, query, p.ID, p.Name, p.IsActive).Scan(&p.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrAlreadyExists
		}
		return fmt.Errorf("insert process: %w", err)
	}
	return nil
}

// GetByID возвращает процесс по ID.
func (r *ProcessRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Process, error) {
	query := `
		SELECT id, name, is_active, created_at
		FROM processes
		WHERE id = $1
	`
	var p domain.Process
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&p.ID,
		&p.Name,
		&p.IsActive,
		&p.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get process by id: %w", err)
	}
	return &p, nil
}

// List возвращает список всех процессов.
func (r *ProcessRepo) List(ctx context.Context) ([]domain.Process, error) {
	query := `
		SELECT id, name, is_active, created_at
		FROM processes
		ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list processes: %w", err)
	}
	defer rows.Close()

	var processes []domain.Process
	for rows.Next() {
		var p domain.Process
		if err := rows.Scan(
			&p.ID,
			&p.Name,
			&p.IsActive,
			&p.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan process: %w", err)
		}
		processes = append(processes, p)
	}
	return processes, rows.Err()
}

// Update обновляет процесс.
func (r *ProcessRepo) Update(ctx context.Context, p *domain.Process) error {
	query := `
		UPDATE processes
		SET name = $2, is_active = $3
		WHERE id = $1
	`
	result, err := r.pool.Exec(ctx, query, p.ID, p.Name, p.IsActive)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrAlreadyExists
		}
		return fmt.Errorf("update process: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete удаляет процесс (каскадно удалит версии и раскладки).
func (r *ProcessRepo) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM processes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete process: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- ProcessVersion CRUD ---

// CreateVersion создаёт новую версию процесса.
// Номер версии вычисляется и вставляется в одной транзакции.
func (r *ProcessRepo) CreateVersion(ctx context.Context, processID uuid.UUID, definition string) (*domain.ProcessVersion, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	// Блокируем строку процесса, чтобы параллельные публикации не взяли один номер
	var locked uuid.UUID
	err = tx.QueryRow(ctx, `SELECT id FROM processes WHERE id = $1 FOR UPDATE`, processID).Scan(&locked)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock process: %w", err)
	}

	var v domain.ProcessVersion
	err = tx.QueryRow(ctx, `
		INSERT INTO process_versions (process_id, version, definition, created_at)
		SELECT $1, COALESCE(MAX(version), 0) + 1, $2, NOW()
		FROM process_versions
		WHERE process_id = $1
		RETURNING process_id, version, definition, created_at
	`, processID, definition).Scan(
		&v.ProcessID,
		&v.Version,
		&v.Definition,
		&v.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert process version: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	return &v, nil
}

// GetVersion возвращает конкретную версию процесса.
func (r *ProcessRepo) GetVersion(ctx context.Context, processID uuid.UUID, version int) (*domain.ProcessVersion, error) {
	query := `
		SELECT process_id, version, definition, created_at
		FROM process_versions
		WHERE process_id = $1 AND version = $2
	`
	return r.scanVersion(r.pool.QueryRow(ctx, query, processID, version))
}

// GetLatestVersion возвращает последнюю версию процесса.
func (r *ProcessRepo) GetLatestVersion(ctx context.Context, processID uuid.UUID) (*domain.ProcessVersion, error) {
	query := `
		SELECT process_id, version, definition, created_at
		FROM process_versions
		WHERE process_id = $1
		ORDER BY version DESC
		LIMIT 1
	`
	return r.scanVersion(r.pool.QueryRow(ctx, query, processID))
}

func (r *ProcessRepo) scanVersion(row pgx.Row) (*domain.ProcessVersion, error) {
	var v domain.ProcessVersion
	err := row.Scan(
		&v.ProcessID,
		&v.Version,
		&v.Definition,
		&v.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get process version: %w", err)
	}
	return &v, nil
}

// ListVersions возвращает все версии процесса, новые первыми.
func (r *ProcessRepo) ListVersions(ctx context.Context, processID uuid.UUID) ([]domain.ProcessVersion, error) {
	query := `
		SELECT process_id, version, definition, created_at
		FROM process_versions
		WHERE process_id = $1
		ORDER BY version DESC
	`
	rows, err := r.pool.Query(ctx, query, processID)
	if err != nil {
		return nil, fmt.Errorf("list process versions: %w", err)
	}
	defer rows.Close()

	var versions []domain.ProcessVersion
	for rows.Next() {
		var v domain.ProcessVersion
		if err := rows.Scan(
			&v.ProcessID,
			&v.Version,
			&v.Definition,
			&v.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan process version: %w", err)
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}
