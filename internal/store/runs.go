package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"cruzador/internal/model"
)

// ErrRunNotFound 核对记录不存在
var ErrRunNotFound = errors.New("reconcile run not found")

// CreateRun 创建核对记录（processing 状态）
func (s *Store) CreateRun(ctx context.Context, run *model.ReconcileRun) error {
	if run.CreatedAt.IsZero() {
		run.CreatedAt = s.now().UTC()
	}
	run.Status = model.RunProcessing

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reconcile_runs (
			id, inventory_name, inventory_size, inventory_sha256,
			scan_name, scan_size, scan_sha256, mode, status, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID,
		run.Inventory.Filename, run.Inventory.Size, run.Inventory.SHA256,
		run.Scan.Filename, run.Scan.Size, run.Scan.SHA256,
		string(run.Mode), string(run.Status), run.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create reconcile run: %w", err)
	}
	return nil
}

// CompleteRun 标记核对成功
func (s *Store) CompleteRun(ctx context.Context, id string, matchCount, appendedCount int) error {
	return s.finish(ctx, id, model.RunSuccess, matchCount, appendedCount, "")
}

// FailRun 标记核对失败
func (s *Store) FailRun(ctx context.Context, id string, errorMessage string) error {
	return s.finish(ctx, id, model.RunFailed, 0, 0, errorMessage)
}

func (s *Store) finish(ctx context.Context, id string, status model.RunStatus, matchCount, appendedCount int, errorMessage string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE reconcile_runs SET
			match_count = ?,
			appended_count = ?,
			status = ?,
			error_message = ?,
			completed_at = ?
		WHERE id = ?
	`, matchCount, appendedCount, string(status), errorMessage, s.now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update reconcile run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update reconcile run: %w", err)
	}
	if n == 0 {
		return ErrRunNotFound
	}
	return nil
}

const runColumns = `
	id, inventory_name, inventory_size, inventory_sha256,
	scan_name, scan_size, scan_sha256, mode, match_count, appended_count,
	status, error_message, created_at, completed_at`

// ListRuns 按创建时间倒序列出最近的核对记录
func (s *Store) ListRuns(ctx context.Context, limit int) ([]*model.ReconcileRun, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+runColumns+`
		FROM reconcile_runs
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list reconcile runs: %w", err)
	}
	defer rows.Close()

	runs := make([]*model.ReconcileRun, 0)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list reconcile runs: %w", err)
	}
	return runs, nil
}

// GetRun 按 id 查询核对记录
func (s *Store) GetRun(ctx context.Context, id string) (*model.ReconcileRun, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+`
		FROM reconcile_runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	return run, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(r rowScanner) (*model.ReconcileRun, error) {
	var (
		run         model.ReconcileRun
		mode        string
		status      string
		completedAt sql.NullTime
	)
	err := r.Scan(
		&run.ID,
		&run.Inventory.Filename, &run.Inventory.Size, &run.Inventory.SHA256,
		&run.Scan.Filename, &run.Scan.Size, &run.Scan.SHA256,
		&mode, &run.MatchCount, &run.AppendedCount,
		&status, &run.ErrorMessage, &run.CreatedAt, &completedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan reconcile run: %w", err)
	}
	run.Mode = model.MatchMode(mode)
	run.Status = model.RunStatus(status)
	if completedAt.Valid {
		t := completedAt.Time
		run.CompletedAt = &t
	}
	return &run, nil
}
