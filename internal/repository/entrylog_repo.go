package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"fitsync/internal/model"
)

type EntryLogRepository struct {
	pool *pgxpool.Pool
}

func NewEntryLogRepository(pool *pgxpool.Pool) *EntryLogRepository {
	return &EntryLogRepository{pool: pool}
}

func (r *EntryLogRepository) Insert(ctx context.Context, entry model.EntryLog) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO entry_logs (id, user_id, logged_at, created_at)
		 VALUES ($1, $2, $3, $4)`,
		entry.ID, entry.UserID, entry.LoggedAt, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert entry log: %w", err)
	}
	return nil
}

const entrySelect = `
	SELECT el.id, el.user_id, trim(u.name || ' ' || u.last_name) AS user_name,
	       el.logged_at, el.created_at
	FROM entry_logs el
	JOIN users u ON u.id = el.user_id`

func (r *EntryLogRepository) ListAll(ctx context.Context) ([]model.EntryLog, error) {
	return r.query(ctx, entrySelect+` ORDER BY el.logged_at DESC`)
}

func (r *EntryLogRepository) ListByUser(ctx context.Context, userID string) ([]model.EntryLog, error) {
	return r.query(ctx, entrySelect+` WHERE el.user_id = $1 ORDER BY el.logged_at DESC`, userID)
}

func (r *EntryLogRepository) query(ctx context.Context, sql string, args ...any) ([]model.EntryLog, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list entry logs: %w", err)
	}
	defer rows.Close()

	logs := make([]model.EntryLog, 0)
	for rows.Next() {
		var e model.EntryLog
		if err := rows.Scan(&e.ID, &e.UserID, &e.UserName, &e.LoggedAt, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan entry log: %w", err)
		}
		logs = append(logs, e)
	}
	return logs, rows.Err()
}
