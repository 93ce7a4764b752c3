package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"fitsync/internal/model"
)

type LoanRepository struct {
	pool *pgxpool.Pool
}

func NewLoanRepository(pool *pgxpool.Pool) *LoanRepository {
	return &LoanRepository{pool: pool}
}

const loanSelect = `
	SELECT l.id, l.user_id, trim(u.name || ' ' || u.last_name) AS user_name,
	       l.equipment_id, e.name AS equipment_name,
	       l.status, l.created_at, l.returned_at
	FROM loans l
	JOIN users u ON u.id = l.user_id
	JOIN equipment e ON e.id = l.equipment_id`

func scanLoan(row pgx.Row) (model.Loan, error) {
	var l model.Loan
	err := row.Scan(&l.ID, &l.UserID, &l.UserName, &l.EquipmentID, &l.EquipmentName,
		&l.Status, &l.CreatedAt, &l.ReturnedAt)
	return l, err
}

func (r *LoanRepository) FindByID(ctx context.Context, id string) (model.Loan, error) {
	l, err := scanLoan(r.pool.QueryRow(ctx, loanSelect+` WHERE l.id = $1`, id))

	if errors.Is(err, pgx.ErrNoRows) {
		return model.Loan{}, model.ErrLoanNotFound
	}
	if err != nil {
		return model.Loan{}, fmt.Errorf("find loan by id: %w", err)
	}
	return l, nil
}

// Create inserts a PENDING loan after verifying availability inside a single
// transaction, so two concurrent borrowers cannot take the last unit twice.
func (r *LoanRepository) Create(ctx context.Context, id string, userID string, equipmentID string) (model.Loan, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return model.Loan{}, fmt.Errorf("begin loan tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Postgres does not allow FOR UPDATE on a grouped query, so the row lock
	// and the pending count are separate statements inside the transaction.
	var total int
	err = tx.QueryRow(ctx,
		`SELECT total_count FROM equipment WHERE id = $1 FOR UPDATE`,
		equipmentID).Scan(&total)

	if errors.Is(err, pgx.ErrNoRows) {
		return model.Loan{}, model.ErrEquipmentNotFound
	}
	if err != nil {
		return model.Loan{}, fmt.Errorf("lock equipment row: %w", err)
	}

	var pending int
	err = tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM loans WHERE equipment_id = $1 AND status = 'PENDING'`,
		equipmentID).Scan(&pending)
	if err != nil {
		return model.Loan{}, fmt.Errorf("count pending loans: %w", err)
	}
	if pending >= total {
		return model.Loan{}, model.ErrEquipmentUnavailable
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO loans (id, user_id, equipment_id, status, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		id, userID, equipmentID, model.LoanPending, time.Now().UTC())
	if err != nil {
		return model.Loan{}, fmt.Errorf("insert loan: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return model.Loan{}, fmt.Errorf("commit loan tx: %w", err)
	}

	return r.FindByID(ctx, id)
}

// Complete marks a PENDING loan RETURNED. Completing an already returned
// loan is a conflict, not an idempotent no-op.
func (r *LoanRepository) Complete(ctx context.Context, id string) (model.Loan, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE loans SET status = $2, returned_at = $3 WHERE id = $1 AND status = $4`,
		id, model.LoanReturned, time.Now().UTC(), model.LoanPending)
	if err != nil {
		return model.Loan{}, fmt.Errorf("complete loan: %w", err)
	}

	if tag.RowsAffected() == 0 {
		existing, findErr := r.FindByID(ctx, id)
		if findErr != nil {
			return model.Loan{}, findErr
		}
		if existing.Status == model.LoanReturned {
			return model.Loan{}, model.ErrLoanAlreadyReturned
		}
		return model.Loan{}, model.ErrLoanNotFound
	}

	return r.FindByID(ctx, id)
}

func (r *LoanRepository) List(ctx context.Context) ([]model.Loan, error) {
	return r.query(ctx, loanSelect+` ORDER BY l.created_at DESC`)
}

func (r *LoanRepository) ListByUser(ctx context.Context, userID string) ([]model.Loan, error) {
	return r.query(ctx, loanSelect+` WHERE l.user_id = $1 ORDER BY l.created_at DESC`, userID)
}

func (r *LoanRepository) query(ctx context.Context, sql string, args ...any) ([]model.Loan, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list loans: %w", err)
	}
	defer rows.Close()

	loans := make([]model.Loan, 0)
	for rows.Next() {
		l, err := scanLoan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan loan: %w", err)
		}
		loans = append(loans, l)
	}
	return loans, rows.Err()
}
