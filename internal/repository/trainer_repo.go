package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"fitsync/internal/model"
)

type TrainerRepository struct {
	pool *pgxpool.Pool
}

func NewTrainerRepository(pool *pgxpool.Pool) *TrainerRepository {
	return &TrainerRepository{pool: pool}
}

const trainerColumns = `id, name, last_name, email, is_active, created_at, updated_at`

func scanTrainer(row pgx.Row) (model.Trainer, error) {
	var t model.Trainer
	err := row.Scan(&t.ID, &t.Name, &t.LastName, &t.Email, &t.IsActive, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

func (r *TrainerRepository) FindByID(ctx context.Context, id string) (model.Trainer, error) {
	t, err := scanTrainer(r.pool.QueryRow(ctx,
		`SELECT `+trainerColumns+` FROM trainers WHERE id = $1`, id))

	if errors.Is(err, pgx.ErrNoRows) {
		return model.Trainer{}, model.ErrTrainerNotFound
	}
	if err != nil {
		return model.Trainer{}, fmt.Errorf("find trainer by id: %w", err)
	}
	return t, nil
}

func (r *TrainerRepository) Create(ctx context.Context, t model.Trainer) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO trainers (id, name, last_name, email, is_active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		t.ID, t.Name, t.LastName, t.Email, t.IsActive, t.CreatedAt, t.UpdatedAt)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return model.ErrEmailTaken
	}
	if err != nil {
		return fmt.Errorf("create trainer: %w", err)
	}
	return nil
}

func (r *TrainerRepository) Update(ctx context.Context, t model.Trainer) (model.Trainer, error) {
	updated, err := scanTrainer(r.pool.QueryRow(ctx,
		`UPDATE trainers SET name = $2, last_name = $3, email = $4, updated_at = $5
		 WHERE id = $1
		 RETURNING `+trainerColumns, t.ID, t.Name, t.LastName, t.Email, time.Now().UTC()))

	if errors.Is(err, pgx.ErrNoRows) {
		return model.Trainer{}, model.ErrTrainerNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return model.Trainer{}, model.ErrEmailTaken
	}
	if err != nil {
		return model.Trainer{}, fmt.Errorf("update trainer: %w", err)
	}
	return updated, nil
}

func (r *TrainerRepository) ToggleActive(ctx context.Context, id string) (model.Trainer, error) {
	t, err := scanTrainer(r.pool.QueryRow(ctx,
		`UPDATE trainers SET is_active = NOT is_active, updated_at = $2 WHERE id = $1
		 RETURNING `+trainerColumns, id, time.Now().UTC()))

	if errors.Is(err, pgx.ErrNoRows) {
		return model.Trainer{}, model.ErrTrainerNotFound
	}
	if err != nil {
		return model.Trainer{}, fmt.Errorf("toggle trainer active: %w", err)
	}
	return t, nil
}

func (r *TrainerRepository) List(ctx context.Context) ([]model.Trainer, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+trainerColumns+` FROM trainers ORDER BY last_name, name`)
	if err != nil {
		return nil, fmt.Errorf("list trainers: %w", err)
	}
	defer rows.Close()

	trainers := make([]model.Trainer, 0)
	for rows.Next() {
		t, err := scanTrainer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan trainer: %w", err)
		}
		trainers = append(trainers, t)
	}
	return trainers, rows.Err()
}
