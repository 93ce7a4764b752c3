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

type EquipmentRepository struct {
	pool *pgxpool.Pool
}

func NewEquipmentRepository(pool *pgxpool.Pool) *EquipmentRepository {
	return &EquipmentRepository{pool: pool}
}

// available_count is derived from pending loans at read time so the value is
// always consistent with the loans table, whichever store asked first.
const equipmentSelect = `
	SELECT e.id, e.name, e.description, e.total_count,
	       e.total_count - COUNT(l.id) FILTER (WHERE l.status = 'PENDING') AS available_count,
	       e.created_at, e.updated_at
	FROM equipment e
	LEFT JOIN loans l ON l.equipment_id = e.id`

func scanEquipment(row pgx.Row) (model.Equipment, error) {
	var e model.Equipment
	err := row.Scan(&e.ID, &e.Name, &e.Description, &e.TotalCount, &e.AvailableCount,
		&e.CreatedAt, &e.UpdatedAt)
	return e, err
}

func (r *EquipmentRepository) FindByID(ctx context.Context, id string) (model.Equipment, error) {
	e, err := scanEquipment(r.pool.QueryRow(ctx,
		equipmentSelect+` WHERE e.id = $1 GROUP BY e.id`, id))

	if errors.Is(err, pgx.ErrNoRows) {
		return model.Equipment{}, model.ErrEquipmentNotFound
	}
	if err != nil {
		return model.Equipment{}, fmt.Errorf("find equipment by id: %w", err)
	}
	return e, nil
}

func (r *EquipmentRepository) Create(ctx context.Context, e model.Equipment) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO equipment (id, name, description, total_count, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		e.ID, e.Name, e.Description, e.TotalCount, e.CreatedAt, e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create equipment: %w", err)
	}
	return nil
}

func (r *EquipmentRepository) Update(ctx context.Context, e model.Equipment) (model.Equipment, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE equipment SET name = $2, description = $3, total_count = $4, updated_at = $5
		 WHERE id = $1`,
		e.ID, e.Name, e.Description, e.TotalCount, time.Now().UTC())
	if err != nil {
		return model.Equipment{}, fmt.Errorf("update equipment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.Equipment{}, model.ErrEquipmentNotFound
	}
	return r.FindByID(ctx, e.ID)
}

func (r *EquipmentRepository) List(ctx context.Context) ([]model.Equipment, error) {
	rows, err := r.pool.Query(ctx, equipmentSelect+` GROUP BY e.id ORDER BY e.name`)
	if err != nil {
		return nil, fmt.Errorf("list equipment: %w", err)
	}
	defer rows.Close()

	items := make([]model.Equipment, 0)
	for rows.Next() {
		e, err := scanEquipment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan equipment: %w", err)
		}
		items = append(items, e)
	}
	return items, rows.Err()
}
