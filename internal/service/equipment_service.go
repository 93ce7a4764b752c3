package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"fitsync/internal/event"
	"fitsync/internal/model"
	"fitsync/internal/store"
	"fitsync/pkg/apierror"
)

type EquipmentInventory interface {
	List(ctx context.Context) ([]model.Equipment, error)
	Create(ctx context.Context, e model.Equipment) error
	Update(ctx context.Context, e model.Equipment) (model.Equipment, error)
}

type EquipmentService struct {
	repo  EquipmentInventory
	cache *store.Collection[model.Equipment]
	bus   event.Bus
}

func NewEquipmentService(repo EquipmentInventory, ttl time.Duration, bus event.Bus) *EquipmentService {
	return &EquipmentService{
		repo: repo,
		bus:  bus,
		cache: store.New(
			func(e model.Equipment) string { return e.ID },
			func(e model.Equipment, query string) bool {
				return strings.Contains(strings.ToLower(e.Name), query) ||
					strings.Contains(strings.ToLower(e.Description), query)
			},
			ttl,
		),
	}
}

func (s *EquipmentService) List(ctx context.Context) ([]model.Equipment, error) {
	if err := s.cache.FetchIfNeeded(ctx, s.repo.List); err != nil {
		if items := s.cache.Filtered(); len(items) > 0 {
			return items, nil
		}
		return nil, err
	}
	return s.cache.Filtered(), nil
}

func (s *EquipmentService) Search(query string) []model.Equipment {
	s.cache.SetSearchQuery(query)
	return s.cache.Filtered()
}

func (s *EquipmentService) Create(ctx context.Context, req model.CreateEquipmentRequest) (model.Equipment, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return model.Equipment{}, apierror.BadRequest("equipment name is required", "name")
	}
	if req.TotalCount < 0 {
		return model.Equipment{}, apierror.BadRequest("total_count cannot be negative", "total_count")
	}

	total := req.TotalCount
	if total == 0 {
		total = 1
	}

	now := time.Now().UTC()
	item := model.Equipment{
		ID:             uuid.NewString(),
		Name:           name,
		Description:    strings.TrimSpace(req.Description),
		TotalCount:     total,
		AvailableCount: total,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.repo.Create(ctx, item); err != nil {
		return model.Equipment{}, err
	}

	s.cache.Reconcile(item)
	s.bus.Publish(event.NewEvent(event.TypeEquipmentCreated, item, ""))
	return item, nil
}

func (s *EquipmentService) Update(ctx context.Context, req model.UpdateEquipmentRequest) (model.Equipment, error) {
	if strings.TrimSpace(req.ID) == "" {
		return model.Equipment{}, apierror.BadRequest("equipment id is required", "id")
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return model.Equipment{}, apierror.BadRequest("equipment name is required", "name")
	}
	if req.TotalCount < 0 {
		return model.Equipment{}, apierror.BadRequest("total_count cannot be negative", "total_count")
	}

	total := req.TotalCount
	if total == 0 {
		total = 1
	}

	updated, err := s.repo.Update(ctx, model.Equipment{
		ID:          strings.TrimSpace(req.ID),
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		TotalCount:  total,
	})
	if err != nil {
		return model.Equipment{}, err
	}

	s.cache.Reconcile(updated)
	s.bus.Publish(event.NewEvent(event.TypeEquipmentUpdated, updated, ""))
	return updated, nil
}

func (s *EquipmentService) Err() string {
	return s.cache.Err()
}

// Listen invalidates the inventory whenever a loan changes hands, so the
// next read reflects the new availability. The loan store never calls into
// this service directly; the bus is the only coupling.
func (s *EquipmentService) Listen(ctx context.Context, bus event.Bus) {
	events, unsubscribe := bus.Subscribe()
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			switch e.Type {
			case event.TypeLoanCreated, event.TypeLoanCompleted:
				s.cache.Invalidate()
				slog.Debug("equipment cache invalidated", "event", e.Type)
			}
		}
	}
}
