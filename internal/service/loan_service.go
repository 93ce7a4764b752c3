package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"fitsync/internal/event"
	"fitsync/internal/model"
	"fitsync/internal/store"
	"fitsync/pkg/apierror"
)

type LoanLedger interface {
	List(ctx context.Context) ([]model.Loan, error)
	ListByUser(ctx context.Context, userID string) ([]model.Loan, error)
	Create(ctx context.Context, id string, userID string, equipmentID string) (model.Loan, error)
	Complete(ctx context.Context, id string) (model.Loan, error)
}

type LoanService struct {
	repo  LoanLedger
	cache *store.Collection[model.Loan]
	bus   event.Bus
}

func NewLoanService(repo LoanLedger, ttl time.Duration, bus event.Bus) *LoanService {
	return &LoanService{
		repo: repo,
		cache: store.New(
			func(l model.Loan) string { return l.ID },
			func(l model.Loan, query string) bool {
				return strings.Contains(strings.ToLower(l.UserName), query) ||
					strings.Contains(strings.ToLower(l.EquipmentName), query)
			},
			ttl,
		),
		bus: bus,
	}
}

func (s *LoanService) List(ctx context.Context) ([]model.Loan, error) {
	if err := s.cache.FetchIfNeeded(ctx, s.repo.List); err != nil {
		if items := s.cache.Filtered(); len(items) > 0 {
			return items, nil
		}
		return nil, err
	}
	return s.cache.Filtered(), nil
}

func (s *LoanService) Search(query string) []model.Loan {
	s.cache.SetSearchQuery(query)
	return s.cache.Filtered()
}

// ListByUser bypasses the shared cache: a member's own history is small and
// always read fresh.
func (s *LoanService) ListByUser(ctx context.Context, userID string) ([]model.Loan, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Create assigns a unit of equipment to a user. Availability is enforced in
// the repository transaction; the published event lets the equipment store
// refresh without a direct call.
func (s *LoanService) Create(ctx context.Context, userID string, equipmentID string) (model.Loan, error) {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(equipmentID) == "" {
		return model.Loan{}, apierror.BadRequest("user_id and equipment_id are required", "")
	}

	loan, err := s.repo.Create(ctx, uuid.NewString(), userID, equipmentID)
	if err != nil {
		return model.Loan{}, err
	}

	s.cache.Reconcile(loan)
	s.bus.Publish(event.NewEvent(event.TypeLoanCreated, loan, userID))
	return loan, nil
}

func (s *LoanService) Complete(ctx context.Context, id string, actorID string) (model.Loan, error) {
	if strings.TrimSpace(id) == "" {
		return model.Loan{}, apierror.BadRequest("loan id is required", "id")
	}

	loan, err := s.repo.Complete(ctx, id)
	if err != nil {
		return model.Loan{}, err
	}

	s.cache.Reconcile(loan)
	s.bus.Publish(event.NewEvent(event.TypeLoanCompleted, loan, actorID))
	return loan, nil
}

func (s *LoanService) Err() string {
	return s.cache.Err()
}

// Listen invalidates the loan cache when equipment changes, because loan
// listings carry the denormalized equipment name.
func (s *LoanService) Listen(ctx context.Context, bus event.Bus) {
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
			if e.Type == event.TypeEquipmentUpdated {
				s.cache.Invalidate()
			}
		}
	}
}
