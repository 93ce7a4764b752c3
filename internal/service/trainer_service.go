package service

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"fitsync/internal/model"
	"fitsync/internal/store"
	"fitsync/pkg/apierror"
)

type TrainerDirectory interface {
	List(ctx context.Context) ([]model.Trainer, error)
	Create(ctx context.Context, t model.Trainer) error
	Update(ctx context.Context, t model.Trainer) (model.Trainer, error)
	ToggleActive(ctx context.Context, id string) (model.Trainer, error)
}

type TrainerService struct {
	repo  TrainerDirectory
	cache *store.Collection[model.Trainer]
}

func NewTrainerService(repo TrainerDirectory, ttl time.Duration) *TrainerService {
	return &TrainerService{
		repo: repo,
		cache: store.New(
			func(t model.Trainer) string { return t.ID },
			matchTrainer,
			ttl,
		),
	}
}

func matchTrainer(t model.Trainer, query string) bool {
	return strings.Contains(strings.ToLower(t.Name), query) ||
		strings.Contains(strings.ToLower(t.LastName), query) ||
		strings.Contains(strings.ToLower(t.Email), query)
}

func (s *TrainerService) List(ctx context.Context) ([]model.Trainer, error) {
	if err := s.cache.FetchIfNeeded(ctx, s.repo.List); err != nil {
		if items := s.cache.Filtered(); len(items) > 0 {
			return items, nil
		}
		return nil, err
	}
	return s.cache.Filtered(), nil
}

func (s *TrainerService) Search(query string) []model.Trainer {
	s.cache.SetSearchQuery(query)
	return s.cache.Filtered()
}

func (s *TrainerService) Create(ctx context.Context, req model.CreateTrainerRequest) (model.Trainer, error) {
	name := strings.TrimSpace(req.Name)
	email := strings.TrimSpace(req.Email)
	if name == "" || email == "" {
		return model.Trainer{}, apierror.BadRequest("name and email are required", "")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return model.Trainer{}, apierror.BadRequest("invalid email address", email)
	}

	now := time.Now().UTC()
	trainer := model.Trainer{
		ID:        uuid.NewString(),
		Name:      name,
		LastName:  strings.TrimSpace(req.LastName),
		Email:     email,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, trainer); err != nil {
		return model.Trainer{}, err
	}

	s.cache.Reconcile(trainer)
	return trainer, nil
}

func (s *TrainerService) Update(ctx context.Context, req model.UpdateTrainerRequest) (model.Trainer, error) {
	if strings.TrimSpace(req.ID) == "" {
		return model.Trainer{}, apierror.BadRequest("trainer id is required", "id")
	}

	updated, err := s.repo.Update(ctx, model.Trainer{
		ID:       strings.TrimSpace(req.ID),
		Name:     strings.TrimSpace(req.Name),
		LastName: strings.TrimSpace(req.LastName),
		Email:    strings.TrimSpace(req.Email),
	})
	if err != nil {
		return model.Trainer{}, err
	}

	s.cache.Reconcile(updated)
	return updated, nil
}

// ToggleStatus is the optimistic path: the activity flag flips in the cache
// before the backend confirms, and rolls back to the prior snapshot when the
// call rejects.
func (s *TrainerService) ToggleStatus(ctx context.Context, id string) (model.Trainer, error) {
	var updated model.Trainer
	err := s.cache.Optimistic(ctx, id,
		func(t model.Trainer) model.Trainer {
			t.IsActive = !t.IsActive
			return t
		},
		func(ctx context.Context) (model.Trainer, error) {
			var err error
			updated, err = s.repo.ToggleActive(ctx, id)
			return updated, err
		},
	)
	if err != nil {
		return model.Trainer{}, err
	}
	return updated, nil
}

func (s *TrainerService) Err() string {
	return s.cache.Err()
}
