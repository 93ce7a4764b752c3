package service

import (
	"context"
	"strings"
	"time"

	"fitsync/internal/event"
	"fitsync/internal/model"
	"fitsync/internal/store"
)

type UserDirectory interface {
	List(ctx context.Context) ([]model.User, error)
	ToggleActive(ctx context.Context, id string) (model.User, error)
}

// UserService is the cached store for the member directory. The collection
// is an injected instance; tests build isolated ones.
type UserService struct {
	repo  UserDirectory
	cache *store.Collection[model.User]
	bus   event.Bus
}

func NewUserService(repo UserDirectory, ttl time.Duration, bus event.Bus) *UserService {
	return &UserService{
		repo: repo,
		cache: store.New(
			func(u model.User) string { return u.ID },
			matchUser,
			ttl,
		),
		bus: bus,
	}
}

func matchUser(u model.User, query string) bool {
	return strings.Contains(strings.ToLower(u.Name), query) ||
		strings.Contains(strings.ToLower(u.LastName), query) ||
		strings.Contains(strings.ToLower(u.Email), query)
}

// List serves the filtered view, refreshing only when stale. A failed
// refresh over a warm cache degrades to stale data plus the error flag.
func (s *UserService) List(ctx context.Context) ([]model.User, error) {
	if err := s.cache.FetchIfNeeded(ctx, s.repo.List); err != nil {
		if items := s.cache.Filtered(); len(items) > 0 {
			return items, nil
		}
		return nil, err
	}
	return s.cache.Filtered(), nil
}

func (s *UserService) Search(query string) []model.User {
	s.cache.SetSearchQuery(query)
	return s.cache.Filtered()
}

// ToggleStatus optimistically flips the cached record, then commits. The
// cache snapshot is restored verbatim when the backend rejects the change.
func (s *UserService) ToggleStatus(ctx context.Context, id string, actorID string) (model.User, error) {
	var updated model.User
	err := s.cache.Optimistic(ctx, id,
		func(u model.User) model.User {
			u.IsActive = !u.IsActive
			return u
		},
		func(ctx context.Context) (model.User, error) {
			var err error
			updated, err = s.repo.ToggleActive(ctx, id)
			return updated, err
		},
	)
	if err != nil {
		return model.User{}, err
	}

	s.bus.Publish(event.NewEvent(event.TypeUserStatusToggled, updated, actorID))
	return updated, nil
}

func (s *UserService) Err() string {
	return s.cache.Err()
}
