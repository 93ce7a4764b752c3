package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"fitsync/internal/event"
	"fitsync/internal/model"
	"fitsync/internal/store"
)

type EntryLogLedger interface {
	Insert(ctx context.Context, entry model.EntryLog) error
	ListAll(ctx context.Context) ([]model.EntryLog, error)
	ListByUser(ctx context.Context, userID string) ([]model.EntryLog, error)
}

type memberLookup interface {
	FindByID(ctx context.Context, id string) (model.User, error)
}

type EntryLogService struct {
	repo  EntryLogLedger
	users memberLookup
	// redis is optional; without it duplicate check-ins inside the window
	// are accepted rather than failing the check-in path.
	redis  *redis.Client
	window time.Duration
	cache  *store.Collection[model.EntryLog]
	bus    event.Bus
}

func NewEntryLogService(repo EntryLogLedger, users memberLookup, redisClient *redis.Client, window time.Duration, ttl time.Duration, bus event.Bus) *EntryLogService {
	return &EntryLogService{
		repo:   repo,
		users:  users,
		redis:  redisClient,
		window: window,
		cache: store.New(
			func(e model.EntryLog) string { return e.ID },
			func(e model.EntryLog, query string) bool {
				return strings.Contains(strings.ToLower(e.UserName), query)
			},
			ttl,
		),
		bus: bus,
	}
}

// CheckIn records a gym entry for the user. A second check-in inside the
// dedup window is rejected with a conflict when Redis is configured.
func (s *EntryLogService) CheckIn(ctx context.Context, userID string) (model.EntryLog, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return model.EntryLog{}, err
	}
	if !user.IsActive {
		return model.EntryLog{}, model.ErrUserInactive
	}

	if err := s.reserveCheckIn(ctx, userID); err != nil {
		return model.EntryLog{}, err
	}

	now := time.Now().UTC()
	entry := model.EntryLog{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		UserName:  user.FullName(),
		LoggedAt:  now,
		CreatedAt: now,
	}

	if err := s.repo.Insert(ctx, entry); err != nil {
		s.releaseCheckIn(ctx, userID)
		return model.EntryLog{}, err
	}

	s.cache.Reconcile(entry)
	s.bus.Publish(event.NewEvent(event.TypeEntryLogged, entry, userID))
	return entry, nil
}

func (s *EntryLogService) reserveCheckIn(ctx context.Context, userID string) error {
	if s.redis == nil {
		return nil
	}

	ok, err := s.redis.SetNX(ctx, checkInKey(userID), time.Now().UTC().Format(time.RFC3339), s.window).Result()
	if err != nil {
		// Dedup is best effort: a Redis outage must not block the door.
		return nil
	}
	if !ok {
		return model.ErrDuplicateCheckIn
	}
	return nil
}

func (s *EntryLogService) releaseCheckIn(ctx context.Context, userID string) {
	if s.redis == nil {
		return
	}
	_ = s.redis.Del(ctx, checkInKey(userID)).Err()
}

func checkInKey(userID string) string {
	return fmt.Sprintf("fitsync:checkin:%s", userID)
}

func (s *EntryLogService) All(ctx context.Context) ([]model.EntryLog, error) {
	if err := s.cache.FetchIfNeeded(ctx, s.repo.ListAll); err != nil {
		if items := s.cache.Filtered(); len(items) > 0 {
			return items, nil
		}
		return nil, err
	}
	return s.cache.Filtered(), nil
}

func (s *EntryLogService) Search(query string) []model.EntryLog {
	s.cache.SetSearchQuery(query)
	return s.cache.Filtered()
}

func (s *EntryLogService) UserHistory(ctx context.Context, userID string) ([]model.EntryLog, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *EntryLogService) Err() string {
	return s.cache.Err()
}
