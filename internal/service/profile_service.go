package service

import (
	"context"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"fitsync/internal/imc"
	"fitsync/internal/model"
	"fitsync/pkg/apierror"
)

type ProfileStore interface {
	FindByID(ctx context.Context, id string) (model.User, error)
	UpdateProfile(ctx context.Context, u model.User) (model.User, error)
}

// ProfileService serves the caller's own record with derived BMI values.
// Responses are cached per user and invalidated on update.
type ProfileService struct {
	repo  ProfileStore
	cache *gocache.Cache
}

func NewProfileService(repo ProfileStore, ttl time.Duration) *ProfileService {
	return &ProfileService{
		repo:  repo,
		cache: gocache.New(ttl, 2*ttl),
	}
}

func (s *ProfileService) Get(ctx context.Context, userID string) (model.Profile, error) {
	if cached, found := s.cache.Get(userID); found {
		if profile, ok := cached.(model.Profile); ok {
			return profile, nil
		}
	}

	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return model.Profile{}, err
	}

	profile := buildProfile(user)
	s.cache.Set(userID, profile, gocache.DefaultExpiration)
	return profile, nil
}

func (s *ProfileService) Update(ctx context.Context, userID string, req model.UpdateProfileRequest) (model.Profile, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return model.Profile{}, apierror.BadRequest("name is required", "name")
	}
	if req.WeightKg != nil && *req.WeightKg <= 0 {
		return model.Profile{}, apierror.BadRequest("weight must be positive", "weight_kg")
	}

	var heightM *float64
	if req.Height != nil {
		normalized := imc.NormalizeHeight(*req.Height)
		if normalized <= 0 {
			return model.Profile{}, apierror.BadRequest("height must be positive", "height")
		}
		heightM = &normalized
	}

	updated, err := s.repo.UpdateProfile(ctx, model.User{
		ID:       userID,
		Name:     name,
		LastName: strings.TrimSpace(req.LastName),
		WeightKg: req.WeightKg,
		HeightM:  heightM,
	})
	if err != nil {
		return model.Profile{}, err
	}

	s.cache.Delete(userID)

	profile := buildProfile(updated)
	s.cache.Set(userID, profile, gocache.DefaultExpiration)
	return profile, nil
}

// Invalidate drops the cached profile, used when another flow (status
// toggle, admin edit) mutates the underlying user.
func (s *ProfileService) Invalidate(userID string) {
	s.cache.Delete(userID)
}

func buildProfile(user model.User) model.Profile {
	profile := model.Profile{User: user}

	if user.WeightKg == nil || user.HeightM == nil {
		return profile
	}

	bmi, ok := imc.Compute(*user.WeightKg, *user.HeightM)
	if !ok {
		return profile
	}

	profile.IMC = &bmi
	profile.Diagnosis = imc.Diagnose(bmi)
	return profile
}
