package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"fitsync/internal/model"
)

type stubTrainerDirectory struct {
	trainers  []model.Trainer
	listCalls int
	toggleErr error
}

func (s *stubTrainerDirectory) List(ctx context.Context) ([]model.Trainer, error) {
	s.listCalls++
	return append([]model.Trainer(nil), s.trainers...), nil
}

func (s *stubTrainerDirectory) Create(ctx context.Context, t model.Trainer) error {
	s.trainers = append(s.trainers, t)
	return nil
}

func (s *stubTrainerDirectory) Update(ctx context.Context, in model.Trainer) (model.Trainer, error) {
	for i, t := range s.trainers {
		if t.ID == in.ID {
			t.Name = in.Name
			t.LastName = in.LastName
			t.Email = in.Email
			s.trainers[i] = t
			return t, nil
		}
	}
	return model.Trainer{}, model.ErrTrainerNotFound
}

func (s *stubTrainerDirectory) ToggleActive(ctx context.Context, id string) (model.Trainer, error) {
	if s.toggleErr != nil {
		return model.Trainer{}, s.toggleErr
	}
	for i, t := range s.trainers {
		if t.ID == id {
			t.IsActive = !t.IsActive
			s.trainers[i] = t
			return t, nil
		}
	}
	return model.Trainer{}, model.ErrTrainerNotFound
}

func TestTrainerListUsesCacheWithinTTL(t *testing.T) {
	stub := &stubTrainerDirectory{trainers: []model.Trainer{
		{ID: "t1", Name: "Carla", IsActive: true},
	}}
	svc := NewTrainerService(stub, 5*time.Minute)

	first, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, first, 1)

	_, err = svc.List(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, stub.listCalls)
}

func TestTrainerToggleRollsBackOnRejection(t *testing.T) {
	stub := &stubTrainerDirectory{trainers: []model.Trainer{
		{ID: "t1", Name: "Carla", IsActive: true},
	}}
	svc := NewTrainerService(stub, 5*time.Minute)

	_, err := svc.List(context.Background())
	require.NoError(t, err)

	stub.toggleErr = errors.New("backend rejected the change")
	_, err = svc.ToggleStatus(context.Background(), "t1")
	require.Error(t, err)

	// The cached record is restored to its pre-mutation state and the
	// error is surfaced on the store.
	cached, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, cached, 1)
	require.True(t, cached[0].IsActive)
	require.NotEmpty(t, svc.Err())
}

func TestTrainerToggleCommits(t *testing.T) {
	stub := &stubTrainerDirectory{trainers: []model.Trainer{
		{ID: "t1", Name: "Carla", IsActive: true},
	}}
	svc := NewTrainerService(stub, 5*time.Minute)

	_, err := svc.List(context.Background())
	require.NoError(t, err)

	updated, err := svc.ToggleStatus(context.Background(), "t1")
	require.NoError(t, err)
	require.False(t, updated.IsActive)

	cached, err := svc.List(context.Background())
	require.NoError(t, err)
	require.False(t, cached[0].IsActive)
	require.Equal(t, 1, stub.listCalls)
}

func TestTrainerCreateValidation(t *testing.T) {
	svc := NewTrainerService(&stubTrainerDirectory{}, 5*time.Minute)

	_, err := svc.Create(context.Background(), model.CreateTrainerRequest{Name: "", Email: ""})
	require.Error(t, err)

	_, err = svc.Create(context.Background(), model.CreateTrainerRequest{Name: "Carla", Email: "not-an-email"})
	require.Error(t, err)

	created, err := svc.Create(context.Background(), model.CreateTrainerRequest{
		Name:  "Carla",
		Email: "carla@example.com",
	})
	require.NoError(t, err)
	require.True(t, created.IsActive)
	require.NotEmpty(t, created.ID)
}

func TestTrainerSearchIsCaseInsensitive(t *testing.T) {
	stub := &stubTrainerDirectory{trainers: []model.Trainer{
		{ID: "t1", Name: "Carla", LastName: "Reyes", Email: "carla@example.com"},
		{ID: "t2", Name: "Bruno", LastName: "Diaz", Email: "bruno@example.com"},
	}}
	svc := NewTrainerService(stub, 5*time.Minute)

	_, err := svc.List(context.Background())
	require.NoError(t, err)

	matches := svc.Search("REYES")
	require.Len(t, matches, 1)
	require.Equal(t, "Carla", matches[0].Name)

	// Clearing the query restores the full list in original order.
	all := svc.Search("")
	require.Len(t, all, 2)
	require.Equal(t, "t1", all[0].ID)
}
