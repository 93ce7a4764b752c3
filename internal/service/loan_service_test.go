package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"fitsync/internal/event"
	"fitsync/internal/model"
)

type stubLoanLedger struct {
	mu        sync.Mutex
	loans     []model.Loan
	listCalls int
}

func (s *stubLoanLedger) List(ctx context.Context) ([]model.Loan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listCalls++
	return append([]model.Loan(nil), s.loans...), nil
}

func (s *stubLoanLedger) ListByUser(ctx context.Context, userID string) ([]model.Loan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Loan, 0)
	for _, l := range s.loans {
		if l.UserID == userID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (s *stubLoanLedger) Create(ctx context.Context, id string, userID string, equipmentID string) (model.Loan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l := model.Loan{ID: id, UserID: userID, EquipmentID: equipmentID, Status: model.LoanPending}
	s.loans = append(s.loans, l)
	return l, nil
}

func (s *stubLoanLedger) Complete(ctx context.Context, id string) (model.Loan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, l := range s.loans {
		if l.ID == id {
			s.loans[i].Status = model.LoanReturned
			return s.loans[i], nil
		}
	}
	return model.Loan{}, model.ErrLoanNotFound
}

func (s *stubLoanLedger) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listCalls
}

// A renamed piece of equipment must show up in loan listings, which carry
// the equipment name denormalized.
func TestEquipmentUpdatesInvalidateLoanCache(t *testing.T) {
	stub := &stubLoanLedger{loans: []model.Loan{
		{ID: "l1", UserID: "u1", EquipmentID: "e1", EquipmentName: "Rower", Status: model.LoanPending},
	}}
	bus := event.NewBus()
	svc := NewLoanService(stub, 5*time.Minute, bus)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go svc.Listen(ctx, bus)

	_, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, stub.calls())

	_, err = svc.List(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, stub.calls())

	bus.Publish(event.NewEvent(event.TypeEquipmentUpdated, nil, "admin"))

	require.Eventually(t, func() bool {
		_, listErr := svc.List(context.Background())
		return listErr == nil && stub.calls() >= 2
	}, 2*time.Second, 10*time.Millisecond)
}

func TestLoanEventsDoNotInvalidateLoanCache(t *testing.T) {
	stub := &stubLoanLedger{}
	bus := event.NewBus()
	svc := NewLoanService(stub, 5*time.Minute, bus)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go svc.Listen(ctx, bus)

	_, err := svc.List(context.Background())
	require.NoError(t, err)

	bus.Publish(event.NewEvent(event.TypeLoanCreated, nil, "u1"))
	time.Sleep(50 * time.Millisecond)

	_, err = svc.List(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, stub.calls())
}

func TestLoanCreateValidatesAndPublishes(t *testing.T) {
	stub := &stubLoanLedger{}
	bus := event.NewBus()
	svc := NewLoanService(stub, 5*time.Minute, bus)

	_, err := svc.Create(context.Background(), " ", "e1")
	require.Error(t, err)

	events, unsubscribe := bus.Subscribe()
	defer unsubscribe()

	loan, err := svc.Create(context.Background(), "u1", "e1")
	require.NoError(t, err)
	require.Equal(t, model.LoanPending, loan.Status)

	select {
	case e := <-events:
		require.Equal(t, event.TypeLoanCreated, e.Type)
	case <-time.After(time.Second):
		t.Fatal("no event published for loan creation")
	}
}
