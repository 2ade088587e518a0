package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/reimbursement-service/internal/domain"
	"github.com/spec-kit/reimbursement-service/internal/repository"
	"github.com/spec-kit/reimbursement-service/internal/validation"
	apperrors "github.com/spec-kit/reimbursement-service/pkg/util/errorutil"
)

type ticketKey struct {
	submitter string
	timestamp int64
}

// memTicketStore is an in-memory TicketRepository with the same
// conditional-write semantics as the Postgres implementation.
type memTicketStore struct {
	mu      sync.Mutex
	tickets map[ticketKey]domain.Ticket

	addCalls    int
	updateCalls int
	lastPlan    repository.Plan

	failAdd    error
	failUpdate error
}

func newMemTicketStore() *memTicketStore {
	return &memTicketStore{tickets: make(map[ticketKey]domain.Ticket)}
}

func (m *memTicketStore) Add(_ context.Context, ticket *domain.Ticket) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.addCalls++
	if m.failAdd != nil {
		return m.failAdd
	}
	key := ticketKey{ticket.Submitter, ticket.Timestamp}
	if _, exists := m.tickets[key]; exists {
		return repository.ErrDuplicateTicket
	}
	m.tickets[key] = *ticket
	return nil
}

func (m *memTicketStore) Find(_ context.Context, plan repository.Plan) ([]domain.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastPlan = plan

	match := func(t domain.Ticket) bool {
		switch plan.Path {
		case repository.PathBySubmitter:
			if t.Submitter != plan.Key {
				return false
			}
		case repository.PathByStatus:
			if string(t.Status) != plan.Key {
				return false
			}
		case repository.PathByType:
			if t.Type != plan.Key {
				return false
			}
		}
		if plan.Residual.Status != "" && string(t.Status) != plan.Residual.Status {
			return false
		}
		if plan.Residual.Type != "" && t.Type != plan.Residual.Type {
			return false
		}
		return true
	}

	var result []domain.Ticket
	for _, t := range m.tickets {
		if match(t) {
			result = append(result, t)
		}
	}
	return result, nil
}

func (m *memTicketStore) UpdateStatus(_ context.Context, update repository.StatusUpdate) (repository.StatusUpdateResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateCalls++
	if m.failUpdate != nil {
		return repository.StatusUpdateResult{}, m.failUpdate
	}

	key := ticketKey{update.Submitter, update.Timestamp}
	current, exists := m.tickets[key]
	if !exists {
		return repository.StatusUpdateResult{}, repository.ErrTicketNotFound
	}
	if current.Status != domain.TicketStatusPending {
		snapshot := current
		return repository.StatusUpdateResult{Updated: false, Ticket: &snapshot}, nil
	}

	current.Status = update.Status
	resolver := update.Resolver
	current.Resolver = &resolver
	m.tickets[key] = current
	return repository.StatusUpdateResult{Updated: true, Ticket: &current}, nil
}

func newTestService(store repository.TicketRepository) *TicketService {
	svc := NewTicketService(TicketDependencies{TicketRepo: store})
	return svc
}

func submissionInput(username string) validation.SubmissionInput {
	return validation.SubmissionInput{
		Username:    username,
		Role:        domain.RoleEmployee,
		Type:        "travel",
		Amount:      decimal.RequireFromString("120.50"),
		Description: "train to client site",
	}
}

func TestSubmit(t *testing.T) {
	t.Run("creates pending ticket", func(t *testing.T) {
		store := newMemTicketStore()
		svc := newTestService(store)
		svc.now = func() int64 { return 1700000000000 }

		ticket, err := svc.Submit(context.Background(), submissionInput("alice"))
		require.NoError(t, err)
		assert.Equal(t, "alice", ticket.Submitter)
		assert.Equal(t, int64(1700000000000), ticket.Timestamp)
		assert.Equal(t, domain.TicketStatusPending, ticket.Status)
		assert.Equal(t, "travel", ticket.Type)
		assert.Nil(t, ticket.Resolver)
		assert.Equal(t, 1, store.addCalls)
	})

	t.Run("manager cannot submit", func(t *testing.T) {
		store := newMemTicketStore()
		svc := newTestService(store)

		input := submissionInput("boss")
		input.Role = domain.RoleManager
		_, err := svc.Submit(context.Background(), input)
		require.Error(t, err)
		assert.True(t, apperrors.IsAuthorizationError(err))
		assert.Zero(t, store.addCalls)
	})

	t.Run("duplicate key propagates", func(t *testing.T) {
		store := newMemTicketStore()
		svc := newTestService(store)
		svc.now = func() int64 { return 42 }

		_, err := svc.Submit(context.Background(), submissionInput("alice"))
		require.NoError(t, err)
		_, err = svc.Submit(context.Background(), submissionInput("alice"))
		assert.ErrorIs(t, err, repository.ErrDuplicateTicket)
	})

	t.Run("store fault propagates", func(t *testing.T) {
		store := newMemTicketStore()
		store.failAdd = errors.New("connection refused")
		svc := newTestService(store)

		_, err := svc.Submit(context.Background(), submissionInput("alice"))
		assert.EqualError(t, err, "connection refused")
	})
}

func TestRetrieve(t *testing.T) {
	t.Run("employee is scoped to own tickets", func(t *testing.T) {
		store := newMemTicketStore()
		svc := newTestService(store)

		// An employee asking for someone else's tickets gets their own
		// submitter forced into the plan instead.
		_, err := svc.Retrieve(context.Background(), validation.RetrievalInput{
			Username:  "alice",
			Role:      domain.RoleEmployee,
			Submitter: "bob",
			Status:    "pending",
		})
		require.NoError(t, err)
		assert.Equal(t, repository.PathBySubmitter, store.lastPlan.Path)
		assert.Equal(t, "alice", store.lastPlan.Key)
		assert.Equal(t, "pending", store.lastPlan.Residual.Status)
	})

	t.Run("employee without filters still scoped", func(t *testing.T) {
		store := newMemTicketStore()
		svc := newTestService(store)

		_, err := svc.Retrieve(context.Background(), validation.RetrievalInput{
			Username: "alice",
			Role:     domain.RoleEmployee,
		})
		require.NoError(t, err)
		assert.Equal(t, repository.PathBySubmitter, store.lastPlan.Path)
		assert.Equal(t, "alice", store.lastPlan.Key)
	})

	t.Run("manager filters pass through", func(t *testing.T) {
		store := newMemTicketStore()
		svc := newTestService(store)

		_, err := svc.Retrieve(context.Background(), validation.RetrievalInput{
			Username: "boss",
			Role:     domain.RoleManager,
			Status:   "pending",
		})
		require.NoError(t, err)
		assert.Equal(t, repository.PathByStatus, store.lastPlan.Path)
		assert.Equal(t, "pending", store.lastPlan.Key)
	})

	t.Run("manager without filters scans", func(t *testing.T) {
		store := newMemTicketStore()
		svc := newTestService(store)

		_, err := svc.Retrieve(context.Background(), validation.RetrievalInput{
			Username: "boss",
			Role:     domain.RoleManager,
		})
		require.NoError(t, err)
		assert.Equal(t, repository.PathScan, store.lastPlan.Path)
	})

	t.Run("round trip finds submitted ticket", func(t *testing.T) {
		store := newMemTicketStore()
		svc := newTestService(store)
		svc.now = func() int64 { return 1700000000000 }

		_, err := svc.Submit(context.Background(), submissionInput("alice"))
		require.NoError(t, err)

		tickets, err := svc.Retrieve(context.Background(), validation.RetrievalInput{
			Username: "alice",
			Role:     domain.RoleEmployee,
		})
		require.NoError(t, err)
		require.Len(t, tickets, 1)
		assert.Equal(t, "alice", tickets[0].Submitter)
		assert.Equal(t, domain.TicketStatusPending, tickets[0].Status)
	})
}

func TestProcess(t *testing.T) {
	seed := func(store *memTicketStore) validation.ProcessingInput {
		store.tickets[ticketKey{"alice", 1700000000000}] = domain.Ticket{
			Submitter:   "alice",
			Timestamp:   1700000000000,
			Status:      domain.TicketStatusPending,
			Type:        "travel",
			Amount:      decimal.RequireFromString("120.50"),
			Description: "train to client site",
		}
		return validation.ProcessingInput{
			Username:  "boss",
			Role:      domain.RoleManager,
			Submitter: "alice",
			Timestamp: 1700000000000,
			Status:    domain.TicketStatusApproved,
		}
	}

	t.Run("approves pending ticket", func(t *testing.T) {
		store := newMemTicketStore()
		svc := newTestService(store)
		input := seed(store)

		result, err := svc.Process(context.Background(), input)
		require.NoError(t, err)
		assert.True(t, result.Updated)
		require.NotNil(t, result.Ticket)
		assert.Equal(t, domain.TicketStatusApproved, result.Ticket.Status)
		require.NotNil(t, result.Ticket.Resolver)
		assert.Equal(t, "boss", *result.Ticket.Resolver)
	})

	t.Run("employee cannot process", func(t *testing.T) {
		store := newMemTicketStore()
		svc := newTestService(store)
		input := seed(store)
		input.Role = domain.RoleEmployee

		_, err := svc.Process(context.Background(), input)
		require.Error(t, err)
		assert.True(t, apperrors.IsAuthorizationError(err))
		assert.Zero(t, store.updateCalls)
	})

	t.Run("already processed reports conflict with current record", func(t *testing.T) {
		store := newMemTicketStore()
		svc := newTestService(store)
		input := seed(store)

		first, err := svc.Process(context.Background(), input)
		require.NoError(t, err)
		require.True(t, first.Updated)

		input.Status = domain.TicketStatusDenied
		second, err := svc.Process(context.Background(), input)
		require.NoError(t, err)
		assert.False(t, second.Updated)
		require.NotNil(t, second.Ticket)
		assert.Equal(t, domain.TicketStatusApproved, second.Ticket.Status)
	})

	t.Run("missing ticket propagates not found", func(t *testing.T) {
		store := newMemTicketStore()
		svc := newTestService(store)

		_, err := svc.Process(context.Background(), validation.ProcessingInput{
			Username:  "boss",
			Role:      domain.RoleManager,
			Submitter: "nobody",
			Timestamp: 1,
			Status:    domain.TicketStatusApproved,
		})
		assert.ErrorIs(t, err, repository.ErrTicketNotFound)
	})

	t.Run("store fault propagates", func(t *testing.T) {
		store := newMemTicketStore()
		store.failUpdate = errors.New("connection reset")
		svc := newTestService(store)
		input := seed(store)

		_, err := svc.Process(context.Background(), input)
		assert.EqualError(t, err, "connection reset")
	})

	t.Run("concurrent processing has exactly one winner", func(t *testing.T) {
		store := newMemTicketStore()
		svc := newTestService(store)
		input := seed(store)

		approve := input
		deny := input
		deny.Username = "otherboss"
		deny.Status = domain.TicketStatusDenied

		var wg sync.WaitGroup
		results := make([]repository.StatusUpdateResult, 2)
		errs := make([]error, 2)

		wg.Add(2)
		go func() {
			defer wg.Done()
			results[0], errs[0] = svc.Process(context.Background(), approve)
		}()
		go func() {
			defer wg.Done()
			results[1], errs[1] = svc.Process(context.Background(), deny)
		}()
		wg.Wait()

		require.NoError(t, errs[0])
		require.NoError(t, errs[1])

		winners := 0
		for i, result := range results {
			if result.Updated {
				winners++
				require.NotNil(t, result.Ticket)
				if i == 0 {
					assert.Equal(t, "boss", *result.Ticket.Resolver)
				} else {
					assert.Equal(t, "otherboss", *result.Ticket.Resolver)
				}
			} else {
				// The loser sees the winner's terminal state.
				require.NotNil(t, result.Ticket)
				assert.True(t, domain.TerminalTicketStatus(result.Ticket.Status))
			}
		}
		assert.Equal(t, 1, winners)
	})
}
