package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/reimbursement-service/internal/domain"
	"github.com/spec-kit/reimbursement-service/internal/events"
	"github.com/spec-kit/reimbursement-service/internal/repository"
	"github.com/spec-kit/reimbursement-service/internal/validation"
	apperrors "github.com/spec-kit/reimbursement-service/pkg/util/errorutil"
)

// TicketService enforces role rules and orchestrates ticket reads and
// writes against the store. Each call is an independent, stateless unit
// of work; concurrent processing safety is delegated entirely to the
// store's conditional update.
type TicketService struct {
	tickets    repository.TicketRepository
	dispatcher events.Dispatcher
	now        func() int64
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo repository.TicketRepository
	Dispatcher events.Dispatcher
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:    deps.TicketRepo,
		dispatcher: deps.Dispatcher,
		now:        func() int64 { return time.Now().UnixMilli() },
	}
}

// Submit creates a pending ticket for an employee. Managers cannot
// submit. A primary-key collision from the store propagates as a
// duplicate fault rather than being swallowed.
func (s *TicketService) Submit(ctx context.Context, input validation.SubmissionInput) (*domain.Ticket, error) {
	if input.Role != domain.RoleEmployee {
		return nil, apperrors.NewAuthorizationError("only accounts with role of employee can submit tickets")
	}

	ticket := &domain.Ticket{
		Submitter:   input.Username,
		Timestamp:   s.now(),
		Status:      domain.TicketStatusPending,
		Type:        input.Type,
		Amount:      input.Amount,
		Description: input.Description,
	}
	if err := s.tickets.Add(ctx, ticket); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:        events.EventTicketSubmitted,
		Submitter:   ticket.Submitter,
		SubmittedAt: ticket.Timestamp,
		Actor:       input.Username,
		Payload: events.TicketSubmittedPayload{
			ExpenseType: ticket.Type,
			Amount:      ticket.Amount,
		},
	})
	return ticket, nil
}

// Retrieve lists tickets visible to the caller. For employees the
// effective submitter filter is forced to the caller's own username; a
// client-supplied submitter is discarded. Managers pass filters through
// unmodified.
func (s *TicketService) Retrieve(ctx context.Context, input validation.RetrievalInput) ([]domain.Ticket, error) {
	filters := repository.Filters{
		Submitter: input.Submitter,
		Status:    input.Status,
		Type:      input.Type,
	}
	if input.Role == domain.RoleEmployee {
		filters.Submitter = input.Username
	}

	plan := repository.PlanQuery(filters)
	return s.tickets.Find(ctx, plan)
}

// Process applies a terminal status to a pending ticket on behalf of a
// manager, recording the manager as resolver. A ticket that is no longer
// pending reports a conflict result carrying the current record; the
// write is never retried, since the precondition is legitimately false
// by then.
func (s *TicketService) Process(ctx context.Context, input validation.ProcessingInput) (repository.StatusUpdateResult, error) {
	if input.Role != domain.RoleManager {
		return repository.StatusUpdateResult{}, apperrors.NewAuthorizationError("only accounts with role of manager can process tickets")
	}

	result, err := s.tickets.UpdateStatus(ctx, repository.StatusUpdate{
		Submitter: input.Submitter,
		Timestamp: input.Timestamp,
		Status:    input.Status,
		Resolver:  input.Username,
	})
	if err != nil {
		return repository.StatusUpdateResult{}, err
	}

	if result.Updated {
		s.publishEvent(ctx, events.Event{
			Type:        events.EventTicketProcessed,
			Submitter:   input.Submitter,
			SubmittedAt: input.Timestamp,
			Actor:       input.Username,
			Payload: events.TicketProcessedPayload{
				NewStatus: input.Status,
				Resolver:  input.Username,
			},
		})
	}
	return result, nil
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
