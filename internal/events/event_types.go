package events

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/spec-kit/reimbursement-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketSubmitted EventType = "ticket_submitted"
	EventTicketProcessed EventType = "ticket_processed"
)

// Event represents a domain event emitted by services. Submitter and
// SubmittedAt identify the ticket the event concerns.
type Event struct {
	ID          string      `json:"id"`
	Type        EventType   `json:"type"`
	Submitter   string      `json:"submitter"`
	SubmittedAt int64       `json:"submitted_at"`
	Actor       string      `json:"actor"`
	Timestamp   time.Time   `json:"timestamp"`
	Payload     interface{} `json:"payload"`
}

// TicketSubmittedPayload payload.
type TicketSubmittedPayload struct {
	ExpenseType string          `json:"expense_type"`
	Amount      decimal.Decimal `json:"amount"`
}

// TicketProcessedPayload payload.
type TicketProcessedPayload struct {
	NewStatus domain.TicketStatus `json:"new_status"`
	Resolver  string              `json:"resolver"`
}
