package dto

import (
	"github.com/shopspring/decimal"

	"github.com/spec-kit/reimbursement-service/internal/domain"
)

// SubmitTicketRequest payload. Amount is untyped so clients may send a
// JSON number or a string; sanitization decides what it is worth.
type SubmitTicketRequest struct {
	Type        string `json:"type"`
	Amount      any    `json:"amount"`
	Description string `json:"description"`
}

// ProcessTicketRequest carries the target status for a pending ticket.
type ProcessTicketRequest struct {
	Status string `json:"status"`
}

// TicketResponse mirrors the stored record.
type TicketResponse struct {
	Submitter   string              `json:"submitter"`
	Timestamp   int64               `json:"timestamp"`
	Status      domain.TicketStatus `json:"status"`
	Type        string              `json:"type"`
	Amount      decimal.Decimal     `json:"amount"`
	Description string              `json:"description"`
	Resolver    *string             `json:"resolver,omitempty"`
}

// NewTicketResponse maps a domain ticket to its response shape.
func NewTicketResponse(ticket *domain.Ticket) TicketResponse {
	return TicketResponse{
		Submitter:   ticket.Submitter,
		Timestamp:   ticket.Timestamp,
		Status:      ticket.Status,
		Type:        ticket.Type,
		Amount:      ticket.Amount,
		Description: ticket.Description,
		Resolver:    ticket.Resolver,
	}
}
