package domain

import "github.com/shopspring/decimal"

// TicketStatus enumerates lifecycle states for reimbursement tickets.
type TicketStatus string

const (
	TicketStatusPending  TicketStatus = "pending"
	TicketStatusApproved TicketStatus = "approved"
	TicketStatusDenied   TicketStatus = "denied"
)

// DefaultExpenseType is applied when a submission omits the expense type.
const DefaultExpenseType = "other"

// ValidTicketStatus reports whether s is a known lifecycle state.
func ValidTicketStatus(s TicketStatus) bool {
	switch s {
	case TicketStatusPending, TicketStatusApproved, TicketStatusDenied:
		return true
	}
	return false
}

// TerminalTicketStatus reports whether s is a state a pending ticket may
// transition to. Pending itself is not a valid transition target.
func TerminalTicketStatus(s TicketStatus) bool {
	return s == TicketStatusApproved || s == TicketStatusDenied
}

// Ticket is the aggregate for reimbursement requests. Submitter and
// Timestamp together form the primary key; Timestamp is the creation
// instant in milliseconds since the epoch. Once Status leaves pending
// the record is immutable.
type Ticket struct {
	Submitter   string
	Timestamp   int64
	Status      TicketStatus
	Type        string
	Amount      decimal.Decimal
	Description string
	Resolver    *string
}
