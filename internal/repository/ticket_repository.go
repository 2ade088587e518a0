package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/reimbursement-service/internal/domain"
)

var (
	// ErrDuplicateTicket reports an insert whose primary key already exists.
	ErrDuplicateTicket = errors.New("ticket already exists")
	// ErrTicketNotFound reports a status update addressing a missing ticket.
	ErrTicketNotFound = errors.New("ticket not found")
)

// StatusUpdate addresses one ticket and the terminal status to apply.
type StatusUpdate struct {
	Submitter string
	Timestamp int64
	Status    domain.TicketStatus
	Resolver  string
}

// StatusUpdateResult is the outcome of a conditional status write.
// Updated true carries the new record. Updated false means the
// status-is-pending precondition failed; Ticket then holds the current
// record when it could be read. Faults are returned as errors.
type StatusUpdateResult struct {
	Updated bool
	Ticket  *domain.Ticket
}

// TicketRepository is the store contract the ticket service depends on.
type TicketRepository interface {
	// Add inserts a ticket only if its primary key is absent.
	Add(ctx context.Context, ticket *domain.Ticket) error
	// Find executes the planned access path, ordered by creation time.
	Find(ctx context.Context, plan Plan) ([]domain.Ticket, error)
	// UpdateStatus atomically sets status and resolver only while the
	// addressed ticket is still pending.
	UpdateStatus(ctx context.Context, update StatusUpdate) (StatusUpdateResult, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository returns a Postgres-backed implementation.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

func (r *ticketRepository) Add(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (submitter, submitted_at, status, expense_type, amount, description)
        VALUES ($1,$2,$3,$4,$5,$6)
        ON CONFLICT (submitter, submitted_at) DO NOTHING`

	cmd, err := r.pool.Exec(ctx, query,
		ticket.Submitter,
		ticket.Timestamp,
		ticket.Status,
		ticket.Type,
		ticket.Amount,
		ticket.Description,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrDuplicateTicket
	}
	return nil
}

const ticketColumns = "submitter, submitted_at, status, expense_type, amount, description, resolver"

func buildFindQuery(plan Plan) (string, []any) {
	clauses := []string{}
	args := []any{}

	switch plan.Path {
	case PathBySubmitter:
		args = append(args, plan.Key)
		clauses = append(clauses, fmt.Sprintf("submitter=$%d", len(args)))
	case PathByStatus:
		args = append(args, plan.Key)
		clauses = append(clauses, fmt.Sprintf("status=$%d", len(args)))
	case PathByType:
		args = append(args, plan.Key)
		clauses = append(clauses, fmt.Sprintf("expense_type=$%d", len(args)))
	case PathScan:
	}

	if plan.Residual.Status != "" {
		args = append(args, plan.Residual.Status)
		clauses = append(clauses, fmt.Sprintf("status=$%d", len(args)))
	}
	if plan.Residual.Type != "" {
		args = append(args, plan.Residual.Type)
		clauses = append(clauses, fmt.Sprintf("expense_type=$%d", len(args)))
	}

	query := "SELECT " + ticketColumns + " FROM tickets"
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY submitted_at"
	return query, args
}

func (r *ticketRepository) Find(ctx context.Context, plan Plan) ([]domain.Ticket, error) {
	query, args := buildFindQuery(plan)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) UpdateStatus(ctx context.Context, update StatusUpdate) (StatusUpdateResult, error) {
	const query = `
        UPDATE tickets SET status=$3, resolver=$4
        WHERE submitter=$1 AND submitted_at=$2 AND status='pending'
        RETURNING ` + ticketColumns

	var ticket domain.Ticket
	err := r.pool.QueryRow(ctx, query,
		update.Submitter,
		update.Timestamp,
		update.Status,
		update.Resolver,
	).Scan(
		&ticket.Submitter,
		&ticket.Timestamp,
		&ticket.Status,
		&ticket.Type,
		&ticket.Amount,
		&ticket.Description,
		&ticket.Resolver,
	)
	if err == nil {
		return StatusUpdateResult{Updated: true, Ticket: &ticket}, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return StatusUpdateResult{}, err
	}

	// The precondition failed or the ticket does not exist; read the
	// current row to tell the two apart.
	current, err := r.get(ctx, update.Submitter, update.Timestamp)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return StatusUpdateResult{}, ErrTicketNotFound
		}
		return StatusUpdateResult{}, err
	}
	return StatusUpdateResult{Updated: false, Ticket: current}, nil
}

func (r *ticketRepository) get(ctx context.Context, submitter string, timestamp int64) (*domain.Ticket, error) {
	const query = `
        SELECT ` + ticketColumns + `
        FROM tickets WHERE submitter=$1 AND submitted_at=$2`

	var ticket domain.Ticket
	if err := r.pool.QueryRow(ctx, query, submitter, timestamp).Scan(
		&ticket.Submitter,
		&ticket.Timestamp,
		&ticket.Status,
		&ticket.Type,
		&ticket.Amount,
		&ticket.Description,
		&ticket.Resolver,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := rows.Scan(
			&ticket.Submitter,
			&ticket.Timestamp,
			&ticket.Status,
			&ticket.Type,
			&ticket.Amount,
			&ticket.Description,
			&ticket.Resolver,
		); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}
