// Package validation sanitizes and type-checks ticket and account inputs
// before they reach the service layer. Violations surface as argument
// errors and never reach the store.
package validation

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/spec-kit/reimbursement-service/internal/domain"
	apperrors "github.com/spec-kit/reimbursement-service/pkg/util/errorutil"
)

const (
	maxUsernameLength = 40
	maxPasswordLength = 200
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9]+$`)

// SubmissionRequest carries raw ticket submission fields together with
// the authenticated caller identity. Amount is untyped because clients
// send it as either a JSON number or a string.
type SubmissionRequest struct {
	Username    string
	Role        string
	Type        string
	Amount      any
	Description string
}

// SubmissionInput is a sanitized submission ready for the service layer.
type SubmissionInput struct {
	Username    string
	Role        domain.Role
	Type        string
	Amount      decimal.Decimal
	Description string
}

// ValidateSubmission sanitizes and validates a new ticket submission.
// The expense type defaults to "other" when absent or empty.
func ValidateSubmission(req SubmissionRequest) (SubmissionInput, error) {
	amount := SanitizeMoney(req.Amount)

	expenseType := strings.TrimSpace(req.Type)
	if expenseType == "" {
		expenseType = domain.DefaultExpenseType
	}

	role, roleOK := domain.ParseRole(req.Role)
	if req.Username == "" || !roleOK || req.Description == "" || !amount.IsPositive() {
		return SubmissionInput{}, apperrors.NewArgumentError("invalid request body parameters for ticket submission", nil)
	}

	return SubmissionInput{
		Username:    req.Username,
		Role:        role,
		Type:        expenseType,
		Amount:      amount,
		Description: req.Description,
	}, nil
}

// SanitizeMoney converts any value to a decimal rounded to 2 places.
// Non-numeric or non-finite input yields zero, which fails the
// amount > 0 check upstream instead of erroring here.
func SanitizeMoney(v any) decimal.Decimal {
	switch val := v.(type) {
	case nil:
		return decimal.Zero
	case decimal.Decimal:
		return val.Round(2)
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return decimal.Zero
		}
		return decimal.NewFromFloat(val).Round(2)
	case float32:
		return SanitizeMoney(float64(val))
	case int:
		return decimal.NewFromInt(int64(val))
	case int64:
		return decimal.NewFromInt(val)
	case json.Number:
		return SanitizeMoney(string(val))
	case string:
		parsed, err := decimal.NewFromString(strings.TrimSpace(val))
		if err != nil {
			return decimal.Zero
		}
		return parsed.Round(2)
	default:
		return decimal.Zero
	}
}

// RetrievalQuery holds the optional filter parameters of a listing call.
type RetrievalQuery struct {
	Status    string
	Type      string
	Submitter string
}

// RetrievalInput is a validated listing request. Empty filter fields
// mean the filter is absent.
type RetrievalInput struct {
	Username  string
	Role      domain.Role
	Status    string
	Type      string
	Submitter string
}

// ValidateRetrievalFilters validates the caller identity and passes the
// optional filters through unmodified.
func ValidateRetrievalFilters(username, role string, q RetrievalQuery) (RetrievalInput, error) {
	parsedRole, ok := domain.ParseRole(role)
	if username == "" || !ok {
		return RetrievalInput{}, apperrors.NewArgumentError("invalid request parameters for getting tickets", nil)
	}

	return RetrievalInput{
		Username:  username,
		Role:      parsedRole,
		Status:    q.Status,
		Type:      q.Type,
		Submitter: q.Submitter,
	}, nil
}

// ProcessingRequest carries the raw parameters of a process call: the
// target status from the body and the ticket identity from the path.
type ProcessingRequest struct {
	Status    string
	Submitter string
	Timestamp string
}

// ProcessingInput is a validated process request.
type ProcessingInput struct {
	Username  string
	Role      domain.Role
	Submitter string
	Timestamp int64
	Status    domain.TicketStatus
}

// ValidateProcessing validates a status transition request. The target
// status must be approved or denied; pending is explicitly rejected.
func ValidateProcessing(username, role string, req ProcessingRequest) (ProcessingInput, error) {
	parsedRole, ok := domain.ParseRole(role)
	if username == "" || !ok {
		return ProcessingInput{}, apperrors.NewArgumentError("invalid caller identity for processing a ticket", nil)
	}

	status := domain.TicketStatus(req.Status)
	if !domain.TerminalTicketStatus(status) {
		return ProcessingInput{}, apperrors.NewArgumentError("new status must be approved or denied", nil)
	}

	submitter, err := SanitizeUsername(req.Submitter)
	if err != nil {
		return ProcessingInput{}, err
	}

	timestamp, err := SanitizeTimestamp(req.Timestamp)
	if err != nil {
		return ProcessingInput{}, err
	}

	return ProcessingInput{
		Username:  username,
		Role:      parsedRole,
		Submitter: submitter,
		Timestamp: timestamp,
		Status:    status,
	}, nil
}

// SanitizeUsername checks that a value is a valid username: alphanumeric
// characters only, at most 40 long.
func SanitizeUsername(username string) (string, error) {
	if username == "" || !usernamePattern.MatchString(username) || len(username) > maxUsernameLength {
		return "", apperrors.NewArgumentError("username must be alphanumeric and at most 40 characters", nil)
	}
	return username, nil
}

// ValidatePassword checks that a password is present and within bounds.
func ValidatePassword(password string) (string, error) {
	if password == "" || len(password) > maxPasswordLength {
		return "", apperrors.NewArgumentError("password is required and must be at most 200 characters", nil)
	}
	return password, nil
}

// SanitizeTimestamp parses a ticket creation instant: a positive integer
// of epoch milliseconds strictly before the instant of validation.
func SanitizeTimestamp(raw string) (int64, error) {
	timestamp, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || timestamp <= 0 || timestamp >= time.Now().UnixMilli() {
		return 0, apperrors.NewArgumentError("timestamp must be a positive integer in the past", nil)
	}
	return timestamp, nil
}
