package handlers

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/reimbursement-service/internal/api/dto"
	"github.com/spec-kit/reimbursement-service/internal/auth"
	"github.com/spec-kit/reimbursement-service/internal/repository"
	"github.com/spec-kit/reimbursement-service/internal/service"
	"github.com/spec-kit/reimbursement-service/internal/validation"
	apperrors "github.com/spec-kit/reimbursement-service/pkg/util/errorutil"
)

// TicketsHandler manages ticket endpoints.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// Submit POST /tickets.
func (h *TicketsHandler) Submit(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.SubmitTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewArgumentError("invalid payload", nil)
	}

	input, err := validation.ValidateSubmission(validation.SubmissionRequest{
		Username:    principal.Username,
		Role:        string(principal.Role),
		Type:        req.Type,
		Amount:      req.Amount,
		Description: req.Description,
	})
	if err != nil {
		return err
	}

	ticket, err := h.service.Submit(c.Context(), input)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateTicket) {
			return apperrors.NewConflict("ticket already submitted", nil)
		}
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"message": "ticket successfully submitted",
		"ticket":  dto.NewTicketResponse(ticket),
	})
}

// List GET /tickets.
func (h *TicketsHandler) List(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	input, err := validation.ValidateRetrievalFilters(principal.Username, string(principal.Role), validation.RetrievalQuery{
		Status:    c.Query("status"),
		Type:      c.Query("type"),
		Submitter: c.Query("submitter"),
	})
	if err != nil {
		return err
	}

	tickets, err := h.service.Retrieve(c.Context(), input)
	if err != nil {
		return err
	}

	items := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, dto.NewTicketResponse(&tickets[i]))
	}
	return c.JSON(fiber.Map{
		"message": "tickets successfully retrieved",
		"tickets": items,
	})
}

// Process PATCH /tickets/:submitter/:timestamp.
func (h *TicketsHandler) Process(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.ProcessTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewArgumentError("invalid payload", nil)
	}

	input, err := validation.ValidateProcessing(principal.Username, string(principal.Role), validation.ProcessingRequest{
		Status:    req.Status,
		Submitter: c.Params("submitter"),
		Timestamp: c.Params("timestamp"),
	})
	if err != nil {
		return err
	}

	result, err := h.service.Process(c.Context(), input)
	if err != nil {
		if errors.Is(err, repository.ErrTicketNotFound) {
			return apperrors.NewNotFound("ticket", nil)
		}
		return err
	}
	if !result.Updated {
		details := map[string]any{}
		if result.Ticket != nil {
			details["ticket"] = dto.NewTicketResponse(result.Ticket)
		}
		return apperrors.NewConflict("ticket already processed", details)
	}
	return c.JSON(fiber.Map{
		"message": "ticket successfully processed",
		"ticket":  dto.NewTicketResponse(result.Ticket),
	})
}
