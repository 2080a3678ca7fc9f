package v1

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/felicity-events/felicity-api/internal/api/handler/v1/request"
	"github.com/felicity-events/felicity-api/internal/api/handler/v1/response"
	"github.com/felicity-events/felicity-api/internal/domain"
	"github.com/felicity-events/felicity-api/internal/filestore"
	"github.com/felicity-events/felicity-api/internal/service"
)

type RegistrationService interface {
	Register(ctx context.Context, participantID, eventID uint, formResponses map[string]string) (domain.Registration, error)
	OrderMerchandise(ctx context.Context, participantID, eventID uint, itemName, size, color string, quantity int, formResponses map[string]string) (domain.Registration, error)
	UploadPaymentProof(ctx context.Context, participantID, registrationID uint, proofURL string) (domain.Registration, error)
	ApprovePayment(ctx context.Context, organizerID, registrationID uint) (domain.Registration, error)
	RejectPayment(ctx context.Context, organizerID, registrationID uint, reason string) (domain.Registration, error)
	CheckIn(ctx context.Context, organizerID, eventID uint, qrPayload string) (domain.Registration, error)
	CheckInManual(ctx context.Context, organizerID, eventID, registrationID uint) (domain.Registration, error)
	GetMyRegistrations(ctx context.Context, participantID uint) ([]domain.Registration, error)
	GetTicket(ctx context.Context, participantID, eventID uint) (domain.Registration, error)
	ListEventRegistrations(ctx context.Context, organizerID, eventID uint) ([]domain.Registration, error)
}

type RegistrationHandler struct {
	svc   RegistrationService
	uSvc  UserService
	store *filestore.LocalStore
}

func NewRegistrationHandler(svc RegistrationService, uSvc UserService, store *filestore.LocalStore) *RegistrationHandler {
	return &RegistrationHandler{
		svc:   svc,
		uSvc:  uSvc,
		store: store,
	}
}

func parseRegistrationID(ctx *gin.Context) (uint, *response.Err) {
	registrationID, err := strconv.ParseUint(ctx.Param("registrationID"), 10, 32)
	if err != nil {
		return 0, response.ErrBadRequest(errors.New("invalid registration ID"))
	}
	return uint(registrationID), nil
}

func renderRegistrationPreconditionErr(ctx *gin.Context, eventID uint, err error) bool {
	switch {
	case errors.Is(err, service.ErrEventNotFound):
		response.RenderErr(ctx, response.ErrNotFound("event", "ID", eventID))
	case errors.Is(err, service.ErrAlreadyRegistered):
		response.RenderErr(ctx, response.ErrConflict(service.ErrAlreadyRegistered))
	case errors.Is(err, service.ErrEventNotOpen),
		errors.Is(err, service.ErrDeadlinePassed),
		errors.Is(err, service.ErrNotEligible),
		errors.Is(err, service.ErrWrongEventType):
		response.RenderErr(ctx, response.ErrBadRequest(err))
	case errors.Is(err, service.ErrRegistrationLimitReached):
		response.RenderErr(ctx, response.ErrConflict(service.ErrRegistrationLimitReached))
	default:
		return false
	}
	return true
}

// HandleRegister godoc
// @Summary      Register for an event
// @Description  Confirms immediately and issues a ticket; paid events stay payment-pending until a proof is approved
// @Tags         registrations
// @Produce      json
// @Param        eventID  path      int true "Event ID"
// @Param        request  body      request.RegisterRequest true "request body"
// @Success      201      {object}  domain.Registration
// @Failure      400      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Failure      409      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /events/{eventID}/register [post]
// @Security     BearerAuth
func (h *RegistrationHandler) HandleRegister(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}
	if user.Role != domain.RoleParticipant {
		response.RenderErr(ctx, response.ErrPermissionDenied(fmt.Errorf("user %v is not a participant", user.ID)))
		return
	}

	eventID, respErr := parseEventID(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var req request.RegisterRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	registration, err := h.svc.Register(ctx.Request.Context(), user.ID, eventID, req.FormResponses)
	if err != nil {
		if renderRegistrationPreconditionErr(ctx, eventID, err) {
			return
		}

		err = fmt.Errorf("v1.HandleRegister -> h.svc.Register -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusCreated, registration)
}

// HandleOrderMerchandise godoc
// @Summary      Order merchandise
// @Description  Creates a pending order; stock is only committed when the payment proof is approved
// @Tags         registrations
// @Produce      json
// @Param        eventID  path      int true "Event ID"
// @Param        request  body      request.OrderMerchandiseRequest true "request body"
// @Success      201      {object}  domain.Registration
// @Failure      400      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Failure      409      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /events/{eventID}/order [post]
// @Security     BearerAuth
func (h *RegistrationHandler) HandleOrderMerchandise(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}
	if user.Role != domain.RoleParticipant {
		response.RenderErr(ctx, response.ErrPermissionDenied(fmt.Errorf("user %v is not a participant", user.ID)))
		return
	}

	eventID, respErr := parseEventID(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var req request.OrderMerchandiseRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	registration, err := h.svc.OrderMerchandise(
		ctx.Request.Context(), user.ID, eventID,
		req.ItemName, req.Size, req.Color, req.Quantity, req.FormResponses,
	)
	if err != nil {
		if renderRegistrationPreconditionErr(ctx, eventID, err) {
			return
		}

		switch {
		case errors.Is(err, service.ErrItemNotFound):
			response.RenderErr(ctx, response.ErrNotFound("merchandise item", "name", req.ItemName))
		case errors.Is(err, service.ErrPurchaseLimitExceeded):
			response.RenderErr(ctx, response.ErrBadRequest(err))
		case errors.Is(err, service.ErrInsufficientStock):
			response.RenderErr(ctx, response.ErrConflict(service.ErrInsufficientStock))
		default:
			err = fmt.Errorf("v1.HandleOrderMerchandise -> h.svc.OrderMerchandise -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	ctx.JSON(http.StatusCreated, registration)
}

// HandleUploadPaymentProof godoc
// @Summary      Upload a payment proof
// @Description  Multipart upload; replaces any earlier proof while the payment is pending
// @Tags         registrations
// @Accept       multipart/form-data
// @Produce      json
// @Param        registrationID  path      int  true "Registration ID"
// @Param        proof           formData  file true "Payment proof (image or PDF)"
// @Success      200             {object}  domain.Registration
// @Failure      400             {object}  response.Err
// @Failure      403             {object}  response.Err
// @Failure      404             {object}  response.Err
// @Failure      409             {object}  response.Err
// @Failure      500             {object}  response.Err
// @Router       /registrations/{registrationID}/payment-proof [post]
// @Security     BearerAuth
func (h *RegistrationHandler) HandleUploadPaymentProof(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	registrationID, respErr := parseRegistrationID(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	file, err := ctx.FormFile("proof")
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(errors.New("missing proof file")))
		return
	}

	proofURL, err := h.store.Save(file)
	if err != nil {
		if errors.Is(err, filestore.ErrFileTooLarge) || errors.Is(err, filestore.ErrUnsupportedType) {
			response.RenderErr(ctx, response.ErrBadRequest(err))
			return
		}

		err = fmt.Errorf("v1.HandleUploadPaymentProof -> h.store.Save -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	registration, err := h.svc.UploadPaymentProof(ctx.Request.Context(), user.ID, registrationID, proofURL)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRegistrationNotFound):
			response.RenderErr(ctx, response.ErrNotFound("registration", "ID", registrationID))
		case errors.Is(err, service.ErrNotRegistrationOwner):
			response.RenderErr(ctx, response.ErrPermissionDenied(err))
		case errors.Is(err, service.ErrPaymentNotPending):
			response.RenderErr(ctx, response.ErrConflict(service.ErrPaymentNotPending))
		default:
			err = fmt.Errorf("v1.HandleUploadPaymentProof -> h.svc.UploadPaymentProof -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	ctx.JSON(http.StatusOK, registration)
}

// HandleApprovePayment godoc
// @Summary      Approve a payment proof
// @Description  Merchandise orders commit stock and issue the ticket atomically
// @Tags         registrations
// @Produce      json
// @Param        registrationID  path      int true "Registration ID"
// @Success      200             {object}  domain.Registration
// @Failure      400             {object}  response.Err
// @Failure      403             {object}  response.Err
// @Failure      404             {object}  response.Err
// @Failure      409             {object}  response.Err
// @Failure      500             {object}  response.Err
// @Router       /registrations/{registrationID}/approve [post]
// @Security     BearerAuth
func (h *RegistrationHandler) HandleApprovePayment(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	registrationID, respErr := parseRegistrationID(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	registration, err := h.svc.ApprovePayment(ctx.Request.Context(), user.ID, registrationID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRegistrationNotFound):
			response.RenderErr(ctx, response.ErrNotFound("registration", "ID", registrationID))
		case errors.Is(err, service.ErrNotEventOwner):
			response.RenderErr(ctx, response.ErrPermissionDenied(err))
		case errors.Is(err, service.ErrNoPaymentProof):
			response.RenderErr(ctx, response.ErrBadRequest(err))
		case errors.Is(err, service.ErrPaymentNotPending):
			response.RenderErr(ctx, response.ErrConflict(service.ErrPaymentNotPending))
		case errors.Is(err, service.ErrInsufficientStock):
			response.RenderErr(ctx, response.ErrConflict(service.ErrInsufficientStock))
		case errors.Is(err, service.ErrRegistrationLimitReached):
			response.RenderErr(ctx, response.ErrConflict(service.ErrRegistrationLimitReached))
		default:
			err = fmt.Errorf("v1.HandleApprovePayment -> h.svc.ApprovePayment -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	ctx.JSON(http.StatusOK, registration)
}

// HandleRejectPayment godoc
// @Summary      Reject a payment proof
// @Tags         registrations
// @Produce      json
// @Param        registrationID  path      int true "Registration ID"
// @Param        request         body      request.RejectPaymentRequest true "request body"
// @Success      200             {object}  domain.Registration
// @Failure      400             {object}  response.Err
// @Failure      403             {object}  response.Err
// @Failure      404             {object}  response.Err
// @Failure      409             {object}  response.Err
// @Failure      500             {object}  response.Err
// @Router       /registrations/{registrationID}/reject [post]
// @Security     BearerAuth
func (h *RegistrationHandler) HandleRejectPayment(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	registrationID, respErr := parseRegistrationID(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var req request.RejectPaymentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	registration, err := h.svc.RejectPayment(ctx.Request.Context(), user.ID, registrationID, req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRegistrationNotFound):
			response.RenderErr(ctx, response.ErrNotFound("registration", "ID", registrationID))
		case errors.Is(err, service.ErrNotEventOwner):
			response.RenderErr(ctx, response.ErrPermissionDenied(err))
		case errors.Is(err, service.ErrPaymentNotPending):
			response.RenderErr(ctx, response.ErrConflict(service.ErrPaymentNotPending))
		default:
			err = fmt.Errorf("v1.HandleRejectPayment -> h.svc.RejectPayment -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	ctx.JSON(http.StatusOK, registration)
}

// HandleCheckIn godoc
// @Summary      Check in an attendee by QR payload or registration ID
// @Description  Scanning the same ticket twice reports the original check-in time
// @Tags         registrations
// @Produce      json
// @Param        eventID  path      int true "Event ID"
// @Param        request  body      request.CheckInRequest true "request body"
// @Success      200      {object}  response.CheckInResponse
// @Failure      400      {object}  response.Err
// @Failure      403      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /events/{eventID}/checkin [post]
// @Security     BearerAuth
func (h *RegistrationHandler) HandleCheckIn(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	eventID, respErr := parseEventID(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var req request.CheckInRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	var registration domain.Registration
	var err error
	if req.RegistrationID != 0 {
		registration, err = h.svc.CheckInManual(ctx.Request.Context(), user.ID, eventID, req.RegistrationID)
	} else {
		registration, err = h.svc.CheckIn(ctx.Request.Context(), user.ID, eventID, req.QRPayload)
	}
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrAttendanceAlreadyMarked):
			ctx.JSON(http.StatusOK, response.AlreadyMarkedResponse{
				Message:  "attendance already marked",
				MarkedAt: registration.Attendance.MarkedAt,
			})
		case errors.Is(err, service.ErrEventNotFound):
			response.RenderErr(ctx, response.ErrNotFound("event", "ID", eventID))
		case errors.Is(err, service.ErrNotEventOwner):
			response.RenderErr(ctx, response.ErrPermissionDenied(err))
		case errors.Is(err, service.ErrInvalidTicket),
			errors.Is(err, service.ErrRegistrationNotConfirmed):
			response.RenderErr(ctx, response.ErrBadRequest(err))
		case errors.Is(err, service.ErrRegistrationNotFound):
			response.RenderErr(ctx, response.ErrNotFound("registration", "event", eventID))
		default:
			err = fmt.Errorf("v1.HandleCheckIn -> h.svc.CheckIn -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	ctx.JSON(http.StatusOK, response.CheckInResponse{
		Message:      "attendance marked",
		Registration: registration,
	})
}

// HandleMyRegistrations godoc
// @Summary      List the current participant's registrations
// @Tags         registrations
// @Produce      json
// @Success      200  {array}   domain.Registration
// @Failure      401  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /registrations/mine [get]
// @Security     BearerAuth
func (h *RegistrationHandler) HandleMyRegistrations(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	registrations, err := h.svc.GetMyRegistrations(ctx.Request.Context(), user.ID)
	if err != nil {
		err = fmt.Errorf("v1.HandleMyRegistrations -> h.svc.GetMyRegistrations -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, registrations)
}

// HandleGetTicket godoc
// @Summary      Get the caller's ticket for an event
// @Tags         registrations
// @Produce      json
// @Param        eventID  path      int true "Event ID"
// @Success      200      {object}  response.TicketResponse
// @Failure      400      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /events/{eventID}/ticket [get]
// @Security     BearerAuth
func (h *RegistrationHandler) HandleGetTicket(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	eventID, respErr := parseEventID(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	registration, err := h.svc.GetTicket(ctx.Request.Context(), user.ID, eventID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRegistrationNotFound):
			response.RenderErr(ctx, response.ErrNotFound("registration", "event ID", eventID))
		case errors.Is(err, service.ErrRegistrationNotConfirmed):
			response.RenderErr(ctx, response.ErrBadRequest(err))
		default:
			err = fmt.Errorf("v1.HandleGetTicket -> h.svc.GetTicket -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	ctx.JSON(http.StatusOK, response.TicketResponse{
		TicketID:  registration.TicketID,
		QRPayload: registration.QRPayload,
		EventID:   registration.EventID,
		Status:    registration.Status,
	})
}

// HandleListEventRegistrations godoc
// @Summary      List registrations for an event
// @Tags         registrations
// @Produce      json
// @Param        eventID  path      int true "Event ID"
// @Success      200      {array}   domain.Registration
// @Failure      403      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /events/{eventID}/registrations [get]
// @Security     BearerAuth
func (h *RegistrationHandler) HandleListEventRegistrations(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	eventID, respErr := parseEventID(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	registrations, err := h.svc.ListEventRegistrations(ctx.Request.Context(), user.ID, eventID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEventNotFound):
			response.RenderErr(ctx, response.ErrNotFound("event", "ID", eventID))
		case errors.Is(err, service.ErrNotEventOwner):
			response.RenderErr(ctx, response.ErrPermissionDenied(err))
		default:
			err = fmt.Errorf("v1.HandleListEventRegistrations -> h.svc.ListEventRegistrations -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	ctx.JSON(http.StatusOK, registrations)
}

// HandleExportRegistrations godoc
// @Summary      Export registrations for an event as CSV
// @Tags         registrations
// @Produce      text/csv
// @Param        eventID  path      int true "Event ID"
// @Success      200      {string}  string
// @Failure      403      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /events/{eventID}/registrations/export [get]
// @Security     BearerAuth
func (h *RegistrationHandler) HandleExportRegistrations(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	eventID, respErr := parseEventID(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	registrations, err := h.svc.ListEventRegistrations(ctx.Request.Context(), user.ID, eventID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEventNotFound):
			response.RenderErr(ctx, response.ErrNotFound("event", "ID", eventID))
		case errors.Is(err, service.ErrNotEventOwner):
			response.RenderErr(ctx, response.ErrPermissionDenied(err))
		default:
			err = fmt.Errorf("v1.HandleExportRegistrations -> h.svc.ListEventRegistrations -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	ctx.Header("Content-Type", "text/csv")
	ctx.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="event-%d-registrations.csv"`, eventID))
	ctx.Status(http.StatusOK)

	w := csv.NewWriter(ctx.Writer)
	_ = w.Write([]string{
		"registration_id", "participant_id", "name", "email",
		"status", "payment_status", "ticket_id",
		"attended", "attended_at", "registered_at",
	})

	for _, r := range registrations {
		name, email := "", ""
		if participant, err := h.uSvc.GetParticipant(ctx.Request.Context(), r.ParticipantID); err == nil {
			name = participant.FirstName + " " + participant.LastName
			email = participant.Email
		}

		attendedAt := ""
		if r.Attendance.MarkedAt != nil {
			attendedAt = r.Attendance.MarkedAt.Format(time.RFC3339)
		}

		_ = w.Write([]string{
			strconv.FormatUint(uint64(r.ID), 10),
			strconv.FormatUint(uint64(r.ParticipantID), 10),
			name,
			email,
			string(r.Status),
			string(r.PaymentStatus),
			r.TicketID,
			strconv.FormatBool(r.Attendance.Marked),
			attendedAt,
			r.RegisteredAt.Format(time.RFC3339),
		})
	}

	w.Flush()
}
