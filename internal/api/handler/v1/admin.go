package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/felicity-events/felicity-api/internal/api/handler/v1/request"
	"github.com/felicity-events/felicity-api/internal/api/handler/v1/response"
	"github.com/felicity-events/felicity-api/internal/domain"
	"github.com/felicity-events/felicity-api/internal/service"
)

type AdminService interface {
	ProvisionOrganizer(ctx context.Context, organizer domain.Organizer) (domain.Organizer, string, error)
	DeleteOrganizer(ctx context.Context, organizerID uint) error
	RequestPasswordReset(ctx context.Context, organizerID uint, reason string) (domain.PasswordResetRequest, error)
	ListPendingResets(ctx context.Context) ([]domain.PasswordResetRequest, error)
	ApprovePasswordReset(ctx context.Context, adminID, requestID uint) error
	RejectPasswordReset(ctx context.Context, adminID, requestID uint) error
	GetPlatformStats(ctx context.Context) (service.PlatformStats, error)
}

type AdminHandler struct {
	svc  AdminService
	uSvc UserService
}

func NewAdminHandler(svc AdminService, uSvc UserService) *AdminHandler {
	return &AdminHandler{
		svc:  svc,
		uSvc: uSvc,
	}
}

func (h *AdminHandler) requireAdmin(ctx *gin.Context) (domain.User, bool) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return domain.User{}, false
	}
	if user.Role != domain.RoleAdmin {
		response.RenderErr(ctx, response.ErrPermissionDenied(fmt.Errorf("user %v is not an admin", user.ID)))
		return domain.User{}, false
	}
	return user, true
}

// HandleProvisionOrganizer godoc
// @Summary      Provision an organizer account
// @Description  Derives the login email from the club name, generates a password and mails the credentials to the contact address
// @Tags         admin
// @Produce      json
// @Param        request  body      request.ProvisionOrganizerRequest true "request body"
// @Success      201      {object}  response.ProvisionOrganizerResponse
// @Failure      400      {object}  response.Err
// @Failure      403      {object}  response.Err
// @Failure      409      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /admin/organizers [post]
// @Security     BearerAuth
func (h *AdminHandler) HandleProvisionOrganizer(ctx *gin.Context) {
	if _, ok := h.requireAdmin(ctx); !ok {
		return
	}

	var req request.ProvisionOrganizerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	organizer, loginEmail, err := h.svc.ProvisionOrganizer(ctx.Request.Context(), domain.Organizer{
		Name:          req.Name,
		Category:      req.Category,
		Description:   req.Description,
		ContactEmail:  req.ContactEmail,
		ContactNumber: req.ContactNumber,
	})
	if err != nil {
		if errors.Is(err, service.ErrOrganizerNameExists) || errors.Is(err, service.ErrUserEmailExists) {
			response.RenderErr(ctx, response.ErrConflict(err))
			return
		}

		err = fmt.Errorf("v1.HandleProvisionOrganizer -> h.svc.ProvisionOrganizer -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusCreated, response.ProvisionOrganizerResponse{
		Organizer:  organizer,
		LoginEmail: loginEmail,
	})
}

// HandleDeleteOrganizer godoc
// @Summary      Delete an organizer and everything it owns
// @Tags         admin
// @Param        organizerID  path  int true "Organizer ID"
// @Success      204
// @Failure      403  {object}  response.Err
// @Failure      404  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /admin/organizers/{organizerID} [delete]
// @Security     BearerAuth
func (h *AdminHandler) HandleDeleteOrganizer(ctx *gin.Context) {
	if _, ok := h.requireAdmin(ctx); !ok {
		return
	}

	organizerID, err := strconv.ParseUint(ctx.Param("organizerID"), 10, 32)
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(errors.New("invalid organizer ID")))
		return
	}

	if err := h.svc.DeleteOrganizer(ctx.Request.Context(), uint(organizerID)); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.RenderErr(ctx, response.ErrNotFound("organizer", "ID", organizerID))
			return
		}

		err = fmt.Errorf("v1.HandleDeleteOrganizer -> h.svc.DeleteOrganizer -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.Status(http.StatusNoContent)
}

// HandleRequestPasswordReset godoc
// @Summary      File a password reset request
// @Description  Organizers cannot reset their own password; an admin approves the request
// @Tags         admin
// @Produce      json
// @Param        request  body      request.PasswordResetRequest true "request body"
// @Success      201      {object}  domain.PasswordResetRequest
// @Failure      400      {object}  response.Err
// @Failure      403      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /password-resets [post]
// @Security     BearerAuth
func (h *AdminHandler) HandleRequestPasswordReset(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}
	if user.Role != domain.RoleOrganizer {
		response.RenderErr(ctx, response.ErrPermissionDenied(fmt.Errorf("user %v is not an organizer", user.ID)))
		return
	}

	var req request.PasswordResetRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	resetRequest, err := h.svc.RequestPasswordReset(ctx.Request.Context(), user.ID, req.Reason)
	if err != nil {
		err = fmt.Errorf("v1.HandleRequestPasswordReset -> h.svc.RequestPasswordReset -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusCreated, resetRequest)
}

// HandleListPendingResets godoc
// @Summary      List pending password reset requests
// @Tags         admin
// @Produce      json
// @Success      200  {array}   domain.PasswordResetRequest
// @Failure      403  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /admin/password-resets [get]
// @Security     BearerAuth
func (h *AdminHandler) HandleListPendingResets(ctx *gin.Context) {
	if _, ok := h.requireAdmin(ctx); !ok {
		return
	}

	requests, err := h.svc.ListPendingResets(ctx.Request.Context())
	if err != nil {
		err = fmt.Errorf("v1.HandleListPendingResets -> h.svc.ListPendingResets -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, requests)
}

func (h *AdminHandler) resolveReset(ctx *gin.Context, resolve func(context.Context, uint, uint) error, op string) {
	admin, ok := h.requireAdmin(ctx)
	if !ok {
		return
	}

	requestID, err := strconv.ParseUint(ctx.Param("requestID"), 10, 32)
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(errors.New("invalid request ID")))
		return
	}

	if err := resolve(ctx.Request.Context(), admin.ID, uint(requestID)); err != nil {
		switch {
		case errors.Is(err, service.ErrResetRequestNotFound):
			response.RenderErr(ctx, response.ErrNotFound("password reset request", "ID", requestID))
		case errors.Is(err, service.ErrResetNotPending):
			response.RenderErr(ctx, response.ErrConflict(service.ErrResetNotPending))
		default:
			err = fmt.Errorf("v1.%v -> %w", op, err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	ctx.Status(http.StatusNoContent)
}

// HandleApprovePasswordReset godoc
// @Summary      Approve a password reset request
// @Description  Rotates the organizer password and mails the new credentials
// @Tags         admin
// @Param        requestID  path  int true "Request ID"
// @Success      204
// @Failure      403  {object}  response.Err
// @Failure      404  {object}  response.Err
// @Failure      409  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /admin/password-resets/{requestID}/approve [post]
// @Security     BearerAuth
func (h *AdminHandler) HandleApprovePasswordReset(ctx *gin.Context) {
	h.resolveReset(ctx, h.svc.ApprovePasswordReset, "HandleApprovePasswordReset")
}

// HandleRejectPasswordReset godoc
// @Summary      Reject a password reset request
// @Tags         admin
// @Param        requestID  path  int true "Request ID"
// @Success      204
// @Failure      403  {object}  response.Err
// @Failure      404  {object}  response.Err
// @Failure      409  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /admin/password-resets/{requestID}/reject [post]
// @Security     BearerAuth
func (h *AdminHandler) HandleRejectPasswordReset(ctx *gin.Context) {
	h.resolveReset(ctx, h.svc.RejectPasswordReset, "HandleRejectPasswordReset")
}

// HandlePlatformStats godoc
// @Summary      Platform-wide statistics
// @Tags         admin
// @Produce      json
// @Success      200  {object}  service.PlatformStats
// @Failure      403  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /admin/stats [get]
// @Security     BearerAuth
func (h *AdminHandler) HandlePlatformStats(ctx *gin.Context) {
	if _, ok := h.requireAdmin(ctx); !ok {
		return
	}

	stats, err := h.svc.GetPlatformStats(ctx.Request.Context())
	if err != nil {
		err = fmt.Errorf("v1.HandlePlatformStats -> h.svc.GetPlatformStats -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, stats)
}
