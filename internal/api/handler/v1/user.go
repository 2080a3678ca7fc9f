package v1

import (
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

type UserHandler struct {
	svc UserService
}

func NewUserHandler(svc UserService) *UserHandler {
	return &UserHandler{
		svc: svc,
	}
}

// HandleGetMe godoc
// @Summary      Get the current user's profile
// @Tags         users
// @Produce      json
// @Success      200  {object}  domain.Participant
// @Failure      401  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /users/me [get]
// @Security     BearerAuth
func (h *UserHandler) HandleGetMe(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.svc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	switch user.Role {
	case domain.RoleParticipant:
		participant, err := h.svc.GetParticipant(ctx.Request.Context(), user.ID)
		if err != nil {
			err = fmt.Errorf("v1.HandleGetMe -> h.svc.GetParticipant -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
			return
		}
		ctx.JSON(http.StatusOK, participant)

	case domain.RoleOrganizer:
		organizer, err := h.svc.GetOrganizer(ctx.Request.Context(), user.ID)
		if err != nil {
			err = fmt.Errorf("v1.HandleGetMe -> h.svc.GetOrganizer -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
			return
		}
		ctx.JSON(http.StatusOK, organizer)

	default:
		ctx.JSON(http.StatusOK, user)
	}
}

// HandleUpdateMe godoc
// @Summary      Update the current participant's profile
// @Description  Partial update; also completes onboarding with interests
// @Tags         users
// @Produce      json
// @Param        request  body      request.UpdateParticipantRequest true "request body"
// @Success      200      {object}  domain.Participant
// @Failure      400      {object}  response.Err
// @Failure      401      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /users/me [put]
// @Security     BearerAuth
func (h *UserHandler) HandleUpdateMe(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.svc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}
	if user.Role != domain.RoleParticipant {
		response.RenderErr(ctx, response.ErrPermissionDenied(fmt.Errorf("user %v is not a participant", user.ID)))
		return
	}

	var req request.UpdateParticipantRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	participant, err := h.svc.GetParticipant(ctx.Request.Context(), user.ID)
	if err != nil {
		err = fmt.Errorf("v1.HandleUpdateMe -> h.svc.GetParticipant -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	if req.FirstName != nil {
		participant.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		participant.LastName = *req.LastName
	}
	if req.CollegeName != nil {
		participant.CollegeName = *req.CollegeName
	}
	if req.ContactNumber != nil {
		participant.ContactNumber = *req.ContactNumber
	}
	if req.Interests != nil {
		participant.Interests = req.Interests
	}
	if req.OnboardingComplete != nil {
		participant.OnboardingComplete = *req.OnboardingComplete
	}

	updated, err := h.svc.UpdateParticipantProfile(ctx.Request.Context(), participant)
	if err != nil {
		err = fmt.Errorf("v1.HandleUpdateMe -> h.svc.UpdateParticipantProfile -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, updated)
}

// HandleUpdateOrganizerProfile godoc
// @Summary      Update the current organizer's profile
// @Tags         users
// @Produce      json
// @Param        request  body      request.UpdateOrganizerProfileRequest true "request body"
// @Success      200      {object}  domain.Organizer
// @Failure      400      {object}  response.Err
// @Failure      401      {object}  response.Err
// @Failure      403      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /organizers/me [put]
// @Security     BearerAuth
func (h *UserHandler) HandleUpdateOrganizerProfile(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.svc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}
	if user.Role != domain.RoleOrganizer {
		response.RenderErr(ctx, response.ErrPermissionDenied(fmt.Errorf("user %v is not an organizer", user.ID)))
		return
	}

	var req request.UpdateOrganizerProfileRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	organizer, err := h.svc.GetOrganizer(ctx.Request.Context(), user.ID)
	if err != nil {
		err = fmt.Errorf("v1.HandleUpdateOrganizerProfile -> h.svc.GetOrganizer -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	if req.Category != nil {
		organizer.Category = *req.Category
	}
	if req.Description != nil {
		organizer.Description = *req.Description
	}
	if req.ContactEmail != nil {
		organizer.ContactEmail = *req.ContactEmail
	}
	if req.ContactNumber != nil {
		organizer.ContactNumber = *req.ContactNumber
	}
	if req.DiscordWebhook != nil {
		organizer.DiscordWebhook = *req.DiscordWebhook
	}

	updated, err := h.svc.UpdateOrganizerProfile(ctx.Request.Context(), organizer)
	if err != nil {
		err = fmt.Errorf("v1.HandleUpdateOrganizerProfile -> h.svc.UpdateOrganizerProfile -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, updated)
}

// HandleListOrganizers godoc
// @Summary      List all organizers
// @Tags         users
// @Produce      json
// @Success      200  {array}   domain.Organizer
// @Failure      500  {object}  response.Err
// @Router       /organizers [get]
func (h *UserHandler) HandleListOrganizers(ctx *gin.Context) {
	organizers, err := h.svc.ListOrganizers(ctx.Request.Context())
	if err != nil {
		err = fmt.Errorf("v1.HandleListOrganizers -> h.svc.ListOrganizers -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, organizers)
}

// HandleToggleFollow godoc
// @Summary      Follow or unfollow an organizer
// @Tags         users
// @Produce      json
// @Param        organizerID  path      int true "Organizer ID"
// @Success      200          {object}  response.FollowResponse
// @Failure      401          {object}  response.Err
// @Failure      404          {object}  response.Err
// @Failure      500          {object}  response.Err
// @Router       /organizers/{organizerID}/follow [post]
// @Security     BearerAuth
func (h *UserHandler) HandleToggleFollow(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.svc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}
	if user.Role != domain.RoleParticipant {
		response.RenderErr(ctx, response.ErrPermissionDenied(fmt.Errorf("user %v is not a participant", user.ID)))
		return
	}

	organizerID, err := strconv.ParseUint(ctx.Param("organizerID"), 10, 32)
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(errors.New("invalid organizer ID")))
		return
	}

	following, err := h.svc.ToggleFollowOrganizer(ctx.Request.Context(), user.ID, uint(organizerID))
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.RenderErr(ctx, response.ErrNotFound("organizer", "ID", organizerID))
			return
		}

		err = fmt.Errorf("v1.HandleToggleFollow -> h.svc.ToggleFollowOrganizer -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, response.FollowResponse{
		OrganizerID: uint(organizerID),
		Following:   following,
	})
}
