package v1

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/felicity-events/felicity-api/internal/api/handler/v1/response"
	"github.com/felicity-events/felicity-api/internal/api/middleware"
	"github.com/felicity-events/felicity-api/internal/domain"
)

type UserService interface {
	GetUser(ctx context.Context, id uint) (domain.User, error)
	GetParticipant(ctx context.Context, userID uint) (domain.Participant, error)
	GetOrganizer(ctx context.Context, userID uint) (domain.Organizer, error)
	ListOrganizers(ctx context.Context) ([]domain.Organizer, error)
	UpdateParticipantProfile(ctx context.Context, participant domain.Participant) (domain.Participant, error)
	UpdateOrganizerProfile(ctx context.Context, organizer domain.Organizer) (domain.Organizer, error)
	ToggleFollowOrganizer(ctx context.Context, participantID, organizerID uint) (bool, error)
}

// getUserFromContext resolves the authenticated user placed on the
// context by the JWT middleware.
func getUserFromContext(ctx *gin.Context, svc UserService) (domain.User, *response.Err) {
	val, ok := ctx.Get(middleware.ContextKeyUserID)
	if !ok {
		return domain.User{}, response.ErrUnauthorized("authentication required")
	}

	userID, ok := val.(uint)
	if !ok {
		return domain.User{}, response.ErrUnauthorized("authentication required")
	}

	user, err := svc.GetUser(ctx.Request.Context(), userID)
	if err != nil {
		return domain.User{}, response.ErrUnauthorized("user not found")
	}

	return user, nil
}

// HandleHealthcheck godoc
// @Summary      Healthcheck
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       / [get]
func HandleHealthcheck(ctx *gin.Context) {
	ctx.JSON(200, gin.H{"status": "ok"})
}
