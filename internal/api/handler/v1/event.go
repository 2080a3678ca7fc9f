package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/felicity-events/felicity-api/internal/api/handler/v1/request"
	"github.com/felicity-events/felicity-api/internal/api/handler/v1/response"
	"github.com/felicity-events/felicity-api/internal/domain"
	"github.com/felicity-events/felicity-api/internal/service"
)

type EventService interface {
	CreateEvent(ctx context.Context, event domain.Event) (domain.Event, error)
	GetEvent(ctx context.Context, id uint) (domain.Event, error)
	BrowseEvents(ctx context.Context, opts service.BrowseOptions) ([]domain.Event, error)
	TrendingEvents(ctx context.Context) ([]domain.Event, error)
	PublishEvent(ctx context.Context, organizerID, eventID uint) (domain.Event, error)
	CloseEvent(ctx context.Context, organizerID, eventID uint, target domain.EventStatus) (domain.Event, error)
	UpdateEvent(ctx context.Context, organizerID, eventID uint, update domain.EventUpdate) (domain.Event, error)
	DeleteEvent(ctx context.Context, organizerID, eventID uint) error
	ListOrganizerEvents(ctx context.Context, organizerID uint) ([]domain.Event, []domain.EventStats, error)
	EventAnalytics(ctx context.Context, organizerID, eventID uint) (domain.EventAnalytics, error)
}

type EventHandler struct {
	svc  EventService
	uSvc UserService
}

func NewEventHandler(svc EventService, uSvc UserService) *EventHandler {
	return &EventHandler{
		svc:  svc,
		uSvc: uSvc,
	}
}

func parseEventID(ctx *gin.Context) (uint, *response.Err) {
	eventID, err := strconv.ParseUint(ctx.Param("eventID"), 10, 32)
	if err != nil {
		return 0, response.ErrBadRequest(errors.New("invalid event ID"))
	}
	return uint(eventID), nil
}

func parseDateParam(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", raw)
}

// HandleBrowseEvents godoc
// @Summary      Browse published events
// @Description  Supports type/status filters and fuzzy search; without a query, events matching the caller's interests rank first
// @Tags         events
// @Produce      json
// @Param        type         query     string false "Event type (NORMAL or MERCHANDISE)"
// @Param        status       query     string false "Comma-separated statuses"
// @Param        eligibility  query     string false "Eligibility filter"
// @Param        tag          query     string false "Tag filter"
// @Param        from         query     string false "Earliest start date (RFC 3339 or YYYY-MM-DD)"
// @Param        to           query     string false "Latest start date (RFC 3339 or YYYY-MM-DD)"
// @Param        followed     query     bool   false "Only events by followed organizers"
// @Param        q            query     string false "Search query"
// @Success      200     {array}   domain.Event
// @Failure      401     {object}  response.Err
// @Failure      500     {object}  response.Err
// @Router       /events [get]
// @Security     BearerAuth
func (h *EventHandler) HandleBrowseEvents(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	opts := service.BrowseOptions{
		Type:        domain.EventType(ctx.Query("type")),
		Eligibility: domain.Eligibility(ctx.Query("eligibility")),
		Tag:         ctx.Query("tag"),
		Query:       ctx.Query("q"),
	}
	if raw := ctx.Query("status"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			opts.Statuses = append(opts.Statuses, domain.EventStatus(strings.TrimSpace(s)))
		}
	}
	if raw := ctx.Query("from"); raw != "" {
		from, err := parseDateParam(raw)
		if err != nil {
			response.RenderErr(ctx, response.ErrBadRequest(errors.New("invalid from date")))
			return
		}
		opts.From = from
	}
	if raw := ctx.Query("to"); raw != "" {
		to, err := parseDateParam(raw)
		if err != nil {
			response.RenderErr(ctx, response.ErrBadRequest(errors.New("invalid to date")))
			return
		}
		opts.To = to
	}
	if user.Role == domain.RoleParticipant {
		opts.ParticipantID = user.ID
		opts.FollowedOnly = ctx.Query("followed") == "true"
	}

	events, err := h.svc.BrowseEvents(ctx.Request.Context(), opts)
	if err != nil {
		err = fmt.Errorf("v1.HandleBrowseEvents -> h.svc.BrowseEvents -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, events)
}

// HandleTrendingEvents godoc
// @Summary      Get trending events
// @Description  Top 5 events by registrations over the last 24 hours
// @Tags         events
// @Produce      json
// @Success      200  {array}   domain.Event
// @Failure      500  {object}  response.Err
// @Router       /events/trending [get]
// @Security     BearerAuth
func (h *EventHandler) HandleTrendingEvents(ctx *gin.Context) {
	events, err := h.svc.TrendingEvents(ctx.Request.Context())
	if err != nil {
		err = fmt.Errorf("v1.HandleTrendingEvents -> h.svc.TrendingEvents -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, events)
}

// HandleGetEvent godoc
// @Summary      Get one event
// @Tags         events
// @Produce      json
// @Param        eventID  path      int true "Event ID"
// @Success      200      {object}  domain.Event
// @Failure      404      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /events/{eventID} [get]
// @Security     BearerAuth
func (h *EventHandler) HandleGetEvent(ctx *gin.Context) {
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

	event, err := h.svc.GetEvent(ctx.Request.Context(), eventID)
	if err != nil {
		if errors.Is(err, service.ErrEventNotFound) {
			response.RenderErr(ctx, response.ErrNotFound("event", "ID", eventID))
			return
		}

		err = fmt.Errorf("v1.HandleGetEvent -> h.svc.GetEvent -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	// Drafts are visible to their organizer and admins only.
	if event.Status == domain.EventDraft && user.ID != event.OrganizerID && user.Role != domain.RoleAdmin {
		response.RenderErr(ctx, response.ErrNotFound("event", "ID", eventID))
		return
	}

	ctx.JSON(http.StatusOK, event)
}

// HandleCreateEvent godoc
// @Summary      Create an event
// @Description  Creates the event in DRAFT for the calling organizer
// @Tags         events
// @Produce      json
// @Param        request  body      request.CreateEventRequest true "request body"
// @Success      201      {object}  domain.Event
// @Failure      400      {object}  response.Err
// @Failure      403      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /events [post]
// @Security     BearerAuth
func (h *EventHandler) HandleCreateEvent(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}
	if user.Role != domain.RoleOrganizer {
		response.RenderErr(ctx, response.ErrPermissionDenied(fmt.Errorf("user %v is not an organizer", user.ID)))
		return
	}

	var req request.CreateEventRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	event, err := h.svc.CreateEvent(ctx.Request.Context(), req.ToDomain(user.ID))
	if err != nil {
		if errors.Is(err, domain.ErrEndBeforeStart) ||
			errors.Is(err, domain.ErrDeadlineAfterStart) ||
			errors.Is(err, domain.ErrInvalidLimit) {
			response.RenderErr(ctx, response.ErrBadRequest(err))
			return
		}

		err = fmt.Errorf("v1.HandleCreateEvent -> h.svc.CreateEvent -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusCreated, event)
}

// HandleUpdateEvent godoc
// @Summary      Edit an event
// @Description  DRAFT events are fully editable; PUBLISHED events allow description, deadline extension and limit increase only
// @Tags         events
// @Produce      json
// @Param        eventID  path      int true "Event ID"
// @Param        request  body      request.UpdateEventRequest true "request body"
// @Success      200      {object}  domain.Event
// @Failure      400      {object}  response.Err
// @Failure      403      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /events/{eventID} [put]
// @Security     BearerAuth
func (h *EventHandler) HandleUpdateEvent(ctx *gin.Context) {
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

	var req request.UpdateEventRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	event, err := h.svc.UpdateEvent(ctx.Request.Context(), user.ID, eventID, req.ToDomain())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEventNotFound):
			response.RenderErr(ctx, response.ErrNotFound("event", "ID", eventID))
		case errors.Is(err, service.ErrNotEventOwner):
			response.RenderErr(ctx, response.ErrPermissionDenied(fmt.Errorf("user %v does not own event %v", user.ID, eventID)))
		case errors.Is(err, domain.ErrEventNotEditable),
			errors.Is(err, domain.ErrDeadlineDecreased),
			errors.Is(err, domain.ErrLimitDecreased),
			errors.Is(err, domain.ErrEndBeforeStart),
			errors.Is(err, domain.ErrDeadlineAfterStart),
			errors.Is(err, domain.ErrInvalidLimit):
			response.RenderErr(ctx, response.ErrBadRequest(err))
		default:
			err = fmt.Errorf("v1.HandleUpdateEvent -> h.svc.UpdateEvent -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	ctx.JSON(http.StatusOK, event)
}

// HandlePublishEvent godoc
// @Summary      Publish a draft event
// @Tags         events
// @Produce      json
// @Param        eventID  path      int true "Event ID"
// @Success      200      {object}  response.PublishEventResponse
// @Failure      400      {object}  response.Err
// @Failure      403      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Failure      409      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /events/{eventID}/publish [post]
// @Security     BearerAuth
func (h *EventHandler) HandlePublishEvent(ctx *gin.Context) {
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

	event, err := h.svc.PublishEvent(ctx.Request.Context(), user.ID, eventID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEventNotFound):
			response.RenderErr(ctx, response.ErrNotFound("event", "ID", eventID))
		case errors.Is(err, service.ErrNotEventOwner):
			response.RenderErr(ctx, response.ErrPermissionDenied(fmt.Errorf("user %v does not own event %v", user.ID, eventID)))
		case errors.Is(err, service.ErrEventNotDraft):
			response.RenderErr(ctx, response.ErrConflict(
				fmt.Errorf("event is already %v", strings.ToLower(string(event.Status)))))
		case errors.Is(err, domain.ErrEndBeforeStart),
			errors.Is(err, domain.ErrDeadlineAfterStart),
			errors.Is(err, domain.ErrInvalidLimit):
			response.RenderErr(ctx, response.ErrBadRequest(err))
		default:
			err = fmt.Errorf("v1.HandlePublishEvent -> h.svc.PublishEvent -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	ctx.JSON(http.StatusOK, response.PublishEventResponse{
		Message: "event published",
		Event:   event,
	})
}

// HandleCloseEvent godoc
// @Summary      Close an event early
// @Description  Settles a published or ongoing event into the requested terminal status, CLOSED or COMPLETED
// @Tags         events
// @Produce      json
// @Param        eventID  path      int true "Event ID"
// @Param        request  body      request.CloseEventRequest true "request body"
// @Success      200      {object}  domain.Event
// @Failure      400      {object}  response.Err
// @Failure      403      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /events/{eventID}/close [post]
// @Security     BearerAuth
func (h *EventHandler) HandleCloseEvent(ctx *gin.Context) {
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

	var req request.CloseEventRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	event, err := h.svc.CloseEvent(ctx.Request.Context(), user.ID, eventID, domain.EventStatus(req.Status))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEventNotFound):
			response.RenderErr(ctx, response.ErrNotFound("event", "ID", eventID))
		case errors.Is(err, service.ErrNotEventOwner):
			response.RenderErr(ctx, response.ErrPermissionDenied(fmt.Errorf("user %v does not own event %v", user.ID, eventID)))
		case errors.Is(err, service.ErrEventClosed),
			errors.Is(err, service.ErrEventNotClosable),
			errors.Is(err, service.ErrInvalidCloseTarget):
			response.RenderErr(ctx, response.ErrBadRequest(err))
		default:
			err = fmt.Errorf("v1.HandleCloseEvent -> h.svc.CloseEvent -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	ctx.JSON(http.StatusOK, event)
}

// HandleDeleteEvent godoc
// @Summary      Delete a draft event
// @Tags         events
// @Param        eventID  path  int true "Event ID"
// @Success      204
// @Failure      400  {object}  response.Err
// @Failure      403  {object}  response.Err
// @Failure      404  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /events/{eventID} [delete]
// @Security     BearerAuth
func (h *EventHandler) HandleDeleteEvent(ctx *gin.Context) {
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

	err := h.svc.DeleteEvent(ctx.Request.Context(), user.ID, eventID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEventNotFound):
			response.RenderErr(ctx, response.ErrNotFound("event", "ID", eventID))
		case errors.Is(err, service.ErrNotEventOwner):
			response.RenderErr(ctx, response.ErrPermissionDenied(fmt.Errorf("user %v does not own event %v", user.ID, eventID)))
		case errors.Is(err, service.ErrEventNotDraft):
			response.RenderErr(ctx, response.ErrBadRequest(err))
		default:
			err = fmt.Errorf("v1.HandleDeleteEvent -> h.svc.DeleteEvent -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	ctx.Status(http.StatusNoContent)
}

// HandleListMyEvents godoc
// @Summary      List the calling organizer's events with stats
// @Tags         events
// @Produce      json
// @Success      200  {array}   response.EventWithStats
// @Failure      403  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /organizers/me/events [get]
// @Security     BearerAuth
func (h *EventHandler) HandleListMyEvents(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}
	if user.Role != domain.RoleOrganizer {
		response.RenderErr(ctx, response.ErrPermissionDenied(fmt.Errorf("user %v is not an organizer", user.ID)))
		return
	}

	events, stats, err := h.svc.ListOrganizerEvents(ctx.Request.Context(), user.ID)
	if err != nil {
		err = fmt.Errorf("v1.HandleListMyEvents -> h.svc.ListOrganizerEvents -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	out := make([]response.EventWithStats, 0, len(events))
	for i := range events {
		out = append(out, response.EventWithStats{
			Event: events[i],
			Stats: stats[i],
		})
	}

	ctx.JSON(http.StatusOK, out)
}

// HandleEventAnalytics godoc
// @Summary      Get analytics for one event
// @Tags         events
// @Produce      json
// @Param        eventID  path      int true "Event ID"
// @Success      200      {object}  domain.EventAnalytics
// @Failure      403      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /events/{eventID}/analytics [get]
// @Security     BearerAuth
func (h *EventHandler) HandleEventAnalytics(ctx *gin.Context) {
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

	analytics, err := h.svc.EventAnalytics(ctx.Request.Context(), user.ID, eventID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEventNotFound):
			response.RenderErr(ctx, response.ErrNotFound("event", "ID", eventID))
		case errors.Is(err, service.ErrNotEventOwner):
			response.RenderErr(ctx, response.ErrPermissionDenied(fmt.Errorf("user %v does not own event %v", user.ID, eventID)))
		default:
			err = fmt.Errorf("v1.HandleEventAnalytics -> h.svc.EventAnalytics -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	ctx.JSON(http.StatusOK, analytics)
}
