package v1

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felicity-events/felicity-api/internal/api/middleware"
	"github.com/felicity-events/felicity-api/internal/domain"
	"github.com/felicity-events/felicity-api/internal/service"
)

// stubUserService resolves every lookup to one fixed user.
type stubUserService struct {
	user domain.User
}

func (s *stubUserService) GetUser(ctx context.Context, id uint) (domain.User, error) {
	return s.user, nil
}

func (s *stubUserService) GetParticipant(ctx context.Context, userID uint) (domain.Participant, error) {
	return domain.Participant{User: s.user}, nil
}

func (s *stubUserService) GetOrganizer(ctx context.Context, userID uint) (domain.Organizer, error) {
	return domain.Organizer{User: s.user}, nil
}

func (s *stubUserService) ListOrganizers(ctx context.Context) ([]domain.Organizer, error) {
	return nil, nil
}

func (s *stubUserService) UpdateParticipantProfile(ctx context.Context, participant domain.Participant) (domain.Participant, error) {
	return participant, nil
}

func (s *stubUserService) UpdateOrganizerProfile(ctx context.Context, organizer domain.Organizer) (domain.Organizer, error) {
	return organizer, nil
}

func (s *stubUserService) ToggleFollowOrganizer(ctx context.Context, participantID, organizerID uint) (bool, error) {
	return false, nil
}

type stubEventService struct {
	publishEvent domain.Event
	publishErr   error
	closeEvent   domain.Event
	closeErr     error
	closeTarget  domain.EventStatus
}

func (s *stubEventService) CreateEvent(ctx context.Context, event domain.Event) (domain.Event, error) {
	return event, nil
}

func (s *stubEventService) GetEvent(ctx context.Context, id uint) (domain.Event, error) {
	return domain.Event{}, nil
}

func (s *stubEventService) BrowseEvents(ctx context.Context, opts service.BrowseOptions) ([]domain.Event, error) {
	return nil, nil
}

func (s *stubEventService) TrendingEvents(ctx context.Context) ([]domain.Event, error) {
	return nil, nil
}

func (s *stubEventService) PublishEvent(ctx context.Context, organizerID, eventID uint) (domain.Event, error) {
	return s.publishEvent, s.publishErr
}

func (s *stubEventService) CloseEvent(ctx context.Context, organizerID, eventID uint, target domain.EventStatus) (domain.Event, error) {
	s.closeTarget = target
	return s.closeEvent, s.closeErr
}

func (s *stubEventService) UpdateEvent(ctx context.Context, organizerID, eventID uint, update domain.EventUpdate) (domain.Event, error) {
	return domain.Event{}, nil
}

func (s *stubEventService) DeleteEvent(ctx context.Context, organizerID, eventID uint) error {
	return nil
}

func (s *stubEventService) ListOrganizerEvents(ctx context.Context, organizerID uint) ([]domain.Event, []domain.EventStats, error) {
	return nil, nil, nil
}

func (s *stubEventService) EventAnalytics(ctx context.Context, organizerID, eventID uint) (domain.EventAnalytics, error) {
	return domain.EventAnalytics{}, nil
}

func newEventRouter(t *testing.T, svc EventService) *gin.Engine {
	t.Helper()

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(ctx *gin.Context) {
		ctx.Set(middleware.ContextKeyUserID, uint(100))
	})

	organizer := domain.User{ID: 100, Role: domain.RoleOrganizer}
	handler := NewEventHandler(svc, &stubUserService{user: organizer})
	router.POST("/events/:eventID/publish", handler.HandlePublishEvent)
	router.POST("/events/:eventID/close", handler.HandleCloseEvent)
	return router
}

func TestEventHandler_PublishEvent(t *testing.T) {
	t.Run("second publish is a conflict", func(t *testing.T) {
		svc := &stubEventService{
			publishEvent: domain.Event{ID: 1, OrganizerID: 100, Status: domain.EventPublished},
			publishErr:   service.ErrEventNotDraft,
		}
		router := newEventRouter(t, svc)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/events/1/publish", nil))

		assert.Equal(t, http.StatusConflict, rec.Code)

		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "event is already published", body["error"])
	})
}

func TestEventHandler_CloseEvent(t *testing.T) {
	t.Run("passes the chosen target through", func(t *testing.T) {
		svc := &stubEventService{
			closeEvent: domain.Event{ID: 1, OrganizerID: 100, Status: domain.EventCompleted},
		}
		router := newEventRouter(t, svc)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/events/1/close", strings.NewReader(`{"status":"COMPLETED"}`))
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, domain.EventCompleted, svc.closeTarget)
	})

	t.Run("rejects a non-terminal target", func(t *testing.T) {
		router := newEventRouter(t, &stubEventService{})

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/events/1/close", strings.NewReader(`{"status":"ARCHIVED"}`))
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("requires a target", func(t *testing.T) {
		router := newEventRouter(t, &stubEventService{})

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/events/1/close", strings.NewReader(`{}`))
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
