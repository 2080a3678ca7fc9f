package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sahilm/fuzzy"
	"go.uber.org/zap"

	"github.com/felicity-events/felicity-api/internal/domain"
	"github.com/felicity-events/felicity-api/internal/repository"
)

var (
	ErrEventNotFound      = repository.ErrEventNotFound
	ErrNotEventOwner      = errors.New("user does not own this event")
	ErrEventNotDraft      = errors.New("event is not in draft")
	ErrEventNotClosable   = errors.New("only published or ongoing events can be closed")
	ErrInvalidCloseTarget = errors.New("close target must be CLOSED or COMPLETED")
	ErrEventClosed        = errors.New("event is already closed")
)

const trendingWindow = 24 * time.Hour
const trendingLimit = 5

// Field weights for fuzzy search ranking.
const (
	weightName        = 10
	weightOrganizer   = 8
	weightTags        = 7
	weightDescription = 5
)

type EventRepository interface {
	Create(ctx context.Context, event domain.Event) (domain.Event, error)
	FindByID(ctx context.Context, id uint) (domain.Event, error)
	FindVisible(ctx context.Context, eventType domain.EventType, statuses []domain.EventStatus) ([]domain.Event, error)
	FindByOrganizer(ctx context.Context, organizerID uint) ([]domain.Event, error)
	Update(ctx context.Context, event domain.Event) (domain.Event, error)
	UpdateStatus(ctx context.Context, id uint, from, to domain.EventStatus) error
	Delete(ctx context.Context, id uint) error
}

type EventRegistrationRepository interface {
	FindByEvent(ctx context.Context, eventID uint) ([]domain.Registration, error)
	TrendingEventIDs(ctx context.Context, since time.Time, limit int) ([]uint, error)
	CountsByEvent(ctx context.Context, eventID uint) (repository.EventCounts, error)
}

type EventUserRepository interface {
	FindOrganizerByUserID(ctx context.Context, userID uint) (domain.Organizer, error)
	FindParticipantByUserID(ctx context.Context, userID uint) (domain.Participant, error)
}

// PublishNotifier announces a freshly published event to the organizer's
// configured channel. Implementations must not block the request path.
type PublishNotifier interface {
	NotifyEventPublished(webhookURL string, event domain.Event)
}

type EventService struct {
	repo     EventRepository
	regRepo  EventRegistrationRepository
	userRepo EventUserRepository
	notifier PublishNotifier
}

func NewEventService(repo EventRepository, regRepo EventRegistrationRepository, userRepo EventUserRepository, notifier PublishNotifier) *EventService {
	return &EventService{
		repo:     repo,
		regRepo:  regRepo,
		userRepo: userRepo,
		notifier: notifier,
	}
}

// CreateEvent saves a new event in DRAFT for the organizer.
func (s *EventService) CreateEvent(ctx context.Context, event domain.Event) (domain.Event, error) {
	if err := event.Validate(); err != nil {
		return domain.Event{}, err
	}

	event.Status = domain.EventDraft
	event.CurrentRegistrations = 0
	event.FormLocked = false
	if event.Type == domain.EventTypeMerchandise && event.PurchaseLimitPerUser <= 0 {
		event.PurchaseLimitPerUser = 1
	}

	created, err := s.repo.Create(ctx, event)
	if err != nil {
		return domain.Event{}, fmt.Errorf("s.repo.Create -> %w", err)
	}

	return created, nil
}

// GetEvent loads an event and settles any time-driven status transition
// before returning it.
func (s *EventService) GetEvent(ctx context.Context, id uint) (domain.Event, error) {
	event, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.Event{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	s.reconcile(ctx, &event)

	return event, nil
}

// reconcile applies the status engine and persists the result. A lost
// race on the conditional update just means another request already
// stored the same transition.
func (s *EventService) reconcile(ctx context.Context, event *domain.Event) {
	old := event.Status
	if !event.Reconcile(time.Now()) {
		return
	}

	if err := s.repo.UpdateStatus(ctx, event.ID, old, event.Status); err != nil &&
		!errors.Is(err, repository.ErrStatusConflict) {
		zap.L().Warn("persisting event status failed",
			zap.Uint("event_id", event.ID),
			zap.Error(err),
		)
	}
}

// BrowseOptions narrows the participant-facing event listing.
type BrowseOptions struct {
	Type          domain.EventType
	Statuses      []domain.EventStatus
	Eligibility   domain.Eligibility
	Tag           string
	From          time.Time // earliest start date, inclusive
	To            time.Time // latest start date, inclusive
	FollowedOnly  bool      // only events by organizers the caller follows
	Query         string
	ParticipantID uint // interest boost when set and no query
}

// BrowseEvents lists published events. With a query the result is fuzzy
// ranked across name, organizer, tags and description; without one,
// events matching the participant's interests float to the top.
func (s *EventService) BrowseEvents(ctx context.Context, opts BrowseOptions) ([]domain.Event, error) {
	events, err := s.repo.FindVisible(ctx, opts.Type, opts.Statuses)
	if err != nil {
		return nil, fmt.Errorf("s.repo.FindVisible -> %w", err)
	}

	for i := range events {
		s.reconcile(ctx, &events[i])
	}

	events = s.applyFilters(ctx, events, opts)

	if opts.Query != "" {
		return s.rankByQuery(ctx, events, opts.Query), nil
	}

	if opts.ParticipantID != 0 {
		s.boostByInterests(ctx, events, opts.ParticipantID)
	}

	return events, nil
}

func (s *EventService) applyFilters(ctx context.Context, events []domain.Event, opts BrowseOptions) []domain.Event {
	var follower *domain.Participant
	if opts.FollowedOnly && opts.ParticipantID != 0 {
		if participant, err := s.userRepo.FindParticipantByUserID(ctx, opts.ParticipantID); err == nil {
			follower = &participant
		}
	}

	out := events[:0]
	for _, event := range events {
		if opts.Eligibility != "" && event.Eligibility != opts.Eligibility {
			continue
		}
		if opts.Tag != "" && !hasTag(event, opts.Tag) {
			continue
		}
		if !opts.From.IsZero() && event.StartDate.Before(opts.From) {
			continue
		}
		if !opts.To.IsZero() && event.StartDate.After(opts.To) {
			continue
		}
		if opts.FollowedOnly && (follower == nil || !follower.Follows(event.OrganizerID)) {
			continue
		}
		out = append(out, event)
	}

	return out
}

func hasTag(event domain.Event, tag string) bool {
	for _, t := range event.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

func (s *EventService) rankByQuery(ctx context.Context, events []domain.Event, query string) []domain.Event {
	type scored struct {
		event domain.Event
		score int
	}

	ranked := make([]scored, 0, len(events))
	for _, event := range events {
		score := 0
		score += fieldScore(query, event.Name) * weightName
		score += fieldScore(query, event.Description) * weightDescription
		for _, tag := range event.Tags {
			if tagScore := fieldScore(query, tag); tagScore > 0 {
				score += tagScore * weightTags
				break
			}
		}
		if organizer, err := s.userRepo.FindOrganizerByUserID(ctx, event.OrganizerID); err == nil {
			score += fieldScore(query, organizer.Name) * weightOrganizer
		}

		if score > 0 {
			ranked = append(ranked, scored{event: event, score: score})
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	out := make([]domain.Event, 0, len(ranked))
	for _, r := range ranked {
		out = append(out, r.event)
	}

	return out
}

func fieldScore(query, field string) int {
	if field == "" {
		return 0
	}
	matches := fuzzy.Find(query, []string{field})
	if len(matches) == 0 {
		return 0
	}
	if matches[0].Score <= 0 {
		return 1
	}
	return matches[0].Score
}

func (s *EventService) boostByInterests(ctx context.Context, events []domain.Event, participantID uint) {
	participant, err := s.userRepo.FindParticipantByUserID(ctx, participantID)
	if err != nil || len(participant.Interests) == 0 {
		return
	}

	interests := make(map[string]bool, len(participant.Interests))
	for _, interest := range participant.Interests {
		interests[interest] = true
	}

	matches := func(e domain.Event) bool {
		if participant.Follows(e.OrganizerID) {
			return true
		}
		for _, tag := range e.Tags {
			if interests[tag] {
				return true
			}
		}
		return false
	}

	sort.SliceStable(events, func(i, j int) bool {
		return matches(events[i]) && !matches(events[j])
	})
}

// TrendingEvents returns the top events by registrations over the last
// 24 hours, falling back to all-time counts when the window is quiet.
func (s *EventService) TrendingEvents(ctx context.Context) ([]domain.Event, error) {
	ids, err := s.regRepo.TrendingEventIDs(ctx, time.Now().Add(-trendingWindow), trendingLimit)
	if err != nil {
		return nil, fmt.Errorf("s.regRepo.TrendingEventIDs -> %w", err)
	}

	if len(ids) > 0 {
		events := make([]domain.Event, 0, len(ids))
		for _, id := range ids {
			event, err := s.GetEvent(ctx, id)
			if err != nil {
				continue
			}
			if event.Status != domain.EventDraft {
				events = append(events, event)
			}
		}
		if len(events) > 0 {
			return events, nil
		}
	}

	events, err := s.repo.FindVisible(ctx, "", nil)
	if err != nil {
		return nil, fmt.Errorf("s.repo.FindVisible -> %w", err)
	}
	for i := range events {
		s.reconcile(ctx, &events[i])
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].CurrentRegistrations > events[j].CurrentRegistrations
	})
	if len(events) > trendingLimit {
		events = events[:trendingLimit]
	}

	return events, nil
}

// PublishEvent moves a DRAFT event to PUBLISHED and fires the organizer's
// Discord announcement without blocking.
func (s *EventService) PublishEvent(ctx context.Context, organizerID, eventID uint) (domain.Event, error) {
	event, err := s.GetEvent(ctx, eventID)
	if err != nil {
		return domain.Event{}, err
	}

	if event.OrganizerID != organizerID {
		return domain.Event{}, ErrNotEventOwner
	}
	if event.Status != domain.EventDraft {
		return event, ErrEventNotDraft
	}
	if err = event.Validate(); err != nil {
		return domain.Event{}, err
	}

	if err = s.repo.UpdateStatus(ctx, eventID, domain.EventDraft, domain.EventPublished); err != nil {
		return domain.Event{}, fmt.Errorf("s.repo.UpdateStatus -> %w", err)
	}
	event.Status = domain.EventPublished
	s.reconcile(ctx, &event)

	if organizer, oErr := s.userRepo.FindOrganizerByUserID(ctx, organizerID); oErr == nil && organizer.DiscordWebhook != "" {
		s.notifier.NotifyEventPublished(organizer.DiscordWebhook, event)
	}

	return event, nil
}

// CloseEvent ends a live event early, settling it into the terminal
// status the organizer picked: CLOSED or COMPLETED.
func (s *EventService) CloseEvent(ctx context.Context, organizerID, eventID uint, target domain.EventStatus) (domain.Event, error) {
	if target != domain.EventClosed && target != domain.EventCompleted {
		return domain.Event{}, ErrInvalidCloseTarget
	}

	event, err := s.GetEvent(ctx, eventID)
	if err != nil {
		return domain.Event{}, err
	}

	if event.OrganizerID != organizerID {
		return domain.Event{}, ErrNotEventOwner
	}
	if event.Status.IsTerminal() {
		return event, ErrEventClosed
	}
	if event.Status != domain.EventPublished && event.Status != domain.EventOngoing {
		return domain.Event{}, ErrEventNotClosable
	}

	if err = s.repo.UpdateStatus(ctx, eventID, event.Status, target); err != nil {
		return domain.Event{}, fmt.Errorf("s.repo.UpdateStatus -> %w", err)
	}
	event.Status = target

	return event, nil
}

// UpdateEvent applies an edit under the per-status policy.
func (s *EventService) UpdateEvent(ctx context.Context, organizerID, eventID uint, update domain.EventUpdate) (domain.Event, error) {
	event, err := s.GetEvent(ctx, eventID)
	if err != nil {
		return domain.Event{}, err
	}

	if event.OrganizerID != organizerID {
		return domain.Event{}, ErrNotEventOwner
	}
	if err = event.ApplyUpdate(update); err != nil {
		return domain.Event{}, err
	}

	updated, err := s.repo.Update(ctx, event)
	if err != nil {
		return domain.Event{}, fmt.Errorf("s.repo.Update -> %w", err)
	}

	return updated, nil
}

// DeleteEvent removes a draft. Anything once published stays for the
// record; use CloseEvent instead.
func (s *EventService) DeleteEvent(ctx context.Context, organizerID, eventID uint) error {
	event, err := s.GetEvent(ctx, eventID)
	if err != nil {
		return err
	}

	if event.OrganizerID != organizerID {
		return ErrNotEventOwner
	}
	if event.Status != domain.EventDraft {
		return ErrEventNotDraft
	}

	if err = s.repo.Delete(ctx, eventID); err != nil {
		return fmt.Errorf("s.repo.Delete -> %w", err)
	}

	return nil
}

// ListOrganizerEvents returns the organizer's events, drafts included,
// each with its registration stats.
func (s *EventService) ListOrganizerEvents(ctx context.Context, organizerID uint) ([]domain.Event, []domain.EventStats, error) {
	events, err := s.repo.FindByOrganizer(ctx, organizerID)
	if err != nil {
		return nil, nil, fmt.Errorf("s.repo.FindByOrganizer -> %w", err)
	}

	stats := make([]domain.EventStats, len(events))
	for i := range events {
		s.reconcile(ctx, &events[i])

		counts, cErr := s.regRepo.CountsByEvent(ctx, events[i].ID)
		if cErr != nil {
			return nil, nil, fmt.Errorf("s.regRepo.CountsByEvent -> %w", cErr)
		}
		revenue, rErr := s.eventRevenue(ctx, events[i])
		if rErr != nil {
			return nil, nil, rErr
		}

		stats[i] = domain.EventStats{
			Registrations: counts.Registrations,
			Attendance:    counts.Attendance,
			Revenue:       revenue,
		}
	}

	return events, stats, nil
}

// EventAnalytics builds the organizer dashboard numbers for one event.
func (s *EventService) EventAnalytics(ctx context.Context, organizerID, eventID uint) (domain.EventAnalytics, error) {
	event, err := s.GetEvent(ctx, eventID)
	if err != nil {
		return domain.EventAnalytics{}, err
	}
	if event.OrganizerID != organizerID {
		return domain.EventAnalytics{}, ErrNotEventOwner
	}

	counts, err := s.regRepo.CountsByEvent(ctx, eventID)
	if err != nil {
		return domain.EventAnalytics{}, fmt.Errorf("s.regRepo.CountsByEvent -> %w", err)
	}
	revenue, err := s.eventRevenue(ctx, event)
	if err != nil {
		return domain.EventAnalytics{}, err
	}

	analytics := domain.EventAnalytics{
		TotalRegistrations: counts.Registrations,
		TotalAttendance:    counts.Attendance,
		PendingPayments:    counts.PendingPayments,
		Revenue:            revenue,
		RegistrationLimit:  event.RegistrationLimit,
	}
	if counts.Registrations > 0 {
		analytics.AttendanceRate = float64(counts.Attendance) / float64(counts.Registrations)
	}

	return analytics, nil
}

// eventRevenue sums settled money: merchandise order totals with approved
// payments, plus the flat fee for every confirmed paid registration.
func (s *EventService) eventRevenue(ctx context.Context, event domain.Event) (float64, error) {
	registrations, err := s.regRepo.FindByEvent(ctx, event.ID)
	if err != nil {
		return 0, fmt.Errorf("s.regRepo.FindByEvent -> %w", err)
	}

	var revenue float64
	for _, reg := range registrations {
		if reg.Status != domain.RegistrationConfirmed {
			continue
		}
		switch {
		case reg.Order != nil && reg.PaymentStatus == domain.PaymentApproved:
			revenue += reg.Order.Total
		case reg.Order == nil && reg.PaymentStatus == domain.PaymentApproved:
			revenue += event.RegistrationFee
		}
	}

	return revenue, nil
}
