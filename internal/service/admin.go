package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"
	"unicode"

	"go.uber.org/zap"

	"github.com/felicity-events/felicity-api/internal/domain"
	"github.com/felicity-events/felicity-api/internal/repository"
)

var (
	ErrOrganizerNameExists  = repository.ErrOrganizerNameExists
	ErrResetRequestNotFound = repository.ErrResetRequestNotFound
	ErrResetNotPending      = repository.ErrResetNotPending
)

const organizerEmailDomain = "clubs.iiit.ac.in"

const passwordAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
const generatedPasswordLength = 16

type AdminUserRepository interface {
	CreateOrganizer(ctx context.Context, organizer domain.Organizer) (domain.Organizer, error)
	FindOrganizerByUserID(ctx context.Context, userID uint) (domain.Organizer, error)
	FindAllOrganizers(ctx context.Context) ([]domain.Organizer, error)
	UpdatePassword(ctx context.Context, userID uint, hashedPassword string) error
	DeleteOrganizer(ctx context.Context, userID uint) error
}

type AdminEventRepository interface {
	FindAll(ctx context.Context) ([]domain.Event, error)
}

type PasswordResetRepository interface {
	Create(ctx context.Context, request domain.PasswordResetRequest) (domain.PasswordResetRequest, error)
	FindByID(ctx context.Context, id uint) (domain.PasswordResetRequest, error)
	FindPending(ctx context.Context) ([]domain.PasswordResetRequest, error)
	Resolve(ctx context.Context, id, adminID uint, status domain.ResetRequestStatus, at time.Time) error
}

// CredentialsMailer delivers provisioned or reset organizer credentials.
type CredentialsMailer interface {
	SendCredentials(ctx context.Context, to, organizerName, email, password string) error
}

type AdminService struct {
	userRepo  AdminUserRepository
	eventRepo AdminEventRepository
	resetRepo PasswordResetRepository
	mailer    CredentialsMailer
}

func NewAdminService(userRepo AdminUserRepository, eventRepo AdminEventRepository, resetRepo PasswordResetRepository, mailer CredentialsMailer) *AdminService {
	return &AdminService{
		userRepo:  userRepo,
		eventRepo: eventRepo,
		resetRepo: resetRepo,
		mailer:    mailer,
	}
}

// ProvisionOrganizer creates an organizer account from a club name. The
// login email is derived from the name, the password generated, and both
// are emailed to the club's contact address.
func (s *AdminService) ProvisionOrganizer(ctx context.Context, organizer domain.Organizer) (domain.Organizer, string, error) {
	password, err := generatePassword()
	if err != nil {
		return domain.Organizer{}, "", err
	}
	hashedPassword, err := hashPassword(password)
	if err != nil {
		return domain.Organizer{}, "", err
	}

	organizer.Email = fmt.Sprintf("%s@%s", slugify(organizer.Name), organizerEmailDomain)
	organizer.Password = hashedPassword

	created, err := s.userRepo.CreateOrganizer(ctx, organizer)
	if err != nil {
		return domain.Organizer{}, "", fmt.Errorf("s.userRepo.CreateOrganizer -> %w", err)
	}

	if created.ContactEmail != "" {
		s.mailCredentials(created.ContactEmail, created.Name, created.Email, password)
	}

	return created, created.Email, nil
}

func (s *AdminService) DeleteOrganizer(ctx context.Context, organizerID uint) error {
	if err := s.userRepo.DeleteOrganizer(ctx, organizerID); err != nil {
		return fmt.Errorf("s.userRepo.DeleteOrganizer -> %w", err)
	}

	return nil
}

// RequestPasswordReset files an organizer's reset request for admin
// review.
func (s *AdminService) RequestPasswordReset(ctx context.Context, organizerID uint, reason string) (domain.PasswordResetRequest, error) {
	if _, err := s.userRepo.FindOrganizerByUserID(ctx, organizerID); err != nil {
		return domain.PasswordResetRequest{}, fmt.Errorf("s.userRepo.FindOrganizerByUserID -> %w", err)
	}

	request, err := s.resetRepo.Create(ctx, domain.PasswordResetRequest{
		OrganizerID: organizerID,
		Reason:      reason,
	})
	if err != nil {
		return domain.PasswordResetRequest{}, fmt.Errorf("s.resetRepo.Create -> %w", err)
	}

	return request, nil
}

func (s *AdminService) ListPendingResets(ctx context.Context) ([]domain.PasswordResetRequest, error) {
	requests, err := s.resetRepo.FindPending(ctx)
	if err != nil {
		return nil, fmt.Errorf("s.resetRepo.FindPending -> %w", err)
	}

	return requests, nil
}

// ApprovePasswordReset resolves the request, rotates the organizer's
// password and emails the new credentials. Resolution is one-way.
func (s *AdminService) ApprovePasswordReset(ctx context.Context, adminID, requestID uint) error {
	request, err := s.resetRepo.FindByID(ctx, requestID)
	if err != nil {
		return fmt.Errorf("s.resetRepo.FindByID -> %w", err)
	}

	organizer, err := s.userRepo.FindOrganizerByUserID(ctx, request.OrganizerID)
	if err != nil {
		return fmt.Errorf("s.userRepo.FindOrganizerByUserID -> %w", err)
	}

	if err = s.resetRepo.Resolve(ctx, requestID, adminID, domain.ResetApproved, time.Now()); err != nil {
		return fmt.Errorf("s.resetRepo.Resolve -> %w", err)
	}

	password, err := generatePassword()
	if err != nil {
		return err
	}
	hashedPassword, err := hashPassword(password)
	if err != nil {
		return err
	}
	if err = s.userRepo.UpdatePassword(ctx, organizer.ID, hashedPassword); err != nil {
		return fmt.Errorf("s.userRepo.UpdatePassword -> %w", err)
	}

	to := organizer.ContactEmail
	if to == "" {
		to = organizer.Email
	}
	s.mailCredentials(to, organizer.Name, organizer.Email, password)

	return nil
}

func (s *AdminService) RejectPasswordReset(ctx context.Context, adminID, requestID uint) error {
	if err := s.resetRepo.Resolve(ctx, requestID, adminID, domain.ResetRejected, time.Now()); err != nil {
		return fmt.Errorf("s.resetRepo.Resolve -> %w", err)
	}

	return nil
}

// PlatformStats is the admin dashboard summary.
type PlatformStats struct {
	TotalOrganizers     int `json:"total_organizers"`
	TotalEvents         int `json:"total_events"`
	PublishedEvents     int `json:"published_events"`
	CompletedEvents     int `json:"completed_events"`
	TotalRegistrations  int `json:"total_registrations"`
	PendingResetTickets int `json:"pending_reset_tickets"`
}

func (s *AdminService) GetPlatformStats(ctx context.Context) (PlatformStats, error) {
	var stats PlatformStats

	organizers, err := s.userRepo.FindAllOrganizers(ctx)
	if err != nil {
		return PlatformStats{}, fmt.Errorf("s.userRepo.FindAllOrganizers -> %w", err)
	}
	stats.TotalOrganizers = len(organizers)

	events, err := s.eventRepo.FindAll(ctx)
	if err != nil {
		return PlatformStats{}, fmt.Errorf("s.eventRepo.FindAll -> %w", err)
	}
	stats.TotalEvents = len(events)
	for _, event := range events {
		switch event.Status {
		case domain.EventPublished, domain.EventOngoing:
			stats.PublishedEvents++
		case domain.EventCompleted:
			stats.CompletedEvents++
		}
		stats.TotalRegistrations += event.CurrentRegistrations
	}

	pending, err := s.resetRepo.FindPending(ctx)
	if err != nil {
		return PlatformStats{}, fmt.Errorf("s.resetRepo.FindPending -> %w", err)
	}
	stats.PendingResetTickets = len(pending)

	return stats, nil
}

func (s *AdminService) mailCredentials(to, organizerName, email, password string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		if err := s.mailer.SendCredentials(ctx, to, organizerName, email, password); err != nil {
			zap.L().Warn("sending credentials email failed",
				zap.String("organizer", organizerName),
				zap.Error(err),
			)
		}
	}()
}

// slugify lowercases the club name and strips everything that cannot
// appear in the local part of the login email.
func slugify(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteRune('.')
		}
	}

	return strings.Trim(b.String(), ".")
}

func generatePassword() (string, error) {
	out := make([]byte, generatedPasswordLength)
	alphabetLen := big.NewInt(int64(len(passwordAlphabet)))
	for i := range out {
		n, err := rand.Int(rand.Reader, alphabetLen)
		if err != nil {
			return "", fmt.Errorf("rand.Int -> %w", err)
		}
		out[i] = passwordAlphabet[n.Int64()]
	}

	return string(out), nil
}
