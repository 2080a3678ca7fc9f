package notification

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"go.uber.org/zap"

	"github.com/felicity-events/felicity-api/internal/config"
	"github.com/felicity-events/felicity-api/internal/domain"
)

// Mailer sends the transactional emails the platform produces: tickets
// after confirmation and organizer credentials after provisioning or a
// password reset.
type Mailer interface {
	SendTicket(ctx context.Context, to string, event domain.Event, registration domain.Registration) error
	SendCredentials(ctx context.Context, to, organizerName, email, password string) error
}

// NewMailer builds the SES mailer, or a no-op one when mail is disabled
// in config.
func NewMailer(conf *config.MailConfig) Mailer {
	if conf == nil || !conf.Enabled {
		zap.L().Info("mail disabled, using noop mailer")
		return &noopMailer{}
	}

	awsCfg := aws.Config{
		Region: conf.Region,
		Credentials: aws.NewCredentialsCache(
			credentials.NewStaticCredentialsProvider(conf.AccessKey, conf.SecretKey, ""),
		),
	}

	return &sesMailer{
		client: ses.NewFromConfig(awsCfg),
		sender: conf.Sender,
	}
}

type sesMailer struct {
	client *ses.Client
	sender string
}

func (m *sesMailer) SendTicket(ctx context.Context, to string, event domain.Event, registration domain.Registration) error {
	subject := fmt.Sprintf("Your ticket for %s", event.Name)
	body := fmt.Sprintf(
		"Your registration for %s is confirmed.\n\nTicket ID: %s\nVenue: %s\nStarts: %s\n\nShow the QR code from the app at the entrance.",
		event.Name, registration.TicketID, event.Venue, event.StartDate.Format("Mon, 02 Jan 2006 15:04"),
	)

	return m.send(ctx, to, subject, body)
}

func (m *sesMailer) SendCredentials(ctx context.Context, to, organizerName, email, password string) error {
	subject := fmt.Sprintf("Felicity organizer account for %s", organizerName)
	body := fmt.Sprintf(
		"An organizer account has been created for %s.\n\nLogin email: %s\nPassword: %s\n\nPlease change the password after your first login.",
		organizerName, email, password,
	)

	return m.send(ctx, to, subject, body)
}

func (m *sesMailer) send(ctx context.Context, to, subject, body string) error {
	_, err := m.client.SendEmail(ctx, &ses.SendEmailInput{
		Source: aws.String(m.sender),
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body)},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("m.client.SendEmail -> %w", err)
	}

	return nil
}

type noopMailer struct{}

func (m *noopMailer) SendTicket(_ context.Context, to string, event domain.Event, registration domain.Registration) error {
	zap.L().Debug("noop mailer: ticket email skipped",
		zap.String("to", to),
		zap.String("ticket_id", registration.TicketID),
	)
	return nil
}

func (m *noopMailer) SendCredentials(_ context.Context, to, organizerName, _, _ string) error {
	zap.L().Debug("noop mailer: credentials email skipped",
		zap.String("to", to),
		zap.String("organizer", organizerName),
	)
	return nil
}
