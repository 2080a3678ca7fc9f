package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/felicity-events/felicity-api/internal/domain"
)

// DiscordNotifier posts event announcements to club-configured Discord
// webhooks. Delivery is fire and forget; a failed webhook never fails
// the publish.
type DiscordNotifier struct {
	client *http.Client
}

func NewDiscordNotifier() *DiscordNotifier {
	return &DiscordNotifier{
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

type discordEmbed struct {
	Title       string              `json:"title"`
	Description string              `json:"description,omitempty"`
	Fields      []discordEmbedField `json:"fields,omitempty"`
}

type discordEmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type discordPayload struct {
	Content string         `json:"content,omitempty"`
	Embeds  []discordEmbed `json:"embeds,omitempty"`
}

func (n *DiscordNotifier) NotifyEventPublished(webhookURL string, event domain.Event) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := n.post(ctx, webhookURL, event); err != nil {
			zap.L().Warn("discord announcement failed",
				zap.Uint("event_id", event.ID),
				zap.Error(err),
			)
		}
	}()
}

func (n *DiscordNotifier) post(ctx context.Context, webhookURL string, event domain.Event) error {
	payload := discordPayload{
		Content: "New event published!",
		Embeds: []discordEmbed{{
			Title:       event.Name,
			Description: event.Description,
			Fields: []discordEmbedField{
				{Name: "Starts", Value: event.StartDate.Format("Mon, 02 Jan 2006 15:04"), Inline: true},
				{Name: "Venue", Value: event.Venue, Inline: true},
				{Name: "Register by", Value: event.RegistrationDeadline.Format("Mon, 02 Jan 2006 15:04"), Inline: true},
			},
		}},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("json.Marshal -> %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("http.NewRequestWithContext -> %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("n.client.Do -> %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("discord webhook returned %v", resp.Status)
	}

	return nil
}
