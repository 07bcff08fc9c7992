package announcer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/aaronromeo/mailtriage/internal/message"
	"github.com/aaronromeo/mailtriage/internal/rules"
)

const webhookAnnouncePath = "/announcements"

type Option func(*webhookAnnouncer)

type Service interface {
	Announce(ctx context.Context, h message.Header, d rules.Decision) error
}

func WithWebhookURL(webhookURL string) Option {
	return func(a *webhookAnnouncer) {
		a.baseURL = strings.TrimSpace(webhookURL)
	}
}

func WithHTTPClient(client *http.Client) Option {
	return func(a *webhookAnnouncer) {
		a.client = client
	}
}

type webhookAnnouncer struct {
	baseURL string
	client  *http.Client
}

// New returns an announcer that posts to <url>/announcements. Without a URL
// every announcement is dropped.
func New(opts ...Option) *webhookAnnouncer {
	announcer := &webhookAnnouncer{
		client: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(announcer)
	}
	return announcer
}

func (a *webhookAnnouncer) Enabled() bool {
	return a.baseURL != ""
}

func (a *webhookAnnouncer) Announce(ctx context.Context, h message.Header, d rules.Decision) error {
	if a.baseURL == "" {
		return nil
	}
	baseURL := strings.TrimRight(a.baseURL, "/")

	sender := h.FromName
	if sender == "" {
		sender = h.From
	}
	text := fmt.Sprintf("Moved %q from %s to %q (rule %s)", h.Subject, sender, d.Destination, d.Rule)
	payload, err := json.Marshal(map[string]string{"message": text})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+webhookAnnouncePath, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := a.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("reporting webhook returned status %s", resp.Status)
	}
	return nil
}
