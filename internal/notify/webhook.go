// Package notify delivers the engine's outbound private messages. The chat
// gateway owns rendering and delivery; this package only hands messages
// over.
package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/jwyneal/typequiz/internal/services"
)

// WebhookNotifier POSTs each outbound message to the gateway's delivery
// endpoint as {user_id, kind, payload}.
type WebhookNotifier struct {
	url    string
	client *http.Client
}

func NewWebhookNotifier(url string) *WebhookNotifier {
	return &WebhookNotifier{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

type envelope struct {
	UserID  string `json:"user_id"`
	Kind    string `json:"kind"`
	Payload any    `json:"payload"`
}

func (n *WebhookNotifier) send(userID, kind string, payload any) error {
	body, err := json.Marshal(envelope{UserID: userID, Kind: kind, Payload: payload})
	if err != nil {
		return err
	}
	resp, err := n.client.Post(n.url, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("deliver %s to gateway: %w", kind, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("deliver %s to gateway: status %d", kind, resp.StatusCode)
	}
	return nil
}

func (n *WebhookNotifier) SendNotice(userID, text string) error {
	return n.send(userID, "notice", map[string]string{"text": text})
}

func (n *WebhookNotifier) SendPrompt(userID string, p *services.Prompt) error {
	return n.send(userID, "prompt", p)
}

func (n *WebhookNotifier) SendAck(userID string, a *services.AnswerAck) error {
	return n.send(userID, "ack", a)
}

func (n *WebhookNotifier) SendReport(userID string, r *services.Report) error {
	return n.send(userID, "report", r)
}

var _ services.Notifier = (*WebhookNotifier)(nil)
