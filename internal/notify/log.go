package notify

import (
	"log"

	"github.com/jwyneal/typequiz/internal/services"
)

// LogNotifier writes outbound messages to the process log. It stands in for
// the gateway when no delivery URL is configured.
type LogNotifier struct{}

func (LogNotifier) SendNotice(userID, text string) error {
	log.Printf("notify %s: %s", userID, text)
	return nil
}

func (LogNotifier) SendPrompt(userID string, p *services.Prompt) error {
	log.Printf("notify %s: question %d/%d (%s): %s", userID, p.Cursor+1, p.Total, p.Wording, p.Text)
	return nil
}

func (LogNotifier) SendAck(userID string, a *services.AnswerAck) error {
	log.Printf("notify %s: recorded %d for question %d/%d", userID, a.Score, a.Cursor+1, a.Total)
	return nil
}

func (LogNotifier) SendReport(userID string, r *services.Report) error {
	log.Printf("notify %s: result %s, stack %v", userID, r.Label, r.Stack)
	return nil
}

var _ services.Notifier = LogNotifier{}
