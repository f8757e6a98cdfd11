package webhook

import (
	"fmt"
	"time"

	"github.com/dandantas/refreshwatch/internal/model"
)

// Payload is the body posted to the notification webhook
type Payload struct {
	Text     string                 `json:"text"`
	Metadata map[string]interface{} `json:"metadata"`
	Details  map[string]interface{} `json:"details,omitempty"`
}

// FormatNotification builds the webhook payload for a monitor notification
func FormatNotification(n model.Notification) Payload {
	var text string
	switch {
	case n.Kind == model.NotificationError:
		text = fmt.Sprintf("⚠️ Refresh monitor [%s]: %s", n.Target, n.Message)
	case n.Outcome == model.OutcomeCompleted:
		text = fmt.Sprintf("✅ Refresh finished [%s]: %s", n.Target, n.Message)
	default:
		text = fmt.Sprintf("🚨 Refresh ended [%s]: %s", n.Target, n.Message)
	}

	details := map[string]interface{}{}
	if n.Detail != "" {
		details["error"] = n.Detail
	}
	if n.State != "" {
		details["state"] = n.State
	}
	if n.Outcome != "" {
		details["outcome"] = string(n.Outcome)
	}

	return Payload{
		Text: text,
		Metadata: map[string]interface{}{
			"service":    "refreshwatch",
			"kind":       n.Kind,
			"target":     n.Target,
			"session_id": n.SessionID,
			"severity":   severity(n),
			"timestamp":  time.Now().UTC().Format(time.RFC3339),
		},
		Details: details,
	}
}

func severity(n model.Notification) string {
	switch {
	case n.Kind == model.NotificationError:
		return "error"
	case n.Outcome == model.OutcomeCompleted:
		return "info"
	default:
		return "warning"
	}
}
