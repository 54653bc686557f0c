package worker

// notify_worker.go
// Processes order-notification jobs from QueueNotify: emails the order's
// creator when the order reaches a notable lifecycle state (ready, served).

import (
	"context"
	"encoding/json"
	"fmt"

	"platepos/internal/infra"

	"github.com/rs/zerolog/log"
)

// NotifyJobPayload is the job envelope sent to QueueNotify.
type NotifyJobPayload struct {
	ToEmail     string `json:"to_email"`
	OrderNumber string `json:"order_number"`
	Status      string `json:"status"`
}

type NotifyWorker struct {
	mailer *infra.Mailer
}

func NewNotifyWorker(mailer *infra.Mailer) *NotifyWorker {
	return &NotifyWorker{mailer: mailer}
}

// Process sends the status-change email. Failures are logged, never retried
// here — delivery is best-effort.
func (w *NotifyWorker) Process(_ context.Context, raw json.RawMessage) {
	var payload NotifyJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("notify_worker: invalid payload")
		return
	}
	if payload.ToEmail == "" {
		log.Warn().Msg("notify_worker: empty to_email — skipping")
		return
	}

	subject := fmt.Sprintf("Order %s is %s", payload.OrderNumber, payload.Status)
	body := fmt.Sprintf("Order %s has moved to status %q.", payload.OrderNumber, payload.Status)
	if err := w.mailer.Send(payload.ToEmail, subject, body, ""); err != nil {
		log.Error().Err(err).Str("to", payload.ToEmail).Msg("notify_worker: failed to send email")
		return
	}
	log.Info().Str("to", payload.ToEmail).Str("order", payload.OrderNumber).Msg("notify_worker: notification sent")
}
