package service

import (
	"context"

	"trackify/api/internal/mailer"
	"trackify/api/internal/metrics"

	"github.com/rs/zerolog"
)

// notifier sends email on a log-and-continue basis. Delivery failures never fail the caller.
type notifier struct {
	sender  mailer.Sender
	metrics *metrics.Metrics
	log     zerolog.Logger
}

func (n notifier) deliver(ctx context.Context, msg mailer.Message, purpose string) {
	id, err := n.sender.Send(ctx, msg)
	if err != nil {
		n.metrics.EmailDeliveries.WithLabelValues(metrics.OutcomeFailure).Inc()
		n.log.Error().Err(err).Str("purpose", purpose).Str("to", msg.To).Msg("email delivery failed")
		return
	}
	n.metrics.EmailDeliveries.WithLabelValues(metrics.OutcomeSuccess).Inc()
	n.log.Info().Str("purpose", purpose).Str("message_id", id).Msg("email sent")
}
