package mailer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mailgun/mailgun-go/v4"
	"github.com/rentwise/rentwise-backend/pkg/config"
	pkgerrors "github.com/rentwise/rentwise-backend/pkg/errors"
	"github.com/rentwise/rentwise-backend/pkg/logger"
	gobreaker "github.com/sony/gobreaker/v2"
)

// Message is a rendered email ready for delivery.
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// Sender delivers transactional email.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

type deliverer interface {
	deliver(ctx context.Context, from string, msg Message) (string, error)
}

// Mailer sends through Mailgun behind a circuit breaker. Without Mailgun credentials
// it only logs what would have been sent.
type Mailer struct {
	from    string
	timeout time.Duration
	client  deliverer
	cb      *gobreaker.CircuitBreaker[string]
	logg    *logger.Logger
}

// New builds a Mailer from configuration.
func New(cfg config.MailgunConfig, logg *logger.Logger) *Mailer {
	var client deliverer
	if cfg.Enabled() {
		mg := mailgun.NewMailgun(cfg.Domain, cfg.APIKey)
		if cfg.EU {
			mg.SetAPIBase(mailgun.APIBaseEU)
		}
		client = &mailgunDeliverer{mg: mg}
	}
	return newMailer(cfg, client, logg)
}

func newMailer(cfg config.MailgunConfig, client deliverer, logg *logger.Logger) *Mailer {
	if logg == nil {
		logg = logger.Nop()
	}
	failures := cfg.BreakerFailures
	if failures == 0 {
		failures = 5
	}
	openFor := cfg.BreakerOpenDelay
	if openFor <= 0 {
		openFor = 30 * time.Second
	}

	m := &Mailer{
		from:    cfg.From,
		timeout: cfg.Timeout,
		client:  client,
		logg:    logg,
	}
	m.cb = gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        "mailgun",
		MaxRequests: 1,
		Timeout:     openFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			ctx := logg.WithFields(context.Background(), map[string]any{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			})
			logg.Warn(ctx, "mailer.breaker_state_change")
		},
	})
	return m
}

// Send delivers msg, failing fast while the breaker is open.
func (m *Mailer) Send(ctx context.Context, msg Message) error {
	if strings.TrimSpace(msg.To) == "" {
		return fmt.Errorf("recipient is required")
	}
	if m.client == nil {
		logCtx := m.logg.WithFields(ctx, map[string]any{"to": msg.To, "subject": msg.Subject})
		m.logg.Info(logCtx, "mailer.disabled_skip_send")
		return nil
	}

	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	id, err := m.cb.Execute(func() (string, error) {
		return m.client.deliver(ctx, m.from, msg)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "email delivery temporarily unavailable")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "email delivery failed")
	}

	logCtx := m.logg.WithFields(ctx, map[string]any{"to": msg.To, "message_id": id})
	m.logg.Info(logCtx, "mailer.sent")
	return nil
}

type mailgunDeliverer struct {
	mg mailgun.Mailgun
}

func (d *mailgunDeliverer) deliver(ctx context.Context, from string, msg Message) (string, error) {
	message := d.mg.NewMessage(from, msg.Subject, msg.Text, msg.To)
	if msg.HTML != "" {
		message.SetHtml(msg.HTML)
	}
	_, id, err := d.mg.Send(ctx, message)
	return id, err
}
