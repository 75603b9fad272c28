package mailer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rentwise/rentwise-backend/pkg/config"
	pkgerrors "github.com/rentwise/rentwise-backend/pkg/errors"
	"github.com/stretchr/testify/require"
)

type fakeDeliverer struct {
	mu    sync.Mutex
	sent  []Message
	from  string
	err   error
	calls int
}

func (f *fakeDeliverer) deliver(ctx context.Context, from string, msg Message) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	f.from = from
	f.sent = append(f.sent, msg)
	return "<id@mg>", nil
}

func testConfig() config.MailgunConfig {
	return config.MailgunConfig{
		From:             "Rentwise <no-reply@rentwise.test>",
		Timeout:          time.Second,
		BreakerFailures:  2,
		BreakerOpenDelay: time.Minute,
	}
}

func TestSendInvitationRendersTemplates(t *testing.T) {
	fake := &fakeDeliverer{}
	m := newMailer(testConfig(), fake, nil)

	err := m.SendInvitation(context.Background(), "new@rentwise.test", "Grace", "staff", "https://app.test/invite?token=abc&x=<1>")
	require.NoError(t, err)
	require.Len(t, fake.sent, 1)

	msg := fake.sent[0]
	require.Equal(t, "Rentwise <no-reply@rentwise.test>", fake.from)
	require.Equal(t, "new@rentwise.test", msg.To)
	require.Contains(t, msg.Subject, "invited")
	require.Contains(t, msg.Text, "Hi Grace")
	require.Contains(t, msg.Text, "https://app.test/invite?token=abc&x=<1>")
	require.Contains(t, msg.HTML, "<strong>staff</strong>")
	require.NotContains(t, msg.HTML, "<1>", "html output must be escaped")
}

func TestSendPasswordResetWithoutName(t *testing.T) {
	fake := &fakeDeliverer{}
	m := newMailer(testConfig(), fake, nil)

	require.NoError(t, m.SendPasswordReset(context.Background(), "u@rentwise.test", "", "https://app.test/reset?token=t"))
	require.Contains(t, fake.sent[0].Text, "Hi there")
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	fake := &fakeDeliverer{err: errors.New("503 from mailgun")}
	m := newMailer(testConfig(), fake, nil)
	ctx := context.Background()
	msg := Message{To: "x@rentwise.test", Subject: "s", Text: "t"}

	for i := 0; i < 2; i++ {
		err := m.Send(ctx, msg)
		require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
	}
	require.Equal(t, 2, fake.calls)

	err := m.Send(ctx, msg)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
	require.Equal(t, 2, fake.calls, "open breaker must not reach mailgun")
}

func TestDisabledMailerSkipsDelivery(t *testing.T) {
	m := New(config.MailgunConfig{}, nil)
	require.NoError(t, m.Send(context.Background(), Message{To: "x@rentwise.test"}))
	require.Error(t, m.Send(context.Background(), Message{To: " "}))
}
