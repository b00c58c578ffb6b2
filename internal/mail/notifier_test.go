package mail

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/authenticator/internal/logging"
)

type recordingSender struct {
	sent []Message
	err  error
}

func (r *recordingSender) Send(ctx context.Context, msg Message) error {
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, msg)
	return nil
}

func TestNotifier_VerificationCode(t *testing.T) {
	rec := &recordingSender{}
	n := NewNotifier(rec, "http://localhost:5173/")

	err := n.SendVerificationCode(context.Background(), "Alice", "alice@example.com", "123456", 15*time.Minute)
	require.NoError(t, err)
	require.Len(t, rec.sent, 1)

	msg := rec.sent[0]
	assert.Equal(t, "alice@example.com", msg.To)
	assert.Contains(t, msg.Subject, "OTP Verification")
	assert.Contains(t, msg.HTML, "123456")
	assert.Contains(t, msg.HTML, "15 minutes")
	assert.Contains(t, msg.HTML, "Alice")
}

func TestNotifier_EscapesName(t *testing.T) {
	rec := &recordingSender{}
	n := NewNotifier(rec, "http://localhost:5173")

	require.NoError(t, n.SendWelcome(context.Background(), "<script>x</script>", "a@x.com"))
	assert.NotContains(t, rec.sent[0].HTML, "<script>")
	assert.Contains(t, rec.sent[0].HTML, "http://localhost:5173/dashboard")
}

func TestNotifier_PasswordReset(t *testing.T) {
	rec := &recordingSender{}
	n := NewNotifier(rec, "http://localhost:5173")

	link := "http://localhost:5173/reset-password?token=abc123&email=a%40x.com"
	require.NoError(t, n.SendPasswordReset(context.Background(), "", "a@x.com", link, 15*time.Minute))

	msg := rec.sent[0]
	assert.Equal(t, "Reset Your Password", msg.Subject)
	assert.Contains(t, msg.HTML, "token=abc123")
	assert.Contains(t, msg.HTML, "email=a%40x.com")
	assert.Contains(t, msg.HTML, "there")
}

func TestNotifier_ResetSuccess(t *testing.T) {
	rec := &recordingSender{}
	n := NewNotifier(rec, "https://app.example.com")

	require.NoError(t, n.SendPasswordResetSuccess(context.Background(), "Bob", "b@x.com"))
	assert.Equal(t, "Password Reset Successful", rec.sent[0].Subject)
	assert.Contains(t, rec.sent[0].HTML, "https://app.example.com/login")
}

func TestNotifier_PropagatesSenderError(t *testing.T) {
	boom := errors.New("smtp down")
	n := NewNotifier(&recordingSender{err: boom}, "")

	err := n.SendWelcome(context.Background(), "A", "a@x.com")
	assert.ErrorIs(t, err, boom)
}

func TestNewNotifier_PanicsOnNilSender(t *testing.T) {
	assert.Panics(t, func() { NewNotifier(nil, "") })
}

func TestSenderFunc(t *testing.T) {
	var got Message
	s := SenderFunc(func(ctx context.Context, msg Message) error {
		got = msg
		return nil
	})
	require.NoError(t, s.Send(context.Background(), Message{To: "x@y.z"}))
	assert.Equal(t, "x@y.z", got.To)
}

func TestLogSender(t *testing.T) {
	require.NoError(t, LogSender{Logger: logging.Discard()}.Send(context.Background(), Message{To: "a@x.com"}))
}

func TestNewSMTPSender_Validation(t *testing.T) {
	_, err := NewSMTPSender(SMTPConfig{})
	assert.Error(t, err)

	_, err = NewSMTPSender(SMTPConfig{Host: "smtp.example.com"})
	assert.Error(t, err)

	s, err := NewSMTPSender(SMTPConfig{Host: "smtp.example.com", FromEmail: "noreply@example.com"})
	require.NoError(t, err)
	assert.Equal(t, 587, s.cfg.Port)
	assert.True(t, strings.HasPrefix(s.cfg.FromEmail, "noreply"))
	assert.Len(t, s.clientOptions(), 3)

	s.cfg.Username = "user"
	assert.Len(t, s.clientOptions(), 6)
}
