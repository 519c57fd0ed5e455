package mail

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureSender struct {
	mu   sync.Mutex
	sent []Message
}

func (c *captureSender) Send(_ context.Context, msg Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, msg)
	return nil
}

func TestNotifierVerification(t *testing.T) {
	c := &captureSender{}
	n := NewNotifier(c, "Stock Management", "http://localhost:3000/")

	require.NoError(t, n.SendVerification(context.Background(), "a@example.com", "Ana <b>", "tok123"))
	require.Len(t, c.sent, 1)

	msg := c.sent[0]
	assert.Equal(t, "a@example.com", msg.To)
	assert.Equal(t, "Verify Your Email Address", msg.Subject)
	assert.Contains(t, msg.HTML, "http://localhost:3000/verify-email/tok123")
	assert.Contains(t, msg.HTML, "Ana &lt;b&gt;")
	assert.NotContains(t, msg.HTML, "Ana <b>")
}

func TestNotifierResetAndWelcome(t *testing.T) {
	c := &captureSender{}
	n := NewNotifier(c, "Stock Management", "https://app.example.com")
	ctx := context.Background()

	require.NoError(t, n.SendPasswordReset(ctx, "a@example.com", "Ana", "r1"))
	require.NoError(t, n.SendWelcome(ctx, "a@example.com", "Ana"))
	require.Len(t, c.sent, 2)

	assert.Contains(t, c.sent[0].HTML, "https://app.example.com/reset-password/r1")
	assert.Equal(t, "Welcome to Stock Management", c.sent[1].Subject)
	assert.NotContains(t, c.sent[1].HTML, "href=")
}

func TestSMTPBuild(t *testing.T) {
	s := NewSMTPSender(SMTPConfig{From: "no-reply@example.com", FromName: "Stock"})
	raw := string(s.build(Message{To: "a@example.com", Subject: "Hi", HTML: "<p>x</p>\n<p>y</p>"}))

	assert.True(t, strings.HasPrefix(raw, "From: Stock <no-reply@example.com>\r\n"))
	assert.Contains(t, raw, "To: a@example.com\r\n")
	assert.Contains(t, raw, "Content-Type: text/html")
	assert.Contains(t, raw, "\r\n\r\n<p>x</p>\r\n<p>y</p>")
}

func TestLogSender(t *testing.T) {
	assert.NoError(t, LogSender{}.Send(context.Background(), Message{To: "a@example.com"}))
}
