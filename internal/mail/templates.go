package mail

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"
)

var layout = template.Must(template.New("layout").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333; max-width: 600px; margin: 0 auto;">
<h2>{{.App}}</h2>
<p>Hello {{.Name}},</p>
{{range .Paragraphs}}<p>{{.}}</p>
{{end}}{{if .Link}}<p><a href="{{.Link}}" style="background: #2563eb; color: #fff; padding: 10px 20px; text-decoration: none; border-radius: 4px;">{{.Action}}</a></p>
<p style="font-size: 12px; color: #666;">Or open this link: {{.Link}}</p>
{{end}}<p style="font-size: 12px; color: #666;">{{.Footer}}</p>
</body>
</html>
`))

type page struct {
	App        string
	Name       string
	Paragraphs []string
	Action     string
	Link       string
	Footer     string
}

// Notifier renders and sends the account emails.
type Notifier struct {
	sender  Sender
	app     string
	baseURL string
}

// NewNotifier creates a notifier. Links are built from baseURL, the frontend
// origin.
func NewNotifier(sender Sender, app, baseURL string) *Notifier {
	return &Notifier{sender: sender, app: app, baseURL: strings.TrimRight(baseURL, "/")}
}

func (n *Notifier) send(ctx context.Context, to, subject string, p page) error {
	p.App = n.app
	var buf bytes.Buffer
	if err := layout.Execute(&buf, p); err != nil {
		return fmt.Errorf("rendering %q: %w", subject, err)
	}
	return n.sender.Send(ctx, Message{To: to, Subject: subject, HTML: buf.String()})
}

// VerificationLink returns the frontend URL for an email verification token.
func (n *Notifier) VerificationLink(token string) string {
	return n.baseURL + "/verify-email/" + token
}

// ResetLink returns the frontend URL for a password reset token.
func (n *Notifier) ResetLink(token string) string {
	return n.baseURL + "/reset-password/" + token
}

func (n *Notifier) SendVerification(ctx context.Context, to, name, token string) error {
	return n.send(ctx, to, "Verify Your Email Address", page{
		Name:       name,
		Paragraphs: []string{"Thanks for registering. Please confirm your email address to activate all features of your account."},
		Action:     "Verify Email",
		Link:       n.VerificationLink(token),
		Footer:     "This link expires in 24 hours. If you did not create an account, ignore this email.",
	})
}

func (n *Notifier) SendPasswordReset(ctx context.Context, to, name, token string) error {
	return n.send(ctx, to, "Reset Your Password", page{
		Name:       name,
		Paragraphs: []string{"We received a request to reset your password."},
		Action:     "Reset Password",
		Link:       n.ResetLink(token),
		Footer:     "This link expires in 1 hour. If you did not request a reset, your password is unchanged.",
	})
}

func (n *Notifier) SendWelcome(ctx context.Context, to, name string) error {
	return n.send(ctx, to, "Welcome to "+n.app, page{
		Name:       name,
		Paragraphs: []string{"Your email address is verified.", "You can now use every feature of your account."},
		Footer:     "Thanks for joining us.",
	})
}
