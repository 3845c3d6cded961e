package mailer

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"text/template"

	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// Template names an outbound email.
type Template string

const (
	TemplateAccountVerify    Template = "account_verify"
	TemplateResetPassword    Template = "reset_password"
	TemplateAccountBlocked   Template = "account_blocked"
	TemplateAccountUnblocked Template = "account_unblocked"
)

// Message is a rendered email ready for delivery.
type Message struct {
	From     string
	To       string
	Subject  string
	Body     string
	Template Template
}

// Sender delivers rendered messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Data carries the values interpolated into templates.
type Data struct {
	FirstName string
	Link      string
}

type entry struct {
	subject string
	body    *template.Template
}

var templates = map[Template]entry{
	TemplateAccountVerify: {
		subject: "Verify your account",
		body: template.Must(template.New(string(TemplateAccountVerify)).Parse(
			"Hi {{.FirstName}},\n\nConfirm your email address by opening the link below:\n{{.Link}}\n\nThe link expires shortly.\n")),
	},
	TemplateResetPassword: {
		subject: "Reset your password",
		body: template.Must(template.New(string(TemplateResetPassword)).Parse(
			"Hi {{.FirstName}},\n\nUse the link below to choose a new password:\n{{.Link}}\n\nIf you did not ask for this, ignore this email.\n")),
	},
	TemplateAccountBlocked: {
		subject: "Your account has been deactivated",
		body: template.Must(template.New(string(TemplateAccountBlocked)).Parse(
			"Hi {{.FirstName}},\n\nYour account has been deactivated by an administrator. Contact support for details.\n")),
	},
	TemplateAccountUnblocked: {
		subject: "Your account has been reactivated",
		body: template.Must(template.New(string(TemplateAccountUnblocked)).Parse(
			"Hi {{.FirstName}},\n\nYour account is active again. You can sign in as usual.\n")),
	},
}

// Mailer renders templates and hands them to a Sender.
type Mailer struct {
	from   string
	sender Sender
}

func New(from string, sender Sender) (*Mailer, error) {
	if strings.TrimSpace(from) == "" {
		return nil, fmt.Errorf("mail from address required")
	}
	if sender == nil {
		return nil, fmt.Errorf("mail sender required")
	}
	return &Mailer{from: from, sender: sender}, nil
}

// Render builds the message for tpl without sending it.
func (m *Mailer) Render(tpl Template, to string, data Data) (Message, error) {
	e, ok := templates[tpl]
	if !ok {
		return Message{}, fmt.Errorf("unknown mail template %q", tpl)
	}
	var buf bytes.Buffer
	if err := e.body.Execute(&buf, data); err != nil {
		return Message{}, fmt.Errorf("render %s: %w", tpl, err)
	}
	return Message{
		From:     m.from,
		To:       to,
		Subject:  e.subject,
		Body:     buf.String(),
		Template: tpl,
	}, nil
}

// Send renders tpl and delivers it.
func (m *Mailer) Send(ctx context.Context, tpl Template, to string, data Data) error {
	msg, err := m.Render(tpl, to, data)
	if err != nil {
		return err
	}
	return m.sender.Send(ctx, msg)
}

// LogSender writes messages to the structured log instead of delivering them.
type LogSender struct {
	logg *logger.Logger
}

func NewLogSender(logg *logger.Logger) *LogSender {
	return &LogSender{logg: logg}
}

func (s *LogSender) Send(ctx context.Context, msg Message) error {
	if s == nil || s.logg == nil {
		return nil
	}
	ctx = s.logg.WithFields(ctx, map[string]any{
		"mail_to":       msg.To,
		"mail_subject":  msg.Subject,
		"mail_template": string(msg.Template),
		"mail_body":     msg.Body,
	})
	s.logg.Info(ctx, "email dispatched")
	return nil
}
