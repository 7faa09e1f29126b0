// Package mailer turns queued mail messages into SMTP messages.
package mailer

import (
	"embed"
	"encoding/json"
	"fmt"
	"html/template"

	"github.com/wneessen/go-mail"

	"github.com/guardias-hospital/shift-manager/backend/internal/domain"
	"github.com/guardias-hospital/shift-manager/backend/internal/notify"
)

//go:embed templates/*.html
var templatesFS embed.FS

const subjectPrefix = "Guardias - "

// envelope mirrors domain.MailMessage with the payload left undecoded until
// the type is known.
type envelope struct {
	Type string          `json:"type"`
	To   string          `json:"to"`
	Data json.RawMessage `json:"data"`
}

type shiftView struct {
	FullName    string
	Title       string
	Body        string
	Shift       domain.ShiftSnapshot
	SeriesCount int
}

type Composer struct {
	from      string
	templates *template.Template
}

func NewComposer(from string) (*Composer, error) {
	tmpl, err := template.ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse mail templates: %w", err)
	}
	return &Composer{from: from, templates: tmpl}, nil
}

// Compose decodes a queued message and builds the mail to send. Errors mean
// the message can never be delivered and should not be requeued.
func (c *Composer) Compose(body []byte) (*mail.Msg, error) {
	env := envelope{}
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode mail message: %w", err)
	}

	subject, tmpl, data, err := c.view(env)
	if err != nil {
		return nil, err
	}

	msg := mail.NewMsg()
	if err := msg.From(c.from); err != nil {
		return nil, fmt.Errorf("set sender: %w", err)
	}
	if err := msg.To(env.To); err != nil {
		return nil, fmt.Errorf("set recipient: %w", err)
	}
	msg.Subject(subjectPrefix + subject)
	if err := msg.SetBodyHTMLTemplate(c.templates.Lookup(tmpl), data); err != nil {
		return nil, fmt.Errorf("render %s: %w", tmpl, err)
	}
	return msg, nil
}

func (c *Composer) view(env envelope) (subject, tmpl string, data any, err error) {
	if env.Type == domain.MailTypeCreateUser {
		d := domain.CreateUserMailData{}
		if err := json.Unmarshal(env.Data, &d); err != nil {
			return "", "", nil, fmt.Errorf("decode %s data: %w", env.Type, err)
		}
		return "Account details", "new_account.html", d, nil
	}

	switch t := domain.NotificationType(env.Type); t {
	case domain.NotificationShiftAssigned, domain.NotificationShiftConfirmed,
		domain.NotificationShiftDeclined, domain.NotificationFreeShiftAvailable,
		domain.NotificationFreeShiftAccepted, domain.NotificationShiftReminder:
		d := domain.ShiftMailData{}
		if err := json.Unmarshal(env.Data, &d); err != nil {
			return "", "", nil, fmt.Errorf("decode %s data: %w", env.Type, err)
		}
		n := domain.Notification{Type: t, Shift: d.Shift, SeriesCount: d.SeriesCount}
		view := shiftView{
			FullName:    d.FullName,
			Title:       notify.Title(n),
			Body:        notify.Body(n),
			Shift:       d.Shift,
			SeriesCount: d.SeriesCount,
		}
		return view.Title, "shift_notification.html", view, nil
	default:
		return "", "", nil, fmt.Errorf("unsupported mail type %q", env.Type)
	}
}
