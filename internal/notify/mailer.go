// Package notify sends reservation confirmations by mail.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log"

	"gopkg.in/gomail.v2"

	"github.com/iliyamo/pet-boarding-reservation/internal/config"
	"github.com/iliyamo/pet-boarding-reservation/internal/model"
	"github.com/iliyamo/pet-boarding-reservation/internal/queue"
)

// UserLookup resolves the owner of a reservation.
type UserLookup interface {
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

// Sender delivers a message.  *gomail.Dialer satisfies it.
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// Mailer mails the owner when a reservation is created.
type Mailer struct {
	from   string
	sender Sender
	users  UserLookup
}

// NewMailer returns nil when no SMTP host is configured.
func NewMailer(cfg config.MailConfig, users UserLookup) *Mailer {
	if cfg.Host == "" {
		return nil
	}
	return &Mailer{
		from:   cfg.From,
		sender: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
		users:  users,
	}
}

var confirmation = template.Must(template.New("confirmation").Parse(`<p>Hello {{.Name}},</p>
<p>Your reservation #{{.Event.ReservationID}} is confirmed.</p>
<ul>
<li>Check-in: {{.Event.StartDate}}</li>
<li>Check-out: {{.Event.EndDate}}</li>
<li>Nights: {{.Event.Nights}}</li>
<li>Pets: {{range $i, $p := .Event.Pets}}{{if $i}}, {{end}}{{$p}}{{end}}</li>
<li>Total: {{.Total}}</li>
</ul>`))

// ReservationCreated mails the confirmation for ev to its owner.
func (m *Mailer) ReservationCreated(ctx context.Context, ev queue.ReservationEvent) error {
	if m == nil {
		return nil
	}
	u, err := m.users.GetByID(ctx, ev.OwnerID)
	if err != nil {
		return fmt.Errorf("load owner %d: %w", ev.OwnerID, err)
	}
	msg, err := m.Message(u, ev)
	if err != nil {
		return err
	}
	if err := m.sender.DialAndSend(msg); err != nil {
		return err
	}
	log.Printf("notify: confirmation for reservation %d sent to %s", ev.ReservationID, u.Email)
	return nil
}

// Message builds the confirmation mail without sending it.
func (m *Mailer) Message(u model.User, ev queue.ReservationEvent) (*gomail.Message, error) {
	var body bytes.Buffer
	err := confirmation.Execute(&body, struct {
		Name  string
		Event queue.ReservationEvent
		Total string
	}{u.Name, ev, FormatCents(ev.TotalCents)})
	if err != nil {
		return nil, err
	}
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", u.Email)
	msg.SetHeader("Subject", fmt.Sprintf("Reservation #%d confirmed: %s to %s", ev.ReservationID, ev.StartDate, ev.EndDate))
	msg.SetBody("text/html", body.String())
	return msg, nil
}

// FormatCents renders an amount in cents as "108.00".
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign, cents = "-", -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}
