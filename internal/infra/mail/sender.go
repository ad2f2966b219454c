package mail

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"

	"gopkg.in/gomail.v2"

	"github.com/xavierca1/pipeline-dashboard/internal/kpi"
	"github.com/xavierca1/pipeline-dashboard/internal/logger"
	"github.com/xavierca1/pipeline-dashboard/internal/usecase"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// Dialer is satisfied by *gomail.Dialer.
type Dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

var _ usecase.Mailer = (*EmailSender)(nil)

func NewEmailSender(appName, from, host string, port int, user, password string) *EmailSender {
	return NewEmailSenderWithDialer(appName, from, gomail.NewDialer(host, port, user, password))
}

func NewEmailSenderWithDialer(appName, from string, d Dialer) *EmailSender {
	return &EmailSender{AppName: appName, From: from, dialer: d}
}

func (s *EmailSender) send(to, subject, tmpl string, data any) error {
	var body bytes.Buffer
	if err := templates.ExecuteTemplate(&body, tmpl, data); err != nil {
		return fmt.Errorf("render template %s: %w", tmpl, err)
	}

	m := gomail.NewMessage(gomail.SetEncoding(gomail.Unencoded))
	m.SetHeader("From", s.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body.String())

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}

func (s *EmailSender) SendClosingWon(to string, d usecase.ClosingWonMail) error {
	return s.send(to, fmt.Sprintf("Neuer Abschluss von %s", d.StarterName), "closing_won.html", closingWonData{
		AppName:       s.AppName,
		RecipientName: d.RecipientName,
		StarterName:   d.StarterName,
		LeadName:      d.LeadName,
		Units:         kpi.German.Units(d.Units),
		Date:          d.OccurredAt.Format("02.01.2006"),
	})
}

func (s *EmailSender) SendRegistrationPending(to string, d usecase.RegistrationMail) error {
	return s.send(to, "Neue Registrierung wartet auf Freigabe", "registration_pending.html", registrationData{
		AppName:       s.AppName,
		RecipientName: d.RecipientName,
		UserName:      d.UserName,
		UserEmail:     d.UserEmail,
	})
}

func (s *EmailSender) SendAccountApproved(to string, d usecase.AccountApprovedMail) error {
	return s.send(to, "Ihr Account wurde freigeschaltet", "account_approved.html", approvedData{
		AppName:       s.AppName,
		RecipientName: d.RecipientName,
		Role:          d.Role,
	})
}

// LogSender replaces SMTP when no mail host is configured.
type LogSender struct {
	Log logger.Logger
}

func (s *LogSender) SendClosingWon(to string, d usecase.ClosingWonMail) error {
	s.Log.Info("mail skipped, no smtp host", "template", "closing_won", "to", to, "starter", d.StarterName)
	return nil
}

func (s *LogSender) SendRegistrationPending(to string, d usecase.RegistrationMail) error {
	s.Log.Info("mail skipped, no smtp host", "template", "registration_pending", "to", to, "user", d.UserEmail)
	return nil
}

func (s *LogSender) SendAccountApproved(to string, _ usecase.AccountApprovedMail) error {
	s.Log.Info("mail skipped, no smtp host", "template", "account_approved", "to", to)
	return nil
}
