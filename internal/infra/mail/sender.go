package mail

import (
	"bytes"
	"fmt"
	"path/filepath"
	"text/template"

	"gopkg.in/gomail.v2"

	"github.com/vocalia/voicedemo/internal/infra/queue"
)

func NewEmailSender(host string, port int, user, password, notifyTo string) *EmailSender {
	return &EmailSender{
		Host:     host,
		Port:     port,
		User:     user,
		Password: password,
		NotifyTo: notifyTo,
	}
}

// SendCallReport manda o desfecho da ligação pra caixa do comercial.
func (s *EmailSender) SendCallReport(payload queue.CallResultPayload) error {
	if s.NotifyTo == "" {
		return fmt.Errorf("SALES_NOTIFY_EMAIL não configurado")
	}

	data := CallReportEmailData{
		LeadID:          payload.LeadID,
		CallID:          payload.CallID,
		Status:          payload.Status,
		DurationSeconds: payload.DurationSeconds,
		Summary:         payload.Summary,
		ErrorMessage:    payload.ErrorMessage,
		AnsweredBy:      payload.AnsweredBy,
		RecordingURL:    payload.RecordingURL,
		HasAnalysis:     payload.HasAnalysis,
	}

	tmplPath := filepath.Join("templates", "call_report.html")
	t, err := template.ParseFiles(tmplPath)
	if err != nil {
		return fmt.Errorf("erro ao ler template de email: %w", err)
	}

	var body bytes.Buffer
	if err := t.Execute(&body, data); err != nil {
		return fmt.Errorf("erro ao processar template: %w", err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", "no-reply@vocalia.ai")
	m.SetHeader("To", s.NotifyTo)
	m.SetHeader("Subject", fmt.Sprintf("Voice demo call %s — lead %s", payload.Status, payload.LeadID))
	m.SetBody("text/html", body.String())

	d := gomail.NewDialer(s.Host, s.Port, s.User, s.Password)

	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("erro ao enviar email SMTP: %w", err)
	}

	return nil
}
