package notification

import (
	"bytes"
	"fmt"
	"net/smtp"
	"text/template"
	"time"

	"github.com/svattam/sewer-server/internal/database"
	"github.com/svattam/sewer-server/internal/protocol"
	"github.com/svattam/sewer-server/pkg/config"
)

// EmailNotifier sends email notifications
type EmailNotifier struct {
	config *config.SMTPConfig
}

// NewEmailNotifier creates a new email notifier
func NewEmailNotifier(cfg *config.SMTPConfig) *EmailNotifier {
	return &EmailNotifier{config: cfg}
}

// SendAlertNotification sends an email for one alert event
func (e *EmailNotifier) SendAlertNotification(event *protocol.AlertEvent) error {
	var subject string
	if event.Severity == database.SeverityDanger {
		subject = fmt.Sprintf("🚨 Sewer Alert DANGER - %s (%s)", event.NodeID, event.Type)
	} else {
		subject = fmt.Sprintf("⚠️ Sewer Alert warning - %s (%s)", event.NodeID, event.Type)
	}

	body, err := e.renderAlertTemplate(event)
	if err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}

	return e.sendEmail(subject, body)
}

func (e *EmailNotifier) renderAlertTemplate(event *protocol.AlertEvent) (string, error) {
	tmpl := `
Sewer Monitoring Alert
======================

Node: {{.NodeID}}
Type: {{.Type}}
Severity: {{.Severity}}
Message: {{.Message}}
Reading ID: {{.ReadingID}}
Time: {{.CreatedAt}}

Description:
Node {{.NodeID}} reported a {{.Severity}}-tier {{.Type}} condition:
{{.Message}}

Please review the dashboard and acknowledge the alert.

---
Sewer Server Notification System
`

	t, err := template.New("alert").Parse(tmpl)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, event); err != nil {
		return "", err
	}

	return buf.String(), nil
}

func (e *EmailNotifier) sendEmail(subject, body string) error {
	// Skip sending if SMTP is not configured
	if e.config.Username == "" || e.config.Password == "" {
		fmt.Printf("SMTP not configured, skipping email:\nSubject: %s\n%s\n", subject, body)
		return nil
	}

	// Construct message
	message := fmt.Sprintf("From: %s\r\n", e.config.From)
	message += fmt.Sprintf("To: %s\r\n", e.config.To)
	message += fmt.Sprintf("Subject: %s\r\n", subject)
	message += fmt.Sprintf("Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	message += "\r\n"
	message += body

	// Setup authentication
	auth := smtp.PlainAuth("", e.config.Username, e.config.Password, e.config.Host)

	// Send email
	addr := fmt.Sprintf("%s:%d", e.config.Host, e.config.Port)
	err := smtp.SendMail(addr, auth, e.config.From, []string{e.config.To}, []byte(message))
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	fmt.Printf("Email sent successfully: %s\n", subject)
	return nil
}

// TestConnection tests the SMTP connection
func (e *EmailNotifier) TestConnection() error {
	if e.config.Username == "" {
		return fmt.Errorf("SMTP not configured")
	}

	// Try to connect
	addr := fmt.Sprintf("%s:%d", e.config.Host, e.config.Port)
	client, err := smtp.Dial(addr)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer client.Close()

	fmt.Println("SMTP connection test successful")
	return nil
}
