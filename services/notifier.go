package services

import (
	"fmt"
	"net/smtp"

	"task-management/backend/models"

	"github.com/sony/gobreaker"
)

// Notifier delivers best-effort notifications to team members. Errors are
// logged by callers and never fail the operation that triggered them.
type Notifier interface {
	TaskAssigned(user *models.User, task *models.Task) error
}

type SMTPConfig struct {
	Host     string
	Port     string
	From     string
	Password string
}

// EmailNotifier sends assignment emails over SMTP behind a circuit breaker,
// so a dead mail server stops costing a connection attempt per assignment.
type EmailNotifier struct {
	cfg     SMTPConfig
	breaker *gobreaker.CircuitBreaker
}

func NewEmailNotifier(cfg SMTPConfig, breaker *gobreaker.CircuitBreaker) *EmailNotifier {
	return &EmailNotifier{cfg: cfg, breaker: breaker}
}

func (n *EmailNotifier) TaskAssigned(user *models.User, task *models.Task) error {
	subject := fmt.Sprintf("New task assigned: %s", task.Title)
	body := fmt.Sprintf(
		"Hi %s,<br><br>You have been assigned the task <b>%s</b> (priority: %s, due: %s).<br><br>Log in to your dashboard to get started.",
		user.Name, task.Title, task.Priority, task.DueDate.Format("2006-01-02"),
	)

	_, err := n.breaker.Execute(func() (interface{}, error) {
		return nil, n.send(user.Email, subject, body)
	})
	return err
}

func (n *EmailNotifier) send(to, subject, body string) error {
	if n.cfg.Password == "" {
		return fmt.Errorf("SMTP password is not set")
	}

	message := []byte("Subject: " + subject + "\r\n" +
		"From: " + n.cfg.From + "\r\n" +
		"To: " + to + "\r\n" +
		"Content-Type: text/html; charset=\"UTF-8\"\r\n\r\n" +
		body + "\r\n")

	auth := smtp.PlainAuth("", n.cfg.From, n.cfg.Password, n.cfg.Host)

	if err := smtp.SendMail(n.cfg.Host+":"+n.cfg.Port, auth, n.cfg.From, []string{to}, message); err != nil {
		return fmt.Errorf("failed to send email: %v", err)
	}
	return nil
}

// NoopNotifier is used when no SMTP credentials are configured and in tests.
type NoopNotifier struct{}

func (NoopNotifier) TaskAssigned(*models.User, *models.Task) error { return nil }
