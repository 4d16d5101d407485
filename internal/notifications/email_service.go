package notifications

import (
	"context"
	"crypto/tls"
	"fmt"
	"log"
	"net/smtp"
	"strconv"
	"strings"
	"time"
)

// EmailService renders a notification and delivers it over SMTP.
type EmailService interface {
	SendNotification(ctx context.Context, notification *EmailNotification) error
	SendHTML(ctx context.Context, to, subject, htmlBody, textBody string) error
}

type SMTPConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromEmail string
	FromName  string
	UseTLS    bool
}

type SMTPEmailService struct {
	config *SMTPConfig
}

func NewSMTPEmailService(config *SMTPConfig) (*SMTPEmailService, error) {
	if err := validateSMTPConfig(config); err != nil {
		return nil, fmt.Errorf("invalid SMTP configuration: %w", err)
	}
	return &SMTPEmailService{config: config}, nil
}

func validateSMTPConfig(config *SMTPConfig) error {
	if config == nil {
		return fmt.Errorf("SMTP config is nil")
	}
	if config.Host == "" {
		return fmt.Errorf("SMTP host is required")
	}
	if config.Port <= 0 || config.Port > 65535 {
		return fmt.Errorf("SMTP port must be between 1 and 65535")
	}
	if config.Username == "" {
		return fmt.Errorf("SMTP username is required")
	}
	if config.FromEmail == "" {
		return fmt.Errorf("from email is required")
	}
	return nil
}

func (s *SMTPEmailService) SendNotification(ctx context.Context, notification *EmailNotification) error {
	htmlBody, textBody := s.generateContent(notification)
	return s.SendHTML(ctx, notification.RecipientEmail, notification.Subject, htmlBody, textBody)
}

func (s *SMTPEmailService) SendHTML(ctx context.Context, to, subject, htmlBody, textBody string) error {
	message := s.buildMessage(to, subject, htmlBody, textBody)

	auth := smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.Host)
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	var err error
	if s.config.UseTLS {
		err = s.sendWithSTARTTLS(addr, auth, to, message)
	} else {
		err = smtp.SendMail(addr, auth, s.config.FromEmail, []string{to}, message)
	}
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func (s *SMTPEmailService) sendWithSTARTTLS(addr string, auth smtp.Auth, to string, message []byte) error {
	client, err := smtp.Dial(addr)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer client.Quit()

	tlsconfig := &tls.Config{
		ServerName: s.config.Host,
	}
	if err = client.StartTLS(tlsconfig); err != nil {
		return fmt.Errorf("failed to start TLS: %w", err)
	}

	if auth != nil {
		if err = client.Auth(auth); err != nil {
			return fmt.Errorf("failed to authenticate: %w", err)
		}
	}

	if err = client.Mail(s.config.FromEmail); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	if err = client.Rcpt(to); err != nil {
		return fmt.Errorf("failed to set recipient: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to get data writer: %w", err)
	}
	if _, err = w.Write(message); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	return w.Close()
}

func (s *SMTPEmailService) buildMessage(to, subject, htmlBody, textBody string) []byte {
	headers := make(map[string]string)
	headers["From"] = fmt.Sprintf("%s <%s>", s.config.FromName, s.config.FromEmail)
	headers["To"] = to
	headers["Subject"] = subject
	headers["MIME-Version"] = "1.0"
	headers["Date"] = time.Now().Format(time.RFC1123Z)

	boundary := "boundary_" + strconv.FormatInt(time.Now().UnixNano(), 10)
	headers["Content-Type"] = fmt.Sprintf("multipart/alternative; boundary=%s", boundary)

	message := ""
	for k, v := range headers {
		message += fmt.Sprintf("%s: %s\r\n", k, v)
	}
	message += "\r\n"

	if textBody != "" {
		message += fmt.Sprintf("--%s\r\n", boundary)
		message += "Content-Type: text/plain; charset=UTF-8\r\n"
		message += "\r\n"
		message += textBody + "\r\n"
	}

	if htmlBody != "" {
		message += fmt.Sprintf("--%s\r\n", boundary)
		message += "Content-Type: text/html; charset=UTF-8\r\n"
		message += "\r\n"
		message += htmlBody + "\r\n"
	}

	message += fmt.Sprintf("--%s--\r\n", boundary)

	return []byte(message)
}

func (s *SMTPEmailService) generateContent(notification *EmailNotification) (string, string) {
	data := notification.TemplateData

	switch notification.Type {
	case NotificationTypeBookingConfirmed:
		htmlBody := fmt.Sprintf(`
			<h2>Booking Confirmed</h2>
			<p>Hi %s,</p>
			<p>Your booking for <strong>%v</strong> is confirmed!</p>
			<p>Showtime: <strong>%v</strong></p>
			<p>Seats: <strong>%v</strong></p>
			<p>Total Amount: %v %v</p>
			<p>Enjoy the movie!<br>%s Team</p>
		`,
			notification.RecipientName,
			data["movie_title"],
			data["show_time"],
			data["seats"],
			data["amount"],
			data["currency"],
			s.config.FromName,
		)

		textBody := fmt.Sprintf(
			"Hi %s,\n\nYour booking for %v is confirmed!\nShowtime: %v\nSeats: %v\nTotal Amount: %v %v\n\nEnjoy the movie!\n%s Team",
			notification.RecipientName,
			data["movie_title"],
			data["show_time"],
			data["seats"],
			data["amount"],
			data["currency"],
			s.config.FromName,
		)
		return htmlBody, textBody

	case NotificationTypeShowReminder:
		htmlBody := fmt.Sprintf(`
			<h2>Your show starts soon</h2>
			<p>Hi %s,</p>
			<p>This is a reminder that <strong>%v</strong> starts at <strong>%v</strong>.</p>
			<p>Seats: %v</p>
			<p>See you there!<br>%s Team</p>
		`,
			notification.RecipientName,
			data["movie_title"],
			data["show_time"],
			data["seats"],
			s.config.FromName,
		)

		textBody := fmt.Sprintf(
			"Hi %s,\n\nThis is a reminder that %v starts at %v.\nSeats: %v\n\nSee you there!\n%s Team",
			notification.RecipientName,
			data["movie_title"],
			data["show_time"],
			data["seats"],
			s.config.FromName,
		)
		return htmlBody, textBody

	case NotificationTypeShowAdded:
		htmlBody := fmt.Sprintf(`
			<h2>New shows added</h2>
			<p>Hi %s,</p>
			<p><strong>%v</strong> is now open for booking with %v new showtimes.</p>
			<p>Book your seats before they fill up.<br>%s Team</p>
		`,
			notification.RecipientName,
			data["movie_title"],
			data["show_count"],
			s.config.FromName,
		)

		textBody := fmt.Sprintf(
			"Hi %s,\n\n%v is now open for booking with %v new showtimes.\nBook your seats before they fill up.\n\n%s Team",
			notification.RecipientName,
			data["movie_title"],
			data["show_count"],
			s.config.FromName,
		)
		return htmlBody, textBody

	default:
		htmlBody := fmt.Sprintf(`
			<h2>%s</h2>
			<p>Hi %s,</p>
			<p>This is a notification from %s.</p>
		`,
			notification.Subject,
			notification.RecipientName,
			s.config.FromName,
		)

		textBody := fmt.Sprintf(
			"Hi %s,\n\nThis is a notification from %s.",
			notification.RecipientName,
			s.config.FromName,
		)
		return htmlBody, textBody
	}
}

// MockEmailService logs instead of sending. Used in development when no
// SMTP credentials are configured.
type MockEmailService struct{}

func NewMockEmailService() *MockEmailService {
	return &MockEmailService{}
}

func (s *MockEmailService) SendNotification(ctx context.Context, notification *EmailNotification) error {
	log.Printf("[MOCK] Sending %s notification to %s (%s)",
		notification.Type,
		notification.RecipientEmail,
		notification.RecipientName,
	)
	return nil
}

func (s *MockEmailService) SendHTML(ctx context.Context, to, subject, htmlBody, textBody string) error {
	log.Printf("[MOCK] To: %s, Subject: %s", to, subject)
	log.Printf("[MOCK] Body: %s", strings.TrimSpace(textBody))
	return nil
}
