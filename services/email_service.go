package services

import (
	"bytes"
	"context"
	"crypto/tls"
	"embed"
	"fmt"
	"html/template"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/Dosada05/kmo-registration/models"
)

//go:embed templates/*.html
var emailTemplates embed.FS

var registrationTemplate = template.Must(template.ParseFS(emailTemplates, "templates/registration_confirmation.html"))

type SMTPConfig struct {
	Host string
	Port int
	User string
	Pass string
	From string
}

type EmailService struct {
	cfg       SMTPConfig
	publicURL string
	send      func(ctx context.Context, to []string, subject, body string) error
}

const (
	smtpDialTimeout = 10 * time.Second
	smtpSendTimeout = 30 * time.Second
)

func NewEmailService(cfg SMTPConfig, publicURL string) *EmailService {
	s := &EmailService{cfg: cfg, publicURL: strings.TrimRight(publicURL, "/")}
	s.send = s.SendEmail
	return s
}

// SendEmail отправляет письмо; обмен с SMTP-сервером ограничен дедлайном ctx
// (или smtpSendTimeout, если дедлайна нет), отмена ctx обрывает соединение.
func (s *EmailService) SendEmail(ctx context.Context, to []string, subject string, body string) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, smtpSendTimeout)
		defer cancel()
	}

	auth := smtp.PlainAuth("", s.cfg.User, s.cfg.Pass, s.cfg.Host)

	msg := []byte("To: " + strings.Join(to, ", ") + "\r\n" +
		"From: " + s.cfg.From + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-version: 1.0;\r\nContent-Type: text/html; charset=\"UTF-8\";\r\n" +
		"\r\n" +
		body + "\r\n")

	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	tlsconfig := &tls.Config{ServerName: s.cfg.Host}
	dialer := &net.Dialer{Timeout: smtpDialTimeout}

	var (
		conn net.Conn
		err  error
	)
	if s.cfg.Port == 465 {
		// Прямое TLS-соединение
		conn, err = (&tls.Dialer{NetDialer: dialer, Config: tlsconfig}).DialContext(ctx, "tcp", addr)
	} else {
		conn, err = dialer.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return fmt.Errorf("ошибка соединения SMTP: %w", err)
	}
	defer conn.Close()

	deadline, _ := ctx.Deadline()
	if err := conn.SetDeadline(deadline); err != nil {
		return fmt.Errorf("ошибка установки дедлайна SMTP: %w", err)
	}
	stop := context.AfterFunc(ctx, func() { _ = conn.SetDeadline(time.Now()) })
	defer stop()

	client, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		return fmt.Errorf("ошибка создания SMTP клиента: %w", err)
	}
	if s.cfg.Port != 465 {
		// STARTTLS
		if err = client.StartTLS(tlsconfig); err != nil {
			client.Close()
			return fmt.Errorf("ошибка команды STARTTLS: %w", err)
		}
	}
	defer client.Quit()

	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("ошибка аутентификации SMTP: %w", err)
	}
	if err := client.Mail(s.cfg.From); err != nil {
		return fmt.Errorf("ошибка MAIL FROM: %w", err)
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("ошибка RCPT TO: %w", err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("ошибка команды DATA: %w", err)
	}
	if _, err = w.Write(msg); err != nil {
		return fmt.Errorf("ошибка записи сообщения: %w", err)
	}
	if err = w.Close(); err != nil {
		return fmt.Errorf("ошибка закрытия DATA: %w", err)
	}
	return nil
}

type registrationEmailData struct {
	FullName       string
	TournamentName string
	Date           string
	Location       string
	School         string
	ClassNumber    int
	ProfileLink    string
}

// RenderRegistrationEmail возвращает HTML письма-подтверждения регистрации.
func (s *EmailService) RenderRegistrationEmail(event models.RegistrationEvent) (string, error) {
	data := registrationEmailData{
		FullName:       strings.TrimSpace(event.Profile.FirstName + " " + event.Profile.MiddleName),
		TournamentName: event.Tournament.Name,
		Date:           event.Tournament.Date.Format("02.01.2006 15:04"),
		Location:       derefString(event.Tournament.Location),
		School:         event.Profile.School,
		ProfileLink:    s.publicURL + "/profile",
	}
	if event.Profile.ClassNumber != nil {
		data.ClassNumber = *event.Profile.ClassNumber
	}

	var body bytes.Buffer
	if err := registrationTemplate.Execute(&body, data); err != nil {
		return "", fmt.Errorf("ошибка выполнения шаблона письма: %w", err)
	}
	return body.String(), nil
}

func (s *EmailService) Channel() string { return "email" }

// NotifyRegistration отправляет подтверждение на email из анкеты; без email ничего не делает.
func (s *EmailService) NotifyRegistration(ctx context.Context, event models.RegistrationEvent) error {
	to := strings.TrimSpace(event.Profile.Email)
	if to == "" {
		return nil
	}

	body, err := s.RenderRegistrationEmail(event)
	if err != nil {
		return err
	}
	subject := fmt.Sprintf("Регистрация на «%s»", event.Tournament.Name)
	return s.send(ctx, []string{to}, subject, body)
}
