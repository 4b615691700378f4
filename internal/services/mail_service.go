package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/smtp"
	"net/textproto"
	"strings"

	"yamdb/internal/config"
	"yamdb/internal/utils"

	"github.com/rs/zerolog/log"
)

// sendFunc matches smtp.SendMail so tests can capture outgoing messages.
type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// ErrMailUnavailable is returned in release mode when SMTP is not configured.
// Log-only delivery would put working confirmation codes into the logs.
var ErrMailUnavailable = errors.New("mail delivery is not configured")

type MailService struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	SiteURL  string
	Enabled  bool
	// Release disables the log-only fallback.
	Release  bool

	send sendFunc
}

func NewMailService(cfg *config.Config) *MailService {
	enabled := cfg.MailEnabled()
	release := cfg.Server.GinMode == "release"
	switch {
	case enabled:
	case release:
		log.Error().Msg("SMTP settings missing in release mode, confirmation codes cannot be delivered")
	default:
		log.Warn().Msg("SMTP settings missing, confirmation codes will only be logged")
	}
	return &MailService{
		Host:     cfg.Mail.Host,
		Port:     cfg.Mail.Port,
		Username: cfg.Mail.User,
		Password: cfg.Mail.Password,
		From:     cfg.Mail.From,
		SiteURL:  strings.TrimRight(cfg.Server.SiteURL, "/"),
		Enabled:  enabled,
		Release:  release,
		send:     smtp.SendMail,
	}
}

const confirmationTemplate = `Hello, **%s**!

Your YaMDb confirmation code is:

` + "`%s`" + `

To get your API token send it together with your username:

` + "```" + `
POST %s/api/v1/auth/token/
{"username": "%s", "confirmation_code": "%s"}
` + "```" + `

If you did not sign up, ignore this message.
`

// SendConfirmationCode mails the code. Without SMTP settings the message is
// written to the log and treated as delivered, except in release mode where
// ErrMailUnavailable is returned and the code is never logged.
func (s *MailService) SendConfirmationCode(ctx context.Context, to, username, code string) error {
	if !s.Enabled && s.Release {
		log.Error().Str("to", to).Str("username", username).Msg("confirmation email not sent: SMTP is not configured")
		return ErrMailUnavailable
	}
	text := fmt.Sprintf(confirmationTemplate, username, code, s.SiteURL, username, code)
	if !s.Enabled {
		log.Info().Str("to", to).Str("username", username).Str("body", text).Msg("confirmation email (log-only delivery)")
		return nil
	}

	htmlBody, err := utils.RenderMarkdown(text)
	if err != nil {
		return fmt.Errorf("render confirmation email: %w", err)
	}
	msg, err := s.compose(to, "YaMDb confirmation code", text, htmlBody)
	if err != nil {
		return err
	}
	return s.deliver(ctx, []string{to}, msg)
}

func (s *MailService) compose(to, subject, text, htmlBody string) ([]byte, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	parts := []struct{ contentType, content string }{
		{"text/plain; charset=UTF-8", text},
		{"text/html; charset=UTF-8", htmlBody},
	}
	for _, p := range parts {
		w, err := mw.CreatePart(textproto.MIMEHeader{"Content-Type": {p.contentType}})
		if err != nil {
			return nil, err
		}
		if _, err := w.Write([]byte(p.content)); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "From: YaMDb <%s>\r\n", s.From)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&msg, "Content-Type: multipart/alternative; boundary=%q\r\n\r\n", mw.Boundary())
	msg.Write(body.Bytes())
	return msg.Bytes(), nil
}

func (s *MailService) deliver(ctx context.Context, to []string, msg []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var auth smtp.Auth
	if s.Username != "" {
		auth = smtp.PlainAuth("", s.Username, s.Password, s.Host)
	}
	addr := fmt.Sprintf("%s:%s", s.Host, s.Port)
	if err := s.send(addr, auth, s.From, to, msg); err != nil {
		log.Error().Err(err).Strs("to", to).Msg("failed to send email")
		return fmt.Errorf("send email: %w", err)
	}
	log.Info().Strs("to", to).Msg("email sent")
	return nil
}
