// Package mailer delivers produced mails over SMTP.
package mailer

import (
	"fmt"
	"mime"
	"mime/multipart"
	"net/smtp"
	"net/textproto"
	"strings"

	"feedmailer/internal/model"
)

// SMTP sends mail through a single SMTP server with PLAIN auth.
type SMTP struct {
	host     string
	port     int
	username string
	password string
	from     string
	to       string // default recipient, overridden per mail
}

// NewSMTP creates an SMTP mailer. username may be empty for servers without
// authentication.
func NewSMTP(host string, port int, username, password, from, to string) *SMTP {
	return &SMTP{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
		to:       to,
	}
}

// Send delivers one mail. The mail's recipient override takes precedence
// over the configured default.
func (s *SMTP) Send(m model.Mail) error {
	to := s.to
	if m.To != "" {
		to = m.To
	}

	msg, err := BuildMessage(m, s.from, to)
	if err != nil {
		return fmt.Errorf("build message: %w", err)
	}

	addr := fmt.Sprintf("%s:%d", s.host, s.port)
	var auth smtp.Auth
	if s.username != "" {
		auth = smtp.PlainAuth("", s.username, s.password, s.host)
	}
	if err := smtp.SendMail(addr, auth, s.from, []string{to}, msg); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}

// BuildMessage renders a Mail into a multipart/alternative MIME message.
// The sender display name goes into the From header next to the transport
// address.
func BuildMessage(m model.Mail, from, to string) ([]byte, error) {
	var b strings.Builder
	var body strings.Builder
	w := multipart.NewWriter(&body)

	fmt.Fprintf(&b, "From: %s <%s>\r\n", mime.QEncoding.Encode("utf-8", m.Sender), from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", m.Subject))
	fmt.Fprintf(&b, "Date: %s\r\n", m.Date.Format("Mon, 02 Jan 2006 15:04:05 -0700"))
	b.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=%q\r\n", w.Boundary())
	b.WriteString("\r\n")

	text, err := w.CreatePart(textproto.MIMEHeader{
		"Content-Type": {`text/plain; charset="utf-8"`},
	})
	if err != nil {
		return nil, err
	}
	if _, err := text.Write([]byte(m.BodyText)); err != nil {
		return nil, err
	}

	html, err := w.CreatePart(textproto.MIMEHeader{
		"Content-Type": {`text/html; charset="utf-8"`},
	})
	if err != nil {
		return nil, err
	}
	if _, err := html.Write([]byte(m.BodyHTML)); err != nil {
		return nil, err
	}

	if err := w.Close(); err != nil {
		return nil, err
	}

	b.WriteString(body.String())
	return []byte(b.String()), nil
}
