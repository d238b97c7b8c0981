package jobs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/mail"
	"net/smtp"
	"strconv"
	"time"
)

// Message is a plain-text e-mail.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Mailer delivers messages.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPMailer sends through an unauthenticated relay such as a local MTA or Mailpit.
type SMTPMailer struct {
	addr string
	from string
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPMailer constructs an SMTPMailer for host:port.
func NewSMTPMailer(host string, port int, from string) *SMTPMailer {
	return &SMTPMailer{
		addr: net.JoinHostPort(host, strconv.Itoa(port)),
		from: from,
		send: smtp.SendMail,
	}
}

// Send writes msg to the relay.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if m == nil {
		return errors.New("mailer: not configured")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	from, err := mail.ParseAddress(m.from)
	if err != nil {
		return fmt.Errorf("mailer: sender: %w", err)
	}
	to, err := mail.ParseAddress(msg.To)
	if err != nil {
		return fmt.Errorf("mailer: recipient: %w", err)
	}
	return m.send(m.addr, nil, from.Address, []string{to.Address}, composeMessage(from, to, msg, time.Now()))
}

func composeMessage(from, to *mail.Address, msg Message, at time.Time) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\n", from.String())
	fmt.Fprintf(&buf, "To: %s\r\n", to.String())
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject))
	fmt.Fprintf(&buf, "Date: %s\r\n", at.Format(time.RFC1123Z))
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	buf.WriteString("Content-Transfer-Encoding: 8bit\r\n\r\n")
	buf.WriteString(msg.Body)
	return buf.Bytes()
}
