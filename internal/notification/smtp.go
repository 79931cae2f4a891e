package notification

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"time"

	"github.com/bher20/golddigest/internal/config"
)

// smtpOK is the reply code reported for an accepted message.
const smtpOK = 250

type SMTPSender struct {
	cfg     config.SMTPConfig
	from    string
	fromHdr string
	timeout time.Duration
}

func NewSMTPSender(cfg config.EmailConfig) *SMTPSender {
	return &SMTPSender{
		cfg:     cfg.SMTP,
		from:    cfg.FromAddress,
		fromHdr: fromHeader(cfg.FromName, cfg.FromAddress),
		timeout: cfg.Timeout,
	}
}

func (s *SMTPSender) Name() string { return "smtp" }

func (s *SMTPSender) Send(ctx context.Context, msg Message) (Response, error) {
	body := []byte(fmt.Sprintf("From: %s\r\n"+
		"To: %s\r\n"+
		"Subject: %s\r\n"+
		"MIME-Version: 1.0\r\n"+
		"Content-Type: text/html; charset=\"UTF-8\"\r\n"+
		"\r\n"+
		"%s\r\n", s.fromHdr, msg.To, mime.QEncoding.Encode("utf-8", msg.Subject), msg.HTML))

	if err := s.deliver(ctx, msg.To, body); err != nil {
		return Response{}, fmt.Errorf("smtp: %w", err)
	}
	data, _ := json.Marshal(map[string]string{"message": "accepted", "to": msg.To})
	return Response{Status: smtpOK, Data: data}, nil
}

func (s *SMTPSender) deliver(ctx context.Context, to string, body []byte) error {
	addr := net.JoinHostPort(s.cfg.Host, fmt.Sprint(s.cfg.Port))
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	var conn net.Conn
	var err error
	if s.cfg.Encryption == "ssl" {
		// SSL/TLS (Implicit)
		d := &tls.Dialer{Config: &tls.Config{ServerName: s.cfg.Host}}
		conn, err = d.DialContext(ctx, "tcp", addr)
	} else {
		var d net.Dialer
		conn, err = d.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return err
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	c, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		conn.Close()
		return err
	}
	defer c.Close()

	if s.cfg.Encryption == "tls" {
		// STARTTLS (Explicit)
		if ok, _ := c.Extension("STARTTLS"); ok {
			if err = c.StartTLS(&tls.Config{ServerName: s.cfg.Host}); err != nil {
				return err
			}
		}
	}

	if s.cfg.Username != "" && s.cfg.Password != "" {
		auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
		if err = c.Auth(auth); err != nil {
			return err
		}
	}

	if err = c.Mail(s.from); err != nil {
		return err
	}
	if err = c.Rcpt(to); err != nil {
		return err
	}
	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err = w.Write(body); err != nil {
		return err
	}
	if err = w.Close(); err != nil {
		return err
	}
	return c.Quit()
}
