// Package mailer sends the contact form notification and the acknowledgement
// to the sender through an SMTP relay.
package mailer

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/wneessen/go-mail"
)

var (
	ErrMissingFields = errors.New("missing required fields")
	ErrInvalidEmail  = errors.New("invalid email address")
	ErrNotConfigured = errors.New("mail relay not configured")
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Contact is a contact form submission.
type Contact struct {
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email" binding:"required"`
	Message string `json:"message" binding:"required"`
}

// Validate checks that every field is present and the address looks valid.
func (c Contact) Validate() error {
	if strings.TrimSpace(c.Name) == "" || strings.TrimSpace(c.Email) == "" || strings.TrimSpace(c.Message) == "" {
		return ErrMissingFields
	}
	if !emailPattern.MatchString(c.Email) {
		return ErrInvalidEmail
	}
	return nil
}

// Sender delivers a contact submission.
type Sender interface {
	Send(ctx context.Context, c Contact) error
}

// Link is a social link shown in the acknowledgement footer.
type Link struct {
	Label string `yaml:"label"`
	URL   string `yaml:"url"`
}

// Config describes the relay and the site owner.
type Config struct {
	Host      string        `yaml:"host"`
	Port      int           `yaml:"port"`
	Username  string        `yaml:"username"`
	Password  string        `yaml:"password"`
	Recipient string        `yaml:"recipient"`
	OwnerName string        `yaml:"owner_name"`
	Links     []Link        `yaml:"links"`
	Timeout   time.Duration `yaml:"timeout"`
}

// Envelope is a rendered message before it is handed to the relay.
type Envelope struct {
	FromName string
	From     string
	To       string
	ReplyTo  string
	Subject  string
	Text     string
	HTML     string
}

type transport interface {
	DialAndSendWithContext(ctx context.Context, msgs ...*mail.Msg) error
	DialWithContext(ctx context.Context) error
	Close() error
}

// Mailer sends through go-mail over STARTTLS.
type Mailer struct {
	cfg    Config
	client transport
	logger *slog.Logger
}

// New builds a Mailer for cfg. The relay is not contacted.
func New(cfg Config, logger *slog.Logger) (*Mailer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Host == "" || cfg.Recipient == "" || cfg.Username == "" {
		return nil, ErrNotConfigured
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}

	client, err := mail.NewClient(cfg.Host,
		mail.WithPort(cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.Username),
		mail.WithPassword(cfg.Password),
		mail.WithTLSPolicy(mail.TLSMandatory),
		mail.WithTLSConfig(&tls.Config{ServerName: cfg.Host, MinVersion: tls.VersionTLS12}),
		mail.WithTimeout(cfg.Timeout),
	)
	if err != nil {
		return nil, fmt.Errorf("mail client: %w", err)
	}
	return &Mailer{cfg: cfg, client: client, logger: logger}, nil
}

// Verify dials the relay once and reports whether it accepts connections.
func (m *Mailer) Verify(ctx context.Context) error {
	if err := m.client.DialWithContext(ctx); err != nil {
		m.logger.Error("SMTP connection error", slog.String("host", m.cfg.Host), slog.String("error", err.Error()))
		return fmt.Errorf("dial relay: %w", err)
	}
	_ = m.client.Close()
	m.logger.Info("SMTP relay ready", slog.String("host", m.cfg.Host))
	return nil
}

// Send delivers the owner notification and the sender acknowledgement in one
// relay session. Nothing is retried.
func (m *Mailer) Send(ctx context.Context, c Contact) error {
	if err := c.Validate(); err != nil {
		return err
	}
	envs, err := m.Render(c)
	if err != nil {
		return err
	}

	msgs := make([]*mail.Msg, 0, len(envs))
	for _, e := range envs {
		msg, err := toMsg(e)
		if err != nil {
			return err
		}
		msgs = append(msgs, msg)
	}
	if err := m.client.DialAndSendWithContext(ctx, msgs...); err != nil {
		return fmt.Errorf("send contact email: %w", err)
	}
	return nil
}

// Render builds the notification and acknowledgement envelopes.
func (m *Mailer) Render(c Contact) ([]Envelope, error) {
	var notification bytes.Buffer
	if err := notificationTmpl.Execute(&notification, c); err != nil {
		return nil, fmt.Errorf("render notification: %w", err)
	}

	owner := m.cfg.OwnerName
	var ack bytes.Buffer
	err := acknowledgementTmpl.Execute(&ack, struct {
		Contact Contact
		Owner   string
		Links   []Link
	}{c, owner, m.cfg.Links})
	if err != nil {
		return nil, fmt.Errorf("render acknowledgement: %w", err)
	}

	return []Envelope{
		{
			From:    m.cfg.Username,
			To:      m.cfg.Recipient,
			ReplyTo: fmt.Sprintf("%q <%s>", c.Name, c.Email),
			Subject: "New Contact Form Submission from " + c.Name,
			Text:    c.Message,
			HTML:    notification.String(),
		},
		{
			FromName: owner,
			From:     m.cfg.Username,
			To:       c.Email,
			Subject:  "Thank you for your message",
			Text:     fmt.Sprintf(acknowledgementText, c.Name, c.Message, owner),
			HTML:     ack.String(),
		},
	}, nil
}

func toMsg(e Envelope) (*mail.Msg, error) {
	msg := mail.NewMsg()
	var err error
	if e.FromName != "" {
		err = msg.FromFormat(e.FromName, e.From)
	} else {
		err = msg.From(e.From)
	}
	if err != nil {
		return nil, fmt.Errorf("from address: %w", err)
	}
	if err := msg.To(e.To); err != nil {
		return nil, fmt.Errorf("to address: %w", err)
	}
	if e.ReplyTo != "" {
		if err := msg.ReplyTo(e.ReplyTo); err != nil {
			return nil, fmt.Errorf("reply-to address: %w", err)
		}
	}
	msg.Subject(e.Subject)
	msg.SetBodyString(mail.TypeTextPlain, e.Text)
	msg.AddAlternativeString(mail.TypeTextHTML, e.HTML)
	return msg, nil
}
