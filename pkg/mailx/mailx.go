// Package mailx delivers HTML email over SMTP.
//
// A Mailer opens a new connection per Send. For batches, OpenBatch dials once
// and returns a Batch whose Send reuses that connection until Close, which is
// what keeps large invitation runs from paying connection setup per message.
package mailx

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/wneessen/go-mail"
	"golang.org/x/net/idna"

	"github.com/aussiebroadwan/signup/pkg/slogx"
)

// ErrBatchClosed is returned by Batch.Send after Close.
var ErrBatchClosed = errors.New("mailx: batch is closed")

// Config describes the SMTP relay and sender identity.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	UseTLS   bool // STARTTLS
	UseSSL   bool // implicit TLS

	SenderName    string
	SenderAddress string

	// MaxEmails caps the messages sent over one connection before a batch
	// reconnects. Zero means no limit.
	MaxEmails int

	Timeout time.Duration
}

// Message is a single HTML email.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Batch sends many messages over one connection.
type Batch interface {
	Send(ctx context.Context, msg Message) error
	Close() error
}

// conn is the part of *mail.Client a Mailer uses.
type conn interface {
	DialWithContext(ctx context.Context) error
	Send(messages ...*mail.Msg) error
	Close() error
}

// Mailer sends email through one SMTP relay.
type Mailer struct {
	cfg     Config
	newConn func() (conn, error)
}

// New validates cfg and returns a Mailer.
func New(cfg Config) (*Mailer, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("mailx: host is required")
	}
	if cfg.SenderAddress == "" {
		return nil, fmt.Errorf("mailx: sender address is required")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	m := &Mailer{cfg: cfg}
	m.newConn = m.newSMTPClient
	return m, nil
}

func (m *Mailer) newSMTPClient() (conn, error) {
	opts := []mail.Option{
		mail.WithPort(m.cfg.Port),
		mail.WithTimeout(m.cfg.Timeout),
	}

	switch {
	case m.cfg.UseSSL:
		opts = append(opts, mail.WithSSL())
	case m.cfg.UseTLS:
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	default:
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	}

	if m.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(m.cfg.Username),
			mail.WithPassword(m.cfg.Password),
		)
	}

	client, err := mail.NewClient(m.cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("mailx: create client: %w", err)
	}
	return client, nil
}

// Send delivers a single message on its own connection.
func (m *Mailer) Send(ctx context.Context, msg Message) error {
	batch, err := m.OpenBatch(ctx)
	if err != nil {
		return err
	}

	if err := batch.Send(ctx, msg); err != nil {
		_ = batch.Close()
		return err
	}
	return batch.Close()
}

// OpenBatch dials the relay and returns a Batch bound to that connection.
func (m *Mailer) OpenBatch(ctx context.Context) (Batch, error) {
	b := &smtpBatch{mailer: m}
	if err := b.dial(ctx); err != nil {
		return nil, err
	}
	return b, nil
}

// build converts a Message into a go-mail message with the sender applied.
func (m *Mailer) build(msg Message) (*mail.Msg, error) {
	out := mail.NewMsg()

	var err error
	if m.cfg.SenderName != "" {
		err = out.FromFormat(m.cfg.SenderName, m.cfg.SenderAddress)
	} else {
		err = out.From(m.cfg.SenderAddress)
	}
	if err != nil {
		return nil, fmt.Errorf("mailx: invalid sender: %w", err)
	}

	if err := out.To(asciiDomain(msg.To)); err != nil {
		return nil, fmt.Errorf("mailx: invalid recipient %q: %w", msg.To, err)
	}
	out.Subject(msg.Subject)
	out.SetBodyString(mail.TypeTextHTML, msg.HTML)

	return out, nil
}

// asciiDomain rewrites an internationalised domain to its punycode form so the
// envelope is accepted by relays without SMTPUTF8. The address is returned
// unchanged when the domain cannot be converted.
func asciiDomain(addr string) string {
	at := strings.LastIndexByte(addr, '@')
	if at < 0 {
		return addr
	}
	domain, err := idna.Lookup.ToASCII(addr[at+1:])
	if err != nil {
		return addr
	}
	return addr[:at+1] + domain
}

type smtpBatch struct {
	mailer *Mailer
	conn   conn
	sent   int
	closed bool
}

func (b *smtpBatch) dial(ctx context.Context) error {
	c, err := b.mailer.newConn()
	if err != nil {
		return err
	}
	if err := c.DialWithContext(ctx); err != nil {
		return fmt.Errorf("mailx: dial %s:%d: %w", b.mailer.cfg.Host, b.mailer.cfg.Port, err)
	}
	b.conn = c
	b.sent = 0
	return nil
}

// Send delivers msg over the batch connection, reconnecting first when the
// per-connection limit has been reached.
func (b *smtpBatch) Send(ctx context.Context, msg Message) error {
	if b.closed {
		return ErrBatchClosed
	}

	if limit := b.mailer.cfg.MaxEmails; limit > 0 && b.sent >= limit {
		if err := b.conn.Close(); err != nil {
			slogx.FromContext(ctx).Warn("failed to close SMTP connection", slog.Any("error", err))
		}
		if err := b.dial(ctx); err != nil {
			return err
		}
	}

	out, err := b.mailer.build(msg)
	if err != nil {
		return err
	}

	if err := b.conn.Send(out); err != nil {
		return fmt.Errorf("mailx: send to %s: %w", msg.To, err)
	}
	b.sent++

	slogx.FromContext(ctx).Debug("sent email",
		slog.String("to", msg.To),
		slog.String("subject", msg.Subject),
	)
	return nil
}

// Close closes the underlying connection. It is safe to call more than once.
func (b *smtpBatch) Close() error {
	if b.closed {
		return nil
	}
	b.closed = true
	return b.conn.Close()
}
