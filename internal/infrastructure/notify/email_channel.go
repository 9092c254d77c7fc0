package notify

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/jhoicas/Gestion-api/internal/application/inventory"
)

var _ inventory.NotificationChannel = (*EmailChannel)(nil)

// SMTPConfig servidor de salida y remitente.
type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// mailSender lo implementa *gomail.Dialer.
type mailSender interface {
	DialAndSend(m ...*gomail.Message) error
}

// EmailChannel envía la alerta por correo a los destinatarios configurados.
type EmailChannel struct {
	from   string
	sender mailSender
}

// NewEmailChannel construye el canal con un dialer SMTP de gomail.
func NewEmailChannel(cfg SMTPConfig) *EmailChannel {
	return &EmailChannel{
		from:   cfg.From,
		sender: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
	}
}

func (c *EmailChannel) Name() string { return "email" }

// Send sin destinatarios no hace nada.
func (c *EmailChannel) Send(ctx context.Context, n inventory.Notification) error {
	if len(n.To) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	m := gomail.NewMessage()
	m.SetHeader("From", c.from)
	m.SetHeader("To", n.To...)
	m.SetHeader("Subject", n.Subject)
	m.SetBody("text/plain", n.Body)
	if err := c.sender.DialAndSend(m); err != nil {
		return fmt.Errorf("smtp: %w", err)
	}
	return nil
}
