package mailing

import (
	"strconv"

	"gopkg.in/gomail.v2"

	"Food-Rescue-Hub/internal/utils"
)

type MailConfig struct {
	AppURL       string
	SMTPHost     string
	SMTPPort     string
	SMTPSender   string
	SMTPEmail    string
	SMTPPassword string
	From         string
}

type (
	// Mailer delivers a single message. It is the transport behind the
	// notification sink and the volunteer form.
	Mailer interface {
		Send(to, subject, body, replyTo string) error
	}

	smtpMailer struct {
		config MailConfig
	}
)

func LoadMailConfig() MailConfig {
	email := utils.GetConfig("SMTP_AUTH_EMAIL")
	return MailConfig{
		AppURL:       utils.GetConfig("APP_URL"),
		SMTPHost:     utils.GetConfig("SMTP_HOST"),
		SMTPPort:     utils.GetConfigOr("SMTP_PORT", "587"),
		SMTPSender:   utils.GetConfig("SMTP_SENDER_NAME"),
		SMTPEmail:    email,
		SMTPPassword: utils.GetConfig("SMTP_AUTH_PASSWORD"),
		From:         utils.GetConfigOr("EMAIL_FROM", email),
	}
}

func NewMailer(config MailConfig) Mailer {
	return &smtpMailer{config: config}
}

func (m *smtpMailer) Send(to, subject, body, replyTo string) error {
	port, err := strconv.Atoi(m.config.SMTPPort)
	if err != nil {
		return err
	}

	message := gomail.NewMessage()
	if m.config.SMTPSender != "" {
		message.SetAddressHeader("From", m.config.From, m.config.SMTPSender)
	} else {
		message.SetHeader("From", m.config.From)
	}
	message.SetHeader("To", to)
	message.SetHeader("Subject", subject)
	if replyTo != "" {
		message.SetHeader("Reply-To", replyTo)
	}
	message.SetBody("text/plain", body)

	dialer := gomail.NewDialer(
		m.config.SMTPHost,
		port,
		m.config.SMTPEmail,
		m.config.SMTPPassword,
	)
	return dialer.DialAndSend(message)
}
