package services

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"
)

type EmailService interface {
	SendTemporaryPassword(email, password string) error
}

type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
	log    *logrus.Entry
}

func NewSMTPMailer(host string, port int, username, password string, log *logrus.Entry) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   username,
		log:    log,
	}
}

func (m *SMTPMailer) SendTemporaryPassword(email, password string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", email)
	msg.SetHeader("Subject", "Your reading journal password")
	msg.SetBody("text/plain", fmt.Sprintf(
		"Your temporary password is %s\n\nSign in with it and choose a new password.", password,
	))

	if err := m.dialer.DialAndSend(msg); err != nil {
		m.log.WithError(err).WithField("email", email).Error("failed to send temporary password")
		return err
	}
	return nil
}
