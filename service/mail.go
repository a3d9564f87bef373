package service

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"
	"gopkg.in/gomail.v2"
)

// Mailer is the delivery collaborator. The flows only render a link
// and hand it over; opening sockets to the mail provider is the
// implementation's problem.
type Mailer interface {
	Send(to, subject, htmlBody string) error
}

// SMTPMailer delivers through the SMTP relay configured under the
// mail.* keys.
type SMTPMailer struct{}

func (SMTPMailer) Send(to, subject, htmlBody string) error {
	from := viper.GetString("mail.sender_address")
	if to == from {
		return errors.New("invalid email address")
	}

	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)

	d := gomail.NewDialer(
		viper.GetString("mail.host"),
		viper.GetInt("mail.port"),
		from,
		viper.GetString("mail.password"),
	)

	return d.DialAndSend(m)
}

func recoveryLink(path, token string) string {
	var s string
	if viper.GetBool("host.ssl.enabled") {
		s = "s"
	}

	return fmt.Sprintf("http%v://%v/%v?token=%v", s, viper.GetString("host.domain"), path, token)
}
