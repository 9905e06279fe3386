package mail

import (
	"fmt"
	"log"
	"net/smtp"
)

// Sender delivers a verification code to an email address.
type Sender interface {
	SendVerificationCode(to, code string) error
}

// SMTPSender sends codes over plain SMTP with AUTH.
type SMTPSender struct {
	Host string // SMTP host, e.g. smtp.gmail.com
	Port string // SMTP port, e.g. 587
	From string // sender address, also used as the AUTH user
	Pass string // password or app password for the sender
}

// SendVerificationCode mails a short plain-text message carrying
// the code.
func (s *SMTPSender) SendVerificationCode(to, code string) error {
	auth := smtp.PlainAuth("", s.From, s.Pass, s.Host)
	msg := []byte(fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: Verify your account\r\n\r\nYour verification code is %s.  It expires in 15 minutes.\r\n",
		s.From, to, code,
	))
	return smtp.SendMail(s.Host+":"+s.Port, auth, s.From, []string{to}, msg)
}

// LogSender writes codes to the application log instead of sending
// email.  Used when SMTP is not configured, e.g. in development.
type LogSender struct{}

// SendVerificationCode logs the code for manual pickup.
func (LogSender) SendVerificationCode(to, code string) error {
	log.Printf("📧 verification code for %s: %s", to, code)
	return nil
}
