package mail

import (
	"bytes"
	"errors"
	"fmt"
	"net/smtp"

	"github.com/jordan-wright/email"
)

var ErrNoRecipient = errors.New("email has no recipient")

const (
	DefaultSMTPHost = "smtp.gmail.com"
	DefaultSMTPPort = 587
)

// Attachment 以記憶體內容附加的檔案
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

type EmailSender interface {
	SendEmail(
		subject string,
		content string,
		to []string,
		cc []string,
		bcc []string,
		attachments []Attachment,
	) error
}

type SMTPSender struct {
	name              string
	fromEmailAddress  string
	fromEmailPassword string
	host              string
	port              int
}

// NewGmailSender 使用 gmail smtp
func NewGmailSender(name, fromEmailAddress, fromEmailPassword string) *SMTPSender {
	return NewSMTPSender(name, fromEmailAddress, fromEmailPassword, DefaultSMTPHost, DefaultSMTPPort)
}

func NewSMTPSender(name, fromEmailAddress, fromEmailPassword, host string, port int) *SMTPSender {
	if host == "" {
		host = DefaultSMTPHost
	}
	if port == 0 {
		port = DefaultSMTPPort
	}
	return &SMTPSender{
		name:              name,
		fromEmailAddress:  fromEmailAddress,
		fromEmailPassword: fromEmailPassword,
		host:              host,
		port:              port,
	}
}

func (sender *SMTPSender) SendEmail(
	subject string,
	content string,
	to []string,
	cc []string,
	bcc []string,
	attachments []Attachment,
) error {
	e, err := sender.buildEmail(subject, content, to, cc, bcc, attachments)
	if err != nil {
		return err
	}

	smtpAuth := smtp.PlainAuth("", sender.fromEmailAddress, sender.fromEmailPassword, sender.host)
	return e.Send(fmt.Sprintf("%s:%d", sender.host, sender.port), smtpAuth)
}

func (sender *SMTPSender) buildEmail(
	subject string,
	content string,
	to []string,
	cc []string,
	bcc []string,
	attachments []Attachment,
) (*email.Email, error) {
	if len(to) == 0 {
		return nil, ErrNoRecipient
	}

	e := email.NewEmail()
	e.From = fmt.Sprintf("%s <%s>", sender.name, sender.fromEmailAddress)
	e.Subject = subject
	e.HTML = []byte(content)
	e.To = to
	e.Cc = cc
	e.Bcc = bcc

	for _, a := range attachments {
		if _, err := e.Attach(bytes.NewReader(a.Data), a.Filename, a.ContentType); err != nil {
			return nil, fmt.Errorf("failed to attach file %s: %w", a.Filename, err)
		}
	}
	return e, nil
}

var _ EmailSender = (*SMTPSender)(nil)
