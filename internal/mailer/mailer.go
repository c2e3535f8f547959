// Package mailer sends account emails over SMTP. Sends happen on a
// background goroutine and failures are logged, never surfaced: losing
// a welcome email must not fail a registration.
package mailer

import (
	"bytes"
	"fmt"
	"log"
	"net/smtp"
	"text/template"
)

var welcomeTmpl = template.Must(template.New("welcome").Parse(
	`Subject: Welcome to Flowbuilder
From: {{.From}}
To: {{.To}}

Hi {{.Username}},

Your instructor account is ready. Build your pose library, put together
your first sequence, and publish your profile at {{.BaseURL}}/share.

The Flowbuilder team
`))

var banTmpl = template.Must(template.New("ban").Parse(
	`Subject: Your Flowbuilder account has been suspended
From: {{.From}}
To: {{.To}}

Hi {{.Username}},

Your account and public profile have been suspended by a moderator.
Reply to this email if you believe this is a mistake.

The Flowbuilder team
`))

type mailData struct {
	From     string
	To       string
	Username string
	BaseURL  string
}

// Mailer sends templated emails via a plain SMTP relay. A Mailer with
// an empty address is disabled and drops every send.
type Mailer struct {
	addr    string // host:port of the relay; empty disables sending
	from    string
	baseURL string
}

func New(addr, from, baseURL string) *Mailer {
	return &Mailer{addr: addr, from: from, baseURL: baseURL}
}

// SendWelcome mails a new instructor. Non-blocking.
func (m *Mailer) SendWelcome(email, username string) {
	m.send(welcomeTmpl, email, username)
}

// SendBanNotice mails a suspended instructor. Non-blocking.
func (m *Mailer) SendBanNotice(email, username string) {
	m.send(banTmpl, email, username)
}

func (m *Mailer) send(tmpl *template.Template, email, username string) {
	if m.addr == "" {
		return
	}
	go func() {
		var body bytes.Buffer
		err := tmpl.Execute(&body, mailData{
			From:     m.from,
			To:       email,
			Username: username,
			BaseURL:  m.baseURL,
		})
		if err != nil {
			log.Printf("mail template error: %v", err)
			return
		}
		if err := smtp.SendMail(m.addr, nil, m.from, []string{email}, body.Bytes()); err != nil {
			log.Printf("mail send error to %s: %v", email, err)
		}
	}()
}

// Render returns the rendered body without sending, for tests.
func Render(kind, from, to, username, baseURL string) (string, error) {
	tmpl := welcomeTmpl
	if kind == "ban" {
		tmpl = banTmpl
	}
	var body bytes.Buffer
	err := tmpl.Execute(&body, mailData{From: from, To: to, Username: username, BaseURL: baseURL})
	if err != nil {
		return "", fmt.Errorf("render %s: %w", kind, err)
	}
	return body.String(), nil
}
