package mailer

import (
	"bytes"
	"context"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"
)

// templateData feeds every transactional template.
type templateData struct {
	Name string
	Link string
	Role string
}

type emailTemplate struct {
	subject string
	text    *texttemplate.Template
	html    *htmltemplate.Template
}

var (
	invitationTemplate = emailTemplate{
		subject: "You're invited to Rentwise",
		text: texttemplate.Must(texttemplate.New("invite_text").Parse(
			"Hi {{if .Name}}{{.Name}}{{else}}there{{end}},\n\n" +
				"You have been invited to join Rentwise as {{.Role}}.\n" +
				"Set your password here: {{.Link}}\n\n" +
				"The link expires in 7 days.\n")),
		html: htmltemplate.Must(htmltemplate.New("invite_html").Parse(
			`<p>Hi {{if .Name}}{{.Name}}{{else}}there{{end}},</p>` +
				`<p>You have been invited to join Rentwise as <strong>{{.Role}}</strong>.</p>` +
				`<p><a href="{{.Link}}">Accept your invitation</a></p>` +
				`<p>The link expires in 7 days.</p>`)),
	}

	passwordResetTemplate = emailTemplate{
		subject: "Reset your Rentwise password",
		text: texttemplate.Must(texttemplate.New("reset_text").Parse(
			"Hi {{if .Name}}{{.Name}}{{else}}there{{end}},\n\n" +
				"Reset your password here: {{.Link}}\n\n" +
				"If you did not ask for this, ignore this email.\n")),
		html: htmltemplate.Must(htmltemplate.New("reset_html").Parse(
			`<p>Hi {{if .Name}}{{.Name}}{{else}}there{{end}},</p>` +
				`<p><a href="{{.Link}}">Reset your password</a></p>` +
				`<p>If you did not ask for this, ignore this email.</p>`)),
	}
)

func (t emailTemplate) render(to string, data templateData) (Message, error) {
	var text, html bytes.Buffer
	if err := t.text.Execute(&text, data); err != nil {
		return Message{}, fmt.Errorf("render %s: %w", t.text.Name(), err)
	}
	if err := t.html.Execute(&html, data); err != nil {
		return Message{}, fmt.Errorf("render %s: %w", t.html.Name(), err)
	}
	return Message{To: to, Subject: t.subject, Text: text.String(), HTML: html.String()}, nil
}

// SendInvitation emails an invite link to a newly invited user.
func (m *Mailer) SendInvitation(ctx context.Context, to, name, role, link string) error {
	msg, err := invitationTemplate.render(to, templateData{Name: name, Link: link, Role: role})
	if err != nil {
		return err
	}
	return m.Send(ctx, msg)
}

// SendPasswordReset emails a one-time reset link.
func (m *Mailer) SendPasswordReset(ctx context.Context, to, name, link string) error {
	msg, err := passwordResetTemplate.render(to, templateData{Name: name, Link: link})
	if err != nil {
		return err
	}
	return m.Send(ctx, msg)
}
