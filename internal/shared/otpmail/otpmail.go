// Package otpmail renders the email that carries a one-time login code.
package otpmail

import (
	"bytes"
	"embed"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"
	"time"

	"github.com/shandysiswandi/passwordless/internal/pkg/mail"
)

//go:embed templates/*
var templates embed.FS

var (
	htmlTmpl = htmltemplate.Must(htmltemplate.ParseFS(templates, "templates/otp.html"))
	textTmpl = texttemplate.Must(texttemplate.ParseFS(templates, "templates/otp.txt"))
)

// Data is the template input.
type Data struct {
	AppName   string
	Email     string
	Code      string
	ExpiresAt time.Time
	// ValidFor is rendered in whole minutes.
	ValidFor time.Duration
}

// Minutes returns ValidFor rounded up to whole minutes, at least 1.
func (d Data) Minutes() int {
	m := int((d.ValidFor + time.Minute - 1) / time.Minute)
	return max(m, 1)
}

// Render builds the mail message for d.
func Render(from string, d Data) (mail.Message, error) {
	if strings.TrimSpace(d.AppName) == "" {
		d.AppName = "Passwordless"
	}

	var html, text bytes.Buffer
	if err := htmlTmpl.Execute(&html, d); err != nil {
		return mail.Message{}, err
	}
	if err := textTmpl.Execute(&text, d); err != nil {
		return mail.Message{}, err
	}

	return mail.Message{
		From:     from,
		To:       []string{d.Email},
		Subject:  "Your " + d.AppName + " login code",
		TextBody: text.String(),
		HTMLBody: html.String(),
	}, nil
}
