package mailer

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

type verificationData struct {
	ProjectName string
	Email       string
	Link        string
}

// VerificationMessage renders the account verification email for to. link is
// the complete verification URL including the token.
func VerificationMessage(projectName, to, link string) (Message, error) {
	var buf bytes.Buffer
	err := templates.ExecuteTemplate(&buf, "verification_email.html", verificationData{
		ProjectName: projectName,
		Email:       to,
		Link:        link,
	})
	if err != nil {
		return Message{}, fmt.Errorf("render verification email: %w", err)
	}
	return Message{
		To:       to,
		Subject:  "Email Verification for " + projectName,
		HTMLBody: buf.String(),
	}, nil
}
