// internal/app/system/mailer/templates.go
package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/dalemusser/hackreg/internal/app/system/htmlsanitize"
)

// CodeEmailData holds data for verification code emails.
type CodeEmailData struct {
	SiteName  string // e.g. "Hackathon"
	TeamName  string
	Code      string
	ExpiresIn string // e.g. "10 minutes"
}

// BuildInvitationEmail is sent to each member when their team registers.
func BuildInvitationEmail(data CodeEmailData) Email {
	data = clean(data)
	return Email{
		Subject:  fmt.Sprintf("%s Team Invitation", data.SiteName),
		TextBody: buildCodeText(data, true),
		HTMLBody: htmlOrEmpty(data, true),
	}
}

// BuildResendEmail carries a replacement code.
func BuildResendEmail(data CodeEmailData) Email {
	data = clean(data)
	return Email{
		Subject:  fmt.Sprintf("%s Team Invitation - New OTP", data.SiteName),
		TextBody: buildCodeText(data, false),
		HTMLBody: htmlOrEmpty(data, false),
	}
}

// HumanDuration renders d as "10 minutes", "1 hour" or "90 seconds".
func HumanDuration(d time.Duration) string {
	switch {
	case d >= time.Hour && d%time.Hour == 0:
		return plural(int(d/time.Hour), "hour")
	case d >= time.Minute && d%time.Minute == 0:
		return plural(int(d/time.Minute), "minute")
	default:
		return plural(int(d/time.Second), "second")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

func clean(data CodeEmailData) CodeEmailData {
	data.TeamName = htmlsanitize.PlainText(data.TeamName)
	if data.SiteName == "" {
		data.SiteName = "Hackathon"
	}
	return data
}

func buildCodeText(data CodeEmailData, invite bool) string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s Team Invitation\n\n", data.SiteName)
	if invite {
		fmt.Fprintf(&buf, "You have been invited to join team %q for the %s.\n", data.TeamName, data.SiteName)
		fmt.Fprintf(&buf, "Your OTP for verification is: %s\n\n", data.Code)
	} else {
		fmt.Fprintf(&buf, "Your new OTP for verification is: %s\n\n", data.Code)
	}
	fmt.Fprintf(&buf, "This OTP will expire in %s.\n", data.ExpiresIn)
	return buf.String()
}

var codeHTML = template.Must(template.New("code").Parse(codeHTMLTemplate))

type codeHTMLData struct {
	CodeEmailData
	Invite bool
}

func buildCodeHTML(data CodeEmailData, invite bool) (string, error) {
	var buf bytes.Buffer
	if err := codeHTML.Execute(&buf, codeHTMLData{CodeEmailData: data, Invite: invite}); err != nil {
		return "", fmt.Errorf("render code email: %w", err)
	}
	return buf.String(), nil
}

// htmlOrEmpty renders the HTML part. On a render error the message goes
// out text-only.
func htmlOrEmpty(data CodeEmailData, invite bool) string {
	html, err := buildCodeHTML(data, invite)
	if err != nil {
		return ""
	}
	return html
}

const codeHTMLTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>{{.SiteName}} Team Invitation</title>
</head>
<body style="margin: 0; padding: 0; font-family: Arial, sans-serif; background-color: #f3f4f6;">
  <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="background-color: #f3f4f6;">
    <tr>
      <td align="center" style="padding: 40px 20px;">
        <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="max-width: 480px; background-color: #ffffff; border-radius: 8px;">
          <tr>
            <td style="padding: 32px 32px 16px; text-align: center; border-bottom: 1px solid #e5e7eb;">
              <h2 style="margin: 0; font-size: 22px; color: #4f46e5;">{{.SiteName}} Team Invitation</h2>
            </td>
          </tr>
          <tr>
            <td style="padding: 32px;">
              {{if .Invite}}
              <p style="margin: 0 0 16px; font-size: 16px; color: #374151;">
                You have been invited to join team "{{.TeamName}}" for the {{.SiteName}}.
              </p>
              <p style="margin: 0 0 16px; font-size: 16px; color: #374151;">Your OTP for verification is:</p>
              {{else}}
              <p style="margin: 0 0 16px; font-size: 16px; color: #374151;">Your new OTP for verification is:</p>
              {{end}}
              <div style="background-color: #f3f4f6; border-radius: 8px; padding: 24px; text-align: center; margin-bottom: 24px;">
                <strong style="font-size: 32px; letter-spacing: 8px; color: #1f2937; font-family: 'Courier New', monospace;">{{.Code}}</strong>
              </div>
              <p style="margin: 0; font-size: 13px; color: #9ca3af; text-align: center;">
                This OTP will expire in {{.ExpiresIn}}.
              </p>
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`
