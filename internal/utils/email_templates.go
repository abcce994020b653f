package utils

import (
	"bytes"
	"html/template"

	"github.com/pkg/errors"
)

const layoutHTML = `{{define "layout"}}<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Title}}</title>
</head>
<body style="margin: 0; padding: 0; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Arial, sans-serif; background-color: #f5f5f5;">
    <table role="presentation" style="width: 100%; border-collapse: collapse; background-color: #f5f5f5;">
        <tr>
            <td style="padding: 40px 20px;">
                <table role="presentation" style="max-width: 600px; margin: 0 auto; background-color: #ffffff; border-radius: 12px;">
                    <tr>
                        <td style="background-color: #c0392b; padding: 40px 30px; text-align: center; border-radius: 12px 12px 0 0;">
                            <h1 style="margin: 0; color: #ffffff; font-size: 28px;">Pizzeria</h1>
                            <p style="margin: 10px 0 0 0; color: #ffffff; font-size: 16px;">{{.Title}}</p>
                        </td>
                    </tr>
                    <tr>
                        <td style="padding: 30px; color: #333333; font-size: 16px; line-height: 1.6;">
                            <p>Hello {{.Name}},</p>
                            {{template "content" .}}
                        </td>
                    </tr>
                </table>
            </td>
        </tr>
    </table>
</body>
</html>{{end}}`

const verificationHTML = `{{define "content"}}
<p>Thanks for signing up. Please confirm your e-mail address to start ordering.</p>
<p style="text-align: center;"><a href="{{.Link}}" style="display: inline-block; padding: 14px 32px; background-color: #c0392b; color: #ffffff; text-decoration: none; border-radius: 8px;">Verify my account</a></p>
<p style="color: #777777; font-size: 13px;">This link expires in 24 hours.</p>
{{end}}`

const passwordResetHTML = `{{define "content"}}
<p>We received a request to reset your password.</p>
<p style="text-align: center;"><a href="{{.Link}}" style="display: inline-block; padding: 14px 32px; background-color: #c0392b; color: #ffffff; text-decoration: none; border-radius: 8px;">Choose a new password</a></p>
<p style="color: #777777; font-size: 13px;">This link expires in one hour. If you did not ask for it, ignore this message.</p>
{{end}}`

const orderStatusHTML = `{{define "content"}}
<p>{{.Message}}</p>
<p style="text-align: center;"><span style="display: inline-block; padding: 12px 24px; background-color: {{.Color}}; color: #ffffff; border-radius: 25px; font-weight: 600;">{{.Status}}</span></p>
<p style="color: #777777; font-size: 13px;">Order reference: {{.OrderID}}</p>
{{end}}`

var (
	verificationTmpl  = template.Must(template.Must(template.New("verification").Parse(layoutHTML)).Parse(verificationHTML))
	passwordResetTmpl = template.Must(template.Must(template.New("reset").Parse(layoutHTML)).Parse(passwordResetHTML))
	orderStatusTmpl   = template.Must(template.Must(template.New("status").Parse(layoutHTML)).Parse(orderStatusHTML))
)

type linkEmail struct {
	Title string
	Name  string
	Link  string
}

type statusEmail struct {
	Title   string
	Name    string
	Message string
	Status  string
	Color   string
	OrderID string
}

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return "", errors.Wrapf(err, "failed to render %s e-mail", t.Name())
	}
	return buf.String(), nil
}

func RenderVerificationEmail(name, link string) (string, error) {
	return render(verificationTmpl, linkEmail{Title: "Confirm your account", Name: name, Link: link})
}

func RenderPasswordResetEmail(name, link string) (string, error) {
	return render(passwordResetTmpl, linkEmail{Title: "Reset your password", Name: name, Link: link})
}
