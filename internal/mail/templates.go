package mail

import (
	"bytes"
	"fmt"
	"html/template"
	"time"
)

// templateData はメールテンプレートに渡す値です。
type templateData struct {
	SiteName string
	Name     string
	Code     string
	Minutes  int
	Link     string
	Year     int
}

var (
	verificationTmpl = template.Must(template.New("verification").Parse(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: auto; padding: 20px;">
  <h2>Welcome to {{.SiteName}}</h2>
  <p>Hello <strong>{{.Name}}</strong>,</p>
  <p>Use the code below to verify your email address:</p>
  <p style="font-size: 22px; font-weight: bold; letter-spacing: 3px;">{{.Code}}</p>
  <p>This code expires in {{.Minutes}} minutes. If you did not sign up, you can ignore this email.</p>
</div>`))

	welcomeTmpl = template.Must(template.New("welcome").Parse(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: auto; padding: 20px;">
  <h1>Welcome to {{.SiteName}}!</h1>
  <p>Hey {{if .Name}}{{.Name}}{{else}}there{{end}},</p>
  <p>Your email has been verified. You now have access to every feature.</p>
  <p><a href="{{.Link}}">Go to Dashboard</a></p>
  <p style="font-size: 12px; color: #888;">&copy; {{.Year}} {{.SiteName}}</p>
</div>`))

	resetTmpl = template.Must(template.New("reset").Parse(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: auto; padding: 20px;">
  <h2>Forgot your password?</h2>
  <p>Hi <b>{{if .Name}}{{.Name}}{{else}}there{{end}}</b>,</p>
  <p>Click the button below to choose a new password:</p>
  <p><a href="{{.Link}}">Reset Password</a></p>
  <p>This link expires in <b>{{.Minutes}} minutes</b>. If you did not request it, ignore this email.</p>
</div>`))

	resetSuccessTmpl = template.Must(template.New("reset-success").Parse(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: auto; padding: 20px;">
  <h2>Password Reset Confirmation</h2>
  <p>Hello {{if .Name}}{{.Name}}{{else}}User{{end}},</p>
  <p>Your password has been reset. You can now log in with your new password.</p>
  <p><a href="{{.Link}}">Login Now</a></p>
  <p style="font-size: 12px; color: #777;">If you did not make this change, contact support immediately.</p>
</div>`))
)

func render(t *template.Template, data templateData) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s template: %w", t.Name(), err)
	}
	return buf.String(), nil
}

func minutes(d time.Duration) int {
	return int(d.Round(time.Minute).Minutes())
}
