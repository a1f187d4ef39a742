package notification

import (
	"bytes"
	"fmt"
	"html/template"
	"net/url"
)

var finishRegistrationTemplate = template.Must(template.New("finish_registration").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Termina tu registro</title>
</head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; margin: 0; padding: 0; background-color: #f5f5f5;">
<table role="presentation" style="width: 100%; border: 0;">
<tr><td style="padding: 40px 0; text-align: center;">
<table role="presentation" style="max-width: 480px; margin: 0 auto; background: #ffffff; border-radius: 8px;">
<tr><td style="padding: 32px 40px; text-align: center;">
<h1 style="margin: 0 0 16px; font-size: 24px; color: #00467f;">¡Pago recibido!</h1>
<p style="margin: 0 0 24px; color: #666; font-size: 15px; line-height: 1.5;">
{{if .Recurring}}Tu suscripción{{if .PlanName}} al plan <strong>{{.PlanName}}</strong>{{end}} de {{.ProductName}} está activa.{{else}}Recibimos tu pago{{if .PlanName}} del plan <strong>{{.PlanName}}</strong>{{end}} de {{.ProductName}}.{{end}}
Crea tu cuenta para empezar.
</p>
<a href="{{.RegisterURL}}" style="display: inline-block; padding: 12px 32px; background: #00467f; color: #ffffff; text-decoration: none; border-radius: 6px; font-size: 15px;">
Terminar registro
</a>
<p style="margin: 24px 0 0; color: #999; font-size: 13px;">
Adjuntamos el comprobante de tu pago.
</p>
</td></tr>
</table>
</td></tr>
</table>
</body>
</html>`))

// FinishRegistrationData datos de la plantilla de fin de registro.
type FinishRegistrationData struct {
	ProductName string
	PlanName    string
	RegisterURL string
	Recurring   bool
}

// RenderFinishRegistrationEmail devuelve el cuerpo HTML y texto del email.
func RenderFinishRegistrationEmail(data FinishRegistrationData) (html, text string, err error) {
	var buf bytes.Buffer
	if err := finishRegistrationTemplate.Execute(&buf, data); err != nil {
		return "", "", fmt.Errorf("render plantilla de registro: %w", err)
	}
	var summary string
	if data.Recurring {
		summary = "Tu suscripción"
		if data.PlanName != "" {
			summary += " al plan " + data.PlanName
		}
		summary += " de " + data.ProductName + " está activa."
	} else {
		summary = "Recibimos tu pago"
		if data.PlanName != "" {
			summary += " del plan " + data.PlanName
		}
		summary += " de " + data.ProductName + "."
	}
	text = fmt.Sprintf("¡Pago recibido!\n\n%s\nTermina tu registro aquí: %s\n", summary, data.RegisterURL)
	return buf.String(), text, nil
}

// registerLink agrega email y plan como parámetros de la URL de registro.
func registerLink(base, email, planName string) string {
	u, err := url.Parse(base)
	if err != nil || base == "" {
		return base
	}
	q := u.Query()
	q.Set("email", email)
	if planName != "" {
		q.Set("plan", planName)
	}
	u.RawQuery = q.Encode()
	return u.String()
}
