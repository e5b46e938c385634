// internal/pkg/email/templates.go
package email

import "html/template"

const layoutTemplate = `{{define "layout"}}<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>{{.SiteName}}</title>
</head>
<body style="font-family: Arial, sans-serif; margin: 0; padding: 20px; background-color: #f4f4f4;">
    <div style="max-width: 600px; margin: 0 auto; background-color: white; padding: 20px; border-radius: 8px;">
        <h1 style="color: #333;">{{.SiteName}}</h1>
        <p>Hello {{.UserName}},</p>
        {{template "body" .}}
        <p>Best regards,<br>{{.SiteName}} Team</p>
        <hr>
        <p style="font-size: 12px; color: #666;">&copy; {{.Year}} {{.SiteName}}. All rights reserved.</p>
    </div>
</body>
</html>{{end}}`

var bodies = map[EmailType]string{
	EmailTypeWelcome: `{{define "body"}}
        <p>Thanks for registering at {{.SiteName}}. Your account is ready.</p>
        <p><a href="{{.SiteURL}}">Start shopping</a></p>{{end}}`,

	EmailTypeTemporaryPassword: `{{define "body"}}
        <p>Your password was reset. Use this temporary password to sign in:</p>
        <p style="font-size: 18px;"><strong>{{.Password}}</strong></p>
        <p>Change it from your account page after signing in: <a href="{{.LoginURL}}">{{.LoginURL}}</a></p>{{end}}`,

	EmailTypeOrderConfirmation: `{{define "body"}}
        <p>Your order <strong>{{.OrderNumber}}</strong> from {{.OrderDate}} has been placed.</p>
        <table style="width: 100%; border-collapse: collapse;">
            {{range .Items}}<tr><td>{{.Name}}</td><td>{{.Seller}}</td><td>{{.Quantity}}</td><td>{{.Price}}</td></tr>{{end}}
        </table>
        <p>Total: <strong>{{.OrderTotal}}</strong></p>
        <p>Delivery: {{.Delivery}}, {{.City}}, {{.Address}}</p>
        <p>Payment: {{.PaymentMethod}}</p>
        <p><a href="{{.OrderURL}}">View order</a></p>{{end}}`,

	EmailTypePaymentSuccess: `{{define "body"}}
        <p>We received your payment of <strong>{{.Amount}}</strong> for order {{.OrderNumber}}.</p>
        <p>Transaction: {{.TransactionID}} ({{.Date}})</p>
        <p><a href="{{.OrderURL}}">View order</a></p>{{end}}`,

	EmailTypePaymentFailed: `{{define "body"}}
        <p>The payment of <strong>{{.Amount}}</strong> for order {{.OrderNumber}} did not go through.</p>
        {{if .Reason}}<p>Reason: {{.Reason}}</p>{{end}}
        <p>You can try again from <a href="{{.OrderURL}}">the order page</a>.</p>{{end}}`,
}

func parseTemplates() (map[EmailType]*template.Template, error) {
	templates := make(map[EmailType]*template.Template, len(bodies))
	for name, body := range bodies {
		tmpl, err := template.New(string(name)).Parse(layoutTemplate)
		if err != nil {
			return nil, err
		}
		if _, err := tmpl.Parse(body); err != nil {
			return nil, err
		}
		templates[name] = tmpl
	}
	return templates, nil
}
