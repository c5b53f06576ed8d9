package notify

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"text/template"
)

// Template names.
const (
	TemplateWelcome               = "welcome"
	TemplatePaymentSuccessful     = "payment_successful"
	TemplatePaymentFailed         = "payment_failed"
	TemplateDonationReceipt       = "donation_receipt"
	TemplateComplianceReminder    = "compliance_reminder"
	TemplateSubscriptionExpiring  = "subscription_expiring"
	TemplateSubscriptionActivated = "subscription_activated"
)

type messageTemplate struct {
	subject *template.Template
	body    *template.Template
	html    *htmltemplate.Template
}

// Rendered is a template expanded for one recipient.
type Rendered struct {
	Subject string
	Body    string
	HTML    string
}

var templateSources = map[string][3]string{
	TemplateWelcome: {
		`Welcome to Wathaci Connect, {{.Name}}`,
		`Hi {{.Name}}, your {{.AccountType}} account is ready. Complete your profile to unlock compliance tracking, funding matches and business diagnostics.`,
		`<p>Hi {{.Name}},</p><p>Your <strong>{{.AccountType}}</strong> account is ready. <a href="{{.AppURL}}/profile">Complete your profile</a> to unlock compliance tracking, funding matches and business diagnostics.</p>`,
	},
	TemplatePaymentSuccessful: {
		`Payment received: {{.Currency}} {{.Amount}}`,
		`Hi {{.Name}}, we received {{.Currency}} {{.Amount}} (ref {{.Reference}}). Thank you.`,
		`<p>Hi {{.Name}},</p><p>We received <strong>{{.Currency}} {{.Amount}}</strong> (reference {{.Reference}}). Thank you.</p>`,
	},
	TemplatePaymentFailed: {
		`Payment failed`,
		`Hi {{.Name}}, your payment of {{.Currency}} {{.Amount}} (ref {{.Reference}}) did not go through{{if .Reason}}: {{.Reason}}{{end}}. Please try again.`,
		`<p>Hi {{.Name}},</p><p>Your payment of {{.Currency}} {{.Amount}} (reference {{.Reference}}) did not go through{{if .Reason}}: {{.Reason}}{{end}}.</p><p><a href="{{.AppURL}}/billing">Try again</a></p>`,
	},
	TemplateDonationReceipt: {
		`Thank you for your donation`,
		`Thank you {{.Name}} for donating {{.Currency}} {{.Amount}} to Wathaci Connect{{if .Campaign}} ({{.Campaign}}){{end}}. Receipt ref {{.Reference}}.`,
		`<p>Thank you {{.Name}} for donating <strong>{{.Currency}} {{.Amount}}</strong> to Wathaci Connect{{if .Campaign}} ({{.Campaign}}){{end}}.</p><p>Receipt reference: {{.Reference}}</p>`,
	},
	TemplateComplianceReminder: {
		`Reminder: {{.Title}} is due {{.DueDate}}`,
		`Hi {{.Name}}, "{{.Title}}" is due on {{.DueDate}}. Mark it complete in Wathaci Connect once done.`,
		`<p>Hi {{.Name}},</p><p><strong>{{.Title}}</strong> is due on {{.DueDate}}.</p><p><a href="{{.AppURL}}/compliance">Open your compliance tracker</a></p>`,
	},
	TemplateSubscriptionExpiring: {
		`Your {{.Plan}} plan expires on {{.EndDate}}`,
		`Hi {{.Name}}, your {{.Plan}} plan expires on {{.EndDate}}. Renew to keep your premium features.`,
		`<p>Hi {{.Name}},</p><p>Your <strong>{{.Plan}}</strong> plan expires on {{.EndDate}}.</p><p><a href="{{.AppURL}}/billing">Renew now</a></p>`,
	},
	TemplateSubscriptionActivated: {
		`Your {{.Plan}} plan is active`,
		`Hi {{.Name}}, your {{.Plan}} plan is active until {{.EndDate}}.`,
		`<p>Hi {{.Name}},</p><p>Your <strong>{{.Plan}}</strong> plan is active until {{.EndDate}}.</p>`,
	},
}

// Data is the union of fields referenced by the templates.
type Data struct {
	Name        string
	AccountType string
	AppURL      string
	Currency    string
	Amount      string
	Reference   string
	Reason      string
	Campaign    string
	Title       string
	DueDate     string
	Plan        string
	EndDate     string
}

var templates = mustParseTemplates()

func mustParseTemplates() map[string]messageTemplate {
	out := make(map[string]messageTemplate, len(templateSources))
	for name, src := range templateSources {
		out[name] = messageTemplate{
			subject: template.Must(template.New(name + ".subject").Parse(src[0])),
			body:    template.Must(template.New(name + ".body").Parse(src[1])),
			html:    htmltemplate.Must(htmltemplate.New(name + ".html").Parse(src[2])),
		}
	}
	return out
}

// Known reports whether name is a registered template.
func Known(name string) bool {
	_, ok := templates[name]
	return ok
}

// Render expands the named template with data.
func Render(name string, data Data) (Rendered, error) {
	t, ok := templates[name]
	if !ok {
		return Rendered{}, fmt.Errorf("notify: unknown template %q", name)
	}
	var subject, body, html bytes.Buffer
	if err := t.subject.Execute(&subject, data); err != nil {
		return Rendered{}, fmt.Errorf("notify: render %s subject: %w", name, err)
	}
	if err := t.body.Execute(&body, data); err != nil {
		return Rendered{}, fmt.Errorf("notify: render %s body: %w", name, err)
	}
	if err := t.html.Execute(&html, data); err != nil {
		return Rendered{}, fmt.Errorf("notify: render %s html: %w", name, err)
	}
	return Rendered{Subject: subject.String(), Body: body.String(), HTML: html.String()}, nil
}
