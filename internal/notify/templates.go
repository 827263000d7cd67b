package notify

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/MOFOSGANG/HUAUDITIONS-2026/internal/application"
)

//go:embed templates/*.html
var templateFS embed.FS

var funcs = template.FuncMap{
	"join":       strings.Join,
	"date":       formatDate,
	"paragraphs": paragraphs,
}

// Branding is the program identity rendered into every email.
type Branding struct {
	Program   string
	PortalURL string
}

// Templates renders the email bodies.
type Templates struct {
	brand Branding
	set   map[Kind]*template.Template
}

type templateData struct {
	Program    string
	PortalURL  string
	Subject    string
	App        *application.Application
	Paragraphs []string
}

// NewTemplates parses the embedded templates.
func NewTemplates(brand Branding) (*Templates, error) {
	t := &Templates{brand: brand, set: make(map[Kind]*template.Template)}
	for _, k := range []Kind{KindConfirmation, KindAdminNotification, KindStatusUpdate, KindCustom} {
		tpl, err := template.New(string(k)).Funcs(funcs).ParseFS(templateFS,
			"templates/layout.html",
			"templates/"+string(k)+".html",
		)
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", k, err)
		}
		t.set[k] = tpl
	}
	return t, nil
}

func (t *Templates) render(kind Kind, data templateData) (string, error) {
	tpl, ok := t.set[kind]
	if !ok {
		return "", fmt.Errorf("no template for %s", kind)
	}
	data.Program = t.brand.Program
	data.PortalURL = t.brand.PortalURL
	var buf bytes.Buffer
	if err := tpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		return "", fmt.Errorf("render %s: %w", kind, err)
	}
	return buf.String(), nil
}

// Confirmation renders the applicant's receipt.
func (t *Templates) Confirmation(app *application.Application) (Message, error) {
	subject := fmt.Sprintf("Application received: %s", app.RefNumber)
	return t.message(KindConfirmation, app.Email, subject, app, nil)
}

// AdminNotification renders the program office's new-application alert.
func (t *Templates) AdminNotification(to string, app *application.Application) (Message, error) {
	subject := fmt.Sprintf("New audition application: %s (%s)", app.FullName, app.RefNumber)
	return t.message(KindAdminNotification, to, subject, app, nil)
}

// StatusUpdate renders the applicant's status-change email.
func (t *Templates) StatusUpdate(app *application.Application) (Message, error) {
	subject := fmt.Sprintf("Update on your audition application (%s)", app.RefNumber)
	return t.message(KindStatusUpdate, app.Email, subject, app, statusCopy(app.Status))
}

// Custom renders a free-form message from an admin.
func (t *Templates) Custom(app *application.Application, subject, body string) (Message, error) {
	return t.message(KindCustom, app.Email, subject, app, paragraphs(body))
}

func (t *Templates) message(kind Kind, to, subject string, app *application.Application, paras []string) (Message, error) {
	html, err := t.render(kind, templateData{Subject: subject, App: app, Paragraphs: paras})
	if err != nil {
		return Message{}, err
	}
	return Message{
		To:            to,
		Subject:       subject,
		HTML:          html,
		Kind:          kind,
		ApplicationID: app.ID,
	}, nil
}

func statusCopy(s application.Status) []string {
	switch s {
	case application.StatusAuditionScheduled:
		return []string{
			"Your audition has been scheduled. Please arrive 15 minutes early and bring anything you need for your performance.",
		}
	case application.StatusAccepted:
		return []string{
			"Congratulations! You have been accepted.",
			"We will be in touch shortly with details about next steps and rehearsals.",
		}
	case application.StatusWaitlisted:
		return []string{
			"You have been placed on our waitlist. We were impressed and will contact you if a place becomes available.",
		}
	case application.StatusNotSelected:
		return []string{
			"Thank you for auditioning. Unfortunately you have not been selected this time.",
			"We encourage you to keep developing your craft and to apply again in future.",
		}
	}
	return nil
}

// paragraphs splits text into its non-blank lines.
func paragraphs(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

func formatDate(v any) string {
	const layout = "Monday, 2 January 2006 at 15:04 MST"
	switch t := v.(type) {
	case time.Time:
		return t.Format(layout)
	case *time.Time:
		if t == nil {
			return ""
		}
		return t.Format(layout)
	}
	return ""
}
