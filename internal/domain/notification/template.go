package notification

import (
	"fmt"
	"strings"
	"sync"
)

// Template ids used by the appointment workflow.
const (
	TemplateRequestSent    = "request-sent"
	TemplateNewRequest     = "new-request"
	TemplateConfirmed      = "appointment-confirmed"
	TemplateDeclined       = "appointment-declined"
	TemplateConsultDone    = "consultation-completed"
	TemplateRatingReceived = "rating-received"
)

// Template is a reusable notification with {{key}} placeholders.
type Template struct {
	ID      string
	Title   string
	Message string
	Type    string
}

// Templates holds the message templates by id.
type Templates struct {
	mu        sync.RWMutex
	templates map[string]Template
}

func NewTemplates() *Templates {
	t := &Templates{templates: make(map[string]Template)}
	for _, tpl := range []Template{
		{ID: TemplateRequestSent, Title: "Request Sent", Message: "Appointment request sent to {{doctor}}", Type: TypeInfo},
		{ID: TemplateNewRequest, Title: "New Appointment Request", Message: "{{patient}} requested a {{mode}} consultation on {{date}} at {{time}}.", Type: TypeReminder},
		{ID: TemplateConfirmed, Title: "Appointment Confirmed", Message: "{{doctor}} accepted your appointment on {{date}} at {{time}}.", Type: TypeInfo},
		{ID: TemplateDeclined, Title: "Appointment Declined", Message: "{{doctor}} is unable to see you on {{date}} at {{time}}. Please book another slot.", Type: TypeAlert},
		{ID: TemplateConsultDone, Title: "Prescription Ready", Message: "{{doctor}} completed your consultation. Diagnosis: {{diagnosis}}.", Type: TypeInfo},
		{ID: TemplateRatingReceived, Title: "New Rating", Message: "A patient rated your consultation {{rating}}/5.", Type: TypeInfo},
	} {
		t.templates[tpl.ID] = tpl
	}
	return t
}

// Register adds or replaces a template.
func (t *Templates) Register(tpl Template) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.templates[tpl.ID] = tpl
}

// Render fills the template's placeholders from data. Unknown keys are left
// as-is.
func (t *Templates) Render(id string, data map[string]string) (title, message, typ string, err error) {
	t.mu.RLock()
	tpl, ok := t.templates[id]
	t.mu.RUnlock()
	if !ok {
		return "", "", "", fmt.Errorf("template %q not found", id)
	}

	title, message = tpl.Title, tpl.Message
	for k, v := range data {
		placeholder := "{{" + k + "}}"
		title = strings.ReplaceAll(title, placeholder, v)
		message = strings.ReplaceAll(message, placeholder, v)
	}
	return title, message, tpl.Type, nil
}
