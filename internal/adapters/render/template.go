package render

import (
	"context"
	"fmt"
	"strings"
	"text/template"
)

var phrases = map[Kind]string{
	KindFirstContribution: `You haven't contributed yet. Your team is working on the project now!`,
	KindReEngage:          `It's been {{.days}} days since you last worked. The team might need your help!`,
	KindFairLoad:          `You've contributed {{.hours}} hours while the group average is {{.group_average}} hours. Consider taking on additional tasks?`,
	KindGoodWork:          `Great work! You've contributed {{.hours}} hours. Keep the momentum!`,
	KindDeadline:          `'{{.milestone}}' is due {{.due_date}}. Current status: {{.status}}`,
	KindAllGood:           `You're on track. Keep collaborating with your team.`,
	KindGroupAssessment: `{{.group}} is {{.status}} with a health score of {{.score}}. ` +
		`{{if .issues}}The group shows signs of imbalance that require attention: {{.issues}}` +
		`{{else}}The team is functioning well with balanced participation and good communication.{{end}}`,
	KindInstructorAlert: `Group {{.group}} requires attention due to: {{.issues}}`,
}

// TemplateRenderer is the deterministic renderer. It never blocks.
type TemplateRenderer struct {
	templates map[Kind]*template.Template
}

// NewTemplateRenderer parses every phrase template.
func NewTemplateRenderer() *TemplateRenderer {
	t := &TemplateRenderer{templates: make(map[Kind]*template.Template, len(phrases))}
	for kind, text := range phrases {
		t.templates[kind] = template.Must(template.New(string(kind)).Option("missingkey=error").Parse(text))
	}
	return t
}

// Render executes the template for kind. A missing parameter is an error.
func (t *TemplateRenderer) Render(_ context.Context, kind Kind, params Params) (string, error) {
	tmpl, ok := t.templates[kind]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
	var b strings.Builder
	if err := tmpl.Execute(&b, map[string]string(params)); err != nil {
		return "", fmt.Errorf("rendering %s: %w", kind, err)
	}
	return b.String(), nil
}
