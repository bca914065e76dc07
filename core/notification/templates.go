package notification

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// DisplayDateFormat is the date format used in messages to parents.
const DisplayDateFormat = "02/01/2006"

// Template variables
const (
	VarStudentName  = "studentName"
	VarDate         = "date"
	VarPeriod       = "period"
	VarAbsenceCount = "absenceCount"
)

var ErrTemplateNotFound = errors.New("email template not found")

// Template is an editable message model. Subject and Body hold `{variable}` tokens.
type Template struct {
	Kind    Kind   `json:"kind"`
	Name    string `json:"name" validate:"required,notblank"`
	Subject string `json:"subject" validate:"required,notblank"`
	Body    string `json:"body" validate:"required,notblank"`
}

type TemplateRepository interface {
	QueryAllTemplates(ctx context.Context) ([]Template, error)
	SaveTemplate(ctx context.Context, tpl Template) error
}

// Vars holds template variable values, by name.
type Vars map[string]string

// DefaultVars returns the variables every message can use.
func DefaultVars(studentName string, today time.Time) Vars {
	return Vars{
		VarStudentName:  studentName,
		VarDate:         today.Format(DisplayDateFormat),
		VarPeriod:       "",
		VarAbsenceCount: "0",
	}
}

// With returns a copy of v overridden by other.
func (v Vars) With(other Vars) Vars {
	merged := make(Vars, len(v)+len(other))
	for k, val := range v {
		merged[k] = val
	}
	for k, val := range other {
		merged[k] = val
	}
	return merged
}

// Render substitutes every `{name}` token with its value; unknown tokens are left as is.
func (tpl Template) Render(vars Vars) (subject, body string) {
	pairs := make([]string, 0, 2*len(vars))
	for k, val := range vars {
		pairs = append(pairs, "{"+k+"}", val)
	}
	r := strings.NewReplacer(pairs...)
	return r.Replace(tpl.Subject), r.Replace(tpl.Body)
}

// DefaultTemplates returns the built-in template of every kind.
func DefaultTemplates() []Template {
	return []Template{
		{
			Kind:    KindAbsence,
			Name:    "Absence du jour",
			Subject: "Absence non justifiée - {studentName}",
			Body: `Bonjour,

Nous vous informons que votre enfant {studentName} était absent(e) le {date} {period}.

Nous vous remercions de bien vouloir justifier cette absence dans les plus brefs délais.

Cordialement,
L'équipe pédagogique`,
		},
		{
			Kind:    KindAlert,
			Name:    "Alerte seuil dépassé",
			Subject: "ALERTE - Absences répétées de {studentName}",
			Body: `Bonjour,

Nous attirons votre attention sur le fait que votre enfant {studentName} a accumulé {absenceCount} demi-jours d'absences injustifiées.

Ce nombre dépasse le seuil d'alerte fixé par l'établissement. Nous vous demandons de prendre contact avec nous rapidement pour régulariser cette situation.

Une rencontre pourrait être nécessaire pour discuter de l'assiduité de votre enfant.

Cordialement,
La direction`,
		},
		{
			Kind:    KindReminder,
			Name:    "Rappel justification",
			Subject: "Rappel - Justification d'absence requise pour {studentName}",
			Body: `Bonjour,

Nous vous rappelons qu'une justification est encore attendue pour l'absence de votre enfant {studentName} du {date}.

Merci de nous faire parvenir le justificatif dans les meilleurs délais (certificat médical, mot d'excuse, etc.).

Cordialement,
Le secrétariat`,
		},
	}
}

// Templates holds one template per kind, starting from the defaults.
type Templates struct {
	mu     sync.RWMutex
	byKind map[Kind]Template
}

func NewTemplates() *Templates {
	t := &Templates{}
	t.Load()
	return t
}

// Load resets every kind to its default, then applies tpls.
func (t *Templates) Load(tpls ...Template) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.byKind = make(map[Kind]Template, len(Kinds))
	for _, tpl := range DefaultTemplates() {
		t.byKind[tpl.Kind] = tpl
	}
	for _, tpl := range tpls {
		if tpl.Kind.Valid() {
			t.byKind[tpl.Kind] = tpl
		}
	}
}

func (t *Templates) Get(kind Kind) (Template, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if tpl, ok := t.byKind[kind]; ok {
		return tpl, nil
	}
	return Template{}, ErrTemplateNotFound
}

// Set replaces the template of tpl.Kind.
func (t *Templates) Set(tpl Template) error {
	if !tpl.Kind.Valid() {
		return ErrInvalidKind
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.byKind[tpl.Kind] = tpl
	return nil
}

// All returns the templates ordered by kind as in Kinds.
func (t *Templates) All() []Template {
	t.mu.RLock()
	defer t.mu.RUnlock()

	tpls := make([]Template, 0, len(t.byKind))
	for _, kind := range Kinds {
		if tpl, ok := t.byKind[kind]; ok {
			tpls = append(tpls, tpl)
		}
	}
	return tpls
}
