package models

import (
	"strings"

	"github.com/escribo/planos-web/pkg/generation"
)

// PlanPlaceholder is shown for fields the generator left out
const PlanPlaceholder = "Não informado"

// GeneratorState is the submission state of the generator page
type GeneratorState string

const (
	StateIdle       GeneratorState = "idle"
	StateSubmitting GeneratorState = "submitting"
	StateSuccess    GeneratorState = "success"
	StateFailed     GeneratorState = "failed"
)

// LessonPlanView is a generated plan ready for display
type LessonPlanView struct {
	Title        string
	Introduction string
	Objective    string
	StepByStep   string
	Rubric       string
}

// NewLessonPlanView fills missing fields with the placeholder
func NewLessonPlanView(p *generation.Plan) *LessonPlanView {
	if p == nil {
		return nil
	}
	return &LessonPlanView{
		Title:        orPlaceholder(p.Title),
		Introduction: orPlaceholder(p.Introduction),
		Objective:    orPlaceholder(p.Objective),
		StepByStep:   orPlaceholder(p.StepByStep),
		Rubric:       orPlaceholder(p.Rubric),
	}
}

// StepLines splits a multi-line step-by-step into its non-blank lines. It
// returns nil for single-line text, which renders as a paragraph.
func (v *LessonPlanView) StepLines() []string {
	var lines []string
	for _, line := range strings.Split(v.StepByStep, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) < 2 {
		return nil
	}
	return lines
}

func orPlaceholder(s string) string {
	if s == "" {
		return PlanPlaceholder
	}
	return s
}

// GeneratorView holds per-request state for the generator page.
// Result and Error are never both set.
type GeneratorView struct {
	UserID string
	Email  string
	Topic  string
	State  GeneratorState
	Result *LessonPlanView
	Error  string
}

// NewGeneratorView returns an idle view
func NewGeneratorView(userID, email string) *GeneratorView {
	return &GeneratorView{UserID: userID, Email: email, State: StateIdle}
}

// CanSubmit reports whether a new submission may start
func (v *GeneratorView) CanSubmit() bool {
	return v.State != StateSubmitting
}

// Begin moves to Submitting and clears the previous outcome
func (v *GeneratorView) Begin(topic string) bool {
	if !v.CanSubmit() {
		return false
	}
	v.Topic = topic
	v.State = StateSubmitting
	v.Result = nil
	v.Error = ""
	return true
}

// Succeed stores the plan
func (v *GeneratorView) Succeed(plan *generation.Plan) {
	v.State = StateSuccess
	v.Result = NewLessonPlanView(plan)
	v.Error = ""
}

// Fail stores the user-facing message
func (v *GeneratorView) Fail(message string) {
	v.State = StateFailed
	v.Result = nil
	v.Error = message
}

// Loading reports whether a request is outstanding
func (v *GeneratorView) Loading() bool {
	return v.State == StateSubmitting
}
