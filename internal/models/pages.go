package models

// AuthPage is the data for the login and registration templates
type AuthPage struct {
	Title   string
	Email   string
	Error   string
	Success string
}

// GeneratorPage is the data for the generator template
type GeneratorPage struct {
	Title string
	View  *GeneratorView
}

// SessionResponse is returned by the session API
type SessionResponse struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	ExpiresAt int64  `json:"expires_at"`
}

// LessonPlanResponse is returned by the lesson plan API
type LessonPlanResponse struct {
	Plan *LessonPlanJSON `json:"plan"`
}

// LessonPlanJSON uses the generator's field names
type LessonPlanJSON struct {
	Title        string `json:"titulo_plano"`
	Introduction string `json:"introducao_ludica"`
	Objective    string `json:"objetivo_bncc"`
	StepByStep   string `json:"passo_a_passo"`
	Rubric       string `json:"rubrica_avaliacao"`
}

// NewLessonPlanJSON converts a display view
func NewLessonPlanJSON(v *LessonPlanView) *LessonPlanJSON {
	if v == nil {
		return nil
	}
	return &LessonPlanJSON{
		Title:        v.Title,
		Introduction: v.Introduction,
		Objective:    v.Objective,
		StepByStep:   v.StepByStep,
		Rubric:       v.Rubric,
	}
}

// ErrorResponse is the JSON error body
type ErrorResponse struct {
	Error   string            `json:"error"`
	Details []ValidationError `json:"details,omitempty"`
}

// ValidationError describes one invalid field
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}
