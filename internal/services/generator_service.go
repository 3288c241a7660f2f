package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/escribo/planos-web/config"
	"github.com/escribo/planos-web/internal/models"
	apperrors "github.com/escribo/planos-web/pkg/errors"
	"github.com/escribo/planos-web/pkg/generation"
	"github.com/escribo/planos-web/pkg/logger"
	"github.com/escribo/planos-web/pkg/metrics"
	"go.uber.org/zap"
)

const (
	MsgSessionExpired  = "Sessão expirada. Por favor, faça login novamente."
	MsgUnknownAIError  = "Erro desconhecido no servidor de IA."
	MsgNetworkFailure  = "Falha na comunicação com o servidor de IA. Tente novamente."
	MsgEmptyResponse   = "Resposta do servidor de IA sem conteúdo."
	MsgAlreadyInFlight = "Já existe uma geração em andamento."
	MsgTopicRequired   = "Informe o tema da aula."
	MsgTopicTooLong    = "O tema deve ter no máximo 500 caracteres."

	// MaxTopicLength bounds the topic in characters
	MaxTopicLength = 500
)

var (
	ErrSessionMissing     = errors.New("no active session")
	ErrGenerationInFlight = fmt.Errorf("generation already in flight: %w", apperrors.ErrConflict)
)

// GenerationErrorKind classifies a failed submission
type GenerationErrorKind string

const (
	KindNoSession    GenerationErrorKind = "no_session"
	KindInFlight     GenerationErrorKind = "in_flight"
	KindInvalidInput GenerationErrorKind = "invalid_input"
	KindRemote       GenerationErrorKind = "remote_error"
	KindNetwork      GenerationErrorKind = "network_error"
	KindEmpty        GenerationErrorKind = "empty"
)

// GenerationError carries the message shown to the user
type GenerationError struct {
	Kind    GenerationErrorKind
	Message string
	Err     error
}

func (e *GenerationError) Error() string {
	if e.Err != nil {
		return string(e.Kind) + ": " + e.Err.Error()
	}
	return string(e.Kind) + ": " + e.Message
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// GenerationMessage returns the user-facing text for any Generate error
func GenerationMessage(err error) string {
	var genErr *GenerationError
	if errors.As(err, &genErr) {
		return genErr.Message
	}
	return MsgNetworkFailure
}

// GeneratorService sends lesson plan requests on behalf of a session
type GeneratorService struct {
	generator       PlanGenerator
	level           string
	durationMinutes int

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// NewGeneratorService creates a new GeneratorService
func NewGeneratorService(generator PlanGenerator, cfg config.GenerationConfig) *GeneratorService {
	return &GeneratorService{
		generator:       generator,
		level:           cfg.Level,
		durationMinutes: cfg.DurationMinutes,
		inFlight:        make(map[string]struct{}),
	}
}

// Generate issues exactly one request, or none when the session is missing or
// another generation for the same user is still running
func (s *GeneratorService) Generate(ctx context.Context, session *models.Session, topic string) (*generation.Plan, error) {
	if !session.Present() {
		metrics.LessonPlanGenerations.WithLabelValues(string(KindNoSession)).Inc()
		return nil, &GenerationError{Kind: KindNoSession, Message: MsgSessionExpired, Err: ErrSessionMissing}
	}

	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, &GenerationError{
			Kind:    KindInvalidInput,
			Message: MsgTopicRequired,
			Err:     apperrors.InvalidInputError("topic", "required"),
		}
	}

	if utf8.RuneCountInString(topic) > MaxTopicLength {
		return nil, &GenerationError{
			Kind:    KindInvalidInput,
			Message: MsgTopicTooLong,
			Err:     apperrors.InvalidInputError("topic", "too long"),
		}
	}

	if !s.acquire(session.UserID) {
		metrics.LessonPlanGenerations.WithLabelValues(string(KindInFlight)).Inc()
		logger.Warn("Rejected concurrent generation", zap.String("user_id", session.UserID))
		return nil, &GenerationError{Kind: KindInFlight, Message: MsgAlreadyInFlight, Err: ErrGenerationInFlight}
	}
	defer s.release(session.UserID)

	plan, err := s.generator.Generate(ctx, generation.Request{
		Topic:           topic,
		Level:           s.level,
		DurationMinutes: s.durationMinutes,
		UserID:          session.UserID,
	}, session.AccessToken)
	if err != nil {
		genErr := classify(err)
		metrics.LessonPlanGenerations.WithLabelValues(string(genErr.Kind)).Inc()
		logger.Warn("Lesson plan generation failed",
			zap.String("user_id", session.UserID),
			zap.String("kind", string(genErr.Kind)),
			zap.Error(err))
		return nil, genErr
	}

	metrics.LessonPlanGenerations.WithLabelValues("success").Inc()
	logger.Info("Lesson plan generated",
		zap.String("user_id", session.UserID),
		zap.String("title", plan.Title))

	return plan, nil
}

// InFlight reports whether a generation is running for the user
func (s *GeneratorService) InFlight(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.inFlight[userID]
	return ok
}

func (s *GeneratorService) acquire(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.inFlight[userID]; ok {
		return false
	}
	s.inFlight[userID] = struct{}{}
	return true
}

func (s *GeneratorService) release(userID string) {
	s.mu.Lock()
	delete(s.inFlight, userID)
	s.mu.Unlock()
}

func classify(err error) *GenerationError {
	var remote *generation.RemoteError
	switch {
	case errors.As(err, &remote):
		msg := remote.Message
		if msg == "" {
			msg = MsgUnknownAIError
		}
		return &GenerationError{Kind: KindRemote, Message: msg, Err: apperrors.UpstreamError("generation", err)}
	case errors.Is(err, generation.ErrEmptyPlan):
		return &GenerationError{Kind: KindEmpty, Message: MsgEmptyResponse, Err: err}
	default:
		return &GenerationError{Kind: KindNetwork, Message: MsgNetworkFailure, Err: err}
	}
}
