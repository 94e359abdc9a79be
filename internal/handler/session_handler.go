package handler

import (
	"context"

	"quiz-assessment/internal/domain"
	"quiz-assessment/internal/dto"
	"quiz-assessment/internal/middleware"
	"quiz-assessment/internal/service"

	"github.com/gofiber/fiber/v2"
)

// SessionHandler maps HTTP requests onto the session lifecycle operations.
type SessionHandler struct {
	service service.SessionService
}

func NewSessionHandler(service service.SessionService) *SessionHandler {
	return &SessionHandler{service: service}
}

// RegisterRoutes mounts the session routes on router, which must already
// be behind middleware.Protected.
func (h *SessionHandler) RegisterRoutes(router fiber.Router) {
	sessions := router.Group("/sessions")
	sessions.Post("/", h.CreateSession)
	sessions.Get("/:id", h.GetSession)
	sessions.Get("/:id/outcome", h.GetOutcome)
	sessions.Post("/:id/start", h.StartSession)
	sessions.Put("/:id/answers", h.RecordAnswers)
	sessions.Put("/:id/answers/:questionId", h.RecordAnswer)
	sessions.Post("/:id/pause", h.PauseSession)
	sessions.Post("/:id/resume", h.ResumeSession)
	sessions.Post("/:id/finish", h.FinishSession)
	sessions.Post("/:id/expire", h.ExpireSession)
	sessions.Post("/:id/analysis", h.AnalyzeSession)
}

func callerID(c *fiber.Ctx) (string, error) {
	userID := middleware.UserID(c)
	if userID == "" {
		return "", fiber.NewError(fiber.StatusUnauthorized, "missing caller identity")
	}
	return userID, nil
}

func invalidBody(err error) error {
	return domain.NewError(domain.ErrValidation, "invalid request body", err)
}

func toCreateInput(userID string, req dto.CreateSessionRequest) (service.CreateSessionInput, error) {
	difficulty, err := domain.ParseDifficulty(req.Configuration.Difficulty)
	if err != nil {
		return service.CreateSessionInput{}, err
	}

	in := service.CreateSessionInput{
		UserID: userID,
		Configuration: domain.Configuration{
			Difficulty:       difficulty,
			QuestionCount:    req.Configuration.QuestionCount,
			TimeLimitSeconds: req.Configuration.TimeLimitSeconds,
		},
		ContentInputID: req.ContentInputID,
		Name:           req.Name,
	}

	if req.Source != nil {
		source := &domain.ContentSource{
			Kind:         domain.SourceKind(req.Source.Kind),
			URL:          req.Source.URL,
			DocumentText: req.Source.DocumentText,
		}
		for _, t := range req.Source.Topics {
			source.Topics = append(source.Topics, domain.TopicRef{ID: t.ID, Title: t.Title, Locator: t.Locator})
		}
		in.Source = source
	}

	if len(req.Questions) > 0 {
		if in.Source != nil {
			return service.CreateSessionInput{}, domain.NewValidationError("provide either a content source or questions, not both")
		}
		in.Questions = make([]domain.Question, len(req.Questions))
		for i, q := range req.Questions {
			var qd domain.Difficulty
			if q.Difficulty != "" {
				if qd, err = domain.ParseDifficulty(q.Difficulty); err != nil {
					return service.CreateSessionInput{}, err
				}
			}
			in.Questions[i] = domain.Question{
				ID:             q.ID,
				Text:           q.Text,
				Options:        q.Options,
				CorrectAnswer:  q.CorrectAnswer,
				Difficulty:     qd,
				Explanation:    q.Explanation,
				CodeSnippet:    q.CodeSnippet,
				ImageReference: q.ImageReference,
			}
		}
	}
	return in, nil
}

// CreateSession godoc
// @Summary Create a quiz session
// @Description Creates a pending session from a content source (via the generation service) or from supplied questions
// @Tags sessions
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body dto.CreateSessionRequest true "Session definition"
// @Success 201 {object} dto.SessionResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 502 {object} middleware.ErrorResponse
// @Failure 503 {object} middleware.ErrorResponse
// @Failure 504 {object} middleware.ErrorResponse
// @Router /sessions [post]
func (h *SessionHandler) CreateSession(c *fiber.Ctx) error {
	userID, err := callerID(c)
	if err != nil {
		return err
	}

	var req dto.CreateSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(err)
	}
	in, err := toCreateInput(userID, req)
	if err != nil {
		return err
	}

	session, err := h.service.Create(c.UserContext(), in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewSessionResponse(session))
}

// GetSession godoc
// @Summary Get a quiz session
// @Tags sessions
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Session ID"
// @Success 200 {object} dto.SessionResponse
// @Failure 403 {object} middleware.ErrorResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /sessions/{id} [get]
func (h *SessionHandler) GetSession(c *fiber.Ctx) error {
	return h.respondSession(c, h.service.Get)
}

// GetOutcome godoc
// @Summary Get the outcome of a finished session
// @Tags sessions
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Session ID"
// @Success 200 {object} dto.OutcomeResponse
// @Failure 409 {object} middleware.ErrorResponse
// @Router /sessions/{id}/outcome [get]
func (h *SessionHandler) GetOutcome(c *fiber.Ctx) error {
	userID, err := callerID(c)
	if err != nil {
		return err
	}
	sessionID := c.Params("id")
	outcome, err := h.service.GetOutcome(c.UserContext(), userID, sessionID)
	if err != nil {
		return err
	}
	return c.JSON(dto.OutcomeResponse{SessionID: sessionID, Outcome: *outcome})
}

// StartSession godoc
// @Summary Start a pending session
// @Tags sessions
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Session ID"
// @Success 200 {object} dto.SessionResponse
// @Failure 409 {object} middleware.ErrorResponse
// @Router /sessions/{id}/start [post]
func (h *SessionHandler) StartSession(c *fiber.Ctx) error {
	return h.respondSession(c, h.service.Start)
}

// RecordAnswer godoc
// @Summary Record or change the answer to one question
// @Tags sessions
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Session ID"
// @Param questionId path string true "Question ID"
// @Param request body dto.RecordAnswerRequest true "Chosen option"
// @Success 200 {object} dto.AnswersResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 409 {object} middleware.ErrorResponse
// @Router /sessions/{id}/answers/{questionId} [put]
func (h *SessionHandler) RecordAnswer(c *fiber.Ctx) error {
	userID, err := callerID(c)
	if err != nil {
		return err
	}
	var req dto.RecordAnswerRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(err)
	}

	sessionID := c.Params("id")
	sheet, err := h.service.RecordAnswer(c.UserContext(), userID, sessionID, c.Params("questionId"), req.Answer)
	if err != nil {
		return err
	}
	return c.JSON(dto.AnswersResponse{SessionID: sessionID, Answers: sheet})
}

// RecordAnswers godoc
// @Summary Record several answers at once
// @Description All answers are validated before any is stored
// @Tags sessions
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Session ID"
// @Param request body dto.RecordAnswersRequest true "Answers by question id"
// @Success 200 {object} dto.AnswersResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 409 {object} middleware.ErrorResponse
// @Router /sessions/{id}/answers [put]
func (h *SessionHandler) RecordAnswers(c *fiber.Ctx) error {
	userID, err := callerID(c)
	if err != nil {
		return err
	}
	var req dto.RecordAnswersRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(err)
	}

	sessionID := c.Params("id")
	sheet, err := h.service.RecordAnswers(c.UserContext(), userID, sessionID, req.Answers)
	if err != nil {
		return err
	}
	return c.JSON(dto.AnswersResponse{SessionID: sessionID, Answers: sheet})
}

// PauseSession godoc
// @Summary Pause an in-progress session
// @Tags sessions
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Session ID"
// @Param request body dto.PauseRequest true "Pause reason"
// @Success 200 {object} dto.SessionResponse
// @Router /sessions/{id}/pause [post]
func (h *SessionHandler) PauseSession(c *fiber.Ctx) error {
	var req dto.PauseRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(err)
	}
	return h.respondSession(c, func(ctx context.Context, userID, sessionID string) (*domain.QuizSession, error) {
		return h.service.Pause(ctx, userID, sessionID, domain.PauseReason(req.Reason))
	})
}

// ResumeSession godoc
// @Summary Resume a paused session
// @Tags sessions
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Session ID"
// @Success 200 {object} dto.SessionResponse
// @Router /sessions/{id}/resume [post]
func (h *SessionHandler) ResumeSession(c *fiber.Ctx) error {
	return h.respondSession(c, h.service.Resume)
}

// FinishSession godoc
// @Summary Finish and score a session
// @Description The session is completed even if the analysis service fails
// @Tags sessions
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Session ID"
// @Success 200 {object} dto.SessionResponse
// @Failure 409 {object} middleware.ErrorResponse
// @Router /sessions/{id}/finish [post]
func (h *SessionHandler) FinishSession(c *fiber.Ctx) error {
	return h.respondSession(c, h.service.Finish)
}

// ExpireSession godoc
// @Summary Expire a session whose time ran out
// @Tags sessions
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Session ID"
// @Success 200 {object} dto.SessionResponse
// @Failure 409 {object} middleware.ErrorResponse
// @Router /sessions/{id}/expire [post]
func (h *SessionHandler) ExpireSession(c *fiber.Ctx) error {
	return h.respondSession(c, h.service.Expire)
}

// AnalyzeSession godoc
// @Summary Run the analysis for a finished session
// @Tags sessions
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Session ID"
// @Success 200 {object} dto.AnalysisResponse
// @Failure 409 {object} middleware.ErrorResponse
// @Failure 502 {object} middleware.ErrorResponse
// @Router /sessions/{id}/analysis [post]
func (h *SessionHandler) AnalyzeSession(c *fiber.Ctx) error {
	userID, err := callerID(c)
	if err != nil {
		return err
	}
	sessionID := c.Params("id")
	analysis, err := h.service.Analyze(c.UserContext(), userID, sessionID)
	if err != nil {
		return err
	}
	return c.JSON(dto.AnalysisResponse{SessionID: sessionID, Analysis: *analysis})
}

type sessionOp func(ctx context.Context, userID, sessionID string) (*domain.QuizSession, error)

func (h *SessionHandler) respondSession(c *fiber.Ctx, op sessionOp) error {
	userID, err := callerID(c)
	if err != nil {
		return err
	}
	session, err := op(c.UserContext(), userID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewSessionResponse(session))
}
