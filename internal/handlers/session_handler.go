// internal/handlers/session_handler.go
package handlers

import (
	"log/slog"
	"net/http"

	"magyar_vizsga_trainer/internal/middleware"
	"magyar_vizsga_trainer/internal/model"
	"magyar_vizsga_trainer/internal/service"
	"magyar_vizsga_trainer/internal/webutil"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type SessionHandler struct {
	service service.SessionService
}

func NewSessionHandler(s service.SessionService) *SessionHandler {
	return &SessionHandler{service: s}
}

// AdvanceResponse は次の設問と完了時の集計のどちらか一方を持ちます
type AdvanceResponse struct {
	Completed bool                  `json:"completed"`
	Question  *model.QuestionView   `json:"question,omitempty"`
	Summary   *model.SessionSummary `json:"summary,omitempty"`
}

// HintResponse はマスク済みヒント
type HintResponse struct {
	Hint string `json:"hint"`
}

func sessionParams(r *http.Request, logger *slog.Logger) (userID, sessionID uuid.UUID, err error) {
	userID, err = middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		logger.Warn("Unauthorized access attempt", "error", err)
		return uuid.Nil, uuid.Nil, model.NewAppError("UNAUTHORIZED", "Authentication is required.", "", model.ErrUnauthorized)
	}

	raw := chi.URLParam(r, "session_id")
	sessionID, err = uuid.Parse(raw)
	if err != nil {
		logger.Warn("Invalid session ID format in URL", "session_id", raw)
		return uuid.Nil, uuid.Nil, model.NewAppError("INVALID_URL_PARAM", "The session_id is not a valid UUID.", "session_id", model.ErrInvalidInput)
	}
	return userID, sessionID, nil
}

// PostSession は学習セッションの開始ハンドラ
func (h *SessionHandler) PostSession(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context()).With("handler", "PostSession")

	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		logger.Warn("Unauthorized access attempt", "error", err)
		webutil.HandleError(w, logger, model.NewAppError("UNAUTHORIZED", "Authentication is required.", "", model.ErrUnauthorized))
		return
	}

	var req model.StartSessionRequest
	if err := webutil.DecodeJSONBody(r, &req); err != nil {
		logger.Warn("Failed to decode request body", "error", err)
		webutil.HandleError(w, logger, model.NewAppError("INVALID_REQUEST_BODY", "The request body is malformed.", "", model.ErrInvalidInput))
		return
	}
	if err := validateRequest(req); err != nil {
		logger.Warn("Validation failed", "error", err)
		webutil.HandleError(w, logger, err)
		return
	}

	view, err := h.service.StartSession(r.Context(), userID, &req)
	if err != nil {
		logger.Warn("Failed to start session", "error", err, "mode", req.Mode)
		webutil.HandleError(w, logger, err)
		return
	}
	logger.Info("Session started", "session_id", view.SessionID, "mode", req.Mode)
	webutil.RespondWithJSON(w, http.StatusCreated, view)
}

// GetSession は現在の設問の取得ハンドラ
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context()).With("handler", "GetSession")

	userID, sessionID, err := sessionParams(r, logger)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	view, err := h.service.CurrentQuestion(r.Context(), userID, sessionID)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	webutil.RespondWithJSON(w, http.StatusOK, view)
}

// PostAnswer は自由記述解答の送信ハンドラ
func (h *SessionHandler) PostAnswer(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context()).With("handler", "PostAnswer")

	userID, sessionID, err := sessionParams(r, logger)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	var req model.SubmitAnswerRequest
	if err := webutil.DecodeJSONBody(r, &req); err != nil {
		logger.Warn("Failed to decode request body", "error", err)
		webutil.HandleError(w, logger, model.NewAppError("INVALID_REQUEST_BODY", "The request body is malformed.", "", model.ErrInvalidInput))
		return
	}

	feedback, err := h.service.SubmitAnswer(r.Context(), userID, sessionID, &req)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	webutil.RespondWithJSON(w, http.StatusOK, feedback)
}

// PostHint はヒント要求ハンドラ
func (h *SessionHandler) PostHint(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context()).With("handler", "PostHint")

	userID, sessionID, err := sessionParams(r, logger)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	hint, err := h.service.RequestHint(r.Context(), userID, sessionID)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	webutil.RespondWithJSON(w, http.StatusOK, HintResponse{Hint: hint})
}

// PostReveal はlearnモードの模範解答開示ハンドラ
func (h *SessionHandler) PostReveal(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context()).With("handler", "PostReveal")

	userID, sessionID, err := sessionParams(r, logger)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	view, err := h.service.Reveal(r.Context(), userID, sessionID)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	webutil.RespondWithJSON(w, http.StatusOK, view)
}

// PostRate はlearnモードの自己評価ハンドラ
func (h *SessionHandler) PostRate(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context()).With("handler", "PostRate")

	userID, sessionID, err := sessionParams(r, logger)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	var req model.SelfRateRequest
	if err := webutil.DecodeJSONBody(r, &req); err != nil {
		logger.Warn("Failed to decode request body", "error", err)
		webutil.HandleError(w, logger, model.NewAppError("INVALID_REQUEST_BODY", "The request body is malformed.", "", model.ErrInvalidInput))
		return
	}
	if err := validateRequest(req); err != nil {
		logger.Warn("Validation failed", "error", err)
		webutil.HandleError(w, logger, err)
		return
	}

	feedback, err := h.service.SelfRate(r.Context(), userID, sessionID, &req)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	webutil.RespondWithJSON(w, http.StatusOK, feedback)
}

// PostChoice はmcモードの選択肢回答ハンドラ
func (h *SessionHandler) PostChoice(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context()).With("handler", "PostChoice")

	userID, sessionID, err := sessionParams(r, logger)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	var req model.PickOptionRequest
	if err := webutil.DecodeJSONBody(r, &req); err != nil {
		logger.Warn("Failed to decode request body", "error", err)
		webutil.HandleError(w, logger, model.NewAppError("INVALID_REQUEST_BODY", "The request body is malformed.", "", model.ErrInvalidInput))
		return
	}
	if err := validateRequest(req); err != nil {
		logger.Warn("Validation failed", "error", err)
		webutil.HandleError(w, logger, err)
		return
	}

	feedback, err := h.service.PickOption(r.Context(), userID, sessionID, &req)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	webutil.RespondWithJSON(w, http.StatusOK, feedback)
}

// PostAdvance は次の設問への遷移ハンドラ
func (h *SessionHandler) PostAdvance(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context()).With("handler", "PostAdvance")

	userID, sessionID, err := sessionParams(r, logger)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	view, summary, err := h.service.Advance(r.Context(), userID, sessionID)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	webutil.RespondWithJSON(w, http.StatusOK, AdvanceResponse{
		Completed: summary != nil,
		Question:  view,
		Summary:   summary,
	})
}

// PostAbandon はセッション中断ハンドラ
func (h *SessionHandler) PostAbandon(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context()).With("handler", "PostAbandon")

	userID, sessionID, err := sessionParams(r, logger)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	summary, err := h.service.Abandon(r.Context(), userID, sessionID)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	logger.Info("Session abandoned", "session_id", sessionID)
	webutil.RespondWithJSON(w, http.StatusOK, summary)
}

// GetResult は完了済みセッションの集計取得ハンドラ
func (h *SessionHandler) GetResult(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context()).With("handler", "GetResult")

	userID, sessionID, err := sessionParams(r, logger)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	summary, err := h.service.Result(r.Context(), userID, sessionID)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	webutil.RespondWithJSON(w, http.StatusOK, summary)
}
