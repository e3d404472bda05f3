// internal/handlers/question_handler.go
package handlers

import (
	"net/http"
	"strconv"

	"magyar_vizsga_trainer/internal/middleware"
	"magyar_vizsga_trainer/internal/model"
	"magyar_vizsga_trainer/internal/service"
	"magyar_vizsga_trainer/internal/webutil"

	"github.com/go-chi/chi/v5"
)

type QuestionHandler struct {
	service service.QuestionService
}

func NewQuestionHandler(s service.QuestionService) *QuestionHandler {
	return &QuestionHandler{service: s}
}

// GetQuestions は設問カタログの一覧取得ハンドラ。?topic= で分野を絞れる。
func (h *QuestionHandler) GetQuestions(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context()).With("handler", "GetQuestions")

	var topic *int
	if raw := r.URL.Query().Get("topic"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			logger.Warn("Invalid topic query parameter", "topic", raw)
			webutil.HandleError(w, logger, model.NewAppError("INVALID_URL_PARAM", "The topic parameter must be a positive integer.", "topic", model.ErrInvalidInput))
			return
		}
		topic = &parsed
	}

	questions, err := h.service.ListQuestions(r.Context(), topic)
	if err != nil {
		logger.Error("Error listing questions", "error", err)
		webutil.HandleError(w, logger, err)
		return
	}
	if questions == nil {
		questions = []model.Question{}
	}
	webutil.RespondWithJSON(w, http.StatusOK, questions)
}

// GetQuestion は設問1件の取得ハンドラ
func (h *QuestionHandler) GetQuestion(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context()).With("handler", "GetQuestion")

	questionID := chi.URLParam(r, "question_id")
	question, err := h.service.GetQuestion(r.Context(), questionID)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	webutil.RespondWithJSON(w, http.StatusOK, question)
}

// PostQuestion は設問の新規作成ハンドラ
func (h *QuestionHandler) PostQuestion(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context()).With("handler", "PostQuestion")

	var req model.PostQuestionRequest
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

	question, err := h.service.CreateQuestion(r.Context(), &req)
	if err != nil {
		logger.Error("Error creating question", "error", err)
		webutil.HandleError(w, logger, err)
		return
	}
	logger.Info("Question created", "question_id", question.QuestionID)
	webutil.RespondWithJSON(w, http.StatusCreated, question)
}

// PutQuestion は設問の全置換ハンドラ
func (h *QuestionHandler) PutQuestion(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context()).With("handler", "PutQuestion")

	questionID := chi.URLParam(r, "question_id")

	var req model.PutQuestionRequest
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

	question, err := h.service.UpdateQuestion(r.Context(), questionID, &req)
	if err != nil {
		logger.Error("Error updating question", "error", err, "question_id", questionID)
		webutil.HandleError(w, logger, err)
		return
	}
	webutil.RespondWithJSON(w, http.StatusOK, question)
}

// DeleteQuestion は設問の削除ハンドラ
func (h *QuestionHandler) DeleteQuestion(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context()).With("handler", "DeleteQuestion")

	questionID := chi.URLParam(r, "question_id")
	if err := h.service.DeleteQuestion(r.Context(), questionID); err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	logger.Info("Question deleted", "question_id", questionID)
	w.WriteHeader(http.StatusNoContent)
}

// ImportQuestions はカタログJSONの一括取り込みハンドラ
func (h *QuestionHandler) ImportQuestions(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context()).With("handler", "ImportQuestions")

	result, err := h.service.ImportCatalog(r.Context(), r.Body)
	if err != nil {
		logger.Error("Error importing catalog", "error", err)
		webutil.HandleError(w, logger, err)
		return
	}
	logger.Info("Catalog imported", "imported", result.Imported, "skipped", result.Skipped)
	webutil.RespondWithJSON(w, http.StatusOK, result)
}
