// internal/handlers/auth_handler.go
package handlers

import (
	"errors"
	"net/http"

	"magyar_vizsga_trainer/internal/middleware"
	"magyar_vizsga_trainer/internal/model"
	"magyar_vizsga_trainer/internal/service"
	"magyar_vizsga_trainer/internal/webutil"

	"github.com/go-playground/validator/v10"
)

type AuthHandler struct {
	service service.AuthService
}

func NewAuthHandler(s service.AuthService) *AuthHandler {
	return &AuthHandler{service: s}
}

// validateRequest はリクエストDTOを検証し、失敗時はAppErrorを返します
func validateRequest(req interface{}) error {
	if err := webutil.Validator.Struct(req); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			return webutil.NewValidationErrorResponse(validationErrors)
		}
		return err
	}
	return nil
}

// Register は新規ユーザー登録のハンドラ
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context()).With("handler", "Register")

	var req model.RegisterRequest
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

	user, err := h.service.Register(r.Context(), &req)
	if err != nil {
		logger.Error("Error registering user", "error", err)
		webutil.HandleError(w, logger, err)
		return
	}

	resp := model.UserResponse{
		UserID:    user.UserID,
		Name:      user.Name,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	}
	logger.Info("User registered", "user_id", user.UserID)
	webutil.RespondWithJSON(w, http.StatusCreated, resp)
}

// Login は認証してJWTを発行するハンドラ
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context()).With("handler", "Login")

	var req model.LoginRequest
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

	resp, err := h.service.Login(r.Context(), &req)
	if err != nil {
		logger.Warn("Login rejected", "error", err)
		webutil.HandleError(w, logger, err)
		return
	}
	webutil.RespondWithJSON(w, http.StatusOK, resp)
}

// Me は認証済みユーザー自身の情報を返すハンドラ
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context()).With("handler", "Me")

	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		logger.Warn("Unauthorized access attempt", "error", err)
		webutil.HandleError(w, logger, model.NewAppError("UNAUTHORIZED", "Authentication is required.", "", model.ErrUnauthorized))
		return
	}

	user, err := h.service.GetUser(r.Context(), userID)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	resp := model.UserResponse{
		UserID:    user.UserID,
		Name:      user.Name,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	}
	webutil.RespondWithJSON(w, http.StatusOK, resp)
}
