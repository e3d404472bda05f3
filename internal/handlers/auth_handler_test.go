// internal/handlers/auth_handler_test.go
package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"magyar_vizsga_trainer/internal/handlers"
	"magyar_vizsga_trainer/internal/model"
	"magyar_vizsga_trainer/internal/service/mocks"
)

func postJSON(t *testing.T, router http.Handler, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest("POST", path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestAuthHandler_Register(t *testing.T) {
	validReq := model.RegisterRequest{
		Name:     "Teszt Elek",
		Email:    "teszt@example.com",
		Password: "password123",
	}
	expectedUser := &model.User{
		UserID:    uuid.New(),
		Name:      validReq.Name,
		Email:     validReq.Email,
		CreatedAt: time.Now(),
	}

	tests := []struct {
		name           string
		body           interface{}
		setupMock      func(authService *mocks.AuthService)
		expectedStatus int
		expectedCode   string
	}{
		{
			name: "正常系: ユーザー登録成功",
			body: validReq,
			setupMock: func(authService *mocks.AuthService) {
				authService.On("Register", mock.Anything, &validReq).
					Return(expectedUser, nil).Once()
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "異常系: Emailの形式が不正",
			body:           model.RegisterRequest{Name: "Teszt", Email: "not-an-email", Password: "password123"},
			setupMock:      func(authService *mocks.AuthService) {},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "VALIDATION_ERROR",
		},
		{
			name:           "異常系: パスワードが短すぎる",
			body:           model.RegisterRequest{Name: "Teszt", Email: "teszt@example.com", Password: "short"},
			setupMock:      func(authService *mocks.AuthService) {},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "VALIDATION_ERROR",
		},
		{
			name: "異常系: Emailが重複",
			body: validReq,
			setupMock: func(authService *mocks.AuthService) {
				authService.On("Register", mock.Anything, &validReq).
					Return(nil, model.NewAppError("DUPLICATE_EMAIL", "This email address is already registered.", "email", model.ErrConflict)).Once()
			},
			expectedStatus: http.StatusConflict,
			expectedCode:   "DUPLICATE_EMAIL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockAuthService := mocks.NewAuthService(t)
			tt.setupMock(mockAuthService)

			handler := handlers.NewAuthHandler(mockAuthService)
			router := chi.NewRouter()
			router.Post("/api/v1/users", handler.Register)

			rr := postJSON(t, router, "/api/v1/users", tt.body)
			assert.Equal(t, tt.expectedStatus, rr.Code)

			if tt.expectedCode != "" {
				var errResp model.APIErrorResponse
				require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &errResp))
				assert.Equal(t, tt.expectedCode, errResp.Error.Code)
			}
			if tt.expectedStatus == http.StatusCreated {
				var resp model.UserResponse
				require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
				assert.Equal(t, expectedUser.UserID, resp.UserID)
				assert.Equal(t, expectedUser.Email, resp.Email)
			}
		})
	}
}

func TestAuthHandler_Login(t *testing.T) {
	validReq := model.LoginRequest{
		Email:    "teszt@example.com",
		Password: "password123",
	}

	tests := []struct {
		name           string
		body           interface{}
		setupMock      func(authService *mocks.AuthService)
		expectedStatus int
	}{
		{
			name: "正常系: ログイン成功",
			body: validReq,
			setupMock: func(authService *mocks.AuthService) {
				authService.On("Login", mock.Anything, &validReq).
					Return(&model.LoginResponse{AccessToken: "signed.jwt.token"}, nil).Once()
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "異常系: 認証失敗",
			body: validReq,
			setupMock: func(authService *mocks.AuthService) {
				authService.On("Login", mock.Anything, &validReq).
					Return(nil, model.NewAppError("AUTHENTICATION_FAILED", "Invalid email address or password.", "", model.ErrInvalidInput)).Once()
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "異常系: リクエストボディが壊れている",
			body:           "not-json-object",
			setupMock:      func(authService *mocks.AuthService) {},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockAuthService := mocks.NewAuthService(t)
			tt.setupMock(mockAuthService)

			handler := handlers.NewAuthHandler(mockAuthService)
			router := chi.NewRouter()
			router.Post("/api/v1/login", handler.Login)

			rr := postJSON(t, router, "/api/v1/login", tt.body)
			assert.Equal(t, tt.expectedStatus, rr.Code)

			if tt.expectedStatus == http.StatusOK {
				var resp model.LoginResponse
				require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
				assert.NotEmpty(t, resp.AccessToken)
			}
		})
	}
}
