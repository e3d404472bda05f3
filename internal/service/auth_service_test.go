// internal/service/auth_service_test.go
package service

import (
	"context"
	"errors"
	"testing"

	"magyar_vizsga_trainer/internal/config"
	"magyar_vizsga_trainer/internal/model"
	"magyar_vizsga_trainer/internal/repository/mocks"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// --- テストヘルパー関数 ---
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "failed to connect database for testing")
	return db
}

func testAppConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Auth.SecretKey = "test-secret-key"
	cfg.Auth.TokenTTLHours = 24
	cfg.App.MatchThreshold = 0.75
	cfg.App.HintPenalty = 0.8
	cfg.App.SessionLimit = 20
	cfg.App.ExamPerTopic = 2
	cfg.App.ExamDurationMinutes = 60
	cfg.App.ExamTotalPoints = 30.0
	cfg.App.ExamPassPoints = 16.0
	cfg.App.LeechThreshold = 5
	cfg.App.ForecastDays = 7
	cfg.App.WeakAccuracyCutoff = 0.6
	cfg.App.VocabMasteryAccuracy = 0.8
	return cfg
}

// --- Test Register ---
func Test_authService_Register(t *testing.T) {
	ctx := context.Background()
	testEmail := "teszt@example.com"

	tests := []struct {
		name      string
		req       *model.RegisterRequest
		setupMock func(userRepo *mocks.UserRepository)
		wantErr   error
		wantCode  string
	}{
		{
			name: "正常系: ユーザー登録成功",
			req: &model.RegisterRequest{
				Name:     "Teszt Elek",
				Email:    testEmail,
				Password: "password123",
			},
			setupMock: func(userRepo *mocks.UserRepository) {
				// 重複チェック (未登録)
				userRepo.On("FindByEmail", ctx, mock.AnythingOfType("*gorm.DB"), testEmail).
					Return(nil, model.ErrNotFound).Once()
				userRepo.On("Create", ctx, mock.AnythingOfType("*gorm.DB"), mock.AnythingOfType("*model.User")).
					Run(func(args mock.Arguments) {
						user := args.Get(2).(*model.User)
						assert.Equal(t, "Teszt Elek", user.Name)
						assert.Equal(t, testEmail, user.Email)
						assert.NotEqual(t, uuid.Nil, user.UserID)
						// 平文パスワードがそのまま保存されていないこと
						assert.NotEqual(t, "password123", user.PasswordHash)
						assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("password123")))
					}).Return(nil).Once()
			},
			wantErr: nil,
		},
		{
			name: "異常系: Emailが重複",
			req: &model.RegisterRequest{
				Name:     "Teszt Elek",
				Email:    testEmail,
				Password: "password123",
			},
			setupMock: func(userRepo *mocks.UserRepository) {
				userRepo.On("FindByEmail", ctx, mock.AnythingOfType("*gorm.DB"), testEmail).
					Return(&model.User{UserID: uuid.New(), Email: testEmail}, nil).Once()
			},
			wantErr: model.ErrConflict,
		},
		{
			name: "異常系: 重複チェックでDBエラー",
			req: &model.RegisterRequest{
				Name:     "Teszt Elek",
				Email:    testEmail,
				Password: "password123",
			},
			setupMock: func(userRepo *mocks.UserRepository) {
				userRepo.On("FindByEmail", ctx, mock.AnythingOfType("*gorm.DB"), testEmail).
					Return(nil, errors.New("db error")).Once()
			},
			wantCode: "INTERNAL_SERVER_ERROR",
		},
		{
			name: "異常系: CreateでUNIQUE制約違反 (レースコンディション)",
			req: &model.RegisterRequest{
				Name:     "Teszt Elek",
				Email:    testEmail,
				Password: "password123",
			},
			setupMock: func(userRepo *mocks.UserRepository) {
				userRepo.On("FindByEmail", ctx, mock.AnythingOfType("*gorm.DB"), testEmail).
					Return(nil, model.ErrNotFound).Once()
				userRepo.On("Create", ctx, mock.AnythingOfType("*gorm.DB"), mock.AnythingOfType("*model.User")).
					Return(model.ErrConflict).Once()
			},
			wantErr: model.ErrConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := setupTestDB(t)
			mockUserRepo := new(mocks.UserRepository)
			tt.setupMock(mockUserRepo)
			authService := NewAuthService(db, mockUserRepo, testAppConfig())

			user, err := authService.Register(ctx, tt.req)

			if tt.wantErr != nil || tt.wantCode != "" {
				require.Error(t, err)
				if tt.wantErr != nil {
					assert.ErrorIs(t, err, tt.wantErr)
				}
				if tt.wantCode != "" {
					var appErr *model.AppError
					require.ErrorAs(t, err, &appErr)
					assert.Equal(t, tt.wantCode, appErr.Detail.Code)
				}
				assert.Nil(t, user)
			} else {
				require.NoError(t, err)
				require.NotNil(t, user)
				assert.Equal(t, tt.req.Email, user.Email)
			}
			mockUserRepo.AssertExpectations(t)
		})
	}
}

// --- Test Login ---
func Test_authService_Login(t *testing.T) {
	ctx := context.Background()
	testEmail := "teszt@example.com"
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)
	testUser := &model.User{
		UserID:       uuid.New(),
		Name:         "Teszt Elek",
		Email:        testEmail,
		PasswordHash: string(hash),
	}

	tests := []struct {
		name      string
		req       *model.LoginRequest
		setupMock func(userRepo *mocks.UserRepository)
		wantErr   error
	}{
		{
			name: "正常系: ログイン成功",
			req:  &model.LoginRequest{Email: testEmail, Password: "password123"},
			setupMock: func(userRepo *mocks.UserRepository) {
				userRepo.On("FindByEmail", ctx, mock.AnythingOfType("*gorm.DB"), testEmail).
					Return(testUser, nil).Once()
			},
			wantErr: nil,
		},
		{
			name: "異常系: ユーザーが存在しない",
			req:  &model.LoginRequest{Email: testEmail, Password: "password123"},
			setupMock: func(userRepo *mocks.UserRepository) {
				userRepo.On("FindByEmail", ctx, mock.AnythingOfType("*gorm.DB"), testEmail).
					Return(nil, model.ErrNotFound).Once()
			},
			wantErr: model.ErrInvalidInput,
		},
		{
			name: "異常系: パスワード不一致",
			req:  &model.LoginRequest{Email: testEmail, Password: "wrong-password"},
			setupMock: func(userRepo *mocks.UserRepository) {
				userRepo.On("FindByEmail", ctx, mock.AnythingOfType("*gorm.DB"), testEmail).
					Return(testUser, nil).Once()
			},
			wantErr: model.ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := setupTestDB(t)
			mockUserRepo := new(mocks.UserRepository)
			tt.setupMock(mockUserRepo)
			cfg := testAppConfig()
			authService := NewAuthService(db, mockUserRepo, cfg)

			resp, err := authService.Login(ctx, tt.req)

			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, resp)
			} else {
				require.NoError(t, err)
				require.NotNil(t, resp)
				require.NotEmpty(t, resp.AccessToken)

				// 発行されたJWTのSubjectがユーザーIDであること
				token, err := jwt.ParseWithClaims(resp.AccessToken, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
					return []byte(cfg.Auth.SecretKey), nil
				})
				require.NoError(t, err)
				claims := token.Claims.(*jwt.RegisteredClaims)
				assert.Equal(t, testUser.UserID.String(), claims.Subject)
			}
			mockUserRepo.AssertExpectations(t)
		})
	}
}

// --- Test GetUser ---
func Test_authService_GetUser(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	tests := []struct {
		name      string
		setupMock func(userRepo *mocks.UserRepository)
		wantErr   error
	}{
		{
			name: "正常系: ユーザー取得成功",
			setupMock: func(userRepo *mocks.UserRepository) {
				userRepo.On("FindByID", ctx, mock.AnythingOfType("*gorm.DB"), userID).
					Return(&model.User{UserID: userID, Name: "Teszt Elek"}, nil).Once()
			},
			wantErr: nil,
		},
		{
			name: "異常系: ユーザーが存在しない",
			setupMock: func(userRepo *mocks.UserRepository) {
				userRepo.On("FindByID", ctx, mock.AnythingOfType("*gorm.DB"), userID).
					Return(nil, model.ErrNotFound).Once()
			},
			wantErr: model.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := setupTestDB(t)
			mockUserRepo := new(mocks.UserRepository)
			tt.setupMock(mockUserRepo)
			authService := NewAuthService(db, mockUserRepo, testAppConfig())

			user, err := authService.GetUser(ctx, userID)

			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, userID, user.UserID)
			}
			mockUserRepo.AssertExpectations(t)
		})
	}
}
