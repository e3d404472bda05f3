//go:generate mockery --name AuthService --output ./mocks --outpkg mocks --case=underscore
package service

import (
	"context"
	"errors"
	"time"

	"magyar_vizsga_trainer/internal/config"
	"magyar_vizsga_trainer/internal/middleware"
	"magyar_vizsga_trainer/internal/model"
	"magyar_vizsga_trainer/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AuthService はアカウント登録・認証を担います
type AuthService interface {
	Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error)
	Login(ctx context.Context, req *model.LoginRequest) (*model.LoginResponse, error)
	GetUser(ctx context.Context, userID uuid.UUID) (*model.User, error)
}

type authService struct {
	db       *gorm.DB
	userRepo repository.UserRepository
	cfg      *config.Config
}

func NewAuthService(db *gorm.DB, userRepo repository.UserRepository, cfg *config.Config) AuthService {
	return &authService{
		db:       db,
		userRepo: userRepo,
		cfg:      cfg,
	}
}

// Register は新しいユーザーを登録します
func (s *authService) Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error) {
	logger := middleware.GetLogger(ctx)

	// Emailでの重複チェック
	_, err := s.userRepo.FindByEmail(ctx, s.db, req.Email)
	if err == nil {
		logger.Warn("Email already exists", "email", req.Email)
		return nil, model.NewAppError("DUPLICATE_EMAIL", "This email address is already registered.", "email", model.ErrConflict)
	}
	if !errors.Is(err, model.ErrNotFound) {
		logger.Error("Failed to check email existence", "error", err)
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "An internal server error occurred.", "", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		logger.Error("Failed to hash password", "error", err)
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "Failed to process the password.", "", err)
	}

	user := &model.User{
		UserID:       uuid.New(),
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hashedPassword),
	}

	if err := s.userRepo.Create(ctx, s.db, user); err != nil {
		// レースコンディションでUNIQUE制約に当たった場合
		if errors.Is(err, model.ErrConflict) {
			logger.Warn("Conflict during user creation (race condition)", "email", req.Email)
			return nil, model.NewAppError("DUPLICATE_EMAIL", "This email address is already registered.", "email", model.ErrConflict)
		}
		logger.Error("Failed to create user in DB", "error", err)
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "Failed to create the account.", "", err)
	}

	logger.Info("User registered", "user_id", user.UserID, "email", user.Email)
	return user, nil
}

// Login はユーザーを認証し、JWTを返します
func (s *authService) Login(ctx context.Context, req *model.LoginRequest) (*model.LoginResponse, error) {
	logger := middleware.GetLogger(ctx).With("email", req.Email)

	user, err := s.userRepo.FindByEmail(ctx, s.db, req.Email)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			logger.Warn("Login failed: user not found")
			return nil, model.NewAppError("AUTHENTICATION_FAILED", "Invalid email address or password.", "", model.ErrInvalidInput)
		}
		logger.Error("Login failed: db error on FindByEmail", "error", err)
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "An internal server error occurred.", "", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		logger.Warn("Login failed: password mismatch", "user_id", user.UserID)
		return nil, model.NewAppError("AUTHENTICATION_FAILED", "Invalid email address or password.", "", model.ErrInvalidInput)
	}

	claims := &jwt.RegisteredClaims{
		Issuer:    config.AppName,
		Subject:   user.UserID.String(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Duration(s.cfg.Auth.TokenTTLHours) * time.Hour)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString([]byte(s.cfg.Auth.SecretKey))
	if err != nil {
		logger.Error("Failed to sign JWT", "error", err, "user_id", user.UserID)
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "Failed to issue the token.", "", err)
	}

	logger.Info("Login successful", "user_id", user.UserID)
	return &model.LoginResponse{AccessToken: signedToken}, nil
}

// GetUser は指定されたIDのユーザーを取得します
func (s *authService) GetUser(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	logger := middleware.GetLogger(ctx)
	user, err := s.userRepo.FindByID(ctx, s.db, userID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			logger.Warn("User not found", "user_id", userID.String())
			return nil, model.NewAppError("USER_NOT_FOUND", "The user does not exist.", "", model.ErrNotFound)
		}
		logger.Error("Error finding user by ID", "error", err)
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "An internal server error occurred.", "", err)
	}
	return user, nil
}
