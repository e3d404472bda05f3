//go:generate mockery --name SessionRepository --output ./mocks --outpkg mocks --case=underscore
package repository

import (
	"context"
	"fmt"

	"magyar_vizsga_trainer/internal/middleware"
	"magyar_vizsga_trainer/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SessionRepository は完了済みセッションの追記専用ログを担います
type SessionRepository interface {
	Create(ctx context.Context, tx *gorm.DB, session *model.Session) error
	FindByUser(ctx context.Context, db *gorm.DB, userID uuid.UUID) ([]*model.Session, error)
	FindRecentByMode(ctx context.Context, db *gorm.DB, userID uuid.UUID, mode model.Mode, limit int) ([]*model.Session, error)
}

type gormSessionRepository struct{}

func NewGormSessionRepository() SessionRepository {
	return &gormSessionRepository{}
}

func (r *gormSessionRepository) Create(ctx context.Context, tx *gorm.DB, session *model.Session) error {
	logger := middleware.GetLogger(ctx)
	result := tx.WithContext(ctx).Create(session)
	if result.Error != nil {
		logger.Error("Error creating session log in DB",
			"error", result.Error,
			"user_id", session.UserID.String(),
			"mode", string(session.Mode),
		)
		return fmt.Errorf("gormSessionRepository.Create: %w", result.Error)
	}
	return nil
}

func (r *gormSessionRepository) FindByUser(ctx context.Context, db *gorm.DB, userID uuid.UUID) ([]*model.Session, error) {
	logger := middleware.GetLogger(ctx)
	var sessions []*model.Session
	result := db.WithContext(ctx).Where("user_id = ?", userID).Order("recorded_at DESC").Find(&sessions)
	if result.Error != nil {
		logger.Error("Error finding sessions by user in DB", "error", result.Error, "user_id", userID.String())
		return nil, fmt.Errorf("gormSessionRepository.FindByUser: %w", result.Error)
	}
	return sessions, nil
}

func (r *gormSessionRepository) FindRecentByMode(ctx context.Context, db *gorm.DB, userID uuid.UUID, mode model.Mode, limit int) ([]*model.Session, error) {
	logger := middleware.GetLogger(ctx)
	var sessions []*model.Session
	result := db.WithContext(ctx).
		Where("user_id = ? AND mode = ?", userID, mode).
		Order("recorded_at DESC").
		Limit(limit).
		Find(&sessions)
	if result.Error != nil {
		logger.Error("Error finding sessions by mode in DB",
			"error", result.Error,
			"user_id", userID.String(),
			"mode", string(mode),
		)
		return nil, fmt.Errorf("gormSessionRepository.FindRecentByMode: %w", result.Error)
	}
	return sessions, nil
}
