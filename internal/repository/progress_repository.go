//go:generate mockery --name ProgressRepository --output ./mocks --outpkg mocks --case=underscore
package repository

import (
	"context"
	"fmt"

	"magyar_vizsga_trainer/internal/middleware"
	"magyar_vizsga_trainer/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProgressRepository は(ユーザー, 設問)単位の解答履歴の永続化を担います
type ProgressRepository interface {
	FindByUser(ctx context.Context, db *gorm.DB, userID uuid.UUID) ([]*model.QuestionProgress, error)
	Save(ctx context.Context, tx *gorm.DB, progress *model.QuestionProgress) error
	FindLeeches(ctx context.Context, db *gorm.DB, userID uuid.UUID) ([]*model.QuestionProgress, error)
}

type gormProgressRepository struct{}

func NewGormProgressRepository() ProgressRepository {
	return &gormProgressRepository{}
}

func (r *gormProgressRepository) FindByUser(ctx context.Context, db *gorm.DB, userID uuid.UUID) ([]*model.QuestionProgress, error) {
	logger := middleware.GetLogger(ctx)
	var records []*model.QuestionProgress
	result := db.WithContext(ctx).Where("user_id = ?", userID).Find(&records)
	if result.Error != nil {
		logger.Error("Error finding progress by user in DB", "error", result.Error, "user_id", userID.String())
		return nil, fmt.Errorf("gormProgressRepository.FindByUser: %w", result.Error)
	}
	return records, nil
}

func (r *gormProgressRepository) Save(ctx context.Context, tx *gorm.DB, progress *model.QuestionProgress) error {
	logger := middleware.GetLogger(ctx)
	// 主キーはService層で設定済み想定。Saveで insert or update。
	result := tx.WithContext(ctx).Save(progress)
	if result.Error != nil {
		logger.Error("Error saving progress in DB",
			"error", result.Error,
			"user_id", progress.UserID.String(),
			"question_id", progress.QuestionID,
		)
		return fmt.Errorf("gormProgressRepository.Save: %w", result.Error)
	}
	return nil
}

func (r *gormProgressRepository) FindLeeches(ctx context.Context, db *gorm.DB, userID uuid.UUID) ([]*model.QuestionProgress, error) {
	logger := middleware.GetLogger(ctx)
	var records []*model.QuestionProgress
	result := db.WithContext(ctx).
		Where("user_id = ? AND is_leech = ?", userID, true).
		Order("consecutive_wrong DESC").
		Find(&records)
	if result.Error != nil {
		logger.Error("Error finding leeches in DB", "error", result.Error, "user_id", userID.String())
		return nil, fmt.Errorf("gormProgressRepository.FindLeeches: %w", result.Error)
	}
	return records, nil
}
