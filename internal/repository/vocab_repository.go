//go:generate mockery --name VocabRepository --output ./mocks --outpkg mocks --case=underscore
package repository

import (
	"context"
	"fmt"

	"magyar_vizsga_trainer/internal/middleware"
	"magyar_vizsga_trainer/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// VocabRepository は語彙ドリルのキーワード別成績の永続化を担います
type VocabRepository interface {
	FindByUser(ctx context.Context, db *gorm.DB, userID uuid.UUID) ([]*model.VocabStat, error)
	Save(ctx context.Context, tx *gorm.DB, stat *model.VocabStat) error
}

type gormVocabRepository struct{}

func NewGormVocabRepository() VocabRepository {
	return &gormVocabRepository{}
}

func (r *gormVocabRepository) FindByUser(ctx context.Context, db *gorm.DB, userID uuid.UUID) ([]*model.VocabStat, error) {
	logger := middleware.GetLogger(ctx)
	var stats []*model.VocabStat
	result := db.WithContext(ctx).Where("user_id = ?", userID).Find(&stats)
	if result.Error != nil {
		logger.Error("Error finding vocab stats by user in DB", "error", result.Error, "user_id", userID.String())
		return nil, fmt.Errorf("gormVocabRepository.FindByUser: %w", result.Error)
	}
	return stats, nil
}

func (r *gormVocabRepository) Save(ctx context.Context, tx *gorm.DB, stat *model.VocabStat) error {
	logger := middleware.GetLogger(ctx)
	result := tx.WithContext(ctx).Save(stat)
	if result.Error != nil {
		logger.Error("Error saving vocab stat in DB",
			"error", result.Error,
			"user_id", stat.UserID.String(),
			"keyword", stat.Keyword,
		)
		return fmt.Errorf("gormVocabRepository.Save: %w", result.Error)
	}
	return nil
}
