//go:generate mockery --name SRSRepository --output ./mocks --outpkg mocks --case=underscore
package repository

import (
	"context"
	"fmt"

	"magyar_vizsga_trainer/internal/middleware"
	"magyar_vizsga_trainer/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SRSRepository は復習スケジュールカードの永続化を担います
type SRSRepository interface {
	FindByUser(ctx context.Context, db *gorm.DB, userID uuid.UUID) ([]*model.SRSCard, error)
	Save(ctx context.Context, tx *gorm.DB, card *model.SRSCard) error
}

type gormSRSRepository struct{}

func NewGormSRSRepository() SRSRepository {
	return &gormSRSRepository{}
}

func (r *gormSRSRepository) FindByUser(ctx context.Context, db *gorm.DB, userID uuid.UUID) ([]*model.SRSCard, error) {
	logger := middleware.GetLogger(ctx)
	var cards []*model.SRSCard
	result := db.WithContext(ctx).Where("user_id = ?", userID).Find(&cards)
	if result.Error != nil {
		logger.Error("Error finding SRS cards by user in DB", "error", result.Error, "user_id", userID.String())
		return nil, fmt.Errorf("gormSRSRepository.FindByUser: %w", result.Error)
	}
	return cards, nil
}

func (r *gormSRSRepository) Save(ctx context.Context, tx *gorm.DB, card *model.SRSCard) error {
	logger := middleware.GetLogger(ctx)
	result := tx.WithContext(ctx).Save(card)
	if result.Error != nil {
		logger.Error("Error saving SRS card in DB",
			"error", result.Error,
			"user_id", card.UserID.String(),
			"question_id", card.QuestionID,
		)
		return fmt.Errorf("gormSRSRepository.Save: %w", result.Error)
	}
	return nil
}
