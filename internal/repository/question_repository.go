//go:generate mockery --name QuestionRepository --output ./mocks --outpkg mocks --case=underscore
package repository

import (
	"context"
	"errors"
	"fmt"

	"magyar_vizsga_trainer/internal/middleware"
	"magyar_vizsga_trainer/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// QuestionRepository は設問カタログの永続化を担います
type QuestionRepository interface {
	Create(ctx context.Context, tx *gorm.DB, question *model.Question) error
	Upsert(ctx context.Context, tx *gorm.DB, question *model.Question) error
	FindByID(ctx context.Context, db *gorm.DB, questionID string) (*model.Question, error)
	FindAll(ctx context.Context, db *gorm.DB) ([]model.Question, error)
	FindByTopic(ctx context.Context, db *gorm.DB, topic int) ([]model.Question, error)
	Update(ctx context.Context, tx *gorm.DB, question *model.Question) error
	Delete(ctx context.Context, tx *gorm.DB, questionID string) error
}

type gormQuestionRepository struct{}

func NewGormQuestionRepository() QuestionRepository {
	return &gormQuestionRepository{}
}

func (r *gormQuestionRepository) Create(ctx context.Context, tx *gorm.DB, question *model.Question) error {
	logger := middleware.GetLogger(ctx)
	result := tx.WithContext(ctx).Create(question)
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			logger.Warn("Duplicate key error on create question", "question_id", question.QuestionID)
			return model.ErrConflict
		}
		logger.Error("Error creating question in DB", "error", result.Error, "question_id", question.QuestionID)
		return fmt.Errorf("gormQuestionRepository.Create: %w", result.Error)
	}
	return nil
}

func (r *gormQuestionRepository) Upsert(ctx context.Context, tx *gorm.DB, question *model.Question) error {
	logger := middleware.GetLogger(ctx)
	// シードの再投入を冪等にするため、主キー衝突時は内容を上書きする
	result := tx.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "question_id"}},
		UpdateAll: true,
	}).Create(question)
	if result.Error != nil {
		logger.Error("Error upserting question in DB", "error", result.Error, "question_id", question.QuestionID)
		return fmt.Errorf("gormQuestionRepository.Upsert: %w", result.Error)
	}
	return nil
}

func (r *gormQuestionRepository) FindByID(ctx context.Context, db *gorm.DB, questionID string) (*model.Question, error) {
	logger := middleware.GetLogger(ctx)
	var question model.Question
	result := db.WithContext(ctx).Where("question_id = ?", questionID).First(&question)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		logger.Error("Error finding question by ID in DB", "error", result.Error, "question_id", questionID)
		return nil, fmt.Errorf("gormQuestionRepository.FindByID: %w", result.Error)
	}
	return &question, nil
}

func (r *gormQuestionRepository) FindAll(ctx context.Context, db *gorm.DB) ([]model.Question, error) {
	logger := middleware.GetLogger(ctx)
	var questions []model.Question
	result := db.WithContext(ctx).Order("topic ASC, question_id ASC").Find(&questions)
	if result.Error != nil {
		logger.Error("Error finding questions in DB", "error", result.Error)
		return nil, fmt.Errorf("gormQuestionRepository.FindAll: %w", result.Error)
	}
	return questions, nil
}

func (r *gormQuestionRepository) FindByTopic(ctx context.Context, db *gorm.DB, topic int) ([]model.Question, error) {
	logger := middleware.GetLogger(ctx)
	var questions []model.Question
	result := db.WithContext(ctx).Where("topic = ?", topic).Order("question_id ASC").Find(&questions)
	if result.Error != nil {
		logger.Error("Error finding questions by topic in DB", "error", result.Error, "topic", topic)
		return nil, fmt.Errorf("gormQuestionRepository.FindByTopic: %w", result.Error)
	}
	return questions, nil
}

func (r *gormQuestionRepository) Update(ctx context.Context, tx *gorm.DB, question *model.Question) error {
	logger := middleware.GetLogger(ctx)
	result := tx.WithContext(ctx).Save(question)
	if result.Error != nil {
		logger.Error("Error updating question in DB", "error", result.Error, "question_id", question.QuestionID)
		return fmt.Errorf("gormQuestionRepository.Update: %w", result.Error)
	}
	return nil
}

func (r *gormQuestionRepository) Delete(ctx context.Context, tx *gorm.DB, questionID string) error {
	logger := middleware.GetLogger(ctx)
	result := tx.WithContext(ctx).Where("question_id = ?", questionID).Delete(&model.Question{})
	if result.Error != nil {
		logger.Error("Error deleting question in DB", "error", result.Error, "question_id", questionID)
		return fmt.Errorf("gormQuestionRepository.Delete: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return model.ErrNotFound
	}
	return nil
}
