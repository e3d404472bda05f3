package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"

	"magyar_vizsga_trainer/internal/middleware"
	"magyar_vizsga_trainer/internal/model"
	"magyar_vizsga_trainer/internal/repository"

	"gorm.io/gorm"
)

// QuestionService は出題カタログの管理を担います
type QuestionService interface {
	ListQuestions(ctx context.Context, topic *int) ([]model.Question, error)
	GetQuestion(ctx context.Context, questionID string) (*model.Question, error)
	CreateQuestion(ctx context.Context, req *model.PostQuestionRequest) (*model.Question, error)
	UpdateQuestion(ctx context.Context, questionID string, req *model.PutQuestionRequest) (*model.Question, error)
	DeleteQuestion(ctx context.Context, questionID string) error
	ImportCatalog(ctx context.Context, r io.Reader) (*ImportResult, error)
}

// ImportResult はカタログ一括投入の結果サマリです
type ImportResult struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

type questionService struct {
	db    *gorm.DB
	qRepo repository.QuestionRepository
}

func NewQuestionService(db *gorm.DB, qRepo repository.QuestionRepository) QuestionService {
	return &questionService{db: db, qRepo: qRepo}
}

func (s *questionService) ListQuestions(ctx context.Context, topic *int) ([]model.Question, error) {
	logger := middleware.GetLogger(ctx)

	var questions []model.Question
	var err error
	if topic != nil {
		questions, err = s.qRepo.FindByTopic(ctx, s.db, *topic)
	} else {
		questions, err = s.qRepo.FindAll(ctx, s.db)
	}
	if err != nil {
		logger.Error("Failed to list questions", "error", err)
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "Failed to load the question catalog.", "", err)
	}
	return questions, nil
}

func (s *questionService) GetQuestion(ctx context.Context, questionID string) (*model.Question, error) {
	logger := middleware.GetLogger(ctx)

	question, err := s.qRepo.FindByID(ctx, s.db, questionID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, model.NewAppError("QUESTION_NOT_FOUND", "The question does not exist.", "", model.ErrNotFound)
		}
		logger.Error("Failed to get question", "error", err, "question_id", questionID)
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "Failed to load the question.", "", err)
	}
	return question, nil
}

func (s *questionService) CreateQuestion(ctx context.Context, req *model.PostQuestionRequest) (*model.Question, error) {
	logger := middleware.GetLogger(ctx)

	question := &model.Question{
		QuestionID: model.QuestionIDFor(req.QuestionHU),
		QuestionHU: req.QuestionHU,
		QuestionEN: req.QuestionEN,
		AnswerHU:   req.AnswerHU,
		AnswerEN:   req.AnswerEN,
		Topic:      req.Topic,
		Difficulty: model.Difficulty(req.Difficulty),
		Keywords:   model.KeywordList(req.Keywords),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.qRepo.Create(ctx, tx, question); err != nil {
			if errors.Is(err, model.ErrConflict) {
				return model.NewAppError("DUPLICATE_QUESTION", "A question with the same text already exists.", "question_hu", model.ErrConflict)
			}
			return model.NewAppError("INTERNAL_SERVER_ERROR", "Failed to create the question.", "", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Question created", "question_id", question.QuestionID, "topic", question.Topic)
	return question, nil
}

// UpdateQuestion は設問を置き換えます。
// 設問文（QuestionHU）が変わるとIDの導出元も変わるため、旧レコードを
// 削除して新IDで作り直す。過去の進捗・SRSカードは旧IDに紐づいたまま
// 残り、新IDの設問は未挑戦として扱われる。
func (s *questionService) UpdateQuestion(ctx context.Context, questionID string, req *model.PutQuestionRequest) (*model.Question, error) {
	logger := middleware.GetLogger(ctx)

	var updated *model.Question
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.qRepo.FindByID(ctx, tx, questionID)
		if err != nil {
			if errors.Is(err, model.ErrNotFound) {
				return model.NewAppError("QUESTION_NOT_FOUND", "The question does not exist.", "", model.ErrNotFound)
			}
			return model.NewAppError("INTERNAL_SERVER_ERROR", "Failed to load the question.", "", err)
		}

		newID := model.QuestionIDFor(req.QuestionHU)
		question := &model.Question{
			QuestionID: newID,
			QuestionHU: req.QuestionHU,
			QuestionEN: req.QuestionEN,
			AnswerHU:   req.AnswerHU,
			AnswerEN:   req.AnswerEN,
			Topic:      req.Topic,
			Difficulty: model.Difficulty(req.Difficulty),
			Keywords:   model.KeywordList(req.Keywords),
			CreatedAt:  existing.CreatedAt,
		}

		if newID == questionID {
			if err := s.qRepo.Update(ctx, tx, question); err != nil {
				return model.NewAppError("INTERNAL_SERVER_ERROR", "Failed to update the question.", "", err)
			}
		} else {
			logger.Info("Question text changed, re-creating under new identity",
				"old_question_id", questionID, "new_question_id", newID)
			if err := s.qRepo.Delete(ctx, tx, questionID); err != nil {
				return model.NewAppError("INTERNAL_SERVER_ERROR", "Failed to update the question.", "", err)
			}
			if err := s.qRepo.Create(ctx, tx, question); err != nil {
				if errors.Is(err, model.ErrConflict) {
					return model.NewAppError("DUPLICATE_QUESTION", "A question with the same text already exists.", "question_hu", model.ErrConflict)
				}
				return model.NewAppError("INTERNAL_SERVER_ERROR", "Failed to update the question.", "", err)
			}
		}
		updated = question
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

func (s *questionService) DeleteQuestion(ctx context.Context, questionID string) error {
	logger := middleware.GetLogger(ctx)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.qRepo.Delete(ctx, tx, questionID); err != nil {
			if errors.Is(err, model.ErrNotFound) {
				return model.NewAppError("QUESTION_NOT_FOUND", "The question does not exist.", "", model.ErrNotFound)
			}
			return model.NewAppError("INTERNAL_SERVER_ERROR", "Failed to delete the question.", "", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info("Question deleted", "question_id", questionID)
	return nil
}

// catalogRecord はシードJSONの1件分。フィールド名は元カタログの形式に合わせる。
type catalogRecord struct {
	QuestionHU string   `json:"question_hu"`
	QuestionEN string   `json:"question_en"`
	AnswerHU   string   `json:"answer_hu"`
	AnswerEN   string   `json:"answer_en"`
	Topic      int      `json:"topic"`
	Difficulty string   `json:"difficulty"`
	KeywordsHU []string `json:"keywords_hu"`
}

// ImportCatalog はJSONカタログを一括投入します。
// 必須フィールドの欠けたレコードは警告を出してスキップし、残りは投入する。
// 再実行は冪等（既存IDは上書き）。
func (s *questionService) ImportCatalog(ctx context.Context, r io.Reader) (*ImportResult, error) {
	logger := middleware.GetLogger(ctx)

	var records []catalogRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		logger.Error("Failed to decode catalog JSON", "error", err)
		return nil, model.NewAppError("INVALID_CATALOG", "The catalog file is not valid JSON.", "", model.ErrInvalidInput)
	}

	result := &ImportResult{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i, rec := range records {
			if rec.QuestionHU == "" || rec.AnswerHU == "" || rec.Topic <= 0 {
				logger.Warn("Skipping catalog record with missing required fields",
					"index", i, "question_hu", rec.QuestionHU, "topic", rec.Topic)
				result.Skipped++
				continue
			}
			difficulty := model.Difficulty(rec.Difficulty)
			if !difficulty.IsValid() {
				difficulty = model.DifficultyMedium
			}
			question := &model.Question{
				QuestionID: model.QuestionIDFor(rec.QuestionHU),
				QuestionHU: rec.QuestionHU,
				QuestionEN: rec.QuestionEN,
				AnswerHU:   rec.AnswerHU,
				AnswerEN:   rec.AnswerEN,
				Topic:      rec.Topic,
				Difficulty: difficulty,
				Keywords:   model.KeywordList(rec.KeywordsHU),
			}
			if err := s.qRepo.Upsert(ctx, tx, question); err != nil {
				return model.NewAppError("INTERNAL_SERVER_ERROR", "Failed to import the catalog.", "", err)
			}
			result.Imported++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Catalog imported", "imported", result.Imported, "skipped", result.Skipped)
	return result, nil
}
