package store

import (
	"errors"

	"github.com/AFlo59/CompareModelPoc-sub000/internal/models"
	apperrors "github.com/AFlo59/CompareModelPoc-sub000/pkg/errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SaveModelChoice upserts the user's preferred chat model. At most one row
// per user.
func (s *Store) SaveModelChoice(userID uint, modelName string) error {
	if modelName == "" {
		return apperrors.NewInvalidInputError("model name must not be empty")
	}

	choice := models.ModelChoice{UserID: userID, ModelName: modelName}
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"model_name", "updated_at"}),
	}).Create(&choice).Error
	if err != nil {
		return apperrors.NewStorageError(err.Error())
	}

	s.cacheDelete(keyModelChoice(userID))
	return nil
}

// GetModelChoice returns the user's saved model preference, or an empty
// string when none exists. Cached.
func (s *Store) GetModelChoice(userID uint) (string, error) {
	key := keyModelChoice(userID)
	if cached, ok := s.cacheGet(key); ok {
		return cached.(string), nil
	}

	var choice models.ModelChoice
	err := s.db.Where("user_id = ?", userID).First(&choice).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.cacheSet(key, "")
			return "", nil
		}
		return "", apperrors.NewStorageError(err.Error())
	}

	s.cacheSet(key, choice.ModelName)
	return choice.ModelName, nil
}
