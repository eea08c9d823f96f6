package store

import (
	"errors"
	"strings"

	"github.com/AFlo59/CompareModelPoc-sub000/internal/models"
	apperrors "github.com/AFlo59/CompareModelPoc-sub000/pkg/errors"

	"gorm.io/gorm"
)

// CreateCharacter creates a character for the user. A campaign link, when
// given, must reference one of the user's own campaigns.
func (s *Store) CreateCharacter(userID uint, req *models.CreateCharacterRequest) (*models.Character, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, apperrors.NewInvalidInputError("character name must not be empty")
	}
	level := req.Level
	if level <= 0 {
		level = 1
	}

	if req.CampaignID != nil {
		if _, err := s.GetCampaign(userID, *req.CampaignID); err != nil {
			return nil, err
		}
	}

	character := models.Character{
		UserID:      userID,
		CampaignID:  req.CampaignID,
		Name:        strings.TrimSpace(req.Name),
		Class:       req.Class,
		Race:        req.Race,
		Gender:      req.Gender,
		Level:       level,
		Description: req.Description,
		IsActive:    true,
	}
	if err := s.db.Create(&character).Error; err != nil {
		return nil, apperrors.NewStorageError(err.Error())
	}

	s.cacheDelete(keyUserCharacters(userID))
	return &character, nil
}

// GetCharacter loads one active character owned by the user.
func (s *Store) GetCharacter(userID, characterID uint) (*models.Character, error) {
	var character models.Character
	err := s.db.Where("id = ? AND user_id = ? AND is_active = ?", characterID, userID, true).First(&character).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError("character not found")
		}
		return nil, apperrors.NewStorageError(err.Error())
	}
	return &character, nil
}

// GetUserCharacters lists the user's active characters, newest first.
// Cached.
func (s *Store) GetUserCharacters(userID uint) ([]models.Character, error) {
	key := keyUserCharacters(userID)
	if cached, ok := s.cacheGet(key); ok {
		return cached.([]models.Character), nil
	}

	var characters []models.Character
	err := s.db.Where("user_id = ? AND is_active = ?", userID, true).
		Order("created_at DESC").
		Find(&characters).Error
	if err != nil {
		return nil, apperrors.NewStorageError(err.Error())
	}
	if characters == nil {
		characters = []models.Character{}
	}

	s.cacheSet(key, characters)
	return characters, nil
}

// UpdateCharacterPortrait sets the portrait reference. Returns false when
// the character does not exist.
func (s *Store) UpdateCharacterPortrait(characterID uint, url string) (bool, error) {
	var character models.Character
	err := s.db.Select("id", "user_id").Where("id = ?", characterID).First(&character).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, apperrors.NewStorageError(err.Error())
	}

	if err := s.db.Model(&character).Update("portrait_url", url).Error; err != nil {
		return false, apperrors.NewStorageError(err.Error())
	}

	s.cacheDelete(keyUserCharacters(character.UserID))
	return true, nil
}

// DeactivateCharacter soft-deletes a character owned by the user.
func (s *Store) DeactivateCharacter(userID, characterID uint) error {
	res := s.db.Model(&models.Character{}).
		Where("id = ? AND user_id = ?", characterID, userID).
		Update("is_active", false)
	if res.Error != nil {
		return apperrors.NewStorageError(res.Error.Error())
	}
	if res.RowsAffected == 0 {
		return apperrors.NewNotFoundError("character not found")
	}

	s.cacheDelete(keyUserCharacters(userID))
	return nil
}
