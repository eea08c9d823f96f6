package store

import (
	"errors"
	"time"

	"github.com/AFlo59/CompareModelPoc-sub000/internal/models"
	apperrors "github.com/AFlo59/CompareModelPoc-sub000/pkg/errors"

	"gorm.io/gorm"
)

// defaultMessageLimit caps a history read when the caller passes no limit.
const defaultMessageLimit = 50

// StoreMessage appends one turn to the message log and, when a campaign is
// set, bumps its updated_at to the message timestamp in the same
// transaction. Write-through logging never fails the caller: on storage
// errors it logs and returns the 0 sentinel.
func (s *Store) StoreMessage(userID uint, role, content string, campaignID, characterID *uint) uint {
	if !models.ValidRole(role) || content == "" {
		s.log.Warn("dropping invalid message", "user_id", userID, "role", role)
		return 0
	}

	message := models.Message{
		UserID:      userID,
		CampaignID:  campaignID,
		CharacterID: characterID,
		Role:        role,
		Content:     content,
		Timestamp:   time.Now(),
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&message).Error; err != nil {
			return err
		}
		if campaignID != nil {
			return tx.Model(&models.Campaign{}).
				Where("id = ?", *campaignID).
				Update("updated_at", message.Timestamp).Error
		}
		return nil
	})
	if err != nil {
		s.log.Error("failed to store message", "user_id", userID, "role", role, "error", err)
		return 0
	}

	// message_count and last_activity changed.
	s.cacheDelete(keyUserCampaigns(userID))
	return message.ID
}

// GetCampaignMessages returns the last limit turns of a campaign in
// ascending timestamp order, ids breaking ties. A nil campaign selects the
// user's most recently updated active campaign.
func (s *Store) GetCampaignMessages(userID uint, campaignID *uint, limit int) ([]models.Message, error) {
	if limit <= 0 {
		limit = defaultMessageLimit
	}

	if campaignID == nil {
		var campaign models.Campaign
		err := s.db.Select("id").
			Where("user_id = ? AND is_active = ?", userID, true).
			Order("updated_at DESC").
			First(&campaign).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return []models.Message{}, nil
			}
			return nil, apperrors.NewStorageError(err.Error())
		}
		campaignID = &campaign.ID
	}

	var messages []models.Message
	err := s.db.Where("user_id = ? AND campaign_id = ?", userID, *campaignID).
		Order("timestamp DESC").Order("id DESC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, apperrors.NewStorageError(err.Error())
	}

	// The window is taken from the tail of the log; flip it back to
	// ascending order.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// CountCampaignMessages reports the size of a campaign's message log.
func (s *Store) CountCampaignMessages(campaignID uint) (int64, error) {
	var count int64
	err := s.db.Model(&models.Message{}).Where("campaign_id = ?", campaignID).Count(&count).Error
	if err != nil {
		return 0, apperrors.NewStorageError(err.Error())
	}
	return count, nil
}
