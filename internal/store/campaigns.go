package store

import (
	"errors"
	"strings"
	"time"

	"github.com/AFlo59/CompareModelPoc-sub000/internal/models"
	apperrors "github.com/AFlo59/CompareModelPoc-sub000/pkg/errors"

	"gorm.io/gorm"
)

// CreateCampaign creates a campaign for the user. Themes keep their
// supplied order.
func (s *Store) CreateCampaign(userID uint, req *models.CreateCampaignRequest) (*models.Campaign, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, apperrors.NewInvalidInputError("campaign name must not be empty")
	}

	campaign := models.Campaign{
		UserID:   userID,
		Name:     strings.TrimSpace(req.Name),
		Themes:   strings.Join(req.Themes, ", "),
		Language: req.Language,
		AIModel:  req.AIModel,
		IsActive: true,
	}
	if campaign.Language == "" {
		campaign.Language = "en"
	}
	if campaign.AIModel == "" {
		campaign.AIModel = "GPT-4o"
	}

	if err := s.db.Create(&campaign).Error; err != nil {
		return nil, apperrors.NewStorageError(err.Error())
	}

	s.cacheDelete(keyUserCampaigns(userID))
	return &campaign, nil
}

// GetCampaign loads one active campaign owned by the user.
func (s *Store) GetCampaign(userID, campaignID uint) (*models.Campaign, error) {
	var campaign models.Campaign
	err := s.db.Where("id = ? AND user_id = ? AND is_active = ?", campaignID, userID, true).First(&campaign).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError("campaign not found")
		}
		return nil, apperrors.NewStorageError(err.Error())
	}
	return &campaign, nil
}

// GetUserCampaigns lists the user's active campaigns with message counts
// and last activity, most recently updated first. One JOIN with GROUP BY;
// never one query per campaign. Cached.
func (s *Store) GetUserCampaigns(userID uint) ([]models.CampaignSummary, error) {
	key := keyUserCampaigns(userID)
	if cached, ok := s.cacheGet(key); ok {
		return cached.([]models.CampaignSummary), nil
	}

	var summaries []models.CampaignSummary
	err := s.db.Model(&models.Campaign{}).
		Select("campaigns.id, campaigns.name, campaigns.themes, campaigns.language, campaigns.ai_model, campaigns.gm_portrait, campaigns.created_at, campaigns.updated_at, COUNT(messages.id) AS message_count, MAX(messages.timestamp) AS last_activity").
		Joins("LEFT JOIN messages ON messages.campaign_id = campaigns.id").
		Where("campaigns.user_id = ? AND campaigns.is_active = ?", userID, true).
		Group("campaigns.id").
		Order("campaigns.updated_at DESC").
		Scan(&summaries).Error
	if err != nil {
		return nil, apperrors.NewStorageError(err.Error())
	}
	if summaries == nil {
		summaries = []models.CampaignSummary{}
	}

	s.cacheSet(key, summaries)
	return summaries, nil
}

// UpdateCampaignPortrait sets the GM portrait reference. Returns false when
// the campaign does not exist.
func (s *Store) UpdateCampaignPortrait(campaignID uint, url string) (bool, error) {
	var campaign models.Campaign
	err := s.db.Select("id", "user_id").Where("id = ?", campaignID).First(&campaign).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, apperrors.NewStorageError(err.Error())
	}

	if err := s.db.Model(&campaign).Update("gm_portrait", url).Error; err != nil {
		return false, apperrors.NewStorageError(err.Error())
	}

	s.cacheDelete(keyUserCampaigns(campaign.UserID))
	return true, nil
}

// UpdateCampaignTimestamp bumps updated_at, which orders the campaign list
// and drives "most recent campaign" resolution.
func (s *Store) UpdateCampaignTimestamp(campaignID uint, at time.Time) error {
	res := s.db.Model(&models.Campaign{}).Where("id = ?", campaignID).Update("updated_at", at)
	if res.Error != nil {
		return apperrors.NewStorageError(res.Error.Error())
	}
	if res.RowsAffected == 0 {
		return apperrors.NewNotFoundError("campaign not found")
	}
	return nil
}

// DeactivateCampaign soft-deletes a campaign owned by the user and nulls
// the weak references from its characters.
func (s *Store) DeactivateCampaign(userID, campaignID uint) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Campaign{}).
			Where("id = ? AND user_id = ?", campaignID, userID).
			Update("is_active", false)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Model(&models.Character{}).
			Where("campaign_id = ?", campaignID).
			Update("campaign_id", nil).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NewNotFoundError("campaign not found")
		}
		return apperrors.NewStorageError(err.Error())
	}

	s.cacheDelete(keyUserCampaigns(userID), keyUserCharacters(userID))
	return nil
}
