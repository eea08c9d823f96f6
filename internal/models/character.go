package models

import "time"

// Character is a player-controlled role, optionally tied to a campaign.
// The campaign link is a weak reference: deleting the campaign nulls it
// while the character survives.
type Character struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"index:idx_characters_user,priority:1;not null" json:"user_id"`
	CampaignID  *uint     `gorm:"index:idx_characters_user,priority:2" json:"campaign_id,omitempty"`
	Name        string    `gorm:"not null" json:"name"`
	Class       string    `json:"class"`
	Race        string    `json:"race"`
	Gender      string    `json:"gender"`
	Level       int       `gorm:"default:1" json:"level"`
	Description string    `json:"description"`
	PortraitURL string    `json:"portrait_url,omitempty"`
	IsActive    bool      `gorm:"default:true;index:idx_characters_user,priority:3" json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CreateCharacterRequest is the request structure for creating a character
type CreateCharacterRequest struct {
	Name        string `json:"name" binding:"required"`
	Class       string `json:"class"`
	Race        string `json:"race"`
	Gender      string `json:"gender"`
	Level       int    `json:"level"`
	Description string `json:"description"`
	CampaignID  *uint  `json:"campaign_id"`
}
