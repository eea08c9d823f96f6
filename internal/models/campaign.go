package models

import (
	"strings"
	"time"
)

// Campaign is a persistent narrative container owned by a user. It holds the
// message history and the preferred chat model for its GM.
type Campaign struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index:idx_campaigns_user,priority:1;not null" json:"user_id"`
	Name      string    `gorm:"not null" json:"name"`
	Themes    string    `json:"themes"` // comma-separated, order preserved
	Language  string    `gorm:"default:en" json:"language"`
	AIModel   string    `gorm:"column:ai_model;default:GPT-4o" json:"ai_model"`
	GMPortrait string   `gorm:"column:gm_portrait" json:"gm_portrait,omitempty"`
	IsActive  bool      `gorm:"default:true;index:idx_campaigns_user,priority:2" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `gorm:"index:idx_campaigns_user,priority:3" json:"updated_at"`
}

// ThemeList splits the stored themes into an ordered slice.
func (c *Campaign) ThemeList() []string {
	if c.Themes == "" {
		return nil
	}
	parts := strings.Split(c.Themes, ",")
	themes := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			themes = append(themes, t)
		}
	}
	return themes
}

// CreateCampaignRequest is the request structure for creating a campaign
type CreateCampaignRequest struct {
	Name     string   `json:"name" binding:"required"`
	Themes   []string `json:"themes"`
	Language string   `json:"language"`
	AIModel  string   `json:"ai_model"`
}

// CampaignSummary is a campaign joined with its message activity, as
// returned by campaign list reads.
type CampaignSummary struct {
	ID           uint       `json:"id"`
	Name         string     `json:"name"`
	Themes       string     `json:"themes"`
	Language     string     `json:"language"`
	AIModel      string     `json:"ai_model"`
	GMPortrait   string     `json:"gm_portrait,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	MessageCount int64      `json:"message_count"`
	LastActivity *time.Time `json:"last_activity,omitempty"`
}
