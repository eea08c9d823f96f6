package models

import "time"

// Message roles
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ValidRole reports whether role is one of the accepted message roles.
func ValidRole(role string) bool {
	switch role {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	}
	return false
}

// Message is one turn of a campaign dialogue. The message log is
// append-only: rows are inserted by the orchestrator and never mutated.
type Message struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"index:idx_messages_campaign,priority:1;not null" json:"user_id"`
	CampaignID  *uint     `gorm:"index:idx_messages_campaign,priority:2" json:"campaign_id,omitempty"`
	CharacterID *uint     `json:"character_id,omitempty"`
	Role        string    `gorm:"not null;index:idx_messages_campaign,priority:4" json:"role"`
	Content     string    `gorm:"not null" json:"content"`
	Timestamp   time.Time `gorm:"index:idx_messages_campaign,priority:3" json:"timestamp"`
	CreatedAt   time.Time `json:"created_at"`
}

// PerformanceLog records one provider invocation end to end: resolved model
// display name, wall-clock latency and token usage. Append-only.
type PerformanceLog struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"index:idx_perf_user,priority:1;not null" json:"user_id"`
	CampaignID   *uint     `gorm:"index:idx_perf_user,priority:2" json:"campaign_id,omitempty"`
	Model        string    `gorm:"not null;index:idx_perf_user,priority:3" json:"model"`
	Latency      float64   `gorm:"column:latency_seconds" json:"latency_seconds"`
	TokensIn     int       `json:"tokens_in"`
	TokensOut    int       `json:"tokens_out"`
	CostEstimate float64   `json:"cost_estimate"`
	Timestamp    time.Time `gorm:"index:idx_perf_user,priority:4" json:"timestamp"`
}
