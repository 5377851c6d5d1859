package models

import "time"

// Represents one governor admission decision
type UsageRecord struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Timestamp time.Time `gorm:"index" json:"timestamp"`
	SessionID string    `gorm:"index" json:"session_id"`
	Tier      string    `gorm:"index" json:"tier"`
	Provider  string    `json:"provider,omitempty"`
	Model     string    `json:"model,omitempty"`
	Tokens    int64     `json:"tokens"`
	Admitted  bool      `gorm:"index" json:"admitted"`
	Dimension string    `json:"dimension,omitempty"`
}

func (UsageRecord) TableName() string {
	return "usage_records"
}
