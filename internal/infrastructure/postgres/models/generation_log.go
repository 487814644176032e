package models

import "time"

type GenerationLogModel struct {
	ID            uint   `gorm:"primaryKey"`
	DisputeID     string `gorm:"index;not null"`
	Outcome       string `gorm:"not null"`
	InputRevision int64
	DurationMs    int64
	Error         string
	CreatedAt     time.Time `gorm:"autoCreateTime"`
}

func (GenerationLogModel) TableName() string {
	return "proposal_generation_logs"
}
