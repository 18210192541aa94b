// Package models defines the persisted database models.
package models

import "time"

// RequestLog records one completed translation request.
type RequestLog struct {
	ID           string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Timestamp    time.Time `gorm:"not null;index:idx_request_logs_timestamp" json:"timestamp"`
	RequestID    string    `gorm:"type:varchar(64);index" json:"request_id"`
	EngineCode   string    `gorm:"type:varchar(64);index" json:"engine_code"`
	TargetLang   string    `gorm:"type:varchar(32)" json:"target_lang"`
	ItemCount    int       `gorm:"not null" json:"item_count"`
	SuccessCount int       `gorm:"not null" json:"success_count"`
	FailedCount  int       `gorm:"not null" json:"failed_count"`
	Duration     int64     `gorm:"not null" json:"duration_ms"`
	Status       string    `gorm:"type:varchar(32);not null" json:"status"`
}

// TableName keeps the table name stable across gorm naming strategies.
func (RequestLog) TableName() string {
	return "request_logs"
}
