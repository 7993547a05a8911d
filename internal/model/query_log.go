package model

import "time"

// Query outcomes recorded in the audit log.
const (
	QueryStatusAnswered        = "answered"
	QueryStatusNoData          = "no_data"
	QueryStatusNoMatch         = "no_match"
	QueryStatusGenerationError = "generation_error"
)

// QueryLog is the ORM model for one user query and its outcome.
type QueryLog struct {
	ID                 uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID             uint       `gorm:"not null;index" json:"userId"`
	Query              string     `gorm:"type:text;not null" json:"query"`
	Status             string     `gorm:"type:varchar(32);not null" json:"status"`
	MeetingDateQueried *time.Time `gorm:"type:date" json:"meetingDateQueried"`
	Timestamp          time.Time  `gorm:"autoCreateTime;index" json:"timestamp"`
}

// TableName specifies the database table for this model.
func (QueryLog) TableName() string {
	return "query_logs"
}
