package model

import (
	"fmt"
	"time"
)

// MeetingMinutes is the ORM model for one ingested minutes document. The
// meeting date is unique: uploading a document for an existing date reuses
// the same record and replaces its vectors.
type MeetingMinutes struct {
	ID               uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	MeetingDate      time.Time `gorm:"type:date;not null;uniqueIndex" json:"meetingDate"`
	FileName         string    `gorm:"type:varchar(255);not null" json:"fileName"`
	Summary          string    `gorm:"type:text" json:"summary"`
	ChunkCount       int       `gorm:"not null;default:0" json:"chunkCount"`
	UploadedBy       uint      `gorm:"not null" json:"uploadedBy"`
	UploadedAt       time.Time `gorm:"autoCreateTime" json:"uploadedAt"`
	QdrantCollection string    `gorm:"type:varchar(64);not null;default:''" json:"-"`
	ObjectPath       string    `gorm:"type:varchar(512)" json:"-"`
}

// TableName specifies the database table for this model.
func (MeetingMinutes) TableName() string {
	return "meeting_minutes"
}

// Namespace derives the vector-store namespace recorded for a meeting id.
func Namespace(meetingID uint) string {
	return fmt.Sprintf("meeting_%d", meetingID)
}
