package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/mustafamaahir/Meeting-Minutes/internal/model"
)

// MeetingRepository defines persistence operations for minutes records.
type MeetingRepository interface {
	Create(meeting *model.MeetingMinutes) error
	Update(meeting *model.MeetingMinutes) error
	FindByID(id uint) (*model.MeetingMinutes, error)
	FindByDate(date time.Time) (*model.MeetingMinutes, error)
	// FindAllOrdered returns every meeting, newest meeting date first.
	FindAllOrdered() ([]model.MeetingMinutes, error)
	// FindLatest returns the meeting with the newest meeting date.
	FindLatest() (*model.MeetingMinutes, error)
	Delete(id uint) error
}

// meetingRepository is the GORM implementation of MeetingRepository.
type meetingRepository struct {
	db *gorm.DB
}

// NewMeetingRepository creates a new MeetingRepository instance.
func NewMeetingRepository(db *gorm.DB) MeetingRepository {
	return &meetingRepository{db: db}
}

// Create inserts a new minutes record.
func (r *meetingRepository) Create(meeting *model.MeetingMinutes) error {
	return r.db.Create(meeting).Error
}

// Update saves changes to an existing minutes record.
func (r *meetingRepository) Update(meeting *model.MeetingMinutes) error {
	return r.db.Save(meeting).Error
}

// FindByID looks a meeting up by primary key.
func (r *meetingRepository) FindByID(id uint) (*model.MeetingMinutes, error) {
	var meeting model.MeetingMinutes
	err := r.db.First(&meeting, id).Error
	if err != nil {
		return nil, err
	}
	return &meeting, nil
}

// FindByDate looks a meeting up by its meeting date.
func (r *meetingRepository) FindByDate(date time.Time) (*model.MeetingMinutes, error) {
	var meeting model.MeetingMinutes
	err := r.db.Where("meeting_date = ?", date).First(&meeting).Error
	if err != nil {
		return nil, err
	}
	return &meeting, nil
}

// FindAllOrdered returns every meeting, newest meeting date first.
func (r *meetingRepository) FindAllOrdered() ([]model.MeetingMinutes, error) {
	var meetings []model.MeetingMinutes
	err := r.db.Order("meeting_date DESC").Find(&meetings).Error
	return meetings, err
}

// FindLatest returns the meeting with the newest meeting date.
func (r *meetingRepository) FindLatest() (*model.MeetingMinutes, error) {
	var meeting model.MeetingMinutes
	err := r.db.Order("meeting_date DESC").First(&meeting).Error
	if err != nil {
		return nil, err
	}
	return &meeting, nil
}

// Delete removes a minutes record by primary key.
func (r *meetingRepository) Delete(id uint) error {
	return r.db.Delete(&model.MeetingMinutes{}, id).Error
}
