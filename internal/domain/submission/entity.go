package submission

import (
	"time"
)

// Submission is one accepted audio recording. Rows are written exactly once at
// the end of a successful upload and never updated or deleted afterwards.
type Submission struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	UserID       string    `gorm:"size:255;not null;index:idx_submissions_scope" json:"userId"`
	CourseID     string    `gorm:"size:255;not null;index:idx_submissions_scope" json:"courseId"`
	AssignmentID string    `gorm:"size:255;not null;index:idx_submissions_scope" json:"assignmentId"`
	AudioURL     string    `gorm:"not null" json:"audioUrl"`
	FileName     string    `gorm:"size:255;not null" json:"fileName"`
	FileSize     int64     `gorm:"not null" json:"fileSize"`
	DurationSec  float64   `json:"durationSec"`
	CreatedAt    time.Time `gorm:"autoCreateTime;index" json:"createdAt"`
}

func (Submission) TableName() string {
	return "submissions"
}
