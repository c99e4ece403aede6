package httpdto

import (
	"time"

	"voicebox/internal/domain/submission"
)

// UploadResponse is returned after POST /upload-audio stores a recording.
type UploadResponse struct {
	Success      bool   `json:"success"`
	SubmissionID string `json:"submissionId"`
	AudioURL     string `json:"audioUrl"`
	Message      string `json:"message"`
}

func NewUploadResponse(id, audioURL string) UploadResponse {
	return UploadResponse{
		Success:      true,
		SubmissionID: id,
		AudioURL:     audioURL,
		Message:      "Audio submitted successfully",
	}
}

// SubmissionDTO is the full row returned by GET /submission/:id.
type SubmissionDTO struct {
	ID           string  `json:"id"`
	UserID       string  `json:"userId"`
	CourseID     string  `json:"courseId"`
	AssignmentID string  `json:"assignmentId"`
	AudioURL     string  `json:"audioUrl"`
	FileName     string  `json:"fileName"`
	FileSize     int64   `json:"fileSize"`
	DurationSec  float64 `json:"durationSec"`
	CreatedAt    string  `json:"createdAt"`
}

func NewSubmissionDTO(s submission.Submission) SubmissionDTO {
	return SubmissionDTO{
		ID:           s.ID,
		UserID:       s.UserID,
		CourseID:     s.CourseID,
		AssignmentID: s.AssignmentID,
		AudioURL:     s.AudioURL,
		FileName:     s.FileName,
		FileSize:     s.FileSize,
		DurationSec:  s.DurationSec,
		CreatedAt:    s.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// SubmissionSummaryDTO is the projection GET /submissions lists. The storage
// location is deliberately omitted.
type SubmissionSummaryDTO struct {
	ID        string `json:"id"`
	FileName  string `json:"fileName"`
	FileSize  int64  `json:"fileSize"`
	CreatedAt string `json:"createdAt"`
}

func NewSubmissionSummaryDTO(s submission.Submission) SubmissionSummaryDTO {
	return SubmissionSummaryDTO{
		ID:        s.ID,
		FileName:  s.FileName,
		FileSize:  s.FileSize,
		CreatedAt: s.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// NewSubmissionSummaryList maps rows for the list endpoint, returning an empty
// slice rather than nil so the JSON is always an array.
func NewSubmissionSummaryList(subs []submission.Submission) []SubmissionSummaryDTO {
	out := make([]SubmissionSummaryDTO, 0, len(subs))
	for _, s := range subs {
		out = append(out, NewSubmissionSummaryDTO(s))
	}
	return out
}
