package repository

import (
	"context"

	"voicebox/internal/domain/submission"
)

// SubmissionRepository persists recording submissions. Reads are always
// scoped to the launching user so one student can never see another's work.
type SubmissionRepository interface {
	Create(ctx context.Context, s *submission.Submission) error
	GetForOwner(ctx context.Context, id, userID string) (submission.Submission, error)
	ListForScope(ctx context.Context, userID, courseID, assignmentID string) ([]submission.Submission, error)
}
