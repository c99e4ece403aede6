package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"voicebox/internal/domain/submission"
	voicebox_errors "voicebox/pkg/errors"
)

type GormSubmissionRepository struct {
	db *gorm.DB
}

func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &GormSubmissionRepository{db: db}
}

func (r *GormSubmissionRepository) Create(ctx context.Context, s *submission.Submission) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *GormSubmissionRepository) GetForOwner(ctx context.Context, id, userID string) (submission.Submission, error) {
	var s submission.Submission
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return submission.Submission{}, voicebox_errors.ErrNotFound
		}
		return submission.Submission{}, err
	}
	return s, nil
}

func (r *GormSubmissionRepository) ListForScope(ctx context.Context, userID, courseID, assignmentID string) ([]submission.Submission, error) {
	var subs []submission.Submission
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND course_id = ? AND assignment_id = ?", userID, courseID, assignmentID).
		Order("created_at DESC").
		Find(&subs).Error
	if err != nil {
		return nil, err
	}
	return subs, nil
}
