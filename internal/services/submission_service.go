package services

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"voicebox/internal/domain/submission"
	"voicebox/internal/repository"
	"voicebox/internal/session"
	"voicebox/internal/storage"
	voicebox_errors "voicebox/pkg/errors"
)

// MaxUploadBytes caps a single recording at 50 MiB.
const MaxUploadBytes int64 = 50 << 20

// recordingExt is the fixed extension for stored clips; browsers producing
// audio via MediaRecorder emit webm containers.
const recordingExt = ".webm"

// storedContentType is what blobs are persisted as regardless of how the
// browser labelled the part.
const storedContentType = "audio/webm"

type SubmissionService struct {
	repo     repository.SubmissionRepository
	blobs    storage.BlobStore
	outcomes *OutcomeService
}

// UploadInput is one recording as received from the browser.
type UploadInput struct {
	FileName    string
	ContentType string
	Size        int64
	DurationSec float64
	Body        io.Reader
}

func NewSubmissionService(repo repository.SubmissionRepository, blobs storage.BlobStore, outcomes *OutcomeService) *SubmissionService {
	return &SubmissionService{
		repo:     repo,
		blobs:    blobs,
		outcomes: outcomes,
	}
}

// Submit validates, stores and records one recording for the launch session.
// Storage runs before the metadata insert so a storage failure leaves no row
// behind. When the session carries outcome coordinates the completion grade
// is reported in the background; its result never affects the return value.
func (s *SubmissionService) Submit(ctx context.Context, sess *session.Session, in UploadInput) (submission.Submission, error) {
	if err := validateUpload(in); err != nil {
		return submission.Submission{}, err
	}

	id := uuid.NewString()
	name := id + recordingExt

	audioURL, err := s.blobs.Save(ctx, name, storedContentType, in.Size, in.Body)
	if err != nil {
		return submission.Submission{}, fmt.Errorf("%w: %v", voicebox_errors.ErrStorage, err)
	}

	sub := submission.Submission{
		ID:           id,
		UserID:       sess.UserID,
		CourseID:     sess.CourseID,
		AssignmentID: sess.AssignmentID,
		AudioURL:     audioURL,
		FileName:     name,
		FileSize:     in.Size,
		DurationSec:  in.DurationSec,
	}
	if err := s.repo.Create(ctx, &sub); err != nil {
		return submission.Submission{}, fmt.Errorf("recording submission: %w", err)
	}

	if sess.HasOutcome() {
		s.outcomes.ReportCompletion(sess)
	}
	return sub, nil
}

// Get returns the submission only when it belongs to the session's user.
func (s *SubmissionService) Get(ctx context.Context, sess *session.Session, id string) (submission.Submission, error) {
	return s.repo.GetForOwner(ctx, id, sess.UserID)
}

// List returns the session scope's submissions, newest first.
func (s *SubmissionService) List(ctx context.Context, sess *session.Session) ([]submission.Submission, error) {
	return s.repo.ListForScope(ctx, sess.UserID, sess.CourseID, sess.AssignmentID)
}

func validateUpload(in UploadInput) error {
	if in.Body == nil || in.Size <= 0 {
		return voicebox_errors.ErrInvalidInput
	}
	if in.Size > MaxUploadBytes {
		return voicebox_errors.ErrTooLarge
	}
	if !allowedContentType(in.ContentType) {
		return voicebox_errors.ErrUnsupported
	}
	return nil
}

// allowedContentType accepts any audio type plus video/webm, because some
// browsers label MediaRecorder audio output as video/webm.
func allowedContentType(ct string) bool {
	ct = strings.ToLower(strings.TrimSpace(ct))
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	if strings.HasPrefix(ct, "audio/") {
		return true
	}
	return ct == "video/webm"
}
