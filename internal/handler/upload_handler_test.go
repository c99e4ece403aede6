package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"voicebox/internal/domain/submission"
	"voicebox/internal/services"
	"voicebox/internal/session"
	"voicebox/internal/transport/httpdto"
	voicebox_errors "voicebox/pkg/errors"
)

// stubRepo mocks repository.SubmissionRepository.
type stubRepo struct {
	createFunc func(ctx context.Context, s *submission.Submission) error
	getFunc    func(ctx context.Context, id, userID string) (submission.Submission, error)
	listFunc   func(ctx context.Context, userID, courseID, assignmentID string) ([]submission.Submission, error)
}

func (r *stubRepo) Create(ctx context.Context, s *submission.Submission) error {
	return r.createFunc(ctx, s)
}

func (r *stubRepo) GetForOwner(ctx context.Context, id, userID string) (submission.Submission, error) {
	return r.getFunc(ctx, id, userID)
}

func (r *stubRepo) ListForScope(ctx context.Context, userID, courseID, assignmentID string) ([]submission.Submission, error) {
	return r.listFunc(ctx, userID, courseID, assignmentID)
}

// stubBlobs mocks storage.BlobStore.
type stubBlobs struct {
	saveFunc func(ctx context.Context, name, contentType string, size int64, rd io.Reader) (string, error)
}

func (b *stubBlobs) Save(ctx context.Context, name, contentType string, size int64, rd io.Reader) (string, error) {
	return b.saveFunc(ctx, name, contentType, size, rd)
}

type noopOutcomes struct{}

func (noopOutcomes) ReplaceResult(ctx context.Context, serviceURL, consumerKey, sourcedID string, score float64) error {
	return nil
}

func newSubmissionHandler(repo *stubRepo, blobs *stubBlobs) *SubmissionHandler {
	svc := services.NewSubmissionService(repo, blobs, services.NewOutcomeService(noopOutcomes{}, zap.NewNop()))
	return NewSubmissionHandler(svc)
}

func uploadSession() *session.Session {
	return &session.Session{
		ID:           "sess-1",
		UserID:       "student-7",
		CourseID:     "course-9",
		AssignmentID: "assign-77",
	}
}

// audioForm builds a multipart body with one "audio" file part and an
// optional duration field, the way the recorder page submits.
func audioForm(t *testing.T, contentType string, payload []byte, duration string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Disposition", `form-data; name="audio"; filename="recording.webm"`)
	hdr.Set("Content-Type", contentType)
	part, err := mw.CreatePart(hdr)
	require.NoError(t, err)
	_, err = part.Write(payload)
	require.NoError(t, err)
	if duration != "" {
		require.NoError(t, mw.WriteField("duration", duration))
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func authedContext(sess *session.Session, method, target string, body io.Reader, contentType string) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(w)
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if sess != nil {
		req = req.WithContext(session.WithContext(req.Context(), sess))
	}
	ctx.Request = req
	return ctx, w
}

func TestUpload_StoresRecording(t *testing.T) {
	payload := []byte("webm-bytes")
	var created submission.Submission
	repo := &stubRepo{
		createFunc: func(ctx context.Context, s *submission.Submission) error {
			created = *s
			return nil
		},
	}
	var savedName, savedType string
	var savedSize int64
	blobs := &stubBlobs{
		saveFunc: func(ctx context.Context, name, contentType string, size int64, rd io.Reader) (string, error) {
			savedName, savedType, savedSize = name, contentType, size
			got, err := io.ReadAll(rd)
			require.NoError(t, err)
			assert.Equal(t, payload, got)
			return "/uploads/" + name, nil
		},
	}
	h := newSubmissionHandler(repo, blobs)

	body, ctype := audioForm(t, "audio/webm;codecs=opus", payload, "12.5")
	ctx, w := authedContext(uploadSession(), http.MethodPost, "http://tool.example/upload-audio", body, ctype)
	h.Upload(ctx)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp httpdto.UploadResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, created.ID, resp.SubmissionID)
	assert.Equal(t, "/uploads/"+savedName, resp.AudioURL)
	assert.Equal(t, "Audio submitted successfully", resp.Message)

	assert.Equal(t, "audio/webm", savedType)
	assert.Equal(t, int64(len(payload)), savedSize)
	assert.Equal(t, "student-7", created.UserID)
	assert.Equal(t, "course-9", created.CourseID)
	assert.Equal(t, "assign-77", created.AssignmentID)
	assert.Equal(t, savedName, created.FileName)
	assert.Equal(t, int64(len(payload)), created.FileSize)
	assert.Equal(t, 12.5, created.DurationSec)
}

func TestUpload_WithoutSession(t *testing.T) {
	h := newSubmissionHandler(&stubRepo{}, &stubBlobs{})

	ctx, w := authedContext(nil, http.MethodPost, "http://tool.example/upload-audio", nil, "")
	h.Upload(ctx)

	require.Equal(t, http.StatusUnauthorized, w.Code)
	var resp httpdto.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "SESSION_EXPIRED", resp.Code)
	assert.Equal(t, session.RelaunchMessage, resp.Message)
}

func TestUpload_MissingFilePart(t *testing.T) {
	h := newSubmissionHandler(&stubRepo{}, &stubBlobs{})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("duration", "3.0"))
	require.NoError(t, mw.Close())

	ctx, w := authedContext(uploadSession(), http.MethodPost, "http://tool.example/upload-audio", &buf, mw.FormDataContentType())
	h.Upload(ctx)

	require.Equal(t, http.StatusBadRequest, w.Code)
	var resp httpdto.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "NO_FILE", resp.Code)
}

func TestUpload_RejectsUnsupportedType(t *testing.T) {
	h := newSubmissionHandler(&stubRepo{}, &stubBlobs{})

	body, ctype := audioForm(t, "application/pdf", []byte("%PDF-1.7"), "")
	ctx, w := authedContext(uploadSession(), http.MethodPost, "http://tool.example/upload-audio", body, ctype)
	h.Upload(ctx)

	require.Equal(t, http.StatusBadRequest, w.Code)
	var resp httpdto.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "UNSUPPORTED_TYPE", resp.Code)
	assert.Equal(t, "Only audio recordings can be submitted", resp.Message)
}

func TestUpload_StorageFailure(t *testing.T) {
	repoCalled := false
	repo := &stubRepo{
		createFunc: func(ctx context.Context, s *submission.Submission) error {
			repoCalled = true
			return nil
		},
	}
	blobs := &stubBlobs{
		saveFunc: func(ctx context.Context, name, contentType string, size int64, rd io.Reader) (string, error) {
			return "", errors.New("bucket unreachable")
		},
	}
	h := newSubmissionHandler(repo, blobs)

	body, ctype := audioForm(t, "audio/webm", []byte("webm-bytes"), "")
	ctx, w := authedContext(uploadSession(), http.MethodPost, "http://tool.example/upload-audio", body, ctype)
	h.Upload(ctx)

	require.Equal(t, http.StatusInternalServerError, w.Code)
	var resp httpdto.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "UPLOAD_FAILED", resp.Code)
	assert.Equal(t, "Could not store your recording. Please try again.", resp.Message)
	assert.False(t, repoCalled)
}

func TestUpload_ErrorMapping(t *testing.T) {
	h := newSubmissionHandler(&stubRepo{}, &stubBlobs{})

	cases := []struct {
		err    error
		status int
		code   string
	}{
		{voicebox_errors.ErrTooLarge, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE"},
		{voicebox_errors.ErrUnsupported, http.StatusBadRequest, "UNSUPPORTED_TYPE"},
		{voicebox_errors.ErrInvalidInput, http.StatusBadRequest, "INVALID_FILE"},
		{voicebox_errors.ErrStorage, http.StatusInternalServerError, "UPLOAD_FAILED"},
		{errors.New("disk on fire"), http.StatusInternalServerError, "UPLOAD_FAILED"},
	}
	for _, tc := range cases {
		ctx, w := authedContext(uploadSession(), http.MethodPost, "http://tool.example/upload-audio", nil, "")
		h.uploadError(ctx, tc.err)

		assert.Equal(t, tc.status, w.Code, tc.code)
		var resp httpdto.ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.False(t, resp.Success)
		assert.Equal(t, tc.code, resp.Code)
	}
}

func TestGet_ReturnsOwnSubmission(t *testing.T) {
	created := time.Date(2026, 2, 11, 9, 30, 0, 0, time.UTC)
	repo := &stubRepo{
		getFunc: func(ctx context.Context, id, userID string) (submission.Submission, error) {
			assert.Equal(t, "sub-1", id)
			assert.Equal(t, "student-7", userID)
			return submission.Submission{
				ID:           id,
				UserID:       userID,
				CourseID:     "course-9",
				AssignmentID: "assign-77",
				AudioURL:     "/uploads/sub-1.webm",
				FileName:     "sub-1.webm",
				FileSize:     123,
				DurationSec:  4.2,
				CreatedAt:    created,
			}, nil
		},
	}
	h := newSubmissionHandler(repo, &stubBlobs{})

	ctx, w := authedContext(uploadSession(), http.MethodGet, "http://tool.example/submission/sub-1", nil, "")
	ctx.Params = gin.Params{{Key: "id", Value: "sub-1"}}
	h.Get(ctx)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp httpdto.SubmissionDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "sub-1", resp.ID)
	assert.Equal(t, "/uploads/sub-1.webm", resp.AudioURL)
	assert.Equal(t, "2026-02-11T09:30:00Z", resp.CreatedAt)
}

func TestGet_NotFound(t *testing.T) {
	repo := &stubRepo{
		getFunc: func(ctx context.Context, id, userID string) (submission.Submission, error) {
			return submission.Submission{}, voicebox_errors.ErrNotFound
		},
	}
	h := newSubmissionHandler(repo, &stubBlobs{})

	ctx, w := authedContext(uploadSession(), http.MethodGet, "http://tool.example/submission/sub-9", nil, "")
	ctx.Params = gin.Params{{Key: "id", Value: "sub-9"}}
	h.Get(ctx)

	require.Equal(t, http.StatusNotFound, w.Code)
	var resp httpdto.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "NOT_FOUND", resp.Code)
	assert.Equal(t, "Submission not found", resp.Message)
}

func TestList_ReturnsSummaries(t *testing.T) {
	repo := &stubRepo{
		listFunc: func(ctx context.Context, userID, courseID, assignmentID string) ([]submission.Submission, error) {
			assert.Equal(t, "student-7", userID)
			assert.Equal(t, "course-9", courseID)
			assert.Equal(t, "assign-77", assignmentID)
			return []submission.Submission{
				{ID: "sub-2", FileName: "sub-2.webm", FileSize: 456, CreatedAt: time.Date(2026, 2, 12, 8, 0, 0, 0, time.UTC)},
				{ID: "sub-1", FileName: "sub-1.webm", FileSize: 123, CreatedAt: time.Date(2026, 2, 11, 9, 30, 0, 0, time.UTC)},
			}, nil
		},
	}
	h := newSubmissionHandler(repo, &stubBlobs{})

	ctx, w := authedContext(uploadSession(), http.MethodGet, "http://tool.example/submissions", nil, "")
	h.List(ctx)

	require.Equal(t, http.StatusOK, w.Code)
	var resp []httpdto.SubmissionSummaryDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp, 2)
	assert.Equal(t, "sub-2", resp[0].ID)
	assert.Equal(t, "sub-1", resp[1].ID)
	assert.Equal(t, "sub-2.webm", resp[0].FileName)
	assert.Equal(t, int64(456), resp[0].FileSize)
}

func TestList_EmptyIsArray(t *testing.T) {
	repo := &stubRepo{
		listFunc: func(ctx context.Context, userID, courseID, assignmentID string) ([]submission.Submission, error) {
			return nil, nil
		},
	}
	h := newSubmissionHandler(repo, &stubBlobs{})

	ctx, w := authedContext(uploadSession(), http.MethodGet, "http://tool.example/submissions", nil, "")
	h.List(ctx)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", strings.TrimSpace(w.Body.String()))
}
