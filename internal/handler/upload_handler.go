package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"voicebox/internal/services"
	"voicebox/internal/session"
	"voicebox/internal/transport/httpdto"
	voicebox_errors "voicebox/pkg/errors"
)

type SubmissionHandler struct {
	service *services.SubmissionService
}

func NewSubmissionHandler(service *services.SubmissionService) *SubmissionHandler {
	return &SubmissionHandler{service: service}
}

// requireSession is a backstop; the session middleware normally guarantees a
// session is present before these handlers run.
func requireSession(c *gin.Context) (*session.Session, bool) {
	sess, ok := session.FromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse(session.RelaunchMessage, "SESSION_EXPIRED"))
	}
	return sess, ok
}

// Upload accepts the multipart "audio" field, stores it and records the
// submission under the launch session's user/course/assignment.
func (h *SubmissionHandler) Upload(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}

	file, err := c.FormFile("audio")
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("No audio file submitted", "NO_FILE"))
		return
	}

	// The recorder reports the clip length; absence just leaves it zero.
	duration, _ := strconv.ParseFloat(c.PostForm("duration"), 64)

	src, err := file.Open()
	if err != nil {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, httpdto.NewErrorResponse("Could not read the uploaded file", "UPLOAD_FAILED"))
		return
	}
	defer src.Close()

	sub, err := h.service.Submit(c.Request.Context(), sess, services.UploadInput{
		FileName:    file.Filename,
		ContentType: file.Header.Get("Content-Type"),
		Size:        file.Size,
		DurationSec: duration,
		Body:        src,
	})
	if err != nil {
		h.uploadError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewUploadResponse(sub.ID, sub.AudioURL))
}

func (h *SubmissionHandler) uploadError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, voicebox_errors.ErrTooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, httpdto.NewErrorResponse("Recording exceeds the 50 MiB limit", "FILE_TOO_LARGE"))
	case errors.Is(err, voicebox_errors.ErrUnsupported):
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("Only audio recordings can be submitted", "UNSUPPORTED_TYPE"))
	case errors.Is(err, voicebox_errors.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("The uploaded file is empty", "INVALID_FILE"))
	case errors.Is(err, voicebox_errors.ErrStorage):
		c.Error(err)
		c.JSON(http.StatusInternalServerError, httpdto.NewErrorResponse("Could not store your recording. Please try again.", "UPLOAD_FAILED"))
	default:
		c.Error(err)
		c.JSON(http.StatusInternalServerError, httpdto.NewErrorResponse("Could not save your submission. Please try again.", "UPLOAD_FAILED"))
	}
}

// Get returns one submission, and only to its owner. An id owned by someone
// else answers 404 exactly like an unknown id.
func (h *SubmissionHandler) Get(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}

	sub, err := h.service.Get(c.Request.Context(), sess, c.Param("id"))
	if err != nil {
		if errors.Is(err, voicebox_errors.ErrNotFound) {
			c.JSON(http.StatusNotFound, httpdto.NewErrorResponse("Submission not found", "NOT_FOUND"))
			return
		}
		c.Error(err)
		c.JSON(http.StatusInternalServerError, httpdto.NewErrorResponse("Could not load the submission", "QUERY_FAILED"))
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSubmissionDTO(sub))
}

// List returns the session scope's submissions as summaries, newest first.
func (h *SubmissionHandler) List(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}

	subs, err := h.service.List(c.Request.Context(), sess)
	if err != nil {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, httpdto.NewErrorResponse("Could not load submissions", "QUERY_FAILED"))
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSubmissionSummaryList(subs))
}
